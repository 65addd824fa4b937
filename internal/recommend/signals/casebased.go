// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package signals

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// favoriteRatingFloor is the rating at which a title's cases count as
// favorites.
const favoriteRatingFloor = 4

// defaultFavoriteCases is how many top cases shape the signal.
const defaultFavoriteCases = 5

// CaseBased scores candidates by overlap with the user's favorite
// real-world cases: the case tags most frequent among highly rated
// titles.
type CaseBased struct {
	interactions storage.InteractionStore
	content      storage.ContentStore
	topN         int
}

// NewCaseBased creates the case-based signal.
func NewCaseBased(interactions storage.InteractionStore, content storage.ContentStore) *CaseBased {
	return &CaseBased{interactions: interactions, content: content, topN: defaultFavoriteCases}
}

// Name implements recommend.Signal.
func (s *CaseBased) Name() string { return recommend.SignalCase }

// NeedsHistory implements recommend.Signal.
func (s *CaseBased) NeedsHistory() bool { return true }

// Score implements recommend.Signal.
func (s *CaseBased) Score(ctx context.Context, userID string, candidates []models.Content) (map[string]recommend.Score, error) {
	favorites, err := s.favoriteCases(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return nil, nil
	}

	out := make(map[string]recommend.Score, len(candidates))
	for _, c := range candidates {
		var hits []string
		for _, tag := range c.CaseTags {
			if favorites[tag] {
				hits = append(hits, tag)
			}
		}
		if len(hits) == 0 {
			continue
		}
		raw := float64(len(hits)) / float64(s.topN)
		if raw > 1 {
			raw = 1
		}
		out[c.ID] = recommend.Score{
			Raw:    raw,
			Reason: "covers the " + hits[0] + " case",
		}
	}
	return out, nil
}

// favoriteCases returns the user's top-N case tags by frequency among
// titles rated at or above the favorite floor.
func (s *CaseBased) favoriteCases(ctx context.Context, userID string) (map[string]bool, error) {
	history, err := s.interactions.FindUserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("case signal: load history: %w", err)
	}

	freq := make(map[string]int)
	for _, i := range history {
		if i.Rating < favoriteRatingFloor {
			continue
		}
		c, err := s.content.FindContentByID(ctx, i.ContentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("case signal: load content: %w", err)
		}
		for _, tag := range c.CaseTags {
			freq[tag]++
		}
	}
	if len(freq) == 0 {
		return nil, nil
	}

	tags := make([]string, 0, len(freq))
	for tag := range freq {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if freq[tags[i]] != freq[tags[j]] {
			return freq[tags[i]] > freq[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > s.topN {
		tags = tags[:s.topN]
	}

	favorites := make(map[string]bool, len(tags))
	for _, tag := range tags {
		favorites[tag] = true
	}
	return favorites, nil
}
