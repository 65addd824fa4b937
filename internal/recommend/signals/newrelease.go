// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// newReleaseWindow is the trailing window inside which a catalog
// addition counts as new.
const newReleaseWindow = 30 * 24 * time.Hour

// NewRelease gives a recency bonus to titles added to the catalog
// within a trailing window, filtered by the user's preferred genres
// when the history reveals any.
type NewRelease struct {
	interactions storage.InteractionStore
	content      storage.ContentStore

	now func() time.Time
}

// NewNewRelease creates the new-release signal.
func NewNewRelease(interactions storage.InteractionStore, content storage.ContentStore) *NewRelease {
	return &NewRelease{interactions: interactions, content: content, now: time.Now}
}

// Name implements recommend.Signal.
func (s *NewRelease) Name() string { return recommend.SignalNewRelease }

// NeedsHistory implements recommend.Signal. The genre filter is what
// personalizes this signal; without history it would duplicate trending.
func (s *NewRelease) NeedsHistory() bool { return true }

// Score implements recommend.Signal.
func (s *NewRelease) Score(ctx context.Context, userID string, candidates []models.Content) (map[string]recommend.Score, error) {
	preferred, err := s.preferredGenres(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make(map[string]recommend.Score)
	for _, c := range candidates {
		age := now.Sub(c.AddedAt)
		if age < 0 || age > newReleaseWindow {
			continue
		}
		if len(preferred) > 0 && !sharesGenre(&c, preferred) {
			continue
		}
		out[c.ID] = recommend.Score{
			Raw:    1 - age.Seconds()/newReleaseWindow.Seconds(),
			Reason: "newly added this month",
		}
	}
	return out, nil
}

// preferredGenres derives the user's genre set from positive history.
func (s *NewRelease) preferredGenres(ctx context.Context, userID string) (map[string]bool, error) {
	history, err := s.interactions.FindUserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("new-release signal: load history: %w", err)
	}

	preferred := make(map[string]bool)
	for _, i := range history {
		if !i.Positive() {
			continue
		}
		c, err := s.content.FindContentByID(ctx, i.ContentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("new-release signal: load content: %w", err)
		}
		for _, tag := range c.GenreTags {
			preferred[tag] = true
		}
	}
	return preferred, nil
}

func sharesGenre(c *models.Content, genres map[string]bool) bool {
	for _, tag := range c.GenreTags {
		if genres[tag] {
			return true
		}
	}
	return false
}
