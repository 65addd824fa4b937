// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package signals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// defaultHalfLife controls how fast old interactions stop shaping the
// user's tag profile.
const defaultHalfLife = 90 * 24 * time.Hour

// ContentBased scores candidates by overlap between their tags and the
// user's accumulated tag-preference profile. Profile contributions are
// rating-weighted and decay with interaction age.
type ContentBased struct {
	interactions storage.InteractionStore
	content      storage.ContentStore
	halfLife     time.Duration

	now func() time.Time
}

// NewContentBased creates the content-based signal.
func NewContentBased(interactions storage.InteractionStore, content storage.ContentStore) *ContentBased {
	return &ContentBased{
		interactions: interactions,
		content:      content,
		halfLife:     defaultHalfLife,
		now:          time.Now,
	}
}

// Name implements recommend.Signal.
func (s *ContentBased) Name() string { return recommend.SignalContent }

// NeedsHistory implements recommend.Signal.
func (s *ContentBased) NeedsHistory() bool { return true }

// Score implements recommend.Signal.
func (s *ContentBased) Score(ctx context.Context, userID string, candidates []models.Content) (map[string]recommend.Score, error) {
	profile, topTag, err := s.buildProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(profile) == 0 {
		return nil, nil
	}

	reason := "matches your interest in " + topTag
	raw := make(map[string]float64, len(candidates))
	var maxScore float64
	for _, c := range candidates {
		var score float64
		for _, tag := range c.GenreTags {
			score += profile[tag]
		}
		for _, tag := range c.CaseTags {
			score += profile[tag]
		}
		if score > 0 {
			raw[c.ID] = score
			if score > maxScore {
				maxScore = score
			}
		}
	}
	if maxScore == 0 {
		return nil, nil
	}

	out := make(map[string]recommend.Score, len(raw))
	for id, score := range raw {
		out[id] = recommend.Score{Raw: score / maxScore, Reason: reason}
	}
	return out, nil
}

// buildProfile accumulates tag weights from the user's history and
// returns the profile plus its strongest tag.
func (s *ContentBased) buildProfile(ctx context.Context, userID string) (map[string]float64, string, error) {
	history, err := s.interactions.FindUserInteractions(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("content signal: load history: %w", err)
	}

	now := s.now()
	profile := make(map[string]float64)
	for _, i := range history {
		weight := interactionWeight(&i)
		if weight == 0 {
			continue
		}
		age := now.Sub(i.UpdatedAt)
		if age > 0 {
			weight *= math.Pow(0.5, age.Hours()/s.halfLife.Hours())
		}

		c, err := s.content.FindContentByID(ctx, i.ContentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, "", fmt.Errorf("content signal: load content: %w", err)
		}
		for _, tag := range c.GenreTags {
			profile[tag] += weight
		}
		for _, tag := range c.CaseTags {
			profile[tag] += weight
		}
	}

	var topTag string
	var topWeight float64
	for tag, w := range profile {
		if w > topWeight || (w == topWeight && (topTag == "" || tag < topTag)) {
			topTag, topWeight = tag, w
		}
	}
	return profile, topTag, nil
}

// interactionWeight maps an interaction onto a profile contribution.
// Ratings dominate; completing a title without rating it still counts.
func interactionWeight(i *models.UserInteraction) float64 {
	if i.Rating > 0 {
		return i.Rating / 5
	}
	switch i.State {
	case models.TrackingCompleted:
		return 0.6
	case models.TrackingWatching:
		return 0.4
	case models.TrackingWantToWatch:
		return 0.2
	default:
		return 0
	}
}
