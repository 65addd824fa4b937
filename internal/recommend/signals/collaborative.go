// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package signals

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// Collaborative scores candidates from "neighbor" users: users sharing
// at least one completed or watching title with the target user. A
// candidate rated highly by many neighbors scores high.
//
// When the neighbor computation's dependency is unavailable, the engine
// runs the popularity-based fallback variant instead.
type Collaborative struct {
	interactions storage.InteractionStore
}

// NewCollaborative creates the collaborative signal.
func NewCollaborative(interactions storage.InteractionStore) *Collaborative {
	return &Collaborative{interactions: interactions}
}

// Name implements recommend.Signal.
func (s *Collaborative) Name() string { return recommend.SignalCollaborative }

// NeedsHistory implements recommend.Signal.
func (s *Collaborative) NeedsHistory() bool { return true }

// Fallback implements recommend.Fallbacker.
func (s *Collaborative) Fallback() recommend.Signal {
	return &collaborativeFallback{interactions: s.interactions}
}

// Score implements recommend.Signal.
func (s *Collaborative) Score(ctx context.Context, userID string, candidates []models.Content) (map[string]recommend.Score, error) {
	neighbors, err := s.interactions.FindNeighborUsers(ctx, userID)
	if err != nil {
		// Neighbor lookup is the signal's hard dependency; its loss is
		// survivable through the fallback
		return nil, fmt.Errorf("collaborative: find neighbors: %v: %w", err, recommend.ErrSignalUnavailable)
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	inSet := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		inSet[c.ID] = true
	}

	likeCount := make(map[string]int)
	ratingSum := make(map[string]float64)
	for _, neighbor := range neighbors {
		history, err := s.interactions.FindUserInteractions(ctx, neighbor)
		if err != nil {
			return nil, fmt.Errorf("collaborative: neighbor history: %v: %w", err, recommend.ErrSignalUnavailable)
		}
		for _, i := range history {
			if i.Rating < favoriteRatingFloor || !inSet[i.ContentID] {
				continue
			}
			likeCount[i.ContentID]++
			ratingSum[i.ContentID] += i.Rating
		}
	}
	if len(likeCount) == 0 {
		return nil, nil
	}

	out := make(map[string]recommend.Score, len(likeCount))
	total := float64(len(neighbors))
	for id, n := range likeCount {
		meanRating := ratingSum[id] / float64(n)
		out[id] = recommend.Score{
			Raw:    (float64(n) / total) * (meanRating / 5),
			Reason: "loved by " + strconv.Itoa(n) + " viewers with similar watch history",
		}
	}
	return out, nil
}

// collaborativeFallback is the degraded variant: global positive
// interaction counts inside a trailing window stand in for the neighbor
// computation.
type collaborativeFallback struct {
	interactions storage.InteractionStore
}

func (f *collaborativeFallback) Name() string { return recommend.SignalCollaborative }

func (f *collaborativeFallback) NeedsHistory() bool { return true }

func (f *collaborativeFallback) Score(ctx context.Context, _ string, candidates []models.Content) (map[string]recommend.Score, error) {
	recent, err := f.interactions.ListInteractionsSince(ctx, time.Now().Add(-WindowMonth))
	if err != nil {
		return nil, fmt.Errorf("collaborative fallback: %w", err)
	}

	inSet := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		inSet[c.ID] = true
	}

	counts := make(map[string]int)
	max := 0
	for _, i := range recent {
		if !i.Positive() || !inSet[i.ContentID] {
			continue
		}
		counts[i.ContentID]++
		if counts[i.ContentID] > max {
			max = counts[i.ContentID]
		}
	}
	if max == 0 {
		return nil, nil
	}

	out := make(map[string]recommend.Score, len(counts))
	for id, n := range counts {
		out[id] = recommend.Score{
			Raw:    float64(n) / float64(max),
			Reason: "popular with other viewers",
		}
	}
	return out, nil
}
