// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package signals

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// Trailing windows for the trending signal.
const (
	WindowDay   = 24 * time.Hour
	WindowWeek  = 7 * 24 * time.Hour
	WindowMonth = 30 * 24 * time.Hour
)

// Trending scores candidates by interaction volume inside a trailing
// window, normalized by rank among the trending set.
type Trending struct {
	interactions storage.InteractionStore
	window       time.Duration

	now func() time.Time
}

// NewTrending creates the trending signal over the given window.
func NewTrending(interactions storage.InteractionStore, window time.Duration) *Trending {
	if window <= 0 {
		window = WindowWeek
	}
	return &Trending{interactions: interactions, window: window, now: time.Now}
}

// Name implements recommend.Signal.
func (t *Trending) Name() string { return recommend.SignalTrending }

// NeedsHistory implements recommend.Signal. Trending is the cold-start
// signal; it never needs the target user's history.
func (t *Trending) NeedsHistory() bool { return false }

// Score implements recommend.Signal.
func (t *Trending) Score(ctx context.Context, _ string, candidates []models.Content) (map[string]recommend.Score, error) {
	since := t.now().Add(-t.window)
	recent, err := t.interactions.ListInteractionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("trending: list interactions: %w", err)
	}

	inSet := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		inSet[c.ID] = true
	}

	counts := make(map[string]int)
	for _, i := range recent {
		if inSet[i.ContentID] {
			counts[i.ContentID]++
		}
	}
	if len(counts) == 0 {
		return nil, nil
	}

	// Rank-normalize: the most-interacted title scores 1.0, the last
	// ranked title scores just above 0.
	type entry struct {
		id    string
		count int
	}
	ranked := make([]entry, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, entry{id, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})

	reason := "trending " + windowLabel(t.window)
	out := make(map[string]recommend.Score, len(ranked))
	for rank, e := range ranked {
		out[e.id] = recommend.Score{
			Raw:    float64(len(ranked)-rank) / float64(len(ranked)),
			Reason: reason,
		}
	}
	return out, nil
}

func windowLabel(window time.Duration) string {
	switch {
	case window <= WindowDay:
		return "today"
	case window <= WindowWeek:
		return "this week"
	default:
		return "this month"
	}
}
