// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func seedContent(mem *storage.Memory, id string, genres, cases []string) models.Content {
	c := models.Content{
		ID:        id,
		Title:     "title " + id,
		Type:      models.ContentTypeDocumentary,
		GenreTags: genres,
		CaseTags:  cases,
		AddedAt:   testNow.Add(-60 * 24 * time.Hour),
	}
	mem.UpsertContent(context.Background(), &c)
	return c
}

func interaction(user, content string, rating float64, state models.TrackingState, age time.Duration) models.UserInteraction {
	return models.UserInteraction{
		UserID:    user,
		ContentID: content,
		Rating:    rating,
		State:     state,
		UpdatedAt: testNow.Add(-age),
	}
}

func TestTrendingRankNormalization(t *testing.T) {
	mem := storage.NewMemory()
	a := seedContent(mem, "a", nil, nil)
	b := seedContent(mem, "b", nil, nil)
	c := seedContent(mem, "c", nil, nil)

	// a: 3 recent interactions, b: 1, c: none
	for _, u := range []string{"u1", "u2", "u3"} {
		mem.SeedInteraction(interaction(u, "a", 0, models.TrackingWatching, time.Hour))
	}
	mem.SeedInteraction(interaction("u1", "b", 0, models.TrackingWatching, time.Hour))
	// stale interaction outside the window must not count
	mem.SeedInteraction(interaction("u2", "c", 0, models.TrackingWatching, 10*24*time.Hour))

	sig := NewTrending(mem, WindowWeek)
	sig.now = func() time.Time { return testNow }

	scores, err := sig.Score(context.Background(), "u9", []models.Content{a, b, c})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scored items, want 2 inside the window", len(scores))
	}
	if scores["a"].Raw != 1.0 {
		t.Errorf("top trending score = %v, want 1.0", scores["a"].Raw)
	}
	if scores["b"].Raw != 0.5 {
		t.Errorf("second trending score = %v, want 0.5", scores["b"].Raw)
	}
	if scores["a"].Reason != "trending this week" {
		t.Errorf("reason = %q, want window label", scores["a"].Reason)
	}
}

func TestContentBasedProfileOverlap(t *testing.T) {
	mem := storage.NewMemory()
	liked := seedContent(mem, "liked", []string{"forensics", "serial"}, nil)
	match := seedContent(mem, "match", []string{"forensics"}, nil)
	other := seedContent(mem, "other", []string{"heist"}, nil)

	mem.SeedInteraction(interaction("u1", "liked", 5, models.TrackingCompleted, 24*time.Hour))

	sig := NewContentBased(mem, mem)
	sig.now = func() time.Time { return testNow }

	scores, err := sig.Score(context.Background(), "u1", []models.Content{liked, match, other})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if _, ok := scores["other"]; ok {
		t.Error("candidate with no tag overlap got a score")
	}
	if scores["liked"].Raw != 1.0 {
		t.Errorf("full-overlap score = %v, want 1.0 after normalization", scores["liked"].Raw)
	}
	if scores["match"].Raw <= 0 || scores["match"].Raw >= scores["liked"].Raw {
		t.Errorf("partial overlap score = %v, want between 0 and %v", scores["match"].Raw, scores["liked"].Raw)
	}
}

func TestCaseBasedFavoriteCases(t *testing.T) {
	mem := storage.NewMemory()
	rated := seedContent(mem, "rated", nil, []string{"zodiac-killer"})
	covers := seedContent(mem, "covers", nil, []string{"zodiac-killer", "db-cooper"})
	unrelated := seedContent(mem, "unrelated", nil, []string{"black-dahlia"})

	mem.SeedInteraction(interaction("u1", "rated", 5, models.TrackingCompleted, 24*time.Hour))
	// low rating must not make a case a favorite
	mem.SeedInteraction(interaction("u1", "unrelated", 2, models.TrackingCompleted, 24*time.Hour))

	sig := NewCaseBased(mem, mem)

	scores, err := sig.Score(context.Background(), "u1", []models.Content{rated, covers, unrelated})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if _, ok := scores["unrelated"]; ok {
		t.Error("low-rated case counted as favorite")
	}
	got, ok := scores["covers"]
	if !ok {
		t.Fatal("candidate covering a favorite case not scored")
	}
	if got.Reason != "covers the zodiac-killer case" {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestCollaborativeNeighborScores(t *testing.T) {
	mem := storage.NewMemory()
	shared := seedContent(mem, "shared", nil, nil)
	rec := seedContent(mem, "rec", nil, nil)

	// u1 and two neighbors completed the shared title; both neighbors
	// rate the candidate highly
	mem.SeedInteraction(interaction("u1", "shared", 0, models.TrackingCompleted, 48*time.Hour))
	for _, n := range []string{"n1", "n2"} {
		mem.SeedInteraction(interaction(n, "shared", 0, models.TrackingCompleted, 48*time.Hour))
		mem.SeedInteraction(interaction(n, "rec", 5, models.TrackingCompleted, 24*time.Hour))
	}

	sig := NewCollaborative(mem)

	scores, err := sig.Score(context.Background(), "u1", []models.Content{shared, rec})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	got, ok := scores["rec"]
	if !ok {
		t.Fatal("neighbor-loved candidate not scored")
	}
	// both neighbors rated 5/5: (2/2) * (5/5) = 1.0
	if got.Raw != 1.0 {
		t.Errorf("score = %v, want 1.0", got.Raw)
	}
}

// downInteractions fails neighbor lookups.
type downInteractions struct {
	*storage.Memory
}

func (d *downInteractions) FindNeighborUsers(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestCollaborativeUnavailableWrapsSentinel(t *testing.T) {
	mem := storage.NewMemory()
	sig := NewCollaborative(&downInteractions{mem})

	_, err := sig.Score(context.Background(), "u1", nil)
	if !errors.Is(err, recommend.ErrSignalUnavailable) {
		t.Errorf("error = %v, want ErrSignalUnavailable", err)
	}
}

func TestCollaborativeFallbackPopularity(t *testing.T) {
	mem := storage.NewMemory()
	hot := seedContent(mem, "hot", nil, nil)
	cold := seedContent(mem, "cold", nil, nil)

	// the fallback reads the real clock, so fixtures are relative to it
	recent := time.Now().Add(-time.Hour)
	for _, u := range []string{"u1", "u2", "u3"} {
		mem.SeedInteraction(models.UserInteraction{
			UserID: u, ContentID: "hot", Rating: 5,
			State: models.TrackingCompleted, UpdatedAt: recent,
		})
	}
	mem.SeedInteraction(models.UserInteraction{
		UserID: "u1", ContentID: "cold", Rating: 1,
		State: models.TrackingAbandoned, UpdatedAt: recent,
	})

	fb := NewCollaborative(mem).Fallback()

	scores, err := fb.Score(context.Background(), "u9", []models.Content{hot, cold})
	if err != nil {
		t.Fatalf("fallback Score() error = %v", err)
	}
	if scores["hot"].Raw != 1.0 {
		t.Errorf("popular item score = %v, want 1.0", scores["hot"].Raw)
	}
	if _, ok := scores["cold"]; ok {
		t.Error("abandoned title counted as positive interaction")
	}
	if scores["hot"].Reason != "popular with other viewers" {
		t.Errorf("reason = %q", scores["hot"].Reason)
	}
}

func TestNewReleaseWindowAndGenreFilter(t *testing.T) {
	mem := storage.NewMemory()

	fresh := models.Content{ID: "fresh", Title: "fresh", Type: models.ContentTypeDocumentary,
		GenreTags: []string{"forensics"}, AddedAt: testNow.Add(-5 * 24 * time.Hour)}
	offGenre := models.Content{ID: "offgenre", Title: "offgenre", Type: models.ContentTypeDocumentary,
		GenreTags: []string{"heist"}, AddedAt: testNow.Add(-5 * 24 * time.Hour)}
	old := models.Content{ID: "old", Title: "old", Type: models.ContentTypeDocumentary,
		GenreTags: []string{"forensics"}, AddedAt: testNow.Add(-90 * 24 * time.Hour)}
	for _, c := range []models.Content{fresh, offGenre, old} {
		mem.UpsertContent(context.Background(), &c)
	}

	liked := seedContent(mem, "liked", []string{"forensics"}, nil)
	mem.SeedInteraction(interaction("u1", liked.ID, 5, models.TrackingCompleted, 24*time.Hour))

	sig := NewNewRelease(mem, mem)
	sig.now = func() time.Time { return testNow }

	scores, err := sig.Score(context.Background(), "u1", []models.Content{fresh, offGenre, old})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if _, ok := scores["old"]; ok {
		t.Error("title outside the 30-day window scored")
	}
	if _, ok := scores["offgenre"]; ok {
		t.Error("title outside preferred genres scored")
	}
	got, ok := scores["fresh"]
	if !ok {
		t.Fatal("recent preferred-genre title not scored")
	}
	if got.Raw <= 0 || got.Raw >= 1 {
		t.Errorf("recency bonus = %v, want in (0,1)", got.Raw)
	}
}
