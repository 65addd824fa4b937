// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
)

func seedContent(t *testing.T, store ContentStore, c models.Content) {
	t.Helper()
	if err := store.UpsertContent(context.Background(), &c); err != nil {
		t.Fatalf("seeding %s: %v", c.ID, err)
	}
}

func TestMemoryContentRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seedContent(t, m, models.Content{
		ID:    "id-1",
		Title: "The Staircase",
		Type:  models.ContentTypeDocumentary,
		ExternalIDs: map[models.Provider]string{
			models.ProviderTMDB:  "tmdb-100",
			models.ProviderTrakt: "trakt-200",
		},
	})

	got, err := m.FindContentByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("FindContentByID() error = %v", err)
	}
	if got.Title != "The Staircase" {
		t.Errorf("title = %q, want %q", got.Title, "The Staircase")
	}

	byExt, err := m.FindContentByExternalID(ctx, models.ProviderTrakt, "trakt-200")
	if err != nil {
		t.Fatalf("FindContentByExternalID() error = %v", err)
	}
	if byExt.ID != "id-1" {
		t.Errorf("external id lookup = %q, want id-1", byExt.ID)
	}

	if _, err := m.FindContentByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
	if _, err := m.FindContentByExternalID(ctx, models.ProviderTMDB, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing external id error = %v, want ErrNotFound", err)
	}
}

func TestMemoryUpsertReplacesByID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seedContent(t, m, models.Content{ID: "id-1", Title: "Old"})
	seedContent(t, m, models.Content{ID: "id-1", Title: "New"})

	got, err := m.FindContentByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("FindContentByID() error = %v", err)
	}
	if got.Title != "New" {
		t.Errorf("title = %q, want replacement to win", got.Title)
	}

	list, err := m.ListContent(ctx)
	if err != nil {
		t.Fatalf("ListContent() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}
}

func TestMemoryFindUserInteractions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SeedInteraction(models.UserInteraction{UserID: "u1", ContentID: "c1", State: models.TrackingCompleted})
	m.SeedUser("u2")

	got, err := m.FindUserInteractions(ctx, "u1")
	if err != nil || len(got) != 1 {
		t.Fatalf("u1 interactions = %v, %v; want one interaction", got, err)
	}

	empty, err := m.FindUserInteractions(ctx, "u2")
	if err != nil || len(empty) != 0 {
		t.Fatalf("u2 interactions = %v, %v; want empty without error", empty, err)
	}

	if _, err := m.FindUserInteractions(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestMemoryFindNeighborUsers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SeedInteraction(models.UserInteraction{UserID: "u1", ContentID: "c1", State: models.TrackingCompleted})
	m.SeedInteraction(models.UserInteraction{UserID: "u1", ContentID: "c2", State: models.TrackingWantToWatch})

	// u2 shares a completed title, u3 only a want-to-watch, u4 nothing.
	m.SeedInteraction(models.UserInteraction{UserID: "u2", ContentID: "c1", State: models.TrackingWatching})
	m.SeedInteraction(models.UserInteraction{UserID: "u3", ContentID: "c2", State: models.TrackingWantToWatch})
	m.SeedInteraction(models.UserInteraction{UserID: "u4", ContentID: "c9", State: models.TrackingCompleted})

	got, err := m.FindNeighborUsers(ctx, "u1")
	if err != nil {
		t.Fatalf("FindNeighborUsers() error = %v", err)
	}
	if len(got) != 1 || got[0] != "u2" {
		t.Errorf("neighbors = %v, want [u2]", got)
	}
}

func TestMemoryListInteractionsSince(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	m.SeedInteraction(models.UserInteraction{UserID: "u1", ContentID: "c1", UpdatedAt: cutoff.Add(time.Hour)})
	m.SeedInteraction(models.UserInteraction{UserID: "u1", ContentID: "c2", UpdatedAt: cutoff})
	m.SeedInteraction(models.UserInteraction{UserID: "u2", ContentID: "c3", UpdatedAt: cutoff.Add(-time.Hour)})

	got, err := m.ListInteractionsSince(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListInteractionsSince() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("interactions = %d, want 2 (cutoff is inclusive)", len(got))
	}
}

func TestMemorySearchRanksByTokenMatches(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	docs := []models.Content{
		{ID: "id-1", Title: "Zodiac", Description: "the zodiac killer case", Type: models.ContentTypeMovie},
		{ID: "id-2", Title: "Zodiac Unmasked", Type: models.ContentTypeSeries},
		{ID: "id-3", Title: "Wild Country", Type: models.ContentTypeDocumentary},
	}
	if err := m.IndexContent(ctx, docs); err != nil {
		t.Fatalf("IndexContent() error = %v", err)
	}

	got, err := m.Search(ctx, "zodiac killer", SearchFilters{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	// Both tokens match id-1; only one matches id-2.
	if got[0].ID != "id-1" || got[1].ID != "id-2" {
		t.Errorf("order = %s, %s; want id-1 first", got[0].ID, got[1].ID)
	}
}

func TestMemorySearchFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	docs := []models.Content{
		{ID: "id-1", Title: "Night Stalker", Type: models.ContentTypeSeries, GenreTags: []string{"true crime"}},
		{ID: "id-2", Title: "Night Shift", Type: models.ContentTypeMovie, GenreTags: []string{"thriller"}},
	}
	if err := m.IndexContent(ctx, docs); err != nil {
		t.Fatalf("IndexContent() error = %v", err)
	}

	bySeries, err := m.Search(ctx, "night", SearchFilters{Type: models.ContentTypeSeries})
	if err != nil || len(bySeries) != 1 || bySeries[0].ID != "id-1" {
		t.Errorf("type filter results = %v, %v; want only id-1", bySeries, err)
	}

	byGenre, err := m.Search(ctx, "night", SearchFilters{GenreTags: []string{"true crime"}})
	if err != nil || len(byGenre) != 1 || byGenre[0].ID != "id-1" {
		t.Errorf("genre filter results = %v, %v; want only id-1", byGenre, err)
	}

	limited, err := m.Search(ctx, "night", SearchFilters{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Errorf("limited results = %v, %v; want exactly 1", limited, err)
	}
}

func TestBadgerContentRoundTrip(t *testing.T) {
	db, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	seedContent(t, db, models.Content{
		ID:    "id-1",
		Title: "The Jinx",
		Type:  models.ContentTypeSeries,
		ExternalIDs: map[models.Provider]string{
			models.ProviderTMDB: "tmdb-7",
		},
	})

	got, err := db.FindContentByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("FindContentByID() error = %v", err)
	}
	if got.Title != "The Jinx" || got.Type != models.ContentTypeSeries {
		t.Errorf("content = %+v, want title and type preserved", got)
	}

	byExt, err := db.FindContentByExternalID(ctx, models.ProviderTMDB, "tmdb-7")
	if err != nil || byExt.ID != "id-1" {
		t.Fatalf("external id lookup = %v, %v; want id-1", byExt, err)
	}

	if _, err := db.FindContentByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}

	list, err := db.ListContent(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListContent() = %v, %v; want one record", list, err)
	}
}

func TestBadgerUpsertMovesExternalIDIndex(t *testing.T) {
	db, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	seedContent(t, db, models.Content{
		ID:          "id-1",
		Title:       "First",
		ExternalIDs: map[models.Provider]string{models.ProviderTVMaze: "maze-1"},
	})
	seedContent(t, db, models.Content{
		ID:          "id-2",
		Title:       "Second",
		ExternalIDs: map[models.Provider]string{models.ProviderTVMaze: "maze-1"},
	})

	got, err := db.FindContentByExternalID(ctx, models.ProviderTVMaze, "maze-1")
	if err != nil {
		t.Fatalf("FindContentByExternalID() error = %v", err)
	}
	if got.ID != "id-2" {
		t.Errorf("index points at %q, want latest writer id-2", got.ID)
	}
}
