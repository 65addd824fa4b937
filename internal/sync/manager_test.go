// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/providers"
	"github.com/coldcaselabs/coldcase/internal/reconcile"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// fakeAdapter serves canned search results from memory.
type fakeAdapter struct {
	name    models.Provider
	records []models.ProviderRawRecord
	err     error
	calls   int
}

func (f *fakeAdapter) Name() models.Provider { return f.name }

func (f *fakeAdapter) SearchByTitle(context.Context, string) ([]models.ProviderRawRecord, error) {
	f.calls++
	return f.records, f.err
}

func (f *fakeAdapter) GetDetail(context.Context, string) (*models.ProviderRawRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAdapter) GetAvailability(context.Context, string, string) ([]models.PlatformAvailability, error) {
	return nil, providers.ErrAvailabilityUnsupported
}

func record(provider models.Provider, externalID, title string, year int) models.ProviderRawRecord {
	release := time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.ProviderRawRecord{
		Provider:    provider,
		ExternalID:  externalID,
		Title:       title,
		Type:        models.ContentTypeDocumentary,
		ReleaseDate: &release,
		FetchedAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestManager(adapters ...providers.Adapter) (*Manager, *storage.Memory) {
	mem := storage.NewMemory()
	rec := reconcile.New(mem, mem)
	reg := providers.NewRegistry(adapters...)
	cfg := DefaultConfig()
	cfg.PaceRPS = 1000 // tests never wait on the pacer
	cfg.PaceBurst = 1000
	return NewManager(cfg, reg, rec), mem
}

func TestSearchFanOutDedup(t *testing.T) {
	// providerA returns 3 matches; providerB returns 2, one sharing a
	// real-world title with providerA
	a := &fakeAdapter{name: models.ProviderTMDB, records: []models.ProviderRawRecord{
		record(models.ProviderTMDB, "1", "Zodiac", 2007),
		record(models.ProviderTMDB, "2", "The Staircase", 2018),
		record(models.ProviderTMDB, "3", "The Jinx", 2015),
	}}
	b := &fakeAdapter{name: models.ProviderTrakt, records: []models.ProviderRawRecord{
		record(models.ProviderTrakt, "t1", "Zodiac", 2007),
		record(models.ProviderTrakt, "t2", "Making a Murderer", 2015),
	}}

	m, _ := newTestManager(a, b)

	res, err := m.Search(context.Background(), "true crime", SearchOptions{Limit: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Items) != 4 {
		t.Fatalf("got %d canonical items, want 4 unique", len(res.Items))
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected provider errors: %v", res.Errors)
	}
}

func TestSearchPartialResults(t *testing.T) {
	healthy := &fakeAdapter{name: models.ProviderTMDB, records: []models.ProviderRawRecord{
		record(models.ProviderTMDB, "1", "Zodiac", 2007),
	}}
	broken := &fakeAdapter{name: models.ProviderTrakt, err: errors.New("upstream 503")}

	m, _ := newTestManager(healthy, broken)

	res, err := m.Search(context.Background(), "zodiac", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v, want partial success", err)
	}
	if len(res.Items) != 1 {
		t.Errorf("got %d items, want 1 from the healthy provider", len(res.Items))
	}
	if len(res.Errors) != 1 || res.Errors[0].Provider != models.ProviderTrakt {
		t.Errorf("Errors = %v, want one trakt failure", res.Errors)
	}
}

func TestSyncMinIntervalSkip(t *testing.T) {
	a := &fakeAdapter{name: models.ProviderTMDB, records: []models.ProviderRawRecord{
		record(models.ProviderTMDB, "1", "Zodiac", 2007),
	}}
	m, _ := newTestManager(a)

	if _, err := m.SyncFromProviders(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("first sync error = %v", err)
	}
	callsAfterFirst := a.calls

	res, err := m.SyncFromProviders(context.Background(), SyncOptions{})
	if err != nil {
		t.Fatalf("second sync error = %v", err)
	}
	if a.calls != callsAfterFirst {
		t.Error("sync inside the minimum interval hit providers")
	}
	if len(res.Items) != 0 {
		t.Errorf("skipped sync returned %d items, want none", len(res.Items))
	}

	if _, err := m.SyncFromProviders(context.Background(), SyncOptions{Force: true}); err != nil {
		t.Fatalf("forced sync error = %v", err)
	}
	if a.calls == callsAfterFirst {
		t.Error("forced sync did not hit providers")
	}
}

func TestSyncSourcesFilter(t *testing.T) {
	a := &fakeAdapter{name: models.ProviderTMDB, records: []models.ProviderRawRecord{
		record(models.ProviderTMDB, "1", "Zodiac", 2007),
	}}
	b := &fakeAdapter{name: models.ProviderTrakt, records: []models.ProviderRawRecord{
		record(models.ProviderTrakt, "t2", "The Jinx", 2015),
	}}
	m, _ := newTestManager(a, b)

	res, err := m.SyncFromProviders(context.Background(), SyncOptions{
		Force:   true,
		Sources: []models.Provider{models.ProviderTrakt},
	})
	if err != nil {
		t.Fatalf("SyncFromProviders() error = %v", err)
	}
	if a.calls != 0 {
		t.Error("unselected provider was called")
	}
	if len(res.Items) != 1 || res.Items[0].Title != "The Jinx" {
		t.Errorf("Items = %v, want only trakt's record", res.Items)
	}
}

func TestSyncTrueCrimeOnly(t *testing.T) {
	crime := record(models.ProviderTMDB, "1", "The Jinx", 2015)
	crime.GenreTags = []string{"true crime"}
	tagged := record(models.ProviderTMDB, "2", "The Staircase", 2018)
	tagged.CaseTags = []string{"michael-peterson"}
	offTopic := record(models.ProviderTMDB, "3", "Bake-Off", 2020)
	offTopic.GenreTags = []string{"cooking"}

	a := &fakeAdapter{name: models.ProviderTMDB, records: []models.ProviderRawRecord{crime, tagged, offTopic}}
	m, _ := newTestManager(a)

	res, err := m.SyncFromProviders(context.Background(), SyncOptions{Force: true, TrueCrimeOnly: true})
	if err != nil {
		t.Fatalf("SyncFromProviders() error = %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2 true-crime records", len(res.Items))
	}
	for _, item := range res.Items {
		if item.Title == "Bake-Off" {
			t.Error("off-topic record survived the true-crime filter")
		}
	}
}

func TestSearchCancellation(t *testing.T) {
	a := &fakeAdapter{name: models.ProviderTMDB, records: []models.ProviderRawRecord{
		record(models.ProviderTMDB, "1", "Zodiac", 2007),
	}}
	m, _ := newTestManager(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled batch returns whatever committed plus pacer errors; it
	// must not panic or deadlock
	res, err := m.Search(ctx, "zodiac", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Errors) == 0 {
		t.Error("cancelled fan-out reported no provider errors")
	}
}
