// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package sync orchestrates data aggregation from the provider adapters.
//
// Fan-out operations run one goroutine per configured provider, bounded
// by the provider count. Individual provider failures never abort the
// whole operation: results are partial and per-provider errors ride
// along. A global token-bucket pacer throttles total outbound pressure
// across all providers on top of each client's own rate limits.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/metrics"
	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/providers"
	"github.com/coldcaselabs/coldcase/internal/reconcile"
)

// trueCrimeTags marks a record as true-crime when any genre or case tag
// matches.
var trueCrimeTags = map[string]bool{
	"true crime": true,
	"true-crime": true,
	"crime":      true,
}

// Config tunes the sync manager.
type Config struct {
	// SeedQueries are the catalog queries a full sync runs per provider.
	SeedQueries []string `json:"seed_queries" koanf:"seed_queries"`

	// MinInterval is the shortest gap between full syncs; syncs inside
	// the gap are skipped unless forced.
	MinInterval time.Duration `json:"min_interval" koanf:"min_interval"`

	// PaceRPS caps total outbound requests per second across providers.
	PaceRPS float64 `json:"pace_rps" koanf:"pace_rps"`

	// PaceBurst is the pacer's burst allowance.
	PaceBurst int `json:"pace_burst" koanf:"pace_burst"`
}

// DefaultConfig returns the default sync tuning.
func DefaultConfig() Config {
	return Config{
		SeedQueries: []string{"true crime"},
		MinInterval: 15 * time.Minute,
		PaceRPS:     5,
		PaceBurst:   10,
	}
}

// ProviderError records one provider's failure during a fan-out.
type ProviderError struct {
	Provider models.Provider `json:"provider"`
	Err      error           `json:"-"`
	Message  string          `json:"message"`
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

// Result is the outcome of a fan-out operation: canonical items plus
// whatever went wrong per provider.
type Result struct {
	Items  []models.Content `json:"items"`
	Errors []ProviderError  `json:"errors,omitempty"`
}

// SearchOptions shapes a fan-out search.
type SearchOptions struct {
	// Limit caps the returned canonical items. Zero means no cap.
	Limit int
}

// SyncOptions shapes a full provider sync.
type SyncOptions struct {
	// Force runs the sync even inside the minimum interval.
	Force bool

	// Sources restricts the sync to the named providers. Empty means all.
	Sources []models.Provider

	// TrueCrimeOnly drops records without a true-crime tag before
	// reconciliation.
	TrueCrimeOnly bool
}

// Manager coordinates fan-out search and full catalog syncs.
// Safe for concurrent use.
type Manager struct {
	cfg        Config
	registry   *providers.Registry
	reconciler *reconcile.Reconciler
	pacer      *rate.Limiter

	mu       stdsync.Mutex
	lastSync time.Time
}

// NewManager creates a sync manager.
func NewManager(cfg Config, registry *providers.Registry, reconciler *reconcile.Reconciler) *Manager {
	if cfg.PaceRPS <= 0 {
		cfg.PaceRPS = DefaultConfig().PaceRPS
	}
	if cfg.PaceBurst <= 0 {
		cfg.PaceBurst = DefaultConfig().PaceBurst
	}
	if len(cfg.SeedQueries) == 0 {
		cfg.SeedQueries = DefaultConfig().SeedQueries
	}
	return &Manager{
		cfg:        cfg,
		registry:   registry,
		reconciler: reconciler,
		pacer:      rate.NewLimiter(rate.Limit(cfg.PaceRPS), cfg.PaceBurst),
	}
}

// LastSyncTime returns when the last full sync completed.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync
}

// Search fans the query out to every adapter concurrently, reconciles
// the raw records, and returns canonical items plus per-provider errors.
func (m *Manager) Search(ctx context.Context, query string, opts SearchOptions) (*Result, error) {
	records, provErrs := m.fanOut(ctx, m.registry.All(), func(ctx context.Context, a providers.Adapter) ([]models.ProviderRawRecord, error) {
		return a.SearchByTitle(ctx, query)
	})

	items, err := m.reconciler.Reconcile(ctx, records)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return &Result{Items: items, Errors: provErrs}, nil
}

// SyncFromProviders pulls the seed queries from the selected providers
// and reconciles everything into the canonical store.
func (m *Manager) SyncFromProviders(ctx context.Context, opts SyncOptions) (*Result, error) {
	m.mu.Lock()
	if !opts.Force && !m.lastSync.IsZero() && time.Since(m.lastSync) < m.cfg.MinInterval {
		m.mu.Unlock()
		logging.Debug().Time("last_sync", m.LastSyncTime()).Msg("sync inside minimum interval, skipping")
		return &Result{}, nil
	}
	m.mu.Unlock()

	adapters := m.selectAdapters(opts.Sources)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no providers selected for sync")
	}

	records, provErrs := m.fanOut(ctx, adapters, func(ctx context.Context, a providers.Adapter) ([]models.ProviderRawRecord, error) {
		var all []models.ProviderRawRecord
		for _, q := range m.cfg.SeedQueries {
			recs, err := a.SearchByTitle(ctx, q)
			if err != nil {
				return all, err
			}
			all = append(all, recs...)
		}
		return all, nil
	})

	if opts.TrueCrimeOnly {
		records = filterTrueCrime(records)
	}

	items, err := m.reconciler.Reconcile(ctx, records)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("failure").Inc()
		return nil, err
	}

	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	outcome := "success"
	if len(provErrs) > 0 {
		outcome = "partial"
	}
	metrics.SyncRuns.WithLabelValues(outcome).Inc()
	logging.Info().
		Int("providers", len(adapters)).
		Int("records", len(records)).
		Int("canonical", len(items)).
		Int("provider_errors", len(provErrs)).
		Msg("provider sync complete")

	return &Result{Items: items, Errors: provErrs}, nil
}

// fanOut runs op against each adapter in its own goroutine and collects
// partial results. The batch is cancellable as a unit through ctx.
func (m *Manager) fanOut(ctx context.Context, adapters []providers.Adapter, op func(context.Context, providers.Adapter) ([]models.ProviderRawRecord, error)) ([]models.ProviderRawRecord, []ProviderError) {
	type fanResult struct {
		records []models.ProviderRawRecord
		err     error
	}

	results := make([]fanResult, len(adapters))
	var wg stdsync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(idx int, adapter providers.Adapter) {
			defer wg.Done()
			if err := m.pacer.Wait(ctx); err != nil {
				results[idx] = fanResult{err: err}
				return
			}
			records, err := op(ctx, adapter)
			results[idx] = fanResult{records: records, err: err}
		}(i, a)
	}
	wg.Wait()

	var records []models.ProviderRawRecord
	var provErrs []ProviderError
	for i, r := range results {
		records = append(records, r.records...)
		if r.err != nil {
			provider := adapters[i].Name()
			logging.Warn().Err(r.err).Str("provider", string(provider)).Msg("provider fan-out failed")
			provErrs = append(provErrs, ProviderError{
				Provider: provider,
				Err:      r.err,
				Message:  r.err.Error(),
			})
		}
	}
	return records, provErrs
}

// selectAdapters resolves the sync sources, defaulting to all.
func (m *Manager) selectAdapters(sources []models.Provider) []providers.Adapter {
	if len(sources) == 0 {
		return m.registry.All()
	}
	var out []providers.Adapter
	for _, p := range sources {
		if a := m.registry.Get(p); a != nil {
			out = append(out, a)
		} else {
			logging.Warn().Str("provider", string(p)).Msg("unknown sync source, ignoring")
		}
	}
	return out
}

// filterTrueCrime keeps records carrying a true-crime tag or any case tag.
func filterTrueCrime(records []models.ProviderRawRecord) []models.ProviderRawRecord {
	out := make([]models.ProviderRawRecord, 0, len(records))
	for _, r := range records {
		if len(r.CaseTags) > 0 {
			out = append(out, r)
			continue
		}
		for _, tag := range r.GenreTags {
			if trueCrimeTags[tag] {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
