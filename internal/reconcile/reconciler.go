// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package reconcile turns raw provider records into canonical content.
//
// Matching runs external-id lookup first, in fixed provider priority
// order, then falls back to a normalized-title/release-year/type key.
// Merging is fill-forward: present canonical values win, empty slots
// adopt the incoming value, list fields union. Writers for one match key
// are serialized through a striped lock so concurrent syncs cannot
// duplicate a canonical record.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/metrics"
	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// completenessFields is the number of canonical schema fields counted by
// the dataCompleteness recompute.
const completenessFields = 10

// AvailabilityFetcher refreshes platform availability for one external id.
// Satisfied by the watchmode adapter.
type AvailabilityFetcher interface {
	GetAvailability(ctx context.Context, externalID, region string) ([]models.PlatformAvailability, error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithAvailability enables live availability refresh during reconciliation
// for records carrying an id of the given provider.
func WithAvailability(provider models.Provider, fetcher AvailabilityFetcher, region string) Option {
	return func(r *Reconciler) {
		r.availabilityProvider = provider
		r.availability = fetcher
		r.region = region
	}
}

// Reconciler is the single writer of canonical content.
type Reconciler struct {
	store storage.ContentStore
	index storage.SearchIndex
	locks *keyLock

	availabilityProvider models.Provider
	availability         AvailabilityFetcher
	region               string

	newID func() string
	now   func() time.Time
}

// New creates a Reconciler over the given store and search index.
func New(store storage.ContentStore, index storage.SearchIndex, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		index: index,
		locks: newKeyLock(),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile processes a batch of raw records into canonical content.
// Malformed records are skipped and logged. Only storage unavailability
// aborts the batch; the error then wraps storage.ErrStorageUnavailable.
func (r *Reconciler) Reconcile(ctx context.Context, records []models.ProviderRawRecord) ([]models.Content, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileBatchDuration.Observe(time.Since(start).Seconds())
	}()

	ordered := orderByPriority(records)

	seen := make(map[string]int) // canonical id -> index into out
	var out []models.Content

	for i := range ordered {
		rec := &ordered[i]
		if !rec.Valid() {
			metrics.ReconcileRecords.WithLabelValues("skipped").Inc()
			logging.Warn().
				Str("provider", string(rec.Provider)).
				Str("external_id", rec.ExternalID).
				Msg("skipping malformed provider record")
			continue
		}

		content, err := r.reconcileOne(ctx, rec)
		if err != nil {
			if errors.Is(err, storage.ErrStorageUnavailable) {
				return nil, fmt.Errorf("reconcile batch aborted: %w", err)
			}
			metrics.ReconcileRecords.WithLabelValues("skipped").Inc()
			logging.Warn().Err(err).
				Str("provider", string(rec.Provider)).
				Str("external_id", rec.ExternalID).
				Msg("skipping provider record")
			continue
		}

		if idx, ok := seen[content.ID]; ok {
			out[idx] = *content
		} else {
			seen[content.ID] = len(out)
			out = append(out, *content)
		}
	}

	return out, nil
}

// reconcileOne matches, merges, and persists a single record under the
// per-key writer lock.
func (r *Reconciler) reconcileOne(ctx context.Context, rec *models.ProviderRawRecord) (*models.Content, error) {
	key := matchKey(rec.Title, recordYear(rec), rec.Type)
	mu := r.locks.lock(key)
	defer func() { mu.Unlock() }()

	existing, err := r.match(ctx, rec, key)
	if err != nil {
		return nil, err
	}
	// An external-id match can land on a canonical record whose stored
	// title hashes to a different stripe than the incoming title. Every
	// writer for one canonical record must serialize on the record's own
	// key, so re-lock there and match again before merging.
	for existing != nil {
		canonical := matchKey(existing.Title, existing.ReleaseYear(), existing.Type)
		if r.locks.stripe(canonical) == r.locks.stripe(key) {
			break
		}
		mu.Unlock()
		key = canonical
		mu = r.locks.lock(key)
		existing, err = r.match(ctx, rec, key)
		if err != nil {
			return nil, err
		}
	}

	var content *models.Content
	var changed bool
	if existing == nil {
		content = r.create(rec)
		changed = true
		metrics.ReconcileRecords.WithLabelValues("created").Inc()
	} else {
		content = existing
		changed = merge(content, rec)
		metrics.ReconcileRecords.WithLabelValues("merged").Inc()
	}

	if r.refreshAvailability(ctx, content, rec) {
		changed = true
	}
	recompute(content)

	if changed {
		content.LastSyncedAt = rec.FetchedAt
		if err := r.store.UpsertContent(ctx, content); err != nil {
			return nil, err
		}
		// Index push is best-effort; the search collaborator is
		// eventually consistent
		if err := r.index.IndexContent(ctx, []models.Content{*content}); err != nil {
			logging.Warn().Err(err).Str("content_id", content.ID).Msg("search index push failed")
		}
	}

	return content, nil
}

// match finds the canonical record for a raw record: external-id lookup
// first, then the normalized title key against the full catalog.
func (r *Reconciler) match(ctx context.Context, rec *models.ProviderRawRecord, key string) (*models.Content, error) {
	content, err := r.store.FindContentByExternalID(ctx, rec.Provider, rec.ExternalID)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	all, err := r.store.ListContent(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		c := &all[i]
		if matchKey(c.Title, c.ReleaseYear(), c.Type) == key {
			return c, nil
		}
	}
	return nil, nil
}

// create builds a fresh canonical record from one raw record.
func (r *Reconciler) create(rec *models.ProviderRawRecord) *models.Content {
	now := r.now()
	return &models.Content{
		ID:             r.newID(),
		ExternalIDs:    map[models.Provider]string{rec.Provider: rec.ExternalID},
		Title:          rec.Title,
		Description:    rec.Description,
		Type:           rec.Type,
		GenreTags:      unionTags(nil, rec.GenreTags),
		CaseTags:       unionTags(nil, rec.CaseTags),
		PosterURL:      rec.PosterURL,
		TrailerURL:     rec.TrailerURL,
		ReleaseDate:    rec.ReleaseDate,
		RuntimeMinutes: rec.RuntimeMinutes,
		Platforms:      mergePlatforms(nil, rec.Platforms),
		AddedAt:        now,
		LastSyncedAt:   now,
	}
}

// merge applies the fill-forward policy and reports whether anything
// changed. Unchanged replays leave the record untouched, which keeps
// reconciliation idempotent.
func merge(content *models.Content, rec *models.ProviderRawRecord) bool {
	changed := false

	if _, ok := content.ExternalIDs[rec.Provider]; !ok {
		if content.ExternalIDs == nil {
			content.ExternalIDs = make(map[models.Provider]string, 1)
		}
		content.ExternalIDs[rec.Provider] = rec.ExternalID
		changed = true
	}

	changed = fillString(&content.Title, rec.Title) || changed
	changed = fillString(&content.Description, rec.Description) || changed
	changed = fillString(&content.PosterURL, rec.PosterURL) || changed
	changed = fillString(&content.TrailerURL, rec.TrailerURL) || changed

	if content.ReleaseDate == nil && rec.ReleaseDate != nil {
		content.ReleaseDate = rec.ReleaseDate
		changed = true
	}
	if content.RuntimeMinutes == 0 && rec.RuntimeMinutes > 0 {
		content.RuntimeMinutes = rec.RuntimeMinutes
		changed = true
	}

	if tags := unionTags(content.GenreTags, rec.GenreTags); len(tags) != len(content.GenreTags) {
		content.GenreTags = tags
		changed = true
	}
	if tags := unionTags(content.CaseTags, rec.CaseTags); len(tags) != len(content.CaseTags) {
		content.CaseTags = tags
		changed = true
	}

	if platforms := mergePlatforms(content.Platforms, rec.Platforms); !reflect.DeepEqual(platforms, content.Platforms) {
		content.Platforms = platforms
		changed = true
	}

	return changed
}

// fillString adopts val only when the slot is empty.
func fillString(slot *string, val string) bool {
	if *slot == "" && val != "" {
		*slot = val
		return true
	}
	return false
}

// unionTags returns the sorted de-duplicated union of two tag sets.
func unionTags(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	set := make(map[string]bool, len(existing)+len(incoming))
	for _, t := range existing {
		set[t] = true
	}
	for _, t := range incoming {
		set[t] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// mergePlatforms unions availability offers by platform id and offer
// type; incoming offers replace stored offers with the same key.
func mergePlatforms(existing, incoming []models.PlatformAvailability) []models.PlatformAvailability {
	if len(incoming) == 0 {
		return existing
	}
	type offerKey struct {
		id string
		t  models.AvailabilityType
	}
	byKey := make(map[offerKey]models.PlatformAvailability, len(existing)+len(incoming))
	order := make([]offerKey, 0, len(existing)+len(incoming))
	for _, p := range existing {
		k := offerKey{p.PlatformID, p.Type}
		byKey[k] = p
		order = append(order, k)
	}
	for _, p := range incoming {
		k := offerKey{p.PlatformID, p.Type}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = p
	}
	out := make([]models.PlatformAvailability, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}

// refreshAvailability fetches live offers when the availability provider
// contributed an id for this title, reporting whether the platforms
// changed. On success the live offers override stored offers with the
// same platform id. On failure the stored platforms are preserved
// untouched.
func (r *Reconciler) refreshAvailability(ctx context.Context, content *models.Content, rec *models.ProviderRawRecord) bool {
	if r.availability == nil || rec.Provider != r.availabilityProvider {
		return false
	}
	externalID, ok := content.ExternalIDs[r.availabilityProvider]
	if !ok {
		return false
	}

	live, err := r.availability.GetAvailability(ctx, externalID, r.region)
	if err != nil {
		logging.Warn().Err(err).
			Str("content_id", content.ID).
			Str("external_id", externalID).
			Msg("availability refresh failed, keeping stored platforms")
		return false
	}

	merged := mergePlatforms(content.Platforms, live)
	if reflect.DeepEqual(merged, content.Platforms) {
		return false
	}
	content.Platforms = merged
	return true
}

// recompute refreshes the derived scores after a merge.
func recompute(content *models.Content) {
	providers := len(content.ExternalIDs)
	content.SourceConfidence = float64(providers) / float64(len(models.ProviderPriority))
	if content.SourceConfidence > 1 {
		content.SourceConfidence = 1
	}

	populated := 0
	if content.Title != "" {
		populated++
	}
	if content.Description != "" {
		populated++
	}
	if content.Type != "" {
		populated++
	}
	if len(content.GenreTags) > 0 {
		populated++
	}
	if len(content.CaseTags) > 0 {
		populated++
	}
	if content.PosterURL != "" {
		populated++
	}
	if content.TrailerURL != "" {
		populated++
	}
	if content.ReleaseDate != nil {
		populated++
	}
	if content.RuntimeMinutes > 0 {
		populated++
	}
	if len(content.Platforms) > 0 {
		populated++
	}
	content.DataCompleteness = float64(populated) / float64(completenessFields)
}

// orderByPriority returns the records sorted so higher-priority providers
// reconcile first. Identity created by an authoritative provider then
// absorbs the lower-priority records that match it.
func orderByPriority(records []models.ProviderRawRecord) []models.ProviderRawRecord {
	rank := make(map[models.Provider]int, len(models.ProviderPriority))
	for i, p := range models.ProviderPriority {
		rank[p] = i
	}

	out := make([]models.ProviderRawRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iOK := rank[out[i].Provider]
		rj, jOK := rank[out[j].Provider]
		if iOK != jOK {
			return iOK
		}
		return ri < rj
	})
	return out
}
