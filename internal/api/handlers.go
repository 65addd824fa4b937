// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/providers"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/resilient"
	"github.com/coldcaselabs/coldcase/internal/sync"
)

// Catalog is the slice of the sync manager the API depends on.
type Catalog interface {
	Search(ctx context.Context, query string, opts sync.SearchOptions) (*sync.Result, error)
	SyncFromProviders(ctx context.Context, opts sync.SyncOptions) (*sync.Result, error)
	LastSyncTime() time.Time
}

// Recommender is the slice of the recommendation engine the API depends on.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID string, opts recommend.Options) ([]recommend.Candidate, error)
}

// breakerReporter is implemented by adapters that expose circuit state.
type breakerReporter interface {
	BreakerSnapshot() resilient.BreakerSnapshot
}

// Handlers binds the HTTP surface to the domain services.
type Handlers struct {
	catalog     Catalog
	recommender Recommender
	registry    *providers.Registry
	started     time.Time
}

// NewHandlers creates the handler set. registry may be nil when no
// provider health reporting is wanted.
func NewHandlers(catalog Catalog, recommender Recommender, registry *providers.Registry) *Handlers {
	return &Handlers{
		catalog:     catalog,
		recommender: recommender,
		registry:    registry,
		started:     time.Now(),
	}
}

type searchResponse struct {
	Items  []models.Content     `json:"items"`
	Count  int                  `json:"count"`
	Errors []sync.ProviderError `json:"errors,omitempty"`
}

// Search handles GET /api/v1/search?q=...&limit=...
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 0)
	if !ok {
		writeErrorStatus(w, r, http.StatusBadRequest, "limit must be an integer")
		return
	}
	q := searchQuery{Query: r.URL.Query().Get("q"), Limit: limit}
	if err := validate.Struct(q); err != nil {
		writeErrorStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.catalog.Search(r.Context(), q.Query, sync.SearchOptions{Limit: q.Limit})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items:  result.Items,
		Count:  len(result.Items),
		Errors: result.Errors,
	})
}

type syncResponse struct {
	Synced   int                  `json:"synced"`
	Errors   []sync.ProviderError `json:"errors,omitempty"`
	LastSync time.Time            `json:"last_sync"`
}

// Sync handles POST /api/v1/sync.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorStatus(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		writeErrorStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sources := make([]models.Provider, 0, len(req.Sources))
	for _, s := range req.Sources {
		sources = append(sources, models.Provider(s))
	}
	result, err := h.catalog.SyncFromProviders(r.Context(), sync.SyncOptions{
		Force:         req.Force,
		Sources:       sources,
		TrueCrimeOnly: req.TrueCrimeOnly,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, syncResponse{
		Synced:   len(result.Items),
		Errors:   result.Errors,
		LastSync: h.catalog.LastSyncTime(),
	})
}

type recommendationResponse struct {
	UserID string                `json:"user_id"`
	Items  []recommend.Candidate `json:"items"`
	Count  int                   `json:"count"`
}

// Recommendations handles GET /api/v1/recommendations/{userID}.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 0)
	if !ok {
		writeErrorStatus(w, r, http.StatusBadRequest, "limit must be an integer")
		return
	}
	q := recommendationQuery{
		UserID:         chi.URLParam(r, "userID"),
		Limit:          limit,
		Type:           r.URL.Query().Get("type"),
		Preset:         r.URL.Query().Get("preset"),
		ExcludeWatched: boolParam(r, "exclude_watched"),
	}
	if err := validate.Struct(q); err != nil {
		writeErrorStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.recommender.GetRecommendations(r.Context(), q.UserID, recommend.Options{
		Type:           models.ContentType(q.Type),
		Limit:          q.Limit,
		ExcludeWatched: q.ExcludeWatched,
		Preset:         q.Preset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		UserID: q.UserID,
		Items:  items,
		Count:  len(items),
	})
}

type healthResponse struct {
	Status    string                               `json:"status"`
	Uptime    string                               `json:"uptime"`
	LastSync  *time.Time                           `json:"last_sync,omitempty"`
	Providers map[string]resilient.BreakerSnapshot `json:"providers,omitempty"`
}

// Health handles GET /health. The service is degraded when any provider
// circuit is open; it still answers 200 because partial results remain
// servable from the canonical store.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}
	if last := h.catalog.LastSyncTime(); !last.IsZero() {
		resp.LastSync = &last
	}
	if h.registry != nil {
		resp.Providers = make(map[string]resilient.BreakerSnapshot, h.registry.Len())
		for _, a := range h.registry.All() {
			br, ok := a.(breakerReporter)
			if !ok {
				continue
			}
			snap := br.BreakerSnapshot()
			resp.Providers[string(a.Name())] = snap
			if snap.State == "open" {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
