// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/resilient"
)

// Watchmode is the adapter for the streaming-availability catalog. It is
// the only adapter that supports GetAvailability.
// Auth: apiKey query parameter.
type Watchmode struct {
	cfg    Config
	client *resilient.Client
}

// NewWatchmode creates the Watchmode adapter with its private resilient client.
func NewWatchmode(cfg Config) *Watchmode {
	cfg.Client.Name = string(models.ProviderWatchmode)
	return &Watchmode{cfg: cfg, client: resilient.NewClient(cfg.Client)}
}

// Name implements Adapter.
func (w *Watchmode) Name() models.Provider { return models.ProviderWatchmode }

// BreakerSnapshot reports the client's circuit state for health checks.
func (w *Watchmode) BreakerSnapshot() resilient.BreakerSnapshot { return w.client.BreakerSnapshot() }

// watchmodeSearchResponse is the schema of GET /v1/search.
type watchmodeSearchResponse struct {
	Titles []json.RawMessage `json:"titles"`
}

// watchmodeTitle is the per-title schema.
type watchmodeTitle struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Plot    string   `json:"plot_overview"`
	Type    string   `json:"type"`
	Year    int      `json:"year"`
	Runtime int      `json:"runtime_minutes"`
	Genres  []string `json:"genre_names"`
}

var watchmodeKnownFields = []string{
	"id", "name", "plot_overview", "type", "year", "runtime_minutes", "genre_names",
}

// watchmodeSource is one availability offer from GET /v1/title/{id}/sources.
type watchmodeSource struct {
	SourceID int64   `json:"source_id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"` // "sub", "rent", "buy", "free"
	Region   string  `json:"region"`
	Price    float64 `json:"price"`
	StartsAt string  `json:"starts_at"`
	EndsAt   string  `json:"ends_at"`
}

// SearchByTitle implements Adapter.
func (w *Watchmode) SearchByTitle(ctx context.Context, query string) ([]models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("search_value", query)
	q.Set("apiKey", w.cfg.APIKey)

	resp, err := w.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      w.cfg.BaseURL + "/v1/search",
		Query:    q,
		CacheKey: "watchmode:search:" + query,
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	var parsed watchmodeSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("watchmode search: %w", resilient.ErrMalformedResponse)
	}

	records := make([]models.ProviderRawRecord, 0, len(parsed.Titles))
	for _, raw := range parsed.Titles {
		rec, err := w.toRecord(raw)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetDetail implements Adapter.
func (w *Watchmode) GetDetail(ctx context.Context, externalID string) (*models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("apiKey", w.cfg.APIKey)

	resp, err := w.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      w.cfg.BaseURL + "/v1/title/" + url.PathEscape(externalID) + "/details",
		Query:    q,
		CacheKey: "watchmode:detail:" + externalID,
		CacheTTL: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return w.toRecord(resp.Body)
}

// GetAvailability implements Adapter. Availability is fetched live and
// never cached: stale offers are worse than no offers.
func (w *Watchmode) GetAvailability(ctx context.Context, externalID, region string) ([]models.PlatformAvailability, error) {
	q := url.Values{}
	q.Set("apiKey", w.cfg.APIKey)
	q.Set("regions", region)

	resp, err := w.client.Execute(ctx, resilient.Request{
		Method: http.MethodGet,
		URL:    w.cfg.BaseURL + "/v1/title/" + url.PathEscape(externalID) + "/sources",
		Query:  q,
	})
	if err != nil {
		return nil, err
	}

	var sources []watchmodeSource
	if err := json.Unmarshal(resp.Body, &sources); err != nil {
		return nil, fmt.Errorf("watchmode sources: %w", resilient.ErrMalformedResponse)
	}

	out := make([]models.PlatformAvailability, 0, len(sources))
	for _, s := range sources {
		out = append(out, models.PlatformAvailability{
			PlatformID:    strconv.FormatInt(s.SourceID, 10),
			Name:          s.Name,
			Type:          watchmodeOfferType(s.Type),
			Region:        s.Region,
			Price:         s.Price,
			AvailableFrom: parseDate(s.StartsAt),
			AvailableTo:   parseDate(s.EndsAt),
		})
	}
	return out, nil
}

// watchmodeOfferType maps the provider's offer codes onto the canonical enum.
func watchmodeOfferType(t string) models.AvailabilityType {
	switch t {
	case "sub":
		return models.AvailabilitySubscription
	case "rent":
		return models.AvailabilityRent
	case "buy":
		return models.AvailabilityBuy
	case "free":
		return models.AvailabilityFree
	default:
		return models.AvailabilitySubscription
	}
}

// toRecord parses one raw title payload into a ProviderRawRecord.
func (w *Watchmode) toRecord(raw json.RawMessage) (*models.ProviderRawRecord, error) {
	var title watchmodeTitle
	if err := json.Unmarshal(raw, &title); err != nil {
		return nil, fmt.Errorf("watchmode title: %w", resilient.ErrMalformedResponse)
	}
	if title.ID == 0 {
		return nil, fmt.Errorf("watchmode title missing id: %w", resilient.ErrMalformedResponse)
	}

	var release *time.Time
	if title.Year > 0 {
		release = parseDate(strconv.Itoa(title.Year))
	}

	return &models.ProviderRawRecord{
		Provider:       models.ProviderWatchmode,
		ExternalID:     strconv.FormatInt(title.ID, 10),
		Title:          title.Name,
		Description:    title.Plot,
		Type:           models.ParseContentType(title.Type),
		ReleaseDate:    release,
		RuntimeMinutes: title.Runtime,
		GenreTags:      lowerTags(title.Genres),
		Raw:            raw,
		Extra:          extraFields(raw, watchmodeKnownFields...),
		FetchedAt:      time.Now(),
	}, nil
}
