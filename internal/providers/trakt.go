// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/resilient"
)

// traktAPIVersion is pinned per the upstream versioning header contract.
const traktAPIVersion = "2"

// Trakt is the adapter for the community watch-tracking catalog.
// Authentication uses a client-id header rather than a query parameter.
type Trakt struct {
	cfg    Config
	client *resilient.Client
}

// NewTrakt creates the Trakt adapter with its private resilient client.
func NewTrakt(cfg Config) *Trakt {
	cfg.Client.Name = string(models.ProviderTrakt)
	return &Trakt{cfg: cfg, client: resilient.NewClient(cfg.Client)}
}

// Name implements Adapter.
func (t *Trakt) Name() models.Provider { return models.ProviderTrakt }

// BreakerSnapshot reports the client's circuit state for health checks.
func (t *Trakt) BreakerSnapshot() resilient.BreakerSnapshot { return t.client.BreakerSnapshot() }

func (t *Trakt) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("trakt-api-version", traktAPIVersion)
	h.Set("trakt-api-key", t.cfg.APIKey)
	return h
}

// traktSearchResult wraps each hit with its media type and nested object.
type traktSearchResult struct {
	Type  string          `json:"type"`
	Movie json.RawMessage `json:"movie"`
	Show  json.RawMessage `json:"show"`
}

// traktItem is the movie/show schema shared by both media types.
type traktItem struct {
	Title    string   `json:"title"`
	Year     int      `json:"year"`
	Overview string   `json:"overview"`
	Runtime  int      `json:"runtime"`
	Genres   []string `json:"genres"`
	Trailer  string   `json:"trailer"`
	IDs      struct {
		Trakt int64  `json:"trakt"`
		Slug  string `json:"slug"`
		IMDB  string `json:"imdb"`
	} `json:"ids"`
}

var traktKnownFields = []string{
	"title", "year", "overview", "runtime", "genres", "trailer", "ids",
}

// SearchByTitle implements Adapter.
func (t *Trakt) SearchByTitle(ctx context.Context, query string) ([]models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("extended", "full")

	resp, err := t.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      t.cfg.BaseURL + "/search/movie,show",
		Query:    q,
		Header:   t.headers(),
		CacheKey: "trakt:search:" + query,
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	var results []traktSearchResult
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("trakt search: %w", resilient.ErrMalformedResponse)
	}

	records := make([]models.ProviderRawRecord, 0, len(results))
	for _, r := range results {
		raw := r.Movie
		contentType := models.ContentTypeMovie
		if r.Type == "show" {
			raw = r.Show
			contentType = models.ContentTypeSeries
		}
		if len(raw) == 0 {
			continue
		}
		rec, err := t.toRecord(raw, contentType)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetDetail implements Adapter. Trakt detail lookups accept the numeric
// trakt id or the slug; movies and shows share an id space only by slug,
// so detail tries shows first and falls back to movies.
func (t *Trakt) GetDetail(ctx context.Context, externalID string) (*models.ProviderRawRecord, error) {
	rec, err := t.detail(ctx, "shows", externalID, models.ContentTypeSeries)
	if err == nil {
		return rec, nil
	}
	var upstream *resilient.UpstreamError
	if errors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
		return t.detail(ctx, "movies", externalID, models.ContentTypeMovie)
	}
	return nil, err
}

func (t *Trakt) detail(ctx context.Context, kind, externalID string, contentType models.ContentType) (*models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("extended", "full")

	resp, err := t.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      t.cfg.BaseURL + "/" + kind + "/" + url.PathEscape(externalID),
		Query:    q,
		Header:   t.headers(),
		CacheKey: "trakt:" + kind + ":" + externalID,
		CacheTTL: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return t.toRecord(resp.Body, contentType)
}

// GetAvailability implements Adapter. Trakt tracks watches, not streams.
func (t *Trakt) GetAvailability(_ context.Context, _, _ string) ([]models.PlatformAvailability, error) {
	return nil, ErrAvailabilityUnsupported
}

func (t *Trakt) toRecord(raw json.RawMessage, contentType models.ContentType) (*models.ProviderRawRecord, error) {
	var item traktItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("trakt item: %w", resilient.ErrMalformedResponse)
	}
	if item.IDs.Trakt == 0 {
		return nil, fmt.Errorf("trakt item missing id: %w", resilient.ErrMalformedResponse)
	}

	var release *time.Time
	if item.Year > 0 {
		release = parseDate(strconv.Itoa(item.Year))
	}

	genres := lowerTags(item.Genres)
	for _, g := range genres {
		if g == "documentary" && contentType == models.ContentTypeMovie {
			contentType = models.ContentTypeDocumentary
		}
	}

	return &models.ProviderRawRecord{
		Provider:       models.ProviderTrakt,
		ExternalID:     strconv.FormatInt(item.IDs.Trakt, 10),
		Title:          item.Title,
		Description:    item.Overview,
		Type:           contentType,
		TrailerURL:     item.Trailer,
		ReleaseDate:    release,
		RuntimeMinutes: item.Runtime,
		GenreTags:      genres,
		Raw:            raw,
		Extra:          extraFields(raw, traktKnownFields...),
		FetchedAt:      time.Now(),
	}, nil
}
