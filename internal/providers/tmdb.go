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

// TMDB is the adapter for the primary movie/TV metadata catalog.
// Auth: api_key query parameter.
type TMDB struct {
	cfg    Config
	client *resilient.Client
}

// NewTMDB creates the TMDB adapter with its private resilient client.
func NewTMDB(cfg Config) *TMDB {
	cfg.Client.Name = string(models.ProviderTMDB)
	return &TMDB{cfg: cfg, client: resilient.NewClient(cfg.Client)}
}

// Name implements Adapter.
func (t *TMDB) Name() models.Provider { return models.ProviderTMDB }

// tmdbSearchResponse is the schema of GET /3/search/multi.
type tmdbSearchResponse struct {
	Results []json.RawMessage `json:"results"`
}

// tmdbTitle is the per-title schema shared by search and detail responses.
type tmdbTitle struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"` // series responses use "name"
	Overview     string      `json:"overview"`
	MediaType    string      `json:"media_type"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	Runtime      int         `json:"runtime"`
	Genres       []tmdbGenre `json:"genres"`
	PosterPath   string      `json:"poster_path"`
}

// tmdbImageBase is the documented image CDN prefix for poster paths.
const tmdbImageBase = "https://image.tmdb.org/t/p/w500"

type tmdbGenre struct {
	Name string `json:"name"`
}

// tmdbKnownFields lists the schema keys captured above; everything else
// lands in the record's Extra map.
var tmdbKnownFields = []string{
	"id", "title", "name", "overview", "media_type",
	"release_date", "first_air_date", "runtime", "genres", "poster_path",
}

// SearchByTitle implements Adapter.
func (t *TMDB) SearchByTitle(ctx context.Context, query string) ([]models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("api_key", t.cfg.APIKey)

	resp, err := t.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      t.cfg.BaseURL + "/3/search/multi",
		Query:    q,
		CacheKey: "tmdb:search:" + query,
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	var parsed tmdbSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("tmdb search: %w", resilient.ErrMalformedResponse)
	}

	records := make([]models.ProviderRawRecord, 0, len(parsed.Results))
	for _, raw := range parsed.Results {
		rec, err := t.toRecord(raw)
		if err != nil {
			// One bad element never poisons the whole page
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetDetail implements Adapter.
func (t *TMDB) GetDetail(ctx context.Context, externalID string) (*models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("api_key", t.cfg.APIKey)

	resp, err := t.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      t.cfg.BaseURL + "/3/title/" + url.PathEscape(externalID),
		Query:    q,
		CacheKey: "tmdb:detail:" + externalID,
		CacheTTL: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return t.toRecord(resp.Body)
}

// GetAvailability implements Adapter. TMDB has no availability endpoint.
func (t *TMDB) GetAvailability(_ context.Context, _, _ string) ([]models.PlatformAvailability, error) {
	return nil, ErrAvailabilityUnsupported
}

// BreakerSnapshot reports the client's circuit state for health checks.
func (t *TMDB) BreakerSnapshot() resilient.BreakerSnapshot { return t.client.BreakerSnapshot() }

// toRecord parses one raw title payload into a ProviderRawRecord.
func (t *TMDB) toRecord(raw json.RawMessage) (*models.ProviderRawRecord, error) {
	var title tmdbTitle
	if err := json.Unmarshal(raw, &title); err != nil {
		return nil, fmt.Errorf("tmdb title: %w", resilient.ErrMalformedResponse)
	}
	if title.ID == 0 {
		return nil, fmt.Errorf("tmdb title missing id: %w", resilient.ErrMalformedResponse)
	}

	name := title.Title
	if name == "" {
		name = title.Name
	}
	date := title.ReleaseDate
	if date == "" {
		date = title.FirstAirDate
	}

	genres := make([]string, 0, len(title.Genres))
	for _, g := range title.Genres {
		genres = append(genres, g.Name)
	}

	var poster string
	if title.PosterPath != "" {
		poster = tmdbImageBase + title.PosterPath
	}

	return &models.ProviderRawRecord{
		Provider:       models.ProviderTMDB,
		ExternalID:     strconv.FormatInt(title.ID, 10),
		Title:          name,
		Description:    title.Overview,
		Type:           models.ParseContentType(title.MediaType),
		PosterURL:      poster,
		ReleaseDate:    parseDate(date),
		RuntimeMinutes: title.Runtime,
		GenreTags:      lowerTags(genres),
		Raw:            raw,
		Extra:          extraFields(raw, tmdbKnownFields...),
		FetchedAt:      time.Now(),
	}, nil
}
