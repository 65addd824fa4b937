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
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/resilient"
)

// TVMaze is the adapter for the alternate TV metadata catalog.
// The API is unauthenticated.
type TVMaze struct {
	cfg    Config
	client *resilient.Client
}

// NewTVMaze creates the TVMaze adapter with its private resilient client.
func NewTVMaze(cfg Config) *TVMaze {
	cfg.Client.Name = string(models.ProviderTVMaze)
	return &TVMaze{cfg: cfg, client: resilient.NewClient(cfg.Client)}
}

// Name implements Adapter.
func (m *TVMaze) Name() models.Provider { return models.ProviderTVMaze }

// BreakerSnapshot reports the client's circuit state for health checks.
func (m *TVMaze) BreakerSnapshot() resilient.BreakerSnapshot { return m.client.BreakerSnapshot() }

// tvmazeSearchResult wraps each search hit: {"score": .., "show": {..}}.
type tvmazeSearchResult struct {
	Show json.RawMessage `json:"show"`
}

// tvmazeShow is the show schema. TVMaze summaries carry HTML tags.
type tvmazeShow struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Summary   string   `json:"summary"`
	ShowType  string   `json:"type"`
	Premiered string   `json:"premiered"`
	Genres    []string `json:"genres"`
	Runtime   int      `json:"averageRuntime"`
}

var tvmazeKnownFields = []string{
	"id", "name", "summary", "type", "premiered", "genres", "averageRuntime",
}

// htmlTagPattern strips the markup TVMaze embeds in summaries.
var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// SearchByTitle implements Adapter.
func (m *TVMaze) SearchByTitle(ctx context.Context, query string) ([]models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("q", query)

	resp, err := m.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      m.cfg.BaseURL + "/search/shows",
		Query:    q,
		CacheKey: "tvmaze:search:" + query,
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	var results []tvmazeSearchResult
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("tvmaze search: %w", resilient.ErrMalformedResponse)
	}

	records := make([]models.ProviderRawRecord, 0, len(results))
	for _, r := range results {
		rec, err := m.toRecord(r.Show)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetDetail implements Adapter.
func (m *TVMaze) GetDetail(ctx context.Context, externalID string) (*models.ProviderRawRecord, error) {
	resp, err := m.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      m.cfg.BaseURL + "/shows/" + url.PathEscape(externalID),
		CacheKey: "tvmaze:detail:" + externalID,
		CacheTTL: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return m.toRecord(resp.Body)
}

// GetAvailability implements Adapter. TVMaze has no availability endpoint.
func (m *TVMaze) GetAvailability(_ context.Context, _, _ string) ([]models.PlatformAvailability, error) {
	return nil, ErrAvailabilityUnsupported
}

// toRecord parses one raw show payload into a ProviderRawRecord.
func (m *TVMaze) toRecord(raw json.RawMessage) (*models.ProviderRawRecord, error) {
	var show tvmazeShow
	if err := json.Unmarshal(raw, &show); err != nil {
		return nil, fmt.Errorf("tvmaze show: %w", resilient.ErrMalformedResponse)
	}
	if show.ID == 0 {
		return nil, fmt.Errorf("tvmaze show missing id: %w", resilient.ErrMalformedResponse)
	}

	// TVMaze is shows-only; documentaries self-describe via type
	contentType := models.ContentTypeSeries
	if models.ParseContentType(show.ShowType) == models.ContentTypeDocumentary {
		contentType = models.ContentTypeDocumentary
	}

	return &models.ProviderRawRecord{
		Provider:       models.ProviderTVMaze,
		ExternalID:     strconv.FormatInt(show.ID, 10),
		Title:          show.Name,
		Description:    htmlTagPattern.ReplaceAllString(show.Summary, ""),
		Type:           contentType,
		ReleaseDate:    parseDate(show.Premiered),
		RuntimeMinutes: show.Runtime,
		GenreTags:      lowerTags(show.Genres),
		Raw:            raw,
		Extra:          extraFields(raw, tvmazeKnownFields...),
		FetchedAt:      time.Now(),
	}, nil
}
