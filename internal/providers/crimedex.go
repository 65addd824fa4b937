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
	"time"

	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/resilient"
)

// CrimeDex is the adapter for the specialist true-crime index. It is the
// only source that annotates titles with structured case facts, which we
// surface as case tags.
type CrimeDex struct {
	cfg    Config
	client *resilient.Client
}

// NewCrimeDex creates the CrimeDex adapter with its private resilient client.
func NewCrimeDex(cfg Config) *CrimeDex {
	cfg.Client.Name = string(models.ProviderCrimedex)
	return &CrimeDex{cfg: cfg, client: resilient.NewClient(cfg.Client)}
}

// Name implements Adapter.
func (c *CrimeDex) Name() models.Provider { return models.ProviderCrimedex }

// BreakerSnapshot reports the client's circuit state for health checks.
func (c *CrimeDex) BreakerSnapshot() resilient.BreakerSnapshot { return c.client.BreakerSnapshot() }

func (c *CrimeDex) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return h
}

type crimedexEnvelope struct {
	Entries []json.RawMessage `json:"entries"`
}

// crimedexEntry is the entry schema. CaseFacts is the structured case
// metadata unique to this source.
type crimedexEntry struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Synopsis    string   `json:"synopsis"`
	MediaFormat string   `json:"media_format"`
	AiredOn     string   `json:"aired_on"`
	LengthMin   int      `json:"length_minutes"`
	Categories  []string `json:"categories"`
	CaseFacts   struct {
		CaseName   string   `json:"case_name"`
		Era        string   `json:"era"`
		Region     string   `json:"region"`
		CrimeTypes []string `json:"crime_types"`
		Solved     *bool    `json:"solved"`
	} `json:"case_facts"`
}

var crimedexKnownFields = []string{
	"slug", "title", "synopsis", "media_format", "aired_on",
	"length_minutes", "categories", "case_facts",
}

// SearchByTitle implements Adapter.
func (c *CrimeDex) SearchByTitle(ctx context.Context, query string) ([]models.ProviderRawRecord, error) {
	q := url.Values{}
	q.Set("title", query)

	resp, err := c.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      c.cfg.BaseURL + "/v2/entries/search",
		Query:    q,
		Header:   c.headers(),
		CacheKey: "crimedex:search:" + query,
		CacheTTL: 5 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	var env crimedexEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("crimedex search: %w", resilient.ErrMalformedResponse)
	}

	records := make([]models.ProviderRawRecord, 0, len(env.Entries))
	for _, raw := range env.Entries {
		rec, err := c.toRecord(raw)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetDetail implements Adapter.
func (c *CrimeDex) GetDetail(ctx context.Context, externalID string) (*models.ProviderRawRecord, error) {
	resp, err := c.client.Execute(ctx, resilient.Request{
		Method:   http.MethodGet,
		URL:      c.cfg.BaseURL + "/v2/entries/" + url.PathEscape(externalID),
		Header:   c.headers(),
		CacheKey: "crimedex:detail:" + externalID,
		CacheTTL: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return c.toRecord(resp.Body)
}

// GetAvailability implements Adapter. CrimeDex indexes cases, not streams.
func (c *CrimeDex) GetAvailability(_ context.Context, _, _ string) ([]models.PlatformAvailability, error) {
	return nil, ErrAvailabilityUnsupported
}

func (c *CrimeDex) toRecord(raw json.RawMessage) (*models.ProviderRawRecord, error) {
	var entry crimedexEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("crimedex entry: %w", resilient.ErrMalformedResponse)
	}
	if entry.Slug == "" {
		return nil, fmt.Errorf("crimedex entry missing slug: %w", resilient.ErrMalformedResponse)
	}

	return &models.ProviderRawRecord{
		Provider:       models.ProviderCrimedex,
		ExternalID:     entry.Slug,
		Title:          entry.Title,
		Description:    entry.Synopsis,
		Type:           models.ParseContentType(entry.MediaFormat),
		ReleaseDate:    parseDate(entry.AiredOn),
		RuntimeMinutes: entry.LengthMin,
		GenreTags:      lowerTags(entry.Categories),
		CaseTags:       c.caseTags(entry),
		Raw:            raw,
		Extra:          extraFields(raw, crimedexKnownFields...),
		FetchedAt:      time.Now(),
	}, nil
}

// caseTags flattens the structured case facts into the shared tag space.
func (c *CrimeDex) caseTags(entry crimedexEntry) []string {
	var tags []string
	facts := entry.CaseFacts
	if facts.Era != "" {
		tags = append(tags, facts.Era)
	}
	if facts.Region != "" {
		tags = append(tags, facts.Region)
	}
	tags = append(tags, facts.CrimeTypes...)
	if facts.Solved != nil {
		if *facts.Solved {
			tags = append(tags, "solved")
		} else {
			tags = append(tags, "unsolved")
		}
	}
	return lowerTags(tags)
}
