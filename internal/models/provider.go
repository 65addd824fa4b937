// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Provider identifies an external catalog.
type Provider string

const (
	// ProviderTMDB is the primary movie/TV metadata catalog.
	ProviderTMDB Provider = "tmdb"

	// ProviderWatchmode is the streaming-availability catalog.
	ProviderWatchmode Provider = "watchmode"

	// ProviderTVMaze is the alternate TV metadata catalog.
	ProviderTVMaze Provider = "tvmaze"

	// ProviderTrakt is the alternate show metadata catalog.
	ProviderTrakt Provider = "trakt"

	// ProviderCrimedex is the structured real-world-case facts catalog.
	ProviderCrimedex Provider = "crimedex"
)

// ProviderPriority is the fixed order in which external-id matches are
// attempted during reconciliation. Earlier providers are considered more
// authoritative for identity.
var ProviderPriority = []Provider{
	ProviderTMDB,
	ProviderTrakt,
	ProviderTVMaze,
	ProviderWatchmode,
	ProviderCrimedex,
}

// ProviderRawRecord is one provider's view of a title: the opaque payload
// plus the fields the adapter could extract from it. Raw records are never
// canonical; only the reconciler promotes them to Content.
type ProviderRawRecord struct {
	// Provider names the catalog this record came from.
	Provider Provider `json:"provider"`

	// ExternalID is the provider's identifier for the title.
	ExternalID string `json:"external_id"`

	// Title as reported by the provider.
	Title string `json:"title"`

	// Description as reported by the provider.
	Description string `json:"description,omitempty"`

	// Type is the provider media type mapped onto the canonical enum.
	Type ContentType `json:"type"`

	// PosterURL as reported, if the provider exposes artwork.
	PosterURL string `json:"poster_url,omitempty"`

	// TrailerURL as reported, if the provider exposes trailers.
	TrailerURL string `json:"trailer_url,omitempty"`

	// ReleaseDate as reported, if parseable.
	ReleaseDate *time.Time `json:"release_date,omitempty"`

	// RuntimeMinutes as reported.
	RuntimeMinutes int `json:"runtime_minutes,omitempty"`

	// GenreTags as reported, lowercased by the adapter.
	GenreTags []string `json:"genre_tags,omitempty"`

	// CaseTags as reported (crimedex only for most titles).
	CaseTags []string `json:"case_tags,omitempty"`

	// Platforms as reported (watchmode only).
	Platforms []PlatformAvailability `json:"platforms,omitempty"`

	// Raw is the unmodified provider payload for this record.
	Raw json.RawMessage `json:"raw,omitempty"`

	// Extra holds provider fields that have no canonical schema slot.
	// Preserved rather than silently dropped.
	Extra map[string]any `json:"extra,omitempty"`

	// FetchedAt is when the adapter fetched this record.
	FetchedAt time.Time `json:"fetched_at"`
}

// Valid reports whether the record carries the minimum identity needed
// for reconciliation. Invalid records are skipped, never fatal.
func (r *ProviderRawRecord) Valid() bool {
	return r.Provider != "" && r.ExternalID != "" && r.Title != ""
}
