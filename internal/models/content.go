// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package models

import (
	"strings"
	"time"
)

// ContentType classifies a canonical title.
type ContentType string

const (
	ContentTypeMovie       ContentType = "movie"
	ContentTypeSeries      ContentType = "series"
	ContentTypeDocumentary ContentType = "documentary"
	ContentTypePodcast     ContentType = "podcast"
)

// ParseContentType maps a provider media-type string onto a canonical ContentType.
// Unknown values default to ContentTypeMovie, the most common catalog type.
func ParseContentType(s string) ContentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "film":
		return ContentTypeMovie
	case "series", "show", "tv", "tvseries", "miniseries":
		return ContentTypeSeries
	case "documentary", "docuseries", "doc":
		return ContentTypeDocumentary
	case "podcast", "audio":
		return ContentTypePodcast
	default:
		return ContentTypeMovie
	}
}

// AvailabilityType describes how a platform offers a title.
type AvailabilityType string

const (
	AvailabilitySubscription AvailabilityType = "subscription"
	AvailabilityRent         AvailabilityType = "rent"
	AvailabilityBuy          AvailabilityType = "buy"
	AvailabilityFree         AvailabilityType = "free"
)

// PlatformAvailability records where and how a title can be watched.
type PlatformAvailability struct {
	// PlatformID is the provider-stable platform identifier (e.g. "netflix").
	PlatformID string `json:"platform_id"`

	// Name is the display name of the platform.
	Name string `json:"name"`

	// Type is the offer type (subscription, rent, buy, free).
	Type AvailabilityType `json:"type"`

	// Region is the ISO 3166-1 alpha-2 region code the offer applies to.
	Region string `json:"region"`

	// Price is the offer price in the region's currency. Zero for
	// subscription and free offers.
	Price float64 `json:"price,omitempty"`

	// AvailableFrom is when the offer became (or becomes) active.
	AvailableFrom *time.Time `json:"available_from,omitempty"`

	// AvailableTo is when the offer expires, if known.
	AvailableTo *time.Time `json:"available_to,omitempty"`
}

// Content is the canonical, deduplicated record for one real-world title,
// aggregated from multiple providers. Exactly one Content exists per title;
// the reconciler owns all mutation.
type Content struct {
	// ID is the canonical UUID assigned at first reconciliation.
	ID string `json:"id"`

	// ExternalIDs maps each provider to its identifier for this title.
	// At most one id per provider.
	ExternalIDs map[Provider]string `json:"external_ids"`

	// Title is the canonical display title.
	Title string `json:"title"`

	// Description is the synopsis.
	Description string `json:"description,omitempty"`

	// Type is the canonical content type.
	Type ContentType `json:"type"`

	// GenreTags is the de-duplicated union of provider genre tags.
	GenreTags []string `json:"genre_tags,omitempty"`

	// CaseTags names the real-world cases the title covers
	// (e.g. "zodiac-killer", "db-cooper").
	CaseTags []string `json:"case_tags,omitempty"`

	// PosterURL is the poster artwork location, if any provider had one.
	PosterURL string `json:"poster_url,omitempty"`

	// TrailerURL is the trailer location, if any provider had one.
	TrailerURL string `json:"trailer_url,omitempty"`

	// ReleaseDate is the first release date, if known.
	ReleaseDate *time.Time `json:"release_date,omitempty"`

	// RuntimeMinutes is the runtime; for series, the per-episode runtime.
	RuntimeMinutes int `json:"runtime_minutes,omitempty"`

	// Platforms lists current streaming/purchase availability.
	Platforms []PlatformAvailability `json:"platforms,omitempty"`

	// SourceConfidence in [0,1] grows with the number of independent
	// providers corroborating this record.
	SourceConfidence float64 `json:"source_confidence"`

	// DataCompleteness in [0,1] is the fraction of canonical schema
	// fields populated.
	DataCompleteness float64 `json:"data_completeness"`

	// AddedAt is when the canonical record was first created.
	AddedAt time.Time `json:"added_at"`

	// LastSyncedAt is when any provider last contributed to this record.
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// ReleaseYear returns the release year, or 0 when the date is unknown.
func (c *Content) ReleaseYear() int {
	if c.ReleaseDate == nil {
		return 0
	}
	return c.ReleaseDate.Year()
}

// HasTag reports whether tag appears in the content's genre tags.
func (c *Content) HasTag(tag string) bool {
	for _, t := range c.GenreTags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
