// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package models

import (
	"testing"
	"time"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in   string
		want ContentType
	}{
		{"movie", ContentTypeMovie},
		{"Film", ContentTypeMovie},
		{"series", ContentTypeSeries},
		{"TV", ContentTypeSeries},
		{"tvseries", ContentTypeSeries},
		{"miniseries", ContentTypeSeries},
		{"documentary", ContentTypeDocumentary},
		{"Docuseries", ContentTypeDocumentary},
		{"podcast", ContentTypePodcast},
		{"audio", ContentTypePodcast},
		{" movie ", ContentTypeMovie},
		{"", ContentTypeMovie},
		{"hologram", ContentTypeMovie}, // unknown defaults to movie
	}
	for _, tt := range tests {
		if got := ParseContentType(tt.in); got != tt.want {
			t.Errorf("ParseContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentReleaseYear(t *testing.T) {
	var c Content
	if got := c.ReleaseYear(); got != 0 {
		t.Errorf("nil release date year = %d, want 0", got)
	}

	d := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	c.ReleaseDate = &d
	if got := c.ReleaseYear(); got != 2017 {
		t.Errorf("year = %d, want 2017", got)
	}
}

func TestContentHasTag(t *testing.T) {
	c := Content{GenreTags: []string{"true crime", "Thriller"}}

	if !c.HasTag("true crime") {
		t.Error("exact tag not found")
	}
	if !c.HasTag("THRILLER") {
		t.Error("tag match should be case-insensitive")
	}
	if c.HasTag("comedy") {
		t.Error("absent tag reported present")
	}
}

func TestProviderRawRecordValid(t *testing.T) {
	tests := []struct {
		name string
		rec  ProviderRawRecord
		want bool
	}{
		{"complete", ProviderRawRecord{Provider: ProviderTMDB, ExternalID: "1", Title: "Zodiac"}, true},
		{"no provider", ProviderRawRecord{ExternalID: "1", Title: "Zodiac"}, false},
		{"no external id", ProviderRawRecord{Provider: ProviderTMDB, Title: "Zodiac"}, false},
		{"no title", ProviderRawRecord{Provider: ProviderTMDB, ExternalID: "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserInteractionPositive(t *testing.T) {
	tests := []struct {
		name string
		i    UserInteraction
		want bool
	}{
		{"high rating", UserInteraction{Rating: 4.5}, true},
		{"threshold rating", UserInteraction{Rating: 4}, true},
		{"low rating", UserInteraction{Rating: 2}, false},
		{"completed unrated", UserInteraction{State: TrackingCompleted}, true},
		{"completed but rated low", UserInteraction{State: TrackingCompleted, Rating: 1}, false},
		{"watching unrated", UserInteraction{State: TrackingWatching}, false},
		{"abandoned", UserInteraction{State: TrackingAbandoned}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.i.Positive(); got != tt.want {
				t.Errorf("Positive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProviderPriorityCoversAllProviders(t *testing.T) {
	seen := make(map[Provider]bool, len(ProviderPriority))
	for _, p := range ProviderPriority {
		if seen[p] {
			t.Errorf("duplicate provider %s in priority order", p)
		}
		seen[p] = true
	}
	for _, p := range []Provider{ProviderTMDB, ProviderWatchmode, ProviderTVMaze, ProviderTrakt, ProviderCrimedex} {
		if !seen[p] {
			t.Errorf("provider %s missing from priority order", p)
		}
	}
	if ProviderPriority[0] != ProviderTMDB {
		t.Errorf("highest-priority provider = %s, want tmdb", ProviderPriority[0])
	}
}
