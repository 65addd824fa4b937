// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package api

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// searchQuery is the validated shape of GET /api/v1/search parameters.
type searchQuery struct {
	Query string `validate:"required,min=1,max=200"`
	Limit int    `validate:"gte=0,lte=100"`
}

// syncRequest is the POST /api/v1/sync body.
type syncRequest struct {
	Force         bool     `json:"force"`
	Sources       []string `json:"sources" validate:"dive,oneof=tmdb watchmode tvmaze trakt crimedex"`
	TrueCrimeOnly bool     `json:"true_crime_only"`
}

// recommendationQuery is the validated shape of the recommendations
// endpoint's parameters.
type recommendationQuery struct {
	UserID         string `validate:"required,min=1,max=128"`
	Limit          int    `validate:"gte=0,lte=100"`
	Type           string `validate:"omitempty,oneof=movie series documentary podcast"`
	Preset         string `validate:"omitempty,oneof=balanced trending-heavy collaborative-heavy"`
	ExcludeWatched bool
}

// intParam parses an optional integer query parameter, returning def
// when absent and an ok flag when present but unparseable.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
