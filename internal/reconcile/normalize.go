// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package reconcile

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/coldcaselabs/coldcase/internal/models"
)

// normalizeTitle lowercases a title, strips punctuation, and collapses
// whitespace so near-identical provider titles compare equal.
func normalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// punctuation dropped entirely
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// matchKey builds the fuzzy-match key for a title: normalized title plus
// release year plus content type. Records matching on this key are
// considered the same real-world title.
func matchKey(title string, year int, contentType models.ContentType) string {
	return normalizeTitle(title) + "|" + strconv.Itoa(year) + "|" + string(contentType)
}

// recordYear extracts the release year from a raw record, 0 when unknown.
func recordYear(rec *models.ProviderRawRecord) int {
	if rec.ReleaseDate == nil {
		return 0
	}
	return rec.ReleaseDate.Year()
}
