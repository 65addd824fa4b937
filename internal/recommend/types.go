// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package recommend

import (
	"context"
	"errors"

	"github.com/coldcaselabs/coldcase/internal/models"
)

// ErrSignalUnavailable indicates a signal's dependency is down. The
// engine responds by running the signal's fallback variant; any other
// signal error just drops that signal from the ensemble.
var ErrSignalUnavailable = errors.New("signal dependency unavailable")

// Score is one signal's verdict on one candidate.
type Score struct {
	// Raw is the signal's score in [0,1].
	Raw float64

	// Reason is a short human-readable explanation.
	Reason string
}

// Signal scores candidates for one user. Implementations live in the
// signals subpackage and are safe for concurrent use.
type Signal interface {
	// Name identifies the signal in weights, score breakdowns, and logs.
	Name() string

	// NeedsHistory reports whether the signal is meaningless without
	// user interaction history. History-dependent signals degrade to
	// trending for cold-start users.
	NeedsHistory() bool

	// Score returns per-content-id scores for the candidate set.
	// Candidates absent from the result contribute zero.
	Score(ctx context.Context, userID string, candidates []models.Content) (map[string]Score, error)
}

// Fallbacker is implemented by signals that carry a degraded variant to
// run when the primary reports ErrSignalUnavailable.
type Fallbacker interface {
	Fallback() Signal
}

// Candidate is one recommended title with its scoring breakdown.
type Candidate struct {
	// Content is the recommended canonical record.
	Content models.Content `json:"content"`

	// ComponentScores holds each contributing signal's raw score.
	ComponentScores map[string]float64 `json:"component_scores"`

	// CombinedScore is the weighted sum over the ensemble.
	CombinedScore float64 `json:"combined_score"`

	// Reason is the first non-empty per-signal reason, in signal
	// registration order.
	Reason string `json:"reason"`

	// Confidence is the fraction of ensemble signals that scored this
	// candidate.
	Confidence float64 `json:"confidence"`
}

// Options shapes one recommendation request.
type Options struct {
	// Type restricts candidates to one content type when set.
	Type models.ContentType

	// Limit caps the number of returned candidates.
	Limit int

	// ExcludeWatched drops titles the user has any interaction with.
	ExcludeWatched bool

	// Preset selects a named weight vector. Ignored when Weights is set.
	Preset string

	// Weights overrides the preset per call.
	Weights *Weights
}
