// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package models

import "time"

// TrackingState is where a title sits on a user's list.
type TrackingState string

const (
	TrackingWantToWatch TrackingState = "want_to_watch"
	TrackingWatching    TrackingState = "watching"
	TrackingCompleted   TrackingState = "completed"
	TrackingAbandoned   TrackingState = "abandoned"
)

// UserInteraction is a user's relationship with one canonical title.
// Owned by the storage collaborator; read-only in this service.
type UserInteraction struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// ContentID is the canonical content id.
	ContentID string `json:"content_id"`

	// State is the tracking state.
	State TrackingState `json:"state"`

	// Rating is the user's rating on a 1-5 scale; 0 means unrated.
	Rating float64 `json:"rating,omitempty"`

	// Progress is completion in [0,1] for in-progress titles.
	Progress float64 `json:"progress,omitempty"`

	// CreatedAt is when the interaction was first recorded.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the interaction last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Positive reports whether the interaction is a strong positive signal:
// rated 4 or above, or completed without a contradicting low rating.
func (i *UserInteraction) Positive() bool {
	if i.Rating > 0 {
		return i.Rating >= 4
	}
	return i.State == TrackingCompleted
}
