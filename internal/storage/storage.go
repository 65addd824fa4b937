// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package storage defines the narrow interfaces through which the service
// consumes its persistent store and search index, plus the shipped
// implementations: an in-memory store and a Badger-backed content store.
//
// The canonical content store is the single source of truth. Upserts are
// by canonical id; the reconciler is the only writer.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrStorageUnavailable indicates the persistent store cannot be
	// reached. It aborts the current batch or request.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ContentStore is the canonical content collaborator.
type ContentStore interface {
	// FindContentByExternalID looks up the canonical record carrying the
	// given provider id. Returns ErrNotFound when absent.
	FindContentByExternalID(ctx context.Context, provider models.Provider, externalID string) (*models.Content, error)

	// FindContentByID looks up a canonical record by id.
	FindContentByID(ctx context.Context, id string) (*models.Content, error)

	// ListContent returns all canonical records.
	ListContent(ctx context.Context) ([]models.Content, error)

	// UpsertContent inserts or replaces the record with content.ID.
	UpsertContent(ctx context.Context, content *models.Content) error
}

// InteractionStore is the user-interaction collaborator (read-only here).
type InteractionStore interface {
	// FindUserInteractions returns all interactions for one user.
	// Returns ErrUserNotFound for unknown users.
	FindUserInteractions(ctx context.Context, userID string) ([]models.UserInteraction, error)

	// FindNeighborUsers returns ids of users sharing at least one
	// completed or watching title with the given user.
	FindNeighborUsers(ctx context.Context, userID string) ([]string, error)

	// ListInteractionsSince returns all interactions updated at or after
	// the given time, across users.
	ListInteractionsSince(ctx context.Context, since time.Time) ([]models.UserInteraction, error)
}

// SearchFilters narrows a search query.
type SearchFilters struct {
	Type      models.ContentType `json:"type,omitempty"`
	GenreTags []string           `json:"genre_tags,omitempty"`
	Limit     int                `json:"limit,omitempty"`
}

// SearchIndex is the search collaborator. Eventually consistent; the
// reconciler pushes documents after every successful upsert.
type SearchIndex interface {
	// IndexContent adds or replaces documents in the index.
	IndexContent(ctx context.Context, docs []models.Content) error

	// Search returns content matching the query and filters, best first.
	Search(ctx context.Context, query string, filters SearchFilters) ([]models.Content, error)
}
