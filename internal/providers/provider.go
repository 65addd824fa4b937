// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package providers implements one adapter per external catalog. Each
// adapter translates canonical queries into provider calls through its
// own resilient client and parses the raw responses into
// models.ProviderRawRecord. Adapters never infer canonical ids.
//
// One explicit deserialization schema exists per provider API; fields
// with no canonical slot are preserved in the record's Extra side map.
package providers

import (
	"context"
	"errors"

	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/resilient"
)

// ErrAvailabilityUnsupported is returned by adapters whose catalog has no
// availability endpoint.
var ErrAvailabilityUnsupported = errors.New("provider does not support availability lookups")

// Adapter is the contract every external catalog adapter satisfies.
type Adapter interface {
	// Name returns the provider this adapter talks to.
	Name() models.Provider

	// SearchByTitle finds raw records matching a title query.
	SearchByTitle(ctx context.Context, query string) ([]models.ProviderRawRecord, error)

	// GetDetail fetches the full raw record for one external id.
	GetDetail(ctx context.Context, externalID string) (*models.ProviderRawRecord, error)

	// GetAvailability fetches platform availability for one external id
	// in a region. Returns ErrAvailabilityUnsupported where the catalog
	// has no such endpoint.
	GetAvailability(ctx context.Context, externalID, region string) ([]models.PlatformAvailability, error)
}

// Config assembles what one adapter needs: endpoint, credentials, and the
// resilience settings for its private client.
type Config struct {
	BaseURL string
	APIKey  string
	Client  resilient.Config
}

// Registry holds the configured adapters in a stable order.
type Registry struct {
	adapters []Adapter
	byName   map[models.Provider]Adapter
}

// NewRegistry creates a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[models.Provider]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters = append(r.adapters, a)
		r.byName[a.Name()] = a
	}
	return r
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	return r.adapters
}

// Get returns the adapter for a provider, or nil.
func (r *Registry) Get(name models.Provider) Adapter {
	return r.byName[name]
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}
