// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package supervisor runs the long-lived services under a suture v4
// supervision tree. The HTTP server and the periodic provider sync are
// isolated in sibling subtrees so a crash loop in one never starves the
// other.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervision parameters. Zero values take suture's
// defaults.
type TreeConfig struct {
	// FailureThreshold is the number of failures before backoff.
	FailureThreshold float64 `json:"failure_threshold" koanf:"failure_threshold"`

	// FailureDecay is the failure decay rate in seconds.
	FailureDecay float64 `json:"failure_decay" koanf:"failure_decay"`

	// FailureBackoff is how long to wait once the threshold is exceeded.
	FailureBackoff time.Duration `json:"failure_backoff" koanf:"failure_backoff"`

	// ShutdownTimeout bounds graceful shutdown of each service.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" koanf:"shutdown_timeout"`
}

// DefaultTreeConfig matches suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the two-layer supervision tree.
type Tree struct {
	root *suture.Supervisor
	api  *suture.Supervisor
	data *suture.Supervisor
}

// NewTree builds the tree. The slog logger feeds suture's event hook;
// callers pass the zerolog-backed adapter from internal/logging.
func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5.0
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30.0
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}

	root := suture.New("coldcase", rootSpec)
	api := suture.New("api-layer", childSpec)
	data := suture.New("data-layer", childSpec)
	root.Add(api)
	root.Add(data)

	return &Tree{root: root, api: api, data: data}
}

// AddAPIService registers a service in the API subtree.
func (t *Tree) AddAPIService(s suture.Service) suture.ServiceToken {
	return t.api.Add(s)
}

// AddDataService registers a service in the data subtree.
func (t *Tree) AddDataService(s suture.Service) suture.ServiceToken {
	return t.data.Add(s)
}

// Serve runs the tree until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
