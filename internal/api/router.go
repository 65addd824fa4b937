// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config tunes the HTTP server and its middleware.
type Config struct {
	// Addr is the listen address.
	Addr string `json:"addr" koanf:"addr"`

	// RateLimit is the per-IP request budget per RateWindow on the
	// /api/v1 group. Zero disables rate limiting.
	RateLimit  int           `json:"rate_limit" koanf:"rate_limit"`
	RateWindow time.Duration `json:"rate_window" koanf:"rate_window"`

	// CORSOrigins lists the allowed origins. Empty allows none.
	CORSOrigins []string `json:"cors_origins" koanf:"cors_origins"`

	ReadTimeout     time.Duration `json:"read_timeout" koanf:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" koanf:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" koanf:"shutdown_timeout"`
}

// DefaultConfig returns the default server tuning.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		RateLimit:       120,
		RateWindow:      time.Minute,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("api: addr must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("api: rate_limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		return fmt.Errorf("api: rate_window must be positive when rate_limit is set")
	}
	return nil
}

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(cfg Config, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow))
		}
		r.Use(prometheusMetrics)

		r.Get("/search", h.Search)
		r.Post("/sync", h.Sync)
		r.Get("/recommendations/{userID}", h.Recommendations)
	})

	return r
}
