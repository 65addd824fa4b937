// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package config loads and validates the service configuration with a
// clear precedence: environment variables over config file over
// built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/coldcaselabs/coldcase/internal/api"
	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/providers"
	"github.com/coldcaselabs/coldcase/internal/recommend"
	"github.com/coldcaselabs/coldcase/internal/resilient"
	"github.com/coldcaselabs/coldcase/internal/supervisor"
	syncpkg "github.com/coldcaselabs/coldcase/internal/sync"
)

// Config is the full service configuration tree.
type Config struct {
	API        api.Config            `json:"api" koanf:"api"`
	Log        logging.Config        `json:"log" koanf:"log"`
	Storage    StorageConfig         `json:"storage" koanf:"storage"`
	Providers  ProvidersConfig       `json:"providers" koanf:"providers"`
	Sync       syncpkg.Config        `json:"sync" koanf:"sync"`
	Recommend  recommend.Config      `json:"recommend" koanf:"recommend"`
	Supervisor supervisor.TreeConfig `json:"supervisor" koanf:"supervisor"`
}

// StorageConfig selects and tunes the canonical content store backend.
type StorageConfig struct {
	// Backend is "memory" or "badger".
	Backend string `json:"backend" koanf:"backend"`

	// Path is the Badger database directory. Ignored for memory.
	Path string `json:"path" koanf:"path"`
}

// ProviderConfig configures one external catalog adapter.
type ProviderConfig struct {
	Enabled bool   `json:"enabled" koanf:"enabled"`
	BaseURL string `json:"base_url" koanf:"base_url"`
	APIKey  string `json:"api_key" koanf:"api_key"`

	// Region scopes availability lookups for providers that support
	// them.
	Region string `json:"region" koanf:"region"`

	Client resilient.Config `json:"client" koanf:"client"`
}

// AdapterConfig converts to the adapter package's config shape.
func (p ProviderConfig) AdapterConfig() providers.Config {
	return providers.Config{
		BaseURL: p.BaseURL,
		APIKey:  p.APIKey,
		Client:  p.Client,
	}
}

// ProvidersConfig holds one section per external catalog.
type ProvidersConfig struct {
	TMDB      ProviderConfig `json:"tmdb" koanf:"tmdb"`
	Watchmode ProviderConfig `json:"watchmode" koanf:"watchmode"`
	TVMaze    ProviderConfig `json:"tvmaze" koanf:"tvmaze"`
	Trakt     ProviderConfig `json:"trakt" koanf:"trakt"`
	Crimedex  ProviderConfig `json:"crimedex" koanf:"crimedex"`
}

// ByName returns the section for a provider.
func (p ProvidersConfig) ByName(name models.Provider) ProviderConfig {
	switch name {
	case models.ProviderTMDB:
		return p.TMDB
	case models.ProviderWatchmode:
		return p.Watchmode
	case models.ProviderTVMaze:
		return p.TVMaze
	case models.ProviderTrakt:
		return p.Trakt
	case models.ProviderCrimedex:
		return p.Crimedex
	default:
		return ProviderConfig{}
	}
}

// defaultConfig returns the configuration with every default applied.
// Defaults are loaded first, then overridden by the config file and
// environment variables.
func defaultConfig() *Config {
	defaultClient := func(perSecond int) resilient.Config {
		return resilient.Config{
			Timeout:   10 * time.Second,
			Retry:     resilient.DefaultRetryConfig(),
			Breaker:   resilient.DefaultBreakerConfig(),
			RateLimit: resilient.RateLimitConfig{PerSecond: perSecond, PerMinute: perSecond * 40, PerHour: perSecond * 1800},
			Cache:     resilient.DefaultCacheConfig(),
		}
	}

	return &Config{
		API: api.DefaultConfig(),
		Log: logging.DefaultConfig(),
		Storage: StorageConfig{
			Backend: "memory",
			Path:    "/data/coldcase",
		},
		Providers: ProvidersConfig{
			TMDB: ProviderConfig{
				Enabled: true,
				// Adapters append the version segment themselves.
				BaseURL: "https://api.themoviedb.org",
				Client:  defaultClient(10),
			},
			Watchmode: ProviderConfig{
				Enabled: true,
				BaseURL: "https://api.watchmode.com",
				Region:  "US",
				Client:  defaultClient(5),
			},
			TVMaze: ProviderConfig{
				Enabled: true,
				BaseURL: "https://api.tvmaze.com",
				Client:  defaultClient(10),
			},
			Trakt: ProviderConfig{
				Enabled: true,
				BaseURL: "https://api.trakt.tv",
				Client:  defaultClient(5),
			},
			Crimedex: ProviderConfig{
				Enabled: false, // no public endpoint; opt in per deployment
				BaseURL: "",
				Client:  defaultClient(5),
			},
		},
		Sync:       syncpkg.DefaultConfig(),
		Recommend:  recommend.DefaultConfig(),
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

// Validate checks the full tree for internal consistency.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Recommend.Validate(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "memory":
	case "badger":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage: path is required for the badger backend")
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}

	type section struct {
		name models.Provider
		cfg  ProviderConfig
	}
	sections := []section{
		{models.ProviderTMDB, c.Providers.TMDB},
		{models.ProviderWatchmode, c.Providers.Watchmode},
		{models.ProviderTVMaze, c.Providers.TVMaze},
		{models.ProviderTrakt, c.Providers.Trakt},
		{models.ProviderCrimedex, c.Providers.Crimedex},
	}
	enabled := 0
	for _, s := range sections {
		if !s.cfg.Enabled {
			continue
		}
		enabled++
		if s.cfg.BaseURL == "" {
			return fmt.Errorf("providers: %s is enabled but has no base_url", s.name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("providers: at least one provider must be enabled")
	}

	if c.Sync.MinInterval < 0 {
		return fmt.Errorf("sync: min_interval must not be negative")
	}
	if len(c.Sync.SeedQueries) == 0 {
		return fmt.Errorf("sync: at least one seed query is required")
	}
	return nil
}
