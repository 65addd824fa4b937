// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package recommend

import (
	"fmt"
	"time"
)

// Signal names, used in weight vectors and score breakdowns.
const (
	SignalTrending      = "trending"
	SignalContent       = "content"
	SignalCase          = "case"
	SignalCollaborative = "collaborative"
	SignalNewRelease    = "new_release"
)

// Named weight presets.
const (
	PresetBalanced           = "balanced"
	PresetTrendingHeavy      = "trending-heavy"
	PresetCollaborativeHeavy = "collaborative-heavy"
)

// Weights is the ensemble weight vector. Values are normalized to sum
// to 1.0 before combination.
type Weights struct {
	Trending      float64 `json:"trending" koanf:"trending"`
	Content       float64 `json:"content" koanf:"content"`
	Case          float64 `json:"case" koanf:"case"`
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`
	NewRelease    float64 `json:"new_release" koanf:"new_release"`
}

// PresetWeights returns the named preset weight vector.
func PresetWeights(name string) (Weights, error) {
	switch name {
	case PresetBalanced, "":
		return Weights{Trending: 0.2, Content: 0.25, Case: 0.2, Collaborative: 0.25, NewRelease: 0.1}, nil
	case PresetTrendingHeavy:
		return Weights{Trending: 0.5, Content: 0.15, Case: 0.1, Collaborative: 0.15, NewRelease: 0.1}, nil
	case PresetCollaborativeHeavy:
		return Weights{Trending: 0.1, Content: 0.15, Case: 0.1, Collaborative: 0.55, NewRelease: 0.1}, nil
	default:
		return Weights{}, fmt.Errorf("unknown weight preset %q", name)
	}
}

// Normalize scales the vector to sum to 1.0. A zero vector normalizes
// to the balanced preset.
func (w Weights) Normalize() Weights {
	sum := w.Trending + w.Content + w.Case + w.Collaborative + w.NewRelease
	if sum <= 0 {
		balanced, _ := PresetWeights(PresetBalanced)
		return balanced
	}
	return Weights{
		Trending:      w.Trending / sum,
		Content:       w.Content / sum,
		Case:          w.Case / sum,
		Collaborative: w.Collaborative / sum,
		NewRelease:    w.NewRelease / sum,
	}
}

// ToMap keys the vector by signal name.
func (w Weights) ToMap() map[string]float64 {
	return map[string]float64{
		SignalTrending:      w.Trending,
		SignalContent:       w.Content,
		SignalCase:          w.Case,
		SignalCollaborative: w.Collaborative,
		SignalNewRelease:    w.NewRelease,
	}
}

// Config tunes the engine.
type Config struct {
	// DefaultLimit applies when a request carries no limit.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit caps any request's limit.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// SignalTimeout bounds each signal's scoring call.
	SignalTimeout time.Duration `json:"signal_timeout" koanf:"signal_timeout"`

	// CacheCapacity and CacheTTL tune the response cache. Zero capacity
	// disables caching.
	CacheCapacity int           `json:"cache_capacity" koanf:"cache_capacity"`
	CacheTTL      time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// DefaultPreset is the weight preset used when a request names none.
	DefaultPreset string `json:"default_preset" koanf:"default_preset"`
}

// DefaultConfig returns the default engine tuning.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:  20,
		MaxLimit:      100,
		SignalTimeout: 2 * time.Second,
		CacheCapacity: 500,
		CacheTTL:      5 * time.Minute,
		DefaultPreset: PresetBalanced,
	}
}

// Validate checks the config for usable values.
func (c Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit %d below default_limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.SignalTimeout <= 0 {
		return fmt.Errorf("signal_timeout must be positive, got %s", c.SignalTimeout)
	}
	if _, err := PresetWeights(c.DefaultPreset); err != nil {
		return err
	}
	return nil
}
