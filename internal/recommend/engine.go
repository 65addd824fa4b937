// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package recommend implements the hybrid recommendation engine: five
// component signals scored in parallel and combined by a weight vector.
//
// Cold-start users (no interaction history) are served from the trending
// signal alone. A signal whose dependency is down falls back to its
// degraded variant; any other signal failure drops that signal from the
// ensemble for the request.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/coldcaselabs/coldcase/internal/cache"
	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/metrics"
	"github.com/coldcaselabs/coldcase/internal/models"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// Engine combines component signals into ranked recommendations.
// Safe for concurrent use.
type Engine struct {
	cfg          Config
	content      storage.ContentStore
	interactions storage.InteractionStore

	mu      sync.RWMutex
	signals []Signal

	cache *cache.LRU[[]Candidate]
}

// NewEngine creates an engine over the given stores.
func NewEngine(cfg Config, content storage.ContentStore, interactions storage.InteractionStore) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}

	e := &Engine{
		cfg:          cfg,
		content:      content,
		interactions: interactions,
	}
	if cfg.CacheCapacity > 0 {
		e.cache = cache.NewLRU[[]Candidate](cfg.CacheCapacity, cfg.CacheTTL)
	}
	return e, nil
}

// Register adds a signal to the ensemble. Registration order decides
// reason precedence.
func (e *Engine) Register(s Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signals = append(e.signals, s)
	logging.Info().Str("signal", s.Name()).Msg("registered recommendation signal")
}

// GetRecommendations returns ranked candidates for a user. The result is
// best-effort non-empty unless the user does not exist.
func (e *Engine) GetRecommendations(ctx context.Context, userID string, opts Options) ([]Candidate, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	opts = e.applyDefaults(opts)

	history, err := e.interactions.FindUserInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user history: %w", err)
	}

	cacheKey := e.cacheKey(userID, opts)
	if e.cache != nil && opts.Weights == nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	candidates, err := e.candidateSet(ctx, history, opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	weights, err := e.resolveWeights(opts)
	if err != nil {
		return nil, err
	}

	results := e.scoreAll(ctx, userID, candidates, len(history) == 0)
	ranked := e.combine(results, weights, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})
	if len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	if e.cache != nil && opts.Weights == nil {
		e.cache.Set(cacheKey, ranked)
	}
	return ranked, nil
}

func (e *Engine) applyDefaults(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.DefaultLimit
	}
	if opts.Limit > e.cfg.MaxLimit {
		opts.Limit = e.cfg.MaxLimit
	}
	if opts.Preset == "" {
		opts.Preset = e.cfg.DefaultPreset
	}
	return opts
}

func (e *Engine) cacheKey(userID string, opts Options) string {
	return userID + "|" + string(opts.Type) + "|" + strconv.Itoa(opts.Limit) +
		"|" + opts.Preset + "|" + strconv.FormatBool(opts.ExcludeWatched)
}

func (e *Engine) resolveWeights(opts Options) (Weights, error) {
	if opts.Weights != nil {
		return opts.Weights.Normalize(), nil
	}
	preset, err := PresetWeights(opts.Preset)
	if err != nil {
		return Weights{}, err
	}
	return preset.Normalize(), nil
}

// candidateSet loads the catalog and applies type and watched filters.
func (e *Engine) candidateSet(ctx context.Context, history []models.UserInteraction, opts Options) ([]models.Content, error) {
	all, err := e.content.ListContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	watched := make(map[string]bool, len(history))
	if opts.ExcludeWatched {
		for _, i := range history {
			watched[i.ContentID] = true
		}
	}

	out := make([]models.Content, 0, len(all))
	for _, c := range all {
		if opts.Type != "" && c.Type != opts.Type {
			continue
		}
		if watched[c.ID] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// signalResult is one signal's outcome for a request.
type signalResult struct {
	name   string
	scores map[string]Score
	err    error
}

// scoreAll runs the ensemble in parallel. Cold-start users get the
// trending signal substituted for every history-dependent signal.
func (e *Engine) scoreAll(ctx context.Context, userID string, candidates []models.Content, coldStart bool) []signalResult {
	e.mu.RLock()
	signals := e.signals
	e.mu.RUnlock()

	active := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if coldStart && s.NeedsHistory() {
			continue
		}
		active = append(active, s)
	}

	results := make([]signalResult, len(active))
	var wg sync.WaitGroup
	for i, s := range active {
		wg.Add(1)
		go func(idx int, sig Signal) {
			defer wg.Done()
			results[idx] = e.runSignal(ctx, sig, userID, candidates)
		}(i, s)
	}
	wg.Wait()
	return results
}

// runSignal scores one signal with its own timeout, switching to the
// fallback variant when the dependency is unavailable.
func (e *Engine) runSignal(ctx context.Context, sig Signal, userID string, candidates []models.Content) signalResult {
	sigCtx, cancel := context.WithTimeout(ctx, e.cfg.SignalTimeout)
	defer cancel()

	scores, err := sig.Score(sigCtx, userID, candidates)
	if err == nil {
		return signalResult{name: sig.Name(), scores: scores}
	}

	if errors.Is(err, ErrSignalUnavailable) {
		if fb, ok := sig.(Fallbacker); ok {
			metrics.RecommendationSignalFailures.WithLabelValues(sig.Name(), "fallback").Inc()
			logging.Warn().Err(err).Str("signal", sig.Name()).Msg("signal unavailable, running fallback")

			fbScores, fbErr := fb.Fallback().Score(sigCtx, userID, candidates)
			if fbErr == nil {
				return signalResult{name: sig.Name(), scores: fbScores}
			}
			err = fbErr
		}
	}

	metrics.RecommendationSignalFailures.WithLabelValues(sig.Name(), "skipped").Inc()
	logging.Warn().Err(err).Str("signal", sig.Name()).Msg("signal failed, dropping from ensemble")
	return signalResult{name: sig.Name(), err: err}
}

// combine merges per-signal scores into ranked candidates: combined
// score is the weighted sum, missing components contribute zero, the
// first non-empty reason in registration order wins.
func (e *Engine) combine(results []signalResult, weights Weights, candidates []models.Content) []Candidate {
	byID := make(map[string]*Candidate, len(candidates))
	contentByID := make(map[string]models.Content, len(candidates))
	for _, c := range candidates {
		contentByID[c.ID] = c
	}

	weightMap := weights.ToMap()
	contributing := 0
	for _, r := range results {
		if r.err != nil || len(r.scores) == 0 {
			continue
		}
		w := weightMap[r.name]
		if w == 0 {
			continue
		}
		contributing++

		for id, s := range r.scores {
			content, ok := contentByID[id]
			if !ok {
				continue
			}
			cand := byID[id]
			if cand == nil {
				cand = &Candidate{
					Content:         content,
					ComponentScores: make(map[string]float64, len(results)),
				}
				byID[id] = cand
			}
			cand.ComponentScores[r.name] = s.Raw
			cand.CombinedScore += w * s.Raw
			if cand.Reason == "" && s.Reason != "" {
				cand.Reason = s.Reason
			}
		}
	}

	out := make([]Candidate, 0, len(byID))
	for _, cand := range byID {
		if contributing > 0 {
			cand.Confidence = float64(len(cand.ComponentScores)) / float64(contributing)
		}
		out = append(out, *cand)
	}
	return out
}
