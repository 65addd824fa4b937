// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package resilient implements the fault-tolerant request executor shared
// by every provider adapter.
//
// Each provider gets its own Client instance; cache, rate-limit buckets,
// and circuit breaker state are private per instance and never shared
// across providers. The execution pipeline for one call is:
//
//	cache lookup -> rate limiter -> circuit breaker -> retry/backoff -> HTTP
//
// A cache hit bypasses the limiter, the breaker, and retry entirely.
// A successful cacheable response is stored before returning.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/coldcaselabs/coldcase/internal/cache"
	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/metrics"
)

// RetryConfig controls retry/backoff for transient upstream failures.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int `json:"max_retries" koanf:"max_retries"`

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration `json:"base_delay" koanf:"base_delay"`

	// Multiplier grows the delay per attempt.
	Multiplier float64 `json:"multiplier" koanf:"multiplier"`

	// MaxDelay caps the computed delay.
	MaxDelay time.Duration `json:"max_delay" koanf:"max_delay"`
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		Multiplier: 2.0,
		MaxDelay:   5 * time.Second,
	}
}

// Delay computes the backoff before the given retry attempt (0-based):
// min(BaseDelay * Multiplier^attempt, MaxDelay).
func (c RetryConfig) Delay(attempt int) time.Duration {
	d := float64(c.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= c.Multiplier
	}
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// CacheConfig controls the client's response cache.
type CacheConfig struct {
	Capacity   int           `json:"capacity" koanf:"capacity"`
	DefaultTTL time.Duration `json:"default_ttl" koanf:"default_ttl"`
}

// DefaultCacheConfig returns the default cache settings.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Capacity:   2000,
		DefaultTTL: 10 * time.Minute,
	}
}

// Config assembles everything one provider client needs.
type Config struct {
	// Name identifies the provider in logs and metrics.
	Name string `json:"-" koanf:"-"`

	// Timeout bounds each individual network attempt. Distinct from
	// retry/backoff timers.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	Retry     RetryConfig     `json:"retry" koanf:"retry"`
	Breaker   BreakerConfig   `json:"breaker" koanf:"breaker"`
	RateLimit RateLimitConfig `json:"rate_limit" koanf:"rate_limit"`
	Cache     CacheConfig     `json:"cache" koanf:"cache"`
}

// Request describes one upstream call.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header

	// CacheKey, when set, makes the response cacheable. Empty disables
	// caching for this call.
	CacheKey string

	// CacheTTL overrides the cache's default TTL when positive.
	CacheTTL time.Duration
}

// Response is the materialized upstream response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client executes provider calls with rate limiting, circuit breaking,
// retries, and response caching. Safe for concurrent use.
type Client struct {
	name       string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *MultiWindowLimiter
	breaker    *Breaker
	cache      *cache.LRU[*Response]
	retry      RetryConfig
}

// NewClient creates a resilient client for one provider.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.Multiplier <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Cache.Capacity <= 0 {
		cfg.Cache = DefaultCacheConfig()
	}

	return &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		timeout:    cfg.Timeout,
		limiter:    NewMultiWindowLimiter(cfg.RateLimit),
		breaker:    NewBreaker(cfg.Name, cfg.Breaker),
		cache:      cache.NewLRU[*Response](cfg.Cache.Capacity, cfg.Cache.DefaultTTL),
		retry:      cfg.Retry,
	}
}

// Execute runs one call through the full resilience pipeline.
// Failures surface as ErrRateLimitExceeded, ErrCircuitOpen,
// ErrUpstreamTimeout, or *UpstreamError.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	// Cache hit bypasses limiter, breaker, and retry
	if req.CacheKey != "" {
		if resp, ok := c.cache.Get(req.CacheKey); ok {
			metrics.ClientCacheHits.WithLabelValues(c.name).Inc()
			return resp, nil
		}
		metrics.ClientCacheMisses.WithLabelValues(c.name).Inc()
	}

	if err := c.limiter.Allow(); err != nil {
		metrics.RateLimitRejections.WithLabelValues(c.name).Inc()
		var rle *RateLimitError
		if errors.As(err, &rle) {
			logging.Debug().Str("provider", c.name).Str("window", rle.Window).Dur("retry_after", rle.RetryAfter).Msg("rate limit exceeded")
		}
		return nil, err
	}

	resp, err := c.executeWithRetry(ctx, req)
	c.observe(start, err)
	if err != nil {
		return nil, err
	}

	// Store before returning so concurrent callers see the fresh entry
	if req.CacheKey != "" {
		c.cache.SetWithTTL(req.CacheKey, resp, req.CacheTTL)
	}
	return resp, nil
}

// executeWithRetry runs attempts through the breaker until success, a
// non-retryable failure, or retry exhaustion. The last failure is
// surfaced once retries are exhausted. An open circuit aborts the loop
// immediately: CircuitOpen is never retried.
func (c *Client) executeWithRetry(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.Delay(attempt - 1)
			logging.Debug().Str("provider", c.name).Int("attempt", attempt).Dur("delay", delay).Msg("retrying upstream call")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.breaker.Execute(func() (*Response, error) {
			return c.do(ctx, req)
		})
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrCircuitOpen) || !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// do performs a single HTTP attempt.
func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if len(req.Query) > 0 {
		httpReq.URL.RawQuery = req.Query.Encode()
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if attemptCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%s: %w", c.name, ErrUpstreamTimeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Transient network errors are retried like timeouts
		return nil, fmt.Errorf("%s: %v: %w", c.name, err, ErrUpstreamTimeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", ErrMalformedResponse)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// observe records per-call metrics.
func (c *Client) observe(start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(c.name, outcome).Inc()
	metrics.ProviderRequestDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
}

// BreakerSnapshot exposes the breaker state for health reporting.
func (c *Client) BreakerSnapshot() BreakerSnapshot {
	return c.breaker.Snapshot()
}

// CacheStats exposes cache statistics for health reporting.
func (c *Client) CacheStats() (hits, misses int64, size int) {
	return c.cache.Stats()
}
