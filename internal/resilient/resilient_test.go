// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package resilient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryConfigDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 200 * time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 200 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{10, 5 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestLimiterExhaustsSecondWindow(t *testing.T) {
	l := NewMultiWindowLimiter(RateLimitConfig{PerSecond: 2})

	for i := 0; i < 2; i++ {
		if err := l.Allow(); err != nil {
			t.Fatalf("call %d: unexpected error %v", i, err)
		}
	}

	err := l.Allow()
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("third call error = %v, want ErrRateLimitExceeded", err)
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.Window != "second" {
		t.Errorf("error = %#v, want RateLimitError for second window", err)
	}
	if rle.RetryAfter <= 0 || rle.RetryAfter > time.Second {
		t.Errorf("RetryAfter = %v, want within (0, 1s]", rle.RetryAfter)
	}
}

func TestLimiterRefillsAfterWindow(t *testing.T) {
	l := NewMultiWindowLimiter(RateLimitConfig{PerSecond: 1})
	base := time.Now()
	l.now = func() time.Time { return base }

	if err := l.Allow(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := l.Allow(); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("second call error = %v, want rate limit", err)
	}

	// One full window later the bucket holds a fresh token.
	l.now = func() time.Time { return base.Add(time.Second) }
	if err := l.Allow(); err != nil {
		t.Fatalf("call after refill: %v", err)
	}
}

func TestLimiterMinuteWindowBindsFirst(t *testing.T) {
	l := NewMultiWindowLimiter(RateLimitConfig{PerSecond: 10, PerMinute: 2})

	for i := 0; i < 2; i++ {
		if err := l.Allow(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	var rle *RateLimitError
	if err := l.Allow(); !errors.As(err, &rle) || rle.Window != "minute" {
		t.Fatalf("error = %v, want minute-window rejection", err)
	}
}

func TestLimiterZeroConfigAdmitsEverything(t *testing.T) {
	l := NewMultiWindowLimiter(RateLimitConfig{})
	for i := 0; i < 100; i++ {
		if err := l.Allow(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &RateLimitError{Window: "second"}, false},
		{"circuit open", ErrCircuitOpen, false},
		{"timeout", ErrUpstreamTimeout, true},
		{"wrapped timeout", fmt.Errorf("tmdb: %w", ErrUpstreamTimeout), true},
		{"status 500", &UpstreamError{Status: 500}, true},
		{"status 429", &UpstreamError{Status: 429}, true},
		{"status 404", &UpstreamError{Status: 404}, false},
		{"status 400", &UpstreamError{Status: 400}, false},
		{"malformed", ErrMalformedResponse, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	b := NewBreaker("test-breaker", BreakerConfig{FailureThreshold: 2, RecoveryTimeout: 50 * time.Millisecond})
	boom := errors.New("boom")
	fail := func() (*Response, error) { return nil, boom }
	ok := func() (*Response, error) { return &Response{StatusCode: 200}, nil }

	for i := 0; i < 2; i++ {
		if _, err := b.Execute(fail); !errors.Is(err, boom) {
			t.Fatalf("failure %d: error = %v, want boom", i, err)
		}
	}
	if got := b.Snapshot().State; got != "open" {
		t.Fatalf("state after threshold = %q, want open", got)
	}

	// Open circuit rejects without invoking fn.
	called := false
	_, err := b.Execute(func() (*Response, error) { called = true; return nil, nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open circuit error = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn invoked while circuit open")
	}
	if next := b.Snapshot().NextAttemptAt; next.IsZero() {
		t.Error("NextAttemptAt not set while open")
	}

	// After the recovery timeout, half-open probes run and consecutive
	// successes close the circuit again.
	time.Sleep(60 * time.Millisecond)
	for i := 0; i < halfOpenSuccesses; i++ {
		if _, err := b.Execute(ok); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if got := b.Snapshot().State; got != "closed" {
		t.Fatalf("state after probes = %q, want closed", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test-breaker-reopen", BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 50 * time.Millisecond})
	boom := errors.New("boom")

	if _, err := b.Execute(func() (*Response, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("seed failure: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	if _, err := b.Execute(func() (*Response, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("half-open probe error = %v, want boom", err)
	}
	if got := b.Snapshot().State; got != "open" {
		t.Fatalf("state after failed probe = %q, want open", got)
	}
}

// testClientConfig disables interference from limits not under test.
func testClientConfig(name string) Config {
	return Config{
		Name:    name,
		Timeout: 2 * time.Second,
		Retry:   RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 10 * time.Millisecond},
		Breaker: BreakerConfig{FailureThreshold: 100, RecoveryTimeout: time.Minute},
		RateLimit: RateLimitConfig{
			PerSecond: 1000,
			PerMinute: 10000,
			PerHour:   100000,
		},
		Cache: CacheConfig{Capacity: 10, DefaultTTL: time.Minute},
	}
}

func TestClientCachesResponses(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := NewClient(testClientConfig("cache-test"))
	req := Request{Method: http.MethodGet, URL: srv.URL, CacheKey: "k1"}

	for i := 0; i < 3; i++ {
		resp, err := c.Execute(context.Background(), req)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("call %d: status %d", i, resp.StatusCode)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1 (cache should absorb repeats)", hits.Load())
	}

	cacheHits, misses, size := c.CacheStats()
	if cacheHits != 2 || misses != 1 || size != 1 {
		t.Errorf("cache stats = %d/%d/%d, want 2 hits, 1 miss, size 1", cacheHits, misses, size)
	}
}

func TestClientRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	cfg := testClientConfig("retry-test")
	cfg.Retry.MaxRetries = 3
	c := NewClient(cfg)

	resp, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if hits.Load() != 3 {
		t.Errorf("upstream hits = %d, want 3 (two failures then success)", hits.Load())
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testClientConfig("no-retry-test")
	cfg.Retry.MaxRetries = 3
	c := NewClient(cfg)

	_, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != 404 {
		t.Fatalf("error = %v, want UpstreamError 404", err)
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1 (4xx must not retry)", hits.Load())
	}
}

func TestClientRateLimitRejectsLocally(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	cfg := testClientConfig("limit-test")
	cfg.RateLimit = RateLimitConfig{PerSecond: 1}
	c := NewClient(cfg)

	if _, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("second call error = %v, want ErrRateLimitExceeded", err)
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1 (rejection is local)", hits.Load())
	}
}

func TestClientBreakerFailsFast(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig("breaker-test")
	cfg.Breaker = BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute}
	c := NewClient(cfg)

	for i := 0; i < 2; i++ {
		if _, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	before := hits.Load()
	_, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if hits.Load() != before {
		t.Error("open circuit still reached upstream")
	}
	if got := c.BreakerSnapshot().State; got != "open" {
		t.Errorf("snapshot state = %q, want open", got)
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	cfg := testClientConfig("timeout-test")
	cfg.Timeout = 20 * time.Millisecond
	c := NewClient(cfg)

	_, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("error = %v, want ErrUpstreamTimeout", err)
	}
}

func TestClientCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(testClientConfig("cancel-test"))
	_, err := c.Execute(ctx, Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
