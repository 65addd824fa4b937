// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package resilient

import (
	"sync"
	"time"
)

// RateLimitConfig bounds outbound calls per trailing window.
// A zero capacity disables that window's bucket.
type RateLimitConfig struct {
	PerSecond int `json:"per_second" koanf:"per_second"`
	PerMinute int `json:"per_minute" koanf:"per_minute"`
	PerHour   int `json:"per_hour" koanf:"per_hour"`
}

// DefaultRateLimitConfig returns conservative per-provider limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerSecond: 10,
		PerMinute: 300,
		PerHour:   5000,
	}
}

// bucket is a single fixed-refill token bucket. Tokens never go negative.
type bucket struct {
	window     string
	interval   time.Duration
	capacity   int
	tokens     int
	lastRefill time.Time
}

// refill credits whole elapsed windows: floor(elapsed/interval) * capacity,
// capped at capacity. lastRefill advances by whole windows so partial
// window progress is retained.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.interval {
		return
	}

	windows := int(elapsed / b.interval)
	b.tokens += windows * b.capacity
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(windows) * b.interval)
}

// nextRefillIn returns how long until the bucket gains tokens again.
func (b *bucket) nextRefillIn(now time.Time) time.Duration {
	wait := b.lastRefill.Add(b.interval).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait
}

// MultiWindowLimiter enforces three independent token buckets
// (second/minute/hour). A call is admitted only when every bucket has at
// least one token; admission atomically decrements one token from all
// buckets. Check-and-decrement is serialized with a mutex so concurrent
// callers sharing one client instance cannot over-admit.
type MultiWindowLimiter struct {
	mu      sync.Mutex
	buckets []*bucket
	now     func() time.Time // test hook
}

// NewMultiWindowLimiter creates a limiter from config. Windows with zero
// capacity are not enforced.
func NewMultiWindowLimiter(cfg RateLimitConfig) *MultiWindowLimiter {
	now := time.Now()
	l := &MultiWindowLimiter{now: time.Now}

	add := func(window string, interval time.Duration, capacity int) {
		if capacity <= 0 {
			return
		}
		l.buckets = append(l.buckets, &bucket{
			window:     window,
			interval:   interval,
			capacity:   capacity,
			tokens:     capacity,
			lastRefill: now,
		})
	}

	add("second", time.Second, cfg.PerSecond)
	add("minute", time.Minute, cfg.PerMinute)
	add("hour", time.Hour, cfg.PerHour)

	return l
}

// Allow admits or rejects one call. On rejection it returns a
// *RateLimitError carrying the suggested wait: the minimum time until an
// exhausted bucket refills.
func (l *MultiWindowLimiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, b := range l.buckets {
		b.refill(now)
	}

	var exhausted *bucket
	for _, b := range l.buckets {
		if b.tokens >= 1 {
			continue
		}
		if exhausted == nil || b.nextRefillIn(now) < exhausted.nextRefillIn(now) {
			exhausted = b
		}
	}
	if exhausted != nil {
		return &RateLimitError{
			Window:     exhausted.window,
			RetryAfter: exhausted.nextRefillIn(now),
		}
	}

	for _, b := range l.buckets {
		b.tokens--
	}
	return nil
}

// Tokens returns the current token count per window, refilled to now.
// Intended for diagnostics and tests.
func (l *MultiWindowLimiter) Tokens() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make(map[string]int, len(l.buckets))
	for _, b := range l.buckets {
		b.refill(now)
		out[b.window] = b.tokens
	}
	return out
}
