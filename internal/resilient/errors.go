// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package resilient

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the resilient client failure taxonomy.
// RateLimitExceeded and CircuitOpen are immediate local signals and are
// never retried internally; timeouts and upstream errors are retried per
// policy and surfaced once retries are exhausted.
var (
	// ErrRateLimitExceeded indicates a local token bucket had no tokens.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrCircuitOpen indicates the circuit breaker rejected the call
	// without a network attempt.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrUpstreamTimeout indicates the provider call exceeded its timeout.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrMalformedResponse indicates the provider returned a payload that
	// could not be parsed.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// RateLimitError reports local rate limiting with a suggested wait,
// computed as the time until the nearest exhausted bucket refills.
type RateLimitError struct {
	// Window names the exhausted bucket: "second", "minute", or "hour".
	Window string

	// RetryAfter is the suggested wait before the next attempt.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window, retry after %s", e.Window, e.RetryAfter)
}

// Is makes RateLimitError match ErrRateLimitExceeded via errors.Is.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// UpstreamError reports a non-2xx status from the provider.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d", e.Status)
}

// Retryable reports whether the status is worth retrying:
// 429 and 5xx are transient, other 4xx are not.
func (e *UpstreamError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// IsRetryable reports whether err warrants another attempt under the retry
// policy: retryable upstream statuses and transient timeouts qualify;
// rate limiting and open circuits never do.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, ErrUpstreamTimeout) {
		return true
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}
