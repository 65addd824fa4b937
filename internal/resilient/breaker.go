// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package resilient

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/metrics"
)

// BreakerConfig controls the per-provider circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open.
	FailureThreshold uint32 `json:"failure_threshold" koanf:"failure_threshold"`

	// RecoveryTimeout is how long the breaker stays open before allowing
	// half-open probes.
	RecoveryTimeout time.Duration `json:"recovery_timeout" koanf:"recovery_timeout"`
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// halfOpenSuccesses is the number of consecutive half-open successes
// required to close the breaker. gobreaker ties the half-open probe bound
// to this value, so at most this many probes run concurrently.
const halfOpenSuccesses = 3

// Breaker wraps sony/gobreaker with transition logging, Prometheus state
// metrics, and the client error taxonomy. State transitions only ever run
// closed -> open -> half-open -> {closed | open}.
//
// DETERMINISM NOTE: the breaker uses real time for its recovery timeout.
// Tests that exercise transitions use short timeouts and sleep past them.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[*Response]
	name string

	mu            sync.Mutex
	nextAttemptAt time.Time
}

// BreakerSnapshot is a point-in-time view of breaker state for
// diagnostics and tests.
type BreakerSnapshot struct {
	State         string    `json:"state"`
	FailureCount  uint32    `json:"failure_count"`
	SuccessCount  uint32    `json:"success_count"`
	NextAttemptAt time.Time `json:"next_attempt_at,omitempty"`
}

// NewBreaker creates a circuit breaker for one provider client.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultBreakerConfig().RecoveryTimeout
	}

	b := &Breaker{name: name}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenSuccesses,
		Timeout:     cfg.RecoveryTimeout,

		// Trip after FailureThreshold consecutive failures
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= cfg.FailureThreshold
			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			b.mu.Lock()
			switch to {
			case gobreaker.StateOpen:
				b.nextAttemptAt = time.Now().Add(cfg.RecoveryTimeout)
			case gobreaker.StateClosed:
				b.nextAttemptAt = time.Time{}
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
			b.mu.Unlock()
		},
	})

	return b
}

// Execute runs fn under breaker protection. When the breaker is open (or
// half-open probes are saturated) it fails immediately with ErrCircuitOpen
// and fn is never invoked.
func (b *Breaker) Execute(fn func() (*Response, error)) (*Response, error) {
	resp, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, ErrCircuitOpen
		}

		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return resp, nil
}

// Snapshot returns the current breaker state.
func (b *Breaker) Snapshot() BreakerSnapshot {
	counts := b.cb.Counts()

	b.mu.Lock()
	next := b.nextAttemptAt
	b.mu.Unlock()

	return BreakerSnapshot{
		State:         stateToString(b.cb.State()),
		FailureCount:  counts.ConsecutiveFailures,
		SuccessCount:  counts.ConsecutiveSuccesses,
		NextAttemptAt: next,
	}
}

// stateToFloat converts circuit breaker state to a numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
