// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Provider client calls (latency, outcome, resilience rejections)
// - Circuit breaker state machine
// - Client response cache efficiency
// - Reconciliation throughput
// - Recommendation latency and signal failures
// - API endpoint latency and throughput

var (
	// Provider Client Metrics
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total provider calls by outcome (after resilience pipeline)",
		},
		[]string{"provider", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of provider calls in seconds, retries included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_rate_limit_rejections_total",
			Help: "Calls rejected locally by the token bucket rate limiter",
		},
		[]string{"provider"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"breaker", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current consecutive failure count per breaker",
		},
		[]string{"breaker"},
	)

	// Client Response Cache Metrics
	ClientCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_cache_hits_total",
			Help: "Provider response cache hits",
		},
		[]string{"provider"},
	)

	ClientCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_cache_misses_total",
			Help: "Provider response cache misses",
		},
		[]string{"provider"},
	)

	// Reconciliation Metrics
	ReconcileRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_records_total",
			Help: "Raw provider records processed by outcome",
		},
		[]string{"outcome"}, // "merged", "created", "skipped"
	)

	ReconcileBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_batch_duration_seconds",
			Help:    "Duration of reconciliation batches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationSignalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_signal_failures_total",
			Help: "Component signal failures by signal and disposition",
		},
		[]string{"signal", "disposition"}, // "fallback", "skipped"
	)

	// Sync Metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Provider sync runs by outcome",
		},
		[]string{"outcome"}, // "success", "partial", "failure"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)
)
