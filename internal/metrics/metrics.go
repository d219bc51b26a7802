// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Model server calls and prediction outcomes
// - Comparable search tiers
// - Transaction log throughput
// - Cache efficiency

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Model Server Metrics
	ModelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_request_duration_seconds",
			Help:    "Duration of model server calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ModelRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_request_errors_total",
			Help: "Total number of failed model server calls",
		},
		[]string{"operation"},
	)

	// PredictionsTotal tracks prediction outcomes.
	// outcome: "estimate", "no_estimate", "rejected", "failed"
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	// Comparable Search Metrics
	SearchTierResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_tier_results",
			Help:    "Number of comparable listings returned per search tier",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10},
		},
		[]string{"tier"}, // "1", "2", "3"
	)

	SearchTierErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_tier_errors_total",
			Help: "Total number of degraded (empty) tiers due to query errors",
		},
		[]string{"tier"},
	)

	// Transaction Log Metrics
	TxLogEntriesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "txlog_entries_written_total",
			Help: "Total number of transaction log entries written",
		},
	)

	TxLogEntriesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txlog_entries_dropped_total",
			Help: "Total number of transaction log entries dropped",
		},
		[]string{"reason"}, // "buffer_full", "write_failed", "empty_entry"
	)

	TxLogWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "txlog_write_duration_seconds",
			Help:    "Duration of transaction log writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "options"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPrediction records a prediction outcome.
// Outcome is "estimate" when the model produced a usable price,
// "no_estimate" when its output could not be interpreted,
// "rejected" when the circuit breaker refused the call,
// "failed" when the model call errored.
func RecordPrediction(outcome string) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
}

// RecordModelRequest records the duration and outcome of one model server call.
func RecordModelRequest(operation string, duration time.Duration, err error) {
	ModelRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		ModelRequestErrors.WithLabelValues(operation).Inc()
	}
}

// RecordSearchTier records the result size of one comparable search tier.
func RecordSearchTier(tier string, results int, err error) {
	if err != nil {
		SearchTierErrors.WithLabelValues(tier).Inc()
		return
	}
	SearchTierResults.WithLabelValues(tier).Observe(float64(results))
}

// RecordTxLogWrite records a transaction log write attempt.
func RecordTxLogWrite(duration time.Duration, err error) {
	TxLogWriteDuration.Observe(duration.Seconds())
	if err != nil {
		TxLogEntriesDropped.WithLabelValues("write_failed").Inc()
	} else {
		TxLogEntriesWritten.Inc()
	}
}

// RecordTxLogDrop records an entry dropped before reaching the store.
func RecordTxLogDrop(reason string) {
	TxLogEntriesDropped.WithLabelValues(reason).Inc()
}

// RecordCacheHit records a cache hit for the given cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}
