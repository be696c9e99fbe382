// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package metrics provides Prometheus metrics collection for the gateway.
//
// Exposed at /metrics in Prometheus text format. Collectors cover HTTP
// request throughput and latency, edge-cache effectiveness, token
// introspection outcomes, upstream circuit breaker state, and blob store
// operations.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP endpoint metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Edge cache metrics
	EdgeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_cache_hits_total",
			Help: "Total number of edge cache hits",
		},
		[]string{"outcome"}, // "fresh" (200 from cache) or "revalidated" (304)
	)

	EdgeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edge_cache_misses_total",
			Help: "Total number of edge cache misses",
		},
	)

	EdgeCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edge_cache_entries",
			Help: "Current number of cached responses",
		},
	)

	// Token introspection metrics
	IntrospectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "introspection_requests_total",
			Help: "Total number of identity provider introspection calls",
		},
		[]string{"result"}, // "verified", "unverified", "error"
	)

	IntrospectionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "introspection_cache_hits_total",
			Help: "Total number of token verifications served from the memo cache",
		},
	)

	// Upstream circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Content store metrics
	StoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Content store query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	StoreRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_request_errors_total",
			Help: "Total number of failed content store queries",
		},
		[]string{"resource", "error_type"},
	)

	// Blob store metrics
	BlobOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_operations_total",
			Help: "Total number of blob store operations",
		},
		[]string{"operation", "status"}, // operation: put/get, status: success/not_found/error
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Total bytes accepted through the upload endpoint",
		},
	)
)

// RecordAPIRequest records metrics for a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreRequest records a content store query with its outcome.
func RecordStoreRequest(resource string, duration time.Duration, err error) {
	StoreRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
	if err != nil {
		StoreRequestErrors.WithLabelValues(resource, "upstream").Inc()
	}
}
