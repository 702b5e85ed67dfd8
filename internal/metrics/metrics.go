// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Response Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidated_entries_total",
			Help: "Total number of cache entries removed by invalidation",
		},
		[]string{"cache"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_events_published_total",
			Help: "Total number of events offered to the bus by outcome",
		},
		[]string{"event_type", "outcome"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_events_handled_total",
			Help: "Total number of consumed events by outcome",
		},
		[]string{"event_type", "outcome"},
	)

	// Recommendation Metrics
	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_generated_total",
			Help: "Total number of recommendation requests by served algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Time spent generating a recommendation response",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"algorithm"},
	)

	RecommendationItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_items_per_response",
			Help:    "Number of items returned per recommendation response",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		},
	)

	StrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_strategy_failures_total",
			Help: "Total number of scoring strategy failures",
		},
		[]string{"strategy", "reason"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Total number of responses served by the popularity fallback",
		},
		[]string{"reason"},
	)

	// Feedback and Interaction Metrics
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total number of user interactions recorded",
		},
		[]string{"type"},
	)

	RecommendationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_transitions_total",
			Help: "Total number of recommendation lifecycle transitions",
		},
		[]string{"transition", "applied"},
	)

	FeedbackSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_feedback_total",
			Help: "Total number of explicit feedback submissions",
		},
		[]string{"type", "outcome"},
	)

	// Batch Job Metrics
	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_job_runs_total",
			Help: "Total number of batch job runs by outcome",
		},
		[]string{"job", "outcome"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batch_job_duration_seconds",
			Help:    "Duration of batch job runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"job"},
	)

	BatchRecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_job_records_written_total",
			Help: "Total number of records written by batch jobs",
		},
		[]string{"job"},
	)

	BatchRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_job_records_skipped_total",
			Help: "Total number of records skipped by batch jobs because of errors",
		},
		[]string{"job"},
	)

	BatchLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "batch_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run of each batch job",
		},
		[]string{"job"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
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
		DBQueryErrors.WithLabelValues(operation, table).Inc()
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

// RecordRateLimitHit records a rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordCacheResult records a lookup against the named cache.
func RecordCacheResult(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCacheInvalidation records entries removed by an invalidation.
func RecordCacheInvalidation(cache string, removed int) {
	CacheInvalidations.WithLabelValues(cache).Add(float64(removed))
}

// RecordBreakerTransition records a circuit breaker state change. States
// are the lowercase gobreaker state names.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordEventPublished records an event offered to the bus.
func RecordEventPublished(eventType, outcome string) {
	EventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// RecordEventHandled records a consumed event.
func RecordEventHandled(eventType, outcome string) {
	EventsHandled.WithLabelValues(eventType, outcome).Inc()
}

// RecordRecommendation records a served recommendation response.
func RecordRecommendation(algorithm, outcome string, items int, duration time.Duration) {
	RecommendationsGenerated.WithLabelValues(algorithm, outcome).Inc()
	RecommendationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	RecommendationItems.Observe(float64(items))
}

// RecordStrategyFailure records a scoring strategy that failed or timed out.
func RecordStrategyFailure(strategy, reason string) {
	StrategyFailures.WithLabelValues(strategy, reason).Inc()
}

// RecordFallback records a response served by the popularity fallback.
func RecordFallback(reason string) {
	RecommendationFallbacks.WithLabelValues(reason).Inc()
}

// RecordInteraction records an ingested interaction.
func RecordInteraction(interactionType string) {
	InteractionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordTransition records an impression, click or conversion.
func RecordTransition(transition string, applied bool) {
	label := "false"
	if applied {
		label = "true"
	}
	RecommendationTransitions.WithLabelValues(transition, label).Inc()
}

// RecordFeedback records an explicit feedback submission.
func RecordFeedback(feedbackType, outcome string) {
	FeedbackSubmitted.WithLabelValues(feedbackType, outcome).Inc()
}

// RecordBatchRun records the outcome of a batch job run.
func RecordBatchRun(job string, duration time.Duration, written, skipped int, err error) {
	BatchDuration.WithLabelValues(job).Observe(duration.Seconds())
	BatchRecordsWritten.WithLabelValues(job).Add(float64(written))
	BatchRecordsSkipped.WithLabelValues(job).Add(float64(skipped))
	if err != nil {
		BatchRuns.WithLabelValues(job, "error").Inc()
		return
	}
	BatchRuns.WithLabelValues(job, "success").Inc()
	BatchLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
}

// RecordBatchSkippedRun records a scheduled run skipped because the previous
// run of the same job was still in progress.
func RecordBatchSkippedRun(job string) {
	BatchRuns.WithLabelValues(job, "skipped").Inc()
}
