// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package metrics provides Prometheus metrics for the recommendation service.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the API router. Callers use the RecordX helpers
rather than touching the collectors directly.

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Requests rejected by the rate limiter

Recommendation Metrics:
  - recommendations_generated_total: Responses by algorithm and outcome
    (generated, cached, empty, error)
  - recommendation_generation_duration_seconds: Generation latency
  - recommendation_items_per_response: Response sizes
  - recommendation_strategy_failures_total: Failed or timed out strategies
  - recommendation_fallbacks_total: Popularity fallbacks by reason

Feedback Metrics:
  - interactions_recorded_total: Ingested interactions by type
  - recommendation_transitions_total: Impressions, clicks and conversions
  - recommendation_feedback_total: Explicit feedback by type and outcome

Batch Metrics:
  - batch_job_runs_total: Runs by job and outcome (success, error, skipped)
  - batch_job_duration_seconds: Run duration
  - batch_job_records_written_total / batch_job_records_skipped_total
  - batch_job_last_success_timestamp

Infrastructure Metrics:
  - duckdb_query_duration_seconds / duckdb_query_errors_total
  - cache_hits_total / cache_misses_total / cache_invalidated_entries_total
  - circuit_breaker_state / circuit_breaker_state_transitions_total
  - eventbus_events_published_total / eventbus_events_handled_total
  - app_info / app_uptime_seconds

# Usage

	start := time.Now()
	resp, err := engine.Generate(ctx, req)
	metrics.RecordRecommendation(string(resp.Algorithm), "generated", len(resp.Items), time.Since(start))
*/
package metrics
