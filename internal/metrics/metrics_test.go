// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "test_errors"))

	RecordDBQuery("SELECT", "test_errors", 10*time.Millisecond, nil)
	RecordDBQuery("SELECT", "test_errors", 10*time.Millisecond, errors.New("connection refused"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "test_errors"))
	if after-before != 1 {
		t.Errorf("DBQueryErrors increased by %v, want 1", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		method   string
		endpoint string
		status   string
	}{
		{"GET", "/api/v1/recommendations/{userID}", "200"},
		{"POST", "/api/v1/interactions", "202"},
		{"POST", "/api/v1/feedback", "409"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.endpoint, func(t *testing.T) {
			c := APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.status)
			before := testutil.ToFloat64(c)
			RecordAPIRequest(tt.method, tt.endpoint, tt.status, 5*time.Millisecond)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("APIRequestsTotal increased by %v, want 1", got)
			}
		})
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("APIActiveRequests delta = %v, want 1", got)
	}
	TrackActiveRequest(false)
}

func TestRecordCacheResult(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("test_cache"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("test_cache"))

	RecordCacheResult("test_cache", true)
	RecordCacheResult("test_cache", false)
	RecordCacheResult("test_cache", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_cache")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test_cache")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}

	RecordCacheInvalidation("test_cache", 3)
	if got := testutil.ToFloat64(CacheInvalidations.WithLabelValues("test_cache")); got < 3 {
		t.Errorf("invalidations = %v, want >= 3", got)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	tests := []struct {
		to   string
		want float64
	}{
		{"open", 2},
		{"half-open", 1},
		{"closed", 0},
	}

	for _, tt := range tests {
		RecordBreakerTransition("test-breaker", "closed", tt.to)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != tt.want {
			t.Errorf("state after transition to %s = %v, want %v", tt.to, got, tt.want)
		}
	}
}

func TestRecordEvents(t *testing.T) {
	pub := EventsPublished.WithLabelValues("test_event", "ok")
	handled := EventsHandled.WithLabelValues("test_event", "malformed")
	p0, h0 := testutil.ToFloat64(pub), testutil.ToFloat64(handled)

	RecordEventPublished("test_event", "ok")
	RecordEventHandled("test_event", "malformed")

	if testutil.ToFloat64(pub)-p0 != 1 || testutil.ToFloat64(handled)-h0 != 1 {
		t.Error("event counters not incremented")
	}
}

func TestRecordRecommendation(t *testing.T) {
	c := RecommendationsGenerated.WithLabelValues("test_algo", "generated")
	before := testutil.ToFloat64(c)

	RecordRecommendation("test_algo", "generated", 10, 40*time.Millisecond)
	RecordStrategyFailure("test_algo", "timeout")
	RecordFallback("test_reason")

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("RecommendationsGenerated delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StrategyFailures.WithLabelValues("test_algo", "timeout")); got < 1 {
		t.Errorf("StrategyFailures = %v, want >= 1", got)
	}
	if got := testutil.ToFloat64(RecommendationFallbacks.WithLabelValues("test_reason")); got < 1 {
		t.Errorf("RecommendationFallbacks = %v, want >= 1", got)
	}
}

func TestRecordTransitionAndFeedback(t *testing.T) {
	applied := RecommendationTransitions.WithLabelValues("test_click", "true")
	repeated := RecommendationTransitions.WithLabelValues("test_click", "false")
	a0, r0 := testutil.ToFloat64(applied), testutil.ToFloat64(repeated)

	RecordTransition("test_click", true)
	RecordTransition("test_click", false)
	RecordFeedback("like", "test_outcome")
	RecordInteraction("test_view")

	if testutil.ToFloat64(applied)-a0 != 1 || testutil.ToFloat64(repeated)-r0 != 1 {
		t.Error("transition counters not split by applied label")
	}
	if got := testutil.ToFloat64(FeedbackSubmitted.WithLabelValues("like", "test_outcome")); got < 1 {
		t.Errorf("FeedbackSubmitted = %v, want >= 1", got)
	}
	if got := testutil.ToFloat64(InteractionsRecorded.WithLabelValues("test_view")); got < 1 {
		t.Errorf("InteractionsRecorded = %v, want >= 1", got)
	}
}

func TestRecordBatchRun(t *testing.T) {
	ok := BatchRuns.WithLabelValues("test_job", "success")
	failed := BatchRuns.WithLabelValues("test_job", "error")
	skipped := BatchRuns.WithLabelValues("test_job", "skipped")
	ok0, f0, s0 := testutil.ToFloat64(ok), testutil.ToFloat64(failed), testutil.ToFloat64(skipped)

	RecordBatchRun("test_job", time.Second, 10, 2, nil)
	RecordBatchRun("test_job", time.Second, 0, 0, errors.New("boom"))
	RecordBatchSkippedRun("test_job")

	if testutil.ToFloat64(ok)-ok0 != 1 {
		t.Error("success run not recorded")
	}
	if testutil.ToFloat64(failed)-f0 != 1 {
		t.Error("failed run not recorded")
	}
	if testutil.ToFloat64(skipped)-s0 != 1 {
		t.Error("skipped run not recorded")
	}
	if testutil.ToFloat64(BatchLastSuccess.WithLabelValues("test_job")) == 0 {
		t.Error("last success timestamp not set")
	}
	if got := testutil.ToFloat64(BatchRecordsSkipped.WithLabelValues("test_job")); got < 2 {
		t.Errorf("skipped records = %v, want >= 2", got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordCacheResult("concurrent", true)
			RecordEventPublished("concurrent", "ok")
			RecordRecommendation("concurrent", "generated", 5, time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("concurrent")); got != 50 {
		t.Errorf("concurrent hits = %v, want 50", got)
	}
}
