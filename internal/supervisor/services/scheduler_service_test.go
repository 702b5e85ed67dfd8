// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/batch"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/recommend"
)

// fakeJob fails its first failures runs with err, then succeeds. A non-nil
// block channel holds every run until it is closed.
type fakeJob struct {
	name     string
	failures int32
	err      error
	block    chan struct{}
	entered  chan struct{}
	runs     atomic.Int32
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(ctx context.Context) (batch.Result, error) {
	n := j.runs.Add(1)
	if j.entered != nil {
		select {
		case j.entered <- struct{}{}:
		default:
		}
	}
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return batch.Result{Job: j.name}, ctx.Err()
		}
	}
	if n <= j.failures {
		return batch.Result{Job: j.name}, j.err
	}
	return batch.Result{Job: j.name, Written: 1}, nil
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:         true,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		Multiplier:      2,
		JobTimeout:      time.Second,
	}
}

func newTestScheduler(t *testing.T, cfg config.SchedulerConfig, jobs ...ScheduledJob) *SchedulerService {
	t.Helper()
	s, err := NewSchedulerService(cfg, zerolog.Nop(), jobs...)
	if err != nil {
		t.Fatalf("NewSchedulerService() error = %v", err)
	}
	return s
}

func TestNewSchedulerServiceRejectsBadSpec(t *testing.T) {
	t.Parallel()
	_, err := NewSchedulerService(testSchedulerConfig(), zerolog.Nop(),
		ScheduledJob{Spec: "every tuesday", Job: &fakeJob{name: "bad"}})
	if err == nil {
		t.Fatal("NewSchedulerService() error = nil, want invalid schedule")
	}
}

func TestSchedulerRunNow(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	tests := []struct {
		name     string
		job      *fakeJob
		wantErr  error
		wantRuns int32
	}{
		{"succeeds first try", &fakeJob{}, nil, 1},
		{"retries transient failures", &fakeJob{failures: 2, err: boom}, nil, 3},
		{"gives up after max retries", &fakeJob{failures: 10, err: boom}, boom, 4},
		{"partial failure counts as success", &fakeJob{failures: 1, err: fmt.Errorf("2 pairs: %w", recommend.ErrBatchJobPartialFailure)}, nil, 1},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.job.name = fmt.Sprintf("runnow-%d", i)
			s := newTestScheduler(t, testSchedulerConfig(), ScheduledJob{Spec: "@daily", Job: tt.job})

			_, err := s.RunNow(context.Background(), tt.job.name)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RunNow() error = %v, want %v", err, tt.wantErr)
			}
			if got := tt.job.runs.Load(); got != tt.wantRuns {
				t.Errorf("runs = %d, want %d", got, tt.wantRuns)
			}
		})
	}
}

func TestSchedulerRunNowUnknownJob(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, testSchedulerConfig())
	if _, err := s.RunNow(context.Background(), "nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("RunNow() error = %v, want ErrUnknownJob", err)
	}
}

func TestSchedulerSkipsOverlappingRun(t *testing.T) {
	t.Parallel()
	job := &fakeJob{name: "overlap", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := newTestScheduler(t, testSchedulerConfig(), ScheduledJob{Spec: "@daily", Job: job})
	skipped := metrics.BatchRuns.WithLabelValues("overlap", "skipped")
	before := testutil.ToFloat64(skipped)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background(), "overlap")
		done <- err
	}()
	<-job.entered

	if _, err := s.RunNow(context.Background(), "overlap"); !errors.Is(err, ErrJobRunning) {
		t.Errorf("overlapping RunNow() error = %v, want ErrJobRunning", err)
	}
	if got := testutil.ToFloat64(skipped) - before; got != 1 {
		t.Errorf("skipped runs = %v, want 1", got)
	}

	close(job.block)
	if err := <-done; err != nil {
		t.Errorf("first RunNow() error = %v", err)
	}
}

func TestSchedulerCancelStopsRetries(t *testing.T) {
	t.Parallel()
	cfg := testSchedulerConfig()
	cfg.InitialInterval = time.Hour
	job := &fakeJob{name: "cancel", failures: 10, err: errors.New("boom")}
	s := newTestScheduler(t, cfg, ScheduledJob{Spec: "@daily", Job: job})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.RunNow(ctx, "cancel"); err == nil {
		t.Fatal("RunNow() error = nil, want failure")
	}
	if got := job.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 before the hour-long backoff", got)
	}
}

func TestSchedulerServeFiresJobs(t *testing.T) {
	t.Parallel()
	job := &fakeJob{name: "serve", entered: make(chan struct{}, 1)}
	s := newTestScheduler(t, testSchedulerConfig(), ScheduledJob{Spec: "@every 1s", Job: job})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx) }()

	select {
	case <-job.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
