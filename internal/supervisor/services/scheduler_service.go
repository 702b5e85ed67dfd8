// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/batch"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/metrics"
)

var (
	// ErrJobRunning is returned when a run is requested while the previous
	// run of the same job is still in progress.
	ErrJobRunning = errors.New("job already running")

	// ErrUnknownJob is returned by RunNow for an unregistered job name.
	ErrUnknownJob = errors.New("unknown job")
)

// stopWait bounds how long Serve waits for in-flight runs after cancel.
const stopWait = 30 * time.Second

// ScheduledJob pairs a batch job with its cron spec.
type ScheduledJob struct {
	Spec string
	Job  batch.Job
}

type scheduledEntry struct {
	schedule cron.Schedule
	job      batch.Job

	// running admits one run per job at a time.
	running sync.Mutex
}

// SchedulerService triggers batch jobs on cron schedules. A failed run is
// retried with exponential backoff; a run that finds the previous one still
// going is skipped.
type SchedulerService struct {
	cfg    config.SchedulerConfig
	jobs   []*scheduledEntry
	logger zerolog.Logger
}

// NewSchedulerService parses every schedule up front so a bad spec fails
// startup instead of silently never firing.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSchedulerService(cfg config.SchedulerConfig, logger zerolog.Logger, jobs ...ScheduledJob) (*SchedulerService, error) {
	s := &SchedulerService{
		cfg:    cfg,
		logger: logger.With().Str("service", "scheduler").Logger(),
	}
	for _, j := range jobs {
		sched, err := cron.ParseStandard(j.Spec)
		if err != nil {
			return nil, fmt.Errorf("job %s: invalid schedule %q: %w", j.Job.Name(), j.Spec, err)
		}
		s.jobs = append(s.jobs, &scheduledEntry{schedule: sched, job: j.Job})
	}
	return s, nil
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	clog := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog)),
	)
	for _, e := range s.jobs {
		c.Schedule(e.schedule, cron.FuncJob(func() {
			_, _ = s.run(ctx, e)
		}))
	}

	c.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")

	<-ctx.Done()
	select {
	case <-c.Stop().Done():
	case <-time.After(stopWait):
		s.logger.Warn().Msg("Batch jobs still running at shutdown")
	}
	s.logger.Info().Msg("Scheduler stopped")
	return ctx.Err()
}

// RunNow runs the named job immediately under the same locking and retry
// policy as a scheduled run.
func (s *SchedulerService) RunNow(ctx context.Context, name string) (batch.Result, error) {
	for _, e := range s.jobs {
		if e.job.Name() == name {
			return s.run(ctx, e)
		}
	}
	return batch.Result{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

func (s *SchedulerService) run(ctx context.Context, e *scheduledEntry) (batch.Result, error) {
	name := e.job.Name()
	logger := s.logger.With().Str("job", name).Logger()

	if !e.running.TryLock() {
		metrics.RecordBatchSkippedRun(name)
		logger.Warn().Msg("Previous run still in progress, skipping")
		return batch.Result{Job: name}, ErrJobRunning
	}
	defer e.running.Unlock()

	var (
		res     batch.Result
		attempt int
	)
	op := func() error {
		attempt++
		runCtx, cancel := s.jobContext(ctx)
		defer cancel()

		r, err := e.job.Run(runCtx)
		res = r
		switch {
		case err == nil:
			return nil
		case batch.IsPartialFailure(err):
			logger.Warn().Err(err).Int("skipped", r.Skipped).Msg("Batch job completed with skipped input")
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("Batch job failed, retrying")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(s.policy(), uint64(max(s.cfg.MaxRetries, 0))), ctx), notify) //nolint:gosec // clamped non-negative
	if err != nil {
		logger.Error().Err(err).Int("attempts", attempt).Msg("Batch job failed")
		return res, fmt.Errorf("job %s: %w", name, err)
	}

	logger.Info().
		Int("processed", res.Processed).
		Int("written", res.Written).
		Int("deleted", res.Deleted).
		Bool("resumed", res.Resumed).
		Dur("duration", res.Duration).
		Int("attempts", attempt).
		Msg("Batch job completed")
	return res, nil
}

func (s *SchedulerService) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.JobTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.JobTimeout)
}

func (s *SchedulerService) policy() *backoff.ExponentialBackOff {
	p := backoff.NewExponentialBackOff()
	if s.cfg.InitialInterval > 0 {
		p.InitialInterval = s.cfg.InitialInterval
	}
	if s.cfg.Multiplier >= 1 {
		p.Multiplier = s.cfg.Multiplier
	}
	p.MaxInterval = max(p.MaxInterval, p.InitialInterval*8)
	// The retry count bounds the run, not wall time.
	p.MaxElapsedTime = 0
	p.Reset()
	return p
}

// String implements fmt.Stringer for suture's logs.
func (s *SchedulerService) String() string {
	return "batch-scheduler"
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
