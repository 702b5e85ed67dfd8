// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/recommend"
)

// Job is a unit of offline work run by the scheduler.
type Job interface {
	// Name identifies the job in logs, metrics and run keys.
	Name() string

	// Run executes one pass. Existing data stays untouched when Run fails
	// before its publish step.
	Run(ctx context.Context) (Result, error)
}

// Result summarizes a job run.
type Result struct {
	Job       string        `json:"job"`
	Processed int           `json:"processed"`
	Written   int           `json:"written"`
	Skipped   int           `json:"skipped"`
	Deleted   int           `json:"deleted"`
	Resumed   bool          `json:"resumed"`
	Duration  time.Duration `json:"duration"`
}

// IsPartialFailure reports whether err only signals skipped input.
func IsPartialFailure(err error) bool {
	return errors.Is(err, recommend.ErrBatchJobPartialFailure)
}

// Option configures a job.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the job's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func applyOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// finish stamps the duration and records the run.
func finish(res *Result, start time.Time, err error) {
	res.Duration = time.Since(start)
	if IsPartialFailure(err) {
		err = nil
	}
	metrics.RecordBatchRun(res.Job, res.Duration, res.Written, res.Skipped, err)
}
