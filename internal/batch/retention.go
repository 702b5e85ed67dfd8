// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/recommend"
)

// RetentionJobName names the retention job.
const RetentionJobName = "retention"

// DefaultSetRetention is how long recommendation sets are kept.
const DefaultSetRetention = 90 * 24 * time.Hour

// RetentionJob deletes old recommendation sets with their rows.
type RetentionJob struct {
	recs   recommend.RecommendationStore
	maxAge time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

var _ Job = (*RetentionJob)(nil)

// NewRetentionJob creates the job. A non-positive maxAge uses DefaultSetRetention.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetentionJob(recs recommend.RecommendationStore, maxAge time.Duration, logger zerolog.Logger, opts ...Option) *RetentionJob {
	if maxAge <= 0 {
		maxAge = DefaultSetRetention
	}
	o := applyOptions(opts)
	return &RetentionJob{
		recs:   recs,
		maxAge: maxAge,
		logger: logger.With().Str("job", RetentionJobName).Logger(),
		now:    o.now,
	}
}

// Name implements Job.
func (j *RetentionJob) Name() string { return RetentionJobName }

// Run implements Job.
func (j *RetentionJob) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	res.Job = RetentionJobName
	defer func() { finish(&res, start, err) }()

	cutoff := j.now().Add(-j.maxAge)
	deleted, err := j.recs.DeleteSetsBefore(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("delete sets before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	res.Deleted = deleted
	j.logger.Info().Int("deleted", deleted).Time("cutoff", cutoff).Msg("expired recommendation sets removed")
	return res, nil
}
