// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/recommend"
)

// VectorRefreshJobName names the vector refresh job.
const VectorRefreshJobName = "vector_refresh"

// VectorRefreshConfig configures derived score computation.
type VectorRefreshConfig struct {
	// RecencyHalfLife is the publication age at which recency halves.
	RecencyHalfLife time.Duration `koanf:"recency_half_life"`

	// QualityPrior damps the quality of items with few ratings:
	// quality = avg/5 * n/(n+prior).
	QualityPrior float64 `koanf:"quality_prior"`
}

// DefaultVectorRefreshConfig returns production defaults.
func DefaultVectorRefreshConfig() VectorRefreshConfig {
	return VectorRefreshConfig{
		RecencyHalfLife: 180 * 24 * time.Hour,
		QualityPrior:    5,
	}
}

// VectorRefreshJob recomputes popularity, quality and recency of every
// item vector from its counters and the catalog.
type VectorRefreshJob struct {
	vectors recommend.VectorStore
	catalog recommend.Catalog
	cfg     VectorRefreshConfig
	logger  zerolog.Logger
	now     func() time.Time
}

var _ Job = (*VectorRefreshJob)(nil)

// NewVectorRefreshJob creates the job.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewVectorRefreshJob(vectors recommend.VectorStore, catalog recommend.Catalog, cfg VectorRefreshConfig, logger zerolog.Logger, opts ...Option) *VectorRefreshJob {
	def := DefaultVectorRefreshConfig()
	if cfg.RecencyHalfLife <= 0 {
		cfg.RecencyHalfLife = def.RecencyHalfLife
	}
	if cfg.QualityPrior <= 0 {
		cfg.QualityPrior = def.QualityPrior
	}
	o := applyOptions(opts)
	return &VectorRefreshJob{
		vectors: vectors,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.With().Str("job", VectorRefreshJobName).Logger(),
		now:     o.now,
	}
}

// Name implements Job.
func (j *VectorRefreshJob) Name() string { return VectorRefreshJobName }

// Run implements Job. All scores are written in one atomic update.
func (j *VectorRefreshJob) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	res.Job = VectorRefreshJobName
	defer func() { finish(&res, start, err) }()

	now := j.now()
	vectors, err := j.vectors.ListVectors(ctx)
	if err != nil {
		return res, fmt.Errorf("list vectors: %w", err)
	}
	res.Processed = len(vectors)
	if len(vectors) == 0 {
		return res, nil
	}

	ids := make([]string, len(vectors))
	var maxActivity float64
	for i := range vectors {
		ids[i] = vectors[i].ItemID
		maxActivity = math.Max(maxActivity, activity(vectors[i].ViewCount, vectors[i].DownloadCount))
	}
	items, err := j.catalog.GetItems(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("load items: %w", err)
	}

	out := vectors[:0]
	for i := range vectors {
		v := vectors[i]
		if math.IsNaN(v.RatingAverage) || v.RatingCount < 0 || v.ViewCount < 0 || v.DownloadCount < 0 {
			res.Skipped++
			j.logger.Warn().Err(recommend.ErrBatchJobPartialFailure).Str("item_id", v.ItemID).Msg("skipping malformed counters")
			continue
		}

		if maxActivity > 0 {
			v.PopularityScore = activity(v.ViewCount, v.DownloadCount) / maxActivity
		} else {
			v.PopularityScore = 0
		}

		n := float64(v.RatingCount)
		if n > 0 {
			v.QualityScore = clamp01(v.RatingAverage / 5 * n / (n + j.cfg.QualityPrior))
		} else {
			v.QualityScore = 0
		}

		if item, ok := items[v.ItemID]; ok && !item.PublicationDate.IsZero() {
			v.RecencyScore = j.recency(now.Sub(item.PublicationDate))
		}
		v.PopularityScore = clamp01(v.PopularityScore)
		v.RecencyScore = clamp01(v.RecencyScore)
		v.UpdatedAt = now
		out = append(out, v)
	}

	if err := j.vectors.UpdateDerivedScores(ctx, out); err != nil {
		return res, fmt.Errorf("write derived scores: %w", err)
	}
	res.Written = len(out)

	j.logger.Info().Int("vectors", res.Written).Int("skipped", res.Skipped).Msg("vector scores refreshed")
	if res.Skipped > 0 {
		return res, fmt.Errorf("vector refresh: %d vectors skipped: %w", res.Skipped, recommend.ErrBatchJobPartialFailure)
	}
	return res, nil
}

// activity weighs downloads above views, matching the raw popularity weights.
func activity(views, downloads int64) float64 {
	return 0.3*float64(views) + 0.4*float64(downloads)
}

// recency decays exponentially with age; future dates count as brand new.
func (j *VectorRefreshJob) recency(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	return math.Exp2(-float64(age) / float64(j.cfg.RecencyHalfLife))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
