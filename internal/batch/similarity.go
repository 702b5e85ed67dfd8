// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// SimilarityJobName names the similarity job.
const SimilarityJobName = "similarity"

// SimilarityConfig configures the similarity index job.
type SimilarityConfig struct {
	// Threshold is the minimum overall similarity of a stored edge.
	Threshold float64 `koanf:"threshold"`

	// Retention is how long an edge survives without being recomputed.
	Retention time.Duration `koanf:"retention"`

	// CheckpointEvery is how many outer iterations run between checkpoints.
	CheckpointEvery int `koanf:"checkpoint_every"`

	AlgorithmVersion string `koanf:"algorithm_version"`
}

// DefaultSimilarityConfig returns production defaults.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		Threshold:        0.1,
		Retention:        7 * 24 * time.Hour,
		CheckpointEvery:  1,
		AlgorithmVersion: "1.0.0",
	}
}

// SimilarityJob rebuilds the item similarity index.
type SimilarityJob struct {
	vectors     recommend.VectorStore
	edges       recommend.SimilarityStore
	checkpoints CheckpointStore
	cfg         SimilarityConfig
	logger      zerolog.Logger
	now         func() time.Time
}

var _ Job = (*SimilarityJob)(nil)

// NewSimilarityJob creates the job. A nil checkpoint store keeps checkpoints
// in memory.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSimilarityJob(vectors recommend.VectorStore, edges recommend.SimilarityStore, checkpoints CheckpointStore, cfg SimilarityConfig, logger zerolog.Logger, opts ...Option) *SimilarityJob {
	def := DefaultSimilarityConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = def.CheckpointEvery
	}
	if cfg.AlgorithmVersion == "" {
		cfg.AlgorithmVersion = def.AlgorithmVersion
	}
	if checkpoints == nil {
		checkpoints = NewMemoryCheckpointStore()
	}
	o := applyOptions(opts)
	return &SimilarityJob{
		vectors:     vectors,
		edges:       edges,
		checkpoints: checkpoints,
		cfg:         cfg,
		logger:      logger.With().Str("job", SimilarityJobName).Logger(),
		now:         o.now,
	}
}

// Name implements Job.
func (j *SimilarityJob) Name() string { return SimilarityJobName }

// RunKey identifies a run: the job, the UTC day and a fingerprint of the
// item set. A retry on the same day over the same items resumes.
func RunKey(job string, day time.Time, itemIDs []string) string {
	return cache.Key(job, day.UTC().Format("2006-01-02"), cache.Hash(itemIDs))
}

// Run implements Job.
func (j *SimilarityJob) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	res.Job = SimilarityJobName
	defer func() { finish(&res, start, err) }()

	now := j.now()
	vectors, err := j.vectors.ListVectors(ctx)
	if err != nil {
		return res, fmt.Errorf("list vectors: %w", err)
	}

	// Arena: index i addresses ids[i] and vectors[i].
	sort.Slice(vectors, func(a, b int) bool { return vectors[a].ItemID < vectors[b].ItemID })
	n := len(vectors)
	ids := make([]string, n)
	valid := make([]bool, n)
	for i := range vectors {
		ids[i] = vectors[i].ItemID
		valid[i] = vectors[i].Valid()
		if !valid[i] {
			j.logger.Warn().
				Err(recommend.ErrBatchJobPartialFailure).
				Str("item_id", ids[i]).
				Msg("skipping malformed item vector")
		}
	}

	runKey := RunKey(SimilarityJobName, now, ids)
	logger := j.logger.With().Str("run_key", runKey).Int("items", n).Logger()

	cp, err := j.checkpoints.Load(ctx, runKey)
	if err != nil {
		return res, err
	}
	startAt, skipped := 0, 0
	var done []models.SimilarityEdge
	if cp != nil {
		startAt, skipped, done = cp.Next, cp.Skipped, cp.Edges
		res.Resumed = true
		logger.Info().Int("next", startAt).Int("staged_edges", len(done)).Msg("resuming similarity run")
	}

	var staged []models.SimilarityEdge
	steps := 0
	for i := startAt; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for k := i + 1; k < n; k++ {
			if !valid[i] || !valid[k] {
				skipped++
				continue
			}
			edge := edgeBetween(&vectors[i], &vectors[k])
			if math.IsNaN(edge.Overall) {
				skipped++
				continue
			}
			if edge.Overall < j.cfg.Threshold {
				continue
			}
			edge.AlgorithmVersion = j.cfg.AlgorithmVersion
			edge.ComputedAt = now
			staged = append(staged, edge, edge.Reverse())
		}
		res.Processed++

		steps++
		if steps%j.cfg.CheckpointEvery == 0 || i == n-1 {
			if err := j.checkpoints.Save(ctx, runKey, i+1, skipped, staged); err != nil {
				return res, fmt.Errorf("checkpoint at %d: %w", i+1, err)
			}
			done = append(done, staged...)
			staged = nil
		}
	}
	done = append(done, staged...)

	if err := j.edges.UpsertEdges(ctx, done); err != nil {
		return res, fmt.Errorf("publish edges: %w", err)
	}
	res.Written = len(done)
	res.Skipped = skipped

	pruned, err := j.edges.PruneEdges(ctx, now.Add(-j.cfg.Retention))
	if err != nil {
		return res, fmt.Errorf("prune edges: %w", err)
	}
	res.Deleted = pruned

	if err := j.checkpoints.Clear(ctx, runKey); err != nil {
		logger.Warn().Err(err).Msg("failed to clear checkpoint")
	}
	if m, ok := j.checkpoints.(checkpointMaintainer); ok {
		j.dropAbandonedRuns(ctx, m, runKey, logger)
	}

	logger.Info().
		Int("edges", res.Written).
		Int("pruned", pruned).
		Int("skipped_pairs", skipped).
		Bool("resumed", res.Resumed).
		Msg("similarity index rebuilt")

	if skipped > 0 {
		return res, fmt.Errorf("similarity: %d pairs skipped: %w", skipped, recommend.ErrBatchJobPartialFailure)
	}
	return res, nil
}

// checkpointMaintainer is implemented by checkpoint stores that outlive the
// process and so accumulate runs that never finished.
type checkpointMaintainer interface {
	RunKeys() ([]string, error)
	RunGC() error
}

// dropAbandonedRuns clears similarity checkpoints left by earlier runs that
// never completed, such as a crashed run over yesterday's item set, and then
// reclaims their disk space. Failures only cost disk until the TTL expires.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (j *SimilarityJob) dropAbandonedRuns(ctx context.Context, m checkpointMaintainer, current string, logger zerolog.Logger) {
	keys, err := m.RunKeys()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list checkpoints")
		return
	}
	dropped := 0
	for _, key := range keys {
		if key == current || !strings.HasPrefix(key, SimilarityJobName+":") {
			continue
		}
		if err := j.checkpoints.Clear(ctx, key); err != nil {
			logger.Warn().Err(err).Str("abandoned_run", key).Msg("failed to clear abandoned checkpoint")
			continue
		}
		dropped++
	}
	if dropped > 0 {
		logger.Info().Int("runs", dropped).Msg("cleared abandoned checkpoints")
	}
	if err := m.RunGC(); err != nil {
		logger.Warn().Err(err).Msg("checkpoint value log GC failed")
	}
}
