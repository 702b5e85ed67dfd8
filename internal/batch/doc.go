// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package batch contains the offline jobs that maintain the derived data the
recommendation engine reads: the item similarity index, trend rankings,
item vector scores and recommendation set retention.

# Jobs

  - SimilarityJob: pairwise cosine similarity over every item vector. The
    O(n^2) pass walks a sorted item-id arena, stages edges per outer
    iteration in a CheckpointStore and publishes all edges in one atomic
    upsert, then prunes edges older than the retention window. A retried
    run with the same run key resumes after the last checkpoint.
  - TrendJob: windowed activity and velocity scores for every
    (period, trend type) pair, computed concurrently and applied as an
    atomic replacement of the active ranking.
  - VectorRefreshJob: recomputes popularity, quality and recency.
  - RetentionJob: deletes expired recommendation sets.

Every job implements Job and reports a Result. A run that had to skip
malformed input still completes and returns an error wrapping
recommend.ErrBatchJobPartialFailure, which schedulers treat as success.

# Checkpoints

MemoryCheckpointStore keeps checkpoints for the life of the process.
BadgerCheckpointStore persists them so a run interrupted by a crash
resumes after restart:

	db, err := batch.OpenBadgerCheckpoints(batch.BadgerConfig{Path: "/data/checkpoints"})
	if err != nil {
		return err
	}
	defer db.Close()

	job := batch.NewSimilarityJob(store, store, db, batch.DefaultSimilarityConfig(), logger)
	res, err := job.Run(ctx)
*/
package batch
