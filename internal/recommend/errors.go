// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import "errors"

// Error conditions of the recommendation core. Callers match them with errors.Is.
var (
	// ErrProfileDisabled marks a user who turned recommendations off. Generate
	// does not return it; it answers with an empty, reasoned response instead.
	ErrProfileDisabled = errors.New("recommendations disabled")

	// ErrInsufficientData means a strategy had nothing to work with. It triggers
	// a fallback to a simpler strategy and is never returned by Generate.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrScoringFailure wraps a strategy failure. Generate returns it only when
	// every strategy involved in the request failed.
	ErrScoringFailure = errors.New("scoring failure")

	// ErrDuplicateFeedback rejects a second feedback for the same
	// (user, recommendation) pair.
	ErrDuplicateFeedback = errors.New("duplicate feedback")

	// ErrStaleCacheRace describes a force refresh racing a concurrent cache
	// write. It is resolved last-writer-wins and only ever logged.
	ErrStaleCacheRace = errors.New("stale cache race")

	// ErrBatchJobPartialFailure marks pairs or items a batch job skipped.
	ErrBatchJobPartialFailure = errors.New("batch job partial failure")

	// ErrInvalidRequest rejects malformed input such as an out-of-range count.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownAlgorithm rejects an algorithm name outside the known set.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrNotFound is returned by stores and collaborators for missing rows.
	ErrNotFound = errors.New("not found")
)
