// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package algorithms implements the scoring strategies of the recommendation
// engine.
//
// Each strategy implements recommend.Strategy and turns a user, a profile and
// an exclusion set into at most Count ranked candidates with reasons.
//
// # Strategies
//
//   - ContentBased: preferred authors (0.9), then preferred genres (0.7),
//     padded with popular items (0.5). Users without explicit preferences get
//     pseudo-preferences from their recent reading history.
//   - Collaborative: user-based filtering over a capped pool of recently
//     active users. Similar users share at least two rated items and have a
//     Jaccard similarity above a floor over their completed and rated items.
//     Candidates are ranked by the similarity-weighted average rating.
//   - Popularity: items ordered by the precomputed combined score
//     (0.3 popularity + 0.4 quality + 0.3 recency) above a rating bar.
//   - Hybrid: runs the three strategies for 2*Count candidates each, sums
//     weighted contributions, adds a diversity bonus of
//     min(0.1 * contributors, 0.3) and clips to [0, 1].
//
// # Failure Semantics
//
// A strategy returns recommend.ErrInsufficientData when it has nothing to
// work with. The hybrid treats that as an empty contribution, degrades any
// other per-strategy error to an empty contribution as well, and returns
// recommend.ErrScoringFailure only when every part failed.
//
// # Thread Safety
//
// Strategies hold no mutable state and are safe for concurrent use.
package algorithms
