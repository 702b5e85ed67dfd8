// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package models defines the data structures shared by the Folio recommendation
engine, its storage layers and its transport adapters.

Key Components:

  - UserProfile: reading preferences, lazily created on first request
  - ItemVector: per-item feature vectors and derived popularity/quality/recency
  - Interaction: append-only user-item events with a fixed importance weight
  - SimilarityEdge: directed, thresholded item-item similarity
  - TrendEntry: windowed popularity/velocity ranking per item
  - RecommendationSet / Recommendation: one generation call and its ranked rows
  - Feedback: explicit user judgement of a single recommendation
  - Item / HistoryEntry: collaborator views of the catalog and reading history

Invariants:

  - Preferred genres are capped at MaxPreferredGenres and preferred authors at
    MaxPreferredAuthors; merges keep insertion order and skip duplicates.
  - ItemVector.CombinedScore is always 0.3*popularity + 0.4*quality + 0.3*recency.
  - Recommendation positions within a set are 1..N in descending score order.
  - At most one Feedback exists per (user, recommendation).

The package has no dependencies on other internal packages.
*/
package models
