// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import "github.com/tomtom215/folio/internal/recommend"

var (
	_ recommend.Catalog             = (*DB)(nil)
	_ recommend.ReadingHistory      = (*DB)(nil)
	_ recommend.ProfileStore        = (*DB)(nil)
	_ recommend.InteractionLog      = (*DB)(nil)
	_ recommend.VectorStore         = (*DB)(nil)
	_ recommend.SimilarityStore     = (*DB)(nil)
	_ recommend.TrendStore          = (*DB)(nil)
	_ recommend.RecommendationStore = (*DB)(nil)
	_ recommend.FeedbackStore       = (*DB)(nil)
)
