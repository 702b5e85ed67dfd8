// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import "time"

// SimilarityEdge is a directed, thresholded similarity between two items.
// The index stores both A→B and B→A for every retained pair.
type SimilarityEdge struct {
	ItemA string `json:"item_a"`
	ItemB string `json:"item_b"`

	ContentScore  float64 `json:"content_score"`
	GenreScore    float64 `json:"genre_score"`
	AuthorScore   float64 `json:"author_score"`
	BehaviorScore float64 `json:"behavior_score"`

	// Overall is the cosine similarity over the full padded feature vector.
	Overall float64 `json:"overall"`

	AlgorithmVersion string    `json:"algorithm_version"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Reverse returns the edge pointing the other way with identical scores.
func (e SimilarityEdge) Reverse() SimilarityEdge {
	e.ItemA, e.ItemB = e.ItemB, e.ItemA
	return e
}
