// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"math"
	"time"
)

// Weights of the derived scalars in ItemVector.CombinedScore.
const (
	CombinedPopularityWeight = 0.3
	CombinedQualityWeight    = 0.4
	CombinedRecencyWeight    = 0.3
)

// ItemVector is the Vector Store row for one item.
//
// The four vectors are independently sized. Any comparison pads them with
// zeros to a common length first.
type ItemVector struct {
	ItemID string `json:"item_id"`

	ContentVector  []float64 `json:"content_vector"`
	GenreVector    []float64 `json:"genre_vector"`
	AuthorVector   []float64 `json:"author_vector"`
	MetadataVector []float64 `json:"metadata_vector"`

	// Derived scores in [0,1]. Only the vector refresh job writes these.
	PopularityScore float64 `json:"popularity_score"`
	QualityScore    float64 `json:"quality_score"`
	RecencyScore    float64 `json:"recency_score"`

	// Raw counters, incremented per qualifying interaction.
	ViewCount     int64   `json:"view_count"`
	DownloadCount int64   `json:"download_count"`
	RatingCount   int64   `json:"rating_count"`
	RatingAverage float64 `json:"rating_average"`

	UpdatedAt time.Time `json:"updated_at"`
}

// CombinedScore blends the derived scalars into one ranking score.
func (v *ItemVector) CombinedScore() float64 {
	return CombinedPopularityWeight*v.PopularityScore +
		CombinedQualityWeight*v.QualityScore +
		CombinedRecencyWeight*v.RecencyScore
}

// RawPopularity is the counter-based popularity used when derived scores are
// not yet available: 0.3*views + 0.4*downloads + 0.3*rating_avg*rating_count.
func (v *ItemVector) RawPopularity() float64 {
	return 0.3*float64(v.ViewCount) +
		0.4*float64(v.DownloadCount) +
		0.3*v.RatingAverage*float64(v.RatingCount)
}

// Valid reports whether every component is a finite number and the scalars
// are within [0,1]. Invalid vectors are skipped by the similarity job.
func (v *ItemVector) Valid() bool {
	for _, vec := range [][]float64{v.ContentVector, v.GenreVector, v.AuthorVector, v.MetadataVector} {
		for _, x := range vec {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	for _, s := range []float64{v.PopularityScore, v.QualityScore, v.RecencyScore} {
		if math.IsNaN(s) || s < 0 || s > 1 {
			return false
		}
	}
	return true
}

// ApplyRating folds a new 0-5 rating into the running average.
func (v *ItemVector) ApplyRating(rating float64) {
	total := v.RatingAverage*float64(v.RatingCount) + rating
	v.RatingCount++
	v.RatingAverage = total / float64(v.RatingCount)
}

// VectorDelta is a commutative counter increment applied to an ItemVector.
// Concurrent deltas for the same item can be applied in any order.
type VectorDelta struct {
	ItemID    string
	Views     int64
	Downloads int64
	// Rating is applied only when HasRating is set.
	Rating    float64
	HasRating bool
}

// IsZero reports whether the delta changes nothing.
func (d VectorDelta) IsZero() bool {
	return d.Views == 0 && d.Downloads == 0 && !d.HasRating
}
