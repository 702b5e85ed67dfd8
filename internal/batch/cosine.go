// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"math"

	"github.com/tomtom215/folio/internal/models"
)

// Cosine returns the cosine similarity of a and b. The shorter vector is
// zero-padded to the longer length. A zero-norm vector yields 0.
func Cosine(a, b []float64) float64 {
	n := max(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(sim):
		return 0
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// featurePair returns the comparison features of two vectors: content, genre
// and author vectors each padded to the longer of the pair, followed by the
// popularity, quality and recency scalars.
func featurePair(a, b *models.ItemVector) (fa, fb []float64) {
	parts := [][2][]float64{
		{a.ContentVector, b.ContentVector},
		{a.GenreVector, b.GenreVector},
		{a.AuthorVector, b.AuthorVector},
	}
	size := 3
	for _, p := range parts {
		size += max(len(p[0]), len(p[1]))
	}
	fa = make([]float64, 0, size)
	fb = make([]float64, 0, size)
	for _, p := range parts {
		width := max(len(p[0]), len(p[1]))
		fa = appendPadded(fa, p[0], width)
		fb = appendPadded(fb, p[1], width)
	}
	fa = append(fa, scalars(a)...)
	fb = append(fb, scalars(b)...)
	return fa, fb
}

func appendPadded(dst, v []float64, width int) []float64 {
	dst = append(dst, v...)
	for i := len(v); i < width; i++ {
		dst = append(dst, 0)
	}
	return dst
}

func scalars(v *models.ItemVector) []float64 {
	return []float64{v.PopularityScore, v.QualityScore, v.RecencyScore}
}

// edgeBetween scores a pair. It returns the A to B edge.
func edgeBetween(a, b *models.ItemVector) models.SimilarityEdge {
	fa, fb := featurePair(a, b)
	return models.SimilarityEdge{
		ItemA:         a.ItemID,
		ItemB:         b.ItemID,
		ContentScore:  Cosine(a.ContentVector, b.ContentVector),
		GenreScore:    Cosine(a.GenreVector, b.GenreVector),
		AuthorScore:   Cosine(a.AuthorVector, b.AuthorVector),
		BehaviorScore: Cosine(scalars(a), scalars(b)),
		Overall:       Cosine(fa, fb),
	}
}
