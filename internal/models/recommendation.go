// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import "time"

// Algorithm names a scoring strategy.
type Algorithm string

const (
	AlgorithmContentBased  Algorithm = "content_based"
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmPopularity    Algorithm = "popularity"
	AlgorithmHybrid        Algorithm = "hybrid"
)

// Algorithms lists every known strategy.
var Algorithms = []Algorithm{
	AlgorithmContentBased,
	AlgorithmCollaborative,
	AlgorithmPopularity,
	AlgorithmHybrid,
}

// Valid reports whether the algorithm is known.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmContentBased, AlgorithmCollaborative, AlgorithmPopularity, AlgorithmHybrid:
		return true
	}
	return false
}

// RecommendationSet is one batch of ranked recommendations produced by a
// single generation call. It is terminal once expired.
type RecommendationSet struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Algorithm        Algorithm `json:"algorithm"`
	AlgorithmVersion string    `json:"algorithm_version"`

	// Context is the free-form generation context supplied by the caller.
	Context map[string]string `json:"context,omitempty"`

	// Parameters records the effective generation parameters (count, weights).
	Parameters map[string]any `json:"parameters,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	ViewCount       int64 `json:"view_count"`
	ClickCount      int64 `json:"click_count"`
	ConversionCount int64 `json:"conversion_count"`
}

// Expired reports whether the set has passed its expiry time.
func (s *RecommendationSet) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Recommendation is one ranked row of a RecommendationSet.
type Recommendation struct {
	ID     string `json:"id"`
	SetID  string `json:"set_id"`
	ItemID string `json:"item_id"`

	// Score is in [0,1].
	Score float64 `json:"score"`

	// Position is the 1-indexed rank within the set.
	Position int `json:"position"`

	Reasons     []string `json:"reasons"`
	Explanation string   `json:"explanation,omitempty"`

	Viewed      bool       `json:"viewed"`
	ViewedAt    *time.Time `json:"viewed_at,omitempty"`
	Clicked     bool       `json:"clicked"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	Converted   bool       `json:"converted"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`
}

// Transition names a one-way state change of a Recommendation.
type Transition string

const (
	TransitionImpression Transition = "impression"
	TransitionClick      Transition = "click"
	TransitionConversion Transition = "conversion"
)

// Apply sets the flag for the transition and stamps its time. It returns
// false when the flag was already set, in which case nothing changes.
func (r *Recommendation) Apply(t Transition, now time.Time) bool {
	switch t {
	case TransitionImpression:
		if r.Viewed {
			return false
		}
		r.Viewed, r.ViewedAt = true, &now
	case TransitionClick:
		if r.Clicked {
			return false
		}
		r.Clicked, r.ClickedAt = true, &now
	case TransitionConversion:
		if r.Converted {
			return false
		}
		r.Converted, r.ConvertedAt = true, &now
	default:
		return false
	}
	return true
}
