// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import "time"

// FeedbackType is the kind of explicit judgement a user gave a recommendation.
type FeedbackType string

const (
	FeedbackLike               FeedbackType = "like"
	FeedbackDislike            FeedbackType = "dislike"
	FeedbackNotInterested      FeedbackType = "not_interested"
	FeedbackInappropriate      FeedbackType = "inappropriate"
	FeedbackGoodRecommendation FeedbackType = "good_recommendation"
	FeedbackBadRecommendation  FeedbackType = "bad_recommendation"
)

var feedbackWeights = map[FeedbackType]float64{
	FeedbackLike:               1.0,
	FeedbackDislike:            -1.0,
	FeedbackNotInterested:      -0.5,
	FeedbackInappropriate:      -1.5,
	FeedbackGoodRecommendation: 1.5,
	FeedbackBadRecommendation:  -1.0,
}

// Weight returns the signed weight of the feedback type.
func (t FeedbackType) Weight() float64 {
	return feedbackWeights[t]
}

// Valid reports whether the type is known.
func (t FeedbackType) Valid() bool {
	_, ok := feedbackWeights[t]
	return ok
}

// Feedback is an explicit user judgement of one recommendation.
// At most one exists per (user, recommendation).
type Feedback struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	RecommendationID string       `json:"recommendation_id"`
	Type             FeedbackType `json:"type"`

	// Rating is an optional 1-5 star rating.
	Rating *int `json:"rating,omitempty"`

	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Weight returns the signed weight of the feedback.
func (f *Feedback) Weight() float64 {
	return f.Type.Weight()
}
