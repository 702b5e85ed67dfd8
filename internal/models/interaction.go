// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import "time"

// InteractionType classifies a user-item interaction.
type InteractionType string

const (
	InteractionView                InteractionType = "view"
	InteractionDownload            InteractionType = "download"
	InteractionReadStart           InteractionType = "read_start"
	InteractionReadComplete        InteractionType = "read_complete"
	InteractionRating              InteractionType = "rating"
	InteractionPurchase            InteractionType = "purchase"
	InteractionSearch              InteractionType = "search"
	InteractionBookmark            InteractionType = "bookmark"
	InteractionShare               InteractionType = "share"
	InteractionRecommendationClick InteractionType = "recommendation_click"
)

// interactionWeights is the fixed importance table per interaction type.
var interactionWeights = map[InteractionType]float64{
	InteractionView:                1.0,
	InteractionDownload:            2.0,
	InteractionReadStart:           3.0,
	InteractionReadComplete:        5.0,
	InteractionRating:              4.0,
	InteractionPurchase:            6.0,
	InteractionSearch:              0.5,
	InteractionBookmark:            2.5,
	InteractionShare:               2.0,
	InteractionRecommendationClick: 1.5,
}

// Weight returns the importance weight of the interaction type, or 0 for
// unknown types.
func (t InteractionType) Weight() float64 {
	return interactionWeights[t]
}

// Valid reports whether the type is known.
func (t InteractionType) Valid() bool {
	_, ok := interactionWeights[t]
	return ok
}

// Delta returns the vector counter increment caused by an interaction of this
// type. Only views, downloads and ratings touch the counters.
func (i *Interaction) Delta() VectorDelta {
	d := VectorDelta{ItemID: i.ItemID}
	switch i.Type {
	case InteractionView:
		d.Views = 1
	case InteractionDownload:
		d.Downloads = 1
	case InteractionRating:
		if i.Value != nil && *i.Value >= 0 && *i.Value <= 5 {
			d.Rating = *i.Value
			d.HasRating = true
		}
	}
	return d
}

// Interaction is one append-only Interaction Log row.
type Interaction struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	ItemID string          `json:"item_id"`
	Type   InteractionType `json:"type"`

	// Value carries the rating for rating interactions and the signed feedback
	// weight for synthetic feedback interactions.
	Value *float64 `json:"value,omitempty"`

	SessionID  string    `json:"session_id,omitempty"`
	DeviceType string    `json:"device_type,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	FromRecommendation bool    `json:"from_recommendation"`
	SourceAlgorithm    string  `json:"source_algorithm,omitempty"`
	SourceScore        float64 `json:"source_score,omitempty"`
}

// Weight is the importance weight of the interaction.
func (i *Interaction) Weight() float64 {
	return i.Type.Weight()
}

// Float64 returns a pointer to v. Used for optional interaction values.
func Float64(v float64) *float64 {
	return &v
}
