// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package eventbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Type names a domain event.
type Type string

const (
	TypeInteractionRecorded     Type = "interaction_recorded"
	TypeRecommendationGenerated Type = "recommendation_generated"
	TypeRecommendationClicked   Type = "recommendation_clicked"
	TypePreferencesUpdated      Type = "preferences_updated"
	TypeItemCompleted           Type = "item_completed"
)

// Types lists every event type.
var Types = []Type{
	TypeInteractionRecorded,
	TypeRecommendationGenerated,
	TypeRecommendationClicked,
	TypePreferencesUpdated,
	TypeItemCompleted,
}

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Event is the envelope published on the bus. Fields irrelevant to a type
// are left empty.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	UserID           string `json:"user_id,omitempty"`
	ItemID           string `json:"item_id,omitempty"`
	SetID            string `json:"set_id,omitempty"`
	RecommendationID string `json:"recommendation_id,omitempty"`
	Algorithm        string `json:"algorithm,omitempty"`
	InteractionType  string `json:"interaction_type,omitempty"`

	// Genres and Authors describe the item of an item_completed event.
	Genres  []string `json:"genres,omitempty"`
	Authors []string `json:"authors,omitempty"`

	// ItemIDs lists the items of a recommendation_generated event.
	ItemIDs []string `json:"item_ids,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewEvent returns an event of type t with a fresh id and timestamp.
func NewEvent(t Type, userID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
	}
}

// Validate checks the fields every consumer relies on.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event id is required")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", string(e.Type))
	}
	switch e.Type {
	case TypeItemCompleted, TypePreferencesUpdated, TypeInteractionRecorded:
		if e.UserID == "" {
			return fmt.Errorf("%s event requires user_id", e.Type)
		}
	case TypeRecommendationClicked:
		if e.RecommendationID == "" {
			return errors.New("recommendation_clicked event requires recommendation_id")
		}
	}
	return nil
}

// Marshal validates and serializes an event.
func Marshal(e *Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes and validates an event.
func Unmarshal(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	return &e, nil
}
