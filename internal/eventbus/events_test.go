// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package eventbus

import (
	"testing"
	"time"
)

func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"valid item completed", Event{ID: "e1", Type: TypeItemCompleted, UserID: "u1"}, false},
		{"missing id", Event{Type: TypeItemCompleted, UserID: "u1"}, true},
		{"unknown type", Event{ID: "e1", Type: "nope"}, true},
		{"item completed without user", Event{ID: "e1", Type: TypeItemCompleted}, true},
		{"click without recommendation", Event{ID: "e1", Type: TypeRecommendationClicked, UserID: "u1"}, true},
		{"generated without user is allowed", Event{ID: "e1", Type: TypeRecommendationGenerated}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	t.Parallel()

	e := NewEvent(TypeItemCompleted, "u1")
	e.ItemID = "book-1"
	e.Genres = []string{"Fantasy"}
	e.OccurredAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := Marshal(&e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.ID != e.ID || got.ItemID != "book-1" || len(got.Genres) != 1 || !got.OccurredAt.Equal(e.OccurredAt) {
		t.Errorf("Unmarshal() = %+v, want %+v", got, e)
	}

	if _, err := Unmarshal([]byte("{not json")); err == nil {
		t.Error("Unmarshal() accepted malformed payload")
	}
	if _, err := Marshal(&Event{Type: TypeItemCompleted}); err == nil {
		t.Error("Marshal() accepted an invalid event")
	}
}
