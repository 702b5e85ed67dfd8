// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *memstore.Store {
	t.Helper()
	return memstore.New(memstore.WithClock(func() time.Time { return testBase }))
}

func putItem(s *memstore.Store, id string, rating float64, authors, genres []string) {
	s.PutItem(&models.Item{
		ID:              id,
		Title:           "Title " + id,
		Authors:         authors,
		Categories:      genres,
		AvgRating:       rating,
		PublicationDate: testBase.AddDate(-1, 0, 0),
	})
}

func rate(t *testing.T, s *memstore.Store, userID, itemID string, rating float64, at time.Time) {
	t.Helper()
	err := s.AppendInteraction(context.Background(), &models.Interaction{
		ID:        userID + "-" + itemID,
		UserID:    userID,
		ItemID:    itemID,
		Type:      models.InteractionRating,
		Value:     models.Float64(rating),
		Timestamp: at,
	})
	if err != nil {
		t.Fatalf("AppendInteraction() error = %v", err)
	}
}

func input(userID string, count int, profile *models.UserProfile, exclude ...string) recommend.ScoringInput {
	if profile == nil {
		profile = models.NewUserProfile(userID, testBase)
	}
	return recommend.ScoringInput{
		UserID:  userID,
		Profile: profile,
		Exclude: recommend.NewExcludeSet(exclude),
		Count:   count,
	}
}

func ids(cands []recommend.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ItemID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// stubStrategy returns canned candidates or an error.
type stubStrategy struct {
	name  models.Algorithm
	cands []recommend.Candidate
	err   error
	calls int
	count int
}

func (s *stubStrategy) Name() models.Algorithm { return s.name }

func (s *stubStrategy) Score(_ context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	s.calls++
	s.count = in.Count
	if s.err != nil {
		return nil, s.err
	}
	return append([]recommend.Candidate(nil), s.cands...), nil
}

var errBoom = errors.New("boom")

func nop() zerolog.Logger { return zerolog.Nop() }
