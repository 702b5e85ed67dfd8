// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// SaveSet implements recommend.RecommendationStore. It rejects a set that
// repeats an item.
func (s *Store) SaveSet(_ context.Context, set *models.RecommendationSet, recs []models.Recommendation) error {
	if set == nil || set.ID == "" {
		return errors.New("recommendation set requires an id")
	}
	items := make(map[string]struct{}, len(recs))
	for i := range recs {
		if _, dup := items[recs[i].ItemID]; dup {
			return fmt.Errorf("set %s repeats item %s", set.ID, recs[i].ItemID)
		}
		items[recs[i].ItemID] = struct{}{}
	}

	s.recsMu.Lock()
	defer s.recsMu.Unlock()
	if _, exists := s.sets[set.ID]; exists {
		return fmt.Errorf("set %s already exists", set.ID)
	}
	c := cloneSet(set)
	s.sets[set.ID] = &c
	ids := make([]string, 0, len(recs))
	for i := range recs {
		r := cloneRecommendation(&recs[i])
		r.SetID = set.ID
		s.recs[r.ID] = &r
		ids = append(ids, r.ID)
	}
	s.bySet[set.ID] = ids
	return nil
}

// GetSet implements recommend.RecommendationStore. Rows are ordered by position.
func (s *Store) GetSet(_ context.Context, setID string) (*models.RecommendationSet, []models.Recommendation, error) {
	s.recsMu.RLock()
	defer s.recsMu.RUnlock()
	set, ok := s.sets[setID]
	if !ok {
		return nil, nil, fmt.Errorf("set %s: %w", setID, recommend.ErrNotFound)
	}
	c := cloneSet(set)
	recs := make([]models.Recommendation, 0, len(s.bySet[setID]))
	for _, id := range s.bySet[setID] {
		recs = append(recs, cloneRecommendation(s.recs[id]))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Position < recs[j].Position })
	return &c, recs, nil
}

// GetRecommendation implements recommend.RecommendationStore.
func (s *Store) GetRecommendation(_ context.Context, recID string) (*models.Recommendation, error) {
	s.recsMu.RLock()
	defer s.recsMu.RUnlock()
	r, ok := s.recs[recID]
	if !ok {
		return nil, fmt.Errorf("recommendation %s: %w", recID, recommend.ErrNotFound)
	}
	c := cloneRecommendation(r)
	return &c, nil
}

// ApplyTransition implements recommend.RecommendationStore.
func (s *Store) ApplyTransition(_ context.Context, recID string, t models.Transition, at time.Time) (*models.Recommendation, bool, error) {
	s.recsMu.Lock()
	defer s.recsMu.Unlock()
	r, ok := s.recs[recID]
	if !ok {
		return nil, false, fmt.Errorf("recommendation %s: %w", recID, recommend.ErrNotFound)
	}
	applied := r.Apply(t, at)
	if applied {
		if set, ok := s.sets[r.SetID]; ok {
			switch t {
			case models.TransitionImpression:
				set.ViewCount++
			case models.TransitionClick:
				set.ClickCount++
			case models.TransitionConversion:
				set.ConversionCount++
			}
		}
	}
	c := cloneRecommendation(r)
	return &c, applied, nil
}

// DeleteSetsBefore implements recommend.RecommendationStore.
func (s *Store) DeleteSetsBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.recsMu.Lock()
	defer s.recsMu.Unlock()
	removed := 0
	for id, set := range s.sets {
		if !set.GeneratedAt.Before(cutoff) {
			continue
		}
		for _, recID := range s.bySet[id] {
			delete(s.recs, recID)
		}
		for key, fb := range s.feedback {
			if _, ok := s.recs[fb.RecommendationID]; !ok {
				delete(s.feedback, key)
			}
		}
		delete(s.bySet, id)
		delete(s.sets, id)
		removed++
	}
	return removed, nil
}

// SetCount returns the number of stored recommendation sets.
func (s *Store) SetCount() int {
	s.recsMu.RLock()
	defer s.recsMu.RUnlock()
	return len(s.sets)
}

// InsertFeedback implements recommend.FeedbackStore.
func (s *Store) InsertFeedback(_ context.Context, fb *models.Feedback) error {
	if fb == nil || fb.UserID == "" || fb.RecommendationID == "" {
		return errors.New("feedback requires user and recommendation ids")
	}
	key := feedbackKey{userID: fb.UserID, recommendationID: fb.RecommendationID}

	s.recsMu.Lock()
	defer s.recsMu.Unlock()
	if _, ok := s.recs[fb.RecommendationID]; !ok {
		return fmt.Errorf("recommendation %s: %w", fb.RecommendationID, recommend.ErrNotFound)
	}
	if _, dup := s.feedback[key]; dup {
		return fmt.Errorf("user %s on %s: %w", fb.UserID, fb.RecommendationID, recommend.ErrDuplicateFeedback)
	}
	c := *fb
	if fb.Rating != nil {
		r := *fb.Rating
		c.Rating = &r
	}
	s.feedback[key] = &c
	return nil
}

// FeedbackForSet implements recommend.FeedbackStore.
func (s *Store) FeedbackForSet(_ context.Context, setID string) ([]models.Feedback, error) {
	s.recsMu.RLock()
	defer s.recsMu.RUnlock()
	if _, ok := s.sets[setID]; !ok {
		return nil, fmt.Errorf("set %s: %w", setID, recommend.ErrNotFound)
	}
	inSet := toSet(s.bySet[setID])
	var out []models.Feedback
	for _, fb := range s.feedback {
		if _, ok := inSet[fb.RecommendationID]; ok {
			out = append(out, *fb)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneSet(set *models.RecommendationSet) models.RecommendationSet {
	c := *set
	if set.Context != nil {
		c.Context = make(map[string]string, len(set.Context))
		for k, v := range set.Context {
			c.Context[k] = v
		}
	}
	if set.Parameters != nil {
		c.Parameters = make(map[string]any, len(set.Parameters))
		for k, v := range set.Parameters {
			c.Parameters[k] = v
		}
	}
	return c
}

func cloneRecommendation(r *models.Recommendation) models.Recommendation {
	c := *r
	c.Reasons = cloneStrings(r.Reasons)
	c.ViewedAt = cloneTime(r.ViewedAt)
	c.ClickedAt = cloneTime(r.ClickedAt)
	c.ConvertedAt = cloneTime(r.ConvertedAt)
	return c
}
