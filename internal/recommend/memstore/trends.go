// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/folio/internal/models"
)

// ReplaceActive implements recommend.TrendStore.
func (s *Store) ReplaceActive(_ context.Context, period models.TrendPeriod, trendType models.TrendType, entries []models.TrendEntry, now time.Time) error {
	s.trendsMu.Lock()
	defer s.trendsMu.Unlock()

	for i := range s.trends {
		e := &s.trends[i]
		if e.IsActive && e.Period == period && e.TrendType == trendType {
			e.IsActive = false
			e.DeactivatedAt = cloneTime(&now)
		}
	}
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.Period, e.TrendType = period, trendType
		e.IsActive = true
		e.DeactivatedAt = nil
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		s.trends = append(s.trends, e)
	}
	return nil
}

// ActiveTrends implements recommend.TrendStore.
func (s *Store) ActiveTrends(_ context.Context, period models.TrendPeriod, trendType models.TrendType, limit int) ([]models.TrendEntry, error) {
	s.trendsMu.RLock()
	var out []models.TrendEntry
	for i := range s.trends {
		e := s.trends[i]
		if e.IsActive && e.Period == period && e.TrendType == trendType {
			e.DeactivatedAt = cloneTime(e.DeactivatedAt)
			out = append(out, e)
		}
	}
	s.trendsMu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Genre != out[j].Genre {
			return out[i].Genre < out[j].Genre
		}
		return out[i].Rank < out[j].Rank
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteInactiveBefore implements recommend.TrendStore.
func (s *Store) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.trendsMu.Lock()
	defer s.trendsMu.Unlock()
	kept := s.trends[:0]
	removed := 0
	for _, e := range s.trends {
		if !e.IsActive && e.DeactivatedAt != nil && e.DeactivatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.trends = kept
	return removed, nil
}

// TrendCount returns the number of stored trend rows, active or not.
func (s *Store) TrendCount() int {
	s.trendsMu.RLock()
	defer s.trendsMu.RUnlock()
	return len(s.trends)
}
