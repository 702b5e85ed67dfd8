// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package memstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

// AppendInteraction implements recommend.InteractionLog.
func (s *Store) AppendInteraction(_ context.Context, in *models.Interaction) error {
	if in == nil || in.UserID == "" || in.ItemID == "" {
		return errors.New("interaction requires user and item ids")
	}
	c := *in
	if in.Value != nil {
		v := *in.Value
		c.Value = &v
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}

	s.interactionsMu.Lock()
	defer s.interactionsMu.Unlock()
	s.byUser[c.UserID] = append(s.byUser[c.UserID], len(s.interactions))
	s.interactions = append(s.interactions, c)
	return nil
}

// UserInteractions implements recommend.InteractionLog.
func (s *Store) UserInteractions(_ context.Context, userID string, limit int) ([]models.Interaction, error) {
	s.interactionsMu.RLock()
	idx := s.byUser[userID]
	out := make([]models.Interaction, 0, len(idx))
	for i := len(idx) - 1; i >= 0; i-- {
		out = append(out, s.interactions[idx[i]])
	}
	s.interactionsMu.RUnlock()

	// Appends are usually chronological; the stable sort fixes back-dated rows.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InteractionsSince implements recommend.InteractionLog.
func (s *Store) InteractionsSince(_ context.Context, since time.Time) ([]models.Interaction, error) {
	s.interactionsMu.RLock()
	defer s.interactionsMu.RUnlock()
	var out []models.Interaction
	for i := range s.interactions {
		if !s.interactions[i].Timestamp.Before(since) {
			out = append(out, s.interactions[i])
		}
	}
	return out, nil
}

// UserRatings implements recommend.InteractionLog.
func (s *Store) UserRatings(_ context.Context, userID string) (map[string]float64, error) {
	s.interactionsMu.RLock()
	defer s.interactionsMu.RUnlock()

	ratings := make(map[string]float64)
	latest := make(map[string]time.Time)
	for _, i := range s.byUser[userID] {
		in := &s.interactions[i]
		if in.Type != models.InteractionRating || in.Value == nil {
			continue
		}
		if ts, ok := latest[in.ItemID]; ok && in.Timestamp.Before(ts) {
			continue
		}
		ratings[in.ItemID] = *in.Value
		latest[in.ItemID] = in.Timestamp
	}
	return ratings, nil
}

// RecentlyActiveUsers implements recommend.InteractionLog.
func (s *Store) RecentlyActiveUsers(_ context.Context, exclude string, limit int) ([]string, error) {
	s.interactionsMu.RLock()
	type activity struct {
		userID string
		last   time.Time
	}
	users := make([]activity, 0, len(s.byUser))
	for userID, idx := range s.byUser {
		if userID == exclude {
			continue
		}
		rated := false
		var last time.Time
		for _, i := range idx {
			in := &s.interactions[i]
			if in.Type == models.InteractionRating && in.Value != nil {
				rated = true
			}
			if in.Timestamp.After(last) {
				last = in.Timestamp
			}
		}
		if rated {
			users = append(users, activity{userID: userID, last: last})
		}
	}
	s.interactionsMu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].last.Equal(users[j].last) {
			return users[i].last.After(users[j].last)
		}
		return users[i].userID < users[j].userID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.userID
	}
	return out, nil
}
