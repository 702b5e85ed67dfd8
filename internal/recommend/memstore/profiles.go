// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package memstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// GetProfile implements recommend.ProfileStore.
func (s *Store) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.profilesMu.RLock()
	defer s.profilesMu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, recommend.ErrNotFound)
	}
	return p.Clone(), nil
}

// SaveProfile implements recommend.ProfileStore.
func (s *Store) SaveProfile(_ context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return errors.New("profile requires a user id")
	}
	s.profilesMu.Lock()
	defer s.profilesMu.Unlock()
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}
