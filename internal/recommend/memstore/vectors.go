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

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// GetVector implements recommend.VectorStore.
func (s *Store) GetVector(_ context.Context, itemID string) (*models.ItemVector, error) {
	s.vectorsMu.RLock()
	defer s.vectorsMu.RUnlock()
	v, ok := s.vectors[itemID]
	if !ok {
		return nil, fmt.Errorf("vector %s: %w", itemID, recommend.ErrNotFound)
	}
	c := cloneVector(v)
	return &c, nil
}

// ListVectors implements recommend.VectorStore. Rows are ordered by item id.
func (s *Store) ListVectors(_ context.Context) ([]models.ItemVector, error) {
	s.vectorsMu.RLock()
	out := make([]models.ItemVector, 0, len(s.vectors))
	for _, v := range s.vectors {
		out = append(out, cloneVector(v))
	}
	s.vectorsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// UpsertVector implements recommend.VectorStore.
func (s *Store) UpsertVector(_ context.Context, v *models.ItemVector) error {
	if v == nil || v.ItemID == "" {
		return errors.New("vector requires an item id")
	}
	c := cloneVector(v)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = s.now()
	}
	s.vectorsMu.Lock()
	defer s.vectorsMu.Unlock()
	s.vectors[v.ItemID] = &c
	return nil
}

// ApplyDelta implements recommend.VectorStore.
func (s *Store) ApplyDelta(_ context.Context, d models.VectorDelta) error {
	if d.ItemID == "" {
		return errors.New("delta requires an item id")
	}
	if d.IsZero() {
		return nil
	}
	s.vectorsMu.Lock()
	defer s.vectorsMu.Unlock()
	v, ok := s.vectors[d.ItemID]
	if !ok {
		v = &models.ItemVector{ItemID: d.ItemID}
		s.vectors[d.ItemID] = v
	}
	v.ViewCount += d.Views
	v.DownloadCount += d.Downloads
	if d.HasRating {
		v.ApplyRating(d.Rating)
	}
	v.UpdatedAt = s.now()
	return nil
}

// UpdateDerivedScores implements recommend.VectorStore. Rows missing from
// the store are ignored.
func (s *Store) UpdateDerivedScores(_ context.Context, vectors []models.ItemVector) error {
	s.vectorsMu.Lock()
	defer s.vectorsMu.Unlock()
	now := s.now()
	for i := range vectors {
		v, ok := s.vectors[vectors[i].ItemID]
		if !ok {
			continue
		}
		v.PopularityScore = vectors[i].PopularityScore
		v.QualityScore = vectors[i].QualityScore
		v.RecencyScore = vectors[i].RecencyScore
		v.UpdatedAt = now
	}
	return nil
}

// TopByCombinedScore implements recommend.VectorStore.
func (s *Store) TopByCombinedScore(_ context.Context, limit int, minRating float64, exclude []string) ([]models.ItemVector, error) {
	skip := toSet(exclude)

	s.vectorsMu.RLock()
	out := make([]models.ItemVector, 0, len(s.vectors))
	for id, v := range s.vectors {
		if _, ok := skip[id]; ok || v.RatingAverage < minRating {
			continue
		}
		out = append(out, cloneVector(v))
	}
	s.vectorsMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CombinedScore(), out[j].CombinedScore()
		if a != b {
			return a > b
		}
		ra, rb := out[i].RawPopularity(), out[j].RawPopularity()
		if ra != rb {
			return ra > rb
		}
		return out[i].ItemID < out[j].ItemID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneVector(v *models.ItemVector) models.ItemVector {
	c := *v
	c.ContentVector = cloneFloats(v.ContentVector)
	c.GenreVector = cloneFloats(v.GenreVector)
	c.AuthorVector = cloneFloats(v.AuthorVector)
	c.MetadataVector = cloneFloats(v.MetadataVector)
	return c
}
