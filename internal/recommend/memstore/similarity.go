// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

// UpsertEdges implements recommend.SimilarityStore. All edges become visible
// under a single lock.
func (s *Store) UpsertEdges(_ context.Context, edges []models.SimilarityEdge) error {
	s.similarityMu.Lock()
	defer s.similarityMu.Unlock()
	for _, e := range edges {
		out, ok := s.edges[e.ItemA]
		if !ok {
			out = make(map[string]models.SimilarityEdge)
			s.edges[e.ItemA] = out
		}
		out[e.ItemB] = e
	}
	return nil
}

// PruneEdges implements recommend.SimilarityStore.
func (s *Store) PruneEdges(_ context.Context, cutoff time.Time) (int, error) {
	s.similarityMu.Lock()
	defer s.similarityMu.Unlock()
	removed := 0
	for a, out := range s.edges {
		for b, e := range out {
			if e.ComputedAt.Before(cutoff) {
				delete(out, b)
				removed++
			}
		}
		if len(out) == 0 {
			delete(s.edges, a)
		}
	}
	return removed, nil
}

// SimilarTo implements recommend.SimilarityStore.
func (s *Store) SimilarTo(_ context.Context, itemID string, limit int) ([]models.SimilarityEdge, error) {
	s.similarityMu.RLock()
	out := make([]models.SimilarityEdge, 0, len(s.edges[itemID]))
	for _, e := range s.edges[itemID] {
		out = append(out, e)
	}
	s.similarityMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Overall != out[j].Overall {
			return out[i].Overall > out[j].Overall
		}
		return out[i].ItemB < out[j].ItemB
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Edges returns every stored edge ordered by (ItemA, ItemB).
func (s *Store) Edges() []models.SimilarityEdge {
	s.similarityMu.RLock()
	var out []models.SimilarityEdge
	for _, m := range s.edges {
		for _, e := range m {
			out = append(out, e)
		}
	}
	s.similarityMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemA != out[j].ItemA {
			return out[i].ItemA < out[j].ItemA
		}
		return out[i].ItemB < out[j].ItemB
	})
	return out
}
