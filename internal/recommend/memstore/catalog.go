// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// PutItem adds or replaces a catalog item.
func (s *Store) PutItem(item *models.Item) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	s.items[item.ID] = cloneItem(item)
}

// AddHistory appends a reading history entry for a user.
func (s *Store) AddHistory(userID string, entry models.HistoryEntry) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	s.history[userID] = append(s.history[userID], entry)
}

// GetItem implements recommend.Catalog.
func (s *Store) GetItem(_ context.Context, id string) (*models.Item, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, recommend.ErrNotFound)
	}
	return cloneItem(item), nil
}

// GetItems implements recommend.Catalog.
func (s *Store) GetItems(_ context.Context, ids []string) (map[string]*models.Item, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	out := make(map[string]*models.Item, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out[id] = cloneItem(item)
		}
	}
	return out, nil
}

// GetItemsByCategory implements recommend.Catalog.
func (s *Store) GetItemsByCategory(_ context.Context, names []string, limit int) ([]*models.Item, error) {
	return s.matching(names, limit, func(item *models.Item) []string { return item.Categories }), nil
}

// GetItemsByAuthor implements recommend.Catalog.
func (s *Store) GetItemsByAuthor(_ context.Context, names []string, limit int) ([]*models.Item, error) {
	return s.matching(names, limit, func(item *models.Item) []string { return item.Authors }), nil
}

// GetPopularItems implements recommend.Catalog. Items are ranked by average
// rating, then publication date.
func (s *Store) GetPopularItems(_ context.Context, limit int, excludeIDs []string) ([]*models.Item, error) {
	exclude := toSet(excludeIDs)

	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	out := make([]*models.Item, 0, len(s.items))
	for id, item := range s.items {
		if _, skip := exclude[id]; skip {
			continue
		}
		out = append(out, cloneItem(item))
	}
	sortItems(out)
	return limitItems(out, limit), nil
}

// matching returns items whose field shares a value with names, compared
// case-insensitively.
func (s *Store) matching(names []string, limit int, field func(*models.Item) []string) []*models.Item {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = struct{}{}
	}

	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	var out []*models.Item
	for _, item := range s.items {
		for _, v := range field(item) {
			if _, ok := wanted[strings.ToLower(v)]; ok {
				out = append(out, cloneItem(item))
				break
			}
		}
	}
	sortItems(out)
	return limitItems(out, limit)
}

// GetUserHistory implements recommend.ReadingHistory.
func (s *Store) GetUserHistory(_ context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	s.catalogMu.RLock()
	entries := append([]models.HistoryEntry(nil), s.history[userID]...)
	s.catalogMu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// GetCompletedItems implements recommend.ReadingHistory.
func (s *Store) GetCompletedItems(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	entries, err := s.GetUserHistory(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Status == models.ReadingStatusCompleted {
			out = append(out, e)
		}
	}
	return out, nil
}

// HasUserRead implements recommend.ReadingHistory.
func (s *Store) HasUserRead(_ context.Context, userID, itemID string) (bool, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	for _, e := range s.history[userID] {
		if e.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func sortItems(items []*models.Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.AvgRating != b.AvgRating {
			return a.AvgRating > b.AvgRating
		}
		if !a.PublicationDate.Equal(b.PublicationDate) {
			return a.PublicationDate.After(b.PublicationDate)
		}
		return a.ID < b.ID
	})
}

func limitItems(items []*models.Item, limit int) []*models.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func cloneItem(item *models.Item) *models.Item {
	c := *item
	c.Authors = cloneStrings(item.Authors)
	c.Categories = cloneStrings(item.Categories)
	return &c
}
