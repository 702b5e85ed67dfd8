// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/folio/internal/models"
)

// Reasons attached to similar items, derived from edge component scores.
const (
	ReasonSimilarContent = "similar content"
	ReasonSameAuthor     = "same author"
	ReasonSameGenre      = "same genre"
	ReasonReadTogether   = "read together"
)

// componentReasonThreshold is the component score above which the component
// is named as a reason.
const componentReasonThreshold = 0.5

// TrendingItem is one ranked entry of a trending list.
type TrendingItem struct {
	ItemID     string       `json:"item_id"`
	Item       *models.Item `json:"item,omitempty"`
	Rank       int          `json:"rank"`
	Genre      string       `json:"genre,omitempty"`
	TrendScore float64      `json:"trend_score"`
	Velocity   float64      `json:"velocity"`
}

// SimilarItems returns up to count items most similar to itemID according to
// the precomputed similarity index. Unknown items return ErrNotFound; items
// that are no longer in the catalog are skipped.
func (e *Engine) SimilarItems(ctx context.Context, itemID string, count int) ([]SimilarItem, error) {
	if e.stores.Similarity == nil {
		return nil, errors.New("similarity index is not configured")
	}
	count, err := e.limit(count)
	if err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, fmt.Errorf("%w: item id is required", ErrInvalidRequest)
	}
	if _, err := e.catalog.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, err)
	}

	edges, err := e.stores.Similarity.SimilarTo(ctx, itemID, 2*count)
	if err != nil {
		return nil, fmt.Errorf("load similar items: %w", err)
	}
	if len(edges) == 0 {
		return []SimilarItem{}, nil
	}

	ids := make([]string, len(edges))
	for i := range edges {
		ids[i] = edges[i].ItemB
	}
	items, err := e.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	out := make([]SimilarItem, 0, count)
	for i := range edges {
		item, ok := items[edges[i].ItemB]
		if !ok {
			continue
		}
		out = append(out, SimilarItem{
			ItemID:     edges[i].ItemB,
			Item:       item,
			Similarity: clip01(edges[i].Overall),
			Reasons:    edgeReasons(&edges[i]),
		})
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func edgeReasons(edge *models.SimilarityEdge) []string {
	reasons := make([]string, 0, 4)
	if edge.AuthorScore >= componentReasonThreshold {
		reasons = append(reasons, ReasonSameAuthor)
	}
	if edge.GenreScore >= componentReasonThreshold {
		reasons = append(reasons, ReasonSameGenre)
	}
	if edge.ContentScore >= componentReasonThreshold {
		reasons = append(reasons, ReasonSimilarContent)
	}
	if edge.BehaviorScore >= componentReasonThreshold {
		reasons = append(reasons, ReasonReadTogether)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, ReasonSimilarContent)
	}
	return reasons
}

// Trending returns the active trend list for a period and trend type, in
// rank order. Genre trends are grouped by genre.
func (e *Engine) Trending(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, limit int) ([]TrendingItem, error) {
	entries, err := e.TrendEntries(ctx, period, trendType, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []TrendingItem{}, nil
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ItemID
	}
	items, err := e.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	out := make([]TrendingItem, 0, len(entries))
	for i := range entries {
		item, ok := items[entries[i].ItemID]
		if !ok {
			continue
		}
		out = append(out, TrendingItem{
			ItemID:     entries[i].ItemID,
			Item:       item,
			Rank:       entries[i].Rank,
			Genre:      entries[i].Genre,
			TrendScore: entries[i].TrendScore,
			Velocity:   entries[i].Velocity,
		})
	}
	return out, nil
}

// TrendEntries returns the raw entries of the latest trend computation.
func (e *Engine) TrendEntries(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, limit int) ([]models.TrendEntry, error) {
	if e.stores.Trends == nil {
		return nil, errors.New("trend store is not configured")
	}
	if _, err := period.Duration(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !trendType.Valid() {
		return nil, fmt.Errorf("%w: unknown trend type %q", ErrInvalidRequest, string(trendType))
	}
	limit, err := e.limit(limit)
	if err != nil {
		return nil, err
	}

	entries, err := e.stores.Trends.ActiveTrends(ctx, period, trendType, limit)
	if err != nil {
		return nil, fmt.Errorf("load trends: %w", err)
	}
	return entries, nil
}

func (e *Engine) limit(n int) (int, error) {
	switch {
	case n == 0:
		return e.cfg.Limits.DefaultCount, nil
	case n < 0 || n > e.cfg.Limits.MaxCount:
		return 0, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidRequest, e.cfg.Limits.MaxCount, n)
	default:
		return n, nil
	}
}
