// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// Thresholds for secondary popularity reasons.
const (
	trendingRecency   = 0.8
	highlyRatedRating = 4.5
)

// Popularity ranks items by the precomputed combined score of their vectors:
//
//	combined = 0.3*popularity + 0.4*quality + 0.3*recency
//
// Only items with a rating average of at least MinRating qualify. When the
// derived scores have not been computed yet (all zero), the raw counter
// formula 0.3*views + 0.4*downloads + 0.3*rating_avg*rating_count is used,
// normalised by the batch maximum. When no vectors exist at all the catalog's
// popular items are scored by average rating.
type Popularity struct {
	vectors recommend.VectorStore
	catalog recommend.Catalog
	cfg     recommend.PopularityConfig
	logger  zerolog.Logger
}

// NewPopularity creates a popularity strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPopularity(vectors recommend.VectorStore, catalog recommend.Catalog, cfg recommend.PopularityConfig, logger zerolog.Logger) *Popularity {
	return &Popularity{
		vectors: vectors,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.With().Str("strategy", string(models.AlgorithmPopularity)).Logger(),
	}
}

// Name implements recommend.Strategy.
func (p *Popularity) Name() models.Algorithm {
	return models.AlgorithmPopularity
}

// Score implements recommend.Strategy.
func (p *Popularity) Score(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	if in.Count <= 0 {
		return nil, nil
	}

	var vectors []models.ItemVector
	if p.vectors != nil {
		var err error
		vectors, err = p.vectors.TopByCombinedScore(ctx, 2*in.Count, p.cfg.MinRating, in.Exclude.IDs())
		if err != nil {
			return nil, fmt.Errorf("top vectors: %w", err)
		}
	}

	var (
		out []recommend.Candidate
		err error
	)
	if len(vectors) > 0 {
		out, err = p.fromVectors(ctx, vectors, in)
	} else {
		out, err = p.fromCatalog(ctx, in)
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no popular items: %w", recommend.ErrInsufficientData)
	}
	return out, nil
}

func (p *Popularity) fromVectors(ctx context.Context, vectors []models.ItemVector, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	derived := false
	maxRaw := 0.0
	for i := range vectors {
		if vectors[i].CombinedScore() > 0 {
			derived = true
		}
		if raw := vectors[i].RawPopularity(); raw > maxRaw {
			maxRaw = raw
		}
	}

	var items map[string]*models.Item
	if p.catalog != nil {
		ids := make([]string, 0, len(vectors))
		for i := range vectors {
			ids = append(ids, vectors[i].ItemID)
		}
		var err error
		items, err = p.catalog.GetItems(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("popular items: %w", err)
		}
	}

	out := make([]recommend.Candidate, 0, in.Count)
	for i := range vectors {
		v := &vectors[i]
		if in.Exclude.Has(v.ItemID) {
			continue
		}

		score := v.CombinedScore()
		if !derived {
			score = 0
			if maxRaw > 0 {
				score = v.RawPopularity() / maxRaw
			}
		}

		cand := recommend.Candidate{
			ItemID:  v.ItemID,
			Score:   clip01(score),
			Reasons: popularityReasons(v),
		}
		if items != nil {
			item, ok := items[v.ItemID]
			if !ok {
				continue
			}
			cand.Item = item
		}
		out = append(out, cand)
	}

	// Raw popularity can reorder items whose combined scores tie.
	sortCandidates(out)
	return truncate(out, in.Count), nil
}

func (p *Popularity) fromCatalog(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	if p.catalog == nil {
		return nil, nil
	}
	items, err := p.catalog.GetPopularItems(ctx, fetchLimit(in.Count, in.Exclude), in.Exclude.IDs())
	if err != nil {
		return nil, fmt.Errorf("catalog popular items: %w", err)
	}

	out := make([]recommend.Candidate, 0, in.Count)
	for _, item := range items {
		if item == nil || in.Exclude.Has(item.ID) || item.AvgRating < p.cfg.MinRating {
			continue
		}
		reasons := []string{ReasonPopularItem}
		if item.AvgRating >= highlyRatedRating {
			reasons = append(reasons, ReasonHighlyRated)
		}
		out = append(out, recommend.Candidate{
			ItemID:  item.ID,
			Item:    item,
			Score:   clip01(item.AvgRating / 5),
			Reasons: reasons,
		})
	}
	sortCandidates(out)
	return truncate(out, in.Count), nil
}

func popularityReasons(v *models.ItemVector) []string {
	reasons := make([]string, 0, 2)
	if v.RecencyScore >= trendingRecency {
		reasons = append(reasons, ReasonTrendingItem)
	} else {
		reasons = append(reasons, ReasonPopularItem)
	}
	if v.RatingAverage >= highlyRatedRating {
		reasons = append(reasons, ReasonHighlyRated)
	}
	return reasons
}

var _ recommend.Strategy = (*Popularity)(nil)
