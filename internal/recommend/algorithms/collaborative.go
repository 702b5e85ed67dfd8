// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// Collaborative implements user-based collaborative filtering.
//
// Neighbours are drawn from the CandidatePoolSize most recently active
// raters. A neighbour qualifies when it shares at least MinSharedItems rated
// items with the target and the Jaccard similarity of their engaged sets
// (completed or rated items) reaches SimilarityFloor. At most
// MaxSimilarUsers of the most similar neighbours contribute.
//
// An item the target has not interacted with is scored by the
// similarity-weighted average of the neighbours' ratings, divided by 5:
//
//	score(i) = sum(sim(u) * r(u, i)) / sum(sim(u)) / 5
//
// Only items liked (rated >= MinLikedRating) by at least one neighbour are
// candidates. Equal scores are ordered by the larger aggregate
// sum(sim(u) * r(u, i)), then by item id.
type Collaborative struct {
	interactions recommend.InteractionLog
	catalog      recommend.Catalog
	fallback     recommend.Strategy
	cfg          recommend.CollaborativeConfig
	logger       zerolog.Logger
}

// NewCollaborative creates a collaborative strategy. When no neighbours are
// found it delegates to fallback, or returns recommend.ErrInsufficientData
// if fallback is nil. catalog may be nil, in which case candidates carry no
// item record.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollaborative(interactions recommend.InteractionLog, catalog recommend.Catalog, cfg recommend.CollaborativeConfig, fallback recommend.Strategy, logger zerolog.Logger) *Collaborative {
	defaults := recommend.DefaultConfig().Collaborative
	if cfg.MinSharedItems <= 0 {
		cfg.MinSharedItems = defaults.MinSharedItems
	}
	if cfg.CandidatePoolSize <= 0 {
		cfg.CandidatePoolSize = defaults.CandidatePoolSize
	}
	if cfg.MaxSimilarUsers <= 0 {
		cfg.MaxSimilarUsers = defaults.MaxSimilarUsers
	}
	if cfg.MinLikedRating <= 0 {
		cfg.MinLikedRating = defaults.MinLikedRating
	}
	return &Collaborative{
		interactions: interactions,
		catalog:      catalog,
		fallback:     fallback,
		cfg:          cfg,
		logger:       logger.With().Str("strategy", string(models.AlgorithmCollaborative)).Logger(),
	}
}

// Name implements recommend.Strategy.
func (c *Collaborative) Name() models.Algorithm {
	return models.AlgorithmCollaborative
}

// neighbour is a similar user and its ratings.
type neighbour struct {
	userID     string
	similarity float64
	ratings    map[string]float64
}

// itemAggregate accumulates neighbour ratings of one item.
type itemAggregate struct {
	weighted float64
	simSum   float64
	likers   int
}

// Score implements recommend.Strategy.
func (c *Collaborative) Score(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	if in.Count <= 0 {
		return nil, nil
	}

	cands, err := c.score(ctx, in)
	if errors.Is(err, recommend.ErrInsufficientData) && c.fallback != nil {
		c.logger.Debug().Str("user_id", in.UserID).Msg("no similar users, falling back to content based")
		return c.fallback.Score(ctx, in)
	}
	return cands, err
}

func (c *Collaborative) score(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	targetRatings, err := c.interactions.UserRatings(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("target ratings: %w", err)
	}
	if len(targetRatings) < c.cfg.MinSharedItems {
		return nil, fmt.Errorf("user %s has %d ratings: %w", in.UserID, len(targetRatings), recommend.ErrInsufficientData)
	}

	targetEngaged, targetSeen, err := c.engagement(ctx, in.UserID, targetRatings)
	if err != nil {
		return nil, err
	}

	neighbours, err := c.neighbours(ctx, in.UserID, targetRatings, targetEngaged)
	if err != nil {
		return nil, err
	}
	if len(neighbours) == 0 {
		return nil, fmt.Errorf("no similar users for %s: %w", in.UserID, recommend.ErrInsufficientData)
	}

	aggregates := make(map[string]*itemAggregate)
	for _, n := range neighbours {
		for itemID, rating := range n.ratings {
			if _, seen := targetSeen[itemID]; seen || in.Exclude.Has(itemID) {
				continue
			}
			agg, ok := aggregates[itemID]
			if !ok {
				agg = &itemAggregate{}
				aggregates[itemID] = agg
			}
			agg.weighted += n.similarity * rating
			agg.simSum += n.similarity
			if rating >= c.cfg.MinLikedRating {
				agg.likers++
			}
		}
	}

	type ranked struct {
		itemID string
		score  float64
		agg    *itemAggregate
	}
	rankedItems := make([]ranked, 0, len(aggregates))
	for itemID, agg := range aggregates {
		if agg.likers == 0 || agg.simSum == 0 {
			continue
		}
		rankedItems = append(rankedItems, ranked{
			itemID: itemID,
			score:  clip01(agg.weighted / agg.simSum / 5),
			agg:    agg,
		})
	}
	if len(rankedItems) == 0 {
		return nil, fmt.Errorf("similar users of %s liked nothing new: %w", in.UserID, recommend.ErrInsufficientData)
	}

	sort.Slice(rankedItems, func(i, j int) bool {
		a, b := rankedItems[i], rankedItems[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.agg.weighted != b.agg.weighted {
			return a.agg.weighted > b.agg.weighted
		}
		return a.itemID < b.itemID
	})

	// Over-fetch so items missing from the catalog do not shrink the result.
	if len(rankedItems) > 2*in.Count {
		rankedItems = rankedItems[:2*in.Count]
	}

	var items map[string]*models.Item
	if c.catalog != nil {
		ids := make([]string, 0, len(rankedItems))
		for _, r := range rankedItems {
			ids = append(ids, r.itemID)
		}
		items, err = c.catalog.GetItems(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("candidate items: %w", err)
		}
	}

	out := make([]recommend.Candidate, 0, in.Count)
	for _, r := range rankedItems {
		if len(out) == in.Count {
			break
		}
		cand := recommend.Candidate{
			ItemID:  r.itemID,
			Score:   r.score,
			Reasons: []string{fmt.Sprintf("liked by %d similar users", r.agg.likers)},
		}
		if items != nil {
			item, ok := items[r.itemID]
			if !ok {
				continue
			}
			cand.Item = item
		}
		out = append(out, cand)
	}

	c.logger.Debug().
		Str("user_id", in.UserID).
		Int("neighbours", len(neighbours)).
		Int("candidates", len(out)).
		Msg("collaborative scoring complete")

	return out, nil
}

// engagement returns the engaged set (completed or rated items) and the
// seen set (every item the user interacted with) of a user.
func (c *Collaborative) engagement(ctx context.Context, userID string, ratings map[string]float64) (engaged, seen map[string]struct{}, err error) {
	history, err := c.interactions.UserInteractions(ctx, userID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("interactions of %s: %w", userID, err)
	}

	engaged = make(map[string]struct{}, len(ratings))
	seen = make(map[string]struct{}, len(history))
	for itemID := range ratings {
		engaged[itemID] = struct{}{}
		seen[itemID] = struct{}{}
	}
	for i := range history {
		seen[history[i].ItemID] = struct{}{}
		if history[i].Type == models.InteractionReadComplete {
			engaged[history[i].ItemID] = struct{}{}
		}
	}
	return engaged, seen, nil
}

// neighbours scans the candidate pool and returns qualifying users, most
// similar first.
func (c *Collaborative) neighbours(ctx context.Context, userID string, targetRatings map[string]float64, targetEngaged map[string]struct{}) ([]neighbour, error) {
	pool, err := c.interactions.RecentlyActiveUsers(ctx, userID, c.cfg.CandidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("candidate pool: %w", err)
	}

	var out []neighbour
	for _, other := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ratings, err := c.interactions.UserRatings(ctx, other)
		if err != nil {
			return nil, fmt.Errorf("ratings of %s: %w", other, err)
		}
		if sharedKeys(targetRatings, ratings) < c.cfg.MinSharedItems {
			continue
		}

		engaged, _, err := c.engagement(ctx, other, ratings)
		if err != nil {
			return nil, err
		}
		sim := Jaccard(targetEngaged, engaged)
		if sim <= 0 || sim < c.cfg.SimilarityFloor {
			continue
		}
		out = append(out, neighbour{userID: other, similarity: sim, ratings: ratings})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].similarity != out[j].similarity {
			return out[i].similarity > out[j].similarity
		}
		return out[i].userID < out[j].userID
	})
	if len(out) > c.cfg.MaxSimilarUsers {
		out = out[:c.cfg.MaxSimilarUsers]
	}
	return out, nil
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func sharedKeys(a, b map[string]float64) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

var _ recommend.Strategy = (*Collaborative)(nil)
