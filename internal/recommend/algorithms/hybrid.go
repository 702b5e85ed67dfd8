// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// Diversity bonus parameters of the hybrid blend.
const (
	diversityBonusPerStrategy = 0.1
	maxDiversityBonus         = 0.3
)

// Hybrid blends content-based, collaborative and popularity scores.
//
// Each part is asked for 2*Count candidates. Contributions are merged per
// item:
//
//	score(i) = clip(sum(w_s * score_s(i)) + min(0.1 * contributors(i), 0.3), 0, 1)
//
// Parts run in a fixed order (content, collaborative, popularity) and equal
// scores keep the order in which items were first contributed, so the output
// is deterministic.
type Hybrid struct {
	parts   []hybridPart
	weights recommend.HybridWeights
	logger  zerolog.Logger
}

type hybridPart struct {
	strategy recommend.Strategy
	weight   float64
}

// NewHybrid creates a hybrid strategy. Nil strategies and zero weights are
// skipped. Weights are normalised to sum to 1.0.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHybrid(content, collaborative, popularity recommend.Strategy, weights recommend.HybridWeights, logger zerolog.Logger) *Hybrid {
	w := weights.Normalize()
	h := &Hybrid{
		weights: w,
		logger:  logger.With().Str("strategy", string(models.AlgorithmHybrid)).Logger(),
	}
	for _, p := range []hybridPart{
		{content, w.Content},
		{collaborative, w.Collaborative},
		{popularity, w.Popularity},
	} {
		if p.strategy != nil && p.weight > 0 {
			h.parts = append(h.parts, p)
		}
	}
	return h
}

// Name implements recommend.Strategy.
func (h *Hybrid) Name() models.Algorithm {
	return models.AlgorithmHybrid
}

// Weights returns the normalised blend weights.
func (h *Hybrid) Weights() recommend.HybridWeights {
	return h.weights
}

// Score implements recommend.Strategy.
func (h *Hybrid) Score(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	cands, _, err := h.ScoreDetailed(ctx, in)
	return cands, err
}

// blended accumulates the contributions to one item.
type blended struct {
	cand         recommend.Candidate
	sum          float64
	contributors int
	reasonSet    map[string]struct{}
}

// ScoreDetailed implements recommend.CompositeStrategy.
func (h *Hybrid) ScoreDetailed(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, []string, error) {
	if in.Count <= 0 {
		return nil, nil, nil
	}

	sub := in
	sub.Count = 2 * in.Count

	var (
		failed   []string
		failures []error
		order    []string
		merged   = make(map[string]*blended)
	)

	for _, part := range h.parts {
		if err := ctx.Err(); err != nil {
			return nil, failed, err
		}

		name := string(part.strategy.Name())
		cands, err := part.strategy.Score(ctx, sub)
		switch {
		case err == nil:
		case errors.Is(err, recommend.ErrInsufficientData):
			h.logger.Debug().Str("part", name).Str("user_id", in.UserID).Msg("strategy has no data")
			continue
		case ctx.Err() != nil:
			return nil, failed, ctx.Err()
		default:
			h.logger.Warn().Err(err).Str("part", name).Str("user_id", in.UserID).Msg("strategy failed, continuing without it")
			metrics.RecordStrategyFailure(name, "error")
			failed = append(failed, name)
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}

		for _, c := range cands {
			if in.Exclude.Has(c.ItemID) {
				continue
			}
			b, ok := merged[c.ItemID]
			if !ok {
				b = &blended{
					cand:      recommend.Candidate{ItemID: c.ItemID, Item: c.Item},
					reasonSet: make(map[string]struct{}),
				}
				merged[c.ItemID] = b
				order = append(order, c.ItemID)
			}
			if b.cand.Item == nil {
				b.cand.Item = c.Item
			}
			b.sum += part.weight * c.Score
			b.contributors++
			b.cand.Reasons = appendUnique(b.cand.Reasons, b.reasonSet, c.Reasons...)
		}
	}

	if len(h.parts) > 0 && len(failures) == len(h.parts) {
		return nil, failed, fmt.Errorf("all hybrid strategies failed: %w: %w", recommend.ErrScoringFailure, errors.Join(failures...))
	}
	if len(order) == 0 {
		return nil, failed, fmt.Errorf("hybrid for %s: %w", in.UserID, recommend.ErrInsufficientData)
	}

	out := make([]recommend.Candidate, 0, len(order))
	for _, id := range order {
		b := merged[id]
		b.cand.Score = clip01(b.sum + DiversityBonus(b.contributors))
		out = append(out, b.cand)
	}
	sortCandidates(out)
	out = truncate(out, in.Count)

	h.logger.Debug().
		Str("user_id", in.UserID).
		Int("merged", len(order)).
		Int("returned", len(out)).
		Strs("failed", failed).
		Msg("hybrid scoring complete")

	return out, failed, nil
}

// DiversityBonus is the bonus for an item contributed by n strategies.
func DiversityBonus(n int) float64 {
	return math.Min(diversityBonusPerStrategy*float64(n), maxDiversityBonus)
}

var _ recommend.CompositeStrategy = (*Hybrid)(nil)
