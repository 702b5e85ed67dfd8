// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// Reasons attached to candidates.
const (
	ReasonPreferredAuthor = "preferred author"
	ReasonPreferredGenre  = "preferred genre"
	ReasonPopularItem     = "popular item"
	ReasonTrendingItem    = "trending item"
	ReasonHighlyRated     = "highly rated"
)

// Deps are the collaborators the strategies read from.
type Deps struct {
	Catalog      recommend.Catalog
	History      recommend.ReadingHistory
	Interactions recommend.InteractionLog
	Vectors      recommend.VectorStore
}

// NewStrategies builds every strategy from one configuration. The standalone
// collaborative strategy falls back to content-based scoring; the copy used
// inside the hybrid does not, so a missing neighbourhood degrades to an
// empty contribution instead of double counting content scores.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStrategies(deps Deps, cfg *recommend.Config, logger zerolog.Logger) map[models.Algorithm]recommend.Strategy {
	content := NewContentBased(deps.Catalog, deps.History, cfg.ContentBased, logger)
	popularity := NewPopularity(deps.Vectors, deps.Catalog, cfg.Popularity, logger)
	collaborative := NewCollaborative(deps.Interactions, deps.Catalog, cfg.Collaborative, content, logger)
	hybridCollab := NewCollaborative(deps.Interactions, deps.Catalog, cfg.Collaborative, nil, logger)

	return map[models.Algorithm]recommend.Strategy{
		models.AlgorithmContentBased:  content,
		models.AlgorithmCollaborative: collaborative,
		models.AlgorithmPopularity:    popularity,
		models.AlgorithmHybrid:        NewHybrid(content, hybridCollab, popularity, cfg.Weights, logger),
	}
}

// clip01 bounds a score to [0, 1].
func clip01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// fetchLimit sizes a collaborator query so that count results survive
// exclusion filtering.
func fetchLimit(count int, exclude recommend.ExcludeSet) int {
	return count + len(exclude)
}

// excluded reports whether id is in the request exclusions or already chosen.
func excluded(id string, exclude recommend.ExcludeSet, chosen map[string]struct{}) bool {
	if exclude.Has(id) {
		return true
	}
	_, ok := chosen[id]
	return ok
}

// sortCandidates orders candidates by descending score, keeping the input
// order of equal scores.
func sortCandidates(cands []recommend.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}

// truncate caps cands at n.
func truncate(cands []recommend.Candidate, n int) []recommend.Candidate {
	if n >= 0 && len(cands) > n {
		return cands[:n]
	}
	return cands
}

// appendUnique appends values not already present, preserving order.
func appendUnique(dst []string, seen map[string]struct{}, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
