// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/folio/internal/models"
)

const (
	confidenceCompletenessWeight = 0.4
	confidenceScoreWeight        = 0.6

	// noveltyHistoryLimit bounds the interactions consulted for novelty.
	noveltyHistoryLimit = 500
)

// Diversity is the mean of the distinct-genre and distinct-author ratios
// over the returned items, in [0, 1]. An empty list has zero diversity.
func Diversity(cands []Candidate) float64 {
	if len(cands) == 0 {
		return 0
	}
	genres := make(map[string]struct{})
	authors := make(map[string]struct{})
	for _, c := range cands {
		if c.Item == nil {
			continue
		}
		for _, g := range c.Item.Categories {
			genres[strings.ToLower(g)] = struct{}{}
		}
		for _, a := range c.Item.Authors {
			authors[strings.ToLower(a)] = struct{}{}
		}
	}
	n := float64(len(cands))
	return clip01((float64(len(genres))/n + float64(len(authors))/n) / 2)
}

// Confidence blends profile completeness with the mean candidate score.
func Confidence(p *models.UserProfile, cands []Candidate) float64 {
	var completeness float64
	if p != nil {
		completeness = p.Completeness()
	}
	var mean float64
	if len(cands) > 0 {
		for _, c := range cands {
			mean += c.Score
		}
		mean /= float64(len(cands))
	}
	return clip01(confidenceCompletenessWeight*completeness + confidenceScoreWeight*mean)
}

// Novelty is the fraction of items that introduce a genre or an author the
// user has not interacted with or read before. Items without any genre or
// author are never novel.
func Novelty(cands []Candidate, seenGenres, seenAuthors map[string]struct{}) float64 {
	if len(cands) == 0 {
		return 0
	}
	novel := 0
	for _, c := range cands {
		if c.Item == nil {
			continue
		}
		if introduces(c.Item.Categories, seenGenres) || introduces(c.Item.Authors, seenAuthors) {
			novel++
		}
	}
	return float64(novel) / float64(len(cands))
}

func introduces(values []string, seen map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := seen[strings.ToLower(v)]; !ok {
			return true
		}
	}
	return false
}

// novelty collects the genres and authors of everything the user touched
// and scores the candidates against them.
func (e *Engine) novelty(ctx context.Context, userID string, cands []Candidate) (float64, error) {
	ids := make(map[string]struct{})

	interactions, err := e.stores.Interactions.UserInteractions(ctx, userID, noveltyHistoryLimit)
	if err != nil {
		return 0, fmt.Errorf("load interactions: %w", err)
	}
	for i := range interactions {
		ids[interactions[i].ItemID] = struct{}{}
	}
	if e.history != nil {
		entries, err := e.history.GetUserHistory(ctx, userID, 0)
		if err != nil {
			return 0, fmt.Errorf("load history: %w", err)
		}
		for _, entry := range entries {
			ids[entry.ItemID] = struct{}{}
		}
	}

	seenGenres := make(map[string]struct{})
	seenAuthors := make(map[string]struct{})
	if len(ids) > 0 {
		list := make([]string, 0, len(ids))
		for id := range ids {
			list = append(list, id)
		}
		sort.Strings(list)
		items, err := e.catalog.GetItems(ctx, list)
		if err != nil {
			return 0, fmt.Errorf("load history items: %w", err)
		}
		for _, item := range items {
			for _, g := range item.Categories {
				seenGenres[strings.ToLower(g)] = struct{}{}
			}
			for _, a := range item.Authors {
				seenAuthors[strings.ToLower(a)] = struct{}{}
			}
		}
	}

	return Novelty(cands, seenGenres, seenAuthors), nil
}

// Reason phrases keyed by the reasons strategies attach to candidates.
var reasonPhrases = map[string]string{
	"preferred author": "written by an author you like",
	"preferred genre":  "in a genre you enjoy",
	"popular item":     "popular with other readers",
	"trending item":    "trending right now",
	"highly rated":     "highly rated by readers",
	"similar content":  "similar to books you have read",
	"same author":      "by the same author",
	"same genre":       "in the same genre",
	"read together":    "often read together",
}

// Explain turns candidate reasons into one human-readable sentence.
func Explain(reasons []string) string {
	phrases := make([]string, 0, len(reasons))
	seen := make(map[string]struct{}, len(reasons))
	for _, r := range reasons {
		phrase := explainReason(r)
		if phrase == "" {
			continue
		}
		if _, dup := seen[phrase]; dup {
			continue
		}
		seen[phrase] = struct{}{}
		phrases = append(phrases, phrase)
	}

	switch len(phrases) {
	case 0:
		return "Recommended for you"
	case 1:
		return "Recommended because it is " + phrases[0]
	default:
		last := phrases[len(phrases)-1]
		return "Recommended because it is " + strings.Join(phrases[:len(phrases)-1], ", ") + " and " + last
	}
}

func explainReason(r string) string {
	if phrase, ok := reasonPhrases[r]; ok {
		return phrase
	}
	// "liked by N similar users"
	if rest, ok := strings.CutPrefix(r, "liked by "); ok {
		if n, _, found := strings.Cut(rest, " "); found {
			if count, err := strconv.Atoi(n); err == nil {
				if count == 1 {
					return "liked by a reader with similar taste"
				}
				return fmt.Sprintf("liked by %d readers with similar taste", count)
			}
		}
	}
	return ""
}
