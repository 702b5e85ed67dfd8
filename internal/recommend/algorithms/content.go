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

// ContentBased recommends items matching a reader's preferred authors and
// genres.
//
// Selection runs in three passes, each skipping items already chosen:
//
//  1. items by preferred authors, scored AuthorScore
//  2. items in preferred genres, scored GenreScore
//  3. globally popular items, scored PopularScore
//
// Readers without explicit preferences get pseudo-preferences: the union of
// genres and authors of their HistoryLookback most recent history entries.
type ContentBased struct {
	catalog recommend.Catalog
	history recommend.ReadingHistory
	cfg     recommend.ContentBasedConfig
	logger  zerolog.Logger
}

// NewContentBased creates a content-based strategy. history may be nil, in
// which case readers without explicit preferences only get popular items.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContentBased(catalog recommend.Catalog, history recommend.ReadingHistory, cfg recommend.ContentBasedConfig, logger zerolog.Logger) *ContentBased {
	defaults := recommend.DefaultConfig().ContentBased
	if cfg.AuthorScore == 0 {
		cfg.AuthorScore = defaults.AuthorScore
	}
	if cfg.GenreScore == 0 {
		cfg.GenreScore = defaults.GenreScore
	}
	if cfg.PopularScore == 0 {
		cfg.PopularScore = defaults.PopularScore
	}
	if cfg.HistoryLookback <= 0 {
		cfg.HistoryLookback = defaults.HistoryLookback
	}
	return &ContentBased{
		catalog: catalog,
		history: history,
		cfg:     cfg,
		logger:  logger.With().Str("strategy", string(models.AlgorithmContentBased)).Logger(),
	}
}

// Name implements recommend.Strategy.
func (c *ContentBased) Name() models.Algorithm {
	return models.AlgorithmContentBased
}

// Score implements recommend.Strategy.
func (c *ContentBased) Score(ctx context.Context, in recommend.ScoringInput) ([]recommend.Candidate, error) {
	if in.Count <= 0 {
		return nil, nil
	}

	authors, genres, err := c.preferences(ctx, in)
	if err != nil {
		return nil, err
	}

	picker := newPicker(in.Count, in.Exclude)

	if len(authors) > 0 {
		items, err := c.catalog.GetItemsByAuthor(ctx, authors, fetchLimit(in.Count, in.Exclude))
		if err != nil {
			return nil, fmt.Errorf("items by author: %w", err)
		}
		picker.add(items, c.cfg.AuthorScore, ReasonPreferredAuthor)
	}

	if !picker.full() && len(genres) > 0 {
		items, err := c.catalog.GetItemsByCategory(ctx, genres, fetchLimit(in.Count, in.Exclude)+picker.len())
		if err != nil {
			return nil, fmt.Errorf("items by category: %w", err)
		}
		picker.add(items, c.cfg.GenreScore, ReasonPreferredGenre)
	}

	if !picker.full() {
		skip := append(in.Exclude.IDs(), picker.ids()...)
		items, err := c.catalog.GetPopularItems(ctx, in.Count-picker.len(), skip)
		if err != nil {
			return nil, fmt.Errorf("popular items: %w", err)
		}
		picker.add(items, c.cfg.PopularScore, ReasonPopularItem)
	}

	if picker.len() == 0 {
		return nil, fmt.Errorf("content based for %s: %w", in.UserID, recommend.ErrInsufficientData)
	}

	c.logger.Debug().
		Str("user_id", in.UserID).
		Int("authors", len(authors)).
		Int("genres", len(genres)).
		Int("candidates", picker.len()).
		Msg("content based scoring complete")

	return picker.out, nil
}

// preferences returns the explicit preferences of the profile or, when it
// has none, pseudo-preferences from recent reading history.
func (c *ContentBased) preferences(ctx context.Context, in recommend.ScoringInput) (authors, genres []string, err error) {
	if in.Profile != nil && in.Profile.HasExplicitPreferences() {
		return in.Profile.PreferredAuthors, in.Profile.PreferredGenres, nil
	}
	if c.history == nil {
		return nil, nil, nil
	}

	entries, err := c.history.GetUserHistory(ctx, in.UserID, c.cfg.HistoryLookback)
	if err != nil {
		return nil, nil, fmt.Errorf("reading history: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ItemID)
	}
	items, err := c.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("history items: %w", err)
	}

	seenAuthors := make(map[string]struct{})
	seenGenres := make(map[string]struct{})
	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			continue
		}
		authors = appendUnique(authors, seenAuthors, item.Authors...)
		genres = appendUnique(genres, seenGenres, item.Categories...)
	}
	return authors, genres, nil
}

// picker accumulates candidates up to a limit, skipping excluded and
// already chosen items.
type picker struct {
	limit   int
	exclude recommend.ExcludeSet
	chosen  map[string]struct{}
	out     []recommend.Candidate
}

func newPicker(limit int, exclude recommend.ExcludeSet) *picker {
	return &picker{
		limit:   limit,
		exclude: exclude,
		chosen:  make(map[string]struct{}, limit),
		out:     make([]recommend.Candidate, 0, limit),
	}
}

func (p *picker) add(items []*models.Item, score float64, reason string) {
	for _, item := range items {
		if p.full() {
			return
		}
		if item == nil || excluded(item.ID, p.exclude, p.chosen) {
			continue
		}
		p.chosen[item.ID] = struct{}{}
		p.out = append(p.out, recommend.Candidate{
			ItemID:  item.ID,
			Item:    item,
			Score:   clip01(score),
			Reasons: []string{reason},
		})
	}
}

func (p *picker) full() bool { return len(p.out) >= p.limit }

func (p *picker) len() int { return len(p.out) }

func (p *picker) ids() []string {
	ids := make([]string, 0, len(p.out))
	for _, c := range p.out {
		ids = append(ids, c.ItemID)
	}
	return ids
}

var _ recommend.Strategy = (*ContentBased)(nil)
