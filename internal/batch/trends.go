// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// TrendJobName names the trend job.
const TrendJobName = "trends"

// Activity weights of the trend score.
const (
	trendViewWeight     = 1.0
	trendDownloadWeight = 2.0
	trendShareWeight    = 3.0
)

// TrendConfig configures the trend job.
type TrendConfig struct {
	// Limit caps the overall and new release lists.
	Limit int `koanf:"limit"`

	// PerGenreLimit caps each genre's list.
	PerGenreLimit int `koanf:"per_genre_limit"`

	// NewReleaseWindow is how recently an item must be published to count
	// as a new release.
	NewReleaseWindow time.Duration `koanf:"new_release_window"`

	// Retention is how long deactivated entries are kept.
	Retention time.Duration `koanf:"retention"`
}

// DefaultTrendConfig returns production defaults.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		Limit:            50,
		PerGenreLimit:    10,
		NewReleaseWindow: 90 * 24 * time.Hour,
		Retention:        30 * 24 * time.Hour,
	}
}

// TrendJob recomputes every trend list.
type TrendJob struct {
	interactions recommend.InteractionLog
	catalog      recommend.Catalog
	trends       recommend.TrendStore
	cfg          TrendConfig
	logger       zerolog.Logger
	now          func() time.Time
}

var _ Job = (*TrendJob)(nil)

// NewTrendJob creates the job.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrendJob(interactions recommend.InteractionLog, catalog recommend.Catalog, trends recommend.TrendStore, cfg TrendConfig, logger zerolog.Logger, opts ...Option) *TrendJob {
	def := DefaultTrendConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.PerGenreLimit <= 0 {
		cfg.PerGenreLimit = def.PerGenreLimit
	}
	if cfg.NewReleaseWindow <= 0 {
		cfg.NewReleaseWindow = def.NewReleaseWindow
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	o := applyOptions(opts)
	return &TrendJob{
		interactions: interactions,
		catalog:      catalog,
		trends:       trends,
		cfg:          cfg,
		logger:       logger.With().Str("job", TrendJobName).Logger(),
		now:          o.now,
	}
}

// Name implements Job.
func (j *TrendJob) Name() string { return TrendJobName }

// itemActivity accumulates one item's activity within a window.
type itemActivity struct {
	itemID    string
	views     int64
	downloads int64
	shares    int64
	first     float64
	second    float64
	score     float64
	velocity  float64
}

func (a *itemActivity) total() float64 { return a.first + a.second }

// Run implements Job. Lists are computed concurrently and each replaces its
// active ranking atomically.
func (j *TrendJob) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	res.Job = TrendJobName
	defer func() { finish(&res, start, err) }()

	now := j.now()
	longest := time.Duration(0)
	for _, p := range models.TrendPeriods {
		d, _ := p.Duration()
		longest = max(longest, d)
	}

	log, err := j.interactions.InteractionsSince(ctx, now.Add(-longest))
	if err != nil {
		return res, fmt.Errorf("load interactions: %w", err)
	}
	res.Processed = len(log)

	ids := make(map[string]struct{})
	for i := range log {
		ids[log[i].ItemID] = struct{}{}
	}
	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}
	sort.Strings(idList)
	items, err := j.catalog.GetItems(ctx, idList)
	if err != nil {
		return res, fmt.Errorf("load items: %w", err)
	}

	written := make([]int, len(models.TrendPeriods)*len(models.TrendTypes))
	g, gctx := errgroup.WithContext(ctx)
	for pi, period := range models.TrendPeriods {
		windowStart, windowEnd, err := period.Window(now)
		if err != nil {
			return res, err
		}
		activity := scoreWindow(log, windowStart, windowEnd)

		for ti, trendType := range models.TrendTypes {
			slot := pi*len(models.TrendTypes) + ti
			g.Go(func() error {
				entries := j.rank(activity, items, period, trendType, windowStart, windowEnd, now)
				if err := j.trends.ReplaceActive(gctx, period, trendType, entries, now); err != nil {
					return fmt.Errorf("replace %s/%s trends: %w", period, trendType, err)
				}
				written[slot] = len(entries)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	for _, w := range written {
		res.Written += w
	}

	deleted, err := j.trends.DeleteInactiveBefore(ctx, now.Add(-j.cfg.Retention))
	if err != nil {
		return res, fmt.Errorf("delete stale trends: %w", err)
	}
	res.Deleted = deleted

	j.logger.Info().
		Int("interactions", res.Processed).
		Int("entries", res.Written).
		Int("deleted", deleted).
		Msg("trends recomputed")
	return res, nil
}

// scoreWindow aggregates activity per item within [start, end]. Velocity is
// the second-half activity minus the first-half activity per day of window.
func scoreWindow(log []models.Interaction, start, end time.Time) []*itemActivity {
	mid := start.Add(end.Sub(start) / 2)
	days := end.Sub(start).Hours() / 24
	byItem := make(map[string]*itemActivity)
	for i := range log {
		in := &log[i]
		if in.Timestamp.Before(start) || in.Timestamp.After(end) {
			continue
		}
		var w float64
		switch in.Type {
		case models.InteractionView:
			w = trendViewWeight
		case models.InteractionDownload:
			w = trendDownloadWeight
		case models.InteractionShare:
			w = trendShareWeight
		default:
			continue
		}
		a, ok := byItem[in.ItemID]
		if !ok {
			a = &itemActivity{itemID: in.ItemID}
			byItem[in.ItemID] = a
		}
		switch in.Type {
		case models.InteractionView:
			a.views++
		case models.InteractionDownload:
			a.downloads++
		case models.InteractionShare:
			a.shares++
		}
		if in.Timestamp.Before(mid) {
			a.first += w
		} else {
			a.second += w
		}
	}

	out := make([]*itemActivity, 0, len(byItem))
	for _, a := range byItem {
		a.velocity = (a.second - a.first) / days
		a.score = a.total() + a.velocity
		out = append(out, a)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].score != out[k].score {
			return out[i].score > out[k].score
		}
		if out[i].total() != out[k].total() {
			return out[i].total() > out[k].total()
		}
		return out[i].itemID < out[k].itemID
	})
	return out
}

// rank builds the entries of one list from window activity already in
// score order.
func (j *TrendJob) rank(activity []*itemActivity, items map[string]*models.Item, period models.TrendPeriod, trendType models.TrendType, start, end, now time.Time) []models.TrendEntry {
	entry := func(a *itemActivity, genre string, rank int) models.TrendEntry {
		return models.TrendEntry{
			ID:          uuid.NewString(),
			ItemID:      a.itemID,
			TrendType:   trendType,
			Period:      period,
			Genre:       genre,
			WindowStart: start,
			WindowEnd:   end,
			TrendScore:  a.score,
			Velocity:    a.velocity,
			Rank:        rank,
			Views:       a.views,
			Downloads:   a.downloads,
			Shares:      a.shares,
			IsActive:    true,
			CreatedAt:   now,
		}
	}

	var out []models.TrendEntry
	switch trendType {
	case models.TrendTypeOverall:
		for _, a := range activity {
			if len(out) == j.cfg.Limit {
				break
			}
			out = append(out, entry(a, "", len(out)+1))
		}

	case models.TrendTypeNewReleases:
		cutoff := now.Add(-j.cfg.NewReleaseWindow)
		for _, a := range activity {
			if len(out) == j.cfg.Limit {
				break
			}
			item, ok := items[a.itemID]
			if !ok || item.PublicationDate.IsZero() || item.PublicationDate.Before(cutoff) {
				continue
			}
			out = append(out, entry(a, "", len(out)+1))
		}

	case models.TrendTypeGenre:
		ranks := make(map[string]int)
		for _, a := range activity {
			item, ok := items[a.itemID]
			if !ok {
				continue
			}
			for _, genre := range item.Categories {
				if ranks[genre] == j.cfg.PerGenreLimit {
					continue
				}
				ranks[genre]++
				out = append(out, entry(a, genre, ranks[genre]))
			}
		}
	}
	return out
}
