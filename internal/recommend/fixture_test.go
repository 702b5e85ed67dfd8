// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

var (
	testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	errBoom = errors.New("boom")
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(t eventbus.Type) []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []eventbus.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// stubStrategy returns canned candidates or an error, or blocks until the
// context is done.
type stubStrategy struct {
	name  models.Algorithm
	cands []recommend.Candidate
	err   error
	block bool
}

func (s *stubStrategy) Name() models.Algorithm { return s.name }

func (s *stubStrategy) Score(ctx context.Context, _ recommend.ScoringInput) ([]recommend.Candidate, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]recommend.Candidate(nil), s.cands...), nil
}

type fixture struct {
	store  *memstore.Store
	cache  *cache.Memory
	events *recordingPublisher
	engine *recommend.Engine
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	noEvents   bool
	emptyStore bool
	override   map[models.Algorithm]recommend.Strategy
	cfg        *recommend.Config
}

func withoutEvents() fixtureOption { return func(c *fixtureConfig) { c.noEvents = true } }

func withEmptyCatalog() fixtureOption { return func(c *fixtureConfig) { c.emptyStore = true } }

func withStrategy(s recommend.Strategy) fixtureOption {
	return func(c *fixtureConfig) { c.override[s.Name()] = s }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	fc := &fixtureConfig{override: map[models.Algorithm]recommend.Strategy{}, cfg: recommend.DefaultConfig()}
	for _, opt := range opts {
		opt(fc)
	}

	clock := func() time.Time { return testNow }
	store := memstore.New(memstore.WithClock(clock))
	if !fc.emptyStore {
		seedCatalog(t, store)
	}
	mem := cache.NewMemory(1000, cache.WithClock(clock), cache.WithCleanupInterval(0))
	t.Cleanup(func() { _ = mem.Close() })

	strategies := algorithms.NewStrategies(algorithms.Deps{
		Catalog:      store,
		History:      store,
		Interactions: store,
		Vectors:      store,
	}, fc.cfg, zerolog.Nop())
	for alg, s := range fc.override {
		strategies[alg] = s
	}

	f := &fixture{store: store, cache: mem, events: &recordingPublisher{}}
	deps := recommend.EngineDeps{
		Strategies: strategies,
		Stores:     store.Stores(),
		Catalog:    store,
		History:    store,
		Cache:      mem,
	}
	if !fc.noEvents {
		deps.Events = f.events
	}

	engine, err := recommend.NewEngine(fc.cfg, deps, zerolog.Nop(), recommend.WithClock(clock))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	f.engine = engine
	return f
}

type seedItem struct {
	id      string
	author  string
	genre   string
	rating  float64
	recency float64
}

var catalog = []seedItem{
	{"asimov-foundation", "Isaac Asimov", "scifi", 4.6, 0.2},
	{"asimov-robots", "Isaac Asimov", "scifi", 4.3, 0.2},
	{"asimov-end", "Isaac Asimov", "scifi", 4.1, 0.2},
	{"asimov-gods", "Isaac Asimov", "scifi", 3.9, 0.2},
	{"herbert-dune", "Frank Herbert", "scifi", 4.7, 0.3},
	{"austen-pride", "Jane Austen", "romance", 4.8, 0.1},
	{"christie-orient", "Agatha Christie", "mystery", 4.2, 0.9},
	{"christie-nile", "Agatha Christie", "mystery", 4.0, 0.5},
	{"tolkien-hobbit", "J.R.R. Tolkien", "fantasy", 4.9, 0.4},
	{"weak-novel", "Nobody", "drama", 2.1, 0.9},
}

func seedCatalog(t *testing.T, s *memstore.Store) {
	t.Helper()
	for i, it := range catalog {
		s.PutItem(&models.Item{
			ID:              it.id,
			Title:           it.id,
			Authors:         []string{it.author},
			Categories:      []string{it.genre},
			AvgRating:       it.rating,
			PublicationDate: testNow.AddDate(-i, 0, 0),
		})
		err := s.UpsertVector(context.Background(), &models.ItemVector{
			ItemID:          it.id,
			PopularityScore: it.rating / 5,
			QualityScore:    it.rating / 5,
			RecencyScore:    it.recency,
			RatingAverage:   it.rating,
			RatingCount:     10,
		})
		if err != nil {
			t.Fatalf("UpsertVector() error = %v", err)
		}
	}
}

func (f *fixture) setPreferences(t *testing.T, userID string, upd recommend.PreferencesUpdate) {
	t.Helper()
	if _, err := f.engine.UpdatePreferences(context.Background(), userID, upd); err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}
}

func (f *fixture) rate(t *testing.T, userID, itemID string, rating float64, at time.Time) {
	t.Helper()
	_, err := f.engine.RecordInteraction(context.Background(), &models.Interaction{
		UserID:    userID,
		ItemID:    itemID,
		Type:      models.InteractionRating,
		Value:     models.Float64(rating),
		Timestamp: at,
	})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
}

func (f *fixture) generate(t *testing.T, req recommend.Request) *recommend.Response {
	t.Helper()
	resp, err := f.engine.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return resp
}

func itemIDs(resp *recommend.Response) []string {
	out := make([]string, len(resp.Items))
	for i := range resp.Items {
		out[i] = resp.Items[i].ItemID
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
