// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

func TestNewEngine_RequiresEveryStrategy(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	_, err := recommend.NewEngine(nil, recommend.EngineDeps{
		Strategies: map[models.Algorithm]recommend.Strategy{
			models.AlgorithmPopularity: &stubStrategy{name: models.AlgorithmPopularity},
		},
		Stores:  store.Stores(),
		Catalog: store,
	}, zerolog.Nop())
	if err == nil {
		t.Fatal("NewEngine() error = nil, want missing strategy error")
	}
}

func TestGenerate_InvalidRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		name string
		req  recommend.Request
		want error
	}{
		{"count above max", recommend.Request{UserID: "u1", Count: 51}, recommend.ErrInvalidRequest},
		{"negative count", recommend.Request{UserID: "u1", Count: -1}, recommend.ErrInvalidRequest},
		{"missing user", recommend.Request{Count: 5}, recommend.ErrInvalidRequest},
		{"unknown algorithm", recommend.Request{UserID: "u1", Algorithm: "bogus"}, recommend.ErrUnknownAlgorithm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Generate() error = %v, want %v", err, tt.want)
			}
		})
	}
	if f.store.SetCount() != 0 {
		t.Errorf("SetCount() = %d after invalid requests, want 0", f.store.SetCount())
	}
}

func TestGenerate_Defaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp := f.generate(t, recommend.Request{UserID: "u1"})

	if resp.RequestedAlgorithm != models.AlgorithmHybrid {
		t.Errorf("RequestedAlgorithm = %q, want hybrid", resp.RequestedAlgorithm)
	}
	if len(resp.Items) == 0 || len(resp.Items) > 10 {
		t.Errorf("len(Items) = %d, want 1..10", len(resp.Items))
	}
	for _, it := range resp.Items {
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("item %s score %v outside [0,1]", it.ItemID, it.Score)
		}
	}

	profile, err := f.engine.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if !profile.RecommendationsEnabled {
		t.Error("default profile should have recommendations enabled")
	}
}

func TestGenerate_ContentBasedPreferredAuthor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.setPreferences(t, "u1", recommend.PreferencesUpdate{PreferredAuthors: []string{"Isaac Asimov"}})

	resp := f.generate(t, recommend.Request{
		UserID:         "u1",
		Algorithm:      models.AlgorithmContentBased,
		Count:          3,
		ExcludeItemIDs: []string{"asimov-foundation"},
	})

	if len(resp.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(resp.Items))
	}
	for i, it := range resp.Items {
		if it.ItemID == "asimov-foundation" {
			t.Error("excluded item returned")
		}
		if !strings.HasPrefix(it.ItemID, "asimov-") {
			t.Errorf("item %s is not by the preferred author", it.ItemID)
		}
		if len(it.Reasons) != 1 || it.Reasons[0] != "preferred author" {
			t.Errorf("item %s reasons = %v, want [preferred author]", it.ItemID, it.Reasons)
		}
		if it.Position != i+1 {
			t.Errorf("item %s position = %d, want %d", it.ItemID, it.Position, i+1)
		}
		if i > 0 && it.Score > resp.Items[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
		if it.Explanation == "" {
			t.Errorf("item %s has no explanation", it.ItemID)
		}
	}

	set, recs, err := f.store.GetSet(context.Background(), resp.SetID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if set.UserID != "u1" || set.Algorithm != models.AlgorithmContentBased {
		t.Errorf("set = %+v", set)
	}
	if len(recs) != 3 {
		t.Fatalf("persisted %d rows, want 3", len(recs))
	}
	for i := range recs {
		if recs[i].Position != i+1 || recs[i].ItemID != resp.Items[i].ItemID {
			t.Errorf("row %d = %+v, want item %s at %d", i, recs[i], resp.Items[i].ItemID, i+1)
		}
	}
	if !set.ExpiresAt.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", set.ExpiresAt, testNow.Add(24*time.Hour))
	}
}

func TestGenerate_Collaborative(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	at := testNow.Add(-time.Hour)
	f.rate(t, "u1", "asimov-foundation", 5, at)
	f.rate(t, "u1", "herbert-dune", 4, at)
	f.rate(t, "u2", "asimov-foundation", 5, at)
	f.rate(t, "u2", "herbert-dune", 5, at)
	f.rate(t, "u2", "tolkien-hobbit", 5, at)

	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmCollaborative, Count: 5})

	if resp.Algorithm != models.AlgorithmCollaborative || resp.FallbackUsed {
		t.Fatalf("served by %s (fallback %v), want collaborative", resp.Algorithm, resp.FallbackUsed)
	}
	if ids := itemIDs(resp); len(ids) != 1 || ids[0] != "tolkien-hobbit" {
		t.Fatalf("items = %v, want [tolkien-hobbit]", ids)
	}
	if got := resp.Items[0].Reasons; len(got) != 1 || got[0] != "liked by 1 similar users" {
		t.Errorf("reasons = %v", got)
	}
	if resp.Items[0].Score != 1 {
		t.Errorf("score = %v, want 1", resp.Items[0].Score)
	}
}

func TestGenerate_DisabledProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.setPreferences(t, "u1", recommend.PreferencesUpdate{RecommendationsEnabled: new(bool)})
	generated := len(f.events.ofType(eventbus.TypeRecommendationGenerated))

	resp := f.generate(t, recommend.Request{UserID: "u1", Count: 5})

	if len(resp.Items) != 0 || resp.Reason != recommend.ReasonDisabled {
		t.Fatalf("response = %+v, want empty with reason %q", resp, recommend.ReasonDisabled)
	}
	if resp.SetID != "" {
		t.Errorf("SetID = %q, want empty", resp.SetID)
	}
	if f.store.SetCount() != 0 {
		t.Errorf("SetCount() = %d, want 0", f.store.SetCount())
	}
	if got := len(f.events.ofType(eventbus.TypeRecommendationGenerated)); got != generated {
		t.Errorf("published %d generated events, want none", got-generated)
	}
}

func TestGenerate_CacheRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	req := recommend.Request{UserID: "u1", Algorithm: models.AlgorithmPopularity, Count: 4}

	first := f.generate(t, req)
	if first.FromCache {
		t.Fatal("first response came from cache")
	}

	second := f.generate(t, req)
	if !second.FromCache {
		t.Fatal("second response did not come from cache")
	}
	if second.SetID != first.SetID {
		t.Errorf("cached SetID = %s, want %s", second.SetID, first.SetID)
	}
	if f.store.SetCount() != 1 {
		t.Errorf("SetCount() = %d, want 1", f.store.SetCount())
	}

	req.ForceRefresh = true
	refreshed := f.generate(t, req)
	if refreshed.FromCache || refreshed.SetID == first.SetID {
		t.Fatalf("force refresh returned set %s (cached %v)", refreshed.SetID, refreshed.FromCache)
	}

	req.ForceRefresh = false
	third := f.generate(t, req)
	if third.SetID != refreshed.SetID {
		t.Errorf("cache holds %s after refresh, want %s", third.SetID, refreshed.SetID)
	}
}

func TestGenerate_CacheKeyDependsOnExclusions(t *testing.T) {
	t.Parallel()

	base := recommend.Request{UserID: "u1", Algorithm: models.AlgorithmHybrid, Count: 5}
	a, b := base, base
	a.ExcludeItemIDs = []string{"x", "y"}
	b.ExcludeItemIDs = []string{"y", "x"}
	if recommend.CacheKey(a) != recommend.CacheKey(b) {
		t.Error("exclusion order changed the cache key")
	}
	if recommend.CacheKey(a) == recommend.CacheKey(base) {
		t.Error("exclusions did not change the cache key")
	}
	if !strings.HasPrefix(recommend.CacheKey(base), "rec:u1:hybrid:5:") {
		t.Errorf("CacheKey() = %q", recommend.CacheKey(base))
	}
}

func TestGenerate_TimeoutFallsBackToPopularity(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withStrategy(&stubStrategy{name: models.AlgorithmHybrid, block: true}))
	resp := f.generate(t, recommend.Request{UserID: "u1", Count: 3, Timeout: 10 * time.Millisecond})

	if !resp.FallbackUsed || resp.Algorithm != models.AlgorithmPopularity {
		t.Fatalf("served by %s fallback=%v, want popularity fallback", resp.Algorithm, resp.FallbackUsed)
	}
	if resp.RequestedAlgorithm != models.AlgorithmHybrid {
		t.Errorf("RequestedAlgorithm = %q", resp.RequestedAlgorithm)
	}
	if len(resp.Items) == 0 {
		t.Error("fallback returned no items")
	}
}

func TestGenerate_StrategyFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withStrategy(&stubStrategy{name: models.AlgorithmContentBased, err: errBoom}))
	_, err := f.engine.Generate(context.Background(), recommend.Request{
		UserID: "u1", Algorithm: models.AlgorithmContentBased, Count: 3,
	})
	if !errors.Is(err, recommend.ErrScoringFailure) || !errors.Is(err, errBoom) {
		t.Fatalf("Generate() error = %v, want ErrScoringFailure wrapping boom", err)
	}
	if f.store.SetCount() != 0 {
		t.Errorf("SetCount() = %d, want 0", f.store.SetCount())
	}
}

func TestGenerate_InsufficientDataFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withStrategy(&stubStrategy{
		name: models.AlgorithmCollaborative,
		err:  recommend.ErrInsufficientData,
	}))
	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmCollaborative, Count: 3})

	if !resp.FallbackUsed || resp.Algorithm != models.AlgorithmPopularity {
		t.Fatalf("served by %s fallback=%v", resp.Algorithm, resp.FallbackUsed)
	}
	if len(resp.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(resp.Items))
	}
	if contains(itemIDs(resp), "weak-novel") {
		t.Error("fallback returned an item below the rating bar")
	}
}

func TestGenerate_EmptyCatalog(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withEmptyCatalog())
	resp := f.generate(t, recommend.Request{UserID: "u1", Count: 5})

	if len(resp.Items) != 0 || resp.Reason != recommend.ReasonNoCandidates {
		t.Fatalf("response = %+v, want empty with reason %q", resp, recommend.ReasonNoCandidates)
	}
	if f.store.SetCount() != 0 {
		t.Errorf("SetCount() = %d, want 0", f.store.SetCount())
	}
}

func TestGenerate_ExcludesReadingHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.AddHistory("u1", models.HistoryEntry{
		ItemID: "tolkien-hobbit", Status: models.ReadingStatusCompleted, Timestamp: testNow.Add(-time.Hour),
	})

	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmPopularity, Count: 9})
	if contains(itemIDs(resp), "tolkien-hobbit") {
		t.Error("item from reading history was recommended")
	}
}

func TestGenerate_ExcludesLoggedInteractions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	at := testNow.Add(-time.Hour)
	f.rate(t, "u1", "tolkien-hobbit", 5, at)
	for _, in := range []*models.Interaction{
		{UserID: "u1", ItemID: "austen-pride", Type: models.InteractionReadComplete, Timestamp: at},
		{UserID: "u1", ItemID: "christie-orient", Type: models.InteractionSearch, Timestamp: at},
	} {
		if _, err := f.engine.RecordInteraction(ctx, in); err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
	}

	for _, alg := range []models.Algorithm{models.AlgorithmPopularity, models.AlgorithmHybrid, models.AlgorithmContentBased} {
		t.Run(string(alg), func(t *testing.T) {
			resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: alg, Count: 9})
			ids := itemIDs(resp)
			for _, seen := range []string{"tolkien-hobbit", "austen-pride"} {
				if contains(ids, seen) {
					t.Errorf("%s recommended already seen item %s: %v", alg, seen, ids)
				}
			}
			if alg == models.AlgorithmPopularity && !contains(ids, "christie-orient") {
				t.Errorf("searched item christie-orient should stay eligible: %v", ids)
			}
		})
	}
}

func TestGenerate_NegativeTimeout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.engine.Generate(context.Background(), recommend.Request{UserID: "u1", Count: 3, Timeout: -time.Second})
	if !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Fatalf("Generate() error = %v, want ErrInvalidRequest", err)
	}
}

func TestGenerate_DropsItemsMissingFromCatalog(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withStrategy(&stubStrategy{
		name: models.AlgorithmContentBased,
		cands: []recommend.Candidate{
			{ItemID: "ghost", Score: 0.99, Reasons: []string{"preferred genre"}},
			{ItemID: "herbert-dune", Score: 0.8, Reasons: []string{"preferred genre"}},
			{ItemID: "herbert-dune", Score: 0.7, Reasons: []string{"preferred genre"}},
		},
	}))
	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmContentBased, Count: 5})

	if ids := itemIDs(resp); len(ids) != 1 || ids[0] != "herbert-dune" {
		t.Fatalf("items = %v, want [herbert-dune]", ids)
	}
	if resp.Items[0].Item == nil || resp.Items[0].Item.Title != "herbert-dune" {
		t.Errorf("item not hydrated: %+v", resp.Items[0].Item)
	}
	if resp.Items[0].Position != 1 {
		t.Errorf("Position = %d, want 1", resp.Items[0].Position)
	}
}

func TestGenerate_PublishesGeneratedEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmPopularity, Count: 3})

	events := f.events.ofType(eventbus.TypeRecommendationGenerated)
	if len(events) != 1 {
		t.Fatalf("published %d generated events, want 1", len(events))
	}
	ev := events[0]
	if ev.SetID != resp.SetID || ev.UserID != "u1" || ev.Algorithm != string(models.AlgorithmPopularity) {
		t.Errorf("event = %+v", ev)
	}
	want := itemIDs(resp)
	if len(ev.ItemIDs) != len(want) {
		t.Fatalf("event items = %v, want %v", ev.ItemIDs, want)
	}
	for i := range want {
		if ev.ItemIDs[i] != want[i] {
			t.Errorf("event item %d = %s, want %s", i, ev.ItemIDs[i], want[i])
		}
	}
}

func TestGenerate_QualityMetrics(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.setPreferences(t, "u1", recommend.PreferencesUpdate{
		PreferredAuthors: []string{"Isaac Asimov"},
		PreferredGenres:  []string{"scifi"},
	})
	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmContentBased, Count: 4})

	for name, v := range map[string]float64{
		"confidence": resp.Confidence,
		"diversity":  resp.Diversity,
		"novelty":    resp.Novelty,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v outside [0,1]", name, v)
		}
	}
	// No interactions or history yet: every item is novel.
	if resp.Novelty != 1 {
		t.Errorf("Novelty = %v, want 1", resp.Novelty)
	}
	if got := resp.Preferences.PreferredAuthors; len(got) != 1 || got[0] != "Isaac Asimov" {
		t.Errorf("echoed authors = %v", got)
	}
}

func TestUpdatePreferences_InvalidatesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	req := recommend.Request{UserID: "u1", Algorithm: models.AlgorithmPopularity, Count: 3}
	first := f.generate(t, req)

	f.setPreferences(t, "u1", recommend.PreferencesUpdate{PreferredGenres: []string{"mystery"}})
	events := f.events.ofType(eventbus.TypePreferencesUpdated)
	if len(events) != 1 || events[0].UserID != "u1" {
		t.Fatalf("preferences_updated events = %+v", events)
	}

	// The subscriber turns the event into an invalidation command.
	if err := f.engine.Execute(ctx, eventbus.InvalidateUserCache{UserID: "u1"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second := f.generate(t, req)
	if second.FromCache || second.SetID == first.SetID {
		t.Error("cache entry survived invalidation")
	}
}

func TestUpdatePreferences_WithoutEventsInvalidatesDirectly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withoutEvents())
	req := recommend.Request{UserID: "u1", Algorithm: models.AlgorithmPopularity, Count: 3}
	first := f.generate(t, req)

	f.setPreferences(t, "u1", recommend.PreferencesUpdate{PreferredGenres: []string{"mystery"}})
	if f.cache.Len() != 0 {
		t.Errorf("cache holds %d entries after update, want 0", f.cache.Len())
	}
	if second := f.generate(t, req); second.SetID == first.SetID {
		t.Error("stale response served after preference change")
	}
}

func TestUpdatePreferences_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	level := models.ReadingLevel("wizard")
	_, err := f.engine.UpdatePreferences(context.Background(), "u1", recommend.PreferencesUpdate{ReadingLevel: &level})
	if !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Fatalf("UpdatePreferences() error = %v, want ErrInvalidRequest", err)
	}
	if _, err := f.engine.UpdatePreferences(context.Background(), "", recommend.PreferencesUpdate{}); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Fatalf("UpdatePreferences(\"\") error = %v, want ErrInvalidRequest", err)
	}
}

func TestExecute_AccreteProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.setPreferences(t, "u1", recommend.PreferencesUpdate{PreferredGenres: []string{"scifi"}})

	err := f.engine.Execute(ctx, eventbus.AccreteProfile{
		UserID:  "u1",
		Genres:  []string{"mystery", "scifi"},
		Authors: []string{"Agatha Christie"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	profile, err := f.engine.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if !contains(profile.PreferredGenres, "mystery") || !contains(profile.PreferredGenres, "scifi") {
		t.Errorf("PreferredGenres = %v", profile.PreferredGenres)
	}
	if len(profile.PreferredGenres) != 2 {
		t.Errorf("PreferredGenres has duplicates: %v", profile.PreferredGenres)
	}
	if !contains(profile.PreferredAuthors, "Agatha Christie") {
		t.Errorf("PreferredAuthors = %v", profile.PreferredAuthors)
	}
}

func TestRecordInteraction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.engine.RecordInteraction(ctx, &models.Interaction{
		UserID: "u1", ItemID: "christie-orient", Type: models.InteractionView,
	})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if rec.ID == "" || !rec.Timestamp.Equal(testNow) {
		t.Errorf("defaults not applied: %+v", rec)
	}
	v, err := f.store.GetVector(ctx, "christie-orient")
	if err != nil {
		t.Fatalf("GetVector() error = %v", err)
	}
	if v.ViewCount != 1 {
		t.Errorf("ViewCount = %d, want 1", v.ViewCount)
	}

	if _, err := f.engine.RecordInteraction(ctx, &models.Interaction{
		UserID: "u1", ItemID: "christie-orient", Type: models.InteractionReadComplete,
	}); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	completed := f.events.ofType(eventbus.TypeItemCompleted)
	if len(completed) != 1 {
		t.Fatalf("item_completed events = %d, want 1", len(completed))
	}
	if !contains(completed[0].Genres, "mystery") || !contains(completed[0].Authors, "Agatha Christie") {
		t.Errorf("item_completed event = %+v", completed[0])
	}
	if got := len(f.events.ofType(eventbus.TypeInteractionRecorded)); got != 2 {
		t.Errorf("interaction_recorded events = %d, want 2", got)
	}
}

func TestRecordInteraction_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		name string
		in   *models.Interaction
	}{
		{"nil", nil},
		{"missing item", &models.Interaction{UserID: "u1", Type: models.InteractionView}},
		{"unknown type", &models.Interaction{UserID: "u1", ItemID: "i", Type: "stare"}},
		{"rating without value", &models.Interaction{UserID: "u1", ItemID: "i", Type: models.InteractionRating}},
		{"rating out of range", &models.Interaction{UserID: "u1", ItemID: "i", Type: models.InteractionRating, Value: models.Float64(6)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := f.engine.RecordInteraction(context.Background(), tt.in); !errors.Is(err, recommend.ErrInvalidRequest) {
				t.Fatalf("RecordInteraction() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestSimilarItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	err := f.store.UpsertEdges(ctx, []models.SimilarityEdge{
		{ItemA: "asimov-foundation", ItemB: "asimov-robots", AuthorScore: 1, GenreScore: 1, Overall: 0.9, ComputedAt: testNow},
		{ItemA: "asimov-foundation", ItemB: "herbert-dune", GenreScore: 1, Overall: 0.6, ComputedAt: testNow},
		{ItemA: "asimov-foundation", ItemB: "ghost", Overall: 0.95, ComputedAt: testNow},
	})
	if err != nil {
		t.Fatalf("UpsertEdges() error = %v", err)
	}

	got, err := f.engine.SimilarItems(ctx, "asimov-foundation", 5)
	if err != nil {
		t.Fatalf("SimilarItems() error = %v", err)
	}
	if len(got) != 2 || got[0].ItemID != "asimov-robots" || got[1].ItemID != "herbert-dune" {
		t.Fatalf("SimilarItems() = %+v", got)
	}
	if r := got[0].Reasons; len(r) != 2 || r[0] != recommend.ReasonSameAuthor || r[1] != recommend.ReasonSameGenre {
		t.Errorf("reasons = %v", r)
	}

	if _, err := f.engine.SimilarItems(ctx, "nope", 5); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("SimilarItems(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestTrending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	start := testNow.Add(-24 * time.Hour)
	err := f.store.ReplaceActive(ctx, models.TrendPeriodDay, models.TrendTypeOverall, []models.TrendEntry{
		{ID: "t1", ItemID: "christie-orient", TrendType: models.TrendTypeOverall, Period: models.TrendPeriodDay,
			WindowStart: start, WindowEnd: testNow, TrendScore: 9, Rank: 1},
		{ID: "t2", ItemID: "ghost", TrendType: models.TrendTypeOverall, Period: models.TrendPeriodDay,
			WindowStart: start, WindowEnd: testNow, TrendScore: 5, Rank: 2},
	}, testNow)
	if err != nil {
		t.Fatalf("ReplaceActive() error = %v", err)
	}

	got, err := f.engine.Trending(ctx, models.TrendPeriodDay, models.TrendTypeOverall, 0)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "christie-orient" || got[0].Rank != 1 {
		t.Fatalf("Trending() = %+v", got)
	}

	if _, err := f.engine.Trending(ctx, "fortnight", models.TrendTypeOverall, 5); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Errorf("unknown period error = %v", err)
	}
	if _, err := f.engine.Trending(ctx, models.TrendPeriodDay, models.TrendTypeOverall, 99); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Errorf("oversized limit error = %v", err)
	}
}
