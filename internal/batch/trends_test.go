// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

func seedTrends(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	s.PutItem(&models.Item{ID: "x", Categories: []string{"g1"}, PublicationDate: testNow.AddDate(0, 0, -10)})
	s.PutItem(&models.Item{ID: "y", Categories: []string{"g1"}, PublicationDate: testNow.AddDate(-2, 0, 0)})
	s.PutItem(&models.Item{ID: "z", Categories: []string{"g2"}, PublicationDate: testNow.AddDate(-2, 0, 0)})

	add := func(item string, typ models.InteractionType, ago time.Duration) {
		err := s.AppendInteraction(ctx, &models.Interaction{
			ID: item + string(typ) + ago.String(), UserID: "u", ItemID: item, Type: typ, Timestamp: testNow.Add(-ago),
		})
		if err != nil {
			t.Fatalf("AppendInteraction() error = %v", err)
		}
	}
	// Day window halves split at 12 hours ago.
	add("x", models.InteractionView, time.Hour)
	add("x", models.InteractionView, 2*time.Hour)
	add("x", models.InteractionView, 3*time.Hour)
	add("y", models.InteractionDownload, 20*time.Hour)
	add("y", models.InteractionView, time.Hour)
	add("z", models.InteractionShare, time.Hour)
	add("z", models.InteractionRating, time.Hour)
	add("w", models.InteractionView, 40*24*time.Hour)
	return s
}

func TestScoreWindow(t *testing.T) {
	t.Parallel()

	s := seedTrends(t)
	log, err := s.InteractionsSince(context.Background(), testNow.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("InteractionsSince() error = %v", err)
	}
	got := scoreWindow(log, testNow.Add(-24*time.Hour), testNow)

	want := []struct {
		id       string
		score    float64
		velocity float64
	}{
		{"x", 6, 3},
		{"z", 6, 3},
		{"y", 2, -1},
	}
	if len(got) != len(want) {
		t.Fatalf("scoreWindow() returned %d items, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].itemID != w.id || !approx(got[i].score, w.score) || !approx(got[i].velocity, w.velocity) {
			t.Errorf("rank %d = %+v, want %s score %v velocity %v", i+1, *got[i], w.id, w.score, w.velocity)
		}
	}
}

func TestTrendJob_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seedTrends(t)
	job := NewTrendJob(s, s, s, DefaultTrendConfig(), nop(), WithClock(fixedClock(testNow)))

	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Written == 0 {
		t.Fatalf("result = %+v, want entries written", res)
	}

	tests := []struct {
		period    models.TrendPeriod
		trendType models.TrendType
		want      []string
	}{
		{models.TrendPeriodDay, models.TrendTypeOverall, []string{"x", "z", "y"}},
		{models.TrendPeriodDay, models.TrendTypeGenre, []string{"g1:x", "g1:y", "g2:z"}},
		{models.TrendPeriodDay, models.TrendTypeNewReleases, []string{"x"}},
		{models.TrendPeriodMonth, models.TrendTypeOverall, []string{"x", "y", "z"}},
	}
	for _, tt := range tests {
		entries, err := s.ActiveTrends(ctx, tt.period, tt.trendType, 0)
		if err != nil {
			t.Fatalf("ActiveTrends() error = %v", err)
		}
		got := make([]string, len(entries))
		for i, e := range entries {
			got[i] = e.ItemID
			if tt.trendType == models.TrendTypeGenre {
				got[i] = e.Genre + ":" + e.ItemID
			}
			if !e.IsActive || !e.WindowEnd.Equal(testNow) {
				t.Errorf("%s/%s entry %+v not active at now", tt.period, tt.trendType, e)
			}
		}
		if !equalStrings(got, tt.want) {
			t.Errorf("%s/%s = %v, want %v", tt.period, tt.trendType, got, tt.want)
		}
	}

	day, _ := s.ActiveTrends(ctx, models.TrendPeriodDay, models.TrendTypeOverall, 0)
	for i, e := range day {
		if e.Rank != i+1 {
			t.Errorf("entry %s rank = %d, want %d", e.ItemID, e.Rank, i+1)
		}
	}
	if day[0].Views != 3 || day[1].Shares != 1 {
		t.Errorf("counters = %+v / %+v", day[0], day[1])
	}
}

func TestTrendJob_ReplacesAndExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seedTrends(t)
	runAt := func(at time.Time) Result {
		t.Helper()
		res, err := NewTrendJob(s, s, s, DefaultTrendConfig(), nop(), WithClock(fixedClock(at))).Run(ctx)
		if err != nil {
			t.Fatalf("Run(%v) error = %v", at, err)
		}
		return res
	}

	first := runAt(testNow)
	total := s.TrendCount()
	runAt(testNow)
	if s.TrendCount() != 2*total {
		t.Fatalf("TrendCount() = %d, want %d active and superseded rows", s.TrendCount(), 2*total)
	}
	active, _ := s.ActiveTrends(ctx, models.TrendPeriodDay, models.TrendTypeOverall, 0)
	if len(active) != 3 {
		t.Fatalf("active day entries = %d, want 3", len(active))
	}

	// A month later the activity has left every window. The rows the second
	// run superseded are now past retention; its own rows are superseded now.
	later := testNow.Add(31 * 24 * time.Hour)
	if res := runAt(later); res.Written != 0 || res.Deleted != first.Written {
		t.Errorf("run at +31d = %+v, want nothing written and %d deleted", res, first.Written)
	}
	if res := runAt(later.Add(31 * 24 * time.Hour)); res.Deleted != first.Written {
		t.Errorf("run at +62d deleted %d, want %d", res.Deleted, first.Written)
	}
	if s.TrendCount() != 0 {
		t.Errorf("TrendCount() = %d, want 0", s.TrendCount())
	}
}
