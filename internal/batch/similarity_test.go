// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty", nil, nil, 0},
		{"padded", []float64{1, 0, 0}, []float64{1}, 1},
		{"partial", []float64{1, 1}, []float64{1, 0}, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Cosine(tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
			if got, rev := Cosine(tt.a, tt.b), Cosine(tt.b, tt.a); got != rev {
				t.Errorf("Cosine not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestEdgeBetween_Components(t *testing.T) {
	t.Parallel()

	a := &models.ItemVector{
		ItemID:        "a",
		ContentVector: []float64{1, 0},
		GenreVector:   []float64{1},
		AuthorVector:  []float64{1, 0, 0},
	}
	b := &models.ItemVector{
		ItemID:        "b",
		ContentVector: []float64{1, 0, 0, 0},
		GenreVector:   []float64{0, 1},
		AuthorVector:  []float64{1},
	}
	e := edgeBetween(a, b)
	if e.ContentScore != 1 || e.GenreScore != 0 || e.AuthorScore != 1 || e.BehaviorScore != 0 {
		t.Errorf("components = %+v", e)
	}
	// Concatenated: a = [1 0 0 0 | 1 0 | 1 0 0 | 0 0 0], b = [1 0 0 0 | 0 1 | 1 0 0 | 0 0 0].
	if want := 2.0 / 3.0; !approx(e.Overall, want) {
		t.Errorf("Overall = %v, want %v", e.Overall, want)
	}
	if self := edgeBetween(a, a); !approx(self.Overall, 1) {
		t.Errorf("self similarity = %v, want 1", self.Overall)
	}
}

// seedSimilarity stores a and b close together, c orthogonal to both and
// d halfway between a and c.
func seedSimilarity(t *testing.T, s *memstore.Store) {
	t.Helper()
	putVector(t, s, models.ItemVector{ItemID: "a", ContentVector: []float64{1, 0}})
	putVector(t, s, models.ItemVector{ItemID: "b", ContentVector: []float64{1, 0.1}})
	putVector(t, s, models.ItemVector{ItemID: "c", ContentVector: []float64{0, 1}})
	putVector(t, s, models.ItemVector{ItemID: "d", ContentVector: []float64{1, 1}})
}

func TestSimilarityJob_BuildsSymmetricThresholdedIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	seedSimilarity(t, s)

	job := NewSimilarityJob(s, s, nil, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(testNow)))
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	edges := s.Edges()
	want := []string{"a>b", "a>d", "b>a", "b>d", "c>d", "d>a", "d>b", "d>c"}
	if got := edgeKeys(edges); !equalStrings(got, want) {
		t.Fatalf("edges = %v, want %v", got, want)
	}
	if res.Written != len(want) || res.Processed != 4 || res.Skipped != 0 {
		t.Errorf("result = %+v", res)
	}

	byKey := make(map[string]models.SimilarityEdge, len(edges))
	for _, e := range edges {
		byKey[e.ItemA+">"+e.ItemB] = e
	}
	for _, e := range edges {
		if e.Overall < 0.1 {
			t.Errorf("edge %s>%s below threshold: %v", e.ItemA, e.ItemB, e.Overall)
		}
		rev, ok := byKey[e.ItemB+">"+e.ItemA]
		if !ok || rev.Overall != e.Overall {
			t.Errorf("edge %s>%s has no matching reverse", e.ItemA, e.ItemB)
		}
		if !e.ComputedAt.Equal(testNow) || e.AlgorithmVersion != "1.0.0" {
			t.Errorf("edge %s>%s metadata = %v %q", e.ItemA, e.ItemB, e.ComputedAt, e.AlgorithmVersion)
		}
	}

	top, err := s.SimilarTo(ctx, "a", 1)
	if err != nil || len(top) != 1 || top[0].ItemB != "b" {
		t.Errorf("SimilarTo(a) = %+v, %v", top, err)
	}
}

func TestSimilarityJob_SkipsMalformedVectors(t *testing.T) {
	t.Parallel()

	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	seedSimilarity(t, s)
	putVector(t, s, models.ItemVector{ItemID: "bad", ContentVector: []float64{math.NaN(), 1}})

	res, err := NewSimilarityJob(s, s, nil, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(testNow))).Run(context.Background())
	if !IsPartialFailure(err) || !errors.Is(err, recommend.ErrBatchJobPartialFailure) {
		t.Fatalf("Run() error = %v, want partial failure", err)
	}
	if res.Skipped != 4 {
		t.Errorf("Skipped = %d, want 4", res.Skipped)
	}
	for _, e := range s.Edges() {
		if e.ItemA == "bad" || e.ItemB == "bad" {
			t.Fatalf("malformed vector produced edge %+v", e)
		}
	}
	if len(s.Edges()) != 8 {
		t.Errorf("len(Edges()) = %d, want 8", len(s.Edges()))
	}
}

func TestSimilarityJob_ResumesFromCheckpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	seedSimilarity(t, s)

	inner := NewMemoryCheckpointStore()
	flaky := &flakyCheckpoints{CheckpointStore: inner, failOn: 3}
	job := NewSimilarityJob(s, s, flaky, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(testNow)))

	if _, err := job.Run(ctx); !errors.Is(err, errCheckpointDown) {
		t.Fatalf("first Run() error = %v, want checkpoint failure", err)
	}
	if len(s.Edges()) != 0 {
		t.Fatalf("failed run published %d edges", len(s.Edges()))
	}

	ids := []string{"a", "b", "c", "d"}
	cp, err := inner.Load(ctx, RunKey(SimilarityJobName, testNow, ids))
	if err != nil || cp == nil || cp.Next != 2 {
		t.Fatalf("checkpoint = %+v, %v; want cursor at 2", cp, err)
	}

	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !res.Resumed || res.Processed != 2 {
		t.Errorf("result = %+v, want resumed run over the last 2 items", res)
	}

	fresh := memstore.New(memstore.WithClock(fixedClock(testNow)))
	seedSimilarity(t, fresh)
	if _, err := NewSimilarityJob(fresh, fresh, nil, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(testNow))).Run(ctx); err != nil {
		t.Fatalf("fresh Run() error = %v", err)
	}
	if got, want := edgeKeys(s.Edges()), edgeKeys(fresh.Edges()); !equalStrings(got, want) {
		t.Errorf("resumed edges = %v, want %v", got, want)
	}
	if cp, _ := inner.Load(ctx, RunKey(SimilarityJobName, testNow, ids)); cp != nil {
		t.Error("checkpoint not cleared after a completed run")
	}
}

func TestSimilarityJob_IdempotentAndPrunesStaleEdges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	putVector(t, s, models.ItemVector{ItemID: "a", ContentVector: []float64{1, 0}})
	putVector(t, s, models.ItemVector{ItemID: "b", ContentVector: []float64{1, 0.1}})

	run := func(at time.Time) Result {
		t.Helper()
		res, err := NewSimilarityJob(s, s, nil, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(at))).Run(ctx)
		if err != nil {
			t.Fatalf("Run(%v) error = %v", at, err)
		}
		return res
	}

	run(testNow)
	first := edgeKeys(s.Edges())
	run(testNow)
	if got := edgeKeys(s.Edges()); !equalStrings(got, first) {
		t.Fatalf("second run edges = %v, want %v", got, first)
	}

	// b drifts away; its old edges stay until they age out.
	putVector(t, s, models.ItemVector{ItemID: "b", ContentVector: []float64{0, 1}})
	run(testNow.Add(24 * time.Hour))
	if len(s.Edges()) != 2 {
		t.Fatalf("edges after one day = %v, want the stale pair kept", edgeKeys(s.Edges()))
	}

	res := run(testNow.Add(8 * 24 * time.Hour))
	if len(s.Edges()) != 0 || res.Deleted != 2 {
		t.Errorf("edges after retention = %v (deleted %d), want none", edgeKeys(s.Edges()), res.Deleted)
	}
}

func TestSimilarityJob_CanceledContext(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	seedSimilarity(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSimilarityJob(s, s, nil, DefaultSimilarityConfig(), nop()).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(s.Edges()) != 0 {
		t.Error("canceled run published edges")
	}
}

func TestRunKey(t *testing.T) {
	t.Parallel()

	ids := []string{"a", "b"}
	k1 := RunKey("similarity", testNow, ids)
	if k2 := RunKey("similarity", testNow.Add(time.Hour), ids); k1 != k2 {
		t.Error("same day produced different run keys")
	}
	if k3 := RunKey("similarity", testNow.Add(24*time.Hour), ids); k1 == k3 {
		t.Error("different days share a run key")
	}
	if k4 := RunKey("similarity", testNow, []string{"a", "c"}); k1 == k4 {
		t.Error("different item sets share a run key")
	}
}
