// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

func openBadger(t *testing.T) *BadgerCheckpointStore {
	t.Helper()
	store, err := OpenBadgerCheckpoints(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadgerCheckpoints() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCheckpointStores(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) CheckpointStore{
		"memory": func(*testing.T) CheckpointStore { return NewMemoryCheckpointStore() },
		"badger": func(t *testing.T) CheckpointStore { return openBadger(t) },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := open(t)

			cp, err := store.Load(ctx, "run-1")
			if err != nil || cp != nil {
				t.Fatalf("Load(empty) = %+v, %v; want nil, nil", cp, err)
			}

			first := []models.SimilarityEdge{{ItemA: "a", ItemB: "b", Overall: 0.5}, {ItemA: "b", ItemB: "a", Overall: 0.5}}
			second := []models.SimilarityEdge{{ItemA: "c", ItemB: "d", Overall: 0.3}}
			if err := store.Save(ctx, "run-1", 1, 0, first); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if err := store.Save(ctx, "run-1", 2, 1, nil); err != nil {
				t.Fatalf("Save(no edges) error = %v", err)
			}
			if err := store.Save(ctx, "run-1", 3, 2, second); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if err := store.Save(ctx, "run-2", 9, 0, second); err != nil {
				t.Fatalf("Save(run-2) error = %v", err)
			}

			cp, err = store.Load(ctx, "run-1")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cp.Next != 3 || cp.Skipped != 2 {
				t.Errorf("cursor = %d/%d, want 3/2", cp.Next, cp.Skipped)
			}
			if got := edgeKeys(cp.Edges); !equalStrings(got, []string{"a>b", "b>a", "c>d"}) {
				t.Errorf("staged edges = %v", got)
			}

			if err := store.Clear(ctx, "run-1"); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if cp, _ := store.Load(ctx, "run-1"); cp != nil {
				t.Errorf("Load after Clear = %+v, want nil", cp)
			}
			if cp, _ := store.Load(ctx, "run-2"); cp == nil || cp.Next != 9 {
				t.Errorf("Clear removed another run: %+v", cp)
			}
		})
	}
}

func TestBadgerCheckpointStore_RunKeysAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openBadger(t)
	for _, key := range []string{"similarity:2026-05-10:aa", "similarity:2026-05-11:bb"} {
		if err := store.Save(ctx, key, 1, 0, []models.SimilarityEdge{{ItemA: "x", ItemB: "y"}}); err != nil {
			t.Fatalf("Save(%s) error = %v", key, err)
		}
	}
	keys, err := store.RunKeys()
	if err != nil {
		t.Fatalf("RunKeys() error = %v", err)
	}
	if !equalStrings(keys, []string{"similarity:2026-05-10:aa", "similarity:2026-05-11:bb"}) {
		t.Errorf("RunKeys() = %v", keys)
	}
	if err := store.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := store.Load(ctx, "any"); !errors.Is(err, ErrCheckpointsClosed) {
		t.Errorf("Load after Close error = %v, want ErrCheckpointsClosed", err)
	}
}

func TestSimilarityJob_DropsAbandonedBadgerRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	seedSimilarity(t, s)

	store := openBadger(t)
	edge := []models.SimilarityEdge{{ItemA: "x", ItemB: "y"}}
	for _, key := range []string{"similarity:2026-05-09:stale", "trends:2026-05-09:other"} {
		if err := store.Save(ctx, key, 1, 0, edge); err != nil {
			t.Fatalf("Save(%s) error = %v", key, err)
		}
	}

	job := NewSimilarityJob(s, s, store, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(testNow)))
	if _, err := job.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	keys, err := store.RunKeys()
	if err != nil {
		t.Fatalf("RunKeys() error = %v", err)
	}
	if !equalStrings(keys, []string{"trends:2026-05-09:other"}) {
		t.Errorf("RunKeys() after run = %v, want only the other job's checkpoint", keys)
	}
}

func TestOpenBadgerCheckpoints_RequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := OpenBadgerCheckpoints(BadgerConfig{}); err == nil {
		t.Fatal("OpenBadgerCheckpoints() error = nil, want missing path")
	}
}

func TestSimilarityJob_ResumesFromBadger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	seedSimilarity(t, s)

	flaky := &flakyCheckpoints{CheckpointStore: openBadger(t), failOn: 4}
	job := NewSimilarityJob(s, s, flaky, DefaultSimilarityConfig(), nop(), WithClock(fixedClock(testNow)))
	if _, err := job.Run(ctx); !errors.Is(err, errCheckpointDown) {
		t.Fatalf("first Run() error = %v", err)
	}

	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !res.Resumed || res.Processed != 1 || res.Written != 8 {
		t.Errorf("result = %+v, want resumed run over the last item writing 8 edges", res)
	}
}
