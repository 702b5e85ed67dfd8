// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func nop() zerolog.Logger { return zerolog.Nop() }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func putVector(t *testing.T, s *memstore.Store, v models.ItemVector) {
	t.Helper()
	if err := s.UpsertVector(context.Background(), &v); err != nil {
		t.Fatalf("UpsertVector(%s) error = %v", v.ItemID, err)
	}
}

// edgeKeys returns "a>b" for every stored edge, sorted.
func edgeKeys(edges []models.SimilarityEdge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.ItemA + ">" + e.ItemB
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errCheckpointDown = errors.New("checkpoint store down")

// flakyCheckpoints fails the failOn-th Save call once.
type flakyCheckpoints struct {
	CheckpointStore
	mu     sync.Mutex
	failOn int
	saves  int
}

func (f *flakyCheckpoints) Save(ctx context.Context, runKey string, next, skipped int, staged []models.SimilarityEdge) error {
	f.mu.Lock()
	f.saves++
	fail := f.saves == f.failOn
	f.mu.Unlock()
	if fail {
		return errCheckpointDown
	}
	return f.CheckpointStore.Save(ctx, runKey, next, skipped, staged)
}
