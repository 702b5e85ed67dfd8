// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

func TestVectorRefreshJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New(memstore.WithClock(fixedClock(testNow)))
	halfLife := 180 * 24 * time.Hour
	s.PutItem(&models.Item{ID: "a", PublicationDate: testNow.Add(-halfLife)})
	s.PutItem(&models.Item{ID: "b", PublicationDate: testNow.Add(time.Hour)})

	putVector(t, s, models.ItemVector{ItemID: "a", ViewCount: 10, RatingCount: 5, RatingAverage: 4})
	putVector(t, s, models.ItemVector{ItemID: "b", DownloadCount: 10})
	putVector(t, s, models.ItemVector{ItemID: "orphan", RecencyScore: 0.3, QualityScore: 0.9})

	before := testutil.ToFloat64(metrics.BatchRuns.WithLabelValues(VectorRefreshJobName, "success"))
	res, err := NewVectorRefreshJob(s, s, DefaultVectorRefreshConfig(), nop(), WithClock(fixedClock(testNow))).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Processed != 3 || res.Written != 3 {
		t.Errorf("result = %+v", res)
	}
	if after := testutil.ToFloat64(metrics.BatchRuns.WithLabelValues(VectorRefreshJobName, "success")); after < before+1 {
		t.Errorf("success runs = %v, want at least %v", after, before+1)
	}

	tests := []struct {
		id                           string
		popularity, quality, recency float64
	}{
		// activity: a = 0.3*10 = 3, b = 0.4*10 = 4.
		{"a", 0.75, 0.8 * 5 / 10, 0.5},
		{"b", 1, 0, 1},
		{"orphan", 0, 0, 0.3},
	}
	for _, tt := range tests {
		v, err := s.GetVector(ctx, tt.id)
		if err != nil {
			t.Fatalf("GetVector(%s) error = %v", tt.id, err)
		}
		if !approx(v.PopularityScore, tt.popularity) || !approx(v.QualityScore, tt.quality) || !approx(v.RecencyScore, tt.recency) {
			t.Errorf("%s scores = %v/%v/%v, want %v/%v/%v", tt.id,
				v.PopularityScore, v.QualityScore, v.RecencyScore, tt.popularity, tt.quality, tt.recency)
		}
		if !v.Valid() {
			t.Errorf("%s invalid after refresh: %+v", tt.id, v)
		}
	}
}

func TestVectorRefreshJob_SkipsMalformed(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	putVector(t, s, models.ItemVector{ItemID: "ok", ViewCount: 1})
	putVector(t, s, models.ItemVector{ItemID: "bad", RatingAverage: math.NaN(), RatingCount: 1})

	res, err := NewVectorRefreshJob(s, s, VectorRefreshConfig{}, nop()).Run(context.Background())
	if !IsPartialFailure(err) {
		t.Fatalf("Run() error = %v, want partial failure", err)
	}
	if res.Written != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestVectorRefreshJob_Empty(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	res, err := NewVectorRefreshJob(s, s, VectorRefreshConfig{}, nop()).Run(context.Background())
	if err != nil || res.Written != 0 {
		t.Fatalf("Run() = %+v, %v", res, err)
	}
}
