// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// served generates a small popularity set for u1 and returns the processor
// with the first recommendation id.
func served(t *testing.T) (*fixture, *recommend.FeedbackProcessor, *recommend.Response) {
	t.Helper()
	f := newFixture(t)
	resp := f.generate(t, recommend.Request{UserID: "u1", Algorithm: models.AlgorithmPopularity, Count: 3})
	if len(resp.Items) == 0 {
		t.Fatal("no recommendations served")
	}
	p, err := recommend.NewFeedbackProcessor(f.store.Stores(), f.engine, f.events, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFeedbackProcessor() error = %v", err)
	}
	p.SetClock(func() time.Time { return testNow })
	return f, p, resp
}

func userInteractions(t *testing.T, f *fixture, userID string) []models.Interaction {
	t.Helper()
	out, err := f.store.UserInteractions(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("UserInteractions() error = %v", err)
	}
	return out
}

func TestRecordImpression_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, p, resp := served(t)
	recID := resp.Items[0].RecommendationID

	rec, applied, err := p.RecordImpression(ctx, recID)
	if err != nil || !applied || !rec.Viewed {
		t.Fatalf("RecordImpression() = %+v, %v, %v", rec, applied, err)
	}
	if _, applied, err = p.RecordImpression(ctx, recID); err != nil || applied {
		t.Fatalf("second RecordImpression() applied=%v err=%v, want no-op", applied, err)
	}

	set, _, err := f.store.GetSet(ctx, resp.SetID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if set.ViewCount != 1 {
		t.Errorf("ViewCount = %d, want 1", set.ViewCount)
	}
	if len(userInteractions(t, f, "u1")) != 0 {
		t.Error("impression appended an interaction")
	}
}

func TestRecordClick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, p, resp := served(t)
	item := resp.Items[0]

	if _, applied, err := p.RecordClick(ctx, item.RecommendationID); err != nil || !applied {
		t.Fatalf("RecordClick() applied=%v err=%v", applied, err)
	}
	if _, applied, err := p.RecordClick(ctx, item.RecommendationID); err != nil || applied {
		t.Fatalf("second RecordClick() applied=%v err=%v", applied, err)
	}

	got := userInteractions(t, f, "u1")
	if len(got) != 1 {
		t.Fatalf("interactions = %d, want 1", len(got))
	}
	in := got[0]
	if in.Type != models.InteractionRecommendationClick || in.ItemID != item.ItemID || !in.FromRecommendation {
		t.Errorf("interaction = %+v", in)
	}
	if in.SourceAlgorithm != string(models.AlgorithmPopularity) || in.SourceScore != item.Score {
		t.Errorf("attribution = %s/%v", in.SourceAlgorithm, in.SourceScore)
	}

	clicked := f.events.ofType(eventbus.TypeRecommendationClicked)
	if len(clicked) != 1 {
		t.Fatalf("recommendation_clicked events = %d, want 1", len(clicked))
	}
	if clicked[0].RecommendationID != item.RecommendationID || clicked[0].SetID != resp.SetID || clicked[0].ItemID != item.ItemID {
		t.Errorf("event = %+v", clicked[0])
	}
}

func TestRecordConversion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, p, resp := served(t)

	if _, applied, err := p.RecordConversion(ctx, resp.Items[1].RecommendationID); err != nil || !applied {
		t.Fatalf("RecordConversion() applied=%v err=%v", applied, err)
	}
	got := userInteractions(t, f, "u1")
	if len(got) != 1 || got[0].Type != models.InteractionPurchase {
		t.Fatalf("interactions = %+v, want one purchase", got)
	}
	set, _, err := f.store.GetSet(ctx, resp.SetID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if set.ConversionCount != 1 || set.ClickCount != 0 {
		t.Errorf("counters = clicks %d conversions %d", set.ClickCount, set.ConversionCount)
	}
}

func TestTransition_UnknownRecommendation(t *testing.T) {
	t.Parallel()

	_, p, _ := served(t)
	if _, _, err := p.RecordClick(context.Background(), "missing"); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("RecordClick(missing) error = %v, want ErrNotFound", err)
	}
	if _, _, err := p.RecordImpression(context.Background(), ""); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Errorf("RecordImpression(\"\") error = %v, want ErrInvalidRequest", err)
	}
}

func TestSubmitFeedback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, p, resp := served(t)
	recID := resp.Items[0].RecommendationID

	fb, err := p.SubmitFeedback(ctx, recommend.FeedbackInput{
		UserID: "u1", RecommendationID: recID, Type: models.FeedbackDislike,
	})
	if err != nil {
		t.Fatalf("SubmitFeedback() error = %v", err)
	}
	if fb.ID == "" || fb.Weight() != -1 {
		t.Errorf("feedback = %+v", fb)
	}

	got := userInteractions(t, f, "u1")
	if len(got) != 1 || got[0].Type != models.InteractionRecommendationClick {
		t.Fatalf("interactions = %+v, want one click-typed", got)
	}
	if got[0].Value == nil || *got[0].Value != -1 {
		t.Errorf("synthetic value = %v, want -1", got[0].Value)
	}

	_, err = p.SubmitFeedback(ctx, recommend.FeedbackInput{
		UserID: "u1", RecommendationID: recID, Type: models.FeedbackLike,
	})
	if !errors.Is(err, recommend.ErrDuplicateFeedback) {
		t.Fatalf("second SubmitFeedback() error = %v, want ErrDuplicateFeedback", err)
	}
}

func TestSubmitFeedback_RatingFeedsVector(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, p, resp := served(t)
	item := resp.Items[0]
	before, err := f.store.GetVector(ctx, item.ItemID)
	if err != nil {
		t.Fatalf("GetVector() error = %v", err)
	}

	rating := 5
	if _, err := p.SubmitFeedback(ctx, recommend.FeedbackInput{
		UserID: "u1", RecommendationID: item.RecommendationID, Type: models.FeedbackLike, Rating: &rating,
	}); err != nil {
		t.Fatalf("SubmitFeedback() error = %v", err)
	}

	got := userInteractions(t, f, "u1")
	if len(got) != 1 || got[0].Type != models.InteractionRating || *got[0].Value != 5 {
		t.Fatalf("interactions = %+v, want one rating of 5", got)
	}
	after, err := f.store.GetVector(ctx, item.ItemID)
	if err != nil {
		t.Fatalf("GetVector() error = %v", err)
	}
	if after.RatingCount != before.RatingCount+1 {
		t.Errorf("RatingCount = %d, want %d", after.RatingCount, before.RatingCount+1)
	}
}

func TestSubmitFeedback_Rejects(t *testing.T) {
	t.Parallel()

	_, p, resp := served(t)
	recID := resp.Items[0].RecommendationID
	bad := 9

	tests := []struct {
		name string
		in   recommend.FeedbackInput
		want error
	}{
		{"unknown type", recommend.FeedbackInput{UserID: "u1", RecommendationID: recID, Type: "meh"}, recommend.ErrInvalidRequest},
		{"rating out of range", recommend.FeedbackInput{UserID: "u1", RecommendationID: recID, Type: models.FeedbackLike, Rating: &bad}, recommend.ErrInvalidRequest},
		{"other user", recommend.FeedbackInput{UserID: "u2", RecommendationID: recID, Type: models.FeedbackLike}, recommend.ErrInvalidRequest},
		{"unknown recommendation", recommend.FeedbackInput{UserID: "u1", RecommendationID: "nope", Type: models.FeedbackLike}, recommend.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := p.SubmitFeedback(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("SubmitFeedback() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFeedbackSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, p, resp := served(t)
	for i, typ := range []models.FeedbackType{models.FeedbackLike, models.FeedbackGoodRecommendation, models.FeedbackDislike} {
		if _, err := p.SubmitFeedback(ctx, recommend.FeedbackInput{
			UserID: "u1", RecommendationID: resp.Items[i].RecommendationID, Type: typ,
		}); err != nil {
			t.Fatalf("SubmitFeedback(%s) error = %v", typ, err)
		}
	}

	summary, err := p.FeedbackSummary(ctx, resp.SetID)
	if err != nil {
		t.Fatalf("FeedbackSummary() error = %v", err)
	}
	if summary.Count != 3 || !approxEqual(summary.TotalWeight, 1.5) {
		t.Errorf("summary = %+v, want 3 entries weighing 1.5", summary)
	}
	if summary.ByType[models.FeedbackDislike] != 1 {
		t.Errorf("ByType = %v", summary.ByType)
	}
	if _, err := p.FeedbackSummary(ctx, "missing"); !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("FeedbackSummary(missing) error = %v, want ErrNotFound", err)
	}
}
