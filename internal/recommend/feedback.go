// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/validation"
)

// InteractionRecorder appends interactions to the log. Engine implements it.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, in *models.Interaction) (*models.Interaction, error)
}

var _ InteractionRecorder = (*Engine)(nil)

// FeedbackProcessor tracks what users do with served recommendations and
// turns it back into interactions for the next generation cycle.
type FeedbackProcessor struct {
	recs     RecommendationStore
	feedback FeedbackStore
	recorder InteractionRecorder
	events   EventPublisher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewFeedbackProcessor creates a processor. events may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFeedbackProcessor(stores Stores, recorder InteractionRecorder, events EventPublisher, logger zerolog.Logger) (*FeedbackProcessor, error) {
	if stores.Recommendations == nil || stores.Feedback == nil {
		return nil, errors.New("recommendation and feedback stores are required")
	}
	if recorder == nil {
		return nil, errors.New("interaction recorder is required")
	}
	return &FeedbackProcessor{
		recs:     stores.Recommendations,
		feedback: stores.Feedback,
		recorder: recorder,
		events:   events,
		logger:   logger.With().Str("component", "feedback").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// SetClock replaces the processor's time source.
func (p *FeedbackProcessor) SetClock(now func() time.Time) {
	p.now = now
}

// RecordImpression marks a recommendation as viewed. It reports whether
// this call changed state; repeats are no-ops.
func (p *FeedbackProcessor) RecordImpression(ctx context.Context, recID string) (*models.Recommendation, bool, error) {
	return p.transition(ctx, recID, models.TransitionImpression)
}

// RecordClick marks a recommendation as clicked. The first click appends a
// recommendation_click interaction and publishes recommendation_clicked.
func (p *FeedbackProcessor) RecordClick(ctx context.Context, recID string) (*models.Recommendation, bool, error) {
	rec, applied, err := p.transition(ctx, recID, models.TransitionClick)
	if err != nil || !applied {
		return rec, applied, err
	}

	set, err := p.parentSet(ctx, rec)
	if err != nil {
		return rec, applied, err
	}
	p.appendSynthetic(ctx, set, rec, models.InteractionRecommendationClick, nil)

	if p.events != nil {
		ev := eventbus.NewEvent(eventbus.TypeRecommendationClicked, set.UserID)
		ev.RecommendationID = rec.ID
		ev.SetID = rec.SetID
		ev.ItemID = rec.ItemID
		ev.Algorithm = string(set.Algorithm)
		if err := p.events.Publish(ctx, ev); err != nil {
			p.logger.Warn().Err(err).Str("recommendation_id", rec.ID).Msg("failed to publish recommendation_clicked")
		}
	}
	return rec, applied, nil
}

// RecordConversion marks a recommendation as converted. The first
// conversion appends a purchase interaction.
func (p *FeedbackProcessor) RecordConversion(ctx context.Context, recID string) (*models.Recommendation, bool, error) {
	rec, applied, err := p.transition(ctx, recID, models.TransitionConversion)
	if err != nil || !applied {
		return rec, applied, err
	}
	set, err := p.parentSet(ctx, rec)
	if err != nil {
		return rec, applied, err
	}
	p.appendSynthetic(ctx, set, rec, models.InteractionPurchase, nil)
	return rec, applied, nil
}

func (p *FeedbackProcessor) transition(ctx context.Context, recID string, t models.Transition) (*models.Recommendation, bool, error) {
	if recID == "" {
		return nil, false, fmt.Errorf("%w: recommendation id is required", ErrInvalidRequest)
	}
	rec, applied, err := p.recs.ApplyTransition(ctx, recID, t, p.now())
	if err != nil {
		return nil, false, fmt.Errorf("record %s: %w", t, err)
	}
	metrics.RecordTransition(string(t), applied)
	p.logger.Debug().
		Str("recommendation_id", recID).
		Str("transition", string(t)).
		Bool("applied", applied).
		Msg("recommendation transition")
	return rec, applied, nil
}

func (p *FeedbackProcessor) parentSet(ctx context.Context, rec *models.Recommendation) (*models.RecommendationSet, error) {
	set, _, err := p.recs.GetSet(ctx, rec.SetID)
	if err != nil {
		return nil, fmt.Errorf("load set %s: %w", rec.SetID, err)
	}
	return set, nil
}

// appendSynthetic records an interaction attributed to the recommendation.
// Failures are logged; the transition itself already happened.
func (p *FeedbackProcessor) appendSynthetic(ctx context.Context, set *models.RecommendationSet, rec *models.Recommendation, t models.InteractionType, value *float64) {
	in := &models.Interaction{
		UserID:             set.UserID,
		ItemID:             rec.ItemID,
		Type:               t,
		Value:              value,
		Timestamp:          p.now(),
		FromRecommendation: true,
		SourceAlgorithm:    string(set.Algorithm),
		SourceScore:        rec.Score,
	}
	if _, err := p.recorder.RecordInteraction(ctx, in); err != nil {
		p.logger.Error().Err(err).
			Str("recommendation_id", rec.ID).
			Str("type", string(t)).
			Msg("failed to append synthetic interaction")
	}
}

// SubmitFeedback stores explicit feedback on a recommendation. A user can
// give feedback on a recommendation once; the second submission returns
// ErrDuplicateFeedback.
func (p *FeedbackProcessor) SubmitFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		metrics.RecordFeedback(string(in.Type), "invalid")
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, verr.Error())
	}

	rec, err := p.recs.GetRecommendation(ctx, in.RecommendationID)
	if err != nil {
		return nil, fmt.Errorf("recommendation %s: %w", in.RecommendationID, err)
	}
	set, err := p.parentSet(ctx, rec)
	if err != nil {
		return nil, err
	}
	if set.UserID != in.UserID {
		metrics.RecordFeedback(string(in.Type), "invalid")
		return nil, fmt.Errorf("%w: recommendation %s was not served to user %s", ErrInvalidRequest, rec.ID, in.UserID)
	}

	fb := &models.Feedback{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		RecommendationID: in.RecommendationID,
		Type:             in.Type,
		Rating:           in.Rating,
		Comment:          in.Comment,
		CreatedAt:        p.now(),
	}
	if err := p.feedback.InsertFeedback(ctx, fb); err != nil {
		if errors.Is(err, ErrDuplicateFeedback) {
			metrics.RecordFeedback(string(in.Type), "duplicate")
		}
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	metrics.RecordFeedback(string(in.Type), "accepted")

	// An explicit star rating feeds the item's rating average; otherwise the
	// signed weight rides on a click-typed interaction so it cannot be
	// mistaken for a rating.
	if fb.Rating != nil {
		p.appendSynthetic(ctx, set, rec, models.InteractionRating, models.Float64(float64(*fb.Rating)))
	} else {
		p.appendSynthetic(ctx, set, rec, models.InteractionRecommendationClick, models.Float64(fb.Weight()))
	}

	p.logger.Info().
		Str("user_id", fb.UserID).
		Str("recommendation_id", fb.RecommendationID).
		Str("type", string(fb.Type)).
		Float64("weight", fb.Weight()).
		Msg("feedback recorded")
	return fb, nil
}

// FeedbackSummary aggregates the feedback given on a set.
func (p *FeedbackProcessor) FeedbackSummary(ctx context.Context, setID string) (*FeedbackSummary, error) {
	if _, _, err := p.recs.GetSet(ctx, setID); err != nil {
		return nil, fmt.Errorf("set %s: %w", setID, err)
	}
	rows, err := p.feedback.FeedbackForSet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	summary := &FeedbackSummary{
		SetID:  setID,
		Count:  len(rows),
		ByType: make(map[models.FeedbackType]int),
	}
	for i := range rows {
		summary.TotalWeight += rows[i].Weight()
		summary.ByType[rows[i].Type]++
	}
	return summary, nil
}
