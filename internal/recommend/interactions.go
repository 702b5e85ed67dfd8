// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/validation"
)

// RecordInteraction appends an interaction to the log, bumps the item's
// vector counters and publishes interaction_recorded. A read_complete also
// publishes item_completed carrying the item's genres and authors so the
// profile can accrete them.
func (e *Engine) RecordInteraction(ctx context.Context, in *models.Interaction) (*models.Interaction, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: interaction is required", ErrInvalidRequest)
	}
	if in.UserID == "" || in.ItemID == "" {
		return nil, fmt.Errorf("%w: user_id and item_id are required", ErrInvalidRequest)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown interaction type %q", ErrInvalidRequest, string(in.Type))
	}
	if in.Type == models.InteractionRating && (in.Value == nil || *in.Value < 1 || *in.Value > 5) {
		return nil, fmt.Errorf("%w: rating value must be between 1 and 5", ErrInvalidRequest)
	}

	rec := *in
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = e.now()
	}

	if err := e.stores.Interactions.AppendInteraction(ctx, &rec); err != nil {
		return nil, fmt.Errorf("append interaction: %w", err)
	}
	metrics.RecordInteraction(string(rec.Type))

	logger := e.logger.With().
		Str("user_id", rec.UserID).
		Str("item_id", rec.ItemID).
		Str("type", string(rec.Type)).
		Logger()

	if d := rec.Delta(); !d.IsZero() && e.stores.Vectors != nil {
		if err := e.stores.Vectors.ApplyDelta(ctx, d); err != nil {
			// The log is the source of truth; the refresh job recounts.
			logger.Warn().Err(err).Msg("failed to update vector counters")
		}
	}

	if e.events == nil {
		return &rec, nil
	}

	ev := eventbus.NewEvent(eventbus.TypeInteractionRecorded, rec.UserID)
	ev.ItemID = rec.ItemID
	ev.InteractionType = string(rec.Type)
	if rec.FromRecommendation {
		ev.Algorithm = rec.SourceAlgorithm
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Msg("failed to publish interaction_recorded")
	}

	if rec.Type == models.InteractionReadComplete {
		e.publishCompleted(ctx, &rec, logger)
	}
	return &rec, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) publishCompleted(ctx context.Context, rec *models.Interaction, logger zerolog.Logger) {
	item, err := e.catalog.GetItem(ctx, rec.ItemID)
	if err != nil {
		logger.Warn().Err(err).Msg("completed item not in catalog")
		return
	}
	ev := eventbus.NewEvent(eventbus.TypeItemCompleted, rec.UserID)
	ev.ItemID = rec.ItemID
	ev.Genres = append([]string(nil), item.Categories...)
	ev.Authors = append([]string(nil), item.Authors...)
	if err := e.events.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Msg("failed to publish item_completed")
	}
}

// GetProfile returns the user's profile, creating the default one if the
// user has none yet.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	return e.resolveProfile(ctx, userID)
}

// UpdatePreferences applies an explicit preference update. Fields left nil
// are unchanged. Cached responses are invalidated through the
// preferences_updated event, or directly when no bus is configured.
func (e *Engine) UpdatePreferences(ctx context.Context, userID string, upd PreferencesUpdate) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if verr := validation.ValidateStruct(&upd); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, verr.Error())
	}

	e.profileMu.Lock()
	profile, err := e.resolveProfile(ctx, userID)
	if err != nil {
		e.profileMu.Unlock()
		return nil, err
	}

	if upd.PreferredGenres != nil {
		profile.PreferredGenres = upd.PreferredGenres
	}
	if upd.PreferredAuthors != nil {
		profile.PreferredAuthors = upd.PreferredAuthors
	}
	if upd.PreferredLanguages != nil {
		profile.PreferredLanguages = upd.PreferredLanguages
	}
	if upd.ReadingLevel != nil {
		profile.ReadingLevel = *upd.ReadingLevel
	}
	if upd.ReadingFrequency != nil {
		profile.ReadingFrequency = *upd.ReadingFrequency
	}
	if upd.AvgSessionMinutes != nil {
		profile.AvgSessionMinutes = *upd.AvgSessionMinutes
	}
	if upd.RecommendationsEnabled != nil {
		profile.RecommendationsEnabled = *upd.RecommendationsEnabled
	}
	if upd.RecommendationCadence != nil {
		profile.RecommendationCadence = *upd.RecommendationCadence
	}
	profile.Normalize()
	profile.UpdatedAt = e.now()

	err = e.stores.Profiles.SaveProfile(ctx, profile)
	e.profileMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	e.logger.Info().Str("user_id", userID).Msg("preferences updated")

	if e.events == nil {
		if _, err := e.InvalidateUser(ctx, userID); err != nil {
			e.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate cached recommendations")
		}
		return profile, nil
	}
	if err := e.events.Publish(ctx, eventbus.NewEvent(eventbus.TypePreferencesUpdated, userID)); err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to publish preferences_updated")
	}
	return profile, nil
}

// InvalidateUser removes every cached response of a user and returns how
// many entries were removed.
func (e *Engine) InvalidateUser(ctx context.Context, userID string) (int, error) {
	if e.cache == nil {
		return 0, nil
	}
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	n, err := e.cache.DeletePrefix(ctx, userCachePrefix(userID))
	if err != nil {
		return n, fmt.Errorf("invalidate cache for %s: %w", userID, err)
	}
	metrics.RecordCacheInvalidation(cacheName, n)
	e.logger.Debug().Str("user_id", userID).Int("removed", n).Msg("invalidated cached recommendations")
	return n, nil
}
