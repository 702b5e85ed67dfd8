// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/validation"
)

// Recommender is the part of the engine the HTTP layer calls.
type Recommender interface {
	Generate(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	SimilarItems(ctx context.Context, itemID string, count int) ([]recommend.SimilarItem, error)
	Trending(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, limit int) ([]recommend.TrendingItem, error)
	RecordInteraction(ctx context.Context, in *models.Interaction) (*models.Interaction, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdatePreferences(ctx context.Context, userID string, upd recommend.PreferencesUpdate) (*models.UserProfile, error)
}

// FeedbackRecorder records engagement transitions and explicit feedback.
type FeedbackRecorder interface {
	RecordImpression(ctx context.Context, recID string) (*models.Recommendation, bool, error)
	RecordClick(ctx context.Context, recID string) (*models.Recommendation, bool, error)
	RecordConversion(ctx context.Context, recID string) (*models.Recommendation, bool, error)
	SubmitFeedback(ctx context.Context, in recommend.FeedbackInput) (*models.Feedback, error)
	FeedbackSummary(ctx context.Context, setID string) (*recommend.FeedbackSummary, error)
}

var (
	_ Recommender      = (*recommend.Engine)(nil)
	_ FeedbackRecorder = (*recommend.FeedbackProcessor)(nil)
)

// HealthCheck is one named readiness probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves the recommendation API.
type Handler struct {
	engine   Recommender
	feedback FeedbackRecorder
	checks   []HealthCheck
	logger   zerolog.Logger

	// readyTimeout bounds all readiness checks together.
	readyTimeout time.Duration
}

// NewHandler creates a Handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, feedback FeedbackRecorder, logger zerolog.Logger, checks ...HealthCheck) *Handler {
	return &Handler{
		engine:       engine,
		feedback:     feedback,
		checks:       checks,
		logger:       logger.With().Str("component", "api").Logger(),
		readyTimeout: 2 * time.Second,
	}
}

// validateRequest runs struct validation and writes a 400 on failure.
func validateRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	write(w, r, http.StatusBadRequest, &Response{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details},
	})
	return false
}

// withUser tags the request context with the path user so request logs carry it.
func withUser(r *http.Request) (*http.Request, string) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		return r, ""
	}
	return r.WithContext(logging.ContextWithUserID(r.Context(), userID)), userID
}
