// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// transitionResult reports the recommendation after an engagement event.
// Changed is false when the event was a repeat.
type transitionResult struct {
	Recommendation *models.Recommendation `json:"recommendation"`
	Changed        bool                   `json:"changed"`
}

type transitionFunc func(ctx context.Context, recID string) (*models.Recommendation, bool, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	rec, changed, err := fn(r.Context(), chi.URLParam(r, "recID"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, transitionResult{Recommendation: rec, Changed: changed}, Metadata{})
}

// Impression handles POST /api/v1/recommendations/{recID}/impression.
func (h *Handler) Impression(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.feedback.RecordImpression)
}

// Click handles POST /api/v1/recommendations/{recID}/click.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.feedback.RecordClick)
}

// Conversion handles POST /api/v1/recommendations/{recID}/conversion.
func (h *Handler) Conversion(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.feedback.RecordConversion)
}

type feedbackBody struct {
	UserID  string              `json:"user_id"`
	Type    models.FeedbackType `json:"type"`
	Rating  *int                `json:"rating,omitempty"`
	Comment string              `json:"comment,omitempty"`
}

// SubmitFeedback handles POST /api/v1/recommendations/{recID}/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackBody
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, err)
		return
	}
	in := recommend.FeedbackInput{
		UserID:           body.UserID,
		RecommendationID: chi.URLParam(r, "recID"),
		Type:             body.Type,
		Rating:           body.Rating,
		Comment:          body.Comment,
	}
	if !validateRequest(w, r, &in) {
		return
	}

	fb, err := h.feedback.SubmitFeedback(r.Context(), in)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, fb, Metadata{})
}

// FeedbackSummary handles GET /api/v1/sets/{setID}/feedback.
func (h *Handler) FeedbackSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.feedback.FeedbackSummary(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary, Metadata{})
}
