// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// generateBody is the POST body for a recommendation request. The user
// comes from the path.
type generateBody struct {
	Algorithm      models.Algorithm  `json:"algorithm"`
	Count          int               `json:"count"`
	Context        map[string]string `json:"context,omitempty"`
	ExcludeItemIDs []string          `json:"exclude_item_ids,omitempty"`
	ForceRefresh   bool              `json:"force_refresh"`
}

// Recommendations handles POST /api/v1/users/{userID}/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	r, userID := withUser(r)

	var body generateBody
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.generate(w, r, recommend.Request{
		UserID:         userID,
		Algorithm:      body.Algorithm,
		Count:          body.Count,
		Context:        body.Context,
		ExcludeItemIDs: body.ExcludeItemIDs,
		ForceRefresh:   body.ForceRefresh,
	})
}

// RecommendationsQuery handles GET /api/v1/users/{userID}/recommendations
// with algorithm, count, exclude, refresh and timeout_ms query parameters.
func (h *Handler) RecommendationsQuery(w http.ResponseWriter, r *http.Request) {
	r, userID := withUser(r)

	count, err := intParam(r, "count")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	q := r.URL.Query()
	h.generate(w, r, recommend.Request{
		UserID:         userID,
		Algorithm:      models.Algorithm(q.Get("algorithm")),
		Count:          count,
		ExcludeItemIDs: commaList(q.Get("exclude")),
		ForceRefresh:   q.Get("refresh") == "true",
	})
}

// generate serves both request forms. An optional timeout_ms query
// parameter bounds generation; the engine caps it at its configured maximum.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, req recommend.Request) {
	timeoutMS, err := intParam(r, "timeout_ms")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if timeoutMS < 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "timeout_ms must not be negative", nil)
		return
	}
	req.Timeout = time.Duration(timeoutMS) * time.Millisecond

	if !validateRequest(w, r, &req) {
		return
	}

	start := time.Now()
	resp, err := h.engine.Generate(r.Context(), req)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, resp, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Cached:      resp.FromCache,
	})
}

// SimilarItems handles GET /api/v1/items/{itemID}/similar?count=N.
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	count, err := intParam(r, "count")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	start := time.Now()
	items, err := h.engine.SimilarItems(r.Context(), chi.URLParam(r, "itemID"), count)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, items, Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// Trending handles GET /api/v1/trending?period=day&type=overall&limit=N.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	q := r.URL.Query()
	period := models.TrendPeriod(q.Get("period"))
	if period == "" {
		period = models.TrendPeriodWeek
	}
	trendType := models.TrendType(q.Get("type"))
	if trendType == "" {
		trendType = models.TrendTypeOverall
	}

	start := time.Now()
	items, err := h.engine.Trending(r.Context(), period, trendType, limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, items, Metadata{QueryTimeMS: time.Since(start).Milliseconds()})
}

// interactionBody is the POST body for a recorded interaction.
type interactionBody struct {
	ItemID             string                 `json:"item_id" validate:"required"`
	Type               models.InteractionType `json:"type" validate:"required,interaction_type"`
	Value              *float64               `json:"value,omitempty"`
	SessionID          string                 `json:"session_id,omitempty" validate:"max=128"`
	DeviceType         string                 `json:"device_type,omitempty" validate:"max=64"`
	Timestamp          *time.Time             `json:"timestamp,omitempty"`
	FromRecommendation bool                   `json:"from_recommendation"`
	SourceAlgorithm    string                 `json:"source_algorithm,omitempty"`
	SourceScore        float64                `json:"source_score,omitempty" validate:"gte=0,lte=1"`
}

// RecordInteraction handles POST /api/v1/users/{userID}/interactions.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	r, userID := withUser(r)

	var body interactionBody
	if err := decodeJSON(r, &body); err != nil {
		respondEngineError(w, r, err)
		return
	}
	if !validateRequest(w, r, &body) {
		return
	}

	in := &models.Interaction{
		UserID:             userID,
		ItemID:             body.ItemID,
		Type:               body.Type,
		Value:              body.Value,
		SessionID:          body.SessionID,
		DeviceType:         body.DeviceType,
		FromRecommendation: body.FromRecommendation,
		SourceAlgorithm:    body.SourceAlgorithm,
		SourceScore:        body.SourceScore,
	}
	if body.Timestamp != nil {
		in.Timestamp = body.Timestamp.UTC()
	}

	rec, err := h.engine.RecordInteraction(r.Context(), in)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, rec, Metadata{})
}

// GetPreferences handles GET /api/v1/users/{userID}/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	r, userID := withUser(r)

	profile, err := h.engine.GetProfile(r.Context(), userID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, profile, Metadata{})
}

// UpdatePreferences handles PUT /api/v1/users/{userID}/preferences.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	r, userID := withUser(r)

	var upd recommend.PreferencesUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondEngineError(w, r, err)
		return
	}
	if !validateRequest(w, r, &upd) {
		return
	}

	profile, err := h.engine.UpdatePreferences(r.Context(), userID, upd)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.logger.Info().
		Str("user_id", userID).
		Int("genres", len(profile.PreferredGenres)).
		Int("authors", len(profile.PreferredAuthors)).
		Msg("Preferences updated")
	respondJSON(w, r, http.StatusOK, profile, Metadata{})
}
