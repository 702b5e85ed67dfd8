// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator with the domain enum validators
// of the recommendation service and translates failures into the API's
// VALIDATION_ERROR format. Failures name fields by their JSON tag so API
// clients see the names they sent.
//
// # Custom Tags
//
//   - algorithm: content_based, collaborative, popularity, hybrid
//   - feedback_type: like, dislike, not_interested, inappropriate,
//     good_recommendation, bad_recommendation
//   - interaction_type: view, download, read_start, read_complete, rating,
//     purchase, search, bookmark, share, recommendation_click
//   - reading_level, reading_frequency: profile enums
//   - trend_period, trend_type: trending list selectors
//
// # Usage
//
//	type GenerateRequest struct {
//	    UserID    string `json:"user_id" validate:"required"`
//	    Algorithm string `json:"algorithm" validate:"omitempty,algorithm"`
//	    Count     int    `json:"count" validate:"gte=0,lte=50"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
