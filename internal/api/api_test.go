// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

type testServer struct {
	router http.Handler
	store  *memstore.Store
}

func newTestServer(t *testing.T, server *config.ServerConfig, checks ...HealthCheck) *testServer {
	t.Helper()
	clock := func() time.Time { return testNow }
	store := memstore.New(memstore.WithClock(clock))
	for i, id := range []string{"dune", "foundation", "hobbit", "emma", "orient", "nile"} {
		store.PutItem(&models.Item{
			ID:              id,
			Title:           id,
			Authors:         []string{fmt.Sprintf("author-%d", i%3)},
			Categories:      []string{fmt.Sprintf("genre-%d", i%2)},
			AvgRating:       4.0,
			PublicationDate: testNow.AddDate(-i, 0, 0),
		})
		err := store.UpsertVector(context.Background(), &models.ItemVector{
			ItemID:          id,
			PopularityScore: 0.9 - float64(i)*0.1,
			QualityScore:    0.8,
			RecencyScore:    0.5,
			RatingAverage:   4.0,
			RatingCount:     10,
		})
		if err != nil {
			t.Fatalf("UpsertVector() error = %v", err)
		}
	}

	cfg := recommend.DefaultConfig()
	strategies := algorithms.NewStrategies(algorithms.Deps{
		Catalog:      store,
		History:      store,
		Interactions: store,
		Vectors:      store,
	}, cfg, zerolog.Nop())
	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{
		Strategies: strategies,
		Stores:     store.Stores(),
		Catalog:    store,
		History:    store,
	}, zerolog.Nop(), recommend.WithClock(clock))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	feedback, err := recommend.NewFeedbackProcessor(store.Stores(), engine, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFeedbackProcessor() error = %v", err)
	}
	feedback.SetClock(clock)

	if server == nil {
		server = &config.ServerConfig{CORSOrigins: []string{"*"}}
	}
	return &testServer{
		router: NewRouter(server, NewHandler(engine, feedback, zerolog.Nop(), checks...)),
		store:  store,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestRecommendationLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/users/u1/recommendations", map[string]any{
		"algorithm": "popularity",
		"count":     3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" || env.Metadata.RequestID == "" {
		t.Errorf("envelope = %+v, want success with request id", env)
	}
	var resp recommend.Response
	decodeData(t, env, &resp)
	if resp.SetID == "" || len(resp.Items) == 0 || len(resp.Items) > 3 {
		t.Fatalf("response = %+v, want a persisted set of at most 3 items", resp)
	}
	recID := resp.Items[0].RecommendationID

	var tr transitionResult
	rec, env = s.do(t, http.MethodPost, "/api/v1/recommendations/"+recID+"/impression", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("impression status = %d", rec.Code)
	}
	decodeData(t, env, &tr)
	if !tr.Changed {
		t.Error("first impression should change the recommendation")
	}
	_, env = s.do(t, http.MethodPost, "/api/v1/recommendations/"+recID+"/impression", nil)
	decodeData(t, env, &tr)
	if tr.Changed {
		t.Error("repeated impression should be a no-op")
	}

	if rec, _ = s.do(t, http.MethodPost, "/api/v1/recommendations/"+recID+"/click", nil); rec.Code != http.StatusOK {
		t.Fatalf("click status = %d", rec.Code)
	}

	fb := map[string]any{"user_id": "u1", "type": "like"}
	if rec, _ = s.do(t, http.MethodPost, "/api/v1/recommendations/"+recID+"/feedback", fb); rec.Code != http.StatusCreated {
		t.Fatalf("feedback status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec, env = s.do(t, http.MethodPost, "/api/v1/recommendations/"+recID+"/feedback", fb)
	if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != "DUPLICATE_FEEDBACK" {
		t.Fatalf("duplicate feedback = %d %+v, want 409 DUPLICATE_FEEDBACK", rec.Code, env.Error)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/sets/"+resp.SetID+"/feedback", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var summary recommend.FeedbackSummary
	decodeData(t, env, &summary)
	if summary.Count != 1 || summary.ByType[models.FeedbackLike] != 1 {
		t.Errorf("summary = %+v, want one like", summary)
	}
}

func TestRecommendationsQueryParams(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/u2/recommendations?algorithm=popularity&count=2&exclude=dune,foundation", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp recommend.Response
	decodeData(t, env, &resp)
	if len(resp.Items) > 2 {
		t.Errorf("got %d items, want at most 2", len(resp.Items))
	}
	for _, it := range resp.Items {
		if it.ItemID == "dune" || it.ItemID == "foundation" {
			t.Errorf("excluded item %s returned", it.ItemID)
		}
	}
}

// capturingEngine records the last generation request and answers with an
// empty response.
type capturingEngine struct {
	Recommender
	got recommend.Request
}

func (c *capturingEngine) Generate(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	c.got = req
	return &recommend.Response{UserID: req.UserID, Items: []recommend.ResponseItem{}}, nil
}

func TestRecommendationsTimeoutParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		want   time.Duration
	}{
		{"query form", http.MethodGet, "/api/v1/users/u1/recommendations?timeout_ms=250", 250 * time.Millisecond},
		{"body form", http.MethodPost, "/api/v1/users/u1/recommendations?timeout_ms=1500", 1500 * time.Millisecond},
		{"absent", http.MethodGet, "/api/v1/users/u1/recommendations", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := &capturingEngine{}
			router := NewRouter(&config.ServerConfig{}, NewHandler(engine, nil, zerolog.Nop()))

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewReader([]byte("{}")))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if engine.got.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", engine.got.Timeout, tt.want)
			}
		})
	}
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode string
	}{
		{"count too large", http.MethodPost, "/api/v1/users/u1/recommendations", map[string]any{"count": 500}, "VALIDATION_ERROR"},
		{"unknown algorithm", http.MethodPost, "/api/v1/users/u1/recommendations", map[string]any{"algorithm": "astrology"}, "VALIDATION_ERROR"},
		{"malformed json", http.MethodPost, "/api/v1/users/u1/recommendations", "{not json", "INVALID_REQUEST"},
		{"count not a number", http.MethodGet, "/api/v1/users/u1/recommendations?count=ten", nil, "INVALID_REQUEST"},
		{"timeout not a number", http.MethodGet, "/api/v1/users/u1/recommendations?timeout_ms=soon", nil, "INVALID_REQUEST"},
		{"negative timeout", http.MethodPost, "/api/v1/users/u1/recommendations?timeout_ms=-5", map[string]any{}, "INVALID_REQUEST"},
		{"unknown trend period", http.MethodGet, "/api/v1/trending?period=year", nil, "INVALID_REQUEST"},
		{"unknown interaction type", http.MethodPost, "/api/v1/users/u1/interactions", map[string]any{"item_id": "dune", "type": "stare"}, "VALIDATION_ERROR"},
		{"feedback without user", http.MethodPost, "/api/v1/recommendations/r1/feedback", map[string]any{"type": "like"}, "VALIDATION_ERROR"},
		{"bad reading level", http.MethodPut, "/api/v1/users/u1/preferences", map[string]any{"reading_level": "wizard"}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := s.do(t, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestInteractionsAndPreferences(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/users/u3/interactions", map[string]any{
		"item_id": "dune",
		"type":    "rating",
		"value":   4.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("interaction status = %d, body %s", rec.Code, rec.Body.String())
	}
	var in models.Interaction
	decodeData(t, env, &in)
	if in.ID == "" || in.UserID != "u3" || !in.Timestamp.Equal(testNow) {
		t.Errorf("interaction = %+v, want id, path user and clock timestamp", in)
	}

	rec, _ = s.do(t, http.MethodPut, "/api/v1/users/u3/preferences", map[string]any{
		"preferred_genres": []string{"genre-0"},
		"reading_level":    "advanced",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/u3/preferences", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var profile models.UserProfile
	decodeData(t, env, &profile)
	if len(profile.PreferredGenres) == 0 || profile.PreferredGenres[0] != "genre-0" {
		t.Errorf("PreferredGenres = %v, want genre-0 first", profile.PreferredGenres)
	}
	if profile.ReadingLevel != models.ReadingLevel("advanced") {
		t.Errorf("ReadingLevel = %q, want advanced", profile.ReadingLevel)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/recommendations/missing/click", nil)
	if rec.Code != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Errorf("unknown recommendation = %d %+v, want 404", rec.Code, env.Error)
	}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/nowhere", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/trending", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	healthy := newTestServer(t, nil, HealthCheck{Name: "store", Check: func(context.Context) error { return nil }})
	if rec, _ := healthy.do(t, http.MethodGet, "/health/ready", nil); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	broken := newTestServer(t, nil,
		HealthCheck{Name: "store", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "nats", Check: func(context.Context) error { return errors.New("not connected") }},
	)
	rec, env := broken.do(t, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", rec.Code)
	}
	var data struct {
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, env, &data)
	if data.Checks["nats"] != "not connected" || data.Checks["store"] != "ok" {
		t.Errorf("checks = %v", data.Checks)
	}

	if rec, _ := broken.do(t, http.MethodGet, "/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200 regardless of readiness", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &config.ServerConfig{
		CORSOrigins:       []string{"*"},
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})

	for i := range 2 {
		if rec, _ := s.do(t, http.MethodGet, "/api/v1/trending", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
	rec, env := s.do(t, http.MethodGet, "/api/v1/trending", nil)
	if rec.Code != http.StatusTooManyRequests || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("third request = %d %+v, want 429", rec.Code, env.Error)
	}
	if rec, _ := s.do(t, http.MethodGet, "/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("probe throttled: status %d", rec.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("x: %w", recommend.ErrInvalidRequest), http.StatusBadRequest, "INVALID_REQUEST"},
		{recommend.ErrUnknownAlgorithm, http.StatusBadRequest, "UNKNOWN_ALGORITHM"},
		{fmt.Errorf("rec r1: %w", recommend.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{recommend.ErrDuplicateFeedback, http.StatusConflict, "DUPLICATE_FEEDBACK"},
		{fmt.Errorf("%w: %w", catalog.ErrUnavailable, errors.New("open")), http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"},
		{recommend.ErrScoringFailure, http.StatusServiceUnavailable, "SCORING_FAILURE"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code := errorStatus(tt.err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Errorf("errorStatus(%v) = %d %s, want %d %s", tt.err, status, code, tt.wantStatus, tt.wantCode)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
