// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/validation"
)

// Reasons given for empty responses.
const (
	ReasonDisabled     = "recommendations disabled"
	ReasonNoCandidates = "not enough data to recommend yet"
)

// cacheName labels response cache metrics.
const cacheName = "recommendations"

// Engine is the recommendation orchestrator. It resolves the profile, runs
// the requested strategy, computes quality metrics, persists the set and
// caches the response. It is safe for concurrent use; all per-request state
// is local to the call.
type Engine struct {
	cfg        *Config
	strategies map[models.Algorithm]Strategy
	stores     Stores
	catalog    Catalog
	history    ReadingHistory
	cache      Cache
	events     EventPublisher
	logger     zerolog.Logger
	now        func() time.Time

	// profileMu serializes profile read-modify-write cycles.
	profileMu sync.Mutex
}

// EngineDeps are the collaborators of an Engine. Cache, Events and History
// are optional.
type EngineDeps struct {
	Strategies map[models.Algorithm]Strategy
	Stores     Stores
	Catalog    Catalog
	History    ReadingHistory
	Cache      Cache
	Events     EventPublisher
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. Every algorithm must have a strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps EngineDeps, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, alg := range models.Algorithms {
		if deps.Strategies[alg] == nil {
			return nil, fmt.Errorf("no strategy registered for %s", alg)
		}
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.Stores.Profiles == nil || deps.Stores.Interactions == nil || deps.Stores.Recommendations == nil {
		return nil, errors.New("profile, interaction and recommendation stores are required")
	}

	e := &Engine{
		cfg:        cfg.Clone(),
		strategies: deps.Strategies,
		stores:     deps.Stores,
		catalog:    deps.Catalog,
		history:    deps.History,
		cache:      deps.Cache,
		events:     deps.Events,
		logger:     logger.With().Str("component", "recommend").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}

// Generate produces, persists and caches a recommendation response.
//
// Malformed requests fail with ErrInvalidRequest or ErrUnknownAlgorithm.
// A user with recommendations disabled gets an empty response with reason
// "recommendations disabled" and nothing is persisted. A strategy without
// data falls back to popularity; a strategy that fails outright is a hard
// ErrScoringFailure. When the generation timeout expires the engine answers
// from the popularity strategy and sets FallbackUsed.
func (e *Engine) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	req, err := e.normalizeRequest(req)
	if err != nil {
		metrics.RecordRecommendation("none", "invalid", 0, time.Since(start))
		return nil, err
	}

	logger := e.logger.With().
		Str("user_id", req.UserID).
		Str("algorithm", string(req.Algorithm)).
		Int("count", req.Count).
		Logger()

	profile, err := e.resolveProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if !profile.RecommendationsEnabled {
		logger.Debug().Msg("recommendations disabled for user")
		metrics.RecordRecommendation(string(req.Algorithm), "disabled", 0, time.Since(start))
		now := e.now()
		return &Response{
			UserID:             req.UserID,
			Algorithm:          req.Algorithm,
			RequestedAlgorithm: req.Algorithm,
			Items:              []ResponseItem{},
			Reason:             ReasonDisabled,
			Preferences:        echoPreferences(profile),
			GeneratedAt:        now,
			ExpiresAt:          now,
		}, nil
	}

	key := CacheKey(req)
	if resp := e.lookupCache(ctx, key, req.ForceRefresh, logger); resp != nil {
		metrics.RecordRecommendation(string(resp.Algorithm), "cached", len(resp.Items), time.Since(start))
		return resp, nil
	}

	exclude, err := e.excludeSet(ctx, req)
	if err != nil {
		return nil, err
	}

	in := ScoringInput{
		UserID:  req.UserID,
		Profile: profile,
		Exclude: exclude,
		Count:   req.Count,
		Context: req.Context,
	}

	outcome, err := e.score(ctx, req, in, logger)
	if err != nil {
		metrics.RecordRecommendation(string(req.Algorithm), "error", 0, time.Since(start))
		return nil, err
	}

	cands := e.finalizeCandidates(ctx, outcome.candidates, exclude, req.Count, logger)
	if len(cands) == 0 {
		logger.Info().Msg("no candidates for user")
		metrics.RecordRecommendation(string(outcome.algorithm), "empty", 0, time.Since(start))
		now := e.now()
		return &Response{
			UserID:             req.UserID,
			Algorithm:          outcome.algorithm,
			RequestedAlgorithm: req.Algorithm,
			Items:              []ResponseItem{},
			Reason:             ReasonNoCandidates,
			Confidence:         Confidence(profile, nil),
			Preferences:        echoPreferences(profile),
			GeneratedAt:        now,
			ExpiresAt:          now,
			FallbackUsed:       outcome.fallback,
			FailedStrategies:   outcome.failed,
		}, nil
	}

	resp, err := e.persist(ctx, req, profile, outcome, cands)
	if err != nil {
		metrics.RecordRecommendation(string(outcome.algorithm), "error", 0, time.Since(start))
		return nil, err
	}

	e.storeCache(ctx, key, req, resp, logger)
	e.publishGenerated(ctx, resp, logger)

	logger.Info().
		Str("set_id", resp.SetID).
		Str("served_by", string(resp.Algorithm)).
		Int("items", len(resp.Items)).
		Bool("fallback", resp.FallbackUsed).
		Dur("duration", time.Since(start)).
		Msg("recommendations generated")
	metrics.RecordRecommendation(string(resp.Algorithm), "generated", len(resp.Items), time.Since(start))

	return resp, nil
}

// normalizeRequest applies defaults and validates the request.
func (e *Engine) normalizeRequest(req Request) (Request, error) {
	if req.Algorithm == "" {
		req.Algorithm = models.AlgorithmHybrid
	}
	if req.Count == 0 {
		req.Count = e.cfg.Limits.DefaultCount
	}
	if !req.Algorithm.Valid() {
		return req, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(req.Algorithm))
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, fmt.Errorf("%w: %s", ErrInvalidRequest, verr.Error())
	}
	if req.Count < 1 || req.Count > e.cfg.Limits.MaxCount {
		return req, fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrInvalidRequest, e.cfg.Limits.MaxCount, req.Count)
	}
	if req.Timeout < 0 {
		return req, fmt.Errorf("%w: timeout must not be negative, got %v", ErrInvalidRequest, req.Timeout)
	}
	req.Timeout = min(req.Timeout, e.cfg.Limits.MaxTimeout)
	return req, nil
}

// resolveProfile loads the profile, creating the default one on first use.
func (e *Engine) resolveProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := e.stores.Profiles.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	profile = models.NewUserProfile(userID, e.now())
	if err := e.stores.Profiles.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	e.logger.Debug().Str("user_id", userID).Msg("created default profile")
	return profile, nil
}

// excludeSet merges the request exclusions with everything the user has
// already seen: logged interactions other than searches, and the reading
// history.
func (e *Engine) excludeSet(ctx context.Context, req Request) (ExcludeSet, error) {
	exclude := NewExcludeSet(req.ExcludeItemIDs)

	interactions, err := e.stores.Interactions.UserInteractions(ctx, req.UserID, e.cfg.Limits.SeenLookback)
	if err != nil {
		return nil, fmt.Errorf("interaction log: %w", err)
	}
	for i := range interactions {
		if interactions[i].Type != models.InteractionSearch {
			exclude.Add(interactions[i].ItemID)
		}
	}

	if e.history == nil {
		return exclude, nil
	}
	entries, err := e.history.GetUserHistory(ctx, req.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	for _, entry := range entries {
		exclude.Add(entry.ItemID)
	}
	return exclude, nil
}

// scoreOutcome is what the strategy stage produced.
type scoreOutcome struct {
	algorithm  models.Algorithm
	candidates []Candidate
	failed     []string
	fallback   bool
}

// score runs the requested strategy under the generation timeout and applies
// the fallback rules.
func (e *Engine) score(ctx context.Context, req Request, in ScoringInput, logger zerolog.Logger) (scoreOutcome, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.cfg.GenerationTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := scoreOutcome{algorithm: req.Algorithm}
	strategy := e.strategies[req.Algorithm]

	var err error
	if composite, ok := strategy.(CompositeStrategy); ok {
		out.candidates, out.failed, err = composite.ScoreDetailed(sctx, in)
	} else {
		out.candidates, err = strategy.Score(sctx, in)
	}

	switch {
	case err == nil:
		return out, nil

	case ctx.Err() != nil:
		return out, ctx.Err()

	case sctx.Err() != nil:
		logger.Warn().Dur("timeout", timeout).Msg("generation timed out, falling back to popularity")
		metrics.RecordStrategyFailure(string(req.Algorithm), "timeout")
		metrics.RecordFallback("timeout")
		return e.popularityFallback(ctx, in, out)

	case errors.Is(err, ErrInsufficientData):
		if req.Algorithm == models.AlgorithmPopularity {
			return scoreOutcome{algorithm: req.Algorithm, failed: out.failed}, nil
		}
		logger.Debug().Err(err).Msg("insufficient data, falling back to popularity")
		metrics.RecordFallback("insufficient_data")
		return e.popularityFallback(ctx, in, out)

	case errors.Is(err, ErrScoringFailure):
		logger.Error().Err(err).Msg("all strategies failed")
		return out, err

	default:
		logger.Error().Err(err).Msg("strategy failed")
		metrics.RecordStrategyFailure(string(req.Algorithm), "error")
		return out, fmt.Errorf("%s: %w: %w", req.Algorithm, ErrScoringFailure, err)
	}
}

func (e *Engine) popularityFallback(ctx context.Context, in ScoringInput, prev scoreOutcome) (scoreOutcome, error) {
	out := scoreOutcome{
		algorithm: models.AlgorithmPopularity,
		failed:    prev.failed,
		fallback:  true,
	}
	cands, err := e.strategies[models.AlgorithmPopularity].Score(ctx, in)
	switch {
	case err == nil:
		out.candidates = cands
		return out, nil
	case errors.Is(err, ErrInsufficientData):
		return out, nil
	default:
		metrics.RecordStrategyFailure(string(models.AlgorithmPopularity), "error")
		return out, fmt.Errorf("popularity fallback: %w: %w", ErrScoringFailure, err)
	}
}

// finalizeCandidates removes excluded and duplicate items, attaches catalog
// records, drops items the catalog does not know, clips scores and orders by
// descending score.
func (e *Engine) finalizeCandidates(ctx context.Context, in []Candidate, exclude ExcludeSet, count int, logger zerolog.Logger) []Candidate {
	seen := make(map[string]struct{}, len(in))
	out := make([]Candidate, 0, len(in))
	var missing []string
	for _, c := range in {
		if c.ItemID == "" || exclude.Has(c.ItemID) {
			continue
		}
		if _, dup := seen[c.ItemID]; dup {
			continue
		}
		seen[c.ItemID] = struct{}{}
		c.Score = clip01(c.Score)
		if c.Item == nil {
			missing = append(missing, c.ItemID)
		}
		out = append(out, c)
	}

	if len(missing) > 0 {
		items, err := e.catalog.GetItems(ctx, missing)
		if err != nil {
			logger.Warn().Err(err).Int("items", len(missing)).Msg("failed to load candidate items")
			items = nil
		}
		kept := out[:0]
		for _, c := range out {
			if c.Item == nil {
				item, ok := items[c.ItemID]
				if !ok {
					continue
				}
				c.Item = item
			}
			kept = append(kept, c)
		}
		out = kept
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// persist writes the set and its rows and builds the response.
func (e *Engine) persist(ctx context.Context, req Request, profile *models.UserProfile, outcome scoreOutcome, cands []Candidate) (*Response, error) {
	now := e.now()
	set := &models.RecommendationSet{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		Algorithm:        outcome.algorithm,
		AlgorithmVersion: e.cfg.AlgorithmVersion,
		Context:          req.Context,
		Parameters:       e.parameters(req, outcome),
		GeneratedAt:      now,
		ExpiresAt:        now.Add(e.cfg.SetTTL),
	}

	recs := make([]models.Recommendation, len(cands))
	items := make([]ResponseItem, len(cands))
	for i, c := range cands {
		explanation := Explain(c.Reasons)
		recs[i] = models.Recommendation{
			ID:          uuid.NewString(),
			SetID:       set.ID,
			ItemID:      c.ItemID,
			Score:       c.Score,
			Position:    i + 1,
			Reasons:     c.Reasons,
			Explanation: explanation,
		}
		items[i] = ResponseItem{
			RecommendationID: recs[i].ID,
			ItemID:           c.ItemID,
			Item:             c.Item,
			Score:            c.Score,
			Position:         i + 1,
			Reasons:          c.Reasons,
			Explanation:      explanation,
		}
	}

	if err := e.stores.Recommendations.SaveSet(ctx, set, recs); err != nil {
		return nil, fmt.Errorf("persist recommendation set: %w", err)
	}

	novelty, err := e.novelty(ctx, req.UserID, cands)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("novelty unavailable")
	}

	return &Response{
		SetID:              set.ID,
		UserID:             req.UserID,
		Algorithm:          outcome.algorithm,
		RequestedAlgorithm: req.Algorithm,
		Items:              items,
		Confidence:         Confidence(profile, cands),
		Diversity:          Diversity(cands),
		Novelty:            novelty,
		Preferences:        echoPreferences(profile),
		GeneratedAt:        set.GeneratedAt,
		ExpiresAt:          set.ExpiresAt,
		FallbackUsed:       outcome.fallback,
		FailedStrategies:   outcome.failed,
	}, nil
}

func (e *Engine) parameters(req Request, outcome scoreOutcome) map[string]any {
	params := map[string]any{
		"count":               req.Count,
		"requested_algorithm": string(req.Algorithm),
		"fallback_used":       outcome.fallback,
		"exclude_count":       len(req.ExcludeItemIDs),
	}
	if outcome.algorithm == models.AlgorithmHybrid {
		w := e.cfg.Weights.Normalize()
		params["weight_content"] = w.Content
		params["weight_collaborative"] = w.Collaborative
		params["weight_popularity"] = w.Popularity
	}
	if len(outcome.failed) > 0 {
		params["failed_strategies"] = outcome.failed
	}
	return params
}

// CacheKey returns the response cache key of a normalized request:
// rec:{user}:{algorithm}:{count}:{hash of context and exclusions}.
func CacheKey(req Request) string {
	excludes := append([]string(nil), req.ExcludeItemIDs...)
	sort.Strings(excludes)
	return cache.Key("rec", req.UserID, string(req.Algorithm), fmt.Sprint(req.Count), cache.Hash(struct {
		Context  map[string]string `json:"c"`
		Excludes []string          `json:"e"`
	}{req.Context, excludes}))
}

// userCachePrefix is the prefix shared by every cache key of a user.
func userCachePrefix(userID string) string {
	return cache.Key("rec", userID) + ":"
}

// lookupCache returns a cached response, or nil on a miss. A force refresh
// deletes the key and always misses.
func (e *Engine) lookupCache(ctx context.Context, key string, forceRefresh bool, logger zerolog.Logger) *Response {
	if e.cache == nil || !e.cfg.Cache.Enabled {
		return nil
	}

	if forceRefresh {
		if err := e.cache.Delete(ctx, key); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate cache entry")
		}
		metrics.RecordCacheResult(cacheName, false)
		return nil
	}

	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		metrics.RecordCacheResult(cacheName, false)
		return nil
	}
	if !ok {
		metrics.RecordCacheResult(cacheName, false)
		return nil
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		_ = e.cache.Delete(ctx, key)
		metrics.RecordCacheResult(cacheName, false)
		return nil
	}

	metrics.RecordCacheResult(cacheName, true)
	logger.Debug().Str("set_id", resp.SetID).Msg("cache hit")
	resp.FromCache = true
	return &resp
}

// storeCache writes the response. Concurrent writers for the same key are
// last-writer-wins.
func (e *Engine) storeCache(ctx context.Context, key string, req Request, resp *Response, logger zerolog.Logger) {
	if e.cache == nil || !e.cfg.Cache.Enabled {
		return
	}

	ttl := e.cfg.Cache.RecommendationTTL
	if resp.Algorithm == models.AlgorithmHybrid {
		ttl = e.cfg.Cache.PersonalizedTTL
	}
	if remaining := resp.ExpiresAt.Sub(e.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}

	if req.ForceRefresh {
		if _, ok, err := e.cache.Get(ctx, key); err == nil && ok {
			logger.Debug().Err(ErrStaleCacheRace).Str("key", key).Msg("overwriting entry written during refresh")
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to encode response for cache")
		return
	}
	if err := e.cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (e *Engine) publishGenerated(ctx context.Context, resp *Response, logger zerolog.Logger) {
	if e.events == nil {
		return
	}
	ev := eventbus.NewEvent(eventbus.TypeRecommendationGenerated, resp.UserID)
	ev.SetID = resp.SetID
	ev.Algorithm = string(resp.Algorithm)
	ev.ItemIDs = make([]string, len(resp.Items))
	for i := range resp.Items {
		ev.ItemIDs[i] = resp.Items[i].ItemID
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Msg("failed to publish recommendation_generated")
	}
}

func echoPreferences(p *models.UserProfile) PreferencesEcho {
	return PreferencesEcho{
		PreferredGenres:    append([]string{}, p.PreferredGenres...),
		PreferredAuthors:   append([]string{}, p.PreferredAuthors...),
		PreferredLanguages: append([]string{}, p.PreferredLanguages...),
		ReadingLevel:       p.ReadingLevel,
		ReadingFrequency:   p.ReadingFrequency,
	}
}

func clip01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
