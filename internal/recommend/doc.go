// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package recommend is the recommendation core of Folio.
//
// # Architecture
//
// The package owns the domain contracts and the orchestration around them:
//
//   - Engine: resolves the user profile, runs a scoring strategy, computes
//     diversity, novelty and confidence, persists the recommendation set and
//     caches the response
//   - FeedbackProcessor: impression, click and conversion tracking plus
//     explicit feedback, fed back into the interaction log
//   - Store interfaces: catalog, reading history, profiles, interactions,
//     item vectors, similarity edges, trends, sets and feedback
//
// Scoring strategies live in the algorithms subpackage, the in-memory
// stores in memstore and the offline jobs in batch. DuckDB-backed stores
// are in internal/database.
//
// # Generation
//
// Generate walks a fixed sequence of states:
//
//	PROFILE_RESOLVED -> STRATEGY_SELECTED -> CANDIDATES_SCORED ->
//	METRICS_COMPUTED -> SET_PERSISTED -> CACHED -> RETURNED
//
// A profile with recommendations disabled short-circuits to an empty
// response and nothing is persisted. Strategies without enough data fall
// back to the popularity strategy, as does a generation that exceeds its
// timeout; both set Response.FallbackUsed.
//
// # Caching
//
// Responses are cached under
//
//	rec:{user}:{algorithm}:{count}:{hash}
//
// where the hash covers the request context and exclusions. Every key of a
// user shares the rec:{user}: prefix, which InvalidateUser removes on
// preference changes and profile accretion. Concurrent refreshes of the
// same key are last-writer-wins.
//
// # Usage
//
//	store := memstore.New()
//	strategies := algorithms.NewStrategies(algorithms.Deps{...}, cfg, logger)
//	engine, err := recommend.NewEngine(cfg, recommend.EngineDeps{
//	    Strategies: strategies,
//	    Stores:     store.Stores(),
//	    Catalog:    store,
//	    History:    store,
//	    Cache:      cache.NewMemory(),
//	    Events:     bus,
//	}, logger)
//
//	resp, err := engine.Generate(ctx, recommend.Request{UserID: "u1", Count: 10})
//
// # Thread Safety
//
// Engine and FeedbackProcessor are safe for concurrent use. Request state is
// local to each call; profile read-modify-write cycles are serialized.
package recommend
