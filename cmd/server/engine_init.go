// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/batch"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
	"github.com/tomtom215/folio/internal/supervisor/services"
)

// components are the engine-side objects main hands to the supervisor.
type components struct {
	engine    *recommend.Engine
	feedback  *recommend.FeedbackProcessor
	scheduler *services.SchedulerService
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func initEngine(cfg *config.Config, b *backends, bus *eventbus.Bus, logger zerolog.Logger) (*components, error) {
	strategies := algorithms.NewStrategies(algorithms.Deps{
		Catalog:      b.catalog,
		History:      b.history,
		Interactions: b.stores.Interactions,
		Vectors:      b.stores.Vectors,
	}, &cfg.Recommend, logger)

	engine, err := recommend.NewEngine(&cfg.Recommend, recommend.EngineDeps{
		Strategies: strategies,
		Stores:     b.stores,
		Catalog:    b.catalog,
		History:    b.history,
		Cache:      b.cache,
		Events:     bus,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	feedback, err := recommend.NewFeedbackProcessor(b.stores, engine, bus, logger)
	if err != nil {
		return nil, fmt.Errorf("create feedback processor: %w", err)
	}

	// Profile accretion and cache invalidation run off the bus.
	bus.SubscribeAll(eventbus.Subscriptions(), engine)

	return &components{engine: engine, feedback: feedback}, nil
}

// initScheduler builds the batch jobs. Similarity checkpoints go to Badger
// so an interrupted nightly run resumes after a restart.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func initScheduler(cfg *config.Config, b *backends, logger zerolog.Logger) (*services.SchedulerService, error) {
	var checkpoints batch.CheckpointStore = batch.NewMemoryCheckpointStore()
	if cfg.Checkpoints.Path != "" || cfg.Checkpoints.InMemory {
		store, err := batch.OpenBadgerCheckpoints(cfg.Checkpoints)
		if err != nil {
			return nil, fmt.Errorf("open checkpoints: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		checkpoints = store
	}

	jobs := []services.ScheduledJob{
		{
			Spec: cfg.Scheduler.VectorRefreshSchedule,
			Job:  batch.NewVectorRefreshJob(b.stores.Vectors, b.catalog, cfg.Vectors, logger),
		},
		{
			Spec: cfg.Scheduler.SimilaritySchedule,
			Job:  batch.NewSimilarityJob(b.stores.Vectors, b.stores.Similarity, checkpoints, cfg.Similarity, logger),
		},
		{
			Spec: cfg.Scheduler.TrendSchedule,
			Job:  batch.NewTrendJob(b.stores.Interactions, b.catalog, b.stores.Trends, cfg.Trends, logger),
		},
		{
			Spec: cfg.Scheduler.RetentionSchedule,
			Job:  batch.NewRetentionJob(b.stores.Recommendations, cfg.Retention.SetMaxAge, logger),
		},
	}
	return services.NewSchedulerService(cfg.Scheduler, logger, jobs...)
}

// busCheck reports the event bus as ready once its router is running.
func busCheck(bus *eventbus.Bus) func(context.Context) error {
	return func(ctx context.Context) error {
		select {
		case <-bus.Running():
			return nil
		case <-ctx.Done():
			return fmt.Errorf("event router not running: %w", ctx.Err())
		}
	}
}
