// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/folio/internal/api"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/supervisor"
	"github.com/tomtom215/folio/internal/supervisor/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("database", cfg.Database.Backend).
		Str("cache", cfg.Cache.Backend).
		Str("eventbus", string(cfg.EventBus.Transport)).
		Str("catalog", cfg.Catalog.Source).
		Msg("Starting Folio")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := initBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize storage")
		return 1
	}
	defer b.close(logger)

	bus, err := eventbus.New(cfg.EventBus, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize event bus")
		return 1
	}
	b.closers = append(b.closers, bus.Close)

	comp, err := initEngine(cfg, b, bus, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize engine")
		return 1
	}

	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if cfg.Scheduler.Enabled {
		scheduler, err := initScheduler(cfg, b, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize batch scheduler")
			return 1
		}
		tree.AddBatchService(scheduler)
	} else {
		logger.Warn().Msg("Batch scheduler disabled; similarity, trends and vectors will not refresh")
	}

	tree.AddMessagingService(bus)

	checks := append(b.checks, api.HealthCheck{Name: "eventbus", Check: busCheck(bus)})
	handler := api.NewHandler(comp.engine, comp.feedback, logger, checks...)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(&cfg.Server, handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logger))

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		return 1
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logger.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	logger.Info().Msg("Folio stopped")
	return 0
}
