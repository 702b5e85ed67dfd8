// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/api"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/memstore"
)

// backends are the storage-side collaborators of the engine.
type backends struct {
	stores  recommend.Stores
	catalog recommend.Catalog
	history recommend.ReadingHistory
	cache   recommend.Cache
	checks  []api.HealthCheck
	closers []func() error
}

// close releases backends in reverse order of acquisition.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (b *backends) close(logger zerolog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Error().Err(err).Msg("Error releasing backend")
		}
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func initBackends(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.Database.Backend {
	case config.BackendMemory:
		store := memstore.New()
		b.stores = store.Stores()
		b.catalog, b.history = store, store
		logger.Warn().Msg("In-memory storage: profiles, interactions and sets are lost on restart")
	default:
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		b.stores = db.Stores()
		b.catalog, b.history = db, db
		b.checks = append(b.checks, api.HealthCheck{Name: "database", Check: db.Ping})
		logger.Info().Str("path", cfg.Database.Path).Msg("DuckDB storage initialized")
	}

	if cfg.Catalog.Source == config.CatalogRemote {
		client := catalog.NewClient(&cfg.Catalog, logger)
		b.catalog, b.history = client, client
		b.checks = append(b.checks, api.HealthCheck{Name: "catalog", Check: func(context.Context) error {
			if state := client.BreakerState(); state == "open" {
				return fmt.Errorf("circuit breaker %s", state)
			}
			return nil
		}})
		logger.Info().Str("base_url", cfg.Catalog.BaseURL).Msg("Remote catalog enabled")
	}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedis(pingCtx, cfg.Cache.Redis)
		if err != nil {
			b.close(logger)
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		b.closers = append(b.closers, rc.Close)
		b.cache = rc
		b.checks = append(b.checks, api.HealthCheck{Name: "cache", Check: rc.Ping})
		logger.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("Redis result cache enabled")
	default:
		mem := cache.NewMemory(cfg.Cache.Capacity, cache.WithCleanupInterval(cfg.Cache.CleanupInterval))
		b.closers = append(b.closers, mem.Close)
		b.cache = mem
	}

	return b, nil
}
