// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package config provides centralized configuration management for Folio.

Configuration is loaded with Koanf v2 in three layers, each overriding the
previous one:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file, taken from CONFIG_PATH or the first of
    DefaultConfigPaths that exists
 3. Environment variables listed in the mapping table

# Configuration Structure

  - ServerConfig: HTTP listener, CORS and per-IP rate limiting
  - DatabaseConfig: DuckDB or in-memory storage
  - LoggingConfig: zerolog level and format
  - recommend.Config: strategy weights, thresholds, limits and cache TTLs
  - batch.SimilarityConfig, batch.TrendConfig, batch.VectorRefreshConfig:
    batch job parameters
  - RetentionConfig: recommendation set pruning
  - CacheConfig: in-memory or Redis response cache
  - eventbus.Config: in-memory or NATS event transport
  - CatalogConfig: local or remote item catalog
  - SchedulerConfig: cron schedules and retry policy of the batch jobs
  - batch.BadgerConfig: on-disk batch checkpoints

# Environment Variables

Common variables:

  - HTTP_PORT: Listen port (default: 8380)
  - DUCKDB_PATH: Database file path (default: /data/folio.duckdb)
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - CACHE_BACKEND: memory or redis (default: memory)
  - REDIS_ADDR: Redis address (default: 127.0.0.1:6379)
  - EVENTBUS_TRANSPORT: memory or nats (default: memory)
  - NATS_URL: NATS server URL when not embedded
  - CATALOG_SOURCE: database or remote (default: database)
  - CATALOG_BASE_URL: Remote catalog service URL
  - CORS_ORIGINS: Comma-separated allowed origins

Variables not in the mapping table are ignored.

# Example YAML

	server:
	  port: 8380
	recommend:
	  weights:
	    content: 0.5
	    collaborative: 0.3
	    popularity: 0.2
	cache:
	  backend: redis
	  redis:
	    addr: redis:6379

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal().Err(err).Msg("invalid configuration")
	}
*/
package config
