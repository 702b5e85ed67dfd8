// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/folio/internal/eventbus"
)

// Validate checks that the configuration is complete and in range.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateLogging,
		c.validateRecommend,
		c.validateBatch,
		c.validateCache,
		c.validateEventBus,
		c.validateCatalog,
		c.validateScheduler,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP read and write timeouts must be positive")
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Backend {
	case BackendDuckDB:
		if c.Database.Threads < 0 {
			return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("DATABASE_BACKEND must be duckdb or memory, got %q", c.Database.Backend)
	}
	return nil
}

// validateLogging validates the logging configuration
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("similarity.threshold must be in [0, 1], got %f", c.Similarity.Threshold)
	}
	if c.Similarity.Retention <= 0 {
		return fmt.Errorf("similarity.retention must be positive")
	}
	if c.Trends.Limit < 1 || c.Trends.PerGenreLimit < 1 {
		return fmt.Errorf("trend limits must be positive")
	}
	if c.Trends.NewReleaseWindow <= 0 {
		return fmt.Errorf("trends.new_release_window must be positive")
	}
	if c.Vectors.RecencyHalfLife <= 0 {
		return fmt.Errorf("vectors.recency_half_life must be positive")
	}
	if c.Vectors.QualityPrior < 0 {
		return fmt.Errorf("vectors.quality_prior must be non-negative, got %f", c.Vectors.QualityPrior)
	}
	if c.Retention.SetMaxAge < c.Recommend.SetTTL {
		return fmt.Errorf("retention.set_max_age (%s) must not be shorter than recommend.set_ttl (%s)",
			c.Retention.SetMaxAge, c.Recommend.SetTTL)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheMemory:
		if c.Cache.Capacity < 1 {
			return fmt.Errorf("CACHE_CAPACITY must be positive, got %d", c.Cache.Capacity)
		}
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
		if err := checkHostPort("REDIS_ADDR", c.Cache.Redis.Addr); err != nil {
			return err
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) validateEventBus() error {
	if err := c.EventBus.Validate(); err != nil {
		return err
	}
	if c.EventBus.Transport == eventbus.TransportNATS && !c.EventBus.NATS.Embedded {
		if err := checkEndpointURL("NATS_URL", c.EventBus.NATS.URL, natsSchemes); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case CatalogDatabase:
		return nil
	case CatalogRemote:
	default:
		return fmt.Errorf("CATALOG_SOURCE must be database or remote, got %q", c.Catalog.Source)
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL is required when CATALOG_SOURCE=remote")
	}
	if err := checkEndpointURL("CATALOG_BASE_URL", c.Catalog.BaseURL, httpSchemes); err != nil {
		return err
	}
	if c.Catalog.RateLimit <= 0 || c.Catalog.Burst < 1 {
		return fmt.Errorf("catalog rate limit and burst must be positive")
	}
	if c.Catalog.RetryCount < 0 {
		return fmt.Errorf("CATALOG_RETRIES must be non-negative, got %d", c.Catalog.RetryCount)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	specs := map[string]string{
		"SCHEDULE_SIMILARITY":     c.Scheduler.SimilaritySchedule,
		"SCHEDULE_TRENDS":         c.Scheduler.TrendSchedule,
		"SCHEDULE_VECTOR_REFRESH": c.Scheduler.VectorRefreshSchedule,
		"SCHEDULE_RETENTION":      c.Scheduler.RetentionSchedule,
	}
	for name, spec := range specs {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s is not a valid cron spec %q: %w", name, spec, err)
		}
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("SCHEDULER_MAX_RETRIES must be non-negative, got %d", c.Scheduler.MaxRetries)
	}
	if c.Scheduler.InitialInterval <= 0 || c.Scheduler.Multiplier < 1 {
		return fmt.Errorf("scheduler backoff needs a positive initial interval and a multiplier >= 1")
	}
	if c.Scheduler.JobTimeout <= 0 {
		return fmt.Errorf("SCHEDULER_JOB_TIMEOUT must be positive")
	}
	return nil
}
