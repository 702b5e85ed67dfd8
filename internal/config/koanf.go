// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/folio/internal/batch"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/folio/config.yaml",
	"/etc/folio/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with production defaults. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8380,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			Environment:       "production",
		},
		Database: DatabaseConfig{
			Backend:                BackendDuckDB,
			Path:                   "/data/folio.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Recommend:  *recommend.DefaultConfig(),
		Similarity: batch.DefaultSimilarityConfig(),
		Trends:     batch.DefaultTrendConfig(),
		Vectors:    batch.DefaultVectorRefreshConfig(),
		Retention: RetentionConfig{
			SetMaxAge: batch.DefaultSetRetention,
		},
		Cache: CacheConfig{
			Backend:         CacheMemory,
			Capacity:        10000,
			CleanupInterval: 5 * time.Minute,
			Redis: cache.RedisConfig{
				Addr:      "127.0.0.1:6379",
				Namespace: "folio",
			},
		},
		EventBus: eventbus.DefaultConfig(),
		Catalog: CatalogConfig{
			Source:                  CatalogDatabase,
			Timeout:                 5 * time.Second,
			RateLimit:               50,
			Burst:                   10,
			RetryCount:              2,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:               true,
			SimilaritySchedule:    "0 3 * * *",
			TrendSchedule:         "@hourly",
			VectorRefreshSchedule: "30 * * * *",
			RetentionSchedule:     "0 4 * * *",
			MaxRetries:            3,
			InitialInterval:       time.Minute,
			Multiplier:            2,
			JobTimeout:            2 * time.Hour,
		},
		Checkpoints: batch.BadgerConfig{
			Path:         "/data/checkpoints",
			SyncWrites:   true,
			TTL:          7 * 24 * time.Hour,
			CloseTimeout: 10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in three layers:
//  1. Defaults: built-in production defaults
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: override any mapped setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DUCKDB_PATH -> database.path, REDIS_ADDR -> cache.redis.addr
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"environment":           "server.environment",

	// Database
	"database_backend":          "database.backend",
	"duckdb_path":               "database.path",
	"duckdb_max_memory":         "database.max_memory",
	"duckdb_threads":            "database.threads",
	"duckdb_preserve_insertion": "database.preserve_insertion_order",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Recommendation engine
	"recommend_weight_content":       "recommend.weights.content",
	"recommend_weight_collaborative": "recommend.weights.collaborative",
	"recommend_weight_popularity":    "recommend.weights.popularity",
	"recommend_default_count":        "recommend.limits.default_count",
	"recommend_max_count":            "recommend.limits.max_count",
	"recommend_seen_lookback":        "recommend.limits.seen_lookback",
	"recommend_max_timeout":          "recommend.limits.max_timeout",
	"recommend_cache_enabled":        "recommend.cache.enabled",
	"recommend_cache_ttl":            "recommend.cache.recommendation_ttl",
	"recommend_personalized_ttl":     "recommend.cache.personalized_ttl",
	"recommend_set_ttl":              "recommend.set_ttl",
	"recommend_generation_timeout":   "recommend.generation_timeout",
	"recommend_min_rating":           "recommend.popularity.min_rating",
	"recommend_algorithm_version":    "recommend.algorithm_version",

	// Batch jobs
	"similarity_threshold":        "similarity.threshold",
	"similarity_retention":        "similarity.retention",
	"similarity_checkpoint_every": "similarity.checkpoint_every",
	"trend_limit":                 "trends.limit",
	"trend_per_genre_limit":       "trends.per_genre_limit",
	"trend_new_release_window":    "trends.new_release_window",
	"trend_retention":             "trends.retention",
	"vector_recency_half_life":    "vectors.recency_half_life",
	"vector_quality_prior":        "vectors.quality_prior",
	"retention_set_max_age":       "retention.set_max_age",

	// Cache
	"cache_backend":          "cache.backend",
	"cache_capacity":         "cache.capacity",
	"cache_cleanup_interval": "cache.cleanup_interval",
	"redis_addr":             "cache.redis.addr",
	"redis_password":         "cache.redis.password",
	"redis_db":               "cache.redis.db",
	"redis_namespace":        "cache.redis.namespace",

	// Event bus
	"eventbus_transport":    "eventbus.transport",
	"eventbus_topic_prefix": "eventbus.topic_prefix",
	"eventbus_buffer_size":  "eventbus.buffer_size",
	"nats_url":              "eventbus.nats.url",
	"nats_embedded":         "eventbus.nats.embedded",
	"nats_store_dir":        "eventbus.nats.store_dir",
	"nats_jetstream":        "eventbus.nats.jetstream",
	"nats_queue_group":      "eventbus.nats.queue_group",

	// Catalog
	"catalog_source":     "catalog.source",
	"catalog_base_url":   "catalog.base_url",
	"catalog_timeout":    "catalog.timeout",
	"catalog_rate_limit": "catalog.rate_limit",
	"catalog_burst":      "catalog.burst",
	"catalog_retries":    "catalog.retry_count",

	// Scheduler
	"scheduler_enabled":       "scheduler.enabled",
	"schedule_similarity":     "scheduler.similarity_schedule",
	"schedule_trends":         "scheduler.trend_schedule",
	"schedule_vector_refresh": "scheduler.vector_refresh_schedule",
	"schedule_retention":      "scheduler.retention_schedule",
	"scheduler_max_retries":   "scheduler.max_retries",
	"scheduler_job_timeout":   "scheduler.job_timeout",
	"checkpoint_path":         "checkpoints.path",
	"checkpoint_in_memory":    "checkpoints.in_memory",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped so unrelated environment
// variables never pollute the config.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - REDIS_ADDR -> cache.redis.addr
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller guards any shared config it swaps in the callback.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
