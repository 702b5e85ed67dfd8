// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/folio/internal/batch"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/recommend"
)

// Database backends.
const (
	BackendDuckDB = "duckdb"
	BackendMemory = "memory"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Catalog sources.
const (
	CatalogDatabase = "database"
	CatalogRemote   = "remote"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig              `koanf:"server"`
	Database    DatabaseConfig            `koanf:"database"`
	Logging     LoggingConfig             `koanf:"logging"`
	Recommend   recommend.Config          `koanf:"recommend"`
	Similarity  batch.SimilarityConfig    `koanf:"similarity"`
	Trends      batch.TrendConfig         `koanf:"trends"`
	Vectors     batch.VectorRefreshConfig `koanf:"vectors"`
	Retention   RetentionConfig           `koanf:"retention"`
	Cache       CacheConfig               `koanf:"cache"`
	EventBus    eventbus.Config           `koanf:"eventbus"`
	Catalog     CatalogConfig             `koanf:"catalog"`
	Scheduler   SchedulerConfig           `koanf:"scheduler"`
	Checkpoints batch.BadgerConfig        `koanf:"checkpoints"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables
	// rate limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// Environment is development or production.
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// Backend selects duckdb or memory. The memory backend keeps
	// everything in process and loses it on restart.
	Backend string `koanf:"backend"`

	// Path is the DuckDB file. ":memory:" or empty opens an in-memory database.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker thread count. Zero uses the CPU count.
	Threads int `koanf:"threads"`

	PreserveInsertionOrder bool `koanf:"preserve_insertion_order"`

	// SkipIndexes skips index migrations. Used by tests to speed up setup.
	SkipIndexes bool `koanf:"skip_indexes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file and line to every event.
	Caller bool `koanf:"caller"`
}

// RetentionConfig controls pruning of stored recommendation sets.
type RetentionConfig struct {
	// SetMaxAge is how long a recommendation set and its feedback are kept.
	SetMaxAge time.Duration `koanf:"set_max_age"`
}

// CacheConfig selects and sizes the recommendation cache.
type CacheConfig struct {
	Backend string `koanf:"backend"`

	// Capacity bounds the in-memory cache entry count.
	Capacity        int           `koanf:"capacity"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	Redis cache.RedisConfig `koanf:"redis"`
}

// CatalogConfig selects where items and reading history come from.
type CatalogConfig struct {
	// Source is database (local store) or remote (HTTP catalog service).
	Source  string        `koanf:"source"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is requests per second to the remote catalog.
	RateLimit  float64 `koanf:"rate_limit"`
	Burst      int     `koanf:"burst"`
	RetryCount int     `koanf:"retry_count"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// SchedulerConfig controls the batch job schedule.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Cron specs in the standard five-field form or a descriptor such as
	// "@hourly".
	SimilaritySchedule    string `koanf:"similarity_schedule"`
	TrendSchedule         string `koanf:"trend_schedule"`
	VectorRefreshSchedule string `koanf:"vector_refresh_schedule"`
	RetentionSchedule     string `koanf:"retention_schedule"`

	// Retry policy of a failed run.
	MaxRetries      int           `koanf:"max_retries"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	Multiplier      float64       `koanf:"multiplier"`

	// JobTimeout bounds a single run including retries.
	JobTimeout time.Duration `koanf:"job_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// Load reads configuration from defaults, an optional config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
