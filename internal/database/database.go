// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
)

// inMemoryPath selects a private in-memory database.
const inMemoryPath = ":memory:"

// DB wraps the DuckDB connection and provides data access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
	now  func() time.Time

	// Transaction conflict retry settings
	maxTxRetries   int
	txRetryInitial time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the time source used to stamp rows written without a time.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New opens the database described by cfg and initializes the schema.
// An empty path or ":memory:" opens a private in-memory database.
func New(cfg *config.DatabaseConfig, opts ...Option) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	path := cfg.Path
	if path == inMemoryPath {
		path = ""
	}
	if path != "" {
		// 0750 per gosec G301
		dbDir := filepath.Dir(path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	// Folio needs no extensions; keep DuckDB from reaching the network for them.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, numThreads, maxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:           conn,
		cfg:            cfg,
		now:            func() time.Time { return time.Now().UTC() },
		maxTxRetries:   10,
		txRetryInitial: 20 * time.Millisecond,
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(db)
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool sizes the pool for DuckDB's single-process model.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize creates tables and applies pending migrations
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	return db.runVersionedMigrations()
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Stores returns the DB as the full set of recommend stores.
func (db *DB) Stores() recommend.Stores {
	return recommend.Stores{
		Profiles:        db,
		Interactions:    db,
		Vectors:         db,
		Similarity:      db,
		Trends:          db,
		Recommendations: db,
		Feedback:        db,
	}
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.isClosed() {
		return ErrClosed
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint flushes the write-ahead log into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database. It is safe to call more than once.
func (db *DB) Close() error {
	var err error
	db.closeOnce.Do(func() {
		close(db.closed)

		// Flush the WAL so the next start does not need to replay it.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if cpErr := db.Checkpoint(ctx); cpErr != nil {
			logging.Warn().Err(cpErr).Msg("Failed to checkpoint database before close")
		}
		cancel()

		err = db.conn.Close()
	})
	return err
}

func (db *DB) isClosed() bool {
	select {
	case <-db.closed:
		return true
	default:
		return false
	}
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// nullTimePtr maps a nil pointer to NULL.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return nullTime(*t)
}

// timeFrom returns the UTC time or the zero time for NULL.
func timeFrom(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// timePtrFrom returns nil for NULL.
func timePtrFrom(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time.UTC()
	return &ts
}
