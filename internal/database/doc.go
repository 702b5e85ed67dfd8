// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package database provides the DuckDB-backed persistence layer of Folio.
//
// # Overview
//
// DB implements every store interface of the recommend package (profiles,
// interactions, item vectors, the similarity index, trends, recommendation
// sets and feedback) together with the Item Catalog and Reading History
// collaborators, so a single embedded database can back the whole engine.
//
// # Architecture
//
//   - database.go: lifecycle (open, pool configuration, checkpoint, close)
//   - database_schema.go: table creation
//   - migrations.go: versioned migrations tracked in schema_migrations
//   - database_tx.go: transactions with retry on DuckDB write conflicts
//   - catalog.go: items and reading history
//   - profiles.go, interactions.go, vectors.go: per-user and per-item state
//   - similarity.go, trends.go: batch job outputs
//   - recommendations.go, feedback.go: served sets and explicit feedback
//
// # Conventions
//
// List and map columns are stored as JSON text encoded with goccy/go-json.
// Timestamps are stored as UTC TIMESTAMP values; zero times map to NULL.
// Missing rows are reported with errors wrapping recommend.ErrNotFound.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	engine, err := recommend.NewEngine(cfg.Recommend, recommend.EngineDeps{
//	    Strategies: strategies,
//	    Stores:     db.Stores(),
//	    Catalog:    db,
//	    History:    db,
//	}, logger)
//
// Integration tests carry the integration build tag and run against an
// in-memory database:
//
//	go test -tags integration ./internal/database/...
package database
