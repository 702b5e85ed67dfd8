// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with a timeout suitable for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements.
//
// Tables that are updated in place (item_vectors, recommendations,
// recommendation_sets, trend_entries) carry only their primary key so that
// DuckDB never rewrites an updated row through a secondary index.
func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS row_seq START 1`,

		// Item Catalog. authors and categories keep their original order as
		// JSON; the lookup tables hold lowercased names for matching.
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT NOT NULL DEFAULT '[]',
			categories TEXT NOT NULL DEFAULT '[]',
			language TEXT NOT NULL DEFAULT '',
			avg_rating DOUBLE NOT NULL DEFAULT 0,
			publication_date TIMESTAMP,
			cover_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS item_authors (
			item_id TEXT NOT NULL,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS item_categories (
			item_id TEXT NOT NULL,
			name TEXT NOT NULL
		)`,

		// Reading History
		`CREATE TABLE IF NOT EXISTS reading_history (
			seq BIGINT NOT NULL DEFAULT nextval('row_seq'),
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			status TEXT NOT NULL,
			ts TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			preferred_genres TEXT NOT NULL DEFAULT '[]',
			preferred_authors TEXT NOT NULL DEFAULT '[]',
			preferred_languages TEXT NOT NULL DEFAULT '[]',
			reading_level TEXT NOT NULL DEFAULT '',
			reading_frequency TEXT NOT NULL DEFAULT '',
			avg_session_minutes DOUBLE NOT NULL DEFAULT 0,
			recommendations_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			recommendation_cadence TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)`,

		// Interaction Log (append-only). seq orders rows sharing a timestamp.
		`CREATE TABLE IF NOT EXISTS interactions (
			id TEXT PRIMARY KEY,
			seq BIGINT NOT NULL DEFAULT nextval('row_seq'),
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			type TEXT NOT NULL,
			value DOUBLE,
			session_id TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT '',
			ts TIMESTAMP NOT NULL,
			from_recommendation BOOLEAN NOT NULL DEFAULT FALSE,
			source_algorithm TEXT NOT NULL DEFAULT '',
			source_score DOUBLE NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS item_vectors (
			item_id TEXT PRIMARY KEY,
			content_vector TEXT NOT NULL DEFAULT '[]',
			genre_vector TEXT NOT NULL DEFAULT '[]',
			author_vector TEXT NOT NULL DEFAULT '[]',
			metadata_vector TEXT NOT NULL DEFAULT '[]',
			popularity_score DOUBLE NOT NULL DEFAULT 0,
			quality_score DOUBLE NOT NULL DEFAULT 0,
			recency_score DOUBLE NOT NULL DEFAULT 0,
			view_count BIGINT NOT NULL DEFAULT 0,
			download_count BIGINT NOT NULL DEFAULT 0,
			rating_count BIGINT NOT NULL DEFAULT 0,
			rating_average DOUBLE NOT NULL DEFAULT 0,
			updated_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS similarity_edges (
			item_a TEXT NOT NULL,
			item_b TEXT NOT NULL,
			content_score DOUBLE NOT NULL,
			genre_score DOUBLE NOT NULL,
			author_score DOUBLE NOT NULL,
			behavior_score DOUBLE NOT NULL,
			overall DOUBLE NOT NULL,
			algorithm_version TEXT NOT NULL,
			computed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (item_a, item_b)
		)`,

		`CREATE TABLE IF NOT EXISTS trend_entries (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			trend_type TEXT NOT NULL,
			period TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			window_start TIMESTAMP NOT NULL,
			window_end TIMESTAMP NOT NULL,
			trend_score DOUBLE NOT NULL,
			velocity DOUBLE NOT NULL,
			trend_rank INTEGER NOT NULL,
			views BIGINT NOT NULL DEFAULT 0,
			downloads BIGINT NOT NULL DEFAULT 0,
			shares BIGINT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL,
			deactivated_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_sets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			algorithm TEXT NOT NULL,
			algorithm_version TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL DEFAULT '{}',
			parameters TEXT NOT NULL DEFAULT '{}',
			generated_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			view_count BIGINT NOT NULL DEFAULT 0,
			click_count BIGINT NOT NULL DEFAULT 0,
			conversion_count BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			set_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			score DOUBLE NOT NULL,
			position INTEGER NOT NULL,
			reasons TEXT NOT NULL DEFAULT '[]',
			explanation TEXT NOT NULL DEFAULT '',
			viewed BOOLEAN NOT NULL DEFAULT FALSE,
			viewed_at TIMESTAMP,
			clicked BOOLEAN NOT NULL DEFAULT FALSE,
			clicked_at TIMESTAMP,
			converted BOOLEAN NOT NULL DEFAULT FALSE,
			converted_at TIMESTAMP,
			UNIQUE (set_id, item_id)
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_feedback (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			recommendation_id TEXT NOT NULL,
			type TEXT NOT NULL,
			rating INTEGER,
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, recommendation_id)
		)`,
	}
}
