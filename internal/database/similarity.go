// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

const edgeColumns = `item_a, item_b, content_score, genre_score, author_score, behavior_score,
	overall, algorithm_version, computed_at`

// UpsertEdges implements recommend.SimilarityStore. Every edge is written in
// one transaction, so readers see either none or all of them.
func (db *DB) UpsertEdges(ctx context.Context, edges []models.SimilarityEdge) error {
	if len(edges) == 0 {
		return nil
	}
	return db.withTx(ctx, "upsert", "similarity_edges", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO similarity_edges (`+edgeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (item_a, item_b) DO UPDATE SET
				content_score = EXCLUDED.content_score,
				genre_score = EXCLUDED.genre_score,
				author_score = EXCLUDED.author_score,
				behavior_score = EXCLUDED.behavior_score,
				overall = EXCLUDED.overall,
				algorithm_version = EXCLUDED.algorithm_version,
				computed_at = EXCLUDED.computed_at`)
		if err != nil {
			return fmt.Errorf("prepare edge upsert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range edges {
			e := &edges[i]
			if _, err := stmt.ExecContext(ctx, e.ItemA, e.ItemB, e.ContentScore, e.GenreScore,
				e.AuthorScore, e.BehaviorScore, e.Overall, e.AlgorithmVersion, e.ComputedAt.UTC()); err != nil {
				return fmt.Errorf("upsert edge %s>%s: %w", e.ItemA, e.ItemB, err)
			}
		}
		return nil
	})
}

// PruneEdges implements recommend.SimilarityStore.
func (db *DB) PruneEdges(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM similarity_edges WHERE computed_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune edges: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune edges: %w", err)
	}
	return int(n), nil
}

// SimilarTo implements recommend.SimilarityStore.
func (db *DB) SimilarTo(ctx context.Context, itemID string, limit int) ([]models.SimilarityEdge, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+edgeColumns+` FROM similarity_edges
		WHERE item_a = ? ORDER BY overall DESC, item_b`+limitClause(limit), itemID)
	if err != nil {
		return nil, fmt.Errorf("query similar items of %s: %w", itemID, err)
	}
	defer rows.Close()

	var out []models.SimilarityEdge
	for rows.Next() {
		var e models.SimilarityEdge
		if err := rows.Scan(&e.ItemA, &e.ItemB, &e.ContentScore, &e.GenreScore, &e.AuthorScore,
			&e.BehaviorScore, &e.Overall, &e.AlgorithmVersion, &e.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.ComputedAt = e.ComputedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
