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

	"github.com/google/uuid"

	"github.com/tomtom215/folio/internal/models"
)

const trendColumns = `id, item_id, trend_type, period, genre, window_start, window_end,
	trend_score, velocity, trend_rank, views, downloads, shares, is_active, deactivated_at, created_at`

// ReplaceActive implements recommend.TrendStore. Deactivation and insertion
// commit together, so readers never see two rankings or none.
func (db *DB) ReplaceActive(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, entries []models.TrendEntry, now time.Time) error {
	now = now.UTC()
	return db.withTx(ctx, "replace", "trend_entries", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE trend_entries SET is_active = FALSE, deactivated_at = ?
			WHERE is_active AND period = ? AND trend_type = ?`,
			now, string(period), string(trendType)); err != nil {
			return fmt.Errorf("deactivate %s/%s trends: %w", period, trendType, err)
		}
		if len(entries) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO trend_entries (`+trendColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, NULL, ?)`)
		if err != nil {
			return fmt.Errorf("prepare trend insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range entries {
			e := &entries[i]
			id := e.ID
			if id == "" {
				id = uuid.NewString()
			}
			created := e.CreatedAt
			if created.IsZero() {
				created = now
			}
			if _, err := stmt.ExecContext(ctx, id, e.ItemID, string(trendType), string(period), e.Genre,
				e.WindowStart.UTC(), e.WindowEnd.UTC(), e.TrendScore, e.Velocity, e.Rank,
				e.Views, e.Downloads, e.Shares, created.UTC()); err != nil {
				return fmt.Errorf("insert trend %s: %w", e.ItemID, err)
			}
		}
		return nil
	})
}

// ActiveTrends implements recommend.TrendStore. Genre rankings are grouped
// by genre.
func (db *DB) ActiveTrends(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, limit int) ([]models.TrendEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+trendColumns+` FROM trend_entries
		WHERE is_active AND period = ? AND trend_type = ?
		ORDER BY genre, trend_rank`+limitClause(limit),
		string(period), string(trendType))
	if err != nil {
		return nil, fmt.Errorf("query %s/%s trends: %w", period, trendType, err)
	}
	defer rows.Close()

	var out []models.TrendEntry
	for rows.Next() {
		var (
			e             models.TrendEntry
			typ, per      string
			deactivatedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.ItemID, &typ, &per, &e.Genre, &e.WindowStart, &e.WindowEnd,
			&e.TrendScore, &e.Velocity, &e.Rank, &e.Views, &e.Downloads, &e.Shares,
			&e.IsActive, &deactivatedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		e.TrendType = models.TrendType(typ)
		e.Period = models.TrendPeriod(per)
		e.WindowStart, e.WindowEnd, e.CreatedAt = e.WindowStart.UTC(), e.WindowEnd.UTC(), e.CreatedAt.UTC()
		e.DeactivatedAt = timePtrFrom(deactivatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteInactiveBefore implements recommend.TrendStore.
func (db *DB) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM trend_entries
		WHERE NOT is_active AND deactivated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete inactive trends: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete inactive trends: %w", err)
	}
	return int(n), nil
}
