// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/folio/internal/models"
)

const interactionColumns = `id, user_id, item_id, type, value, session_id, device_type, ts,
	from_recommendation, source_algorithm, source_score`

// AppendInteraction implements recommend.InteractionLog. Rows without an id
// get a random UUID and rows without a timestamp are stamped now.
func (db *DB) AppendInteraction(ctx context.Context, in *models.Interaction) error {
	if in == nil || in.UserID == "" || in.ItemID == "" {
		return errors.New("interaction requires user and item ids")
	}
	id, ts := in.ID, in.Timestamp
	if id == "" {
		id = uuid.NewString()
	}
	if ts.IsZero() {
		ts = db.now()
	}

	var value sql.NullFloat64
	if in.Value != nil {
		value = sql.NullFloat64{Float64: *in.Value, Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO interactions (`+interactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.UserID, in.ItemID, string(in.Type), value, in.SessionID, in.DeviceType,
		ts.UTC(), in.FromRecommendation, in.SourceAlgorithm, in.SourceScore)
	if err != nil {
		return fmt.Errorf("append interaction for %s: %w", in.UserID, err)
	}
	return nil
}

// UserInteractions implements recommend.InteractionLog.
func (db *DB) UserInteractions(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	return db.queryInteractions(ctx, `SELECT `+interactionColumns+` FROM interactions
		WHERE user_id = ? ORDER BY ts DESC, seq DESC`+limitClause(limit), userID)
}

// InteractionsSince implements recommend.InteractionLog.
func (db *DB) InteractionsSince(ctx context.Context, since time.Time) ([]models.Interaction, error) {
	return db.queryInteractions(ctx, `SELECT `+interactionColumns+` FROM interactions
		WHERE ts >= ? ORDER BY ts, seq`, since.UTC())
}

// UserRatings implements recommend.InteractionLog. The latest rating per
// item wins; rows sharing a timestamp resolve to the one appended last.
func (db *DB) UserRatings(ctx context.Context, userID string) (map[string]float64, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT item_id, value FROM interactions
		WHERE user_id = ? AND type = ? AND value IS NOT NULL
		QUALIFY row_number() OVER (PARTITION BY item_id ORDER BY ts DESC, seq DESC) = 1`,
		userID, string(models.InteractionRating))
	if err != nil {
		return nil, fmt.Errorf("query ratings for %s: %w", userID, err)
	}
	defer rows.Close()

	ratings := make(map[string]float64)
	for rows.Next() {
		var (
			itemID string
			value  float64
		)
		if err := rows.Scan(&itemID, &value); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings[itemID] = value
	}
	return ratings, rows.Err()
}

// RecentlyActiveUsers implements recommend.InteractionLog.
func (db *DB) RecentlyActiveUsers(ctx context.Context, exclude string, limit int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT user_id FROM interactions
		WHERE user_id <> ?
		GROUP BY user_id
		HAVING count(*) FILTER (WHERE type = ? AND value IS NOT NULL) > 0
		ORDER BY max(ts) DESC, user_id`+limitClause(limit),
		exclude, string(models.InteractionRating))
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan active user: %w", err)
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

func (db *DB) queryInteractions(ctx context.Context, query string, args ...any) ([]models.Interaction, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var (
			in    models.Interaction
			typ   string
			value sql.NullFloat64
		)
		if err := rows.Scan(&in.ID, &in.UserID, &in.ItemID, &typ, &value, &in.SessionID, &in.DeviceType,
			&in.Timestamp, &in.FromRecommendation, &in.SourceAlgorithm, &in.SourceScore); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Type = models.InteractionType(typ)
		in.Timestamp = in.Timestamp.UTC()
		if value.Valid {
			in.Value = models.Float64(value.Float64)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
