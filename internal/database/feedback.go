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

	"github.com/google/uuid"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

const feedbackColumns = `id, user_id, recommendation_id, type, rating, comment, created_at`

// InsertFeedback implements recommend.FeedbackStore. The unique
// (user_id, recommendation_id) constraint backs the duplicate check, so two
// racing submissions cannot both succeed.
func (db *DB) InsertFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb == nil || fb.UserID == "" || fb.RecommendationID == "" {
		return errors.New("feedback requires user and recommendation ids")
	}
	id := fb.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := fb.CreatedAt
	if created.IsZero() {
		created = db.now()
	}
	var rating sql.NullInt64
	if fb.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*fb.Rating), Valid: true}
	}
	duplicate := fmt.Errorf("user %s on %s: %w", fb.UserID, fb.RecommendationID, recommend.ErrDuplicateFeedback)

	return db.withTx(ctx, "insert", "recommendation_feedback", func(tx *sql.Tx) error {
		if _, err := getRecommendation(ctx, tx, fb.RecommendationID); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM recommendation_feedback
			WHERE user_id = ? AND recommendation_id = ?)`, fb.UserID, fb.RecommendationID).Scan(&exists); err != nil {
			return fmt.Errorf("check feedback: %w", err)
		}
		if exists {
			return duplicate
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO recommendation_feedback (`+feedbackColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, fb.UserID, fb.RecommendationID, string(fb.Type), rating, fb.Comment, created.UTC()); err != nil {
			if isConstraintViolation(err) {
				return duplicate
			}
			return fmt.Errorf("insert feedback: %w", err)
		}
		return nil
	})
}

// FeedbackForSet implements recommend.FeedbackStore. Rows are ordered by
// creation time.
func (db *DB) FeedbackForSet(ctx context.Context, setID string) ([]models.Feedback, error) {
	var exists bool
	if err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recommendation_sets WHERE id = ?)`, setID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check set %s: %w", setID, err)
	}
	if !exists {
		return nil, fmt.Errorf("set %s: %w", setID, recommend.ErrNotFound)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT f.id, f.user_id, f.recommendation_id, f.type, f.rating, f.comment, f.created_at
		FROM recommendation_feedback f JOIN recommendations r ON r.id = f.recommendation_id
		WHERE r.set_id = ? ORDER BY f.created_at, f.id`, setID)
	if err != nil {
		return nil, fmt.Errorf("query feedback of %s: %w", setID, err)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var (
			fb     models.Feedback
			typ    string
			rating sql.NullInt64
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.RecommendationID, &typ, &rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.Type = models.FeedbackType(typ)
		fb.CreatedAt = fb.CreatedAt.UTC()
		if rating.Valid {
			v := int(rating.Int64)
			fb.Rating = &v
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}
