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

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

const setColumns = `id, user_id, algorithm, algorithm_version, context, parameters,
	generated_at, expires_at, view_count, click_count, conversion_count`

const recommendationColumns = `id, set_id, item_id, score, position, reasons, explanation,
	viewed, viewed_at, clicked, clicked_at, converted, converted_at`

// SaveSet implements recommend.RecommendationStore. The set and its rows
// commit together; a set that repeats an item is rejected.
func (db *DB) SaveSet(ctx context.Context, set *models.RecommendationSet, recs []models.Recommendation) error {
	if set == nil || set.ID == "" {
		return errors.New("recommendation set requires an id")
	}
	items := make(map[string]struct{}, len(recs))
	for i := range recs {
		if _, dup := items[recs[i].ItemID]; dup {
			return fmt.Errorf("set %s repeats item %s", set.ID, recs[i].ItemID)
		}
		items[recs[i].ItemID] = struct{}{}
	}
	setContext, err := encodeJSON(set.Context, "{}")
	if err != nil {
		return err
	}
	params, err := encodeJSON(set.Parameters, "{}")
	if err != nil {
		return err
	}

	return db.withTx(ctx, "save_set", "recommendation_sets", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recommendation_sets (`+setColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			set.ID, set.UserID, string(set.Algorithm), set.AlgorithmVersion, setContext, params,
			set.GeneratedAt.UTC(), set.ExpiresAt.UTC(), set.ViewCount, set.ClickCount, set.ConversionCount); err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("set %s already exists", set.ID)
			}
			return fmt.Errorf("insert set %s: %w", set.ID, err)
		}
		if len(recs) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO recommendations (`+recommendationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare recommendation insert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range recs {
			r := &recs[i]
			reasons, err := encodeJSON(r.Reasons, "[]")
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, r.ID, set.ID, r.ItemID, r.Score, r.Position, reasons, r.Explanation,
				r.Viewed, nullTimePtr(r.ViewedAt), r.Clicked, nullTimePtr(r.ClickedAt),
				r.Converted, nullTimePtr(r.ConvertedAt)); err != nil {
				return fmt.Errorf("insert recommendation %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// GetSet implements recommend.RecommendationStore. Rows are ordered by position.
func (db *DB) GetSet(ctx context.Context, setID string) (*models.RecommendationSet, []models.Recommendation, error) {
	set, err := scanSet(db.conn.QueryRowContext(ctx, `SELECT `+setColumns+` FROM recommendation_sets WHERE id = ?`, setID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("set %s: %w", setID, recommend.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get set %s: %w", setID, err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT `+recommendationColumns+` FROM recommendations
		WHERE set_id = ? ORDER BY position`, setID)
	if err != nil {
		return nil, nil, fmt.Errorf("query recommendations of %s: %w", setID, err)
	}
	defer rows.Close()

	recs := []models.Recommendation{}
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return set, recs, nil
}

// GetRecommendation implements recommend.RecommendationStore.
func (db *DB) GetRecommendation(ctx context.Context, recID string) (*models.Recommendation, error) {
	r, err := getRecommendation(ctx, db.conn, recID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecommendation(ctx context.Context, q queryRower, recID string) (models.Recommendation, error) {
	r, err := scanRecommendation(q.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`, recID))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("recommendation %s: %w", recID, recommend.ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("get recommendation %s: %w", recID, err)
	}
	return r, nil
}

// transitionColumns maps a transition to its flag, timestamp and parent
// counter columns.
func transitionColumns(t models.Transition) (flag, at, counter string, err error) {
	switch t {
	case models.TransitionImpression:
		return "viewed", "viewed_at", "view_count", nil
	case models.TransitionClick:
		return "clicked", "clicked_at", "click_count", nil
	case models.TransitionConversion:
		return "converted", "converted_at", "conversion_count", nil
	default:
		return "", "", "", fmt.Errorf("unknown transition %q", t)
	}
}

// ApplyTransition implements recommend.RecommendationStore. The flag and the
// parent counter change in one transaction; a retried conflict re-reads the
// row, so concurrent callers increment the counter exactly once.
func (db *DB) ApplyTransition(ctx context.Context, recID string, t models.Transition, at time.Time) (*models.Recommendation, bool, error) {
	flag, atCol, counter, err := transitionColumns(t)
	if err != nil {
		return nil, false, err
	}
	at = at.UTC()

	var (
		result  models.Recommendation
		applied bool
	)
	err = db.withTx(ctx, "transition", "recommendations", func(tx *sql.Tx) error {
		r, err := getRecommendation(ctx, tx, recID)
		if err != nil {
			return err
		}
		applied = r.Apply(t, at)
		result = r
		if !applied {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE recommendations SET `+flag+` = TRUE, `+atCol+` = ? WHERE id = ?`, at, recID); err != nil {
			return fmt.Errorf("mark %s %s: %w", recID, t, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE recommendation_sets SET `+counter+` = `+counter+` + 1 WHERE id = ?`, r.SetID); err != nil {
			return fmt.Errorf("count %s on set %s: %w", t, r.SetID, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, applied, nil
}

// DeleteSetsBefore implements recommend.RecommendationStore. Feedback on the
// deleted rows goes with them.
func (db *DB) DeleteSetsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoff = cutoff.UTC()
	var removed int64
	err := db.withTx(ctx, "delete_sets", "recommendation_sets", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recommendation_feedback WHERE recommendation_id IN (
			SELECT r.id FROM recommendations r JOIN recommendation_sets s ON s.id = r.set_id
			WHERE s.generated_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("delete expired feedback: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE set_id IN (
			SELECT id FROM recommendation_sets WHERE generated_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("delete expired recommendations: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM recommendation_sets WHERE generated_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("delete expired sets: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func scanSet(row rowScanner) (*models.RecommendationSet, error) {
	var (
		s                  models.RecommendationSet
		algorithm          string
		setContext, params string
	)
	if err := row.Scan(&s.ID, &s.UserID, &algorithm, &s.AlgorithmVersion, &setContext, &params,
		&s.GeneratedAt, &s.ExpiresAt, &s.ViewCount, &s.ClickCount, &s.ConversionCount); err != nil {
		return nil, err
	}
	s.Algorithm = models.Algorithm(algorithm)
	s.GeneratedAt, s.ExpiresAt = s.GeneratedAt.UTC(), s.ExpiresAt.UTC()
	if setContext != "" && setContext != "{}" {
		if err := json.Unmarshal([]byte(setContext), &s.Context); err != nil {
			return nil, fmt.Errorf("decode set context: %w", err)
		}
	}
	if params != "" && params != "{}" {
		if err := json.Unmarshal([]byte(params), &s.Parameters); err != nil {
			return nil, fmt.Errorf("decode set parameters: %w", err)
		}
	}
	return &s, nil
}

func scanRecommendation(row rowScanner) (models.Recommendation, error) {
	var (
		r                              models.Recommendation
		reasons                        string
		viewedAt, clickedAt, convertAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.SetID, &r.ItemID, &r.Score, &r.Position, &reasons, &r.Explanation,
		&r.Viewed, &viewedAt, &r.Clicked, &clickedAt, &r.Converted, &convertAt); err != nil {
		return r, err
	}
	var err error
	if r.Reasons, err = decodeStrings(reasons); err != nil {
		return r, err
	}
	r.ViewedAt = timePtrFrom(viewedAt)
	r.ClickedAt = timePtrFrom(clickedAt)
	r.ConvertedAt = timePtrFrom(convertAt)
	return r, nil
}
