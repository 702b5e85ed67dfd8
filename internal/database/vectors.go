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

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

const vectorColumns = `item_id, content_vector, genre_vector, author_vector, metadata_vector,
	popularity_score, quality_score, recency_score, view_count, download_count,
	rating_count, rating_average, updated_at`

// combinedScoreExpr mirrors models.ItemVector.CombinedScore.
var combinedScoreExpr = fmt.Sprintf("(%g * popularity_score + %g * quality_score + %g * recency_score)",
	models.CombinedPopularityWeight, models.CombinedQualityWeight, models.CombinedRecencyWeight)

// rawPopularityExpr mirrors models.ItemVector.RawPopularity.
const rawPopularityExpr = `(0.3 * view_count + 0.4 * download_count + 0.3 * rating_average * rating_count)`

// GetVector implements recommend.VectorStore.
func (db *DB) GetVector(ctx context.Context, itemID string) (*models.ItemVector, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+vectorColumns+` FROM item_vectors WHERE item_id = ?`, itemID)
	v, err := scanVector(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vector %s: %w", itemID, recommend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vector %s: %w", itemID, err)
	}
	return &v, nil
}

// ListVectors implements recommend.VectorStore. Rows are ordered by item id.
func (db *DB) ListVectors(ctx context.Context) ([]models.ItemVector, error) {
	return db.queryVectors(ctx, `SELECT `+vectorColumns+` FROM item_vectors ORDER BY item_id`)
}

// UpsertVector implements recommend.VectorStore. Non-finite components
// cannot be encoded and are rejected.
func (db *DB) UpsertVector(ctx context.Context, v *models.ItemVector) error {
	if v == nil || v.ItemID == "" {
		return errors.New("vector requires an item id")
	}
	encoded := make([]string, 0, 4)
	for _, vec := range [][]float64{v.ContentVector, v.GenreVector, v.AuthorVector, v.MetadataVector} {
		s, err := encodeJSON(vec, "[]")
		if err != nil {
			return fmt.Errorf("vector %s: %w", v.ItemID, err)
		}
		encoded = append(encoded, s)
	}
	updated := v.UpdatedAt
	if updated.IsZero() {
		updated = db.now()
	}

	_, err := db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO item_vectors (`+vectorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ItemID, encoded[0], encoded[1], encoded[2], encoded[3],
		v.PopularityScore, v.QualityScore, v.RecencyScore,
		v.ViewCount, v.DownloadCount, v.RatingCount, v.RatingAverage, updated.UTC())
	if err != nil {
		return fmt.Errorf("upsert vector %s: %w", v.ItemID, err)
	}
	return nil
}

// ApplyDelta implements recommend.VectorStore. The increment is a single
// upsert, so concurrent deltas for one item never lose updates.
func (db *DB) ApplyDelta(ctx context.Context, d models.VectorDelta) error {
	if d.ItemID == "" {
		return errors.New("delta requires an item id")
	}
	if d.IsZero() {
		return nil
	}
	var ratingInc int64
	var rating float64
	if d.HasRating {
		ratingInc, rating = 1, d.Rating
	}

	return db.withTx(ctx, "apply_delta", "item_vectors", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO item_vectors
			(item_id, view_count, download_count, rating_count, rating_average, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (item_id) DO UPDATE SET
				view_count = item_vectors.view_count + EXCLUDED.view_count,
				download_count = item_vectors.download_count + EXCLUDED.download_count,
				rating_average = CASE WHEN EXCLUDED.rating_count = 0 THEN item_vectors.rating_average
					ELSE (item_vectors.rating_average * item_vectors.rating_count + EXCLUDED.rating_average)
						/ (item_vectors.rating_count + EXCLUDED.rating_count) END,
				rating_count = item_vectors.rating_count + EXCLUDED.rating_count,
				updated_at = EXCLUDED.updated_at`,
			d.ItemID, d.Views, d.Downloads, ratingInc, rating, db.now().UTC())
		if err != nil {
			return fmt.Errorf("apply delta to %s: %w", d.ItemID, err)
		}
		return nil
	})
}

// UpdateDerivedScores implements recommend.VectorStore. Rows without a
// stored vector are ignored.
func (db *DB) UpdateDerivedScores(ctx context.Context, vectors []models.ItemVector) error {
	if len(vectors) == 0 {
		return nil
	}
	now := db.now().UTC()
	return db.withTx(ctx, "update_scores", "item_vectors", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE item_vectors
			SET popularity_score = ?, quality_score = ?, recency_score = ?, updated_at = ?
			WHERE item_id = ?`)
		if err != nil {
			return fmt.Errorf("prepare derived score update: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for i := range vectors {
			v := &vectors[i]
			if _, err := stmt.ExecContext(ctx, v.PopularityScore, v.QualityScore, v.RecencyScore, now, v.ItemID); err != nil {
				return fmt.Errorf("update derived scores of %s: %w", v.ItemID, err)
			}
		}
		return nil
	})
}

// TopByCombinedScore implements recommend.VectorStore.
func (db *DB) TopByCombinedScore(ctx context.Context, limit int, minRating float64, exclude []string) ([]models.ItemVector, error) {
	query := `SELECT ` + vectorColumns + ` FROM item_vectors WHERE rating_average >= ?`
	args := []any{minRating}
	if len(exclude) > 0 {
		placeholders, ex := inClause(exclude)
		query += ` AND item_id NOT IN (` + placeholders + `)`
		args = append(args, ex...)
	}
	query += ` ORDER BY ` + combinedScoreExpr + ` DESC, ` + rawPopularityExpr + ` DESC, item_id` + limitClause(limit)
	return db.queryVectors(ctx, query, args...)
}

func (db *DB) queryVectors(ctx context.Context, query string, args ...any) ([]models.ItemVector, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var out []models.ItemVector
	for rows.Next() {
		v, err := scanVector(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVector(row rowScanner) (models.ItemVector, error) {
	var (
		v                                models.ItemVector
		content, genre, author, metadata string
		updated                          sql.NullTime
	)
	if err := row.Scan(&v.ItemID, &content, &genre, &author, &metadata,
		&v.PopularityScore, &v.QualityScore, &v.RecencyScore,
		&v.ViewCount, &v.DownloadCount, &v.RatingCount, &v.RatingAverage, &updated); err != nil {
		return v, err
	}
	var err error
	for _, f := range []struct {
		raw string
		dst *[]float64
	}{
		{content, &v.ContentVector},
		{genre, &v.GenreVector},
		{author, &v.AuthorVector},
		{metadata, &v.MetadataVector},
	} {
		if *f.dst, err = decodeFloats(f.raw); err != nil {
			return v, err
		}
	}
	v.UpdatedAt = timeFrom(updated)
	return v, nil
}
