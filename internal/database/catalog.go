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
	"strings"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

const itemColumns = `id, title, authors, categories, language, avg_rating, publication_date, cover_url`

// itemOrder ranks catalog results by average rating, then publication date.
const itemOrder = ` ORDER BY avg_rating DESC, publication_date DESC NULLS LAST, id`

// PutItem adds or replaces a catalog item together with its author and
// category lookup rows.
func (db *DB) PutItem(ctx context.Context, item *models.Item) error {
	if item == nil || item.ID == "" {
		return errors.New("item requires an id")
	}
	authors, err := encodeJSON(item.Authors, "[]")
	if err != nil {
		return err
	}
	categories, err := encodeJSON(item.Categories, "[]")
	if err != nil {
		return err
	}

	return db.withTx(ctx, "put", "items", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO items (`+itemColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Title, authors, categories, item.Language, item.AvgRating,
			nullTime(item.PublicationDate), item.CoverURL); err != nil {
			return fmt.Errorf("upsert item %s: %w", item.ID, err)
		}
		if err := replaceLookup(ctx, tx, "item_authors", item.ID, item.Authors); err != nil {
			return err
		}
		return replaceLookup(ctx, tx, "item_categories", item.ID, item.Categories)
	})
}

// replaceLookup rewrites the lowercased name rows of one item. table is a
// package constant, never caller input.
func replaceLookup(ctx context.Context, tx *sql.Tx, table, itemID string, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clear %s for %s: %w", table, itemID, err)
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (item_id, name) VALUES (?, ?)`, itemID, key); err != nil {
			return fmt.Errorf("insert %s for %s: %w", table, itemID, err)
		}
	}
	return nil
}

// AddHistory appends a reading history entry for a user.
func (db *DB) AddHistory(ctx context.Context, userID string, entry models.HistoryEntry) error {
	if userID == "" || entry.ItemID == "" {
		return errors.New("history entry requires user and item ids")
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reading_history (user_id, item_id, status, ts) VALUES (?, ?, ?, ?)`,
		userID, entry.ItemID, string(entry.Status), ts.UTC())
	if err != nil {
		return fmt.Errorf("append history for %s: %w", userID, err)
	}
	return nil
}

// GetItem implements recommend.Catalog.
func (db *DB) GetItem(ctx context.Context, id string) (*models.Item, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, recommend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

// GetItems implements recommend.Catalog.
func (db *DB) GetItems(ctx context.Context, ids []string) (map[string]*models.Item, error) {
	out := make(map[string]*models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders, args := inClause(ids)
	items, err := db.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// GetItemsByCategory implements recommend.Catalog. Names match
// case-insensitively.
func (db *DB) GetItemsByCategory(ctx context.Context, names []string, limit int) ([]*models.Item, error) {
	return db.itemsMatching(ctx, "item_categories", names, limit)
}

// GetItemsByAuthor implements recommend.Catalog. Names match
// case-insensitively.
func (db *DB) GetItemsByAuthor(ctx context.Context, names []string, limit int) ([]*models.Item, error) {
	return db.itemsMatching(ctx, "item_authors", names, limit)
}

func (db *DB) itemsMatching(ctx context.Context, table string, names []string, limit int) ([]*models.Item, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}
	placeholders, args := inClause(lowered)
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE id IN (SELECT item_id FROM ` + table + ` WHERE name IN (` + placeholders + `))` +
		itemOrder + limitClause(limit)
	return db.queryItems(ctx, query, args...)
}

// GetPopularItems implements recommend.Catalog.
func (db *DB) GetPopularItems(ctx context.Context, limit int, excludeIDs []string) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if len(excludeIDs) > 0 {
		var placeholders string
		placeholders, args = inClause(excludeIDs)
		query += ` WHERE id NOT IN (` + placeholders + `)`
	}
	return db.queryItems(ctx, query+itemOrder+limitClause(limit), args...)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item                models.Item
		authors, categories string
		published           sql.NullTime
	)
	if err := row.Scan(&item.ID, &item.Title, &authors, &categories, &item.Language,
		&item.AvgRating, &published, &item.CoverURL); err != nil {
		return nil, err
	}
	var err error
	if item.Authors, err = decodeStrings(authors); err != nil {
		return nil, err
	}
	if item.Categories, err = decodeStrings(categories); err != nil {
		return nil, err
	}
	item.PublicationDate = timeFrom(published)
	return &item, nil
}

// GetUserHistory implements recommend.ReadingHistory. Entries are returned
// most recent first; a non-positive limit returns all of them.
func (db *DB) GetUserHistory(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	return db.queryHistory(ctx, `SELECT item_id, status, ts FROM reading_history
		WHERE user_id = ? ORDER BY ts DESC, seq`+limitClause(limit), userID)
}

// GetCompletedItems implements recommend.ReadingHistory.
func (db *DB) GetCompletedItems(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	return db.queryHistory(ctx, `SELECT item_id, status, ts FROM reading_history
		WHERE user_id = ? AND status = ? ORDER BY ts DESC, seq`, userID, string(models.ReadingStatusCompleted))
}

// HasUserRead implements recommend.ReadingHistory.
func (db *DB) HasUserRead(ctx context.Context, userID, itemID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reading_history WHERE user_id = ? AND item_id = ?)`,
		userID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check history for %s: %w", userID, err)
	}
	return exists, nil
}

func (db *DB) queryHistory(ctx context.Context, query string, args ...any) ([]models.HistoryEntry, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var (
			e      models.HistoryEntry
			status string
		)
		if err := rows.Scan(&e.ItemID, &status, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Status = models.ReadingStatus(status)
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
