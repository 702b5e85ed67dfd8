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
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

// withTx runs fn in a transaction and commits it. DuckDB uses optimistic
// concurrency control, so a writer that loses a conflict is rolled back and
// fn runs again from scratch with exponential backoff. Any other error is
// returned unchanged after rollback. The whole call, retries included, is
// recorded under operation and table.
func (db *DB) withTx(ctx context.Context, operation, table string, fn func(tx *sql.Tx) error) (err error) {
	if db.isClosed() {
		return ErrClosed
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery(operation, table, time.Since(start), err) }()

	attempt := 0
	op := func() error {
		attempt++
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to begin transaction: %w", err))
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
			if isTransactionConflict(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			if isTransactionConflict(err) {
				return err
			}
			return backoff.Permanent(fmt.Errorf("failed to commit transaction: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = db.txRetryInitial
	policy.MaxElapsedTime = 0
	notify := func(err error, _ time.Duration) {
		logging.Debug().Err(err).Int("attempt", attempt).Msg("Retrying transaction after conflict")
	}

	err = backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(db.maxTxRetries)), ctx), //nolint:gosec // maxTxRetries is a small positive constant
		notify)
	if err != nil && isTransactionConflict(err) {
		return fmt.Errorf("transaction conflict after %d attempts: %w", attempt, err)
	}
	return err
}

// inClause creates a parameterized IN clause for SQL queries.
// Returns the placeholder string and the arguments slice.
//
// Example:
//
//	placeholders, args := inClause([]string{"a", "b", "c"})
//	// placeholders = "?,?,?"
//	// args = []any{"a", "b", "c"}
func inClause(items []string) (string, []any) {
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item
	}
	return strings.Join(placeholders, ","), args
}

// limitClause returns a LIMIT clause, or nothing for a non-positive limit.
func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}
