// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"fmt"

	"github.com/tomtom215/folio/internal/eventbus"
)

var _ eventbus.Executor = (*Engine)(nil)

// Execute applies a command produced by an event handler.
func (e *Engine) Execute(ctx context.Context, cmd eventbus.Command) error {
	switch c := cmd.(type) {
	case eventbus.AccreteProfile:
		return e.accreteProfile(ctx, c)
	case eventbus.InvalidateUserCache:
		_, err := e.InvalidateUser(ctx, c.UserID)
		return err
	default:
		return fmt.Errorf("unsupported command %s", cmd.CommandName())
	}
}

// accreteProfile merges a completed item's genres and authors into the
// user's preferences. Existing values keep their order and the caps hold.
func (e *Engine) accreteProfile(ctx context.Context, c eventbus.AccreteProfile) error {
	e.profileMu.Lock()
	profile, err := e.resolveProfile(ctx, c.UserID)
	if err != nil {
		e.profileMu.Unlock()
		return err
	}
	changed := profile.MergeCompleted(c.Genres, c.Authors, e.now())
	if changed {
		err = e.stores.Profiles.SaveProfile(ctx, profile)
	}
	e.profileMu.Unlock()

	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if !changed {
		return nil
	}

	e.logger.Debug().
		Str("user_id", c.UserID).
		Int("genres", len(profile.PreferredGenres)).
		Int("authors", len(profile.PreferredAuthors)).
		Msg("profile accreted from completed item")

	_, err = e.InvalidateUser(ctx, c.UserID)
	return err
}
