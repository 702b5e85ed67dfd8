// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package eventbus

import (
	"context"
	"fmt"
)

// Command is a follow-up action produced by a Handler.
type Command interface {
	CommandName() string
}

// AccreteProfile merges the genres and authors of a completed item into a
// user's profile.
type AccreteProfile struct {
	UserID  string
	Genres  []string
	Authors []string
}

// CommandName implements Command.
func (AccreteProfile) CommandName() string { return "accrete_profile" }

// InvalidateUserCache drops every cached response of a user.
type InvalidateUserCache struct {
	UserID string
}

// CommandName implements Command.
func (InvalidateUserCache) CommandName() string { return "invalidate_user_cache" }

// Handler turns an event into follow-up commands. Handlers must not have
// side effects.
type Handler func(Event) ([]Command, error)

// Executor carries out commands.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cmd Command) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// HandleItemCompleted accretes the finished item's genres and authors into
// the reader's profile.
func HandleItemCompleted(e Event) ([]Command, error) {
	if e.Type != TypeItemCompleted {
		return nil, fmt.Errorf("item completed handler got %s event", e.Type)
	}
	if len(e.Genres) == 0 && len(e.Authors) == 0 {
		return nil, nil
	}
	return []Command{AccreteProfile{
		UserID:  e.UserID,
		Genres:  append([]string(nil), e.Genres...),
		Authors: append([]string(nil), e.Authors...),
	}}, nil
}

// HandlePreferencesUpdated invalidates the user's cached responses.
func HandlePreferencesUpdated(e Event) ([]Command, error) {
	if e.Type != TypePreferencesUpdated {
		return nil, fmt.Errorf("preferences updated handler got %s event", e.Type)
	}
	return []Command{InvalidateUserCache{UserID: e.UserID}}, nil
}

// Subscriptions is the default routing table of the recommendation core.
func Subscriptions() map[Type]Handler {
	return map[Type]Handler{
		TypeItemCompleted:      HandleItemCompleted,
		TypePreferencesUpdated: HandlePreferencesUpdated,
	}
}
