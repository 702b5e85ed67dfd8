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

const profileColumns = `user_id, preferred_genres, preferred_authors, preferred_languages,
	reading_level, reading_frequency, avg_session_minutes, recommendations_enabled,
	recommendation_cadence, created_at, updated_at`

// GetProfile implements recommend.ProfileStore.
func (db *DB) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var (
		p                      models.UserProfile
		genres, authors, langs string
		level, frequency       string
		createdAt, updatedAt   sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &genres, &authors, &langs, &level, &frequency, &p.AvgSessionMinutes,
			&p.RecommendationsEnabled, &p.RecommendationCadence, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, recommend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	if p.PreferredGenres, err = decodeStrings(genres); err != nil {
		return nil, err
	}
	if p.PreferredAuthors, err = decodeStrings(authors); err != nil {
		return nil, err
	}
	if p.PreferredLanguages, err = decodeStrings(langs); err != nil {
		return nil, err
	}
	p.ReadingLevel = models.ReadingLevel(level)
	p.ReadingFrequency = models.ReadingFrequency(frequency)
	p.CreatedAt = timeFrom(createdAt)
	p.UpdatedAt = timeFrom(updatedAt)
	return &p, nil
}

// SaveProfile implements recommend.ProfileStore.
func (db *DB) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return errors.New("profile requires a user id")
	}
	genres, err := encodeJSON(profile.PreferredGenres, "[]")
	if err != nil {
		return err
	}
	authors, err := encodeJSON(profile.PreferredAuthors, "[]")
	if err != nil {
		return err
	}
	langs, err := encodeJSON(profile.PreferredLanguages, "[]")
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO user_profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID, genres, authors, langs,
		string(profile.ReadingLevel), string(profile.ReadingFrequency), profile.AvgSessionMinutes,
		profile.RecommendationsEnabled, profile.RecommendationCadence,
		nullTime(profile.CreatedAt), nullTime(profile.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", profile.UserID, err)
	}
	return nil
}
