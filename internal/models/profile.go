// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"strings"
	"time"
)

const (
	// MaxPreferredGenres caps UserProfile.PreferredGenres.
	MaxPreferredGenres = 10

	// MaxPreferredAuthors caps UserProfile.PreferredAuthors.
	MaxPreferredAuthors = 20

	// profileTrackedFields is the number of preference fields counted by Completeness.
	profileTrackedFields = 6
)

// ReadingLevel is the self-declared reading proficiency of a user.
type ReadingLevel string

const (
	ReadingLevelBeginner     ReadingLevel = "beginner"
	ReadingLevelIntermediate ReadingLevel = "intermediate"
	ReadingLevelAdvanced     ReadingLevel = "advanced"
	ReadingLevelExpert       ReadingLevel = "expert"
)

// Valid reports whether the level is one of the known values or empty.
func (l ReadingLevel) Valid() bool {
	switch l {
	case "", ReadingLevelBeginner, ReadingLevelIntermediate, ReadingLevelAdvanced, ReadingLevelExpert:
		return true
	}
	return false
}

// ReadingFrequency is how often a user reads.
type ReadingFrequency string

const (
	ReadingFrequencyDaily      ReadingFrequency = "daily"
	ReadingFrequencyWeekly     ReadingFrequency = "weekly"
	ReadingFrequencyMonthly    ReadingFrequency = "monthly"
	ReadingFrequencyOccasional ReadingFrequency = "occasional"
)

// Valid reports whether the frequency is one of the known values or empty.
func (f ReadingFrequency) Valid() bool {
	switch f {
	case "", ReadingFrequencyDaily, ReadingFrequencyWeekly, ReadingFrequencyMonthly, ReadingFrequencyOccasional:
		return true
	}
	return false
}

// UserProfile holds the reading preferences used to personalize recommendations.
type UserProfile struct {
	UserID string `json:"user_id"`

	// PreferredGenres is ordered by preference strength, capped at MaxPreferredGenres.
	PreferredGenres []string `json:"preferred_genres"`

	// PreferredAuthors is ordered by preference strength, capped at MaxPreferredAuthors.
	PreferredAuthors []string `json:"preferred_authors"`

	PreferredLanguages []string `json:"preferred_languages"`

	ReadingLevel     ReadingLevel     `json:"reading_level,omitempty"`
	ReadingFrequency ReadingFrequency `json:"reading_frequency,omitempty"`

	// AvgSessionMinutes is the average reading session duration in minutes.
	AvgSessionMinutes float64 `json:"avg_session_minutes"`

	// RecommendationsEnabled is false when the user opted out. Generation
	// then returns an empty, explicitly reasoned result.
	RecommendationsEnabled bool `json:"recommendations_enabled"`

	// RecommendationCadence is how often the user wants fresh recommendations
	// (for example "daily" or "weekly").
	RecommendationCadence string `json:"recommendation_cadence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserProfile returns the default profile created lazily for a user
// who has never set preferences.
func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:                 userID,
		PreferredGenres:        []string{},
		PreferredAuthors:       []string{},
		PreferredLanguages:     []string{},
		RecommendationsEnabled: true,
		RecommendationCadence:  "daily",
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// HasExplicitPreferences reports whether the user declared any genre or author.
func (p *UserProfile) HasExplicitPreferences() bool {
	return len(p.PreferredGenres) > 0 || len(p.PreferredAuthors) > 0
}

// Completeness returns the fraction of the six tracked preference fields
// that are non-empty.
func (p *UserProfile) Completeness() float64 {
	filled := 0
	if len(p.PreferredGenres) > 0 {
		filled++
	}
	if len(p.PreferredAuthors) > 0 {
		filled++
	}
	if len(p.PreferredLanguages) > 0 {
		filled++
	}
	if p.ReadingLevel != "" {
		filled++
	}
	if p.ReadingFrequency != "" {
		filled++
	}
	if p.AvgSessionMinutes > 0 {
		filled++
	}
	return float64(filled) / profileTrackedFields
}

// MergeCompleted accretes the genres and authors of a completed item into the
// profile. Existing entries keep their position; new ones are appended until
// the caps are reached. It reports whether anything changed.
func (p *UserProfile) MergeCompleted(genres, authors []string, now time.Time) bool {
	var changed bool
	p.PreferredGenres, changed = mergeCapped(p.PreferredGenres, genres, MaxPreferredGenres)
	var authorsChanged bool
	p.PreferredAuthors, authorsChanged = mergeCapped(p.PreferredAuthors, authors, MaxPreferredAuthors)
	if changed || authorsChanged {
		p.UpdatedAt = now
		return true
	}
	return false
}

// Normalize trims, deduplicates and caps the preference lists in place.
func (p *UserProfile) Normalize() {
	p.PreferredGenres, _ = mergeCapped(nil, p.PreferredGenres, MaxPreferredGenres)
	p.PreferredAuthors, _ = mergeCapped(nil, p.PreferredAuthors, MaxPreferredAuthors)
	p.PreferredLanguages, _ = mergeCapped(nil, p.PreferredLanguages, len(p.PreferredLanguages))
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.PreferredGenres = append([]string(nil), p.PreferredGenres...)
	c.PreferredAuthors = append([]string(nil), p.PreferredAuthors...)
	c.PreferredLanguages = append([]string(nil), p.PreferredLanguages...)
	return &c
}

func mergeCapped(existing, incoming []string, limit int) ([]string, bool) {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, v := range existing {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	changed := false
	for _, v := range incoming {
		if len(out) >= limit {
			break
		}
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(v))
		changed = true
	}
	return out, changed
}
