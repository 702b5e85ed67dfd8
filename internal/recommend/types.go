// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

// Candidate is one scored item produced by a Strategy.
type Candidate struct {
	// ItemID identifies the catalog item.
	ItemID string `json:"item_id"`

	// Item is the catalog record when the strategy already fetched it.
	Item *models.Item `json:"item,omitempty"`

	// Score is in [0,1].
	Score float64 `json:"score"`

	// Reasons explain why the item was selected, most important first.
	Reasons []string `json:"reasons"`
}

// ExcludeSet is a set of item ids a strategy must not return.
type ExcludeSet map[string]struct{}

// NewExcludeSet builds a set from any number of id slices.
func NewExcludeSet(ids ...[]string) ExcludeSet {
	s := make(ExcludeSet)
	for _, list := range ids {
		for _, id := range list {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is excluded.
func (s ExcludeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add excludes id.
func (s ExcludeSet) Add(id string) {
	s[id] = struct{}{}
}

// IDs returns the excluded ids in sorted order.
func (s ExcludeSet) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s ExcludeSet) Clone() ExcludeSet {
	c := make(ExcludeSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// ScoringInput is what every strategy receives.
type ScoringInput struct {
	UserID  string
	Profile *models.UserProfile

	// Exclude holds ids the output must not contain.
	Exclude ExcludeSet

	// Count is the maximum number of candidates to return.
	Count int

	Context map[string]string
}

// Strategy scores items for a user. Implementations return at most
// in.Count candidates ordered by descending score, none of them excluded.
type Strategy interface {
	// Name returns the algorithm the strategy implements.
	Name() models.Algorithm

	// Score produces ranked candidates.
	Score(ctx context.Context, in ScoringInput) ([]Candidate, error)
}

// CompositeStrategy is a Strategy built from other strategies. It reports
// which of its parts failed so callers can surface partial degradation.
type CompositeStrategy interface {
	Strategy

	// ScoreDetailed behaves like Score and also returns the names of the
	// parts that failed and contributed nothing.
	ScoreDetailed(ctx context.Context, in ScoringInput) ([]Candidate, []string, error)
}

// Request is a generate call.
type Request struct {
	UserID    string            `json:"user_id" validate:"required"`
	Algorithm models.Algorithm  `json:"algorithm" validate:"omitempty,algorithm"`
	Count     int               `json:"count" validate:"gte=0,lte=50"`
	Context   map[string]string `json:"context,omitempty"`

	// ExcludeItemIDs are removed from every strategy's output.
	ExcludeItemIDs []string `json:"exclude_item_ids,omitempty"`

	// ForceRefresh bypasses and invalidates the cache entry.
	ForceRefresh bool `json:"force_refresh"`

	// Timeout caps total generation time. Zero uses the configured default.
	Timeout time.Duration `json:"-"`
}

// ResponseItem is one recommended item.
type ResponseItem struct {
	RecommendationID string       `json:"recommendation_id"`
	ItemID           string       `json:"item_id"`
	Item             *models.Item `json:"item,omitempty"`
	Score            float64      `json:"score"`
	Position         int          `json:"position"`
	Reasons          []string     `json:"reasons"`
	Explanation      string       `json:"explanation,omitempty"`
}

// PreferencesEcho repeats the preferences the response was generated for.
type PreferencesEcho struct {
	PreferredGenres    []string                `json:"preferred_genres"`
	PreferredAuthors   []string                `json:"preferred_authors"`
	PreferredLanguages []string                `json:"preferred_languages"`
	ReadingLevel       models.ReadingLevel     `json:"reading_level,omitempty"`
	ReadingFrequency   models.ReadingFrequency `json:"reading_frequency,omitempty"`
}

// Response is the result of Generate.
type Response struct {
	// SetID is empty when nothing was persisted (disabled or no data).
	SetID  string `json:"set_id,omitempty"`
	UserID string `json:"user_id"`

	// Algorithm is the strategy that actually produced the items. It differs
	// from RequestedAlgorithm after a fallback.
	Algorithm          models.Algorithm `json:"algorithm"`
	RequestedAlgorithm models.Algorithm `json:"requested_algorithm"`

	Items []ResponseItem `json:"items"`

	// Reason explains an empty result, for example "recommendations disabled".
	Reason string `json:"reason,omitempty"`

	Confidence float64 `json:"confidence"`
	Diversity  float64 `json:"diversity"`
	Novelty    float64 `json:"novelty"`

	Preferences PreferencesEcho `json:"preferences"`

	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	FromCache    bool `json:"from_cache"`
	FallbackUsed bool `json:"fallback_used"`

	// FailedStrategies lists strategies that errored and contributed nothing.
	FailedStrategies []string `json:"failed_strategies,omitempty"`
}

// SimilarItem is one entry of a "similar items" list.
type SimilarItem struct {
	ItemID     string       `json:"item_id"`
	Item       *models.Item `json:"item,omitempty"`
	Similarity float64      `json:"similarity"`
	Reasons    []string     `json:"reasons"`
}

// PreferencesUpdate is an explicit preference change. Nil fields are left unchanged.
type PreferencesUpdate struct {
	PreferredGenres        []string                 `json:"preferred_genres,omitempty" validate:"omitempty,max=10,dive,required"`
	PreferredAuthors       []string                 `json:"preferred_authors,omitempty" validate:"omitempty,max=20,dive,required"`
	PreferredLanguages     []string                 `json:"preferred_languages,omitempty" validate:"omitempty,dive,required"`
	ReadingLevel           *models.ReadingLevel     `json:"reading_level,omitempty" validate:"omitempty,reading_level"`
	ReadingFrequency       *models.ReadingFrequency `json:"reading_frequency,omitempty" validate:"omitempty,reading_frequency"`
	AvgSessionMinutes      *float64                 `json:"avg_session_minutes,omitempty" validate:"omitempty,gte=0"`
	RecommendationsEnabled *bool                    `json:"recommendations_enabled,omitempty"`
	RecommendationCadence  *string                  `json:"recommendation_cadence,omitempty"`
}

// FeedbackInput is a submit_feedback call.
type FeedbackInput struct {
	UserID           string              `json:"user_id" validate:"required"`
	RecommendationID string              `json:"recommendation_id" validate:"required"`
	Type             models.FeedbackType `json:"type" validate:"required,feedback_type"`
	Rating           *int                `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Comment          string              `json:"comment,omitempty" validate:"max=2000"`
}

// FeedbackSummary aggregates feedback for one recommendation set.
type FeedbackSummary struct {
	SetID       string                      `json:"set_id"`
	Count       int                         `json:"count"`
	TotalWeight float64                     `json:"total_weight"`
	ByType      map[models.FeedbackType]int `json:"by_type"`
}
