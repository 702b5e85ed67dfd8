// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"time"

	"github.com/tomtom215/folio/internal/eventbus"
	"github.com/tomtom215/folio/internal/models"
)

// Catalog is the Item Catalog collaborator. Missing items yield ErrNotFound
// from GetItem and are omitted from GetItems.
type Catalog interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	GetItems(ctx context.Context, ids []string) (map[string]*models.Item, error)
	GetItemsByCategory(ctx context.Context, names []string, limit int) ([]*models.Item, error)
	GetItemsByAuthor(ctx context.Context, names []string, limit int) ([]*models.Item, error)
	GetPopularItems(ctx context.Context, limit int, excludeIDs []string) ([]*models.Item, error)
}

// ReadingHistory is the Reading History collaborator. GetUserHistory returns
// the most recent entries first.
type ReadingHistory interface {
	GetUserHistory(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error)
	GetCompletedItems(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	HasUserRead(ctx context.Context, userID, itemID string) (bool, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	// GetProfile returns ErrNotFound when the user has no profile yet.
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// InteractionLog is the append-only interaction store.
type InteractionLog interface {
	AppendInteraction(ctx context.Context, in *models.Interaction) error

	// UserInteractions returns a user's interactions, most recent first.
	// A non-positive limit returns all of them.
	UserInteractions(ctx context.Context, userID string, limit int) ([]models.Interaction, error)

	// InteractionsSince returns every interaction at or after since.
	InteractionsSince(ctx context.Context, since time.Time) ([]models.Interaction, error)

	// UserRatings returns the latest rating per item for a user.
	UserRatings(ctx context.Context, userID string) (map[string]float64, error)

	// RecentlyActiveUsers returns up to limit user ids other than exclude who
	// rated at least one item, ordered by their latest interaction, newest first.
	RecentlyActiveUsers(ctx context.Context, exclude string, limit int) ([]string, error)
}

// VectorStore holds ItemVector rows.
type VectorStore interface {
	GetVector(ctx context.Context, itemID string) (*models.ItemVector, error)
	ListVectors(ctx context.Context) ([]models.ItemVector, error)
	UpsertVector(ctx context.Context, v *models.ItemVector) error

	// ApplyDelta increments counters, creating the row if needed.
	ApplyDelta(ctx context.Context, d models.VectorDelta) error

	// UpdateDerivedScores overwrites popularity, quality and recency for the
	// given rows in one atomic step, leaving counters untouched.
	UpdateDerivedScores(ctx context.Context, vectors []models.ItemVector) error

	// TopByCombinedScore returns vectors with rating average >= minRating,
	// ordered by combined score then raw popularity, skipping excluded ids.
	TopByCombinedScore(ctx context.Context, limit int, minRating float64, exclude []string) ([]models.ItemVector, error)
}

// SimilarityStore holds the similarity index.
type SimilarityStore interface {
	// UpsertEdges writes all edges atomically. Readers see either none or all.
	UpsertEdges(ctx context.Context, edges []models.SimilarityEdge) error

	// PruneEdges deletes edges computed before cutoff.
	PruneEdges(ctx context.Context, cutoff time.Time) (int, error)

	// SimilarTo returns the strongest edges leaving itemID.
	SimilarTo(ctx context.Context, itemID string, limit int) ([]models.SimilarityEdge, error)
}

// TrendStore holds trend rankings.
type TrendStore interface {
	// ReplaceActive deactivates the active entries of (period, trendType) and
	// inserts entries as the new active ranking, atomically.
	ReplaceActive(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, entries []models.TrendEntry, now time.Time) error

	// ActiveTrends returns active entries ordered by rank.
	ActiveTrends(ctx context.Context, period models.TrendPeriod, trendType models.TrendType, limit int) ([]models.TrendEntry, error)

	// DeleteInactiveBefore removes entries deactivated before cutoff.
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RecommendationStore holds recommendation sets and their rows.
type RecommendationStore interface {
	// SaveSet persists a set and its rows atomically.
	SaveSet(ctx context.Context, set *models.RecommendationSet, recs []models.Recommendation) error

	GetSet(ctx context.Context, setID string) (*models.RecommendationSet, []models.Recommendation, error)
	GetRecommendation(ctx context.Context, recID string) (*models.Recommendation, error)

	// ApplyTransition sets the flag for t on the recommendation and, only if it
	// was not already set, increments the parent set counter. It reports
	// whether the transition happened.
	ApplyTransition(ctx context.Context, recID string, t models.Transition, at time.Time) (*models.Recommendation, bool, error)

	// DeleteSetsBefore removes sets generated before cutoff with their rows.
	DeleteSetsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// FeedbackStore holds explicit feedback.
type FeedbackStore interface {
	// InsertFeedback returns ErrDuplicateFeedback when (user, recommendation)
	// already has feedback.
	InsertFeedback(ctx context.Context, fb *models.Feedback) error
	FeedbackForSet(ctx context.Context, setID string) ([]models.Feedback, error)
}

// Cache stores serialized responses. cache.Memory and cache.Redis implement it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// EventPublisher publishes domain events. Delivery is fire-and-forget.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event) error
}

// Stores groups every persistence dependency of the engine.
type Stores struct {
	Profiles        ProfileStore
	Interactions    InteractionLog
	Vectors         VectorStore
	Similarity      SimilarityStore
	Trends          TrendStore
	Recommendations RecommendationStore
	Feedback        FeedbackStore
}
