// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights are the hybrid blend weights.
	Weights HybridWeights `json:"weights" koanf:"weights"`

	ContentBased  ContentBasedConfig  `json:"content_based" koanf:"content_based"`
	Collaborative CollaborativeConfig `json:"collaborative" koanf:"collaborative"`
	Popularity    PopularityConfig    `json:"popularity" koanf:"popularity"`
	Limits        LimitsConfig        `json:"limits" koanf:"limits"`
	Cache         CacheConfig         `json:"cache" koanf:"cache"`

	// SetTTL is how long a recommendation set stays valid after generation.
	SetTTL time.Duration `json:"set_ttl" koanf:"set_ttl"`

	// GenerationTimeout caps a Generate call when the request has no timeout.
	// On expiry the engine falls back to the popularity strategy.
	GenerationTimeout time.Duration `json:"generation_timeout" koanf:"generation_timeout"`

	// AlgorithmVersion is stamped on every persisted set.
	AlgorithmVersion string `json:"algorithm_version" koanf:"algorithm_version"`
}

// HybridWeights define the contribution of each strategy to a hybrid score.
type HybridWeights struct {
	Content       float64 `json:"content" koanf:"content"`
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`
	Popularity    float64 `json:"popularity" koanf:"popularity"`
}

// Normalize returns weights scaled to sum to 1.0. All-zero weights fall back
// to the defaults.
func (w HybridWeights) Normalize() HybridWeights {
	sum := w.Content + w.Collaborative + w.Popularity
	if sum <= 0 {
		return DefaultConfig().Weights
	}
	return HybridWeights{
		Content:       w.Content / sum,
		Collaborative: w.Collaborative / sum,
		Popularity:    w.Popularity / sum,
	}
}

// ContentBasedConfig contains parameters for content-based scoring.
type ContentBasedConfig struct {
	AuthorScore  float64 `json:"author_score" koanf:"author_score"`
	GenreScore   float64 `json:"genre_score" koanf:"genre_score"`
	PopularScore float64 `json:"popular_score" koanf:"popular_score"`

	// HistoryLookback is how many recent history entries seed
	// pseudo-preferences for users without explicit ones.
	HistoryLookback int `json:"history_lookback" koanf:"history_lookback"`
}

// CollaborativeConfig contains parameters for user-based collaborative scoring.
type CollaborativeConfig struct {
	// MinSharedItems is how many rated items two users must share.
	MinSharedItems int `json:"min_shared_items" koanf:"min_shared_items"`

	// SimilarityFloor is the minimum Jaccard similarity of a similar user.
	SimilarityFloor float64 `json:"similarity_floor" koanf:"similarity_floor"`

	// CandidatePoolSize caps how many recently active users are scanned.
	CandidatePoolSize int `json:"candidate_pool_size" koanf:"candidate_pool_size"`

	// MaxSimilarUsers caps how many similar users contribute ratings.
	MaxSimilarUsers int `json:"max_similar_users" koanf:"max_similar_users"`

	// MinLikedRating is the rating at which a similar user "liked" an item.
	MinLikedRating float64 `json:"min_liked_rating" koanf:"min_liked_rating"`
}

// PopularityConfig contains parameters for popularity scoring.
type PopularityConfig struct {
	// MinRating is the quality bar on average rating (0-5).
	MinRating float64 `json:"min_rating" koanf:"min_rating"`
}

// LimitsConfig contains request limits.
type LimitsConfig struct {
	DefaultCount int `json:"default_count" koanf:"default_count"`
	MaxCount     int `json:"max_count" koanf:"max_count"`

	// SeenLookback is how many of the user's most recent logged interactions
	// are excluded from generation as already seen.
	SeenLookback int `json:"seen_lookback" koanf:"seen_lookback"`

	// MaxTimeout caps a caller-supplied generation timeout.
	MaxTimeout time.Duration `json:"max_timeout" koanf:"max_timeout"`
}

// CacheConfig contains response cache parameters.
type CacheConfig struct {
	Enabled bool `json:"enabled" koanf:"enabled"`

	// RecommendationTTL applies to single-strategy responses.
	RecommendationTTL time.Duration `json:"recommendation_ttl" koanf:"recommendation_ttl"`

	// PersonalizedTTL applies to full hybrid responses.
	PersonalizedTTL time.Duration `json:"personalized_ttl" koanf:"personalized_ttl"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: HybridWeights{
			Content:       0.4,
			Collaborative: 0.4,
			Popularity:    0.2,
		},
		ContentBased: ContentBasedConfig{
			AuthorScore:     0.9,
			GenreScore:      0.7,
			PopularScore:    0.5,
			HistoryLookback: 10,
		},
		Collaborative: CollaborativeConfig{
			MinSharedItems:    2,
			SimilarityFloor:   0.1,
			CandidatePoolSize: 200,
			MaxSimilarUsers:   50,
			MinLikedRating:    3.5,
		},
		Popularity: PopularityConfig{
			MinRating: 3.5,
		},
		Limits: LimitsConfig{
			DefaultCount: 10,
			MaxCount:     50,
			SeenLookback: 500,
			MaxTimeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:           true,
			RecommendationTTL: time.Hour,
			PersonalizedTTL:   24 * time.Hour,
		},
		SetTTL:            24 * time.Hour,
		GenerationTimeout: 5 * time.Second,
		AlgorithmVersion:  "1.0.0",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"weights.content":       c.Weights.Content,
		"weights.collaborative": c.Weights.Collaborative,
		"weights.popularity":    c.Weights.Popularity,
	} {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%s must be non-negative, got %f", name, w)
		}
	}

	for name, s := range map[string]float64{
		"content_based.author_score":  c.ContentBased.AuthorScore,
		"content_based.genre_score":   c.ContentBased.GenreScore,
		"content_based.popular_score": c.ContentBased.PopularScore,
	} {
		if s < 0 || s > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, s)
		}
	}
	if c.ContentBased.HistoryLookback < 1 {
		return fmt.Errorf("content_based.history_lookback must be positive, got %d", c.ContentBased.HistoryLookback)
	}

	if c.Collaborative.MinSharedItems < 1 {
		return fmt.Errorf("collaborative.min_shared_items must be positive, got %d", c.Collaborative.MinSharedItems)
	}
	if c.Collaborative.SimilarityFloor < 0 || c.Collaborative.SimilarityFloor > 1 {
		return fmt.Errorf("collaborative.similarity_floor must be in [0, 1], got %f", c.Collaborative.SimilarityFloor)
	}
	if c.Collaborative.CandidatePoolSize < 1 {
		return fmt.Errorf("collaborative.candidate_pool_size must be positive, got %d", c.Collaborative.CandidatePoolSize)
	}
	if c.Collaborative.MaxSimilarUsers < 1 {
		return fmt.Errorf("collaborative.max_similar_users must be positive, got %d", c.Collaborative.MaxSimilarUsers)
	}

	if c.Popularity.MinRating < 0 || c.Popularity.MinRating > 5 {
		return fmt.Errorf("popularity.min_rating must be in [0, 5], got %f", c.Popularity.MinRating)
	}

	if c.Limits.DefaultCount < 1 {
		return fmt.Errorf("limits.default_count must be positive, got %d", c.Limits.DefaultCount)
	}
	if c.Limits.MaxCount < c.Limits.DefaultCount {
		return fmt.Errorf("limits.max_count must be >= limits.default_count, got %d < %d", c.Limits.MaxCount, c.Limits.DefaultCount)
	}

	if c.Limits.SeenLookback < 1 {
		return fmt.Errorf("limits.seen_lookback must be positive, got %d", c.Limits.SeenLookback)
	}
	if c.Limits.MaxTimeout <= 0 {
		return fmt.Errorf("limits.max_timeout must be positive, got %v", c.Limits.MaxTimeout)
	}

	if c.Cache.Enabled && (c.Cache.RecommendationTTL <= 0 || c.Cache.PersonalizedTTL <= 0) {
		return fmt.Errorf("cache ttls must be positive when the cache is enabled")
	}
	if c.SetTTL <= 0 {
		return fmt.Errorf("set_ttl must be positive, got %v", c.SetTTL)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation_timeout must be positive, got %v", c.GenerationTimeout)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
