// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package memstore provides in-memory implementations of every persistence
// and collaborator interface of the recommend package.
//
// It backs tests and the database.backend: memory deployment mode, where
// nothing survives a restart. All methods are safe for concurrent use.
// Returned values are copies; mutating them never changes stored state.
package memstore

import (
	"sync"
	"time"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// Store holds every entity in memory.
type Store struct {
	catalogMu sync.RWMutex
	items     map[string]*models.Item
	history   map[string][]models.HistoryEntry

	profilesMu sync.RWMutex
	profiles   map[string]*models.UserProfile

	interactionsMu sync.RWMutex
	interactions   []models.Interaction
	byUser         map[string][]int

	vectorsMu sync.RWMutex
	vectors   map[string]*models.ItemVector

	similarityMu sync.RWMutex
	edges        map[string]map[string]models.SimilarityEdge

	trendsMu sync.RWMutex
	trends   []models.TrendEntry

	// recsMu guards sets, recs, bySet and feedback so that feedback can be
	// joined to sets.
	recsMu   sync.RWMutex
	sets     map[string]*models.RecommendationSet
	recs     map[string]*models.Recommendation
	bySet    map[string][]string
	feedback map[feedbackKey]*models.Feedback

	now func() time.Time
}

type feedbackKey struct {
	userID           string
	recommendationID string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for timestamps the store assigns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		items:    make(map[string]*models.Item),
		history:  make(map[string][]models.HistoryEntry),
		profiles: make(map[string]*models.UserProfile),
		byUser:   make(map[string][]int),
		vectors:  make(map[string]*models.ItemVector),
		edges:    make(map[string]map[string]models.SimilarityEdge),
		sets:     make(map[string]*models.RecommendationSet),
		recs:     make(map[string]*models.Recommendation),
		bySet:    make(map[string][]string),
		feedback: make(map[feedbackKey]*models.Feedback),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stores returns the store wired into every recommend.Stores slot.
func (s *Store) Stores() recommend.Stores {
	return recommend.Stores{
		Profiles:        s,
		Interactions:    s,
		Vectors:         s,
		Similarity:      s,
		Trends:          s,
		Recommendations: s,
		Feedback:        s,
	}
}

// Compile-time interface assertions.
var (
	_ recommend.Catalog             = (*Store)(nil)
	_ recommend.ReadingHistory      = (*Store)(nil)
	_ recommend.ProfileStore        = (*Store)(nil)
	_ recommend.InteractionLog      = (*Store)(nil)
	_ recommend.VectorStore         = (*Store)(nil)
	_ recommend.SimilarityStore     = (*Store)(nil)
	_ recommend.TrendStore          = (*Store)(nil)
	_ recommend.RecommendationStore = (*Store)(nil)
	_ recommend.FeedbackStore       = (*Store)(nil)
)

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	return append([]float64(nil), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
