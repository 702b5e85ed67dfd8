// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"context"
	"sync"

	"github.com/tomtom215/folio/internal/models"
)

// Checkpoint is the resumable state of a similarity run.
type Checkpoint struct {
	// Next is the first outer index not yet processed.
	Next int `json:"next"`

	// Skipped counts pairs skipped so far.
	Skipped int `json:"skipped"`

	// Edges are all edges staged by processed outer iterations.
	Edges []models.SimilarityEdge `json:"-"`
}

// CheckpointStore stages similarity edges between checkpoints. Staged edges
// are invisible to readers; only the job's final upsert publishes them.
type CheckpointStore interface {
	// Load returns the checkpoint of runKey, or nil when there is none.
	Load(ctx context.Context, runKey string) (*Checkpoint, error)

	// Save appends staged edges and advances the cursor in one step.
	Save(ctx context.Context, runKey string, next, skipped int, staged []models.SimilarityEdge) error

	// Clear removes everything stored for runKey.
	Clear(ctx context.Context, runKey string) error
}

// MemoryCheckpointStore is a CheckpointStore for a single process.
type MemoryCheckpointStore struct {
	mu   sync.Mutex
	runs map[string]*Checkpoint
}

var _ CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{runs: make(map[string]*Checkpoint)}
}

// Load implements CheckpointStore.
func (m *MemoryCheckpointStore) Load(_ context.Context, runKey string) (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.runs[runKey]
	if !ok {
		return nil, nil
	}
	return &Checkpoint{
		Next:    cp.Next,
		Skipped: cp.Skipped,
		Edges:   append([]models.SimilarityEdge(nil), cp.Edges...),
	}, nil
}

// Save implements CheckpointStore.
func (m *MemoryCheckpointStore) Save(_ context.Context, runKey string, next, skipped int, staged []models.SimilarityEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.runs[runKey]
	if !ok {
		cp = &Checkpoint{}
		m.runs[runKey] = cp
	}
	cp.Next, cp.Skipped = next, skipped
	cp.Edges = append(cp.Edges, staged...)
	return nil
}

// Clear implements CheckpointStore.
func (m *MemoryCheckpointStore) Clear(_ context.Context, runKey string) error {
	m.mu.Lock()
	delete(m.runs, runKey)
	m.mu.Unlock()
	return nil
}
