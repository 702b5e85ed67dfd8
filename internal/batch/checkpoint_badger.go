// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	badgeropts "github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/models"
)

// Key layout:
//
//	cp:{runKey}:meta        -> Checkpoint (cursor and skipped count)
//	cp:{runKey}:edges:{%08d} -> []SimilarityEdge staged at that cursor
const (
	checkpointPrefix = "cp:"
	metaSuffix       = ":meta"
	edgesInfix       = ":edges:"
)

// BadgerConfig configures the on-disk checkpoint store.
type BadgerConfig struct {
	// Path is the database directory. Empty with InMemory set runs without disk.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// SyncWrites fsyncs every checkpoint.
	SyncWrites bool `koanf:"sync_writes"`

	// TTL expires checkpoints of abandoned runs.
	TTL time.Duration `koanf:"ttl"`

	// CloseTimeout bounds Close.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// BadgerCheckpointStore persists checkpoints in BadgerDB so an interrupted
// run resumes after a restart.
type BadgerCheckpointStore struct {
	db  *badger.DB
	cfg BadgerConfig

	mu     sync.Mutex
	closed bool
}

var _ CheckpointStore = (*BadgerCheckpointStore)(nil)

// ErrCheckpointsClosed is returned after Close.
var ErrCheckpointsClosed = errors.New("checkpoint store is closed")

// OpenBadgerCheckpoints opens (or creates) the checkpoint database.
func OpenBadgerCheckpoints(cfg BadgerConfig) (*BadgerCheckpointStore, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("checkpoint path is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 48 * time.Hour
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Compression = badgeropts.Snappy
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	return &BadgerCheckpointStore{db: db, cfg: cfg}, nil
}

func metaKey(runKey string) []byte {
	return []byte(checkpointPrefix + runKey + metaSuffix)
}

func edgesPrefix(runKey string) []byte {
	return []byte(checkpointPrefix + runKey + edgesInfix)
}

func (b *BadgerCheckpointStore) ensureOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrCheckpointsClosed
	}
	return nil
}

// Load implements CheckpointStore.
func (b *BadgerCheckpointStore) Load(ctx context.Context, runKey string) (*Checkpoint, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}

	var cp *Checkpoint
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(runKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		cp = &Checkpoint{}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, cp)
		}); err != nil {
			return fmt.Errorf("decode checkpoint: %w", err)
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := edgesPrefix(runKey)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk []models.SimilarityEdge
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &chunk)
			}); err != nil {
				return fmt.Errorf("decode staged edges: %w", err)
			}
			cp.Edges = append(cp.Edges, chunk...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", runKey, err)
	}
	return cp, nil
}

// Save implements CheckpointStore. The staged chunk and the cursor commit in
// one transaction.
func (b *BadgerCheckpointStore) Save(_ context.Context, runKey string, next, skipped int, staged []models.SimilarityEdge) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}

	meta, err := json.Marshal(Checkpoint{Next: next, Skipped: skipped})
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	var chunk []byte
	if len(staged) > 0 {
		if chunk, err = json.Marshal(staged); err != nil {
			return fmt.Errorf("encode staged edges: %w", err)
		}
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if chunk != nil {
			key := append(edgesPrefix(runKey), []byte(fmt.Sprintf("%08d", next))...)
			if err := txn.SetEntry(badger.NewEntry(key, chunk).WithTTL(b.cfg.TTL)); err != nil {
				return err
			}
		}
		return txn.SetEntry(badger.NewEntry(metaKey(runKey), meta).WithTTL(b.cfg.TTL))
	})
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", runKey, err)
	}
	return nil
}

// Clear implements CheckpointStore.
func (b *BadgerCheckpointStore) Clear(_ context.Context, runKey string) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}

	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := edgesPrefix(runKey)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list checkpoint %s: %w", runKey, err)
	}
	keys = append(keys, metaKey(runKey))

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("clear checkpoint %s: %w", runKey, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("clear checkpoint %s: %w", runKey, err)
	}
	return nil
}

// RunKeys lists the run keys with a stored checkpoint.
func (b *BadgerCheckpointStore) RunKeys() ([]string, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(checkpointPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if bytes.HasSuffix(key, []byte(metaSuffix)) {
				out = append(out, string(key[len(checkpointPrefix):len(key)-len(metaSuffix)]))
			}
		}
		return nil
	})
	return out, err
}

// RunGC reclaims value log space.
func (b *BadgerCheckpointStore) RunGC() error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	if b.cfg.InMemory {
		return nil
	}
	for {
		err := b.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database, giving up after the configured timeout.
func (b *BadgerCheckpointStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- b.db.Close() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close checkpoint db: %w", err)
		}
		return nil
	case <-time.After(b.cfg.CloseTimeout):
		return fmt.Errorf("checkpoint db close timeout after %v", b.cfg.CloseTimeout)
	}
}
