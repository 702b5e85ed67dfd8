// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

const (
	defaultCapacity        = 10000
	defaultCleanupInterval = 5 * time.Minute
)

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Stats tracks cache performance.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// HitRate returns the hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// Memory is an in-process LRU cache with per-entry TTL. It is safe for
// concurrent use.
type Memory struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front is most recently used
	stats    Stats
	now      func() time.Time

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithCleanupInterval sets how often expired entries are swept. Zero
// disables the background sweep; expired entries are then only dropped on
// access or eviction.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.cleanupInterval = d }
}

// NewMemory creates a memory cache holding at most capacity entries.
func NewMemory(capacity int, opts ...MemoryOption) *Memory {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	m := &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
		stop:     make(chan struct{}),

		cleanupInterval: defaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.stats.LastCleanup = m.now()

	if m.cleanupInterval > 0 {
		go m.cleanupLoop(m.cleanupInterval)
	}
	return m
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		m.stats.Misses++
		return nil, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if m.expired(entry) {
		m.removeElement(el)
		m.stats.Misses++
		m.stats.Evictions++
		return nil, false, nil
	}
	m.order.MoveToFront(el)
	m.stats.Hits++

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.value = stored
		entry.expiresAt = expiresAt
		m.order.MoveToFront(el)
		return nil
	}

	el := m.order.PushFront(&memoryEntry{key: key, value: stored, expiresAt: expiresAt})
	m.items[key] = el
	for m.order.Len() > m.capacity {
		m.removeElement(m.order.Back())
		m.stats.Evictions++
	}
	m.stats.TotalKeys = int64(len(m.items))
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.removeElement(el)
		m.stats.Evictions++
	}
	return nil
}

// DeletePrefix implements Store.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, el := range m.items {
		if strings.HasPrefix(key, prefix) {
			m.removeElement(el)
			removed++
		}
	}
	m.stats.Evictions += int64(removed)
	return removed, nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats returns a snapshot of cache statistics.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Close stops the background cleanup loop.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

// Cleanup removes every expired entry and returns how many were removed.
func (m *Memory) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, el := range m.items {
		if m.expired(el.Value.(*memoryEntry)) {
			m.removeElement(el)
			removed++
		}
	}
	m.stats.Evictions += int64(removed)
	m.stats.LastCleanup = m.now()
	return removed
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

func (m *Memory) expired(e *memoryEntry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

// removeElement must be called with mu held.
func (m *Memory) removeElement(el *list.Element) {
	entry := el.Value.(*memoryEntry)
	m.order.Remove(el)
	delete(m.items, entry.key)
	m.stats.TotalKeys = int64(len(m.items))
}

var _ Store = (*Memory)(nil)
