package barcache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-memory bar cache bounded by entry count.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	maxSize int
}

// NewMemoryCache creates a new in-memory cache with max capacity.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize < 1 {
		maxSize = 256
	}
	return &MemoryCache{
		entries: make(map[string]Entry),
		maxSize: maxSize,
	}
}

// Get returns a cached entry.
func (m *MemoryCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key.String()]
	return e, ok, nil
}

// Put stores an entry, evicting the oldest insert when over capacity.
func (m *MemoryCache) Put(ctx context.Context, key Key, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key.String()
	if _, exists := m.entries[k]; !exists {
		m.order = append(m.order, k)
	}
	m.entries[k] = entry

	for len(m.order) > m.maxSize {
		delete(m.entries, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// Purge drops entries fetched before cutoff.
func (m *MemoryCache) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	removed := 0
	for _, k := range m.order {
		if m.entries[k].FetchedAt.Before(cutoff) {
			delete(m.entries, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	m.order = kept
	return removed, nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for the memory cache.
func (m *MemoryCache) Close() error {
	return nil
}
