package cache

import (
	"sync"
	"time"
)

// DefaultMaxSize is the in-memory cache capacity.
const DefaultMaxSize = 1000

// Memory is a bounded in-memory cache. When full it evicts the oldest
// tenth of its entries, by insertion order, to make room.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	maxSize int
	hits    int64
	misses  int64
}

// NewMemory creates an in-memory cache holding at most maxSize entries.
// A non-positive maxSize falls back to DefaultMaxSize.
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Memory{
		entries: make(map[string]Entry),
		maxSize: maxSize,
	}
}

// Lookup returns the cached entry for a fingerprint, or (nil, nil) on
// a miss.
func (m *Memory) Lookup(fingerprint string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[fingerprint]
	if !ok {
		m.misses++
		return nil, nil
	}
	m.hits++
	copied := e
	return &copied, nil
}

// Store inserts or replaces the entry for its fingerprint.
func (m *Memory) Store(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[e.Fingerprint]; !exists {
		if len(m.entries) >= m.maxSize {
			m.evictOldest()
		}
		m.order = append(m.order, e.Fingerprint)
	}
	m.entries[e.Fingerprint] = e
	return nil
}

// evictOldest drops the oldest 10% of entries, at least one.
// Caller holds mu.
func (m *Memory) evictOldest() {
	n := len(m.order) / 10
	if n < 1 {
		n = 1
	}
	for _, fp := range m.order[:n] {
		delete(m.entries, fp)
	}
	m.order = append([]string(nil), m.order[n:]...)
}

// Stats reports hit counters and occupancy.
func (m *Memory) Stats() (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Hits:    m.hits,
		Misses:  m.misses,
		Size:    len(m.entries),
		MaxSize: m.maxSize,
		HitRate: hitRate(m.hits, m.misses),
	}, nil
}

// Clear drops all entries and resets the counters.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]Entry)
	m.order = nil
	m.hits = 0
	m.misses = 0
	return nil
}
