package batch

import (
	"sort"
	"sync"
)

// MemoryStore keeps batches in process memory. Batches are cloned on
// the way in and out so callers never share storage with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[string]*Batch)}
}

// Get returns the batch with the given ID, or (nil, nil) if unknown.
func (s *MemoryStore) Get(id string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches[id].Clone(), nil
}

// Put inserts or replaces a batch.
func (s *MemoryStore) Put(b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b.Clone()
	return nil
}

// List returns all batches, newest first.
func (s *MemoryStore) List() ([]*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Batch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a batch. Deleting an unknown ID is a no-op.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
	return nil
}
