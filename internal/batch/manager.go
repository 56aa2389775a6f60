package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matsen/refinery/internal/reference"
)

// Store is the persistence contract for batches. Get returns
// (nil, nil) for an unknown ID; the Manager maps that to ErrNotFound.
type Store interface {
	Get(id string) (*Batch, error)
	Put(b *Batch) error
	List() ([]*Batch, error)
	Delete(id string) error
}

// claim records who holds a batch's validation token and what status
// to restore on abort.
type claim struct {
	token string
	prev  Status
}

// Manager serializes all batch mutations and enforces the validation
// token protocol: BeginValidation issues an exclusive token, and only
// its holder may complete or abort the run.
type Manager struct {
	mu     sync.Mutex
	store  Store
	claims map[string]claim
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		claims: make(map[string]claim),
	}
}

// CreateBatch stores a new unvalidated batch for the parsed references.
func (m *Manager) CreateBatch(info FileInfo, refs []reference.ParsedReference) (*Batch, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: batch has no references", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	b := &Batch{
		ID:         uuid.NewString(),
		FileInfo:   info,
		References: cloneReferences(refs),
		Status:     StatusUnvalidated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.Put(b); err != nil {
		return nil, fmt.Errorf("storing batch: %w", err)
	}
	return b.Clone(), nil
}

// GetBatch fetches a batch by ID.
func (m *Manager) GetBatch(id string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

// get fetches without locking; callers hold the manager lock.
func (m *Manager) get(id string) (*Batch, error) {
	b, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, nil
}

// ListBatches returns all batches, newest first.
func (m *Manager) ListBatches() ([]*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.List()
}

// DeleteBatch removes a batch. A batch with an in-flight validation
// cannot be deleted.
func (m *Manager) DeleteBatch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.claims[id]; held {
		return fmt.Errorf("%w: batch %s", ErrConflict, id)
	}
	if _, err := m.get(id); err != nil {
		return err
	}
	return m.store.Delete(id)
}

// BeginValidation claims a batch for a single validation run and
// returns the exclusive token the run must present to complete or
// abort. A second claim while the first is outstanding fails with
// ErrConflict.
func (m *Manager) BeginValidation(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.claims[id]; held {
		return "", fmt.Errorf("%w: batch %s", ErrConflict, id)
	}

	b, err := m.get(id)
	if err != nil {
		return "", err
	}
	if b.Status == StatusValidating {
		return "", fmt.Errorf("%w: batch %s", ErrConflict, id)
	}

	token := uuid.NewString()
	m.claims[id] = claim{token: token, prev: b.Status}

	// A validated batch keeps its status during re-validation; only an
	// unvalidated batch surfaces the transition.
	if b.Status == StatusUnvalidated {
		b.Status = StatusValidating
		b.UpdatedAt = time.Now().UTC()
		if err := m.store.Put(b); err != nil {
			delete(m.claims, id)
			return "", fmt.Errorf("storing batch: %w", err)
		}
	}
	return token, nil
}

// CompleteValidation stores the run's result and marks the batch
// validated. The token must match the current claim.
func (m *Manager) CompleteValidation(id, token string, result *ValidationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkToken(id, token); err != nil {
		return err
	}

	b, err := m.get(id)
	if err != nil {
		return err
	}

	b.Status = StatusValidated
	b.ValidationResult = result
	if result != nil {
		b.References = cloneReferences(result.References)
	}
	b.UpdatedAt = time.Now().UTC()
	if err := m.store.Put(b); err != nil {
		return fmt.Errorf("storing batch: %w", err)
	}

	delete(m.claims, id)
	return nil
}

// AbortValidation releases the token and restores the batch to the
// status it held before the run, so the caller can retry.
func (m *Manager) AbortValidation(id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkToken(id, token); err != nil {
		return err
	}

	c := m.claims[id]
	delete(m.claims, id)

	b, err := m.get(id)
	if err != nil {
		return err
	}
	if b.Status != c.prev {
		b.Status = c.prev
		b.UpdatedAt = time.Now().UTC()
		if err := m.store.Put(b); err != nil {
			return fmt.Errorf("storing batch: %w", err)
		}
	}
	return nil
}

// checkToken verifies the presented token against the current claim.
// Callers hold the manager lock.
func (m *Manager) checkToken(id, token string) error {
	c, held := m.claims[id]
	if !held || c.token != token {
		return fmt.Errorf("%w: batch %s", ErrStaleToken, id)
	}
	return nil
}
