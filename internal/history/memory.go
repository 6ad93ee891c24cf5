package history

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// DefaultMemoryCapacity is the number of runs a MemoryStore keeps.
const DefaultMemoryCapacity = 500

// MemoryStore keeps the most recent runs in memory. Oldest runs are dropped
// once capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	runs     []Run // oldest first
}

// NewMemoryStore creates a store holding up to capacity runs.
// A capacity <= 0 uses DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Record stores run, replacing any earlier run with the same id.
func (m *MemoryStore) Record(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(run.ID); i >= 0 {
		m.runs[i] = run
		return nil
	}

	m.runs = append(m.runs, run)
	if over := len(m.runs) - m.capacity; over > 0 {
		m.runs = slices.Delete(m.runs, 0, over)
	}
	return nil
}

// Get returns the run with id, or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(id); i >= 0 {
		return m.runs[i], nil
	}
	return Run{}, ErrNotFound
}

// List returns matching runs, newest first.
func (m *MemoryStore) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Run, 0, min(opts.limit(), len(m.runs)))
	skipped := 0
	for i := len(m.runs) - 1; i >= 0 && len(out) < opts.limit(); i-- {
		r := m.runs[i]
		if opts.Mapping != "" && r.Mapping != opts.Mapping {
			continue
		}
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Len returns the number of stored runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

func (m *MemoryStore) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(m.runs, func(r Run) bool { return r.ID == id })
}
