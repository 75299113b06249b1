package cache

import (
	"sync"

	"github.com/chazu/blockjit/compiler/hash"
)

// ---------------------------------------------------------------------------
// MemoryStore: process-local entries
// ---------------------------------------------------------------------------

// MemoryStore keeps entries in a map. Stored entries must not be modified.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[hash.Sum]*Entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[hash.Sum]*Entry)}
}

func (m *MemoryStore) Get(key hash.Sum) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) Put(e *Entry) error {
	m.mu.Lock()
	m.entries[e.Key] = e
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
