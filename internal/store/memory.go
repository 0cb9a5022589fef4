// ABOUTME: In-memory implementation of the Store interface
// ABOUTME: Thread-safe map that lives for the process lifetime; used for cache.backend=memory and tests

package store

import (
	"context"
	"sync"
)

// MemoryStore keeps cache entries in a mutex-guarded map. Entries never
// expire; they are lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
	}
}

// Lookup returns the value stored under key.
func (m *MemoryStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	return value, ok, nil
}

// Store upserts value under key.
func (m *MemoryStore) Store(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.entries, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
