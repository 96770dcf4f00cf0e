package cache

import (
	"context"
	"sync"
)

// MemoryBackend is a concurrency-safe in-process Backend. It does not survive
// restarts and is meant for tests and ephemeral runs.
type MemoryBackend struct {
	mu sync.RWMutex

	// key: cache key, value: last written entry
	data map[string]Entry
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]Entry),
	}
}

// Load returns the entry stored under key.
func (m *MemoryBackend) Load(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[key]
	return entry, ok, nil
}

// Store overwrites the entry under key.
func (m *MemoryBackend) Store(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry
	return nil
}

// Len returns the number of stored entries, stale ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close is a no-op.
func (m *MemoryBackend) Close() error { return nil }
