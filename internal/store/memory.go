package store

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemory returns a Store that lives as long as the process.
func NewMemory() Store {
	return &memoryStore{slots: make(map[string]string)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

func (m *memoryStore) Close() error { return nil }
