package options

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps JSON-encoded values in process memory. Used by tests and
// when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, name string, dst interface{}) error {
	m.mu.RLock()
	raw, ok := m.values[name]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode option %q: %w", name, err)
	}
	return nil
}

func (m *MemoryStore) Set(_ context.Context, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode option %q: %w", name, err)
	}
	m.mu.Lock()
	m.values[name] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Add(_ context.Context, name string, value interface{}) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode option %q: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.values[name]; exists {
		return false, nil
	}
	m.values[name] = raw
	return true, nil
}
