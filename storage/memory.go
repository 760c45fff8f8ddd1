package storage

import (
	"context"
	"sync"
)

// Memory keeps values for the lifetime of the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
