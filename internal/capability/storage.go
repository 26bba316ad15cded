// Package capability declares the contracts the host application provides to
// the extension: key-value storage, the session registry, and user
// interaction. The folder store depends only on these interfaces; concrete
// implementations live with the host (or in internal/storage for the
// reference host).
package capability

import (
	"context"
	"errors"
	"sync"
)

// ErrKeyNotFound is returned by Storage.Read when no value exists for a key.
var ErrKeyNotFound = errors.New("capability: key not found")

// Storage is the host-provided key-value persistence capability.
type Storage interface {
	// Read returns the stored value for key, or ErrKeyNotFound when absent.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the stored value for key.
	Write(ctx context.Context, key string, value []byte) error
}

// MemoryStorage is an in-process Storage used by tests and ephemeral hosts.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage constructs an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

// Read returns the value for key, or ErrKeyNotFound.
func (m *MemoryStorage) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	cpy := make([]byte, len(value))
	copy(cpy, value)
	return cpy, nil
}

// Write stores a copy of value under key.
func (m *MemoryStorage) Write(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpy := make([]byte, len(value))
	copy(cpy, value)
	m.values[key] = cpy
	return nil
}
