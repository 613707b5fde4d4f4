package storage

import (
	"context"
	"sync"

	"github.com/inference-gateway/mcp-manager/config"
)

// MemoryStorage keeps the state in process memory. Nothing survives a restart.
type MemoryStorage struct {
	state config.PersistedState
	mutex sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{state: config.PersistedState{}}
}

// Load returns a copy of the stored state
func (m *MemoryStorage) Load(_ context.Context) (config.PersistedState, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return cloneState(m.state), nil
}

// Replace swaps in a copy of state
func (m *MemoryStorage) Replace(_ context.Context, state config.PersistedState) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.state = cloneState(state)
	return nil
}

// Location describes the store
func (m *MemoryStorage) Location() string {
	return "memory"
}

// Health always succeeds for in-memory storage
func (m *MemoryStorage) Health(_ context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (m *MemoryStorage) Close() error {
	return nil
}
