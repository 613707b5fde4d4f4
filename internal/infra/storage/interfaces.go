package storage

import (
	"context"

	"github.com/inference-gateway/mcp-manager/config"
)

// StateStorage persists the per-server enable flags
type StateStorage interface {
	// Load returns the persisted state. A store that has never been written returns an empty state.
	Load(ctx context.Context) (config.PersistedState, error)

	// Replace overwrites the persisted state entirely
	Replace(ctx context.Context, state config.PersistedState) error

	// Location describes where the state lives, for messages and logs
	Location() string

	// Health checks if the storage is healthy and reachable
	Health(ctx context.Context) error

	// Close closes the storage connection
	Close() error
}

func cloneState(state config.PersistedState) config.PersistedState {
	out := make(config.PersistedState, len(state))
	for id, s := range state {
		out[id] = s
	}
	return out
}
