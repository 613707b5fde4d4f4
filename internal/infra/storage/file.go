package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/logger"
)

// FileStorage keeps the state in a JSON document of the form {"serverStates": {...}}
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed state store at path
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the state file, creating an empty one when it does not exist yet
func (s *FileStorage) Load(ctx context.Context) (config.PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No existing state file found, creating empty state", "path", s.path)
		empty := config.PersistedState{}
		if err := s.Replace(ctx, empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	state, err := config.ParseStateFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	return state, nil
}

// Replace writes the state file
func (s *FileStorage) Replace(_ context.Context, state config.PersistedState) error {
	if state == nil {
		state = config.PersistedState{}
	}

	data, err := config.MarshalIndented(config.StateFile{ServerStates: state})
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", s.path, err)
	}

	logger.Debug("State file written", "path", s.path, "servers", len(state))
	return nil
}

// Location returns the state file path
func (s *FileStorage) Location() string {
	return s.path
}

// Health checks that the state directory exists or can be created
func (s *FileStorage) Health(_ context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("state directory %s is not writable: %w", dir, err)
	}
	return nil
}

// Close is a no-op for file storage
func (s *FileStorage) Close() error {
	return nil
}
