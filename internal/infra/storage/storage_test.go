package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]StateStorage {
	t.Helper()

	dir := t.TempDir()
	sqlite, err := NewSQLiteStorage(config.SQLiteStorageConfig{Path: filepath.Join(dir, "state.db")})
	require.NoError(t, err)

	stores := map[string]StateStorage{
		"file":   NewFileStorage(filepath.Join(dir, "server-state.json")),
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStateStorage_Contract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Health(ctx))

			state, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, state, "fresh store is empty")

			first := config.PersistedState{
				"filesystem": {Disabled: true},
				"github":     {Disabled: false},
			}
			require.NoError(t, store.Replace(ctx, first))

			state, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, first, state)

			second := config.PersistedState{"github": {Disabled: true}}
			require.NoError(t, store.Replace(ctx, second))

			state, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, second, state, "replace drops ids that are no longer present")

			require.NoError(t, store.Replace(ctx, config.PersistedState{}))
			state, err = store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, state)

			assert.NotEmpty(t, store.Location())
		})
	}
}

func TestFileStorage_CreatesEmptyFileOnFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server-state.json")
	store := NewFileStorage(path)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"serverStates": {}}`, string(data))
}

func TestFileStorage_WritesIndentedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-state.json")
	store := NewFileStorage(path)

	require.NoError(t, store.Replace(context.Background(), config.PersistedState{"fs": {Disabled: true}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"serverStates\": {\n    \"fs\": {\n      \"disabled\": true\n    }\n  }\n}\n", string(data))
}

func TestFileStorage_MalformedStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStorage(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	input := config.PersistedState{"fs": {Disabled: true}}
	require.NoError(t, store.Replace(ctx, input))
	input["other"] = config.ServerState{}

	state, err := store.Load(ctx)
	require.NoError(t, err)
	state["mutated"] = config.ServerState{}

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.PersistedState{"fs": {Disabled: true}}, again)
}

func TestNewStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		mutate    func(cfg *config.Config)
		wantType  any
		wantError string
	}{
		{
			name:     "file is the default",
			mutate:   func(cfg *config.Config) { cfg.Paths.State = filepath.Join(dir, "s.json") },
			wantType: &FileStorage{},
		},
		{
			name:     "memory",
			mutate:   func(cfg *config.Config) { cfg.Storage.Type = config.StorageTypeMemory },
			wantType: &MemoryStorage{},
		},
		{
			name: "sqlite",
			mutate: func(cfg *config.Config) {
				cfg.Storage.Type = config.StorageTypeSQLite
				cfg.Storage.SQLite.Path = filepath.Join(dir, "state.db")
			},
			wantType: &SQLiteStorage{},
		},
		{
			name: "redis unreachable",
			mutate: func(cfg *config.Config) {
				cfg.Storage.Type = config.StorageTypeRedis
				cfg.Storage.Redis.Host = "127.0.0.1"
				cfg.Storage.Redis.Port = 1
			},
			wantError: "failed to connect to Redis",
		},
		{
			name: "postgres unreachable",
			mutate: func(cfg *config.Config) {
				cfg.Storage.Type = config.StorageTypePostgres
				cfg.Storage.Postgres.Host = "127.0.0.1"
				cfg.Storage.Postgres.Port = 1
			},
			wantError: "PostgreSQL connection test failed",
		},
		{
			name:      "unsupported",
			mutate:    func(cfg *config.Config) { cfg.Storage.Type = "etcd" },
			wantError: "unsupported storage type: etcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			store, err := NewStorage(cfg)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			defer func() { _ = store.Close() }()
			assert.IsType(t, tt.wantType, store)
		})
	}
}
