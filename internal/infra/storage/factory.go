package storage

import (
	"fmt"

	"github.com/inference-gateway/mcp-manager/config"
)

// NewStorage creates the state store selected by cfg.Storage.Type
func NewStorage(cfg *config.Config) (StateStorage, error) {
	switch cfg.Storage.Type {
	case config.StorageTypeFile, "":
		return NewFileStorage(cfg.StatePath()), nil
	case config.StorageTypeMemory:
		return NewMemoryStorage(), nil
	case config.StorageTypeSQLite:
		return NewSQLiteStorage(cfg.Storage.SQLite)
	case config.StorageTypePostgres:
		return NewPostgresStorage(cfg.Storage.Postgres)
	case config.StorageTypeRedis:
		return NewRedisStorage(cfg.Storage.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
