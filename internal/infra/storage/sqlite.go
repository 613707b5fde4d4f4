package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/infra/storage/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements StateStorage using SQLite
type SQLiteStorage struct {
	sqlStateStore
	path string
}

// NewSQLiteStorage opens the database at cfg.Path and applies pending migrations
func NewSQLiteStorage(cfg config.SQLiteStorageConfig) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		cfg.Path = config.DefaultSQLitePath()
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	storage := &SQLiteStorage{
		sqlStateStore: sqlStateStore{db: db, dialect: migrations.DialectSQLite},
		path:          cfg.Path,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := storage.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return storage, nil
}

// Location returns the database path
func (s *SQLiteStorage) Location() string {
	return s.path
}
