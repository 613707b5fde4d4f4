package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/infra/storage/migrations"
	_ "github.com/lib/pq"
)

// PostgresStorage implements StateStorage using PostgreSQL
type PostgresStorage struct {
	sqlStateStore
	cfg config.PostgresStorageConfig
}

func postgresDSN(cfg config.PostgresStorageConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)
}

// NewPostgresStorage connects, verifies the connection and applies pending migrations
func NewPostgresStorage(cfg config.PostgresStorageConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("PostgreSQL connection test failed: %w\n\n"+
			"Failed to connect to PostgreSQL. Verify:\n"+
			"  - PostgreSQL server is running at %s:%d\n"+
			"  - Database '%s' exists\n"+
			"  - User '%s' has proper permissions", err, cfg.Host, cfg.Port, cfg.Database, cfg.Username)
	}

	storage := &PostgresStorage{
		sqlStateStore: sqlStateStore{db: db, dialect: migrations.DialectPostgres},
		cfg:           cfg,
	}
	if err := storage.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return storage, nil
}

// Location returns the server address and database name
func (s *PostgresStorage) Location() string {
	return fmt.Sprintf("postgres://%s:%d/%s", s.cfg.Host, s.cfg.Port, s.cfg.Database)
}
