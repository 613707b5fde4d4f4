package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inference-gateway/mcp-manager/config"
	"github.com/inference-gateway/mcp-manager/internal/infra/storage/migrations"
)

// sqlStateStore holds the queries shared by the SQLite and PostgreSQL backends
type sqlStateStore struct {
	db      *sql.DB
	dialect migrations.Dialect
}

func (s *sqlStateStore) migrate(ctx context.Context) error {
	list, err := migrations.ForDialect(s.dialect)
	if err != nil {
		return err
	}
	if _, err := migrations.NewMigrationRunner(s.db, s.dialect).Up(ctx, list); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *sqlStateStore) insertSQL() string {
	if s.dialect == migrations.DialectPostgres {
		return "INSERT INTO server_states (id, disabled, updated_at) VALUES ($1, $2, $3)"
	}
	return "INSERT INTO server_states (id, disabled, updated_at) VALUES (?, ?, ?)"
}

// Load reads every row of server_states
func (s *sqlStateStore) Load(ctx context.Context) (config.PersistedState, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, disabled FROM server_states")
	if err != nil {
		return nil, fmt.Errorf("failed to query server states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	state := config.PersistedState{}
	for rows.Next() {
		var (
			id       string
			disabled bool
		)
		if err := rows.Scan(&id, &disabled); err != nil {
			return nil, fmt.Errorf("failed to scan server state: %w", err)
		}
		state[id] = config.ServerState{Disabled: disabled}
	}
	return state, rows.Err()
}

// Replace deletes all rows and inserts state in one transaction
func (s *sqlStateStore) Replace(ctx context.Context, state config.PersistedState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM server_states"); err != nil {
		return fmt.Errorf("failed to clear server states: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.insertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for id, st := range state {
		if _, err := stmt.ExecContext(ctx, id, st.Disabled, now); err != nil {
			return fmt.Errorf("failed to store state of %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit server states: %w", err)
	}
	return nil
}

// Health pings the database
func (s *sqlStateStore) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *sqlStateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
