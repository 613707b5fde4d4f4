package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Dialect names the SQL flavour a runner speaks
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Migration is one versioned schema change
type Migration struct {
	Version     string
	Description string
	UpSQL       string
	DownSQL     string
}

// MigrationStatus reports whether a known migration has been applied
type MigrationStatus struct {
	Version     string
	Description string
	Applied     bool
}

// MigrationRunner applies migrations and records them in schema_migrations
type MigrationRunner struct {
	db      *sql.DB
	dialect Dialect
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *sql.DB, dialect Dialect) *MigrationRunner {
	return &MigrationRunner{db: db, dialect: dialect}
}

// ForDialect returns the migrations of the given dialect
func ForDialect(dialect Dialect) ([]Migration, error) {
	switch dialect {
	case DialectSQLite:
		return SQLiteMigrations(), nil
	case DialectPostgres:
		return PostgresMigrations(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// EnsureMigrationTable creates the tracking table if it doesn't exist
func (r *MigrationRunner) EnsureMigrationTable(ctx context.Context) error {
	appliedAt := "DATETIME"
	switch r.dialect {
	case DialectSQLite:
	case DialectPostgres:
		appliedAt = "TIMESTAMP WITH TIME ZONE"
	default:
		return fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at %s NOT NULL
		)`, appliedAt)

	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// Applied returns the set of applied migration versions
func (r *MigrationRunner) Applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (r *MigrationRunner) recordSQL() string {
	if r.dialect == DialectPostgres {
		return "INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)"
	}
	return "INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"
}

// Apply runs one migration and its bookkeeping insert in a single transaction
func (r *MigrationRunner) Apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, r.recordSQL(), m.Version, m.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
	}
	return nil
}

// Up applies every pending migration in version order and returns how many ran
func (r *MigrationRunner) Up(ctx context.Context, migrations []Migration) (int, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return 0, err
	}

	applied, err := r.Applied(ctx)
	if err != nil {
		return 0, err
	}

	ordered := sortedCopy(migrations)
	count := 0
	for _, m := range ordered {
		if applied[m.Version] {
			continue
		}
		if err := r.Apply(ctx, m); err != nil {
			return count, fmt.Errorf("migration %s failed: %w", m.Version, err)
		}
		count++
	}
	return count, nil
}

// Status lists the known migrations with their applied flag
func (r *MigrationRunner) Status(ctx context.Context, migrations []Migration) ([]MigrationStatus, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}

	ordered := sortedCopy(migrations)
	status := make([]MigrationStatus, 0, len(ordered))
	for _, m := range ordered {
		status = append(status, MigrationStatus{
			Version:     m.Version,
			Description: m.Description,
			Applied:     applied[m.Version],
		})
	}
	return status, nil
}

func sortedCopy(migrations []Migration) []Migration {
	out := append([]Migration(nil), migrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
