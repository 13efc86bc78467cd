package migration

import (
	"context"

	"tamperstat/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles archive schema migrations. Every statement is
// idempotent and portable between sqlite3 and postgres.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(errors.StorageError("migrate", err), "failed to create runs table")
	}

	if err := r.createMetricsTable(ctx, db); err != nil {
		return errors.Wrap(errors.StorageError("migrate", err), "failed to create run_metrics table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(errors.StorageError("migrate", err), "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id VARCHAR(36) PRIMARY KEY,
			source TEXT NOT NULL,
			source_hash VARCHAR(64) NOT NULL,
			settings_hash VARCHAR(64) NOT NULL,
			code_version VARCHAR(32) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createMetricsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_metrics (
			run_id VARCHAR(36) NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			section VARCHAR(32) NOT NULL,
			population TEXT NOT NULL,
			subject TEXT NOT NULL,
			name VARCHAR(64) NOT NULL,
			value DOUBLE PRECISION,
			note TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, seq)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_run_metrics_section ON run_metrics(run_id, section)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
