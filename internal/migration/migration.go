package migration

import (
	"context"

	"perfpulse/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the activity schema. The DDL sticks to types
// both Postgres and SQLite accept so the dev database and tests share it.
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
	if err := r.createActivityEventsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create activity_events table", err)
	}

	if err := r.createTasksTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create tasks table", err)
	}

	if err := r.createEnergyEstimatesTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create energy_estimates table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createActivityEventsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_events (
			timestamp TIMESTAMP NOT NULL,
			action_kind VARCHAR(50) NOT NULL,
			entity_kind VARCHAR(50) NOT NULL DEFAULT '',
			entity_id VARCHAR(100) NOT NULL DEFAULT '',
			duration_seconds DOUBLE PRECISION
		)
	`)
	return err
}

func (r *MigrationRunner) createTasksTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(100) PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			start_date TIMESTAMP,
			end_date TIMESTAMP,
			deadline TIMESTAMP,
			duration_estimate_days DOUBLE PRECISION,
			category_id VARCHAR(100)
		)
	`)
	return err
}

func (r *MigrationRunner) createEnergyEstimatesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS energy_estimates (
			day TIMESTAMP NOT NULL,
			level DOUBLE PRECISION NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_activity_events_timestamp ON activity_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_start_date ON tasks(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_energy_estimates_day ON energy_estimates(day)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
