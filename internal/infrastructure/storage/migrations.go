package storage

import (
	"database/sql"
	"fmt"
)

// applyMigrations applies all database migrations in order.
func applyMigrations(db *sql.DB) error {
	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("could not enable foreign keys: %w", err)
	}

	if err := createMigrationsTable(db); err != nil {
		return err
	}

	migrations := []struct {
		version int
		name    string
		sql     string
	}{
		{1, "create_probe_runs_table", createProbeRunsTable},
		{2, "create_probe_steps_table", createProbeStepsTable},
		{3, "create_history_indices", createHistoryIndices},
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}

		if applied {
			continue
		}

		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("could not apply migration %d (%s): %w", m.version, m.name, err)
		}

		if err := recordMigration(db, m.version, m.name); err != nil {
			return fmt.Errorf("could not record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// createMigrationsTable creates the migrations tracking table.
func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// isMigrationApplied checks if a migration has been applied.
func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records that a migration has been applied.
func recordMigration(db *sql.DB, version int, name string) error {
	_, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", version, name)
	return err
}

// Migration SQL statements

const createProbeRunsTable = `
CREATE TABLE probe_runs (
	run_id TEXT PRIMARY KEY,
	model_id TEXT NOT NULL,
	strategy TEXT NOT NULL,
	configured_max INTEGER NOT NULL,
	theoretical_max INTEGER NOT NULL,
	boundary INTEGER NOT NULL,
	status TEXT NOT NULL,
	stats TEXT NOT NULL,
	started_at TEXT NOT NULL,
	completed_at TEXT NOT NULL
)`

const createProbeStepsTable = `
CREATE TABLE probe_steps (
	run_id TEXT NOT NULL,
	number INTEGER NOT NULL,
	target_tokens INTEGER NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_budget INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	latency_ns INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost REAL NOT NULL,
	error_detail TEXT,
	timestamp TEXT NOT NULL,
	PRIMARY KEY (run_id, number),
	FOREIGN KEY (run_id) REFERENCES probe_runs(run_id) ON DELETE CASCADE
)`

const createHistoryIndices = `
CREATE INDEX idx_probe_runs_model ON probe_runs(model_id, started_at);
CREATE INDEX idx_probe_runs_started ON probe_runs(started_at)`
