package sqlite

import (
	"context"
	"database/sql"
)

// Migrate creates the run history schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Runs table
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			instance_name TEXT NOT NULL,
			status TEXT NOT NULL,
			objective REAL,
			config_json TEXT NOT NULL,
			stats_json TEXT NOT NULL,
			error_message TEXT,
			created_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,

		// Selected columns of a run
		`CREATE TABLE IF NOT EXISTS run_columns (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			release INTEGER NOT NULL,
			sequence_json TEXT NOT NULL,
			cost INTEGER NOT NULL,
			weight REAL NOT NULL,
			PRIMARY KEY (run_id, idx),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_instance ON runs(instance_name, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
