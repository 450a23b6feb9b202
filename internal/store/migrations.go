package store

import "fmt"

// migrations are applied in order; the schema version is the number applied,
// kept in PRAGMA user_version. Append only.
var migrations = []string{
	// 1: one row per stopped workout
	`CREATE TABLE workout_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		exercise TEXT NOT NULL,
		side TEXT NOT NULL,
		reps_left INTEGER NOT NULL DEFAULT 0,
		reps_right INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		set_number INTEGER NOT NULL DEFAULT 1,
		target_reps INTEGER NOT NULL DEFAULT 10,
		target_sets INTEGER NOT NULL DEFAULT 1,
		timestamp DATETIME NOT NULL
	)`,

	// 2: key-value application settings, values are JSON or plain text
	`CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	// 3
	`CREATE INDEX idx_workout_logs_user_timestamp ON workout_logs(user_id, timestamp DESC)`,
}

// SchemaVersion is the version a fully migrated database reports.
var SchemaVersion = len(migrations)

// migrate applies pending migrations, each in its own transaction together
// with the version bump. It returns the versions before and after.
func (s *Store) migrate() (from, to int, err error) {
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&from); err != nil {
		return 0, 0, fmt.Errorf("read schema version: %w", err)
	}
	if from > len(migrations) {
		return from, from, fmt.Errorf("database schema version %d is newer than this build (%d)", from, len(migrations))
	}

	for v := from; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return from, v, err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return from, v, fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return from, v, fmt.Errorf("migration %d: set version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return from, v, fmt.Errorf("migration %d: commit: %w", v+1, err)
		}
	}
	return from, len(migrations), nil
}
