package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per program start
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			settings TEXT NOT NULL DEFAULT '{}',
			frames INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Session events - sessions entering and leaving the controllable set
		`CREATE TABLE IF NOT EXISTS session_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL CHECK(kind IN ('observed', 'evicted')),
			process TEXT NOT NULL,
			session_key TEXT NOT NULL,
			volume REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		// Control errors - failed per-session mixer operations
		`CREATE TABLE IF NOT EXISTS control_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			process TEXT NOT NULL,
			session_key TEXT NOT NULL,
			op TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_session_events_run_id ON session_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_control_errors_run_id ON control_errors(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
