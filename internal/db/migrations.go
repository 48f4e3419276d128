package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateTasks,
		migrationCreateEntries,
		migrationCreateDayNotes,
		migrationCreateUserSettings,
		migrationCreateOutbox,
		migrationCreateSyncState,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    schedule TEXT NOT NULL DEFAULT 'daily',
    sort_index INTEGER NOT NULL DEFAULT 0,
    allow_partial INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, sort_index);
`

const migrationCreateEntries = `
CREATE TABLE IF NOT EXISTS entries (
    user_id TEXT NOT NULL,
    task_id TEXT NOT NULL,
    date TEXT NOT NULL,
    value REAL,
    updated_at TEXT NOT NULL,
    UNIQUE(user_id, task_id, date)
);

CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(user_id, date);
`

const migrationCreateDayNotes = `
CREATE TABLE IF NOT EXISTS day_notes (
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    learned_text TEXT NOT NULL DEFAULT '',
    notes_text TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL,
    UNIQUE(user_id, date)
);
`

const migrationCreateUserSettings = `
CREATE TABLE IF NOT EXISTS user_settings (
    user_id TEXT PRIMARY KEY,
    motivation_image_url TEXT,
    updated_at TEXT NOT NULL
);
`

const migrationCreateOutbox = `
CREATE TABLE IF NOT EXISTS outbox (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL,
    payload TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outbox_created ON outbox(created_at);
`

const migrationCreateSyncState = `
CREATE TABLE IF NOT EXISTS sync_state (
    key TEXT PRIMARY KEY,
    value TEXT
);
`
