package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "runs table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('written', 'skipped', 'failed')),
    corpus_size INTEGER DEFAULT 0,
    topic_count INTEGER DEFAULT 0,
    outlier_count INTEGER DEFAULT 0,
    report_path TEXT,
    error TEXT,
    started_at TEXT NOT NULL,
    finished_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_entity ON runs(entity);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "per-run topic summaries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS run_topics (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    topic_id INTEGER NOT NULL,
    member_count INTEGER NOT NULL,
    keywords TEXT,
    interpretation TEXT,
    PRIMARY KEY (run_id, topic_id)
);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
