package symbolstore

import (
	"database/sql"
	"fmt"
)

const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  project_key TEXT NOT NULL,
  started_at_utc TEXT NOT NULL,
  module_count INTEGER NOT NULL,
  symbol_count INTEGER NOT NULL,
  boundary_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project_key ON runs(project_key);

CREATE TABLE IF NOT EXISTS symbols (
  project_key TEXT NOT NULL,
  run_id TEXT NOT NULL,
  path TEXT NOT NULL,
  module TEXT NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  public INTEGER NOT NULL,
  imported INTEGER NOT NULL,
  canonical TEXT NOT NULL,
  file TEXT NOT NULL DEFAULT '',
  line INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (project_key, path)
);
CREATE INDEX IF NOT EXISTS idx_symbols_canonical ON symbols(project_key, canonical);

CREATE TABLE IF NOT EXISTS boundary_types (
  project_key TEXT NOT NULL,
  run_id TEXT NOT NULL,
  id INTEGER NOT NULL,
  type TEXT NOT NULL,
  PRIMARY KEY (project_key, id)
);
`,
	},
}

// EnsureSchema applies pending migrations, one transaction each.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
