package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	stmts := schemaPostgres
	if driver == DriverSQLite {
		for _, p := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				return fmt.Errorf("store: sqlite pragma %q: %w", p, err)
			}
		}
		stmts = schemaSQLite
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

// tunePool sizes the connection pool. SQLite has a single writer, so its
// pool is kept to one connection.
func tunePool(driver Driver, db *sql.DB) {
	maxOpen, maxIdle := 20, 10
	connLife, idleLife := 45*time.Minute, 15*time.Minute
	if driver == DriverSQLite {
		maxOpen, maxIdle = 1, 1
		connLife, idleLife = 0, 0
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLife)
	db.SetConnMaxIdleTime(idleLife)
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA busy_timeout = 5000;",
}

var schemaSQLite = []string{`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  model_name TEXT NOT NULL,
  persona TEXT NOT NULL DEFAULT 'Base Model',
  system_prompt TEXT NOT NULL DEFAULT '',
  results_json TEXT NOT NULL,
  logs_json TEXT NOT NULL DEFAULT '[]',
  created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS runs_model_created ON runs (model_name, created_at)`,
}

var schemaPostgres = []string{`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  model_name TEXT NOT NULL,
  persona TEXT NOT NULL DEFAULT 'Base Model',
  system_prompt TEXT NOT NULL DEFAULT '',
  results_json TEXT NOT NULL,
  logs_json TEXT NOT NULL DEFAULT '[]',
  created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS runs_model_created ON runs (model_name, created_at)`,
}
