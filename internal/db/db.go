// Package db provisions the three EasyPresenter SQLite stores and mediates
// access to them.
package db

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store identifies one independently provisioned database.
type Store string

const (
	Songs      Store = "songs"
	Bible      Store = "bible"
	Multimedia Store = "multimedia"
)

// pragmas are applied on every open. Failures are logged, never fatal.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-64000",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA busy_timeout=5000",
}

// Open opens the SQLite file at path and applies the performance pragmas.
// The pool is capped at a single connection so per-connection pragmas hold
// for the lifetime of the handle.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			slog.Warn("pragma failed", "path", path, "pragma", p, "error", err)
		}
	}

	return db, nil
}
