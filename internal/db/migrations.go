package db

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jmoiron/sqlx"
)

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// Migration is one ordered, idempotent schema step.
type Migration struct {
	Version     int
	Description string
	Apply       func(ctx context.Context, tx *sqlx.Tx) error
}

// Migrate records applied steps in schema_migrations and runs the pending
// ones in version order, each in its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB, steps []Migration) error {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var versions []int
	if err := db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	ordered := make([]Migration, len(steps))
	copy(ordered, steps)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Version == ordered[i-1].Version {
			return fmt.Errorf("duplicate migration version %d", ordered[i].Version)
		}
	}

	for _, m := range ordered {
		if applied[m.Version] {
			continue
		}
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		slog.Info("migration applied", "version", m.Version, "description", m.Description)
	}
	return nil
}

func runMigration(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Apply(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
		m.Version, m.Description,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Exec returns a step body running the given statements in order.
func Exec(stmts ...string) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// AddColumn returns a step body adding column to table unless it is already
// there (databases created by releases that predate schema_migrations).
func AddColumn(table, column, decl string) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n,
			"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
		); err != nil {
			return err
		}
		if n > 0 {
			slog.Info("column already present", "table", table, "column", column)
			return nil
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
		return err
	}
}
