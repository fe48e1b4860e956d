package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the collection and node tables when missing.
// Snapshots are stored as one bytea value so a save replaces them atomically.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, tables.Collections),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_updated_at_idx ON %s (updated_at DESC)`,
			tables.Collections, tables.Collections),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id            TEXT PRIMARY KEY,
				collection_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				parent_id     TEXT,
				kind          TEXT NOT NULL CHECK (kind IN ('folder', 'file')),
				name          TEXT NOT NULL,
				snapshot      BYTEA,
				metadata      JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at    TIMESTAMPTZ NOT NULL,
				updated_at    TIMESTAMPTZ NOT NULL
			)`, tables.Nodes, tables.Collections),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_collection_idx ON %s (collection_id)`,
			tables.Nodes, tables.Nodes),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table of the prefix
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
