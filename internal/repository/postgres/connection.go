package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Collections string
	Nodes       string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Collections: fmt.Sprintf("%scollections", prefix),
		Nodes:       fmt.Sprintf("%snodes", prefix),
	}
}

// All returns every table, dependents first
func (t *TableNames) All() []string {
	return []string{t.Nodes, t.Collections}
}

// CreateConnectionPool opens and pings a pgx pool.
//
// A pooler in transaction mode (PgBouncer, port 6543) rejects prepared
// statements, so on that port the pool falls back to
// QueryExecModeCacheDescribe, which still uses the extended protocol that
// JSONB encoding of Metadata needs. An explicit default_query_exec_mode in
// the URL wins over this detection.
//
// Table prefixes are interpolated with fmt.Sprintf before the SQL reaches
// the server, so each prefix gets its own statement cache entries.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
