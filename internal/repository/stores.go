// Package repository selects and opens the configured store backend.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"docvault/internal/config"
	"docvault/internal/domain/repositories"
	docsysRepo "docvault/internal/domain/repositories/docsystem"
	"docvault/internal/repository/memory"
	"docvault/internal/repository/postgres"
	postgresDocsys "docvault/internal/repository/postgres/docsystem"
	"docvault/internal/repository/sqlite"
)

// Stores is one opened backend: its repositories, transaction manager and
// a reachability check (nil for the in-memory store).
type Stores struct {
	Driver      string
	Collections docsysRepo.CollectionRepository
	Nodes       docsysRepo.NodeRepository
	TxManager   repositories.TransactionManager
	Ping        func(ctx context.Context) error

	close func()
}

// Close releases the backend's connections
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the backend named by cfg.StoreDriver, creating the schema
// when it does not exist yet.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.StoreDriverSQLite:
		return openSQLite(ctx, cfg, logger)
	case config.StoreDriverMemory:
		store := memory.NewStore()
		logger.Warn("using in-memory store, data is lost on exit")
		return &Stores{
			Driver:      cfg.StoreDriver,
			Collections: store.Collections(),
			Nodes:       store.Nodes(),
			TxManager:   store.TransactionManager(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the %s driver", config.StoreDriverPostgres)
	}
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database connected",
		"driver", config.StoreDriverPostgres,
		"table_prefix", cfg.TablePrefix,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	return &Stores{
		Driver:      cfg.StoreDriver,
		Collections: postgresDocsys.NewCollectionRepository(repoConfig),
		Nodes:       postgresDocsys.NewNodeRepository(repoConfig),
		TxManager:   postgres.NewTransactionManager(pool, logger),
		Ping:        pool.Ping,
		close:       pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("database opened",
		"driver", config.StoreDriverSQLite,
		"path", cfg.SQLitePath,
	)

	return &Stores{
		Driver:      cfg.StoreDriver,
		Collections: sqlite.NewCollectionRepository(db),
		Nodes:       sqlite.NewNodeRepository(db),
		TxManager:   sqlite.NewTransactionManager(db, logger),
		Ping:        db.PingContext,
		close: func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close sqlite database", "error", err)
			}
		},
	}, nil
}
