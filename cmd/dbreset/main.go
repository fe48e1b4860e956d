// Command dbreset drops the docvault tables of the configured environment.
// It refuses to run against prod.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"docvault/internal/config"
	"docvault/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" {
		log.Fatal("Refusing to drop tables in prod")
	}

	ctx := context.Background()
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL environment variable is required")
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := postgres.DropSchema(ctx, pool, postgres.NewTableNames(cfg.TablePrefix)); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Printf("All tables dropped successfully (prefix: %s)\n", cfg.TablePrefix)

	case config.StoreDriverSQLite:
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(cfg.SQLitePath + suffix); err != nil && !os.IsNotExist(err) {
				log.Fatalf("Failed to remove %s: %v", cfg.SQLitePath+suffix, err)
			}
		}
		fmt.Printf("Database file removed (%s)\n", cfg.SQLitePath)

	default:
		fmt.Printf("Nothing to reset for store driver %q\n", cfg.StoreDriver)
	}
}
