package config

import (
	"os"
	"strconv"
	"time"
)

// Store drivers selectable through STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Storage
	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	// Editing sessions
	AutosaveDelay time.Duration
	SaveTimeout   time.Duration
	// Import
	ImportWorkers  int
	MaxImportBytes int64
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	databaseURL := getEnv("DATABASE_URL", "")

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:    getTablePrefix(env),
		StoreDriver:    getEnv("STORE_DRIVER", getDefaultStoreDriver(databaseURL)),
		DatabaseURL:    databaseURL,
		SQLitePath:     getEnv("SQLITE_PATH", "docvault.db"),
		AutosaveDelay:  getDuration("AUTOSAVE_DELAY", 2*time.Second),
		SaveTimeout:    getDuration("SAVE_TIMEOUT", 10*time.Second),
		ImportWorkers:  getInt("IMPORT_WORKERS", 4),
		MaxImportBytes: int64(getInt("MAX_IMPORT_BYTES", 100<<20)),
		LogDir:         getEnv("LOG_DIR", ""),
		LogMaxFiles:    getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultStoreDriver picks postgres when a database URL is configured
func getDefaultStoreDriver(databaseURL string) string {
	if databaseURL != "" {
		return StoreDriverPostgres
	}
	return StoreDriverMemory
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
