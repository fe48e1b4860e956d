package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const logTimestampLayout = "2006-01-02T15-04-05.000"

// NewLogger builds the JSON logger used by every binary: debug level in dev,
// info otherwise. When LOG_DIR is set, output is also written to a
// timestamped file named after app. The returned closer is never nil.
func NewLogger(cfg *Config, app string) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Environment == "dev" {
		opts.Level = slog.LevelDebug
	}

	if cfg.LogDir == "" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), io.NopCloser(nil), nil
	}

	f, err := SetupLogFile(cfg.LogDir, app, cfg.LogMaxFiles)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stdout, f), opts)), f, nil
}

// SetupLogFile opens <dir>/<app>-<timestamp>.log and prunes the directory
// down to the newest maxFiles logs of that app. The caller closes the file.
func SetupLogFile(dir, app string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", app, time.Now().Format(logTimestampLayout))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// pruning failures leave extra files behind but never block logging
	if err := pruneLogs(dir, app, maxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to prune old logs: %v\n", err)
	}
	return f, nil
}

// pruneLogs relies on the timestamp layout sorting lexically in time order.
func pruneLogs(dir, app string, keep int) error {
	logs, err := filepath.Glob(filepath.Join(dir, app+"-*.log"))
	if err != nil {
		return err
	}
	excess := len(logs) - keep
	if excess <= 0 {
		return nil
	}

	sort.Strings(logs)
	for _, path := range logs[:excess] {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}
