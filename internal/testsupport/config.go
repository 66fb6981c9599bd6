package testsupport

import (
	"path/filepath"
	"testing"

	"benchtail/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "exports")
	cfg.Paths.DatabasePath = filepath.Join(base, "samples.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBackfill enables reading tracked files from the beginning on startup.
func WithBackfill() ConfigOption {
	return func(c *config.Config) {
		c.Watch.Backfill = true
	}
}

// WithBatchPolicy overrides the batched commit thresholds.
func WithBatchPolicy(rows, seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Ingest.BatchRows = rows
		c.Ingest.BatchSeconds = seconds
	}
}
