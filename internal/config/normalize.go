package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		if value, ok := os.LookupEnv("BENCHTAIL_WATCH_DIR"); ok {
			c.Paths.WatchDir = strings.TrimSpace(value)
		} else {
			c.Paths.WatchDir = defaultWatchDir
		}
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		if value, ok := os.LookupEnv("BENCHTAIL_DB"); ok {
			c.Paths.DatabasePath = strings.TrimSpace(value)
		} else {
			c.Paths.DatabasePath = defaultDatabasePath
		}
	}

	var err error
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() {
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.BatchRows <= 0 {
		c.Ingest.BatchRows = defaultBatchRows
	}
	if c.Ingest.BatchSeconds <= 0 {
		c.Ingest.BatchSeconds = defaultBatchSeconds
	}
	c.Ingest.BackfillMode = strings.ToLower(strings.TrimSpace(c.Ingest.BackfillMode))
	if c.Ingest.BackfillMode == "" {
		c.Ingest.BackfillMode = defaultBackfillMode
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
