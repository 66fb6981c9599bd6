package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WatchDir == "" {
		return errors.New("paths.watch_dir must be set")
	}
	if c.Paths.DatabasePath == "" {
		return errors.New("paths.database_path must be set")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.PollInterval <= 0 {
		return errors.New("watch.poll_interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.BatchRows <= 0 {
		return errors.New("ingest.batch_rows must be positive")
	}
	if c.Ingest.BatchSeconds <= 0 {
		return errors.New("ingest.batch_seconds must be positive")
	}
	switch c.Ingest.BackfillMode {
	case BackfillModeBalanced, BackfillModeAggressive:
	default:
		return fmt.Errorf("ingest.backfill_mode must be %q or %q", BackfillModeBalanced, BackfillModeAggressive)
	}
	return nil
}
