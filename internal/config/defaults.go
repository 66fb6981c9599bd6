package config

const (
	defaultWatchDir         = "~/benchvue"
	defaultDatabasePath     = "~/.local/share/benchtail/benchtail.db"
	defaultLogDir           = "~/.local/share/benchtail/logs"
	defaultPollInterval     = 1
	defaultBatchRows        = 250
	defaultBatchSeconds     = 2
	defaultBackfillMode     = "balanced"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

// Backfill throughput presets. Balanced keeps the store crash-safe with
// larger batches; aggressive trades durability for backlog throughput.
const (
	BackfillModeBalanced   = "balanced"
	BackfillModeAggressive = "aggressive"

	balancedBatchRows      = 2000
	balancedBatchSeconds   = 10
	aggressiveBatchRows    = 10000
	aggressiveBatchSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir:     defaultWatchDir,
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
		},
		Watch: Watch{
			PollInterval: defaultPollInterval,
		},
		Ingest: Ingest{
			BatchRows:    defaultBatchRows,
			BatchSeconds: defaultBatchSeconds,
			BackfillMode: defaultBackfillMode,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// BackfillThresholds returns the batch thresholds for the configured
// backfill mode. The returned values only apply while backfilling; steady
// state uses ingest.batch_rows and ingest.batch_seconds.
func (c *Config) BackfillThresholds() (rows, seconds int) {
	switch c.Ingest.BackfillMode {
	case BackfillModeAggressive:
		return aggressiveBatchRows, aggressiveBatchSeconds
	default:
		return balancedBatchRows, balancedBatchSeconds
	}
}
