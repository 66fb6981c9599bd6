package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"benchtail/internal/agent"
	"benchtail/internal/config"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		logLevel     string
		backfill     bool
		noBackfill   bool
		pollInterval int
		backfillMode string
		progress     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the harvesting agent",
		Long: `Run polls the watch directory for AutoExportTrace_*.csv files, tails
appended rows, and persists each measurement exactly once into SQLite.
The agent stops cleanly on SIGINT or SIGTERM after a final commit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if backfill {
				cfg.Watch.Backfill = true
			}
			if noBackfill {
				cfg.Watch.Backfill = false
			}
			if pollInterval > 0 {
				cfg.Watch.PollInterval = pollInterval
			}
			if backfillMode != "" {
				cfg.Ingest.BackfillMode = strings.ToLower(strings.TrimSpace(backfillMode))
			}
			if progress {
				cfg.Ingest.Progress = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}

			return agent.Run(cmd.Context(), cfg, agent.Options{LogLevel: logLevel})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&backfill, "backfill", false, "Read tracked files from the beginning on startup")
	cmd.Flags().BoolVar(&noBackfill, "no-backfill", false, "Tail from the end of existing files (overrides config)")
	cmd.Flags().IntVar(&pollInterval, "interval", 0, "Poll interval in seconds (overrides config)")
	cmd.Flags().StringVar(&backfillMode, "mode", "",
		fmt.Sprintf("Backfill throughput preset (%s or %s)", config.BackfillModeBalanced, config.BackfillModeAggressive))
	cmd.Flags().BoolVar(&progress, "progress", false, "Log each processed row at debug level")
	cmd.MarkFlagsMutuallyExclusive("backfill", "no-backfill")

	return cmd
}
