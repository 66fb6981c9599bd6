package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"benchtail/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report database health and per-source sample counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open samples store: %w", err)
			}
			defer st.Close()

			health, err := st.CheckHealth(cmd.Context())
			if err != nil {
				return fmt.Errorf("check database health: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database:        %s\n", health.DBPath)
			fmt.Fprintf(out, "Exists:          %s\n", yesNo(health.DatabaseExists))
			fmt.Fprintf(out, "Readable:        %s\n", yesNo(health.DatabaseReadable))
			fmt.Fprintf(out, "Samples table:   %s\n", yesNo(health.TableExists))
			fmt.Fprintf(out, "Identity index:  %s\n", yesNo(health.IdentityIndex))
			fmt.Fprintf(out, "Dedupe mode:     %s\n", health.DedupeMode)
			fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
			fmt.Fprintf(out, "Total samples:   %d\n", health.TotalSamples)
			if len(health.MissingColumns) > 0 {
				fmt.Fprintf(out, "Missing columns: %v\n", health.MissingColumns)
			}

			counts, err := st.CountsBySource(cmd.Context())
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				return nil
			}

			sources := make([]string, 0, len(counts))
			for source := range counts {
				sources = append(sources, source)
			}
			sort.Strings(sources)

			rows := make([][]string, 0, len(sources))
			for _, source := range sources {
				rows = append(rows, []string{source, strconv.FormatInt(counts[source], 10)})
			}

			fmt.Fprintln(out)
			if isTerminal(out) {
				fmt.Fprintln(out, renderTable([]string{"Source", "Samples"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintf(out, "%s\t%s\n", row[0], row[1])
			}
			return nil
		},
	}
}
