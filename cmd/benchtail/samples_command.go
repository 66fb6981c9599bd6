package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"benchtail/internal/store"
)

func newSamplesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var source string

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Show recently harvested measurements",
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

			samples, err := st.RecentSamples(cmd.Context(), limit, strings.TrimSpace(source))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(samples) == 0 {
				fmt.Fprintln(out, "No samples recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(samples))
			for _, sample := range samples {
				rows = append(rows, []string{
					strconv.FormatInt(sample.ID, 10),
					sample.Timestamp,
					sample.Source,
					sample.Channel,
					strconv.FormatFloat(sample.Value, 'g', -1, 64),
					sample.Origin,
				})
			}

			headers := []string{"ID", "Timestamp", "Source", "Channel", "Value", "Origin"}
			if isTerminal(out) {
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintln(out, strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of samples to display")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Only show samples from this source")
	return cmd
}
