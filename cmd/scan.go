package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			eng, err := newEngine(ctx, cfg)
			if err != nil {
				return err
			}

			summary, err := eng.coord.RunCycle(ctx)
			if err != nil {
				return err
			}

			// A single run has no later cycle to retry a failed write.
			if err := eng.coord.Close(ctx); err != nil {
				return fmt.Errorf("save scan results: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, msg := range summary.Messages() {
				_, _ = fmt.Fprintln(out, msg)
			}

			_, _ = fmt.Fprintln(out, summary.StatusLine())

			return nil
		},
	}
}
