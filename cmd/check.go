package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bavix/bletrack/internal/scanner"
)

var printConfig bool //nolint:gochecknoglobals // cobra command flag

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check configuration, scanner binary and device store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)

			log.Info().Str("config", cfg.Path).Msg("checking system status")

			if printConfig {
				out, err := cfg.Marshal()
				if err != nil {
					return err
				}

				_, _ = cmd.OutOrStdout().Write(out)
			}

			bc := scanner.NewBettercap(cfg.Scanner.Path, cfg.Scanner.Duration)
			if err := bc.Available(); err != nil {
				log.Err(err).Str("path", bc.Path()).Msg("bettercap not usable")

				return err
			}

			log.Info().Str("path", bc.Path()).Str("script", bc.Script()).Msg("bettercap found")

			ledger, err := newLedger(ctx, cfg)
			if err != nil {
				log.Err(err).Str("store", cfg.Store.Path).Msg("device store check failed")

				return fmt.Errorf("device store %s: %w", cfg.Store.Path, err)
			}

			summary := ledger.Summary()
			log.Info().
				Str("store", cfg.Store.Path).
				Int("devices", summary.Total).
				Int("known", summary.Known()).
				Msg("device store readable")

			log.Info().Msg("system check completed successfully")

			return nil
		},
	}
	cmd.Flags().BoolVar(&printConfig, "print-config", false, "Print the effective configuration as YAML")

	return cmd
}
