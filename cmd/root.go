package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bavix/bletrack/internal/config"
	"github.com/bavix/bletrack/internal/logging"
	verpkg "github.com/bavix/bletrack/internal/version"
)

const appName = "bletrack"

var (
	cfgFile   string //nolint:gochecknoglobals // cobra command flag
	logLevel  string //nolint:gochecknoglobals // cobra command flag
	logFormat string //nolint:gochecknoglobals // cobra command flag
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Track nearby BLE devices seen by bettercap",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			base := logging.Base(appName, logLevel, logFormat)
			ctx := base.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format: json, console")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newCheckCmd())

	rootCmd.Version = verpkg.GetVersion()
	rootCmd.SetVersionTemplate(appName + " " + verpkg.GetVersion())

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func ExecuteContext(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configPath() string {
	if cfgFile == "" {
		return config.DefaultPath
	}

	return cfgFile
}

// loadConfig reads the config file, falling back to defaults when it does not exist,
// and applies the config's log settings unless they were given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("log-level") && !flags.Changed("log-format") {
		cmd.SetContext(withLogger(cmd.Context(), cfg))
	}

	return cfg, nil
}

func withLogger(ctx context.Context, cfg *config.Config) context.Context {
	logger := logging.Base(cfg.AppName, cfg.Log.Level, cfg.Log.Format)

	return logger.WithContext(ctx)
}

func logVersion(ctx context.Context) {
	zerolog.Ctx(ctx).Info().
		Str("version", verpkg.GetVersion()).
		Str("build_time", verpkg.GetBuildTime()).
		Msg(appName + " starting")
}
