package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bavix/bletrack/internal/config"
	"github.com/bavix/bletrack/internal/report"
)

const (
	tickInterval    = time.Second
	shutdownTimeout = 10 * time.Second
)

var noWatch bool //nolint:gochecknoglobals // cobra command flag

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan for BLE devices on every poll interval until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			log := zerolog.Ctx(ctx)

			logVersion(ctx)

			eng, err := newEngine(ctx, cfg)
			if err != nil {
				return err
			}

			if cfg.Metrics.Textfile != "" {
				eng.metrics.RegisterCollectors()
			}

			log.Info().
				Str("config", cfg.Path).
				Str("store", cfg.Store.Path).
				Int("devices", eng.ledger.Len()).
				Dur("poll_interval", cfg.PollInterval).
				Dur("scan_duration", cfg.Scanner.Duration).
				Msg("starting")

			watchPath := cfg.Path
			if noWatch {
				watchPath = ""
			}

			runErr := serve(ctx, eng.coord, watchPath, tickInterval)

			if stats, err := eng.metrics.GatherStats(); err == nil {
				log.Info().
					Float64("cycles", stats.Cycles).
					Float64("failed_cycles", stats.FailedCycles).
					Float64("observations", stats.Observations).
					Float64("devices", stats.Total).
					Msg("stopped")
			}

			return runErr
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file when it changes")

	return cmd
}

// cycleRunner is the part of tracker.Coordinator the run loop drives.
type cycleRunner interface {
	Tick(ctx context.Context) (report.Summary, bool, error)
	SetPollInterval(d time.Duration)
	Close(ctx context.Context) error
}

// serve ticks runner every interval until ctx is done, applying reloads of the config
// at watchPath when it is set, then flushes the ledger with a fresh deadline.
func serve(ctx context.Context, runner cycleRunner, watchPath string, interval time.Duration) error {
	reloads := make(chan *config.Config, 1)
	g, gctx := errgroup.WithContext(ctx)

	if watchPath != "" {
		startWatcher(gctx, g, watchPath, reloads)
	}

	g.Go(func() error {
		return tickLoop(gctx, runner, reloads, interval)
	})

	runErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := runner.Close(closeCtx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to flush device ledger")

		return errors.Join(runErr, fmt.Errorf("flush device ledger: %w", err))
	}

	return runErr
}

// startWatcher delivers config reloads to the tick loop. A watcher that cannot start
// is not fatal; the process keeps running with the config it has.
func startWatcher(ctx context.Context, g *errgroup.Group, path string, reloads chan *config.Config) {
	log := zerolog.Ctx(ctx)

	w, err := config.NewWatcher(path, 0)
	if err != nil {
		log.Warn().Err(err).Str("config", path).Msg("config watcher disabled")

		return
	}

	g.Go(func() error {
		return w.Run(ctx, func(cfg *config.Config) {
			// keep only the newest pending config
			select {
			case <-reloads:
			default:
			}

			select {
			case reloads <- cfg:
			default:
			}
		})
	})
}

// tickLoop is the only goroutine touching the coordinator.
func tickLoop(ctx context.Context, runner cycleRunner, reloads <-chan *config.Config, interval time.Duration) error {
	loopCtx := ctx

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, _, err := runner.Tick(loopCtx); err != nil && ctx.Err() == nil {
			zerolog.Ctx(loopCtx).Debug().Err(err).Msg("scan cycle aborted")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}

			return ctx.Err()
		case cfg := <-reloads:
			loopCtx = withLogger(ctx, cfg)
			runner.SetPollInterval(cfg.PollInterval)

			zerolog.Ctx(loopCtx).Info().
				Dur("poll_interval", cfg.PollInterval).
				Str("log_level", cfg.Log.Level).
				Msg("config reloaded")
		case <-ticker.C:
		}
	}
}
