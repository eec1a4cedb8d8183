package cmd

import (
	"context"

	"github.com/bavix/bletrack/internal/config"
	"github.com/bavix/bletrack/internal/devices"
	"github.com/bavix/bletrack/internal/lineparser"
	"github.com/bavix/bletrack/internal/metrics"
	"github.com/bavix/bletrack/internal/recency"
	"github.com/bavix/bletrack/internal/report"
	"github.com/bavix/bletrack/internal/scanner"
	"github.com/bavix/bletrack/internal/store"
	"github.com/bavix/bletrack/internal/tracker"
)

type engine struct {
	coord   *tracker.Coordinator
	ledger  *devices.Ledger
	metrics *metrics.Metrics
}

func newLedger(ctx context.Context, cfg *config.Config) (*devices.Ledger, error) {
	ledger := devices.NewLedger(store.NewFile(cfg.Store.Path), cfg.RecountInterval)
	if err := ledger.Load(ctx); err != nil {
		return nil, err
	}

	return ledger, nil
}

func newReporter(cfg *config.Config) report.Reporter {
	reporters := report.Multi{report.NewLogReporter()}
	if cfg.Report.StatusFile != "" {
		reporters = append(reporters, report.NewStatusFile(cfg.Report.StatusFile))
	}

	return reporters
}

// newEngine loads the ledger and wires the coordinator from cfg.
func newEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	ledger, err := newLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New(cfg.AppName)

	coord, err := tracker.New(tracker.Options{
		Scanner:         scanner.NewBettercap(cfg.Scanner.Path, cfg.Scanner.Duration),
		Parser:          lineparser.NewBettercap(),
		Ledger:          ledger,
		Recent:          recency.New(cfg.Recency.Capacity),
		Reporter:        newReporter(cfg),
		Metrics:         m,
		MetricsTextfile: cfg.Metrics.Textfile,
		PollInterval:    cfg.PollInterval,
		Window:          cfg.Recency.Window,
	})
	if err != nil {
		return nil, err
	}

	return &engine{coord: coord, ledger: ledger, metrics: m}, nil
}
