package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/bavix/bletrack/internal/devices"
	customerrors "github.com/bavix/bletrack/internal/errors"
	"github.com/bavix/bletrack/internal/lineparser"
	"github.com/bavix/bletrack/internal/metrics"
	"github.com/bavix/bletrack/internal/recency"
	"github.com/bavix/bletrack/internal/report"
)

// DefaultPollInterval is the minimum time between two cycle starts.
const DefaultPollInterval = 45 * time.Second

// ScanFailedMessage is shown when a scan session could not run.
const ScanFailedMessage = "BLE scan failed"

const failureLogInterval = 10 * time.Minute

// Scanner runs one capture session and returns its raw text output.
type Scanner interface {
	Scan(ctx context.Context) (string, error)
	Duration() time.Duration
}

// Options wires a Coordinator. Scanner and Ledger are required.
type Options struct {
	Scanner  Scanner
	Parser   lineparser.Parser
	Ledger   *devices.Ledger
	Recent   *recency.Tracker
	Reporter report.Reporter
	Metrics  *metrics.Metrics

	// MetricsTextfile, when set, is rewritten after every cycle.
	MetricsTextfile string

	Now          func() time.Time
	PollInterval time.Duration
	Window       time.Duration
}

// Coordinator drives scan cycles: capture, parse, reconcile, report.
// It is not safe for concurrent use; one goroutine owns it.
type Coordinator struct {
	scanner  Scanner
	parser   lineparser.Parser
	ledger   *devices.Ledger
	recent   *recency.Tracker
	reporter report.Reporter
	metrics  *metrics.Metrics
	textfile string

	now          func() time.Time
	pollInterval time.Duration
	window       time.Duration

	state      State
	lastStart  time.Time
	started    bool
	lastDevice *devices.Observation

	failureLog rate.Sometimes
}

// New validates opts and fills in defaults for the optional collaborators.
func New(opts Options) (*Coordinator, error) {
	if opts.Scanner == nil {
		return nil, customerrors.ErrScannerNotSet
	}

	if opts.Ledger == nil {
		return nil, customerrors.ErrLedgerNotSet
	}

	c := &Coordinator{
		scanner:      opts.Scanner,
		parser:       opts.Parser,
		ledger:       opts.Ledger,
		recent:       opts.Recent,
		reporter:     opts.Reporter,
		metrics:      opts.Metrics,
		textfile:     opts.MetricsTextfile,
		now:          opts.Now,
		pollInterval: opts.PollInterval,
		window:       opts.Window,
		state:        StateIdle,
		failureLog:   rate.Sometimes{First: 3, Interval: failureLogInterval},
	}

	if c.parser == nil {
		c.parser = lineparser.NewBettercap()
	}

	if c.recent == nil {
		c.recent = recency.New(recency.DefaultCapacity)
	}

	if c.reporter == nil {
		c.reporter = report.NewLogReporter()
	}

	if c.now == nil {
		c.now = time.Now
	}

	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}

	if c.window <= 0 {
		c.window = recency.DefaultWindow
	}

	return c, nil
}

// State returns the current cycle state.
func (c *Coordinator) State() State {
	return c.state
}

// PollInterval returns the minimum time between cycle starts.
func (c *Coordinator) PollInterval() time.Duration {
	return c.pollInterval
}

// SetPollInterval changes the poll interval; non-positive values are ignored.
func (c *Coordinator) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// LastDiscovered returns the most recently parsed observation, if any.
func (c *Coordinator) LastDiscovered() (devices.Observation, bool) {
	if c.lastDevice == nil {
		return devices.Observation{}, false
	}

	return *c.lastDevice, true
}

// Due reports whether enough time passed since the last cycle start.
func (c *Coordinator) Due() bool {
	return !c.started || c.now().Sub(c.lastStart) >= c.pollInterval
}

// Tick runs a cycle when one is due. The bool reports whether a cycle ran.
func (c *Coordinator) Tick(ctx context.Context) (report.Summary, bool, error) {
	if !c.Due() {
		return report.Summary{}, false, nil
	}

	s, err := c.RunCycle(ctx)

	return s, true, err
}

// RunCycle performs one full scan cycle regardless of the poll interval.
// A scanner failure aborts the cycle before anything is mutated.
func (c *Coordinator) RunCycle(ctx context.Context) (report.Summary, error) {
	log := zerolog.Ctx(ctx)

	start := c.now()
	c.lastStart = start
	c.started = true

	defer c.transition(ctx, StateIdle)

	c.transition(ctx, StateScanning)
	c.notify(ctx, report.ScanningMessage(c.scanner.Duration()))

	output, err := c.scanner.Scan(ctx)

	capturedAt := c.now()
	if c.metrics != nil {
		c.metrics.ObserveScan(capturedAt.Sub(start).Seconds())
	}

	if err != nil {
		c.scanFailed(ctx, err)

		return report.Summary{}, err
	}

	c.transition(ctx, StateParsing)

	observations := lineparser.ParseOutput(c.parser, output, capturedAt)

	c.transition(ctx, StateReconciling)

	overflowBefore := c.recent.Overflowed()

	var (
		changed    int
		newlyNamed []string
	)

	for i := range observations {
		obs := observations[i]

		ok, name := c.ledger.Reconcile(obs)
		if ok {
			changed++
		}

		if name != "" {
			newlyNamed = append(newlyNamed, name)
		}

		c.recent.Mark(obs.ID, obs.ObservedAt)
		c.lastDevice = &obs
	}

	evicted := c.recent.Evict(capturedAt, c.window)

	overflowed := c.recent.Overflowed() - overflowBefore
	if overflowed > 0 {
		log.Warn().
			Int("dropped", overflowed).
			Int("tracked", c.recent.Count()).
			Msg("recency tracker full, in-window devices dropped")
	}

	log.Debug().
		Int("observations", len(observations)).
		Int("changed", changed).
		Int("evicted", evicted).
		Msg("scan output reconciled")

	c.transition(ctx, StateReporting)

	persisted := false

	if changed > 0 {
		persisted = c.persist(ctx)
	}

	ledger := c.ledger.Summary()

	summary := report.Summary{
		StartedAt:    start,
		Duration:     c.now().Sub(start),
		Window:       c.window,
		Observations: len(observations),
		Recent:       c.recent.Count(),
		Evicted:      evicted,
		Total:        ledger.Total,
		Known:        ledger.Known(),
		Changed:      changed > 0,
		Persisted:    persisted,
		NewlyNamed:   newlyNamed,
	}

	if c.lastDevice != nil {
		last := *c.lastDevice
		summary.LastDevice = &last
	}

	if c.metrics != nil {
		c.metrics.IncCycle(metrics.OutcomeOK)
		c.metrics.AddObservations(len(observations), changed, len(newlyNamed))
		c.metrics.AddEvicted(evicted)
		c.metrics.AddOverflowed(overflowed)
		c.metrics.SetDevices(summary.Recent, summary.Known, summary.Total)
	}

	c.flushMetrics(ctx)

	if err := c.reporter.Report(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("failed to report scan summary")
	}

	return summary, nil
}

// Close flushes a ledger that still holds unsaved changes.
func (c *Coordinator) Close(ctx context.Context) error {
	persisted, err := c.ledger.PersistIfDirty(ctx)
	if err != nil {
		return err
	}

	if persisted {
		zerolog.Ctx(ctx).Info().Msg("device ledger flushed on shutdown")
	}

	return nil
}

func (c *Coordinator) transition(ctx context.Context, next State) {
	if c.state == next {
		return
	}

	zerolog.Ctx(ctx).Debug().Stringer("from", c.state).Stringer("to", next).Msg("state transition")

	c.state = next
}

// persist writes the ledger; a failed write is logged and retried on the next dirty cycle.
func (c *Coordinator) persist(ctx context.Context) bool {
	persisted, err := c.ledger.PersistIfDirty(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to save bluetooth devices")
		c.incStoreWrite(metrics.OutcomeError)

		return false
	}

	if persisted {
		c.incStoreWrite(metrics.OutcomeSuccess)
		c.notify(ctx, report.StoredMessage())
	}

	return persisted
}

func (c *Coordinator) scanFailed(ctx context.Context, err error) {
	outcome := metrics.OutcomeScannerFailed

	switch {
	case ctx.Err() != nil:
		outcome = metrics.OutcomeCanceled
	case errors.Is(err, customerrors.ErrScannerUnavailable):
		outcome = metrics.OutcomeScannerUnavailable
	}

	if outcome != metrics.OutcomeCanceled {
		c.failureLog.Do(func() {
			zerolog.Ctx(ctx).Error().Err(err).Str("outcome", outcome).Msg("ble scan failed")
		})

		c.notify(ctx, ScanFailedMessage)
	}

	if c.metrics != nil {
		c.metrics.IncCycle(outcome)
	}

	c.flushMetrics(ctx)
}

func (c *Coordinator) notify(ctx context.Context, msg string) {
	if err := c.reporter.Notify(ctx, msg); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("msg", msg).Msg("failed to publish notice")
	}
}

func (c *Coordinator) incStoreWrite(outcome string) {
	if c.metrics != nil {
		c.metrics.IncStoreWrite(outcome)
	}
}

func (c *Coordinator) flushMetrics(ctx context.Context) {
	if c.metrics == nil || c.textfile == "" {
		return
	}

	if err := c.metrics.WriteTextfile(c.textfile); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", c.textfile).Msg("failed to write metrics textfile")
	}
}
