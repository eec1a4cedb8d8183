package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Cycle outcomes.
const (
	OutcomeOK                 = "ok"
	OutcomeScannerUnavailable = "scanner_unavailable"
	OutcomeScannerFailed      = "scanner_failed"
	OutcomeCanceled           = "canceled"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

const defaultService = "bletrack"

// Metrics holds the tracker collectors on a private registry.
type Metrics struct {
	registry *prom.Registry

	cycles        *prom.CounterVec
	storeWrites   *prom.CounterVec
	observations  prom.Counter
	ledgerChanges prom.Counter
	newlyNamed    prom.Counter
	evicted       prom.Counter
	overflowed    prom.Counter
	recent        prom.Gauge
	known         prom.Gauge
	total         prom.Gauge
	scanDuration  prom.Histogram
}

// New creates and registers the tracker collectors, labeled with service.
func New(service string) *Metrics {
	if service == "" {
		service = defaultService
	}

	labels := prom.Labels{"service": service}
	reg := prom.NewRegistry()

	m := &Metrics{
		registry: reg,
		cycles: prom.NewCounterVec(prom.CounterOpts{
			Name:        "ble_scan_cycles_total",
			Help:        "Scan cycles by outcome (Counter). outcome=ok|scanner_unavailable|scanner_failed|canceled.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		storeWrites: prom.NewCounterVec(prom.CounterOpts{
			Name:        "ble_store_writes_total",
			Help:        "Device store writes by outcome (Counter). outcome=success|error.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		observations: prom.NewCounter(prom.CounterOpts{
			Name:        "ble_observations_total",
			Help:        "Device observations parsed from scanner output (Counter).",
			ConstLabels: labels,
		}),
		ledgerChanges: prom.NewCounter(prom.CounterOpts{
			Name:        "ble_ledger_changes_total",
			Help:        "Observations that changed the device ledger (Counter).",
			ConstLabels: labels,
		}),
		newlyNamed: prom.NewCounter(prom.CounterOpts{
			Name:        "ble_devices_named_total",
			Help:        "Devices seen with a name for the first time (Counter).",
			ConstLabels: labels,
		}),
		evicted: prom.NewCounter(prom.CounterOpts{
			Name:        "ble_recent_evictions_total",
			Help:        "Devices dropped from the recency window (Counter).",
			ConstLabels: labels,
		}),
		overflowed: prom.NewCounter(prom.CounterOpts{
			Name:        "ble_recent_overflow_total",
			Help:        "Devices dropped from the recency tracker because it was full (Counter).",
			ConstLabels: labels,
		}),
		recent: prom.NewGauge(prom.GaugeOpts{
			Name:        "ble_devices_recent",
			Help:        "Devices seen within the recency window (Gauge).",
			ConstLabels: labels,
		}),
		known: prom.NewGauge(prom.GaugeOpts{
			Name:        "ble_devices_known",
			Help:        "Devices with a known name and manufacturer (Gauge).",
			ConstLabels: labels,
		}),
		total: prom.NewGauge(prom.GaugeOpts{
			Name:        "ble_devices_total",
			Help:        "Devices in the ledger (Gauge).",
			ConstLabels: labels,
		}),
		scanDuration: prom.NewHistogram(prom.HistogramOpts{
			Name:        "ble_scan_duration_seconds",
			Help:        "Wall time of scanner sessions in seconds (Histogram).",
			Buckets:     []float64{1, 5, 10, 20, 30, 45, 60, 120},
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		m.cycles, m.storeWrites, m.observations, m.ledgerChanges, m.newlyNamed,
		m.evicted, m.overflowed, m.recent, m.known, m.total, m.scanDuration,
	)

	return m
}

// RegisterCollectors adds the Go runtime and process collectors.
// Should be called once by long-running commands.
func (m *Metrics) RegisterCollectors() {
	m.register(collectors.NewGoCollector())
	m.register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func (m *Metrics) register(c prom.Collector) {
	if err := m.registry.Register(c); err != nil {
		var are prom.AlreadyRegisteredError
		if errors.As(err, &are) {
			return
		}
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}

// IncCycle counts a finished or aborted cycle.
func (m *Metrics) IncCycle(outcome string) {
	m.cycles.WithLabelValues(outcome).Inc()
}

// ObserveScan records how long the scanner ran.
func (m *Metrics) ObserveScan(seconds float64) {
	m.scanDuration.Observe(seconds)
}

// AddObservations counts parsed observations, those that changed the ledger,
// and first-time named devices.
func (m *Metrics) AddObservations(parsed, changed, named int) {
	m.observations.Add(float64(parsed))
	m.ledgerChanges.Add(float64(changed))
	m.newlyNamed.Add(float64(named))
}

// AddEvicted counts devices dropped from the recency window.
func (m *Metrics) AddEvicted(n int) {
	m.evicted.Add(float64(n))
}

// AddOverflowed counts devices dropped by the recency capacity bound.
func (m *Metrics) AddOverflowed(n int) {
	m.overflowed.Add(float64(n))
}

// IncStoreWrite counts a store write attempt.
func (m *Metrics) IncStoreWrite(outcome string) {
	m.storeWrites.WithLabelValues(outcome).Inc()
}

// SetDevices updates the device gauges.
func (m *Metrics) SetDevices(recent, known, total int) {
	m.recent.Set(float64(recent))
	m.known.Set(float64(known))
	m.total.Set(float64(total))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, m.registry)
}

// Stats is a lifetime snapshot read back from the registry.
type Stats struct {
	Cycles           float64 `json:"cycles"`
	FailedCycles     float64 `json:"failed_cycles"`
	Observations     float64 `json:"observations"`
	LedgerChanges    float64 `json:"ledger_changes"`
	StoreWriteErrors float64 `json:"store_write_errors"`
	ScanAvgSeconds   float64 `json:"scan_avg_seconds"`
	RecentOverflowed float64 `json:"recent_overflowed"`
	Recent           float64 `json:"recent"`
	Known            float64 `json:"known"`
	Total            float64 `json:"total"`
}

// GatherStats collects a Stats snapshot from the registry.
//
//nolint:cyclop
func (m *Metrics) GatherStats() (Stats, error) {
	mfs, err := m.registry.Gather()
	if err != nil {
		return Stats{}, err
	}

	var s Stats

	for _, mf := range mfs {
		switch mf.GetName() {
		case "ble_scan_cycles_total":
			for _, metric := range mf.GetMetric() {
				v := metric.GetCounter().GetValue()
				s.Cycles += v

				if labelValue(metric, "outcome") != OutcomeOK {
					s.FailedCycles += v
				}
			}
		case "ble_store_writes_total":
			for _, metric := range mf.GetMetric() {
				if labelValue(metric, "outcome") == OutcomeError {
					s.StoreWriteErrors += metric.GetCounter().GetValue()
				}
			}
		case "ble_observations_total":
			s.Observations = firstCounter(mf)
		case "ble_recent_overflow_total":
			s.RecentOverflowed = firstCounter(mf)
		case "ble_ledger_changes_total":
			s.LedgerChanges = firstCounter(mf)
		case "ble_scan_duration_seconds":
			if ms := mf.GetMetric(); len(ms) > 0 {
				h := ms[0].GetHistogram()
				if h.GetSampleCount() > 0 {
					s.ScanAvgSeconds = h.GetSampleSum() / float64(h.GetSampleCount())
				}
			}
		case "ble_devices_recent":
			s.Recent = firstGauge(mf)
		case "ble_devices_known":
			s.Known = firstGauge(mf)
		case "ble_devices_total":
			s.Total = firstGauge(mf)
		}
	}

	return s, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}

	return ""
}

func firstCounter(mf *dto.MetricFamily) float64 {
	if ms := mf.GetMetric(); len(ms) > 0 {
		return ms[0].GetCounter().GetValue()
	}

	return 0
}

func firstGauge(mf *dto.MetricFamily) float64 {
	if ms := mf.GetMetric(); len(ms) > 0 {
		return ms[0].GetGauge().GetValue()
	}

	return 0
}
