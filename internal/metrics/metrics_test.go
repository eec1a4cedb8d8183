package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavix/bletrack/internal/metrics"
)

func TestMetrics_GatherStats(t *testing.T) {
	t.Parallel()

	m := metrics.New("test")

	m.IncCycle(metrics.OutcomeOK)
	m.IncCycle(metrics.OutcomeOK)
	m.IncCycle(metrics.OutcomeScannerUnavailable)
	m.AddObservations(7, 3, 1)
	m.IncStoreWrite(metrics.OutcomeSuccess)
	m.IncStoreWrite(metrics.OutcomeError)
	m.ObserveScan(30)
	m.ObserveScan(20)
	m.SetDevices(4, 2, 9)
	m.AddOverflowed(5)

	s, err := m.GatherStats()
	require.NoError(t, err)

	assert.InDelta(t, 3, s.Cycles, 0.001)
	assert.InDelta(t, 1, s.FailedCycles, 0.001)
	assert.InDelta(t, 7, s.Observations, 0.001)
	assert.InDelta(t, 3, s.LedgerChanges, 0.001)
	assert.InDelta(t, 1, s.StoreWriteErrors, 0.001)
	assert.InDelta(t, 25, s.ScanAvgSeconds, 0.001)
	assert.InDelta(t, 4, s.Recent, 0.001)
	assert.InDelta(t, 2, s.Known, 0.001)
	assert.InDelta(t, 9, s.Total, 0.001)
	assert.InDelta(t, 5, s.RecentOverflowed, 0.001)
}

func TestMetrics_EmptyStats(t *testing.T) {
	t.Parallel()

	s, err := metrics.New("").GatherStats()
	require.NoError(t, err)
	assert.Equal(t, metrics.Stats{}, s)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()

	m := metrics.New("test")
	m.IncCycle(metrics.OutcomeOK)
	m.AddEvicted(2)

	path := filepath.Join(t.TempDir(), "bletrack.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ble_scan_cycles_total{outcome="ok",service="test"} 1`)
	assert.Contains(t, string(data), `ble_recent_evictions_total{service="test"} 2`)
}

func TestMetrics_RegisterCollectorsTwice(t *testing.T) {
	t.Parallel()

	m := metrics.New("test")
	m.RegisterCollectors()
	m.RegisterCollectors()

	count, err := testutil.GatherAndCount(m.Registry(), "go_goroutines")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
