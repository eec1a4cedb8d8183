package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bavix/bletrack/internal/devices"
	"github.com/bavix/bletrack/internal/report"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "short", input: "Watch (Acme)", expected: "Watch (Acme)"},
		{name: "exactly 25", input: "abcdefghijklmnopqrstuvwxy", expected: "abcdefghijklmnopqrstuvwxy"},
		{name: "26 characters", input: "abcdefghijklmnopqrstuvwxyz", expected: "abcdefghijklmnopqrstuvwxy..."},
		{name: "multibyte", input: "Écouteurs sans fil d'André (Acme)", expected: "Écouteurs sans fil d'Andr..."},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, report.Truncate(tt.input, report.LastDeviceMaxLen))
		})
	}
}

func TestLastDeviceMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Pixel Buds (Google)", report.LastDeviceMessage(devices.Observation{
		Name: "Pixel Buds", Manufacturer: "Google",
	}))
	assert.Equal(t, "Unknown (Samsung Electron...", report.LastDeviceMessage(devices.Observation{
		Name: devices.Unknown, Manufacturer: "Samsung Electronics Co. Ltd.",
	}))
}

func TestFormatWindow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5m", report.FormatWindow(5*time.Minute))
	assert.Equal(t, "90s", report.FormatWindow(90*time.Second))
	assert.Equal(t, "1h", report.FormatWindow(time.Hour))
	assert.Equal(t, "0s", report.FormatWindow(0))
}

func TestSummary_Messages(t *testing.T) {
	t.Parallel()

	last := devices.Observation{ID: "11:22", Name: "Watch", Manufacturer: "Acme"}
	s := report.Summary{
		Window:     5 * time.Minute,
		Recent:     4,
		Known:      2,
		Persisted:  true,
		NewlyNamed: []string{"Watch"},
		LastDevice: &last,
	}

	assert.Equal(t, []string{
		"BLE sniffed and stored!",
		"I see 4 BLE devices!",
		"Hi BLE device Watch!",
		"Watch (Acme)",
	}, s.Messages())
	assert.Equal(t, "5m:4 N:2", s.StatusLine())
}

func TestSummary_MessagesQuietCycle(t *testing.T) {
	t.Parallel()

	s := report.Summary{Window: 5 * time.Minute}

	assert.Equal(t, []string{"I see 0 BLE devices!"}, s.Messages())
	assert.Equal(t, "5m:0 N:0", s.StatusLine())
}

func TestScanningMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BLE Scanning (30s)...", report.ScanningMessage(30*time.Second))
}
