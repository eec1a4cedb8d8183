package lineparser

import (
	"regexp"
	"strings"
	"time"

	"github.com/bavix/bletrack/internal/devices"
)

// Bettercap event markers.
const (
	NewDeviceMarker  = "new BLE device"
	DetectedAsMarker = "detected as"
)

var manufacturerPattern = regexp.MustCompile(`\((.*?)\)`)

// Parser turns one line of scanner output into an observation.
// Lines that do not describe a new device yield false.
type Parser interface {
	Parse(line string, at time.Time) (devices.Observation, bool)
}

// Bettercap parses "ble.device.new" events as printed by bettercap with -no-colors.
//
// Example:
//
//	[12:01:33] [ble.device.new] new BLE device Pixel Buds detected as 4C:57:CA:11:22:33 (Google) -62 dBm.
type Bettercap struct{}

// NewBettercap creates the default bettercap line parser.
func NewBettercap() *Bettercap {
	return &Bettercap{}
}

// Parse implements Parser.
func (Bettercap) Parse(line string, at time.Time) (devices.Observation, bool) {
	return ParseLine(line, at)
}

// ParseLine extracts a device observation from a bettercap output line.
// The format is matched by marker substrings only; surrounding text is ignored.
func ParseLine(line string, at time.Time) (devices.Observation, bool) {
	_, afterNew, found := strings.Cut(line, NewDeviceMarker)
	if !found {
		return devices.Observation{}, false
	}

	namePart, afterDetected, found := strings.Cut(afterNew, DetectedAsMarker)
	if !found {
		return devices.Observation{}, false
	}

	fields := strings.Fields(afterDetected)
	if len(fields) == 0 {
		return devices.Observation{}, false
	}

	name := strings.TrimSpace(namePart)
	if name == "" {
		name = devices.Unknown
	}

	return devices.Observation{
		ID:           fields[0],
		Name:         name,
		Manufacturer: manufacturer(line),
		ObservedAt:   at,
	}, true
}

// ParseOutput parses every line of a capture, skipping noise.
func ParseOutput(p Parser, output string, at time.Time) []devices.Observation {
	var out []devices.Observation

	for line := range strings.Lines(output) {
		if obs, ok := p.Parse(strings.TrimRight(line, "\r\n"), at); ok {
			out = append(out, obs)
		}
	}

	return out
}

func manufacturer(line string) string {
	m := manufacturerPattern.FindStringSubmatch(line)
	if m == nil || m[1] == "" {
		return devices.Unknown
	}

	return m[1]
}
