package report

import (
	"strconv"
	"time"

	"github.com/bavix/bletrack/internal/devices"
)

// LastDeviceMaxLen is how many characters of the last-device label are shown.
const LastDeviceMaxLen = 25

// Summary is the outcome of one scan cycle.
type Summary struct {
	StartedAt    time.Time            `json:"started_at"`
	Duration     time.Duration        `json:"duration"`
	Window       time.Duration        `json:"window"`
	Observations int                  `json:"observations"`
	Recent       int                  `json:"recent"`
	Evicted      int                  `json:"evicted"`
	Total        int                  `json:"total"`
	Known        int                  `json:"known"`
	Changed      bool                 `json:"changed"`
	Persisted    bool                 `json:"persisted"`
	NewlyNamed   []string             `json:"newly_named,omitempty"`
	LastDevice   *devices.Observation `json:"last_device,omitempty"`
}

// Messages returns the human-readable lines for this cycle, in display order.
func (s Summary) Messages() []string {
	msgs := make([]string, 0, 2+len(s.NewlyNamed))

	if s.Persisted {
		msgs = append(msgs, StoredMessage())
	}

	msgs = append(msgs, RecentMessage(s.Recent))

	for _, name := range s.NewlyNamed {
		msgs = append(msgs, HelloMessage(name))
	}

	if s.LastDevice != nil {
		msgs = append(msgs, LastDeviceMessage(*s.LastDevice))
	}

	return msgs
}

// StatusLine is the compact "5m:<recent> N:<known>" indicator.
func (s Summary) StatusLine() string {
	return StatusLine(s.Window, s.Recent, s.Known)
}

// StatusLine formats the compact recent/known indicator.
func StatusLine(window time.Duration, recent, known int) string {
	return FormatWindow(window) + ":" + strconv.Itoa(recent) + " N:" + strconv.Itoa(known)
}

// RecentMessage reports how many devices are currently nearby.
func RecentMessage(recent int) string {
	return "I see " + strconv.Itoa(recent) + " BLE devices!"
}

// HelloMessage greets a device seen with a name for the first time.
func HelloMessage(name string) string {
	return "Hi BLE device " + name + "!"
}

// StoredMessage is shown when the ledger was written.
func StoredMessage() string {
	return "BLE sniffed and stored!"
}

// ScanningMessage is shown while a scan session is running.
func ScanningMessage(d time.Duration) string {
	return "BLE Scanning (" + strconv.Itoa(int(d.Round(time.Second)/time.Second)) + "s)..."
}

// LastDeviceMessage renders "name (manufacturer)" truncated for display.
func LastDeviceMessage(obs devices.Observation) string {
	return Truncate(obs.Label(), LastDeviceMaxLen)
}

// Truncate cuts s to n characters and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n]) + "..."
}

// FormatWindow renders a window as a short label such as "5m" or "90s".
func FormatWindow(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d%time.Hour == 0:
		return strconv.Itoa(int(d/time.Hour)) + "h"
	case d%time.Minute == 0:
		return strconv.Itoa(int(d/time.Minute)) + "m"
	default:
		return strconv.Itoa(int(d.Round(time.Second)/time.Second)) + "s"
	}
}
