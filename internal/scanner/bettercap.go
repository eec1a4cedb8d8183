package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	customerrors "github.com/bavix/bletrack/internal/errors"
)

const (
	DefaultPath     = "/usr/local/bin/bettercap"
	DefaultDuration = 30 * time.Second

	// maxErrorOutput bounds how much captured output is attached to an execution error.
	maxErrorOutput = 512

	// waitDelay bounds how long Scan waits for output pipes after the process is killed.
	waitDelay = 2 * time.Second
)

// Bettercap runs a fixed-length BLE recon session and captures its output.
type Bettercap struct {
	path     string
	duration time.Duration
}

// NewBettercap creates a runner for the bettercap binary at path.
func NewBettercap(path string, duration time.Duration) *Bettercap {
	if path == "" {
		path = DefaultPath
	}

	if duration <= 0 {
		duration = DefaultDuration
	}

	return &Bettercap{path: path, duration: duration}
}

// Path returns the configured binary path.
func (b *Bettercap) Path() string {
	return b.path
}

// Duration returns the length of one recon session.
func (b *Bettercap) Duration() time.Duration {
	return b.duration
}

// Available checks that the binary exists and is executable.
func (b *Bettercap) Available() error {
	if !strings.ContainsRune(b.path, os.PathSeparator) {
		if _, err := exec.LookPath(b.path); err != nil {
			return customerrors.ErrScannerUnavailableAt(b.path)
		}

		return nil
	}

	info, err := os.Stat(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return customerrors.ErrScannerUnavailableAt(b.path)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", customerrors.ErrScannerUnavailable, err)
	}

	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return customerrors.ErrScannerUnavailableAt(b.path)
	}

	return nil
}

// Script returns the bettercap -eval script for one session.
func (b *Bettercap) Script() string {
	secs := int(b.duration.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}

	return "ble.recon on; events.ignore ble.device.lost; sleep " + strconv.Itoa(secs) + "; ble.recon off; exit"
}

// Scan blocks for the session duration and returns stdout and stderr combined.
// Canceling ctx kills the bettercap process.
func (b *Bettercap) Scan(ctx context.Context) (string, error) {
	if err := b.Available(); err != nil {
		return "", err
	}

	log := zerolog.Ctx(ctx)
	log.Debug().Str("path", b.path).Dur("duration", b.duration).Msg("starting bettercap")

	cmd := exec.CommandContext(ctx, b.path, "-no-colors", "-eval", b.Script()) // #nosec G204
	cmd.WaitDelay = waitDelay

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", customerrors.ErrScannerExecutionFailed, ctxErr)
		}

		return "", fmt.Errorf("%w: %w: %s", customerrors.ErrScannerExecutionFailed, err, tail(out))
	}

	log.Debug().Int("bytes", len(out)).Msg("bettercap finished")

	return string(out), nil
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxErrorOutput {
		s = "..." + s[len(s)-maxErrorOutput:]
	}

	return s
}
