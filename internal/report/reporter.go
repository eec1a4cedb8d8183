package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bavix/bletrack/internal/fsutil"
	"github.com/bavix/bletrack/internal/version"
)

const statusFilePerm = 0o644

// Reporter receives cycle notices and summaries.
type Reporter interface {
	// Notify shows a transient status message, e.g. while scanning.
	Notify(ctx context.Context, msg string) error

	// Report publishes the summary of a finished cycle.
	Report(ctx context.Context, s Summary) error
}

// LogReporter writes summaries to the context logger.
type LogReporter struct{}

// NewLogReporter creates a reporter backed by zerolog.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

// Notify implements Reporter.
func (LogReporter) Notify(ctx context.Context, msg string) error {
	zerolog.Ctx(ctx).Info().Str("status", msg).Msg("scan notice")

	return nil
}

// Report implements Reporter.
func (LogReporter) Report(ctx context.Context, s Summary) error {
	log := zerolog.Ctx(ctx)

	for _, name := range s.NewlyNamed {
		log.Info().Str("name", name).Msg(HelloMessage(name))
	}

	ev := log.Info().
		Str("status", s.StatusLine()).
		Int("observations", s.Observations).
		Int("recent", s.Recent).
		Int("known", s.Known).
		Int("total", s.Total).
		Bool("persisted", s.Persisted).
		Dur("duration", s.Duration)

	if s.LastDevice != nil {
		ev = ev.Str("last_device", LastDeviceMessage(*s.LastDevice))
	}

	ev.Msg(RecentMessage(s.Recent))

	return nil
}

// Status is the JSON document written by StatusFile.
type Status struct {
	Agent      string    `json:"agent"`
	Status     string    `json:"status"`
	Notice     string    `json:"notice,omitempty"`
	Messages   []string  `json:"messages"`
	Recent     int       `json:"recent"`
	Known      int       `json:"known"`
	Total      int       `json:"total"`
	LastDevice string    `json:"last_device,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusFile keeps the latest status in a JSON file for an external display.
type StatusFile struct {
	path string
	now  func() time.Time
	last Status
}

// NewStatusFile creates a status file reporter writing to path.
func NewStatusFile(path string) *StatusFile {
	return &StatusFile{path: path, now: time.Now}
}

// Notify implements Reporter. The previous summary stays in place.
func (f *StatusFile) Notify(_ context.Context, msg string) error {
	f.last.Notice = msg
	f.last.UpdatedAt = f.now()

	return f.write()
}

// Report implements Reporter.
func (f *StatusFile) Report(_ context.Context, s Summary) error {
	f.last = Status{
		Status:    s.StatusLine(),
		Messages:  s.Messages(),
		Recent:    s.Recent,
		Known:     s.Known,
		Total:     s.Total,
		UpdatedAt: f.now(),
	}

	if s.LastDevice != nil {
		f.last.LastDevice = LastDeviceMessage(*s.LastDevice)
	}

	return f.write()
}

func (f *StatusFile) write() error {
	f.last.Agent = version.UserAgent()

	data, err := json.Marshal(f.last)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	return fsutil.WriteFileAtomic(f.path, data, statusFilePerm)
}

// Multi fans out to several reporters, collecting every error.
type Multi []Reporter

// Notify implements Reporter.
func (m Multi) Notify(ctx context.Context, msg string) error {
	var errs []error

	for _, r := range m {
		if err := r.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, s Summary) error {
	var errs []error

	for _, r := range m {
		if err := r.Report(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
