package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Base builds a zerolog.Logger with level/format applied per-call.
// format: json|console; level: debug|info|warn|error
func Base(app, level, format string) zerolog.Logger {
	return New(os.Stdout, app, level, format)
}

// New is Base with an explicit sink.
func New(out io.Writer, app, level, format string) zerolog.Logger {
	lvl := ParseLevel(level)
	w := writerForFormat(out, format)

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(s string) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s))); err == nil && s != "" {
		return lvl
	}

	return zerolog.InfoLevel
}

func writerForFormat(out io.Writer, format string) io.Writer {
	if strings.ToLower(format) == "console" {
		return zerolog.ConsoleWriter{Out: out}
	}

	return out
}
