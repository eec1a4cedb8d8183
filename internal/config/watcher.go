package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk.
// The parent directory is watched so editors that replace the file atomically are seen.
type Watcher struct {
	path     string
	debounce time.Duration
	fs       *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()

		return nil, err
	}

	return &Watcher{path: filepath.Clean(path), debounce: debounce, fs: fsw}, nil
}

// Run delivers freshly loaded configurations to onChange until ctx is done.
// Invalid files are logged and skipped; the previous configuration stays in effect.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	logger := zerolog.Ctx(ctx)

	defer func() { _ = w.fs.Close() }()

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()

			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("config change detected")

			w.schedule(func() {
				cfg, err := Load(w.path)
				if err != nil {
					logger.Warn().Err(err).Str("config", w.path).Msg("config reload failed")

					return
				}

				onChange(cfg)
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}

			logger.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// schedule runs fn once no further change arrived for the debounce delay.
func (w *Watcher) schedule(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, fn)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}
