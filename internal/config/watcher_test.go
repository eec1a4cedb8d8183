package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavix/bletrack/internal/config"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 45s\n"), 0o600))

	w, err := config.NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)

	go func() { done <- w.Run(ctx, func(cfg *config.Config) { reloaded <- cfg }) }()

	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 2m\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 45s\n"), 0o600))

	w, err := config.NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)

	go func() { _ = w.Run(ctx, func(cfg *config.Config) { reloaded <- cfg }) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 1ms\n"), 0o600))

	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := config.NewWatcher(filepath.Join(t.TempDir(), "nope", "config.yaml"), 0)
	require.Error(t, err)
}
