package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bavix/bletrack/internal/fsutil"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")

	require.NoError(t, fsutil.WriteFileAtomic(path, []byte(`{"a":1}`), 0o640))
	require.NoError(t, fsutil.WriteFileAtomic(path, []byte(`{"a":2}`), 0o640))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	t.Parallel()

	err := fsutil.WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.json"), []byte("{}"), 0o600)
	require.Error(t, err)
}
