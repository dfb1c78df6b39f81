package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndCleanup(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	require.NoError(t, err)

	ws, err := mgr.Create("abc123")
	require.NoError(t, err)
	require.DirExists(t, ws.Dir())

	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "index.js"), []byte("x"), 0o644))

	ws.Cleanup()
	assert.NoDirExists(t, ws.Dir())

	// A second call is a no-op, not an error.
	ws.Cleanup()
}

func TestSweepStaleSkipsFreshDirs(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(root)
	require.NoError(t, err)

	stale := filepath.Join(root, "job-old")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh, err := mgr.Create("fresh")
	require.NoError(t, err)

	unrelated := filepath.Join(root, "keepme")
	require.NoError(t, os.MkdirAll(unrelated, 0o755))
	require.NoError(t, os.Chtimes(unrelated, old, old))

	removed, err := mgr.SweepStale(DefaultStaleAge)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh.Dir())
	assert.DirExists(t, unrelated)
}

func TestNewManagerDefaultsRoot(t *testing.T) {
	mgr, err := NewManager("")
	require.NoError(t, err)
	assert.Contains(t, mgr.Root(), "appforge")
}
