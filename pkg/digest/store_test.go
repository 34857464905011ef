package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "store"), 0)
	require.NoError(t, err)
	return store
}

func writeFile(t *testing.T, dir, rel, content string, executable bool) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	mode := os.FileMode(0644)
	if executable {
		mode = 0755
	}
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestSnapshotIsDeterministic(t *testing.T) {
	store := newTestStore(t)

	dirA := t.TempDir()
	writeFile(t, dirA, "bin/tool", "#!/bin/sh\necho hi\n", true)
	writeFile(t, dirA, "README.md", "docs\n", false)

	dirB := t.TempDir()
	writeFile(t, dirB, "README.md", "docs\n", false)
	writeFile(t, dirB, "bin/tool", "#!/bin/sh\necho hi\n", true)

	digestA, err := store.Snapshot(dirA)
	require.NoError(t, err)
	digestB, err := store.Snapshot(dirB)
	require.NoError(t, err)

	assert.Equal(t, digestA, digestB)
}

func TestSnapshotMaterializeRoundTrip(t *testing.T) {
	store := newTestStore(t)

	src := t.TempDir()
	writeFile(t, src, "linux-amd64/tool", "binary-bytes", true)
	writeFile(t, src, "LICENSE", "license text", false)

	d, err := store.Snapshot(src)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, store.Materialize(d, dest))

	data, err := os.ReadFile(filepath.Join(dest, "linux-amd64", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", string(data))

	info, err := os.Stat(filepath.Join(dest, "linux-amd64", "tool"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "exec bit should survive the round trip")

	info, err = os.Stat(filepath.Join(dest, "LICENSE"))
	require.NoError(t, err)
	assert.Zero(t, info.Mode()&0111)
}

func TestStat(t *testing.T) {
	store := newTestStore(t)

	src := t.TempDir()
	writeFile(t, src, "tool", "bytes", true)

	d, err := store.Snapshot(src)
	require.NoError(t, err)

	entry, err := store.Stat(d, "tool")
	require.NoError(t, err)
	assert.Equal(t, int64(5), entry.Size)
	assert.True(t, entry.Executable)

	_, err = store.Stat(d, "missing")
	assert.Error(t, err)
}

func TestManifestSurvivesReopen(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	store, err := NewStore(root, 0)
	require.NoError(t, err)

	src := t.TempDir()
	writeFile(t, src, "tool", "bytes", true)
	d, err := store.Snapshot(src)
	require.NoError(t, err)

	reopened, err := NewStore(root, 0)
	require.NoError(t, err)
	assert.True(t, reopened.Has(d))

	m, err := reopened.Manifest(d)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "tool", m.Entries[0].Path)
}

func TestHasUnknownDigest(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Has(Digest("deadbeef")))
}
