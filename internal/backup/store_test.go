package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendocinotim/EmbyFixer/internal/arch"
	"github.com/mendocinotim/EmbyFixer/internal/locator"
)

func newBinarySet(t *testing.T) locator.BinarySet {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "Contents", "Resources", "ffmpeg")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range locator.Required() {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("original "+name), 0o755))
	}
	return locator.BinarySet{Dir: dir, Names: locator.Required()}
}

func TestCreateRestore_RoundTrip(t *testing.T) {
	bs := newBinarySet(t)
	store := NewStore(bs)

	require.False(t, store.Exists())
	require.NoError(t, store.Create())
	require.True(t, store.Exists())

	// Clobber the live binaries, then restore.
	for _, path := range bs.Paths() {
		require.NoError(t, os.WriteFile(path, []byte("broken"), 0o644))
	}
	require.NoError(t, store.Restore())

	for i, path := range bs.Paths() {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "original "+bs.Names[i], string(data))

		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, fi.Mode().Perm()&0o100, "restored binary must be executable")
	}
}

func TestCreate_Idempotent(t *testing.T) {
	bs := newBinarySet(t)
	store := NewStore(bs)

	require.NoError(t, store.Create())

	// Mutate the live binary; a second Create must not refresh the backup.
	require.NoError(t, os.WriteFile(filepath.Join(bs.Dir, "ffmpeg"), []byte("mutated"), 0o755))
	require.NoError(t, store.Create())

	data, err := os.ReadFile(filepath.Join(store.Dir(), "ffmpeg"))
	require.NoError(t, err)
	assert.Equal(t, "original ffmpeg", string(data))
}

func TestCreate_FailureLeavesNoPartialBackup(t *testing.T) {
	bs := newBinarySet(t)
	// Remove a required binary so the copy loop fails midway.
	require.NoError(t, os.Remove(filepath.Join(bs.Dir, "ffprobe")))

	store := NewStore(bs)
	require.Error(t, store.Create())
	assert.False(t, store.Exists(), "partial backup must be removed on failure")
}

func TestRestore_NotFound(t *testing.T) {
	store := NewStore(newBinarySet(t))
	err := store.Restore()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRestore_Incomplete(t *testing.T) {
	bs := newBinarySet(t)
	store := NewStore(bs)
	require.NoError(t, store.Create())
	require.NoError(t, os.Remove(filepath.Join(store.Dir(), "ffdetect")))

	// Clobber one live binary so a partial restore would be visible.
	live := filepath.Join(bs.Dir, "ffmpeg")
	require.NoError(t, os.WriteFile(live, []byte("clobbered"), 0o755))

	err := store.Restore()
	require.ErrorIs(t, err, ErrIncomplete)

	data, readErr := os.ReadFile(live)
	require.NoError(t, readErr)
	assert.Equal(t, "clobbered", string(data), "incomplete backup must not be partially restored")
}

func TestRestore_ClearsTestMarkers(t *testing.T) {
	bs := newBinarySet(t)
	store := NewStore(bs)
	require.NoError(t, store.Create())
	require.NoError(t, store.WriteTestMarker(arch.ARM64, time.Now()))
	require.True(t, store.TestMarkerExists())

	require.NoError(t, store.Restore())
	assert.False(t, store.TestMarkerExists())
}

func TestRemove(t *testing.T) {
	store := NewStore(newBinarySet(t))
	require.NoError(t, store.Create())
	require.NoError(t, store.Remove())
	assert.False(t, store.Exists())

	// Removing again is a no-op.
	require.NoError(t, store.Remove())
}

func TestTestMarker_RoundTrip(t *testing.T) {
	bs := newBinarySet(t)
	store := NewStore(bs)

	when := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.WriteTestMarker(arch.X8664, when))
	require.True(t, store.TestMarkerExists())

	data, err := os.ReadFile(filepath.Join(filepath.Dir(bs.Dir), markerFileName))
	require.NoError(t, err)
	assert.Equal(t, "x86_64\n2026-08-29T12:00:00Z\n", string(data))

	inner, err := os.ReadFile(filepath.Join(filepath.Dir(bs.Dir), markerSubdirName, markerInnerName))
	require.NoError(t, err)
	assert.Equal(t, string(data), string(inner))

	require.NoError(t, store.ClearTestMarkers())
	assert.False(t, store.TestMarkerExists())

	// Clearing again is a no-op.
	require.NoError(t, store.ClearTestMarkers())
}
