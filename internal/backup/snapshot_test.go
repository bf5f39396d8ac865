package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstallation(t *testing.T) string {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "EmbyServer.app")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Contents", "Resources", "ffmpeg"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "Contents", "Resources", "ffmpeg", "ffmpeg"),
		[]byte("binary"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.xml"), []byte("<cfg/>"), 0o644))
	return root
}

func TestCreateInitialSnapshot(t *testing.T) {
	root := newInstallation(t)

	dir, err := CreateInitialSnapshot(root)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dir), snapshotPrefix))
	assert.Equal(t, filepath.Dir(root), filepath.Dir(dir))

	data, err := os.ReadFile(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<cfg/>", string(data))
}

func TestCreateInitialSnapshot_CollisionSafe(t *testing.T) {
	root := newInstallation(t)

	first, err := CreateInitialSnapshot(root)
	require.NoError(t, err)
	second, err := CreateInitialSnapshot(root)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "snapshots must never share a directory")
	for _, dir := range []string{first, second} {
		_, err := os.Stat(dir)
		assert.NoError(t, err)
	}
}

func TestCreateInitialSnapshot_MissingRoot(t *testing.T) {
	_, err := CreateInitialSnapshot(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestRestoreInitialSnapshot(t *testing.T) {
	root := newInstallation(t)
	dir, err := CreateInitialSnapshot(root)
	require.NoError(t, err)

	// Drift the installation: change a file, add a new one.
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.xml"), []byte("drifted"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.log"), []byte("x"), 0o644))

	require.NoError(t, RestoreInitialSnapshot(dir, root))

	data, err := os.ReadFile(filepath.Join(root, "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<cfg/>", string(data))

	_, err = os.Stat(filepath.Join(root, "stray.log"))
	assert.True(t, os.IsNotExist(err), "rollback must remove files created after the snapshot")
}

func TestRestoreInitialSnapshot_Vanished(t *testing.T) {
	root := newInstallation(t)
	err := RestoreInitialSnapshot(filepath.Join(t.TempDir(), "gone"), root)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDiscardInitialSnapshot(t *testing.T) {
	root := newInstallation(t)
	dir, err := CreateInitialSnapshot(root)
	require.NoError(t, err)

	require.NoError(t, DiscardInitialSnapshot(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// Discarding again, or discarding nothing, is a no-op.
	require.NoError(t, DiscardInitialSnapshot(dir))
	require.NoError(t, DiscardInitialSnapshot(""))
}
