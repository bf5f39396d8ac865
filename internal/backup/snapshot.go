package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mendocinotim/EmbyFixer/internal/fsutil"
	"github.com/mendocinotim/EmbyFixer/internal/log"
)

// snapshotPrefix names the whole-tree session snapshot, created as a
// sibling of the installation root. This lineage is independent of the
// binary-level backup: its rollback scope is the entire installation,
// including files created outside the binaries directory.
const snapshotPrefix = "emby_initial_backup_"

// CreateInitialSnapshot copies the whole installation tree to a
// timestamped sibling directory and returns its path. A naming collision
// (two activations within one second) is resolved with a uuid suffix.
func CreateInitialSnapshot(root string) (string, error) {
	logger := log.WithComponent("backup")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve installation root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return "", fmt.Errorf("installation root: %w", err)
	}

	parent := filepath.Dir(absRoot)
	name := snapshotPrefix + time.Now().Format("20060102_150405")
	dir := filepath.Join(parent, name)
	if _, err := os.Stat(dir); err == nil {
		dir = filepath.Join(parent, name+"_"+uuid.NewString()[:8])
	}

	if err := fsutil.CopyTree(absRoot, dir); err != nil {
		// No partial snapshot survives a failed copy.
		_ = fsutil.SafeRemoveAll(dir)
		return "", fmt.Errorf("snapshot installation: %w", err)
	}

	logger.Info().
		Str(log.FieldInstallPath, absRoot).
		Str(log.FieldBackupDir, dir).
		Msg("initial state snapshot created")
	return dir, nil
}

// RestoreInitialSnapshot replaces the installation tree at root with the
// snapshot's contents. It fails with ErrNotFound when the snapshot
// directory has vanished.
func RestoreInitialSnapshot(snapshotDir, root string) error {
	logger := log.WithComponent("backup")

	if fi, err := os.Stat(snapshotDir); err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotFound, snapshotDir)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve installation root: %w", err)
	}

	if err := fsutil.SafeRemoveAll(absRoot); err != nil {
		return fmt.Errorf("remove current installation: %w", err)
	}
	if err := fsutil.CopyTree(snapshotDir, absRoot); err != nil {
		return fmt.Errorf("restore installation: %w", err)
	}

	logger.Info().
		Str(log.FieldInstallPath, absRoot).
		Str(log.FieldBackupDir, snapshotDir).
		Msg("installation restored from initial snapshot")
	return nil
}

// DiscardInitialSnapshot deletes a snapshot directory. A vanished snapshot
// is a no-op.
func DiscardInitialSnapshot(snapshotDir string) error {
	if snapshotDir == "" {
		return nil
	}
	abs, err := filepath.Abs(snapshotDir)
	if err != nil {
		return fmt.Errorf("resolve snapshot dir: %w", err)
	}
	return fsutil.SafeRemoveAll(abs)
}
