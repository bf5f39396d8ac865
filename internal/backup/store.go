// Package backup manages the on-disk backup lineages of an installation:
// the binary-level "original" backup next to the binaries directory, and
// the whole-tree initial-state snapshot next to the installation root.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mendocinotim/EmbyFixer/internal/fsutil"
	"github.com/mendocinotim/EmbyFixer/internal/locator"
	"github.com/mendocinotim/EmbyFixer/internal/log"
	"github.com/mendocinotim/EmbyFixer/internal/metrics"
)

// DirName is the fixed name of the binary-level backup directory, created
// as a sibling of the binaries directory.
const DirName = "ffmpeg_backup_original"

var (
	// ErrNotFound is returned by Restore when no backup exists.
	ErrNotFound = errors.New("no backup found")

	// ErrIncomplete is returned by Restore when the backup directory is
	// missing required binaries. An incomplete backup is never restored,
	// not even partially.
	ErrIncomplete = errors.New("backup is incomplete")
)

// Store manages the original-binaries backup for one BinarySet.
type Store struct {
	bs locator.BinarySet
}

// NewStore returns a Store for the given binary set.
func NewStore(bs locator.BinarySet) *Store {
	return &Store{bs: bs}
}

// Dir returns the backup directory path.
func (s *Store) Dir() string {
	return filepath.Join(filepath.Dir(s.bs.Dir), DirName)
}

// Exists reports whether a backup directory is present.
func (s *Store) Exists() bool {
	fi, err := os.Stat(s.Dir())
	return err == nil && fi.IsDir()
}

// Create backs up every required binary, preserving permission bits. It is
// idempotent: an existing backup is left untouched and reported as
// success. On any copy failure the partially created directory is removed
// so no half-written backup is ever observable.
func (s *Store) Create() error {
	logger := log.WithComponent("backup")
	dir := s.Dir()

	if s.Exists() {
		logger.Info().Str(log.FieldBackupDir, dir).Msg("backup already exists")
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	for _, name := range s.bs.Names {
		src := filepath.Join(s.bs.Dir, name)
		if err := fsutil.CopyFile(src, filepath.Join(dir, name)); err != nil {
			s.removeDir(dir)
			return fmt.Errorf("back up %s: %w", name, err)
		}
		metrics.IncBackupFile("backup")
		logger.Info().
			Str(log.FieldBinary, name).
			Str(log.FieldBackupDir, dir).
			Msg("binary backed up")
	}
	return nil
}

// Restore copies every backed-up binary back into the binaries directory,
// reapplies executable permission, and clears any test-mode markers left
// by a forced mismatch. It fails with ErrNotFound when there is no backup
// and ErrIncomplete when the backup is missing a required binary; in the
// latter case nothing is copied.
func (s *Store) Restore() error {
	logger := log.WithComponent("backup")
	dir := s.Dir()

	if !s.Exists() {
		return fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	for _, name := range s.bs.Names {
		if err := fsutil.IsRegularFile(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("%w: missing %s", ErrIncomplete, name)
		}
	}

	for _, name := range s.bs.Names {
		dst := filepath.Join(s.bs.Dir, name)
		if err := fsutil.CopyFile(filepath.Join(dir, name), dst); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
		if err := os.Chmod(dst, 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", name, err)
		}
		metrics.IncBackupFile("restore")
		logger.Info().
			Str(log.FieldBinary, name).
			Str(log.FieldBinariesDir, s.bs.Dir).
			Msg("binary restored")
	}

	if err := s.ClearTestMarkers(); err != nil {
		return err
	}
	return nil
}

// Remove deletes the backup directory. Removing a non-existent backup is a
// no-op.
func (s *Store) Remove() error {
	dir := s.Dir()
	if !s.Exists() {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve backup dir: %w", err)
	}
	return fsutil.SafeRemoveAll(abs)
}

func (s *Store) removeDir(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return
	}
	if err := fsutil.SafeRemoveAll(abs); err != nil {
		logger := log.WithComponent("backup")
		logger.Error().Err(err).
			Str(log.FieldBackupDir, dir).
			Msg("failed to remove partial backup")
	}
}
