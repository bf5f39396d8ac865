package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/mendocinotim/EmbyFixer/internal/arch"
	"github.com/mendocinotim/EmbyFixer/internal/fsutil"
)

// Test-mode marker artifacts recording a simulated mismatch, both siblings
// of the binaries directory.
const (
	markerFileName   = "ffmpeg_test_mode"
	markerSubdirName = "ffmpeg_test"
	markerInnerName  = "test_mode"
)

func (s *Store) markerFile() string {
	return filepath.Join(filepath.Dir(s.bs.Dir), markerFileName)
}

func (s *Store) markerSubdir() string {
	return filepath.Join(filepath.Dir(s.bs.Dir), markerSubdirName)
}

// WriteTestMarker records a simulated mismatch: the target architecture
// and a timestamp, written atomically to both marker locations.
func (s *Store) WriteTestMarker(target arch.Architecture, when time.Time) error {
	body := []byte(fmt.Sprintf("%s\n%s\n", target, when.Format(time.RFC3339)))

	if err := renameio.WriteFile(s.markerFile(), body, 0o644); err != nil {
		return fmt.Errorf("write test-mode marker: %w", err)
	}
	if err := os.MkdirAll(s.markerSubdir(), 0o755); err != nil {
		return fmt.Errorf("create test-mode dir: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(s.markerSubdir(), markerInnerName), body, 0o644); err != nil {
		return fmt.Errorf("write test-mode dir marker: %w", err)
	}
	return nil
}

// TestMarkerExists reports whether a simulated-mismatch marker is present.
func (s *Store) TestMarkerExists() bool {
	if _, err := os.Stat(s.markerFile()); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(s.markerSubdir(), markerInnerName))
	return err == nil
}

// ClearTestMarkers removes all simulated-mismatch marker artifacts.
// Missing markers are not an error.
func (s *Store) ClearTestMarkers() error {
	if err := os.Remove(s.markerFile()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove test-mode marker: %w", err)
	}
	abs, err := filepath.Abs(s.markerSubdir())
	if err != nil {
		return fmt.Errorf("resolve test-mode dir: %w", err)
	}
	if err := fsutil.SafeRemoveAll(abs); err != nil {
		return fmt.Errorf("remove test-mode dir: %w", err)
	}
	return nil
}
