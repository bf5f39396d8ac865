// Package locator resolves the transcoding-engine binaries inside an Emby
// Server installation.
package locator

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mendocinotim/EmbyFixer/internal/fsutil"
	"github.com/mendocinotim/EmbyFixer/internal/log"
)

// requiredBinaries is the fixed set of executables that makes up the
// transcoding engine: ffmpeg plus its probe/inspection companions. The
// order is meaningful; detection ties are broken by it.
var requiredBinaries = []string{"ffmpeg", "ffprobe", "ffdetect"}

// primaryBinary is the name the recursive fallback scan searches for.
const primaryBinary = "ffmpeg"

// candidateSubdirs are the known bundle layouts, fastest path first.
var candidateSubdirs = []string{
	filepath.Join("Contents", "MacOS", "ffmpeg"),
	filepath.Join("Contents", "Resources", "ffmpeg"),
	"ffmpeg",
}

// Required returns the required binary names in tie-break order. The
// returned slice is a copy.
func Required() []string {
	names := make([]string, len(requiredBinaries))
	copy(names, requiredBinaries)
	return names
}

// BinarySet is the resolved location of the transcoding engine. It is
// computed on demand and never persisted.
type BinarySet struct {
	Dir   string
	Names []string
}

// Paths returns the absolute path of every required binary, in tie-break
// order.
func (bs BinarySet) Paths() []string {
	paths := make([]string, len(bs.Names))
	for i, name := range bs.Names {
		paths[i] = filepath.Join(bs.Dir, name)
	}
	return paths
}

// Validate returns nil only if every required binary exists as a regular,
// executable file in the set's directory.
func (bs BinarySet) Validate() error {
	for _, path := range bs.Paths() {
		if err := fsutil.IsExecutableFile(path); err != nil {
			return err
		}
	}
	return nil
}

// Locate finds the binaries directory within root. It checks the known
// layout patterns first and falls back to a recursive scan for the primary
// binary. The second return is false when nothing was found; that is "not
// applicable", not a fault. Results are never cached: the installation may
// change between calls.
func Locate(root string) (BinarySet, bool) {
	logger := log.WithComponent("locator")

	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return BinarySet{}, false
	}

	for _, sub := range candidateSubdirs {
		dir := filepath.Join(root, sub)
		if containsAllBinaries(dir) {
			logger.Debug().
				Str(log.FieldInstallPath, root).
				Str(log.FieldBinariesDir, dir).
				Msg("binaries found in known layout")
			return newSet(dir), true
		}
	}

	// Fallback: bounded walk for the primary binary. First hit wins.
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep scanning siblings
		}
		if !d.IsDir() && d.Name() == primaryBinary {
			found = filepath.Dir(path)
			return filepath.SkipAll
		}
		return nil
	})
	if found == "" {
		logger.Debug().Str(log.FieldInstallPath, root).Msg("no binaries directory found")
		return BinarySet{}, false
	}

	logger.Debug().
		Str(log.FieldInstallPath, root).
		Str(log.FieldBinariesDir, found).
		Msg("binaries found by recursive scan")
	return newSet(found), true
}

func newSet(dir string) BinarySet {
	return BinarySet{Dir: dir, Names: Required()}
}

func containsAllBinaries(dir string) bool {
	for _, name := range requiredBinaries {
		if err := fsutil.IsRegularFile(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// defaultInstallPaths are the well-known Emby Server locations, most
// specific platform first.
var defaultInstallPaths = []string{
	"/Applications/EmbyServer.app",
	"/Applications/Emby Server.app",
	"/opt/emby-server",
}

// DefaultInstallPath returns the first well-known Emby Server install
// location that exists, or "" when none does.
func DefaultInstallPath() string {
	for _, path := range defaultInstallPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
