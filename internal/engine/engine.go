// Package engine orchestrates the fix workflow: locate the transcoding
// binaries, ensure a backup, swap in architecture-matched replacements,
// and verify the outcome. Every operation returns a tagged Result; the
// state machine for the binaries at a given path is Original → Backed-Up →
// (Replaced | SimulatedMismatch) → restored, and nothing leaves Original
// without a backup first.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mendocinotim/EmbyFixer/internal/arch"
	"github.com/mendocinotim/EmbyFixer/internal/backup"
	"github.com/mendocinotim/EmbyFixer/internal/config"
	"github.com/mendocinotim/EmbyFixer/internal/fsutil"
	"github.com/mendocinotim/EmbyFixer/internal/locator"
	"github.com/mendocinotim/EmbyFixer/internal/log"
	"github.com/mendocinotim/EmbyFixer/internal/metrics"
)

// Engine carries the configuration and detector shared by all operations.
type Engine struct {
	cfg config.Config
	det *arch.Detector
}

// New returns an Engine using real command execution for detection.
func New(cfg config.Config) *Engine {
	return &Engine{cfg: cfg, det: arch.NewDetector(cfg.ProbeTimeout)}
}

// NewWithDetector returns an Engine with an injected detector; tests use
// this to fake the external file/lipo/probe tools.
func NewWithDetector(cfg config.Config, det *arch.Detector) *Engine {
	return &Engine{cfg: cfg, det: det}
}

// Detector exposes the engine's detector for callers that probe single
// binaries.
func (e *Engine) Detector() *arch.Detector {
	return e.det
}

// Check reports whether the installation's binaries match the host
// architecture, and whether an original backup exists.
func (e *Engine) Check(ctx context.Context, root string) CheckResult {
	logger := log.WithComponentFromContext(ctx, "engine")
	host := arch.Host()
	res := CheckResult{SystemArch: host}

	if _, err := os.Stat(root); err != nil {
		res.Result = Failure(KindNotFound, "Invalid Emby Server path")
		metrics.IncOperation("check", false)
		return res
	}

	bs, ok := locator.Locate(root)
	if !ok {
		res.Result = Failure(KindBinariesNotFound, "FFMPEG binaries not found in Emby Server")
		metrics.IncOperation("check", false)
		return res
	}

	binArch, err := e.det.DetectSet(ctx, bs)
	if err != nil {
		res.Result = Failure(KindUndetermined, "FFMPEG architecture could not be determined")
		metrics.IncOperation("check", false)
		return res
	}

	res.BinaryArch = binArch
	res.Compatible = arch.Compatible(host, binArch)
	res.HasBackup = backup.NewStore(bs).Exists()
	res.Result = Success(fmt.Sprintf("system is %s, FFMPEG is %s", host, binArch))
	logger.Info().
		Str(log.FieldInstallPath, root).
		Str(log.FieldSystemArch, host.String()).
		Str(log.FieldBinaryArch, binArch.String()).
		Bool("compatible", res.Compatible).
		Msg("compatibility checked")
	metrics.IncOperation("check", true)
	return res
}

// Fix replaces the installation's binaries with the host-architecture
// build. Each step is a hard gate; the first failure aborts the call. A
// failed Fix leaves the binaries in the Backed-Up state: the backup, not
// an automatic undo, is the recovery path.
func (e *Engine) Fix(ctx context.Context, root string) Result {
	logger := log.WithComponentFromContext(ctx, "engine")

	fail := func(kind ErrorKind, msg string) Result {
		logger.Error().Str(log.FieldInstallPath, root).Str("kind", kind.String()).Msg(msg)
		metrics.IncOperation("fix", false)
		return Failure(kind, msg)
	}

	if _, err := os.Stat(root); err != nil {
		return fail(KindNotFound, "Invalid Emby Server path")
	}

	bs, ok := locator.Locate(root)
	if !ok {
		return fail(KindBinariesNotFound, "FFMPEG binaries not found in Emby Server")
	}

	if err := fsutil.Writable(bs.Dir); err != nil {
		return fail(KindPermissionDenied, fmt.Sprintf("binaries directory is not writable: %v", err))
	}
	if err := fsutil.Writable(filepath.Dir(bs.Dir)); err != nil {
		return fail(KindPermissionDenied, fmt.Sprintf("backup location is not writable: %v", err))
	}

	store := backup.NewStore(bs)
	if err := store.Create(); err != nil {
		return fail(KindBackupFailed, fmt.Sprintf("Failed to backup original FFMPEG binaries: %v", err))
	}

	host := arch.Host()
	if !host.IsKnown() {
		return fail(KindUnknownArchitecture, fmt.Sprintf("unsupported system architecture %q", host))
	}

	// Already-matching binaries make the fix a no-op. An undetermined
	// current architecture is not a gate here: replacement is the remedy.
	if cur, err := e.det.DetectSet(ctx, bs); err == nil && arch.Compatible(host, cur) {
		metrics.IncOperation("fix", true)
		return Success(fmt.Sprintf("FFMPEG binaries already match %s", host))
	}

	assetDir := filepath.Join(e.cfg.ReplacementDir, host.String())
	if err := assetsComplete(assetDir, bs.Names); err != nil {
		return fail(KindAssetMissing, fmt.Sprintf("Replacement FFMPEG binaries for %s not found", host))
	}

	for _, name := range bs.Names {
		dst := filepath.Join(bs.Dir, name)
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return fail(KindIOError, fmt.Sprintf("failed to remove %s: %v", name, err))
		}
		if err := fsutil.CopyFile(filepath.Join(assetDir, name), dst); err != nil {
			return fail(KindIOError, fmt.Sprintf("failed to replace %s: %v", name, err))
		}
		if err := os.Chmod(dst, 0o755); err != nil {
			return fail(KindIOError, fmt.Sprintf("failed to mark %s executable: %v", name, err))
		}
		logger.Info().
			Str(log.FieldBinary, name).
			Str(log.FieldArch, host.String()).
			Msg("binary replaced")
	}

	metrics.IncOperation("fix", true)
	return Success(fmt.Sprintf("FFMPEG binaries replaced with %s versions", host))
}

// Restore puts the original binaries back from the backup and clears any
// test-mode markers.
func (e *Engine) Restore(ctx context.Context, root string) Result {
	logger := log.WithComponentFromContext(ctx, "engine")

	fail := func(kind ErrorKind, msg string) Result {
		logger.Error().Str(log.FieldInstallPath, root).Str("kind", kind.String()).Msg(msg)
		metrics.IncOperation("restore", false)
		return Failure(kind, msg)
	}

	if _, err := os.Stat(root); err != nil {
		return fail(KindNotFound, "Invalid Emby Server path")
	}
	bs, ok := locator.Locate(root)
	if !ok {
		return fail(KindBinariesNotFound, "FFMPEG binaries not found in Emby Server")
	}

	if err := fsutil.Writable(bs.Dir); err != nil {
		return fail(KindPermissionDenied, fmt.Sprintf("binaries directory is not writable: %v", err))
	}

	if err := backup.NewStore(bs).Restore(); err != nil {
		switch {
		case errors.Is(err, backup.ErrNotFound):
			return fail(KindNotFound, "No backup found to restore")
		case errors.Is(err, backup.ErrIncomplete):
			return fail(KindIncomplete, fmt.Sprintf("Backup is incomplete: %v", err))
		default:
			return fail(KindIOError, fmt.Sprintf("Error restoring FFMPEG: %v", err))
		}
	}

	metrics.IncOperation("restore", true)
	return Success("Original FFMPEG binaries restored successfully")
}

// assetsComplete verifies dir contains every required binary name.
func assetsComplete(dir string, names []string) error {
	for _, name := range names {
		if err := fsutil.IsRegularFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
