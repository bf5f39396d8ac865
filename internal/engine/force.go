package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mendocinotim/EmbyFixer/internal/arch"
	"github.com/mendocinotim/EmbyFixer/internal/backup"
	"github.com/mendocinotim/EmbyFixer/internal/fsutil"
	"github.com/mendocinotim/EmbyFixer/internal/locator"
	"github.com/mendocinotim/EmbyFixer/internal/log"
	"github.com/mendocinotim/EmbyFixer/internal/metrics"
)

// ForceIncompatibility installs deliberately broken stand-in binaries for
// target so a mismatch can be demonstrated on a healthy machine. The
// stand-ins must actually fail with the mismatch signature before the
// operation reports success; a simulation that does not simulate the
// failure is worthless. On success a test-mode marker records the
// simulated architecture and timestamp.
func (e *Engine) ForceIncompatibility(ctx context.Context, bs locator.BinarySet, target arch.Architecture) Result {
	logger := log.WithComponentFromContext(ctx, "engine")

	fail := func(kind ErrorKind, msg string) Result {
		logger.Error().Str(log.FieldBinariesDir, bs.Dir).Str("kind", kind.String()).Msg(msg)
		metrics.IncOperation("force_incompatibility", false)
		return Failure(kind, msg)
	}

	if !target.IsKnown() {
		return fail(KindInvalid, fmt.Sprintf("unsupported target architecture %q", target))
	}
	if target == arch.Host() {
		return fail(KindInvalid, "cannot simulate a mismatch against the host architecture")
	}

	standInDir := filepath.Join(e.cfg.StandInDir, target.String())
	if err := assetsComplete(standInDir, bs.Names); err != nil {
		return fail(KindAssetMissing, fmt.Sprintf("stand-in binaries for %s not found", target))
	}

	if err := fsutil.Writable(bs.Dir); err != nil {
		return fail(KindPermissionDenied, fmt.Sprintf("binaries directory is not writable: %v", err))
	}

	store := backup.NewStore(bs)
	if err := store.Create(); err != nil {
		return fail(KindBackupFailed, fmt.Sprintf("Failed to backup original FFMPEG binaries: %v", err))
	}

	for _, name := range bs.Names {
		dst := filepath.Join(bs.Dir, name)
		if err := fsutil.CopyFile(filepath.Join(standInDir, name), dst); err != nil {
			return fail(KindIOError, fmt.Sprintf("failed to install stand-in %s: %v", name, err))
		}
		if err := os.Chmod(dst, 0o755); err != nil {
			return fail(KindIOError, fmt.Sprintf("failed to mark stand-in %s executable: %v", name, err))
		}
	}

	// Verify every stand-in fails execution the way a real mismatch
	// would.
	for _, name := range bs.Names {
		path := filepath.Join(bs.Dir, name)
		if !e.failsWithMismatchSignature(ctx, path) {
			return fail(KindInvalid, fmt.Sprintf("stand-in %s did not fail with the expected mismatch signature", name))
		}
		logger.Info().
			Str(log.FieldBinary, name).
			Str(log.FieldArch, target.String()).
			Msg("stand-in verified")
	}

	if err := store.WriteTestMarker(target, time.Now()); err != nil {
		return fail(KindIOError, fmt.Sprintf("failed to write test-mode marker: %v", err))
	}

	metrics.IncOperation("force_incompatibility", true)
	return Success(fmt.Sprintf("simulated %s mismatch installed", target))
}

// failsWithMismatchSignature runs the binary's version query and reports
// whether it failed with the sentinel exit code or the CPU-type marker.
func (e *Engine) failsWithMismatchSignature(ctx context.Context, path string) bool {
	timeout := e.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := e.det.Runner.Run(probeCtx, path, "-version")
	if err == nil || probeCtx.Err() != nil {
		return false
	}

	// The loader text may surface in the output or in the error itself.
	if strings.Contains(strings.ToLower(string(out)), arch.MismatchMarker) ||
		strings.Contains(strings.ToLower(err.Error()), arch.MismatchMarker) {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == arch.MismatchExitCode
}
