package arch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mendocinotim/EmbyFixer/internal/locator"
	"github.com/mendocinotim/EmbyFixer/internal/log"
	"github.com/mendocinotim/EmbyFixer/internal/metrics"
)

var (
	// ErrNotFound is returned when the binary to inspect does not exist.
	ErrNotFound = errors.New("binary not found")

	// ErrUndetermined is returned when no detection layer produced a
	// conclusive answer for any binary in the set.
	ErrUndetermined = errors.New("architecture could not be determined")
)

const (
	// SentinelMarker identifies a deliberately broken stand-in script.
	// Real binaries never contain it; the sentinel probe is a test-support
	// shortcut kept apart from the production layers below it.
	SentinelMarker = "EMBY_FFMPEG_FIXER_TEST_BINARY"

	// MismatchMarker is the loader's complaint when a binary was built for
	// the wrong CPU, matched case-insensitively in probe output.
	MismatchMarker = "bad cpu type"

	// MismatchExitCode is the sentinel exit code stand-in scripts use to
	// signal a simulated architecture mismatch.
	MismatchExitCode = 86

	// sentinelReadLimit bounds how much of a candidate file the sentinel
	// probe reads.
	sentinelReadLimit = 4096
)

// CommandRunner executes external commands and returns their combined
// output. Tests inject fakes for the file/lipo tools and the execution
// probe.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealRunner executes commands using os/exec.
type RealRunner struct{}

func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

func (r *RealRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool names are fixed, paths engine-resolved
	return cmd.CombinedOutput()
}

// Detector establishes the architecture of executables through an ordered
// chain of probes. No single method is reliable across plain binaries, fat
// binaries, script stand-ins and sandboxed environments, so each layer
// answers "inconclusive" rather than failing and the chain records which
// layer decided.
type Detector struct {
	Runner CommandRunner
	// Timeout bounds the execution probe.
	Timeout time.Duration
}

// NewDetector returns a Detector backed by real command execution.
func NewDetector(timeout time.Duration) *Detector {
	return &Detector{Runner: NewRealRunner(), Timeout: timeout}
}

// Detect returns the architecture of the executable at path. It fails with
// ErrNotFound when path does not exist and ErrUndetermined when every
// probe layer is inconclusive.
func (d *Detector) Detect(ctx context.Context, path string) (Architecture, error) {
	logger := log.WithComponentFromContext(ctx, "detector")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	probes := []struct {
		name string
		fn   func(context.Context, string) (Architecture, bool)
	}{
		{"sentinel", d.probeSentinel},
		{"file", d.probeFileTool},
		{"lipo", d.probeLipo},
		{"exec", d.probeExecution},
	}

	for _, probe := range probes {
		arch, conclusive := probe.fn(ctx, path)
		if conclusive {
			metrics.IncProbe(probe.name, "conclusive")
			logger.Info().
				Str(log.FieldBinary, path).
				Str(log.FieldProbe, probe.name).
				Str(log.FieldArch, arch.String()).
				Msg("architecture detected")
			return arch, nil
		}
		metrics.IncProbe(probe.name, "inconclusive")
	}

	logger.Warn().Str(log.FieldBinary, path).Msg("all detection probes inconclusive")
	return "", fmt.Errorf("%w: %s", ErrUndetermined, path)
}

// DetectSet detects each required binary and reduces the answers: all
// agreeing yields that architecture, disagreement yields the first in the
// set's order with a warning, no answer at all yields ErrUndetermined.
func (d *Detector) DetectSet(ctx context.Context, bs locator.BinarySet) (Architecture, error) {
	logger := log.WithComponentFromContext(ctx, "detector")

	var detected []Architecture
	for _, path := range bs.Paths() {
		arch, err := d.Detect(ctx, path)
		if err != nil {
			continue
		}
		detected = append(detected, arch)
	}
	if len(detected) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUndetermined, bs.Dir)
	}

	first := detected[0]
	for _, arch := range detected[1:] {
		if arch != first {
			logger.Warn().
				Str(log.FieldBinariesDir, bs.Dir).
				Str("first_arch", first.String()).
				Str("other_arch", arch.String()).
				Msg("mixed architectures in binary set, using first detected")
			break
		}
	}
	return first, nil
}

// probeSentinel classifies deliberately broken stand-in scripts by their
// sentinel line, taking the architecture from the per-arch asset directory
// the stand-in was shipped in. Inconclusive for everything else.
func (d *Detector) probeSentinel(_ context.Context, path string) (Architecture, bool) {
	f, err := os.Open(path) // #nosec G304 -- path resolved by the engine
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sentinelReadLimit)
	n, _ := f.Read(buf)
	head := buf[:n]

	if !bytes.HasPrefix(head, []byte("#!")) || !bytes.Contains(head, []byte(SentinelMarker)) {
		return "", false
	}
	if hint := DirHint(path); hint.IsKnown() {
		return hint, true
	}
	// Installed stand-ins carry no directory hint; the execution probe
	// settles those.
	return "", false
}

// probeFileTool asks the file(1) tool to describe the binary format. A
// single architecture token in its output is conclusive; none or both
// (a fat binary) falls through.
func (d *Detector) probeFileTool(ctx context.Context, path string) (Architecture, bool) {
	out, err := d.Runner.Run(ctx, "file", path)
	if err != nil {
		return "", false
	}
	text := strings.ToLower(string(out))

	hasX86 := strings.Contains(text, "x86_64") || strings.Contains(text, "x86-64")
	hasARM := strings.Contains(text, "arm64") || strings.Contains(text, "aarch64")
	switch {
	case hasX86 && !hasARM:
		return X8664, true
	case hasARM && !hasX86:
		return ARM64, true
	default:
		return "", false
	}
}

// probeLipo inspects multi-architecture images with lipo(1). A fat binary
// that includes a slice for the host runs natively, so the host
// architecture is the answer; otherwise the first recognised slice wins.
func (d *Detector) probeLipo(ctx context.Context, path string) (Architecture, bool) {
	out, err := d.Runner.Run(ctx, "lipo", "-archs", path)
	if err != nil {
		return "", false
	}

	host := Host()
	var first Architecture
	for _, token := range strings.Fields(string(out)) {
		arch := Normalize(token)
		if !arch.IsKnown() {
			continue
		}
		if arch == host {
			return host, true
		}
		if first == "" {
			first = arch
		}
	}
	if first != "" {
		return first, true
	}
	return "", false
}

// probeExecution invokes the binary with a harmless version query under a
// short timeout. Running at all means it matches the host; the loader's
// CPU-type complaint (or the sentinel exit code) means it does not.
func (d *Detector) probeExecution(ctx context.Context, path string) (Architecture, bool) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := d.Runner.Run(probeCtx, path, "-version")
	if err == nil {
		return Host(), true
	}
	if probeCtx.Err() != nil {
		return "", false
	}

	// The marker appears in probe output for stand-ins and in the exec
	// error itself when the loader rejects a real wrong-arch binary.
	mismatch := strings.Contains(strings.ToLower(string(out)), MismatchMarker) ||
		strings.Contains(strings.ToLower(err.Error()), MismatchMarker)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == MismatchExitCode {
		mismatch = true
	}
	if !mismatch {
		return "", false
	}

	if hint := DirHint(path); hint.IsKnown() {
		return hint, true
	}
	return Host().Opposite(), true
}
