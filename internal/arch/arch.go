// Package arch determines CPU architectures: the host's, and the one an
// arbitrary executable was built for.
package arch

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Architecture is a detected CPU architecture. The two recognised values
// are X8664 and ARM64; any other non-empty value is an unrecognised raw
// machine string carried through for diagnostics.
type Architecture string

const (
	X8664 Architecture = "x86_64"
	ARM64 Architecture = "arm64"
)

// IsKnown reports whether a is one of the recognised architectures.
func (a Architecture) IsKnown() bool {
	return a == X8664 || a == ARM64
}

// Opposite returns the other recognised architecture. For unrecognised
// values it returns the empty string.
func (a Architecture) Opposite() Architecture {
	switch a {
	case X8664:
		return ARM64
	case ARM64:
		return X8664
	default:
		return ""
	}
}

func (a Architecture) String() string {
	return string(a)
}

// Normalize maps a raw machine-type string to an Architecture. Synonyms
// are folded (AMD64/i386 are x86_64 flavours, aarch64 is arm64); anything
// else comes back verbatim so the caller can still report it.
func Normalize(machine string) Architecture {
	switch strings.ToLower(machine) {
	case "x86_64", "amd64", "i386", "386":
		return X8664
	case "arm64", "aarch64":
		return ARM64
	default:
		return Architecture(machine)
	}
}

// Host returns the architecture this process runs under.
func Host() Architecture {
	return Normalize(runtime.GOARCH)
}

// Compatible reports whether two architectures match and are both
// recognised.
func Compatible(a, b Architecture) bool {
	return a.IsKnown() && a == b
}

// DirHint infers an architecture from the directory names in path,
// innermost first. Stand-in binaries live under per-architecture asset
// directories, so the containing directory name is an authoritative hint
// for them.
func DirHint(path string) Architecture {
	dir := filepath.Dir(path)
	for dir != "" {
		name := strings.ToLower(filepath.Base(dir))
		switch {
		case strings.Contains(name, "x86_64"), strings.Contains(name, "amd64"), strings.Contains(name, "i386"):
			return X8664
		case strings.Contains(name, "arm64"), strings.Contains(name, "aarch64"):
			return ARM64
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
