package arch

import (
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		machine string
		want    Architecture
	}{
		{"x86_64", X8664},
		{"AMD64", X8664},
		{"amd64", X8664},
		{"i386", X8664},
		{"arm64", ARM64},
		{"aarch64", ARM64},
		{"riscv64", Architecture("riscv64")},
		{"", Architecture("")},
	}

	for _, tt := range tests {
		t.Run(tt.machine, func(t *testing.T) {
			if got := Normalize(tt.machine); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.machine, got, tt.want)
			}
		})
	}
}

func TestNormalize_UnrecognisedIsNotKnown(t *testing.T) {
	t.Parallel()

	got := Normalize("sparc")
	if got.IsKnown() {
		t.Errorf("Normalize(sparc) = %q, should not be a known architecture", got)
	}
	if got.String() != "sparc" {
		t.Errorf("raw value not preserved: %q", got)
	}
}

func TestHost(t *testing.T) {
	t.Parallel()

	if !Host().IsKnown() {
		t.Skipf("host architecture %q not in the recognised set", Host())
	}
}

func TestOpposite(t *testing.T) {
	t.Parallel()

	if X8664.Opposite() != ARM64 {
		t.Error("x86_64 opposite should be arm64")
	}
	if ARM64.Opposite() != X8664 {
		t.Error("arm64 opposite should be x86_64")
	}
	if Architecture("sparc").Opposite() != "" {
		t.Error("unknown architecture has no opposite")
	}
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	if !Compatible(ARM64, ARM64) {
		t.Error("equal known architectures should be compatible")
	}
	if Compatible(ARM64, X8664) {
		t.Error("different architectures should not be compatible")
	}
	if Compatible(Architecture("sparc"), Architecture("sparc")) {
		t.Error("unknown architectures are never compatible, even when equal")
	}
}

func TestDirHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Architecture
	}{
		{filepath.Join("assets", "test_binaries", "x86_64", "ffmpeg"), X8664},
		{filepath.Join("assets", "ffmpeg_binaries", "arm64", "ffprobe"), ARM64},
		{filepath.Join("assets", "aarch64-stand-ins", "ffmpeg"), ARM64},
		{filepath.Join("Contents", "Resources", "ffmpeg", "ffmpeg"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DirHint(tt.path); got != tt.want {
				t.Errorf("DirHint(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
