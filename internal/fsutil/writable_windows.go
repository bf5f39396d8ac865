//go:build windows

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writable reports whether the current process may write to path. Windows
// has no faccessat equivalent that honours ACLs reliably, so probe with a
// throwaway file.
func Writable(path string) error {
	probe, err := os.CreateTemp(filepath.Clean(path), ".writable.*")
	if err != nil {
		return fmt.Errorf("no write access to %s: %w", path, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
