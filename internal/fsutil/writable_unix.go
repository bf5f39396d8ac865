//go:build !windows

package fsutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Writable reports whether the current process may write to path. The check
// runs before any mutating step so permission problems surface as a
// distinct failure instead of a half-finished copy.
func Writable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("no write access to %s: %w", path, err)
	}
	return nil
}
