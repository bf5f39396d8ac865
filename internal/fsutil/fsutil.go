// Package fsutil provides the filesystem primitives shared by the backup
// store and the replacement engine: permission-preserving copies, file
// classification checks, and guarded removal.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IsRegularFile returns nil if path exists and is a regular file.
func IsRegularFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}

// IsExecutableFile returns nil if path is a regular file with at least the
// owner-executable bit set.
func IsExecutableFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	if fi.Mode().Perm()&0o100 == 0 {
		return fmt.Errorf("not executable: %s", path)
	}
	return nil
}

// CopyFile copies src to dst, creating or truncating dst with the source
// file's permission bits. The copy goes through a temp name in dst's
// directory so a concurrent reader never observes a half-written file.
func CopyFile(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", src)
	}

	in, err := os.Open(src) // #nosec G304 -- paths are resolved by the engine
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy data: %w", err)
	}
	if err := tmp.Chmod(fi.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// CopyTree recursively copies the directory tree rooted at src to dst,
// preserving permission bits on files and directories. dst must not exist.
func CopyTree(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source tree: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("not a directory: %s", src)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("destination already exists: %s", dst)
	}

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode().IsRegular():
			return CopyFile(path, target)
		default:
			// Symlinks and specials are skipped; the Emby bundle keeps
			// its binaries as plain files.
			return nil
		}
	})
}

// SafeRemoveAll removes path recursively, refusing relative paths so a
// misresolved name can never delete outside the intended tree.
func SafeRemoveAll(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("refusing to remove non-absolute path: %s", path)
	}
	return os.RemoveAll(path)
}
