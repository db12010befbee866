// Package osfs implements kvsfs.Filesystem against the local filesystem.
package osfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/scorekvs/kvs/internal/kvsfs"
)

// FS is the local-disk implementation of kvsfs.Filesystem (re-exported
// by the root package as kvs.Filesystem). Its zero value is ready to
// use.
type FS struct{}

// New returns an FS.
func New() FS { return FS{} }

var _ kvsfs.Filesystem = FS{}

// Exists reports whether path names an existing file or directory.
func (FS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// MkdirAll creates path and any missing parents, matching os.MkdirAll's
// permissions.
func (FS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ReadFile returns the full contents of path.
func (FS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile replaces the contents of path, creating it with 0o600
// permissions if it does not exist.
func (FS) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

// Rename moves oldpath to newpath. If oldpath does not exist, the
// returned error wraps kvsfs.ErrFsNotExist.
func (FS) Rename(oldpath, newpath string) error {
	err := os.Rename(oldpath, newpath)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", kvsfs.ErrFsNotExist, err)
	}
	return err
}

// Remove deletes path.
func (FS) Remove(path string) error {
	return os.Remove(path)
}
