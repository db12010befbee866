// Package kvsfs defines the storage-backend contract shared by the root
// kvs package and its filesystem implementations. It exists as a leaf
// package specifically so those implementations (osfs, snapshot, persist)
// never have to import the root package to satisfy it, which would
// create an import cycle back into the code that imports them.
package kvsfs

import "errors"

// ErrFsNotExist is the sentinel a Filesystem implementation's Rename
// must wrap when oldpath does not exist, so snapshot rotation can
// distinguish that (tolerated) case from any other rename failure
// (which aborts rotation).
var ErrFsNotExist = errors.New("kvs: path does not exist")

// Filesystem is the minimum set of directory-tree operations the store
// needs from its backing storage. The default implementation is
// [github.com/scorekvs/kvs/internal/osfs.FS], backed by the local
// filesystem; tests substitute an in-memory fake from
// [github.com/scorekvs/kvs/kvstest].
type Filesystem interface {
	// Exists reports whether path names an existing file.
	Exists(path string) (bool, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error

	// ReadFile returns the full contents of path.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the contents of path, creating it if needed.
	WriteFile(path string, data []byte) error

	// Rename moves oldpath to newpath. Implementations must wrap
	// ErrFsNotExist when oldpath does not exist, so snapshot rotation
	// can tell that apart from other failures.
	Rename(oldpath, newpath string) error

	// Remove deletes path.
	Remove(path string) error
}
