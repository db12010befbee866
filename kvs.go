// Package kvs implements a persistent key-value store for safety-critical
// middleware: a flat mapping of string keys to dynamically-typed values,
// backed by a hash-validated JSON document on disk, a read-only default
// layer, and a bounded ring of prior persisted states.
//
// The store never blocks on internal contention: every operation that
// touches the in-memory map acquires its lock with a try-lock, and a
// failed acquisition is reported to the caller instead of waited on.
package kvs

import "github.com/scorekvs/kvs/internal/kvsfs"

// ErrFsNotExist is the sentinel a Filesystem implementation's Rename
// must wrap when oldpath does not exist, so snapshot rotation can
// distinguish that (tolerated) case from any other rename failure
// (which aborts rotation).
var ErrFsNotExist = kvsfs.ErrFsNotExist

// Filesystem is the minimum set of directory-tree operations the store
// needs from its backing storage. The default implementation is
// [github.com/scorekvs/kvs/internal/osfs.FS], backed by the local
// filesystem; tests substitute an in-memory fake from
// [github.com/scorekvs/kvs/kvstest]. It is defined in internal/kvsfs so
// that osfs, persist, and snapshot can implement and consume it without
// importing this package back.
type Filesystem = kvsfs.Filesystem
