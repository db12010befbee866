// Package persist implements the read/write pair (a JSON document plus
// its Adler-32 hash sidecar) that every slot of the store's file layout
// is built from.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/scorekvs/kvs/internal/checksum"
	"github.com/scorekvs/kvs/internal/kvserr"
	"github.com/scorekvs/kvs/internal/kvsfs"
)

// Policy controls how ReadPair treats a missing .json file.
type Policy uint8

const (
	// Optional treats a missing .json as an empty document.
	Optional Policy = iota
	// Required treats a missing .json as a read error.
	Required
)

func jsonPath(prefix string) string { return prefix + ".json" }
func hashPath(prefix string) string { return prefix + ".hash" }

// WritePair ensures prefix's parent directory exists, writes data to
// "<prefix>.json", then writes the big-endian Adler-32 of data to
// "<prefix>.hash". The two writes are not atomic: a crash between them
// leaves a .json whose .hash is missing or stale, which ReadPair then
// rejects.
func WritePair(fsys kvsfs.Filesystem, prefix string, data []byte) error {
	dir := filepath.Dir(jsonPath(prefix))
	if err := fsys.MkdirAll(dir); err != nil {
		return &kvserr.Error{Kind: kvserr.PhysicalStorageFailure, Context: dir, Cause: err}
	}
	if err := fsys.WriteFile(jsonPath(prefix), data); err != nil {
		return &kvserr.Error{Kind: kvserr.PhysicalStorageFailure, Context: jsonPath(prefix), Cause: err}
	}
	packed := checksum.Pack(checksum.Sum(data))
	if err := fsys.WriteFile(hashPath(prefix), packed[:]); err != nil {
		return &kvserr.Error{Kind: kvserr.PhysicalStorageFailure, Context: hashPath(prefix), Cause: err}
	}
	return nil
}

// ReadPair reads and validates the "<prefix>.json"/".hash" pair. Under
// Optional, a missing .json returns present=false, err=nil; under
// Required it returns kvs.ErrKvsFileReadError. A present-but-invalid
// pair (missing or malformed hash, or hash mismatch) is always an error
// regardless of policy. The JSON itself is not parsed here; see
// ParseDocument.
func ReadPair(fsys kvsfs.Filesystem, prefix string, policy Policy) (data []byte, present bool, err error) {
	exists, statErr := fsys.Exists(jsonPath(prefix))
	if statErr != nil {
		return nil, false, &kvserr.Error{Kind: kvserr.PhysicalStorageFailure, Context: jsonPath(prefix), Cause: statErr}
	}
	if !exists {
		if policy == Required {
			return nil, false, &kvserr.Error{Kind: kvserr.KvsFileReadError, Context: jsonPath(prefix)}
		}
		return nil, false, nil
	}

	data, err = fsys.ReadFile(jsonPath(prefix))
	if err != nil {
		return nil, false, &kvserr.Error{Kind: kvserr.KvsFileReadError, Context: jsonPath(prefix), Cause: err}
	}

	hashBytes, err := fsys.ReadFile(hashPath(prefix))
	if err != nil {
		return nil, false, &kvserr.Error{Kind: kvserr.KvsHashFileReadError, Context: hashPath(prefix), Cause: err}
	}
	if len(hashBytes) != 4 {
		return nil, false, &kvserr.Error{Kind: kvserr.KvsHashFileReadError, Context: fmt.Sprintf("%s: expected 4 bytes, got %d", hashPath(prefix), len(hashBytes))}
	}
	var packed [4]byte
	copy(packed[:], hashBytes)
	if !checksum.Verify(data, packed) {
		return nil, false, &kvserr.Error{Kind: kvserr.ValidationFailed, Context: prefix}
	}
	return data, true, nil
}

// ParseDocument parses a persisted JSON document into the generic tree
// shape the value codec expects, preserving integer magnitude and width
// via json.Number instead of collapsing every number to float64.
func ParseDocument(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return nil, &kvserr.Error{Kind: kvserr.JsonParserError, Cause: err}
	}
	return tree, nil
}

// MarshalDocument serializes a document tree (as produced by
// value.EncodeMap) to JSON bytes.
func MarshalDocument(tree map[string]any) ([]byte, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, &kvserr.Error{Kind: kvserr.JsonGeneratorError, Cause: err}
	}
	return data, nil
}
