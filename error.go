package kvs

import "github.com/scorekvs/kvs/internal/kvserr"

// ErrorKind identifies the taxonomy of failures the store can produce.
// Kinds marked reserved are defined for API completeness but are never
// returned by this package. Defined in internal/kvserr so that osfs,
// persist, and snapshot can construct kvs-flavored errors without
// importing this package back.
type ErrorKind = kvserr.ErrorKind

// Error is the error type returned by every public operation in this
// package. It carries an [ErrorKind] plus optional context (a key name,
// a path, a wrapped cause).
type Error = kvserr.Error

// Error kinds. See internal/kvserr for their documentation.
const (
	UnmappedError          = kvserr.UnmappedError
	FileNotFound           = kvserr.FileNotFound
	KvsFileReadError       = kvserr.KvsFileReadError
	KvsHashFileReadError   = kvserr.KvsHashFileReadError
	JsonParserError        = kvserr.JsonParserError
	JsonGeneratorError     = kvserr.JsonGeneratorError
	PhysicalStorageFailure = kvserr.PhysicalStorageFailure
	ValidationFailed       = kvserr.ValidationFailed
	KeyNotFound            = kvserr.KeyNotFound
	KeyDefaultNotFound     = kvserr.KeyDefaultNotFound
	InvalidSnapshotId      = kvserr.InvalidSnapshotId
	InvalidValueType       = kvserr.InvalidValueType
	MutexLockFailed        = kvserr.MutexLockFailed
	Closed                 = kvserr.Closed

	EncryptionFailed     = kvserr.EncryptionFailed
	ResourceBusy         = kvserr.ResourceBusy
	OutOfStorageSpace    = kvserr.OutOfStorageSpace
	QuotaExceeded        = kvserr.QuotaExceeded
	AuthenticationFailed = kvserr.AuthenticationFailed
	SerializationFailed  = kvserr.SerializationFailed
	ConversionFailed     = kvserr.ConversionFailed
	IntegrityCorrupted   = kvserr.IntegrityCorrupted
)

// Sentinel values for errors.Is comparisons against a bare ErrorKind.
var (
	ErrFileNotFound           = kvserr.ErrFileNotFound
	ErrKvsFileReadError       = kvserr.ErrKvsFileReadError
	ErrKvsHashFileReadError   = kvserr.ErrKvsHashFileReadError
	ErrJsonParserError        = kvserr.ErrJsonParserError
	ErrJsonGeneratorError     = kvserr.ErrJsonGeneratorError
	ErrPhysicalStorageFailure = kvserr.ErrPhysicalStorageFailure
	ErrValidationFailed       = kvserr.ErrValidationFailed
	ErrKeyNotFound            = kvserr.ErrKeyNotFound
	ErrKeyDefaultNotFound     = kvserr.ErrKeyDefaultNotFound
	ErrInvalidSnapshotId      = kvserr.ErrInvalidSnapshotId
	ErrInvalidValueType       = kvserr.ErrInvalidValueType
	ErrMutexLockFailed        = kvserr.ErrMutexLockFailed
	ErrClosed                 = kvserr.ErrClosed
	ErrUnmappedError          = kvserr.ErrUnmappedError
)

// As reports whether err (or something it wraps) is a *kvs.Error, and if
// so returns it.
func As(err error) (*Error, bool) {
	return kvserr.As(err)
}
