// Package kvserr defines the error taxonomy shared by the root kvs
// package and the packages it composes (osfs, persist, snapshot). It
// exists as a leaf package so those packages can construct and return
// kvs-flavored errors without importing the root package, which would
// create an import cycle back into the code that imports them. The root
// package re-exports every name here under kvs.Error / kvs.ErrorKind /
// kvs.ErrXxx so callers never see this package directly.
package kvserr

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the taxonomy of failures the store can produce.
// Kinds marked reserved are defined for API completeness but are never
// returned by this package.
type ErrorKind uint8

const (
	// UnmappedError is a sentinel for unfinished paths; it should never
	// escape a released build.
	UnmappedError ErrorKind = iota

	// FileNotFound is returned when a snapshot path is queried but absent.
	FileNotFound
	// KvsFileReadError is returned when a required .json file is missing
	// or unreadable.
	KvsFileReadError
	// KvsHashFileReadError is returned when a .hash file is missing or
	// unreadable.
	KvsHashFileReadError
	// JsonParserError is returned on codec parse failure or an unexpected
	// root shape.
	JsonParserError
	// JsonGeneratorError is returned on codec serialize failure.
	JsonGeneratorError
	// PhysicalStorageFailure is returned when a filesystem operation
	// fails for reasons other than "source not found" during rotation.
	PhysicalStorageFailure
	// ValidationFailed is returned on an Adler-32 mismatch.
	ValidationFailed
	// KeyNotFound is returned on a read or remove of an absent key.
	KeyNotFound
	// KeyDefaultNotFound is returned by ResetKey on a key with no default.
	KeyDefaultNotFound
	// InvalidSnapshotId is returned when a snapshot id is 0 or exceeds
	// the current snapshot count.
	InvalidSnapshotId
	// InvalidValueType is returned when a codec round-trip fails because
	// of an unknown tag or a type-mismatched payload.
	InvalidValueType
	// MutexLockFailed is returned when a try-lock on the store mutex
	// fails to acquire.
	MutexLockFailed
	// Closed is returned by any error-returning operation on a store
	// after Close.
	Closed

	// EncryptionFailed is reserved; never produced by this package.
	EncryptionFailed
	// ResourceBusy is reserved; never produced by this package.
	ResourceBusy
	// OutOfStorageSpace is reserved; never produced by this package.
	OutOfStorageSpace
	// QuotaExceeded is reserved; never produced by this package.
	QuotaExceeded
	// AuthenticationFailed is reserved; never produced by this package.
	AuthenticationFailed
	// SerializationFailed is reserved; never produced by this package.
	SerializationFailed
	// ConversionFailed is reserved; never produced by this package.
	ConversionFailed
	// IntegrityCorrupted is reserved; never produced by this package.
	IntegrityCorrupted
)

func (k ErrorKind) String() string {
	switch k {
	case UnmappedError:
		return "unmapped error"
	case FileNotFound:
		return "file not found"
	case KvsFileReadError:
		return "kvs file read error"
	case KvsHashFileReadError:
		return "kvs hash file read error"
	case JsonParserError:
		return "json parser error"
	case JsonGeneratorError:
		return "json generator error"
	case PhysicalStorageFailure:
		return "physical storage failure"
	case ValidationFailed:
		return "validation failed"
	case KeyNotFound:
		return "key not found"
	case KeyDefaultNotFound:
		return "key default not found"
	case InvalidSnapshotId:
		return "invalid snapshot id"
	case InvalidValueType:
		return "invalid value type"
	case MutexLockFailed:
		return "mutex lock failed"
	case Closed:
		return "store closed"
	case EncryptionFailed:
		return "encryption failed"
	case ResourceBusy:
		return "resource busy"
	case OutOfStorageSpace:
		return "out of storage space"
	case QuotaExceeded:
		return "quota exceeded"
	case AuthenticationFailed:
		return "authentication failed"
	case SerializationFailed:
		return "serialization failed"
	case ConversionFailed:
		return "conversion failed"
	case IntegrityCorrupted:
		return "integrity corrupted"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every public operation in the kvs
// package. It carries an ErrorKind plus optional context (a key name, a
// path, a wrapped cause).
type Error struct {
	Kind    ErrorKind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same Kind, so callers
// can write errors.Is(err, kvs.ErrKeyNotFound) regardless of context.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind ErrorKind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Sentinel values for errors.Is comparisons against a bare ErrorKind.
var (
	ErrFileNotFound           = newError(FileNotFound, "", nil)
	ErrKvsFileReadError       = newError(KvsFileReadError, "", nil)
	ErrKvsHashFileReadError   = newError(KvsHashFileReadError, "", nil)
	ErrJsonParserError        = newError(JsonParserError, "", nil)
	ErrJsonGeneratorError     = newError(JsonGeneratorError, "", nil)
	ErrPhysicalStorageFailure = newError(PhysicalStorageFailure, "", nil)
	ErrValidationFailed       = newError(ValidationFailed, "", nil)
	ErrKeyNotFound            = newError(KeyNotFound, "", nil)
	ErrKeyDefaultNotFound     = newError(KeyDefaultNotFound, "", nil)
	ErrInvalidSnapshotId      = newError(InvalidSnapshotId, "", nil)
	ErrInvalidValueType       = newError(InvalidValueType, "", nil)
	ErrMutexLockFailed        = newError(MutexLockFailed, "", nil)
	ErrClosed                 = newError(Closed, "", nil)
	ErrUnmappedError          = newError(UnmappedError, "", nil)
)

// As reports whether err (or something it wraps) is a *kvserr.Error, and
// if so returns it.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
