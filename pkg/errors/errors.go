// Package errors defines the error kinds the engine returns, following
// the classification the core design uses, so the server and CLI
// layers can map a failure to an HTTP status or exit code without
// string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure into one of the categories the engine
// distinguishes. Callers should switch on Kind, not on error text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindDimensionMismatch
	KindInvalidArgument
	KindWalIoError
	KindStoreIoError
	KindCorruptRecord
	KindCorruptionFatal
	KindInvariantViolation
	KindCollectionUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindWalIoError:
		return "wal_io_error"
	case KindStoreIoError:
		return "store_io_error"
	case KindCorruptRecord:
		return "corrupt_record"
	case KindCorruptionFatal:
		return "corruption_fatal"
	case KindInvariantViolation:
		return "invariant_violation"
	case KindCollectionUnavailable:
		return "collection_unavailable"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across the engine. It
// carries a Kind for programmatic handling and wraps the underlying
// cause for errors.Is/errors.As and %w formatting.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "collection.Insert"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, errors.New(errors.KindNotFound, "", "")) style checks
// match regardless of message or operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == KindUnknown {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err if it is, or wraps, an *Error, and
// returns KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Sentinel errors kept in the teacher's style. Because Error.Is matches
// by Kind, errors.Is against one of these holds for any *Error of the
// same Kind, whatever its message.
var (
	ErrCollectionExists   = New(KindAlreadyExists, "", "collection already exists")
	ErrCollectionNotFound = New(KindNotFound, "", "collection not found")
	ErrDocumentNotFound   = New(KindNotFound, "", "vector not found")
	ErrDocumentExists     = New(KindAlreadyExists, "", "vector already exists")
	ErrInvalidDimension   = New(KindDimensionMismatch, "", "invalid vector dimension")
	ErrNotImplemented     = New(KindInvalidArgument, "", "not implemented")

	ErrMisMatchKeysAndValues = stderrors.New("keys and values length mismatch")
)
