// Package kiteerr defines the abstract error taxonomy shared by every
// KiteDB subsystem: storage, the record codec, the index, the graph
// manager, the WAL, and the query pipeline all fail through the same
// small set of kinds so callers can branch on cause instead of string
// matching.
package kiteerr

import (
	"errors"
	"fmt"
)

// Kind is one of the abstract failure categories from the engine's
// error taxonomy. It is never a concrete type name.
type Kind int

const (
	// InvalidArgument covers bad page ids, wrong-sized writes, and
	// empty required fields (e.g. a relationship with no type).
	InvalidArgument Kind = iota
	// NotFound covers an index miss for a node, edge, or label.
	NotFound
	// NotActive covers an entity present in the index but deleted.
	NotActive
	// Malformed covers an unknown codec version or a buffer exhausted
	// mid-record.
	Malformed
	// ParseError covers an unexpected token during lexing or parsing.
	ParseError
	// TypeError covers a literal whose type does not match the
	// declared property tag.
	TypeError
	// IoError covers underlying file I/O failures.
	IoError
	// RecordTooLarge covers a serialized record longer than the page
	// size.
	RecordTooLarge
	// DuplicateId covers an index insert where the key already
	// exists.
	DuplicateId
	// UnknownTransaction covers an operation recorded or committed
	// against a transaction id the WAL never began.
	UnknownTransaction
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case NotActive:
		return "NotActive"
	case Malformed:
		return "Malformed"
	case ParseError:
		return "ParseError"
	case TypeError:
		return "TypeError"
	case IoError:
		return "IoError"
	case RecordTooLarge:
		return "RecordTooLarge"
	case DuplicateId:
		return "DuplicateId"
	case UnknownTransaction:
		return "UnknownTransaction"
	default:
		return "Unknown"
	}
}

// KiteError wraps a failure with its kind, the operation that produced
// it, and (optionally) the underlying cause.
type KiteError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *KiteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *KiteError) Unwrap() error { return e.Err }

// New builds a KiteError with no wrapped cause.
func New(kind Kind, op, msg string) error {
	return &KiteError{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap builds a KiteError around an existing error.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &KiteError{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or any error it wraps) carries the given
// Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var ke *KiteError
		if !errors.As(err, &ke) {
			return false
		}
		if ke.Kind == kind {
			return true
		}
		err = ke.Err
	}
	return false
}
