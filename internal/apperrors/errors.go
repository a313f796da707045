// Package apperrors defines the core's error taxonomy. Core code never
// imports net/http; the HTTP adapter maps Kind to a status code at its
// boundary.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by what kind of thing went wrong, not by
// which Go type represents it.
type Kind string

const (
	// KindValidation covers a malformed request: empty or over-length
	// keys. Reported as HTTP 400.
	KindValidation Kind = "validation"
	// KindNotFound covers a Get on an absent key. Not actually an error
	// condition for the core (Get returns ok=false, which the HTTP
	// handlers render as a 404); no core code path returns this Kind.
	KindNotFound Kind = "not_found"
	// KindIO covers a log file that could not be created, written, or
	// flushed. Reported as HTTP 500.
	KindIO Kind = "io"
	// KindReplay covers a malformed mid-file log record. Fatal: the
	// partition fails to start.
	KindReplay Kind = "replay"
	// KindShutdown covers a failure while stopping a partition. Logged
	// and discarded; shutdown always completes regardless.
	KindShutdown Kind = "shutdown"
)

// Error is the core's error type: a Kind plus an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// defaulting to KindIO for anything else. An unrecognized failure on
// the core's boundary is treated as an infrastructure problem, not a
// caller mistake.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindIO
}
