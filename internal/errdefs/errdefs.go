// Package errdefs defines the error types returned by the archiver.
//
// There are three kinds of failure:
//   - ValidationError: bad input detected before or at the start of an
//     operation (paths, retry settings, compression mode). Never retried.
//   - IOError: a file could not be opened after every retry attempt.
//   - FormatError: the archive header or metadata block could not be read.
//     Every FormatError matches ErrCorrupted via errors.Is.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupted is matched by every FormatError.
	ErrCorrupted = errors.New("archive is corrupted")

	// ErrCompressionMismatch is wrapped by the ValidationError returned when
	// an append requests a compression mode different from the archive's.
	ErrCompressionMismatch = errors.New("compression setting differs from the archive")
)

// ValidationError reports an input that was rejected before any work was
// done.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid is shorthand for constructing a ValidationError.
func Invalid(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IOError reports a file that could not be opened after exhausting the
// retry policy. Err is the error from the last attempt.
type IOError struct {
	Path     string
	Mode     string
	Attempts int
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("could not %s using the path: %s (%d attempts): %v", e.Mode, e.Path, e.Attempts, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError reports an archive whose header or metadata could not be
// parsed. Truncation and malformed bytes are not distinguished.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to load archive %s, perhaps the file is corrupted: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports true for ErrCorrupted so callers need not know the cause.
func (e *FormatError) Is(target error) bool { return target == ErrCorrupted }
