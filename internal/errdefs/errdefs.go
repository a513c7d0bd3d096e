// Package errdefs defines the failure classes of a build-info run and the
// process exit codes they map to.
package errdefs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Exit codes returned by the buildinfo command.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitConfiguration    = 3
	ExitPermissionDenied = 126
	ExitNotFound         = 127
)

// ConfigurationError reports an unresolved server, missing identity fields or
// an unusable job file. It is fatal for the current build setup.
type ConfigurationError struct {
	Reason string
	cause  error
}

func (e *ConfigurationError) Error() string {
	if e.cause != nil {
		return e.Reason + ": " + e.cause.Error()
	}
	return e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.cause
}

// Configurationf creates a ConfigurationError with a formatted reason.
func Configurationf(format string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{Reason: fmt.Sprintf(format, args...)})
}

// WrapConfiguration classifies err as a configuration failure. A nil err
// stays nil.
func WrapConfiguration(err error, reason string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&ConfigurationError{Reason: reason, cause: err})
}

// IOError reports that a file could not be created, read or written.
type IOError struct {
	Op    string
	Path  string
	cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Path, e.cause)
}

func (e *IOError) Unwrap() error {
	return e.cause
}

// NewIOError wraps err as an IOError. A nil err stays nil.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&IOError{Op: op, Path: path, cause: err})
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsIO reports whether err is, or wraps, an IOError.
func IsIO(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// ResolutionWarning is a non-fatal finding made while resolving inputs.
// Assembly continues; the warning is reported to the caller.
type ResolutionWarning struct {
	Subject string
	Message string
}

func (w ResolutionWarning) String() string {
	return w.Subject + ": " + w.Message
}
