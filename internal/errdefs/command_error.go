package errdefs

import "github.com/cockroachdb/errors"

// CommandError carries the exit code a failed command should terminate with.
type CommandError struct {
	exitCode int
	err      error
}

func NewCommandError(err error, exitCode int) *CommandError {
	return &CommandError{
		exitCode: exitCode,
		err:      err,
	}
}

func (e *CommandError) ExitCode() int {
	return e.exitCode
}

func (e *CommandError) HasError() bool {
	return e.err != nil
}

func (e *CommandError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.err
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode()
	}
	if IsConfiguration(err) {
		return ExitConfiguration
	}
	return ExitFailure
}
