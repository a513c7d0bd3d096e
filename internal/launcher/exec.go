// Package launcher runs the consumer of the property file.
package launcher

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/cockroachdb/errors"

	"buildinfo/internal/errdefs"
)

// Command is the consumer to run, typically the build tool that hosts the
// recorder.
type Command struct {
	Target string
	Args   []string
}

// Exec replaces the current process with the target command.
// This function does not return on success. On failure, it returns an error.
func Exec(cmd Command, environ []string) error {
	execPath, err := exec.LookPath(cmd.Target)
	if err != nil {
		return err
	}

	argv := append([]string{cmd.Target}, cmd.Args...)

	// syscall.Exec does not return on success
	return syscall.Exec(execPath, argv, environ)
}

// ExitCode maps an Exec failure to the exit code reported for it.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return errdefs.ExitOK
	case IsNotFound(err):
		return errdefs.ExitNotFound
	case IsPermissionDenied(err):
		return errdefs.ExitPermissionDenied
	default:
		return errdefs.ExitFailure
	}
}

// IsNotFound checks if the error indicates the command was not found
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return os.IsNotExist(err) || errors.Is(err, exec.ErrNotFound)
}

// IsPermissionDenied checks if the error indicates permission was denied
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	return os.IsPermission(err) || errors.Is(err, os.ErrPermission)
}
