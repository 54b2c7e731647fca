package cli

import "errors"

// Process exit codes.
const (
	ExitOK = 0
	// ExitStartup covers configuration, credential and submission failures.
	ExitStartup = 1
	// ExitDegraded means a run ended early on a backend error.
	ExitDegraded = 2
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitStartup
}
