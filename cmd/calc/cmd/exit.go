package cmd

import (
	"errors"
	"fmt"
)

// Exit codes for calc commands.
const (
	ExitSuccess = 0 // Successful execution
	ExitFailure = 1 // Evaluation failed (division by zero, overflow, failed batch steps)
	ExitUsage   = 2 // Bad arguments, flags or config
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

func failure(err error) error {
	return &ExitError{Code: ExitFailure, Err: err}
}

// exitCode extracts the exit code from an error.
// Errors that carry no code map to ExitFailure.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
