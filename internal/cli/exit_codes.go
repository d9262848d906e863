package cli

import (
	"context"
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/relnotes/internal/errors"
)

// Exit codes for the relnotes CLI
// These codes let CI pipelines tell configuration problems from empty ranges
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (git, render, write)
	ExitFailure = 1

	// ExitConfigError indicates an invalid config file, template or taxonomy
	ExitConfigError = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingPrerequisite indicates a missing repository, tag, or commits
	ExitMissingPrerequisite = 4

	// ExitTimeout indicates a tag push timed out
	ExitTimeout = 5
)

// ExitError carries an exit code for errors that were already reported.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError returns an error that makes the process exit with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeout
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Configuration:
			return ExitConfigError
		case clierrors.Prerequisite:
			return ExitMissingPrerequisite
		}
	}
	return ExitFailure
}
