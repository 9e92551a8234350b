package cli

import (
	stderrors "errors"

	"github.com/robinvdvleuten/financetree/branch"
)

// Exit codes returned by the financetree binary.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitPersistence  = 2
	ExitInconsistent = 3
)

// CommandError signals a command failure with a specific exit code.
// Commands return this after handling all output (printing errors/warnings to stderr).
// Main centralizes exit handling instead of commands calling os.Exit directly.
type CommandError struct {
	exitCode int
}

// NewCommandError creates a new CommandError with the given exit code.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return "command failed"
}

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// ExitCode maps err to the process exit code. A failed write leaves the
// files untouched and exits 2; a failed rollback exits 3.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cmdErr *CommandError
	if stderrors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}
	switch branch.KindOf(err) {
	case branch.KindInconsistentState:
		return ExitInconsistent
	case branch.KindPersistence:
		return ExitPersistence
	default:
		return ExitFailure
	}
}
