package execution

import (
	"errors"
	"fmt"
)

const (
	commandFailureTemplateConstant     = "Command \"%s\" has failed"
	taskCommandFailureTemplateConstant = "Task \"%s\": command \"%s\" has failed"
)

var (
	// ErrUnsupportedMode indicates a plan mode the executor cannot run.
	ErrUnsupportedMode = errors.New("unsupported execution mode")
	// ErrShellExecutorNotConfigured indicates the variable resolver is missing.
	ErrShellExecutorNotConfigured = errors.New("execution shell executor not configured")
)

// CommandFailure reports a command that exited non-zero or could not run.
type CommandFailure struct {
	Name     string
	Code     string
	ExitCode int
	Cause    error
}

// Error names the failed task by its qualified name and shell snippet.
// Anonymous commands are named by the snippet alone.
func (failure CommandFailure) Error() string {
	if len(failure.Name) == 0 {
		return fmt.Sprintf(commandFailureTemplateConstant, failure.Code)
	}
	return fmt.Sprintf(taskCommandFailureTemplateConstant, failure.Name, failure.Code)
}

// Unwrap exposes the underlying process error, if any.
func (failure CommandFailure) Unwrap() error {
	return failure.Cause
}
