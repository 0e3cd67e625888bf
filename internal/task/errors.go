package task

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguousDescriptor marks descriptor shapes that cannot be resolved to one task.
var ErrAmbiguousDescriptor = errors.New("ambiguous descriptor")

// ConfigurationError reports a malformed descriptor entry.
type ConfigurationError struct {
	Task   string
	Line   int
	Reason string
	Cause  error
}

// Error describes the malformed entry with its location.
func (configurationError ConfigurationError) Error() string {
	subject := strings.TrimSpace(configurationError.Task)
	if len(subject) == 0 {
		subject = "(anonymous)"
	}
	if configurationError.Line > 0 {
		return fmt.Sprintf("invalid task %q at line %d: %s", subject, configurationError.Line, configurationError.Reason)
	}
	return fmt.Sprintf("invalid task %q: %s", subject, configurationError.Reason)
}

// Unwrap exposes the underlying classification.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// AmbiguousNameError reports sibling tasks sharing a name.
type AmbiguousNameError struct {
	Parent string
	Name   string
}

// Error describes the ambiguous navigation step.
func (ambiguousError AmbiguousNameError) Error() string {
	if len(ambiguousError.Parent) == 0 {
		return fmt.Sprintf("%s: task %q is defined more than once", ErrAmbiguousDescriptor, ambiguousError.Name)
	}
	return fmt.Sprintf("%s: task %q is defined more than once under %q", ErrAmbiguousDescriptor, ambiguousError.Name, ambiguousError.Parent)
}

// Unwrap exposes ErrAmbiguousDescriptor.
func (ambiguousError AmbiguousNameError) Unwrap() error {
	return ErrAmbiguousDescriptor
}
