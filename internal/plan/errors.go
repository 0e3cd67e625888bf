package plan

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound indicates argv does not name a task of the descriptor.
var ErrTaskNotFound = errors.New("task not found")

// NavigationError reports an argv token that matches no task at the root.
type NavigationError struct {
	Token string
}

// Error describes the unmatched token.
func (navigationError NavigationError) Error() string {
	return fmt.Sprintf("Task %q not found", navigationError.Token)
}

// Unwrap exposes ErrTaskNotFound.
func (navigationError NavigationError) Unwrap() error {
	return ErrTaskNotFound
}
