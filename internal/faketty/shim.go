// Package faketty runs a command under a pseudo-terminal so that programs
// which buffer their output when writing to a pipe flush it line by line.
//
// The runner re-invokes its own executable with SubcommandName; the Driver
// then owns the pseudo-terminal and copies everything the command prints to
// standard output.
package faketty

import (
	"errors"
)

const (
	// SubcommandName is the hidden argument selecting the pseudo-terminal driver.
	SubcommandName = "__faketty"

	argumentSeparatorConstant = "--"
)

// ErrCommandMissing indicates the driver was invoked without a command.
var ErrCommandMissing = errors.New("faketty: command not provided")

// Wrapper transforms a command line before it is spawned.
type Wrapper interface {
	Wrap(argv []string) []string
}

// Shim wraps command lines with the pseudo-terminal driver of Executable.
type Shim struct {
	Executable string
}

// NewShim constructs a Shim re-entering executable.
func NewShim(executable string) Shim {
	return Shim{Executable: executable}
}

// Wrap returns the command line running argv under the driver.
func (shim Shim) Wrap(argv []string) []string {
	wrapped := make([]string, 0, len(argv)+3)
	wrapped = append(wrapped, shim.Executable, SubcommandName, argumentSeparatorConstant)
	return append(wrapped, argv...)
}

// PassThrough leaves command lines untouched.
type PassThrough struct{}

// Wrap returns a copy of argv.
func (PassThrough) Wrap(argv []string) []string {
	wrapped := make([]string, len(argv))
	copy(wrapped, argv)
	return wrapped
}

// ParseArguments extracts the wrapped command line from the arguments that
// follow SubcommandName.
func ParseArguments(arguments []string) ([]string, error) {
	if len(arguments) > 0 && arguments[0] == argumentSeparatorConstant {
		arguments = arguments[1:]
	}
	if len(arguments) == 0 {
		return nil, ErrCommandMissing
	}
	command := make([]string, len(arguments))
	copy(command, arguments)
	return command, nil
}
