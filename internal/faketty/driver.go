package faketty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

const (
	startErrorTemplateConstant = "faketty.start(%s): %w"
	copyErrorTemplateConstant  = "faketty.copy: %w"
	waitErrorTemplateConstant  = "faketty.wait: %w"
	failureExitCodeConstant    = 1
	signalExitCodeBaseConstant = 128
)

// Driver runs a command under a pseudo-terminal.
type Driver struct {
	Output io.Writer
	// SizeSource provides the window size when it is a terminal.
	SizeSource *os.File
}

// Run starts argv attached to a new pseudo-terminal, copies its output to
// Output until the terminal closes, and returns the command's exit code.
// SIGINT and SIGTERM received meanwhile are forwarded to the command.
func (driver Driver) Run(executionContext context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return failureExitCodeConstant, ErrCommandMissing
	}
	output := driver.Output
	if output == nil {
		output = os.Stdout
	}

	command := exec.CommandContext(executionContext, argv[0], argv[1:]...)
	terminal, startError := pty.StartWithSize(command, driver.windowSize())
	if startError != nil {
		return failureExitCodeConstant, fmt.Errorf(startErrorTemplateConstant, argv[0], startError)
	}
	defer terminal.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	forwardingDone := make(chan struct{})
	defer close(forwardingDone)
	go func() {
		for {
			select {
			case received := <-signals:
				_ = command.Process.Signal(received)
			case <-forwardingDone:
				return
			}
		}
	}()

	copyResult := make(chan error, 1)
	go func() {
		_, copyError := io.Copy(output, terminal)
		copyResult <- copyError
	}()

	waitError := command.Wait()
	if copyError := <-copyResult; copyError != nil && !isTerminalClosed(copyError) {
		return failureExitCodeConstant, fmt.Errorf(copyErrorTemplateConstant, copyError)
	}
	return exitCode(waitError)
}

func (driver Driver) windowSize() *pty.Winsize {
	if driver.SizeSource == nil {
		return nil
	}
	descriptor := int(driver.SizeSource.Fd())
	if !term.IsTerminal(descriptor) {
		return nil
	}
	columns, rows, sizeError := term.GetSize(descriptor)
	if sizeError != nil || columns <= 0 || rows <= 0 {
		return nil
	}
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(columns)}
}

// isTerminalClosed reports the read error Linux returns once every slave
// descriptor of the pseudo-terminal is closed.
func isTerminalClosed(readError error) bool {
	return errors.Is(readError, syscall.EIO) || errors.Is(readError, os.ErrClosed)
}

func exitCode(waitError error) (int, error) {
	if waitError == nil {
		return 0, nil
	}
	var exitError *exec.ExitError
	if !errors.As(waitError, &exitError) {
		return failureExitCodeConstant, fmt.Errorf(waitErrorTemplateConstant, waitError)
	}
	if status, isWaitStatus := exitError.Sys().(syscall.WaitStatus); isWaitStatus && status.Signaled() {
		return signalExitCodeBaseConstant + int(status.Signal()), nil
	}
	if exitError.ExitCode() < 0 {
		return failureExitCodeConstant, nil
	}
	return exitError.ExitCode(), nil
}

// Main runs the driver for the arguments following SubcommandName and
// returns the process exit code.
func Main(arguments []string, standardOutput *os.File, standardError io.Writer) int {
	argv, parseError := ParseArguments(arguments)
	if parseError != nil {
		fmt.Fprintln(standardError, parseError)
		return failureExitCodeConstant
	}
	driver := Driver{Output: standardOutput, SizeSource: os.Stdin}
	code, runError := driver.Run(context.Background(), argv)
	if runError != nil {
		fmt.Fprintln(standardError, runError)
	}
	return code
}
