package execution

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	childStartErrorTemplateConstant = "execution.supervisor.start(%s): %w"
	childPipeErrorTemplateConstant  = "execution.supervisor.pipe(%s): %w"
	childStartedMessageConstant     = "child process started"
	childExitedMessageConstant      = "child process exited"
	childSignaledMessageConstant    = "signaling child process group"
	childIdentifierFieldConstant    = "child_id"
	childNameFieldConstant          = "child"
	childPidFieldConstant           = "pid"
	childSignalFieldConstant        = "signal"
	childExitCodeFieldConstant      = "exit_code"
)

// Child is a supervised process whose standard output is read by the caller.
type Child struct {
	ID     string
	Name   string
	Output io.ReadCloser

	command   *exec.Cmd
	waitOnce  sync.Once
	done      chan struct{}
	exitCode  int
	waitError error
}

// Wait reaps the process once its output has been drained and returns the
// exit code. A process killed by a signal reports -1.
func (child *Child) Wait() (int, error) {
	child.waitOnce.Do(func() {
		waitError := child.command.Wait()
		child.exitCode = 0
		if waitError != nil {
			var exitError *exec.ExitError
			if errors.As(waitError, &exitError) {
				child.exitCode = exitError.ExitCode()
			} else {
				child.exitCode = -1
				child.waitError = waitError
			}
		}
		close(child.done)
	})
	return child.exitCode, child.waitError
}

// IsRunning reports whether the child has not been reaped yet.
func (child *Child) IsRunning() bool {
	select {
	case <-child.done:
		return false
	default:
		return true
	}
}

// Supervisor starts children in their own process groups and terminates the
// groups of every child still running on request.
type Supervisor struct {
	mutex    sync.Mutex
	children []*Child
	logger   *zap.Logger
}

// NewSupervisor constructs an empty Supervisor.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{logger: logger}
}

// Start launches command with a piped standard output and tracks it.
func (supervisor *Supervisor) Start(name string, command *exec.Cmd) (*Child, error) {
	placeInProcessGroup(command)
	output, pipeError := command.StdoutPipe()
	if pipeError != nil {
		return nil, fmt.Errorf(childPipeErrorTemplateConstant, name, pipeError)
	}
	if startError := command.Start(); startError != nil {
		return nil, fmt.Errorf(childStartErrorTemplateConstant, name, startError)
	}

	child := &Child{
		ID:      uuid.NewString(),
		Name:    name,
		Output:  output,
		command: command,
		done:    make(chan struct{}),
	}
	supervisor.mutex.Lock()
	supervisor.children = append(supervisor.children, child)
	supervisor.mutex.Unlock()

	supervisor.logger.Debug(childStartedMessageConstant,
		zap.String(childIdentifierFieldConstant, child.ID),
		zap.String(childNameFieldConstant, name),
		zap.Int(childPidFieldConstant, command.Process.Pid),
	)
	return child, nil
}

// Children returns the tracked children in start order.
func (supervisor *Supervisor) Children() []*Child {
	supervisor.mutex.Lock()
	defer supervisor.mutex.Unlock()
	children := make([]*Child, len(supervisor.children))
	copy(children, supervisor.children)
	return children
}

// Running counts children that have not been reaped.
func (supervisor *Supervisor) Running() int {
	running := 0
	for _, child := range supervisor.Children() {
		if child.IsRunning() {
			running++
		}
	}
	return running
}

// TerminateAll sends SIGTERM to the process group of every running child.
func (supervisor *Supervisor) TerminateAll() {
	supervisor.signalRunning(syscall.SIGTERM, false)
}

// KillAll sends SIGKILL to the process group of every running child and
// closes its output so readers blocked on descendants holding the pipe return.
func (supervisor *Supervisor) KillAll() {
	supervisor.signalRunning(syscall.SIGKILL, true)
}

// ReportExit logs the exit of child.
func (supervisor *Supervisor) ReportExit(child *Child, exitCode int) {
	supervisor.logger.Debug(childExitedMessageConstant,
		zap.String(childIdentifierFieldConstant, child.ID),
		zap.String(childNameFieldConstant, child.Name),
		zap.Int(childExitCodeFieldConstant, exitCode),
	)
}

func (supervisor *Supervisor) signalRunning(signal syscall.Signal, closeOutput bool) {
	for _, child := range supervisor.Children() {
		if !child.IsRunning() {
			continue
		}
		supervisor.logger.Debug(childSignaledMessageConstant,
			zap.String(childIdentifierFieldConstant, child.ID),
			zap.String(childNameFieldConstant, child.Name),
			zap.String(childSignalFieldConstant, signal.String()),
		)
		_ = signalProcessGroup(child.command, signal)
		if closeOutput {
			_ = child.Output.Close()
		}
	}
}
