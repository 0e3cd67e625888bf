package execution

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/run/internal/plan"
)

const (
	carriageReturnConstant              = "\r"
	lineFeedConstant                    = "\n"
	multiplexTerminatingMessageConstant = "terminating multiplexed commands"
	runningFieldConstant                = "running"
	failedCommandFieldConstant          = "failed_command"
)

// runAttached runs a command with the executor's standard streams and waits
// for it. Cancellation sends SIGTERM and escalates after the grace period.
func (executor *Executor) runAttached(executionContext context.Context, command plan.Command, reporter progressReporter) error {
	reporter.Launched(command.Code)
	arguments := executor.shellArguments(command.Code)
	process := exec.CommandContext(executionContext, arguments[0], arguments[1:]...)
	process.Env = executor.environment.Environ()
	process.Stdin = executor.input
	process.Stdout = executor.output
	process.Stderr = executor.errors
	process.Cancel = func() error {
		return process.Process.Signal(syscall.SIGTERM)
	}
	process.WaitDelay = executor.options.TerminationGrace
	return commandFailure(command, process.Run())
}

// runSequence runs commands in order and stops at the first failure.
func (executor *Executor) runSequence(executionContext context.Context, commands []plan.Command, reporter progressReporter) (int, error) {
	for commandIndex, command := range commands {
		if runError := executor.runAttached(executionContext, command, reporter); runError != nil {
			return commandIndex + 1, runError
		}
	}
	return len(commands), nil
}

// runParallel starts every command at once, buffers each command's combined
// output and writes it as one block when the command finishes. The first
// failure cancels the group: the process groups of the others get SIGTERM and
// then SIGKILL after the grace period.
func (executor *Executor) runParallel(executionContext context.Context, commands []plan.Command, reporter progressReporter) error {
	group, groupContext := errgroup.WithContext(executionContext)
	var outputMutex sync.Mutex

	processes := make([]*exec.Cmd, 0, len(commands))
	terminators := make([]*groupTerminator, 0, len(commands))
	buffers := make([]*bytes.Buffer, 0, len(commands))
	for _, command := range commands {
		reporter.Launched(command.Code)
		arguments := executor.shellArguments(command.Code)
		process := exec.CommandContext(groupContext, arguments[0], arguments[1:]...)
		process.Env = executor.environment.Environ()
		combined := &bytes.Buffer{}
		process.Stdout = combined
		process.Stderr = combined
		placeInProcessGroup(process)
		terminator := newGroupTerminator(process, executor.options.TerminationGrace)
		process.Cancel = terminator.Terminate
		process.WaitDelay = executor.options.TerminationGrace
		processes = append(processes, process)
		terminators = append(terminators, terminator)
		buffers = append(buffers, combined)
	}

	for processIndex := range processes {
		process := processes[processIndex]
		terminator := terminators[processIndex]
		combined := buffers[processIndex]
		command := commands[processIndex]
		group.Go(func() error {
			runError := process.Run()
			terminator.Release()
			outputMutex.Lock()
			_, _ = executor.output.Write(combined.Bytes())
			outputMutex.Unlock()
			return commandFailure(command, runError)
		})
	}

	// errgroup keeps the first error; siblings fail only after it cancels them.
	return group.Wait()
}

type multiplexEvent struct {
	slot     int
	line     string
	exited   bool
	exitCode int
	cause    error
}

// runMultiplex starts every command under the pseudo-terminal wrapper and
// prints their output line by line, each line prefixed with the command name
// in the command's palette color. The first failure terminates the others.
func (executor *Executor) runMultiplex(executionContext context.Context, commands []plan.Command, reporter progressReporter, logger *zap.Logger) error {
	supervisor := NewSupervisor(logger)
	events := make(chan multiplexEvent)
	var readers conc.WaitGroup
	defer readers.Wait()

	for slot, command := range commands {
		reporter.Launched(command.Code)
		arguments := executor.options.Wrapper.Wrap(executor.shellArguments(command.Code))
		process := exec.Command(arguments[0], arguments[1:]...)
		process.Env = executor.environment.Environ()
		process.Stderr = executor.errors
		child, startError := supervisor.Start(command.Name, process)
		if startError != nil {
			supervisor.KillAll()
			go drainEvents(events)
			readers.Wait()
			close(events)
			return commandFailure(command, startError)
		}
		readers.Go(func() {
			streamChildOutput(slot, child, supervisor, events)
		})
	}

	ticker := time.NewTicker(executor.options.PollInterval)
	defer ticker.Stop()

	var failure error
	var killDeadline time.Time
	cancelled := executionContext.Done()
	live := len(commands)
	for live > 0 {
		select {
		case event := <-events:
			if !event.exited {
				executor.printMultiplexLine(event.slot, commands[event.slot].Name, event.line)
				continue
			}
			live--
			if event.exitCode == 0 && event.cause == nil {
				continue
			}
			if failure == nil {
				failure = CommandFailure{
					Name:     commands[event.slot].Name,
					Code:     commands[event.slot].Code,
					ExitCode: event.exitCode,
					Cause:    event.cause,
				}
				if killDeadline.IsZero() {
					logger.Debug(multiplexTerminatingMessageConstant, zap.String(failedCommandFieldConstant, commands[event.slot].Name), zap.Int(runningFieldConstant, supervisor.Running()))
					supervisor.TerminateAll()
					killDeadline = time.Now().Add(executor.options.TerminationGrace)
				}
			}
		case <-ticker.C:
			if !killDeadline.IsZero() && time.Now().After(killDeadline) {
				supervisor.KillAll()
			}
		case <-cancelled:
			cancelled = nil
			if killDeadline.IsZero() {
				supervisor.TerminateAll()
				killDeadline = time.Now().Add(executor.options.TerminationGrace)
			}
		}
	}

	if failure == nil && executionContext.Err() != nil {
		return executionContext.Err()
	}
	return failure
}

func (executor *Executor) printMultiplexLine(slot int, name string, line string) {
	_, _ = io.WriteString(executor.output, executor.styler.Prefix(slot, name)+line+lineFeedConstant)
}

// streamChildOutput forwards complete lines of child and then its exit
// status, so each child's events stay in order.
func streamChildOutput(slot int, child *Child, supervisor *Supervisor, events chan<- multiplexEvent) {
	reader := bufio.NewReader(child.Output)
	for {
		line, readError := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, lineFeedConstant)
			line = strings.TrimSuffix(line, carriageReturnConstant)
			events <- multiplexEvent{slot: slot, line: line}
		}
		if readError != nil {
			break
		}
	}
	exitCode, waitError := child.Wait()
	supervisor.ReportExit(child, exitCode)
	events <- multiplexEvent{slot: slot, exited: true, exitCode: exitCode, cause: waitError}
}

func drainEvents(events <-chan multiplexEvent) {
	for range events {
	}
}

func commandFailure(command plan.Command, runError error) error {
	if runError == nil {
		return nil
	}
	failure := CommandFailure{Name: command.Name, Code: command.Code, ExitCode: -1, Cause: runError}
	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		failure.ExitCode = exitError.ExitCode()
	}
	return failure
}
