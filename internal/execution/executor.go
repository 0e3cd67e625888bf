package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tyemirov/run/internal/console"
	"github.com/tyemirov/run/internal/execshell"
	"github.com/tyemirov/run/internal/faketty"
	"github.com/tyemirov/run/internal/plan"
	"github.com/tyemirov/run/internal/task"
)

const (
	// DefaultTerminationGrace is the delay between SIGTERM and SIGKILL.
	DefaultTerminationGrace = 2 * time.Second
	// DefaultPollInterval bounds each wait of the multiplex controller loop.
	DefaultPollInterval = 100 * time.Millisecond

	shellCommandFlagConstant         = "-c"
	dotenvLoadErrorTemplateConstant  = "execution.runvars: %w"
	unsupportedModeTemplateConstant  = "%w: %s"
	executionStartedMessageConstant  = "execution started"
	executionFinishedMessageConstant = "execution finished"
	variableResolvedMessageConstant  = "variable resolved"
	dotenvLoadedMessageConstant      = "dotenv variables loaded"
	runIdentifierFieldConstant       = "run_id"
	modeFieldConstant                = "mode"
	commandCountFieldConstant        = "commands"
	variableFieldConstant            = "variable"
	variablesFieldConstant           = "variables"
	pathFieldConstant                = "path"
	durationFieldConstant            = "duration"
)

// Options tunes process handling.
type Options struct {
	Shell            string
	TerminationGrace time.Duration
	PollInterval     time.Duration
	Wrapper          faketty.Wrapper
}

// Dependencies wires the executor to its collaborators. Nil values select
// the process defaults.
type Dependencies struct {
	Logger        *zap.Logger
	ShellExecutor *execshell.ShellExecutor
	Environment   *Environment
	Input         io.Reader
	Output        io.Writer
	Errors        io.Writer
}

// Outcome summarizes one Execute call.
type Outcome struct {
	RunID           string
	CommandsStarted int
	Duration        time.Duration
}

// Executor runs execution plans.
type Executor struct {
	logger        *zap.Logger
	shellExecutor *execshell.ShellExecutor
	environment   *Environment
	input         io.Reader
	output        io.Writer
	errors        io.Writer
	styler        *console.Styler
	options       Options
}

// NewExecutor constructs an Executor.
func NewExecutor(dependencies Dependencies, options Options) (*Executor, error) {
	if dependencies.ShellExecutor == nil {
		return nil, ErrShellExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	environment := dependencies.Environment
	if environment == nil {
		environment = ProcessEnvironment()
	}
	output := dependencies.Output
	if output == nil {
		output = os.Stdout
	}
	errorOutput := dependencies.Errors
	if errorOutput == nil {
		errorOutput = os.Stderr
	}
	if len(strings.TrimSpace(options.Shell)) == 0 {
		options.Shell = execshell.DefaultShellPath
	}
	if options.TerminationGrace <= 0 {
		options.TerminationGrace = DefaultTerminationGrace
	}
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.Wrapper == nil {
		options.Wrapper = faketty.PassThrough{}
	}

	return &Executor{
		logger:        logger,
		shellExecutor: dependencies.ShellExecutor,
		environment:   environment,
		input:         dependencies.Input,
		output:        output,
		errors:        errorOutput,
		styler:        console.NewStyler(output),
		options:       options,
	}, nil
}

// Environment exposes the variables handed to spawned commands.
func (executor *Executor) Environment() *Environment {
	return executor.environment
}

// Execute resolves the plan variables, exports the pass-through arguments and
// runs the remaining commands under the plan mode.
func (executor *Executor) Execute(executionContext context.Context, executionPlan plan.ExecutionPlan, argv []string, quiet bool) (Outcome, error) {
	outcome := Outcome{RunID: uuid.NewString()}
	reporter := newProgressReporter(executor.output, quiet)
	logger := executor.logger.With(zap.String(runIdentifierFieldConstant, outcome.RunID))

	var exportedNames []string
	lastValue := ""
	resolvedAny := false
	for _, command := range executionPlan.VariableCommands() {
		value, resolveError := executor.resolveVariable(executionContext, command)
		if resolveError != nil {
			return outcome, resolveError
		}
		executor.environment.Set(command.Variable, value)
		exportedNames = append(exportedNames, command.Variable)
		lastValue = value
		resolvedAny = true
		logger.Debug(variableResolvedMessageConstant, zap.String(variableFieldConstant, command.Variable))
	}

	executor.environment.SetArguments(argv)
	if dotenvPath, exists := executor.environment.Lookup(dotenvPathVariableNameConstant); exists && len(strings.TrimSpace(dotenvPath)) > 0 {
		loadedNames, loadError := executor.environment.LoadDotenv(dotenvPath)
		if loadError != nil {
			return outcome, fmt.Errorf(dotenvLoadErrorTemplateConstant, loadError)
		}
		logger.Debug(dotenvLoadedMessageConstant, zap.String(pathFieldConstant, dotenvPath), zap.Strings(variablesFieldConstant, loadedNames))
	}

	generalCommands := executionPlan.GeneralCommands()
	if len(generalCommands) == 0 {
		if resolvedAny {
			fmt.Fprintln(executor.output, lastValue)
		}
		return outcome, nil
	}

	reporter.Prepared(executor.environment, append(exportedNames, runArgumentsVariableNameConstant))
	logger.Debug(executionStartedMessageConstant,
		zap.String(modeFieldConstant, string(executionPlan.Mode)),
		zap.Int(commandCountFieldConstant, len(generalCommands)),
	)

	startedAt := time.Now()
	var runError error
	switch executionPlan.Mode {
	case task.KindDirective:
		outcome.CommandsStarted = 1
		runError = executor.runAttached(executionContext, generalCommands[0], reporter)
	case task.KindSequence:
		outcome.CommandsStarted, runError = executor.runSequence(executionContext, generalCommands, reporter)
	case task.KindParallel:
		outcome.CommandsStarted = len(generalCommands)
		runError = executor.runParallel(executionContext, generalCommands, reporter)
	case task.KindMultiplex:
		outcome.CommandsStarted = len(generalCommands)
		runError = executor.runMultiplex(executionContext, generalCommands, reporter, logger)
	default:
		return outcome, fmt.Errorf(unsupportedModeTemplateConstant, ErrUnsupportedMode, executionPlan.Mode)
	}
	outcome.Duration = time.Since(startedAt)

	logger.Debug(executionFinishedMessageConstant,
		zap.Duration(durationFieldConstant, outcome.Duration),
		zap.Error(runError),
	)
	return outcome, runError
}

func (executor *Executor) resolveVariable(executionContext context.Context, command plan.Command) (string, error) {
	result, executionError := executor.shellExecutor.Execute(executionContext, execshell.ShellCommand{
		Name:   command.Name,
		Script: command.Code,
		Details: execshell.CommandDetails{
			Shell:       executor.options.Shell,
			Environment: executor.environment.Environ(),
		},
	})
	if executionError != nil {
		failure := CommandFailure{Name: command.Name, Code: command.Code, ExitCode: -1, Cause: executionError}
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			failure.ExitCode = failedError.Result.ExitCode
		}
		return "", failure
	}
	return strings.TrimRightFunc(result.StandardOutput, unicode.IsSpace), nil
}

func (executor *Executor) shellArguments(code string) []string {
	return []string{executor.options.Shell, shellCommandFlagConstant, code}
}
