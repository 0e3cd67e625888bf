package taskrunner

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/run/internal/execshell"
	"github.com/tyemirov/run/internal/execution"
	"github.com/tyemirov/run/internal/faketty"
)

// DependenciesConfig captures providers required to build runner dependencies.
type DependenciesConfig struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	CommandRunner                execshell.CommandRunner
	Environment                  *execution.Environment
	Wrapper                      faketty.Wrapper
}

// DependenciesOptions allows per-command overrides when resolving dependencies.
type DependenciesOptions struct {
	Command *cobra.Command
	Input   io.Reader
	Output  io.Writer
	Errors  io.Writer
}

// Dependencies groups the collaborators of a Runner.
type Dependencies struct {
	Logger               *zap.Logger
	ShellExecutor        *execshell.ShellExecutor
	Environment          *execution.Environment
	Wrapper              faketty.Wrapper
	Input                io.Reader
	Output               io.Writer
	Errors               io.Writer
	HumanReadableLogging bool
}

// BuildDependencies resolves logging, shell and stream collaborators.
func BuildDependencies(config DependenciesConfig, options DependenciesOptions) (Dependencies, error) {
	logger := resolveLogger(config.LoggerProvider)
	humanReadable := false
	if config.HumanReadableLoggingProvider != nil {
		humanReadable = config.HumanReadableLoggingProvider()
	}

	errorWriter := resolveWriter(options.Errors, options.Command, false)
	commandRunner := config.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.ProcessRunner{StandardError: errorWriter}
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadable)
	if executorError != nil {
		return Dependencies{}, fmt.Errorf("taskrunner.dependencies.shell_executor: %w", executorError)
	}

	environment := config.Environment
	if environment == nil {
		environment = execution.ProcessEnvironment()
	}

	wrapper := config.Wrapper
	if wrapper == nil {
		wrapper = faketty.PassThrough{}
	}

	return Dependencies{
		Logger:               logger,
		ShellExecutor:        shellExecutor,
		Environment:          environment,
		Wrapper:              wrapper,
		Input:                resolveReader(options.Input, options.Command),
		Output:               resolveWriter(options.Output, options.Command, true),
		Errors:               errorWriter,
		HumanReadableLogging: humanReadable,
	}, nil
}

func resolveLogger(provider func() *zap.Logger) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveReader(provided io.Reader, command *cobra.Command) io.Reader {
	if provided != nil {
		return provided
	}
	if command != nil {
		if reader := command.InOrStdin(); reader != nil {
			return reader
		}
	}
	return os.Stdin
}

func resolveWriter(provided io.Writer, command *cobra.Command, useStdout bool) io.Writer {
	if provided != nil {
		return provided
	}
	if command != nil {
		if useStdout {
			if writer := command.OutOrStdout(); writer != nil && writer != io.Discard {
				return writer
			}
		} else {
			if writer := command.ErrOrStderr(); writer != nil && writer != io.Discard {
				return writer
			}
		}
	}
	if useStdout {
		return os.Stdout
	}
	return os.Stderr
}
