package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

const shellCommandFlagConstant = "-c"

// ProcessRunner runs scripts through a shell interpreter with os/exec.
// Standard error is captured and, when StandardError is set, also streamed.
type ProcessRunner struct {
	StandardError io.Writer
}

// Run executes the script and reports its exit status. A non-zero exit is a
// result, not an error; errors describe processes that could not run.
func (runner ProcessRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, command.ShellPath(), shellCommandFlagConstant, command.Script)
	process.Env = command.Details.Environment
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError
	if runner.StandardError != nil {
		process.Stderr = io.MultiWriter(&standardError, runner.StandardError)
	}

	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
	}
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) && exitError.ExitCode() >= 0 {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return result, runError
}
