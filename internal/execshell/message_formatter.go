package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant         = "Running %s"
	completedMessageTemplateConstant       = "Completed %s"
	failedMessageTemplateConstant          = "%s failed with exit code %d"
	failedDetailMessageTemplateConstant    = "%s failed with exit code %d: %s"
	executionFailedMessageTemplateConstant = "%s failed: %v"
	subjectWithNameTemplateConstant        = "%s (%s)"
	anonymousSubjectNameConstant           = "anonymous task"
)

// CommandMessageFormatter renders human-readable lifecycle messages.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.subject(command))
}

// BuildSuccessMessage describes a command that exited with status zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(completedMessageTemplateConstant, formatter.subject(command))
}

// BuildFailureMessage describes a command that exited with a non-zero status.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	detail := firstLine(result.StandardError)
	if len(detail) == 0 {
		return fmt.Sprintf(failedMessageTemplateConstant, formatter.subject(command), result.ExitCode)
	}
	return fmt.Sprintf(failedDetailMessageTemplateConstant, formatter.subject(command), result.ExitCode, detail)
}

// BuildExecutionFailureMessage describes a command the runner could not start or finish.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, cause error) string {
	return fmt.Sprintf(executionFailedMessageTemplateConstant, formatter.subject(command), cause)
}

func (formatter CommandMessageFormatter) subject(command ShellCommand) string {
	name := strings.TrimSpace(command.Name)
	if len(name) == 0 {
		name = anonymousSubjectNameConstant
	}
	return fmt.Sprintf(subjectWithNameTemplateConstant, name, command.Script)
}

func firstLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if index := strings.IndexByte(trimmed, '\n'); index >= 0 {
		return strings.TrimSpace(trimmed[:index])
	}
	return trimmed
}
