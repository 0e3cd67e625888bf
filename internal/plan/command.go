package plan

import (
	"fmt"
	"strings"

	"github.com/tyemirov/run/internal/task"
)

const (
	// ArgumentsTokenConstant is replaced by the shell with the pass-through arguments.
	ArgumentsTokenConstant = "$ARGUMENTS"

	explainVariableTemplateConstant = "%s=\"%s\""
	explainLineTemplateConstant     = "%s$ %s"
	explainHeaderTemplateConstant   = "[%s]"
	explainIndentConstant           = "    "
	explainLineSeparatorConstant    = "\n"
)

// Command is a single shell snippet selected for execution.
type Command struct {
	Name     string
	Code     string
	Variable string
}

// IsVariable reports whether the command output is captured into Variable.
func (command Command) IsVariable() bool {
	return len(command.Variable) > 0
}

// ExecutionPlan is the ordered list of commands for one invocation.
type ExecutionPlan struct {
	Commands []Command
	Mode     task.Kind
}

// VariableCommands returns the commands that capture environment variables.
func (executionPlan ExecutionPlan) VariableCommands() []Command {
	var variables []Command
	for _, command := range executionPlan.Commands {
		if command.IsVariable() {
			variables = append(variables, command)
		}
	}
	return variables
}

// GeneralCommands returns the commands that run under the plan mode.
func (executionPlan ExecutionPlan) GeneralCommands() []Command {
	var general []Command
	for _, command := range executionPlan.Commands {
		if !command.IsVariable() {
			general = append(general, command)
		}
	}
	return general
}

// Explain renders the plan as shell-like lines. Variable assignments come
// first; composite modes print a bracketed header before the first general
// command and indent everything after it.
func (executionPlan ExecutionPlan) Explain() string {
	lines := make([]string, 0, len(executionPlan.Commands)+1)
	plain := true
	grouped := executionPlan.Mode == task.KindSequence || executionPlan.Mode.IsConcurrent()
	for _, command := range executionPlan.Commands {
		if grouped && !command.IsVariable() && plain {
			lines = append(lines, fmt.Sprintf(explainHeaderTemplateConstant, strings.ToUpper(string(executionPlan.Mode))))
			plain = false
		}
		code := command.Code
		if command.IsVariable() {
			code = fmt.Sprintf(explainVariableTemplateConstant, command.Variable, command.Code)
		}
		indent := ""
		if !plain {
			indent = explainIndentConstant
		}
		lines = append(lines, fmt.Sprintf(explainLineTemplateConstant, indent, code))
	}
	return strings.Join(lines, explainLineSeparatorConstant)
}

// applyArgumentsPolicy keeps $ARGUMENTS in the first general command that
// references it and strips it from every other general command. When no
// general command references it, it is appended to the first one.
func applyArgumentsPolicy(commands []Command) {
	keeperIndex := -1
	for commandIndex := range commands {
		if commands[commandIndex].IsVariable() {
			continue
		}
		if !strings.Contains(commands[commandIndex].Code, ArgumentsTokenConstant) {
			continue
		}
		if keeperIndex < 0 {
			keeperIndex = commandIndex
			continue
		}
		commands[commandIndex].Code = strings.ReplaceAll(commands[commandIndex].Code, ArgumentsTokenConstant, "")
	}
	if keeperIndex >= 0 {
		return
	}
	for commandIndex := range commands {
		if commands[commandIndex].IsVariable() {
			continue
		}
		commands[commandIndex].Code = commands[commandIndex].Code + " " + ArgumentsTokenConstant
		return
	}
}
