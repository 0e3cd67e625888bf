package plan

import (
	"go.uber.org/zap"

	"github.com/tyemirov/run/internal/task"
)

const (
	helpTokenConstant              = "?"
	planResolvedMessageConstant    = "execution plan resolved"
	rootHelpMessageConstant        = "root task selected, rendering help"
	targetFieldNameConstant        = "target"
	modeFieldNameConstant          = "mode"
	commandCountFieldNameConstant  = "commands"
	argumentsFieldNameConstant     = "arguments"
	helpFieldNameConstant          = "help"
	helpPanelAncestorDepthConstant = 2
	helpPanelAncestorIndexConstant = 1
)

// Result describes everything resolved from argv for one invocation.
type Result struct {
	Target    *task.Task
	Filters   Filters
	Arguments []string
	Help      bool
	Plan      ExecutionPlan
}

// HelpTask returns the task whose panel is shown for help requests: the
// target itself near the root, otherwise its top-level ancestor.
func (result Result) HelpTask() *task.Task {
	if result.Target == nil {
		return nil
	}
	if result.Target.Depth() < helpPanelAncestorDepthConstant {
		return result.Target
	}
	return result.Target.Ancestors()[helpPanelAncestorIndexConstant]
}

// Planner resolves argv against a task tree.
type Planner struct {
	logger *zap.Logger
}

// NewPlanner constructs a Planner; a nil logger disables diagnostics.
func NewPlanner(logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{logger: logger}
}

// Plan walks argv from root, descending into the child named by each token,
// and builds the execution plan of the reached target.
func (planner *Planner) Plan(root *task.Task, argv []string) (Result, error) {
	target, remaining, navigationError := navigate(root, argv)
	if navigationError != nil {
		return Result{}, navigationError
	}

	if target.IsRoot() {
		if len(remaining) == 0 || (len(remaining) == 1 && remaining[0] == helpTokenConstant) {
			planner.logger.Debug(rootHelpMessageConstant)
			return Result{Target: target, Help: true}, nil
		}
		return Result{}, NavigationError{Token: remaining[0]}
	}

	filters, arguments := extractFilters(target, remaining)
	help := false
	if len(arguments) > 0 && arguments[len(arguments)-1] == helpTokenConstant {
		arguments = arguments[:len(arguments)-1]
		help = true
	}

	commands := collectCommands(target, filters)
	applyArgumentsPolicy(commands)
	executionPlan := ExecutionPlan{Commands: commands, Mode: target.Kind()}

	planner.logger.Debug(
		planResolvedMessageConstant,
		zap.String(targetFieldNameConstant, target.QualifiedName()),
		zap.String(modeFieldNameConstant, string(executionPlan.Mode)),
		zap.Int(commandCountFieldNameConstant, len(commands)),
		zap.Strings(argumentsFieldNameConstant, arguments),
		zap.Bool(helpFieldNameConstant, help),
	)

	return Result{
		Target:    target,
		Filters:   filters,
		Arguments: arguments,
		Help:      help,
		Plan:      executionPlan,
	}, nil
}

func navigate(root *task.Task, argv []string) (*task.Task, []string, error) {
	current := root
	consumed := 0
	for consumed < len(argv) {
		child, found, lookupError := current.Child(argv[consumed])
		if lookupError != nil {
			return nil, nil, lookupError
		}
		if !found {
			break
		}
		current = child
		consumed++
	}
	remaining := make([]string, len(argv)-consumed)
	copy(remaining, argv[consumed:])
	return current, remaining, nil
}

// collectCommands lists the Variable children of every ancestor, then the
// included Variable leaves of target, then its remaining included leaves.
// Commands are built from task code on every call so repeated planning
// yields identical output.
func collectCommands(target *task.Task, filters Filters) []Command {
	var commands []Command
	collected := make(map[*task.Task]struct{})
	for _, ancestor := range target.Ancestors() {
		for _, variable := range ancestor.VariableChildren() {
			commands = append(commands, Command{
				Name:     variable.QualifiedName(),
				Code:     variable.Code(),
				Variable: variable.Name(),
			})
			collected[variable] = struct{}{}
		}
	}

	var general []Command
	for _, leaf := range target.Leaves() {
		if _, alreadyCollected := collected[leaf]; alreadyCollected {
			continue
		}
		if !filters.Includes(leaf) {
			continue
		}
		command := Command{Name: leaf.QualifiedName(), Code: leaf.Code()}
		if leaf.Kind() == task.KindVariable {
			command.Variable = leaf.Name()
			commands = append(commands, command)
			continue
		}
		general = append(general, command)
	}
	return append(commands, general...)
}
