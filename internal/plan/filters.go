package plan

import (
	"strings"

	"github.com/tyemirov/run/internal/task"
)

const (
	pickPrefixConstant    = "="
	enablePrefixConstant  = "+"
	disablePrefixConstant = "-"
)

// Filters holds the leaves selected by `=name`, `+name` and `-name` tokens.
type Filters struct {
	Picked   []*task.Task
	Enabled  []*task.Task
	Disabled []*task.Task
}

// IsPicked reports whether candidate was picked.
func (filters Filters) IsPicked(candidate *task.Task) bool {
	return containsTask(filters.Picked, candidate)
}

// IsEnabled reports whether candidate was enabled.
func (filters Filters) IsEnabled(candidate *task.Task) bool {
	return containsTask(filters.Enabled, candidate)
}

// IsDisabled reports whether candidate was disabled.
func (filters Filters) IsDisabled(candidate *task.Task) bool {
	return containsTask(filters.Disabled, candidate)
}

// Includes decides whether a leaf enters the plan.
func (filters Filters) Includes(leaf *task.Task) bool {
	if filters.IsPicked(leaf) {
		return true
	}
	if leaf.Optional() && !filters.IsEnabled(leaf) {
		return false
	}
	if filters.IsDisabled(leaf) {
		return false
	}
	return len(filters.Picked) == 0
}

// extractFilters consumes filter tokens naming leaves of target's subtree and
// returns the remaining arguments in their original order. Tokens naming no
// such leaf are kept so they reach the command line untouched.
func extractFilters(target *task.Task, arguments []string) (Filters, []string) {
	var filters Filters
	remaining := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		prefix, leafName := splitFilterToken(argument)
		if len(prefix) == 0 {
			remaining = append(remaining, argument)
			continue
		}
		matches := target.FindLeaves(leafName)
		if len(matches) == 0 {
			remaining = append(remaining, argument)
			continue
		}
		switch prefix {
		case pickPrefixConstant:
			filters.Picked = append(filters.Picked, matches...)
		case enablePrefixConstant:
			filters.Enabled = append(filters.Enabled, matches...)
		case disablePrefixConstant:
			filters.Disabled = append(filters.Disabled, matches...)
		}
	}
	return filters, remaining
}

func splitFilterToken(argument string) (string, string) {
	for _, prefix := range []string{pickPrefixConstant, enablePrefixConstant, disablePrefixConstant} {
		if !strings.HasPrefix(argument, prefix) {
			continue
		}
		leafName := strings.TrimPrefix(argument, prefix)
		if len(leafName) == 0 {
			return "", ""
		}
		return prefix, leafName
	}
	return "", ""
}

func containsTask(tasks []*task.Task, candidate *task.Task) bool {
	for _, member := range tasks {
		if member == candidate {
			return true
		}
	}
	return false
}
