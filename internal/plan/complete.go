package plan

import (
	"github.com/tyemirov/run/internal/task"
)

// Complete returns the names that may follow argv on the command line: the
// named children of the deepest task argv reaches. Variables are omitted.
func Complete(root *task.Task, argv []string) []string {
	current := root
	for _, token := range argv {
		child, found, lookupError := current.Child(token)
		if lookupError != nil || !found {
			break
		}
		current = child
	}

	seen := make(map[string]struct{})
	var names []string
	for _, child := range current.Children() {
		if len(child.Name()) == 0 || child.Kind() == task.KindVariable {
			continue
		}
		if _, duplicate := seen[child.Name()]; duplicate {
			continue
		}
		seen[child.Name()] = struct{}{}
		names = append(names, child.Name())
	}
	return names
}
