package task

import (
	"strings"
)

// Kind classifies a task by its structural position in the descriptor.
type Kind string

// Supported task kinds.
const (
	KindVariable  Kind = "variable"
	KindDirective Kind = "directive"
	KindSequence  Kind = "sequence"
	KindParallel  Kind = "parallel"
	KindMultiplex Kind = "multiplex"
)

// IsLeaf reports whether tasks of this kind carry a shell snippet.
func (kind Kind) IsLeaf() bool {
	return kind == KindVariable || kind == KindDirective
}

// IsConcurrent reports whether the kind fans out to concurrent children.
func (kind Kind) IsConcurrent() bool {
	return kind == KindParallel || kind == KindMultiplex
}

// Task is a node of the task tree. Children are owned by their parent; the
// parent pointer is a lookup-only back-reference.
type Task struct {
	name           string
	kind           Kind
	code           string
	children       []*Task
	optional       bool
	description    string
	parent         *Task
	ambiguousNames map[string]struct{}
}

// Name returns the task name with optional and grouping markers removed.
func (task *Task) Name() string {
	return task.name
}

// Kind returns the immutable task kind.
func (task *Task) Kind() Kind {
	return task.kind
}

// Code returns the shell snippet of a leaf task, empty for composite tasks.
func (task *Task) Code() string {
	return task.code
}

// Children returns a copy of the ordered child list.
func (task *Task) Children() []*Task {
	children := make([]*Task, len(task.children))
	copy(children, task.children)
	return children
}

// Optional reports whether the task is skipped unless explicitly enabled.
func (task *Task) Optional() bool {
	return task.optional
}

// Description returns the comment-derived task description.
func (task *Task) Description() string {
	return task.description
}

// Parent returns the enclosing task, nil for the root.
func (task *Task) Parent() *Task {
	return task.parent
}

// IsRoot reports whether the task has no parent.
func (task *Task) IsRoot() bool {
	return task.parent == nil
}

// IsComposite reports whether the task groups children.
func (task *Task) IsComposite() bool {
	return len(task.children) > 0
}

// Ancestors returns the chain of enclosing tasks ordered from the root.
func (task *Task) Ancestors() []*Task {
	var ancestors []*Task
	for current := task.parent; current != nil; current = current.parent {
		ancestors = append(ancestors, current)
	}
	for leftIndex, rightIndex := 0, len(ancestors)-1; leftIndex < rightIndex; leftIndex, rightIndex = leftIndex+1, rightIndex-1 {
		ancestors[leftIndex], ancestors[rightIndex] = ancestors[rightIndex], ancestors[leftIndex]
	}
	return ancestors
}

// Depth returns the number of ancestors.
func (task *Task) Depth() int {
	depth := 0
	for current := task.parent; current != nil; current = current.parent {
		depth++
	}
	return depth
}

// QualifiedName joins the non-empty names from the root down to the task.
func (task *Task) QualifiedName() string {
	lineage := append(task.Ancestors(), task)
	names := make([]string, 0, len(lineage))
	for _, node := range lineage {
		if len(node.name) == 0 {
			continue
		}
		names = append(names, node.name)
	}
	return strings.Join(names, " ")
}

// Child returns the direct child with the provided name. Names shared by
// several siblings cannot be navigated and yield AmbiguousNameError.
func (task *Task) Child(name string) (*Task, bool, error) {
	if _, ambiguous := task.ambiguousNames[name]; ambiguous {
		return nil, false, AmbiguousNameError{Parent: task.QualifiedName(), Name: name}
	}
	for _, child := range task.children {
		if child.name == name {
			return child, true, nil
		}
	}
	return nil, false, nil
}

// Leaves flattens the subtree depth-first into leaf tasks. A leaf returns itself.
func (task *Task) Leaves() []*Task {
	if !task.IsComposite() {
		return []*Task{task}
	}
	var leaves []*Task
	for _, child := range task.children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

// Descendants flattens the subtree depth-first, composite tasks included and
// the task itself excluded.
func (task *Task) Descendants() []*Task {
	var descendants []*Task
	for _, child := range task.children {
		descendants = append(descendants, child)
		if child.IsComposite() {
			descendants = append(descendants, child.Descendants()...)
		}
	}
	return descendants
}

// VariableChildren returns the direct Variable children in tree order.
func (task *Task) VariableChildren() []*Task {
	var variables []*Task
	for _, child := range task.children {
		if child.kind == KindVariable {
			variables = append(variables, child)
		}
	}
	return variables
}

// FindLeaves returns the leaves of the subtree carrying the provided name.
func (task *Task) FindLeaves(name string) []*Task {
	var matches []*Task
	for _, leaf := range task.Leaves() {
		if leaf.name == name {
			matches = append(matches, leaf)
		}
	}
	return matches
}
