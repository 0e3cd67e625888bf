package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tyemirov/run/internal/descriptor"
)

const (
	// RootDescriptionConstant describes a descriptor without a head comment.
	RootDescriptionConstant = "General run description"

	optionalPrefixConstant           = "/"
	parallelOpeningConstant          = "("
	parallelClosingConstant          = ")"
	multiplexOpeningConstant         = "(("
	multiplexClosingConstant         = "))"
	missingCodeReasonConstant        = "task has no command"
	mappingValueReasonConstant       = "task value must be a command or a list of tasks"
	emptyListReasonConstant          = "task list is empty"
	variableListReasonConstant       = "upper-case tasks are variables and must have a single command"
	multipleKeysReasonTemplate       = "list item must be a single-key mapping, found %d keys"
	unsupportedItemReasonTemplate    = "list item of type %s is not supported"
	missingItemReasonConstant        = "list item is empty"
	unknownValueReasonTemplate       = "task value of type %T is not supported"
	qualifiedNameSeparatorConstant   = " "
	unsupportedShapeFallbackConstant = "unknown"
)

// ErrMalformedEntry classifies every descriptor shape that cannot become a task.
var ErrMalformedEntry = errors.New("malformed task entry")

// BuildRoot converts a loaded descriptor document into the anonymous root task.
func BuildRoot(document descriptor.Document) (*Task, error) {
	description := strings.TrimSpace(document.Description)
	if len(description) == 0 {
		description = RootDescriptionConstant
	}

	root := &Task{
		kind:        KindSequence,
		description: description,
	}
	for _, entry := range document.Entries {
		child, childError := Build(entry, root, KindSequence)
		if childError != nil {
			return nil, childError
		}
		root.children = append(root.children, child)
	}
	root.ambiguousNames = collectAmbiguousNames(root.children)
	return root, nil
}

// Build converts a single descriptor entry into a task attached to parent.
// inheritedKind is the resolved kind of parent; Parallel and Multiplex
// propagate to composite descendants.
func Build(entry descriptor.Entry, parent *Task, inheritedKind Kind) (*Task, error) {
	name := entry.Name
	optional := false
	if strings.HasPrefix(name, optionalPrefixConstant) {
		name = strings.TrimPrefix(name, optionalPrefixConstant)
		optional = true
	}

	strippedName, groupingKind := stripGrouping(name)
	created := &Task{
		optional:    optional,
		description: strings.TrimSpace(entry.Description),
		parent:      parent,
	}

	if isUpperCaseName(name) {
		created.name = strippedName
		created.kind = KindVariable
		code, codeError := leafCode(entry, parent, strippedName)
		if codeError != nil {
			if _, isList := entry.Value.([]any); isList {
				return nil, newConfigurationError(parent, strippedName, entry.Line, variableListReasonConstant)
			}
			return nil, codeError
		}
		created.code = code
		return created, nil
	}

	items, isList := entry.Value.([]any)
	if !isList {
		code, codeError := leafCode(entry, parent, name)
		if codeError != nil {
			return nil, codeError
		}
		created.name = name
		created.kind = KindDirective
		created.code = code
		return created, nil
	}

	created.name = strippedName
	created.kind = resolveCompositeKind(inheritedKind, groupingKind)
	if len(items) == 0 {
		return nil, newConfigurationError(parent, strippedName, entry.Line, emptyListReasonConstant)
	}

	for _, item := range items {
		childEntry, itemError := listItemEntry(item, created, entry.Line)
		if itemError != nil {
			return nil, itemError
		}
		child, childError := Build(childEntry, created, created.kind)
		if childError != nil {
			return nil, childError
		}
		created.children = append(created.children, child)
	}
	created.ambiguousNames = collectAmbiguousNames(created.children)
	return created, nil
}

func leafCode(entry descriptor.Entry, parent *Task, name string) (string, error) {
	switch typedValue := entry.Value.(type) {
	case string:
		return typedValue, nil
	case nil:
		return "", newConfigurationError(parent, name, entry.Line, missingCodeReasonConstant)
	case descriptor.Mapping:
		return "", newConfigurationError(parent, name, entry.Line, mappingValueReasonConstant)
	case []any:
		return "", newConfigurationError(parent, name, entry.Line, mappingValueReasonConstant)
	default:
		return "", newConfigurationError(parent, name, entry.Line, fmt.Sprintf(unknownValueReasonTemplate, typedValue))
	}
}

func listItemEntry(item any, owner *Task, fallbackLine int) (descriptor.Entry, error) {
	switch typedItem := item.(type) {
	case descriptor.Entry:
		return typedItem, nil
	case string:
		return descriptor.Entry{Value: typedItem, Line: fallbackLine}, nil
	case descriptor.Mapping:
		reason := fmt.Sprintf(multipleKeysReasonTemplate, len(typedItem.Entries))
		return descriptor.Entry{}, newConfigurationError(owner.parent, owner.name, typedItem.Line, reason)
	case descriptor.Unsupported:
		shape := typedItem.Shape
		if len(shape) == 0 {
			shape = unsupportedShapeFallbackConstant
		}
		return descriptor.Entry{}, newConfigurationError(owner.parent, owner.name, typedItem.Line, fmt.Sprintf(unsupportedItemReasonTemplate, shape))
	case nil:
		return descriptor.Entry{}, newConfigurationError(owner.parent, owner.name, fallbackLine, missingItemReasonConstant)
	default:
		return descriptor.Entry{}, newConfigurationError(owner.parent, owner.name, fallbackLine, fmt.Sprintf(unsupportedItemReasonTemplate, fmt.Sprintf("%T", typedItem)))
	}
}

// stripGrouping removes `((name))` or `(name)` wrappers and reports the kind
// they select. Names without wrappers return an empty kind.
func stripGrouping(name string) (string, Kind) {
	if len(name) > len(multiplexOpeningConstant)+len(multiplexClosingConstant) &&
		strings.HasPrefix(name, multiplexOpeningConstant) &&
		strings.HasSuffix(name, multiplexClosingConstant) {
		return name[len(multiplexOpeningConstant) : len(name)-len(multiplexClosingConstant)], KindMultiplex
	}
	if len(name) >= len(parallelOpeningConstant)+len(parallelClosingConstant) &&
		strings.HasPrefix(name, parallelOpeningConstant) &&
		strings.HasSuffix(name, parallelClosingConstant) {
		return name[len(parallelOpeningConstant) : len(name)-len(parallelClosingConstant)], KindParallel
	}
	return name, ""
}

func resolveCompositeKind(inheritedKind Kind, groupingKind Kind) Kind {
	if len(groupingKind) > 0 {
		return groupingKind
	}
	if inheritedKind.IsConcurrent() {
		return inheritedKind
	}
	return KindSequence
}

// isUpperCaseName holds when the name has at least one cased letter and no
// lower-case letters, so markers and digits do not affect the result.
func isUpperCaseName(name string) bool {
	hasCasedLetter := false
	for _, character := range name {
		if unicode.IsLower(character) {
			return false
		}
		if unicode.IsUpper(character) || unicode.IsTitle(character) {
			hasCasedLetter = true
		}
	}
	return hasCasedLetter
}

func collectAmbiguousNames(children []*Task) map[string]struct{} {
	seen := make(map[string]struct{}, len(children))
	var ambiguous map[string]struct{}
	for _, child := range children {
		if len(child.name) == 0 {
			continue
		}
		if _, exists := seen[child.name]; exists {
			if ambiguous == nil {
				ambiguous = make(map[string]struct{})
			}
			ambiguous[child.name] = struct{}{}
			continue
		}
		seen[child.name] = struct{}{}
	}
	return ambiguous
}

func newConfigurationError(parent *Task, name string, line int, reason string) error {
	qualified := name
	if parent != nil {
		parentName := parent.QualifiedName()
		if len(parentName) > 0 && len(name) > 0 {
			qualified = parentName + qualifiedNameSeparatorConstant + name
		} else if len(parentName) > 0 {
			qualified = parentName
		}
	}
	return ConfigurationError{Task: qualified, Line: line, Reason: reason, Cause: ErrMalformedEntry}
}
