package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	descriptorReadErrorTemplateConstant     = "unable to read descriptor %s: %w"
	descriptorParseErrorTemplateConstant    = "unable to parse descriptor %s: %w"
	descriptorTopLevelErrorTemplateConstant = "descriptor %s must be a mapping of task names (line %d)"
	descriptorKeyErrorTemplateConstant      = "descriptor %s has a non-scalar task name at line %d"
	descriptorNotFoundTemplateConstant      = "No %q found"
	commentPrefixConstant                   = "#"
	nullTagConstant                         = "!!null"
	sequenceShapeConstant                   = "sequence"
	unknownShapeConstant                    = "unknown"
)

// ErrDescriptorNotFound indicates the descriptor file does not exist.
var ErrDescriptorNotFound = errors.New("descriptor not found")

// NotFoundError reports a missing descriptor path.
type NotFoundError struct {
	Path string
}

// Error describes the missing descriptor.
func (notFound NotFoundError) Error() string {
	return fmt.Sprintf(descriptorNotFoundTemplateConstant, notFound.Path)
}

// Unwrap exposes the sentinel.
func (notFound NotFoundError) Unwrap() error {
	return ErrDescriptorNotFound
}

// Load reads and parses the descriptor at path.
func Load(path string) (Document, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Document{}, NotFoundError{Path: path}
		}
		return Document{}, fmt.Errorf(descriptorReadErrorTemplateConstant, path, readError)
	}
	return Parse(path, content)
}

// Parse converts descriptor content into a Document, preserving key order and
// turning comment lines directly above a key into that entry's description.
func Parse(path string, content []byte) (Document, error) {
	var documentNode yaml.Node
	if unmarshalError := yaml.Unmarshal(content, &documentNode); unmarshalError != nil {
		return Document{}, fmt.Errorf(descriptorParseErrorTemplateConstant, path, unmarshalError)
	}

	document := Document{Path: path}
	if documentNode.Kind == 0 || len(documentNode.Content) == 0 {
		return document, nil
	}

	document.Description = normalizeComment(documentNode.HeadComment)
	topLevelNode := resolveAlias(documentNode.Content[0])
	if topLevelNode.Kind == yaml.ScalarNode && topLevelNode.Tag == nullTagConstant {
		return document, nil
	}
	if topLevelNode.Kind != yaml.MappingNode {
		return Document{}, fmt.Errorf(descriptorTopLevelErrorTemplateConstant, path, topLevelNode.Line)
	}
	if len(document.Description) == 0 {
		document.Description = normalizeComment(topLevelNode.HeadComment)
	}

	entries, entriesError := convertMapping(path, topLevelNode)
	if entriesError != nil {
		return Document{}, entriesError
	}
	document.Entries = entries
	return document, nil
}

func convertMapping(path string, mappingNode *yaml.Node) ([]Entry, error) {
	entries := make([]Entry, 0, len(mappingNode.Content)/2)
	for keyIndex := 0; keyIndex+1 < len(mappingNode.Content); keyIndex += 2 {
		keyNode := resolveAlias(mappingNode.Content[keyIndex])
		valueNode := resolveAlias(mappingNode.Content[keyIndex+1])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf(descriptorKeyErrorTemplateConstant, path, keyNode.Line)
		}

		value, valueError := convertValue(path, valueNode)
		if valueError != nil {
			return nil, valueError
		}

		entries = append(entries, Entry{
			Name:        keyNode.Value,
			Description: normalizeComment(keyNode.HeadComment),
			Value:       value,
			Line:        keyNode.Line,
		})
	}
	return entries, nil
}

func convertValue(path string, valueNode *yaml.Node) (any, error) {
	switch valueNode.Kind {
	case yaml.ScalarNode:
		if valueNode.Tag == nullTagConstant {
			return nil, nil
		}
		return valueNode.Value, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(valueNode.Content))
		for _, itemNode := range valueNode.Content {
			item, itemError := convertItem(path, resolveAlias(itemNode))
			if itemError != nil {
				return nil, itemError
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.MappingNode:
		entries, entriesError := convertMapping(path, valueNode)
		if entriesError != nil {
			return nil, entriesError
		}
		return Mapping{Entries: entries, Line: valueNode.Line}, nil
	default:
		return Unsupported{Shape: unknownShapeConstant, Line: valueNode.Line}, nil
	}
}

func convertItem(path string, itemNode *yaml.Node) (any, error) {
	switch itemNode.Kind {
	case yaml.ScalarNode:
		if itemNode.Tag == nullTagConstant {
			return nil, nil
		}
		return itemNode.Value, nil
	case yaml.MappingNode:
		entries, entriesError := convertMapping(path, itemNode)
		if entriesError != nil {
			return nil, entriesError
		}
		if len(entries) == 1 {
			return entries[0], nil
		}
		return Mapping{Entries: entries, Line: itemNode.Line}, nil
	case yaml.SequenceNode:
		return Unsupported{Shape: sequenceShapeConstant, Line: itemNode.Line}, nil
	default:
		return Unsupported{Shape: unknownShapeConstant, Line: itemNode.Line}, nil
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func normalizeComment(raw string) string {
	if len(strings.TrimSpace(raw)) == 0 {
		return ""
	}
	lines := strings.Split(raw, "\n")
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, commentPrefixConstant) {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, commentPrefixConstant)
		trimmed = strings.TrimPrefix(trimmed, " ")
		normalized = append(normalized, trimmed)
	}
	return strings.TrimSpace(strings.Join(normalized, "\n"))
}
