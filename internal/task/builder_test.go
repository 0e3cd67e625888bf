package task_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/run/internal/descriptor"
	"github.com/tyemirov/run/internal/task"
)

func buildTree(testInstance *testing.T, content string) *task.Task {
	testInstance.Helper()
	document, parseError := descriptor.Parse("run.yml", []byte(content))
	require.NoError(testInstance, parseError)
	root, buildError := task.BuildRoot(document)
	require.NoError(testInstance, buildError)
	return root
}

func childByName(testInstance *testing.T, parent *task.Task, name string) *task.Task {
	testInstance.Helper()
	child, found, lookupError := parent.Child(name)
	require.NoError(testInstance, lookupError)
	require.True(testInstance, found, "child %q not found", name)
	return child
}

func TestBuildClassifiesUpperCaseNamesAsVariables(testInstance *testing.T) {
	testCases := []struct {
		name         string
		content      string
		path         []string
		expectedName string
	}{
		{
			name:         "top_level",
			content:      "VERSION: echo 1\n",
			path:         []string{"VERSION"},
			expectedName: "VERSION",
		},
		{
			name:         "nested_in_sequence",
			content:      "group:\n  - SETUP_VAR: echo hello\n  - echo run\n",
			path:         []string{"group", "SETUP_VAR"},
			expectedName: "SETUP_VAR",
		},
		{
			name:         "nested_in_parallel",
			content:      "(group):\n  - TOKEN_2: echo a\n  - echo run\n",
			path:         []string{"group", "TOKEN_2"},
			expectedName: "TOKEN_2",
		},
		{
			name:         "parenthesized",
			content:      "(BUILD_ID): echo 42\n",
			path:         []string{"BUILD_ID"},
			expectedName: "BUILD_ID",
		},
		{
			name:         "optional",
			content:      "/HOST: hostname\n",
			path:         []string{"HOST"},
			expectedName: "HOST",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			current := buildTree(testInstance, testCase.content)
			for _, segment := range testCase.path {
				current = childByName(testInstance, current, segment)
			}
			require.Equal(testInstance, task.KindVariable, current.Kind())
			require.Equal(testInstance, testCase.expectedName, current.Name())
			require.False(testInstance, current.IsComposite())
		})
	}
}

func TestBuildResolvesCompositeKinds(testInstance *testing.T) {
	content := `build: echo build
group:
  - echo one
(check):
  - lint: echo lint
  - nested:
      - echo nested
((serve)):
  - api: echo api
  - (inner):
      - echo inner
  - plain:
      - echo plain
`
	root := buildTree(testInstance, content)

	require.Equal(testInstance, task.KindSequence, root.Kind())
	require.Equal(testInstance, task.KindDirective, childByName(testInstance, root, "build").Kind())
	require.Equal(testInstance, task.KindSequence, childByName(testInstance, root, "group").Kind())

	check := childByName(testInstance, root, "check")
	require.Equal(testInstance, task.KindParallel, check.Kind())
	require.Equal(testInstance, task.KindParallel, childByName(testInstance, check, "nested").Kind())
	require.Equal(testInstance, task.KindDirective, childByName(testInstance, check, "lint").Kind())

	serve := childByName(testInstance, root, "serve")
	require.Equal(testInstance, task.KindMultiplex, serve.Kind())
	require.Equal(testInstance, task.KindParallel, childByName(testInstance, serve, "inner").Kind())
	require.Equal(testInstance, task.KindMultiplex, childByName(testInstance, serve, "plain").Kind())
}

func TestBuildKeepsParenthesesOnDirectiveNames(testInstance *testing.T) {
	root := buildTree(testInstance, "(solo): echo solo\n")
	child := childByName(testInstance, root, "(solo)")
	require.Equal(testInstance, task.KindDirective, child.Kind())
}

func TestBuildMarksOptionalTasks(testInstance *testing.T) {
	root := buildTree(testInstance, "test:\n  - unit: echo unit\n  - /slow: echo slow\n/(extra):\n  - echo extra\n")

	testTask := childByName(testInstance, root, "test")
	require.False(testInstance, childByName(testInstance, testTask, "unit").Optional())
	require.True(testInstance, childByName(testInstance, testTask, "slow").Optional())

	extra := childByName(testInstance, root, "extra")
	require.True(testInstance, extra.Optional())
	require.Equal(testInstance, task.KindParallel, extra.Kind())
}

func TestBuildCreatesAnonymousLeaves(testInstance *testing.T) {
	root := buildTree(testInstance, "group:\n  - echo first\n  - echo second\n")
	group := childByName(testInstance, root, "group")
	children := group.Children()
	require.Len(testInstance, children, 2)
	for childIndex, child := range children {
		require.Empty(testInstance, child.Name())
		require.Equal(testInstance, task.KindDirective, child.Kind())
		require.Equal(testInstance, "group", child.QualifiedName())
		require.Same(testInstance, group, child.Parent())
		require.Equal(testInstance, []string{"echo first", "echo second"}[childIndex], child.Code())
	}
}

func TestBuildRecordsDescriptions(testInstance *testing.T) {
	root := buildTree(testInstance, "# Project tasks\n\n# Compiles everything\nbuild: make\n")
	require.Equal(testInstance, "Project tasks", root.Description())
	require.Equal(testInstance, "Compiles everything", childByName(testInstance, root, "build").Description())

	undocumented := buildTree(testInstance, "build: make\n")
	require.Equal(testInstance, task.RootDescriptionConstant, undocumented.Description())
}

func TestBuildRejectsMalformedEntries(testInstance *testing.T) {
	testCases := []struct {
		name           string
		content        string
		expectedTask   string
		expectedReason string
	}{
		{
			name:           "multi_key_item",
			content:        "group:\n  - a: echo a\n    b: echo b\n",
			expectedTask:   "group",
			expectedReason: "single-key mapping",
		},
		{
			name:           "nested_list_item",
			content:        "group:\n  - - echo a\n",
			expectedTask:   "group",
			expectedReason: "sequence",
		},
		{
			name:           "missing_code",
			content:        "build:\n",
			expectedTask:   "build",
			expectedReason: "no command",
		},
		{
			name:           "mapping_value",
			content:        "build:\n  a: echo a\n",
			expectedTask:   "build",
			expectedReason: "command or a list",
		},
		{
			name:           "empty_list",
			content:        "build: []\n",
			expectedTask:   "build",
			expectedReason: "empty",
		},
		{
			name:           "variable_with_list",
			content:        "VARS:\n  - echo a\n",
			expectedTask:   "VARS",
			expectedReason: "variables",
		},
		{
			name:           "nested_qualified_name",
			content:        "outer:\n  - inner:\n      - a: echo a\n        b: echo b\n",
			expectedTask:   "outer inner",
			expectedReason: "single-key mapping",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			document, parseError := descriptor.Parse("run.yml", []byte(testCase.content))
			require.NoError(testInstance, parseError)

			_, buildError := task.BuildRoot(document)
			require.Error(testInstance, buildError)
			require.ErrorIs(testInstance, buildError, task.ErrMalformedEntry)

			var configurationError task.ConfigurationError
			require.True(testInstance, errors.As(buildError, &configurationError))
			require.Equal(testInstance, testCase.expectedTask, configurationError.Task)
			require.Contains(testInstance, configurationError.Reason, testCase.expectedReason)
			require.Positive(testInstance, configurationError.Line)
		})
	}
}

func TestBuildRecordsAmbiguousSiblings(testInstance *testing.T) {
	root := buildTree(testInstance, "group:\n  - dup: echo one\n  - dup: echo two\n  - unique: echo three\n")
	group := childByName(testInstance, root, "group")

	_, found, lookupError := group.Child("dup")
	require.False(testInstance, found)
	require.ErrorIs(testInstance, lookupError, task.ErrAmbiguousDescriptor)

	require.Equal(testInstance, "group unique", childByName(testInstance, group, "unique").QualifiedName())
}
