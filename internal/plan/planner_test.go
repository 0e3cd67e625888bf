package plan_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/run/internal/descriptor"
	"github.com/tyemirov/run/internal/plan"
	"github.com/tyemirov/run/internal/task"
)

const (
	testNestedVariablesDescriptor = `ROOT_VAR: echo root
group:
  - GROUP_VAR: echo group
  - inner:
      - leaf: echo leaf
      - INNER_VAR: echo inner
  - other: echo other
`
	testFilterDescriptor = `test:
  - unit: echo unit
  - /slow: echo slow
  - e2e: echo e2e
`
)

func buildRoot(testInstance *testing.T, content string) *task.Task {
	testInstance.Helper()
	document, parseError := descriptor.Parse("run.yml", []byte(content))
	require.NoError(testInstance, parseError)
	root, buildError := task.BuildRoot(document)
	require.NoError(testInstance, buildError)
	return root
}

func commandNames(commands []plan.Command) []string {
	names := make([]string, 0, len(commands))
	for _, command := range commands {
		names = append(names, command.Name)
	}
	return names
}

func TestPlanCollectsAncestorVariablesFirst(testInstance *testing.T) {
	root := buildRoot(testInstance, testNestedVariablesDescriptor)
	planner := plan.NewPlanner(nil)

	result, planError := planner.Plan(root, []string{"group", "inner"})
	require.NoError(testInstance, planError)
	require.Equal(testInstance, task.KindSequence, result.Plan.Mode)
	require.Equal(testInstance,
		[]plan.Command{
			{Name: "ROOT_VAR", Code: "echo root", Variable: "ROOT_VAR"},
			{Name: "group GROUP_VAR", Code: "echo group", Variable: "GROUP_VAR"},
			{Name: "group inner INNER_VAR", Code: "echo inner", Variable: "INNER_VAR"},
			{Name: "group inner leaf", Code: "echo leaf $ARGUMENTS"},
		},
		result.Plan.Commands,
	)

	leafResult, leafError := planner.Plan(root, []string{"group", "inner", "leaf"})
	require.NoError(testInstance, leafError)
	require.Equal(testInstance, task.KindDirective, leafResult.Plan.Mode)
	require.Equal(testInstance,
		[]string{"ROOT_VAR", "group GROUP_VAR", "group inner INNER_VAR", "group inner leaf"},
		commandNames(leafResult.Plan.Commands),
	)
	require.Len(testInstance, leafResult.Plan.VariableCommands(), 3)
	require.Len(testInstance, leafResult.Plan.GeneralCommands(), 1)
}

func TestPlanTargetingVariableDoesNotDuplicateIt(testInstance *testing.T) {
	root := buildRoot(testInstance, "VERSION: echo 1.0\nbuild: make\n")

	result, planError := plan.NewPlanner(nil).Plan(root, []string{"VERSION"})
	require.NoError(testInstance, planError)
	require.Equal(testInstance, task.KindVariable, result.Plan.Mode)
	require.Equal(testInstance, []plan.Command{{Name: "VERSION", Code: "echo 1.0", Variable: "VERSION"}}, result.Plan.Commands)
	require.Empty(testInstance, result.Plan.GeneralCommands())
}

func TestPlanArgumentsPolicy(testInstance *testing.T) {
	testCases := []struct {
		name          string
		content       string
		argv          []string
		expectedCodes []string
	}{
		{
			name:          "appended_when_absent",
			content:       "test:\n  - echo one\n  - echo two\n",
			argv:          []string{"test"},
			expectedCodes: []string{"echo one $ARGUMENTS", "echo two"},
		},
		{
			name:          "kept_once_when_repeated",
			content:       "(check):\n  - lint: lint $ARGUMENTS\n  - vet: vet $ARGUMENTS\n",
			argv:          []string{"check"},
			expectedCodes: []string{"lint $ARGUMENTS", "vet "},
		},
		{
			name:          "kept_in_later_command",
			content:       "test:\n  - echo prepare\n  - go test $ARGUMENTS\n",
			argv:          []string{"test"},
			expectedCodes: []string{"echo prepare", "go test $ARGUMENTS"},
		},
		{
			name:          "variables_untouched",
			content:       "ARGS_COPY: echo $ARGUMENTS\ngreet: echo hi\n",
			argv:          []string{"greet"},
			expectedCodes: []string{"echo $ARGUMENTS", "echo hi $ARGUMENTS"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			root := buildRoot(testInstance, testCase.content)
			result, planError := plan.NewPlanner(nil).Plan(root, testCase.argv)
			require.NoError(testInstance, planError)

			codes := make([]string, 0, len(result.Plan.Commands))
			for _, command := range result.Plan.Commands {
				codes = append(codes, command.Code)
			}
			require.Equal(testInstance, testCase.expectedCodes, codes)
		})
	}
}

func TestPlanIsIdempotent(testInstance *testing.T) {
	root := buildRoot(testInstance, "(check):\n  - lint: lint $ARGUMENTS\n  - vet: vet $ARGUMENTS\n  - echo done\n")
	planner := plan.NewPlanner(nil)

	firstResult, firstError := planner.Plan(root, []string{"check", "./..."})
	require.NoError(testInstance, firstError)
	for attempt := 0; attempt < 3; attempt++ {
		nextResult, nextError := planner.Plan(root, []string{"check", "./..."})
		require.NoError(testInstance, nextError)
		require.Equal(testInstance, firstResult.Plan, nextResult.Plan)
	}
}

func TestPlanFilters(testInstance *testing.T) {
	testCases := []struct {
		name              string
		argv              []string
		expectedNames     []string
		expectedArguments []string
	}{
		{
			name:          "optional_excluded_by_default",
			argv:          []string{"test"},
			expectedNames: []string{"test unit", "test e2e"},
		},
		{
			name:          "enable_includes_optional",
			argv:          []string{"test", "+slow"},
			expectedNames: []string{"test unit", "test slow", "test e2e"},
		},
		{
			name:          "disable_excludes_default",
			argv:          []string{"test", "-unit"},
			expectedNames: []string{"test e2e"},
		},
		{
			name:          "pick_restricts",
			argv:          []string{"test", "=e2e"},
			expectedNames: []string{"test e2e"},
		},
		{
			name:          "pick_includes_optional",
			argv:          []string{"test", "=slow", "=unit"},
			expectedNames: []string{"test unit", "test slow"},
		},
		{
			name:              "unknown_filter_passes_through",
			argv:              []string{"test", "-v", "+slow", "=pattern"},
			expectedNames:     []string{"test unit", "test slow", "test e2e"},
			expectedArguments: []string{"-v", "=pattern"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			root := buildRoot(testInstance, testFilterDescriptor)
			result, planError := plan.NewPlanner(nil).Plan(root, testCase.argv)
			require.NoError(testInstance, planError)
			require.Equal(testInstance, testCase.expectedNames, commandNames(result.Plan.Commands))
			if testCase.expectedArguments == nil {
				require.Empty(testInstance, result.Arguments)
				return
			}
			require.Equal(testInstance, testCase.expectedArguments, result.Arguments)
		})
	}
}

func TestPlanReportsUnknownTask(testInstance *testing.T) {
	root := buildRoot(testInstance, "build: make\n")

	_, planError := plan.NewPlanner(nil).Plan(root, []string{"deploy"})
	require.ErrorIs(testInstance, planError, plan.ErrTaskNotFound)
	require.EqualError(testInstance, planError, `Task "deploy" not found`)
}

func TestPlanReportsAmbiguousNavigation(testInstance *testing.T) {
	root := buildRoot(testInstance, "group:\n  - dup: echo one\n  - dup: echo two\n")

	_, planError := plan.NewPlanner(nil).Plan(root, []string{"group", "dup"})
	require.ErrorIs(testInstance, planError, task.ErrAmbiguousDescriptor)
}

func TestPlanHelpRequests(testInstance *testing.T) {
	root := buildRoot(testInstance, testNestedVariablesDescriptor)
	planner := plan.NewPlanner(nil)

	rootResult, rootError := planner.Plan(root, nil)
	require.NoError(testInstance, rootError)
	require.True(testInstance, rootResult.Help)
	require.Same(testInstance, root, rootResult.Target)
	require.Empty(testInstance, rootResult.Plan.Commands)

	helpResult, helpError := planner.Plan(root, []string{"group", "inner", "leaf", "?"})
	require.NoError(testInstance, helpError)
	require.True(testInstance, helpResult.Help)
	require.Empty(testInstance, helpResult.Arguments)
	require.NotEmpty(testInstance, helpResult.Plan.Commands)
	require.Equal(testInstance, "group", helpResult.HelpTask().QualifiedName())

	argumentResult, argumentError := planner.Plan(root, []string{"group", "other", "value"})
	require.NoError(testInstance, argumentError)
	require.False(testInstance, argumentResult.Help)
	require.Equal(testInstance, []string{"value"}, argumentResult.Arguments)
}

func TestPlanScenarios(testInstance *testing.T) {
	parallelRoot := buildRoot(testInstance, "build: echo build\n(check):\n  - echo a\n  - echo b\n")
	parallelResult, parallelError := plan.NewPlanner(nil).Plan(parallelRoot, []string{"check"})
	require.NoError(testInstance, parallelError)
	require.Equal(testInstance, task.KindParallel, parallelResult.Plan.Mode)
	require.Len(testInstance, parallelResult.Plan.Commands, 2)

	multiplexRoot := buildRoot(testInstance, "((serve)):\n  - echo a\n  - echo b\n")
	multiplexResult, multiplexError := plan.NewPlanner(nil).Plan(multiplexRoot, []string{"serve"})
	require.NoError(testInstance, multiplexError)
	require.Equal(testInstance, task.KindMultiplex, multiplexResult.Plan.Mode)

	variableRoot := buildRoot(testInstance, "SETUP_VAR: echo hello\ngreet: echo $SETUP_VAR $ARGUMENTS\n")
	variableResult, variableError := plan.NewPlanner(nil).Plan(variableRoot, []string{"greet", "world"})
	require.NoError(testInstance, variableError)
	require.Equal(testInstance,
		[]plan.Command{
			{Name: "SETUP_VAR", Code: "echo hello", Variable: "SETUP_VAR"},
			{Name: "greet", Code: "echo $SETUP_VAR $ARGUMENTS"},
		},
		variableResult.Plan.Commands,
	)
	require.Equal(testInstance, []string{"world"}, variableResult.Arguments)
}

func TestPlanLogsResolution(testInstance *testing.T) {
	core, observedLogs := observer.New(zapcore.DebugLevel)
	root := buildRoot(testInstance, testFilterDescriptor)

	_, planError := plan.NewPlanner(zap.New(core)).Plan(root, []string{"test"})
	require.NoError(testInstance, planError)

	entries := observedLogs.FilterMessage("execution plan resolved").All()
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, "test", entries[0].ContextMap()["target"])
	require.Equal(testInstance, "sequence", entries[0].ContextMap()["mode"])
}

func TestComplete(testInstance *testing.T) {
	root := buildRoot(testInstance, testNestedVariablesDescriptor)

	require.Equal(testInstance, []string{"group"}, plan.Complete(root, nil))
	require.Equal(testInstance, []string{"inner", "other"}, plan.Complete(root, []string{"group"}))
	require.Equal(testInstance, []string{"inner", "other"}, plan.Complete(root, []string{"group", "unknown"}))
}
