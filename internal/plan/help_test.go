package plan_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/run/internal/console"
	"github.com/tyemirov/run/internal/plan"
	"github.com/tyemirov/run/internal/task"
)

func TestExplainRendersModesAndVariables(testInstance *testing.T) {
	testCases := []struct {
		name     string
		plan     plan.ExecutionPlan
		expected string
	}{
		{
			name: "directive",
			plan: plan.ExecutionPlan{
				Mode: task.KindDirective,
				Commands: []plan.Command{
					{Name: "VERSION", Code: "echo 1", Variable: "VERSION"},
					{Name: "build", Code: "make $ARGUMENTS"},
				},
			},
			expected: "$ VERSION=\"echo 1\"\n$ make $ARGUMENTS",
		},
		{
			name: "parallel",
			plan: plan.ExecutionPlan{
				Mode: task.KindParallel,
				Commands: []plan.Command{
					{Name: "HOST", Code: "hostname", Variable: "HOST"},
					{Name: "check lint", Code: "lint $ARGUMENTS"},
					{Name: "check vet", Code: "vet"},
				},
			},
			expected: "$ HOST=\"hostname\"\n[PARALLEL]\n    $ lint $ARGUMENTS\n    $ vet",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, testCase.plan.Explain())
		})
	}
}

func TestRenderHelpListsCommandsWithMarkers(testInstance *testing.T) {
	root := buildRoot(testInstance, "build: make\n# Test suites\ntest:\n  - unit: echo unit\n  - /slow: echo slow\n  - e2e: echo e2e\n")
	result, planError := plan.NewPlanner(nil).Plan(root, []string{"test", "+slow", "-e2e", "=unit", "?"})
	require.NoError(testInstance, planError)

	var output bytes.Buffer
	emphasis := func(text string) string { return "*" + text + "*" }
	require.NoError(testInstance, plan.RenderHelp(&output, result, emphasis))

	rendered := output.String()
	require.True(testInstance, strings.HasPrefix(rendered, "*test*\n"))
	require.Contains(testInstance, rendered, "\nTest suites\n")
	require.Contains(testInstance, rendered, "*test (selected)*\n")
	require.Contains(testInstance, rendered, "\ntest unit (picked)\n")
	require.Contains(testInstance, rendered, "\ntest slow (optional) (enabled)\n")
	require.Contains(testInstance, rendered, "\ntest e2e (disabled)\n")
	require.Contains(testInstance, rendered, "\n*Execution Plan*\n\n[SEQUENCE]\n    $ echo unit $ARGUMENTS\n")
	require.Contains(testInstance, rendered, "*test*\n\n*---*\n\n*Description*\n\nTest suites\n\n*Commands*\n\n")
}

func TestRenderHelpAtRoot(testInstance *testing.T) {
	root := buildRoot(testInstance, "VERSION: echo 1\nbuild: make\n(check):\n  - echo a\n")
	result, planError := plan.NewPlanner(nil).Plan(root, nil)
	require.NoError(testInstance, planError)

	var output bytes.Buffer
	require.NoError(testInstance, plan.RenderHelp(&output, result, nil))

	rendered := output.String()
	require.True(testInstance, strings.HasPrefix(rendered, "run\n\n---\n"))
	require.Contains(testInstance, rendered, task.RootDescriptionConstant)
	require.Contains(testInstance, rendered, "\nbuild\ncheck\n")
	require.NotContains(testInstance, rendered, "VERSION")
	require.NotContains(testInstance, rendered, "Execution Plan")
}

func TestRenderHelpStyledHeadersLeaveBlankLinesEmpty(testInstance *testing.T) {
	root := buildRoot(testInstance, "# Development loop\ndev:\n  - api: echo api\n  - web: echo web\n")
	result, planError := plan.NewPlanner(nil).Plan(root, []string{"dev", "?"})
	require.NoError(testInstance, planError)

	var output bytes.Buffer
	require.NoError(testInstance, plan.RenderHelp(&output, result, console.NewStyler(&bytes.Buffer{}).Bold))

	for _, line := range strings.Split(output.String(), "\n") {
		if len(line) > 0 {
			require.NotEmpty(testInstance, strings.TrimSpace(line), "whitespace-only help line")
		}
	}
	require.Contains(testInstance, output.String(), "Development loop")
}
