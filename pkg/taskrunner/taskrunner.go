package taskrunner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/run/internal/console"
	"github.com/tyemirov/run/internal/descriptor"
	"github.com/tyemirov/run/internal/execution"
	"github.com/tyemirov/run/internal/plan"
	"github.com/tyemirov/run/internal/task"
)

const (
	// DefaultDescriptorPath is the descriptor read when no path is configured.
	DefaultDescriptorPath = "run.yml"

	runnerStartedMessageConstant = "run requested"
	descriptorFieldConstant      = "descriptor"
	argumentsFieldConstant       = "arguments"
)

// Request describes one invocation.
type Request struct {
	DescriptorPath string
	Arguments      []string
	Quiet          bool
	Complete       bool
}

// Outcome reports what a Run did.
type Outcome struct {
	Help        bool
	Completions []string
	Execution   execution.Outcome
}

// Executor runs descriptor tasks.
type Executor interface {
	Run(ctx context.Context, request Request) (Outcome, error)
}

// Factory constructs an Executor given runner dependencies.
type Factory func(Dependencies, execution.Options) Executor

// Resolve returns either the provided factory result or a default Runner.
func Resolve(factory Factory, dependencies Dependencies, options execution.Options) Executor {
	var base Executor
	if factory != nil {
		base = factory(dependencies, options)
	}
	if base == nil {
		base = NewRunner(dependencies, options)
	}
	return summaryExecutor{
		delegate:     base,
		dependencies: dependencies,
	}
}

// Runner loads the descriptor, plans the request and executes or explains it.
type Runner struct {
	dependencies Dependencies
	options      execution.Options
	planner      *plan.Planner
}

// NewRunner constructs a Runner.
func NewRunner(dependencies Dependencies, options execution.Options) *Runner {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Wrapper != nil && options.Wrapper == nil {
		options.Wrapper = dependencies.Wrapper
	}
	return &Runner{
		dependencies: dependencies,
		options:      options,
		planner:      plan.NewPlanner(dependencies.Logger),
	}
}

// Run handles one request.
func (runner *Runner) Run(ctx context.Context, request Request) (Outcome, error) {
	descriptorPath := strings.TrimSpace(request.DescriptorPath)
	if len(descriptorPath) == 0 {
		descriptorPath = DefaultDescriptorPath
	}
	runner.dependencies.Logger.Debug(runnerStartedMessageConstant,
		zap.String(descriptorFieldConstant, descriptorPath),
		zap.Strings(argumentsFieldConstant, request.Arguments),
	)

	root, loadError := loadRoot(descriptorPath)
	if loadError != nil {
		return Outcome{}, loadError
	}

	if request.Complete {
		completions := plan.Complete(root, request.Arguments)
		for _, candidate := range completions {
			fmt.Fprintln(runner.dependencies.Output, candidate)
		}
		return Outcome{Completions: completions}, nil
	}

	result, planError := runner.planner.Plan(root, request.Arguments)
	if planError != nil {
		return Outcome{}, planError
	}

	if result.Help {
		styler := console.NewStyler(runner.dependencies.Output)
		if renderError := plan.RenderHelp(runner.dependencies.Output, result, styler.Bold); renderError != nil {
			return Outcome{Help: true}, fmt.Errorf("taskrunner.help: %w", renderError)
		}
		return Outcome{Help: true}, nil
	}

	executor, executorError := execution.NewExecutor(execution.Dependencies{
		Logger:        runner.dependencies.Logger,
		ShellExecutor: runner.dependencies.ShellExecutor,
		Environment:   runner.dependencies.Environment,
		Input:         runner.dependencies.Input,
		Output:        runner.dependencies.Output,
		Errors:        runner.dependencies.Errors,
	}, runner.options)
	if executorError != nil {
		return Outcome{}, fmt.Errorf("taskrunner.executor: %w", executorError)
	}

	executionOutcome, executeError := executor.Execute(ctx, result.Plan, result.Arguments, request.Quiet)
	return Outcome{Execution: executionOutcome}, executeError
}

func loadRoot(descriptorPath string) (*task.Task, error) {
	document, loadError := descriptor.Load(descriptorPath)
	if loadError != nil {
		return nil, loadError
	}
	return task.BuildRoot(document)
}

type summaryExecutor struct {
	delegate     Executor
	dependencies Dependencies
}

func (executor summaryExecutor) Run(ctx context.Context, request Request) (Outcome, error) {
	outcome, err := executor.delegate.Run(ctx, request)
	if err == nil && !request.Quiet && outcome.Execution.CommandsStarted > 0 {
		executor.printSummary(outcome)
	}
	return outcome, err
}

func (executor summaryExecutor) printSummary(outcome Outcome) {
	writer := executor.summaryWriter()
	if writer == nil {
		return
	}
	fmt.Fprintln(writer, RenderFinishedLine(outcome.Execution.Duration))
}

func (executor summaryExecutor) summaryWriter() io.Writer {
	if executor.dependencies.Output != nil {
		return executor.dependencies.Output
	}
	return nil
}
