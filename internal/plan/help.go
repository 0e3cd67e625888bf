package plan

import (
	"fmt"
	"io"

	"github.com/tyemirov/run/internal/task"
)

const (
	helpSeparatorConstant           = "---"
	helpDescriptionHeaderConstant   = "Description"
	helpCommandsHeaderConstant      = "Commands"
	helpExecutionPlanHeaderConstant = "Execution Plan"
	helpOptionalMarkerConstant      = " (optional)"
	helpPickedMarkerConstant        = " (picked)"
	helpEnabledMarkerConstant       = " (enabled)"
	helpDisabledMarkerConstant      = " (disabled)"
	helpSelectedMarkerConstant      = " (selected)"
	helpRootTitleConstant           = "run"
)

// Emphasis styles headline text. Identity functions are valid.
type Emphasis func(string) string

// RenderHelp writes the help panel for result: the panel task title, its
// description, the commands below it with filter markers, and the execution
// plan when one was resolved. Emphasis is only applied to single lines.
func RenderHelp(writer io.Writer, result Result, emphasis Emphasis) error {
	if emphasis == nil {
		emphasis = func(text string) string { return text }
	}
	panelTask := result.HelpTask()
	if panelTask == nil {
		return nil
	}

	title := panelTask.QualifiedName()
	if len(title) == 0 {
		title = helpRootTitleConstant
	}
	lines := []string{emphasis(title), "", emphasis(helpSeparatorConstant)}

	if description := panelTask.Description(); len(description) > 0 {
		lines = append(lines, "", emphasis(helpDescriptionHeaderConstant), "", description)
	}

	if panelTask.IsComposite() {
		lines = append(lines, "", emphasis(helpCommandsHeaderConstant), "")
		candidates := append([]*task.Task{panelTask}, panelTask.Descendants()...)
		for _, candidate := range candidates {
			if len(candidate.Name()) == 0 || candidate.Kind() == task.KindVariable {
				continue
			}
			line := candidate.QualifiedName() + commandMarkers(candidate, result.Filters)
			if candidate == result.Target {
				lines = append(lines, emphasis(line+helpSelectedMarkerConstant))
				continue
			}
			lines = append(lines, line)
		}
	}

	if len(result.Plan.Commands) > 0 {
		lines = append(lines, "", emphasis(helpExecutionPlanHeaderConstant), "", result.Plan.Explain())
	}

	for _, line := range lines {
		if _, writeError := fmt.Fprintln(writer, line); writeError != nil {
			return writeError
		}
	}
	return nil
}

func commandMarkers(candidate *task.Task, filters Filters) string {
	markers := ""
	if candidate.Optional() {
		markers += helpOptionalMarkerConstant
	}
	if filters.IsPicked(candidate) {
		markers += helpPickedMarkerConstant
	}
	if filters.IsEnabled(candidate) {
		markers += helpEnabledMarkerConstant
	}
	if filters.IsDisabled(candidate) {
		markers += helpDisabledMarkerConstant
	}
	return markers
}
