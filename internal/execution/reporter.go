package execution

import (
	"fmt"
	"io"
	"strings"
)

const (
	preparedTemplateConstant      = "[run] Prepared \"%s\"\n"
	launchedTemplateConstant      = "[run] Launched \"%s\"\n"
	preparedItemTemplateConstant  = "%s=%s"
	preparedItemSeparatorConstant = "; "
)

// progressReporter prints the lifecycle lines of an execution unless quiet.
type progressReporter struct {
	writer io.Writer
	quiet  bool
}

func newProgressReporter(writer io.Writer, quiet bool) progressReporter {
	return progressReporter{writer: writer, quiet: quiet}
}

// Prepared lists the exported variables with their values.
func (reporter progressReporter) Prepared(environment *Environment, names []string) {
	if reporter.quiet {
		return
	}
	items := make([]string, 0, len(names))
	for _, name := range names {
		items = append(items, fmt.Sprintf(preparedItemTemplateConstant, name, environment.Value(name)))
	}
	fmt.Fprintf(reporter.writer, preparedTemplateConstant, strings.Join(items, preparedItemSeparatorConstant))
}

// Launched announces a command about to start.
func (reporter progressReporter) Launched(code string) {
	if reporter.quiet {
		return
	}
	fmt.Fprintf(reporter.writer, launchedTemplateConstant, code)
}
