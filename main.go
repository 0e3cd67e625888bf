package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tyemirov/run/cmd/cli"
	"github.com/tyemirov/run/internal/console"
	"github.com/tyemirov/run/internal/execution"
	"github.com/tyemirov/run/internal/faketty"
)

const (
	exitErrorTemplateConstant = "%v\n"
	failureExitCodeConstant   = 1
)

// main executes the run command-line application.
func main() {
	if len(os.Args) > 1 && os.Args[1] == faketty.SubcommandName {
		os.Exit(faketty.Main(os.Args[2:], os.Stdout, os.Stderr))
	}

	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.Execute(executionContext)
	stop()
	if executionError != nil {
		message := executionError.Error()
		var failure execution.CommandFailure
		if errors.As(executionError, &failure) {
			message = console.NewStyler(os.Stderr).Bold(message)
		}
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, message)
		os.Exit(failureExitCodeConstant)
	}
}
