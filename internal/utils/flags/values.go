// Package flags provides helpers for reading and separating the application
// flags of the run command line.
package flags

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tyemirov/run/internal/utils"
)

const (
	// QuietFlagName suppresses progress lines.
	QuietFlagName = "quiet"
	// QuietFlagUsage describes the quiet flag.
	QuietFlagUsage = "Suppress progress messages"
	// DescriptorPathFlagName overrides the descriptor location.
	DescriptorPathFlagName = "run-path"
	// DescriptorPathFlagUsage describes the descriptor path flag.
	DescriptorPathFlagUsage = "Path to the task descriptor"
	// CompleteFlagName requests completion candidates.
	CompleteFlagName = "complete"
	// CompleteFlagUsage describes the completion flag.
	CompleteFlagUsage = "Print completion candidates for the given task path"

	flagPrefixConstant         = "--"
	flagValueSeparatorConstant = "="
	flagTerminatorConstant     = "--"
	boolFlagParseErrorTemplate = "unable to parse flag %q: %w"
	boolFlagTypeConstant       = "bool"
)

// ErrFlagNotDefined indicates that the requested flag is not present on the command.
var ErrFlagNotDefined = errors.New("flag not defined")

// BoolFlag returns the value of a boolean flag and whether it was set.
func BoolFlag(command *cobra.Command, name string) (bool, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return false, false, ErrFlagNotDefined
	}
	value, err := flagSet.GetBool(name)
	if err == nil {
		return value, flag.Changed, nil
	}

	parsedValue, parseError := strconv.ParseBool(flag.Value.String())
	if parseError != nil {
		return false, false, fmt.Errorf(boolFlagParseErrorTemplate, name, parseError)
	}
	return parsedValue, flag.Changed, nil
}

// StringFlag returns the value of a string flag and whether it was set.
func StringFlag(command *cobra.Command, name string) (string, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return "", false, ErrFlagNotDefined
	}
	value, err := flagSet.GetString(name)
	if err != nil {
		return "", false, err
	}
	return value, flag.Changed, nil
}

func locateFlag(command *cobra.Command, name string) (*pflag.FlagSet, *pflag.Flag) {
	if command == nil {
		return nil, nil
	}

	candidateSets := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if root := command.Root(); root != nil {
		candidateSets = append(candidateSets, root.PersistentFlags())
	}

	for _, set := range candidateSets {
		if set == nil {
			continue
		}
		if flag := set.Lookup(name); flag != nil {
			return set, flag
		}
	}

	return nil, nil
}

// SplitArguments separates the leading long flags defined in flagSet from the
// task arguments that follow them. Scanning stops at the first token that is
// not a defined long flag, so task filters such as -name are never consumed.
// A bare "--" ends the application flags and is dropped.
func SplitArguments(flagSet *pflag.FlagSet, arguments []string) ([]string, []string) {
	applicationArguments := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		argument := arguments[argumentIndex]
		if argument == flagTerminatorConstant {
			return applicationArguments, arguments[argumentIndex+1:]
		}
		if !strings.HasPrefix(argument, flagPrefixConstant) {
			return applicationArguments, arguments[argumentIndex:]
		}

		name, _, hasValue := strings.Cut(strings.TrimPrefix(argument, flagPrefixConstant), flagValueSeparatorConstant)
		flag := flagSet.Lookup(name)
		if flag == nil {
			return applicationArguments, arguments[argumentIndex:]
		}

		applicationArguments = append(applicationArguments, argument)
		if hasValue || flag.Value.Type() == boolFlagTypeConstant {
			continue
		}
		if argumentIndex+1 < len(arguments) {
			argumentIndex++
			applicationArguments = append(applicationArguments, arguments[argumentIndex])
		}
	}
	return applicationArguments, nil
}

// CollectExecutionFlags inspects the command's flags to produce execution flag values.
func CollectExecutionFlags(command *cobra.Command) utils.ExecutionFlags {
	executionFlags := utils.ExecutionFlags{}
	if command == nil {
		return executionFlags
	}

	if quietValue, quietChanged, quietError := BoolFlag(command, QuietFlagName); quietError == nil {
		executionFlags.Quiet = quietValue
		executionFlags.QuietSet = quietChanged
	}

	if pathValue, _, pathError := StringFlag(command, DescriptorPathFlagName); pathError == nil {
		executionFlags.DescriptorPath = strings.TrimSpace(pathValue)
	}

	if completeValue, _, completeError := BoolFlag(command, CompleteFlagName); completeError == nil {
		executionFlags.Complete = completeValue
	}

	return executionFlags
}
