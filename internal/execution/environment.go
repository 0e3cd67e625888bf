package execution

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/subosito/gotenv"
)

const (
	environmentSeparatorConstant     = "="
	dotenvReadErrorTemplateConstant  = "execution.dotenv(%s): %w"
	runArgumentsVariableNameConstant = "RUNARGS"
	argumentsVariableNameConstant    = "ARGUMENTS"
	dotenvPathVariableNameConstant   = "RUNVARS"
	argumentsJoinSeparatorConstant   = " "
)

// Environment is the variable set handed to spawned commands. It is written
// only by the controller between spawns and read when a child starts.
type Environment struct {
	values map[string]string
}

// NewEnvironment builds an Environment from KEY=VALUE entries.
func NewEnvironment(entries []string) *Environment {
	environment := &Environment{values: make(map[string]string, len(entries))}
	for _, entry := range entries {
		name, value, found := strings.Cut(entry, environmentSeparatorConstant)
		if !found || len(name) == 0 {
			continue
		}
		environment.values[name] = value
	}
	return environment
}

// ProcessEnvironment snapshots the environment of the current process.
func ProcessEnvironment() *Environment {
	return NewEnvironment(os.Environ())
}

// Set exports name with value, replacing any previous value.
func (environment *Environment) Set(name string, value string) {
	environment.values[name] = value
}

// Lookup returns the value of name and whether it is set.
func (environment *Environment) Lookup(name string) (string, bool) {
	value, exists := environment.values[name]
	return value, exists
}

// Value returns the value of name or an empty string.
func (environment *Environment) Value(name string) string {
	return environment.values[name]
}

// Environ renders the variables as sorted KEY=VALUE entries.
func (environment *Environment) Environ() []string {
	names := make([]string, 0, len(environment.values))
	for name := range environment.values {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]string, 0, len(names))
	for _, name := range names {
		entries = append(entries, name+environmentSeparatorConstant+environment.values[name])
	}
	return entries
}

// LoadDotenv adds the variables of the dotenv file at path that are not set
// yet and returns their names in sorted order.
func (environment *Environment) LoadDotenv(path string) ([]string, error) {
	loaded, readError := gotenv.Read(path)
	if readError != nil {
		return nil, fmt.Errorf(dotenvReadErrorTemplateConstant, path, readError)
	}

	var added []string
	for name, value := range loaded {
		if _, exists := environment.values[name]; exists {
			continue
		}
		environment.values[name] = value
		added = append(added, name)
	}
	sort.Strings(added)
	return added, nil
}

// SetArguments exports the pass-through arguments as RUNARGS and ARGUMENTS.
func (environment *Environment) SetArguments(arguments []string) {
	joined := strings.Join(arguments, argumentsJoinSeparatorConstant)
	environment.Set(runArgumentsVariableNameConstant, joined)
	environment.Set(argumentsVariableNameConstant, joined)
}
