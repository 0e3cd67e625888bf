package cli

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tyemirov/run/internal/execshell"
	"github.com/tyemirov/run/internal/execution"
	"github.com/tyemirov/run/internal/utils"
	"github.com/tyemirov/run/pkg/taskrunner"
)

const (
	commonConfigurationKeyConstant                     = "common"
	commonLogLevelConfigKeyConstant                    = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant                   = commonConfigurationKeyConstant + ".log_format"
	commonQuietConfigKeyConstant                       = commonConfigurationKeyConstant + ".quiet"
	runnerConfigurationKeyConstant                     = "runner"
	runnerDescriptorPathConfigKeyConstant              = runnerConfigurationKeyConstant + ".descriptor_path"
	runnerShellConfigKeyConstant                       = runnerConfigurationKeyConstant + ".shell"
	runnerPollIntervalConfigKeyConstant                = runnerConfigurationKeyConstant + ".poll_interval"
	runnerTerminationGraceConfigKeyConstant            = runnerConfigurationKeyConstant + ".termination_grace"
	runnerPseudoTerminalConfigKeyConstant              = runnerConfigurationKeyConstant + ".pseudo_terminal"
	environmentPrefixConstant                          = "RUN"
	configurationNameConstant                          = "config"
	configurationTypeConstant                          = "yaml"
	defaultConfigurationSearchPathConstant             = ".run"
	userConfigurationDirectoryNameConstant             = ".run"
	configurationSearchPathEnvironmentVariableConstant = "RUN_CONFIG_SEARCH_PATH"
	xdgConfigHomeEnvironmentVariableConstant           = "XDG_CONFIG_HOME"
)

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the default configuration shipped with the binary.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfiguration, configurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Runner ApplicationRunnerConfiguration `mapstructure:"runner"`
}

// ApplicationCommonConfiguration stores logging and output defaults.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Quiet     bool   `mapstructure:"quiet"`
}

// ApplicationRunnerConfiguration stores descriptor and process handling settings.
type ApplicationRunnerConfiguration struct {
	DescriptorPath   string        `mapstructure:"descriptor_path"`
	Shell            string        `mapstructure:"shell"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	TerminationGrace time.Duration `mapstructure:"termination_grace"`
	PseudoTerminal   bool          `mapstructure:"pseudo_terminal"`
}

func defaultConfigurationValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:         string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant:        string(utils.LogFormatStructured),
		commonQuietConfigKeyConstant:            false,
		runnerDescriptorPathConfigKeyConstant:   taskrunner.DefaultDescriptorPath,
		runnerShellConfigKeyConstant:            execshell.DefaultShellPath,
		runnerPollIntervalConfigKeyConstant:     execution.DefaultPollInterval,
		runnerTerminationGraceConfigKeyConstant: execution.DefaultTerminationGrace,
		runnerPseudoTerminalConfigKeyConstant:   true,
	}
}

func resolveConfigurationSearchPaths() []string {
	overrideValue := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentVariableConstant))
	if len(overrideValue) == 0 {
		return append([]string{defaultConfigurationSearchPathConstant}, resolveUserConfigurationDirectoryPaths()...)
	}

	overridePaths := strings.FieldsFunc(overrideValue, func(candidate rune) bool {
		return candidate == os.PathListSeparator
	})

	cleanedPaths := make([]string, 0, len(overridePaths))
	for _, pathCandidate := range overridePaths {
		trimmedCandidate := strings.TrimSpace(pathCandidate)
		if len(trimmedCandidate) == 0 {
			continue
		}
		cleanedPaths = append(cleanedPaths, trimmedCandidate)
	}

	if len(cleanedPaths) == 0 {
		return []string{defaultConfigurationSearchPathConstant}
	}
	return cleanedPaths
}

func resolveUserConfigurationDirectoryPaths() []string {
	userConfigurationDirectoryPaths := make([]string, 0, 3)

	appendConfigurationDirectory := func(baseDirectoryPath string) {
		trimmedBaseDirectoryPath := strings.TrimSpace(baseDirectoryPath)
		if len(trimmedBaseDirectoryPath) == 0 {
			return
		}

		candidateDirectoryPath := filepath.Join(trimmedBaseDirectoryPath, userConfigurationDirectoryNameConstant)
		for _, existingDirectoryPath := range userConfigurationDirectoryPaths {
			if existingDirectoryPath == candidateDirectoryPath {
				return
			}
		}
		userConfigurationDirectoryPaths = append(userConfigurationDirectoryPaths, candidateDirectoryPath)
	}

	appendConfigurationDirectory(os.Getenv(xdgConfigHomeEnvironmentVariableConstant))

	if userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir(); userConfigurationDirectoryError == nil {
		appendConfigurationDirectory(userConfigurationBaseDirectoryPath)
	}

	if userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir(); userHomeDirectoryError == nil {
		appendConfigurationDirectory(userHomeDirectoryPath)
	}

	return userConfigurationDirectoryPaths
}
