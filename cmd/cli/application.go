package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/run/internal/execution"
	"github.com/tyemirov/run/internal/faketty"
	"github.com/tyemirov/run/internal/utils"
	flagutils "github.com/tyemirov/run/internal/utils/flags"
	"github.com/tyemirov/run/internal/version"
	"github.com/tyemirov/run/pkg/taskrunner"
)

const (
	applicationUsageConstant                        = "run [flags] <task...> [=name] [+name] [-name] [arguments...] [?]"
	applicationShortDescriptionConstant             = "Run tasks declared in a hierarchical YAML descriptor"
	applicationLongDescriptionConstant              = "run reads run.yml, walks the task path given on the command line and executes the selected tasks sequentially, in parallel or multiplexed. A trailing ? explains the plan instead of running it."
	configFileFlagNameConstant                      = "config"
	configFileFlagUsageConstant                     = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                        = "log-level"
	logLevelFlagUsageConstant                       = "Override the configured log level."
	logFormatFlagNameConstant                       = "log-format"
	logFormatFlagUsageConstant                      = "Override the configured log format (structured or console)."
	helpFlagNameConstant                            = "help"
	versionFlagNameConstant                         = "version"
	versionFlagUsageConstant                        = "Print the run version and exit."
	versionOutputTemplateConstant                   = "run version %s\n"
	configurationLoadErrorTemplateConstant          = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant             = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant                 = "unable to flush logger: %w"
	flagParseErrorTemplateConstant                  = "unable to parse flags: %w"
	dependenciesErrorTemplateConstant               = "unable to prepare runner: %w"
	configurationInitializedMessageConstant         = "configuration initialized"
	configurationInitializedConsoleTemplateConstant = "%s | log level=%s | log format=%s | config file=%s"
	configurationLogLevelFieldConstant              = "log_level"
	configurationLogFormatFieldConstant             = "log_format"
	configurationFileFieldConstant                  = "config_file"
	rootCommandDebugMessageConstant                 = "run CLI diagnostics"
	pseudoTerminalUnavailableMessageConstant        = "pseudo-terminal wrapper unavailable"
	logFieldArgumentsConstant                       = "arguments"
	logFieldDescriptorConstant                      = "descriptor"
)

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          loggerOutputsFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	runnerFactory          taskrunner.Factory
	executableResolver     func() (string, error)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		executableResolver:     os.Executable,
	}

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		resolveConfigurationSearchPaths(),
	)
	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	cobraCommand := &cobra.Command{
		Use:                applicationUsageConstant,
		Short:              applicationShortDescriptionConstant,
		Long:               applicationLongDescriptionConstant,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE:               application.runRootCommand,
	}

	flagSet := cobraCommand.Flags()
	flagSet.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagSet.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	flagSet.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	flagSet.Bool(flagutils.QuietFlagName, false, flagutils.QuietFlagUsage)
	flagSet.String(flagutils.DescriptorPathFlagName, "", flagutils.DescriptorPathFlagUsage)
	flagSet.Bool(flagutils.CompleteFlagName, false, flagutils.CompleteFlagUsage)
	flagSet.Bool(helpFlagNameConstant, false, "Show usage of the run command.")
	flagSet.Bool(versionFlagNameConstant, false, versionFlagUsageConstant)

	application.rootCommand = cobraCommand
	return application
}

// Execute runs the root command with arguments and ensures logger flushing.
func (application *Application) Execute(executionContext context.Context, arguments []string) error {
	if arguments == nil {
		arguments = []string{}
	}
	application.rootCommand.SetArgs(arguments)

	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and runs it with the process arguments.
func Execute(executionContext context.Context) error {
	return NewApplication().Execute(executionContext, os.Args[1:])
}

// ConfigFileUsed returns the configuration file path used during initialization.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	applicationArguments, taskArguments := flagutils.SplitArguments(command.Flags(), arguments)
	if parseError := command.Flags().Parse(applicationArguments); parseError != nil {
		return fmt.Errorf(flagParseErrorTemplateConstant, parseError)
	}
	if helpRequested, _, _ := flagutils.BoolFlag(command, helpFlagNameConstant); helpRequested {
		return command.Help()
	}
	if versionRequested, _, _ := flagutils.BoolFlag(command, versionFlagNameConstant); versionRequested {
		_, printError := fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, version.Detect(version.Dependencies{}))
		return printError
	}

	if initializationError := application.initializeConfiguration(command); initializationError != nil {
		return initializationError
	}

	executionFlags, _ := application.commandContextAccessor.ExecutionFlags(command.Context())
	quiet := application.configuration.Common.Quiet
	if executionFlags.QuietSet {
		quiet = executionFlags.Quiet
	}
	descriptorPath := application.configuration.Runner.DescriptorPath
	if len(executionFlags.DescriptorPath) > 0 {
		descriptorPath = executionFlags.DescriptorPath
	}

	configurationFilePath, _ := application.commandContextAccessor.ConfigurationFilePath(command.Context())
	logLevel, _ := application.commandContextAccessor.LogLevel(command.Context())
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, taskArguments),
		zap.String(logFieldDescriptorConstant, descriptorPath),
		zap.String(configurationFileFieldConstant, configurationFilePath),
		zap.String(configurationLogLevelFieldConstant, logLevel),
	)

	dependencies, dependenciesError := taskrunner.BuildDependencies(
		taskrunner.DependenciesConfig{
			LoggerProvider:               func() *zap.Logger { return application.logger },
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			Wrapper:                      application.resolveWrapper(),
		},
		taskrunner.DependenciesOptions{
			Command: command,
			Output:  utils.NewFlushingWriter(command.OutOrStdout()),
			Errors:  command.ErrOrStderr(),
		},
	)
	if dependenciesError != nil {
		return fmt.Errorf(dependenciesErrorTemplateConstant, dependenciesError)
	}

	runner := taskrunner.Resolve(application.runnerFactory, dependencies, execution.Options{
		Shell:            application.configuration.Runner.Shell,
		TerminationGrace: application.configuration.Runner.TerminationGrace,
		PollInterval:     application.configuration.Runner.PollInterval,
	})
	_, runError := runner.Run(command.Context(), taskrunner.Request{
		DescriptorPath: descriptorPath,
		Arguments:      taskArguments,
		Quiet:          quiet,
		Complete:       executionFlags.Complete,
	})
	return runError
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if command.Flags().Changed(logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if command.Flags().Changed(logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}
	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	application.logConfigurationInitialization()

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	updatedContext = application.commandContextAccessor.WithExecutionFlags(updatedContext, flagutils.CollectExecutionFlags(command))
	updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)
	command.SetContext(updatedContext)
	return nil
}

func (application *Application) resolveWrapper() faketty.Wrapper {
	if !application.configuration.Runner.PseudoTerminal {
		return faketty.PassThrough{}
	}
	executablePath, resolveError := application.executableResolver()
	if resolveError != nil || len(strings.TrimSpace(executablePath)) == 0 {
		application.logger.Debug(pseudoTerminalUnavailableMessageConstant, zap.Error(resolveError))
		return faketty.PassThrough{}
	}
	return faketty.NewShim(executablePath)
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) logConfigurationInitialization() {
	if !strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogLevel), string(utils.LogLevelDebug)) {
		return
	}

	if application.humanReadableLoggingEnabled() {
		bannerMessage := fmt.Sprintf(
			configurationInitializedConsoleTemplateConstant,
			configurationInitializedMessageConstant,
			application.configuration.Common.LogLevel,
			application.configuration.Common.LogFormat,
			application.configurationMetadata.ConfigFileUsed,
		)
		application.consoleLogger.Debug(bannerMessage)
		return
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
}

func (application *Application) flushLogger() error {
	if syncError := syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return syncLoggerInstance(application.consoleLogger)
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.EBADF):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}
