package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel enumerates supported diagnostic levels.
type LogLevel string

// LogFormat enumerates supported diagnostic encodings.
type LogFormat string

const (
	// LogLevelDebug enables every diagnostic entry.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables informational entries and above.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn enables warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError enables errors only.
	LogLevelError LogLevel = "error"

	// LogFormatStructured emits JSON entries.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole emits human-readable entries.
	LogFormatConsole LogFormat = "console"

	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
	consoleTimeLayoutConstant            = "15:04:05.000"
)

// LoggerOutputs holds the loggers produced for one configuration.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers writing to standard error.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs returns a diagnostic logger for the requested level and
// format. The console logger is active only for the console format.
func (factory *LoggerFactory) CreateLoggerOutputs(logLevel LogLevel, logFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := parseLogLevel(logLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	normalizedFormat := LogFormat(strings.ToLower(strings.TrimSpace(string(logFormat))))
	errorSink := zapcore.Lock(os.Stderr)

	switch normalizedFormat {
	case LogFormatStructured:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), errorSink, zapLevel)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(core, zap.AddCaller()),
			ConsoleLogger:    zap.NewNop(),
		}, nil
	case LogFormatConsole:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayoutConstant)
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), errorSink, zapLevel)
		consoleConfig := zapcore.EncoderConfig{MessageKey: "message", LineEnding: zapcore.DefaultLineEnding}
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), errorSink, zapLevel)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(core),
			ConsoleLogger:    zap.New(consoleCore),
		}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, logFormat)
	}
}

func parseLogLevel(logLevel LogLevel) (zapcore.Level, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(string(logLevel)))) {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevel)
	}
}
