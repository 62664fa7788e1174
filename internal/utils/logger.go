package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions selects where and how verbosely the application logs.
type LoggerOptions struct {
	// FilePath redirects output away from the terminal. Empty means stderr.
	FilePath string
	// Level is a zap level name such as "debug" or "warn". Empty means info.
	Level string
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
func NewApplicationLogger(options LoggerOptions) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""

	if levelName := strings.TrimSpace(options.Level); levelName != "" {
		level, parseError := zap.ParseAtomicLevel(levelName)
		if parseError != nil {
			return nil, fmt.Errorf("parse log level %q: %w", levelName, parseError)
		}
		config.Level = level
	}

	if filePath := strings.TrimSpace(options.FilePath); filePath != "" {
		// a log file outlives the terminal session, so it carries timestamps
		config.EncoderConfig.TimeKey = "time"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{filePath}
		config.ErrorOutputPaths = []string{filePath}
	}
	return config.Build()
}

// LoggerOrNop returns logger, or a no-op logger when logger is nil.
func LoggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
