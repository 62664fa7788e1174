// Package utils contains small helpers shared across gravity packages.
package utils

const (
	// ApplicationName is the executable and configuration namespace.
	ApplicationName = "gravity"
	// LocalConfigFileName is looked up in the working directory.
	LocalConfigFileName = ".gravity.yaml"
	// GlobalConfigDirectoryName is created under the user's home directory.
	GlobalConfigDirectoryName = ".gravity"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// IgnoreFileName is the name of the project's ignore file.
	IgnoreFileName = ".ignore"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// LogFileName is the default log file written while the interactive workspace runs.
	LogFileName = "gravity.log"

	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "gravity failed"
)
