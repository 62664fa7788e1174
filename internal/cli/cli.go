// Package cli provides the gravity command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/gravity/internal/app"
	"github.com/tyemirov/gravity/internal/config"
	"github.com/tyemirov/gravity/internal/services/clipboard"
	"github.com/tyemirov/gravity/internal/types"
	"github.com/tyemirov/gravity/internal/utils"
)

const (
	versionFlagName           = "version"
	configFlagName            = "config"
	preserveExpansionFlagName = "preserve-expansion"
	versionTemplate           = "gravity version: %s\n"

	rootUse              = "gravity [root]"
	rootShortDescription = "gravity text-editor workspace"
	rootLongDescription  = `gravity opens a folder as a workspace: a navigable directory tree, a read-only
file preview and an embedded shell with its own working directory.
Without arguments it opens workspace.root from the configuration (default ".").
Logs go to log.file while the workspace runs.`
	rootUsageExample = `  # Open the current directory
  gravity

  # Open a project and keep folder expansion across rescans
  gravity ~/src/project --preserve-expansion`

	versionFlagDescription           = "display application version"
	configFlagDescription            = "configuration file to load instead of ./" + utils.LocalConfigFileName
	preserveExpansionFlagDescription = "keep expanded folders when the tree is rebuilt"

	logWorkspaceStarting = "workspace starting"
	logFieldRoot         = "root"

	errorAbsolutePathFormat = "abs failed for '%s': %w"
	errorPathMissingFormat  = "path '%s' does not exist"
	errorStatFormat         = "stat failed for '%s': %w"
	errorNoValidPaths       = "no valid paths"
)

// dependencies are the side-effecting collaborators of the commands.
type dependencies struct {
	pickFile     filePicker
	copier       clipboard.Copier
	runWorkspace func(ctx context.Context, options app.Options) error
}

func defaultDependencies() dependencies {
	return dependencies{
		pickFile:     pickWithFuzzyFinder,
		copier:       clipboard.SystemCopier{},
		runWorkspace: app.Run,
	}
}

// commandState carries persistent flag values shared by every command.
type commandState struct {
	configPath   string
	dependencies dependencies
}

// loadSettings reads the layered configuration files and resolves defaults.
func (state *commandState) loadSettings() (config.Settings, error) {
	_, settings, err := state.loadConfiguration()
	return settings, err
}

// loadConfiguration returns the merged configuration alongside its resolved settings,
// for commands that resolve some keys against their own defaults.
func (state *commandState) loadConfiguration() (config.ApplicationConfiguration, config.Settings, error) {
	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: state.configPath})
	if loadError != nil {
		return config.ApplicationConfiguration{}, config.Settings{}, loadError
	}
	settings, resolveError := loaded.Resolve()
	if resolveError != nil {
		return config.ApplicationConfiguration{}, config.Settings{}, resolveError
	}
	return loaded, settings, nil
}

// Execute runs the gravity application.
func Execute(ctx context.Context) error {
	rootCommand := createRootCommand(defaultDependencies())
	rootCommand.SetArgs(joinBooleanArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(commandDependencies dependencies) *cobra.Command {
	state := &commandState{dependencies: commandDependencies}
	var showVersion bool
	var preserveExpansion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := state.loadSettings()
			if settingsError != nil {
				return settingsError
			}
			if len(arguments) == 1 {
				settings.WorkspaceRoot = arguments[0]
			}
			if command.Flags().Changed(preserveExpansionFlagName) {
				settings.PreserveExpansion = preserveExpansion
			}
			return runWorkspace(command.Context(), state, settings)
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&state.configPath, configFlagName, "", configFlagDescription)
	bindLiteralBool(rootCommand.Flags(), &preserveExpansion, preserveExpansionFlagName, false, preserveExpansionFlagDescription)
	rootCommand.AddCommand(
		createTreeCommand(state),
		createFindCommand(state),
		createConfigCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// runWorkspace opens the interactive workspace with logging redirected to the log file.
func runWorkspace(ctx context.Context, state *commandState, settings config.Settings) error {
	logger, loggerError := utils.NewApplicationLogger(utils.LoggerOptions{FilePath: settings.LogFile, Level: settings.LogLevel})
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info(logWorkspaceStarting, zap.String(logFieldRoot, settings.WorkspaceRoot))
	return state.dependencies.runWorkspace(ctx, app.Options{
		Settings: settings,
		Copier:   state.dependencies.copier,
		Logger:   logger,
	})
}

// newCommandLogger returns the stderr logger used by non-interactive commands.
func newCommandLogger(settings config.Settings) (*zap.Logger, error) {
	logger, loggerError := utils.NewApplicationLogger(utils.LoggerOptions{Level: settings.LogLevel})
	if loggerError != nil {
		return nil, fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	return logger, nil
}

// resolveAndValidatePaths converts input paths to absolute form and validates their existence.
func resolveAndValidatePaths(inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := os.Stat(cleanPath)
		if fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath, IsDir: info.IsDir()})
	}
	if len(result) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return result, nil
}
