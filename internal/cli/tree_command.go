package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/gravity/internal/config"
	"github.com/tyemirov/gravity/internal/output"
	"github.com/tyemirov/gravity/internal/tokenizer"
	"github.com/tyemirov/gravity/internal/types"
	"github.com/tyemirov/gravity/internal/workspace"
)

const (
	exclusionFlagName   = "e"
	noGitignoreFlagName = "no-gitignore"
	noIgnoreFlagName    = "no-ignore"
	includeGitFlagName  = "git"
	formatFlagName      = "format"
	summaryFlagName     = "summary"
	tokensFlagName      = "tokens"
	modelFlagName       = "model"
	defaultPath         = "."

	treeUse              = types.CommandTree + " [paths...]"
	treeAlias            = "t"
	treeShortDescription = "print directory trees (" + treeAlias + ")"
	treeLongDescription  = `Build the tree of one or more paths and print it.
Roots are built concurrently and printed in argument order.
.gitignore and .ignore files are honored and .git is skipped unless the tree.*
configuration keys or the flags say otherwise; flags win over the configuration.
tree.exclude patterns from the configuration always apply.`
	treeUsageExample = `  # Print the current directory as JSON
  gravity tree --format json

  # Count tokens while skipping the vendor directory
  gravity tree --tokens -e vendor ./cmd ./internal

  # Print TOON with Claude token counts from the configured tokenizer.helper
  gravity tree --format toon --tokens --model claude-3-5-sonnet`

	exclusionFlagDescription        = "exclude path pattern"
	disableGitignoreFlagDescription = "do not use .gitignore"
	disableIgnoreFlagDescription    = "do not use .ignore"
	includeGitFlagDescription       = "include git directory"
	formatFlagDescription           = "output format (raw, json, xml or toon)"
	summaryFlagDescription          = "append a summary to raw, xml and toon output"
	tokensFlagDescription           = "include token counts"
	modelFlagDescription            = "tokenizer model to use for token counting"
	invalidFormatMessage            = "Invalid format value '%s'"
)

// pathOptions stores configuration for path-related flags.
type pathOptions struct {
	exclusionPatterns []string
	disableGitignore  bool
	disableIgnoreFile bool
	includeGit        bool
}

// ignoreOptions applies the flags the user set on top of the configured tree settings.
func (options pathOptions) ignoreOptions(flags *pflag.FlagSet, settings config.TreeSettings) config.IgnoreOptions {
	resolved := settings.IgnoreOptions()
	resolved.Exclude = append(append([]string{}, settings.Exclude...), options.exclusionPatterns...)
	if flags.Changed(noGitignoreFlagName) {
		resolved.UseGitignore = !options.disableGitignore
	}
	if flags.Changed(noIgnoreFlagName) {
		resolved.UseIgnoreFile = !options.disableIgnoreFile
	}
	if flags.Changed(includeGitFlagName) {
		resolved.IncludeGit = options.includeGit
	}
	return resolved
}

// addPathFlags registers path-related flags on the command.
func addPathFlags(command *cobra.Command, options *pathOptions) {
	command.Flags().StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	bindLiteralBool(command.Flags(), &options.disableGitignore, noGitignoreFlagName, false, disableGitignoreFlagDescription)
	bindLiteralBool(command.Flags(), &options.disableIgnoreFile, noIgnoreFlagName, false, disableIgnoreFlagDescription)
	bindLiteralBool(command.Flags(), &options.includeGit, includeGitFlagName, false, includeGitFlagDescription)
}

type treeOptions struct {
	ignore        config.IgnoreOptions
	format        string
	summary       bool
	tokensEnabled bool
	model         string
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(state *commandState) *cobra.Command {
	var options treeOptions
	var paths pathOptions

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			options.format = strings.ToLower(options.format)
			switch options.format {
			case types.FormatRaw, types.FormatJSON, types.FormatXML, types.FormatTOON:
			default:
				return fmt.Errorf(invalidFormatMessage, options.format)
			}
			loaded, settings, settingsError := state.loadConfiguration()
			if settingsError != nil {
				return settingsError
			}
			options.ignore = paths.ignoreOptions(command.Flags(), loaded.ResolveTree(config.CommandTreeDefaults))
			logger, loggerError := newCommandLogger(settings)
			if loggerError != nil {
				return loggerError
			}
			defer func() { _ = logger.Sync() }()
			return runTree(command.Context(), command.OutOrStdout(), arguments, options, settings.Tokenizer, logger)
		},
	}

	addPathFlags(treeCommand, &paths)
	treeCommand.Flags().StringVar(&options.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	bindLiteralBool(treeCommand.Flags(), &options.summary, summaryFlagName, true, summaryFlagDescription)
	bindLiteralBool(treeCommand.Flags(), &options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	treeCommand.Flags().StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	return treeCommand
}

// runTree builds every root concurrently and renders them in argument order.
func runTree(ctx context.Context, writer io.Writer, paths []string, options treeOptions, tokenizerSettings config.TokenizerSettings, logger *zap.Logger) error {
	validatedPaths, pathValidationError := resolveAndValidatePaths(paths)
	if pathValidationError != nil {
		return pathValidationError
	}

	var tokenCounter tokenizer.Counter
	if options.tokensEnabled {
		createdCounter, counterError := tokenizer.NewCounter(tokenizer.Config{
			Model:   options.model,
			Helper:  tokenizerSettings.Helper,
			Timeout: tokenizerSettings.Timeout,
		})
		if counterError != nil {
			return counterError
		}
		tokenCounter = createdCounter
		if label, isHelper := tokenizer.HelperLabel(tokenCounter); isHelper {
			logger.Info("counting tokens with tokenizer helper", zap.String("model", label), zap.Strings("helper", tokenizerSettings.Helper))
		}
	}

	ignoreOptions := options.ignore
	trees := make([]*workspace.TreeNode, len(validatedPaths))
	group, groupContext := errgroup.WithContext(ctx)
	for index, validatedPath := range validatedPaths {
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			var ignorePatterns []string
			if validatedPath.IsDir {
				ignorePatterns = config.LoadIgnorePatterns(validatedPath.AbsolutePath, ignoreOptions)
			}
			builder := workspace.TreeBuilder{
				IgnorePatterns: ignorePatterns,
				TokenCounter:   tokenCounter,
				Logger:         logger,
			}
			tree, buildError := builder.Build(validatedPath.AbsolutePath)
			if buildError != nil {
				return buildError
			}
			trees[index] = tree
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	model := ""
	if tokenCounter != nil {
		model = tokenCounter.Name()
	}
	switch options.format {
	case types.FormatJSON:
		rendered, renderError := output.RenderJSON(trees)
		if renderError != nil {
			return renderError
		}
		_, writeError := fmt.Fprintln(writer, rendered)
		return writeError
	case types.FormatXML:
		rendered, renderError := output.RenderXML(trees, options.summary, model)
		if renderError != nil {
			return renderError
		}
		_, writeError := fmt.Fprintln(writer, rendered)
		return writeError
	case types.FormatTOON:
		_, writeError := io.WriteString(writer, output.RenderTOON(trees, options.summary, model))
		return writeError
	default:
		return output.WriteRaw(writer, trees, options.summary, model)
	}
}
