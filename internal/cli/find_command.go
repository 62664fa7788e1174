package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/koki-develop/go-fzf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/gravity/internal/config"
	"github.com/tyemirov/gravity/internal/types"
	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

const (
	copyFlagName = "copy"

	findUse              = types.CommandFind + " [root]"
	findAlias            = "f"
	findShortDescription = "fuzzy-find a file in a workspace (" + findAlias + ")"
	findLongDescription  = `Build the tree of a root (default workspace.root) with the configured ignore rules,
pick one file interactively and print its absolute path.`
	findUsageExample = `  # Pick a file below the current directory and copy its path
  gravity find --copy`

	copyFlagDescription = "copy the selected path to the clipboard"

	findPrompt         = "gravity > "
	findPreviewLimit   = 16 * 1024
	findBinaryPreview  = "(binary file)"
	errorNoFilesFormat = "no files under %s"
	logFileSelected    = "file selected"
	logFieldPath       = "path"
)

// filePicker presents candidates relative to root and returns the chosen index. The
// boolean is false when the user cancelled.
type filePicker func(root string, candidates []string) (int, bool, error)

// pickWithFuzzyFinder runs an interactive fuzzy finder with a file preview pane.
func pickWithFuzzyFinder(root string, candidates []string) (int, bool, error) {
	finder, finderError := fzf.New(
		fzf.WithPrompt(findPrompt),
		fzf.WithInputPosition(fzf.InputPositionTop),
		fzf.WithLimit(1),
	)
	if finderError != nil {
		return 0, false, finderError
	}
	indices, findError := finder.Find(
		candidates,
		func(index int) string { return candidates[index] },
		fzf.WithPreviewWindow(func(index, width, height int) string {
			if index < 0 || index >= len(candidates) {
				return ""
			}
			return previewText(filepath.Join(root, candidates[index]))
		}),
	)
	if findError != nil {
		return 0, false, findError
	}
	if len(indices) == 0 {
		return 0, false, nil
	}
	return indices[0], true, nil
}

func previewText(path string) string {
	preview, previewError := utils.ReadPreview(path, findPreviewLimit)
	if previewError != nil {
		return previewError.Error()
	}
	if preview.IsBinary {
		return findBinaryPreview
	}
	return preview.Text
}

// createFindCommand returns the find subcommand.
func createFindCommand(state *commandState) *cobra.Command {
	var copyEnabled bool

	findCommand := &cobra.Command{
		Use:     findUse,
		Aliases: []string{findAlias},
		Short:   findShortDescription,
		Long:    findLongDescription,
		Example: findUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := state.loadSettings()
			if settingsError != nil {
				return settingsError
			}
			if len(arguments) == 1 {
				settings.WorkspaceRoot = arguments[0]
			}
			logger, loggerError := newCommandLogger(settings)
			if loggerError != nil {
				return loggerError
			}
			defer func() { _ = logger.Sync() }()

			selected, found, findError := findFile(settings, state.dependencies.pickFile, logger)
			if findError != nil || !found {
				return findError
			}
			if _, printError := fmt.Fprintln(command.OutOrStdout(), selected); printError != nil {
				return printError
			}
			if copyEnabled {
				return state.dependencies.copier.Copy(selected)
			}
			return nil
		},
	}
	bindLiteralBool(findCommand.Flags(), &copyEnabled, copyFlagName, false, copyFlagDescription)
	return findCommand
}

// findFile builds the configured tree and lets picker choose one of its files.
func findFile(settings config.Settings, picker filePicker, logger *zap.Logger) (string, bool, error) {
	root, rootError := utils.CanonicalPath(settings.WorkspaceRoot)
	if rootError != nil {
		return "", false, fmt.Errorf("%w: %w", workspace.ErrRootUnreachable, rootError)
	}
	builder := workspace.TreeBuilder{
		IgnorePatterns: config.LoadIgnorePatterns(root, settings.Tree.IgnoreOptions()),
		Logger:         logger,
	}
	tree, buildError := builder.Build(root)
	if buildError != nil {
		return "", false, buildError
	}

	candidates := relativeFilePaths(tree)
	if len(candidates) == 0 {
		return "", false, fmt.Errorf(errorNoFilesFormat, tree.Path)
	}
	index, chosen, pickError := picker(tree.Path, candidates)
	if pickError != nil {
		return "", false, pickError
	}
	if !chosen {
		return "", false, nil
	}
	if index < 0 || index >= len(candidates) {
		return "", false, errors.New("picker returned an out of range selection")
	}
	selected := filepath.Join(tree.Path, candidates[index])
	logger.Info(logFileSelected, zap.String(logFieldPath, selected))
	return selected, true, nil
}

// relativeFilePaths lists every file below root in display order, relative to root.
func relativeFilePaths(root *workspace.TreeNode) []string {
	var paths []string
	var visit func(node *workspace.TreeNode)
	visit = func(node *workspace.TreeNode) {
		if !node.IsDirectory {
			relative, relativeError := filepath.Rel(root.Path, node.Path)
			if relativeError == nil {
				paths = append(paths, relative)
			}
			return
		}
		for index := range node.Children {
			visit(&node.Children[index])
		}
	}
	visit(root)
	return paths
}
