// Package app is the interactive workspace: a directory tree, a read-only file preview
// and an embedded shell, driven by a single bubbletea update loop.
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tyemirov/gravity/internal/config"
	"github.com/tyemirov/gravity/internal/services/clipboard"
	"github.com/tyemirov/gravity/internal/shell"
	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

const (
	previewByteLimit = 64 * 1024

	rootFieldPlaceholder    = "folder to open"
	commandFieldPlaceholder = "command"

	statusCopiedFormat   = "copied %s"
	statusNoFolder       = "No folder open"
	statusRootFailed     = "cannot open folder"
	statusRescanned      = "rescanned"
	statusNothingToCopy  = "nothing selected"
	statusPreviewFailed  = "cannot open file"
	statusClipboardError = "clipboard: "

	logTreeRebuilt       = "tree rebuilt"
	logTreeUnavailable   = "tree unavailable"
	logPreviewFailed     = "preview failed"
	logCopyFailed        = "copy failed"
	logFieldRoot         = "root"
	logFieldPath         = "path"
	logFieldRestored     = "restored"
	logFieldVisibleNodes = "visible"
)

type focusArea int

const (
	focusTree focusArea = iota
	focusCommand
	focusRoot
	focusAreaCount
)

// Options wire the workspace to its collaborators.
type Options struct {
	Settings config.Settings
	// WorkingDirectory seeds the shell; empty means the process working directory.
	WorkingDirectory string
	// Runner overrides the runner selected by Settings.Shell.
	Runner  shell.Runner
	Copier  clipboard.Copier
	Logger  *zap.Logger
	Context context.Context
}

type document struct {
	path    string
	node    *workspace.TreeNode
	preview utils.Preview
	err     error
}

// Model is the bubbletea model of the workspace. The tree, the shell session and the
// document are only touched from Update.
type Model struct {
	ctx               context.Context
	logger            *zap.Logger
	treeSettings      config.TreeSettings
	preserveExpansion bool

	rootPath string
	tree     *workspace.TreeNode
	cursor   int
	offset   int

	session  *shell.Session
	executor *shell.Executor
	copier   clipboard.Copier

	document document

	rootInput    textinput.Model
	commandInput textinput.Model
	transcript   viewport.Model

	focus  focusArea
	keys   keyMap
	styles styles
	status string
	width  int
	height int
}

// New builds the initial tree for options.Settings.WorkspaceRoot and starts a shell
// session. An unreachable root is not an error; the workspace opens without a tree.
func New(options Options) (Model, error) {
	logger := utils.LoggerOrNop(options.Logger)
	settings := options.Settings
	session, sessionError := shell.NewSession(shell.Options{
		WorkingDirectory: options.WorkingDirectory,
		Serialize:        settings.Shell.Serialize,
		Logger:           logger,
	})
	if sessionError != nil {
		return Model{}, sessionError
	}

	var executor *shell.Executor
	if options.Runner != nil {
		executor = shell.NewExecutorWithRunner(options.Runner, settings.Shell.MaxConcurrent, settings.Shell.Timeout)
	} else {
		executor = shell.NewExecutor(shell.ExecutorOptions{
			UsePTY:        settings.Shell.PTY,
			MaxConcurrent: settings.Shell.MaxConcurrent,
			Timeout:       settings.Shell.Timeout,
		})
	}

	copier := options.Copier
	if copier == nil {
		copier = clipboard.SystemCopier{}
	}
	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}

	rootInput := textinput.New()
	rootInput.Placeholder = rootFieldPlaceholder
	rootInput.SetValue(settings.WorkspaceRoot)

	commandInput := textinput.New()
	commandInput.Placeholder = commandFieldPlaceholder
	commandInput.Prompt = ""

	model := Model{
		ctx:               ctx,
		logger:            logger,
		treeSettings:      settings.Tree,
		preserveExpansion: settings.PreserveExpansion,
		session:           session,
		executor:          executor,
		copier:            copier,
		rootInput:         rootInput,
		commandInput:      commandInput,
		transcript:        viewport.New(0, 0),
		keys:              newKeyMap(),
		styles:            newStyles(settings.Accent.Hex()),
	}
	model.rebuild(settings.WorkspaceRoot)
	model.layout()
	return model, nil
}

func (model Model) Init() tea.Cmd {
	return nil
}

// Tree returns the current snapshot, or nil when no folder is open.
func (model Model) Tree() *workspace.TreeNode {
	return model.tree
}

func (model Model) Session() *shell.Session {
	return model.session
}

// SelectedPath is the path of the row under the cursor, or "" without a tree.
func (model Model) SelectedPath() string {
	rows := workspace.VisibleRows(model.tree)
	if model.cursor < 0 || model.cursor >= len(rows) {
		return ""
	}
	return rows[model.cursor].Node.Path
}

// DocumentPath is the path of the file shown in the preview pane.
func (model Model) DocumentPath() string {
	return model.document.path
}

func (model Model) Status() string {
	return model.status
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		model.width, model.height = typed.Width, typed.Height
		model.layout()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(typed)

	case ToggleFolderMsg:
		model.toggleFolder(typed.Path)
		return model, nil

	case OpenFileMsg:
		model.openFile(typed.Path)
		return model, nil

	case BrowsePathChangedMsg:
		model.rootInput.SetValue(typed.Path)
		model.rebuild(typed.Path)
		return model, nil

	case RescanMsg:
		model.rebuild(model.rootPath)
		if model.tree != nil {
			model.status = statusRescanned
		}
		return model, nil

	case CommandFinishedMsg:
		next := model.session.Complete(typed.Completion)
		model.refreshTranscript()
		return model, model.runCommand(next)

	case pathCopiedMsg:
		if typed.err != nil {
			model.logger.Warn(logCopyFailed, zap.String(logFieldPath, typed.path), zap.Error(typed.err))
			model.status = statusClipboardError + typed.err.Error()
			return model, nil
		}
		model.status = formatStatus(statusCopiedFormat, typed.path)
		return model, nil
	}
	return model, nil
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.quit):
		return model, tea.Quit
	case key.Matches(msg, model.keys.focusNext):
		return model, model.cycleFocus()
	case key.Matches(msg, model.keys.transcriptUp):
		model.transcript.HalfViewUp()
		return model, nil
	case key.Matches(msg, model.keys.transcriptDown):
		model.transcript.HalfViewDown()
		return model, nil
	}

	switch model.focus {
	case focusCommand:
		if key.Matches(msg, model.keys.submit) {
			model.session.SetPendingInput(model.commandInput.Value())
			dispatch := model.session.SubmitPending()
			model.commandInput.Reset()
			// cd may have changed the prompt label the input is sized against
			model.layout()
			return model, model.runCommand(dispatch)
		}
		var inputCmd tea.Cmd
		model.commandInput, inputCmd = model.commandInput.Update(msg)
		model.session.SetPendingInput(model.commandInput.Value())
		return model, inputCmd

	case focusRoot:
		if key.Matches(msg, model.keys.submit) {
			return model.Update(BrowsePathChangedMsg{Path: model.rootInput.Value()})
		}
		var inputCmd tea.Cmd
		model.rootInput, inputCmd = model.rootInput.Update(msg)
		return model, inputCmd
	}

	rows := workspace.VisibleRows(model.tree)
	switch {
	case key.Matches(msg, model.keys.up):
		if model.cursor > 0 {
			model.cursor--
		}
	case key.Matches(msg, model.keys.down):
		if model.cursor < len(rows)-1 {
			model.cursor++
		}
	case key.Matches(msg, model.keys.activate):
		if model.cursor < len(rows) {
			selected := rows[model.cursor].Node
			if selected.IsDirectory {
				model.toggleFolder(selected.Path)
			} else {
				model.openFile(selected.Path)
			}
		}
	case key.Matches(msg, model.keys.rescan):
		return model.Update(RescanMsg{})
	case key.Matches(msg, model.keys.copyPath):
		selectedPath := model.SelectedPath()
		if selectedPath == "" {
			model.status = statusNothingToCopy
			return model, nil
		}
		return model, copyPath(model.copier, selectedPath)
	}
	model.scrollToCursor()
	return model, nil
}

func (model *Model) cycleFocus() tea.Cmd {
	model.focus = (model.focus + 1) % focusAreaCount
	model.commandInput.Blur()
	model.rootInput.Blur()
	switch model.focus {
	case focusCommand:
		return model.commandInput.Focus()
	case focusRoot:
		return model.rootInput.Focus()
	}
	return nil
}

// rebuild replaces the tree with a fresh snapshot of rootPath. Expansion state carries
// over only when preserveExpansion is set.
func (model *Model) rebuild(rootPath string) {
	var remembered []string
	if model.preserveExpansion {
		remembered = workspace.ExpandedPaths(model.tree)
	}
	builder := workspace.TreeBuilder{
		IgnorePatterns: config.LoadIgnorePatterns(rootPath, model.treeSettings.IgnoreOptions()),
		Logger:         model.logger,
	}
	model.rootPath = rootPath
	tree, buildError := builder.Build(rootPath)
	if buildError != nil {
		model.tree = nil
		model.cursor, model.offset = 0, 0
		model.logger.Warn(logTreeUnavailable, zap.String(logFieldRoot, rootPath), zap.Error(buildError))
		if errors.Is(buildError, workspace.ErrRootUnreachable) {
			model.status = statusRootFailed
		}
		return
	}
	restored := workspace.RestoreExpansion(tree, remembered)
	model.tree = tree
	model.status = ""
	model.clampCursor()
	model.logger.Info(logTreeRebuilt,
		zap.String(logFieldRoot, tree.Path),
		zap.Int(logFieldRestored, restored),
		zap.Int(logFieldVisibleNodes, len(workspace.VisibleRows(tree))))
}

func (model *Model) toggleFolder(path string) {
	if !workspace.Toggle(model.tree, path) {
		return
	}
	model.clampCursor()
}

func (model *Model) openFile(path string) {
	preview, previewError := utils.ReadPreview(path, previewByteLimit)
	model.document = document{
		path:    path,
		node:    workspace.Find(model.tree, path),
		preview: preview,
		err:     previewError,
	}
	if previewError != nil {
		model.logger.Warn(logPreviewFailed, zap.String(logFieldPath, path), zap.Error(previewError))
		model.status = statusPreviewFailed
	}
}

func (model *Model) clampCursor() {
	rows := len(workspace.VisibleRows(model.tree))
	if model.cursor >= rows {
		model.cursor = rows - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.scrollToCursor()
}

func (model *Model) scrollToCursor() {
	height := model.treeHeight()
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if height > 0 && model.cursor >= model.offset+height {
		model.offset = model.cursor - height + 1
	}
}

func (model *Model) refreshTranscript() {
	model.transcript.SetContent(model.renderTranscript())
	model.transcript.GotoBottom()
}

// runCommand runs dispatch off the update loop and reports back with CommandFinishedMsg.
func (model Model) runCommand(dispatch *shell.Dispatch) tea.Cmd {
	if dispatch == nil {
		return nil
	}
	ctx, executor := model.ctx, model.executor
	return func() tea.Msg {
		return CommandFinishedMsg{Completion: executor.Execute(ctx, dispatch)}
	}
}

func copyPath(copier clipboard.Copier, path string) tea.Cmd {
	return func() tea.Msg {
		return pathCopiedMsg{path: path, err: copier.Copy(path)}
	}
}
