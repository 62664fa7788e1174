package app

import "github.com/tyemirov/gravity/internal/shell"

// ToggleFolderMsg flips the expansion state of the directory at Path.
type ToggleFolderMsg struct {
	Path string
}

// OpenFileMsg loads the file at Path into the preview pane.
type OpenFileMsg struct {
	Path string
}

// BrowsePathChangedMsg replaces the tree with a fresh build rooted at Path.
type BrowsePathChangedMsg struct {
	Path string
}

// RescanMsg rebuilds the tree from the current root.
type RescanMsg struct{}

// CommandFinishedMsg carries the outcome of an external command back to the update loop.
type CommandFinishedMsg struct {
	Completion shell.Completion
}

type pathCopiedMsg struct {
	path string
	err  error
}
