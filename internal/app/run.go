package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the workspace on the terminal and blocks until the user quits or ctx ends.
func Run(ctx context.Context, options Options) error {
	options.Context = ctx
	model, modelError := New(options)
	if modelError != nil {
		return modelError
	}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runError := program.Run()
	return runError
}
