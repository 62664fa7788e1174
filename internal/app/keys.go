package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit           key.Binding
	focusNext      key.Binding
	up             key.Binding
	down           key.Binding
	activate       key.Binding
	rescan         key.Binding
	copyPath       key.Binding
	submit         key.Binding
	transcriptUp   key.Binding
	transcriptDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		focusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "toggle/open"),
		),
		rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		copyPath: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy path"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		transcriptUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll output"),
		),
		transcriptDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "scroll output"),
		),
	}
}

func (keys keyMap) treeHelp() []key.Binding {
	return []key.Binding{keys.up, keys.down, keys.activate, keys.rescan, keys.copyPath, keys.focusNext, keys.quit}
}

func (keys keyMap) inputHelp() []key.Binding {
	return []key.Binding{keys.submit, keys.transcriptUp, keys.focusNext, keys.quit}
}
