package app

import "github.com/charmbracelet/lipgloss"

const (
	mutedColor = "241"
	errorColor = "196"
)

type styles struct {
	title      lipgloss.Style
	pane       lipgloss.Style
	focused    lipgloss.Style
	selected   lipgloss.Style
	muted      lipgloss.Style
	errorLine  lipgloss.Style
	promptText lipgloss.Style
}

// newStyles derives the palette from the configured accent color.
func newStyles(accentHex string) styles {
	accent := lipgloss.Color(accentHex)
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFDF5")).Background(accent).Padding(0, 1),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(mutedColor)),
		focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		selected:   lipgloss.NewStyle().Bold(true).Background(accent).Foreground(lipgloss.Color("#FFFDF5")),
		muted:      lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor)),
		errorLine:  lipgloss.NewStyle().Foreground(lipgloss.Color(errorColor)),
		promptText: lipgloss.NewStyle().Bold(true),
	}
}
