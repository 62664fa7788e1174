package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tyemirov/gravity/internal/shell"
	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

const (
	applicationTitle = "gravity"

	defaultWidth  = 80
	defaultHeight = 24

	chromeLines   = 3
	borderSize    = 2
	minPaneHeight = 1

	indentUnit          = "  "
	collapsedAffordance = "▶ "
	expandedAffordance  = "▼ "
	fileAffordance      = "  "
	ellipsis            = "…"
	tabReplacement      = "    "

	promptSuffix       = " $ "
	helpSeparator      = " • "
	statusSeparator    = "  "
	noFileOpen         = "No file open"
	binaryNoticeFormat = "Binary file (%s), preview unavailable"
	truncatedNotice    = "(preview truncated)"
	previewHeaderSep   = " · "
)

func formatStatus(format string, arguments ...any) string {
	return fmt.Sprintf(format, arguments...)
}

func (model Model) dimensions() (int, int) {
	width, height := model.width, model.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return width, height
}

// bodyHeight is the outer height of the tree and preview panes; the transcript takes
// the remaining rows.
func (model Model) bodyHeight() int {
	_, height := model.dimensions()
	available := height - chromeLines
	body := available * 3 / 5
	if body < minPaneHeight+borderSize {
		body = minPaneHeight + borderSize
	}
	return body
}

func (model Model) treeHeight() int {
	return model.bodyHeight() - borderSize
}

func (model Model) transcriptHeight() int {
	_, height := model.dimensions()
	inner := height - chromeLines - model.bodyHeight() - borderSize
	if inner < minPaneHeight {
		inner = minPaneHeight
	}
	return inner
}

func (model Model) paneWidths() (int, int) {
	width, _ := model.dimensions()
	treeOuter := width / 2
	return treeOuter - borderSize, width - treeOuter - borderSize
}

func (model *Model) layout() {
	width, _ := model.dimensions()
	model.transcript.Width = width - borderSize
	model.transcript.Height = model.transcriptHeight()
	model.rootInput.Width = width - runewidth.StringWidth(applicationTitle) - 4
	model.commandInput.Width = width - runewidth.StringWidth(model.session.PromptLabel()+promptSuffix) - 1
	model.refreshTranscript()
	model.scrollToCursor()
}

func (model Model) View() string {
	width, _ := model.dimensions()
	treeWidth, previewWidth := model.paneWidths()
	bodyInner := model.treeHeight()

	header := lipgloss.JoinHorizontal(lipgloss.Top, model.styles.title.Render(applicationTitle), " ", model.rootInput.View())

	treePane := model.paneStyle(model.focus == focusTree).
		Width(treeWidth).
		Height(bodyInner).
		Render(model.renderTree(treeWidth, bodyInner))
	previewPane := model.styles.pane.
		Width(previewWidth).
		Height(bodyInner).
		Render(model.renderPreview(previewWidth, bodyInner))
	body := lipgloss.JoinHorizontal(lipgloss.Top, treePane, previewPane)

	transcriptPane := model.paneStyle(model.focus == focusCommand).
		Width(width - borderSize).
		Render(model.transcript.View())

	commandLine := model.styles.promptText.Render(model.session.PromptLabel()+promptSuffix) + model.commandInput.View()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, transcriptPane, commandLine, model.renderFooter(width))
}

func (model Model) paneStyle(focused bool) lipgloss.Style {
	if focused {
		return model.styles.focused
	}
	return model.styles.pane
}

func (model Model) renderTree(width int, height int) string {
	if model.tree == nil {
		return model.styles.muted.Render(statusNoFolder)
	}
	rows := workspace.VisibleRows(model.tree)
	end := model.offset + height
	if end > len(rows) {
		end = len(rows)
	}
	lines := make([]string, 0, end-model.offset)
	for index := model.offset; index < end; index++ {
		line := runewidth.Truncate(treeRowText(rows[index]), width, ellipsis)
		if index == model.cursor {
			line = model.styles.selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func treeRowText(row workspace.Row) string {
	affordance := fileAffordance
	if row.Node.IsDirectory {
		affordance = collapsedAffordance
		if row.Node.Expanded {
			affordance = expandedAffordance
		}
	}
	return strings.Repeat(indentUnit, row.Depth) + affordance + row.Node.Name
}

func (model Model) renderPreview(width int, height int) string {
	current := model.document
	if current.path == "" {
		return model.styles.muted.Render(noFileOpen)
	}
	header := current.path
	if current.err == nil {
		header += previewHeaderSep + utils.FormatFileSize(current.preview.SizeBytes)
	}
	if current.node != nil {
		if modified := utils.FormatTimestamp(current.node.ModifiedAt); modified != "" {
			header += previewHeaderSep + modified
		}
	}
	lines := []string{model.styles.promptText.Render(runewidth.Truncate(header, width, ellipsis))}

	switch {
	case current.err != nil:
		lines = append(lines, model.styles.errorLine.Render(runewidth.Truncate(current.err.Error(), width, ellipsis)))
	case current.preview.IsBinary:
		lines = append(lines, model.styles.muted.Render(fmt.Sprintf(binaryNoticeFormat, utils.FormatFileSize(current.preview.SizeBytes))))
	default:
		bodyLines := strings.Split(strings.ReplaceAll(current.preview.Text, "\t", tabReplacement), "\n")
		room := height - 1
		if current.preview.Truncated {
			room--
		}
		for index := 0; index < len(bodyLines) && index < room; index++ {
			lines = append(lines, runewidth.Truncate(bodyLines[index], width, ellipsis))
		}
		if current.preview.Truncated {
			lines = append(lines, model.styles.muted.Render(truncatedNotice))
		}
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderTranscript() string {
	entries := model.session.Transcript()
	rendered := make([]string, len(entries))
	errorPrefix := shell.ErrorLine("")
	for index, entry := range entries {
		if strings.HasPrefix(entry, errorPrefix) {
			rendered[index] = model.styles.errorLine.Render(entry)
			continue
		}
		rendered[index] = entry
	}
	return strings.Join(rendered, "\n")
}

func (model Model) renderFooter(width int) string {
	bindings := model.keys.inputHelp()
	if model.focus == focusTree {
		bindings = model.keys.treeHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		parts = append(parts, helpText(binding))
	}
	footer := strings.Join(parts, helpSeparator)
	if model.status != "" {
		footer = model.status + statusSeparator + footer
	}
	return model.styles.muted.Render(runewidth.Truncate(footer, width, ellipsis))
}

func helpText(binding key.Binding) string {
	help := binding.Help()
	return help.Key + " " + help.Desc
}
