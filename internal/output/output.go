// Package output renders tree snapshots for the non-interactive tree command.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix   = "/"
	tokenSuffixFormat = " (%d tokens)"

	summaryPrefix        = "Summary: "
	summaryCountFormat   = "%d %s"
	summaryTokensFormat  = "%d tokens"
	summaryModelFormat   = " (model: %s)"
	summaryPartSeparator = ", "
)

// Summary aggregates the entries below one or more roots.
type Summary struct {
	Directories int    `json:"directories" xml:"directories,attr"`
	Files       int    `json:"files" xml:"files,attr"`
	TotalBytes  int64  `json:"totalBytes" xml:"totalBytes,attr"`
	TotalSize   string `json:"totalSize" xml:"totalSize,attr"`
	TotalTokens int    `json:"totalTokens,omitempty" xml:"totalTokens,attr,omitempty"`
	Model       string `json:"model,omitempty" xml:"model,attr,omitempty"`
}

// Summarize counts the entries below each root, excluding the roots themselves.
func Summarize(roots []*workspace.TreeNode, model string) Summary {
	var summary Summary
	for _, root := range roots {
		if root == nil {
			continue
		}
		root.Walk(func(current *workspace.TreeNode, depth int) bool {
			if depth == 0 {
				return true
			}
			if current.IsDirectory {
				summary.Directories++
				return true
			}
			summary.Files++
			summary.TotalBytes += current.SizeBytes
			summary.TotalTokens += current.Tokens
			return true
		})
	}
	summary.TotalSize = utils.FormatFileSize(summary.TotalBytes)
	if summary.TotalTokens > 0 {
		summary.Model = model
	}
	return summary
}

// FormatSummaryLine renders a Summary as the trailing line of raw output.
func FormatSummaryLine(summary Summary) string {
	parts := []string{
		fmt.Sprintf(summaryCountFormat, summary.Directories, plural(summary.Directories, "directory", "directories")),
		fmt.Sprintf(summaryCountFormat, summary.Files, plural(summary.Files, "file", "files")),
		summary.TotalSize,
	}
	if summary.TotalTokens > 0 {
		parts = append(parts, fmt.Sprintf(summaryTokensFormat, summary.TotalTokens))
	}
	line := summaryPrefix + strings.Join(parts, summaryPartSeparator)
	if summary.Model != "" {
		line += fmt.Sprintf(summaryModelFormat, summary.Model)
	}
	return line
}

func plural(count int, singular string, pluralForm string) string {
	if count == 1 {
		return singular
	}
	return pluralForm
}

// WriteTreeRaw draws root as an indented tree with box-drawing connectors. The root line
// carries the full path; descendants carry their names, directories with a trailing slash.
func WriteTreeRaw(writer io.Writer, root *workspace.TreeNode) error {
	if root == nil {
		return nil
	}
	if _, writeError := fmt.Fprintln(writer, root.Path); writeError != nil {
		return writeError
	}
	return writeChildren(writer, root, "")
}

func writeChildren(writer io.Writer, node *workspace.TreeNode, prefix string) error {
	for index := range node.Children {
		child := &node.Children[index]
		isLast := index == len(node.Children)-1
		connector, childPrefix := treeBranchConnector, prefix+treeBranchPadding
		if isLast {
			connector, childPrefix = treeLastConnector, prefix+treeLastPadding
		}
		if _, writeError := fmt.Fprintf(writer, "%s%s%s\n", prefix, connector, nodeLabel(child)); writeError != nil {
			return writeError
		}
		if child.IsDirectory {
			if childError := writeChildren(writer, child, childPrefix); childError != nil {
				return childError
			}
		}
	}
	return nil
}

func nodeLabel(node *workspace.TreeNode) string {
	if node.IsDirectory {
		return node.Name + directorySuffix
	}
	if node.Tokens > 0 {
		return node.Name + fmt.Sprintf(tokenSuffixFormat, node.Tokens)
	}
	return node.Name
}

// WriteRaw draws each root in order, separated by a blank line, optionally followed by
// the summary line.
func WriteRaw(writer io.Writer, roots []*workspace.TreeNode, includeSummary bool, model string) error {
	for index, root := range roots {
		if index > 0 {
			if _, writeError := fmt.Fprintln(writer); writeError != nil {
				return writeError
			}
		}
		if treeError := WriteTreeRaw(writer, root); treeError != nil {
			return treeError
		}
	}
	if !includeSummary {
		return nil
	}
	_, writeError := fmt.Fprintln(writer, FormatSummaryLine(Summarize(roots, model)))
	return writeError
}

// RenderJSON marshals a single root as an object and several roots as an array.
func RenderJSON(roots []*workspace.TreeNode) (string, error) {
	if len(roots) == 0 {
		return "[]", nil
	}
	if len(roots) == 1 {
		encoded, jsonEncodeError := json.MarshalIndent(roots[0], indentPrefix, indentSpacer)
		return string(encoded), jsonEncodeError
	}
	encoded, jsonEncodeError := json.MarshalIndent(roots, indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}
