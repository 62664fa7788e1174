package output

import (
	"bytes"
	"strconv"

	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

// toonBuilder writes Token-Oriented Object Notation: indented key/value lines with
// arrays announced by their length, e.g. "children[2]:".
type toonBuilder struct {
	buffer bytes.Buffer
}

type toonField struct {
	key   string
	value any
}

func (builder *toonBuilder) String() string {
	return builder.buffer.String()
}

func (builder *toonBuilder) writeTreeNodes(roots []*workspace.TreeNode) {
	present := make([]*workspace.TreeNode, 0, len(roots))
	for _, root := range roots {
		if root != nil {
			present = append(present, root)
		}
	}
	builder.writeArray(0, "", "trees", len(present))
	for _, root := range present {
		builder.writeTreeNode(1, root)
	}
}

func (builder *toonBuilder) writeTreeNode(indent int, node *workspace.TreeNode) {
	fields := []toonField{
		{key: "path", value: node.Path},
		{key: "name", value: node.Name},
		{key: "type", value: nodeType(node)},
	}
	if !node.IsDirectory {
		fields = append(fields, toonField{key: "size", value: utils.FormatFileSize(node.SizeBytes)})
	}
	if node.Tokens > 0 {
		fields = append(fields, toonField{key: "tokens", value: node.Tokens})
	}
	if len(node.Children) > 0 {
		fields = append(fields, toonField{key: "children", value: node.Children})
	}

	builder.writeField(indent, "- ", fields[0])
	for _, field := range fields[1:] {
		builder.writeField(indent+1, "", field)
	}
}

func (builder *toonBuilder) writeField(indent int, prefix string, field toonField) {
	switch value := field.value.(type) {
	case []workspace.TreeNode:
		builder.writeArray(indent, prefix, field.key, len(value))
		for index := range value {
			builder.writeTreeNode(indent+1, &value[index])
		}
	case int:
		builder.writeScalar(indent, prefix, field.key, strconv.Itoa(value))
	case string:
		builder.writeScalar(indent, prefix, field.key, formatToonString(value))
	}
}

func (builder *toonBuilder) writeSummary(summary Summary) {
	builder.buffer.WriteString("summary:\n")
	builder.writeScalar(1, "", "directories", strconv.Itoa(summary.Directories))
	builder.writeScalar(1, "", "files", strconv.Itoa(summary.Files))
	builder.writeScalar(1, "", "totalSize", formatToonString(summary.TotalSize))
	if summary.TotalTokens > 0 {
		builder.writeScalar(1, "", "totalTokens", strconv.Itoa(summary.TotalTokens))
	}
	if summary.Model != "" {
		builder.writeScalar(1, "", "model", formatToonString(summary.Model))
	}
}

func (builder *toonBuilder) writeScalar(indent int, prefix string, key string, value string) {
	builder.writeIndent(indent)
	builder.buffer.WriteString(prefix)
	builder.buffer.WriteString(key)
	builder.buffer.WriteString(": ")
	builder.buffer.WriteString(value)
	builder.buffer.WriteByte('\n')
}

func (builder *toonBuilder) writeArray(indent int, prefix string, name string, length int) {
	builder.writeIndent(indent)
	builder.buffer.WriteString(prefix)
	builder.buffer.WriteString(name)
	builder.buffer.WriteString("[")
	builder.buffer.WriteString(strconv.Itoa(length))
	builder.buffer.WriteString("]:\n")
}

func (builder *toonBuilder) writeIndent(level int) {
	for index := 0; index < level; index++ {
		builder.buffer.WriteString(indentSpacer)
	}
}

func formatToonString(value string) string {
	if needsQuote(value) {
		return strconv.Quote(value)
	}
	return value
}

func needsQuote(value string) bool {
	if value == "" {
		return true
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == '/', r == '\\', r == '@', r == '~', r == '+':
		default:
			return true
		}
	}
	return false
}

// RenderTOON lists the roots under a "trees" array, optionally followed by a summary block.
func RenderTOON(roots []*workspace.TreeNode, includeSummary bool, model string) string {
	var builder toonBuilder
	builder.writeTreeNodes(roots)
	if includeSummary {
		builder.writeSummary(Summarize(roots, model))
	}
	return builder.String()
}
