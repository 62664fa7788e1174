package output

import (
	"encoding/xml"

	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

const (
	nodeTypeDirectory = "directory"
	nodeTypeFile      = "file"
)

type xmlDocument struct {
	XMLName xml.Name  `xml:"trees"`
	Nodes   []xmlNode `xml:"node"`
	Summary *Summary  `xml:"summary"`
}

type xmlNode struct {
	Name     string    `xml:"name,attr"`
	Path     string    `xml:"path,attr"`
	Type     string    `xml:"type,attr"`
	Size     string    `xml:"size,attr,omitempty"`
	Tokens   int       `xml:"tokens,attr,omitempty"`
	Children []xmlNode `xml:"node"`
}

func newXMLNode(node *workspace.TreeNode) xmlNode {
	converted := xmlNode{Name: node.Name, Path: node.Path, Type: nodeType(node), Tokens: node.Tokens}
	if !node.IsDirectory {
		converted.Size = utils.FormatFileSize(node.SizeBytes)
	}
	for index := range node.Children {
		converted.Children = append(converted.Children, newXMLNode(&node.Children[index]))
	}
	return converted
}

func nodeType(node *workspace.TreeNode) string {
	if node.IsDirectory {
		return nodeTypeDirectory
	}
	return nodeTypeFile
}

// RenderXML wraps the roots in a <trees> document, one nested <node> element per
// entry, with a trailing <summary> element when includeSummary is set.
func RenderXML(roots []*workspace.TreeNode, includeSummary bool, model string) (string, error) {
	document := xmlDocument{}
	for _, root := range roots {
		if root == nil {
			continue
		}
		document.Nodes = append(document.Nodes, newXMLNode(root))
	}
	if includeSummary {
		summary := Summarize(roots, model)
		document.Summary = &summary
	}
	encoded, xmlEncodeError := xml.MarshalIndent(document, indentPrefix, indentSpacer)
	if xmlEncodeError != nil {
		return "", xmlEncodeError
	}
	return xml.Header + string(encoded), nil
}
