// Package workspace models the navigable directory tree shown beside the editor:
// building a snapshot from a filesystem root and tracking which directories are expanded.
package workspace

import (
	"sort"
	"strings"
	"time"
)

// TreeNode is one filesystem entry of a tree snapshot. A parent exclusively owns its
// Children; nodes hold no parent references, and lookups go through Path.
type TreeNode struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	IsDirectory bool       `json:"isDirectory"`
	Children    []TreeNode `json:"children,omitempty"`
	Expanded    bool       `json:"expanded,omitempty"`
	SizeBytes   int64      `json:"sizeBytes,omitempty"`
	ModifiedAt  time.Time  `json:"modifiedAt"`
	Tokens      int        `json:"tokens,omitempty"`
}

// newTreeNode returns a detached, collapsed node named after the last path component.
func newTreeNode(path string, isDirectory bool) *TreeNode {
	return &TreeNode{
		Name:        baseName(path),
		Path:        path,
		IsDirectory: isDirectory,
	}
}

// SortChildren orders the node's direct children: directories first, then files,
// each group case-insensitively by name.
func (node *TreeNode) SortChildren() {
	sort.SliceStable(node.Children, func(left, right int) bool {
		return lessNode(&node.Children[left], &node.Children[right])
	})
}

// lessNode is the sibling ordering. Exact name and path break case-insensitive ties so
// the order is total.
func lessNode(left, right *TreeNode) bool {
	if left.IsDirectory != right.IsDirectory {
		return left.IsDirectory
	}
	leftFolded, rightFolded := strings.ToLower(left.Name), strings.ToLower(right.Name)
	if leftFolded != rightFolded {
		return leftFolded < rightFolded
	}
	if left.Name != right.Name {
		return left.Name < right.Name
	}
	return left.Path < right.Path
}

// ChildrenOrdered reports whether node's direct children satisfy the sibling ordering.
func (node *TreeNode) ChildrenOrdered() bool {
	for index := 1; index < len(node.Children); index++ {
		if lessNode(&node.Children[index], &node.Children[index-1]) {
			return false
		}
	}
	return true
}

// Walk visits node and its descendants depth-first in child order. Returning false from
// visit skips the visited node's children.
func (node *TreeNode) Walk(visit func(current *TreeNode, depth int) bool) {
	node.walk(visit, 0)
}

func (node *TreeNode) walk(visit func(current *TreeNode, depth int) bool, depth int) {
	if !visit(node, depth) {
		return
	}
	for index := range node.Children {
		node.Children[index].walk(visit, depth+1)
	}
}

// Count returns the number of directories and files below node, excluding node itself.
func (node *TreeNode) Count() (directories int, files int) {
	node.Walk(func(current *TreeNode, depth int) bool {
		if depth == 0 {
			return true
		}
		if current.IsDirectory {
			directories++
		} else {
			files++
		}
		return true
	})
	return directories, files
}
