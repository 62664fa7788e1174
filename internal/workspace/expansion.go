package workspace

import "sort"

// Toggle flips Expanded on the node whose path equals targetPath and reports whether
// one was found. A path missing from the tree, such as one kept from an earlier
// snapshot, leaves the tree untouched.
func Toggle(root *TreeNode, targetPath string) bool {
	if root == nil {
		return false
	}
	if root.Path == targetPath {
		root.Expanded = !root.Expanded
		return true
	}
	if !root.IsDirectory {
		return false
	}
	for index := range root.Children {
		if Toggle(&root.Children[index], targetPath) {
			return true
		}
	}
	return false
}

// Find returns the node with the given path, or nil.
func Find(root *TreeNode, targetPath string) *TreeNode {
	if root == nil {
		return nil
	}
	var found *TreeNode
	root.Walk(func(current *TreeNode, _ int) bool {
		if found != nil {
			return false
		}
		if current.Path == targetPath {
			found = current
			return false
		}
		return current.IsDirectory
	})
	return found
}

// Row is one line of the rendered tree.
type Row struct {
	Node  *TreeNode
	Depth int
}

// VisibleRows flattens the tree into display order. The root is always listed; the
// children of a node are listed only while that node is expanded.
func VisibleRows(root *TreeNode) []Row {
	if root == nil {
		return nil
	}
	var rows []Row
	root.Walk(func(current *TreeNode, depth int) bool {
		rows = append(rows, Row{Node: current, Depth: depth})
		return current.Expanded
	})
	return rows
}

// ExpandedPaths lists the paths of every expanded node in sorted order.
func ExpandedPaths(root *TreeNode) []string {
	if root == nil {
		return nil
	}
	var paths []string
	root.Walk(func(current *TreeNode, _ int) bool {
		if current.Expanded {
			paths = append(paths, current.Path)
		}
		return true
	})
	sort.Strings(paths)
	return paths
}

// RestoreExpansion marks every node whose path is listed as expanded and returns how
// many were restored. Paths absent from the new snapshot are ignored.
func RestoreExpansion(root *TreeNode, paths []string) int {
	if root == nil || len(paths) == 0 {
		return 0
	}
	wanted := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		wanted[path] = struct{}{}
	}
	restored := 0
	root.Walk(func(current *TreeNode, _ int) bool {
		if _, listed := wanted[current.Path]; listed && current.IsDirectory {
			current.Expanded = true
			restored++
		}
		return true
	})
	return restored
}
