package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/tyemirov/gravity/internal/utils"
	"github.com/tyemirov/gravity/internal/workspace"
)

// makeTree creates files (and their parent directories) under root. Entries ending in
// a slash are created as empty directories.
func makeTree(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, entry := range entries {
		fullPath := filepath.Join(root, filepath.FromSlash(entry))
		if entry[len(entry)-1] == '/' {
			if err := os.MkdirAll(fullPath, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", fullPath, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(fullPath), err)
		}
		if err := os.WriteFile(fullPath, []byte(entry), 0o600); err != nil {
			t.Fatalf("write %s: %v", fullPath, err)
		}
	}
}

func childNames(node *workspace.TreeNode) []string {
	names := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		names = append(names, child.Name)
	}
	return names
}

func buildOrFail(t *testing.T, builder *workspace.TreeBuilder, root string) *workspace.TreeNode {
	t.Helper()
	tree, err := builder.Build(root)
	if err != nil {
		t.Fatalf("Build(%s) error: %v", root, err)
	}
	if tree == nil {
		t.Fatalf("Build(%s) returned nil tree", root)
	}
	return tree
}

func TestBuildPlacesDirectoriesBeforeFiles(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "dirA/a.txt", "dirB/b.txt", "z.txt")

	tree := buildOrFail(t, &workspace.TreeBuilder{}, root)

	if names := childNames(tree); !reflect.DeepEqual(names, []string{"dirA", "dirB", "z.txt"}) {
		t.Fatalf("unexpected root children %v", names)
	}
	if !tree.IsDirectory || tree.Expanded {
		t.Fatalf("root must be a collapsed directory: %+v", tree)
	}
	if names := childNames(&tree.Children[0]); !reflect.DeepEqual(names, []string{"a.txt"}) {
		t.Fatalf("unexpected dirA children %v", names)
	}
}

func TestBuildOrdersEachGroupCaseInsensitively(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root,
		"b.txt", "A.txt", "C.txt",
		"zeta/", "Alpha/", "mid/",
		"mid/Beta/", "mid/alpha.md", "mid/beta.md", "mid/Zed.go",
	)

	tree := buildOrFail(t, &workspace.TreeBuilder{}, root)

	if names := childNames(tree); !reflect.DeepEqual(names, []string{"Alpha", "mid", "zeta", "A.txt", "b.txt", "C.txt"}) {
		t.Fatalf("unexpected root children %v", names)
	}
	mid := workspace.Find(tree, filepath.Join(tree.Path, "mid"))
	if mid == nil {
		t.Fatalf("mid directory missing")
	}
	if names := childNames(mid); !reflect.DeepEqual(names, []string{"Beta", "alpha.md", "beta.md", "Zed.go"}) {
		t.Fatalf("unexpected mid children %v", names)
	}
	tree.Walk(func(current *workspace.TreeNode, _ int) bool {
		if !current.ChildrenOrdered() {
			t.Fatalf("children of %s are out of order: %v", current.Path, childNames(current))
		}
		return true
	})
}

func TestBuildIsDeterministic(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "src/main.go", "src/util/strings.go", "README.md", "docs/", "Makefile", "src/util/Numbers.go")

	first := buildOrFail(t, &workspace.TreeBuilder{}, root)
	second := buildOrFail(t, &workspace.TreeBuilder{}, root)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two builds of an unchanged directory differ")
	}
	directories, files := first.Count()
	if directories != 3 || files != 5 {
		t.Fatalf("expected 3 directories and 5 files, got %d and %d", directories, files)
	}
}

func TestBuildRejectsUnreachableRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	tree, err := (&workspace.TreeBuilder{}).Build(missing)

	if tree != nil {
		t.Fatalf("expected no tree for missing root")
	}
	if !errors.Is(err, workspace.ErrRootUnreachable) {
		t.Fatalf("expected ErrRootUnreachable, got %v", err)
	}
	if workspace.BuildTree(missing) != nil {
		t.Fatalf("BuildTree must return nil for a missing root")
	}
}

func TestBuildCanonicalizesPaths(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "project/lib/code.go")
	canonicalProject, err := utils.CanonicalPath(filepath.Join(root, "project"))
	if err != nil {
		t.Fatalf("Canonicalize error: %v", err)
	}

	tree := buildOrFail(t, &workspace.TreeBuilder{}, filepath.Join(root, "project", "lib", ".."))

	if tree.Path != canonicalProject || tree.Name != "project" {
		t.Fatalf("expected canonical root %s, got %s (%s)", canonicalProject, tree.Path, tree.Name)
	}
	expectedFile := filepath.Join(canonicalProject, "lib", "code.go")
	if workspace.Find(tree, expectedFile) == nil {
		t.Fatalf("expected %s in tree", expectedFile)
	}

	link := filepath.Join(root, "shortcut")
	if symlinkErr := os.Symlink(filepath.Join(root, "project"), link); symlinkErr != nil {
		t.Skipf("symlinks unavailable: %v", symlinkErr)
	}
	viaLink := buildOrFail(t, &workspace.TreeBuilder{}, link)
	if viaLink.Path != canonicalProject {
		t.Fatalf("symlinked root must resolve to %s, got %s", canonicalProject, viaLink.Path)
	}
}

func TestBuildSkipsBrokenSymlinks(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "kept.txt")
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "kept.txt"), filepath.Join(root, "alias")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tree := buildOrFail(t, &workspace.TreeBuilder{}, root)

	if names := childNames(tree); !reflect.DeepEqual(names, []string{"alias", "kept.txt"}) {
		t.Fatalf("expected broken symlink to be skipped, got %v", names)
	}
}

func TestBuildSkipsUnreadableSubtree(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := t.TempDir()
	makeTree(t, root, "open/visible.txt", "locked/hidden.txt")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	tree := buildOrFail(t, &workspace.TreeBuilder{}, root)

	lockedNode := workspace.Find(tree, filepath.Join(tree.Path, "locked"))
	if lockedNode == nil || len(lockedNode.Children) != 0 {
		t.Fatalf("expected locked directory without children, got %+v", lockedNode)
	}
	if workspace.Find(tree, filepath.Join(tree.Path, "open", "visible.txt")) == nil {
		t.Fatalf("readable entries must still be present")
	}
}

func TestBuildHonorsIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "build/out.bin", "src/app.go", "src/debug.log", "notes.log", ".git/HEAD")

	tree := buildOrFail(t, &workspace.TreeBuilder{IgnorePatterns: []string{"build/", "*.log", ".git/"}}, root)

	if names := childNames(tree); !reflect.DeepEqual(names, []string{"src"}) {
		t.Fatalf("unexpected root children %v", names)
	}
	if names := childNames(&tree.Children[0]); !reflect.DeepEqual(names, []string{"app.go"}) {
		t.Fatalf("unexpected src children %v", names)
	}
}

func TestBuildOfFileRootHasNoChildren(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "single.txt")

	tree := buildOrFail(t, &workspace.TreeBuilder{}, filepath.Join(root, "single.txt"))

	if tree.IsDirectory || len(tree.Children) != 0 || tree.Name != "single.txt" {
		t.Fatalf("unexpected file root %+v", tree)
	}
	if tree.SizeBytes != int64(len("single.txt")) {
		t.Fatalf("expected size %d, got %d", len("single.txt"), tree.SizeBytes)
	}
}

type wordCounter struct{}

func (wordCounter) Name() string { return "words" }

func (wordCounter) CountString(input string) (int, error) { return len(input), nil }

func TestBuildCountsTokensWhenConfigured(t *testing.T) {
	root := t.TempDir()
	makeTree(t, root, "a/text.md")
	if err := os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0x00, 0x9f}, 0o600); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	tree := buildOrFail(t, &workspace.TreeBuilder{TokenCounter: wordCounter{}}, root)

	textNode := workspace.Find(tree, filepath.Join(tree.Path, "a", "text.md"))
	if textNode == nil || textNode.Tokens != len("a/text.md") {
		t.Fatalf("expected token count on text file, got %+v", textNode)
	}
	if binaryNode := workspace.Find(tree, filepath.Join(tree.Path, "blob.bin")); binaryNode == nil || binaryNode.Tokens != 0 {
		t.Fatalf("binary file must not be counted, got %+v", binaryNode)
	}
}
