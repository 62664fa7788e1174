package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/gravity/internal/tokenizer"
	"github.com/tyemirov/gravity/internal/utils"
)

// ErrRootUnreachable reports a tree root that does not exist or cannot be resolved.
var ErrRootUnreachable = errors.New("tree root is unreachable")

const (
	errorRootUnreachableFormat = "%w: %s: %w"

	logSkippedEntry       = "skipping unreadable entry"
	logSkippedBrokenLink  = "skipping broken symlink"
	logTokenCountFailed   = "token count failed"
	logTreeBuilt          = "tree built"
	logFieldPath          = "path"
	logFieldRoot          = "root"
	logFieldEntries       = "entries"
	pathSeparatorAsString = string(filepath.Separator)
)

// TreeBuilder builds tree snapshots using configured options. The zero value builds a
// tree of every reachable entry.
type TreeBuilder struct {
	// IgnorePatterns are root-relative patterns understood by utils.MatchesIgnorePattern.
	IgnorePatterns []string
	// TokenCounter, when set, annotates text files with their token counts.
	TokenCounter tokenizer.Counter
	Logger       *zap.Logger
}

// Build returns the tree rooted at rootPath, or ErrRootUnreachable when the root does
// not canonicalize. Entries that cannot be read are left out without failing the build.
func (builder *TreeBuilder) Build(rootPath string) (*TreeNode, error) {
	logger := utils.LoggerOrNop(builder.Logger)
	canonicalRoot, canonicalError := utils.CanonicalPath(rootPath)
	if canonicalError != nil {
		return nil, fmt.Errorf(errorRootUnreachableFormat, ErrRootUnreachable, rootPath, canonicalError)
	}

	detached := builder.collect(canonicalRoot, logger)
	root, found := detached[canonicalRoot]
	if !found {
		return nil, fmt.Errorf(errorRootUnreachableFormat, ErrRootUnreachable, rootPath, fs.ErrNotExist)
	}
	entryCount := len(detached)
	link(detached, canonicalRoot)
	root.SortChildren()
	logger.Debug(logTreeBuilt, zap.String(logFieldRoot, canonicalRoot), zap.Int(logFieldEntries, entryCount))
	return root, nil
}

// BuildTree builds a tree with default options and returns nil when the root is unreachable.
func BuildTree(rootPath string) *TreeNode {
	root, _ := (&TreeBuilder{}).Build(rootPath)
	return root
}

// collect walks the canonical root and returns every reachable entry as a detached node
// keyed by path.
func (builder *TreeBuilder) collect(canonicalRoot string, logger *zap.Logger) map[string]*TreeNode {
	detached := make(map[string]*TreeNode)
	_ = filepath.WalkDir(canonicalRoot, func(path string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			// an unreadable directory keeps the node recorded on its first visit
			logger.Debug(logSkippedEntry, zap.String(logFieldPath, path), zap.Error(walkError))
			return nil
		}
		if path != canonicalRoot && utils.MatchesIgnorePattern(utils.RelativeSlashPath(path, canonicalRoot), builder.IgnorePatterns) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if _, targetError := os.Stat(path); targetError != nil {
				logger.Debug(logSkippedBrokenLink, zap.String(logFieldPath, path), zap.Error(targetError))
				return nil
			}
		}
		info, infoError := entry.Info()
		if infoError != nil {
			logger.Debug(logSkippedEntry, zap.String(logFieldPath, path), zap.Error(infoError))
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		node := newTreeNode(path, entry.IsDir())
		node.ModifiedAt = info.ModTime()
		if !node.IsDirectory {
			node.SizeBytes = info.Size()
			builder.countTokens(node, logger)
		}
		detached[path] = node
		return nil
	})
	return detached
}

func (builder *TreeBuilder) countTokens(node *TreeNode, logger *zap.Logger) {
	if builder.TokenCounter == nil {
		return
	}
	result, countError := tokenizer.CountFile(builder.TokenCounter, node.Path)
	if countError != nil {
		logger.Debug(logTokenCountFailed, zap.String(logFieldPath, node.Path), zap.Error(countError))
		return
	}
	if result.Counted {
		node.Tokens = result.Tokens
	}
}

// link moves every non-root node into its parent's children, deepest paths first, so a
// node's own children are complete and sorted before the node is attached. Only the
// root remains in detached afterwards.
func link(detached map[string]*TreeNode, rootPath string) {
	paths := make([]string, 0, len(detached))
	for path := range detached {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(left, right int) bool {
		leftDepth, rightDepth := pathDepth(paths[left]), pathDepth(paths[right])
		if leftDepth != rightDepth {
			return leftDepth > rightDepth
		}
		return paths[left] < paths[right]
	})

	for _, path := range paths {
		if path == rootPath {
			continue
		}
		node := detached[path]
		delete(detached, path)
		node.SortChildren()
		if parent, found := detached[filepath.Dir(path)]; found {
			parent.Children = append(parent.Children, *node)
		}
	}
}

func pathDepth(path string) int {
	return strings.Count(path, pathSeparatorAsString)
}

func baseName(path string) string {
	return filepath.Base(path)
}
