package utils

import (
	"fmt"
	"path/filepath"
)

const errorCanonicalPathFormat = "canonicalize %s: %w"

// CanonicalPath returns the absolute, symlink-resolved, cleaned form of path. It fails
// when path does not exist.
func CanonicalPath(path string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return "", fmt.Errorf(errorCanonicalPathFormat, path, absoluteError)
	}
	resolvedPath, resolveError := filepath.EvalSymlinks(absolutePath)
	if resolveError != nil {
		return "", fmt.Errorf(errorCanonicalPathFormat, path, resolveError)
	}
	return filepath.Clean(resolvedPath), nil
}
