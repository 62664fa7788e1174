package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tyemirov/gravity/internal/utils"
)

const (
	// gitDirectoryPattern represents the pattern that matches the Git directory.
	gitDirectoryPattern = utils.GitDirectoryName + "/"
	commentPrefix       = "#"
	negationPrefix      = "!"
)

// IgnoreOptions selects which ignore sources contribute patterns for a tree root.
type IgnoreOptions struct {
	Exclude       []string
	UseGitignore  bool
	UseIgnoreFile bool
	IncludeGit    bool
}

// IgnoreOptions converts resolved tree settings into loader options.
func (settings TreeSettings) IgnoreOptions() IgnoreOptions {
	return IgnoreOptions{
		Exclude:       settings.Exclude,
		UseGitignore:  settings.UseGitignore,
		UseIgnoreFile: settings.UseIgnoreFile,
		IncludeGit:    settings.IncludeGit,
	}
}

// ReadIgnoreFile returns the patterns listed in one ignore file. Blank lines, comments
// and negations are skipped. A missing file yields no patterns and no error.
//
// #nosec G304
func ReadIgnoreFile(ignoreFilePath string) ([]string, error) {
	fileHandle, openError := os.Open(ignoreFilePath)
	if openError != nil {
		if os.IsNotExist(openError) {
			return nil, nil
		}
		return nil, openError
	}
	defer fileHandle.Close()

	var patterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) || strings.HasPrefix(line, negationPrefix) {
			continue
		}
		patterns = append(patterns, line)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf("scan %s: %w", ignoreFilePath, scanError)
	}
	return patterns, nil
}

// LoadIgnorePatterns collects ignore patterns for the tree rooted at rootDirectoryPath.
//
// Patterns found in nested ignore files are prefixed with that directory's path relative
// to the root, so they only apply below it. Unreadable directories and ignore files are
// skipped, matching the best-effort policy of tree builds. The .git directory is excluded
// unless IncludeGit is set, and Exclude patterns are appended last.
func LoadIgnorePatterns(rootDirectoryPath string, options IgnoreOptions) []string {
	var aggregated []string
	var sourceFiles []string
	if options.UseIgnoreFile {
		sourceFiles = append(sourceFiles, utils.IgnoreFileName)
	}
	if options.UseGitignore {
		sourceFiles = append(sourceFiles, utils.GitIgnoreFileName)
	}

	if len(sourceFiles) > 0 {
		_ = filepath.WalkDir(rootDirectoryPath, func(currentPath string, entry fs.DirEntry, walkError error) error {
			if walkError != nil {
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !entry.IsDir() {
				return nil
			}
			relativeDirectory := utils.RelativeSlashPath(currentPath, rootDirectoryPath)
			if !options.IncludeGit && entry.Name() == utils.GitDirectoryName {
				return filepath.SkipDir
			}
			if utils.MatchesIgnorePattern(relativeDirectory, aggregated) {
				return filepath.SkipDir
			}
			prefix := ""
			if relativeDirectory != "." {
				prefix = relativeDirectory + "/"
			}
			for _, sourceFile := range sourceFiles {
				patterns, readError := ReadIgnoreFile(filepath.Join(currentPath, sourceFile))
				if readError != nil {
					continue
				}
				for _, pattern := range patterns {
					aggregated = append(aggregated, prefix+strings.TrimPrefix(pattern, "/"))
				}
			}
			return nil
		})
	}

	if !options.IncludeGit {
		aggregated = append(aggregated, gitDirectoryPattern)
	}
	aggregated = append(aggregated, options.Exclude...)
	return utils.DeduplicatePatterns(aggregated)
}
