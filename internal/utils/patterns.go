package utils

import (
	"path/filepath"
	"strings"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes repeated and blank patterns while preserving first-seen order.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]struct{}, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, duplicate := seen[trimmed]; duplicate {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// RelativeSlashPath returns fullPath relative to root in forward-slash form,
// "." when both name the same directory, and the cleaned fullPath when no
// relative form exists.
func RelativeSlashPath(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	relativePath, relativeError := filepath.Rel(filepath.Clean(root), cleanPath)
	if relativeError != nil {
		return filepath.ToSlash(cleanPath)
	}
	return filepath.ToSlash(relativePath)
}

// MatchesIgnorePattern reports whether a root-relative path is excluded by any pattern.
//
// Patterns use gitignore-like shapes evaluated segment by segment with filepath.Match:
//   - "build/" excludes the directory build and everything below it;
//   - "*.log" (no separator) matches the final path segment at any depth;
//   - "docs/*.md" must match the whole relative path.
func MatchesIgnorePattern(relativePath string, patterns []string) bool {
	if relativePath == "" || relativePath == "." {
		return false
	}
	pathSegments := splitSegments(relativePath)
	finalSegment := pathSegments[len(pathSegments)-1]

	for _, pattern := range patterns {
		normalized := strings.TrimPrefix(strings.ReplaceAll(pattern, "\\", pathSegmentSeparator), pathSegmentSeparator)
		if normalized == "" {
			continue
		}
		if strings.HasSuffix(normalized, pathSegmentSeparator) {
			prefixSegments := splitSegments(strings.TrimSuffix(normalized, pathSegmentSeparator))
			if len(pathSegments) >= len(prefixSegments) && segmentsMatch(pathSegments[:len(prefixSegments)], prefixSegments) {
				return true
			}
			continue
		}
		patternSegments := splitSegments(normalized)
		if len(patternSegments) == 1 {
			if matched, matchError := filepath.Match(patternSegments[0], finalSegment); matchError == nil && matched {
				return true
			}
			continue
		}
		if len(pathSegments) == len(patternSegments) && segmentsMatch(pathSegments, patternSegments) {
			return true
		}
	}
	return false
}

func splitSegments(path string) []string {
	return strings.Split(strings.ReplaceAll(path, "\\", pathSegmentSeparator), pathSegmentSeparator)
}

func segmentsMatch(pathSegments, patternSegments []string) bool {
	for index, patternSegment := range patternSegments {
		matched, matchError := filepath.Match(patternSegment, pathSegments[index])
		if matchError != nil || !matched {
			return false
		}
	}
	return true
}
