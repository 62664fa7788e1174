package utils_test

import (
	"reflect"
	"testing"

	"github.com/tyemirov/gravity/internal/utils"
)

func TestMatchesIgnorePattern(t *testing.T) {
	testCases := []struct {
		name         string
		relativePath string
		patterns     []string
		expected     bool
	}{
		{name: "root never ignored", relativePath: ".", patterns: []string{"*"}, expected: false},
		{name: "directory pattern matches directory", relativePath: "build", patterns: []string{"build/"}, expected: true},
		{name: "directory pattern matches descendant", relativePath: "build/out/app", patterns: []string{"build/"}, expected: true},
		{name: "directory pattern ignores sibling prefix", relativePath: "builder/app", patterns: []string{"build/"}, expected: false},
		{name: "nested directory pattern", relativePath: "web/node_modules/react/index.js", patterns: []string{"web/node_modules/"}, expected: true},
		{name: "backslash pattern is normalized", relativePath: "web/node_modules", patterns: []string{`web\node_modules\`}, expected: true},
		{name: "glob matches final segment at depth", relativePath: "a/b/trace.log", patterns: []string{"*.log"}, expected: true},
		{name: "glob misses other extension", relativePath: "a/b/trace.txt", patterns: []string{"*.log"}, expected: false},
		{name: "multi segment pattern matches whole path", relativePath: "docs/intro.md", patterns: []string{"docs/*.md"}, expected: true},
		{name: "multi segment pattern requires same depth", relativePath: "docs/guide/intro.md", patterns: []string{"docs/*.md"}, expected: false},
		{name: "leading slash anchors to root", relativePath: "vendor", patterns: []string{"/vendor/"}, expected: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := utils.MatchesIgnorePattern(testCase.relativePath, testCase.patterns); actual != testCase.expected {
				t.Fatalf("MatchesIgnorePattern(%q, %v) = %v, want %v", testCase.relativePath, testCase.patterns, actual, testCase.expected)
			}
		})
	}
}

func TestDeduplicatePatternsKeepsFirstOccurrence(t *testing.T) {
	result := utils.DeduplicatePatterns([]string{"a/", " b ", "a/", "", "c", "b"})
	expected := []string{"a/", "b", "c"}
	if !reflect.DeepEqual(result, expected) {
		t.Fatalf("expected %v, got %v", expected, result)
	}
}

func TestRelativeSlashPath(t *testing.T) {
	if relative := utils.RelativeSlashPath("/srv/project", "/srv/project"); relative != "." {
		t.Fatalf("expected '.', got %q", relative)
	}
	if relative := utils.RelativeSlashPath("/srv/project/a/b.txt", "/srv/project"); relative != "a/b.txt" {
		t.Fatalf("expected a/b.txt, got %q", relative)
	}
}
