package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadIgnoreFileSkipsCommentsAndNegations(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, ".gitignore")
	writeFile(t, path, "# comment\n\nbin/\n!keep.txt\n  *.log  \n")
	patterns, err := ReadIgnoreFile(path)
	if err != nil {
		t.Fatalf("ReadIgnoreFile error: %v", err)
	}
	if !reflect.DeepEqual(patterns, []string{"bin/", "*.log"}) {
		t.Fatalf("unexpected patterns %v", patterns)
	}
	missing, missingErr := ReadIgnoreFile(filepath.Join(directory, "absent"))
	if missingErr != nil || missing != nil {
		t.Fatalf("missing file should yield nothing, got %v %v", missing, missingErr)
	}
}

func TestLoadIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "dist/\n")
	writeFile(t, filepath.Join(root, "web", ".gitignore"), "/node_modules/\n")
	writeFile(t, filepath.Join(root, ".ignore"), "*.tmp\n")

	testCases := []struct {
		name     string
		options  IgnoreOptions
		expected []string
	}{
		{
			name:     "everything_included_by_default",
			options:  IgnoreOptions{IncludeGit: true},
			expected: []string{},
		},
		{
			name:     "gitignore_nested_prefix",
			options:  IgnoreOptions{UseGitignore: true, IncludeGit: true},
			expected: []string{"dist/", "web/node_modules/"},
		},
		{
			name:     "both_sources_git_excluded_and_cli_exclusions",
			options:  IgnoreOptions{UseGitignore: true, UseIgnoreFile: true, Exclude: []string{"vendor/", "dist/"}},
			expected: []string{"*.tmp", "dist/", "web/node_modules/", ".git/", "vendor/"},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			patterns := LoadIgnorePatterns(root, testCase.options)
			if !reflect.DeepEqual(patterns, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, patterns)
			}
		})
	}
}
