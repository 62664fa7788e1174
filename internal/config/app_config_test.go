package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tyemirov/gravity/internal/utils"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func isolateHome(t *testing.T) string {
	t.Helper()
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	t.Setenv("USERPROFILE", homeDirectory)
	return homeDirectory
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []struct {
		name            string
		globalContent   string
		localContent    string
		explicitPath    string
		expectRoot      string
		expectPTY       bool
		expectSerialize bool
		expectExclude   []string
	}{
		{
			name:          "local_overrides_global",
			globalContent: "workspace:\n  root: /srv\nshell:\n  pty: true\n  serialize: true\n",
			localContent:  "shell:\n  serialize: false\ntree:\n  exclude: [build/, build/]\n",
			expectRoot:    "/srv",
			expectPTY:     true,
			expectExclude: []string{"build/"},
		},
		{
			name:            "global_only",
			globalContent:   "shell:\n  serialize: true\n",
			expectRoot:      defaultWorkspaceRoot,
			expectSerialize: true,
		},
		{
			name:          "explicit_path_replaces_local_lookup",
			localContent:  "workspace:\n  root: /ignored\n",
			explicitPath:  "custom.yaml",
			expectRoot:    "/explicit",
			expectExclude: nil,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDirectory := isolateHome(t)
			workingDirectory := t.TempDir()
			if testCase.globalContent != "" {
				writeFile(t, filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName), testCase.globalContent)
			}
			if testCase.localContent != "" {
				writeFile(t, filepath.Join(workingDirectory, utils.LocalConfigFileName), testCase.localContent)
			}
			if testCase.explicitPath != "" {
				writeFile(t, filepath.Join(workingDirectory, testCase.explicitPath), "workspace:\n  root: /explicit\n")
			}

			loaded, loadErr := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory, ExplicitFilePath: testCase.explicitPath})
			if loadErr != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", loadErr)
			}
			settings, resolveErr := loaded.Resolve()
			if resolveErr != nil {
				t.Fatalf("Resolve error: %v", resolveErr)
			}
			if settings.WorkspaceRoot != testCase.expectRoot {
				t.Fatalf("expected root %q, got %q", testCase.expectRoot, settings.WorkspaceRoot)
			}
			if settings.Shell.PTY != testCase.expectPTY {
				t.Fatalf("expected pty %v, got %v", testCase.expectPTY, settings.Shell.PTY)
			}
			if settings.Shell.Serialize != testCase.expectSerialize {
				t.Fatalf("expected serialize %v, got %v", testCase.expectSerialize, settings.Shell.Serialize)
			}
			if strings.Join(settings.Tree.Exclude, ",") != strings.Join(testCase.expectExclude, ",") {
				t.Fatalf("expected exclude %v, got %v", testCase.expectExclude, settings.Tree.Exclude)
			}
		})
	}
}

func TestLoadApplicationConfigurationRequiresExplicitFile(t *testing.T) {
	isolateHome(t)
	_, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: t.TempDir(), ExplicitFilePath: "missing.yaml"})
	if err == nil {
		t.Fatalf("expected error for missing explicit configuration file")
	}
}

func TestResolveDefaults(t *testing.T) {
	settings, err := ApplicationConfiguration{}.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if settings.WorkspaceRoot != defaultWorkspaceRoot || settings.PreserveExpansion {
		t.Fatalf("unexpected workspace defaults: %+v", settings)
	}
	if !settings.Tree.IncludeGit || settings.Tree.UseGitignore || settings.Tree.UseIgnoreFile {
		t.Fatalf("default tree must include every entry: %+v", settings.Tree)
	}
	if settings.Shell.Serialize || settings.Shell.PTY || settings.Shell.MaxConcurrent != 0 || settings.Shell.Timeout != 0 {
		t.Fatalf("unexpected shell defaults: %+v", settings.Shell)
	}
	if settings.Accent.Hex() != "#282828" {
		t.Fatalf("unexpected accent %s", settings.Accent.Hex())
	}
	if settings.LogFile == "" || settings.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected log defaults: %q %q", settings.LogFile, settings.LogLevel)
	}
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	negative, tooBright := -1, 300
	testCases := []struct {
		name   string
		config ApplicationConfiguration
	}{
		{name: "negative_concurrency", config: ApplicationConfiguration{Shell: ShellConfiguration{MaxConcurrent: &negative}}},
		{name: "unparsable_timeout", config: ApplicationConfiguration{Shell: ShellConfiguration{Timeout: "soon"}}},
		{name: "negative_timeout", config: ApplicationConfiguration{Shell: ShellConfiguration{Timeout: "-1s"}}},
		{name: "unparsable_tokenizer_timeout", config: ApplicationConfiguration{Tokenizer: TokenizerConfiguration{Timeout: "later"}}},
		{name: "zero_tokenizer_timeout", config: ApplicationConfiguration{Tokenizer: TokenizerConfiguration{Timeout: "0s"}}},
		{name: "accent_out_of_range", config: ApplicationConfiguration{Theme: ThemeConfiguration{AccentRed: &tooBright}}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := testCase.config.Resolve(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestResolveParsesTimeout(t *testing.T) {
	settings, err := ApplicationConfiguration{Shell: ShellConfiguration{Timeout: "1m30s"}}.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if settings.Shell.Timeout != 90*time.Second {
		t.Fatalf("expected 90s, got %s", settings.Shell.Timeout)
	}
}

func TestResolveTokenizerHelper(t *testing.T) {
	settings, err := ApplicationConfiguration{Tokenizer: TokenizerConfiguration{Helper: "uv run count.py", Timeout: "30s"}}.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !reflect.DeepEqual(settings.Tokenizer.Helper, []string{"uv", "run", "count.py"}) || settings.Tokenizer.Timeout != 30*time.Second {
		t.Fatalf("unexpected tokenizer settings %+v", settings.Tokenizer)
	}

	defaults, defaultsErr := ApplicationConfiguration{}.Resolve()
	if defaultsErr != nil {
		t.Fatalf("Resolve error: %v", defaultsErr)
	}
	if len(defaults.Tokenizer.Helper) != 0 || defaults.Tokenizer.Timeout != defaultTokenizerTimeout {
		t.Fatalf("unexpected tokenizer defaults %+v", defaults.Tokenizer)
	}
}

func TestResolveTreeAppliesOnlyConfiguredKeys(t *testing.T) {
	disabled := false
	testCases := []struct {
		name     string
		tree     TreeConfiguration
		defaults TreeSettings
		expected TreeSettings
	}{
		{
			name:     "command_defaults_untouched",
			defaults: CommandTreeDefaults,
			expected: TreeSettings{UseGitignore: true, UseIgnoreFile: true},
		},
		{
			name:     "configured_key_overrides_command_default",
			tree:     TreeConfiguration{UseGitignore: &disabled, Exclude: []string{"dist/", "dist/"}},
			defaults: CommandTreeDefaults,
			expected: TreeSettings{Exclude: []string{"dist/"}, UseIgnoreFile: true},
		},
		{
			name:     "workspace_defaults",
			defaults: WorkspaceTreeDefaults,
			expected: TreeSettings{IncludeGit: true},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resolved := ApplicationConfiguration{Tree: testCase.tree}.ResolveTree(testCase.defaults)
			if len(resolved.Exclude) == 0 && len(testCase.expected.Exclude) == 0 {
				resolved.Exclude, testCase.expected.Exclude = nil, nil
			}
			if !reflect.DeepEqual(resolved, testCase.expected) {
				t.Fatalf("expected %+v, got %+v", testCase.expected, resolved)
			}
		})
	}
}
