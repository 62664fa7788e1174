// Package config loads gravity's layered YAML configuration and ignore files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tyemirov/gravity/internal/utils"
)

const (
	defaultWorkspaceRoot = "."
	defaultAccentChannel = 40
	defaultLogLevel      = "info"

	defaultTokenizerTimeout = 2 * time.Minute
)

var (
	// WorkspaceTreeDefaults include every entry; they apply to the interactive workspace
	// and find.
	WorkspaceTreeDefaults = TreeSettings{IncludeGit: true}
	// CommandTreeDefaults honor ignore files and skip .git; they apply to the tree command.
	CommandTreeDefaults = TreeSettings{UseGitignore: true, UseIgnoreFile: true}
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration mirrors the configuration file. Pointer fields distinguish
// "unset" from a zero value so that a local file can override only what it names.
type ApplicationConfiguration struct {
	Workspace WorkspaceConfiguration `mapstructure:"workspace" yaml:"workspace"`
	Tree      TreeConfiguration      `mapstructure:"tree" yaml:"tree"`
	Shell     ShellConfiguration     `mapstructure:"shell" yaml:"shell"`
	Tokenizer TokenizerConfiguration `mapstructure:"tokenizer" yaml:"tokenizer"`
	Theme     ThemeConfiguration     `mapstructure:"theme" yaml:"theme"`
	Log       LogConfiguration       `mapstructure:"log" yaml:"log"`
}

// WorkspaceConfiguration configures the interactive workspace.
type WorkspaceConfiguration struct {
	Root              string `mapstructure:"root" yaml:"root"`
	PreserveExpansion *bool  `mapstructure:"preserve_expansion" yaml:"preserve_expansion"`
}

// TreeConfiguration configures which entries a tree build skips.
type TreeConfiguration struct {
	Exclude       []string `mapstructure:"exclude" yaml:"exclude"`
	UseGitignore  *bool    `mapstructure:"use_gitignore" yaml:"use_gitignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore" yaml:"use_ignore"`
	IncludeGit    *bool    `mapstructure:"include_git" yaml:"include_git"`
}

// ShellConfiguration configures how the embedded shell runs external commands.
type ShellConfiguration struct {
	PTY           *bool  `mapstructure:"pty" yaml:"pty"`
	Serialize     *bool  `mapstructure:"serialize" yaml:"serialize"`
	MaxConcurrent *int   `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	Timeout       string `mapstructure:"timeout" yaml:"timeout"`
}

// TokenizerConfiguration names an external token counting helper for models tiktoken
// does not cover.
type TokenizerConfiguration struct {
	Helper  string `mapstructure:"helper" yaml:"helper"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// ThemeConfiguration holds the accent color as separate channels.
type ThemeConfiguration struct {
	AccentRed   *int `mapstructure:"accent_r" yaml:"accent_r"`
	AccentGreen *int `mapstructure:"accent_g" yaml:"accent_g"`
	AccentBlue  *int `mapstructure:"accent_b" yaml:"accent_b"`
}

// LogConfiguration selects the log destination used by the interactive workspace.
type LogConfiguration struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Settings is the fully resolved configuration with defaults applied.
type Settings struct {
	WorkspaceRoot     string
	PreserveExpansion bool
	Tree              TreeSettings
	Shell             ShellSettings
	Tokenizer         TokenizerSettings
	Accent            RGB
	LogFile           string
	LogLevel          string
}

// TreeSettings are the resolved tree build options.
type TreeSettings struct {
	Exclude       []string
	UseGitignore  bool
	UseIgnoreFile bool
	IncludeGit    bool
}

// ShellSettings are the resolved shell options.
type ShellSettings struct {
	PTY           bool
	Serialize     bool
	MaxConcurrent int
	Timeout       time.Duration
}

// TokenizerSettings are the resolved tokenizer helper options. Helper is the command
// line split into program and arguments.
type TokenizerSettings struct {
	Helper  []string
	Timeout time.Duration
}

// RGB is an 8-bit color triple.
type RGB struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// Hex renders the color as #rrggbb.
func (color RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", color.Red, color.Green, color.Blue)
}

// LoadApplicationConfiguration loads the global file and then the local (or explicit) file.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)
	merged.Tree.Exclude = utils.DeduplicatePatterns(merged.Tree.Exclude)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.LocalConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

// loadConfigurationFromPath reads one file. A missing file is an empty configuration
// unless required is set, as it is for a path named on the command line.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Workspace.Root != "" {
		result.Workspace.Root = override.Workspace.Root
	}
	result.Workspace.PreserveExpansion = pick(result.Workspace.PreserveExpansion, override.Workspace.PreserveExpansion)

	if len(override.Tree.Exclude) > 0 {
		result.Tree.Exclude = append([]string{}, override.Tree.Exclude...)
	}
	result.Tree.UseGitignore = pick(result.Tree.UseGitignore, override.Tree.UseGitignore)
	result.Tree.UseIgnoreFile = pick(result.Tree.UseIgnoreFile, override.Tree.UseIgnoreFile)
	result.Tree.IncludeGit = pick(result.Tree.IncludeGit, override.Tree.IncludeGit)

	result.Shell.PTY = pick(result.Shell.PTY, override.Shell.PTY)
	result.Shell.Serialize = pick(result.Shell.Serialize, override.Shell.Serialize)
	result.Shell.MaxConcurrent = pick(result.Shell.MaxConcurrent, override.Shell.MaxConcurrent)
	if override.Shell.Timeout != "" {
		result.Shell.Timeout = override.Shell.Timeout
	}

	if override.Tokenizer.Helper != "" {
		result.Tokenizer.Helper = override.Tokenizer.Helper
	}
	if override.Tokenizer.Timeout != "" {
		result.Tokenizer.Timeout = override.Tokenizer.Timeout
	}

	result.Theme.AccentRed = pick(result.Theme.AccentRed, override.Theme.AccentRed)
	result.Theme.AccentGreen = pick(result.Theme.AccentGreen, override.Theme.AccentGreen)
	result.Theme.AccentBlue = pick(result.Theme.AccentBlue, override.Theme.AccentBlue)

	if override.Log.File != "" {
		result.Log.File = override.Log.File
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return result
}

// Resolve applies defaults and validates values.
func (config ApplicationConfiguration) Resolve() (Settings, error) {
	settings := Settings{
		WorkspaceRoot:     config.Workspace.Root,
		PreserveExpansion: valueOr(config.Workspace.PreserveExpansion, false),
		Tree:              config.ResolveTree(WorkspaceTreeDefaults),
		Shell: ShellSettings{
			PTY:           valueOr(config.Shell.PTY, false),
			Serialize:     valueOr(config.Shell.Serialize, false),
			MaxConcurrent: valueOr(config.Shell.MaxConcurrent, 0),
		},
		LogFile:  config.Log.File,
		LogLevel: config.Log.Level,
	}
	if settings.WorkspaceRoot == "" {
		settings.WorkspaceRoot = defaultWorkspaceRoot
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaultLogLevel
	}
	if settings.LogFile == "" {
		settings.LogFile = filepath.Join(os.TempDir(), utils.LogFileName)
	}
	if settings.Shell.MaxConcurrent < 0 {
		return Settings{}, fmt.Errorf("shell.max_concurrent must not be negative, got %d", settings.Shell.MaxConcurrent)
	}
	if timeoutText := strings.TrimSpace(config.Shell.Timeout); timeoutText != "" {
		timeout, parseErr := time.ParseDuration(timeoutText)
		if parseErr != nil {
			return Settings{}, fmt.Errorf("parse shell.timeout %q: %w", timeoutText, parseErr)
		}
		if timeout < 0 {
			return Settings{}, fmt.Errorf("shell.timeout must not be negative, got %s", timeout)
		}
		settings.Shell.Timeout = timeout
	}
	tokenizerSettings, tokenizerError := config.Tokenizer.resolve()
	if tokenizerError != nil {
		return Settings{}, tokenizerError
	}
	settings.Tokenizer = tokenizerSettings

	channels := []*int{config.Theme.AccentRed, config.Theme.AccentGreen, config.Theme.AccentBlue}
	resolved := make([]uint8, len(channels))
	for index, channel := range channels {
		value := valueOr(channel, defaultAccentChannel)
		if value < 0 || value > 255 {
			return Settings{}, fmt.Errorf("theme accent channel out of range 0-255: %d", value)
		}
		resolved[index] = uint8(value)
	}
	settings.Accent = RGB{Red: resolved[0], Green: resolved[1], Blue: resolved[2]}
	return settings, nil
}

// ResolveTree applies the tree keys present in the configuration over defaults.
func (config ApplicationConfiguration) ResolveTree(defaults TreeSettings) TreeSettings {
	return TreeSettings{
		Exclude:       utils.DeduplicatePatterns(config.Tree.Exclude),
		UseGitignore:  valueOr(config.Tree.UseGitignore, defaults.UseGitignore),
		UseIgnoreFile: valueOr(config.Tree.UseIgnoreFile, defaults.UseIgnoreFile),
		IncludeGit:    valueOr(config.Tree.IncludeGit, defaults.IncludeGit),
	}
}

func (tokenizer TokenizerConfiguration) resolve() (TokenizerSettings, error) {
	settings := TokenizerSettings{Helper: strings.Fields(tokenizer.Helper), Timeout: defaultTokenizerTimeout}
	if timeoutText := strings.TrimSpace(tokenizer.Timeout); timeoutText != "" {
		timeout, parseErr := time.ParseDuration(timeoutText)
		if parseErr != nil {
			return TokenizerSettings{}, fmt.Errorf("parse tokenizer.timeout %q: %w", timeoutText, parseErr)
		}
		if timeout <= 0 {
			return TokenizerSettings{}, fmt.Errorf("tokenizer.timeout must be positive, got %s", timeout)
		}
		settings.Timeout = timeout
	}
	return settings, nil
}

func pick[T any](current, override *T) *T {
	if override == nil {
		return current
	}
	cloned := *override
	return &cloned
}

func valueOr[T any](value *T, fallback T) T {
	if value == nil {
		return fallback
	}
	return *value
}
