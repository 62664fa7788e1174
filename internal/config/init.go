package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/gravity/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	configurationHeader = "# gravity configuration\n"
	yamlIndent          = 2
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// DefaultConfiguration returns every key with its default value filled in.
func DefaultConfiguration() ApplicationConfiguration {
	disabled, enabled := false, true
	noLimit, accent := 0, defaultAccentChannel
	return ApplicationConfiguration{
		Workspace: WorkspaceConfiguration{Root: defaultWorkspaceRoot, PreserveExpansion: &disabled},
		Tree: TreeConfiguration{
			Exclude:       []string{},
			UseGitignore:  &disabled,
			UseIgnoreFile: &disabled,
			IncludeGit:    &enabled,
		},
		Shell: ShellConfiguration{
			PTY:           &disabled,
			Serialize:     &disabled,
			MaxConcurrent: &noLimit,
			Timeout:       "0s",
		},
		Tokenizer: TokenizerConfiguration{Timeout: defaultTokenizerTimeout.String()},
		Theme:     ThemeConfiguration{AccentRed: &accent, AccentGreen: &accent, AccentBlue: &accent},
		Log:       LogConfiguration{Level: defaultLogLevel},
	}
}

// RenderDefaultConfiguration encodes DefaultConfiguration as YAML.
func RenderDefaultConfiguration() ([]byte, error) {
	var document bytes.Buffer
	encoder := yaml.NewEncoder(&document)
	encoder.SetIndent(yamlIndent)
	if err := encoder.Encode(DefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("encode default configuration: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode default configuration: %w", err)
	}
	return append([]byte(configurationHeader), document.Bytes()...), nil
}

// ErrConfigurationExists reports an init target that already holds a file.
var ErrConfigurationExists = errors.New("configuration file already exists")

// InitializeConfiguration writes the default configuration to the requested target and
// returns the path written. An existing file is replaced only when Force is set.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, pathError := configurationPath(options)
	if pathError != nil {
		return "", pathError
	}
	content, renderError := RenderDefaultConfiguration()
	if renderError != nil {
		return "", renderError
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if options.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	fileHandle, openError := os.OpenFile(destinationPath, flags, 0o600)
	if openError != nil {
		if errors.Is(openError, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrConfigurationExists, destinationPath)
		}
		return "", fmt.Errorf("open %s: %w", destinationPath, openError)
	}
	_, writeError := fileHandle.Write(content)
	closeError := fileHandle.Close()
	if writeError = errors.Join(writeError, closeError); writeError != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeError)
	}
	return destinationPath, nil
}

// configurationPath resolves where options.Target lives, creating the global directory
// on demand.
func configurationPath(options InitOptions) (string, error) {
	switch options.Target {
	case "", InitTargetLocal:
		directory := options.WorkingDirectory
		if directory == "" {
			current, getwdError := os.Getwd()
			if getwdError != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", getwdError)
			}
			directory = current
		}
		return filepath.Join(directory, utils.LocalConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, homeError := os.UserHomeDir()
		if homeError != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", homeError)
		}
		directory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if mkdirError := os.MkdirAll(directory, 0o755); mkdirError != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", directory, mkdirError)
		}
		return filepath.Join(directory, utils.GlobalConfigFileName), nil
	default:
		return "", fmt.Errorf("unsupported init target %q", options.Target)
	}
}
