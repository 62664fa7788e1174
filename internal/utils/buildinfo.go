package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion  = "unknown"
	develVersion    = "(devel)"
	gitExecutable   = "git"
	gitDescribeVerb = "describe"
)

// GetApplicationVersion reports the module version from build info and falls back to
// `git describe` when gravity is run from a source checkout.
func GetApplicationVersion() string {
	if buildInfo, available := debug.ReadBuildInfo(); available {
		if version := buildInfo.Main.Version; version != "" && version != develVersion {
			return version
		}
	}

	checkoutDirectory, lookupError := findCheckoutRoot(".")
	if lookupError != nil {
		return unknownVersion
	}
	describeVariants := [][]string{
		{gitDescribeVerb, "--tags", "--exact-match"},
		{gitDescribeVerb, "--tags", "--long", "--dirty"},
	}
	for _, arguments := range describeVariants {
		// #nosec G204
		describeCommand := exec.Command(gitExecutable, arguments...)
		describeCommand.Dir = checkoutDirectory
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}

// findCheckoutRoot walks upward from startDirectory to the directory holding .git.
func findCheckoutRoot(startDirectory string) (string, error) {
	currentDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf("resolve %s: %w", startDirectory, absoluteError)
	}
	for {
		if info, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName)); statError == nil && info.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", fmt.Errorf("%s not found above %s", GitDirectoryName, startDirectory)
		}
		currentDirectory = parentDirectory
	}
}
