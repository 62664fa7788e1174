//go:build !unix

package shell

import "os/exec"

func startProcessGroup(*exec.Cmd) {}

func killProcessGroup(command *exec.Cmd) error {
	if command.Process == nil {
		return nil
	}
	return command.Process.Kill()
}
