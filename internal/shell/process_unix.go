//go:build unix

package shell

import (
	"os/exec"
	"syscall"
)

// startProcessGroup puts the command in a process group of its own so a cancelled
// command takes its children down with it.
func startProcessGroup(command *exec.Cmd) {
	if command.SysProcAttr == nil {
		command.SysProcAttr = &syscall.SysProcAttr{}
	}
	command.SysProcAttr.Setpgid = true
}

// killProcessGroup signals every process in the group led by the command. A command
// started as a session leader (as on a pseudo-terminal) leads its own group too.
func killProcessGroup(command *exec.Cmd) error {
	if command.Process == nil {
		return nil
	}
	return syscall.Kill(-command.Process.Pid, syscall.SIGKILL)
}
