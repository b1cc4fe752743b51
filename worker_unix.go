//go:build unix

package tilerender

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the renderer in its own process group and makes
// cancellation kill the whole group. Launcher scripts leave their children
// holding the output pipes otherwise.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
