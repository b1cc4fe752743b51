//go:build !unix

package tilerender

import "os/exec"

// setProcessGroup is a no-op here. Cancellation kills the renderer process
// only; children it started keep running until they exit.
func setProcessGroup(cmd *exec.Cmd) {}
