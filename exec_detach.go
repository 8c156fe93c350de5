//go:build linux || darwin

package runnerdash

import (
	"os/exec"
	"syscall"
)

// detachSysProcAttr puts the child in its own session so it survives the
// dashboard exiting and never receives our terminal's signals.
func detachSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
