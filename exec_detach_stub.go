//go:build !linux && !darwin

package runnerdash

import "os/exec"

// detachSysProcAttr is a no-op on platforms without Setsid
func detachSysProcAttr(_ *exec.Cmd) {}
