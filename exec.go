package runnerdash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecResult is the outcome of an external command that was successfully
// launched. A non-zero ExitCode means the command ran and failed; a command
// that could not be launched at all never produces an ExecResult.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the command exited zero
func (r ExecResult) Ok() bool {
	return r.ExitCode == 0
}

// Diagnostic returns the captured output most useful in an error message:
// stderr when present, stdout otherwise, trimmed.
func (r ExecResult) Diagnostic() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// Execer is the seam between the reconciliation core and the operating
// system. Probe and control strategies issue every external call through
// it, so tests can substitute a counting fake and assert the bounded-call
// and zero-spawn properties.
type Execer interface {
	// Run executes a command to completion in dir (empty means the current
	// directory), capturing stdout and stderr. The returned error is
	// reserved for spawn failures (the command could not be started); a
	// command that ran and exited non-zero is reported through
	// ExecResult.ExitCode with a nil error.
	Run(ctx context.Context, dir, name string, args ...string) (ExecResult, error)

	// Start launches a command detached in dir and does not wait for it.
	// Used for spawning a runner's launch script directly.
	Start(dir, name string, args ...string) error
}

// SysExecer is the production Execer backed by os/exec.
type SysExecer struct {
	// Timeout bounds each Run invocation; zero means no per-call bound
	// beyond the caller's context
	Timeout time.Duration
}

// Run executes the command with stdout/stderr capture
func (e *SysExecer) Run(ctx context.Context, dir, name string, args ...string) (ExecResult, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ExecResult{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
			}, nil
		}
		return ExecResult{}, fmt.Errorf("%w: %s: %v", ErrSpawn, name, err)
	}

	return ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// Start launches the command detached in its own session. The child keeps
// running after this process exits.
func (e *SysExecer) Start(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	detachSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSpawn, name, err)
	}
	return cmd.Process.Release()
}
