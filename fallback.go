package runnerdash

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Default bounds for the direct process-control tier
const (
	// DefaultStopTimeout is the ceiling a restart waits for the old
	// process to exit before giving up with ErrStopTimeout
	DefaultStopTimeout = 5 * time.Second

	// DefaultPollInterval is the cadence of the restart exit poll
	DefaultPollInterval = 200 * time.Millisecond
)

// fallbackControl implements the two platform-independent control tiers:
// the per-instance control script (svc.sh) and direct process control
// (detached spawn / pkill / polled restart). It is embedded by both
// platform strategies; tier 1 (the managed unit) stays platform-specific.
type fallbackControl struct {
	ex           Execer
	pgrepPath    string
	pkillPath    string
	pgrepList    string // flag printing the full command line: -a (linux), -l (bsd)
	stopTimeout  time.Duration
	pollInterval time.Duration
}

func newFallbackControl(ex Execer, pgrepList string) fallbackControl {
	return fallbackControl{
		ex:           ex,
		pgrepPath:    "pgrep",
		pkillPath:    "pkill",
		pgrepList:    pgrepList,
		stopTimeout:  DefaultStopTimeout,
		pollInterval: DefaultPollInterval,
	}
}

// hasControlScript reports whether the runner directory holds svc.sh
func (f *fallbackControl) hasControlScript(r Runner) bool {
	return fileExists(filepath.Join(r.Path, ControlScript))
}

// controlScript drives the runner's own svc.sh in its working directory.
// For start, the script's installed state is probed first and its install
// step run if absent; an install failure fails the whole action.
func (f *fallbackControl) controlScript(ctx context.Context, r Runner, a Action) (string, error) {
	script := "./" + ControlScript

	if a == ActionStart {
		st, err := f.ex.Run(ctx, r.Path, script, "status")
		if err != nil {
			return "", &ControlError{Service: r.Service, Action: a, Err: err}
		}
		if !st.Ok() || strings.Contains(strings.ToLower(st.Stdout), "not installed") {
			inst, err := f.ex.Run(ctx, r.Path, script, "install")
			if err != nil {
				return "", &ControlError{Service: r.Service, Action: a, Err: err}
			}
			if !inst.Ok() {
				return "", &ControlError{Service: r.Service, Action: a, Output: inst.Diagnostic()}
			}
		}
	}

	res, err := f.ex.Run(ctx, r.Path, script, string(a))
	if err != nil {
		return "", &ControlError{Service: r.Service, Action: a, Err: err}
	}
	if !res.Ok() {
		return "", &ControlError{Service: r.Service, Action: a, Output: res.Diagnostic()}
	}
	return successMessage(r, a), nil
}

// controlProcess is the last tier: act on the processes directly. The
// runner path is about to become a pkill/pgrep pattern, so it is checked
// against the metacharacter deny-list before any subprocess is issued.
func (f *fallbackControl) controlProcess(ctx context.Context, r Runner, a Action) (string, error) {
	if err := ValidatePathPattern(r.Path); err != nil {
		return "", err
	}

	switch a {
	case ActionStart:
		if err := f.spawn(r); err != nil {
			return "", err
		}
	case ActionStop:
		if err := f.terminate(ctx, r, a); err != nil {
			return "", err
		}
	case ActionRestart:
		if err := f.terminate(ctx, r, a); err != nil {
			return "", err
		}
		if err := f.waitExit(ctx, r, a); err != nil {
			// Timed out waiting: the old process is still alive, so no
			// new one is spawned.
			return "", err
		}
		if err := f.spawn(r); err != nil {
			return "", err
		}
	}
	return successMessage(r, a), nil
}

func (f *fallbackControl) spawn(r Runner) error {
	if err := f.ex.Start(r.Path, "./"+LaunchScript); err != nil {
		return &ControlError{Service: r.Service, Action: ActionStart, Err: err}
	}
	return nil
}

// terminate sends SIGTERM to every process whose command line contains the
// runner path. pkill exiting 1 means no process matched, which is not a
// failure for a stop.
func (f *fallbackControl) terminate(ctx context.Context, r Runner, a Action) error {
	res, err := f.ex.Run(ctx, "", f.pkillPath, "-TERM", "-f", r.Path)
	if err != nil {
		return &ControlError{Service: r.Service, Action: a, Err: err}
	}
	if res.ExitCode > 1 {
		return &ControlError{Service: r.Service, Action: a, Output: res.Diagnostic()}
	}
	return nil
}

// waitExit polls for process exit after a terminate, at pollInterval up to
// stopTimeout, returning ErrStopTimeout if the process outlives the ceiling.
func (f *fallbackControl) waitExit(ctx context.Context, r Runner, a Action) error {
	deadline := time.Now().Add(f.stopTimeout)
	for {
		res, err := f.ex.Run(ctx, "", f.pgrepPath, "-f", r.Path)
		if err == nil && res.ExitCode == 1 {
			return nil // nothing left matching the path
		}
		if time.Now().After(deadline) {
			return &ControlError{Service: r.Service, Action: a, Err: ErrStopTimeout}
		}
		select {
		case <-ctx.Done():
			return &ControlError{Service: r.Service, Action: a, Err: ctx.Err()}
		case <-time.After(f.pollInterval):
		}
	}
}

// processes issues the single batched process-listing call shared by both
// platforms: every live pid and command line matching the runner marker.
func (f *fallbackControl) processes(ctx context.Context, marker string) ([]string, error) {
	res, err := f.ex.Run(ctx, "", f.pgrepPath, "-f", f.pgrepList, marker)
	if err != nil {
		return nil, err
	}
	if res.ExitCode == 1 {
		return nil, nil // no matches
	}
	if !res.Ok() {
		return nil, fmt.Errorf("%s: %s", f.pgrepPath, res.Diagnostic())
	}
	return splitLines(res.Stdout), nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func successMessage(r Runner, a Action) string {
	return "Successfully " + a.Past() + " " + r.DisplayName()
}
