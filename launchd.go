package runnerdash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Launchd is the macOS strategy set: probing through the launchctl
// registry dump, control through launchctl verbs with the script/process
// fallback tiers, logs from the runner's _diag directory.
type Launchd struct {
	fallbackControl

	// LaunchctlPath is the path to the launchctl binary
	LaunchctlPath string

	// ProcessMarker is the substring matched against live command lines
	// by the batched process listing
	ProcessMarker string

	// UID is the user id used for gui-domain targets
	UID int
}

// NewLaunchd creates the macOS strategy set
func NewLaunchd(ex Execer, cfg Config) *Launchd {
	marker := cfg.ProcessMarker
	if marker == "" {
		marker = DefaultConfig().ProcessMarker
	}
	return &Launchd{
		fallbackControl: newFallbackControl(ex, "-l"),
		LaunchctlPath:   "launchctl",
		ProcessMarker:   marker,
		UID:             os.Getuid(),
	}
}

// Units issues one launchctl list call (the full registry dump) and
// resolves each runner against it: exact label match first, then the
// documented partial match by containment of the parent directory name.
// The partial match can alias two repositories sharing a name fragment;
// that ambiguity is inherited behavior, kept rather than guessed around.
func (l *Launchd) Units(ctx context.Context, runners []Runner) (map[string]UnitState, error) {
	res, err := l.ex.Run(ctx, "", l.LaunchctlPath, "list")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return nil, fmt.Errorf("%s list: %s", l.LaunchctlPath, res.Diagnostic())
	}

	type entry struct {
		label string
		state string
	}
	var entries []entry
	for _, line := range splitLines(res.Stdout) {
		// Columns: PID Status Label; PID is "-" when not running
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] == "PID" {
			continue
		}
		entries = append(entries, entry{label: fields[2], state: agentState(fields[0], fields[1])})
	}

	states := make(map[string]UnitState, len(runners))
	for _, r := range runners {
		matched := false
		for _, e := range entries {
			if e.label == r.Service {
				states[r.Service] = UnitState{Exists: true, State: e.state}
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, e := range entries {
			if strings.HasPrefix(e.label, ServicePrefix) && strings.Contains(e.label, r.Repo) {
				states[r.Service] = UnitState{Exists: true, State: e.state}
				break
			}
		}
	}
	return states, nil
}

// agentState maps a launchctl list row to a unit state: a live pid is
// active, a clean last exit is inactive, anything else failed.
func agentState(pid, status string) string {
	if pid != "-" {
		if _, err := strconv.Atoi(pid); err == nil {
			return "active"
		}
	}
	if status == "0" {
		return "inactive"
	}
	return "failed"
}

// Processes issues the single batched pgrep call
func (l *Launchd) Processes(ctx context.Context) ([]string, error) {
	return l.processes(ctx, l.ProcessMarker)
}

// Control executes a control verb through the tiered chain: registered
// agent, then control script, then direct process control. A registered
// agent's outcome is final; only an existence miss cascades.
func (l *Launchd) Control(ctx context.Context, r Runner, a Action) (string, error) {
	exists, err := l.agentExists(ctx, r.Service)
	if err == nil && exists {
		return l.controlAgent(ctx, r, a)
	}
	if l.hasControlScript(r) {
		return l.controlScript(ctx, r, a)
	}
	return l.controlProcess(ctx, r, a)
}

// agentExists is the per-action cheap existence query
func (l *Launchd) agentExists(ctx context.Context, label string) (bool, error) {
	res, err := l.ex.Run(ctx, "", l.LaunchctlPath, "list", label)
	if err != nil {
		return false, err
	}
	return res.Ok(), nil
}

// controlAgent issues the native launchctl verb for the registered agent
func (l *Launchd) controlAgent(ctx context.Context, r Runner, a Action) (string, error) {
	var args []string
	switch a {
	case ActionStart:
		args = []string{"start", r.Service}
	case ActionStop:
		args = []string{"stop", r.Service}
	case ActionRestart:
		args = []string{"kickstart", "-k", fmt.Sprintf("gui/%d/%s", l.UID, r.Service)}
	}

	res, err := l.ex.Run(ctx, "", l.LaunchctlPath, args...)
	if err != nil {
		return "", &ControlError{Service: r.Service, Action: a, Err: err}
	}
	if !res.Ok() {
		return "", &ControlError{Service: r.Service, Action: a, Output: res.Diagnostic()}
	}
	return successMessage(r, a), nil
}

// Tail returns the last n lines of the most recently modified diagnostic
// file under the runner's _diag directory.
func (l *Launchd) Tail(_ context.Context, r Runner, lines int) ([]string, error) {
	diag := filepath.Join(r.Path, DiagDir)
	entries, err := os.ReadDir(diag)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", diag, err)
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(diag, e.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return nil, fmt.Errorf("no diagnostic files under %s", diag)
	}

	data, err := os.ReadFile(newest)
	if err != nil {
		return nil, err
	}
	all := splitLines(string(data))
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return all, nil
}

// WithStopTimeout overrides the restart termination-wait ceiling
func (l *Launchd) WithStopTimeout(d time.Duration) *Launchd {
	l.stopTimeout = d
	return l
}
