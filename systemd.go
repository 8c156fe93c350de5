package runnerdash

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Systemd is the Linux strategy set: probing through systemctl's batched
// listings, control through systemctl verbs with the script/process
// fallback tiers, logs through journald.
type Systemd struct {
	fallbackControl

	// UseSudo indicates whether control verbs are issued through sudo
	UseSudo bool

	// SudoCommand is the privilege-escalation command (default: "sudo")
	SudoCommand string

	// SystemctlPath is the path to the systemctl binary
	SystemctlPath string

	// JournalctlPath is the path to the journalctl binary
	JournalctlPath string

	// ProcessMarker is the substring matched against live command lines
	// by the batched process listing
	ProcessMarker string
}

// NewSystemd creates the Linux strategy set
func NewSystemd(ex Execer, cfg Config) *Systemd {
	sudo := cfg.SudoCommand
	if sudo == "" {
		sudo = "sudo"
	}
	marker := cfg.ProcessMarker
	if marker == "" {
		marker = DefaultConfig().ProcessMarker
	}
	return &Systemd{
		fallbackControl: newFallbackControl(ex, "-a"),
		UseSudo:         os.Geteuid() != 0,
		SudoCommand:     sudo,
		SystemctlPath:   "systemctl",
		JournalctlPath:  "journalctl",
		ProcessMarker:   marker,
	}
}

// systemctl runs a systemctl query without privilege escalation
func (s *Systemd) systemctl(ctx context.Context, args ...string) (ExecResult, error) {
	return s.ex.Run(ctx, "", s.SystemctlPath, args...)
}

// Units issues the compact existence+state batch: one list-unit-files call
// for registration, one list-units call for live state, both constrained
// to the actions.runner namespace. A registered unit absent from the live
// listing is loaded but inactive.
func (s *Systemd) Units(ctx context.Context, runners []Runner) (map[string]UnitState, error) {
	pattern := ServicePrefix + "*"

	files, err := s.systemctl(ctx, "list-unit-files", "--type=service", "--plain", "--no-legend", pattern)
	if err != nil || !files.Ok() {
		// Existence unknown: report a full miss so the prober falls back
		// to the process and marker tiers.
		return nil, err
	}
	registered := make(map[string]struct{})
	for _, line := range splitLines(files.Stdout) {
		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		registered[strings.TrimSuffix(fields[0], ".service")] = struct{}{}
	}

	active := make(map[string]string)
	units, err := s.systemctl(ctx, "list-units", "--all", "--type=service", "--plain", "--no-legend", pattern)
	if err == nil && units.Ok() {
		// Columns: UNIT LOAD ACTIVE SUB DESCRIPTION
		for _, line := range splitLines(units.Stdout) {
			fields := strings.Fields(line)
			if len(fields) < 3 {
				continue
			}
			active[strings.TrimSuffix(fields[0], ".service")] = fields[2]
		}
	}

	states := make(map[string]UnitState, len(runners))
	for _, r := range runners {
		if _, ok := registered[r.Service]; !ok {
			continue // existence miss
		}
		state, ok := active[r.Service]
		if !ok {
			state = "inactive"
		}
		states[r.Service] = UnitState{Exists: true, State: state}
	}
	return states, nil
}

// Processes issues the single batched pgrep call
func (s *Systemd) Processes(ctx context.Context) ([]string, error) {
	return s.processes(ctx, s.ProcessMarker)
}

// Control executes a control verb through the tiered chain: managed unit,
// then control script, then direct process control. A registered unit's
// outcome is final; only an existence miss cascades.
func (s *Systemd) Control(ctx context.Context, r Runner, a Action) (string, error) {
	exists, err := s.unitExists(ctx, r.Service)
	if err == nil && exists {
		return s.controlUnit(ctx, r, a)
	}
	if s.hasControlScript(r) {
		return s.controlScript(ctx, r, a)
	}
	return s.controlProcess(ctx, r, a)
}

// unitExists is the per-action cheap existence query
func (s *Systemd) unitExists(ctx context.Context, service string) (bool, error) {
	res, err := s.systemctl(ctx, "list-unit-files", "--plain", "--no-legend", service+".service")
	if err != nil {
		return false, err
	}
	// Older systemctl exits non-zero for no matches, newer prints nothing.
	return res.Ok() && strings.TrimSpace(res.Stdout) != "", nil
}

// controlUnit issues the native verb against the registered unit
func (s *Systemd) controlUnit(ctx context.Context, r Runner, a Action) (string, error) {
	name := s.SystemctlPath
	args := []string{string(a), r.Service + ".service"}
	if s.UseSudo {
		args = append([]string{s.SystemctlPath}, args...)
		name = s.SudoCommand
	}

	res, err := s.ex.Run(ctx, "", name, args...)
	if err != nil {
		return "", &ControlError{Service: r.Service, Action: a, Err: err}
	}
	if !res.Ok() {
		return "", &ControlError{Service: r.Service, Action: a, Output: res.Diagnostic()}
	}
	return successMessage(r, a), nil
}

// Tail returns the last n journal lines for the runner's unit
func (s *Systemd) Tail(ctx context.Context, r Runner, lines int) ([]string, error) {
	res, err := s.ex.Run(ctx, "", s.JournalctlPath,
		"-u", r.Service, "-n", strconv.Itoa(lines), "--no-pager", "-o", "short-iso")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return nil, fmt.Errorf("%s: %s", s.JournalctlPath, res.Diagnostic())
	}
	return splitLines(res.Stdout), nil
}

// WithStopTimeout overrides the restart termination-wait ceiling
func (s *Systemd) WithStopTimeout(d time.Duration) *Systemd {
	s.stopTimeout = d
	return s
}
