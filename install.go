package runnerdash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Installer registers a discovered runner with the host's service manager:
// it generates the unit file (systemd) or agent plist (launchd), writes it
// atomically, and reloads/enables the manager's view of it. After install,
// the runner is controllable through the first (managed-unit) tier.
type Installer struct {
	// Ex is the external-process seam
	Ex Execer

	// GOOS selects the unit format and registration commands
	GOOS string

	// Username is the account the unit runs as and part of its identity
	Username string

	// UseSudo indicates whether registration commands go through sudo
	UseSudo bool

	// SudoCommand is the privilege-escalation command (default: "sudo")
	SudoCommand string

	// SystemctlPath is the path to systemctl
	SystemctlPath string

	// LaunchctlPath is the path to launchctl
	LaunchctlPath string

	// UnitDir is where systemd unit files are written
	// (default: /etc/systemd/system)
	UnitDir string

	// AgentDir is where launchd agent plists are written
	// (default: ~/Library/LaunchAgents)
	AgentDir string

	// UID is the user id for the launchd gui domain
	UID int
}

// NewInstaller creates an Installer for the given platform
func NewInstaller(ex Execer, goos, username string) (*Installer, error) {
	inst := &Installer{
		Ex:            ex,
		GOOS:          goos,
		Username:      username,
		UseSudo:       os.Geteuid() != 0,
		SudoCommand:   "sudo",
		SystemctlPath: "systemctl",
		LaunchctlPath: "launchctl",
		UnitDir:       "/etc/systemd/system",
		UID:           os.Getuid(),
	}
	switch goos {
	case "linux":
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		inst.AgentDir = filepath.Join(home, "Library", "LaunchAgents")
	default:
		return nil, fmt.Errorf("runnerdash: unsupported platform %q", goos)
	}
	return inst, nil
}

// Install registers the runner and returns a completion message. The
// service name passes the validation gate before any file is written or
// subprocess issued.
func (i *Installer) Install(ctx context.Context, r Runner) (string, error) {
	if err := ValidateServiceName(r.Service); err != nil {
		return "", err
	}
	switch i.GOOS {
	case "darwin":
		return i.installAgent(ctx, r)
	default:
		return i.installUnit(ctx, r)
	}
}

func (i *Installer) installUnit(ctx context.Context, r Runner) (string, error) {
	unit := BuildSystemdUnit(r, i.Username)
	path := filepath.Join(i.UnitDir, r.Service+".service")
	if err := renameio.WriteFile(path, []byte(unit), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", r.Service + ".service"},
	} {
		if err := i.runSystemctl(ctx, args...); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Installed %s as %s", r.DisplayName(), r.Service), nil
}

func (i *Installer) runSystemctl(ctx context.Context, args ...string) error {
	name := i.SystemctlPath
	if i.UseSudo {
		args = append([]string{i.SystemctlPath}, args...)
		name = i.SudoCommand
	}
	res, err := i.Ex.Run(ctx, "", name, args...)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return fmt.Errorf("%s %s: %s", i.SystemctlPath, strings.Join(args, " "), res.Diagnostic())
	}
	return nil
}

func (i *Installer) installAgent(ctx context.Context, r Runner) (string, error) {
	plist := BuildLaunchdPlist(r)
	path := filepath.Join(i.AgentDir, r.Service+".plist")
	if err := renameio.WriteFile(path, []byte(plist), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	res, err := i.Ex.Run(ctx, "", i.LaunchctlPath, "bootstrap", fmt.Sprintf("gui/%d", i.UID), path)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", fmt.Errorf("%s bootstrap: %s", i.LaunchctlPath, res.Diagnostic())
	}
	return fmt.Sprintf("Installed %s as %s", r.DisplayName(), r.Service), nil
}

// BuildSystemdUnit generates the systemd unit file for a runner instance
func BuildSystemdUnit(r Runner, username string) string {
	var unit strings.Builder

	unit.WriteString("[Unit]\n")
	fmt.Fprintf(&unit, "Description=GitHub Actions runner %s\n", r.DisplayName())
	unit.WriteString("After=network.target\n")
	unit.WriteString("\n")

	unit.WriteString("[Service]\n")
	fmt.Fprintf(&unit, "ExecStart=%s\n", filepath.Join(r.Path, LaunchScript))
	fmt.Fprintf(&unit, "WorkingDirectory=%s\n", r.Path)
	if username != "" {
		fmt.Fprintf(&unit, "User=%s\n", username)
	}
	unit.WriteString("Restart=always\n")
	unit.WriteString("RestartSec=5\n")
	unit.WriteString("KillMode=process\n")
	unit.WriteString("KillSignal=SIGINT\n")
	unit.WriteString("TimeoutStopSec=5min\n")
	unit.WriteString("\n")

	unit.WriteString("[Install]\n")
	unit.WriteString("WantedBy=multi-user.target\n")

	return unit.String()
}

// BuildLaunchdPlist generates the launchd agent plist for a runner instance
func BuildLaunchdPlist(r Runner) string {
	var plist strings.Builder

	plist.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	plist.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	plist.WriteString(`<plist version="1.0">` + "\n<dict>\n")
	fmt.Fprintf(&plist, "  <key>Label</key>\n  <string>%s</string>\n", r.Service)
	plist.WriteString("  <key>ProgramArguments</key>\n  <array>\n")
	fmt.Fprintf(&plist, "    <string>%s</string>\n", filepath.Join(r.Path, LaunchScript))
	plist.WriteString("  </array>\n")
	fmt.Fprintf(&plist, "  <key>WorkingDirectory</key>\n  <string>%s</string>\n", r.Path)
	plist.WriteString("  <key>RunAtLoad</key>\n  <true/>\n")
	plist.WriteString("  <key>KeepAlive</key>\n  <true/>\n")
	plist.WriteString("</dict>\n</plist>\n")

	return plist.String()
}
