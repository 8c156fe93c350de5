package runnerdash

import (
	"context"
	"fmt"
)

// UnitState is the service manager's view of one registered unit.
type UnitState struct {
	// Exists reports whether the unit is registered at all. A false value
	// (an existence miss) is what sends the prober to the process and
	// marker-file fallback tier.
	Exists bool

	// State is the manager's reported state: "active", "inactive",
	// "failed", or any other raw value the manager emitted. Unrecognized
	// values also fall through to the fallback tier.
	State string
}

// ProbeStrategy supplies the batched read-only signals for one platform.
// Both methods issue a single external call regardless of the number of
// runners; every failure degrades to an empty result at the call site.
type ProbeStrategy interface {
	// Units returns the registered-unit state for each runner, keyed by
	// service name. Runners absent from the map are existence misses.
	Units(ctx context.Context, runners []Runner) (map[string]UnitState, error)

	// Processes returns one line per live process whose command line
	// matches the runner process marker, each line carrying the pid and
	// full command line. Matched per-runner by path containment.
	Processes(ctx context.Context) ([]string, error)
}

// ControlStrategy executes a validated control verb against one runner
// using the platform's tiered fallback chain.
type ControlStrategy interface {
	Control(ctx context.Context, r Runner, a Action) (string, error)
}

// LogSource tails recent log output for one runner, from a centralized
// journal or the runner's own diagnostic files.
type LogSource interface {
	Tail(ctx context.Context, r Runner, lines int) ([]string, error)
}

// Platform bundles the strategy set selected once at startup, keeping the
// prober, controller and worker free of platform branching.
type Platform struct {
	Probe   ProbeStrategy
	Control ControlStrategy
	Logs    LogSource
}

// PlatformFor selects the strategy set for a GOOS value.
func PlatformFor(goos string, ex Execer, cfg Config) (*Platform, error) {
	switch goos {
	case "linux":
		s := NewSystemd(ex, cfg)
		return &Platform{Probe: s, Control: s, Logs: s}, nil
	case "darwin":
		l := NewLaunchd(ex, cfg)
		return &Platform{Probe: l, Control: l, Logs: l}, nil
	default:
		return nil, fmt.Errorf("runnerdash: unsupported platform %q", goos)
	}
}
