package runnerdash

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Prober resolves the current status of every runner in a constant number
// of external calls, independent of the runner count. ProbeAll never
// fails: each signal that cannot be gathered degrades to the next tier,
// and the worst case for a runner is StatusNotFound.
type Prober struct {
	strategy ProbeStrategy
}

// NewProber creates a Prober over the platform's probe strategy
func NewProber(strategy ProbeStrategy) *Prober {
	return &Prober{strategy: strategy}
}

// ProbeAll resolves a status per runner, keyed by service name.
//
// Resolution precedence is strict: a registered unit reporting a
// recognized state always wins. An existence miss, a failed batch call, or
// a registered unit reporting an unrecognized state all fall through to
// the fallback tier: a live process whose command line contains the
// runner's path means active; otherwise a configuration marker in the
// runner directory means inactive; otherwise not found.
func (p *Prober) ProbeAll(ctx context.Context, runners []Runner) map[string]Status {
	statuses := make(map[string]Status, len(runners))
	if len(runners) == 0 {
		return statuses
	}

	var units map[string]UnitState
	var procs []string

	// The two batched calls are independent signals; gather them
	// concurrently and let each degrade on its own.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if u, err := p.strategy.Units(gctx, runners); err == nil {
			units = u
		}
		return nil
	})
	g.Go(func() error {
		if lines, err := p.strategy.Processes(gctx); err == nil {
			procs = lines
		}
		return nil
	})
	_ = g.Wait()

	for _, r := range runners {
		statuses[r.Service] = resolve(r, units[r.Service], procs)
	}
	return statuses
}

func resolve(r Runner, unit UnitState, procs []string) Status {
	if unit.Exists {
		switch unit.State {
		case "active":
			return StatusActive
		case "inactive":
			return StatusInactive
		case "failed":
			return StatusFailed
		}
		// Registered but reporting an unknown state: fall through to the
		// process check instead of surfacing garbage.
	}

	for _, line := range procs {
		if strings.Contains(line, r.Path) {
			return StatusActive
		}
	}
	if fileExists(filepath.Join(r.Path, ConfigMarker)) {
		return StatusInactive
	}
	return StatusNotFound
}
