package runnerdash

import "fmt"

// Status represents the reconciled run-state of a runner instance.
type Status int

const (
	// StatusNotFound indicates no signal claimed the runner: no managed
	// unit, no live process, no configuration marker. It is the zero value
	// and the state of a freshly discovered, never-probed runner.
	StatusNotFound Status = iota

	// StatusActive indicates the runner is running
	StatusActive

	// StatusInactive indicates the runner is configured but stopped
	StatusInactive

	// StatusFailed indicates the service manager reports the unit as failed
	StatusFailed
)

// String returns the lowercase state name
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusFailed:
		return "failed"
	default:
		return "not-found"
	}
}

// Symbol returns a single-rune indicator suitable for dashboards
func (s Status) Symbol() string {
	switch s {
	case StatusActive:
		return "●"
	case StatusInactive:
		return "○"
	case StatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// Action is a control verb accepted by the Controller. Exactly the three
// literals below are valid; anything else fails validation before any
// subprocess is spawned.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// Past returns the past tense of the verb for completion messages
func (a Action) Past() string {
	switch a {
	case ActionStart:
		return "started"
	case ActionStop:
		return "stopped"
	case ActionRestart:
		return "restarted"
	default:
		return string(a)
	}
}

// ServicePrefix is the fixed namespace every managed runner unit lives
// under. Service names outside this namespace are rejected by validation.
const ServicePrefix = "actions.runner."

// ServiceName computes the deterministic service-manager identity for a
// runner slot. It is a pure function: equal inputs always yield an
// identical string, which is the join key against the host's service
// manager namespace.
func ServiceName(username, repo string, number uint32) string {
	return fmt.Sprintf("%s%s.%s-runner-%d", ServicePrefix, username, repo, number)
}

// Runner is one supervised runner instance: its identity plus the most
// recently observed state. Records are value types; the worker replaces
// the whole list on every publish rather than mutating records in place.
type Runner struct {
	// Repo is the owning repository name, the first path segment under
	// the discovery root
	Repo string

	// Number is the slot index, parsed from the second path segment
	Number uint32

	// Service is the deterministic service-manager identity,
	// ServiceName(username, Repo, Number)
	Service string

	// Path is the discovered runner instance directory
	Path string

	// Status is the result of the most recent probe. There is no
	// staleness flag; staleness is implicit in refresh cadence.
	Status Status
}

// DisplayName returns the short human-readable name, "<repo>-runner-<n>"
func (r Runner) DisplayName() string {
	return fmt.Sprintf("%s-runner-%d", r.Repo, r.Number)
}
