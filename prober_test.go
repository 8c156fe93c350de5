package runnerdash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/renameio/v2"
)

// fakeProbe is a scripted ProbeStrategy
type fakeProbe struct {
	mu        sync.Mutex
	units     map[string]UnitState
	unitsErr  error
	procs     []string
	procsErr  error
	unitCalls int
	procCalls int
}

func (f *fakeProbe) Units(_ context.Context, _ []Runner) (map[string]UnitState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unitCalls++
	return f.units, f.unitsErr
}

func (f *fakeProbe) Processes(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procCalls++
	return f.procs, f.procsErr
}

func testRunner(t *testing.T, repo string, number uint32) Runner {
	t.Helper()
	dir := filepath.Join(t.TempDir(), repo, fmt.Sprint(number))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return Runner{
		Repo:    repo,
		Number:  number,
		Service: ServiceName("alice", repo, number),
		Path:    dir,
	}
}

func TestProbeAllServiceManagerWins(t *testing.T) {
	r0 := testRunner(t, "repoA", 0)
	r1 := testRunner(t, "repoA", 1)

	probe := &fakeProbe{
		units: map[string]UnitState{
			r0.Service: {Exists: true, State: "active"},
			r1.Service: {Exists: true, State: "failed"},
		},
		// The process map disagrees on purpose; tier A must win.
		procs: []string{"123 Runner.Listener " + r1.Path},
	}

	statuses := NewProber(probe).ProbeAll(context.Background(), []Runner{r0, r1})

	if statuses[r0.Service] != StatusActive {
		t.Errorf("runner 0 status = %v, want StatusActive", statuses[r0.Service])
	}
	if statuses[r1.Service] != StatusFailed {
		t.Errorf("runner 1 status = %v, want StatusFailed", statuses[r1.Service])
	}
}

func TestProbeAllTierAInactiveBeatsProcessMap(t *testing.T) {
	r := testRunner(t, "repoA", 0)
	probe := &fakeProbe{
		units: map[string]UnitState{r.Service: {Exists: true, State: "inactive"}},
		procs: []string{"99 Runner.Listener " + r.Path},
	}

	statuses := NewProber(probe).ProbeAll(context.Background(), []Runner{r})
	if statuses[r.Service] != StatusInactive {
		t.Errorf("status = %v, want StatusInactive (tier-A result is final)", statuses[r.Service])
	}
}

func TestProbeAllUnknownStateFallsThrough(t *testing.T) {
	r := testRunner(t, "repoA", 0)
	probe := &fakeProbe{
		// Registered but reporting a state we do not recognize: the
		// process check decides, not a garbage status.
		units: map[string]UnitState{r.Service: {Exists: true, State: "activating"}},
		procs: []string{"99 Runner.Listener " + r.Path},
	}

	statuses := NewProber(probe).ProbeAll(context.Background(), []Runner{r})
	if statuses[r.Service] != StatusActive {
		t.Errorf("status = %v, want StatusActive via process fallback", statuses[r.Service])
	}
}

func TestProbeAllMarkerFallback(t *testing.T) {
	r := testRunner(t, "repoA", 2)
	if err := renameio.WriteFile(filepath.Join(r.Path, ConfigMarker), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	probe := &fakeProbe{units: map[string]UnitState{}, procs: nil}

	statuses := NewProber(probe).ProbeAll(context.Background(), []Runner{r})
	if statuses[r.Service] != StatusInactive {
		t.Errorf("status = %v, want StatusInactive from the config marker", statuses[r.Service])
	}
}

func TestProbeAllNotFound(t *testing.T) {
	r := testRunner(t, "repoA", 0)
	probe := &fakeProbe{}

	statuses := NewProber(probe).ProbeAll(context.Background(), []Runner{r})
	if statuses[r.Service] != StatusNotFound {
		t.Errorf("status = %v, want StatusNotFound", statuses[r.Service])
	}
}

func TestProbeAllDegradesOnSignalFailure(t *testing.T) {
	r := testRunner(t, "repoA", 0)
	probe := &fakeProbe{
		unitsErr: fmt.Errorf("service manager unavailable"),
		procs:    []string{"44 Runner.Listener " + r.Path},
	}

	statuses := NewProber(probe).ProbeAll(context.Background(), []Runner{r})
	if statuses[r.Service] != StatusActive {
		t.Errorf("status = %v, want StatusActive from the surviving signal", statuses[r.Service])
	}
}

func TestProbeAllBatchedCallsOnce(t *testing.T) {
	runners := []Runner{
		testRunner(t, "repoA", 0),
		testRunner(t, "repoA", 1),
		testRunner(t, "repoB", 0),
	}
	probe := &fakeProbe{}

	NewProber(probe).ProbeAll(context.Background(), runners)

	if probe.unitCalls != 1 {
		t.Errorf("unit listing invoked %d times, want 1", probe.unitCalls)
	}
	if probe.procCalls != 1 {
		t.Errorf("process listing invoked %d times, want 1", probe.procCalls)
	}
}

// TestProbeCostIndependentOfRunnerCount drives the real Linux strategy
// through a counting execer: the number of external calls per refresh must
// not grow with the runner count.
func TestProbeCostIndependentOfRunnerCount(t *testing.T) {
	probeOnce := func(n int) int {
		ex := &fakeExecer{}
		strategy := NewSystemd(ex, DefaultConfig())
		var runners []Runner
		for i := 0; i < n; i++ {
			runners = append(runners, testRunner(t, fmt.Sprintf("repo%02d", i), 0))
		}
		NewProber(strategy).ProbeAll(context.Background(), runners)
		return ex.runCount()
	}

	small := probeOnce(2)
	large := probeOnce(20)

	if small != large {
		t.Errorf("external calls grew with runner count: %d for 2 runners, %d for 20", small, large)
	}
	if large > 3 {
		t.Errorf("refresh issued %d external calls, want at most 3", large)
	}
}
