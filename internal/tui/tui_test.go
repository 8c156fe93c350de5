package tui

import (
	"testing"

	"github.com/axondata/runnerdash"
)

func testModel(runners []runnerdash.Runner, responses chan runnerdash.Response) Model {
	return Model{
		responses: responses,
		requests:  make(chan runnerdash.Request, 16),
		runners:   runners,
		logLines:  10,
	}
}

func TestDrainAppliesInOrder(t *testing.T) {
	responses := make(chan runnerdash.Response, 4)
	m := testModel(nil, responses)

	updated := []runnerdash.Runner{{Repo: "repoA", Number: 0, Status: runnerdash.StatusInactive}}
	responses <- runnerdash.RunnersUpdated{Runners: updated}
	responses <- runnerdash.ActionDone{Message: "Successfully stopped repoA-runner-0"}

	m.drain()

	if len(m.runners) != 1 || m.runners[0].Status != runnerdash.StatusInactive {
		t.Errorf("runners = %+v, want the published snapshot", m.runners)
	}
	if m.statusMsg != "Successfully stopped repoA-runner-0" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
	if m.stale {
		t.Error("live channel marked stale")
	}
}

func TestDrainClosedChannelMarksStale(t *testing.T) {
	responses := make(chan runnerdash.Response)
	close(responses)
	m := testModel(nil, responses)

	m.drain()

	if !m.stale {
		t.Fatal("closed responses channel did not mark the view stale")
	}
	if m.statusMsg == "" {
		t.Error("no warning shown for a dead worker")
	}
}

func TestDrainClampsSelection(t *testing.T) {
	responses := make(chan runnerdash.Response, 1)
	m := testModel([]runnerdash.Runner{{Repo: "a"}, {Repo: "b"}, {Repo: "c"}}, responses)
	m.selected = 2

	responses <- runnerdash.RunnersUpdated{Runners: []runnerdash.Runner{{Repo: "a"}}}
	m.drain()

	if m.selected != 0 {
		t.Errorf("selected = %d after the list shrank, want 0", m.selected)
	}
}

func TestProgressive(t *testing.T) {
	tests := []struct {
		action runnerdash.Action
		want   string
	}{
		{runnerdash.ActionStart, "Starting"},
		{runnerdash.ActionStop, "Stopping"},
		{runnerdash.ActionRestart, "Restarting"},
	}
	for _, tt := range tests {
		if got := progressive(tt.action); got != tt.want {
			t.Errorf("progressive(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}
