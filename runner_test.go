package runnerdash

import "testing"

func TestServiceName(t *testing.T) {
	tests := []struct {
		username string
		repo     string
		number   uint32
		want     string
	}{
		{"alice", "repoA", 0, "actions.runner.alice.repoA-runner-0"},
		{"alice", "repoA", 1, "actions.runner.alice.repoA-runner-1"},
		{"bob", "infra-tools", 12, "actions.runner.bob.infra-tools-runner-12"},
	}

	for _, tt := range tests {
		got := ServiceName(tt.username, tt.repo, tt.number)
		if got != tt.want {
			t.Errorf("ServiceName(%q, %q, %d) = %q, want %q", tt.username, tt.repo, tt.number, got, tt.want)
		}
	}
}

func TestServiceNameStable(t *testing.T) {
	// Pure function: repeated calls with equal inputs agree byte for byte.
	for i := 0; i < 100; i++ {
		if ServiceName("u", "r", 3) != "actions.runner.u.r-runner-3" {
			t.Fatal("ServiceName is not stable")
		}
	}
}

func TestStatusStrings(t *testing.T) {
	tests := []struct {
		status Status
		str    string
		symbol string
	}{
		{StatusActive, "active", "●"},
		{StatusInactive, "inactive", "○"},
		{StatusFailed, "failed", "✗"},
		{StatusNotFound, "not-found", "?"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.str {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.str)
		}
		if got := tt.status.Symbol(); got != tt.symbol {
			t.Errorf("Status(%d).Symbol() = %q, want %q", tt.status, got, tt.symbol)
		}
	}
}

func TestStatusZeroValue(t *testing.T) {
	var s Status
	if s != StatusNotFound {
		t.Errorf("zero Status = %v, want StatusNotFound", s)
	}
}

func TestDisplayName(t *testing.T) {
	r := Runner{Repo: "repoA", Number: 2}
	if got := r.DisplayName(); got != "repoA-runner-2" {
		t.Errorf("DisplayName() = %q, want %q", got, "repoA-runner-2")
	}
}

func TestActionPast(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionStart, "started"},
		{ActionStop, "stopped"},
		{ActionRestart, "restarted"},
	}
	for _, tt := range tests {
		if got := tt.action.Past(); got != tt.want {
			t.Errorf("Action(%q).Past() = %q, want %q", tt.action, got, tt.want)
		}
	}
}
