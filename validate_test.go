package runnerdash

import (
	"errors"
	"testing"
)

func TestValidateAction(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"start allowed", ActionStart, false},
		{"stop allowed", ActionStop, false},
		{"restart allowed", ActionRestart, false},
		{"delete rejected", Action("delete"), true},
		{"empty rejected", Action(""), true},
		{"uppercase rejected", Action("Start"), true},
		{"alias rejected", Action("reload"), true},
		{"padded rejected", Action("start "), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAction(tt.action)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Errorf("ValidateAction(%q) = %v, want ErrInvalidAction", tt.action, err)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("ValidateAction(%q) error type %T, want *ValidationError", tt.action, err)
				}
			} else if err != nil {
				t.Errorf("ValidateAction(%q) = %v, want nil", tt.action, err)
			}
		})
	}
}

func TestValidateServiceName(t *testing.T) {
	tests := []struct {
		name    string
		service string
		wantErr bool
	}{
		{"well formed", "actions.runner.alice.repoA-runner-0", false},
		{"underscores ok", "actions.runner.a_b.re_po-runner-1", false},
		{"missing prefix", "repoA-runner-0", true},
		{"wrong prefix", "system.runner.alice.repoA-runner-0", true},
		{"semicolon", "actions.runner.alice.repo;rm -rf /-runner-0", true},
		{"space", "actions.runner.alice.repo A-runner-0", true},
		{"backtick", "actions.runner.alice.`id`-runner-0", true},
		{"dollar", "actions.runner.alice.$HOME-runner-0", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceName(tt.service)
			if tt.wantErr {
				if !errors.Is(err, ErrServiceName) {
					t.Errorf("ValidateServiceName(%q) = %v, want ErrServiceName", tt.service, err)
				}
			} else if err != nil {
				t.Errorf("ValidateServiceName(%q) = %v, want nil", tt.service, err)
			}
		})
	}
}

func TestValidatePathPattern(t *testing.T) {
	good := []string{
		"/home/alice/action-runners/repoA/0",
		"/var/lib/runners/infra-tools/12",
	}
	for _, p := range good {
		if err := ValidatePathPattern(p); err != nil {
			t.Errorf("ValidatePathPattern(%q) = %v, want nil", p, err)
		}
	}

	bad := []string{
		"",
		"/home/alice/repo;rm -rf ~",
		"/home/alice/repo&",
		"/home/alice/repo|cat",
		"/home/alice/`id`",
		"/home/alice/$HOME",
		"/home/alice/repo\nrm",
		"/home/alice/repo'",
		"/home/alice/repo\"",
		"/home/alice/repo(sub)",
		"/home/alice/repo{a,b}",
		"/home/alice/repo<in",
		"/home/alice/repo>out",
		"/home/alice/repo*",
		"/home/alice/repo?",
		"/home/alice/repo[0]",
		"/home/alice/repo!",
		"/home/alice/repo#",
		`/home/alice/repo\x`,
	}
	for _, p := range bad {
		if err := ValidatePathPattern(p); !errors.Is(err, ErrUnsafePath) {
			t.Errorf("ValidatePathPattern(%q) = %v, want ErrUnsafePath", p, err)
		}
	}
}
