package runnerdash

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config values can be written as "1s",
// "250ms" and so on in YAML.
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the operator-tunable settings for the dashboard and the
// reconciliation core. Zero values are replaced by defaults on load.
type Config struct {
	// Root is the discovery root; empty means ~/action-runners
	Root string `yaml:"root"`

	// Username overrides the username used in service identities; empty
	// means the current user
	Username string `yaml:"username"`

	// RefreshInterval is the dashboard's periodic refresh cadence
	RefreshInterval Duration `yaml:"refresh_interval"`

	// LogLines is how many log lines the log view tails
	LogLines int `yaml:"log_lines"`

	// SudoCommand is the privilege-escalation command for service-manager
	// control verbs
	SudoCommand string `yaml:"sudo_command"`

	// ProcessMarker is the substring the batched process listing matches
	// against live command lines to find runner processes
	ProcessMarker string `yaml:"process_marker"`

	// ExecTimeout bounds every external probe/control call
	ExecTimeout Duration `yaml:"exec_timeout"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		RefreshInterval: Duration(time.Second),
		LogLines:        100,
		SudoCommand:     "sudo",
		ProcessMarker:   "Runner.Listener",
		ExecTimeout:     Duration(10 * time.Second),
	}
}

// LoadConfig reads a YAML config file and applies defaults for any field
// left unset. A missing file is not an error; it yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.merge(loaded)
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.Root != "" {
		c.Root = o.Root
	}
	if o.Username != "" {
		c.Username = o.Username
	}
	if o.RefreshInterval != 0 {
		c.RefreshInterval = o.RefreshInterval
	}
	if o.LogLines != 0 {
		c.LogLines = o.LogLines
	}
	if o.SudoCommand != "" {
		c.SudoCommand = o.SudoCommand
	}
	if o.ProcessMarker != "" {
		c.ProcessMarker = o.ProcessMarker
	}
	if o.ExecTimeout != 0 {
		c.ExecTimeout = o.ExecTimeout
	}
}
