package runnerdash

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
)

// Filesystem markers inside a runner instance directory
const (
	// LaunchScript must exist for a directory to be discovered as a runner
	LaunchScript = "run.sh"

	// ConfigMarker indicates a configured (installed) runner; used as the
	// "installed but not running" fallback signal during probing
	ConfigMarker = ".runner"

	// ControlScript is the per-instance service helper, used as the second
	// control tier when no managed unit exists
	ControlScript = "svc.sh"

	// DiagDir holds the runner's rotated diagnostic logs
	DiagDir = "_diag"
)

// DefaultRootDir is the directory under the user's home that holds runner
// instances, laid out as <root>/<repo>/<slot>/.
const DefaultRootDir = "action-runners"

// DefaultRoot resolves the default discovery root under the current user's
// home directory. An unresolvable home is a discovery error.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolving home directory: %v", ErrDiscovery, err)
	}
	return filepath.Join(home, DefaultRootDir), nil
}

// CurrentUsername resolves the username used in service identities. It
// prefers $USER (matching how the runner's own installer names units) and
// falls back to the process owner.
func CurrentUsername() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// Discover walks the two-level <root>/<repo>/<slot>/ convention and returns
// every slot directory containing the launch script, sorted by (repo,
// number) ascending. A missing root yields an empty list; an unreadable
// root is an error. Statuses are all StatusNotFound until the first probe.
func Discover(root, username string) ([]Runner, error) {
	repos, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDiscovery, root, err)
	}

	var runners []Runner
	for _, repo := range repos {
		if !repo.IsDir() {
			continue
		}
		repoPath := filepath.Join(root, repo.Name())

		slots, err := os.ReadDir(repoPath)
		if err != nil {
			// A repo dir that vanished or lost permissions mid-walk is
			// skipped, not fatal.
			continue
		}

		for _, slot := range slots {
			if !slot.IsDir() {
				continue
			}
			slotPath := filepath.Join(repoPath, slot.Name())
			if !fileExists(filepath.Join(slotPath, LaunchScript)) {
				continue
			}

			number := parseSlot(slot.Name())
			runners = append(runners, Runner{
				Repo:    repo.Name(),
				Number:  number,
				Service: ServiceName(username, repo.Name(), number),
				Path:    slotPath,
				Status:  StatusNotFound,
			})
		}
	}

	sort.Slice(runners, func(i, j int) bool {
		if runners[i].Repo != runners[j].Repo {
			return runners[i].Repo < runners[j].Repo
		}
		return runners[i].Number < runners[j].Number
	})

	return runners, nil
}

// parseSlot parses a slot directory name as its index; unparsable names
// default to slot 0.
func parseSlot(name string) uint32 {
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
