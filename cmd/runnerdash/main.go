// Command runnerdash supervises locally installed GitHub Actions runners.
// Run without arguments it opens the interactive dashboard; subcommands
// cover one-shot listing, control, logs and installation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/axondata/runnerdash"
	"github.com/axondata/runnerdash/internal/log"
	"github.com/axondata/runnerdash/internal/tui"
)

var (
	flagConfigPath string
	flagRoot       string
	flagVerbose    bool

	cfg      runnerdash.Config
	rootDir  string
	username string
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file (default: runnerdash.yaml under the user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "runner discovery root (default: ~/action-runners)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	rootCmd.SilenceErrors = true
	rootCmd.PersistentPreRunE = initConfig

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newControlCmd(runnerdash.ActionStart, "start a runner's service"))
	rootCmd.AddCommand(newControlCmd(runnerdash.ActionStop, "stop a runner's service"))
	rootCmd.AddCommand(newControlCmd(runnerdash.ActionRestart, "restart a runner's service"))
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("runnerdash failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "runnerdash",
	Short:        "Dashboard for locally installed GitHub Actions runners",
	SilenceUsage: true,
	RunE:         doDash,
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := flagConfigPath
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "runnerdash", "runnerdash.yaml")
		}
	}

	var err error
	cfg, err = runnerdash.LoadConfig(path)
	if err != nil {
		return err
	}

	rootDir = cfg.Root
	if flagRoot != "" {
		rootDir = flagRoot
	}
	if rootDir == "" {
		if rootDir, err = runnerdash.DefaultRoot(); err != nil {
			return err
		}
	}

	username = cfg.Username
	if username == "" {
		username = runnerdash.CurrentUsername()
	}

	slog.SetDefault(log.New(flagVerbose, os.Stderr))
	return nil
}

func platform() (*runnerdash.Platform, error) {
	execer := &runnerdash.SysExecer{Timeout: time.Duration(cfg.ExecTimeout)}
	return runnerdash.PlatformFor(runtime.GOOS, execer, cfg)
}

func doDash(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the dashboard; route logs to a file.
	if dir, err := os.UserCacheDir(); err == nil {
		logPath := filepath.Join(dir, "runnerdash")
		if err := os.MkdirAll(logPath, 0o755); err == nil {
			if f, err := os.OpenFile(filepath.Join(logPath, "runnerdash.log"),
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				defer f.Close()
				slog.SetDefault(log.New(flagVerbose, f))
			}
		}
	}

	plat, err := platform()
	if err != nil {
		return err
	}

	runners, err := runnerdash.Discover(rootDir, username)
	if err != nil {
		return err
	}
	slog.Info("discovered runners", "count", len(runners), "root", rootDir)

	worker := runnerdash.NewWorker(runners,
		runnerdash.NewProber(plat.Probe),
		runnerdash.NewController(plat.Control),
		runnerdash.WithDiscoverer(func() ([]runnerdash.Runner, error) {
			return runnerdash.Discover(rootDir, username)
		}),
	)
	stopWorker := worker.Start(cmd.Context())

	// Structural changes under the root become Rediscover requests; the
	// periodic refresh covers everything else.
	ticks, stopWatch, err := runnerdash.WatchRoot(cmd.Context(), rootDir, 0)
	if err != nil {
		slog.Warn("root watch unavailable", "err", err)
	} else {
		go func() {
			for range ticks {
				select {
				case worker.Requests() <- runnerdash.Rediscover{}:
				default:
				}
			}
		}()
	}

	app := tui.New(tui.Options{
		Requests:        worker.Requests(),
		Responses:       worker.Responses(),
		Logs:            plat.Logs,
		LogLines:        cfg.LogLines,
		RefreshInterval: time.Duration(cfg.RefreshInterval),
		Runners:         runners,
	})
	runErr := app.Run()

	if stopWatch != nil {
		_ = stopWatch()
	}
	if err := stopWorker(); err != nil {
		slog.Warn("worker shutdown", "err", err)
	}
	return runErr
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "probe all runners once and print their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		plat, err := platform()
		if err != nil {
			return err
		}
		runners, err := runnerdash.Discover(rootDir, username)
		if err != nil {
			return err
		}
		statuses := runnerdash.NewProber(plat.Probe).ProbeAll(cmd.Context(), runners)
		for _, r := range runners {
			st := statuses[r.Service]
			fmt.Printf("%s %-30s %-10s %s\n", st.Symbol(), r.DisplayName(), st, r.Path)
		}
		return nil
	},
}

func newControlCmd(action runnerdash.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <repo> <slot>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plat, err := platform()
			if err != nil {
				return err
			}
			r, err := findRunner(args[0], args[1])
			if err != nil {
				return err
			}
			msg, err := runnerdash.NewController(plat.Control).Control(cmd.Context(), r, action)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

var logsCmd = &cobra.Command{
	Use:   "logs <repo> <slot>",
	Short: "print recent log lines for a runner",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		plat, err := platform()
		if err != nil {
			return err
		}
		r, err := findRunner(args[0], args[1])
		if err != nil {
			return err
		}
		lines, err := plat.Logs.Tail(cmd.Context(), r, cfg.LogLines)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

var installCmd = &cobra.Command{
	Use:   "install <repo> <slot>",
	Short: "register a runner with the service manager",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		execer := &runnerdash.SysExecer{Timeout: time.Duration(cfg.ExecTimeout)}
		inst, err := runnerdash.NewInstaller(execer, runtime.GOOS, username)
		if err != nil {
			return err
		}
		r, err := findRunner(args[0], args[1])
		if err != nil {
			return err
		}
		msg, err := inst.Install(cmd.Context(), r)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the runnerdash version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("runnerdash", runnerdash.Version)
	},
}

func findRunner(repo, slot string) (runnerdash.Runner, error) {
	number, err := strconv.ParseUint(slot, 10, 32)
	if err != nil {
		return runnerdash.Runner{}, fmt.Errorf("slot %q is not a number", slot)
	}
	runners, err := runnerdash.Discover(rootDir, username)
	if err != nil {
		return runnerdash.Runner{}, err
	}
	for _, r := range runners {
		if r.Repo == repo && r.Number == uint32(number) {
			return r, nil
		}
	}
	return runnerdash.Runner{}, fmt.Errorf("no runner %s/%s under %s", repo, slot, rootDir)
}
