// Package runnerdash supervises locally installed GitHub Actions runner
// instances: it discovers them on disk, reconciles their true run-state from
// the host's service manager, the process table and on-disk markers, and
// executes validated start/stop/restart actions against them.
//
// The core types are:
//
//	runners, err := runnerdash.Discover(root, username)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	plat, err := runnerdash.PlatformFor(runtime.GOOS, execer, cfg)
//	statuses := runnerdash.NewProber(plat.Probe).ProbeAll(ctx, runners)
//
//	msg, err := runnerdash.NewController(plat.Control).Control(ctx, runners[0], runnerdash.ActionRestart)
//
// # Worker for Serialized Reconciliation
//
// The Worker type owns the live runner list and serializes every probe and
// control operation on a single goroutine. Presentation code (the bundled
// TUI, or anything else) pushes fire-and-forget requests onto the worker's
// inbound channel and drains published snapshots from its outbound channel;
// it never blocks on a subprocess. Every control action is followed by a
// full re-probe before its completion message is published, so consumers
// that apply messages in receive order never pair a stale status with a
// "done" message.
//
// # Design Philosophy
//
// This package prioritizes:
//
//   - A constant number of external-process invocations per refresh,
//     independent of the number of runners (batched probes)
//   - Strict pre-spawn validation of every value that reaches a subprocess
//     argument list (no shell-metacharacter injection surface)
//   - Best-effort probing (a failed signal degrades to the next tier,
//     never to an error)
//   - Platform behavior behind runtime-selected strategy interfaces, so the
//     prober, controller and worker stay platform-agnostic
package runnerdash
