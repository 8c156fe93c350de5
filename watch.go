package runnerdash

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// DefaultWatchDebounce coalesces rapid directory churn (an installer
// unpacking a runner touches hundreds of paths) into a single tick.
const DefaultWatchDebounce = 500 * time.Millisecond

// WatchRoot watches the discovery root for structural changes and emits a
// tick whenever the runner set may have changed, so the caller can funnel
// the tick into a Rediscover request. The returned cleanup stops the
// watching goroutine and closes the channel.
//
// Repo directories present at watch time are watched too, so adding or
// removing a slot directory is noticed, not just adding a repo. A missing
// root is an error; callers that tolerate it should skip watching.
func WatchRoot(ctx context.Context, root string, debounce time.Duration) (<-chan struct{}, func() error, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(root); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}
	// Best effort on the repo level: a repo dir that cannot be watched
	// still gets its creations noticed through the root watch.
	if repos, err := Discover(root, "watch"); err == nil {
		seen := make(map[string]struct{})
		for _, r := range repos {
			dir := filepath.Dir(r.Path)
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			_ = watcher.Add(dir)
		}
	}

	ch := make(chan struct{}, 1)

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	var mu sync.Mutex
	var debouncer *time.Timer

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			mu.Lock()
			if debouncer != nil {
				debouncer.Stop()
			}
			mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if event.Op&fsnotify.Create != 0 {
					// A new repo dir: watch it so its slot churn is seen.
					_ = watcher.Add(event.Name)
				}

				mu.Lock()
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = time.AfterFunc(debounce, func() {
					if sctx.IsStopping() {
						return
					}
					select {
					case ch <- struct{}{}:
					default:
						// A tick is already pending; one rediscovery
						// covers any number of changes.
					}
				})
				mu.Unlock()

			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				// Watch errors are advisory; periodic refresh still
				// covers the runner set.
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
