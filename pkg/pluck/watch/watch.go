// Package watch provides debounced filesystem watching so the browser
// can refresh its tree while the user works.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pluck-sh/pluck/pkg/pluck/logging"
)

// Watcher watches a directory tree and coalesces bursts of filesystem
// events into single change notifications.
type Watcher struct {
	watcher *fsnotify.Watcher
	paths   map[string]bool
	skip    func(path string) bool
	mu      sync.RWMutex
	closed  bool
	log     *logging.Logger
}

// New creates a new Watcher. The skip callback keeps directories out of
// the watch set and their events out of the change stream; nil watches
// everything.
func New(skip func(path string) bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: fsw,
		paths:   make(map[string]bool),
		skip:    skip,
		log:     logging.Get("watch"),
	}, nil
}

// Watch starts watching root and every directory below it. Symlinks
// are left unwatched so cycles cannot form.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	return w.watchTree(absRoot)
}

// watchTree adds a watch for root and each directory below it that the
// skip callback allows. Unreadable entries are passed over.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		switch {
		case walkErr != nil:
			return nil //nolint:nilerr
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case !d.IsDir():
			return nil
		case path != root && w.skipped(path):
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		w.log.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

// Unwatch stops watching a path and everything below it.
func (w *Watcher) Unwatch(root string) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.dropWatches(absRoot)
}

// Run starts the event loop. It blocks until the context is cancelled.
// Events are coalesced: onChange fires once after the filesystem has
// been quiet for the debounce window.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onChange func()) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !w.relevant(event) {
				continue
			}
			w.adjustWatches(event)

			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if onChange != nil {
				onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// relevant filters out events that cannot change the tree.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return !w.skipped(event.Name)
}

// adjustWatches keeps the watch set aligned with the directory tree as
// directories appear and disappear. A rename counts as a removal; the
// new name arrives as its own create event.
func (w *Watcher) adjustWatches(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		info, err := os.Lstat(event.Name)
		if err != nil || info.Mode()&fs.ModeSymlink != 0 || !info.IsDir() {
			return
		}
		// Walk it: children may have been created before the watch
		// landed.
		_ = w.watchTree(event.Name)

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.mu.Lock()
		w.dropWatches(event.Name)
		w.mu.Unlock()
	}
}

// dropWatches removes the watch on path and on everything below it.
// Callers hold w.mu.
func (w *Watcher) dropWatches(path string) {
	for watched := range w.paths {
		if watched == path || under(watched, path) {
			_ = w.watcher.Remove(watched)
			delete(w.paths, watched)
		}
	}
}

// skipped reports whether the skip callback excludes the path.
func (w *Watcher) skipped(path string) bool {
	return w.skip != nil && w.skip(path)
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// under reports whether path sits inside the parent directory.
func under(path, parent string) bool {
	return strings.HasPrefix(path, parent+string(filepath.Separator))
}
