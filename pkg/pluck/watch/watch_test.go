package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

func newWatcher(t *testing.T, skip func(string) bool) *Watcher {
	t.Helper()
	w, err := New(skip)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func mustWatch(t *testing.T, w *Watcher, dir string) {
	t.Helper()
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch(%s) error = %v", dir, err)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error = %v", path, err)
	}
}

// startRun launches the event loop and returns a channel that receives
// one value per coalesced change.
func startRun(t *testing.T, w *Watcher) <-chan struct{} {
	t.Helper()
	changes := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go w.Run(ctx, testDebounce, func() {
		changes <- struct{}{}
	})
	return changes
}

func waitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a change notification")
	}
}

func expectQuiet(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("got a change notification, want none")
	case <-time.After(6 * testDebounce):
	}
}

// trackedPaths snapshots the watch set.
func trackedPaths(w *Watcher) map[string]bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]bool, len(w.paths))
	for p := range w.paths {
		out[p] = true
	}
	return out
}

func TestWatchTracksSubdirectories(t *testing.T) {
	w := newWatcher(t, nil)

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	mustMkdir(t, subDir)
	mustWatch(t, w, tmpDir)

	tracked := trackedPaths(w)
	if !tracked[tmpDir] {
		t.Error("root directory not tracked")
	}
	if !tracked[subDir] {
		t.Error("subdirectory not tracked")
	}
}

func TestWatchSkipsExcludedDirectories(t *testing.T) {
	w := newWatcher(t, func(path string) bool {
		return filepath.Base(path) == "node_modules"
	})

	tmpDir := t.TempDir()
	mustMkdir(t, filepath.Join(tmpDir, "node_modules", "dep"))
	mustWatch(t, w, tmpDir)

	for path := range trackedPaths(w) {
		if strings.Contains(path, "node_modules") {
			t.Errorf("tracked excluded path %q", path)
		}
	}
}

func TestRunCoalescesBursts(t *testing.T) {
	w := newWatcher(t, nil)
	tmpDir := t.TempDir()
	mustWatch(t, w, tmpDir)

	changes := startRun(t, w)

	// A burst of writes inside the debounce window.
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		mustWrite(t, filepath.Join(tmpDir, name))
	}

	waitChange(t, changes)
	expectQuiet(t, changes)
}

func TestRunWatchesCreatedDirectories(t *testing.T) {
	w := newWatcher(t, nil)
	tmpDir := t.TempDir()
	mustWatch(t, w, tmpDir)

	changes := startRun(t, w)

	subDir := filepath.Join(tmpDir, "later")
	mustMkdir(t, subDir)
	waitChange(t, changes)

	// Events inside the new directory must be seen too.
	mustWrite(t, filepath.Join(subDir, "inner.txt"))
	waitChange(t, changes)
}

func TestRunIgnoresExcludedEvents(t *testing.T) {
	w := newWatcher(t, func(path string) bool {
		return filepath.Base(path) == "node_modules"
	})
	tmpDir := t.TempDir()
	mustWatch(t, w, tmpDir)

	changes := startRun(t, w)

	mustMkdir(t, filepath.Join(tmpDir, "node_modules"))
	expectQuiet(t, changes)
}

func TestUnwatch(t *testing.T) {
	w := newWatcher(t, nil)
	tmpDir := t.TempDir()
	mustWatch(t, w, tmpDir)

	changes := startRun(t, w)
	w.Unwatch(tmpDir)

	mustWrite(t, filepath.Join(tmpDir, "after.txt"))
	expectQuiet(t, changes)

	if n := len(trackedPaths(w)); n != 0 {
		t.Errorf("got %d tracked paths after Unwatch, want 0", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w := newWatcher(t, nil)

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestUnder(t *testing.T) {
	sep := string(filepath.Separator)
	cases := []struct {
		path, parent string
		want         bool
	}{
		{sep + "a" + sep + "b", sep + "a", true},
		{sep + "a" + sep + "b" + sep + "c", sep + "a", true},
		{sep + "a", sep + "a", false},
		{sep + "ab", sep + "a", false},
		{sep + "b", sep + "a", false},
	}
	for _, tc := range cases {
		if got := under(tc.path, tc.parent); got != tc.want {
			t.Errorf("under(%q, %q) = %v, want %v", tc.path, tc.parent, got, tc.want)
		}
	}
}
