package state

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// DefaultMaxSelected caps how many paths a selection may hold.
const DefaultMaxSelected = 400

// ErrSelectionLimit reports a toggle that would push the selection past
// its cap. The selection is left untouched when this happens.
var ErrSelectionLimit = errors.New("selection limit exceeded")

// Toggle flips membership for the entry at path. Files and symlinks
// toggle individually. Directories toggle as a unit together with
// their whole subtree: a fully selected branch deselects, anything
// else selects the missing remainder. Additions are all-or-nothing
// against the cap.
func (a *App) Toggle(path string) error {
	e, ok := a.tr.Lookup(path)
	if !ok {
		return nil
	}

	if e.Kind != tree.KindDir {
		if a.selected[path] {
			delete(a.selected, path)
			return nil
		}
		return a.admit([]string{path})
	}

	desc := a.tr.Descendants(path)
	if a.branchSelected(path, desc) {
		delete(a.selected, path)
		for _, d := range desc {
			delete(a.selected, d.Path)
		}
		return nil
	}

	toAdd := make([]string, 0, len(desc)+1)
	if !a.selected[path] {
		toAdd = append(toAdd, path)
	}
	for _, d := range desc {
		if !a.selected[d.Path] {
			toAdd = append(toAdd, d.Path)
		}
	}
	return a.admit(toAdd)
}

// ToggleAll acts on the visible rows as one unit. When every visible
// entry is already selected the whole selection empties, including
// paths hidden by collapse or filtering. Otherwise it selects the
// visible entries plus the full subtree of every visible directory,
// all-or-nothing against the cap.
func (a *App) ToggleAll() error {
	if len(a.visible) == 0 {
		return nil
	}

	all := true
	for _, e := range a.visible {
		if !a.selected[e.Path] {
			all = false
			break
		}
	}
	if all {
		a.selected = make(map[string]bool)
		return nil
	}

	var toAdd []string
	queued := make(map[string]bool, len(a.visible))
	add := func(p string) {
		if !a.selected[p] && !queued[p] {
			queued[p] = true
			toAdd = append(toAdd, p)
		}
	}
	for _, e := range a.visible {
		add(e.Path)
		if e.Kind == tree.KindDir {
			for _, d := range a.tr.Descendants(e.Path) {
				add(d.Path)
			}
		}
	}
	return a.admit(toAdd)
}

// IsSelected reports membership for one path.
func (a *App) IsSelected(path string) bool { return a.selected[path] }

// SelectionCount returns how many paths the selection holds.
func (a *App) SelectionCount() int { return len(a.selected) }

// SelectedEntries returns the selected entries of the current tree in
// canonical order. Selections made before a re-root that fall outside
// the current tree are held in the set but not returned.
func (a *App) SelectedEntries() []*tree.Entry {
	out := make([]*tree.Entry, 0, len(a.selected))
	for i := 0; i < a.tr.Len(); i++ {
		e := a.tr.At(i)
		if a.selected[e.Path] {
			out = append(out, e)
		}
	}
	return out
}

// branchSelected reports whether a directory's descendant set is fully
// selected. An empty directory counts by its own membership.
func (a *App) branchSelected(path string, desc []*tree.Entry) bool {
	if len(desc) == 0 {
		return a.selected[path]
	}
	for _, d := range desc {
		if !a.selected[d.Path] {
			return false
		}
	}
	return true
}

// admit adds every path or none of them.
func (a *App) admit(paths []string) error {
	if len(a.selected)+len(paths) > a.maxSelected {
		a.log.Warn("selection cap hit",
			"selected", len(a.selected),
			"adding", len(paths),
			"cap", a.maxSelected)
		return fmt.Errorf("%w: %d selected plus %d more passes the cap of %d",
			ErrSelectionLimit, len(a.selected), len(paths), a.maxSelected)
	}
	for _, p := range paths {
		a.selected[p] = true
	}
	return nil
}

// pruneSelection drops selected paths under the current root that the
// tree no longer contains. Paths outside the root are left alone; they
// belong to subtrees the browser may return to.
func (a *App) pruneSelection() {
	prefix := a.root + string(filepath.Separator)
	for p := range a.selected {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if !a.tr.Contains(p) {
			delete(a.selected, p)
		}
	}
}
