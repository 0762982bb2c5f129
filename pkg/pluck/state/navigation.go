package state

import (
	"path/filepath"

	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// PageSize is how many rows page movement jumps.
const PageSize = 10

// MoveNext steps the cursor down one row, stopping at the last.
func (a *App) MoveNext() {
	if a.cursor < len(a.visible)-1 {
		a.cursor++
	}
}

// MovePrev steps the cursor up one row, stopping at the first.
func (a *App) MovePrev() {
	if a.cursor > 0 {
		a.cursor--
	}
}

// PageDown jumps the cursor down by PageSize, clamped to the last row.
func (a *App) PageDown() {
	if len(a.visible) == 0 {
		return
	}
	a.cursor += PageSize
	if a.cursor > len(a.visible)-1 {
		a.cursor = len(a.visible) - 1
	}
}

// PageUp jumps the cursor up by PageSize, clamped to the first row.
func (a *App) PageUp() {
	a.cursor -= PageSize
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// Home moves the cursor to the first visible row.
func (a *App) Home() {
	a.cursor = 0
}

// End moves the cursor to the last visible row.
func (a *App) End() {
	if n := len(a.visible); n > 0 {
		a.cursor = n - 1
	}
}

// CursorEntry returns the entry under the cursor, or nil when nothing
// is visible.
func (a *App) CursorEntry() *tree.Entry {
	if a.cursor < 0 || a.cursor >= len(a.visible) {
		return nil
	}
	return a.visible[a.cursor]
}

// IsExpanded reports whether a directory is currently expanded.
func (a *App) IsExpanded(path string) bool { return a.expanded[path] }

// ToggleExpand flips the directory under the cursor between expanded
// and collapsed. The cursor follows the entry to its new row.
func (a *App) ToggleExpand() {
	e := a.CursorEntry()
	if e == nil || e.Kind != tree.KindDir {
		return
	}
	if a.expanded[e.Path] {
		delete(a.expanded, e.Path)
	} else {
		a.expanded[e.Path] = true
	}
	a.recompute()
	a.moveCursorTo(e.Path)
}

// EnterTarget returns the directory under the cursor when re-rooting
// into it is possible.
func (a *App) EnterTarget() (string, bool) {
	e := a.CursorEntry()
	if e == nil || e.Kind != tree.KindDir {
		return "", false
	}
	return e.Path, true
}

// ParentTarget returns the parent of the current root. Browsing never
// climbs above the root the session started at.
func (a *App) ParentTarget() (string, bool) {
	if a.root == a.initialRoot {
		return "", false
	}
	parent := filepath.Dir(a.root)
	if parent == a.root {
		return "", false
	}
	return parent, true
}

// cursorPath returns the path under the cursor, or the empty string.
func (a *App) cursorPath() string {
	if e := a.CursorEntry(); e != nil {
		return e.Path
	}
	return ""
}

// moveCursorTo puts the cursor on the row holding path, falling back to
// a clamp of the old position when the path is no longer visible.
func (a *App) moveCursorTo(path string) {
	if path != "" {
		for i, e := range a.visible {
			if e.Path == path {
				a.cursor = i
				return
			}
		}
	}
	a.clampCursor()
}

// clampCursor forces the cursor back into the visible range. An empty
// projection pins it at zero.
func (a *App) clampCursor() {
	if len(a.visible) == 0 {
		a.cursor = 0
		return
	}
	if a.cursor > len(a.visible)-1 {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}
