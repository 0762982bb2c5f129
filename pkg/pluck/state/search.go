package state

import (
	"strings"

	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// SetQuery replaces the live filter and recomputes the projection. The
// cursor returns to the top of the filtered list, including when the
// query is cleared.
func (a *App) SetQuery(q string) {
	a.query = q
	a.recompute()
	a.cursor = 0
}

// ClearQuery drops the filter. Expansions forced while searching stay
// in place, so previously revealed matches remain reachable.
func (a *App) ClearQuery() {
	a.SetQuery("")
}

// Searching reports whether a filter query is active.
func (a *App) Searching() bool { return a.query != "" }

// recompute rebuilds the visible projection from the tree, the
// expansion set, and the query. It leaves the cursor clamped but
// otherwise untouched; callers decide whether the cursor resets or
// follows an entry.
func (a *App) recompute() {
	a.visible = a.visible[:0]
	if a.tr == nil || a.tr.Len() == 0 {
		a.cursor = 0
		return
	}

	var keep []bool
	if a.query != "" {
		keep = a.matchSet()
	}

	// hideBelow marks the depth of a directory whose subtree is hidden,
	// either collapsed or filtered out. -1 means nothing is hidden.
	hideBelow := -1
	for i := 0; i < a.tr.Len(); i++ {
		e := a.tr.At(i)
		if hideBelow >= 0 {
			if e.Depth > hideBelow {
				continue
			}
			hideBelow = -1
		}
		if keep != nil && !keep[i] {
			if e.Kind == tree.KindDir {
				hideBelow = e.Depth
			}
			continue
		}
		a.visible = append(a.visible, e)
		if e.Kind == tree.KindDir && !a.expanded[e.Path] {
			hideBelow = e.Depth
		}
	}
	a.clampCursor()
}

// matchSet flags every entry whose base name contains the query,
// case-insensitively, plus the ancestor chain of each match. Ancestors
// are force-added to the expansion set so matches are reachable; the
// forcing persists after the query clears.
func (a *App) matchSet() []bool {
	q := strings.ToLower(a.query)
	keep := make([]bool, a.tr.Len())
	for i := 0; i < a.tr.Len(); i++ {
		e := a.tr.At(i)
		if !strings.Contains(strings.ToLower(e.Name), q) {
			continue
		}
		keep[i] = true
		for parent := e.Parent; parent != ""; {
			j := a.tr.Position(parent)
			if j < 0 {
				break
			}
			if keep[j] && a.expanded[parent] {
				// The rest of the chain was handled by an
				// earlier match.
				break
			}
			keep[j] = true
			a.expanded[parent] = true
			parent = a.tr.At(j).Parent
		}
	}
	return keep
}
