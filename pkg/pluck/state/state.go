// Package state owns the interactive browsing model: the scanned tree,
// the expansion and selection sets, the live search query, and the
// visible projection derived from them.
//
// An App is single-owner state. The TUI event loop applies one change
// at a time and re-reads the projection afterwards; rescans happen off
// the loop and land through Reroot or Refresh. None of the methods are
// safe for concurrent use.
//
// Basic usage:
//
//	tr, err := tree.NewBuilder().Build(ctx, root, cfg)
//	if err != nil {
//	    return err
//	}
//	app := state.New(tr, state.Options{Ignore: cfg})
//	app.SetQuery("handler")
//	for _, row := range app.VisibleRows() {
//	    fmt.Println(row.Entry.Name)
//	}
package state

import (
	"sort"

	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
	"github.com/pluck-sh/pluck/pkg/pluck/logging"
	"github.com/pluck-sh/pluck/pkg/pluck/output"
	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// Options seeds a new App.
type Options struct {
	// Ignore is the filter configuration the tree was built with.
	Ignore ignore.Config

	// MaxSelected caps the selection set. Zero or negative means
	// DefaultMaxSelected.
	MaxSelected int

	// Format is the output format to start with. Empty means XML.
	Format output.Format

	// LineNumbers turns on line-number prefixes in rendered content.
	LineNumbers bool
}

// App holds the complete browsing state for one session.
type App struct {
	initialRoot string
	root        string
	tr          *tree.Tree

	expanded map[string]bool
	selected map[string]bool
	query    string

	visible []*tree.Entry
	cursor  int

	maxSelected int
	icfg        ignore.Config
	format      output.Format
	lineNumbers bool

	log *logging.Logger
}

// Row is one visible line handed to the rendering layer.
type Row struct {
	Entry    *tree.Entry
	Expanded bool
	Selected bool
	Cursor   bool
}

// New creates an App around an already scanned tree.
func New(tr *tree.Tree, opts Options) *App {
	if opts.MaxSelected <= 0 {
		opts.MaxSelected = DefaultMaxSelected
	}
	if opts.Format == "" {
		opts.Format = output.FormatXML
	}
	a := &App{
		initialRoot: tr.Root,
		root:        tr.Root,
		tr:          tr,
		expanded:    make(map[string]bool),
		selected:    make(map[string]bool),
		maxSelected: opts.MaxSelected,
		icfg:        opts.Ignore,
		format:      opts.Format,
		lineNumbers: opts.LineNumbers,
		log:         logging.Get("state"),
	}
	a.recompute()
	return a
}

// Reroot installs a tree scanned from a different root. The query
// clears and the cursor returns to the top; the selection and expansion
// sets carry over so a later return finds them intact.
func (a *App) Reroot(tr *tree.Tree) {
	a.tr = tr
	a.root = tr.Root
	a.query = ""
	a.recompute()
	a.cursor = 0
	a.log.Debug("re-rooted", "root", a.root, "entries", tr.Len())
}

// Refresh installs a tree rescanned from the current root, keeping the
// query and putting the cursor back on the entry it was on when that
// entry survived the rescan.
func (a *App) Refresh(tr *tree.Tree) {
	keep := a.cursorPath()
	a.tr = tr
	a.root = tr.Root
	a.recompute()
	a.moveCursorTo(keep)
}

// ApplyIgnore swaps in a filter configuration together with the tree
// rescanned under it. Selected paths the new tree no longer contains
// are dropped.
func (a *App) ApplyIgnore(cfg ignore.Config, tr *tree.Tree) {
	a.icfg = cfg
	a.Refresh(tr)
	a.pruneSelection()
	a.log.Debug("filters applied",
		"defaults", cfg.UseDefaults,
		"gitignore", cfg.UseGitignore,
		"patterns", len(cfg.Patterns),
		"selected", len(a.selected))
}

// VisibleRows returns the current projection as render rows.
func (a *App) VisibleRows() []Row {
	rows := make([]Row, len(a.visible))
	for i, e := range a.visible {
		rows[i] = Row{
			Entry:    e,
			Expanded: e.Kind == tree.KindDir && a.expanded[e.Path],
			Selected: a.selected[e.Path],
			Cursor:   i == a.cursor,
		}
	}
	return rows
}

// VisibleLen returns the number of visible rows.
func (a *App) VisibleLen() int { return len(a.visible) }

// Root returns the current scan root.
func (a *App) Root() string { return a.root }

// InitialRoot returns the root the session started at.
func (a *App) InitialRoot() string { return a.initialRoot }

// Tree returns the current tree.
func (a *App) Tree() *tree.Tree { return a.tr }

// Query returns the live search query, empty when not filtering.
func (a *App) Query() string { return a.query }

// Cursor returns the cursor position within the visible rows.
func (a *App) Cursor() int { return a.cursor }

// Ignore returns the filter configuration in effect.
func (a *App) Ignore() ignore.Config { return a.icfg }

// MaxSelected returns the selection cap.
func (a *App) MaxSelected() int { return a.maxSelected }

// Format returns the output format in effect.
func (a *App) Format() output.Format { return a.format }

// SetFormat replaces the output format.
func (a *App) SetFormat(f output.Format) { a.format = f }

// CycleFormat advances to the next output format.
func (a *App) CycleFormat() { a.format = a.format.Next() }

// LineNumbers reports whether rendered content carries line-number
// prefixes.
func (a *App) LineNumbers() bool { return a.lineNumbers }

// ToggleLineNumbers flips the line-number setting.
func (a *App) ToggleLineNumbers() { a.lineNumbers = !a.lineNumbers }

// Snapshot is the portable browsing state for one root, used by
// session persistence.
type Snapshot struct {
	Expanded    []string
	Selected    []string
	Query       string
	Cursor      int
	Format      string
	LineNumbers bool
}

// Snapshot captures the current browsing state in a stable order.
func (a *App) Snapshot() Snapshot {
	expanded := make([]string, 0, len(a.expanded))
	for p := range a.expanded {
		expanded = append(expanded, p)
	}
	sort.Strings(expanded)

	selected := make([]string, 0, len(a.selected))
	for p := range a.selected {
		selected = append(selected, p)
	}
	sort.Strings(selected)

	return Snapshot{
		Expanded:    expanded,
		Selected:    selected,
		Query:       a.query,
		Cursor:      a.cursor,
		Format:      string(a.format),
		LineNumbers: a.lineNumbers,
	}
}

// Restore applies a saved snapshot on top of the current tree. Paths
// that no longer resolve are dropped, and restored selections stop at
// the cap.
func (a *App) Restore(s Snapshot) {
	a.expanded = make(map[string]bool)
	for _, p := range s.Expanded {
		if e, ok := a.tr.Lookup(p); ok && e.Kind == tree.KindDir {
			a.expanded[p] = true
		}
	}

	a.selected = make(map[string]bool)
	for _, p := range s.Selected {
		if len(a.selected) >= a.maxSelected {
			break
		}
		if a.tr.Contains(p) {
			a.selected[p] = true
		}
	}

	if f, err := output.ParseFormat(s.Format); err == nil {
		a.format = f
	}
	a.lineNumbers = s.LineNumbers

	a.query = s.Query
	a.recompute()
	a.cursor = s.Cursor
	a.clampCursor()
	a.log.Debug("session restored",
		"expanded", len(a.expanded),
		"selected", len(a.selected),
		"query", a.query)
}
