package tui

import (
	"strings"
	"testing"
)

func TestViewShowsTree(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, Options{})

	view := m.View()
	for _, want := range []string{"pluck", "docs/", "src/", "README.md"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewShowsSelectionCount(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, Options{})

	m = press(t, m, "end", " ")
	if view := m.View(); !strings.Contains(view, "1/400") {
		t.Error("view missing selection count")
	}
}

func TestViewShowsFilterState(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, Options{})

	m = press(t, m, "/", "guide", "enter")
	view := m.View()
	if !strings.Contains(view, "guide") {
		t.Error("view missing active filter")
	}
	if strings.Contains(view, "README.md") {
		t.Error("view shows rows the filter excludes")
	}
}

func TestRowMarkers(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, Options{})
	m = press(t, m, "end", " ")

	rows := m.app.VisibleRows()

	dir := renderRow(rows[0], 60)
	if !strings.Contains(dir, "▸") {
		t.Error("collapsed directory row missing marker")
	}

	selected := renderRow(rows[2], 60)
	if !strings.Contains(selected, "●") {
		t.Error("selected row missing marker")
	}
	unselected := renderRow(rows[1], 60)
	if !strings.Contains(unselected, "○") {
		t.Error("unselected row missing marker")
	}
}

func TestScrollFollowsCursor(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, Options{})
	m.height = 11 // three browser rows

	// Expand both directories for six visible rows.
	m = press(t, m, "tab", "down", "down", "tab")
	if got := m.app.VisibleLen(); got != 6 {
		t.Fatalf("visible rows = %d, want 6", got)
	}

	m = press(t, m, "end")
	if m.offset != 3 {
		t.Errorf("offset at end = %d, want 3", m.offset)
	}

	m = press(t, m, "home")
	if m.offset != 0 {
		t.Errorf("offset at home = %d, want 0", m.offset)
	}
}

func TestEmptyFilterMessage(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, Options{})

	m = press(t, m, "/", "zzz")
	if got := m.app.VisibleLen(); got != 0 {
		t.Fatalf("visible rows = %d, want 0", got)
	}
	if view := m.View(); !strings.Contains(view, "no matches") {
		t.Error("view missing empty-filter message")
	}
}

func TestTruncatePath(t *testing.T) {
	if got := truncatePath("/short", 20); got != "/short" {
		t.Errorf("truncatePath short = %q", got)
	}
	got := truncatePath("/very/long/path/to/some/file", 15)
	if len(got) != 15 || !strings.HasPrefix(got, "...") {
		t.Errorf("truncatePath long = %q", got)
	}
	if !strings.HasSuffix(got, "file") {
		t.Errorf("truncatePath lost the tail: %q", got)
	}
}

func TestPadLeftAndCenter(t *testing.T) {
	if got := padLeft("ab", 5); got != "   ab" {
		t.Errorf("padLeft = %q", got)
	}
	if got := center("ab", 6); got != "  ab  " {
		t.Errorf("center = %q", got)
	}
	if got := center("abcdef", 3); got != "abcdef" {
		t.Errorf("center overflow = %q", got)
	}
}
