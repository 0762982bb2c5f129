package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pluck-sh/pluck/pkg/pluck/state"
	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// browserHeight returns how many tree rows fit between the header and
// footer chrome.
func (m Model) browserHeight() int {
	h := m.height - 8
	if m.status != "" {
		h--
	}
	if h < 3 {
		h = 3
	}
	return h
}

// clampOffset scrolls the visible window so the cursor stays on screen.
func (m Model) clampOffset() Model {
	height := m.browserHeight()
	cursor := m.app.Cursor()

	if cursor < m.offset {
		m.offset = cursor
	}
	if cursor >= m.offset+height {
		m.offset = cursor - height + 1
	}

	maxOffset := m.app.VisibleLen() - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
	return m
}

// renderBrowser renders the visible slice of the tree.
func renderBrowser(m Model) string {
	rows := m.app.VisibleRows()
	height := m.browserHeight()

	if len(rows) == 0 {
		var msg string
		if m.app.Searching() {
			msg = fmt.Sprintf("no matches for %q", m.app.Query())
		} else {
			msg = "empty directory"
		}
		lines := make([]string, height)
		lines[height/2] = faintTextStyle.Render(center(msg, m.width))
		return strings.Join(lines, "\n")
	}

	end := m.offset + height
	if end > len(rows) {
		end = len(rows)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		b.WriteString(renderRow(rows[i], m.width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	for i := end - m.offset; i < height; i++ {
		b.WriteString("\n")
	}

	if len(rows) > height {
		b.WriteString("\n")
		b.WriteString(faintTextStyle.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(rows))))
	}

	return b.String()
}

// renderRow renders a single tree row.
func renderRow(row state.Row, width int) string {
	e := row.Entry

	mark := unselectedMarkStyle.Render("○")
	if row.Selected {
		mark = selectedMarkStyle.Render("●")
	}

	indent := repeatChar(' ', e.Depth*2)

	// Clip the basename so the size column survives deep nesting.
	avail := width - len(indent) - 19
	if avail < 8 {
		avail = 8
	}
	base := truncateName(e.Name, avail)

	var icon, name string
	switch e.Kind {
	case tree.KindDir:
		if row.Expanded {
			icon = "▾ "
		} else {
			icon = "▸ "
		}
		name = dirNameStyle.Render(base + "/")
	case tree.KindSymlink:
		icon = "  "
		name = symlinkNameStyle.Render(base + "@")
	default:
		icon = "  "
		name = normalRowStyle.Render(base)
	}

	var size string
	if e.Kind == tree.KindFile {
		size = sizeStyle.Render(humanize.IBytes(uint64(e.Size)))
	}

	left := " " + mark + " " + indent + icon + name
	gap := width - lipgloss.Width(left) - lipgloss.Width(size) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + repeatChar(' ', gap) + size

	if row.Cursor {
		return cursorRowStyle.Render(line)
	}
	return line
}
