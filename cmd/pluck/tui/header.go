package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pluck-sh/pluck/pkg/pluck/version"
)

// renderAppHeader renders the application title bar with the current root.
func renderAppHeader(m Model, width int) string {
	title := appTitleStyle.Render("pluck") + " " + faintTextStyle.Render("v"+version.Version)

	root := truncatePath(m.app.Root(), width-lipgloss.Width(title)-6)
	rootPart := faintTextStyle.Render(root)

	var live string
	if m.watcher != nil {
		live = " " + okTextStyle.Render("●")
	}

	return title + "  " + rootPart + live
}

// renderStats renders the selection and output settings line.
func renderStats(m Model) string {
	var parts []string

	count := m.app.SelectionCount()
	countValue := fmt.Sprintf("%d/%d", count, m.app.MaxSelected())
	if count > 0 {
		parts = append(parts, labelStyle.Render("selected ")+okTextStyle.Render(countValue))
	} else {
		parts = append(parts, labelStyle.Render("selected ")+valueStyle.Render(countValue))
	}

	var size int64
	for _, e := range m.app.SelectedEntries() {
		size += e.Size
	}
	if size > 0 {
		parts = append(parts, labelStyle.Render("size ")+valueStyle.Render(humanize.IBytes(uint64(size))))
	}

	parts = append(parts, labelStyle.Render("format ")+valueStyle.Render(string(m.app.Format())))

	if m.app.LineNumbers() {
		parts = append(parts, valueStyle.Render("ln"))
	}

	ign := m.app.Ignore()
	var flags []string
	if !ign.UseDefaults {
		flags = append(flags, "+hidden")
	}
	if !ign.UseGitignore {
		flags = append(flags, "-git")
	}
	if ign.IncludeBinary {
		flags = append(flags, "+bin")
	}
	if len(flags) > 0 {
		parts = append(parts, warnTextStyle.Render(strings.Join(flags, " ")))
	}

	return strings.Join(parts, labelStyle.Render("  │  "))
}

// renderSearchBar renders the filter input line.
func renderSearchBar(m Model) string {
	if m.searchFocused {
		return hintKeyStyle.Render("/") + " " + m.search.View()
	}
	if q := m.app.Query(); q != "" {
		return hintKeyStyle.Render("/") + " " + valueStyle.Render(q) +
			"  " + matchCountStyle.Render(fmt.Sprintf("%d match(es)", len(m.app.VisibleRows())))
	}
	return faintTextStyle.Render("press / to filter")
}

// renderStatus renders the transient status line, if any.
func renderStatus(m Model) string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errTextStyle.Render(m.status)
	}
	return okTextStyle.Render(m.status)
}

// renderKeyHints renders the bottom key hint bar.
func renderKeyHints(m Model) string {
	type hint struct {
		key  string
		desc string
	}

	var hints []hint
	if m.searchFocused {
		hints = []hint{
			{"enter", "apply"},
			{"esc", "clear"},
		}
	} else {
		hints = []hint{
			{"↑/↓", "move"},
			{"space", "select"},
			{"enter", "open"},
			{"/", "filter"},
			{"c", "copy"},
			{"s", "save"},
			{"?", "help"},
			{"q", "quit"},
		}
	}

	var parts []string
	for _, h := range hints {
		parts = append(parts, hintKeyStyle.Render(h.key)+" "+hintDescStyle.Render(h.desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}

// renderHelpOverlay renders the full key reference shown on '?'.
func renderHelpOverlay(m Model) string {
	rows := []struct {
		key  string
		desc string
	}{
		{"↑/k  ↓/j", "move cursor"},
		{"pgup/pgdn", "move by page"},
		{"home/end", "jump to first/last"},
		{"tab/l", "expand or collapse directory"},
		{"enter", "descend into directory"},
		{"backspace/h", "go to parent directory"},
		{"space", "toggle selection"},
		{"a", "toggle all visible"},
		{"/", "filter by name"},
		{"esc", "clear filter / quit"},
		{"f", "cycle output format"},
		{"n", "toggle line numbers"},
		{"b", "toggle binary files"},
		{"i", "toggle default ignores"},
		{"g", "toggle gitignore"},
		{"c", "copy selection to clipboard"},
		{"s", "save selection to file"},
		{"?", "close this help"},
		{"q/ctrl+c", "quit"},
	}

	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(hintKeyStyle.Render(padLeft(r.key, 12)))
		b.WriteString("  ")
		b.WriteString(hintDescStyle.Render(r.desc))
		b.WriteString("\n")
	}

	box := helpBoxStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
