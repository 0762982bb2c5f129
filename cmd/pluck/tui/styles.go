// Package tui provides the interactive file picker for pluck. It uses
// Charmbracelet's Bubble Tea, Lip Gloss, and Bubbles for the terminal UI.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette. Dark-terminal first; lipgloss degrades gracefully on light
// profiles.
var (
	brandColor    = lipgloss.Color("#3FB6A8")
	dirColor      = lipgloss.Color("#58A6FF")
	okColor       = lipgloss.Color("#3FB950")
	warnColor     = lipgloss.Color("#D29922")
	errColor      = lipgloss.Color("#F85149")
	fileColor     = lipgloss.Color("#C9D1D9")
	faintColor    = lipgloss.Color("#8B949E")
	lineColor     = lipgloss.Color("#30363D")
	cursorBgColor = lipgloss.Color("#1F2A3A")
)

// Chrome styles shared across views.
var (
	appTitleStyle  = lipgloss.NewStyle().Foreground(brandColor).Bold(true)
	faintTextStyle = lipgloss.NewStyle().Foreground(faintColor)
	okTextStyle    = lipgloss.NewStyle().Foreground(okColor)
	warnTextStyle  = lipgloss.NewStyle().Foreground(warnColor)
	errTextStyle   = lipgloss.NewStyle().Foreground(errColor)
	ruleStyle      = lipgloss.NewStyle().Foreground(lineColor)

	labelStyle = lipgloss.NewStyle().Foreground(faintColor)
	valueStyle = lipgloss.NewStyle().Foreground(fileColor).Bold(true)

	hintKeyStyle  = lipgloss.NewStyle().Foreground(brandColor).Bold(true)
	hintDescStyle = lipgloss.NewStyle().Foreground(faintColor)
)

// Browser row styles.
var (
	cursorRowStyle = lipgloss.NewStyle().Background(cursorBgColor).Bold(true)

	normalRowStyle   = lipgloss.NewStyle().Foreground(fileColor)
	dirNameStyle     = lipgloss.NewStyle().Foreground(dirColor).Bold(true)
	symlinkNameStyle = lipgloss.NewStyle().Foreground(faintColor).Italic(true)

	selectedMarkStyle   = lipgloss.NewStyle().Foreground(okColor).Bold(true)
	unselectedMarkStyle = lipgloss.NewStyle().Foreground(lineColor)

	sizeStyle       = lipgloss.NewStyle().Foreground(faintColor)
	matchCountStyle = lipgloss.NewStyle().Foreground(warnColor)
)

// Help overlay styles.
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brandColor).
			Padding(1, 3)

	helpTitleStyle = lipgloss.NewStyle().Foreground(brandColor).Bold(true)
)

// renderDivider draws a horizontal rule across the given width.
func renderDivider(width int) string {
	return ruleStyle.Render(repeatChar('─', width))
}

func repeatChar(char rune, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(char), n)
}

// truncatePath shortens a path to maxLen, keeping the tail since the
// leaf directories carry the information.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	keep := maxLen - 3
	return "..." + path[len(path)-keep:]
}

// truncateName shortens a basename to maxLen, keeping the head.
func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	if maxLen <= 1 {
		return name[:maxLen]
	}
	return name[:maxLen-1] + "…"
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return fmt.Sprintf("%*s", width, s)
}

func center(s string, width int) string {
	gap := width - len(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
