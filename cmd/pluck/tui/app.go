package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pluck-sh/pluck/pkg/pluck/clipboard"
	"github.com/pluck-sh/pluck/pkg/pluck/config"
	"github.com/pluck-sh/pluck/pkg/pluck/history"
	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
	"github.com/pluck-sh/pluck/pkg/pluck/logging"
	"github.com/pluck-sh/pluck/pkg/pluck/output"
	"github.com/pluck-sh/pluck/pkg/pluck/session"
	"github.com/pluck-sh/pluck/pkg/pluck/state"
	"github.com/pluck-sh/pluck/pkg/pluck/tokens"
	"github.com/pluck-sh/pluck/pkg/pluck/tree"
	"github.com/pluck-sh/pluck/pkg/pluck/watch"
)

// AppState represents the current state of the application.
type AppState int

const (
	StateScanning AppState = iota
	StateBrowsing
)

// Options configures the TUI application.
type Options struct {
	Root        string
	Ignore      ignore.Config
	Format      output.Format
	LineNumbers bool
	MaxSelected int

	// OutputPath, when set, is where 's' saves the bundle. Empty means
	// a timestamped file in the working directory.
	OutputPath string

	Copier  clipboard.Copier
	Counter tokens.Counter

	// Sessions, when set, restores browsing state on start and saves
	// it on quit.
	Sessions *session.Store

	// History, when set, records every copied or saved bundle.
	History *history.Log

	// WatchDebounce enables filesystem watching when positive.
	WatchDebounce time.Duration
}

// scanKind names why a background scan was requested.
type scanKind int

const (
	scanInitial scanKind = iota
	scanReroot
	scanRefresh
	scanFilters
)

// treeMsg delivers a finished background scan. Seq pairs it with the
// request; stale results are dropped.
type treeMsg struct {
	seq  int
	kind scanKind
	tr   *tree.Tree
	icfg ignore.Config
	err  error
}

// watchMsg signals a debounced filesystem change under the watched
// root.
type watchMsg struct{}

// watchFilter adapts the current ignore rules to the watcher's skip
// callback. The watcher calls skip from its own goroutine, so the
// matcher swap is guarded.
type watchFilter struct {
	mu sync.Mutex
	m  *ignore.Matcher
}

func (f *watchFilter) set(root string, cfg ignore.Config) {
	f.mu.Lock()
	f.m = ignore.NewMatcher(root, cfg)
	f.mu.Unlock()
}

func (f *watchFilter) skip(path string) bool {
	f.mu.Lock()
	m := f.m
	f.mu.Unlock()
	if m == nil {
		return false
	}
	return m.Ignored(path, true)
}

// Model is the main Bubble Tea model for the pluck TUI.
type Model struct {
	state AppState
	opts  Options

	app *state.App

	spinner spinner.Model
	search  textinput.Model

	searchFocused bool
	showHelp      bool

	// scanSeq numbers scan requests so only the latest result lands.
	scanSeq int

	ctx    context.Context
	cancel context.CancelFunc

	watcher *watch.Watcher
	filter  *watchFilter
	watchCh chan struct{}

	// Window dimensions
	width  int
	height int

	// offset is the first visible row of the browser window.
	offset int

	status    string
	statusErr bool

	quitting bool
	closed   bool
	err      error

	log *logging.Logger
}

// NewModel creates a new TUI model with the given options.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(brandColor)

	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = ""
	ti.CharLimit = 128
	ti.Width = 32

	m := Model{
		state:   StateScanning,
		opts:    opts,
		spinner: s,
		search:  ti,
		scanSeq: 1,
		ctx:     ctx,
		cancel:  cancel,
		width:   80,
		height:  24,
		log:     logging.Get("tui"),
	}

	if opts.WatchDebounce > 0 {
		filter := &watchFilter{}
		w, err := watch.New(filter.skip)
		if err != nil {
			m.log.Warn("file watching unavailable", "error", err)
		} else {
			m.watcher = w
			m.filter = filter
			m.watchCh = make(chan struct{}, 1)
			ch := m.watchCh
			go w.Run(ctx, opts.WatchDebounce, func() {
				select {
				case ch <- struct{}{}:
				default:
				}
			})
		}
	}

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.scanCmd(m.opts.Root, m.opts.Ignore, scanInitial, m.scanSeq),
		m.listenForChanges(),
	)
}

// scanCmd walks a root in the background and reports the tree.
func (m Model) scanCmd(root string, cfg ignore.Config, kind scanKind, seq int) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		tr, err := tree.NewBuilder().Build(ctx, root, cfg)
		return treeMsg{seq: seq, kind: kind, tr: tr, icfg: cfg, err: err}
	}
}

// requestScan bumps the request sequence and returns the scan command.
func (m Model) requestScan(root string, cfg ignore.Config, kind scanKind) (Model, tea.Cmd) {
	m.scanSeq++
	return m, m.scanCmd(root, cfg, kind, m.scanSeq)
}

// listenForChanges waits for the next debounced watcher event.
func (m Model) listenForChanges() tea.Cmd {
	if m.watchCh == nil {
		return nil
	}
	ch := m.watchCh
	return func() tea.Msg {
		<-ch
		return watchMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.app != nil {
			m = m.clampOffset()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == StateScanning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case treeMsg:
		return m.handleTree(msg)

	case watchMsg:
		if m.app == nil {
			return m, m.listenForChanges()
		}
		var cmd tea.Cmd
		m, cmd = m.requestScan(m.app.Root(), m.app.Ignore(), scanRefresh)
		return m, tea.Batch(cmd, m.listenForChanges())
	}

	return m, nil
}

// handleTree applies a finished scan to the browsing state.
func (m Model) handleTree(msg treeMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.scanSeq {
		// A newer request is in flight; this result is stale.
		return m, nil
	}

	if msg.err != nil {
		if msg.kind == scanInitial {
			m.err = fmt.Errorf("failed to scan %s: %w", m.opts.Root, msg.err)
			m = m.shutdown()
			m.quitting = true
			return m, tea.Quit
		}
		m.status = fmt.Sprintf("scan failed: %v", msg.err)
		m.statusErr = true
		return m, nil
	}

	switch msg.kind {
	case scanInitial:
		m.app = state.New(msg.tr, state.Options{
			Ignore:      msg.icfg,
			MaxSelected: m.opts.MaxSelected,
			Format:      m.opts.Format,
			LineNumbers: m.opts.LineNumbers,
		})
		m = m.restoreSession()
		if m.watcher != nil {
			m.filter.set(m.app.Root(), msg.icfg)
			if err := m.watcher.Watch(m.app.Root()); err != nil {
				m.log.Warn("failed to watch root", "root", m.app.Root(), "error", err)
			}
		}
		m.state = StateBrowsing

	case scanReroot:
		oldRoot := m.app.Root()
		m.app.Reroot(msg.tr)
		m.search.SetValue("")
		m.offset = 0
		if m.watcher != nil && oldRoot != m.app.Root() {
			m.watcher.Unwatch(oldRoot)
			m.filter.set(m.app.Root(), m.app.Ignore())
			if err := m.watcher.Watch(m.app.Root()); err != nil {
				m.log.Warn("failed to watch root", "root", m.app.Root(), "error", err)
			}
		}

	case scanRefresh:
		m.app.Refresh(msg.tr)

	case scanFilters:
		m.app.ApplyIgnore(msg.icfg, msg.tr)
		if m.watcher != nil {
			m.filter.set(m.app.Root(), msg.icfg)
		}
	}

	m = m.clampOffset()
	return m, nil
}

// restoreSession applies the saved browsing state for the initial root,
// if one exists.
func (m Model) restoreSession() Model {
	if m.opts.Sessions == nil {
		return m
	}
	rec, err := m.opts.Sessions.Load(m.app.InitialRoot())
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			m.log.Debug("session load failed", "error", err)
		}
		return m
	}
	m.app.Restore(rec.Snapshot)
	m.search.SetValue(m.app.Query())
	return m
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	if key == "ctrl+c" {
		m = m.shutdown()
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.state == StateScanning {
		if key == "q" || key == "esc" {
			m = m.shutdown()
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.searchFocused {
		return m.handleSearchKey(msg)
	}

	m.status = ""
	m.statusErr = false

	switch key {
	case "q":
		m = m.shutdown()
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.app.Searching() {
			m.app.ClearQuery()
			m.search.SetValue("")
			m.offset = 0
			return m, nil
		}
		m = m.shutdown()
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		m.app.MovePrev()
		return m.clampOffset(), nil

	case "down", "j":
		m.app.MoveNext()
		return m.clampOffset(), nil

	case "pgup":
		m.app.PageUp()
		return m.clampOffset(), nil

	case "pgdown":
		m.app.PageDown()
		return m.clampOffset(), nil

	case "home":
		m.app.Home()
		return m.clampOffset(), nil

	case "end":
		m.app.End()
		return m.clampOffset(), nil

	case " ":
		if e := m.app.CursorEntry(); e != nil {
			if err := m.app.Toggle(e.Path); err != nil {
				m.status = err.Error()
				m.statusErr = true
			}
		}
		return m, nil

	case "a":
		if err := m.app.ToggleAll(); err != nil {
			m.status = err.Error()
			m.statusErr = true
		}
		return m, nil

	case "tab", "l":
		m.app.ToggleExpand()
		return m.clampOffset(), nil

	case "enter":
		if target, ok := m.app.EnterTarget(); ok {
			return m.requestScan(target, m.app.Ignore(), scanReroot)
		}
		return m, nil

	case "backspace", "h":
		if target, ok := m.app.ParentTarget(); ok {
			return m.requestScan(target, m.app.Ignore(), scanReroot)
		}
		return m, nil

	case "/":
		m.searchFocused = true
		m.search.SetValue(m.app.Query())
		return m, m.search.Focus()

	case "f":
		m.app.CycleFormat()
		return m, nil

	case "n":
		m.app.ToggleLineNumbers()
		return m, nil

	case "b":
		cfg := m.app.Ignore()
		cfg.IncludeBinary = !cfg.IncludeBinary
		// Binary files are always in the tree; only rendering changes.
		m.app.ApplyIgnore(cfg, m.app.Tree())
		return m, nil

	case "i":
		cfg := m.app.Ignore()
		cfg.UseDefaults = !cfg.UseDefaults
		return m.requestScan(m.app.Root(), cfg, scanFilters)

	case "g":
		cfg := m.app.Ignore()
		cfg.UseGitignore = !cfg.UseGitignore
		return m.requestScan(m.app.Root(), cfg, scanFilters)

	case "c":
		return m.doCopy(), nil

	case "s":
		return m.doSave(), nil

	case "?":
		m.showHelp = true
		return m, nil
	}

	return m, nil
}

// handleSearchKey handles input while the filter field is focused.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchFocused = false
		m.search.Blur()
		return m, nil

	case "esc":
		m.searchFocused = false
		m.search.Blur()
		m.search.SetValue("")
		m.app.ClearQuery()
		m.offset = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.app.Query() {
		m.app.SetQuery(q)
		m.offset = 0
	}
	return m, cmd
}

// renderSelection renders the current selection with the active format
// and fills in the token estimate when counting is enabled.
func (m Model) renderSelection() ([]byte, output.Summary, error) {
	entries := m.app.SelectedEntries()
	if len(entries) == 0 {
		return nil, output.Summary{}, errors.New("nothing selected")
	}

	items := make([]output.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, output.Item{
			Path:    e.Path,
			Dir:     e.Kind == tree.KindDir,
			Symlink: e.Kind == tree.KindSymlink,
			Binary:  e.Binary,
			Size:    e.Size,
		})
	}

	req := &output.Request{
		Root:          m.app.Root(),
		Items:         items,
		Format:        m.app.Format(),
		LineNumbers:   m.app.LineNumbers(),
		IncludeBinary: m.app.Ignore().IncludeBinary,
	}

	text, sum, err := output.Render(req)
	if err != nil {
		return nil, sum, err
	}
	if m.opts.Counter != nil {
		sum.Tokens = m.opts.Counter.Count(string(text))
	}
	return text, sum, nil
}

// doCopy renders the selection and places it on the clipboard.
func (m Model) doCopy() Model {
	text, sum, err := m.renderSelection()
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return m
	}

	if m.opts.Copier == nil {
		m.status = "clipboard not available"
		m.statusErr = true
		return m
	}
	if err := m.opts.Copier.Copy(string(text)); err != nil {
		m.status = fmt.Sprintf("copy failed: %v", err)
		m.statusErr = true
		return m
	}

	m.recordBundle(history.DestClipboard, "", sum)
	m.status = fmt.Sprintf("copied %d file(s), %s%s",
		sum.Files, humanize.IBytes(uint64(sum.Bytes)), tokensNote(sum))
	m.statusErr = false
	return m
}

// doSave renders the selection and writes it to the output path.
func (m Model) doSave() Model {
	text, sum, err := m.renderSelection()
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return m
	}

	target := m.opts.OutputPath
	if target == "" {
		target = fmt.Sprintf("pluck-%s.%s",
			time.Now().Format("20060102-150405"), formatExt(m.app.Format()))
	}
	expanded, err := config.ExpandPath(target)
	if err == nil {
		target = expanded
	}

	if err := os.WriteFile(target, text, 0o644); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		m.statusErr = true
		return m
	}

	m.recordBundle(history.DestFile, target, sum)
	m.status = fmt.Sprintf("saved %d file(s) to %s (%s%s)",
		sum.Files, target, humanize.IBytes(uint64(sum.Bytes)), tokensNote(sum))
	m.statusErr = false
	return m
}

// recordBundle appends a history record for a delivered bundle.
func (m Model) recordBundle(dest history.Destination, target string, sum output.Summary) {
	if m.opts.History == nil {
		return
	}

	rec := history.Record{
		Root:        m.app.Root(),
		Format:      string(sum.Format),
		Destination: dest,
		Target:      target,
		Files:       sum.Files,
		Folders:     sum.Folders,
		Lines:       sum.Lines,
		Bytes:       sum.Bytes,
		Tokens:      sum.Tokens,
	}

	if err := m.opts.History.EnsureDir(); err != nil {
		m.log.Warn("failed to prepare history dir", "error", err)
		return
	}
	if _, err := m.opts.History.Append(rec); err != nil {
		m.log.Warn("failed to record bundle", "error", err)
	}
}

// tokensNote formats the optional token estimate suffix.
func tokensNote(sum output.Summary) string {
	if sum.Tokens <= 0 {
		return ""
	}
	return fmt.Sprintf(", ~%s tokens", humanize.Comma(int64(sum.Tokens)))
}

// formatExt maps a format to a file extension for default save names.
func formatExt(f output.Format) string {
	switch f {
	case output.FormatMarkdown:
		return "md"
	case output.FormatJSON:
		return "json"
	case output.FormatLLM:
		return "txt"
	default:
		return "xml"
	}
}

// shutdown saves the session and stops the watcher. Safe to call more
// than once.
func (m Model) shutdown() Model {
	if m.closed {
		return m
	}
	m.closed = true

	if m.opts.Sessions != nil && m.app != nil {
		if err := m.opts.Sessions.Save(m.app.InitialRoot(), m.app.Snapshot()); err != nil {
			m.log.Warn("failed to save session", "error", err)
		}
	}

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			m.log.Debug("watcher close failed", "error", err)
		}
	}
	m.cancel()
	return m
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return renderHelpOverlay(m)
	}

	switch m.state {
	case StateScanning:
		return m.renderScanning()
	case StateBrowsing:
		return m.renderBrowsing()
	}
	return ""
}

// renderScanning renders the initial scan view.
func (m Model) renderScanning() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString("  " + m.spinner.View() + " " + appTitleStyle.Render("Scanning ") +
		faintTextStyle.Render(truncatePath(m.opts.Root, m.width-16)))
	b.WriteString("\n\n")
	b.WriteString("  " + faintTextStyle.Render("press q to cancel"))
	return b.String()
}

// renderBrowsing renders the main browser frame.
func (m Model) renderBrowsing() string {
	sections := []string{
		renderAppHeader(m, m.width),
		renderSearchBar(m),
		renderDivider(m.width),
		renderBrowser(m),
		renderDivider(m.width),
		renderStats(m),
	}
	if s := renderStatus(m); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, renderKeyHints(m))
	return strings.Join(sections, "\n")
}

// Run starts the TUI application and blocks until it exits.
func Run(opts Options) error {
	model := NewModel(opts)

	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if fm, ok := finalModel.(Model); ok {
		fm = fm.shutdown()
		return fm.err
	}
	return nil
}
