package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/pluck-sh/pluck/pkg/pluck/clipboard"
	"github.com/pluck-sh/pluck/pkg/pluck/config"
	"github.com/pluck-sh/pluck/pkg/pluck/history"
	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
	"github.com/pluck-sh/pluck/pkg/pluck/output"
	"github.com/pluck-sh/pluck/pkg/pluck/state"
	"github.com/pluck-sh/pluck/pkg/pluck/tokens"
	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// runBatch renders a glob-selected bundle without the TUI.
func runBatch(root string, cfg *config.Config, icfg ignore.Config, format output.Format, maxSelected int) error {
	glob := viper.GetString("files")
	if glob == "" {
		glob = "*"
	}
	if _, err := filepath.Match(glob, "probe"); err != nil {
		return fmt.Errorf("invalid --files glob %q: %w", glob, err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		infof("\nInterrupted, stopping scan...")
		cancel()
	}()

	verbosef("Scanning %s", root)
	tr, err := tree.NewBuilder().Build(ctx, root, icfg)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	items, err := selectByGlob(tr, glob, maxSelected)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		infof("No entries match %q under %s", glob, root)
		return nil
	}

	req := &output.Request{
		Root:          root,
		Items:         items,
		Format:        format,
		LineNumbers:   viper.GetBool("line_numbers"),
		IncludeBinary: icfg.IncludeBinary,
	}
	text, sum, err := output.Render(req)
	if err != nil {
		return fmt.Errorf("failed to render selection: %w", err)
	}

	if viper.GetBool("tokens.enabled") {
		counter := tokens.NewCounter(config.CacheDir())
		sum.Tokens = counter.Count(string(text))
	}

	dest, target, err := deliver(text)
	if err != nil {
		return err
	}

	recordBundle(cfg, history.Record{
		Root:        root,
		Format:      string(sum.Format),
		Destination: dest,
		Target:      target,
		Files:       sum.Files,
		Folders:     sum.Folders,
		Lines:       sum.Lines,
		Bytes:       sum.Bytes,
		Tokens:      sum.Tokens,
	})

	printSummary(sum, dest, target)
	return nil
}

// selectByGlob collects the tree entries whose base name or
// root-relative path matches the glob, directories together with their
// whole subtree. The cap applies to the complete set at once.
func selectByGlob(tr *tree.Tree, glob string, maxSelected int) ([]output.Item, error) {
	if maxSelected <= 0 {
		maxSelected = state.DefaultMaxSelected
	}

	taken := make(map[string]bool, tr.Len())
	var items []output.Item

	add := func(e *tree.Entry) {
		if taken[e.Path] {
			return
		}
		taken[e.Path] = true
		items = append(items, output.Item{
			Path:    e.Path,
			Dir:     e.Kind == tree.KindDir,
			Symlink: e.Kind == tree.KindSymlink,
			Binary:  e.Binary,
			Size:    e.Size,
		})
	}

	for i := 0; i < tr.Len(); i++ {
		e := tr.At(i)
		if !matchesGlob(glob, tr.Root, e) {
			continue
		}
		add(e)
		if e.Kind == tree.KindDir {
			for _, d := range tr.Descendants(e.Path) {
				add(d)
			}
		}
	}

	if len(items) > maxSelected {
		return nil, fmt.Errorf("%w: %d entries match but the cap is %d",
			state.ErrSelectionLimit, len(items), maxSelected)
	}
	return items, nil
}

// matchesGlob checks an entry against the glob by base name and by
// root-relative path.
func matchesGlob(glob, root string, e *tree.Entry) bool {
	if matched, err := filepath.Match(glob, e.Name); err == nil && matched {
		return true
	}
	rel, err := filepath.Rel(root, e.Path)
	if err != nil {
		return false
	}
	if matched, err := filepath.Match(glob, rel); err == nil && matched {
		return true
	}
	return false
}

// deliver writes the rendered bundle to its destination: a file when
// --output is set, stdout when --stdout is set, the clipboard otherwise.
func deliver(text []byte) (history.Destination, string, error) {
	if target := viper.GetString("output"); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", "", fmt.Errorf("failed to expand output path: %w", err)
		}
		if err := os.WriteFile(expanded, text, 0o644); err != nil {
			return "", "", fmt.Errorf("failed to write %s: %w", expanded, err)
		}
		return history.DestFile, expanded, nil
	}

	if viper.GetBool("use_stdout") {
		fmt.Print(string(text))
		return history.DestStdout, "", nil
	}

	if err := clipboard.NewSystem().Copy(string(text)); err != nil {
		return "", "", fmt.Errorf("failed to copy to clipboard: %w (use --stdout or --output)", err)
	}
	return history.DestClipboard, "", nil
}

// recordBundle appends a history record, best effort.
func recordBundle(cfg *config.Config, rec history.Record) {
	if !cfg.History.Enabled {
		return
	}
	log, err := history.New(cfg.HistoryDir())
	if err != nil {
		verbosef("History log unavailable: %v", err)
		return
	}
	if err := log.EnsureDir(); err != nil {
		verbosef("Failed to create history directory: %v", err)
		return
	}
	if _, err := log.Append(rec); err != nil {
		verbosef("Failed to record bundle: %v", err)
	}
}

// printSummary reports what was rendered and where it went. Stdout
// bundles keep the summary off stdout so piping stays clean.
func printSummary(sum output.Summary, dest history.Destination, target string) {
	where := string(dest)
	if dest == history.DestFile {
		where = target
	}

	line := fmt.Sprintf("Bundled %d files, %d folders (%s, %d lines) as %s",
		sum.Files, sum.Folders, humanize.IBytes(uint64(sum.Bytes)), sum.Lines, sum.Format)
	if sum.Tokens > 0 {
		line += fmt.Sprintf(", ~%s tokens", humanize.Comma(int64(sum.Tokens)))
	}
	line += " -> " + where

	if dest == history.DestStdout {
		if verboseOn() {
			fmt.Fprintln(os.Stderr, line)
		}
		return
	}
	infof("%s", strings.TrimSpace(line))
}
