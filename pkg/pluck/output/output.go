// Package output renders a selection of files and directories into
// copy-ready text: XML-style tags, Markdown code fences, a JSON
// document, or an annotated analysis aimed at language models.
//
// The package uses a registry pattern so formats can be selected at
// runtime by name. File contents are read at render time, never
// earlier; unreadable files become per-file error markers and
// rendering continues.
//
// Basic usage:
//
//	req := &output.Request{
//	    Root:   root,
//	    Items:  items,
//	    Format: output.FormatMarkdown,
//	}
//	text, summary, err := output.Render(req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (%d files, %d lines)\n", text, summary.Files, summary.Lines)
package output

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// Format names a registered output format.
type Format string

// The built-in output formats, in cycling order.
const (
	FormatXML      Format = "xml"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatLLM      Format = "llm"
)

// ErrUnknownFormat is returned when a format name does not resolve.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns the built-in formats in cycling order.
func Formats() []Format {
	return []Format{FormatXML, FormatMarkdown, FormatJSON, FormatLLM}
}

// ParseFormat resolves a format name, accepting the usual aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xml":
		return FormatXML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "llm":
		return FormatLLM, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// Next returns the format that follows f in cycling order.
func (f Format) Next() Format {
	formats := Formats()
	for i, cur := range formats {
		if cur == f {
			return formats[(i+1)%len(formats)]
		}
	}
	return formats[0]
}

// Item is one selected entry handed to a formatter.
type Item struct {
	// Path is the absolute path of the entry.
	Path string

	// Dir marks directories.
	Dir bool

	// Symlink marks symbolic links; their targets are never read.
	Symlink bool

	// Binary marks files whose extension identifies binary content.
	// Content is still sniffed at render time either way.
	Binary bool

	// Size is the file size in bytes, used for binary descriptors.
	Size int64
}

// Request carries everything a formatter needs to render a selection.
type Request struct {
	// Root is the scan root; rendered paths are relative to it.
	Root string

	// Items are the selected entries in canonical tree order:
	// directories before files per directory, sorted by lowercased
	// name. Render re-sorts defensively.
	Items []Item

	// Format selects the formatter Render uses.
	Format Format

	// LineNumbers prefixes content lines with right-aligned numbers.
	// The JSON format always carries raw content.
	LineNumbers bool

	// IncludeBinary switches binary placeholders to descriptors that
	// carry size and type.
	IncludeBinary bool
}

// Summary describes one finished render.
type Summary struct {
	// Files is the number of files and symlinks rendered.
	Files int

	// Folders is the number of directories rendered.
	Folders int

	// Lines is the line count of the rendered text.
	Lines int

	// Bytes is the byte length of the rendered text.
	Bytes int

	// Tokens is an estimated token count for the rendered text. Render
	// leaves it zero; callers that count tokens fill it in afterwards.
	Tokens int

	// Format is the format that produced the text.
	Format Format
}

// Formatter is the interface all output formatters implement.
type Formatter interface {
	// Format writes the rendered selection to the buffer.
	Format(w *bytes.Buffer, req *Request) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry. It replaces any
// existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Render formats the request with its selected format and returns the
// rendered text together with a summary of what was produced.
func Render(req *Request) ([]byte, Summary, error) {
	formatter, err := Get(string(req.Format))
	if err != nil {
		return nil, Summary{}, err
	}

	sorted := *req
	sorted.Items = append([]Item(nil), req.Items...)
	sortItems(sorted.Root, sorted.Items)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, &sorted); err != nil {
		return nil, Summary{}, fmt.Errorf("rendering %s output: %w", req.Format, err)
	}

	sum := Summary{Bytes: buf.Len(), Format: req.Format}
	for _, it := range sorted.Items {
		if it.Dir {
			sum.Folders++
		} else {
			sum.Files++
		}
	}
	sum.Lines = countLines(buf.String())
	return buf.Bytes(), sum, nil
}

// sortItems orders items canonically: walking path components from the
// root, directories sort before files per directory and siblings sort
// by lowercased name with a case-sensitive tiebreak.
func sortItems(root string, items []Item) {
	rels := make(map[string][]string, len(items))
	for _, it := range items {
		rels[it.Path] = strings.Split(relPath(root, it.Path), "/")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return lessComponents(rels[items[i].Path], items[i].Dir, rels[items[j].Path], items[j].Dir)
	})
}

func lessComponents(a []string, aDir bool, b []string, bDir bool) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		// Every component before the last names a directory.
		aIsDir := i < len(a)-1 || aDir
		bIsDir := i < len(b)-1 || bDir
		return tree.SiblingLess(a[i], aIsDir, b[i], bIsDir)
	}
	return len(a) < len(b)
}

// relPath returns the slash-separated path of target relative to root,
// falling back to the absolute path for targets outside it.
func relPath(root, target string) string {
	rel, err := filepath.Rel(root, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// countLines counts lines the way a pager would: a trailing newline
// does not open a final empty line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// renderSet indexes a request for nested emission: which selected
// entries sit at the top level and which are children of a selected
// directory. Order within each bucket follows the request order.
type renderSet struct {
	req      *Request
	top      []*Item
	children map[string][]*Item
}

func newRenderSet(req *Request) *renderSet {
	member := make(map[string]bool, len(req.Items))
	for i := range req.Items {
		member[req.Items[i].Path] = true
	}
	rs := &renderSet{
		req:      req,
		children: make(map[string][]*Item),
	}
	for i := range req.Items {
		it := &req.Items[i]
		parent := filepath.Dir(it.Path)
		if member[parent] {
			rs.children[parent] = append(rs.children[parent], it)
		} else {
			rs.top = append(rs.top, it)
		}
	}
	return rs
}

// rel returns the display path for one item.
func (rs *renderSet) rel(it *Item) string {
	return relPath(rs.req.Root, it.Path)
}
