// Package tree discovers a filesystem subtree and holds it as a flat,
// canonically ordered entry list.
package tree

import "strings"

// Kind tags an entry's filesystem type.
type Kind uint8

// Entry kinds. Symlinks are recorded as themselves and never followed.
const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is one discovered filesystem node.
type Entry struct {
	// Path is the absolute path, the unique key within a scan.
	Path string

	// Name is the display name (base name).
	Name string

	// Kind tags the node type.
	Kind Kind

	// Depth is the nesting level relative to the scan root. Direct
	// children of the root have depth 0.
	Depth int

	// Parent is the containing directory's path, empty at depth 0.
	Parent string

	// Size is the file size in bytes. Zero for directories and
	// symlinks.
	Size int64

	// Binary marks files whose extension flags binary content. The
	// render path additionally sniffs file bytes.
	Binary bool
}

// Issue records a path skipped during the walk, typically for
// permission errors. The subtree below it is treated as empty.
type Issue struct {
	Path string
	Err  error
}

// Tree is the ordered entry list under one root. Within each directory
// subdirectories precede files and both groups sort by name,
// case-insensitively with a case-sensitive tiebreak. This order is the
// canonical traversal order for display and output and is stable
// across identical inputs.
type Tree struct {
	// Root is the absolute scan root. The root itself is not an entry.
	Root string

	// Entries is the canonical depth-first sequence.
	Entries []Entry

	index  map[string]int
	issues []Issue
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.Entries)
}

// At returns the entry at position i.
func (t *Tree) At(i int) *Entry {
	return &t.Entries[i]
}

// Lookup returns the entry for path and whether it exists.
func (t *Tree) Lookup(path string) (*Entry, bool) {
	if i, ok := t.index[path]; ok {
		return &t.Entries[i], true
	}
	return nil, false
}

// Contains reports whether path is present in the tree.
func (t *Tree) Contains(path string) bool {
	_, ok := t.index[path]
	return ok
}

// Position returns the canonical index of path, or -1 when absent.
func (t *Tree) Position(path string) int {
	if i, ok := t.index[path]; ok {
		return i
	}
	return -1
}

// Descendants returns every entry below dirPath in canonical order.
// The result is nil when dirPath is not a directory in the tree. In
// the flat depth-first list a directory's descendants are the
// contiguous run of deeper entries that follows it.
func (t *Tree) Descendants(dirPath string) []*Entry {
	i, ok := t.index[dirPath]
	if !ok || t.Entries[i].Kind != KindDir {
		return nil
	}

	var out []*Entry
	depth := t.Entries[i].Depth
	for j := i + 1; j < len(t.Entries) && t.Entries[j].Depth > depth; j++ {
		out = append(out, &t.Entries[j])
	}
	return out
}

// Issues returns the paths skipped during the walk.
func (t *Tree) Issues() []Issue {
	return t.issues
}

// SiblingLess is the canonical sibling comparator: directories first,
// then case-insensitive name order, ties broken case-sensitively so
// the order is total.
func SiblingLess(aName string, aDir bool, bName string, bDir bool) bool {
	if aDir != bDir {
		return aDir
	}
	al, bl := strings.ToLower(aName), strings.ToLower(bName)
	if al != bl {
		return al < bl
	}
	return aName < bName
}
