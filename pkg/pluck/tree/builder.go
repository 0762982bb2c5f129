package tree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
	"github.com/pluck-sh/pluck/pkg/pluck/logging"
)

// ErrRootNotFound reports a missing or non-directory scan root.
var ErrRootNotFound = errors.New("root not found")

// Builder enumerates a subtree and assembles the canonical tree.
type Builder struct {
	log *logging.Logger
}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{log: logging.Get("tree")}
}

// Build walks root and returns its tree. Ignored directories are never
// opened; symlinks are recorded and never followed, so cycles cannot
// occur. Unreadable subtrees are recorded as issues and treated as
// empty. A missing or invalid root yields an empty tree alongside
// ErrRootNotFound.
func (b *Builder) Build(ctx context.Context, root string, cfg ignore.Config) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return &Tree{Root: root, index: map[string]int{}}, fmt.Errorf("resolving %s: %w", root, err)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return &Tree{Root: abs, index: map[string]int{}}, fmt.Errorf("%s: %w", abs, ErrRootNotFound)
	}

	matcher := ignore.NewMatcher(abs, cfg)
	c := newCollector(abs, matcher)

	conf := fastwalk.Config{
		Follow: false, // never follow symlinks
	}

	done := make(chan struct{})
	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-walkCtx.Done()
		close(done)
	}()

	walkErr := fastwalk.Walk(&conf, abs, c.callback(done))
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return &Tree{Root: abs, index: map[string]int{}}, fmt.Errorf("walking %s: %w", abs, walkErr)
	}

	t := c.assemble()
	b.log.Debug("tree built", "root", abs, "entries", t.Len(), "issues", len(t.issues))
	return t, nil
}

// collector gathers entries during the parallel walk, grouped by
// parent directory.
type collector struct {
	root    string
	matcher *ignore.Matcher

	mu       sync.Mutex
	children map[string][]Entry
	issues   []Issue
}

func newCollector(root string, matcher *ignore.Matcher) *collector {
	return &collector{
		root:     root,
		matcher:  matcher,
		children: make(map[string][]Entry),
	}
}

// callback returns the fastwalk visit function. fastwalk invokes it
// from multiple goroutines.
func (c *collector) callback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		if err != nil {
			c.addIssue(path, err)
			return nil
		}

		if path == c.root {
			return nil
		}

		isSymlink := d.Type()&fs.ModeSymlink != 0
		isDir := d.IsDir() && !isSymlink

		if c.matcher.Ignored(path, isDir) {
			if isDir {
				return fastwalk.SkipDir
			}
			return nil
		}

		switch {
		case isSymlink:
			c.add(path, Entry{
				Path: path,
				Name: filepath.Base(path),
				Kind: KindSymlink,
			})
		case isDir:
			c.add(path, Entry{
				Path: path,
				Name: filepath.Base(path),
				Kind: KindDir,
			})
		case d.Type().IsRegular():
			info, infoErr := d.Info()
			if infoErr != nil {
				c.addIssue(path, infoErr)
				return nil
			}
			c.add(path, Entry{
				Path:   path,
				Name:   filepath.Base(path),
				Kind:   KindFile,
				Size:   info.Size(),
				Binary: ignore.BinaryByName(path),
			})
		}
		// Sockets, pipes and devices are skipped.

		return nil
	}
}

// add records an entry under its parent directory thread-safely.
func (c *collector) add(path string, e Entry) {
	parent := filepath.Dir(path)

	c.mu.Lock()
	c.children[parent] = append(c.children[parent], e)
	c.mu.Unlock()
}

// addIssue records a skipped path thread-safely.
func (c *collector) addIssue(path string, err error) {
	c.mu.Lock()
	c.issues = append(c.issues, Issue{Path: path, Err: err})
	c.mu.Unlock()
}

// assemble sorts each sibling group and emits the canonical depth-first
// sequence with depth and parent metadata filled in.
func (c *collector) assemble() *Tree {
	t := &Tree{
		Root:   c.root,
		index:  make(map[string]int),
		issues: c.issues,
	}

	for _, group := range c.children {
		sort.Slice(group, func(i, j int) bool {
			return SiblingLess(group[i].Name, group[i].Kind == KindDir, group[j].Name, group[j].Kind == KindDir)
		})
	}

	var emit func(dir string, depth int)
	emit = func(dir string, depth int) {
		for _, e := range c.children[dir] {
			e.Depth = depth
			if depth > 0 {
				e.Parent = dir
			}
			t.index[e.Path] = len(t.Entries)
			t.Entries = append(t.Entries, e)
			if e.Kind == KindDir {
				emit(e.Path, depth+1)
			}
		}
	}
	emit(c.root, 0)

	return t
}
