// Package ignore decides which filesystem entries stay out of the tree
// and which file contents count as binary.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/pluck-sh/pluck/pkg/pluck/logging"
)

// DefaultDirs are the directory names excluded when default ignores are
// enabled and no override list is configured.
var DefaultDirs = []string{"node_modules", ".git", "dist", "build", "coverage", "target"}

// Config controls what the matcher excludes.
type Config struct {
	// UseDefaults enables the default directory-name ignore list.
	UseDefaults bool

	// UseGitignore enables .gitignore rule evaluation (cascading,
	// nearest file wins, negation supported).
	UseGitignore bool

	// IncludeBinary switches rendered binary files from a bare
	// placeholder to a size/type descriptor. It never affects which
	// entries appear in the tree.
	IncludeBinary bool

	// Patterns are user-supplied globs matched against the path
	// relative to the scan root.
	Patterns []string

	// DefaultDirs overrides the built-in default list when non-empty.
	DefaultDirs []string
}

// DefaultConfig returns the stock configuration: default ignores and
// gitignore on, binary contents excluded, no custom patterns.
func DefaultConfig() Config {
	return Config{
		UseDefaults:  true,
		UseGitignore: true,
	}
}

// Matcher evaluates the exclusion chain for one scan root. Rules are
// checked in order: default name list, gitignore, custom patterns.
type Matcher struct {
	cfg      Config
	root     string
	defaults map[string]struct{}
	git      gitignore.Matcher
	patterns []string
}

// NewMatcher builds a matcher rooted at root. Unreadable gitignore data
// and malformed glob patterns are dropped with a warning, never fatal.
func NewMatcher(root string, cfg Config) *Matcher {
	m := &Matcher{
		cfg:      cfg,
		root:     filepath.Clean(root),
		defaults: make(map[string]struct{}),
	}

	if cfg.UseDefaults {
		dirs := cfg.DefaultDirs
		if len(dirs) == 0 {
			dirs = DefaultDirs
		}
		for _, name := range dirs {
			m.defaults[name] = struct{}{}
		}
	}

	if cfg.UseGitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(m.root), nil)
		if err != nil {
			logging.Get("ignore").Warn("gitignore rules unavailable", "root", m.root, "error", err)
		} else if len(patterns) > 0 {
			m.git = gitignore.NewMatcher(patterns)
		}
	}

	for _, pattern := range cfg.Patterns {
		if pattern == "" {
			continue
		}
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			logging.Get("ignore").Warn("dropping malformed ignore pattern", "pattern", pattern)
			continue
		}
		m.patterns = append(m.patterns, pattern)
	}

	return m
}

// Ignored reports whether path is excluded from the tree. The path may
// be absolute or relative to the matcher's root. The binary heuristic
// is deliberately not part of this chain.
func (m *Matcher) Ignored(path string, isDir bool) bool {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(m.root, path)
		if err != nil {
			return false
		}
		rel = r
	}
	if rel == "." || rel == "" {
		return false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")

	if m.cfg.UseDefaults && m.matchesDefault(parts, isDir) {
		return true
	}

	if m.git != nil && m.git.Match(parts, isDir) {
		return true
	}

	for _, pattern := range m.patterns {
		if matchesPattern(pattern, rel) {
			return true
		}
	}

	return false
}

// matchesDefault checks directory components against the default name
// list. The final component only counts when the entry is a directory.
func (m *Matcher) matchesDefault(parts []string, isDir bool) bool {
	for i, part := range parts {
		if i == len(parts)-1 && !isDir {
			return false
		}
		if _, ok := m.defaults[part]; ok {
			return true
		}
	}
	return false
}

// matchesPattern checks a root-relative path against a single glob. A
// pattern that names a directory also covers everything beneath it.
func matchesPattern(pattern, rel string) bool {
	if rel == pattern || strings.HasPrefix(rel, pattern+string(filepath.Separator)) {
		return true
	}
	if matched, err := filepath.Match(pattern, filepath.Base(rel)); err == nil && matched {
		return true
	}
	if matched, err := filepath.Match(pattern, rel); err == nil && matched {
		return true
	}
	return false
}
