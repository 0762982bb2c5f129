package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/pluck-sh/pluck/pkg/pluck/history"
	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
	"github.com/pluck-sh/pluck/pkg/pluck/state"
	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// writeTreeFixture lays out a small project for glob selection tests.
func writeTreeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, d := range []string{"docs", "src"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("Mkdir failed: %v", err)
		}
	}
	files := map[string]string{
		"README.md":     "# readme\n",
		"docs/guide.md": "guide\n",
		"src/main.go":   "package main\n",
		"src/util.go":   "package util\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return root
}

func scanFixture(t *testing.T, root string) *tree.Tree {
	t.Helper()
	tr, err := tree.NewBuilder().Build(context.Background(), root, ignore.Config{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tr
}

func TestBuildIgnoreConfig(t *testing.T) {
	resetViperForTest := func() {
		viper.Reset()
		viper.SetDefault("ignore.use_defaults", true)
		viper.SetDefault("ignore.use_gitignore", true)
	}

	tests := []struct {
		name             string
		setup            func()
		wantGitignore    bool
		wantDefaults     bool
		wantBinary       bool
		wantPatternCount int
	}{
		{
			name: "default values",
			setup: func() {
				resetViperForTest()
			},
			wantGitignore: true,
			wantDefaults:  true,
		},
		{
			name: "no_gitignore overrides the gitignore setting",
			setup: func() {
				resetViperForTest()
				viper.Set("no_gitignore", true)
			},
			wantGitignore: false,
			wantDefaults:  true,
		},
		{
			name: "include binary and custom patterns",
			setup: func() {
				resetViperForTest()
				viper.Set("include_binary", true)
				viper.Set("ignore.patterns", []string{"*.log", "tmp"})
			},
			wantGitignore:    true,
			wantDefaults:     true,
			wantBinary:       true,
			wantPatternCount: 2,
		},
		{
			name: "defaults disabled",
			setup: func() {
				resetViperForTest()
				viper.Set("ignore.use_defaults", false)
			},
			wantGitignore: true,
			wantDefaults:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			got := buildIgnoreConfig()

			if got.UseGitignore != tt.wantGitignore {
				t.Errorf("UseGitignore = %v, want %v", got.UseGitignore, tt.wantGitignore)
			}
			if got.UseDefaults != tt.wantDefaults {
				t.Errorf("UseDefaults = %v, want %v", got.UseDefaults, tt.wantDefaults)
			}
			if got.IncludeBinary != tt.wantBinary {
				t.Errorf("IncludeBinary = %v, want %v", got.IncludeBinary, tt.wantBinary)
			}
			if len(got.Patterns) != tt.wantPatternCount {
				t.Errorf("Patterns = %d, want %d", len(got.Patterns), tt.wantPatternCount)
			}
		})
	}
}

func TestSelectByGlob(t *testing.T) {
	root := writeTreeFixture(t)
	tr := scanFixture(t, root)

	tests := []struct {
		name      string
		glob      string
		wantNames []string
	}{
		{
			name:      "by base name",
			glob:      "*.go",
			wantNames: []string{"main.go", "util.go"},
		},
		{
			name:      "directory pulls its subtree",
			glob:      "docs",
			wantNames: []string{"docs", "guide.md"},
		},
		{
			name:      "by relative path",
			glob:      "src/main.go",
			wantNames: []string{"main.go"},
		},
		{
			name:      "everything without duplicates",
			glob:      "*",
			wantNames: []string{"docs", "guide.md", "src", "main.go", "util.go", "README.md"},
		},
		{
			name:      "no match",
			glob:      "*.rs",
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := selectByGlob(tr, tt.glob, 0)
			if err != nil {
				t.Fatalf("selectByGlob failed: %v", err)
			}

			var names []string
			for _, it := range items {
				names = append(names, filepath.Base(it.Path))
			}
			if len(names) != len(tt.wantNames) {
				t.Fatalf("matched %v, want %v", names, tt.wantNames)
			}
			for i, want := range tt.wantNames {
				if names[i] != want {
					t.Errorf("item %d = %q, want %q", i, names[i], want)
				}
			}
		})
	}
}

func TestSelectByGlobCap(t *testing.T) {
	root := writeTreeFixture(t)
	tr := scanFixture(t, root)

	_, err := selectByGlob(tr, "*", 2)
	if !errors.Is(err, state.ErrSelectionLimit) {
		t.Fatalf("err = %v, want ErrSelectionLimit", err)
	}

	// All or nothing: exactly at the cap still succeeds.
	items, err := selectByGlob(tr, "*", 6)
	if err != nil {
		t.Fatalf("selectByGlob at cap failed: %v", err)
	}
	if len(items) != 6 {
		t.Errorf("items = %d, want 6", len(items))
	}
}

func TestMatchesGlob(t *testing.T) {
	e := &tree.Entry{
		Path: "/proj/src/main.go",
		Name: "main.go",
		Kind: tree.KindFile,
	}

	tests := []struct {
		glob string
		want bool
	}{
		{"*.go", true},
		{"main.*", true},
		{"src/*.go", true},
		{"src/*", true},
		{"*.md", false},
		{"docs/*", false},
	}

	for _, tt := range tests {
		if got := matchesGlob(tt.glob, "/proj", e); got != tt.want {
			t.Errorf("matchesGlob(%q) = %v, want %v", tt.glob, got, tt.want)
		}
	}
}

func TestDeliverToFile(t *testing.T) {
	viper.Reset()
	target := filepath.Join(t.TempDir(), "bundle.xml")
	viper.Set("output", target)

	dest, where, err := deliver([]byte("<pluck/>\n"))
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if dest != history.DestFile {
		t.Errorf("dest = %q, want file", dest)
	}
	if where != target {
		t.Errorf("target = %q, want %q", where, target)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "<pluck/>") {
		t.Errorf("written bundle = %q", data)
	}
}
