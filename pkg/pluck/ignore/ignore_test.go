package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluck-sh/pluck/pkg/pluck/ignore"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMatcherDefaults(t *testing.T) {
	root := t.TempDir()

	t.Run("ignores default directory names", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{UseDefaults: true})
		assert.True(t, m.Ignored(filepath.Join(root, "node_modules"), true))
		assert.True(t, m.Ignored(filepath.Join(root, "target"), true))
		assert.True(t, m.Ignored(filepath.Join(root, "sub", "dist"), true))
	})

	t.Run("ignores entries under a default directory", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{UseDefaults: true})
		assert.True(t, m.Ignored(filepath.Join(root, "node_modules", "left-pad", "index.js"), false))
	})

	t.Run("a file sharing a default name is kept", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{UseDefaults: true})
		assert.False(t, m.Ignored(filepath.Join(root, "build"), false))
	})

	t.Run("disabled defaults keep everything", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{UseDefaults: false})
		assert.False(t, m.Ignored(filepath.Join(root, "node_modules"), true))
	})

	t.Run("configured list overrides the built-in one", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{
			UseDefaults: true,
			DefaultDirs: []string{"vendor"},
		})
		assert.True(t, m.Ignored(filepath.Join(root, "vendor"), true))
		assert.False(t, m.Ignored(filepath.Join(root, "node_modules"), true))
	})

	t.Run("root itself is never ignored", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.DefaultConfig())
		assert.False(t, m.Ignored(root, true))
	})
}

func TestMatcherGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n!keep.log\nsecrets/\n")
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "generated.go\n")
	writeFile(t, filepath.Join(root, "app.log"), "log")
	writeFile(t, filepath.Join(root, "keep.log"), "log")
	writeFile(t, filepath.Join(root, "sub", "generated.go"), "package sub")

	m := ignore.NewMatcher(root, ignore.Config{UseGitignore: true})

	t.Run("pattern from root gitignore applies", func(t *testing.T) {
		assert.True(t, m.Ignored(filepath.Join(root, "app.log"), false))
	})

	t.Run("negation un-ignores", func(t *testing.T) {
		assert.False(t, m.Ignored(filepath.Join(root, "keep.log"), false))
	})

	t.Run("directory-only pattern applies to directories", func(t *testing.T) {
		assert.True(t, m.Ignored(filepath.Join(root, "secrets"), true))
	})

	t.Run("nested gitignore applies within its directory", func(t *testing.T) {
		assert.True(t, m.Ignored(filepath.Join(root, "sub", "generated.go"), false))
		assert.False(t, m.Ignored(filepath.Join(root, "generated.go"), false))
	})

	t.Run("disabled gitignore keeps everything", func(t *testing.T) {
		off := ignore.NewMatcher(root, ignore.Config{UseGitignore: false})
		assert.False(t, off.Ignored(filepath.Join(root, "app.log"), false))
	})
}

func TestMatcherCustomPatterns(t *testing.T) {
	root := t.TempDir()

	t.Run("glob matches base name", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{Patterns: []string{"*.tmp"}})
		assert.True(t, m.Ignored(filepath.Join(root, "scratch.tmp"), false))
		assert.True(t, m.Ignored(filepath.Join(root, "deep", "nested", "scratch.tmp"), false))
		assert.False(t, m.Ignored(filepath.Join(root, "scratch.txt"), false))
	})

	t.Run("glob matches relative path", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{Patterns: []string{"docs/*.md"}})
		assert.True(t, m.Ignored(filepath.Join(root, "docs", "notes.md"), false))
		assert.False(t, m.Ignored(filepath.Join(root, "notes.md"), false))
	})

	t.Run("pattern naming a directory covers its subtree", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{Patterns: []string{"fixtures"}})
		assert.True(t, m.Ignored(filepath.Join(root, "fixtures"), true))
		assert.True(t, m.Ignored(filepath.Join(root, "fixtures", "golden.json"), false))
	})

	t.Run("malformed pattern is dropped without failing the rest", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{Patterns: []string{"[bad", "*.tmp"}})
		assert.True(t, m.Ignored(filepath.Join(root, "scratch.tmp"), false))
		assert.False(t, m.Ignored(filepath.Join(root, "bad"), false))
	})

	t.Run("relative input paths are accepted", func(t *testing.T) {
		m := ignore.NewMatcher(root, ignore.Config{Patterns: []string{"*.tmp"}})
		assert.True(t, m.Ignored("scratch.tmp", false))
	})
}

func TestBinaryDetection(t *testing.T) {
	t.Run("known binary extensions", func(t *testing.T) {
		assert.True(t, ignore.BinaryByName("logo.png"))
		assert.True(t, ignore.BinaryByName("archive.ZIP"))
		assert.False(t, ignore.BinaryByName("main.go"))
		assert.False(t, ignore.BinaryByName("Makefile"))
	})

	t.Run("nul byte marks content binary", func(t *testing.T) {
		assert.True(t, ignore.BinaryByContent([]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}))
		assert.False(t, ignore.BinaryByContent([]byte("plain text\nwith lines\n")))
		assert.False(t, ignore.BinaryByContent([]byte("unicode ok: héllo → 世界")))
	})

	t.Run("is binary reads the leading bytes", func(t *testing.T) {
		dir := t.TempDir()

		textPath := filepath.Join(dir, "readme.md")
		require.NoError(t, os.WriteFile(textPath, []byte("# hello\n"), 0o644))
		assert.False(t, ignore.IsBinary(textPath))

		binPath := filepath.Join(dir, "blob")
		require.NoError(t, os.WriteFile(binPath, []byte{0x00, 0x01, 0x02}, 0o644))
		assert.True(t, ignore.IsBinary(binPath))

		extPath := filepath.Join(dir, "empty.png")
		require.NoError(t, os.WriteFile(extPath, nil, 0o644))
		assert.True(t, ignore.IsBinary(extPath))
	})

	t.Run("missing file is not binary", func(t *testing.T) {
		assert.False(t, ignore.IsBinary(filepath.Join(t.TempDir(), "gone")))
	})
}
