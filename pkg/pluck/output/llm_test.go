package output_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluck-sh/pluck/pkg/pluck/output"
)

func TestLLMSections(t *testing.T) {
	root := buildFixture(t)
	got := render(t, &output.Request{
		Root:   root,
		Items:  srcSelection(root),
		Format: output.FormatLLM,
	})

	t.Run("sections appear in order", func(t *testing.T) {
		headers := []string{
			"# PROJECT ANALYSIS FOR AI ASSISTANT",
			"## 📦 GENERAL INFORMATION",
			"## 🗂️ PROJECT STRUCTURE",
			"### 📂 Main Components",
			"## 🔄 FILE RELATIONSHIPS",
			"### Dependencies by File",
			"## 📄 FILE CONTENTS",
		}
		last := -1
		for _, h := range headers {
			idx := strings.Index(got, h)
			require.GreaterOrEqual(t, idx, 0, h)
			require.Greater(t, idx, last, h)
			last = idx
		}
	})

	t.Run("overview counts files and languages", func(t *testing.T) {
		assert.Contains(t, got, "- **Project path**: `"+root+"`\n")
		assert.Contains(t, got, "- **Total files**: 3\n")
		assert.Contains(t, got, "- **Files included in this analysis**: 3\n")
		assert.Contains(t, got, "- **Main languages used**:\n  - Python (2 files)\n  - Markdown (1 files)\n")
	})

	t.Run("structure draws the selection as a tree", func(t *testing.T) {
		want := "```\n" + root + "\n" +
			"    ├── src\n" +
			"    │   ├── app.py\n" +
			"    │   └── helpers.py\n" +
			"    └── notes.md\n" +
			"```\n\n"
		assert.Contains(t, got, want)
	})

	t.Run("components summarize top-level directories", func(t *testing.T) {
		assert.Contains(t, got, "- **`src/`** - Contains 2 files mainly in Python\n")
	})

	t.Run("relationships resolve imports inside the selection", func(t *testing.T) {
		want := "- **`src/app.py`**:\n" +
			"  - *Internal dependencies*: `src/helpers.py`\n" +
			"  - *External dependencies*: `os`\n"
		assert.Contains(t, got, want)
		assert.NotContains(t, got, "is imported by 1 files")
	})

	t.Run("contents carry dependency notes and fences", func(t *testing.T) {
		assert.Contains(t, got, "*Note: The content below includes only selected files.*\n\n")
		want := "### src/app.py\n\n" +
			"**Dependencies:**\n" +
			"- Internal: `src/helpers.py`\n" +
			"- External: `os`\n\n" +
			"```py\nimport os\nimport helpers\n\nprint('x')\n```\n\n"
		assert.Contains(t, got, want)
		assert.Contains(t, got, "### notes.md\n\n```md\n# Notes\n```\n\n")
	})
}

func TestLLMBinaryAndSymlink(t *testing.T) {
	root := buildFixture(t)
	blob := fileItem(root, "data/blob.png")
	blob.Binary = true
	blob.Size = 5

	t.Run("binary files are noted, not read", func(t *testing.T) {
		items := append(srcSelection(root), dirItem(root, "data"), blob)
		got := render(t, &output.Request{Root: root, Items: items, Format: output.FormatLLM})

		assert.Contains(t, got, "- **Total files**: 4\n")
		assert.Contains(t, got, "- **Files included in this analysis**: 3\n")
		assert.Contains(t, got, "### data/blob.png\n\n*Binary file (content omitted).*\n\n")
	})

	t.Run("binary descriptors name type and size", func(t *testing.T) {
		got := render(t, &output.Request{
			Root:          root,
			Items:         []output.Item{blob},
			Format:        output.FormatLLM,
			IncludeBinary: true,
		})
		assert.Contains(t, got, "*Binary file: png, 5 B (content omitted).*\n\n")
	})

	t.Run("directories without readable files stay bare", func(t *testing.T) {
		got := render(t, &output.Request{
			Root:   root,
			Items:  []output.Item{dirItem(root, "data"), blob},
			Format: output.FormatLLM,
		})
		assert.Contains(t, got, "- **`data/`** - \n")
	})

	t.Run("symlink targets are never followed", func(t *testing.T) {
		scratch := t.TempDir()
		target := filepath.Join(scratch, "real.py")
		link := filepath.Join(scratch, "alias.py")
		require.NoError(t, os.WriteFile(target, []byte("X = 1\n"), 0o644))
		require.NoError(t, os.Symlink(target, link))

		got := render(t, &output.Request{
			Root:   scratch,
			Items:  []output.Item{{Path: link, Symlink: true}},
			Format: output.FormatLLM,
		})
		assert.Contains(t, got, "### alias.py\n\n*Symbolic link, target not followed.*\n\n")
		assert.NotContains(t, got, "X = 1")
	})
}

func TestLLMCoreFiles(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.py":      "import shared\n",
		"b.py":      "import shared\n",
		"shared.py": "X = 1\n",
	}
	items := make([]output.Item, 0, len(files))
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		items = append(items, output.Item{Path: path})
	}

	got := render(t, &output.Request{Root: root, Items: items, Format: output.FormatLLM})
	assert.Contains(t, got, "### Core Files (most referenced)\n\n- **`shared.py`** is imported by 2 files\n")
}

func TestLLMGoImports(t *testing.T) {
	root := t.TempDir()
	mainSrc := "package main\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n\n\t\"example.com/proj/util\"\n)\n\nfunc main() {\n\tfmt.Println(strings.ToUpper(util.Name))\n}\n"
	utilSrc := "package util\n\nvar Name = \"x\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(mainSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "util.go"), []byte(utilSrc), 0o644))

	got := render(t, &output.Request{
		Root: root,
		Items: []output.Item{
			{Path: filepath.Join(root, "main.go")},
			{Path: filepath.Join(root, "util.go")},
		},
		Format: output.FormatLLM,
	})

	want := "- **`main.go`**:\n" +
		"  - *Internal dependencies*: `util.go`\n" +
		"  - *External dependencies*: `fmt`, `strings`\n"
	assert.Contains(t, got, want)
}

func TestLLMDependencyOverflow(t *testing.T) {
	root := t.TempDir()
	content := "import os\nimport sys\nimport json\nimport re\nimport math\nimport time\nimport abc\n"
	path := filepath.Join(root, "deps.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got := render(t, &output.Request{
		Root:   root,
		Items:  []output.Item{{Path: path}},
		Format: output.FormatLLM,
	})

	assert.Contains(t, got, "  - *External dependencies*: `abc`, `json`, `math`, `os`, `re` and 2 more\n")
	assert.Contains(t, got, "- External: `abc`, `json`, `math` and 4 more\n")
}
