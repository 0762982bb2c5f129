package output

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/pluck-sh/pluck/pkg/pluck/tree"
)

// LLMFormatter renders an annotated project analysis aimed at language
// models: a general overview, the structure of the selection, import
// relationships between the selected files, and finally the contents.
type LLMFormatter struct{}

// Format writes the rendered selection to the buffer.
func (f *LLMFormatter) Format(w *bytes.Buffer, req *Request) error {
	files := collectLLMFiles(req)
	loaded := loadedLLMFiles(files)
	root := buildStructure(req)
	deps := analyzeDeps(loaded)

	writeOverview(w, req, files, loaded)
	writeStructure(w, req.Root, root)
	writeComponents(w, root, loaded)
	writeRelationships(w, deps)
	writeContents(w, req, files, deps)
	return nil
}

// llmFile is one selected non-directory entry prepared for the
// analysis sections.
type llmFile struct {
	rel     string
	content string
	binary  bool
	symlink bool
	reason  string
	size    int64
}

// fileDeps splits one file's imports into references resolved inside
// the selection and external packages.
type fileDeps struct {
	internal []string
	external []string
}

func collectLLMFiles(req *Request) []llmFile {
	var files []llmFile
	for i := range req.Items {
		it := &req.Items[i]
		if it.Dir {
			continue
		}
		lf := llmFile{rel: relPath(req.Root, it.Path), size: it.Size}
		if it.Symlink {
			lf.symlink = true
			files = append(files, lf)
			continue
		}
		fc := loadFile(it)
		lf.content = fc.text
		lf.binary = fc.binary
		lf.reason = fc.reason
		files = append(files, lf)
	}
	return files
}

// loadedLLMFiles returns the files whose content is available as text.
// Only these feed the language and dependency analysis.
func loadedLLMFiles(files []llmFile) []llmFile {
	loaded := make([]llmFile, 0, len(files))
	for _, lf := range files {
		if !lf.binary && !lf.symlink && lf.reason == "" {
			loaded = append(loaded, lf)
		}
	}
	return loaded
}

// llmNode is one entry in the structure tree.
type llmNode struct {
	name     string
	dir      bool
	children map[string]*llmNode
}

func buildStructure(req *Request) *llmNode {
	root := &llmNode{
		name:     filepath.Base(req.Root),
		dir:      true,
		children: make(map[string]*llmNode),
	}
	for i := range req.Items {
		it := &req.Items[i]
		addStructurePath(root, strings.Split(relPath(req.Root, it.Path), "/"), it.Dir)
	}
	return root
}

func addStructurePath(root *llmNode, comps []string, dir bool) {
	node := root
	for i, comp := range comps {
		if node.children == nil {
			node.children = make(map[string]*llmNode)
		}
		child, ok := node.children[comp]
		if !ok {
			isDir := i < len(comps)-1 || dir
			child = &llmNode{name: comp, dir: isDir}
			if isDir {
				child.children = make(map[string]*llmNode)
			}
			node.children[comp] = child
		}
		if i == len(comps)-1 {
			child.dir = dir
		}
		node = child
	}
}

// sortedChildren orders a node's children: directories first, then by
// lowercased name.
func sortedChildren(node *llmNode) []*llmNode {
	children := make([]*llmNode, 0, len(node.children))
	for _, child := range node.children {
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool {
		return tree.SiblingLess(children[i].name, children[i].dir, children[j].name, children[j].dir)
	})
	return children
}

// langCount pairs a file extension with how many files carry it.
type langCount struct {
	ext string
	n   int
}

// languageCounts tallies extensions across files, most common first
// with a name tiebreak for stable output.
func languageCounts(files []llmFile) []langCount {
	counts := make(map[string]int)
	for _, lf := range files {
		if ext := strings.TrimPrefix(path.Ext(lf.rel), "."); ext != "" {
			counts[ext]++
		}
	}
	langs := make([]langCount, 0, len(counts))
	for ext, n := range counts {
		langs = append(langs, langCount{ext, n})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].n != langs[j].n {
			return langs[i].n > langs[j].n
		}
		return langs[i].ext < langs[j].ext
	})
	return langs
}

func writeOverview(w *bytes.Buffer, req *Request, files, loaded []llmFile) {
	w.WriteString("# PROJECT ANALYSIS FOR AI ASSISTANT\n\n")
	w.WriteString("## 📦 GENERAL INFORMATION\n\n")
	fmt.Fprintf(w, "- **Project path**: `%s`\n", req.Root)
	fmt.Fprintf(w, "- **Total files**: %d\n", len(files))
	fmt.Fprintf(w, "- **Files included in this analysis**: %d\n", len(loaded))

	if langs := languageCounts(loaded); len(langs) > 0 {
		w.WriteString("- **Main languages used**:\n")
		for i, lc := range langs {
			if i >= 5 {
				break
			}
			fmt.Fprintf(w, "  - %s (%d files)\n", languageName(lc.ext), lc.n)
		}
	}
	w.WriteByte('\n')
}

func writeStructure(w *bytes.Buffer, root string, node *llmNode) {
	w.WriteString("## 🗂️ PROJECT STRUCTURE\n\n")
	w.WriteString("```\n")
	fmt.Fprintf(w, "%s\n", root)
	writeTreeLines(w, node, "", true)
	w.WriteString("```\n\n")
}

func writeTreeLines(w *bytes.Buffer, node *llmNode, prefix string, last bool) {
	if prefix != "" {
		branch := "├── "
		if last {
			branch = "└── "
		}
		w.WriteString(prefix + branch + node.name + "\n")
	}
	if !node.dir {
		return
	}
	children := sortedChildren(node)
	for i, child := range children {
		childPrefix := prefix + "│   "
		if last {
			childPrefix = prefix + "    "
		}
		writeTreeLines(w, child, childPrefix, i == len(children)-1)
	}
}

func writeComponents(w *bytes.Buffer, root *llmNode, loaded []llmFile) {
	var dirs []*llmNode
	for _, child := range sortedChildren(root) {
		if child.dir {
			dirs = append(dirs, child)
		}
	}
	if len(dirs) == 0 {
		return
	}

	w.WriteString("### 📂 Main Components\n\n")
	for _, dir := range dirs {
		var inside []llmFile
		for _, lf := range loaded {
			if strings.HasPrefix(lf.rel, dir.name+"/") {
				inside = append(inside, lf)
			}
		}

		fmt.Fprintf(w, "- **`%s/`** - ", dir.name)
		if len(inside) > 0 {
			fmt.Fprintf(w, "Contains %d files", len(inside))
			if langs := languageCounts(inside); len(langs) > 0 {
				names := make([]string, 0, 2)
				for i, lc := range langs {
					if i >= 2 {
						break
					}
					names = append(names, languageName(lc.ext))
				}
				fmt.Fprintf(w, " mainly in %s", strings.Join(names, ", "))
			}
		}
		w.WriteByte('\n')
	}
	w.WriteByte('\n')
}

func writeRelationships(w *bytes.Buffer, deps map[string]fileDeps) {
	w.WriteString("## 🔄 FILE RELATIONSHIPS\n\n")

	referencedBy := make(map[string][]string)
	for _, file := range sortedKeys(deps) {
		for _, dep := range deps[file].internal {
			referencedBy[dep] = append(referencedBy[dep], file)
		}
	}

	if len(referencedBy) > 0 {
		w.WriteString("### Core Files (most referenced)\n\n")
		refs := sortedKeys(referencedBy)
		sort.SliceStable(refs, func(i, j int) bool {
			return len(referencedBy[refs[i]]) > len(referencedBy[refs[j]])
		})
		for i, file := range refs {
			if i >= 10 {
				break
			}
			if n := len(referencedBy[file]); n > 1 {
				fmt.Fprintf(w, "- **`%s`** is imported by %d files\n", file, n)
			}
		}
		w.WriteByte('\n')
	}

	w.WriteString("### Dependencies by File\n\n")
	for _, file := range sortedKeys(deps) {
		d := deps[file]
		if len(d.internal) == 0 && len(d.external) == 0 {
			continue
		}
		fmt.Fprintf(w, "- **`%s`**:\n", file)
		if len(d.internal) > 0 {
			w.WriteString("  - *Internal dependencies*: " + depList(d.internal, 5) + "\n")
		}
		if len(d.external) > 0 {
			w.WriteString("  - *External dependencies*: " + depList(d.external, 5) + "\n")
		}
	}
	w.WriteByte('\n')
}

func writeContents(w *bytes.Buffer, req *Request, files []llmFile, deps map[string]fileDeps) {
	w.WriteString("## 📄 FILE CONTENTS\n\n")
	w.WriteString("*Note: The content below includes only selected files.*\n\n")

	for _, lf := range files {
		fmt.Fprintf(w, "### %s\n\n", lf.rel)

		switch {
		case lf.symlink:
			w.WriteString("*Symbolic link, target not followed.*\n\n")
			continue
		case lf.reason != "":
			fmt.Fprintf(w, "*Error reading file: %s*\n\n", lf.reason)
			continue
		case lf.binary && req.IncludeBinary:
			fmt.Fprintf(w, "*Binary file: %s, %s (content omitted).*\n\n",
				fileType(lf.rel), sizeText(lf.size))
			continue
		case lf.binary:
			w.WriteString("*Binary file (content omitted).*\n\n")
			continue
		}

		if d, ok := deps[lf.rel]; ok && (len(d.internal) > 0 || len(d.external) > 0) {
			w.WriteString("**Dependencies:**\n")
			if len(d.internal) > 0 {
				w.WriteString("- Internal: " + depList(d.internal, 3) + "\n")
			}
			if len(d.external) > 0 {
				w.WriteString("- External: " + depList(d.external, 3) + "\n")
			}
			w.WriteByte('\n')
		}

		fmt.Fprintf(w, "```%s\n", strings.TrimPrefix(path.Ext(lf.rel), "."))
		w.WriteString(formatContent(lf.content, req.LineNumbers))
		w.WriteString("```\n\n")
	}
}

// depList renders up to limit entries in backticks, noting how many
// were cut.
func depList(deps []string, limit int) string {
	shown := make([]string, 0, limit)
	for i, d := range deps {
		if i >= limit {
			break
		}
		shown = append(shown, "`"+d+"`")
	}
	out := strings.Join(shown, ", ")
	if len(deps) > limit {
		out += fmt.Sprintf(" and %d more", len(deps)-limit)
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cIncludePatterns is shared by the C-family extensions.
var cIncludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`#include\s+[<"]([^>"]+)[>"]`),
}

// jsImportPatterns is shared by the JavaScript-family extensions.
var jsImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:import|require)\s*\(?['"]([^'"]+)['"]`),
	regexp.MustCompile(`from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`import\s+.*?\s+from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`const\s+.*?\s*=\s*require\s*\(\s*['"]([^'"]+)['"]\s*\)`),
}

// shellSourcePatterns is shared by the shell extensions.
var shellSourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`source\s+['"]?([^'"]+)['"]?`),
	regexp.MustCompile(`\.\s+['"]?([^'"]+)['"]?`),
}

var makeIncludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`include\s+([^\s]+)`),
}

// importPatterns maps a file extension, or an exact base name for
// extensionless files, to the regexes that pull import targets out of
// one line of source.
var importPatterns = map[string][]*regexp.Regexp{
	".py": {
		regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import`),
		regexp.MustCompile(`^\s*import\s+([\w.]+)`),
	},
	".c":   cIncludePatterns,
	".h":   cIncludePatterns,
	".cpp": cIncludePatterns,
	".hpp": cIncludePatterns,
	".cc":  cIncludePatterns,
	".rs": {
		regexp.MustCompile(`use\s+([\w:]+)`),
		regexp.MustCompile(`extern\s+crate\s+(\w+)`),
		regexp.MustCompile(`mod\s+(\w+)`),
		regexp.MustCompile(`pub\s+use\s+([\w:]+)`),
	},
	".js":  jsImportPatterns,
	".ts":  jsImportPatterns,
	".tsx": jsImportPatterns,
	".jsx": jsImportPatterns,
	".java": {
		regexp.MustCompile(`import\s+([\w.]+)`),
	},
	".go": {
		regexp.MustCompile(`import\s+\(\s*(?:[_\w]*\s+)?"([^"]+)"`),
		regexp.MustCompile(`import\s+(?:[_\w]*\s+)?"([^"]+)"`),
		regexp.MustCompile(`^\s*(?:[_\w]*\s+)?"([^"]+)"\s*$`),
	},
	".rb": {
		regexp.MustCompile(`require\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`require_relative\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`load\s+['"]([^'"]+)['"]`),
	},
	".php": {
		regexp.MustCompile(`(?:require|include)(?:_once)?\s*\(?['"]([^'"]+)['"]`),
		regexp.MustCompile(`use\s+([\w\\]+)`),
	},
	".swift": {
		regexp.MustCompile(`import\s+(\w+)`),
	},
	".sh":      shellSourcePatterns,
	".bash":    shellSourcePatterns,
	"Makefile": makeIncludePatterns,
	"makefile": makeIncludePatterns,
}

// analyzeDeps scans the loaded files for imports and resolves each one
// against the other files in the selection. Imports that do not match
// a selected file are reported as external.
func analyzeDeps(loaded []llmFile) map[string]fileDeps {
	imports := make(map[string][]string, len(loaded))
	for _, lf := range loaded {
		patterns, ok := importPatterns[path.Ext(lf.rel)]
		if !ok {
			patterns, ok = importPatterns[path.Base(lf.rel)]
		}
		imports[lf.rel] = nil
		if !ok {
			continue
		}

		seen := make(map[string]bool)
		for _, line := range splitLines(lf.content) {
			for _, re := range patterns {
				for _, m := range re.FindAllStringSubmatch(line, -1) {
					if len(m) > 1 && m[1] != "" && !seen[m[1]] {
						seen[m[1]] = true
						imports[lf.rel] = append(imports[lf.rel], m[1])
					}
				}
			}
		}
	}

	// Map every way a file might be referred to back to its path:
	// full path, base name, stem, and each suffix of the path.
	mapping := make(map[string]string)
	for _, lf := range loaded {
		base := path.Base(lf.rel)
		mapping[base] = lf.rel
		mapping[strings.TrimSuffix(base, path.Ext(base))] = lf.rel
		mapping[lf.rel] = lf.rel

		rel := lf.rel
		for strings.Contains(rel, "/") {
			rel = rel[strings.Index(rel, "/")+1:]
			mapping[rel] = lf.rel
			mapping[strings.TrimSuffix(rel, path.Ext(rel))] = lf.rel
		}
	}

	deps := make(map[string]fileDeps, len(imports))
	for file, imported := range imports {
		var internal, external []string
		for _, imp := range imported {
			target, ok := resolveImport(mapping, file, imp)
			if ok {
				internal = append(internal, target)
			} else {
				external = append(external, imp)
			}
		}
		deps[file] = fileDeps{
			internal: sortDedup(internal),
			external: sortDedup(external),
		}
	}
	return deps
}

// resolveImport tries the spellings an import target commonly takes
// until one lands on a selected file.
func resolveImport(mapping map[string]string, file, imp string) (string, bool) {
	base := path.Base(imp)
	dots := strings.ReplaceAll(imp, ".", "/")
	colons := strings.ReplaceAll(imp, "::", "/")
	variations := []string{
		imp,
		base,
		strings.TrimSuffix(base, path.Ext(base)),
		dots,
		colons,
		dots + ".py",
		colons + ".rs",
		imp + ".h",
		imp + ".hpp",
		imp + ".js",
		imp + ".ts",
		colons + "/mod.rs",
		imp + "/index.js",
		imp + "/index.ts",
	}
	for _, v := range variations {
		if target, ok := mapping[v]; ok && target != file {
			return target, true
		}
	}
	return "", false
}

func sortDedup(s []string) []string {
	sort.Strings(s)
	return slices.Compact(s)
}

// languageName maps a file extension to a display name.
func languageName(ext string) string {
	switch ext {
	case "py":
		return "Python"
	case "c":
		return "C"
	case "cpp":
		return "C++"
	case "h":
		return "C/C++ Header"
	case "hpp":
		return "C++ Header"
	case "js":
		return "JavaScript"
	case "ts":
		return "TypeScript"
	case "java":
		return "Java"
	case "html":
		return "HTML"
	case "css":
		return "CSS"
	case "php":
		return "PHP"
	case "rb":
		return "Ruby"
	case "go":
		return "Go"
	case "rs":
		return "Rust"
	case "swift":
		return "Swift"
	case "kt":
		return "Kotlin"
	case "sh":
		return "Shell"
	case "md":
		return "Markdown"
	case "json":
		return "JSON"
	case "xml":
		return "XML"
	case "yaml", "yml":
		return "YAML"
	case "sql":
		return "SQL"
	case "r":
		return "R"
	default:
		return "Plain Text"
	}
}

func init() {
	Register(string(FormatLLM), func() Formatter {
		return &LLMFormatter{}
	})
}

// Ensure LLMFormatter implements Formatter.
var _ Formatter = (*LLMFormatter)(nil)
