package output

import "bytes"

// MarkdownFormatter renders each file as a fenced code block tagged
// with its relative path. Top-level directories become h2 headers and
// nested ones h3, with their selected contents inlined below.
type MarkdownFormatter struct{}

// Format writes the rendered selection to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, req *Request) error {
	rs := newRenderSet(req)
	for _, it := range rs.top {
		f.writeItem(w, rs, it, true)
	}
	return nil
}

func (f *MarkdownFormatter) writeItem(w *bytes.Buffer, rs *renderSet, it *Item, top bool) {
	rel := rs.rel(it)

	switch {
	case it.Dir:
		if top {
			w.WriteString("## " + rel + "/\n\n")
		} else {
			w.WriteString("### " + rel + "/\n\n")
		}
		for _, child := range rs.children[it.Path] {
			f.writeItem(w, rs, child, false)
		}

	case it.Symlink:
		w.WriteString("```" + rel + "\n<symlink>\n```\n\n")

	default:
		fc := loadFile(it)
		switch {
		case fc.reason != "":
			w.WriteString("```" + rel + "\n<error reading file: " + fc.reason + ">\n```\n\n")
		case fc.binary && rs.req.IncludeBinary:
			w.WriteString("```" + rel + "\n<binary file: " + fileType(it.Path) +
				", " + sizeText(it.Size) + ">\n```\n\n")
		case fc.binary:
			w.WriteString("```" + rel + "\n<binary file>\n```\n\n")
		default:
			w.WriteString("```" + rel + "\n")
			w.WriteString(formatContent(fc.text, rs.req.LineNumbers))
			w.WriteString("```\n\n")
		}
	}
}

func init() {
	Register(string(FormatMarkdown), func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
