package output

import (
	"bytes"
	"strings"
)

// XMLFormatter renders the selection as nested file and folder tags.
// Content is escaped; binary files become self-closing binary tags and
// unreadable files become error tags.
type XMLFormatter struct{}

// Format writes the rendered selection to the buffer.
func (f *XMLFormatter) Format(w *bytes.Buffer, req *Request) error {
	rs := newRenderSet(req)
	for _, it := range rs.top {
		f.writeItem(w, rs, it)
	}
	return nil
}

func (f *XMLFormatter) writeItem(w *bytes.Buffer, rs *renderSet, it *Item) {
	rel := xmlEscape(rs.rel(it))

	switch {
	case it.Dir:
		w.WriteString("<folder name=\"" + rel + "\">\n")
		for _, child := range rs.children[it.Path] {
			f.writeItem(w, rs, child)
		}
		w.WriteString("</folder>\n")

	case it.Symlink:
		w.WriteString("<symlink name=\"" + rel + "\"/>\n")

	default:
		fc := loadFile(it)
		switch {
		case fc.reason != "":
			w.WriteString("<error name=\"" + rel + "\" reason=\"" + xmlEscape(fc.reason) + "\"/>\n")
		case fc.binary && rs.req.IncludeBinary:
			w.WriteString("<binary name=\"" + rel + "\" size=\"" + sizeText(it.Size) +
				"\" type=\"" + fileType(it.Path) + "\"/>\n")
		case fc.binary:
			w.WriteString("<binary name=\"" + rel + "\"/>\n")
		default:
			w.WriteString("<file name=\"" + rel + "\">\n")
			w.WriteString(xmlEscape(formatContent(fc.text, rs.req.LineNumbers)))
			w.WriteString("</file>\n")
		}
	}
}

// xmlEscape escapes the characters XML cannot carry verbatim. The
// ampersand must go first.
func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

func init() {
	Register(string(FormatXML), func() Formatter {
		return &XMLFormatter{}
	})
}

// Ensure XMLFormatter implements Formatter.
var _ Formatter = (*XMLFormatter)(nil)
