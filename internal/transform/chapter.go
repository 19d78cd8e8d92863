package transform

import (
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/mdast"
)

// extractChapter keeps only the top-level nodes of the chapter headed by
// a heading whose text is chapter: that heading and everything after it up
// to the next heading whose level is at least the chapter heading's. A
// non-empty title renames the chapter heading. It reports whether the
// chapter was found.
func extractChapter(doc *markdown.Document, chapter, title string) bool {
	root := doc.Root
	depth := 0
	found := false
	for c := root.FirstChild(); c != nil; {
		next := c.NextSibling()
		keep := false
		if h, ok := c.(*ast.Heading); ok {
			switch {
			case strings.TrimSpace(mdast.PlainText(h, doc.Source)) == chapter:
				depth = h.Level
				keep, found = true, true
				if title != "" {
					rename(h, title)
				}
			case depth > 0 && h.Level >= depth:
				depth = 0
			}
		}
		if !keep && depth == 0 {
			root.RemoveChild(root, c)
		}
		c = next
	}
	return found
}

func rename(h *ast.Heading, title string) {
	h.RemoveChildren(h)
	h.AppendChild(h, ast.NewString([]byte(title)))
	if _, ok := h.AttributeString("id"); ok {
		h.SetAttributeString("id", []byte(headingID(title)))
	}
}
