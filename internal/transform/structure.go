package transform

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"

	"github.com/starford/inkwell/internal/mdast"
)

// tables wraps every table in a div.table-wrapper.
func (r *run) tables() {
	for _, n := range collect(r.doc.Root, is[*extast.Table]) {
		parent := n.Parent()
		if parent == nil {
			continue
		}
		wrapper := mdast.NewElement("div", "table-wrapper")
		parent.ReplaceChild(parent, n, wrapper)
		wrapper.AppendChild(wrapper, n)
	}
}

// headings inserts a thematic break before every level-2 heading that is
// not the first child of its parent and does not already follow a break or
// the front matter.
func (r *run) headings() {
	for _, n := range collect(r.doc.Root, is[*ast.Heading]) {
		h := n.(*ast.Heading)
		if h.Level != 2 {
			continue
		}
		prev := h.PreviousSibling()
		switch prev.(type) {
		case nil, *ast.ThematicBreak, *mdast.FrontMatter:
			continue
		}
		parent := h.Parent()
		parent.InsertBefore(parent, h, ast.NewThematicBreak())
	}
}

// uniqueIDs suffixes repeated heading ids with -1, -2 and so on in document
// order. Embedded documents are parsed on their own and can repeat ids of
// the host or of each other.
func uniqueIDs(root ast.Node) {
	seen := map[string]bool{}
	for _, n := range collect(root, is[*ast.Heading]) {
		v, ok := n.AttributeString("id")
		if !ok {
			continue
		}
		b, ok := v.([]byte)
		if !ok {
			continue
		}
		id := string(b)
		unique := id
		for i := 1; seen[unique]; i++ {
			unique = id + "-" + strconv.Itoa(i)
		}
		seen[unique] = true
		if unique != id {
			n.SetAttributeString("id", []byte(unique))
		}
	}
}
