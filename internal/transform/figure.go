package transform

import (
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/mdast"
)

// figures appends the caption to every figure and turns it into a
// <figure> element. A figure alone in a paragraph replaces the paragraph.
func (r *run) figures() {
	for _, n := range collect(r.doc.Root, is[*mdast.Figure]) {
		fig := n.(*mdast.Figure)
		if fig.Caption != "" {
			fig.AppendChild(fig, caption(fig.Caption))
		}
		el := mdast.Retag(fig, "figure", "")
		if p, ok := el.Parent().(*ast.Paragraph); ok && p.ChildCount() == 1 {
			mdast.Replace(p, el)
		}
	}
}

// caption builds the figcaption for text. Text containing © is split into
// the credit-less part and a copyright span.
func caption(text string) *mdast.Element {
	pre, post, found := strings.Cut(text, "©")
	if !found {
		el := mdast.NewElement("figcaption", "")
		el.AppendChild(el, ast.NewString([]byte(text)))
		return el
	}
	el := mdast.NewElement("figcaption", "with-copyright")
	credit := mdast.NewElement("span", "")
	credit.AppendChild(credit, ast.NewString([]byte(pre)))
	copyright := mdast.NewElement("span", "copyright")
	copyright.AppendChild(copyright, ast.NewString([]byte("© "+post)))
	el.AppendChild(el, credit)
	el.AppendChild(el, copyright)
	return el
}
