package mdast

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// PlainText returns the text content of n. Soft and hard line breaks
// become "\n".
func PlainText(n ast.Node, source []byte) string {
	var b strings.Builder
	writeText(&b, n, source)
	return b.String()
}

func writeText(b *strings.Builder, n ast.Node, source []byte) {
	switch t := n.(type) {
	case *ast.Text:
		b.Write(t.Segment.Value(source))
		if t.SoftLineBreak() || t.HardLineBreak() {
			b.WriteByte('\n')
		}
		return
	case *ast.String:
		b.Write(t.Value)
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeText(b, c, source)
	}
}

// Replace puts nodes where old was, in order, and detaches old.
func Replace(old ast.Node, nodes ...ast.Node) {
	parent := old.Parent()
	if parent == nil {
		return
	}
	for _, n := range nodes {
		parent.InsertBefore(parent, old, n)
	}
	parent.RemoveChild(parent, old)
}

// Retag replaces n with an Element carrying n's children and returns the
// element. An Element is updated in place.
func Retag(n ast.Node, tag, class string) *Element {
	if el, ok := n.(*Element); ok {
		el.Tag, el.Class = tag, class
		return el
	}
	el := NewElement(tag, class)
	for c := n.FirstChild(); c != nil; {
		next := c.NextSibling()
		el.AppendChild(el, c)
		c = next
	}
	if n.Parent() != nil {
		n.Parent().ReplaceChild(n.Parent(), n, el)
	}
	return el
}

// Rebase shifts every source segment under n by offset. source is the
// input n was parsed from, now appended to another document's source at
// offset. Autolinks keep their URL in an unexported segment, so they are
// replaced by plain links resolved against source.
func Rebase(n ast.Node, source []byte, offset int) {
	var autolinks []*ast.AutoLink
	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			t.Segment.Start += offset
			t.Segment.Stop += offset
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				s := t.Segments.At(i)
				s.Start += offset
				s.Stop += offset
				t.Segments.Set(i, s)
			}
		case *ast.AutoLink:
			autolinks = append(autolinks, t)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if t.Info != nil {
				t.Info.Segment.Start += offset
				t.Info.Segment.Stop += offset
			}
		case *ast.HTMLBlock:
			if t.HasClosure() {
				t.ClosureLine.Start += offset
				t.ClosureLine.Stop += offset
			}
		}
		if n.Type() != ast.TypeInline {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				s := lines.At(i)
				s.Start += offset
				s.Stop += offset
				lines.Set(i, s)
			}
		}
		return ast.WalkContinue, nil
	})
	for _, al := range autolinks {
		url := al.URL(source)
		link := ast.NewLink()
		link.Destination = url
		link.AppendChild(link, ast.NewString(al.Label(source)))
		Replace(al, link)
	}
}
