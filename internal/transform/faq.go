package transform

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/admonition"
	"github.com/starford/inkwell/internal/mdast"
)

// code expands ```faq and ```ad-<kind> fenced blocks.
func (r *run) code() {
	for _, n := range collect(r.doc.Root, is[*ast.FencedCodeBlock]) {
		block := n.(*ast.FencedCodeBlock)
		lang := string(block.Language(r.doc.Source))
		body := blockText(block, r.doc.Source)

		if strings.EqualFold(lang, "faq") {
			mdast.Replace(block, r.faq(body))
			continue
		}
		if kind, ok := admonition.Kind(lang); ok {
			mdast.Replace(block, r.admonition(kind, body))
		}
	}
}

func blockText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// faq parses body as a document: the level-1 heading is the title, every
// deeper heading opens a question and the paragraphs after it, joined by
// newlines, are the answer.
func (r *run) faq(body string) *mdast.FAQ {
	doc := r.p.cfg.Parser.ParseBody([]byte(body))
	out := &mdast.FAQ{}

	var item *mdast.FAQItem
	var answer []string
	flush := func() {
		if item != nil {
			item.Content = strings.Join(answer, "\n")
			out.Items = append(out.Items, *item)
		}
	}
	for c := doc.Root.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Heading:
			text := mdast.PlainText(t, doc.Source)
			if t.Level == 1 {
				out.Title = text
				continue
			}
			flush()
			item = &mdast.FAQItem{Title: text}
			answer = nil
		case *ast.Paragraph:
			if item != nil {
				answer = append(answer, mdast.PlainText(t, doc.Source))
			}
		}
	}
	flush()
	return out
}

func (r *run) admonition(kind, body string) *mdast.Admonition {
	params, err := admonition.Parse(kind, body)
	if errors.Is(err, admonition.ErrInvalidColor) {
		r.logger.Warn("transform: admonition color ignored",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
	node := &mdast.Admonition{
		Variant:  params.Type,
		Title:    params.Title,
		Collapse: params.Collapse,
		Content:  params.Content,
		Icon:     params.Icon,
		Color:    params.Color,
	}
	content := r.p.cfg.Parser.ParseBody([]byte(params.Content))
	r.sub(content, r.key).transform()
	for _, c := range r.adopt(content) {
		node.AppendChild(node, c)
	}
	return node
}
