// Package markdown composes the goldmark parser used for vault documents:
// CommonMark plus GFM tables, strikethrough, wikilinks, highlights and a
// YAML/TOML front matter block.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmext "github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/starford/inkwell/internal/extension"
	"github.com/starford/inkwell/internal/mdast"
)

// Document is a parsed vault document. Every text segment in Root points
// into Source.
type Document struct {
	Source      []byte
	Root        *ast.Document
	FrontMatter map[string]any
}

// Parser parses markdown into documents. It is safe for concurrent use.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a Parser with the vault syntax enabled.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				gmext.Table,
				gmext.Strikethrough,
				extension.WikiLink,
				extension.Highlight,
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Markdown returns the underlying goldmark instance.
func (p *Parser) Markdown() goldmark.Markdown {
	return p.md
}

// Parse strips the front matter from data and parses the rest. When front
// matter was present a FrontMatter node is the first child of the root.
func (p *Parser) Parse(data []byte) (*Document, error) {
	fm := make(map[string]any)
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, fmt.Errorf("markdown: parse front matter: %w", err)
	}

	doc := p.ParseBody(body)
	doc.FrontMatter = fm
	if len(body) < len(data) {
		node := &mdast.FrontMatter{Data: fm}
		if first := doc.Root.FirstChild(); first != nil {
			doc.Root.InsertBefore(doc.Root, first, node)
		} else {
			doc.Root.AppendChild(doc.Root, node)
		}
	}
	return doc, nil
}

// ParseBody parses data as-is, without looking for front matter.
func (p *Parser) ParseBody(data []byte) *Document {
	root := p.md.Parser().Parse(text.NewReader(data))
	return &Document{
		Source:      data,
		Root:        root.(*ast.Document),
		FrontMatter: map[string]any{},
	}
}

// Title returns the front matter title, or the text of the first level-1
// heading, or "".
func (d *Document) Title() string {
	if s, ok := d.FrontMatter["title"].(string); ok && s != "" {
		return s
	}
	for c := d.Root.FirstChild(); c != nil; c = c.NextSibling() {
		if h, ok := c.(*ast.Heading); ok && h.Level == 1 {
			return mdast.PlainText(h, d.Source)
		}
	}
	return ""
}

// WikiLinks returns every wikilink in the document in source order.
func (d *Document) WikiLinks() []*mdast.WikiLink {
	var out []*mdast.WikiLink
	_ = ast.Walk(d.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if wl, ok := n.(*mdast.WikiLink); ok && entering {
			out = append(out, wl)
		}
		return ast.WalkContinue, nil
	})
	return out
}
