package markdown

import (
	"testing"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"

	"github.com/starford/inkwell/internal/mdast"
)

func TestParseFrontMatter(t *testing.T) {
	p := NewParser()
	doc, err := p.Parse([]byte("---\ntitle: Hello\npermalink: /hi\n---\n# Heading\n\nBody\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm, ok := doc.Root.FirstChild().(*mdast.FrontMatter)
	if !ok {
		t.Fatalf("first child = %T, want *mdast.FrontMatter", doc.Root.FirstChild())
	}
	if fm.Data["permalink"] != "/hi" {
		t.Errorf("permalink = %v, want /hi", fm.Data["permalink"])
	}
	if got := doc.Title(); got != "Hello" {
		t.Errorf("title = %q, want %q", got, "Hello")
	}
	h, ok := fm.NextSibling().(*ast.Heading)
	if !ok {
		t.Fatalf("second child = %T, want *ast.Heading", fm.NextSibling())
	}
	if got := mdast.PlainText(h, doc.Source); got != "Heading" {
		t.Errorf("heading = %q, want %q", got, "Heading")
	}
}

func TestParseWithoutFrontMatter(t *testing.T) {
	doc, err := NewParser().Parse([]byte("# Only Body\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := doc.Root.FirstChild().(*mdast.FrontMatter); ok {
		t.Error("unexpected front matter node")
	}
	if got := doc.Title(); got != "Only Body" {
		t.Errorf("title = %q, want %q", got, "Only Body")
	}
}

func TestParseExtensions(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\nA [[Link|alias]], ![[Embed#Part]] and ==mark==.\n"
	doc := NewParser().ParseBody([]byte(src))

	var tables, highlights int
	_ = ast.Walk(doc.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *extast.Table:
			tables++
		case *mdast.Highlight:
			highlights++
		}
		return ast.WalkContinue, nil
	})
	if tables != 1 {
		t.Errorf("tables = %d, want 1", tables)
	}
	if highlights != 1 {
		t.Errorf("highlights = %d, want 1", highlights)
	}

	links := doc.WikiLinks()
	if len(links) != 2 {
		t.Fatalf("wikilinks = %d, want 2", len(links))
	}
	if links[0].Target != "Link" || links[0].Title != "alias" {
		t.Errorf("first = %+v", links[0])
	}
	if links[1].Target != "Embed#Part" || !links[1].Embed {
		t.Errorf("second = %+v", links[1])
	}
}
