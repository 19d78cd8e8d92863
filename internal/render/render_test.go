package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/mdast"
	"github.com/starford/inkwell/internal/transform"
)

func renderDoc(t *testing.T, r *Renderer, src string) *goquery.Document {
	t.Helper()
	doc, err := markdown.NewParser().Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	transform.New(transform.Config{
		Permalinks: transform.Permalinks{"notes/a": "/notes/a"},
	}).Transform(doc, "index")
	return query(t, r, doc)
}

func query(t *testing.T, r *Renderer, doc *markdown.Document) *goquery.Document {
	t.Helper()
	out, err := r.HTML(doc)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	q, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("goquery: %v", err)
	}
	return q
}

func TestRenderInline(t *testing.T) {
	q := renderDoc(t, New(), "==hi== [[notes/a|A]] [[missing]] [[https://go.dev|Go]]\n")

	if got := q.Find("mark").Text(); got != "hi" {
		t.Errorf("mark = %q, want %q", got, "hi")
	}
	a := q.Find(`a[href="/notes/a"]`)
	if a.Length() != 1 || a.Text() != "A" || a.AttrOr("target", "") != "_self" {
		t.Errorf("internal link = %q target %q", a.Text(), a.AttrOr("target", ""))
	}
	ext := q.Find(`a[href="https://go.dev"]`)
	if ext.AttrOr("target", "") != "_blank" || ext.AttrOr("rel", "") != "nofollow" {
		t.Errorf("external link attrs = %q %q", ext.AttrOr("target", ""), ext.AttrOr("rel", ""))
	}
	nf := q.Find("span.not-found")
	if nf.Text() != "missing" || nf.AttrOr("title", "") != "missing" {
		t.Errorf("placeholder = %q", nf.Text())
	}
}

func TestRenderHeadingIDMatchesFragmentLinks(t *testing.T) {
	q := renderDoc(t, New(), "## Some Part\n\n[[#Some Part]]\n")
	if q.Find("h2#some-part").Length() != 1 {
		t.Error("heading id some-part missing")
	}
	if q.Find(`a[href="#some-part"]`).Length() != 1 {
		t.Error("fragment link missing")
	}
}

func TestRenderComponentLink(t *testing.T) {
	doc, _ := markdown.NewParser().Parse([]byte("[[notes/a]]\n"))
	transform.New(transform.Config{
		Permalinks: transform.Permalinks{"notes/a": "/notes/a"},
		LinkForm:   transform.LinkFormComponent,
	}).Transform(doc, "index")
	q := query(t, New(), doc)
	if got := q.Find(`inkwell-link[href="/notes/a"]`).Text(); got != "notes/a" {
		t.Errorf("component = %q", got)
	}
}

func TestRenderCode(t *testing.T) {
	r := New(WithCodeClasses(true), WithCodeStyle("monokai"))
	q := renderDoc(t, r, "```go\nfunc main() {}\n```\n")
	pre := q.Find("pre.chroma")
	if pre.Length() != 1 {
		t.Fatal("highlighted block missing")
	}
	if !strings.Contains(pre.Text(), "func main() {}") {
		t.Errorf("code = %q", pre.Text())
	}

	var css bytes.Buffer
	if err := r.WriteCSS(&css); err != nil {
		t.Fatalf("WriteCSS: %v", err)
	}
	if !strings.Contains(css.String(), ".chroma") {
		t.Error("stylesheet has no .chroma rules")
	}
}

func TestRenderAdmonition(t *testing.T) {
	q := renderDoc(t, New(), "```ad-note\ntitle: Read me\ncollapse: true\ncolor: rgb(1, 2, 3)\nSome ==body==.\n```\n")
	d := q.Find("details.admonition-note")
	if d.Length() != 1 {
		t.Fatal("admonition missing")
	}
	if _, open := d.Attr("open"); open {
		t.Error("collapsed admonition rendered open")
	}
	if got := d.AttrOr("data-color", ""); got != "1, 2, 3" {
		t.Errorf("data-color = %q", got)
	}
	if got := d.Find("summary").Text(); got != "Read me" {
		t.Errorf("title = %q", got)
	}
	if got := d.Find(".admonition-content mark").Text(); got != "body" {
		t.Errorf("body mark = %q", got)
	}
}

func TestRenderFAQ(t *testing.T) {
	q := renderDoc(t, New(), "```faq\n# Help\n\n## One\n\nfirst\nline\n\n## Two\n\nsecond\n```\n")
	s := q.Find("section.faq")
	if got := s.Find("h2").Text(); got != "Help" {
		t.Errorf("title = %q", got)
	}
	items := s.Find("details.faq-item")
	if items.Length() != 2 {
		t.Fatalf("items = %d, want 2", items.Length())
	}
	if got := items.First().Find("summary").Text(); got != "One" {
		t.Errorf("first question = %q", got)
	}
	if items.First().Find("br").Length() != 1 {
		t.Error("answer lines not separated")
	}
}

func TestRenderMediaNodes(t *testing.T) {
	root := ast.NewDocument()
	fig := mdast.NewElement("figure", "")
	fig.AppendChild(fig, &mdast.Image{Src: "/media/a.png", Width: 200, Height: 100, Alt: "A"})
	fc := mdast.NewElement("figcaption", "")
	fc.AppendChild(fc, ast.NewString([]byte("Caption")))
	fig.AppendChild(fig, fc)
	root.AppendChild(root, fig)
	root.AppendChild(root, &mdast.Audio{Src: "/media/a.mp3", Controls: true})
	root.AppendChild(root, &mdast.Video{Src: "/media/v.mp4", MIME: "video/mp4"})
	root.AppendChild(root, &mdast.Media{MediaType: mdast.MediaPDF, URL: "/media/d.pdf"})
	root.AppendChild(root, &mdast.FrontMatter{Data: map[string]any{"title": "hidden"}})

	q := query(t, New(), &markdown.Document{Root: root})

	img := q.Find("figure > img")
	if img.AttrOr("width", "") != "200" || img.AttrOr("height", "") != "100" || img.AttrOr("alt", "") != "A" {
		t.Errorf("img attrs = %v", img.Nodes)
	}
	if got := q.Find("figure > figcaption").Text(); got != "Caption" {
		t.Errorf("caption = %q", got)
	}
	if _, ok := q.Find("audio").Attr("controls"); !ok {
		t.Error("audio without controls")
	}
	if got := q.Find("video source").AttrOr("type", ""); got != "video/mp4" {
		t.Errorf("video type = %q", got)
	}
	if got := q.Find("object").AttrOr("data", ""); got != "/media/d.pdf" {
		t.Errorf("pdf data = %q", got)
	}
	if strings.Contains(q.Text(), "hidden") {
		t.Error("front matter rendered")
	}
}

func TestRenderSanitize(t *testing.T) {
	r := New(WithSanitize(true))
	q := renderDoc(t, r, "<script>alert(1)</script>\n\n==kept== [[notes/a]]\n\n```ad-tip\nbody\n```\n")
	if q.Find("script").Length() != 0 {
		t.Error("script survived sanitizing")
	}
	if q.Find("mark").Text() != "kept" {
		t.Error("mark removed by sanitizing")
	}
	if q.Find(`a[href="/notes/a"]`).Length() != 1 {
		t.Error("internal link removed by sanitizing")
	}
	if q.Find("details.admonition summary").Text() != "Tip" {
		t.Error("admonition removed by sanitizing")
	}
}
