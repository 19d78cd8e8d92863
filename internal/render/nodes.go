package render

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/starford/inkwell/internal/admonition"
	"github.com/starford/inkwell/internal/mdast"
)

// nodeRenderer renders the custom node kinds and replaces goldmark's fenced
// code renderer with a highlighting one.
type nodeRenderer struct {
	code   *highlighter
	logger *slog.Logger
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.fencedCode)
	reg.Register(mdast.KindWikiLink, r.wikiLink)
	reg.Register(mdast.KindHighlight, r.highlight)
	reg.Register(mdast.KindFrontMatter, r.frontMatter)
	reg.Register(mdast.KindElement, r.element)
	reg.Register(mdast.KindNotFound, r.notFound)
	reg.Register(mdast.KindLinkComponent, r.linkComponent)
	reg.Register(mdast.KindMedia, r.media)
	reg.Register(mdast.KindFigure, r.figure)
	reg.Register(mdast.KindImage, r.image)
	reg.Register(mdast.KindAudio, r.audio)
	reg.Register(mdast.KindVideo, r.video)
	reg.Register(mdast.KindFAQ, r.faq)
	reg.Register(mdast.KindAdmonition, r.admonition)
}

func writeEscaped(w util.BufWriter, s string) {
	_, _ = w.Write(util.EscapeHTML([]byte(s)))
}

// writeAttr writes ` name="value"`, or nothing when value is empty.
func writeAttr(w util.BufWriter, name, value string) {
	if value == "" {
		return
	}
	_ = w.WriteByte(' ')
	_, _ = w.WriteString(name)
	_, _ = w.WriteString(`="`)
	writeEscaped(w, value)
	_ = w.WriteByte('"')
}

func (r *nodeRenderer) fencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	language := string(n.Language(source))

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	if err := r.code.format(w, code.String(), language); err != nil {
		r.logger.Warn("render: highlight failed", slog.String("language", language), slog.String("error", err.Error()))
		_, _ = w.WriteString("<pre><code>")
		writeEscaped(w, code.String())
		_, _ = w.WriteString("</code></pre>\n")
	}
	return ast.WalkSkipChildren, nil
}

// wikiLink renders a wikilink the pipeline did not resolve as its text.
func (r *nodeRenderer) wikiLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*mdast.WikiLink)
		label := n.Title
		if label == "" {
			label = n.Target
		}
		writeEscaped(w, label)
	}
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) highlight(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<mark>")
	} else {
		_, _ = w.WriteString("</mark>")
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) frontMatter(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) element(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*mdast.Element)
	tag := n.Tag
	if tag == "" {
		tag = "div"
	}
	if entering {
		_ = w.WriteByte('<')
		_, _ = w.WriteString(tag)
		writeAttr(w, "class", n.Class)
		_ = w.WriteByte('>')
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</")
	_, _ = w.WriteString(tag)
	_ = w.WriteByte('>')
	if isBlockTag(tag) {
		_ = w.WriteByte('\n')
	}
	return ast.WalkContinue, nil
}

func isBlockTag(tag string) bool {
	switch tag {
	case "span", "mark", "a", "em", "strong":
		return false
	}
	return true
}

func (r *nodeRenderer) notFound(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*mdast.NotFound)
		_, _ = w.WriteString(`<span class="not-found"`)
		writeAttr(w, "title", n.Target)
		_ = w.WriteByte('>')
		writeEscaped(w, n.Label)
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) linkComponent(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*mdast.LinkComponent)
		_, _ = w.WriteString(`<inkwell-link`)
		writeAttr(w, "href", n.Href)
		_ = w.WriteByte('>')
		writeEscaped(w, n.Label)
		_, _ = w.WriteString("</inkwell-link>")
	}
	return ast.WalkSkipChildren, nil
}

// media renders a Media node the pipeline left in place: PDFs become an
// embedded object, anything else a plain link.
func (r *nodeRenderer) media(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*mdast.Media)
	label := n.Title
	if label == "" {
		label = n.URL
	}
	if n.MediaType == mdast.MediaPDF {
		_, _ = w.WriteString(`<object class="pdf" type="application/pdf"`)
		writeAttr(w, "data", n.URL)
		_, _ = w.WriteString(`><a`)
		writeAttr(w, "href", n.URL)
		_ = w.WriteByte('>')
		writeEscaped(w, label)
		_, _ = w.WriteString("</a></object>")
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString("<a")
	writeAttr(w, "href", n.URL)
	_ = w.WriteByte('>')
	writeEscaped(w, label)
	_, _ = w.WriteString("</a>")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) figure(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*mdast.Figure)
	if entering {
		_, _ = w.WriteString("<figure>\n")
		return ast.WalkContinue, nil
	}
	if n.Caption != "" {
		_, _ = w.WriteString("<figcaption>")
		writeEscaped(w, n.Caption)
		_, _ = w.WriteString("</figcaption>\n")
	}
	_, _ = w.WriteString("</figure>\n")
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) image(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*mdast.Image)
		_, _ = w.WriteString("<img")
		writeAttr(w, "src", n.Src)
		_, _ = w.WriteString(` alt="`)
		writeEscaped(w, n.Alt)
		_ = w.WriteByte('"')
		writeAttr(w, "title", n.Title)
		if n.Width > 0 {
			writeAttr(w, "width", strconv.Itoa(n.Width))
		}
		if n.Height > 0 {
			writeAttr(w, "height", strconv.Itoa(n.Height))
		}
		_, _ = w.WriteString(` loading="lazy">`)
	}
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) audio(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*mdast.Audio)
		_, _ = w.WriteString("<audio")
		writeAttr(w, "src", n.Src)
		if n.Controls {
			_, _ = w.WriteString(" controls")
		}
		_, _ = w.WriteString("></audio>")
	}
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) video(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*mdast.Video)
		_, _ = w.WriteString("<video controls><source")
		writeAttr(w, "src", n.Src)
		writeAttr(w, "type", n.MIME)
		_, _ = w.WriteString("></video>")
	}
	return ast.WalkSkipChildren, nil
}

// faq renders every item as a details element. Answer lines are joined
// with line breaks.
func (r *nodeRenderer) faq(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*mdast.FAQ)
	_, _ = w.WriteString("<section class=\"faq\">\n")
	if n.Title != "" {
		_, _ = w.WriteString("<h2>")
		writeEscaped(w, n.Title)
		_, _ = w.WriteString("</h2>\n")
	}
	for _, item := range n.Items {
		_, _ = w.WriteString("<details class=\"faq-item\"><summary>")
		writeEscaped(w, item.Title)
		_, _ = w.WriteString("</summary><p>")
		for i, line := range strings.Split(item.Content, "\n") {
			if i > 0 {
				_, _ = w.WriteString("<br>")
			}
			writeEscaped(w, line)
		}
		_, _ = w.WriteString("</p></details>\n")
	}
	_, _ = w.WriteString("</section>\n")
	return ast.WalkSkipChildren, nil
}

// admonition renders a callout as a details element; the collapse state
// decides whether it starts open. The body is the transformed children.
func (r *nodeRenderer) admonition(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*mdast.Admonition)
	if !entering {
		_, _ = w.WriteString("</div></details>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<details class="admonition admonition-`)
	writeEscaped(w, n.Variant)
	_ = w.WriteByte('"')
	writeAttr(w, "data-type", n.Variant)
	writeAttr(w, "data-color", n.Color)
	writeAttr(w, "data-icon", n.Icon)
	if n.Collapse != admonition.CollapseClose {
		_, _ = w.WriteString(" open")
	}
	_, _ = w.WriteString(`><summary class="admonition-title">`)
	writeEscaped(w, n.Title)
	_, _ = w.WriteString("</summary><div class=\"admonition-content\">\n")
	return ast.WalkContinue, nil
}
