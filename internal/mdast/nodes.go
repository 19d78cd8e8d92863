// Package mdast defines the node kinds inkwell adds to the goldmark tree.
// The set is closed: the transform pipeline and the renderer switch over
// exactly these types.
package mdast

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
)

var (
	KindWikiLink      = ast.NewNodeKind("WikiLink")
	KindHighlight     = ast.NewNodeKind("Highlight")
	KindFrontMatter   = ast.NewNodeKind("FrontMatter")
	KindElement       = ast.NewNodeKind("Element")
	KindNotFound      = ast.NewNodeKind("NotFound")
	KindLinkComponent = ast.NewNodeKind("LinkComponent")
	KindMedia         = ast.NewNodeKind("Media")
	KindFigure        = ast.NewNodeKind("Figure")
	KindImage         = ast.NewNodeKind("Image")
	KindAudio         = ast.NewNodeKind("Audio")
	KindVideo         = ast.NewNodeKind("Video")
	KindFAQ           = ast.NewNodeKind("FAQ")
	KindAdmonition    = ast.NewNodeKind("Admonition")
)

// WikiLink is a [[target|alias]] or ![[target]] span.
type WikiLink struct {
	ast.BaseInline
	Target string
	// Title is the alias; empty when none was given.
	Title string
	Embed bool
}

func (n *WikiLink) Kind() ast.NodeKind { return KindWikiLink }

func (n *WikiLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": n.Target,
		"Title":  n.Title,
		"Embed":  strconv.FormatBool(n.Embed),
	}, nil)
}

// Highlight is a ==marked== span. Its only child is a text node.
type Highlight struct {
	ast.BaseInline
}

func (n *Highlight) Kind() ast.NodeKind { return KindHighlight }

func (n *Highlight) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// FrontMatter holds the decoded metadata block at the top of a document.
type FrontMatter struct {
	ast.BaseBlock
	Data map[string]any
}

func (n *FrontMatter) Kind() ast.NodeKind { return KindFrontMatter }

func (n *FrontMatter) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Element is a render hint: its children are wrapped in Tag with an
// optional class.
type Element struct {
	ast.BaseBlock
	Tag   string
	Class string
}

// NewElement returns an Element with the given tag and class.
func NewElement(tag, class string) *Element {
	return &Element{Tag: tag, Class: class}
}

func (n *Element) Kind() ast.NodeKind { return KindElement }

func (n *Element) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Tag":   n.Tag,
		"Class": n.Class,
	}, nil)
}

// NotFound replaces a wikilink whose target has no permalink.
type NotFound struct {
	ast.BaseInline
	Target string
	Label  string
}

func (n *NotFound) Kind() ast.NodeKind { return KindNotFound }

func (n *NotFound) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": n.Target,
		"Label":  n.Label,
	}, nil)
}

// LinkComponent is the component form of a resolved hyperlink.
type LinkComponent struct {
	ast.BaseInline
	Href  string
	Label string
}

func (n *LinkComponent) Kind() ast.NodeKind { return KindLinkComponent }

func (n *LinkComponent) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Href":  n.Href,
		"Label": n.Label,
	}, nil)
}

// MediaType classifies an embedded media file.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
	MediaPDF   MediaType = "pdf"
)

// Media is a resolved media embed before it is rewritten for rendering.
type Media struct {
	ast.BaseInline
	MediaType MediaType
	URL       string
	Title     string
	Alt       string
}

func (n *Media) Kind() ast.NodeKind { return KindMedia }

func (n *Media) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Type": string(n.MediaType),
		"URL":  n.URL,
	}, nil)
}

// Figure wraps media with an optional caption.
type Figure struct {
	ast.BaseBlock
	Caption string
}

func (n *Figure) Kind() ast.NodeKind { return KindFigure }

func (n *Figure) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Caption": n.Caption}, nil)
}

// Image is a renderable image with its display size.
type Image struct {
	ast.BaseInline
	Src    string
	Width  int
	Height int
	Alt    string
	Title  string
}

func (n *Image) Kind() ast.NodeKind { return KindImage }

func (n *Image) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Src":    n.Src,
		"Width":  strconv.Itoa(n.Width),
		"Height": strconv.Itoa(n.Height),
	}, nil)
}

// Audio is a renderable audio player.
type Audio struct {
	ast.BaseInline
	Src      string
	Controls bool
}

func (n *Audio) Kind() ast.NodeKind { return KindAudio }

func (n *Audio) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Src": n.Src}, nil)
}

// Video is a renderable video player. MIME is the type of Src.
type Video struct {
	ast.BaseInline
	Src  string
	MIME string
}

func (n *Video) Kind() ast.NodeKind { return KindVideo }

func (n *Video) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Src":  n.Src,
		"MIME": n.MIME,
	}, nil)
}

// FAQItem is one question and its answer.
type FAQItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FAQ is the structured form of a ```faq block.
type FAQ struct {
	ast.BaseBlock
	Title string
	Items []FAQItem
}

func (n *FAQ) Kind() ast.NodeKind { return KindFAQ }

func (n *FAQ) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Title": n.Title,
		"Items": strconv.Itoa(len(n.Items)),
	}, nil)
}

// Admonition is the structured form of a ```ad-<type> block. Variant is the <type>.
type Admonition struct {
	ast.BaseBlock
	Variant  string
	Title    string
	Collapse string
	Content  string
	Icon     string
	Color    string
}

func (n *Admonition) Kind() ast.NodeKind { return KindAdmonition }

func (n *Admonition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Variant":  n.Variant,
		"Title":    n.Title,
		"Collapse": n.Collapse,
		"Color":    n.Color,
	}, nil)
}
