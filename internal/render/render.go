// Package render turns transformed documents into HTML.
package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	gmext "github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/starford/inkwell/internal/markdown"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "github"

// Renderer renders markdown documents to HTML. It is safe for concurrent
// use.
type Renderer struct {
	codeStyle   string
	codeClasses bool
	sanitize    bool
	logger      *slog.Logger

	code     *highlighter
	renderer renderer.Renderer
	policy   *bluemonday.Policy
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCodeStyle sets the chroma style for fenced code blocks.
func WithCodeStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.codeStyle = name
		}
	}
}

// WithCodeClasses emits CSS classes instead of inline styles for
// highlighted code. The stylesheet is available from WriteCSS.
func WithCodeClasses(on bool) Option {
	return func(r *Renderer) {
		r.codeClasses = on
	}
}

// WithSanitize passes the rendered HTML through a bluemonday policy that
// keeps the markup this package emits. Sanitizing implies code classes.
func WithSanitize(on bool) Option {
	return func(r *Renderer) {
		r.sanitize = on
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// New returns a Renderer configured by opts.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		codeStyle: DefaultCodeStyle,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sanitize {
		r.codeClasses = true
		r.policy = Policy()
	}

	r.code = newHighlighter(r.codeStyle, r.codeClasses)
	r.renderer = renderer.NewRenderer(renderer.WithNodeRenderers(
		util.Prioritized(html.NewRenderer(html.WithUnsafe()), 1000),
		util.Prioritized(gmext.NewTableHTMLRenderer(), 500),
		util.Prioritized(gmext.NewStrikethroughHTMLRenderer(), 500),
		util.Prioritized(&nodeRenderer{
			code:   r.code,
			logger: r.logger,
		}, 100),
	))
	return r
}

// Render writes the HTML of doc to w.
func (r *Renderer) Render(w io.Writer, doc *markdown.Document) error {
	if r.policy == nil {
		if err := r.renderer.Render(w, doc.Source, doc.Root); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		return nil
	}
	var buf bytes.Buffer
	if err := r.renderer.Render(&buf, doc.Source, doc.Root); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := r.policy.SanitizeReader(&buf).WriteTo(w); err != nil {
		return fmt.Errorf("render: write: %w", err)
	}
	return nil
}

// HTML returns the HTML of doc.
func (r *Renderer) HTML(doc *markdown.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSS writes the stylesheet for class-based code highlighting.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return r.code.writeCSS(w)
}
