package render

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlighter formats fenced code with chroma.
type highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newHighlighter(style string, classes bool) *highlighter {
	return &highlighter{
		style:     styles.Get(style),
		formatter: chromahtml.New(chromahtml.WithClasses(classes)),
	}
}

// format writes code highlighted for language. An unknown language is
// guessed from the code, falling back to plain text.
func (h *highlighter) format(w io.Writer, code, language string) error {
	l := lexers.Get(language)
	if l == nil {
		l = lexers.Analyse(code)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	it, err := l.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", l.Config().Name, err)
	}
	return h.formatter.Format(w, h.style, it)
}

func (h *highlighter) writeCSS(w io.Writer) error {
	if err := h.formatter.WriteCSS(w, h.style); err != nil {
		return fmt.Errorf("render: write css: %w", err)
	}
	return nil
}
