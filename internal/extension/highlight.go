package extension

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/inkwell/internal/mdast"
	"github.com/starford/inkwell/internal/tokenizer"
)

const highlightParserPriority = 500

const (
	tokHighlight       tokenizer.Kind = "highlight"
	tokHighlightMarker tokenizer.Kind = "highlightMarker"
	tokHighlightData   tokenizer.Kind = "highlightData"
)

type highlightState uint8

const (
	highlightStart highlightState = iota
	highlightStartMarker
	highlightData
	highlightEndMarker
)

// highlightScanner recognizes ==text== on a single line. An empty data
// region is accepted, so "====" is an empty highlight.
type highlightScanner struct {
	state    highlightState
	startLen int
	endLen   int
}

func (s *highlightScanner) Step(fx *tokenizer.Effects, code tokenizer.Code) tokenizer.Result {
	switch s.state {
	case highlightStart:
		if code != '=' {
			return tokenizer.NOK
		}
		fx.Enter(tokHighlight)
		fx.Enter(tokHighlightMarker)
		s.state = highlightStartMarker
		return tokenizer.Continue

	case highlightStartMarker:
		if s.startLen == 2 {
			fx.Exit(tokHighlightMarker)
			fx.Enter(tokHighlightData)
			s.state = highlightData
			return tokenizer.Continue
		}
		if code != '=' {
			return tokenizer.NOK
		}
		fx.Consume(code)
		s.startLen++
		return tokenizer.Continue

	case highlightData:
		if tokenizer.IsLineEndingOrEOF(code) {
			return tokenizer.NOK
		}
		if code == '=' {
			fx.Exit(tokHighlightData)
			fx.Enter(tokHighlightMarker)
			s.state = highlightEndMarker
			return tokenizer.Continue
		}
		fx.Consume(code)
		return tokenizer.Continue

	case highlightEndMarker:
		if s.endLen == 2 {
			fx.Exit(tokHighlightMarker)
			fx.Exit(tokHighlight)
			return tokenizer.OK
		}
		if code != '=' {
			return tokenizer.NOK
		}
		fx.Consume(code)
		s.endLen++
		return tokenizer.Continue
	}
	return tokenizer.NOK
}

var highlightHandlers = tokenizer.Handlers{
	Enter: map[tokenizer.Kind]tokenizer.Handler{
		tokHighlight: func(ctx *tokenizer.Context, _ tokenizer.Token) {
			ctx.Push(&mdast.Highlight{})
		},
	},
	Exit: map[tokenizer.Kind]tokenizer.Handler{
		tokHighlightData: func(ctx *tokenizer.Context, t tokenizer.Token) {
			top := ctx.Top()
			if top == nil {
				return
			}
			seg := text.NewSegment(ctx.Base+t.Start, ctx.Base+t.End)
			top.AppendChild(top, ast.NewTextSegment(seg))
		},
		tokHighlight: func(ctx *tokenizer.Context, _ tokenizer.Token) {
			ctx.Pop()
		},
	},
}

// ScanHighlight matches a highlight at the start of src. base is the
// offset of src in the document source; the text child's segment is
// relative to the document.
func ScanHighlight(src []byte, base int) (*mdast.Highlight, int, bool) {
	events, n, ok := tokenizer.Scan(src, &highlightScanner{})
	if !ok {
		return nil, 0, false
	}
	node, _ := tokenizer.Compile(src, base, events, highlightHandlers).(*mdast.Highlight)
	return node, n, node != nil
}

type highlightParser struct{}

// NewHighlightParser returns an inline parser for ==highlights==.
func NewHighlightParser() parser.InlineParser {
	return &highlightParser{}
}

func (p *highlightParser) Trigger() []byte {
	return []byte{'='}
}

func (p *highlightParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, segment := block.PeekLine()
	node, n, ok := ScanHighlight(line, segment.Start)
	if !ok {
		return nil
	}
	block.Advance(n)
	return node
}

type highlightExtension struct{}

// Highlight is the goldmark extension for ==highlighted== text.
var Highlight goldmark.Extender = &highlightExtension{}

func (e *highlightExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewHighlightParser(), highlightParserPriority),
		),
	)
}
