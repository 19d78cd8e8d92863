// Package extension provides the goldmark inline syntax inkwell adds on top
// of CommonMark: [[wikilinks]], ![[embeds]] and ==highlights==.
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

// goldmark's link parser sits at 200; wikilinks must be tried first.
const wikiLinkParserPriority = 199

const (
	tokWikiLink         tokenizer.Kind = "wikiLink"
	tokWikiLinkMarker   tokenizer.Kind = "wikiLinkMarker"
	tokWikiLinkData     tokenizer.Kind = "wikiLinkData"
	tokWikiLinkTarget   tokenizer.Kind = "wikiLinkTarget"
	tokWikiLinkAliasDiv tokenizer.Kind = "wikiLinkAliasMarker"
	tokWikiLinkAlias    tokenizer.Kind = "wikiLinkAlias"
)

type wikiLinkState uint8

const (
	wikiLinkStart wikiLinkState = iota
	wikiLinkStartMarker
	wikiLinkData
	wikiLinkTarget
	wikiLinkAliasMarker
	wikiLinkAlias
	wikiLinkEndMarker
)

// wikiLinkScanner recognizes [[target]], [[target|alias]] and the embed
// form ![[...]].
type wikiLinkScanner struct {
	state     wikiLinkState
	startLen  int
	endLen    int
	hasTarget bool
	hasAlias  bool
}

func (s *wikiLinkScanner) Step(fx *tokenizer.Effects, code tokenizer.Code) tokenizer.Result {
	switch s.state {
	case wikiLinkStart:
		switch code {
		case '!':
			fx.EnterEmbed(tokWikiLink)
			fx.EnterEmbed(tokWikiLinkMarker)
			fx.Consume(code)
		case '[':
			fx.Enter(tokWikiLink)
			fx.Enter(tokWikiLinkMarker)
		default:
			return tokenizer.NOK
		}
		s.state = wikiLinkStartMarker
		return tokenizer.Continue

	case wikiLinkStartMarker:
		if s.startLen == 2 {
			fx.Exit(tokWikiLinkMarker)
			s.state = wikiLinkData
			return tokenizer.Continue
		}
		if code != '[' {
			return tokenizer.NOK
		}
		fx.Consume(code)
		s.startLen++
		return tokenizer.Continue

	case wikiLinkData:
		if tokenizer.IsLineEndingOrEOF(code) {
			return tokenizer.NOK
		}
		fx.Enter(tokWikiLinkData)
		fx.Enter(tokWikiLinkTarget)
		s.state = wikiLinkTarget
		return tokenizer.Continue

	case wikiLinkTarget:
		switch {
		case code == '|':
			if !s.hasTarget {
				return tokenizer.NOK
			}
			fx.Exit(tokWikiLinkTarget)
			fx.Enter(tokWikiLinkAliasDiv)
			s.state = wikiLinkAliasMarker
			return tokenizer.Continue
		case code == ']':
			if !s.hasTarget {
				return tokenizer.NOK
			}
			fx.Exit(tokWikiLinkTarget)
			fx.Exit(tokWikiLinkData)
			fx.Enter(tokWikiLinkMarker)
			s.state = wikiLinkEndMarker
			return tokenizer.Continue
		case tokenizer.IsLineEndingOrEOF(code):
			return tokenizer.NOK
		}
		if !tokenizer.IsWhitespace(code) {
			s.hasTarget = true
		}
		fx.Consume(code)
		return tokenizer.Continue

	case wikiLinkAliasMarker:
		if code != '|' {
			return tokenizer.NOK
		}
		fx.Consume(code)
		fx.Exit(tokWikiLinkAliasDiv)
		fx.Enter(tokWikiLinkAlias)
		s.state = wikiLinkAlias
		return tokenizer.Continue

	case wikiLinkAlias:
		switch {
		case code == ']':
			if !s.hasAlias {
				return tokenizer.NOK
			}
			fx.Exit(tokWikiLinkAlias)
			fx.Exit(tokWikiLinkData)
			fx.Enter(tokWikiLinkMarker)
			s.state = wikiLinkEndMarker
			return tokenizer.Continue
		case tokenizer.IsLineEndingOrEOF(code):
			return tokenizer.NOK
		}
		if !tokenizer.IsWhitespace(code) {
			s.hasAlias = true
		}
		fx.Consume(code)
		return tokenizer.Continue

	case wikiLinkEndMarker:
		if s.endLen == 2 {
			fx.Exit(tokWikiLinkMarker)
			fx.Exit(tokWikiLink)
			return tokenizer.OK
		}
		if code != ']' {
			return tokenizer.NOK
		}
		fx.Consume(code)
		s.endLen++
		return tokenizer.Continue
	}
	return tokenizer.NOK
}

var wikiLinkHandlers = tokenizer.Handlers{
	Enter: map[tokenizer.Kind]tokenizer.Handler{
		tokWikiLink: func(ctx *tokenizer.Context, t tokenizer.Token) {
			ctx.Push(&mdast.WikiLink{Embed: t.Embed})
		},
	},
	Exit: map[tokenizer.Kind]tokenizer.Handler{
		tokWikiLinkTarget: func(ctx *tokenizer.Context, t tokenizer.Token) {
			if n, ok := ctx.Top().(*mdast.WikiLink); ok {
				n.Target = ctx.Serialize(t)
			}
		},
		tokWikiLinkAlias: func(ctx *tokenizer.Context, t tokenizer.Token) {
			if n, ok := ctx.Top().(*mdast.WikiLink); ok {
				n.Title = ctx.Serialize(t)
			}
		},
		tokWikiLink: func(ctx *tokenizer.Context, _ tokenizer.Token) {
			ctx.Pop()
		},
	},
}

// ScanWikiLink matches a wikilink at the start of src. It returns the
// compiled node and the number of bytes it spans.
func ScanWikiLink(src []byte) (*mdast.WikiLink, int, bool) {
	events, n, ok := tokenizer.Scan(src, &wikiLinkScanner{})
	if !ok {
		return nil, 0, false
	}
	node, _ := tokenizer.Compile(src, 0, events, wikiLinkHandlers).(*mdast.WikiLink)
	return node, n, node != nil
}

type wikiLinkParser struct{}

// NewWikiLinkParser returns an inline parser for wikilinks and embeds.
func NewWikiLinkParser() parser.InlineParser {
	return &wikiLinkParser{}
}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'[', '!'}
}

func (p *wikiLinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	node, n, ok := ScanWikiLink(line)
	if !ok {
		return nil
	}
	block.Advance(n)
	return node
}

type wikiLinkExtension struct{}

// WikiLink is the goldmark extension for [[wikilinks]] and ![[embeds]].
var WikiLink goldmark.Extender = &wikiLinkExtension{}

func (e *wikiLinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewWikiLinkParser(), wikiLinkParserPriority),
		),
	)
}
