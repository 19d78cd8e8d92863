// Package transform rewrites parsed vault documents into their publishable
// form: wikilinks become hyperlinks, embeds are inlined, media is published
// and fenced faq/admonition blocks are expanded.
package transform

import (
	"log/slog"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/media"
	"github.com/starford/inkwell/internal/storage"
)

// LinkForm selects how resolved internal wikilinks are emitted.
type LinkForm string

const (
	// LinkFormAnchor emits plain <a> links.
	LinkFormAnchor LinkForm = "anchor"
	// LinkFormComponent emits LinkComponent nodes.
	LinkFormComponent LinkForm = "component"
)

// PermalinkIndex maps a document key (relative path without extension) to
// its published URL.
type PermalinkIndex interface {
	Lookup(key string) (string, bool)
}

// Permalinks is an in-memory PermalinkIndex.
type Permalinks map[string]string

// Lookup implements PermalinkIndex.
func (p Permalinks) Lookup(key string) (string, bool) {
	url, ok := p[key]
	return url, ok && url != ""
}

// Config holds the collaborators and settings of a Pipeline.
type Config struct {
	// Source is the markdown root embedded documents are read from.
	Source storage.Provider
	// Media publishes media embeds into the public root.
	Media *media.Resolver
	// Permalinks resolves internal wikilinks. Nil resolves nothing.
	Permalinks PermalinkIndex
	// ImageMaxWidth caps image display widths; 0 disables scaling.
	ImageMaxWidth int
	LinkForm      LinkForm
	// Parser parses embedded documents. Defaults to markdown.NewParser().
	Parser *markdown.Parser
	Logger *slog.Logger
}

// Pipeline applies the document rewrites. It holds no per-document state
// and may be shared by concurrent builds.
type Pipeline struct {
	cfg Config
}

// New returns a Pipeline for cfg.
func New(cfg Config) *Pipeline {
	if cfg.Parser == nil {
		cfg.Parser = markdown.NewParser()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Permalinks == nil {
		cfg.Permalinks = Permalinks{}
	}
	if cfg.LinkForm == "" {
		cfg.LinkForm = LinkFormAnchor
	}
	return &Pipeline{cfg: cfg}
}

// Transform rewrites doc in place. key identifies doc for embed cycle
// detection; it is the document path relative to the markdown root,
// without the .md extension. Recoverable problems are logged and the
// offending node is replaced or dropped.
func (p *Pipeline) Transform(doc *markdown.Document, key string) {
	r := &run{
		p:         p,
		doc:       doc,
		key:       Key(key),
		resolving: map[string]bool{Key(key): true},
		logger:    p.cfg.Logger.With(slog.String("document", Key(key))),
	}
	r.transform()
	uniqueIDs(doc.Root)
}

// Key normalises a document path into an index key: "/"-separated,
// without a leading slash or a .md extension.
func Key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
	return strings.TrimSuffix(p, ".md")
}

// run is the state of one Transform call. Embedded documents get their own
// run sharing the resolving set.
type run struct {
	p         *Pipeline
	doc       *markdown.Document
	key       string
	resolving map[string]bool
	logger    *slog.Logger
}

func (r *run) transform() {
	r.tables()
	r.code()
	r.wikiLinks()
	r.images()
	r.audio()
	r.video()
	r.figures()
	r.headings()
}

// collect returns the nodes below root that match, in document order. Passes
// collect before rewriting so splicing never disturbs the walk.
func collect(root ast.Node, match func(ast.Node) bool) []ast.Node {
	var out []ast.Node
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && match(n) {
			out = append(out, n)
		}
		return ast.WalkContinue, nil
	})
	return out
}

func is[T ast.Node](n ast.Node) bool {
	_, ok := n.(T)
	return ok
}
