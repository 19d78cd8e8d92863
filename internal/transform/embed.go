package transform

import (
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/mdast"
	"github.com/starford/inkwell/internal/media"
)

// embed replaces an embed wikilink with the content it references. Media
// resolves to a single node that takes the wikilink's place. Document
// content is spliced in and the parent becomes a div.ref container.
func (r *run) embed(wl *mdast.WikiLink) {
	file, chapter, _ := strings.Cut(wl.Target, "#")
	file = strings.TrimSpace(file)

	if path.Ext(file) != "" {
		node := r.embedMedia(file, wl.Title)
		if node == nil {
			wl.Parent().RemoveChild(wl.Parent(), wl)
			return
		}
		mdast.Replace(wl, node)
		return
	}

	nodes := r.embedDocument(file, strings.TrimSpace(chapter), wl.Title)
	parent := wl.Parent()
	if len(nodes) == 0 {
		parent.RemoveChild(parent, wl)
		return
	}
	mdast.Replace(wl, nodes...)
	mdast.Retag(parent, "div", "ref")
}

func (r *run) embedMedia(file, title string) ast.Node {
	kind, ok := media.KindOf(file)
	if !ok {
		r.logger.Warn("transform: embed dropped",
			slog.String("target", file),
			slog.String("error", apperr.ErrUnsupportedMedia.Error()))
		return nil
	}
	if r.p.cfg.Media == nil {
		r.logger.Warn("transform: embed dropped, no media resolver", slog.String("target", file))
		return nil
	}
	rec, err := r.p.cfg.Media.Resolve(file)
	if err != nil {
		msg := "transform: media resolve failed"
		if errors.Is(err, apperr.ErrSourceNotFound) {
			msg = "transform: media source not found"
		}
		r.logger.Error(msg, slog.String("target", file), slog.String("error", err.Error()))
		return nil
	}

	m := &mdast.Media{MediaType: kind, URL: rec.PublicURI, Title: title, Alt: title}
	if title == "" {
		return m
	}
	fig := &mdast.Figure{Caption: title}
	fig.AppendChild(fig, m)
	return fig
}

// embedDocument reads, optionally narrows to one chapter, and transforms the
// document at file. It returns the transformed top-level nodes, rebased onto
// the host source.
func (r *run) embedDocument(file, chapter, title string) []ast.Node {
	key := Key(file)
	log := r.logger.With(slog.String("target", key))

	if r.resolving[key] {
		log.Error("transform: embed dropped", slog.String("error", apperr.ErrEmbedCycle.Error()))
		return nil
	}
	if r.p.cfg.Source == nil {
		log.Warn("transform: embed dropped, no markdown root")
		return nil
	}

	name := key + ".md"
	ok, err := r.p.cfg.Source.Exists(name)
	if err != nil || !ok {
		log.Warn("transform: embedded document not found")
		return nil
	}
	data, err := r.p.cfg.Source.Read(name)
	if err != nil {
		log.Error("transform: read embedded document", slog.String("error", err.Error()))
		return nil
	}
	doc, err := r.p.cfg.Parser.Parse(data)
	if err != nil {
		log.Error("transform: parse embedded document", slog.String("error", err.Error()))
		return nil
	}

	if chapter != "" && !extractChapter(doc, chapter, title) {
		log.Warn("transform: chapter not found", slog.String("chapter", chapter))
		return nil
	}

	r.resolving[key] = true
	r.sub(doc, key).transform()
	delete(r.resolving, key)

	return r.adopt(doc)
}

// sub returns a run over doc sharing r's resolving set.
func (r *run) sub(doc *markdown.Document, key string) *run {
	return &run{
		p:         r.p,
		doc:       doc,
		key:       key,
		resolving: r.resolving,
		logger:    r.p.cfg.Logger.With(slog.String("document", key)),
	}
}

// adopt appends doc's source to the host source, rebases doc's tree onto
// it and detaches its top-level nodes. Front matter is dropped.
func (r *run) adopt(doc *markdown.Document) []ast.Node {
	offset := len(r.doc.Source)
	r.doc.Source = append(r.doc.Source, doc.Source...)
	mdast.Rebase(doc.Root, doc.Source, offset)

	var out []ast.Node
	for c := doc.Root.FirstChild(); c != nil; {
		next := c.NextSibling()
		doc.Root.RemoveChild(doc.Root, c)
		if !is[*mdast.FrontMatter](c) {
			out = append(out, c)
		}
		c = next
	}
	return out
}
