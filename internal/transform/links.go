package transform

import (
	"log/slog"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/mdast"
)

// wikiLinks resolves every wikilink: embeds are inlined, plain links become
// hyperlinks or not-found placeholders.
func (r *run) wikiLinks() {
	for _, n := range collect(r.doc.Root, is[*mdast.WikiLink]) {
		wl := n.(*mdast.WikiLink)
		if wl.Parent() == nil {
			continue
		}
		if wl.Embed {
			r.embed(wl)
			continue
		}
		mdast.Replace(wl, r.link(wl))
	}
}

func isExternal(target string) bool {
	t := strings.ToLower(target)
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://")
}

func (r *run) link(wl *mdast.WikiLink) ast.Node {
	label := wl.Title
	if label == "" {
		label = wl.Target
	}
	if insideLink(wl) {
		return ast.NewString([]byte(label))
	}

	if isExternal(wl.Target) {
		return anchor(wl.Target, label, true)
	}

	href, ok := r.href(wl.Target)
	if !ok {
		r.logger.Warn("transform: page not found", slog.String("target", wl.Target))
		return &mdast.NotFound{Target: wl.Target, Label: label}
	}
	if r.p.cfg.LinkForm == LinkFormComponent {
		return &mdast.LinkComponent{Href: href, Label: label}
	}
	return anchor(href, label, false)
}

// insideLink reports whether n is part of a link label.
func insideLink(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.Link); ok {
			return true
		}
	}
	return false
}

// href resolves an internal target, keeping its #fragment.
func (r *run) href(target string) (string, bool) {
	file, fragment, hasFragment := strings.Cut(target, "#")
	file = strings.TrimSpace(file)
	if file == "" {
		if !hasFragment {
			return "", false
		}
		return "#" + headingID(fragment), true
	}
	url, ok := r.p.cfg.Permalinks.Lookup(Key(file))
	if !ok {
		return "", false
	}
	if hasFragment && fragment != "" {
		url += "#" + headingID(fragment)
	}
	return url, true
}

func anchor(href, label string, external bool) *ast.Link {
	link := ast.NewLink()
	link.Destination = []byte(href)
	if external {
		link.SetAttributeString("target", []byte("_blank"))
		link.SetAttributeString("rel", []byte("nofollow"))
	} else {
		link.SetAttributeString("target", []byte("_self"))
	}
	link.AppendChild(link, ast.NewString([]byte(label)))
	return link
}

// headingID turns heading text into the id goldmark's auto heading ids
// give it: ASCII letters and digits lower-cased, spaces, '-' and '_' as
// '-', everything else dropped.
func headingID(text string) string {
	var b strings.Builder
	for _, c := range strings.TrimSpace(text) {
		switch {
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + 'a' - 'A')
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ', c == '\t', c == '-', c == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "heading"
	}
	return b.String()
}
