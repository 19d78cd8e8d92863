package transform

import (
	"github.com/yuin/goldmark/ast"

	"github.com/starford/inkwell/internal/mdast"
	"github.com/starford/inkwell/internal/media"
)

func isMedia(kind mdast.MediaType) func(ast.Node) bool {
	return func(n ast.Node) bool {
		m, ok := n.(*mdast.Media)
		return ok && m.MediaType == kind
	}
}

// images rewrites markdown images and image embeds into sized Image nodes.
func (r *run) images() {
	match := func(n ast.Node) bool {
		return is[*ast.Image](n) || isMedia(mdast.MediaImage)(n)
	}
	for _, n := range collect(r.doc.Root, match) {
		var img *mdast.Image
		switch t := n.(type) {
		case *ast.Image:
			img = &mdast.Image{
				Src:   string(t.Destination),
				Alt:   mdast.PlainText(t, r.doc.Source),
				Title: string(t.Title),
			}
		case *mdast.Media:
			img = &mdast.Image{Src: t.URL, Alt: t.Alt, Title: t.Title}
		}
		img.Width, img.Height = r.displaySize(img.Src)
		mdast.Replace(n, img)
	}
}

func (r *run) displaySize(src string) (int, int) {
	if r.p.cfg.Media == nil || isExternal(src) {
		return media.DefaultWidth, media.DefaultHeight
	}
	return r.p.cfg.Media.DisplaySize(src, r.p.cfg.ImageMaxWidth)
}

func (r *run) audio() {
	for _, n := range collect(r.doc.Root, isMedia(mdast.MediaAudio)) {
		m := n.(*mdast.Media)
		mdast.Replace(m, &mdast.Audio{Src: m.URL, Controls: true})
	}
}

func (r *run) video() {
	for _, n := range collect(r.doc.Root, isMedia(mdast.MediaVideo)) {
		m := n.(*mdast.Media)
		mdast.Replace(m, &mdast.Video{Src: m.URL, MIME: media.VideoType(m.URL)})
	}
}
