package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Policy returns the sanitizing policy applied by WithSanitize: user
// generated content rules plus the elements and attributes the node
// renderers emit.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowDataAttributes()

	p.AllowElements("mark", "figure", "figcaption", "details", "summary")
	p.AllowAttrs("open").Matching(regexp.MustCompile(`^(|open)$`)).OnElements("details")

	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_(blank|self)$`)).OnElements("a")
	p.AllowElements("inkwell-link")
	p.AllowAttrs("href").OnElements("inkwell-link")

	p.AllowAttrs("width", "height", "loading").OnElements("img")
	p.AllowElements("audio", "video", "source")
	p.AllowAttrs("src", "controls").OnElements("audio")
	p.AllowAttrs("controls").OnElements("video")
	p.AllowAttrs("src", "type").OnElements("source")
	p.AllowElements("object")
	p.AllowAttrs("data", "type").OnElements("object")
	return p
}
