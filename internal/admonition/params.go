// Package admonition parses the body of ```ad-<kind> fenced blocks into
// callout parameters.
package admonition

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Collapse states.
const (
	CollapseOpen  = "open"
	CollapseClose = "close"
)

// DefaultKind is used when a block's language tag carries no kind.
const DefaultKind = "info"

// Params are the attributes of one admonition block.
type Params struct {
	Type     string
	Title    string
	Collapse string
	Content  string
	Icon     string
	// Color is "r, g, b" or empty.
	Color string
}

var keywords = []string{"title", "collapse", "icon", "color"}

var titleCaser = cases.Title(language.English)

// Kind extracts the admonition kind from a fenced block language tag such
// as "ad-note". It reports false for tags that are not admonitions.
func Kind(lang string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.ToLower(lang), "ad-")
	if !ok {
		return "", false
	}
	end := 0
	for end < len(rest) && isWordByte(rest[end]) {
		end++
	}
	if end == 0 {
		return DefaultKind, true
	}
	return rest[:end], true
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z'
}

// Parse reads the leading keyword lines of body. Each keyword may appear
// once; a repeated keyword or any other line ends the header and the
// remaining lines are the content. A missing or blank title defaults to
// the title-cased kind.
//
// Parse returns ErrInvalidColor together with otherwise complete params
// when the color is in a known format but malformed; Color is left empty.
func Parse(kind, body string) (Params, error) {
	p := Params{Type: kind}
	seen := make(map[string]bool, len(keywords))

	lines := strings.Split(body, "\n")
	skip := 0
	var color string
header:
	for _, line := range lines {
		key, value, ok := keyword(line)
		if !ok || seen[key] {
			break header
		}
		seen[key] = true
		switch key {
		case "title":
			p.Title = value
		case "collapse":
			p.Collapse = value
		case "icon":
			p.Icon = value
		case "color":
			color = value
		}
		skip++
	}
	p.Content = strings.Join(lines[skip:], "\n")

	if p.Collapse == "true" || p.Collapse == "closed" {
		p.Collapse = CollapseClose
	} else {
		p.Collapse = CollapseOpen
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = titleCaser.String(kind)
	}

	if color != "" {
		c, err := NormalizeColor(color)
		if err != nil {
			return p, err
		}
		p.Color = c
	}
	return p, nil
}

func keyword(line string) (key, value string, ok bool) {
	for _, k := range keywords {
		if rest, found := strings.CutPrefix(line, k+":"); found {
			return k, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}
