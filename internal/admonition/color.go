package admonition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned for a color in a recognised notation whose
// components cannot be read.
var ErrInvalidColor = errors.New("admonition: invalid color")

// NormalizeColor converts rgb(), #hex, hsl() and hsb()/hsv() notations to
// "r, g, b". Strings in any other notation are returned unchanged.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	var (
		c   colorful.Color
		err error
	)
	switch {
	case strings.HasPrefix(lower, "rgb"):
		var v []float64
		if v, err = components(lower, "rgb"); err == nil {
			return triple(clamp255(v[0]), clamp255(v[1]), clamp255(v[2])), nil
		}
	case strings.HasPrefix(lower, "#"):
		c, err = colorful.Hex(lower)
	case strings.HasPrefix(lower, "hsl"):
		var v []float64
		if v, err = components(lower, "hsl"); err == nil {
			c = colorful.Hsl(v[0], v[1]/100, v[2]/100)
		}
	case strings.HasPrefix(lower, "hsb"), strings.HasPrefix(lower, "hsv"):
		var v []float64
		if v, err = components(lower, lower[:3]); err == nil {
			c = colorful.Hsv(v[0], v[1]/100, v[2]/100)
		}
	default:
		return s, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.Clamped().RGB255()
	return triple(int(r), int(g), int(b)), nil
}

// components reads the three comma separated numbers of fn(a, b, c).
// Percent signs are ignored.
func components(s, fn string) ([]float64, error) {
	inner, ok := strings.CutPrefix(s, fn+"(")
	if !ok {
		return nil, errors.New("missing (")
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return nil, errors.New("missing )")
	}
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want 3 components, got %d", len(parts))
	}
	out := make([]float64, 3)
	for i, part := range parts {
		part = strings.TrimSuffix(strings.TrimSpace(part), "%")
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func clamp255(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v + 0.5)
}

func triple(r, g, b int) string {
	return fmt.Sprintf("%d, %d, %d", r, g, b)
}
