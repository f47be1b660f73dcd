package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// rgb is a color with channels in [0,1].
type rgb struct {
	r, g, b float64
}

// parseHex parses "#rrggbb" into channel values. Short "#rgb" form is
// expanded before parsing.
func parseHex(value string) (rgb, bool) {
	hex := strings.TrimPrefix(value, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}, false
	}
	r, err1 := strconv.ParseUint(hex[0:2], 16, 8)
	g, err2 := strconv.ParseUint(hex[2:4], 16, 8)
	b, err3 := strconv.ParseUint(hex[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return rgb{}, false
	}
	return rgb{float64(r) / 255, float64(g) / 255, float64(b) / 255}, true
}

func (c rgb) hex() string {
	clamp := func(v float64) uint8 {
		return uint8(math.Round(math.Min(1, math.Max(0, v)) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.r), clamp(c.g), clamp(c.b))
}

// Luminance returns the WCAG relative luminance of a hex color, 0 for
// black through 1 for white. Unparsable input yields 0.
func Luminance(color string) float64 {
	c, ok := parseHex(color)
	if !ok {
		return 0
	}
	linear := func(v float64) float64 {
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*linear(c.r) + 0.7152*linear(c.g) + 0.0722*linear(c.b)
}

// ContrastRatio returns the WCAG contrast ratio between two hex colors,
// from 1 (identical) to 21 (black on white). Unparsable input yields 0.
func ContrastRatio(a, b string) float64 {
	if _, ok := parseHex(a); !ok {
		return 0
	}
	if _, ok := parseHex(b); !ok {
		return 0
	}
	l1, l2 := Luminance(a), Luminance(b)
	hi, lo := l1, l2
	if l2 > l1 {
		hi, lo = l2, l1
	}
	return (hi + 0.05) / (lo + 0.05)
}

// Mix blends base toward fg by t: t=0 returns base, t=1 returns fg.
// Unparsable colors fall back to a light base and dark foreground so a
// bad theme still yields a readable result.
func Mix(base, fg string, t float64) string {
	bc, ok := parseHex(base)
	if !ok {
		bc = rgb{0.95, 0.95, 0.95}
	}
	fc, ok := parseHex(fg)
	if !ok {
		fc = rgb{0.2, 0.2, 0.2}
	}
	return rgb{
		r: bc.r*(1-t) + fc.r*t,
		g: bc.g*(1-t) + fc.g*t,
		b: bc.b*(1-t) + fc.b*t,
	}.hex()
}

// pickHigherContrast returns whichever of primary or secondary reads
// better against base.
func pickHigherContrast(base, primary, secondary string) string {
	if ContrastRatio(base, secondary) > ContrastRatio(base, primary) {
		return secondary
	}
	return primary
}
