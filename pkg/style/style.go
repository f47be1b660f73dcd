// Package style derives the color palette and typography used by the
// diagram renderers. A Style is a small set of resolved colors; FromTheme
// builds one from a theme's base colors so diagrams blend into the
// surrounding document instead of using fixed mermaid defaults.
package style

// Mix fractions for the derived palette. Node fills sit just above the
// panel background; strokes and edges step further toward the foreground.
const (
	fillMix   = 0.03
	strokeMix = 0.20
	edgeMix   = 0.30
	labelMix  = 0.60
)

// DefaultFontSize is the base font size for diagram text.
const DefaultFontSize = 13.0

// Style holds the resolved colors and typography for rendering one diagram.
type Style struct {
	NodeFill   string
	NodeStroke string
	NodeText   string
	EdgeStroke string
	EdgeText   string
	Background string
	FontFamily string
	FontSize   float64
}

// Default returns a neutral grey palette on a transparent background.
func Default() Style {
	return Style{
		NodeFill:   "#f5f5f5",
		NodeStroke: "#333333",
		NodeText:   "#333333",
		EdgeStroke: "#333333",
		EdgeText:   "#666666",
		Background: "transparent",
		FontFamily: "sans-serif",
		FontSize:   DefaultFontSize,
	}
}

// FromTheme derives a palette from a theme's text, page background and
// panel background colors. The diagram foreground is whichever of the
// text or page background colors contrasts better against the panel, so
// dark themes get light diagrams without any per-theme tuning. The
// remaining colors are mixes of the panel toward that foreground.
func FromTheme(textColor, background, panelBG string) Style {
	fg := pickHigherContrast(panelBG, textColor, background)
	return Style{
		NodeFill:   Mix(panelBG, fg, fillMix),
		NodeStroke: Mix(panelBG, fg, strokeMix),
		NodeText:   fg,
		EdgeStroke: Mix(panelBG, fg, edgeMix),
		EdgeText:   Mix(panelBG, fg, labelMix),
		Background: background,
		FontFamily: "sans-serif",
		FontSize:   DefaultFontSize,
	}
}
