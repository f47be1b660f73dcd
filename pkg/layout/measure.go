package layout

// Measurer estimates rendered text width. Implementations do not need to
// be exact; the layout leaves padding around every label, so a consistent
// estimate within a few percent keeps diagrams readable.
type Measurer interface {
	TextWidth(text string, size float64) float64
}

// charWidthFactor approximates the average advance of a sans-serif glyph
// as a fraction of the font size.
const charWidthFactor = 0.6

// Proportional estimates width as rune count times a fixed per-character
// advance. It is the fallback measurer and the one used in tests, where
// exact geometry would make every expectation font-dependent.
type Proportional struct{}

func (Proportional) TextWidth(text string, size float64) float64 {
	n := 0
	for range text {
		n++
	}
	return float64(n) * size * charWidthFactor
}
