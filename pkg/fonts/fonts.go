// Package fonts provides embedded glyph metrics for text measurement.
//
// The metrics are embedded directly into the binary using go:embed, so
// width estimation needs no font files at runtime. The table carries the
// standard advance widths of a Helvetica-compatible sans face, which is
// what browsers substitute for the generic sans-serif family the SVG
// output requests.
package fonts

import (
	_ "embed"
	"encoding/json"
	"sync"
)

//go:embed sans-widths.json
var sansWidthsJSON []byte

type metrics struct {
	Family       string          `json:"family"`
	UnitsPerEm   float64         `json:"unitsPerEm"`
	DefaultWidth float64         `json:"defaultWidth"`
	Widths       map[string]uint `json:"widths"`
}

var (
	sansOnce   sync.Once
	sansWidths [128]float64
	sansOther  float64
)

func loadSans() {
	var m metrics
	if err := json.Unmarshal(sansWidthsJSON, &m); err != nil {
		// The table ships inside the binary; treat damage as a build
		// defect and fall back to a flat estimate.
		for i := range sansWidths {
			sansWidths[i] = 0.6
		}
		sansOther = 0.6
		return
	}
	sansOther = m.DefaultWidth / m.UnitsPerEm
	for i := range sansWidths {
		sansWidths[i] = sansOther
	}
	for key, units := range m.Widths {
		var r int
		for _, c := range key {
			r = r*10 + int(c-'0')
		}
		if r >= 0 && r < len(sansWidths) {
			sansWidths[r] = float64(units) / m.UnitsPerEm
		}
	}
}

// Sans measures text using the embedded sans-serif advance widths. It
// implements the layout engine's Measurer interface.
type Sans struct{}

// TextWidth returns the estimated rendered width of text at the given
// font size in pixels. Runes outside the table use an average advance.
func (Sans) TextWidth(text string, size float64) float64 {
	sansOnce.Do(loadSans)
	var w float64
	for _, r := range text {
		if r < 128 {
			w += sansWidths[r]
		} else {
			w += sansOther
		}
	}
	return w * size
}

// FontFamily is the CSS font-family the SVG renderer requests by default.
const FontFamily = "sans-serif"
