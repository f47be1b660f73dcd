// Package layout computes node positions, edge waypoints and bounding
// boxes for every diagram kind. Flowcharts, class, state and ER diagrams
// share a Sugiyama-style layered placement built on the dag package;
// sequence diagrams place participants on a horizontal axis and advance a
// vertical cursor through their elements. All coordinates are in SVG user
// units with the origin at the top left.
package layout

import "github.com/markviz/markviz/pkg/dag"

// Point is a coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Center returns the midpoint of the box.
func (r Rect) Center() Point { return Point{r.CenterX(), r.CenterY()} }

// WithPadding grows the box by pad on every side.
func (r Rect) WithPadding(pad float64) Rect {
	return Rect{r.X - pad, r.Y - pad, r.W + 2*pad, r.H + 2*pad}
}

// Contains reports whether the point lies inside the box.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects reports whether two boxes overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Result is the computed geometry for one diagram. Positions hold a box
// per node (participant boxes for sequence diagrams); Waypoints hold the
// intermediate bend points of edges routed through dummy nodes, keyed by
// edge endpoints; Bounds is the envelope the renderer sizes the SVG to.
type Result struct {
	Positions map[string]Rect         `json:"positions"`
	Waypoints map[dag.EdgeKey][]Point `json:"waypoints,omitempty"`
	Bounds    Rect                    `json:"bounds"`
}

// Pos returns the box of the given node and whether it exists.
func (r *Result) Pos(id string) (Rect, bool) {
	p, ok := r.Positions[id]
	return p, ok
}

// Default spacing. These track the renderer's visual density; changing
// them reflows every diagram kind.
const (
	defaultSpacingX     = 64.0
	defaultSpacingY     = 72.0
	defaultLabelPadding = 8.0
	defaultPaddingH     = 18.0
	defaultPaddingV     = 12.0
)

// Engine computes layouts. Spacing fields may be adjusted between calls;
// the zero value is not usable, use New.
type Engine struct {
	measure  Measurer
	fontSize float64

	SpacingX     float64 // horizontal gap between sibling nodes
	SpacingY     float64 // vertical gap between ranks
	LabelPadding float64 // clearance around edge labels
	PaddingH     float64 // node-internal horizontal padding
	PaddingV     float64 // node-internal vertical padding
}

// New creates an engine using the given text measurer and base font size.
// A nil measurer falls back to proportional estimation.
func New(measure Measurer, fontSize float64) *Engine {
	if measure == nil {
		measure = Proportional{}
	}
	return &Engine{
		measure:      measure,
		fontSize:     fontSize,
		SpacingX:     defaultSpacingX,
		SpacingY:     defaultSpacingY,
		LabelPadding: defaultLabelPadding,
		PaddingH:     defaultPaddingH,
		PaddingV:     defaultPaddingV,
	}
}

// FontSize returns the engine's base font size.
func (e *Engine) FontSize() float64 { return e.fontSize }

func (e *Engine) textWidth(text string, size float64) float64 {
	return e.measure.TextWidth(text, size)
}

// multiline returns the widest line and the line count, at least 1.
func (e *Engine) multiline(text string, size float64) (float64, int) {
	maxWidth, lines := 0.0, 0
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			lines++
			if w := e.textWidth(text[start:i], size); w > maxWidth {
				maxWidth = w
			}
			start = i + 1
		}
	}
	return maxWidth, lines
}

func boundsOf(positions map[string]Rect) Rect {
	first := true
	var minX, minY, maxX, maxY float64
	for _, p := range positions {
		if first {
			minX, minY, maxX, maxY = p.X, p.Y, p.Right(), p.Bottom()
			first = false
			continue
		}
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.Right())
		maxY = max(maxY, p.Bottom())
	}
	if first {
		return Rect{}
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}
}
