package layout

import (
	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
)

// Flowchart lays out a flowchart in its declared direction. Edge
// minimum lengths from lengthened arrows stretch edges across extra
// ranks.
func (e *Engine) Flowchart(fc *ast.Flowchart) *Result {
	if len(fc.Nodes) == 0 {
		return &Result{Positions: map[string]Rect{}, Waypoints: map[dag.EdgeKey][]Point{}}
	}

	ids := make([]string, len(fc.Nodes))
	sizes := make(map[string]Size, len(fc.Nodes))
	for i, n := range fc.Nodes {
		ids[i] = n.ID
		sizes[n.ID] = e.flowchartNodeSize(n.Label, n.Shape)
	}

	edges := make([]dag.Edge, len(fc.Edges))
	for i, edge := range fc.Edges {
		edges[i] = dag.Edge{From: edge.From, To: edge.To, MinLength: edge.MinLength}
	}

	dir := fc.Direction
	if dir == "" {
		dir = ast.DirTopDown
	}
	return e.layoutLayered(ids, edges, sizes, dir)
}

// flowchartNodeSize measures the label and applies per-shape slack:
// slanted and pointed shapes lose horizontal room to their sides, round
// shapes need the label inside the curve.
func (e *Engine) flowchartNodeSize(label string, shape ast.NodeShape) Size {
	lineHeight := e.fontSize * 1.2
	textW, lines := e.multiline(label, e.fontSize)

	w := max(textW+e.PaddingH*2, 56)
	h := max(lineHeight*float64(lines)+e.PaddingV*2, 36)

	switch shape {
	case ast.ShapeCircle:
		s := max(w, h)
		w, h = s, s
	case ast.ShapeDoubleCircle:
		s := max(w, h) + 8
		w, h = s, s
	case ast.ShapeRhombus:
		w += 26
		h += 16
	case ast.ShapeHexagon:
		w += 24
	case ast.ShapeParallelogram, ast.ShapeParallelogramAlt:
		w += 20
	case ast.ShapeTrapezoid, ast.ShapeTrapezoidAlt:
		w += 16
	case ast.ShapeStadium:
		h = max(h, 40)
		w = max(w, h+20)
	case ast.ShapeCylinder:
		h += 24
	case ast.ShapeSubroutine:
		w += 16
	}
	return Size{w, h}
}
