package layout

import (
	"math"

	"github.com/markviz/markviz/pkg/dag"
)

// layoutGrid places nodes in a near-square grid, used when a diagram has
// no edges to drive a layered layout. Rows are as tall as their tallest
// node; columns advance by each node's own width plus spacing.
func layoutGrid(ids []string, sizes map[string]Size, startX, startY, spacingX, spacingY float64) *Result {
	res := &Result{
		Positions: make(map[string]Rect, len(ids)),
		Waypoints: map[dag.EdgeKey][]Point{},
	}
	if len(ids) == 0 {
		return res
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(ids)))))
	if cols < 1 {
		cols = 1
	}
	rows := (len(ids) + cols - 1) / cols

	rowHeights := make([]float64, rows)
	for idx, id := range ids {
		row := idx / cols
		s := gridSize(sizes, id)
		rowHeights[row] = max(rowHeights[row], s.H)
	}

	for idx, id := range ids {
		col, row := idx%cols, idx/cols
		s := gridSize(sizes, id)
		y := startY + float64(row)*spacingY
		for _, h := range rowHeights[:row] {
			y += h
		}
		x := startX + float64(col)*(s.W+spacingX)
		res.Positions[id] = Rect{X: x, Y: y, W: s.W, H: s.H}
	}

	res.Bounds = boundsOf(res.Positions)
	return res
}

func gridSize(sizes map[string]Size, id string) Size {
	if s, ok := sizes[id]; ok && s.W > 0 {
		return s
	}
	return Size{120, 40}
}
