package layout

import (
	"sort"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
)

// Size is a measured node extent.
type Size struct {
	W, H float64
}

const (
	layeredOriginX = 30.0
	layeredOriginY = 30.0

	// refinePasses is the number of median-alignment iterations run after
	// the initial rank placement.
	refinePasses = 4
)

// layoutLayered runs the full layered pipeline: rank assignment, edge
// subdivision, barycenter ordering, rank-by-rank placement and median
// coordinate refinement. Edges referencing unknown nodes are ignored.
// The direction decides the main axis; BT and RL are laid out as their
// mirror image and flipped at the end.
func (e *Engine) layoutLayered(ids []string, edges []dag.Edge, sizes map[string]Size, dir ast.FlowDirection) *Result {
	res := &Result{
		Positions: make(map[string]Rect),
		Waypoints: make(map[dag.EdgeKey][]Point),
	}
	if len(ids) == 0 {
		return res
	}

	g := dag.New()
	for _, id := range ids {
		s := sizes[id]
		if err := g.AddNode(dag.Node{ID: id, W: s.W, H: s.H}); err != nil {
			continue // duplicate declarations keep the first
		}
	}
	for _, edge := range edges {
		if _, ok := g.Node(edge.From); !ok {
			continue
		}
		if _, ok := g.Node(edge.To); !ok {
			continue
		}
		if err := g.AddEdge(edge); err != nil {
			continue
		}
	}

	reversed := dag.BreakCycles(g)
	dag.AssignRanks(g)
	chains := dag.Subdivide(g)
	dag.OrderRanks(g)

	vertical := dir == ast.DirTopDown || dir == ast.DirBottomUp
	if vertical {
		e.placeVertical(g, res.Positions)
	} else {
		e.placeHorizontal(g, res.Positions)
	}
	e.refine(g, res.Positions, vertical)

	for key, chain := range chains {
		points := make([]Point, 0, len(chain))
		for _, dummyID := range chain {
			if p, ok := res.Positions[dummyID]; ok {
				points = append(points, p.Center())
			}
		}
		if len(points) > 0 {
			res.Waypoints[key] = points
		}
	}
	for _, n := range g.Nodes() {
		if n.IsDummy() {
			delete(res.Positions, n.ID)
		}
	}

	// Edges reversed to break cycles were subdivided in their reversed
	// orientation; hand their waypoints back under the original key, in
	// source-to-target order. The flipped key stays when the diagram also
	// declares an edge in that direction.
	if len(reversed) > 0 {
		declared := make(map[dag.EdgeKey]bool, len(edges))
		for _, edge := range edges {
			declared[dag.EdgeKey{From: edge.From, To: edge.To}] = true
		}
		for _, key := range reversed {
			flipped := dag.EdgeKey{From: key.To, To: key.From}
			points, ok := res.Waypoints[flipped]
			if !ok {
				continue
			}
			back := make([]Point, len(points))
			for i, p := range points {
				back[len(points)-1-i] = p
			}
			res.Waypoints[key] = back
			if !declared[flipped] {
				delete(res.Waypoints, flipped)
			}
		}
	}

	normalize(res, layeredOriginX, layeredOriginY)
	res.Bounds = boundsOf(res.Positions)

	switch dir {
	case ast.DirBottomUp:
		bottom := res.Bounds.Bottom()
		for id, p := range res.Positions {
			p.Y = bottom - (p.Y + p.H)
			res.Positions[id] = p
		}
		for key, points := range res.Waypoints {
			for i := range points {
				points[i].Y = bottom - points[i].Y
			}
			res.Waypoints[key] = points
		}
		res.Bounds = boundsOf(res.Positions)
	case ast.DirRightLeft:
		right := res.Bounds.Right()
		for id, p := range res.Positions {
			p.X = right - (p.X + p.W)
			res.Positions[id] = p
		}
		for key, points := range res.Waypoints {
			for i := range points {
				points[i].X = right - points[i].X
			}
			res.Waypoints[key] = points
		}
		res.Bounds = boundsOf(res.Positions)
	}
	return res
}

// placeVertical stacks ranks top to bottom, centering each rank within
// the widest one.
func (e *Engine) placeVertical(g *dag.Graph, positions map[string]Rect) {
	rankIDs := g.RankIDs()

	widths := make([]float64, len(rankIDs))
	maxWidth := 0.0
	for i, rank := range rankIDs {
		nodes := g.NodesInRank(rank)
		w := 0.0
		for _, n := range nodes {
			w += n.W
		}
		if len(nodes) > 1 {
			w += e.SpacingX * float64(len(nodes)-1)
		}
		widths[i] = w
		maxWidth = max(maxWidth, w)
	}

	y := layeredOriginY
	for i, rank := range rankIDs {
		x := layeredOriginX + (maxWidth-widths[i])/2
		rankH := 0.0
		for _, n := range g.NodesInRank(rank) {
			positions[n.ID] = Rect{X: x, Y: y, W: n.W, H: n.H}
			x += n.W + e.SpacingX
			rankH = max(rankH, n.H)
		}
		y += rankH + e.SpacingY
	}
}

// placeHorizontal stacks ranks left to right, centering each rank within
// the tallest one.
func (e *Engine) placeHorizontal(g *dag.Graph, positions map[string]Rect) {
	rankIDs := g.RankIDs()

	heights := make([]float64, len(rankIDs))
	maxHeight := 0.0
	for i, rank := range rankIDs {
		nodes := g.NodesInRank(rank)
		h := 0.0
		for _, n := range nodes {
			h += n.H
		}
		if len(nodes) > 1 {
			h += e.SpacingY * float64(len(nodes)-1)
		}
		heights[i] = h
		maxHeight = max(maxHeight, h)
	}

	x := layeredOriginX
	for i, rank := range rankIDs {
		y := layeredOriginY + (maxHeight-heights[i])/2
		rankW := 0.0
		for _, n := range g.NodesInRank(rank) {
			positions[n.ID] = Rect{X: x, Y: y, W: n.W, H: n.H}
			y += n.H + e.SpacingY
			rankW = max(rankW, n.W)
		}
		x += rankW + e.SpacingX
	}
}

// refine aligns each node with the median center of its neighbors, then
// re-enforces the minimum spacing inside the rank. Forward passes pull
// nodes toward their parents, backward passes toward their children;
// alternating the two settles long chains onto straight lines.
func (e *Engine) refine(g *dag.Graph, positions map[string]Rect, vertical bool) {
	rankIDs := g.RankIDs()

	align := func(id string, neighbors []string) {
		centers := make([]float64, 0, len(neighbors))
		for _, nb := range neighbors {
			p, ok := positions[nb]
			if !ok {
				continue
			}
			if vertical {
				centers = append(centers, p.CenterX())
			} else {
				centers = append(centers, p.CenterY())
			}
		}
		if len(centers) == 0 {
			return
		}
		sort.Float64s(centers)
		median := centers[len(centers)/2]
		p := positions[id]
		if vertical {
			p.X = median - p.W/2
		} else {
			p.Y = median - p.H/2
		}
		positions[id] = p
	}

	respace := func(rank int) {
		prevEdge := 0.0
		first := true
		for _, n := range g.NodesInRank(rank) {
			p := positions[n.ID]
			if vertical {
				if !first {
					p.X = max(p.X, prevEdge+e.SpacingX)
				}
				prevEdge = p.X + p.W
			} else {
				if !first {
					p.Y = max(p.Y, prevEdge+e.SpacingY)
				}
				prevEdge = p.Y + p.H
			}
			positions[n.ID] = p
			first = false
		}
	}

	for pass := 0; pass < refinePasses; pass++ {
		for i := 1; i < len(rankIDs); i++ {
			for _, n := range g.NodesInRank(rankIDs[i]) {
				align(n.ID, g.Parents(n.ID))
			}
			respace(rankIDs[i])
		}
		for i := len(rankIDs) - 2; i >= 0; i-- {
			for _, n := range g.NodesInRank(rankIDs[i]) {
				align(n.ID, g.Children(n.ID))
			}
			respace(rankIDs[i])
		}
	}
}

// normalize shifts everything so the top-left of the content sits at the
// target origin.
func normalize(res *Result, targetX, targetY float64) {
	if len(res.Positions) == 0 {
		return
	}
	first := true
	var minX, minY float64
	for _, p := range res.Positions {
		if first {
			minX, minY = p.X, p.Y
			first = false
			continue
		}
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
	}
	dx, dy := targetX-minX, targetY-minY
	if dx > -0.01 && dx < 0.01 && dy > -0.01 && dy < 0.01 {
		return
	}
	for id, p := range res.Positions {
		p.X += dx
		p.Y += dy
		res.Positions[id] = p
	}
	for key, points := range res.Waypoints {
		for i := range points {
			points[i].X += dx
			points[i].Y += dy
		}
		res.Waypoints[key] = points
	}
}
