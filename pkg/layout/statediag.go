package layout

import (
	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
)

// Composite state sizing. Children stack vertically inside the frame with
// routing lanes kept clear on both sides for inner transitions.
const (
	stateChildGap  = 20.0
	stateInnerPad  = 16.0
	stateRouteLane = 40.0
)

// State lays out the top-level states of a state diagram; composite
// children are placed by the renderer inside their parent's frame, so
// only the outer boxes participate here. Start and end markers are fixed
// 24-unit dots. Diagrams without top-level transitions fall back to a
// grid.
func (e *Engine) State(sd *ast.StateDiagram) *Result {
	if len(sd.States) == 0 {
		return &Result{Positions: map[string]Rect{}, Waypoints: map[dag.EdgeKey][]Point{}}
	}

	ids := make([]string, len(sd.States))
	known := make(map[string]bool, len(sd.States))
	sizes := make(map[string]Size, len(sd.States))
	for i := range sd.States {
		st := &sd.States[i]
		ids[i] = st.ID
		known[st.ID] = true
		sizes[st.ID] = e.StateSize(st)
	}

	var edges []dag.Edge
	for _, tr := range sd.Transitions {
		if known[tr.From] && known[tr.To] {
			edges = append(edges, dag.Edge{From: tr.From, To: tr.To, MinLength: 1})
		}
	}

	if len(edges) == 0 {
		return layoutGrid(ids, sizes, 40, 40, 120, 95)
	}
	return e.layoutLayered(ids, edges, sizes, ast.DirTopDown)
}

// StateSize measures one state box. Composite states grow to hold their
// children stacked vertically, plus the header band and routing lanes.
// The renderer uses the same recursion to place children, so the two must
// stay in step.
func (e *Engine) StateSize(st *ast.State) Size {
	if st.Start || st.End {
		return Size{24, 24}
	}

	labelW := e.textWidth(st.Label, e.fontSize)
	baseW := max(labelW+e.PaddingH*2, 120)
	baseH := max(e.fontSize*2.2, 40)

	if !st.Composite || len(st.Children) == 0 {
		return Size{baseW, baseH}
	}

	maxChildW, totalChildH := 0.0, 0.0
	for i := range st.Children {
		child := &st.Children[i]
		if child.ID == st.ID {
			continue
		}
		s := e.StateSize(child)
		maxChildW = max(maxChildW, s.W)
		totalChildH += s.H
	}
	if maxChildW == 0 {
		return Size{baseW, baseH}
	}
	if n := len(st.Children); n > 1 {
		totalChildH += stateChildGap * float64(n-1)
	}

	headerH := e.fontSize*2 + 16
	w := max(baseW, maxChildW+stateInnerPad*2+stateRouteLane*2)
	h := headerH + totalChildH + stateInnerPad*2
	return Size{w, h}
}
