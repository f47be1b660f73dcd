package layout

import (
	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
)

// ER lays out an entity-relationship diagram. Related entities flow left
// to right so crow's-foot markers sit on horizontal runs; diagrams with
// no relationships fall back to a grid.
func (e *Engine) ER(ed *ast.ERDiagram) *Result {
	if len(ed.Entities) == 0 {
		return &Result{Positions: map[string]Rect{}, Waypoints: map[dag.EdgeKey][]Point{}}
	}

	ids := make([]string, len(ed.Entities))
	sizes := make(map[string]Size, len(ed.Entities))
	for i := range ed.Entities {
		ids[i] = ed.Entities[i].Name
		sizes[ids[i]] = e.erSize(&ed.Entities[i])
	}

	if len(ed.Relationships) == 0 {
		return layoutGrid(ids, sizes, 40, 40, 180, 140)
	}

	edges := make([]dag.Edge, len(ed.Relationships))
	for i, rel := range ed.Relationships {
		edges[i] = dag.Edge{From: rel.From, To: rel.To, MinLength: 1}
	}
	return e.layoutLayered(ids, edges, sizes, ast.DirLeftRight)
}

// erSize sizes an entity box: a title band plus one row per attribute.
// Key attributes render bracketed, which widens their row slightly.
func (e *Engine) erSize(ent *ast.EREntity) Size {
	attrFont := e.fontSize * 0.85

	maxW := e.textWidth(ent.Name, e.fontSize)
	for _, a := range ent.Attributes {
		name := a.Name
		if a.IsKey() {
			name = "[" + name + "]"
		}
		maxW = max(maxW, e.textWidth(name, attrFont))
	}

	w := max(maxW+e.PaddingH*2, 150)
	h := max(34+float64(len(ent.Attributes))*(attrFont*1.25)+10, 56)
	return Size{w, h}
}
