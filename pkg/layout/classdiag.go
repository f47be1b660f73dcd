package layout

import (
	"strings"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
)

// Class lays out a class diagram. Related classes use the layered layout
// top-down; a diagram with no relations falls back to a grid.
func (e *Engine) Class(cd *ast.ClassDiagram) *Result {
	if len(cd.Classes) == 0 {
		return &Result{Positions: map[string]Rect{}, Waypoints: map[dag.EdgeKey][]Point{}}
	}

	ids := make([]string, len(cd.Classes))
	sizes := make(map[string]Size, len(cd.Classes))
	for i, cls := range cd.Classes {
		ids[i] = cls.Name
		sizes[cls.Name] = e.classSize(&cd.Classes[i])
	}

	if len(cd.Relations) == 0 {
		return layoutGrid(ids, sizes, 40, 40, 140, 110)
	}

	edges := make([]dag.Edge, len(cd.Relations))
	for i, rel := range cd.Relations {
		edges[i] = dag.Edge{From: rel.From, To: rel.To, MinLength: 1}
	}
	return e.layoutLayered(ids, edges, sizes, ast.DirTopDown)
}

// VisibilitySymbol returns the UML prefix for a member's visibility.
func VisibilitySymbol(v ast.Visibility) string {
	switch v {
	case ast.VisPrivate:
		return "-"
	case ast.VisProtected:
		return "#"
	case ast.VisPackage:
		return "~"
	default:
		return "+"
	}
}

// AttributeText formats an attribute row the way the renderer prints it.
func AttributeText(a ast.ClassAttribute) string {
	if a.Type != "" {
		return VisibilitySymbol(a.Visibility) + " " + a.Name + ": " + a.Type
	}
	return VisibilitySymbol(a.Visibility) + " " + a.Name
}

// MethodText formats a method row the way the renderer prints it.
func MethodText(m ast.ClassMethod) string {
	text := VisibilitySymbol(m.Visibility) + " " + m.Name + "(" + strings.Join(m.Params, ", ") + ")"
	if m.Returns != "" {
		text += ": " + m.Returns
	}
	return text
}

// classSize sizes the three-compartment class box: header, attributes,
// methods. Member rows use the smaller member font.
func (e *Engine) classSize(cls *ast.ClassDefinition) Size {
	memberFont := e.fontSize * 0.85
	lineH := memberFont * 1.2

	maxW := max(e.textWidth(cls.Name, e.fontSize), 120)
	for _, a := range cls.Attributes {
		maxW = max(maxW, e.textWidth(AttributeText(a), memberFont))
	}
	for _, m := range cls.Methods {
		maxW = max(maxW, e.textWidth(MethodText(m), memberFont))
	}

	w := max(maxW+e.PaddingH*2, 180)

	h := e.fontSize + 16
	if n := len(cls.Attributes); n > 0 {
		h += float64(n)*lineH + 8
	} else {
		h += 8
	}
	if n := len(cls.Methods); n > 0 {
		h += float64(n)*lineH + 10
	}
	// Room for descenders on the last member row.
	h += 10
	return Size{w, max(h, 64)}
}
