package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/layout"
)

func (r *renderer) er(ed *ast.ERDiagram) (float64, float64) {
	if len(ed.Entities) == 0 {
		r.buf.WriteString("<g></g>")
		return 100, 50
	}

	res := r.eng.ER(ed)

	obstacles := make([]layout.Rect, 0, len(res.Positions))
	for _, pos := range res.Positions {
		obstacles = append(obstacles, pos)
	}

	var occupied []layout.Rect
	for _, rel := range ed.Relationships {
		from, okFrom := res.Pos(rel.From)
		to, okTo := res.Pos(rel.To)
		if okFrom && okTo {
			r.erRelationship(&r.buf, rel, from, to, obstacles, &occupied)
		}
	}

	for i := range ed.Entities {
		if pos, ok := res.Pos(ed.Entities[i].Name); ok {
			r.erEntity(&ed.Entities[i], pos)
		}
	}

	return res.Bounds.Right() + framePadding, res.Bounds.Bottom() + framePadding
}

func (r *renderer) erEntity(ent *ast.EREntity, pos layout.Rect) {
	fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
		pos.X, pos.Y, pos.W, pos.H, r.style.NodeFill, r.style.NodeStroke)

	y := pos.Y + r.fontSize() + 6
	fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		pos.CenterX(), y, r.style.FontFamily, r.fontSize(), r.style.NodeText, escapeXML(ent.Name))

	y += r.fontSize() + 4
	for _, attr := range ent.Attributes {
		row := attr.Type
		if row != "" {
			row += " "
		}
		name := attr.Name
		if attr.Composite {
			name = "[" + name + "]"
		}
		row += name
		if attr.IsKey() {
			row = "*" + row
		}
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s">%s</text>`,
			pos.X+8, y, r.style.FontFamily, r.fontSize()*0.9, r.style.NodeText, escapeXML(row))
		y += r.fontSize()
	}
}

func (r *renderer) erRelationship(out *bytes.Buffer, rel ast.ERRelationship, from, to layout.Rect, obstacles []layout.Rect, occupied *[]layout.Rect) {
	angle := math.Atan2(to.CenterY()-from.CenterY(), to.CenterX()-from.CenterX())
	p1 := boundaryPoint(from, angle)
	p2 := boundaryPoint(to, angle+math.Pi)

	fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75" />`,
		p1.X, p1.Y, p2.X, p2.Y, r.style.EdgeStroke)

	r.erCardinality(out, rel.FromCardinality, p1.X, p1.Y, angle)
	r.erCardinality(out, rel.ToCardinality, p2.X, p2.Y, angle+math.Pi)

	if rel.Label != "" {
		r.erLabel(out, rel.Label, p1.X, p1.Y, p2.X, p2.Y, obstacles, occupied)
	}
}

// erCardinality draws a crow's-foot marker at an endpoint. The angle
// points from the endpoint into the diagram, along the edge.
func (r *renderer) erCardinality(out *bytes.Buffer, card ast.ERCardinality, x, y, angle float64) {
	ux, uy := math.Cos(angle), math.Sin(angle)
	nx, ny := -uy, ux

	tick := func(dist float64) {
		bx, by := x+ux*dist, y+uy*dist
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			bx+nx*6, by+ny*6, bx-nx*6, by-ny*6, r.style.EdgeStroke)
	}
	zero := func(dist float64) {
		fmt.Fprintf(out, `<circle cx="%.2f" cy="%.2f" r="4.5" fill="%s" stroke="%s" stroke-width="1.2" />`,
			x+ux*dist, y+uy*dist, r.style.Background, r.style.EdgeStroke)
	}
	many := func(dist float64) {
		bx, by := x+ux*dist, y+uy*dist
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			bx, by, x+nx*8, y+ny*8, r.style.EdgeStroke)
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			bx, by, x-nx*8, y-ny*8, r.style.EdgeStroke)
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			bx+ux*10, by+uy*10, x, y, r.style.EdgeStroke)
	}

	switch card {
	case ast.CardExactlyOne:
		tick(8)
		tick(14)
	case ast.CardZeroOrOne:
		zero(8)
		tick(16)
	case ast.CardZeroOrMore:
		zero(8)
		many(16)
	case ast.CardOneOrMore:
		tick(8)
		many(16)
	}
}

// erLabel places the relationship label beside the edge, trying the
// midpoint first and then sliding along and away from the edge until the
// label stops covering entities and earlier labels.
func (r *renderer) erLabel(out *bytes.Buffer, label string, x1, y1, x2, y2 float64, obstacles []layout.Rect, occupied *[]layout.Rect) {
	cleaned := sanitizeText(label)
	labelWidth := r.textWidth(cleaned, r.fontSize()*0.8) + 8
	labelHeight := r.fontSize()*0.75 + 6

	dx, dy := x2-x1, y2-y1
	length := math.Max(math.Hypot(dx, dy), 1)
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux
	midX, midY := (x1+x2)/2, (y1+y2)/2

	// Markers extend past the boundary points; keep clear of them too.
	endpoints := []layout.Rect{
		{X: x1 - 3, Y: y1 - 3, W: 6, H: 6},
		{X: x2 - 3, Y: y2 - 3, W: 6, H: 6},
	}

	rectFor := func(lx, ly float64) layout.Rect {
		return layout.Rect{X: lx - labelWidth/2, Y: ly - labelHeight + 2, W: labelWidth, H: labelHeight}
	}
	score := func(rect layout.Rect) int {
		s := 0
		if rect.X < 0 || rect.Y < 0 {
			s += 500
		}
		for _, o := range obstacles {
			if rect.Intersects(o) {
				s += 500
			}
		}
		for _, o := range *occupied {
			if rect.Intersects(o) {
				s += 800
			}
		}
		return s
	}

	dir := 1.0
	if a, b := rectFor(midX+nx*22, midY+ny*22), rectFor(midX-nx*22, midY-ny*22); overlapCount(b, endpoints) < overlapCount(a, endpoints) {
		dir = -1.0
	}

	bestX, bestY := midX+nx*22*dir, midY+ny*22*dir
	bestRect := rectFor(bestX, bestY)
	bestScore := score(bestRect)

search:
	for _, off := range []float64{22, 32, 44, 56, 68, 80} {
		for _, along := range []float64{-28, -14, 0, 14, 28} {
			for _, d := range []float64{dir, -dir} {
				lx := midX + nx*off*d + ux*along
				ly := midY + ny*off*d + uy*along
				rect := rectFor(lx, ly)
				if sc := score(rect); sc < bestScore {
					bestScore = sc
					bestX, bestY, bestRect = lx, ly, rect
					if bestScore == 0 {
						break search
					}
				}
			}
		}
	}

	*occupied = append(*occupied, bestRect)

	fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`,
		bestX, bestY, r.style.FontFamily, r.fontSize()*0.8, r.style.EdgeText, escapeXML(cleaned))
}

func overlapCount(rect layout.Rect, others []layout.Rect) int {
	n := 0
	for _, o := range others {
		if rect.Intersects(o) {
			n++
		}
	}
	return n
}
