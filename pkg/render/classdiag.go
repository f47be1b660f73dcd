package render

import (
	"fmt"
	"math"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/layout"
	"github.com/markviz/markviz/pkg/style"
)

func (r *renderer) class(cd *ast.ClassDiagram) (float64, float64) {
	if len(cd.Classes) == 0 {
		r.buf.WriteString("<g></g>")
		return 100, 50
	}

	res := r.eng.Class(cd)

	for i := range cd.Classes {
		if pos, ok := res.Pos(cd.Classes[i].Name); ok {
			r.classBox(&cd.Classes[i], pos)
		}
	}

	for _, rel := range cd.Relations {
		from, okFrom := res.Pos(rel.From)
		to, okTo := res.Pos(rel.To)
		if okFrom && okTo {
			r.classRelation(rel, from, to)
		}
	}

	return res.Bounds.Right() + framePadding, res.Bounds.Bottom() + framePadding
}

func (r *renderer) classBox(cls *ast.ClassDefinition, pos layout.Rect) {
	fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
		pos.X, pos.Y, pos.W, pos.H, r.style.NodeFill, r.style.NodeStroke)

	y := pos.Y + r.fontSize() + 8

	stereotype := cls.Stereotype
	if cls.Interface && stereotype == "" {
		stereotype = "interface"
	}
	nameText := escapeXML(cls.Name)
	if stereotype != "" {
		nameText = "&lt;&lt;" + escapeXML(stereotype) + "&gt;&gt; " + nameText
	}
	nameStyle := ""
	if cls.Abstract || cls.Interface {
		nameStyle = ` font-style="italic"`
	}

	// Tinted header band behind the class name.
	headerH := y + 6 - pos.Y
	headerFill := style.Mix(r.style.NodeFill, r.style.NodeText, 0.05)
	fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" />`,
		pos.X+0.5, pos.Y+0.5, pos.W-1, headerH, headerFill)

	fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" dy="0.35em" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle" font-weight="bold"%s>%s</text>`,
		pos.CenterX(), pos.Y+headerH/2, r.style.FontFamily, r.fontSize(), r.style.NodeText, nameStyle, nameText)

	y += 6
	fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75" />`,
		pos.X, y, pos.Right(), y, r.style.NodeStroke)

	y += r.fontSize() + 4
	for _, attr := range cls.Attributes {
		r.memberRow(pos.X+8, y, layout.AttributeText(attr), attr.Static, attr.Abstract)
		y += r.fontSize() * 0.9
	}

	if len(cls.Methods) > 0 {
		y += 2
		fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			pos.X, y, pos.Right(), y, r.style.NodeStroke)
		y += r.fontSize() + 2
	}

	for _, method := range cls.Methods {
		r.memberRow(pos.X+8, y, layout.MethodText(method), method.Static, method.Abstract)
		y += r.fontSize() * 0.9
	}
}

func (r *renderer) memberRow(x, y float64, text string, static, abstract bool) {
	decoration := ""
	if static {
		decoration = ` text-decoration="underline"`
	}
	fontStyle := ""
	if abstract {
		fontStyle = ` font-style="italic"`
	}
	fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="monospace" font-size="%.1f" fill="%s"%s%s>%s</text>`,
		x, y, r.fontSize()*0.85, r.style.NodeText, decoration, fontStyle, escapeXML(text))
}

func (r *renderer) classRelation(rel ast.ClassRelation, from, to layout.Rect) {
	angle := math.Atan2(to.CenterY()-from.CenterY(), to.CenterX()-from.CenterX())
	p1 := boundaryPoint(from, angle)
	p2 := boundaryPoint(to, angle+math.Pi)
	x1, y1, x2, y2 := p1.X, p1.Y, p2.X, p2.Y

	lineStyle := ""
	if rel.Type == ast.RelDependency || rel.Type == ast.RelRealization {
		lineStyle = ` stroke-dasharray="6,3"`
	}
	fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75"%s />`,
		x1, y1, x2, y2, r.style.EdgeStroke, lineStyle)

	// Inheritance-family markers sit at the From end, association arrows
	// at the To end.
	var fromMarker, toMarker string
	switch rel.Type {
	case ast.RelInheritance, ast.RelDependency, ast.RelRealization:
		fromMarker = "hollow_triangle"
	case ast.RelComposition:
		fromMarker = "filled_diamond"
	case ast.RelAggregation:
		fromMarker = "hollow_diamond"
	case ast.RelAssociation:
		toMarker = "arrow"
	}

	if toMarker != "" {
		r.classMarker(toMarker, x2, y2, math.Atan2(y2-y1, x2-x1))
	}
	if fromMarker != "" {
		r.classMarker(fromMarker, x1, y1, math.Atan2(y1-y2, x1-x2))
	}

	lineAngle := math.Atan2(y2-y1, x2-x1)
	unitX, unitY := math.Cos(lineAngle), math.Sin(lineAngle)
	normalX, normalY := -unitY, unitX

	if rel.Label != "" {
		const labelOffset = 16.0
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`,
			(x1+x2)/2+normalX*labelOffset, (y1+y2)/2+normalY*labelOffset,
			r.style.FontFamily, r.fontSize()*0.8, r.style.EdgeText, escapeXML(sanitizeText(rel.Label)))
	}
	if rel.MultiplicityFrom != "" {
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s">%s</text>`,
			x1+unitX*12+normalX*8, y1+unitY*12+normalY*8,
			r.style.FontFamily, r.fontSize()*0.75, r.style.EdgeText, escapeXML(rel.MultiplicityFrom))
	}
	if rel.MultiplicityTo != "" {
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="end">%s</text>`,
			x2-unitX*12+normalX*8, y2-unitY*12+normalY*8,
			r.style.FontFamily, r.fontSize()*0.75, r.style.EdgeText, escapeXML(rel.MultiplicityTo))
	}
}

func (r *renderer) classMarker(kind string, x, y, angle float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)

	switch kind {
	case "arrow":
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" />`,
			x, y, x-cos*12+sin*5, y-sin*12-cos*5, x-cos*12-sin*5, y-sin*12+cos*5, r.style.EdgeStroke)
	case "hollow_triangle":
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			x, y, x-cos*14+sin*7, y-sin*14-cos*7, x-cos*14-sin*7, y-sin*14+cos*7, r.style.NodeFill, r.style.EdgeStroke)
	case "filled_diamond":
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" />`,
			x, y, x-cos*16+sin*6, y-sin*16-cos*6, x-cos*24, y-sin*24, x-cos*16-sin*6, y-sin*16+cos*6, r.style.EdgeStroke)
	case "hollow_diamond":
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			x, y, x-cos*16+sin*6, y-sin*16-cos*6, x-cos*24, y-sin*24, x-cos*16-sin*6, y-sin*16+cos*6, r.style.NodeFill, r.style.EdgeStroke)
	}
}
