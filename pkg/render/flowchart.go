package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/layout"
)

func (r *renderer) flowchart(fc *ast.Flowchart) (float64, float64) {
	if len(fc.Nodes) == 0 {
		r.buf.WriteString("<g></g>")
		return 100, 50
	}

	res := r.eng.Flowchart(fc)

	dir := fc.Direction
	if dir == "" {
		dir = ast.DirTopDown
	}

	// Edges first so nodes draw over them.
	for _, edge := range fc.Edges {
		from, okFrom := res.Pos(edge.From)
		to, okTo := res.Pos(edge.To)
		fromNode := fc.Node(edge.From)
		toNode := fc.Node(edge.To)
		if okFrom && okTo && fromNode != nil && toNode != nil {
			r.flowchartEdge(edge, fromNode, from, toNode, to, dir)
		}
	}

	for _, node := range fc.Nodes {
		if pos, ok := res.Pos(node.ID); ok {
			r.flowchartNode(node.Label, node.Shape, pos)
		}
	}

	for _, sub := range fc.Subgraphs {
		r.subgraph(sub, res)
	}

	return res.Bounds.Right() + framePadding, res.Bounds.Bottom() + framePadding
}

func (r *renderer) flowchartNode(label string, shape ast.NodeShape, pos layout.Rect) {
	fill, stroke := r.style.NodeFill, r.style.NodeStroke

	switch shape {
	case ast.ShapeRoundedRect:
		rx := math.Min(6, pos.H/4)
		fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.W, pos.H, rx, fill, stroke)
	case ast.ShapeStadium:
		fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.W, pos.H, pos.H/2, fill, stroke)
	case ast.ShapeSubroutine:
		fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.W, pos.H, fill, stroke)
		const inset = 6.0
		fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			pos.X+inset, pos.Y, pos.X+inset, pos.Bottom(), stroke)
		fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" />`,
			pos.Right()-inset, pos.Y, pos.Right()-inset, pos.Bottom(), stroke)
	case ast.ShapeCylinder:
		const capH = 12.0
		rx := pos.W / 2
		bottomY := pos.Bottom() - capH
		fmt.Fprintf(&r.buf, `<path d="M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 0 0 %.2f %.2f L %.2f %.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y+capH, pos.X, bottomY, rx, capH, pos.Right(), bottomY, pos.Right(), pos.Y+capH, fill, stroke)
		fmt.Fprintf(&r.buf, `<ellipse cx="%.2f" cy="%.2f" rx="%.2f" ry="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.CenterX(), pos.Y+capH, rx, capH, fill, stroke)
	case ast.ShapeCircle:
		fmt.Fprintf(&r.buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.CenterX(), pos.CenterY(), math.Min(pos.W, pos.H)/2, fill, stroke)
	case ast.ShapeDoubleCircle:
		radius := math.Min(pos.W, pos.H)/2 - 4
		fmt.Fprintf(&r.buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.CenterX(), pos.CenterY(), radius+4, fill, stroke)
		fmt.Fprintf(&r.buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.CenterX(), pos.CenterY(), radius, fill, stroke)
	case ast.ShapeRhombus:
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.CenterX(), pos.Y, pos.Right(), pos.CenterY(), pos.CenterX(), pos.Bottom(), pos.X, pos.CenterY(), fill, stroke)
	case ast.ShapeHexagon:
		offset := math.Min(15, pos.W/4)
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X+offset, pos.Y, pos.Right()-offset, pos.Y, pos.Right(), pos.CenterY(),
			pos.Right()-offset, pos.Bottom(), pos.X+offset, pos.Bottom(), pos.X, pos.CenterY(), fill, stroke)
	case ast.ShapeParallelogram:
		offset := math.Min(20, pos.W/3)
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X+offset, pos.Y, pos.Right(), pos.Y, pos.Right()-offset, pos.Bottom(), pos.X, pos.Bottom(), fill, stroke)
	case ast.ShapeParallelogramAlt:
		offset := math.Min(20, pos.W/3)
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.Right()-offset, pos.Y, pos.Right(), pos.Bottom(), pos.X+offset, pos.Bottom(), fill, stroke)
	case ast.ShapeTrapezoid:
		offset := math.Min(15, pos.W/4)
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X+offset, pos.Y, pos.Right()-offset, pos.Y, pos.Right(), pos.Bottom(), pos.X, pos.Bottom(), fill, stroke)
	case ast.ShapeTrapezoidAlt:
		offset := math.Min(15, pos.W/4)
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.Right(), pos.Y, pos.Right()-offset, pos.Bottom(), pos.X+offset, pos.Bottom(), fill, stroke)
	default:
		fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.W, pos.H, fill, stroke)
	}

	// Label lines are centered as a block on the node midpoint.
	lines := strings.Split(label, "\n")
	lineHeight := r.fontSize() * 1.2
	startY := pos.CenterY() - lineHeight*float64(len(lines))/2 + lineHeight/2
	for i, line := range lines {
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" dy="0.35em" font-family="%s" font-size="%.1f" font-weight="500" fill="%s" text-anchor="middle">%s</text>`,
			pos.CenterX(), startY+float64(i)*lineHeight, r.style.FontFamily, r.fontSize(), r.style.NodeText, escapeXML(line))
	}
}

// clipToShape moves an edge endpoint from the node center to the point
// where the line toward the target leaves the node's actual outline.
func clipToShape(shape ast.NodeShape, pos layout.Rect, targetX, targetY float64) (float64, float64) {
	cx, cy := pos.CenterX(), pos.CenterY()
	dx, dy := targetX-cx, targetY-cy
	if math.Abs(dx) < 0.001 && math.Abs(dy) < 0.001 {
		return cx, cy
	}

	switch shape {
	case ast.ShapeCircle, ast.ShapeDoubleCircle:
		radius := math.Min(pos.W, pos.H) / 2
		dist := math.Hypot(dx, dy)
		return cx + dx/dist*radius, cy + dy/dist*radius
	case ast.ShapeRhombus:
		// Diamond border satisfies |dx|/hw + |dy|/hh = 1.
		t := 1 / (math.Abs(dx)/(pos.W/2) + math.Abs(dy)/(pos.H/2))
		return cx + dx*t, cy + dy*t
	default:
		halfW, halfH := pos.W/2, pos.H/2
		scaleX, scaleY := math.MaxFloat64, math.MaxFloat64
		if math.Abs(dx) > 0.001 {
			scaleX = halfW / math.Abs(dx)
		}
		if math.Abs(dy) > 0.001 {
			scaleY = halfH / math.Abs(dy)
		}
		scale := math.Min(scaleX, scaleY)
		return cx + dx*scale, cy + dy*scale
	}
}

func (r *renderer) flowchartEdge(edge ast.FlowchartEdge, fromNode *ast.FlowchartNode, from layout.Rect, toNode *ast.FlowchartNode, to layout.Rect, dir ast.FlowDirection) {
	vertical := dir == ast.DirTopDown || dir == ast.DirBottomUp

	x1, y1 := clipToShape(fromNode.Shape, from, to.CenterX(), to.CenterY())
	x2, y2 := clipToShape(toNode.Shape, to, from.CenterX(), from.CenterY())

	dash, strokeWidth := "", 0.75
	switch edge.Style {
	case ast.EdgeDotted:
		dash = ` stroke-dasharray="4,4"`
	case ast.EdgeThick:
		strokeWidth = 1.5
	}

	var headAngle, tailAngle float64
	labelX, labelY := (x1+x2)/2, (y1+y2)/2

	var aligned bool
	if vertical {
		aligned = math.Abs(from.CenterX()-to.CenterX()) < 1
	} else {
		aligned = math.Abs(from.CenterY()-to.CenterY()) < 1
	}

	switch {
	case aligned:
		headAngle = math.Atan2(y2-y1, x2-x1)
		tailAngle = headAngle + math.Pi
		fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"%s />`,
			x1, y1, x2, y2, r.style.EdgeStroke, strokeWidth, dash)
	case vertical:
		// Z-route bending on a horizontal mid segment.
		midY := (y1 + y2) / 2
		headAngle = math.Pi / 2
		tailAngle = -math.Pi / 2
		fmt.Fprintf(&r.buf, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="%.2f"%s />`,
			x1, y1, x1, midY, x2, midY, x2, y2, r.style.EdgeStroke, strokeWidth, dash)
		labelX, labelY = (x1+x2)/2, midY
	default:
		// Z-route bending on a vertical mid segment.
		midX := (x1 + x2) / 2
		headAngle = 0
		if x2 <= x1 {
			headAngle = math.Pi
		}
		tailAngle = headAngle + math.Pi
		fmt.Fprintf(&r.buf, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="%.2f"%s />`,
			x1, y1, midX, y1, midX, y2, x2, y2, r.style.EdgeStroke, strokeWidth, dash)
		labelX, labelY = midX, (y1+y2)/2
	}

	if edge.ArrowHead != ast.ArrowNone {
		r.arrowHead(x2, y2, headAngle, edge.ArrowHead)
	}
	if edge.ArrowTail != ast.ArrowNone {
		r.arrowHead(x1, y1, tailAngle, edge.ArrowTail)
	}

	if edge.Label != "" {
		labelSize := r.fontSize() * 0.85
		const pillPad = 6.0
		pillW := r.textWidth(edge.Label, labelSize) + pillPad*2
		pillH := labelSize + pillPad*2

		fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="4" fill="%s" stroke="%s" stroke-width="0.5" />`,
			labelX-pillW/2, labelY-pillH/2, pillW, pillH, r.style.Background, r.style.NodeStroke)
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" dy="0.35em" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`,
			labelX, labelY, r.style.FontFamily, labelSize, r.style.EdgeText, escapeXML(edge.Label))
	}
}

// arrowHead draws an edge terminator pointing along angle into (x, y).
func (r *renderer) arrowHead(x, y, angle float64, arrow ast.ArrowType) {
	cos, sin := math.Cos(angle), math.Sin(angle)

	switch arrow {
	case ast.ArrowHead:
		p1x, p1y := x-cos*8+sin*4.8, y-sin*8-cos*4.8
		p2x, p2y := x-cos*8-sin*4.8, y-sin*8+cos*4.8
		fmt.Fprintf(&r.buf, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" />`,
			x, y, p1x, p1y, p2x, p2y, r.style.EdgeStroke)
	case ast.ArrowCircle:
		fmt.Fprintf(&r.buf, `<circle cx="%.2f" cy="%.2f" r="5" fill="%s" stroke="%s" stroke-width="1" />`,
			x-cos*5, y-sin*5, r.style.NodeFill, r.style.EdgeStroke)
	case ast.ArrowCross:
		const size = 7.0
		cx, cy := x-cos*size, y-sin*size
		angleA, angleB := angle+math.Pi/4, angle-math.Pi/4
		ca, sa := math.Cos(angleA), math.Sin(angleA)
		cb, sb := math.Cos(angleB), math.Sin(angleB)
		fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2.5" />`,
			cx+ca*size, cy+sa*size, cx-ca*size, cy-sa*size, r.style.EdgeStroke)
		fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2.5" />`,
			cx+cb*size, cy+sb*size, cx-cb*size, cy-sb*size, r.style.EdgeStroke)
	}
}

func (r *renderer) subgraph(sub ast.Subgraph, res *layout.Result) {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxRight, maxBottom := -math.MaxFloat64, -math.MaxFloat64
	found := false

	for _, id := range sub.Nodes {
		if pos, ok := res.Pos(id); ok {
			found = true
			minX = math.Min(minX, pos.X)
			minY = math.Min(minY, pos.Y)
			maxRight = math.Max(maxRight, pos.Right())
			maxBottom = math.Max(maxBottom, pos.Bottom())
		}
	}
	if !found {
		return
	}

	padded := layout.Rect{X: minX, Y: minY, W: maxRight - minX, H: maxBottom - minY}.WithPadding(15)
	// Extra headroom for the title band.
	boxY := padded.Y - 20
	boxH := padded.H + 20
	titleCenterY := (boxY + padded.Y) / 2

	fmt.Fprintf(&r.buf, `<g id="%s">`, escapeXML(sub.ID))
	fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="8" fill="%s" fill-opacity="0.3" stroke="%s" stroke-width="1" stroke-dasharray="4,2" />`,
		padded.X, boxY, padded.W, boxH, r.style.NodeFill, r.style.NodeStroke)
	if sub.Title != "" {
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" font-weight="bold" text-anchor="middle">%s</text>`,
			padded.CenterX(), titleCenterY+r.fontSize()*0.3, r.style.FontFamily, r.fontSize()*0.9, r.style.NodeText, escapeXML(sub.Title))
	}
	r.buf.WriteString("</g>")
}
