package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/errors"
	"github.com/markviz/markviz/pkg/render"
)

// Options configures DOT export.
type Options struct {
	// Detailed includes member rows in class nodes and attribute rows in
	// entity nodes. When false, only names are shown.
	Detailed bool
}

// FromDiagram converts a graph-shaped diagram to Graphviz DOT. The result
// can be rendered with [RenderSVG], [RenderPDF], or [RenderPNG] as an
// alternative to the built-in renderer.
//
// Sequence diagrams have no useful node-link form and return an error.
func FromDiagram(d *ast.Diagram, opts Options) (string, error) {
	switch {
	case d.Flowchart != nil:
		return fromFlowchart(d.Flowchart), nil
	case d.Class != nil:
		return fromClass(d.Class, opts), nil
	case d.State != nil:
		return fromState(d.State), nil
	case d.ER != nil:
		return fromER(d.ER, opts), nil
	case d.Sequence != nil:
		return "", errors.New(errors.ErrCodeRender, "sequence diagrams have no DOT form")
	default:
		return "", errors.New(errors.ErrCodeRender, "diagram has no payload")
	}
}

func header(buf *bytes.Buffer, rankdir string) {
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}

func rankdirFor(dir ast.FlowDirection) string {
	switch dir {
	case ast.DirBottomUp, ast.DirLeftRight, ast.DirRightLeft:
		return string(dir)
	default:
		return "TB"
	}
}

func fromFlowchart(fc *ast.Flowchart) string {
	var buf bytes.Buffer
	header(&buf, rankdirFor(fc.Direction))

	for _, n := range fc.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", n.Label)}
		if shape := dotShape(n.Shape); shape != "" {
			attrs = append(attrs, "shape="+shape, `style="filled"`)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range fc.Edges {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		switch e.Style {
		case ast.EdgeDotted:
			attrs = append(attrs, "style=dashed")
		case ast.EdgeThick:
			attrs = append(attrs, "penwidth=2")
		}
		if e.ArrowHead == ast.ArrowNone {
			attrs = append(attrs, "dir=none")
		}
		writeEdge(&buf, e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotShape maps the bracket shapes onto the closest Graphviz builtins.
// Rects and rounded rects keep the default node style.
func dotShape(shape ast.NodeShape) string {
	switch shape {
	case ast.ShapeStadium:
		return "oval"
	case ast.ShapeCylinder:
		return "cylinder"
	case ast.ShapeCircle, ast.ShapeDoubleCircle:
		return "circle"
	case ast.ShapeRhombus:
		return "diamond"
	case ast.ShapeHexagon:
		return "hexagon"
	case ast.ShapeParallelogram, ast.ShapeParallelogramAlt:
		return "parallelogram"
	case ast.ShapeTrapezoid, ast.ShapeTrapezoidAlt:
		return "trapezium"
	default:
		return ""
	}
}

func fromClass(cd *ast.ClassDiagram, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "TB")

	for i := range cd.Classes {
		cls := &cd.Classes[i]
		label := cls.Name
		if opts.Detailed {
			var rows []string
			for _, a := range cls.Attributes {
				rows = append(rows, a.Name)
			}
			for _, m := range cls.Methods {
				rows = append(rows, m.Name+"()")
			}
			if len(rows) > 0 {
				label += "\n" + strings.Join(rows, "\n")
			}
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=record];\n", cls.Name, label)
	}

	buf.WriteString("\n")
	for _, rel := range cd.Relations {
		var attrs []string
		if rel.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", rel.Label))
		}
		switch rel.Type {
		case ast.RelInheritance, ast.RelRealization:
			attrs = append(attrs, "arrowhead=empty")
		case ast.RelComposition:
			attrs = append(attrs, "arrowhead=diamond")
		case ast.RelAggregation:
			attrs = append(attrs, "arrowhead=odiamond")
		}
		if rel.Type == ast.RelDependency || rel.Type == ast.RelRealization {
			attrs = append(attrs, "style=dashed")
		}
		writeEdge(&buf, rel.From, rel.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fromState(sd *ast.StateDiagram) string {
	var buf bytes.Buffer
	header(&buf, "TB")
	writeStates(&buf, sd.States, sd.Transitions)
	buf.WriteString("}\n")
	return buf.String()
}

func writeStates(buf *bytes.Buffer, states []ast.State, transitions []ast.StateTransition) {
	for i := range states {
		st := &states[i]
		switch {
		case st.Start:
			fmt.Fprintf(buf, "  %q [shape=point, width=0.2];\n", st.ID)
		case st.End:
			fmt.Fprintf(buf, "  %q [shape=doublecircle, width=0.2, label=\"\"];\n", st.ID)
		case st.Composite:
			fmt.Fprintf(buf, "  subgraph \"cluster_%s\" {\n  label=%q;\n", st.ID, st.Label)
			writeStates(buf, st.Children, st.Transitions)
			buf.WriteString("  }\n")
		default:
			fmt.Fprintf(buf, "  %q [label=%q];\n", st.ID, st.Label)
		}
	}

	for _, tr := range transitions {
		var attrs []string
		if tr.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", tr.Label))
		}
		writeEdge(buf, tr.From, tr.To, attrs)
	}
}

func fromER(ed *ast.ERDiagram, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "LR")

	for i := range ed.Entities {
		ent := &ed.Entities[i]
		label := ent.Name
		if opts.Detailed {
			for _, a := range ent.Attributes {
				label += "\n" + a.Name
			}
		}
		fmt.Fprintf(&buf, "  %q [label=%q, shape=record];\n", ent.Name, label)
	}

	buf.WriteString("\n")
	for _, rel := range ed.Relationships {
		var attrs []string
		if rel.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", rel.Label))
		}
		attrs = append(attrs, "arrowhead=crow", "dir=forward")
		writeEdge(&buf, rel.From, rel.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeEdge(buf *bytes.Buffer, from, to string, attrs []string) {
	if len(attrs) == 0 {
		fmt.Fprintf(buf, "  %q -> %q;\n", from, to)
		return
	}
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", from, to, strings.Join(attrs, ", "))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's point-based svg element into the
// same zero-origin pixel form the built-in renderer emits.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
