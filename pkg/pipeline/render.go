package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/layout"
	"github.com/markviz/markviz/pkg/render"
	"github.com/markviz/markviz/pkg/render/dot"
	"github.com/markviz/markviz/pkg/style"
)

// LayoutDump is the shape of the JSON artifact: the parsed AST together
// with the computed positions.
type LayoutDump struct {
	Diagram *ast.Diagram   `json:"diagram"`
	Layout  *layout.Result `json:"layout"`
}

// Render generates output artifacts in the requested formats.
func Render(d *ast.Diagram, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	if opts.IsGraphviz() {
		return renderGraphviz(d, opts)
	}
	return renderBuiltin(d, opts)
}

// renderBuiltin renders with the native SVG renderer. PNG and PDF are
// conversions of the same SVG bytes, so they share one render.
func renderBuiltin(d *ast.Diagram, opts Options) (map[string][]byte, error) {
	s, err := ResolveStyle(opts)
	if err != nil {
		return nil, err
	}

	var svg []byte
	needSVG := false
	for _, format := range opts.Formats {
		if format == FormatSVG || format == FormatPNG || format == FormatPDF {
			needSVG = true
		}
	}
	if needSVG {
		svg, err = render.SVG(d, render.WithStyle(s))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = render.ToPNG(svg, opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(svg)
		case FormatJSON:
			data, err = marshalDump(d, s)
		case FormatDOT:
			var text string
			text, err = dot.FromDiagram(d, dot.Options{Detailed: opts.Detailed})
			data = []byte(text)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderGraphviz renders through DOT and Graphviz.
func renderGraphviz(d *ast.Diagram, opts Options) (map[string][]byte, error) {
	text, err := dot.FromDiagram(d, dot.Options{Detailed: opts.Detailed})
	if err != nil {
		return nil, fmt.Errorf("generate dot: %w", err)
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = dot.RenderSVG(text)
		case FormatPNG:
			data, err = dot.RenderPNG(text, opts.Scale)
		case FormatPDF:
			data, err = dot.RenderPDF(text)
		case FormatDOT:
			data = []byte(text)
		case FormatJSON:
			s, serr := ResolveStyle(opts)
			if serr != nil {
				return nil, serr
			}
			data, err = marshalDump(d, s)
		default:
			return nil, fmt.Errorf("unsupported graphviz format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func marshalDump(d *ast.Diagram, s style.Style) ([]byte, error) {
	res, err := Layout(d, s)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(LayoutDump{Diagram: d, Layout: res}, "", "  ")
}
