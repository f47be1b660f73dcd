// Package render turns laid-out diagrams into SVG markup.
//
// # Overview
//
// The renderer walks a parsed [ast.Diagram], runs the layout engine for
// its kind, and emits deterministic SVG: the same diagram and options
// always produce byte-identical output. Each diagram kind has its own
// drawing pass (flowchart, sequence, class, state, ER) sharing the text
// and geometry helpers in this package.
//
//	d, _ := parser.Parse(source)
//	svg, err := render.SVG(d, render.WithStyle(style.Default()))
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats
// using the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # DOT Export
//
// The [dot] subpackage exports graph-shaped diagrams (flowchart, class,
// state, ER) as Graphviz DOT and can rasterize them through the
// embedded Graphviz engine as an alternate backend.
package render
