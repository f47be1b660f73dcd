// Package pkg provides the core libraries for Markviz diagram rendering.
//
// # Overview
//
// Markviz turns plain-text diagram descriptions into SVG and other output
// formats. The pkg directory is organized into five main areas:
//
//  1. [parser] + [ast] - Grammar parsing into typed diagram trees
//  2. [layout] + [dag] - Position and size computation
//  3. [style] + [render] - Palette derivation and SVG generation
//  4. [pipeline] - Orchestration (parse → layout → render) with caching
//  5. [server] + [store] - HTTP preview API and diagram persistence
//
// # Architecture
//
// The typical data flow through Markviz:
//
//	Diagram source text
//	         ↓
//	    [parser] package (detect kind, build AST)
//	         ↓
//	    [layout] package (positions, sizes, edge waypoints)
//	         ↓
//	    [render] package (SVG markup, optional DOT/PNG/PDF)
//	         ↓
//	    SVG/PNG/PDF/JSON/DOT output
//
// # Quick Start
//
// Render a flowchart to SVG:
//
//	d, err := parser.Parse("flowchart TB\nA --> B")
//	if err != nil {
//	    return err
//	}
//	svg, err := render.SVG(d)
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  source,
//	    Formats: []string{"svg"},
//	})
package pkg
