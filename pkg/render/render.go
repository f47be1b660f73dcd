// Package render draws parsed diagrams as self-contained SVG documents.
//
// The entry point is [SVG]: it runs the layout engine over the diagram,
// emits shape and edge markup into a buffer and wraps the result in a
// single <svg> element with a viewBox and optional background rect. All
// coordinates are formatted with two decimals, so identical input and
// options produce byte-identical output.
package render

import (
	"bytes"
	"fmt"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/errors"
	"github.com/markviz/markviz/pkg/fonts"
	"github.com/markviz/markviz/pkg/layout"
	"github.com/markviz/markviz/pkg/style"
)

// framePadding is the margin between the diagram bounds and the SVG edge.
const framePadding = 20.0

// Option configures a render call.
type Option func(*renderer)

// WithStyle sets the color palette and font configuration.
func WithStyle(s style.Style) Option { return func(r *renderer) { r.style = s } }

// WithMeasurer sets the text measurer used for node sizing and label
// placement. The default uses the embedded sans-serif glyph metrics.
func WithMeasurer(m layout.Measurer) Option { return func(r *renderer) { r.measure = m } }

type renderer struct {
	buf     bytes.Buffer
	style   style.Style
	measure layout.Measurer
	eng     *layout.Engine
}

func newRenderer(opts ...Option) *renderer {
	r := &renderer{style: style.Default(), measure: fonts.Sans{}}
	for _, opt := range opts {
		opt(r)
	}
	r.eng = layout.New(r.measure, r.style.FontSize)
	return r
}

// SVG renders the diagram to a complete SVG document.
func SVG(d *ast.Diagram, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)

	var w, h float64
	switch {
	case d.Flowchart != nil:
		w, h = r.flowchart(d.Flowchart)
	case d.Sequence != nil:
		w, h = r.sequence(d.Sequence)
	case d.Class != nil:
		w, h = r.class(d.Class)
	case d.State != nil:
		w, h = r.state(d.State)
	case d.ER != nil:
		w, h = r.er(d.ER)
	default:
		return nil, errors.New(errors.ErrCodeRender, "diagram has no payload")
	}

	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f" font-family="%s">`+"\n",
		w, h, w, h, escapeXML(r.style.FontFamily))
	if r.style.Background != "" && r.style.Background != "transparent" {
		fmt.Fprintf(&doc, `<rect x="0" y="0" width="%.2f" height="%.2f" fill="%s" />`, w, h, r.style.Background)
	}
	doc.Write(r.buf.Bytes())
	doc.WriteString("</svg>\n")
	return doc.Bytes(), nil
}

func (r *renderer) textWidth(text string, size float64) float64 {
	return r.measure.TextWidth(text, size)
}

func (r *renderer) fontSize() float64 { return r.style.FontSize }
