package pipeline

import (
	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/errors"
	"github.com/markviz/markviz/pkg/fonts"
	"github.com/markviz/markviz/pkg/layout"
	"github.com/markviz/markviz/pkg/style"
)

// ResolveStyle turns the theme options into a concrete style. A theme
// file wins over a named theme.
func ResolveStyle(opts Options) (style.Style, error) {
	if opts.ThemeFile != "" {
		t, err := style.LoadTheme(opts.ThemeFile)
		if err != nil {
			return style.Style{}, err
		}
		return t.Style(), nil
	}
	name := opts.Theme
	if name == "" {
		name = DefaultTheme
	}
	t, err := style.Builtin(name)
	if err != nil {
		return style.Style{}, err
	}
	return t.Style(), nil
}

// Layout computes positions for the diagram without rendering it. The
// image formats run layout inside the renderer; this standalone stage
// backs the JSON dump and programmatic consumers.
func Layout(d *ast.Diagram, s style.Style) (*layout.Result, error) {
	eng := layout.New(fonts.Sans{}, s.FontSize)
	switch {
	case d.Flowchart != nil:
		return eng.Flowchart(d.Flowchart), nil
	case d.Sequence != nil:
		return eng.Sequence(d.Sequence), nil
	case d.Class != nil:
		return eng.Class(d.Class), nil
	case d.State != nil:
		return eng.State(d.State), nil
	case d.ER != nil:
		return eng.ER(d.ER), nil
	default:
		return nil, errors.New(errors.ErrCodeLayout, "diagram has no payload")
	}
}
