package pipeline

import (
	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/parser"
)

// Parse turns diagram source text into an AST.
func Parse(opts Options) (*ast.Diagram, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	return parser.Parse(opts.Source)
}

// ElementCount returns the number of primary elements in a diagram,
// used for stats and log lines.
func ElementCount(d *ast.Diagram) int {
	switch {
	case d.Flowchart != nil:
		return len(d.Flowchart.Nodes) + len(d.Flowchart.Edges)
	case d.Sequence != nil:
		return len(d.Sequence.Participants) + len(d.Sequence.Elements)
	case d.Class != nil:
		return len(d.Class.Classes) + len(d.Class.Relations)
	case d.State != nil:
		return countStates(d.State.States) + len(d.State.Transitions)
	case d.ER != nil:
		return len(d.ER.Entities) + len(d.ER.Relationships)
	default:
		return 0
	}
}

func countStates(states []ast.State) int {
	n := 0
	for i := range states {
		n += 1 + countStates(states[i].Children)
	}
	return n
}
