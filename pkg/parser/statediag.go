package parser

import (
	"strings"

	"github.com/markviz/markviz/pkg/ast"
)

// Pseudo-state ids for the [*] marker. The source token is the same for
// both; as a transition source it means the start dot, as a target the
// end ring. Ids are scoped per composite body by the layout engine.
const (
	StartStateID = "__start__"
	EndStateID   = "__end__"
)

// stateScope accumulates states and transitions for one body (the top
// level, or the inside of a composite state).
type stateScope struct {
	states      []ast.State
	transitions []ast.StateTransition
	index       map[string]int
}

func newStateScope() *stateScope {
	return &stateScope{index: make(map[string]int)}
}

func (s *stateScope) add(st ast.State) *ast.State {
	if i, exists := s.index[st.ID]; exists {
		return &s.states[i]
	}
	s.index[st.ID] = len(s.states)
	s.states = append(s.states, st)
	return &s.states[len(s.states)-1]
}

// ensure registers a plain state on first mention.
func (s *stateScope) ensure(id string) {
	if _, exists := s.index[id]; exists {
		return
	}
	switch id {
	case StartStateID:
		s.add(ast.State{ID: id, Start: true})
	case EndStateID:
		s.add(ast.State{ID: id, End: true})
	default:
		s.add(ast.State{ID: id, Label: id})
	}
}

// stateParser walks the line list once; composite bodies recurse.
type stateParser struct {
	lines []srcLine
	pos   int
}

func (p *stateParser) next() (srcLine, bool) {
	if p.pos >= len(p.lines) {
		return srcLine{}, false
	}
	ln := p.lines[p.pos]
	p.pos++
	return ln, true
}

// parseTransition parses "A --> B : label" with [*] rewriting.
func parseTransition(text string) (ast.StateTransition, bool) {
	arrow := "-->"
	idx := strings.Index(text, arrow)
	if idx < 0 {
		arrow = "->"
		idx = strings.Index(text, arrow)
	}
	if idx < 0 {
		return ast.StateTransition{}, false
	}

	from := strings.TrimSpace(text[:idx])
	rest := strings.TrimSpace(text[idx+len(arrow):])

	tr := ast.StateTransition{}
	if to, label, found := strings.Cut(rest, ":"); found {
		tr.To = strings.TrimSpace(to)
		tr.Label = strings.TrimSpace(label)
	} else {
		tr.To = rest
	}
	tr.From = from

	if tr.From == "[*]" {
		tr.From = StartStateID
	}
	if tr.To == "[*]" {
		tr.To = EndStateID
	}
	if tr.From == "" || tr.To == "" {
		return ast.StateTransition{}, false
	}
	return tr, true
}

// parseStateBody consumes statements until a closing "}" (when nested) or
// the end of input. openAt is the composite opening line for unterminated
// reporting, zero-valued at the top level.
func (p *stateParser) parseStateBody(nested bool, openAt srcLine) (*stateScope, error) {
	scope := newStateScope()

	for {
		ln, ok := p.next()
		if !ok {
			if nested {
				return nil, errUnterminated("composite state", openAt.no, openAt.text)
			}
			return scope, nil
		}
		text := ln.text

		if text == "}" {
			if nested {
				return scope, nil
			}
			continue
		}

		// Concurrency separators and direction hints are tolerated.
		if text == "--" || strings.HasPrefix(text, "direction ") {
			continue
		}

		// Multi-line notes are skipped through "end note".
		if strings.HasPrefix(strings.ToLower(text), "note ") {
			if strings.Contains(text, ":") {
				continue
			}
			for {
				inner, more := p.next()
				if !more || strings.ToLower(inner.text) == "end note" {
					break
				}
			}
			continue
		}

		if strings.HasPrefix(text, "state ") {
			if err := p.parseStateDecl(ln, scope); err != nil {
				return nil, err
			}
			continue
		}

		if tr, isTr := parseTransition(text); isTr {
			scope.ensure(tr.From)
			scope.ensure(tr.To)
			scope.transitions = append(scope.transitions, tr)
			continue
		}

		// Bare state mention.
		if isBareIdent(text) {
			scope.ensure(text)
		}
	}
}

// parseStateDecl handles the "state ..." declaration forms:
//
//	state Id
//	state "Description" as Id
//	state Id <<choice|fork|join>>
//	state Id {               (composite, recursive body)
func (p *stateParser) parseStateDecl(ln srcLine, scope *stateScope) error {
	rest := strings.TrimSpace(strings.TrimPrefix(ln.text, "state "))

	composite := strings.HasSuffix(rest, "{")
	if composite {
		rest = strings.TrimSpace(strings.TrimSuffix(rest, "{"))
	}

	st := ast.State{}
	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			return errNodeSyntax(ln)
		}
		st.Label = rest[1 : end+1]
		after := strings.TrimSpace(rest[end+2:])
		if id, found := strings.CutPrefix(after, "as "); found {
			st.ID = strings.TrimSpace(id)
		}
		if st.ID == "" {
			return errNodeSyntax(ln)
		}
	} else {
		if marker := strings.Index(rest, "<<"); marker >= 0 {
			m := strings.TrimSpace(strings.TrimSuffix(rest[marker+2:], ">>"))
			st.ID = strings.TrimSpace(rest[:marker])
			switch m {
			case "choice":
				st.Marker = ast.StateChoice
			case "fork":
				st.Marker = ast.StateFork
			case "join":
				st.Marker = ast.StateJoin
			}
		} else {
			st.ID = rest
		}
		st.Label = st.ID
	}
	if st.ID == "" {
		return errNodeSyntax(ln)
	}

	if composite {
		inner, err := p.parseStateBody(true, ln)
		if err != nil {
			return err
		}
		st.Composite = true
		st.Children = inner.states
		st.Transitions = inner.transitions
	}

	// A mention may precede the declaration; enrich it in place.
	existing := scope.add(st)
	if st.Label != "" {
		existing.Label = st.Label
	}
	if st.Marker != "" {
		existing.Marker = st.Marker
	}
	if composite {
		existing.Composite = true
		existing.Children = st.Children
		existing.Transitions = st.Transitions
	}
	return nil
}

func parseState(lines []srcLine) (*ast.StateDiagram, error) {
	p := &stateParser{lines: lines}
	scope, err := p.parseStateBody(false, srcLine{})
	if err != nil {
		return nil, err
	}

	if len(scope.states) == 0 {
		return nil, errMissingElement(ast.KindState, "states")
	}
	return &ast.StateDiagram{
		States:      scope.states,
		Transitions: scope.transitions,
	}, nil
}
