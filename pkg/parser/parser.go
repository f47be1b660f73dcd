// Package parser turns mermaid-style diagram source into typed syntax trees.
//
// The entry point is [Parse], which detects the diagram kind from the first
// meaningful line and dispatches to the matching grammar:
//
//	graph / flowchart   → flowchart
//	sequenceDiagram     → sequence
//	classDiagram        → class
//	stateDiagram[-v2]   → state
//	erDiagram           → entity-relationship
//
// An unrecognized header is consumed and the remaining lines fall back to
// the flowchart grammar; if that yields no nodes, Parse reports an unknown
// diagram kind. Syntax problems are
// reported as [*ParseError] values carrying a machine-readable code and the
// 1-based source line. Parse never panics, whatever the input.
package parser

import (
	"fmt"
	"strings"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/errors"
)

// ParseError is a syntax error tied to a source line.
type ParseError struct {
	Err      *errors.Error // code and message
	Line     int           // 1-based line number, 0 when not line-specific
	LineText string        // offending source line, trimmed
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Err.Message)
	}
	return e.Err.Message
}

// Unwrap exposes the underlying coded error for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

func errUnknownKind() *ParseError {
	return &ParseError{
		Err: errors.New(errors.ErrCodeParseUnknownKind, "unknown diagram kind"),
	}
}

func errEdgeSyntax(ln srcLine) *ParseError {
	return &ParseError{
		Err:      errors.New(errors.ErrCodeParseEdgeSyntax, "invalid edge syntax: %q", ln.text),
		Line:     ln.no,
		LineText: ln.text,
	}
}

func errNodeSyntax(ln srcLine) *ParseError {
	return &ParseError{
		Err:      errors.New(errors.ErrCodeParseNodeSyntax, "invalid node syntax: %q", ln.text),
		Line:     ln.no,
		LineText: ln.text,
	}
}

func errUnterminated(what string, openLine int, text string) *ParseError {
	return &ParseError{
		Err:      errors.New(errors.ErrCodeParseUnterminated, "unterminated %s opened here", what),
		Line:     openLine,
		LineText: text,
	}
}

func errMissingElement(kind ast.Kind, what string) *ParseError {
	return &ParseError{
		Err: errors.New(errors.ErrCodeParseMissingElement, "%s diagram has no %s", kind, what),
	}
}

// srcLine is a trimmed source line with its original 1-based number.
type srcLine struct {
	no   int
	text string
}

// meaningfulLines trims the source into lines, dropping blanks, %% comments
// and %%{init}%% directives while preserving original line numbers.
func meaningfulLines(src string) []srcLine {
	var out []srcLine
	for i, raw := range strings.Split(src, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "%%") {
			continue
		}
		out = append(out, srcLine{no: i + 1, text: text})
	}
	return out
}

// Parse parses diagram source into a typed AST.
func Parse(src string) (*ast.Diagram, error) {
	lines := meaningfulLines(src)
	if len(lines) == 0 {
		return nil, errMissingElement(ast.KindFlowchart, "content")
	}

	header := lines[0]
	head, _, _ := strings.Cut(header.text, " ")

	switch {
	case head == "flowchart" || head == "graph":
		fc, err := parseFlowchart(header, lines[1:])
		if err != nil {
			return nil, err
		}
		return &ast.Diagram{Kind: ast.KindFlowchart, Flowchart: fc}, nil

	case head == "sequenceDiagram":
		sd, err := parseSequence(lines[1:])
		if err != nil {
			return nil, err
		}
		return &ast.Diagram{Kind: ast.KindSequence, Sequence: sd}, nil

	case head == "classDiagram":
		cd, err := parseClass(lines[1:])
		if err != nil {
			return nil, err
		}
		return &ast.Diagram{Kind: ast.KindClass, Class: cd}, nil

	case head == "stateDiagram" || head == "stateDiagram-v2":
		sd, err := parseState(lines[1:])
		if err != nil {
			return nil, err
		}
		return &ast.Diagram{Kind: ast.KindState, State: sd}, nil

	case head == "erDiagram":
		ed, err := parseER(lines[1:])
		if err != nil {
			return nil, err
		}
		return &ast.Diagram{Kind: ast.KindER, ER: ed}, nil
	}

	// Unknown header: consume it and try the rest as a flowchart body.
	fc, err := parseFlowchart(header, lines[1:])
	if err != nil {
		return nil, err
	}
	if len(fc.Nodes) == 0 {
		return nil, errUnknownKind()
	}
	return &ast.Diagram{Kind: ast.KindFlowchart, Flowchart: fc}, nil
}

// isIdentRune reports whether r may appear in a bare node identifier.
func isIdentRune(r rune) bool {
	return r == '_' || r == '-' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') ||
		r > 127
}

// bareIdent returns the leading identifier of s, or "" if none.
func bareIdent(s string) string {
	for i, r := range s {
		if !isIdentRune(r) {
			return s[:i]
		}
	}
	return s
}

// isBareIdent reports whether s is entirely a bare identifier.
func isBareIdent(s string) bool {
	return s != "" && bareIdent(s) == s
}
