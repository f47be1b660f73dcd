package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/markviz/markviz/pkg/ast"
)

// edgeOp is one flowchart edge operator.
type edgeOp struct {
	token string
	style ast.EdgeStyle
	head  ast.ArrowType
	tail  ast.ArrowType
}

// edgeOps lists every edge operator. Matching picks the earliest occurrence
// in the line; ties at the same position go to the longest token, so
// "<-->" wins over "-->" and "-->" wins over "--".
var edgeOps = []edgeOp{
	{"<==>", ast.EdgeThick, ast.ArrowHead, ast.ArrowHead},
	{"<-->", ast.EdgeSolid, ast.ArrowHead, ast.ArrowHead},
	{"<-.-", ast.EdgeDotted, ast.ArrowNone, ast.ArrowHead},
	{"-.->", ast.EdgeDotted, ast.ArrowHead, ast.ArrowNone},
	{"==>", ast.EdgeThick, ast.ArrowHead, ast.ArrowNone},
	{"-->", ast.EdgeSolid, ast.ArrowHead, ast.ArrowNone},
	{"---", ast.EdgeSolid, ast.ArrowNone, ast.ArrowNone},
	{"-.-", ast.EdgeDotted, ast.ArrowNone, ast.ArrowNone},
	{"<--", ast.EdgeSolid, ast.ArrowNone, ast.ArrowHead},
	{"<==", ast.EdgeThick, ast.ArrowNone, ast.ArrowHead},
	{"--o", ast.EdgeSolid, ast.ArrowCircle, ast.ArrowNone},
	{"--x", ast.EdgeSolid, ast.ArrowCross, ast.ArrowNone},
	{"->>", ast.EdgeSolid, ast.ArrowHead, ast.ArrowHead},
	{"->", ast.EdgeSolid, ast.ArrowHead, ast.ArrowNone},
	{"--", ast.EdgeSolid, ast.ArrowNone, ast.ArrowNone},
}

// findEdgeOp locates the best operator match in s.
func findEdgeOp(s string) (idx int, op edgeOp, ok bool) {
	idx = -1
	for _, cand := range edgeOps {
		i := strings.Index(s, cand.token)
		if i < 0 {
			continue
		}
		if idx == -1 || i < idx || (i == idx && len(cand.token) > len(op.token)) {
			idx, op, ok = i, cand, true
		}
	}
	return idx, op, ok
}

// Lengthened operators add minimum edge length: "--->" spans one extra
// layer per extra dash. They are normalized before table matching.
var (
	longSolidArrow = regexp.MustCompile(`-{3,}>`)
	longThickArrow = regexp.MustCompile(`={3,}>`)
	longSolidLink  = regexp.MustCompile(`-{4,}`)
)

// normalizeEdgeLength rewrites the first lengthened operator in text to its
// short form and returns the extra length it encoded.
func normalizeEdgeLength(text string) (string, int) {
	if loc := longSolidArrow.FindStringIndex(text); loc != nil {
		dashes := loc[1] - loc[0] - 1
		return text[:loc[0]] + "-->" + text[loc[1]:], dashes - 2
	}
	if loc := longThickArrow.FindStringIndex(text); loc != nil {
		eqs := loc[1] - loc[0] - 1
		return text[:loc[0]] + "==>" + text[loc[1]:], eqs - 2
	}
	if loc := longSolidLink.FindStringIndex(text); loc != nil {
		dashes := loc[1] - loc[0]
		return text[:loc[0]] + "---" + text[loc[1]:], dashes - 3
	}
	return text, 0
}

// Inline edge labels: "A-- text -->B" and the thick/dotted variants.
var (
	inlineSolidLabel  = regexp.MustCompile(`--\s([^-<>]*?)\s-->`)
	inlineThickLabel  = regexp.MustCompile(`==\s([^=<>]*?)\s==>`)
	inlineDottedLabel = regexp.MustCompile(`-\.\s([^.<>]*?)\s\.->`)
)

// nodeBracket is one node shape delimiter pair.
type nodeBracket struct {
	open  string
	close string
	shape ast.NodeShape
}

// nodeBrackets lists shape delimiters, longest opener first.
// The "[/" and "[\" openers are ambiguous between parallelograms and
// trapezoids until the closer is seen; parseNodePart resolves those.
var nodeBrackets = []nodeBracket{
	{"(((", ")))", ast.ShapeDoubleCircle},
	{"[[", "]]", ast.ShapeSubroutine},
	{"((", "))", ast.ShapeCircle},
	{"[(", ")]", ast.ShapeCylinder},
	{"([", "])", ast.ShapeStadium},
	{"[/", "/]", ast.ShapeParallelogram},
	{"[\\", "\\]", ast.ShapeParallelogramAlt},
	{"{{", "}}", ast.ShapeHexagon},
	{"[", "]", ast.ShapeRect},
	{"(", ")", ast.ShapeRoundedRect},
	{"{", "}", ast.ShapeRhombus},
}

// parseNodePart parses one endpoint or declaration, e.g. `B{Decision}`.
// A bare identifier gets the default rounded shape with itself as label.
// ok is false when part is not node-like at all; err is non-nil when it
// looks like a node but is malformed (e.g. unbalanced brackets).
func parseNodePart(part string, ln srcLine) (node ast.FlowchartNode, ok bool, err error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return node, false, nil
	}

	// Earliest opener wins; ties go to the longer token.
	openIdx, bracket := -1, nodeBracket{}
	for _, cand := range nodeBrackets {
		i := strings.Index(part, cand.open)
		if i < 0 {
			continue
		}
		if openIdx == -1 || i < openIdx || (i == openIdx && len(cand.open) > len(bracket.open)) {
			openIdx, bracket = i, cand
		}
	}

	if openIdx < 0 {
		if !isBareIdent(part) {
			return node, false, nil
		}
		return ast.FlowchartNode{ID: part, Label: part, Shape: ast.ShapeRoundedRect}, true, nil
	}

	id := strings.TrimSpace(part[:openIdx])
	if id == "" || !isBareIdent(id) {
		return node, false, errNodeSyntax(ln)
	}

	body := part[openIdx+len(bracket.open):]
	shape := bracket.shape
	closeIdx := strings.Index(body, bracket.close)

	// "[/" may close with "\]" (trapezoid) and "[\" with "/]" (inverted).
	switch bracket.open {
	case "[/":
		if alt := strings.Index(body, "\\]"); alt >= 0 && (closeIdx < 0 || alt < closeIdx) {
			closeIdx, shape = alt, ast.ShapeTrapezoid
		}
	case "[\\":
		if alt := strings.Index(body, "/]"); alt >= 0 && (closeIdx < 0 || alt < closeIdx) {
			closeIdx, shape = alt, ast.ShapeTrapezoidAlt
		}
	}

	if closeIdx < 0 {
		return node, false, errNodeSyntax(ln)
	}

	label := strings.TrimSpace(body[:closeIdx])
	label = strings.Trim(label, `"`)
	if label == "" {
		label = id
	}
	return ast.FlowchartNode{ID: id, Label: label, Shape: shape}, true, nil
}

// flowchartBuilder accumulates nodes, edges and subgraphs during a parse.
type flowchartBuilder struct {
	fc       ast.Flowchart
	seen     map[string]bool
	sgStack  []int // indexes into fc.Subgraphs
	sgOpenAt []srcLine
}

// register adds a node if unseen and records subgraph membership.
func (b *flowchartBuilder) register(n ast.FlowchartNode) {
	if b.seen[n.ID] {
		return
	}
	b.seen[n.ID] = true
	b.fc.Nodes = append(b.fc.Nodes, n)
	if len(b.sgStack) > 0 {
		sg := &b.fc.Subgraphs[b.sgStack[len(b.sgStack)-1]]
		sg.Nodes = append(sg.Nodes, n.ID)
	}
}

// takePipeLabel strips a leading |label| from rest.
func takePipeLabel(rest string) (label, remainder string) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "|") {
		return "", rest
	}
	if end := strings.Index(rest[1:], "|"); end >= 0 {
		return strings.TrimSpace(rest[1 : end+1]), strings.TrimSpace(rest[end+2:])
	}
	return "", rest
}

// parseEdgeLine handles a line containing one or more edges, including
// chains like "A --> B --> C". handled is false when the line holds no
// edge operator at all.
func (b *flowchartBuilder) parseEdgeLine(ln srcLine) (handled bool, err error) {
	text, extraLen := normalizeEdgeLength(ln.text)

	// Inline "-- label -->" forms come before table matching so the label
	// dashes are not mistaken for operators.
	for _, m := range []struct {
		re    *regexp.Regexp
		style ast.EdgeStyle
	}{
		{inlineSolidLabel, ast.EdgeSolid},
		{inlineThickLabel, ast.EdgeThick},
		{inlineDottedLabel, ast.EdgeDotted},
	} {
		loc := m.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		from, okF, errF := parseNodePart(text[:loc[0]], ln)
		to, okT, errT := parseNodePart(text[loc[1]:], ln)
		if errF != nil || errT != nil || !okF || !okT {
			return true, errEdgeSyntax(ln)
		}
		b.register(from)
		b.register(to)
		b.fc.Edges = append(b.fc.Edges, ast.FlowchartEdge{
			From:      from.ID,
			To:        to.ID,
			Label:     strings.TrimSpace(text[loc[2]:loc[3]]),
			Style:     m.style,
			ArrowHead: ast.ArrowHead,
			ArrowTail: ast.ArrowNone,
			MinLength: 1 + extraLen,
		})
		return true, nil
	}

	idx, op, ok := findEdgeOp(text)
	if !ok {
		return false, nil
	}

	left := text[:idx]
	rest := text[idx+len(op.token):]
	for {
		label, remainder := takePipeLabel(rest)

		rightPart := remainder
		nextIdx, nextOp, hasNext := findEdgeOp(remainder)
		if hasNext {
			rightPart = remainder[:nextIdx]
		}

		from, okF, errF := parseNodePart(left, ln)
		to, okT, errT := parseNodePart(rightPart, ln)
		if errF != nil || errT != nil || !okF || !okT {
			return true, errEdgeSyntax(ln)
		}
		b.register(from)
		b.register(to)
		b.fc.Edges = append(b.fc.Edges, ast.FlowchartEdge{
			From:      from.ID,
			To:        to.ID,
			Label:     label,
			Style:     op.style,
			ArrowHead: op.head,
			ArrowTail: op.tail,
			MinLength: 1 + extraLen,
		})

		if !hasNext {
			return true, nil
		}
		left = rightPart
		op = nextOp
		rest = remainder[nextIdx+len(nextOp.token):]
	}
}

// skippedPrefixes are statement kinds tolerated but not interpreted.
var skippedPrefixes = []string{"click ", "style ", "classDef ", "linkStyle ", "direction "}

// parseFlowDirection reads the direction token from a header line.
func parseFlowDirection(header string) ast.FlowDirection {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return ast.DirTopDown
	}
	switch strings.ToUpper(fields[1]) {
	case "TB", "TD":
		return ast.DirTopDown
	case "BT":
		return ast.DirBottomUp
	case "LR":
		return ast.DirLeftRight
	case "RL":
		return ast.DirRightLeft
	}
	return ast.DirTopDown
}

func parseFlowchart(header srcLine, lines []srcLine) (*ast.Flowchart, error) {
	b := &flowchartBuilder{
		fc:   ast.Flowchart{Direction: parseFlowDirection(header.text)},
		seen: make(map[string]bool),
	}

	for _, ln := range lines {
		text := ln.text

		skip := false
		for _, p := range skippedPrefixes {
			if strings.HasPrefix(text, p) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		if strings.HasPrefix(text, "subgraph") && (text == "subgraph" || text[len("subgraph")] == ' ') {
			rest := strings.TrimSpace(strings.TrimPrefix(text, "subgraph"))
			sg := ast.Subgraph{ID: fmt.Sprintf("subgraph_%d", len(b.fc.Subgraphs)), Title: rest}
			if open := strings.Index(rest, "["); open >= 0 {
				if close := strings.Index(rest[open:], "]"); close > 0 {
					sg.ID = strings.TrimSpace(rest[:open])
					sg.Title = strings.TrimSpace(rest[open+1 : open+close])
				}
			}
			if sg.Title == "" {
				sg.Title = sg.ID
			}
			b.fc.Subgraphs = append(b.fc.Subgraphs, sg)
			b.sgStack = append(b.sgStack, len(b.fc.Subgraphs)-1)
			b.sgOpenAt = append(b.sgOpenAt, ln)
			continue
		}

		if text == "end" {
			if n := len(b.sgStack); n > 0 {
				b.sgStack = b.sgStack[:n-1]
				b.sgOpenAt = b.sgOpenAt[:n-1]
			}
			continue
		}

		handled, err := b.parseEdgeLine(ln)
		if err != nil {
			return nil, err
		}
		if handled {
			continue
		}

		node, ok, err := parseNodePart(text, ln)
		if err != nil {
			return nil, err
		}
		if ok {
			b.register(node)
		}
		// Anything else is tolerated and skipped.
	}

	if n := len(b.sgOpenAt); n > 0 {
		open := b.sgOpenAt[n-1]
		return nil, errUnterminated("subgraph", open.no, open.text)
	}

	return &b.fc, nil
}
