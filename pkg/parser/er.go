package parser

import (
	"strings"

	"github.com/markviz/markviz/pkg/ast"
)

// cardOp is one crow's-foot relationship operator.
type cardOp struct {
	token string
	from  ast.ERCardinality
	to    ast.ERCardinality
}

// cardOps lists the nine relationship operator pairs.
var cardOps = []cardOp{
	{"||--||", ast.CardExactlyOne, ast.CardExactlyOne},
	{"||--o{", ast.CardExactlyOne, ast.CardZeroOrMore},
	{"||--|{", ast.CardExactlyOne, ast.CardOneOrMore},
	{"}o--o{", ast.CardZeroOrMore, ast.CardZeroOrMore},
	{"}o--||", ast.CardZeroOrMore, ast.CardExactlyOne},
	{"}o--|{", ast.CardZeroOrMore, ast.CardOneOrMore},
	{"|o--o{", ast.CardZeroOrOne, ast.CardZeroOrMore},
	{"|o--||", ast.CardZeroOrOne, ast.CardExactlyOne},
	{"|o--|{", ast.CardZeroOrOne, ast.CardOneOrMore},
}

// parseERRelationship parses `USER ||--o{ ORDER : places`.
func parseERRelationship(text string) (ast.ERRelationship, bool) {
	for _, op := range cardOps {
		idx := strings.Index(text, op.token)
		if idx <= 0 {
			continue
		}
		rel := ast.ERRelationship{
			From:            strings.TrimSpace(text[:idx]),
			FromCardinality: op.from,
			ToCardinality:   op.to,
		}
		rest := strings.TrimSpace(text[idx+len(op.token):])
		if to, label, found := strings.Cut(rest, ":"); found {
			rel.To = strings.TrimSpace(to)
			rel.Label = strings.Trim(strings.TrimSpace(label), `"`)
		} else {
			rel.To = rest
		}
		if rel.From == "" || rel.To == "" {
			return ast.ERRelationship{}, false
		}
		return rel, true
	}
	return ast.ERRelationship{}, false
}

// parseERAttribute parses one attribute row: `string name PK "comment"`,
// with the key marker and comment optional. A name wrapped in brackets
// marks a composite attribute.
func parseERAttribute(text string) (ast.ERAttribute, bool) {
	attr := ast.ERAttribute{}

	if quote := strings.Index(text, `"`); quote >= 0 {
		comment := strings.TrimSpace(text[quote:])
		attr.Comment = strings.Trim(comment, `"`)
		text = strings.TrimSpace(text[:quote])
	}

	fields := strings.Fields(text)
	switch len(fields) {
	case 0:
		return attr, false
	case 1:
		attr.Name = fields[0]
	default:
		attr.Type = fields[0]
		attr.Name = fields[1]
		for _, marker := range fields[2:] {
			switch strings.ToUpper(marker) {
			case "PK", "FK", "UK":
				if attr.Key == "" {
					attr.Key = strings.ToUpper(marker)
				}
			}
		}
	}

	if strings.HasPrefix(attr.Name, "[") && strings.HasSuffix(attr.Name, "]") {
		attr.Name = strings.Trim(attr.Name, "[]")
		attr.Composite = true
	}
	return attr, attr.Name != ""
}

func parseER(lines []srcLine) (*ast.ERDiagram, error) {
	d := &ast.ERDiagram{}
	index := make(map[string]int)

	ensure := func(name string) *ast.EREntity {
		if i, exists := index[name]; exists {
			return &d.Entities[i]
		}
		index[name] = len(d.Entities)
		d.Entities = append(d.Entities, ast.EREntity{Name: name})
		return &d.Entities[len(d.Entities)-1]
	}

	var current string // entity whose attribute block is open
	var openAt srcLine

	for _, ln := range lines {
		text := ln.text

		if current != "" {
			if text == "}" {
				current = ""
				continue
			}
			if attr, ok := parseERAttribute(text); ok {
				ent := ensure(current)
				ent.Attributes = append(ent.Attributes, attr)
			}
			continue
		}

		if rel, ok := parseERRelationship(text); ok {
			ensure(rel.From)
			ensure(rel.To)
			d.Relationships = append(d.Relationships, rel)
			continue
		}

		if name, found := strings.CutSuffix(text, "{"); found {
			name = strings.TrimSpace(name)
			if !isBareIdent(name) {
				return nil, errNodeSyntax(ln)
			}
			ensure(name)
			current = name
			openAt = ln
			continue
		}

		if isBareIdent(text) {
			ensure(text)
		}
	}

	if current != "" {
		return nil, errUnterminated("entity block", openAt.no, openAt.text)
	}
	if len(d.Entities) == 0 {
		return nil, errMissingElement(ast.KindER, "entities")
	}
	return d, nil
}
