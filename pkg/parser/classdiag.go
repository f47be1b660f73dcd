package parser

import (
	"regexp"
	"strings"

	"github.com/markviz/markviz/pkg/ast"
)

// relOp is one class relation operator.
type relOp struct {
	token string
	typ   ast.ClassRelationType
}

// relOps lists relation operators. Earliest match wins, ties go to the
// longest token so "..|>" beats "..>" and "<|--" beats "--".
var relOps = []relOp{
	{"<|--", ast.RelInheritance},
	{"..|>", ast.RelRealization},
	{"*--", ast.RelComposition},
	{"o--", ast.RelAggregation},
	{"-->", ast.RelAssociation},
	{"..>", ast.RelDependency},
	{"--", ast.RelLink},
	{"..", ast.RelLink},
}

func findRelOp(s string) (idx int, op relOp, ok bool) {
	idx = -1
	for _, cand := range relOps {
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

// genericSugar rewrites mermaid generics (~T~) to angle brackets.
var genericSugar = regexp.MustCompile(`~([^~]+)~`)

func expandGenerics(s string) string {
	return genericSugar.ReplaceAllString(s, "<$1>")
}

// parseVisibility strips a leading visibility marker, defaulting to public.
func parseVisibility(s string) (ast.Visibility, string) {
	if s == "" {
		return ast.VisPublic, s
	}
	switch s[0] {
	case '+':
		return ast.VisPublic, s[1:]
	case '-':
		return ast.VisPrivate, s[1:]
	case '#':
		return ast.VisProtected, s[1:]
	case '~':
		return ast.VisPackage, s[1:]
	}
	return ast.VisPublic, s
}

// parseClassMember parses one body line into an attribute or method.
// A trailing "$" marks static, a trailing "*" abstract; a "(" marks a method.
func parseClassMember(text string, cls *ast.ClassDefinition) {
	vis, rest := parseVisibility(text)
	rest = strings.TrimSpace(rest)

	static := strings.HasSuffix(rest, "$")
	abstract := strings.HasSuffix(rest, "*")
	rest = strings.TrimRight(rest, "$*")
	rest = strings.TrimSpace(expandGenerics(rest))
	if rest == "" {
		return
	}

	paren := strings.Index(rest, "(")
	if paren < 0 {
		// Attribute: "name: Type" or "Type name".
		attr := ast.ClassAttribute{Visibility: vis, Static: static, Abstract: abstract}
		if name, typ, found := strings.Cut(rest, ":"); found {
			attr.Name = strings.TrimSpace(name)
			attr.Type = strings.TrimSpace(typ)
		} else if typ, name, found := strings.Cut(rest, " "); found {
			attr.Type = strings.TrimSpace(typ)
			attr.Name = strings.TrimSpace(name)
		} else {
			attr.Name = rest
		}
		cls.Attributes = append(cls.Attributes, attr)
		return
	}

	method := ast.ClassMethod{
		Visibility: vis,
		Name:       strings.TrimSpace(rest[:paren]),
		Static:     static,
		Abstract:   abstract,
	}
	closeParen := strings.Index(rest, ")")
	if closeParen > paren {
		params := strings.TrimSpace(rest[paren+1 : closeParen])
		if params != "" {
			for _, p := range strings.Split(params, ",") {
				method.Params = append(method.Params, strings.TrimSpace(p))
			}
		}
		after := strings.TrimSpace(rest[closeParen+1:])
		after = strings.TrimSpace(strings.TrimPrefix(after, ":"))
		method.Returns = after
	}
	cls.Methods = append(cls.Methods, method)
}

// quotedEdge matches a quoted multiplicity at the start or end of an
// endpoint fragment, e.g. `User "1"` or `"0..*" Order`.
var (
	trailingQuote = regexp.MustCompile(`^(.*?)\s*"([^"]*)"\s*$`)
	leadingQuote  = regexp.MustCompile(`^\s*"([^"]*)"\s*(.*)$`)
)

// parseClassRelation parses `A "1" --> "many" B : label` lines.
func parseClassRelation(text string) (ast.ClassRelation, bool) {
	idx, op, ok := findRelOp(text)
	if !ok {
		return ast.ClassRelation{}, false
	}

	rel := ast.ClassRelation{Type: op.typ}
	left := strings.TrimSpace(text[:idx])
	rest := strings.TrimSpace(text[idx+len(op.token):])

	if m := trailingQuote.FindStringSubmatch(left); m != nil {
		left = strings.TrimSpace(m[1])
		rel.MultiplicityFrom = m[2]
	}

	if to, label, found := strings.Cut(rest, ":"); found {
		rest = strings.TrimSpace(to)
		rel.Label = strings.TrimSpace(label)
	}
	if m := leadingQuote.FindStringSubmatch(rest); m != nil {
		rel.MultiplicityTo = m[1]
		rest = strings.TrimSpace(m[2])
	}

	rel.From = expandGenerics(left)
	rel.To = expandGenerics(rest)
	if rel.From == "" || rel.To == "" {
		return ast.ClassRelation{}, false
	}
	return rel, true
}

func parseClass(lines []srcLine) (*ast.ClassDiagram, error) {
	d := &ast.ClassDiagram{}
	index := make(map[string]int)

	addClass := func(cls ast.ClassDefinition) *ast.ClassDefinition {
		if i, exists := index[cls.Name]; exists {
			return &d.Classes[i]
		}
		index[cls.Name] = len(d.Classes)
		d.Classes = append(d.Classes, cls)
		return &d.Classes[len(d.Classes)-1]
	}

	var current *ast.ClassDefinition
	var openAt srcLine

	for _, ln := range lines {
		text := ln.text

		if text == "}" {
			current = nil
			continue
		}

		if current != nil {
			if st, found := strings.CutPrefix(text, "<<"); found {
				st = strings.TrimSpace(strings.TrimSuffix(st, ">>"))
				current.Stereotype = st
				switch strings.ToLower(st) {
				case "interface":
					current.Interface = true
				case "abstract":
					current.Abstract = true
				}
				continue
			}
			parseClassMember(text, current)
			continue
		}

		if strings.HasPrefix(text, "class ") {
			rest := strings.TrimSpace(strings.TrimPrefix(text, "class "))
			body := strings.HasSuffix(rest, "{")
			if body {
				rest = strings.TrimSpace(strings.TrimSuffix(rest, "{"))
			}
			name := expandGenerics(rest)
			if name == "" {
				return nil, errNodeSyntax(ln)
			}
			cls := addClass(ast.ClassDefinition{Name: name})
			if body {
				current = cls
				openAt = ln
			}
			continue
		}

		if rel, ok := parseClassRelation(text); ok {
			addClass(ast.ClassDefinition{Name: rel.From})
			addClass(ast.ClassDefinition{Name: rel.To})
			d.Relations = append(d.Relations, rel)
			continue
		}

		// Member declared outside a body: "ClassName : +member" form.
		if name, member, found := strings.Cut(text, ":"); found {
			name = strings.TrimSpace(name)
			if isBareIdent(name) {
				cls := addClass(ast.ClassDefinition{Name: name})
				parseClassMember(strings.TrimSpace(member), cls)
				continue
			}
		}
	}

	if current != nil {
		return nil, errUnterminated("class body", openAt.no, openAt.text)
	}
	if len(d.Classes) == 0 {
		return nil, errMissingElement(ast.KindClass, "classes")
	}
	return d, nil
}
