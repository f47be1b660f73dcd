package parser

import (
	"strings"

	"github.com/markviz/markviz/pkg/ast"
)

// msgOp is one sequence message operator.
type msgOp struct {
	token string
	typ   ast.MessageType
	kind  ast.MessageKind
}

// msgOps lists message operators longest-first so "-->>" is not split
// into "-->" plus ">".
var msgOps = []msgOp{
	{"-->>", ast.MessageDotted, ast.MessageReply},
	{"--x", ast.MessageDotted, ast.MessageCross},
	{"--)", ast.MessageDotted, ast.MessageAsync},
	{"->>", ast.MessageSolid, ast.MessageSync},
	{"-->", ast.MessageDotted, ast.MessageSync},
	{"-x", ast.MessageSolid, ast.MessageCross},
	{"-)", ast.MessageSolid, ast.MessageAsync},
	{"->", ast.MessageSolid, ast.MessageSync},
}

// blockKeywords maps statement keywords to block types. alt/par/critical
// blocks may carry else/and branches.
var blockKeywords = map[string]ast.BlockType{
	"alt":      ast.BlockAlt,
	"opt":      ast.BlockOpt,
	"loop":     ast.BlockLoop,
	"par":      ast.BlockPar,
	"critical": ast.BlockCritical,
	"break":    ast.BlockBreak,
	"rect":     ast.BlockRect,
}

// seqBuilder tracks the open block stack while parsing statements.
type seqBuilder struct {
	d       ast.SequenceDiagram
	seen    map[string]bool
	stack   []*ast.SequenceBlock
	openAt  []srcLine
}

// addParticipant registers a participant on first mention.
func (b *seqBuilder) addParticipant(id, alias string) {
	id = strings.TrimSpace(id)
	if id == "" || b.seen[id] {
		return
	}
	b.seen[id] = true
	b.d.Participants = append(b.d.Participants, ast.Participant{ID: id, Alias: alias})
}

// sink returns the element list currently being appended to: the innermost
// open block branch, or the diagram body.
func (b *seqBuilder) sink() *[]ast.SequenceElement {
	if n := len(b.stack); n > 0 {
		blk := b.stack[n-1]
		if m := len(blk.Branches); m > 0 {
			return &blk.Branches[m-1].Elements
		}
		return &blk.Elements
	}
	return &b.d.Elements
}

func (b *seqBuilder) emit(el ast.SequenceElement) {
	sink := b.sink()
	*sink = append(*sink, el)
}

// parseMessage parses one "A->>+B: label" statement.
func (b *seqBuilder) parseMessage(text string) bool {
	for _, op := range msgOps {
		pos := strings.Index(text, op.token)
		if pos <= 0 {
			continue
		}
		from := strings.TrimSpace(text[:pos])
		rest := text[pos+len(op.token):]

		// Activation shorthand: "+" activates the target, "-" deactivates
		// the sender, after the message is emitted.
		activate, deactivate := false, false
		if strings.HasPrefix(rest, "+") {
			activate = true
			rest = rest[1:]
		} else if strings.HasPrefix(rest, "-") {
			deactivate = true
			rest = rest[1:]
		}

		to, label := rest, ""
		if colon := strings.Index(rest, ":"); colon >= 0 {
			to = rest[:colon]
			label = strings.TrimSpace(rest[colon+1:])
		}
		to = strings.TrimSpace(to)
		if from == "" || to == "" {
			return false
		}

		b.addParticipant(from, "")
		b.addParticipant(to, "")
		b.emit(ast.SequenceElement{Message: &ast.SequenceMessage{
			From:  from,
			To:    to,
			Label: label,
			Type:  op.typ,
			Kind:  op.kind,
		}})
		if activate {
			b.emit(ast.SequenceElement{Activate: to})
		}
		if deactivate {
			b.emit(ast.SequenceElement{Deactivate: from})
		}
		return true
	}
	return false
}

// parseNote parses "Note left of A: text", "Note right of A: text" and
// "Note over A,B: text". The keyword is case-insensitive.
func parseNote(text string) *ast.SequenceNote {
	lower := strings.ToLower(text)
	if !strings.HasPrefix(lower, "note ") {
		return nil
	}
	rest := strings.TrimSpace(text[len("note "):])
	lowerRest := strings.ToLower(rest)

	var pos ast.NotePosition
	switch {
	case strings.HasPrefix(lowerRest, "left of "):
		pos = ast.NoteLeftOf
		rest = rest[len("left of "):]
	case strings.HasPrefix(lowerRest, "right of "):
		pos = ast.NoteRightOf
		rest = rest[len("right of "):]
	case strings.HasPrefix(lowerRest, "over "):
		pos = ast.NoteOver
		rest = rest[len("over "):]
	default:
		return nil
	}

	colon := strings.Index(rest, ":")
	if colon < 0 {
		return nil
	}
	who := strings.TrimSpace(rest[:colon])
	note := &ast.SequenceNote{
		Position: pos,
		Text:     strings.TrimSpace(rest[colon+1:]),
	}
	if first, second, found := strings.Cut(who, ","); found && pos == ast.NoteOver {
		note.Participant = strings.TrimSpace(first)
		note.Spans = strings.TrimSpace(second)
	} else {
		note.Participant = who
	}
	return note
}

func parseSequence(lines []srcLine) (*ast.SequenceDiagram, error) {
	b := &seqBuilder{seen: make(map[string]bool)}

	for _, ln := range lines {
		text := ln.text

		switch {
		case strings.HasPrefix(text, "participant "):
			rest := strings.TrimPrefix(text, "participant ")
			if id, alias, found := strings.Cut(rest, " as "); found {
				b.addParticipant(id, strings.Trim(strings.TrimSpace(alias), `"`))
			} else {
				b.addParticipant(rest, "")
			}
			continue

		case strings.HasPrefix(text, "actor "):
			rest := strings.TrimPrefix(text, "actor ")
			if id, alias, found := strings.Cut(rest, " as "); found {
				b.addParticipant(id, strings.Trim(strings.TrimSpace(alias), `"`))
			} else {
				b.addParticipant(rest, "")
			}
			continue

		case text == "autonumber":
			b.d.Autonumber = true
			continue

		case strings.HasPrefix(text, "title"):
			rest := strings.TrimPrefix(text, "title")
			b.d.Title = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			continue

		case strings.HasPrefix(text, "activate "):
			b.emit(ast.SequenceElement{Activate: strings.TrimSpace(strings.TrimPrefix(text, "activate "))})
			continue

		case strings.HasPrefix(text, "deactivate "):
			b.emit(ast.SequenceElement{Deactivate: strings.TrimSpace(strings.TrimPrefix(text, "deactivate "))})
			continue

		case text == "end":
			if n := len(b.stack); n > 0 {
				blk := b.stack[n-1]
				b.stack = b.stack[:n-1]
				b.openAt = b.openAt[:n-1]
				b.emit(ast.SequenceElement{Block: blk})
			}
			continue
		}

		if note := parseNote(text); note != nil {
			b.emit(ast.SequenceElement{Note: note})
			continue
		}

		// Block open and branch keywords.
		keyword, label, _ := strings.Cut(text, " ")
		if bt, isBlock := blockKeywords[keyword]; isBlock {
			b.stack = append(b.stack, &ast.SequenceBlock{Type: bt, Label: strings.TrimSpace(label)})
			b.openAt = append(b.openAt, ln)
			continue
		}
		if keyword == "else" || keyword == "and" {
			if n := len(b.stack); n > 0 {
				blk := b.stack[n-1]
				blk.Branches = append(blk.Branches, ast.BlockBranch{Label: strings.TrimSpace(label)})
			}
			continue
		}

		if b.parseMessage(text) {
			continue
		}
		// Unknown statements are tolerated and skipped.
	}

	if n := len(b.openAt); n > 0 {
		open := b.openAt[n-1]
		return nil, errUnterminated("block", open.no, open.text)
	}

	if len(b.d.Participants) == 0 {
		return nil, errMissingElement(ast.KindSequence, "participants")
	}
	return &b.d, nil
}
