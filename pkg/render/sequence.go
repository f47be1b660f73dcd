package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/markviz/markviz/pkg/ast"
)

// seqState carries the mutable cursor of the element walk: the current
// message y, per-participant activation bar stacks and the running
// autonumber counter.
type seqState struct {
	y           float64
	activations map[string][]float64
	msgNumber   int
	autonumber  bool
}

func (r *renderer) sequence(sd *ast.SequenceDiagram) (float64, float64) {
	if len(sd.Participants) == 0 {
		r.buf.WriteString("<g></g>")
		return 100, 50
	}

	res := r.eng.Sequence(sd)

	titleOffset := 0.0
	if sd.Title != "" {
		titleOffset = 24.0
		fmt.Fprintf(&r.buf, `<g transform="translate(0,%.2f)">`, titleOffset)
	}

	centers := make(map[string]float64, len(sd.Participants))
	for _, p := range sd.Participants {
		if pos, ok := res.Pos(p.ID); ok {
			centers[p.ID] = pos.CenterX()
		}
	}

	leftEdge, rightEdge := 40.0, 120.0
	for _, cx := range centers {
		leftEdge = math.Min(leftEdge, cx)
		rightEdge = math.Max(rightEdge, cx)
	}

	participantBottom := res.Bounds.Y + 40
	for _, p := range sd.Participants {
		pos, ok := res.Pos(p.ID)
		if !ok {
			continue
		}
		participantBottom = math.Max(participantBottom, pos.Bottom())

		fmt.Fprintf(&r.buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1" rx="4" />`,
			pos.X, pos.Y, pos.W, pos.H, r.style.NodeFill, r.style.NodeStroke)
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" dy="0.35em" font-family="%s" font-size="%.1f" font-weight="500" fill="%s" text-anchor="middle">%s</text>`,
			centers[p.ID], pos.CenterY(), r.style.FontFamily, r.fontSize(), r.style.NodeText, escapeXML(p.DisplayName()))
	}

	lifelineStartY := participantBottom + 8

	st := &seqState{
		y:           participantBottom + 34,
		activations: map[string][]float64{},
		autonumber:  sd.Autonumber,
	}
	var elements bytes.Buffer
	r.sequenceElements(&elements, sd.Elements, centers, st, 0, leftEdge, rightEdge)

	lifelineEndY := math.Max(st.y+6, lifelineStartY+24)
	for _, p := range sd.Participants {
		if cx, ok := centers[p.ID]; ok {
			fmt.Fprintf(&r.buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75" stroke-dasharray="6,4" />`,
				cx, lifelineStartY, cx, lifelineEndY, r.style.EdgeStroke)
		}
	}
	r.buf.Write(elements.Bytes())

	if sd.Title != "" {
		r.buf.WriteString("</g>")
		fmt.Fprintf(&r.buf, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			(res.Bounds.X+res.Bounds.Right())/2, 16.0, r.style.FontFamily, r.fontSize(), r.style.NodeText, escapeXML(sd.Title))
	}

	return res.Bounds.Right() + framePadding,
		math.Max(res.Bounds.Bottom(), st.y+20) + framePadding + titleOffset
}

func (r *renderer) sequenceElements(out *bytes.Buffer, elements []ast.SequenceElement, centers map[string]float64, st *seqState, depth int, leftEdge, rightEdge float64) {
	for _, el := range elements {
		switch {
		case el.Message != nil:
			r.sequenceMessage(out, el.Message, centers, st)
		case el.Activate != "":
			if cx, ok := centers[el.Activate]; ok {
				st.activations[el.Activate] = append(st.activations[el.Activate], st.y-10)
				fmt.Fprintf(out, `<rect x="%.2f" y="%.2f" width="8" height="16" fill="%s" stroke="%s" stroke-width="1" />`,
					cx-4, st.y-10, r.style.NodeFill, r.style.NodeStroke)
			}
			st.y += 24
		case el.Deactivate != "":
			if cx, ok := centers[el.Deactivate]; ok {
				if starts := st.activations[el.Deactivate]; len(starts) > 0 {
					start := starts[len(starts)-1]
					st.activations[el.Deactivate] = starts[:len(starts)-1]
					fmt.Fprintf(out, `<rect x="%.2f" y="%.2f" width="8" height="%.2f" fill="%s" fill-opacity="0.35" stroke="%s" stroke-width="1" />`,
						cx-4, start, math.Max(st.y-start, 16), r.style.NodeFill, r.style.NodeStroke)
				}
			}
			st.y += 24
		case el.Note != nil:
			r.sequenceNote(out, el.Note, centers, st)
		case el.Block != nil:
			r.sequenceBlock(out, el.Block, centers, st, depth, leftEdge, rightEdge)
		}
	}
}

func (r *renderer) sequenceMessage(out *bytes.Buffer, msg *ast.SequenceMessage, centers map[string]float64, st *seqState) {
	st.msgNumber++
	x1, okFrom := centers[msg.From]
	x2, okTo := centers[msg.To]
	if !okFrom || !okTo {
		st.y += 50
		return
	}

	dash := ""
	if msg.Type == ast.MessageDotted || msg.Kind == ast.MessageReply {
		dash = ` stroke-dasharray="4,4"`
	}
	fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75"%s />`,
		x1, st.y, x2, st.y, r.style.EdgeStroke, dash)

	arrowDir := 1.0
	if x2 > x1 {
		arrowDir = -1.0
	}
	switch msg.Kind {
	case ast.MessageSync:
		fmt.Fprintf(out, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" />`,
			x2, st.y, x2+arrowDir*10, st.y-5, x2+arrowDir*10, st.y+5, r.style.EdgeStroke)
	case ast.MessageCross:
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2" />`,
			x2-5, st.y-5, x2+5, st.y+5, r.style.EdgeStroke)
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2" />`,
			x2-5, st.y+5, x2+5, st.y-5, r.style.EdgeStroke)
	default: // async and reply use an open head
		fmt.Fprintf(out, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="0.75" />`,
			x2+arrowDir*10, st.y-5, x2, st.y, x2+arrowDir*10, st.y+5, r.style.EdgeStroke)
	}

	label := msg.Label
	if st.autonumber && label != "" {
		label = fmt.Sprintf("%d. %s", st.msgNumber, label)
	}
	if label != "" {
		fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`,
			(x1+x2)/2, st.y-8, r.style.FontFamily, r.fontSize()*0.85, r.style.NodeText, escapeXML(label))
	}
	st.y += 50
}

func (r *renderer) sequenceNote(out *bytes.Buffer, note *ast.SequenceNote, centers map[string]float64, st *seqState) {
	cx, ok := centers[note.Participant]
	if !ok {
		st.y += 42
		return
	}
	if note.Spans != "" {
		if cx2, ok := centers[note.Spans]; ok {
			cx = (cx + cx2) / 2
		}
	}

	noteWidth := r.textWidth(sanitizeText(note.Text), r.fontSize()*0.8) + 20
	noteWidth = math.Max(80, math.Min(220, noteWidth))

	var x float64
	switch note.Position {
	case ast.NoteLeftOf:
		x = cx - noteWidth - 12
	case ast.NoteRightOf:
		x = cx + 12
	default:
		x = cx - noteWidth/2
	}
	y := st.y - 18

	fmt.Fprintf(out, `<rect x="%.2f" y="%.2f" width="%.2f" height="28" rx="3" fill="%s" fill-opacity="0.25" stroke="%s" stroke-width="1" />`,
		x, y, noteWidth, r.style.NodeFill, r.style.NodeStroke)
	fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s">%s</text>`,
		x+8, y+18, r.style.FontFamily, r.fontSize()*0.8, r.style.NodeText, escapeXML(note.Text))
	st.y += 42
}

func (r *renderer) sequenceBlock(out *bytes.Buffer, block *ast.SequenceBlock, centers map[string]float64, st *seqState, depth int, leftEdge, rightEdge float64) {
	startY := st.y - 14
	inset := float64(depth) * 8
	blockLeft := leftEdge - 36 + inset
	blockRight := rightEdge + 36 - inset

	title := string(block.Type)
	if block.Label != "" {
		title += " " + block.Label
	}
	fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" font-weight="bold">%s</text>`,
		blockLeft+6, st.y, r.style.FontFamily, r.fontSize()*0.8, r.style.NodeText, escapeXML(title))
	st.y += 18

	r.sequenceElements(out, block.Elements, centers, st, depth+1, leftEdge, rightEdge)

	for _, branch := range block.Branches {
		separatorY := st.y + 2
		fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" stroke-dasharray="5,3" />`,
			blockLeft, separatorY, blockRight, separatorY, r.style.EdgeStroke)
		if branch.Label != "" {
			fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s">%s</text>`,
				blockLeft+6, separatorY-4, r.style.FontFamily, r.fontSize()*0.78, r.style.NodeText, escapeXML(branch.Label))
		}
		st.y = separatorY + 30
		r.sequenceElements(out, branch.Elements, centers, st, depth+1, leftEdge, rightEdge)
	}

	fmt.Fprintf(out, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="1" stroke-dasharray="5,3" />`,
		blockLeft, startY, math.Max(blockRight-blockLeft, 24), math.Max(st.y-startY+16, 28), r.style.EdgeStroke)
	st.y += 10
}
