package layout

import (
	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
)

// Vertical advance per sequence element. The renderer walks elements
// with the same steps, so these constants define the shared rhythm.
const (
	seqStartX            = 40.0
	seqStartY            = 20.0
	seqHeadGap           = 40.0
	seqMessageStep       = 50.0
	seqActivationStep    = 24.0
	seqNoteStep          = 42.0
	seqBlockOpenStep     = 18.0
	seqBranchStep        = 32.0
	seqBlockCloseStep    = 10.0
	seqMinParticipantW   = 96.0
	seqParticipantSlack  = 28.0
	seqBaseGapSlack      = 72.0
	seqMinGap            = 140.0
	seqMessageLabelSlack = 42.0
	seqMinPairDistance   = 120.0
)

// Sequence lays out a sequence diagram: participant header boxes across
// the top, then a bounding box tall enough for every element. Participant
// spacing starts from a uniform gap and is widened until every message
// label fits between its endpoints; widening shifts all later
// participants right so the declared order is preserved.
func (e *Engine) Sequence(sd *ast.SequenceDiagram) *Result {
	res := &Result{Positions: map[string]Rect{}, Waypoints: map[dag.EdgeKey][]Point{}}
	if len(sd.Participants) == 0 {
		return res
	}

	participantH := max(e.fontSize*2.4, 36)

	widths := make([]float64, len(sd.Participants))
	for i, p := range sd.Participants {
		labelW := e.textWidth(p.DisplayName(), e.fontSize)
		widths[i] = max(labelW+seqParticipantSlack, seqMinParticipantW)
	}

	centers := make([]float64, len(sd.Participants))
	centers[0] = seqStartX + widths[0]/2
	for i := 1; i < len(widths); i++ {
		gap := max((widths[i-1]+widths[i])/2+seqBaseGapSlack, seqMinGap)
		centers[i] = centers[i-1] + gap
	}

	index := make(map[string]int, len(sd.Participants))
	for i, p := range sd.Participants {
		index[p.ID] = i
	}

	var demands []pairDemand
	e.collectPairDemands(sd.Elements, index, &demands)

	// Spread passes: each unmet demand shifts every center at or right of
	// the pair's right end. Three passes settle all practical inputs.
	for pass := 0; pass < 3; pass++ {
		changed := false
		for _, d := range demands {
			if d.a >= d.b {
				continue
			}
			distance := centers[d.b] - centers[d.a]
			if distance+0.5 < d.required {
				delta := d.required - distance
				for i := d.b; i < len(centers); i++ {
					centers[i] += delta
				}
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for i, p := range sd.Participants {
		res.Positions[p.ID] = Rect{
			X: centers[i] - widths[i]/2,
			Y: seqStartY,
			W: widths[i],
			H: participantH,
		}
	}

	cursor := seqStartY + participantH + seqHeadGap
	maxLabelHalf := 0.0
	e.advanceCursor(sd.Elements, &cursor, &maxLabelHalf)
	if len(sd.Elements) == 0 {
		cursor += seqHeadGap
	}

	left, right := seqStartX, seqStartX+120
	for _, p := range res.Positions {
		left = min(left, p.X)
		right = max(right, p.Right())
	}

	res.Bounds = Rect{
		X: left,
		Y: 0,
		W: (right - left) + maxLabelHalf*2,
		H: cursor + 20,
	}.WithPadding(e.LabelPadding / 2)
	return res
}

type pairDemand struct {
	a, b     int
	required float64
}

// collectPairDemands records the minimum center distance each message
// needs, recursing through blocks and branches.
func (e *Engine) collectPairDemands(elements []ast.SequenceElement, index map[string]int, out *[]pairDemand) {
	for _, el := range elements {
		switch {
		case el.Message != nil:
			from, okF := index[el.Message.From]
			to, okT := index[el.Message.To]
			if !okF || !okT || from == to {
				continue
			}
			a, b := min(from, to), max(from, to)
			labelW := e.textWidth(el.Message.Label, e.fontSize*0.85)
			*out = append(*out, pairDemand{a, b, max(labelW+seqMessageLabelSlack, seqMinPairDistance)})
		case el.Block != nil:
			e.collectPairDemands(el.Block.Elements, index, out)
			for _, branch := range el.Block.Branches {
				e.collectPairDemands(branch.Elements, index, out)
			}
		}
	}
}

// advanceCursor walks the elements with the renderer's vertical steps and
// tracks the widest message label half-width for the bounding box.
func (e *Engine) advanceCursor(elements []ast.SequenceElement, cursor *float64, maxLabelHalf *float64) {
	for _, el := range elements {
		switch {
		case el.Message != nil:
			labelW := e.textWidth(el.Message.Label, e.fontSize*0.85)
			*maxLabelHalf = max(*maxLabelHalf, labelW/2+e.LabelPadding)
			*cursor += seqMessageStep
		case el.Activate != "" || el.Deactivate != "":
			*cursor += seqActivationStep
		case el.Note != nil:
			*cursor += seqNoteStep
		case el.Block != nil:
			*cursor += seqBlockOpenStep
			e.advanceCursor(el.Block.Elements, cursor, maxLabelHalf)
			for _, branch := range el.Block.Branches {
				*cursor += seqBranchStep
				e.advanceCursor(branch.Elements, cursor, maxLabelHalf)
			}
			*cursor += seqBlockCloseStep
		}
	}
}
