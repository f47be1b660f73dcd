package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/layout"
)

func (r *renderer) state(sd *ast.StateDiagram) (float64, float64) {
	if len(sd.States) == 0 {
		r.buf.WriteString("<g></g>")
		return 100, 50
	}

	res := r.eng.State(sd)

	var content bytes.Buffer

	obstacles := make([]layout.Rect, 0, len(res.Positions))
	for _, st := range sd.States {
		if pos, ok := res.Pos(st.ID); ok {
			obstacles = append(obstacles, pos.WithPadding(8))
		}
	}

	pairTotals := map[[2]string]int{}
	for _, tr := range sd.Transitions {
		pairTotals[statePairKey(tr.From, tr.To)]++
	}

	transMinX, transMaxX, transMaxY := math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64

	pairSeen := map[[2]string]int{}
	var occupied []layout.Rect
	for _, tr := range sd.Transitions {
		key := statePairKey(tr.From, tr.To)
		routeIndex := pairSeen[key]
		pairSeen[key]++

		from, okFrom := res.Pos(tr.From)
		to, okTo := res.Pos(tr.To)
		if !okFrom || !okTo {
			continue
		}
		ext := r.stateTransition(&content, tr, from, to, routeIndex, pairTotals[key], &occupied, obstacles)
		transMinX = math.Min(transMinX, ext.X)
		transMaxX = math.Max(transMaxX, ext.Right())
		transMaxY = math.Max(transMaxY, ext.Bottom())
	}

	for i := range sd.States {
		if pos, ok := res.Pos(sd.States[i].ID); ok {
			r.stateNode(&content, &sd.States[i], pos, res)
		}
	}

	totalWidth := res.Bounds.Right() + framePadding
	totalHeight := res.Bounds.Bottom() + framePadding
	if transMaxX != -math.MaxFloat64 {
		totalWidth = math.Max(totalWidth, transMaxX+framePadding)
	}
	if transMaxY != -math.MaxFloat64 {
		totalHeight = math.Max(totalHeight, transMaxY+framePadding)
	}

	// Routes can swing left of the origin; shift the whole drawing right.
	if transMinX != math.MaxFloat64 && transMinX < 0 {
		shift := -transMinX + framePadding
		fmt.Fprintf(&r.buf, `<g transform="translate(%.2f,0)">`, shift)
		r.buf.Write(content.Bytes())
		r.buf.WriteString("</g>")
		return totalWidth + shift, totalHeight
	}

	r.buf.Write(content.Bytes())
	return totalWidth, totalHeight
}

func statePairKey(from, to string) [2]string {
	if from <= to {
		return [2]string{from, to}
	}
	return [2]string{to, from}
}

func (r *renderer) stateNode(out *bytes.Buffer, st *ast.State, pos layout.Rect, res *layout.Result) {
	switch {
	case st.Start:
		fmt.Fprintf(out, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" />`,
			pos.CenterX(), pos.CenterY(), pos.W/2, r.style.NodeStroke)
	case st.End:
		fmt.Fprintf(out, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="2" />`,
			pos.CenterX(), pos.CenterY(), pos.W/2-3, r.style.NodeStroke, r.style.NodeStroke)
		fmt.Fprintf(out, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="2" />`,
			pos.CenterX(), pos.CenterY(), pos.W/2, r.style.NodeStroke)
	default:
		fmt.Fprintf(out, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="10" fill="%s" stroke="%s" stroke-width="1" />`,
			pos.X, pos.Y, pos.W, pos.H, r.style.NodeFill, r.style.NodeStroke)

		textY := pos.CenterY() + r.fontSize()/3
		if st.Composite {
			textY = pos.Y + r.fontSize() + 8
		}
		fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`,
			pos.CenterX(), textY, r.style.FontFamily, r.fontSize(), r.style.NodeText, escapeXML(st.Label))

		if st.Composite {
			r.compositeContents(out, st, pos, res)
		}
	}
}

// compositeContents places the children of a composite state inside its
// frame, stacked vertically under the header, and routes the inner
// transitions around them. The stacking mirrors Engine.StateSize so the
// children always fit the frame it measured.
func (r *renderer) compositeContents(out *bytes.Buffer, parent *ast.State, parentPos layout.Rect, res *layout.Result) {
	if len(parent.Children) == 0 {
		return
	}

	headerH := r.fontSize()*2 + 16
	const (
		innerPad  = 16.0
		routeLane = 40.0
		childGap  = 20.0
	)
	contentLeft := parentPos.X + innerPad + routeLane
	contentWidth := parentPos.W - innerPad*2 - routeLane*2

	childPositions := make(map[string]layout.Rect, len(parent.Children))
	yCursor := parentPos.Y + headerH + innerPad
	for i := range parent.Children {
		child := &parent.Children[i]
		size := r.eng.StateSize(child)
		childPos := layout.Rect{X: contentLeft, Y: yCursor, W: math.Max(contentWidth, size.W), H: size.H}
		if child.Start || child.End {
			childPos.W = size.W
		}
		childPositions[child.ID] = childPos
		r.stateNode(out, child, childPos, res)
		yCursor += size.H + childGap
	}

	pairTotals := map[[2]string]int{}
	for _, tr := range parent.Transitions {
		pairTotals[statePairKey(tr.From, tr.To)]++
	}

	// Outer nodes count as obstacles unless they are (or cover most of)
	// the composite frame itself.
	obstacles := make([]layout.Rect, 0, len(childPositions))
	for _, pos := range childPositions {
		obstacles = append(obstacles, pos.WithPadding(3))
	}
	for _, pos := range res.Positions {
		if !pos.Intersects(parentPos) || pos.W < parentPos.W*0.5 {
			obstacles = append(obstacles, pos.WithPadding(3))
		}
	}

	pairSeen := map[[2]string]int{}
	var occupied []layout.Rect
	for _, tr := range parent.Transitions {
		key := statePairKey(tr.From, tr.To)
		routeIndex := pairSeen[key]
		pairSeen[key]++

		from, okFrom := childPositions[tr.From]
		if !okFrom {
			from, okFrom = res.Pos(tr.From)
		}
		to, okTo := childPositions[tr.To]
		if !okTo {
			to, okTo = res.Pos(tr.To)
		}
		if okFrom && okTo {
			r.stateTransition(out, tr, from, to, routeIndex, pairTotals[key], &occupied, obstacles)
		}
	}
}

// routeHash derives a stable per-edge lane jitter so parallel routes in
// dense diagrams spread instead of stacking.
func routeHash(from, to string) uint32 {
	var h uint32
	for _, b := range []byte(from) {
		h = h*31 + uint32(b)
	}
	for _, b := range []byte(to) {
		h = h*31 + uint32(b)
	}
	return h
}

func (r *renderer) stateTransition(out *bytes.Buffer, tr ast.StateTransition, from, to layout.Rect, routeIndex, routeTotal int, occupied *[]layout.Rect, obstacles []layout.Rect) layout.Rect {
	extMinX, extMinY := math.MaxFloat64, math.MaxFloat64
	extMaxX, extMaxY := -math.MaxFloat64, -math.MaxFloat64
	track := func(x, y float64) {
		extMinX = math.Min(extMinX, x)
		extMinY = math.Min(extMinY, y)
		extMaxX = math.Max(extMaxX, x)
		extMaxY = math.Max(extMaxY, y)
	}

	fromCX, fromCY := from.CenterX(), from.CenterY()
	toCX, toCY := to.CenterX(), to.CenterY()
	centerAngle := math.Atan2(toCY-fromCY, toCX-fromCX)

	// Start and end dots are round; exit radially instead of clipping to
	// the bounding box.
	var px1, py1, px2, py2 float64
	if from.W == from.H && from.W < 30 {
		px1 = fromCX + math.Cos(centerAngle)*from.W/2
		py1 = fromCY + math.Sin(centerAngle)*from.W/2
	} else {
		p := boundaryPoint(from, centerAngle)
		px1, py1 = p.X, p.Y
	}
	if to.W == to.H && to.W < 30 {
		px2 = toCX + math.Cos(centerAngle+math.Pi)*to.W/2
		py2 = toCY + math.Sin(centerAngle+math.Pi)*to.W/2
	} else {
		p := boundaryPoint(to, centerAngle+math.Pi)
		px2, py2 = p.X, p.Y
	}

	hash := routeHash(tr.From, tr.To)
	lane := 0.0
	if routeTotal > 1 {
		lane = float64(routeIndex) - float64(routeTotal-1)/2
	}
	laneOffset := lane * 30
	globalLane := float64(hash%5) - 2
	globalOffset := globalLane * 6
	routeSide := 1.0
	switch {
	case tr.From > tr.To:
		routeSide = -1.0
	case tr.From == tr.To && hash%2 != 0:
		routeSide = -1.0
	}

	isEndpoint := func(o layout.Rect) bool {
		cx, cy := o.CenterX(), o.CenterY()
		return (math.Abs(cx-fromCX) < 1 && math.Abs(cy-fromCY) < 1) ||
			(math.Abs(cx-toCX) < 1 && math.Abs(cy-toCY) < 1)
	}

	verticalish := math.Abs(fromCX-toCX) < math.Min(from.W, to.W)/2 && math.Abs(py2-py1) > 30

	var labelAnchorX, labelAnchorY, arrowAngle float64
	arrowX, arrowY := px2, py2
	const (
		step     = 18.0
		maxSteps = 30
	)

	if verticalish {
		gap := math.Max(to.Y-from.Bottom(), from.Y-to.Bottom())
		topY, botY := to.Bottom(), from.Y
		if fromCY < toCY {
			topY, botY = from.Bottom(), to.Y
		}
		midX := (fromCX + toCX) / 2
		hasObstacleBetween := false
		straightCrosses := false
		if gap > 0 {
			for _, o := range obstacles {
				if isEndpoint(o) {
					continue
				}
				if midX >= o.X && midX <= o.Right() && o.Y < botY && o.Bottom() > topY {
					hasObstacleBetween = true
					break
				}
			}
		}
		for _, o := range obstacles {
			if isEndpoint(o) {
				continue
			}
			if lineIntersectsRect(px1, py1, px2, py2, o) {
				straightCrosses = true
				break
			}
		}
		adjacent := gap > 0 && gap < 60 && !hasObstacleBetween && !straightCrosses

		if adjacent {
			x := (fromCX + toCX) / 2
			y1, y2 := from.Y, to.Bottom()
			if fromCY < toCY {
				y1, y2 = from.Bottom(), to.Y
			}
			fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75" />`,
				x, y1, x, y2, r.style.EdgeStroke)
			track(x, y1)
			track(x, y2)
			labelAnchorX, labelAnchorY = x, (y1+y2)/2
			arrowAngle = math.Pi / 2
			if fromCY < toCY {
				arrowAngle = -math.Pi / 2
			}
			arrowX, arrowY = x, y2
		} else {
			// Route sideways through a vertical lane, trying both sides
			// and keeping whichever clears in fewer steps.
			maxHalfWidth := math.Max(from.W/2, to.W/2)
			exitY, enterY := fromCY, toCY
			bestLaneX := fromCX + routeSide*(maxHalfWidth+30)
			bestSteps := maxSteps

			for _, trySide := range []float64{routeSide, -routeSide} {
				base := fromCX + trySide*(maxHalfWidth+30+math.Abs(lane)*14)
				fex, tex := from.X, to.X
				if base >= fromCX {
					fex = from.Right()
				}
				if base >= toCX {
					tex = to.Right()
				}
				for i := 0; i < maxSteps; i++ {
					candidate := base + trySide*float64(i)*step
					if laneClear(obstacles, isEndpoint, func(o layout.Rect) bool {
						return !hsegHitsRect(exitY, fex, candidate, o) &&
							!vsegHitsRect(candidate, exitY, enterY, o) &&
							!hsegHitsRect(enterY, candidate, tex, o)
					}) && i < bestSteps {
						bestLaneX = candidate
						bestSteps = i
						break
					}
				}
			}

			laneX := bestLaneX
			fromExitX, toEnterX := from.X, to.X
			if laneX >= fromCX {
				fromExitX = from.Right()
			}
			if laneX >= toCX {
				toEnterX = to.Right()
			}

			fmt.Fprintf(out, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="0.75" />`,
				fromExitX, exitY, laneX, exitY, laneX, enterY, toEnterX, enterY, r.style.EdgeStroke)
			track(fromExitX, exitY)
			track(laneX, exitY)
			track(laneX, enterY)
			track(toEnterX, enterY)
			labelAnchorX, labelAnchorY = laneX, (exitY+enterY)/2
			arrowAngle = math.Pi
			if toEnterX > laneX {
				arrowAngle = 0
			}
			arrowX, arrowY = toEnterX, enterY
		}
	} else {
		straightBlocked := false
		for _, o := range obstacles {
			if isEndpoint(o) {
				continue
			}
			if lineIntersectsRect(px1, py1, px2, py2, o) {
				straightBlocked = true
				break
			}
		}

		if !straightBlocked {
			fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75" />`,
				px1, py1, px2, py2, r.style.EdgeStroke)
			track(px1, py1)
			track(px2, py2)
			arrowAngle = math.Atan2(py1-py2, px1-px2)

			// Jitter the label anchor along the edge so stacked labels
			// land at different offsets.
			dx, dy := px2-px1, py2-py1
			jitter := (float64(hash%7) - 3) * 0.07
			t := math.Min(0.75, math.Max(0.25, 0.5+jitter))
			labelAnchorX = px1 + dx*t
			labelAnchorY = py1 + dy*t
		} else {
			// Straight is blocked: try a Z-route on the horizontal
			// midline, then a U-route below or above, then a side lane.
			goingRight := toCX > fromCX
			simpleFromExitX, simpleToEnterX := from.X, to.Right()
			if goingRight {
				simpleFromExitX, simpleToEnterX = from.Right(), to.X
			}
			midY := (fromCY + toCY) / 2
			simpleClear := laneClear(obstacles, isEndpoint, func(o layout.Rect) bool {
				return !vsegHitsRect(simpleFromExitX, fromCY, midY, o) &&
					!hsegHitsRect(midY, simpleFromExitX, simpleToEnterX, o) &&
					!vsegHitsRect(simpleToEnterX, midY, toCY, o)
			})

			if simpleClear {
				fmt.Fprintf(out, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="0.75" />`,
					simpleFromExitX, fromCY, simpleFromExitX, midY, simpleToEnterX, midY, simpleToEnterX, toCY, r.style.EdgeStroke)
				track(simpleFromExitX, fromCY)
				track(simpleFromExitX, midY)
				track(simpleToEnterX, midY)
				track(simpleToEnterX, toCY)
				labelAnchorX, labelAnchorY = (simpleFromExitX+simpleToEnterX)/2, midY
				arrowAngle = math.Pi / 2
				if toCY > midY {
					arrowAngle = -math.Pi / 2
				}
				arrowX, arrowY = simpleToEnterX, toCY
			} else {
				uLaneY, uSteps := searchULane(from, to, lane, obstacles, isEndpoint)
				sideLaneX, sideSteps := searchSideLane(from, to, lane, routeSide, obstacles, isEndpoint)

				switch {
				case !math.IsNaN(uLaneY) && (math.IsNaN(sideLaneX) || uSteps <= sideSteps):
					fromExitY, toEnterY := from.Y, to.Y
					if uLaneY > fromCY {
						fromExitY = from.Bottom()
					}
					if uLaneY > toCY {
						toEnterY = to.Bottom()
					}
					fmt.Fprintf(out, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="0.75" />`,
						fromCX, fromExitY, fromCX, uLaneY, toCX, uLaneY, toCX, toEnterY, r.style.EdgeStroke)
					track(fromCX, fromExitY)
					track(fromCX, uLaneY)
					track(toCX, uLaneY)
					track(toCX, toEnterY)
					labelAnchorX, labelAnchorY = (fromCX+toCX)/2, uLaneY
					arrowAngle = math.Pi / 2
					if toEnterY > uLaneY {
						arrowAngle = -math.Pi / 2
					}
					arrowX, arrowY = toCX, toEnterY
				case !math.IsNaN(sideLaneX):
					exitY, enterY := fromCY, toCY
					fromExitX, toEnterX := from.X, to.X
					if sideLaneX >= fromCX {
						fromExitX = from.Right()
					}
					if sideLaneX >= toCX {
						toEnterX = to.Right()
					}
					fmt.Fprintf(out, `<polyline points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="none" stroke="%s" stroke-width="0.75" />`,
						fromExitX, exitY, sideLaneX, exitY, sideLaneX, enterY, toEnterX, enterY, r.style.EdgeStroke)
					track(fromExitX, exitY)
					track(sideLaneX, exitY)
					track(sideLaneX, enterY)
					track(toEnterX, enterY)
					labelAnchorX, labelAnchorY = sideLaneX, (exitY+enterY)/2
					arrowAngle = math.Pi
					if toEnterX > sideLaneX {
						arrowAngle = 0
					}
					arrowX, arrowY = toEnterX, enterY
				default:
					// Nothing clears; a crossing straight line beats no edge.
					fmt.Fprintf(out, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.75" />`,
						px1, py1, px2, py2, r.style.EdgeStroke)
					track(px1, py1)
					track(px2, py2)
					arrowAngle = math.Atan2(py1-py2, px1-px2)
					labelAnchorX, labelAnchorY = (px1+px2)/2, (py1+py2)/2
				}
			}
		}
	}

	cos, sin := math.Cos(arrowAngle), math.Sin(arrowAngle)
	fmt.Fprintf(out, `<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s" />`,
		arrowX, arrowY,
		arrowX+cos*10-sin*5, arrowY+sin*10+cos*5,
		arrowX+cos*10+sin*5, arrowY+sin*10-cos*5,
		r.style.EdgeStroke)

	if tr.Label != "" {
		rect := r.stateTransitionLabel(out, tr.Label, px1, py1, px2, py2,
			labelAnchorX, labelAnchorY, laneOffset, globalOffset, lane, globalLane,
			routeSide, verticalish, occupied, obstacles)
		track(rect.X, rect.Y)
		track(rect.Right(), rect.Bottom())
	}

	return layout.Rect{X: extMinX, Y: extMinY, W: extMaxX - extMinX, H: extMaxY - extMinY}
}

// laneClear reports whether every non-endpoint obstacle, grown by a small
// clearance, passes the segment test.
func laneClear(obstacles []layout.Rect, isEndpoint func(layout.Rect) bool, clear func(layout.Rect) bool) bool {
	for _, o := range obstacles {
		if isEndpoint(o) {
			continue
		}
		if !clear(o.WithPadding(6)) {
			return false
		}
	}
	return true
}

// searchULane looks for a horizontal lane below or above both boxes that
// a center-exit U-route can follow. Returns NaN when none clears.
func searchULane(from, to layout.Rect, lane float64, obstacles []layout.Rect, isEndpoint func(layout.Rect) bool) (float64, int) {
	const (
		step     = 18.0
		maxSteps = 30
	)
	fromCX, fromCY := from.CenterX(), from.CenterY()
	toCX, toCY := to.CenterX(), to.CenterY()

	prefSide := -1.0
	if toCY > fromCY {
		prefSide = 1.0
	}
	bestLaneY := math.NaN()
	bestSteps := maxSteps

	for _, trySide := range []float64{prefSide, -prefSide} {
		var base, fey, tey float64
		if trySide > 0 {
			base = math.Max(from.Bottom(), to.Bottom()) + 30 + math.Abs(lane)*14
			fey, tey = from.Bottom(), to.Bottom()
		} else {
			base = math.Min(from.Y, to.Y) - 30 - math.Abs(lane)*14
			fey, tey = from.Y, to.Y
		}
		for i := 0; i < maxSteps; i++ {
			candidate := base + trySide*float64(i)*step
			if laneClear(obstacles, isEndpoint, func(o layout.Rect) bool {
				return !vsegHitsRect(fromCX, fey, candidate, o) &&
					!hsegHitsRect(candidate, fromCX, toCX, o) &&
					!vsegHitsRect(toCX, candidate, tey, o)
			}) && i < bestSteps {
				bestLaneY = candidate
				bestSteps = i
				break
			}
		}
	}
	return bestLaneY, bestSteps
}

// searchSideLane looks for a vertical lane beside both boxes for a
// side-exit L-route. Returns NaN when none clears.
func searchSideLane(from, to layout.Rect, lane, routeSide float64, obstacles []layout.Rect, isEndpoint func(layout.Rect) bool) (float64, int) {
	const (
		step     = 18.0
		maxSteps = 30
	)
	fromCX, fromCY := from.CenterX(), from.CenterY()
	toCX, toCY := to.CenterX(), to.CenterY()
	maxHalfWidth := math.Max(from.W/2, to.W/2)

	bestLaneX := math.NaN()
	bestSteps := maxSteps

	for _, trySide := range []float64{routeSide, -routeSide} {
		baseX := fromCX + trySide*(maxHalfWidth+30+math.Abs(lane)*14)
		fex, tex := from.X, to.X
		if baseX >= fromCX {
			fex = from.Right()
		}
		if baseX >= toCX {
			tex = to.Right()
		}
		for i := 0; i < maxSteps; i++ {
			candidate := baseX + trySide*float64(i)*step
			if laneClear(obstacles, isEndpoint, func(o layout.Rect) bool {
				return !hsegHitsRect(fromCY, fex, candidate, o) &&
					!vsegHitsRect(candidate, fromCY, toCY, o) &&
					!hsegHitsRect(toCY, candidate, tex, o)
			}) && i < bestSteps {
				bestLaneX = candidate
				bestSteps = i
				break
			}
		}
	}
	return bestLaneX, bestSteps
}

// stateTransitionLabel picks a label position from a bounded candidate
// grid, penalizing positions that leave the canvas or cover boxes and
// other labels, and records the chosen rect as occupied.
func (r *renderer) stateTransitionLabel(out *bytes.Buffer, label string, px1, py1, px2, py2, anchorX, anchorY, laneOffset, globalOffset, lane, globalLane, routeSide float64, verticalish bool, occupied *[]layout.Rect, obstacles []layout.Rect) layout.Rect {
	cleaned := sanitizeText(label)
	labelWidth := r.textWidth(cleaned, r.fontSize()*0.85) + 8
	labelHeight := r.fontSize()*0.8 + 6

	dx, dy := px2-px1, py2-py1
	length := math.Max(math.Hypot(dx, dy), 1)
	tx, ty := dx/length, dy/length
	perpX, perpY := -ty, tx
	tangentOffset := laneOffset + globalOffset

	rectFor := func(lx, ly float64) layout.Rect {
		return layout.Rect{X: lx - labelWidth/2, Y: ly - labelHeight + 2, W: labelWidth, H: labelHeight}
	}
	score := func(rect layout.Rect) int {
		s := 0
		if rect.X < 0 || rect.Y < 0 {
			s += 1000
		}
		for _, o := range obstacles {
			if rect.Intersects(o) {
				s += 500
			}
		}
		for _, o := range *occupied {
			if rect.Intersects(o) {
				s += 800
			}
		}
		return s
	}

	baseDist := 30 + math.Abs(lane)*12 + math.Abs(globalLane)*6
	bestX := anchorX + perpX*baseDist*routeSide + tx*tangentOffset
	bestY := anchorY + perpY*baseDist*routeSide + ty*tangentOffset
	bestRect := rectFor(bestX, bestY)
	bestScore := score(bestRect)
	bestMove := math.Hypot(bestX-anchorX, bestY-anchorY)

	tCandidates := []float64{0.28, 0.38, 0.5, 0.62, 0.72}
	distCandidates := []float64{30, 44, 58, 72, 86, 100}
	sideCandidates := []float64{routeSide, -routeSide}

search:
	for _, t := range tCandidates {
		ax, ay := px1+dx*t, py1+dy*t
		for _, side := range sideCandidates {
			for _, dist := range distCandidates {
				lx := ax + perpX*dist*side + tx*tangentOffset
				ly := ay + perpY*dist*side + ty*tangentOffset
				rect := rectFor(lx, ly)
				sc := score(rect)
				mv := math.Hypot(lx-anchorX, ly-anchorY)
				if sc < bestScore || (sc == bestScore && mv < bestMove) {
					bestScore, bestMove = sc, mv
					bestX, bestY, bestRect = lx, ly, rect
					if bestScore == 0 {
						break search
					}
				}
			}
		}
	}

	if verticalish && bestScore > 0 {
	sideways:
		for _, side := range sideCandidates {
			for _, dist := range distCandidates {
				lx := anchorX + side*dist
				ly := anchorY + laneOffset*0.5
				rect := rectFor(lx, ly)
				if sc := score(rect); sc < bestScore {
					bestScore = sc
					bestX, bestY, bestRect = lx, ly, rect
					if bestScore == 0 {
						break sideways
					}
				}
			}
		}
	}

	*occupied = append(*occupied, bestRect)

	fmt.Fprintf(out, `<text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`,
		bestX, bestY, r.style.FontFamily, r.fontSize()*0.85, r.style.EdgeText, escapeXML(cleaned))
	return bestRect
}
