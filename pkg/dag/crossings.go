package dag

import "slices"

// CountCrossings sums the edge crossings between every pair of adjacent
// ranks, using each rank's current order. This is the quality measure for
// an ordering: fewer crossings means fewer overlapping edge lines in the
// rendered diagram.
func CountCrossings(g *Graph) int {
	rankIDs := g.RankIDs()
	crossings := 0
	for i := 0; i+1 < len(rankIDs); i++ {
		upper := NodeIDs(g.NodesInRank(rankIDs[i]))
		lower := NodeIDs(g.NodesInRank(rankIDs[i+1]))
		crossings += CountLayerCrossings(g, upper, lower)
	}
	return crossings
}

// CountLayerCrossings counts crossings between two adjacent ranks with the
// given left-to-right orders. Two edges (u1,v1) and (u2,v2) cross exactly
// when pos(u1) < pos(u2) and pos(v1) > pos(v2), so the count equals the
// inversions among target positions once edges are sorted by source. A
// Fenwick tree counts the inversions in O(E log V).
func CountLayerCrossings(g *Graph, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type span struct{ upper, lower int }
	spans := make([]span, 0, len(upper)*2)
	for i, id := range upper {
		for _, child := range g.Children(id) {
			if pos, ok := lowerPos[child]; ok {
				spans = append(spans, span{i, pos})
			}
		}
	}
	if len(spans) < 2 {
		return 0
	}

	slices.SortFunc(spans, func(a, b span) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, s := range spans {
		lessOrEqual := 0
		for q := s.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := s.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
