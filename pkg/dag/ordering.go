package dag

import (
	"math"
	"slices"
)

// orderSweeps caps the barycenter iterations. Sweeps stop early once the
// crossing count stops improving, which on typical diagrams happens well
// before the cap.
const orderSweeps = 6

// OrderRanks reduces edge crossings by iterated barycenter sorting. Each
// sweep first walks the ranks top-down, ordering every rank by the mean
// position of each node's parents in the rank above, then bottom-up using
// child positions. After every sweep the crossings are recounted; the
// best order seen is kept and sweeping stops when a sweep brings no
// improvement or the count hits zero. Nodes without neighbors in the
// fixed rank sort after those with, and all ties fall back to insertion
// order, so the result is deterministic for a given build sequence.
func OrderRanks(g *Graph) {
	rankIDs := g.RankIDs()
	if len(rankIDs) < 2 {
		return
	}

	base := make(map[string]int, g.NodeCount())
	for i, n := range g.Nodes() {
		base[n.ID] = i
	}

	best := CountCrossings(g)
	bestOrder := snapshotOrder(g, rankIDs)

	for sweep := 0; sweep < orderSweeps && best > 0; sweep++ {
		for i := 1; i < len(rankIDs); i++ {
			fixed := PosMap(NodeIDs(g.NodesInRank(rankIDs[i-1])))
			sortRank(g, rankIDs[i], base, func(id string) (float64, bool) {
				return barycenter(g.Parents(id), fixed)
			})
		}
		for i := len(rankIDs) - 2; i >= 0; i-- {
			fixed := PosMap(NodeIDs(g.NodesInRank(rankIDs[i+1])))
			sortRank(g, rankIDs[i], base, func(id string) (float64, bool) {
				return barycenter(g.Children(id), fixed)
			})
		}

		crossings := CountCrossings(g)
		if crossings >= best {
			break
		}
		best = crossings
		bestOrder = snapshotOrder(g, rankIDs)
	}

	for rank, ids := range bestOrder {
		g.SetRankOrder(rank, ids)
	}
}

// snapshotOrder captures the current left-to-right order of every rank.
func snapshotOrder(g *Graph, rankIDs []int) map[int][]string {
	order := make(map[int][]string, len(rankIDs))
	for _, rank := range rankIDs {
		order[rank] = NodeIDs(g.NodesInRank(rank))
	}
	return order
}

func sortRank(g *Graph, rank int, base map[string]int, center func(id string) (float64, bool)) {
	ids := NodeIDs(g.NodesInRank(rank))

	values := make(map[string]float64, len(ids))
	for _, id := range ids {
		if v, ok := center(id); ok {
			values[id] = v
		} else {
			values[id] = math.NaN()
		}
	}

	slices.SortStableFunc(ids, func(a, b string) int {
		va, vb := values[a], values[b]
		aNaN, bNaN := math.IsNaN(va), math.IsNaN(vb)
		switch {
		case !aNaN && !bNaN:
			if va != vb {
				if va < vb {
					return -1
				}
				return 1
			}
		case !aNaN:
			return -1
		case !bNaN:
			return 1
		}
		return base[a] - base[b]
	})

	g.SetRankOrder(rank, ids)
}

// barycenter returns the mean fixed-rank position of the given neighbors.
// The second result is false when no neighbor lies in the fixed rank.
func barycenter(neighbors []string, fixed map[string]int) (float64, bool) {
	total, count := 0.0, 0.0
	for _, n := range neighbors {
		if pos, ok := fixed[n]; ok {
			total += float64(pos)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / count, true
}
