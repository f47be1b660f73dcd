package dag

// AssignRanks assigns every node a rank by longest path, using a
// topological traversal (Kahn's algorithm). A child ends up at the
// maximum over its parents of parent rank plus the edge's minimum
// length, so sources sit at rank 0 and every forward edge spans at
// least its declared length. Existing rank assignments are overwritten.
//
// The graph must be acyclic; run [BreakCycles] first. Nodes caught in a
// remaining cycle never reach zero in-degree and stay at rank 0.
func AssignRanks(g *Graph) {
	nodes := g.Nodes()
	spans := edgeSpans(g)
	inDegree := make(map[string]int, len(nodes))
	ranks := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if r := ranks[curr] + spans[EdgeKey{curr, child}]; r > ranks[child] {
				ranks[child] = r
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRanks(ranks)
}

// edgeSpans indexes the effective span of each edge. Parallel edges keep
// the largest span.
func edgeSpans(g *Graph) map[EdgeKey]int {
	spans := make(map[EdgeKey]int, g.EdgeCount())
	for _, e := range g.Edges() {
		key := EdgeKey{e.From, e.To}
		if s := e.Span(); s > spans[key] {
			spans[key] = s
		}
	}
	return spans
}
