package dag

// BreakCycles makes the graph acyclic by reversing back edges found on a
// depth-first traversal. The DFS starts from the sources, then covers any
// remaining unvisited nodes, so pure cycles with no source are reached
// too. Self-loops cannot be reversed and are removed instead.
//
// Returns the original keys of the reversed edges so callers can flip
// routing data computed against the reversed orientation back around.
// Parallel edges between the same pair reverse together, keeping their
// largest minimum length.
func BreakCycles(g *Graph) []EdgeKey {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var backEdges []EdgeKey

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, EdgeKey{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	spans := edgeSpans(g)
	reversed := make([]EdgeKey, 0, len(backEdges))
	seen := make(map[EdgeKey]bool, len(backEdges))
	for _, key := range backEdges {
		if seen[key] {
			continue
		}
		seen[key] = true
		g.RemoveEdge(key.From, key.To)
		if key.From == key.To {
			continue
		}
		// Endpoints exist, the edge was just removed.
		_ = g.AddEdge(Edge{From: key.To, To: key.From, MinLength: spans[key]})
		reversed = append(reversed, key)
	}
	return reversed
}
