package dag

import "fmt"

// Subdivide replaces every forward edge spanning more than one rank with a
// chain of zero-size dummy nodes, one per intermediate rank, so ordering
// and placement can treat all forward edges as single-rank. Each dummy
// records the subdivided edge in its EdgeID; after placement the dummy
// centers become that edge's waypoints.
//
// Backward and same-rank edges are left untouched. Returns the subdivided
// edge keys mapped to their dummy chains in rank order.
func Subdivide(g *Graph) map[EdgeKey][]string {
	chains := make(map[EdgeKey][]string)

	for _, e := range g.Edges() {
		src, okS := g.Node(e.From)
		dst, okD := g.Node(e.To)
		if !okS || !okD || dst.Rank <= src.Rank+1 {
			continue
		}
		key := EdgeKey{e.From, e.To}
		if _, done := chains[key]; done {
			continue
		}

		g.RemoveEdge(e.From, e.To)
		prev := src.ID
		var chain []string
		for rank := src.Rank + 1; rank < dst.Rank; rank++ {
			id := dummyID(g, key, rank)
			if err := g.AddNode(Node{ID: id, Rank: rank, Kind: NodeKindDummy, EdgeID: key}); err != nil {
				panic(err)
			}
			if err := g.AddEdge(Edge{From: prev, To: id}); err != nil {
				panic(err)
			}
			chain = append(chain, id)
			prev = id
		}
		if err := g.AddEdge(Edge{From: prev, To: dst.ID}); err != nil {
			panic(err)
		}
		chains[key] = chain
	}
	return chains
}

func dummyID(g *Graph, key EdgeKey, rank int) string {
	id := fmt.Sprintf("__d_%s_%s_%d", key.From, key.To, rank)
	for i := 2; ; i++ {
		if _, exists := g.Node(id); !exists {
			return id
		}
		id = fmt.Sprintf("__d_%s_%s_%d__%d", key.From, key.To, rank, i)
	}
}
