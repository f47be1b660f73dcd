package dag

import (
	"errors"
	"testing"
)

func mustNode(t *testing.T, g *Graph, n Node) {
	t.Helper()
	if err := g.AddNode(n); err != nil {
		t.Fatalf("AddNode(%s) error = %v", n.ID, err)
	}
}

func mustEdge(t *testing.T, g *Graph, from, to string) {
	t.Helper()
	if err := g.AddEdge(Edge{From: from, To: to}); err != nil {
		t.Fatalf("AddEdge(%s->%s) error = %v", from, to, err)
	}
}

func TestAddNodeErrors(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) error = %v, want ErrInvalidNodeID", err)
	}
	mustNode(t, g, Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) error = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("error = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("error = %v, want ErrUnknownTargetNode", err)
	}
}

func TestAssignRanksChain(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		mustNode(t, g, Node{ID: id})
	}
	mustEdge(t, g, "a", "b")
	mustEdge(t, g, "b", "c")

	AssignRanks(g)

	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, rank := range want {
		n, _ := g.Node(id)
		if n.Rank != rank {
			t.Errorf("rank(%s) = %d, want %d", id, n.Rank, rank)
		}
	}
}

func TestAssignRanksMinLength(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	mustNode(t, g, Node{ID: "b"})
	if err := g.AddEdge(Edge{From: "a", To: "b", MinLength: 3}); err != nil {
		t.Fatal(err)
	}

	AssignRanks(g)

	b, _ := g.Node("b")
	if b.Rank != 3 {
		t.Errorf("rank(b) = %d, want 3", b.Rank)
	}
}

func TestAssignRanksDiamond(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		mustNode(t, g, Node{ID: id})
	}
	mustEdge(t, g, "a", "b")
	mustEdge(t, g, "a", "c")
	mustEdge(t, g, "c", "b")

	AssignRanks(g)

	// b must sit below its deepest parent, not at the depth of the first
	// path that reaches it.
	want := map[string]int{"a": 0, "c": 1, "b": 2}
	for id, rank := range want {
		n, _ := g.Node(id)
		if n.Rank != rank {
			t.Errorf("rank(%s) = %d, want %d", id, n.Rank, rank)
		}
	}
	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Rank <= src.Rank {
			t.Errorf("edge %s->%s spans ranks %d->%d, want strictly downward", e.From, e.To, src.Rank, dst.Rank)
		}
	}
}

func TestBreakCyclesThenAssignRanks(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		mustNode(t, g, Node{ID: id})
	}
	mustEdge(t, g, "a", "b")
	mustEdge(t, g, "b", "c")
	mustEdge(t, g, "c", "a")

	reversed := BreakCycles(g)
	if len(reversed) != 1 || reversed[0] != (EdgeKey{"c", "a"}) {
		t.Fatalf("reversed = %v, want [{c a}]", reversed)
	}

	AssignRanks(g)

	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, rank := range want {
		n, _ := g.Node(id)
		if n.Rank != rank {
			t.Errorf("rank(%s) = %d, want %d", id, n.Rank, rank)
		}
	}
	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Rank <= src.Rank {
			t.Errorf("edge %s->%s spans ranks %d->%d, want strictly downward", e.From, e.To, src.Rank, dst.Rank)
		}
	}
}

func TestBreakCyclesAcyclicGraphUntouched(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		mustNode(t, g, Node{ID: id})
	}
	mustEdge(t, g, "a", "b")
	mustEdge(t, g, "a", "c")
	mustEdge(t, g, "c", "b")

	if reversed := BreakCycles(g); len(reversed) != 0 {
		t.Errorf("reversed = %v, want none", reversed)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
}

func TestBreakCyclesRemovesSelfLoop(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	mustNode(t, g, Node{ID: "b"})
	mustEdge(t, g, "a", "a")
	mustEdge(t, g, "a", "b")

	if reversed := BreakCycles(g); len(reversed) != 0 {
		t.Errorf("reversed = %v, want none for a self-loop", reversed)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1 after dropping the self-loop", g.EdgeCount())
	}

	// The loop must not wedge the traversal; b still ranks below a.
	AssignRanks(g)
	b, _ := g.Node("b")
	if b.Rank != 1 {
		t.Errorf("rank(b) = %d, want 1", b.Rank)
	}
}

func TestAssignRanksDisconnected(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "x", "y"} {
		mustNode(t, g, Node{ID: id})
	}
	mustEdge(t, g, "a", "b")
	mustEdge(t, g, "x", "y")

	AssignRanks(g)

	a, _ := g.Node("a")
	x, _ := g.Node("x")
	if a.Rank != 0 || x.Rank != 0 {
		t.Errorf("source ranks = %d, %d, want 0, 0", a.Rank, x.Rank)
	}
}

func TestSubdivideLongEdge(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a", Rank: 0})
	mustNode(t, g, Node{ID: "b", Rank: 3})
	g.SetRanks(nil)
	mustEdge(t, g, "a", "b")

	chains := Subdivide(g)

	key := EdgeKey{"a", "b"}
	chain := chains[key]
	if len(chain) != 2 {
		t.Fatalf("len(chain) = %d, want 2", len(chain))
	}
	for i, id := range chain {
		n, ok := g.Node(id)
		if !ok || !n.IsDummy() {
			t.Fatalf("chain[%d] = %q, not a dummy node", i, id)
		}
		if n.Rank != i+1 {
			t.Errorf("chain[%d].Rank = %d, want %d", i, n.Rank, i+1)
		}
		if n.EdgeID != key {
			t.Errorf("chain[%d].EdgeID = %v, want %v", i, n.EdgeID, key)
		}
	}

	// The long edge is gone; every remaining edge spans exactly one rank.
	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Rank != src.Rank+1 {
			t.Errorf("edge %s->%s spans ranks %d->%d", e.From, e.To, src.Rank, dst.Rank)
		}
	}
}

func TestSubdivideLeavesBackEdges(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a", Rank: 2})
	mustNode(t, g, Node{ID: "b", Rank: 0})
	g.SetRanks(nil)
	mustEdge(t, g, "a", "b")

	chains := Subdivide(g)

	if len(chains) != 0 {
		t.Errorf("chains = %v, want none for a backward edge", chains)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestCountLayerCrossings(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "x", "y"} {
		mustNode(t, g, Node{ID: id})
	}
	mustEdge(t, g, "a", "y")
	mustEdge(t, g, "b", "x")

	if got := CountLayerCrossings(g, []string{"a", "b"}, []string{"x", "y"}); got != 1 {
		t.Errorf("crossings = %d, want 1", got)
	}
	if got := CountLayerCrossings(g, []string{"b", "a"}, []string{"x", "y"}); got != 0 {
		t.Errorf("crossings after swap = %d, want 0", got)
	}
}

func TestOrderRanksReducesCrossings(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a", Rank: 0})
	mustNode(t, g, Node{ID: "b", Rank: 0})
	mustNode(t, g, Node{ID: "x", Rank: 1})
	mustNode(t, g, Node{ID: "y", Rank: 1})
	g.SetRanks(nil)
	mustEdge(t, g, "a", "y")
	mustEdge(t, g, "b", "x")

	before := CountCrossings(g)
	OrderRanks(g)
	after := CountCrossings(g)

	if before != 1 {
		t.Fatalf("crossings before = %d, want 1", before)
	}
	if after != 0 {
		t.Errorf("crossings after = %d, want 0", after)
	}
}

func TestOrderRanksDeterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		for _, id := range []string{"a", "b", "c", "p", "q", "r"} {
			rank := 0
			if id >= "p" {
				rank = 1
			}
			mustNode(t, g, Node{ID: id, Rank: rank})
		}
		g.SetRanks(nil)
		mustEdge(t, g, "a", "r")
		mustEdge(t, g, "b", "q")
		mustEdge(t, g, "c", "p")
		return g
	}

	g1, g2 := build(), build()
	OrderRanks(g1)
	OrderRanks(g2)

	o1 := NodeIDs(g1.NodesInRank(1))
	o2 := NodeIDs(g2.NodesInRank(1))
	for i := range o1 {
		if o1[i] != o2[i] {
			t.Fatalf("orders differ: %v vs %v", o1, o2)
		}
	}
}
