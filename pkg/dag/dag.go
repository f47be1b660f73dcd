package dag

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// NodeKind distinguishes diagram nodes from synthetic nodes created while
// preparing the graph for layered placement.
type NodeKind int

const (
	// NodeKindRegular is an original diagram node.
	NodeKindRegular NodeKind = iota
	// NodeKindDummy is a zero-size node inserted to subdivide an edge that
	// spans more than one rank. Its position becomes an edge waypoint.
	NodeKindDummy
)

// Node is a vertex with an assigned rank and a measured size. Dummy nodes
// carry the endpoints of the edge they subdivide so waypoints can be
// collected per edge after placement.
type Node struct {
	ID     string
	Rank   int
	W, H   float64
	Kind   NodeKind
	EdgeID EdgeKey // for dummies, the subdivided edge
}

// IsDummy reports whether the node subdivides a long edge.
func (n Node) IsDummy() bool { return n.Kind == NodeKindDummy }

// EdgeKey identifies an edge by its endpoints.
type EdgeKey struct {
	From, To string
}

// MarshalText encodes the key as "from->to" so it can serve as a JSON
// map key in layout dumps.
func (k EdgeKey) MarshalText() ([]byte, error) {
	return []byte(k.From + "->" + k.To), nil
}

// UnmarshalText decodes a "from->to" key. The separator splits on its
// first occurrence; diagram identifiers cannot contain "->".
func (k *EdgeKey) UnmarshalText(text []byte) error {
	s := string(text)
	if i := strings.Index(s, "->"); i >= 0 {
		k.From, k.To = s[:i], s[i+2:]
		return nil
	}
	return errors.New("malformed edge key: " + s)
}

// Edge is a directed connection. MinLength is the minimum number of ranks
// the edge must span; lengthened arrows in the source raise it above 1.
type Edge struct {
	From      string
	To        string
	MinLength int
}

// Span returns the effective rank span, at least 1.
func (e Edge) Span() int {
	if e.MinLength < 1 {
		return 1
	}
	return e.MinLength
}

// Graph is a directed graph organized into ranks for layered layouts.
// Nodes keep their insertion order per rank until reordered. Edges left
// pointing backward (to an equal or lower rank) are tolerated by layered
// placement, which routes them without dummy chains; [BreakCycles]
// normally reverses them first.
//
// The zero value is not usable, use New. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	order    []string // insertion order, used for deterministic ties
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	ranks    map[int][]*Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		ranks:    make(map[int][]*Node),
	}
}

// AddNode adds a node and indexes it by rank. Returns ErrInvalidNodeID for
// an empty ID or ErrDuplicateNodeID when the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	g.ranks[node.Rank] = append(g.ranks[node.Rank], node)
	return nil
}

// AddEdge adds a directed edge between existing nodes.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes all edges from→to. Removing a missing edge is a no-op.
func (g *Graph) RemoveEdge(from, to string) {
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
}

// SetRanks updates rank assignments and rebuilds the rank index. Nodes not
// present in the map keep their current rank. The per-rank order after a
// rebuild is insertion order.
func (g *Graph) SetRanks(ranks map[string]int) {
	g.ranks = make(map[int][]*Node)
	for _, id := range g.order {
		n := g.nodes[id]
		if r, ok := ranks[id]; ok {
			n.Rank = r
		}
		g.ranks[n.Rank] = append(g.ranks[n.Rank], n)
	}
}

// SetRankOrder replaces the left-to-right order of one rank. IDs not in
// the rank are ignored; nodes of the rank missing from ids keep their
// relative order after the listed ones.
func (g *Graph) SetRankOrder(rank int, ids []string) {
	current := g.ranks[rank]
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	slices.SortStableFunc(current, func(a, b *Node) int {
		pa, okA := pos[a.ID]
		pb, okB := pos[b.ID]
		switch {
		case okA && okB:
			return pa - pb
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
	g.ranks[rank] = current
}

// Node returns the node with the given ID, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The slice contains pointers
// to the actual node structs.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the targets of the node's outgoing edges. The returned
// slice is a read-only view.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the sources of the node's incoming edges. The returned
// slice is a read-only view.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// InDegree returns the number of incoming edges, 0 for unknown nodes.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// OutDegree returns the number of outgoing edges, 0 for unknown nodes.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// NodesInRank returns the nodes of one rank in their current left-to-right
// order. The slice contains pointers to the actual nodes.
func (g *Graph) NodesInRank(rank int) []*Node { return g.ranks[rank] }

// RankIDs returns all rank indices in ascending order.
func (g *Graph) RankIDs() []int {
	return slices.Sorted(maps.Keys(g.ranks))
}

// MaxRank returns the highest rank index, or 0 for an empty graph.
func (g *Graph) MaxRank() int {
	m := 0
	for r := range g.ranks {
		if r > m {
			m = r
		}
	}
	return m
}

// Sources returns nodes with no incoming edges, in insertion order.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, g.nodes[id])
		}
	}
	return sources
}

// PosMap maps each ID in the slice to its index, for crossing counts.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the IDs of a node slice, preserving order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
