// Package dag provides the ranked directed graph behind layered diagram
// layouts.
//
// # Overview
//
// Flowcharts, class, state and ER diagrams are all drawn with a
// Sugiyama-style layered layout: nodes are assigned to ranks, ranks are
// reordered to reduce edge crossings, then coordinates are computed rank
// by rank. This package holds the graph structure and the rank-level
// algorithms; the geometric placement lives in the layout package.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [Graph.AddNode] and edges
// with [Graph.AddEdge], then run the preparation steps in order:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "a", W: 120, H: 40})
//	g.AddNode(dag.Node{ID: "b", W: 120, H: 40})
//	g.AddEdge(dag.Edge{From: "a", To: "b"})
//	reversed := dag.BreakCycles(g)
//	dag.AssignRanks(g)
//	chains := dag.Subdivide(g)
//	dag.OrderRanks(g)
//
// [BreakCycles] reverses the back edges of a depth-first traversal so the
// graph is acyclic. [AssignRanks] assigns longest-path ranks with a
// topological traversal, honoring each edge's minimum length, so every
// edge ends strictly below where it starts. [Subdivide] breaks edges
// spanning several ranks into chains of zero-size [NodeKindDummy] nodes
// whose placed centers become edge waypoints. [OrderRanks] runs
// barycenter sweeps to reduce crossings, keeping the best order by
// crossing count.
//
// # Cycles and Backward Edges
//
// Diagram sources routinely contain cycles (state machines, flowcharts
// with loops). The graph does not reject them: [BreakCycles] reverses the
// offending edges and reports their keys, so callers can flip any routing
// computed against the reversed orientation back around before drawing.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count crossings with a
// Fenwick tree in O(E log V), which is how ordering quality is measured.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must
// synchronize access if multiple goroutines touch the same graph.
package dag
