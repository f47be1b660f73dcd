package layout

import (
	"math"
	"testing"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/dag"
	"github.com/markviz/markviz/pkg/parser"
)

func testEngine() *Engine {
	return New(Proportional{}, 13)
}

func layoutSource(t *testing.T, src string) (*ast.Diagram, *Result) {
	t.Helper()
	d, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e := testEngine()
	var res *Result
	switch {
	case d.Flowchart != nil:
		res = e.Flowchart(d.Flowchart)
	case d.Sequence != nil:
		res = e.Sequence(d.Sequence)
	case d.Class != nil:
		res = e.Class(d.Class)
	case d.State != nil:
		res = e.State(d.State)
	case d.ER != nil:
		res = e.ER(d.ER)
	default:
		t.Fatal("no diagram payload")
	}
	return d, res
}

func TestFlowchartChainFlowsDown(t *testing.T) {
	_, res := layoutSource(t, "flowchart TB\nA --> B\nB --> C")

	a, okA := res.Pos("A")
	b, okB := res.Pos("B")
	c, okC := res.Pos("C")
	if !okA || !okB || !okC {
		t.Fatalf("missing positions: %v", res.Positions)
	}
	if !(a.Bottom() < b.Y && b.Bottom() < c.Y) {
		t.Errorf("nodes not stacked: a=%v b=%v c=%v", a, b, c)
	}
	// A straight chain ends up center-aligned.
	if math.Abs(a.CenterX()-b.CenterX()) > 0.5 || math.Abs(b.CenterX()-c.CenterX()) > 0.5 {
		t.Errorf("centers not aligned: %v %v %v", a.CenterX(), b.CenterX(), c.CenterX())
	}
}

func TestFlowchartLeftRight(t *testing.T) {
	_, res := layoutSource(t, "flowchart LR\nA --> B")

	a, _ := res.Pos("A")
	b, _ := res.Pos("B")
	if a.Right() >= b.X {
		t.Errorf("A (%v) not left of B (%v)", a, b)
	}
	if math.Abs(a.CenterY()-b.CenterY()) > 0.5 {
		t.Errorf("centers not aligned vertically: %v vs %v", a.CenterY(), b.CenterY())
	}
}

func TestFlowchartBottomUpFlipped(t *testing.T) {
	_, res := layoutSource(t, "flowchart BT\nA --> B")

	a, _ := res.Pos("A")
	b, _ := res.Pos("B")
	if b.Bottom() >= a.Y {
		t.Errorf("B (%v) not above A (%v) in BT layout", b, a)
	}
}

func TestFlowchartRankSpacing(t *testing.T) {
	_, res := layoutSource(t, "flowchart TB\nA --> B\nA --> C")

	b, _ := res.Pos("B")
	c, _ := res.Pos("C")
	gap := c.X - b.Right()
	if b.X > c.X {
		gap = b.X - c.Right()
	}
	if gap < defaultSpacingX-0.5 {
		t.Errorf("sibling gap = %v, want >= %v", gap, defaultSpacingX)
	}
}

func TestFlowchartLongEdgeWaypoints(t *testing.T) {
	_, res := layoutSource(t, "flowchart TB\nA ---> B")

	found := false
	for key, points := range res.Waypoints {
		if key.From == "A" && key.To == "B" {
			found = true
			if len(points) != 1 {
				t.Errorf("waypoints = %v, want exactly 1 bend", points)
			}
		}
	}
	if !found {
		t.Errorf("no waypoints for the lengthened edge, got %v", res.Waypoints)
	}
}

func TestFlowchartDiamondDeepestParentWins(t *testing.T) {
	_, res := layoutSource(t, "flowchart TB\nA --> B\nA --> C\nC --> B")

	a, _ := res.Pos("A")
	b, _ := res.Pos("B")
	c, _ := res.Pos("C")
	if !(a.Bottom() < c.Y && c.Bottom() < b.Y) {
		t.Errorf("B not pushed below C: a=%v c=%v b=%v", a, c, b)
	}
}

func TestFlowchartCycleLaidOutDownward(t *testing.T) {
	_, res := layoutSource(t, "flowchart TB\nA --> B\nB --> C\nC --> A")

	a, _ := res.Pos("A")
	b, _ := res.Pos("B")
	c, _ := res.Pos("C")
	if !(a.Bottom() < b.Y && b.Bottom() < c.Y) {
		t.Errorf("cycle not stacked downward: a=%v b=%v c=%v", a, b, c)
	}

	// The closing edge is routed through the waypoints of its reversed
	// twin, listed source to target.
	points, ok := res.Waypoints[dag.EdgeKey{From: "C", To: "A"}]
	if !ok || len(points) != 1 {
		t.Fatalf("Waypoints[C->A] = %v, %v; want one bend", points, ok)
	}
	if _, stale := res.Waypoints[dag.EdgeKey{From: "A", To: "C"}]; stale {
		t.Error("waypoints left under the reversed orientation")
	}
}

func TestFlowchartNoOverlap(t *testing.T) {
	_, res := layoutSource(t, `flowchart TB
A --> B
A --> C
A --> D
B --> E
C --> E
D --> E`)

	ids := []string{"A", "B", "C", "D", "E"}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			p1, _ := res.Pos(ids[i])
			p2, _ := res.Pos(ids[j])
			if p1.Intersects(p2) {
				t.Errorf("%s (%v) overlaps %s (%v)", ids[i], p1, ids[j], p2)
			}
		}
	}
}

func TestFlowchartShapeSizing(t *testing.T) {
	e := testEngine()

	circle := e.flowchartNodeSize("ok", ast.ShapeCircle)
	if circle.W != circle.H {
		t.Errorf("circle size = %v, want square", circle)
	}

	rect := e.flowchartNodeSize("decide", ast.ShapeRect)
	rhombus := e.flowchartNodeSize("decide", ast.ShapeRhombus)
	if rhombus.W <= rect.W || rhombus.H <= rect.H {
		t.Errorf("rhombus (%v) not larger than rect (%v)", rhombus, rect)
	}
}

func TestSequenceParticipantOrder(t *testing.T) {
	_, res := layoutSource(t, "sequenceDiagram\nA->>B: hi\nB->>C: there")

	a, _ := res.Pos("A")
	b, _ := res.Pos("B")
	c, _ := res.Pos("C")
	if !(a.CenterX() < b.CenterX() && b.CenterX() < c.CenterX()) {
		t.Errorf("participants out of order: %v %v %v", a.CenterX(), b.CenterX(), c.CenterX())
	}
	if a.X != seqStartX {
		t.Errorf("first participant X = %v, want %v", a.X, seqStartX)
	}
}

func TestSequenceMinimumGap(t *testing.T) {
	_, res := layoutSource(t, "sequenceDiagram\nA->>B: x")

	a, _ := res.Pos("A")
	b, _ := res.Pos("B")
	if gap := b.CenterX() - a.CenterX(); gap < seqMinGap-0.5 {
		t.Errorf("center gap = %v, want >= %v", gap, seqMinGap)
	}
}

func TestSequenceLongLabelWidensGap(t *testing.T) {
	_, short := layoutSource(t, "sequenceDiagram\nA->>B: x")
	_, long := layoutSource(t, "sequenceDiagram\nA->>B: this label is far too long to fit in the default gap")

	gapShort := center(t, short, "B") - center(t, short, "A")
	gapLong := center(t, long, "B") - center(t, long, "A")
	if gapLong <= gapShort {
		t.Errorf("gap did not widen: %v vs %v", gapShort, gapLong)
	}
}

func center(t *testing.T, res *Result, id string) float64 {
	t.Helper()
	p, ok := res.Pos(id)
	if !ok {
		t.Fatalf("no position for %s", id)
	}
	return p.CenterX()
}

func TestSequenceHeightTracksElements(t *testing.T) {
	_, one := layoutSource(t, "sequenceDiagram\nA->>B: x")
	_, three := layoutSource(t, "sequenceDiagram\nA->>B: x\nB->>A: y\nA->>B: z")

	if three.Bounds.H-one.Bounds.H != 2*seqMessageStep {
		t.Errorf("height delta = %v, want %v", three.Bounds.H-one.Bounds.H, 2*seqMessageStep)
	}
}

func TestSequenceBlockAddsHeight(t *testing.T) {
	_, plain := layoutSource(t, "sequenceDiagram\nA->>B: x")
	_, blocked := layoutSource(t, "sequenceDiagram\nalt ok\nA->>B: x\nend")

	want := seqBlockOpenStep + seqBlockCloseStep
	if got := blocked.Bounds.H - plain.Bounds.H; got != want {
		t.Errorf("block height delta = %v, want %v", got, want)
	}
}

func TestSequenceBranchAddsHeight(t *testing.T) {
	_, single := layoutSource(t, "sequenceDiagram\nalt ok\nA->>B: x\nend")
	_, branched := layoutSource(t, "sequenceDiagram\nalt ok\nA->>B: x\nelse nope\nB->>A: y\nend")

	want := seqBranchStep + seqMessageStep
	if got := branched.Bounds.H - single.Bounds.H; got != want {
		t.Errorf("branch height delta = %v, want %v", got, want)
	}
}

func TestClassGridFallback(t *testing.T) {
	_, res := layoutSource(t, "classDiagram\nclass A\nclass B\nclass C\nclass D")

	if len(res.Positions) != 4 {
		t.Fatalf("len(Positions) = %d, want 4", len(res.Positions))
	}
	ids := []string{"A", "B", "C", "D"}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			p1, _ := res.Pos(ids[i])
			p2, _ := res.Pos(ids[j])
			if p1.Intersects(p2) {
				t.Errorf("%s overlaps %s", ids[i], ids[j])
			}
		}
	}
}

func TestClassSizeGrowsWithMembers(t *testing.T) {
	e := testEngine()

	empty := e.classSize(&ast.ClassDefinition{Name: "A"})
	full := e.classSize(&ast.ClassDefinition{
		Name: "A",
		Attributes: []ast.ClassAttribute{
			{Name: "id", Type: "int"},
			{Name: "name", Type: "string"},
		},
		Methods: []ast.ClassMethod{
			{Name: "save", Returns: "error"},
		},
	})
	if full.H <= empty.H {
		t.Errorf("full class height %v not larger than empty %v", full.H, empty.H)
	}
}

func TestStateStartEndFixedSize(t *testing.T) {
	e := testEngine()

	start := e.StateSize(&ast.State{ID: "s", Start: true})
	if start.W != 24 || start.H != 24 {
		t.Errorf("start size = %v, want 24x24", start)
	}
}

func TestStateCompositeWrapsChildren(t *testing.T) {
	st := &ast.State{
		ID: "Active", Label: "Active", Composite: true,
		Children: []ast.State{
			{ID: "A", Label: "A"},
			{ID: "B", Label: "B"},
		},
	}
	e := testEngine()

	size := e.StateSize(st)
	childW := e.StateSize(&st.Children[0]).W
	if size.W < childW+2*stateInnerPad+2*stateRouteLane {
		t.Errorf("composite width %v too small for child %v plus lanes", size.W, childW)
	}
	childH := e.StateSize(&st.Children[0]).H + e.StateSize(&st.Children[1]).H + stateChildGap
	if size.H < childH {
		t.Errorf("composite height %v too small for children %v", size.H, childH)
	}
}

func TestERFlowsLeftRight(t *testing.T) {
	_, res := layoutSource(t, "erDiagram\nUSER ||--o{ ORDER : places")

	u, _ := res.Pos("USER")
	o, _ := res.Pos("ORDER")
	if u.Right() >= o.X {
		t.Errorf("USER (%v) not left of ORDER (%v)", u, o)
	}
}

func TestEREntityHeightTracksAttributes(t *testing.T) {
	e := testEngine()

	bare := e.erSize(&ast.EREntity{Name: "A"})
	wide := e.erSize(&ast.EREntity{Name: "A", Attributes: []ast.ERAttribute{
		{Name: "id", Key: "PK"}, {Name: "name"}, {Name: "email"},
	}})
	if wide.H <= bare.H {
		t.Errorf("entity with attributes height %v not larger than bare %v", wide.H, bare.H)
	}
}

func TestEmptyDiagramsProduceEmptyLayouts(t *testing.T) {
	e := testEngine()

	res := e.Flowchart(&ast.Flowchart{})
	if len(res.Positions) != 0 {
		t.Errorf("Positions = %v, want empty", res.Positions)
	}
	res = e.Sequence(&ast.SequenceDiagram{})
	if len(res.Positions) != 0 {
		t.Errorf("Positions = %v, want empty", res.Positions)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	src := `flowchart TB
A --> B
A --> C
B --> D
C --> D
D --> E
A --> E`

	_, first := layoutSource(t, src)
	_, second := layoutSource(t, src)

	for id, p1 := range first.Positions {
		p2, ok := second.Positions[id]
		if !ok || p1 != p2 {
			t.Errorf("position %s differs: %v vs %v", id, p1, p2)
		}
	}
}
