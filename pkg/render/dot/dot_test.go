package dot

import (
	"strings"
	"testing"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/parser"
)

func mustDOT(t *testing.T, src string, opts Options) string {
	t.Helper()
	d, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := FromDiagram(d, opts)
	if err != nil {
		t.Fatalf("FromDiagram() error = %v", err)
	}
	return out
}

func TestFlowchartDOT(t *testing.T) {
	out := mustDOT(t, "flowchart LR\nA[Start] -->|go| B{Choice}", Options{})
	if !strings.Contains(out, "rankdir=LR") {
		t.Error("missing rankdir")
	}
	if !strings.Contains(out, `"A" -> "B" [label="go"]`) {
		t.Errorf("missing edge: %s", out)
	}
	if !strings.Contains(out, "shape=diamond") {
		t.Error("rhombus not mapped to diamond")
	}
}

func TestStateDOTClusters(t *testing.T) {
	src := `stateDiagram-v2
state Active {
  [*] --> Working
}
[*] --> Active`
	out := mustDOT(t, src, Options{})
	if !strings.Contains(out, "subgraph \"cluster_Active\"") {
		t.Errorf("composite not clustered: %s", out)
	}
	if !strings.Contains(out, "shape=point") {
		t.Error("start marker not a point")
	}
}

func TestClassDOTDetailed(t *testing.T) {
	src := "classDiagram\nclass Animal {\n+name String\n+speak() String\n}\nAnimal <|-- Dog"
	out := mustDOT(t, src, Options{Detailed: true})
	if !strings.Contains(out, "speak()") {
		t.Errorf("detailed label missing members: %s", out)
	}
	if !strings.Contains(out, "arrowhead=empty") {
		t.Error("inheritance arrow not hollow")
	}
}

func TestSequenceDOTRejected(t *testing.T) {
	d, err := parser.Parse("sequenceDiagram\nA->>B: hi")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := FromDiagram(d, Options{}); err == nil {
		t.Error("want error for sequence diagram, got nil")
	}
}

func TestNoPayloadRejected(t *testing.T) {
	if _, err := FromDiagram(&ast.Diagram{}, Options{}); err == nil {
		t.Error("want error for empty diagram, got nil")
	}
}
