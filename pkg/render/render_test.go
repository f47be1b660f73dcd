package render

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/markviz/markviz/pkg/ast"
	"github.com/markviz/markviz/pkg/parser"
)

func renderSource(t *testing.T, src string) string {
	t.Helper()
	d, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	svg, err := SVG(d)
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	return string(svg)
}

func TestSVGDocumentShape(t *testing.T) {
	svg := renderSource(t, "flowchart TB\nA --> B")
	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("missing svg root: %.80s", svg)
	}
	if !strings.Contains(svg, "viewBox=") {
		t.Error("missing viewBox")
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Errorf("missing closing tag: %.40s", svg[len(svg)-40:])
	}
}

func TestSVGNoPayload(t *testing.T) {
	if _, err := SVG(&ast.Diagram{}); err == nil {
		t.Error("SVG() on empty diagram: want error, got nil")
	}
}

func TestEmptyFlowchartRendersPlaceholder(t *testing.T) {
	svg := renderSource(t, "flowchart TB")
	if !strings.Contains(svg, "<g></g>") {
		t.Errorf("want empty group, got %s", svg)
	}
}

func TestFlowchartNodesAndLabels(t *testing.T) {
	svg := renderSource(t, "flowchart TB\nA[Start] --> B{Choice}\nB --> C(Done)")
	for _, want := range []string{">Start<", ">Choice<", ">Done<"} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing label %s", want)
		}
	}
	// The rhombus comes out as a polygon, the rounded box as a rect with rx.
	if !strings.Contains(svg, "<polygon") {
		t.Error("missing rhombus polygon")
	}
	if !strings.Contains(svg, `rx="6.00"`) {
		t.Error("missing rounded rect corner radius")
	}
}

func TestFlowchartEdgeLabelPill(t *testing.T) {
	svg := renderSource(t, "flowchart TB\nA -->|yes| B")
	if !strings.Contains(svg, ">yes<") {
		t.Error("missing edge label")
	}
	// Labels sit on a background pill.
	if !strings.Contains(svg, `rx="4"`) {
		t.Error("missing label pill")
	}
}

func TestFlowchartDottedAndThick(t *testing.T) {
	svg := renderSource(t, "flowchart TB\nA -.-> B\nB ==> C")
	if !strings.Contains(svg, `stroke-dasharray="4,4"`) {
		t.Error("missing dotted stroke")
	}
	if !strings.Contains(svg, `stroke-width="1.5"`) {
		t.Error("missing thick stroke")
	}
}

func TestFlowchartSubgraph(t *testing.T) {
	svg := renderSource(t, "flowchart TB\nsubgraph backend\nA --> B\nend\nB --> C")
	if !strings.Contains(svg, ">backend<") {
		t.Error("missing subgraph title")
	}
	if !strings.Contains(svg, `stroke-dasharray="4,2"`) {
		t.Error("missing subgraph frame")
	}
}

func TestSequenceLifelines(t *testing.T) {
	svg := renderSource(t, "sequenceDiagram\nAlice->>Bob: hello\nBob-->>Alice: hi")
	if got := strings.Count(svg, `stroke-dasharray="6,4"`); got != 2 {
		t.Errorf("lifeline count = %d, want 2", got)
	}
	for _, want := range []string{">Alice<", ">Bob<", ">hello<", ">hi<"} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestSequenceReplyIsDashed(t *testing.T) {
	svg := renderSource(t, "sequenceDiagram\nA-->>B: resp")
	if !strings.Contains(svg, `stroke-dasharray="4,4"`) {
		t.Error("reply message not dashed")
	}
}

func TestSequenceBlockFrame(t *testing.T) {
	src := "sequenceDiagram\nalt ok\nA->>B: yes\nelse fail\nA->>B: no\nend"
	svg := renderSource(t, src)
	if !strings.Contains(svg, ">alt ok<") {
		t.Errorf("missing block title: %s", svg)
	}
	// Frame and branch separators are dashed.
	if !strings.Contains(svg, `stroke-dasharray="5,3"`) {
		t.Error("missing dashed frame")
	}
	if !strings.Contains(svg, ">fail<") {
		t.Error("missing branch label")
	}
}

func TestSequenceAutonumber(t *testing.T) {
	svg := renderSource(t, "sequenceDiagram\nautonumber\nA->>B: first\nB->>A: second")
	if !strings.Contains(svg, ">1. first<") || !strings.Contains(svg, ">2. second<") {
		t.Errorf("messages not numbered: %s", svg)
	}
}

func TestSequenceNote(t *testing.T) {
	svg := renderSource(t, "sequenceDiagram\nA->>B: go\nNote right of B: careful")
	if !strings.Contains(svg, ">careful<") {
		t.Error("missing note text")
	}
	if !strings.Contains(svg, `fill-opacity="0.25"`) {
		t.Error("missing note background")
	}
}

func TestClassMembersRendered(t *testing.T) {
	src := "classDiagram\nclass Animal {\n+name String\n+speak() String\n}"
	svg := renderSource(t, src)
	if !strings.Contains(svg, ">Animal<") {
		t.Error("missing class name")
	}
	if !strings.Contains(svg, "+ name: String") {
		t.Errorf("missing attribute row: %s", svg)
	}
	if !strings.Contains(svg, "+ speak(): String") {
		t.Error("missing method row")
	}
}

func TestClassInterfaceStereotype(t *testing.T) {
	src := "classDiagram\nclass Walker {\n<<interface>>\n+walk()\n}"
	svg := renderSource(t, src)
	if !strings.Contains(svg, "&lt;&lt;interface&gt;&gt;") {
		t.Errorf("missing stereotype: %s", svg)
	}
	if !strings.Contains(svg, "font-style=\"italic\"") {
		t.Error("interface name not italic")
	}
}

func TestClassRelationLabels(t *testing.T) {
	src := "classDiagram\nFactory --> Widget : creates\nLogger ..> File : writes"
	svg := renderSource(t, src)
	if !strings.Contains(svg, ">creates<") || !strings.Contains(svg, ">writes<") {
		t.Errorf("missing relation labels: %s", svg)
	}
	// Dependencies are dashed.
	if !strings.Contains(svg, `stroke-dasharray="6,3"`) {
		t.Error("dependency not dashed")
	}
}

func TestClassInheritanceMarker(t *testing.T) {
	svg := renderSource(t, "classDiagram\nAnimal <|-- Dog")

	// The hollow triangle is the only polygon and has exactly three points.
	m := regexp.MustCompile(`<polygon points="([^"]+)"`).FindStringSubmatch(svg)
	if m == nil {
		t.Fatalf("no polygon in output: %s", svg)
	}
	if got := len(strings.Fields(m[1])); got != 3 {
		t.Errorf("triangle point count = %d, want 3", got)
	}
	if !strings.Contains(svg, `fill="#f5f5f5"`) {
		t.Error("triangle not hollow")
	}
}

func TestClassMultiplicities(t *testing.T) {
	svg := renderSource(t, `classDiagram
User "1" --> "0..*" Order : places`)
	if !strings.Contains(svg, ">1<") || !strings.Contains(svg, ">0..*<") {
		t.Errorf("missing multiplicities: %s", svg)
	}
}

func TestStateStartEndMarkers(t *testing.T) {
	svg := renderSource(t, "stateDiagram-v2\n[*] --> Idle\nIdle --> [*]")
	if !strings.Contains(svg, ">Idle<") {
		t.Error("missing state label")
	}
	if got := strings.Count(svg, "<circle"); got < 3 {
		t.Errorf("circle count = %d, want start dot plus end ring", got)
	}
	if !strings.Contains(svg, `rx="10"`) {
		t.Error("missing state box")
	}
}

func TestStateTransitionLabel(t *testing.T) {
	svg := renderSource(t, "stateDiagram-v2\nIdle --> Running : start")
	if !strings.Contains(svg, ">start<") {
		t.Errorf("missing transition label: %s", svg)
	}
}

func TestStateCompositeContents(t *testing.T) {
	src := `stateDiagram-v2
[*] --> Active
state Active {
  [*] --> Working
  Working --> Waiting
}
Active --> [*]`
	svg := renderSource(t, src)
	if !strings.Contains(svg, ">Active<") {
		t.Error("missing composite label")
	}
	for _, want := range []string{">Working<", ">Waiting<"} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing child %s", want)
		}
	}
}

func TestEREntityAttributes(t *testing.T) {
	src := `erDiagram
USER {
  int id PK
  string name
}`
	svg := renderSource(t, src)
	if !strings.Contains(svg, ">USER<") {
		t.Error("missing entity name")
	}
	if !strings.Contains(svg, ">*int id<") {
		t.Errorf("key attribute not starred: %s", svg)
	}
	if !strings.Contains(svg, ">string name<") {
		t.Error("missing plain attribute")
	}
}

func TestERCrowsFoot(t *testing.T) {
	svg := renderSource(t, "erDiagram\nUSER ||--o{ ORDER : places")
	if !strings.Contains(svg, ">places<") {
		t.Error("missing relationship label")
	}
	// zero-or-more end carries a hollow circle.
	if !strings.Contains(svg, `r="4.5"`) {
		t.Errorf("missing zero marker: %s", svg)
	}
}

func TestRenderDeterministic(t *testing.T) {
	src := `stateDiagram-v2
[*] --> A
A --> B : go
B --> A : back
B --> C
C --> [*]`
	d, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first, err := SVG(d)
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	second, err := SVG(d)
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same diagram rendered differently on repeat runs")
	}
}

func TestEscapedText(t *testing.T) {
	svg := renderSource(t, "flowchart TB\nA[a < b & c] --> B")
	if !strings.Contains(svg, "a &lt; b &amp; c") {
		t.Errorf("label not escaped: %s", svg)
	}
	if strings.Contains(svg, ">a < b") {
		t.Error("raw markup leaked into output")
	}
}
