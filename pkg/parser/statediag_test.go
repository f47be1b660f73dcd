package parser

import (
	"testing"

	"github.com/markviz/markviz/pkg/ast"
)

func mustState(t *testing.T, src string) *ast.StateDiagram {
	t.Helper()
	d, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.State == nil {
		t.Fatalf("State = nil, Kind = %v", d.Kind)
	}
	return d.State
}

func TestStateStartEndRewriting(t *testing.T) {
	sd := mustState(t, "stateDiagram-v2\n[*] --> Idle\nIdle --> [*]")

	if len(sd.Transitions) != 2 {
		t.Fatalf("len(Transitions) = %d, want 2", len(sd.Transitions))
	}
	if sd.Transitions[0].From != StartStateID || sd.Transitions[0].To != "Idle" {
		t.Errorf("Transitions[0] = %+v", sd.Transitions[0])
	}
	if sd.Transitions[1].To != EndStateID {
		t.Errorf("Transitions[1] = %+v", sd.Transitions[1])
	}

	start := sd.State(StartStateID)
	end := sd.State(EndStateID)
	if start == nil || !start.Start {
		t.Errorf("start state = %+v", start)
	}
	if end == nil || !end.End {
		t.Errorf("end state = %+v", end)
	}
}

func TestStateTransitionLabels(t *testing.T) {
	sd := mustState(t, "stateDiagram-v2\nIdle --> Running : start\nRunning --> Idle : stop")

	if got := sd.Transitions[0].Label; got != "start" {
		t.Errorf("Label = %q, want start", got)
	}
	if got := sd.Transitions[1].Label; got != "stop" {
		t.Errorf("Label = %q, want stop", got)
	}
}

func TestStateQuotedDescription(t *testing.T) {
	sd := mustState(t, `stateDiagram-v2
state "Waiting for input" as W
W --> Done`)

	st := sd.State("W")
	if st == nil {
		t.Fatal("state W not found")
	}
	if st.Label != "Waiting for input" {
		t.Errorf("Label = %q, want %q", st.Label, "Waiting for input")
	}
}

func TestStateMarkers(t *testing.T) {
	tests := []struct {
		line   string
		id     string
		marker ast.StateMarker
	}{
		{"state c1 <<choice>>", "c1", ast.StateChoice},
		{"state f1 <<fork>>", "f1", ast.StateFork},
		{"state j1 <<join>>", "j1", ast.StateJoin},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sd := mustState(t, "stateDiagram-v2\n"+tt.line+"\n[*] --> "+tt.id)
			st := sd.State(tt.id)
			if st == nil {
				t.Fatalf("state %s not found", tt.id)
			}
			if st.Marker != tt.marker {
				t.Errorf("Marker = %v, want %v", st.Marker, tt.marker)
			}
		})
	}
}

func TestStateComposite(t *testing.T) {
	src := `stateDiagram-v2
[*] --> Active
state Active {
  [*] --> Working
  Working --> Resting : tired
  Resting --> Working : rested
}
Active --> [*]`

	sd := mustState(t, src)

	st := sd.State("Active")
	if st == nil || !st.Composite {
		t.Fatalf("Active = %+v, want composite", st)
	}
	// Inner start dot plus Working and Resting.
	if len(st.Children) != 3 {
		t.Errorf("len(Children) = %d, want 3", len(st.Children))
	}
	if len(st.Transitions) != 3 {
		t.Errorf("len(inner Transitions) = %d, want 3", len(st.Transitions))
	}
	// Outer scope holds only top-level transitions.
	if len(sd.Transitions) != 2 {
		t.Errorf("len(Transitions) = %d, want 2", len(sd.Transitions))
	}
}

func TestStateNestedComposite(t *testing.T) {
	src := `stateDiagram-v2
state Outer {
  state Inner {
    A --> B
  }
  Inner --> C
}
Outer --> Done`

	sd := mustState(t, src)

	outer := sd.State("Outer")
	if outer == nil || !outer.Composite {
		t.Fatalf("Outer = %+v", outer)
	}
	var inner *ast.State
	for i := range outer.Children {
		if outer.Children[i].ID == "Inner" {
			inner = &outer.Children[i]
		}
	}
	if inner == nil || !inner.Composite {
		t.Fatalf("Inner = %+v", inner)
	}
	if len(inner.Children) != 2 {
		t.Errorf("len(Inner.Children) = %d, want 2", len(inner.Children))
	}
}

func TestStateMentionThenDeclaration(t *testing.T) {
	sd := mustState(t, `stateDiagram-v2
A --> B
state "Busy" as B`)

	st := sd.State("B")
	if st == nil {
		t.Fatal("state B not found")
	}
	if st.Label != "Busy" {
		t.Errorf("Label = %q, want Busy", st.Label)
	}
	if len(sd.States) != 2 {
		t.Errorf("len(States) = %d, want 2", len(sd.States))
	}
}

func TestStateSkipsNotesAndDirections(t *testing.T) {
	src := `stateDiagram-v2
direction LR
A --> B
note right of A : quick note
note left of B
  a longer note
end note
B --> C`

	sd := mustState(t, src)

	if len(sd.States) != 3 {
		t.Errorf("len(States) = %d, want 3", len(sd.States))
	}
	if len(sd.Transitions) != 2 {
		t.Errorf("len(Transitions) = %d, want 2", len(sd.Transitions))
	}
}
