package parser

import (
	"testing"

	"github.com/markviz/markviz/pkg/ast"
)

func mustClass(t *testing.T, src string) *ast.ClassDiagram {
	t.Helper()
	d, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.Class == nil {
		t.Fatalf("Class = nil, Kind = %v", d.Kind)
	}
	return d.Class
}

func TestClassBodyMembers(t *testing.T) {
	src := `classDiagram
class Animal {
  +String name
  -age: int
  #weight
  +speak() String
  +clone() Animal*
  +count() int$
}`

	cd := mustClass(t, src)

	if len(cd.Classes) != 1 {
		t.Fatalf("len(Classes) = %d, want 1", len(cd.Classes))
	}
	cls := cd.Classes[0]
	if cls.Name != "Animal" {
		t.Errorf("Name = %q, want Animal", cls.Name)
	}

	if len(cls.Attributes) != 3 {
		t.Fatalf("len(Attributes) = %d, want 3", len(cls.Attributes))
	}
	if a := cls.Attributes[0]; a.Visibility != ast.VisPublic || a.Type != "String" || a.Name != "name" {
		t.Errorf("Attributes[0] = %+v", a)
	}
	if a := cls.Attributes[1]; a.Visibility != ast.VisPrivate || a.Name != "age" || a.Type != "int" {
		t.Errorf("Attributes[1] = %+v", a)
	}
	if a := cls.Attributes[2]; a.Visibility != ast.VisProtected || a.Name != "weight" {
		t.Errorf("Attributes[2] = %+v", a)
	}

	if len(cls.Methods) != 3 {
		t.Fatalf("len(Methods) = %d, want 3", len(cls.Methods))
	}
	if m := cls.Methods[0]; m.Name != "speak" || m.Returns != "String" {
		t.Errorf("Methods[0] = %+v", m)
	}
	if m := cls.Methods[1]; !m.Abstract || m.Static {
		t.Errorf("Methods[1] flags = %+v, want abstract", m)
	}
	if m := cls.Methods[2]; !m.Static || m.Abstract {
		t.Errorf("Methods[2] flags = %+v, want static", m)
	}
}

func TestClassMethodParams(t *testing.T) {
	cd := mustClass(t, "classDiagram\nclass Repo {\n+find(id int, deep bool) Record\n}")

	m := cd.Classes[0].Methods[0]
	if len(m.Params) != 2 || m.Params[0] != "id int" || m.Params[1] != "deep bool" {
		t.Errorf("Params = %v", m.Params)
	}
	if m.Returns != "Record" {
		t.Errorf("Returns = %q, want Record", m.Returns)
	}
}

func TestClassGenerics(t *testing.T) {
	cd := mustClass(t, "classDiagram\nclass List~T~ {\n+get(i int) T\n}")

	if cd.Classes[0].Name != "List<T>" {
		t.Errorf("Name = %q, want List<T>", cd.Classes[0].Name)
	}
}

func TestClassStereotypes(t *testing.T) {
	src := `classDiagram
class Shape {
  <<interface>>
  +area() float
}
class Base {
  <<abstract>>
}`

	cd := mustClass(t, src)

	if !cd.Classes[0].Interface || cd.Classes[0].Stereotype != "interface" {
		t.Errorf("Classes[0] = %+v, want interface", cd.Classes[0])
	}
	if !cd.Classes[1].Abstract {
		t.Errorf("Classes[1] = %+v, want abstract", cd.Classes[1])
	}
}

func TestClassRelationOperators(t *testing.T) {
	tests := []struct {
		line string
		typ  ast.ClassRelationType
	}{
		{"B <|-- A", ast.RelInheritance},
		{"A ..|> I", ast.RelRealization},
		{"Car *-- Engine", ast.RelComposition},
		{"Team o-- Player", ast.RelAggregation},
		{"A --> B", ast.RelAssociation},
		{"A ..> B", ast.RelDependency},
		{"A -- B", ast.RelLink},
		{"A .. B", ast.RelLink},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cd := mustClass(t, "classDiagram\n"+tt.line)
			if len(cd.Relations) != 1 {
				t.Fatalf("len(Relations) = %d, want 1", len(cd.Relations))
			}
			if cd.Relations[0].Type != tt.typ {
				t.Errorf("Type = %v, want %v", cd.Relations[0].Type, tt.typ)
			}
		})
	}
}

func TestClassRelationMultiplicityAndLabel(t *testing.T) {
	cd := mustClass(t, `classDiagram
User "1" --> "0..*" Order : places`)

	if len(cd.Relations) != 1 {
		t.Fatalf("len(Relations) = %d, want 1", len(cd.Relations))
	}
	rel := cd.Relations[0]
	if rel.From != "User" || rel.To != "Order" {
		t.Errorf("endpoints = %q -> %q", rel.From, rel.To)
	}
	if rel.MultiplicityFrom != "1" || rel.MultiplicityTo != "0..*" {
		t.Errorf("multiplicity = %q/%q, want 1/0..*", rel.MultiplicityFrom, rel.MultiplicityTo)
	}
	if rel.Label != "places" {
		t.Errorf("Label = %q, want places", rel.Label)
	}
}

func TestClassRelationRegistersEndpoints(t *testing.T) {
	cd := mustClass(t, "classDiagram\nAnimal <|-- Dog\nAnimal <|-- Cat")

	if len(cd.Classes) != 3 {
		t.Fatalf("len(Classes) = %d, want 3", len(cd.Classes))
	}
	names := []string{cd.Classes[0].Name, cd.Classes[1].Name, cd.Classes[2].Name}
	want := []string{"Animal", "Dog", "Cat"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Classes[%d].Name = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestClassColonMemberForm(t *testing.T) {
	cd := mustClass(t, "classDiagram\nBank : +deposit(amount)\nBank : -balance int")

	if len(cd.Classes) != 1 {
		t.Fatalf("len(Classes) = %d, want 1", len(cd.Classes))
	}
	cls := cd.Classes[0]
	if len(cls.Methods) != 1 || cls.Methods[0].Name != "deposit" {
		t.Errorf("Methods = %+v", cls.Methods)
	}
	if len(cls.Attributes) != 1 || cls.Attributes[0].Visibility != ast.VisPrivate {
		t.Errorf("Attributes = %+v", cls.Attributes)
	}
}
