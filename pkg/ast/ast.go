// Package ast defines the typed syntax trees produced by the diagram parsers.
//
// Each supported grammar (flowchart, sequence, class, state, entity-relationship)
// has its own root type; [Diagram] wraps exactly one of them together with the
// detected [Kind]. All types serialize to JSON, which the CLI uses for the
// layout-dump output format.
//
// The trees are plain data: no behavior beyond small lookup helpers. Layout and
// rendering live in their own packages and consume these types read-only.
package ast

// Kind identifies which grammar a diagram was parsed as.
type Kind string

// Supported diagram kinds.
const (
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequence"
	KindClass     Kind = "class"
	KindState     Kind = "state"
	KindER        Kind = "er"
)

// Diagram is the root of a parsed diagram. Exactly one of the pointer fields
// is non-nil, matching Kind.
type Diagram struct {
	Kind      Kind             `json:"kind"`
	Flowchart *Flowchart       `json:"flowchart,omitempty"`
	Sequence  *SequenceDiagram `json:"sequence,omitempty"`
	Class     *ClassDiagram    `json:"class,omitempty"`
	State     *StateDiagram    `json:"state,omitempty"`
	ER        *ERDiagram       `json:"er,omitempty"`
}

// =============================================================================
// Flowchart
// =============================================================================

// NodeShape is the visual shape of a flowchart node, chosen by the bracket
// style used in its declaration.
type NodeShape string

// Flowchart node shapes.
const (
	ShapeRect             NodeShape = "rect"
	ShapeRoundedRect      NodeShape = "rounded"
	ShapeStadium          NodeShape = "stadium"
	ShapeSubroutine       NodeShape = "subroutine"
	ShapeCylinder         NodeShape = "cylinder"
	ShapeCircle           NodeShape = "circle"
	ShapeDoubleCircle     NodeShape = "double_circle"
	ShapeRhombus          NodeShape = "rhombus"
	ShapeHexagon          NodeShape = "hexagon"
	ShapeParallelogram    NodeShape = "parallelogram"
	ShapeParallelogramAlt NodeShape = "parallelogram_alt"
	ShapeTrapezoid        NodeShape = "trapezoid"
	ShapeTrapezoidAlt     NodeShape = "trapezoid_alt"
)

// EdgeStyle is the stroke style of a flowchart edge.
type EdgeStyle string

// Flowchart edge stroke styles.
const (
	EdgeSolid  EdgeStyle = "solid"
	EdgeDotted EdgeStyle = "dotted"
	EdgeThick  EdgeStyle = "thick"
)

// ArrowType is the terminator drawn at an edge endpoint.
type ArrowType string

// Edge endpoint terminators.
const (
	ArrowNone   ArrowType = "none"
	ArrowHead   ArrowType = "arrow"
	ArrowCircle ArrowType = "circle"
	ArrowCross  ArrowType = "cross"
)

// FlowDirection is the primary layout direction of a flowchart.
type FlowDirection string

// Flowchart directions.
const (
	DirTopDown   FlowDirection = "TB"
	DirBottomUp  FlowDirection = "BT"
	DirLeftRight FlowDirection = "LR"
	DirRightLeft FlowDirection = "RL"
)

// FlowchartNode is a single node declaration.
type FlowchartNode struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Shape NodeShape `json:"shape"`
}

// FlowchartEdge connects two nodes. MinLength is the number of extra layers
// the edge spans when declared with lengthened operators (e.g. "--->").
type FlowchartEdge struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Label     string    `json:"label,omitempty"`
	Style     EdgeStyle `json:"style"`
	ArrowHead ArrowType `json:"arrow_head"`
	ArrowTail ArrowType `json:"arrow_tail"`
	MinLength int       `json:"min_length,omitempty"`
}

// Subgraph groups nodes under a titled box.
type Subgraph struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Nodes []string `json:"nodes"`
}

// Flowchart is a parsed flowchart or graph diagram.
type Flowchart struct {
	Direction FlowDirection   `json:"direction"`
	Nodes     []FlowchartNode `json:"nodes"`
	Edges     []FlowchartEdge `json:"edges"`
	Subgraphs []Subgraph      `json:"subgraphs,omitempty"`
}

// Node returns the node with the given id, or nil.
func (f *Flowchart) Node(id string) *FlowchartNode {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// =============================================================================
// Sequence diagram
// =============================================================================

// Participant is a lifeline in a sequence diagram. Alias, when set, is the
// display name ("participant A as Alice").
type Participant struct {
	ID    string `json:"id"`
	Alias string `json:"alias,omitempty"`
}

// DisplayName returns the alias if present, otherwise the id.
func (p Participant) DisplayName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.ID
}

// MessageType is the line style of a sequence message.
type MessageType string

// Sequence message line styles.
const (
	MessageSolid  MessageType = "solid"
	MessageDotted MessageType = "dotted"
)

// MessageKind is the arrowhead semantics of a sequence message.
type MessageKind string

// Sequence message kinds.
const (
	MessageSync  MessageKind = "sync"
	MessageAsync MessageKind = "async"
	MessageReply MessageKind = "reply"
	MessageCross MessageKind = "cross"
)

// SequenceMessage is a single message between two participants.
type SequenceMessage struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Label string      `json:"label"`
	Type  MessageType `json:"type"`
	Kind  MessageKind `json:"kind"`
}

// BlockType is the keyword of a nested sequence block.
type BlockType string

// Sequence block keywords.
const (
	BlockAlt      BlockType = "alt"
	BlockOpt      BlockType = "opt"
	BlockLoop     BlockType = "loop"
	BlockPar      BlockType = "par"
	BlockCritical BlockType = "critical"
	BlockBreak    BlockType = "break"
	BlockRect     BlockType = "rect"
)

// BlockBranch is an else/and branch inside a block.
type BlockBranch struct {
	Label    string            `json:"label"`
	Elements []SequenceElement `json:"elements"`
}

// SequenceBlock is a nested alt/opt/loop/par/critical/break frame.
type SequenceBlock struct {
	Type     BlockType         `json:"type"`
	Label    string            `json:"label"`
	Elements []SequenceElement `json:"elements"`
	Branches []BlockBranch     `json:"branches,omitempty"`
}

// NotePosition places a note relative to its participants.
type NotePosition string

// Note positions.
const (
	NoteLeftOf  NotePosition = "left_of"
	NoteRightOf NotePosition = "right_of"
	NoteOver    NotePosition = "over"
)

// SequenceNote is an annotation anchored to one or two participants.
type SequenceNote struct {
	Participant string       `json:"participant"`
	Spans       string       `json:"spans,omitempty"` // second participant for "over A,B"
	Position    NotePosition `json:"position"`
	Text        string       `json:"text"`
}

// SequenceElement is one statement in the diagram body. Exactly one field
// is non-nil.
type SequenceElement struct {
	Message    *SequenceMessage `json:"message,omitempty"`
	Activate   string           `json:"activate,omitempty"`
	Deactivate string           `json:"deactivate,omitempty"`
	Note       *SequenceNote    `json:"note,omitempty"`
	Block      *SequenceBlock   `json:"block,omitempty"`
}

// SequenceDiagram is a parsed sequence diagram.
type SequenceDiagram struct {
	Title        string            `json:"title,omitempty"`
	Autonumber   bool              `json:"autonumber,omitempty"`
	Participants []Participant     `json:"participants"`
	Elements     []SequenceElement `json:"elements"`
}

// Participant returns the participant with the given id, or nil.
func (d *SequenceDiagram) Participant(id string) *Participant {
	for i := range d.Participants {
		if d.Participants[i].ID == id {
			return &d.Participants[i]
		}
	}
	return nil
}

// =============================================================================
// Class diagram
// =============================================================================

// Visibility is a UML member visibility marker.
type Visibility string

// Member visibilities.
const (
	VisPublic    Visibility = "public"    // +
	VisPrivate   Visibility = "private"   // -
	VisProtected Visibility = "protected" // #
	VisPackage   Visibility = "package"   // ~
)

// ClassAttribute is a field of a class.
type ClassAttribute struct {
	Visibility Visibility `json:"visibility"`
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	Static     bool       `json:"static,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
}

// ClassMethod is an operation of a class. Params holds "name: Type" pairs
// already formatted for display.
type ClassMethod struct {
	Visibility Visibility `json:"visibility"`
	Name       string     `json:"name"`
	Params     []string   `json:"params,omitempty"`
	Returns    string     `json:"returns,omitempty"`
	Static     bool       `json:"static,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
}

// ClassRelationType is the UML relationship drawn between two classes.
type ClassRelationType string

// Class relation types.
const (
	RelInheritance ClassRelationType = "inheritance"
	RelComposition ClassRelationType = "composition"
	RelAggregation ClassRelationType = "aggregation"
	RelAssociation ClassRelationType = "association"
	RelDependency  ClassRelationType = "dependency"
	RelRealization ClassRelationType = "realization"
	RelLink        ClassRelationType = "link"
)

// ClassRelation connects two classes with an optional caption and
// end multiplicities.
type ClassRelation struct {
	From             string            `json:"from"`
	To               string            `json:"to"`
	Type             ClassRelationType `json:"type"`
	Label            string            `json:"label,omitempty"`
	MultiplicityFrom string            `json:"multiplicity_from,omitempty"`
	MultiplicityTo   string            `json:"multiplicity_to,omitempty"`
}

// ClassDefinition is a single class with its members.
type ClassDefinition struct {
	Name       string           `json:"name"`
	Stereotype string           `json:"stereotype,omitempty"`
	Attributes []ClassAttribute `json:"attributes,omitempty"`
	Methods    []ClassMethod    `json:"methods,omitempty"`
	Interface  bool             `json:"interface,omitempty"`
	Abstract   bool             `json:"abstract,omitempty"`
}

// ClassDiagram is a parsed class diagram.
type ClassDiagram struct {
	Classes   []ClassDefinition `json:"classes"`
	Relations []ClassRelation   `json:"relations,omitempty"`
}

// Class returns the class with the given name, or nil.
func (d *ClassDiagram) Class(name string) *ClassDefinition {
	for i := range d.Classes {
		if d.Classes[i].Name == name {
			return &d.Classes[i]
		}
	}
	return nil
}

// =============================================================================
// State diagram
// =============================================================================

// StateMarker distinguishes pseudo-states from plain states.
type StateMarker string

// State markers.
const (
	StatePlain  StateMarker = ""
	StateChoice StateMarker = "choice"
	StateFork   StateMarker = "fork"
	StateJoin   StateMarker = "join"
)

// State is a node in a state diagram. Composite states carry their nested
// states and transitions.
type State struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Start       bool              `json:"start,omitempty"`
	End         bool              `json:"end,omitempty"`
	Marker      StateMarker       `json:"marker,omitempty"`
	Composite   bool              `json:"composite,omitempty"`
	Children    []State           `json:"children,omitempty"`
	Transitions []StateTransition `json:"transitions,omitempty"` // transitions between Children
}

// StateTransition is a labeled arrow between two states.
type StateTransition struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// StateDiagram is a parsed state diagram. States holds the top-level states;
// Transitions the top-level transitions.
type StateDiagram struct {
	States      []State           `json:"states"`
	Transitions []StateTransition `json:"transitions,omitempty"`
}

// State returns the top-level state with the given id, or nil.
func (d *StateDiagram) State(id string) *State {
	for i := range d.States {
		if d.States[i].ID == id {
			return &d.States[i]
		}
	}
	return nil
}

// =============================================================================
// Entity-relationship diagram
// =============================================================================

// ERCardinality is one side of a crow's-foot relationship.
type ERCardinality string

// ER cardinalities.
const (
	CardZeroOrOne  ERCardinality = "zero_or_one"
	CardExactlyOne ERCardinality = "exactly_one"
	CardZeroOrMore ERCardinality = "zero_or_more"
	CardOneOrMore  ERCardinality = "one_or_more"
)

// ERAttribute is one row of an entity's attribute block.
type ERAttribute struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Key       string `json:"key,omitempty"` // PK, FK or UK
	Comment   string `json:"comment,omitempty"`
	Composite bool   `json:"composite,omitempty"`
}

// IsKey reports whether the attribute carries any key marker.
func (a ERAttribute) IsKey() bool { return a.Key != "" }

// EREntity is a table-like entity with its attributes.
type EREntity struct {
	Name       string        `json:"name"`
	Attributes []ERAttribute `json:"attributes,omitempty"`
}

// ERRelationship connects two entities with cardinalities on both ends.
type ERRelationship struct {
	From            string        `json:"from"`
	To              string        `json:"to"`
	FromCardinality ERCardinality `json:"from_cardinality"`
	ToCardinality   ERCardinality `json:"to_cardinality"`
	Label           string        `json:"label,omitempty"`
}

// ERDiagram is a parsed entity-relationship diagram.
type ERDiagram struct {
	Entities      []EREntity       `json:"entities"`
	Relationships []ERRelationship `json:"relationships,omitempty"`
}

// Entity returns the entity with the given name, or nil.
func (d *ERDiagram) Entity(name string) *EREntity {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i]
		}
	}
	return nil
}
