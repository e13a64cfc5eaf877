// Package domain defines the document entities, geometry value types,
// selection references and rule evaluation primitives shared by the tool
// engine and its persistence backends.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ObjectType identifies the kind of object a selection reference or a change
// record points at.
type ObjectType string

// Supported object types. Sub-object types (vertices, edges, arc centers)
// only appear in selections and address an index inside their parent.
const (
	ObjectInvalid          ObjectType = ""
	ObjectJunction         ObjectType = "junction"
	ObjectLine             ObjectType = "line"
	ObjectArc              ObjectType = "arc"
	ObjectText             ObjectType = "text"
	ObjectPolygon          ObjectType = "polygon"
	ObjectPolygonVertex    ObjectType = "polygon_vertex"
	ObjectPolygonEdge      ObjectType = "polygon_edge"
	ObjectPolygonArcCenter ObjectType = "polygon_arc_center"
	ObjectHole             ObjectType = "hole"
	ObjectDimension        ObjectType = "dimension"
	ObjectKeepout          ObjectType = "keepout"
	ObjectBoardPackage     ObjectType = "board_package"
	ObjectBus              ObjectType = "bus"
	ObjectBusRipper        ObjectType = "bus_ripper"
	ObjectNetLine          ObjectType = "net_line"
	ObjectComponent        ObjectType = "component"
	ObjectSchematicSymbol  ObjectType = "schematic_symbol"
)

var objectTypes = []ObjectType{
	ObjectJunction, ObjectLine, ObjectArc, ObjectText, ObjectPolygon,
	ObjectPolygonVertex, ObjectPolygonEdge, ObjectPolygonArcCenter, ObjectHole,
	ObjectDimension, ObjectKeepout, ObjectBoardPackage, ObjectBus,
	ObjectBusRipper, ObjectNetLine, ObjectComponent, ObjectSchematicSymbol,
}

// ParseObjectType resolves the textual name of an object type.
func ParseObjectType(name string) (ObjectType, error) {
	for _, t := range objectTypes {
		if string(t) == name {
			return t, nil
		}
	}
	return ObjectInvalid, fmt.Errorf("unknown object type %q", name)
}

// Scope selects which set of entity maps an operation addresses.
type Scope int

const (
	// ScopeDocument addresses the primary document (schematic, symbol,
	// package or padstack being edited).
	ScopeDocument Scope = iota
	// ScopeWork addresses the board work context.
	ScopeWork
)

func (s Scope) String() string {
	if s == ScopeWork {
		return "work"
	}
	return "document"
}

// Junction is a connection point referenced by lines, arcs and net lines.
type Junction struct {
	UUID     uuid.UUID `json:"uuid"`
	Position Coordi    `json:"position"`
	Layer    int       `json:"layer"`
	Bus      uuid.UUID `json:"bus"`
	Net      uuid.UUID `json:"net"`
	Temp     bool      `json:"temp,omitempty"`
}

// Line is a straight graphical segment between two junctions.
type Line struct {
	UUID  uuid.UUID `json:"uuid"`
	From  uuid.UUID `json:"from"`
	To    uuid.UUID `json:"to"`
	Width uint64    `json:"width"`
	Layer int       `json:"layer"`
}

// Arc is a circular segment defined by three junctions.
type Arc struct {
	UUID   uuid.UUID `json:"uuid"`
	From   uuid.UUID `json:"from"`
	To     uuid.UUID `json:"to"`
	Center uuid.UUID `json:"center"`
	Width  uint64    `json:"width"`
	Layer  int       `json:"layer"`
}

// Text is a placed text label.
type Text struct {
	UUID      uuid.UUID `json:"uuid"`
	Placement Placement `json:"placement"`
	Text      string    `json:"text"`
	Layer     int       `json:"layer"`
	Size      uint64    `json:"size"`
	Width     uint64    `json:"width"`
}

// VertexType distinguishes straight from arc polygon segments.
type VertexType string

const (
	VertexLine VertexType = "line"
	VertexArc  VertexType = "arc"
)

// Vertex is a polygon corner. For arc vertices ArcCenter holds the center of
// the segment leading to the next vertex.
type Vertex struct {
	Type       VertexType `json:"type"`
	Position   Coordi     `json:"position"`
	ArcCenter  Coordi     `json:"arc_center"`
	ArcReverse bool       `json:"arc_reverse,omitempty"`
}

// Polygon is a closed outline on a layer.
type Polygon struct {
	UUID     uuid.UUID `json:"uuid"`
	Layer    int       `json:"layer"`
	Vertices []Vertex  `json:"vertices"`
}

// EdgeVertices returns the indices of the two vertices bounding edge.
// Edge indices wrap in both directions.
func (p Polygon) EdgeVertices(edge int) (int, int) {
	n := len(p.Vertices)
	if n == 0 {
		return 0, 0
	}
	edge = ((edge % n) + n) % n
	return edge, (edge + 1) % n
}

// HoleShape enumerates drill shapes.
type HoleShape string

const (
	HoleRound HoleShape = "round"
	HoleSlot  HoleShape = "slot"
)

// Hole is a drilled hole. Board holes carry the padstack they were created
// from.
type Hole struct {
	UUID      uuid.UUID `json:"uuid"`
	Placement Placement `json:"placement"`
	Diameter  uint64    `json:"diameter"`
	Length    uint64    `json:"length,omitempty"`
	Shape     HoleShape `json:"shape"`
	Plated    bool      `json:"plated,omitempty"`
	Padstack  uuid.UUID `json:"padstack"`
	Temp      bool      `json:"temp,omitempty"`
}

// Dimension is a measurement annotation between two points.
type Dimension struct {
	UUID        uuid.UUID `json:"uuid"`
	P0          Coordi    `json:"p0"`
	P1          Coordi    `json:"p1"`
	LabelDist   int64     `json:"label_distance"`
	LabelSize   uint64    `json:"label_size"`
	Orientation string    `json:"orientation"`
}

// Keepout marks the area of a polygon as forbidden for a class of objects.
type Keepout struct {
	UUID      uuid.UUID `json:"uuid"`
	Polygon   uuid.UUID `json:"polygon"`
	Class     string    `json:"keepout_class,omitempty"`
	AllCopper bool      `json:"all_cu_layers,omitempty"`
}

// BoardPackage is a placed footprint on the board.
type BoardPackage struct {
	UUID      uuid.UUID   `json:"uuid"`
	RefDes    string      `json:"refdes"`
	Package   uuid.UUID   `json:"package"`
	Placement Placement   `json:"placement"`
	Flip      bool        `json:"flip,omitempty"`
	Texts     []uuid.UUID `json:"texts"`
}

// BusMember is a named signal inside a bus.
type BusMember struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
	Net  uuid.UUID `json:"net"`
}

// Bus groups nets under a common name.
type Bus struct {
	UUID    uuid.UUID               `json:"uuid"`
	Name    string                  `json:"name"`
	Members map[uuid.UUID]BusMember `json:"members"`
}

// BusRipper breaks a single member out of a bus at a junction.
type BusRipper struct {
	UUID      uuid.UUID `json:"uuid"`
	Junction  uuid.UUID `json:"junction"`
	Bus       uuid.UUID `json:"bus"`
	BusMember uuid.UUID `json:"bus_member"`
	Mirror    bool      `json:"mirror,omitempty"`
	Temp      bool      `json:"temp,omitempty"`
}

// NetLine is a schematic wire between two junctions, carrying either a net or
// a bus.
type NetLine struct {
	UUID uuid.UUID `json:"uuid"`
	From uuid.UUID `json:"from"`
	To   uuid.UUID `json:"to"`
	Net  uuid.UUID `json:"net"`
	Bus  uuid.UUID `json:"bus"`
}

// Component is an instance of a pool entity, optionally bound to a part.
type Component struct {
	UUID   uuid.UUID `json:"uuid"`
	RefDes string    `json:"refdes"`
	Entity uuid.UUID `json:"entity"`
	Part   uuid.UUID `json:"part"`
}

// SchematicSymbol places one gate of a component on a sheet.
type SchematicSymbol struct {
	UUID      uuid.UUID `json:"uuid"`
	Component uuid.UUID `json:"component"`
	Placement Placement `json:"placement"`
}

// Padstack is a pool item describing a hole or via stackup.
type Padstack struct {
	UUID     uuid.UUID `json:"uuid"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Diameter uint64    `json:"diameter"`
	Plated   bool      `json:"plated"`
}

// Part is a pool item binding an entity to a manufacturer part number.
type Part struct {
	UUID   uuid.UUID `json:"uuid"`
	MPN    string    `json:"mpn"`
	Entity uuid.UUID `json:"entity"`
}
