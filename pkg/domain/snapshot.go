package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"
)

// Primitives holds the entity kinds available in every scope.
type Primitives struct {
	Junctions  map[uuid.UUID]Junction  `json:"junctions"`
	Lines      map[uuid.UUID]Line      `json:"lines"`
	Arcs       map[uuid.UUID]Arc       `json:"arcs"`
	Texts      map[uuid.UUID]Text      `json:"texts"`
	Polygons   map[uuid.UUID]Polygon   `json:"polygons"`
	Holes      map[uuid.UUID]Hole      `json:"holes"`
	Dimensions map[uuid.UUID]Dimension `json:"dimensions"`
	Keepouts   map[uuid.UUID]Keepout   `json:"keepouts"`
}

// SchematicState holds the schematic-only kinds of the document scope.
type SchematicState struct {
	Buses      map[uuid.UUID]Bus             `json:"buses"`
	BusRippers map[uuid.UUID]BusRipper       `json:"bus_rippers"`
	NetLines   map[uuid.UUID]NetLine         `json:"net_lines"`
	Components map[uuid.UUID]Component       `json:"components"`
	Symbols    map[uuid.UUID]SchematicSymbol `json:"symbols"`
}

// BoardState holds the board-only kinds of the work scope.
type BoardState struct {
	Packages map[uuid.UUID]BoardPackage `json:"packages"`
}

// Snapshot is the serialized form of a whole document. It is the wire format
// of undo history entries and of document repositories.
type Snapshot struct {
	Document  Primitives     `json:"document"`
	Work      Primitives     `json:"work"`
	Schematic SchematicState `json:"schematic"`
	Board     BoardState     `json:"board"`
}

// Primitives returns the per-scope maps of s.
func (s Snapshot) Primitives(scope Scope) Primitives {
	if scope == ScopeWork {
		return s.Work
	}
	return s.Document
}

// Normalize replaces nil maps with empty ones so that equal documents encode
// to identical bytes.
func (s *Snapshot) Normalize() {
	s.Document.normalize()
	s.Work.normalize()
	if s.Schematic.Buses == nil {
		s.Schematic.Buses = map[uuid.UUID]Bus{}
	}
	for id, bus := range s.Schematic.Buses {
		if bus.Members == nil {
			bus.Members = map[uuid.UUID]BusMember{}
			s.Schematic.Buses[id] = bus
		}
	}
	if s.Schematic.BusRippers == nil {
		s.Schematic.BusRippers = map[uuid.UUID]BusRipper{}
	}
	if s.Schematic.NetLines == nil {
		s.Schematic.NetLines = map[uuid.UUID]NetLine{}
	}
	if s.Schematic.Components == nil {
		s.Schematic.Components = map[uuid.UUID]Component{}
	}
	if s.Schematic.Symbols == nil {
		s.Schematic.Symbols = map[uuid.UUID]SchematicSymbol{}
	}
	if s.Board.Packages == nil {
		s.Board.Packages = map[uuid.UUID]BoardPackage{}
	}
}

func (p *Primitives) normalize() {
	if p.Junctions == nil {
		p.Junctions = map[uuid.UUID]Junction{}
	}
	if p.Lines == nil {
		p.Lines = map[uuid.UUID]Line{}
	}
	if p.Arcs == nil {
		p.Arcs = map[uuid.UUID]Arc{}
	}
	if p.Texts == nil {
		p.Texts = map[uuid.UUID]Text{}
	}
	if p.Polygons == nil {
		p.Polygons = map[uuid.UUID]Polygon{}
	}
	for id, poly := range p.Polygons {
		if poly.Vertices == nil {
			poly.Vertices = []Vertex{}
			p.Polygons[id] = poly
		}
	}
	if p.Holes == nil {
		p.Holes = map[uuid.UUID]Hole{}
	}
	if p.Dimensions == nil {
		p.Dimensions = map[uuid.UUID]Dimension{}
	}
	if p.Keepouts == nil {
		p.Keepouts = map[uuid.UUID]Keepout{}
	}
}

// Count returns how many top-level objects of type t the snapshot holds.
// Schematic and board kinds ignore scope; sub-object types count zero.
func (s Snapshot) Count(scope Scope, t ObjectType) int {
	p := s.Primitives(scope)
	switch t {
	case ObjectJunction:
		return len(p.Junctions)
	case ObjectLine:
		return len(p.Lines)
	case ObjectArc:
		return len(p.Arcs)
	case ObjectText:
		return len(p.Texts)
	case ObjectPolygon:
		return len(p.Polygons)
	case ObjectHole:
		return len(p.Holes)
	case ObjectDimension:
		return len(p.Dimensions)
	case ObjectKeepout:
		return len(p.Keepouts)
	case ObjectBus:
		return len(s.Schematic.Buses)
	case ObjectBusRipper:
		return len(s.Schematic.BusRippers)
	case ObjectNetLine:
		return len(s.Schematic.NetLines)
	case ObjectComponent:
		return len(s.Schematic.Components)
	case ObjectSchematicSymbol:
		return len(s.Schematic.Symbols)
	case ObjectBoardPackage:
		return len(s.Board.Packages)
	}
	return 0
}

// MarshalSnapshot encodes s. Map keys are sorted by encoding/json, so equal
// snapshots produce equal bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	s.Normalize()
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes data produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Normalize()
	return s, nil
}

// Action enumerates the kind of difference recorded in a Change.
type Action string

// Change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes one entity difference between two snapshots.
type Change struct {
	Type   ObjectType
	Scope  Scope
	Action Action
	ID     uuid.UUID
}

// DiffSnapshots lists the entity changes leading from before to after, in a
// stable order.
func DiffSnapshots(before, after Snapshot) []Change {
	var out []Change
	for _, scope := range []Scope{ScopeDocument, ScopeWork} {
		b, a := before.Primitives(scope), after.Primitives(scope)
		out = append(out, diffMap(ObjectJunction, scope, b.Junctions, a.Junctions)...)
		out = append(out, diffMap(ObjectLine, scope, b.Lines, a.Lines)...)
		out = append(out, diffMap(ObjectArc, scope, b.Arcs, a.Arcs)...)
		out = append(out, diffMap(ObjectText, scope, b.Texts, a.Texts)...)
		out = append(out, diffMap(ObjectPolygon, scope, b.Polygons, a.Polygons)...)
		out = append(out, diffMap(ObjectHole, scope, b.Holes, a.Holes)...)
		out = append(out, diffMap(ObjectDimension, scope, b.Dimensions, a.Dimensions)...)
		out = append(out, diffMap(ObjectKeepout, scope, b.Keepouts, a.Keepouts)...)
	}
	out = append(out, diffMap(ObjectBus, ScopeDocument, before.Schematic.Buses, after.Schematic.Buses)...)
	out = append(out, diffMap(ObjectBusRipper, ScopeDocument, before.Schematic.BusRippers, after.Schematic.BusRippers)...)
	out = append(out, diffMap(ObjectNetLine, ScopeDocument, before.Schematic.NetLines, after.Schematic.NetLines)...)
	out = append(out, diffMap(ObjectComponent, ScopeDocument, before.Schematic.Components, after.Schematic.Components)...)
	out = append(out, diffMap(ObjectSchematicSymbol, ScopeDocument, before.Schematic.Symbols, after.Schematic.Symbols)...)
	out = append(out, diffMap(ObjectBoardPackage, ScopeWork, before.Board.Packages, after.Board.Packages)...)
	return out
}

func diffMap[T any](t ObjectType, scope Scope, before, after map[uuid.UUID]T) []Change {
	var out []Change
	for id, prev := range before {
		cur, ok := after[id]
		switch {
		case !ok:
			out = append(out, Change{Type: t, Scope: scope, Action: ActionDelete, ID: id})
		case !reflect.DeepEqual(prev, cur):
			out = append(out, Change{Type: t, Scope: scope, Action: ActionUpdate, ID: id})
		}
	}
	for id := range after {
		if _, ok := before[id]; !ok {
			out = append(out, Change{Type: t, Scope: scope, Action: ActionCreate, ID: id})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}
