// Package memory provides the in-memory entity store the tool engine edits
// and an in-memory document repository for tests and ephemeral sessions.
package memory

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring the store can back rule evaluation.
var _ domain.RuleView = (*Store)(nil)

// Table owns the entities of one kind in one scope. Pointers returned by
// Insert and Get alias the table and stay valid until that entry is deleted
// or the store state is replaced by ImportState.
type Table[T any] struct {
	kind  domain.ObjectType
	rows  map[uuid.UUID]*T
	alloc func(id uuid.UUID) *T
	guard func(id uuid.UUID) error
}

func newTable[T any](kind domain.ObjectType, alloc func(uuid.UUID) *T) *Table[T] {
	return &Table[T]{kind: kind, rows: make(map[uuid.UUID]*T), alloc: alloc}
}

// Kind returns the object type stored in the table.
func (t *Table[T]) Kind() domain.ObjectType { return t.kind }

// Insert creates a default entity at id.
func (t *Table[T]) Insert(id uuid.UUID) (*T, error) {
	if _, exists := t.rows[id]; exists {
		return nil, domain.ErrAlreadyExists{Type: t.kind, ID: id}
	}
	row := t.alloc(id)
	t.rows[id] = row
	return row, nil
}

// Get resolves id.
func (t *Table[T]) Get(id uuid.UUID) (*T, error) {
	row, ok := t.rows[id]
	if !ok {
		return nil, domain.ErrNotFound{Type: t.kind, ID: id}
	}
	return row, nil
}

// Has reports whether id is present.
func (t *Table[T]) Has(id uuid.UUID) bool {
	_, ok := t.rows[id]
	return ok
}

// Delete removes id. It fails while another entity references id.
func (t *Table[T]) Delete(id uuid.UUID) error {
	if _, ok := t.rows[id]; !ok {
		return domain.ErrNotFound{Type: t.kind, ID: id}
	}
	if t.guard != nil {
		if err := t.guard(id); err != nil {
			return err
		}
	}
	delete(t.rows, id)
	return nil
}

// All returns every entity ordered by UUID.
func (t *Table[T]) All() []*T {
	ids := t.IDs()
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

// IDs returns every key in UUID order.
func (t *Table[T]) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

// Len returns the number of entities.
func (t *Table[T]) Len() int { return len(t.rows) }

func (t *Table[T]) export(clone func(T) T) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(t.rows))
	for id, row := range t.rows {
		out[id] = clone(*row)
	}
	return out
}

func (t *Table[T]) load(in map[uuid.UUID]T, clone func(T) T) {
	t.rows = make(map[uuid.UUID]*T, len(in))
	for id, row := range in {
		cp := clone(row)
		t.rows[id] = &cp
	}
}

type primitives struct {
	junctions  *Table[domain.Junction]
	lines      *Table[domain.Line]
	arcs       *Table[domain.Arc]
	texts      *Table[domain.Text]
	polygons   *Table[domain.Polygon]
	holes      *Table[domain.Hole]
	dimensions *Table[domain.Dimension]
	keepouts   *Table[domain.Keepout]
}

func newPrimitives() primitives {
	return primitives{
		junctions:  newTable(domain.ObjectJunction, func(id uuid.UUID) *domain.Junction { return &domain.Junction{UUID: id} }),
		lines:      newTable(domain.ObjectLine, func(id uuid.UUID) *domain.Line { return &domain.Line{UUID: id} }),
		arcs:       newTable(domain.ObjectArc, func(id uuid.UUID) *domain.Arc { return &domain.Arc{UUID: id} }),
		texts:      newTable(domain.ObjectText, func(id uuid.UUID) *domain.Text { return &domain.Text{UUID: id} }),
		polygons:   newTable(domain.ObjectPolygon, func(id uuid.UUID) *domain.Polygon { return &domain.Polygon{UUID: id} }),
		holes:      newTable(domain.ObjectHole, func(id uuid.UUID) *domain.Hole { return &domain.Hole{UUID: id, Shape: domain.HoleRound} }),
		dimensions: newTable(domain.ObjectDimension, func(id uuid.UUID) *domain.Dimension { return &domain.Dimension{UUID: id} }),
		keepouts:   newTable(domain.ObjectKeepout, func(id uuid.UUID) *domain.Keepout { return &domain.Keepout{UUID: id} }),
	}
}

// Store owns every entity of a document. It is not safe for concurrent use;
// the tool engine drives it from a single goroutine.
type Store struct {
	scopes     [2]primitives
	buses      *Table[domain.Bus]
	busRippers *Table[domain.BusRipper]
	netLines   *Table[domain.NetLine]
	components *Table[domain.Component]
	symbols    *Table[domain.SchematicSymbol]
	packages   *Table[domain.BoardPackage]
}

// NewStore constructs an empty store with referential-integrity guards
// installed on every referenced kind.
func NewStore() *Store {
	s := &Store{
		scopes:     [2]primitives{newPrimitives(), newPrimitives()},
		buses:      newTable(domain.ObjectBus, func(id uuid.UUID) *domain.Bus { return &domain.Bus{UUID: id, Members: map[uuid.UUID]domain.BusMember{}} }),
		busRippers: newTable(domain.ObjectBusRipper, func(id uuid.UUID) *domain.BusRipper { return &domain.BusRipper{UUID: id} }),
		netLines:   newTable(domain.ObjectNetLine, func(id uuid.UUID) *domain.NetLine { return &domain.NetLine{UUID: id} }),
		components: newTable(domain.ObjectComponent, func(id uuid.UUID) *domain.Component { return &domain.Component{UUID: id} }),
		symbols:    newTable(domain.ObjectSchematicSymbol, func(id uuid.UUID) *domain.SchematicSymbol { return &domain.SchematicSymbol{UUID: id} }),
		packages:   newTable(domain.ObjectBoardPackage, func(id uuid.UUID) *domain.BoardPackage { return &domain.BoardPackage{UUID: id} }),
	}
	for _, scope := range []domain.Scope{domain.ScopeDocument, domain.ScopeWork} {
		scope := scope
		s.scope(scope).junctions.guard = func(id uuid.UUID) error { return s.junctionReferences(scope, id) }
		s.scope(scope).polygons.guard = func(id uuid.UUID) error { return s.polygonReferences(scope, id) }
	}
	s.scope(domain.ScopeWork).texts.guard = s.textReferences
	s.buses.guard = s.busReferences
	s.components.guard = s.componentReferences
	return s
}

func (s *Store) scope(scope domain.Scope) *primitives {
	if scope == domain.ScopeWork {
		return &s.scopes[1]
	}
	return &s.scopes[0]
}

// Junctions returns the junction table of scope.
func (s *Store) Junctions(scope domain.Scope) *Table[domain.Junction] { return s.scope(scope).junctions }

// Lines returns the line table of scope.
func (s *Store) Lines(scope domain.Scope) *Table[domain.Line] { return s.scope(scope).lines }

// Arcs returns the arc table of scope.
func (s *Store) Arcs(scope domain.Scope) *Table[domain.Arc] { return s.scope(scope).arcs }

// Texts returns the text table of scope.
func (s *Store) Texts(scope domain.Scope) *Table[domain.Text] { return s.scope(scope).texts }

// Polygons returns the polygon table of scope.
func (s *Store) Polygons(scope domain.Scope) *Table[domain.Polygon] { return s.scope(scope).polygons }

// Holes returns the hole table of scope.
func (s *Store) Holes(scope domain.Scope) *Table[domain.Hole] { return s.scope(scope).holes }

// Dimensions returns the dimension table of scope.
func (s *Store) Dimensions(scope domain.Scope) *Table[domain.Dimension] {
	return s.scope(scope).dimensions
}

// Keepouts returns the keepout table of scope.
func (s *Store) Keepouts(scope domain.Scope) *Table[domain.Keepout] { return s.scope(scope).keepouts }

// Buses returns the schematic bus table.
func (s *Store) Buses() *Table[domain.Bus] { return s.buses }

// BusRippers returns the schematic bus ripper table.
func (s *Store) BusRippers() *Table[domain.BusRipper] { return s.busRippers }

// NetLines returns the schematic net line table.
func (s *Store) NetLines() *Table[domain.NetLine] { return s.netLines }

// Components returns the schematic component table.
func (s *Store) Components() *Table[domain.Component] { return s.components }

// SchematicSymbols returns the schematic symbol table.
func (s *Store) SchematicSymbols() *Table[domain.SchematicSymbol] { return s.symbols }

// BoardPackages returns the board package table.
func (s *Store) BoardPackages() *Table[domain.BoardPackage] { return s.packages }

func (s *Store) junctionReferences(scope domain.Scope, id uuid.UUID) error {
	ref := func(t domain.ObjectType, by uuid.UUID) error {
		return domain.ErrReferenced{Type: domain.ObjectJunction, ID: id, ByType: t, ByID: by}
	}
	for _, line := range s.Lines(scope).All() {
		if line.From == id || line.To == id {
			return ref(domain.ObjectLine, line.UUID)
		}
	}
	for _, arc := range s.Arcs(scope).All() {
		if arc.From == id || arc.To == id || arc.Center == id {
			return ref(domain.ObjectArc, arc.UUID)
		}
	}
	if scope != domain.ScopeDocument {
		return nil
	}
	for _, nl := range s.netLines.All() {
		if nl.From == id || nl.To == id {
			return ref(domain.ObjectNetLine, nl.UUID)
		}
	}
	for _, ri := range s.busRippers.All() {
		if ri.Junction == id {
			return ref(domain.ObjectBusRipper, ri.UUID)
		}
	}
	return nil
}

func (s *Store) polygonReferences(scope domain.Scope, id uuid.UUID) error {
	for _, ko := range s.Keepouts(scope).All() {
		if ko.Polygon == id {
			return domain.ErrReferenced{Type: domain.ObjectPolygon, ID: id, ByType: domain.ObjectKeepout, ByID: ko.UUID}
		}
	}
	return nil
}

func (s *Store) textReferences(id uuid.UUID) error {
	for _, pkg := range s.packages.All() {
		for _, t := range pkg.Texts {
			if t == id {
				return domain.ErrReferenced{Type: domain.ObjectText, ID: id, ByType: domain.ObjectBoardPackage, ByID: pkg.UUID}
			}
		}
	}
	return nil
}

func (s *Store) busReferences(id uuid.UUID) error {
	ref := func(t domain.ObjectType, by uuid.UUID) error {
		return domain.ErrReferenced{Type: domain.ObjectBus, ID: id, ByType: t, ByID: by}
	}
	for _, ri := range s.busRippers.All() {
		if ri.Bus == id {
			return ref(domain.ObjectBusRipper, ri.UUID)
		}
	}
	for _, nl := range s.netLines.All() {
		if nl.Bus == id {
			return ref(domain.ObjectNetLine, nl.UUID)
		}
	}
	for _, j := range s.Junctions(domain.ScopeDocument).All() {
		if j.Bus == id {
			return ref(domain.ObjectJunction, j.UUID)
		}
	}
	return nil
}

func (s *Store) componentReferences(id uuid.UUID) error {
	for _, sym := range s.symbols.All() {
		if sym.Component == id {
			return domain.ErrReferenced{Type: domain.ObjectComponent, ID: id, ByType: domain.ObjectSchematicSymbol, ByID: sym.UUID}
		}
	}
	return nil
}

// HasJunction implements domain.RuleView.
func (s *Store) HasJunction(scope domain.Scope, id uuid.UUID) bool { return s.Junctions(scope).Has(id) }

// HasText implements domain.RuleView.
func (s *Store) HasText(scope domain.Scope, id uuid.UUID) bool { return s.Texts(scope).Has(id) }

// HasPolygon implements domain.RuleView.
func (s *Store) HasPolygon(scope domain.Scope, id uuid.UUID) bool { return s.Polygons(scope).Has(id) }

// HasBus implements domain.RuleView.
func (s *Store) HasBus(id uuid.UUID) bool { return s.buses.Has(id) }

// HasComponent implements domain.RuleView.
func (s *Store) HasComponent(id uuid.UUID) bool { return s.components.Has(id) }

// Snapshot implements domain.RuleView.
func (s *Store) Snapshot() domain.Snapshot { return s.ExportState() }

// ExportState deep-copies the current state.
func (s *Store) ExportState() domain.Snapshot {
	snap := domain.Snapshot{
		Document: s.scopes[0].export(),
		Work:     s.scopes[1].export(),
		Schematic: domain.SchematicState{
			Buses:      s.buses.export(cloneBus),
			BusRippers: s.busRippers.export(identity[domain.BusRipper]),
			NetLines:   s.netLines.export(identity[domain.NetLine]),
			Components: s.components.export(identity[domain.Component]),
			Symbols:    s.symbols.export(identity[domain.SchematicSymbol]),
		},
		Board: domain.BoardState{
			Packages: s.packages.export(clonePackage),
		},
	}
	snap.Normalize()
	return snap
}

// ImportState replaces the store contents with a copy of snap. Pointers
// obtained before the call no longer alias the store.
func (s *Store) ImportState(snap domain.Snapshot) {
	snap.Normalize()
	s.scopes[0].load(snap.Document)
	s.scopes[1].load(snap.Work)
	s.buses.load(snap.Schematic.Buses, cloneBus)
	s.busRippers.load(snap.Schematic.BusRippers, identity[domain.BusRipper])
	s.netLines.load(snap.Schematic.NetLines, identity[domain.NetLine])
	s.components.load(snap.Schematic.Components, identity[domain.Component])
	s.symbols.load(snap.Schematic.Symbols, identity[domain.SchematicSymbol])
	s.packages.load(snap.Board.Packages, clonePackage)
}

// Marshal serializes the current state.
func (s *Store) Marshal() ([]byte, error) {
	return domain.MarshalSnapshot(s.ExportState())
}

// Unmarshal replaces the current state with data produced by Marshal.
func (s *Store) Unmarshal(data []byte) error {
	snap, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	s.ImportState(snap)
	return nil
}

func (p *primitives) export() domain.Primitives {
	return domain.Primitives{
		Junctions:  p.junctions.export(identity[domain.Junction]),
		Lines:      p.lines.export(identity[domain.Line]),
		Arcs:       p.arcs.export(identity[domain.Arc]),
		Texts:      p.texts.export(identity[domain.Text]),
		Polygons:   p.polygons.export(clonePolygon),
		Holes:      p.holes.export(identity[domain.Hole]),
		Dimensions: p.dimensions.export(identity[domain.Dimension]),
		Keepouts:   p.keepouts.export(identity[domain.Keepout]),
	}
}

func (p *primitives) load(in domain.Primitives) {
	p.junctions.load(in.Junctions, identity[domain.Junction])
	p.lines.load(in.Lines, identity[domain.Line])
	p.arcs.load(in.Arcs, identity[domain.Arc])
	p.texts.load(in.Texts, identity[domain.Text])
	p.polygons.load(in.Polygons, clonePolygon)
	p.holes.load(in.Holes, identity[domain.Hole])
	p.dimensions.load(in.Dimensions, identity[domain.Dimension])
	p.keepouts.load(in.Keepouts, identity[domain.Keepout])
}

func identity[T any](v T) T { return v }

func clonePolygon(p domain.Polygon) domain.Polygon {
	cp := p
	cp.Vertices = append([]domain.Vertex{}, p.Vertices...)
	return cp
}

func clonePackage(p domain.BoardPackage) domain.BoardPackage {
	cp := p
	cp.Texts = append([]uuid.UUID(nil), p.Texts...)
	return cp
}

func cloneBus(b domain.Bus) domain.Bus {
	cp := b
	cp.Members = make(map[uuid.UUID]domain.BusMember, len(b.Members))
	for id, m := range b.Members {
		cp.Members[id] = m
	}
	return cp
}
