package core

import (
	"errors"
	"sort"

	"github.com/carrotIndustries/horizon/internal/infra/persistence/memory"
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

type deleteTool struct {
	ToolBase
}

func newDelete(base ToolBase) Tool {
	return &deleteTool{ToolBase: base}
}

func (t *deleteTool) CanBegin() bool {
	return t.Core.Selection().Len() > 0
}

func (t *deleteTool) Begin(ToolArgs) (ToolResponse, error) {
	vertices := make(map[uuid.UUID][]int)
	for _, ref := range t.Core.Selection().Sorted() {
		if ref.Type == domain.ObjectPolygonVertex {
			vertices[ref.UUID] = append(vertices[ref.UUID], ref.Vertex)
			continue
		}
		if err := t.deleteRef(ref); err != nil {
			return ToolResponse{}, err
		}
	}
	for _, id := range sortedKeys(vertices) {
		if err := t.deleteVertices(id, vertices[id]); err != nil {
			return ToolResponse{}, err
		}
	}
	t.Core.SetSelection(domain.NewSelection())
	t.Core.Commit()
	return End(), nil
}

func (t *deleteTool) Update(ToolArgs) (ToolResponse, error) {
	return End(), nil
}

// deleteRef removes one entity after removing or detaching everything that
// references it. Entities already gone are skipped.
func (t *deleteTool) deleteRef(ref domain.SelectableRef) error {
	s := t.Store()
	scope := t.Scope()
	switch ref.Type {
	case domain.ObjectJunction:
		return t.deleteJunction(scope, ref.UUID)
	case domain.ObjectLine:
		return deleteIfPresent(s.Lines(scope), ref.UUID)
	case domain.ObjectArc:
		return deleteIfPresent(s.Arcs(scope), ref.UUID)
	case domain.ObjectText:
		if scope == domain.ScopeWork {
			for _, pkg := range s.BoardPackages().All() {
				pkg.Texts = removeID(pkg.Texts, ref.UUID)
			}
		}
		return deleteIfPresent(s.Texts(scope), ref.UUID)
	case domain.ObjectPolygon:
		return t.deletePolygon(scope, ref.UUID)
	case domain.ObjectHole:
		return deleteIfPresent(s.Holes(scope), ref.UUID)
	case domain.ObjectDimension:
		return deleteIfPresent(s.Dimensions(scope), ref.UUID)
	case domain.ObjectKeepout:
		return deleteIfPresent(s.Keepouts(scope), ref.UUID)
	case domain.ObjectBoardPackage:
		pkg, err := s.BoardPackages().Get(ref.UUID)
		if err != nil {
			return ignoreNotFound(err)
		}
		texts := pkg.Texts
		pkg.Texts = nil
		for _, id := range texts {
			if err := deleteIfPresent(s.Texts(domain.ScopeWork), id); err != nil {
				return err
			}
		}
		return s.BoardPackages().Delete(ref.UUID)
	case domain.ObjectBus:
		for _, ri := range s.BusRippers().All() {
			if ri.Bus == ref.UUID {
				if err := s.BusRippers().Delete(ri.UUID); err != nil {
					return err
				}
			}
		}
		for _, li := range s.NetLines().All() {
			if li.Bus == ref.UUID {
				li.Bus = uuid.Nil
			}
		}
		for _, j := range s.Junctions(domain.ScopeDocument).All() {
			if j.Bus == ref.UUID {
				j.Bus = uuid.Nil
			}
		}
		return deleteIfPresent(s.Buses(), ref.UUID)
	case domain.ObjectBusRipper:
		return deleteIfPresent(s.BusRippers(), ref.UUID)
	case domain.ObjectNetLine:
		return deleteIfPresent(s.NetLines(), ref.UUID)
	case domain.ObjectComponent:
		for _, sym := range s.SchematicSymbols().All() {
			if sym.Component == ref.UUID {
				if err := s.SchematicSymbols().Delete(sym.UUID); err != nil {
					return err
				}
			}
		}
		return deleteIfPresent(s.Components(), ref.UUID)
	case domain.ObjectSchematicSymbol:
		return deleteIfPresent(s.SchematicSymbols(), ref.UUID)
	}
	return nil
}

func (t *deleteTool) deleteJunction(scope domain.Scope, id uuid.UUID) error {
	s := t.Store()
	if !s.Junctions(scope).Has(id) {
		return nil
	}
	for _, l := range s.Lines(scope).All() {
		if l.From == id || l.To == id {
			if err := s.Lines(scope).Delete(l.UUID); err != nil {
				return err
			}
		}
	}
	for _, a := range s.Arcs(scope).All() {
		if a.From == id || a.To == id || a.Center == id {
			if err := s.Arcs(scope).Delete(a.UUID); err != nil {
				return err
			}
		}
	}
	if scope == domain.ScopeDocument {
		for _, li := range s.NetLines().All() {
			if li.From == id || li.To == id {
				if err := s.NetLines().Delete(li.UUID); err != nil {
					return err
				}
			}
		}
		for _, ri := range s.BusRippers().All() {
			if ri.Junction == id {
				if err := s.BusRippers().Delete(ri.UUID); err != nil {
					return err
				}
			}
		}
	}
	return s.Junctions(scope).Delete(id)
}

func (t *deleteTool) deletePolygon(scope domain.Scope, id uuid.UUID) error {
	s := t.Store()
	if !s.Polygons(scope).Has(id) {
		return nil
	}
	for _, k := range s.Keepouts(scope).All() {
		if k.Polygon == id {
			if err := s.Keepouts(scope).Delete(k.UUID); err != nil {
				return err
			}
		}
	}
	return s.Polygons(scope).Delete(id)
}

// deleteVertices drops the given vertex indices; a polygon left with fewer
// than three vertices is removed entirely.
func (t *deleteTool) deleteVertices(id uuid.UUID, idx []int) error {
	scope := t.Scope()
	poly, err := t.Store().Polygons(scope).Get(id)
	if err != nil {
		return ignoreNotFound(err)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))
	for _, i := range idx {
		if i < 0 || i >= len(poly.Vertices) {
			continue
		}
		poly.Vertices = append(poly.Vertices[:i], poly.Vertices[i+1:]...)
	}
	if len(poly.Vertices) < 3 {
		return t.deletePolygon(scope, id)
	}
	return nil
}

func deleteIfPresent[T any](table *memory.Table[T], id uuid.UUID) error {
	if !table.Has(id) {
		return nil
	}
	return table.Delete(id)
}

func ignoreNotFound(err error) error {
	var nf domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil
	}
	return err
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, it := range ids {
		if it != id {
			out = append(out, it)
		}
	}
	return out
}

func sortedKeys[V any](m map[uuid.UUID]V) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
