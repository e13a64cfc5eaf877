package core

import (
	"github.com/carrotIndustries/horizon/internal/infra/persistence/memory"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

// ExpandSelection returns sel plus the references implied by it: the end
// junctions of lines, the three junctions of arcs, the vertices of polygons
// and polygon edges, and the texts of board packages. The result is a new
// set; expanding it again yields the same set.
func ExpandSelection(store *memory.Store, scope domain.Scope, sel domain.Selection) (domain.Selection, error) {
	out := sel.Clone()
	for _, ref := range sel.Sorted() {
		switch ref.Type {
		case domain.ObjectLine:
			line, err := store.Lines(scope).Get(ref.UUID)
			if err != nil {
				return nil, err
			}
			out.Add(domain.Ref(domain.ObjectJunction, line.From))
			out.Add(domain.Ref(domain.ObjectJunction, line.To))
		case domain.ObjectArc:
			arc, err := store.Arcs(scope).Get(ref.UUID)
			if err != nil {
				return nil, err
			}
			out.Add(domain.Ref(domain.ObjectJunction, arc.From))
			out.Add(domain.Ref(domain.ObjectJunction, arc.To))
			out.Add(domain.Ref(domain.ObjectJunction, arc.Center))
		case domain.ObjectPolygon:
			poly, err := store.Polygons(scope).Get(ref.UUID)
			if err != nil {
				return nil, err
			}
			for i := range poly.Vertices {
				out.Add(domain.VertexRef(domain.ObjectPolygonVertex, poly.UUID, i))
			}
		case domain.ObjectPolygonEdge:
			poly, err := store.Polygons(scope).Get(ref.UUID)
			if err != nil {
				return nil, err
			}
			if len(poly.Vertices) == 0 {
				continue
			}
			a, b := poly.EdgeVertices(ref.Vertex)
			out.Add(domain.VertexRef(domain.ObjectPolygonVertex, poly.UUID, a))
			out.Add(domain.VertexRef(domain.ObjectPolygonVertex, poly.UUID, b))
		case domain.ObjectBoardPackage:
			pkg, err := store.BoardPackages().Get(ref.UUID)
			if err != nil {
				return nil, err
			}
			for _, text := range pkg.Texts {
				out.Add(domain.Ref(domain.ObjectText, text))
			}
		}
	}
	return out, nil
}
