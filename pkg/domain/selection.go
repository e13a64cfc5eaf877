package domain

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// SelectableRef addresses a selectable object. Vertex indexes into compound
// objects (polygon vertices and edges) and is zero otherwise.
type SelectableRef struct {
	Type   ObjectType `json:"type"`
	UUID   uuid.UUID  `json:"uuid"`
	Vertex int        `json:"vertex,omitempty"`
}

// Ref builds a reference without a sub-index.
func Ref(t ObjectType, id uuid.UUID) SelectableRef {
	return SelectableRef{Type: t, UUID: id}
}

// VertexRef builds a reference to a sub-object of id.
func VertexRef(t ObjectType, id uuid.UUID, vertex int) SelectableRef {
	return SelectableRef{Type: t, UUID: id, Vertex: vertex}
}

// Less orders references by type, uuid and vertex.
func (r SelectableRef) Less(o SelectableRef) bool {
	if r.Type != o.Type {
		return r.Type < o.Type
	}
	if c := bytes.Compare(r.UUID[:], o.UUID[:]); c != 0 {
		return c < 0
	}
	return r.Vertex < o.Vertex
}

// Selection is a set of references.
type Selection map[SelectableRef]struct{}

// NewSelection builds a selection from refs.
func NewSelection(refs ...SelectableRef) Selection {
	s := make(Selection, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// Add inserts r.
func (s Selection) Add(r SelectableRef) { s[r] = struct{}{} }

// Remove deletes r.
func (s Selection) Remove(r SelectableRef) { delete(s, r) }

// Has reports whether r is selected.
func (s Selection) Has(r SelectableRef) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of references.
func (s Selection) Len() int { return len(s) }

// Clone returns an independent copy. A nil selection clones to an empty one.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

// Merge inserts every reference of o.
func (s Selection) Merge(o Selection) {
	for r := range o {
		s[r] = struct{}{}
	}
}

// Equal reports set equality.
func (s Selection) Equal(o Selection) bool {
	if len(s) != len(o) {
		return false
	}
	for r := range s {
		if _, ok := o[r]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the references in a stable order.
func (s Selection) Sorted() []SelectableRef {
	out := make([]SelectableRef, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// OfType returns the references of type t in a stable order.
func (s Selection) OfType(t ObjectType) []SelectableRef {
	var out []SelectableRef
	for _, r := range s.Sorted() {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
