package core

import (
	"fmt"
	"sort"
)

// ToolRegistry maps tool ids to display names and factories.
type ToolRegistry struct {
	tools map[ToolID]registeredTool
}

type registeredTool struct {
	name    string
	factory ToolFactory
}

// NewToolRegistry constructs an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[ToolID]registeredTool)}
}

// Register adds a tool. Ids must be unique.
func (r *ToolRegistry) Register(id ToolID, name string, factory ToolFactory) error {
	if id == ToolNone {
		return fmt.Errorf("tool id required")
	}
	if factory == nil {
		return fmt.Errorf("tool %s: factory required", id)
	}
	if _, exists := r.tools[id]; exists {
		return fmt.Errorf("tool %s already registered", id)
	}
	if name == "" {
		name = string(id)
	}
	r.tools[id] = registeredTool{name: name, factory: factory}
	return nil
}

// MustRegister is Register for static tables.
func (r *ToolRegistry) MustRegister(id ToolID, name string, factory ToolFactory) {
	if err := r.Register(id, name, factory); err != nil {
		panic(err)
	}
}

// Name returns the display name of id, or id itself when unknown.
func (r *ToolRegistry) Name(id ToolID) string {
	if t, ok := r.tools[id]; ok {
		return t.name
	}
	return string(id)
}

// Has reports whether id is registered.
func (r *ToolRegistry) Has(id ToolID) bool {
	_, ok := r.tools[id]
	return ok
}

// IDs returns the registered ids in lexical order.
func (r *ToolRegistry) IDs() []ToolID {
	out := make([]ToolID, 0, len(r.tools))
	for id := range r.tools {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *ToolRegistry) build(base ToolBase) (Tool, error) {
	t, ok := r.tools[base.ID]
	if !ok {
		return nil, fmt.Errorf("tool %s not registered", base.ID)
	}
	tool := t.factory(base)
	if tool == nil {
		return nil, fmt.Errorf("tool %s: factory returned nil", base.ID)
	}
	return tool, nil
}

// DefaultRegistry returns a registry holding every built-in tool.
func DefaultRegistry() *ToolRegistry {
	r := NewToolRegistry()
	r.MustRegister(ToolDrawLineRectangle, "Draw line rectangle", newDrawLineRectangle)
	r.MustRegister(ToolPlaceHole, "Place hole", newPlaceHole)
	r.MustRegister(ToolPlaceBoardHole, "Place board hole", newPlaceBoardHole)
	r.MustRegister(ToolPlaceJunction, "Place junction", newPlaceJunction)
	r.MustRegister(ToolPlaceBusRipper, "Place bus ripper", newPlaceBusRipper)
	r.MustRegister(ToolRotateArbitrary, "Rotate arbitrary", newRotateArbitrary)
	r.MustRegister(ToolScale, "Scale", newRotateArbitrary)
	r.MustRegister(ToolAssignPart, "Assign part", newAssignPart)
	r.MustRegister(ToolDelete, "Delete", newDelete)
	return r
}
