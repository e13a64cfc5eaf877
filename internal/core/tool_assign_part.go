package core

import (
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

type assignPart struct {
	ToolBase
}

func newAssignPart(base ToolBase) Tool {
	return &assignPart{ToolBase: base}
}

// entity returns the entity shared by every selected symbol's component and
// the component of the first of them. ok is false when nothing is selected
// or the entities differ.
func (t *assignPart) entity() (entity uuid.UUID, comp *domain.Component, ok bool) {
	for _, ref := range t.Core.Selection().OfType(domain.ObjectSchematicSymbol) {
		sym, err := t.Store().SchematicSymbols().Get(ref.UUID)
		if err != nil {
			return uuid.Nil, nil, false
		}
		c, err := t.Store().Components().Get(sym.Component)
		if err != nil {
			return uuid.Nil, nil, false
		}
		if comp == nil {
			entity, comp = c.Entity, c
			continue
		}
		if c.Entity != entity {
			return uuid.Nil, nil, false
		}
	}
	return entity, comp, comp != nil
}

func (t *assignPart) CanBegin() bool {
	_, _, ok := t.entity()
	return ok
}

func (t *assignPart) Begin(ToolArgs) (ToolResponse, error) {
	entity, comp, ok := t.entity()
	if !ok {
		return End(), nil
	}
	id, accepted := t.Host.Dialogs().SelectPart(t.Core.Pool().Parts(entity), comp.Part)
	if !accepted {
		sel := t.Core.Selection().Clone()
		t.Core.Revert()
		t.Core.SetSelection(sel)
		return End(), nil
	}
	if id != uuid.Nil {
		if _, err := t.Core.Pool().Part(id); err != nil {
			return ToolResponse{}, err
		}
	}
	for _, ref := range t.Core.Selection().OfType(domain.ObjectSchematicSymbol) {
		sym, err := t.Store().SchematicSymbols().Get(ref.UUID)
		if err != nil {
			return ToolResponse{}, err
		}
		c, err := t.Store().Components().Get(sym.Component)
		if err != nil {
			return ToolResponse{}, err
		}
		if c.Entity == entity {
			c.Part = id
		}
	}
	t.Core.Commit()
	return End(), nil
}

func (t *assignPart) Update(ToolArgs) (ToolResponse, error) {
	return ToolResponse{}, nil
}
