package core

import (
	"github.com/carrotIndustries/horizon/pkg/domain"
)

type placeBoardHole struct {
	*placeHole
	padstack domain.Padstack
}

func newPlaceBoardHole(base ToolBase) Tool {
	t := &placeBoardHole{placeHole: &placeHole{ToolBase: base}}
	t.configure = func(h *domain.Hole) {
		h.Padstack = t.padstack.UUID
		h.Diameter = t.padstack.Diameter
		h.Plated = t.padstack.Plated
	}
	return t
}

func (t *placeBoardHole) CanBegin() bool {
	return t.Core.Kind() == EditorBoard
}

func (t *placeBoardHole) Begin(args ToolArgs) (ToolResponse, error) {
	id, ok := t.Host.Dialogs().SelectHolePadstack(t.Core.Pool().Padstacks())
	if !ok {
		t.Core.Revert()
		return End(), nil
	}
	ps, err := t.Core.Pool().Padstack(id)
	if err != nil {
		return ToolResponse{}, err
	}
	t.padstack = ps
	if err := t.createHole(args.Coords); err != nil {
		return ToolResponse{}, err
	}
	t.tip("LMB: place hole  RMB: delete current hole and finish")
	return ToolResponse{}, nil
}
