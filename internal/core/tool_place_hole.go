package core

import (
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

type placeHole struct {
	ToolBase
	temp   *domain.Hole
	placed []*domain.Hole
	// configure is applied to every new hole; board holes use it to copy
	// the padstack.
	configure func(*domain.Hole)
	// finishSelects controls whether the placed holes are selected on RMB.
	finishSelects bool
}

func newPlaceHole(base ToolBase) Tool {
	return &placeHole{ToolBase: base, finishSelects: true}
}

func (t *placeHole) CanBegin() bool {
	return t.Core.HasObjectType(domain.ObjectHole)
}

func (t *placeHole) HandlesEsc() bool { return true }

func (t *placeHole) Begin(args ToolArgs) (ToolResponse, error) {
	if err := t.createHole(args.Coords); err != nil {
		return ToolResponse{}, err
	}
	t.tip("LMB: place hole  RMB: delete current hole and finish")
	return ToolResponse{}, nil
}

func (t *placeHole) createHole(at domain.Coordi) error {
	h, err := t.Store().Holes(t.Scope()).Insert(uuid.New())
	if err != nil {
		return err
	}
	h.Placement.Shift = at
	h.Temp = true
	if t.configure != nil {
		t.configure(h)
	}
	t.temp = h
	return nil
}

func (t *placeHole) Update(args ToolArgs) (ToolResponse, error) {
	switch args.Type {
	case EventMove:
		t.temp.Placement.Shift = args.Coords
	case EventClick:
		switch args.Button {
		case ButtonPrimary:
			t.temp.Temp = false
			t.placed = append(t.placed, t.temp)
			t.temp = nil
			if t.Transient {
				return t.finish(), nil
			}
			if err := t.createHole(args.Coords); err != nil {
				return ToolResponse{}, err
			}
		case ButtonSecondary:
			if err := t.Store().Holes(t.Scope()).Delete(t.temp.UUID); err != nil {
				return ToolResponse{}, err
			}
			t.temp = nil
			return t.finish(), nil
		}
	case EventKey:
		if args.Key == KeyEscape {
			t.Core.Revert()
			return End(), nil
		}
	}
	return ToolResponse{}, nil
}

func (t *placeHole) finish() ToolResponse {
	t.Core.Commit()
	sel := domain.NewSelection()
	if t.finishSelects {
		for _, h := range t.placed {
			sel.Add(domain.Ref(domain.ObjectHole, h.UUID))
		}
	}
	t.Core.SetSelection(sel)
	return End()
}
