package core

import (
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// junctionAttachment lets a tool hang extra entities off the junction being
// placed. updateAttached returns true when it consumed the event.
type junctionAttachment interface {
	beginAttached() (bool, error)
	createAttached() error
	deleteAttached() error
	updateAttached(args ToolArgs) (bool, error)
}

type placeJunction struct {
	ToolBase
	temp   *domain.Junction
	placed []*domain.Junction
	attach junctionAttachment
	// progressed is set once anything was placed; transient runs end then.
	progressed bool
}

func newPlaceJunction(base ToolBase) Tool {
	return &placeJunction{ToolBase: base}
}

func (t *placeJunction) CanBegin() bool {
	return t.Core.HasObjectType(domain.ObjectJunction)
}

func (t *placeJunction) HandlesEsc() bool { return true }

func (t *placeJunction) Begin(args ToolArgs) (ToolResponse, error) {
	if t.attach != nil {
		ok, err := t.attach.beginAttached()
		if err != nil {
			return ToolResponse{}, err
		}
		if !ok {
			t.Core.Revert()
			return End(), nil
		}
	} else {
		t.tip("LMB: place junction  RMB: delete current junction and finish")
	}
	if err := t.createJunction(args.Coords); err != nil {
		return ToolResponse{}, err
	}
	if err := t.createAttached(); err != nil {
		return ToolResponse{}, err
	}
	return ToolResponse{}, nil
}

func (t *placeJunction) createJunction(at domain.Coordi) error {
	j, err := t.Store().Junctions(t.Scope()).Insert(uuid.New())
	if err != nil {
		return err
	}
	j.Position = at
	j.Temp = true
	t.temp = j
	return nil
}

func (t *placeJunction) createAttached() error {
	if t.attach == nil {
		return nil
	}
	return t.attach.createAttached()
}

func (t *placeJunction) deleteAttached() error {
	if t.attach == nil {
		return nil
	}
	return t.attach.deleteAttached()
}

// place fixes the preview junction and starts the next one at the same spot.
func (t *placeJunction) place(at domain.Coordi) (ToolResponse, error) {
	t.temp.Temp = false
	t.placed = append(t.placed, t.temp)
	t.progressed = true
	if t.Transient {
		return t.finishAttached(false)
	}
	if err := t.createJunction(at); err != nil {
		return ToolResponse{}, err
	}
	if err := t.createAttached(); err != nil {
		return ToolResponse{}, err
	}
	return ToolResponse{}, nil
}

func (t *placeJunction) Update(args ToolArgs) (ToolResponse, error) {
	if t.attach != nil {
		done, err := t.attach.updateAttached(args)
		if err != nil {
			return ToolResponse{}, err
		}
		if done {
			if t.Transient && t.progressed {
				return t.finishAttached(true)
			}
			return ToolResponse{}, nil
		}
	}
	switch args.Type {
	case EventMove:
		t.temp.Position = args.Coords
	case EventClick:
		switch args.Button {
		case ButtonPrimary:
			return t.place(args.Coords)
		case ButtonSecondary:
			return t.finishAttached(true)
		}
	case EventKey:
		if args.Key == KeyEscape {
			t.Core.Revert()
			return End(), nil
		}
	}
	return ToolResponse{}, nil
}

// finishAttached drops the preview junction (when dropPreview is set) and
// its attachment, commits and selects what was placed.
func (t *placeJunction) finishAttached(dropPreview bool) (ToolResponse, error) {
	if err := t.deleteAttached(); err != nil {
		return ToolResponse{}, err
	}
	if dropPreview && t.temp != nil && t.temp.Temp {
		if err := t.Store().Junctions(t.Scope()).Delete(t.temp.UUID); err != nil {
			return ToolResponse{}, err
		}
	}
	t.temp = nil
	t.Core.Commit()
	sel := domain.NewSelection()
	for _, j := range t.placed {
		sel.Add(domain.Ref(domain.ObjectJunction, j.UUID))
	}
	t.Core.SetSelection(sel)
	return End(), nil
}
