package core

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

type placeBusRipper struct {
	*placeJunction
	bus     *domain.Bus
	members []domain.BusMember
	current int
	ripper  *domain.BusRipper
}

func newPlaceBusRipper(base ToolBase) Tool {
	t := &placeBusRipper{placeJunction: &placeJunction{ToolBase: base}}
	t.attach = t
	return t
}

func (t *placeBusRipper) CanBegin() bool {
	return t.Core.Kind() == EditorSchematic
}

func (t *placeBusRipper) beginAttached() (bool, error) {
	buses := make([]domain.Bus, 0, t.Store().Buses().Len())
	for _, b := range t.Store().Buses().All() {
		buses = append(buses, *b)
	}
	id, ok := t.Host.Dialogs().SelectBus(buses)
	if !ok {
		return false, nil
	}
	bus, err := t.Store().Buses().Get(id)
	if err != nil {
		return false, err
	}
	t.bus = bus
	t.members = t.members[:0]
	for _, m := range bus.Members {
		t.members = append(t.members, m)
	}
	if len(t.members) == 0 {
		return false, nil
	}
	sort.Slice(t.members, func(i, j int) bool {
		if t.members[i].Name != t.members[j].Name {
			return t.members[i].Name < t.members[j].Name
		}
		return bytes.Compare(t.members[i].UUID[:], t.members[j].UUID[:]) < 0
	})
	t.tip("LMB: place bus ripper  RMB: delete current ripper and finish  e: mirror  space: select member")
	return true, nil
}

func (t *placeBusRipper) createAttached() error {
	if t.ripper != nil {
		t.ripper.Temp = false
	}
	ri, err := t.Store().BusRippers().Insert(uuid.New())
	if err != nil {
		return err
	}
	ri.Bus = t.bus.UUID
	ri.Temp = true
	ri.BusMember = t.members[t.current].UUID
	ri.Junction = t.temp.UUID
	t.temp.Bus = t.bus.UUID
	t.ripper = ri
	t.current = (t.current + 1) % len(t.members)
	return nil
}

func (t *placeBusRipper) deleteAttached() error {
	if t.ripper == nil {
		return nil
	}
	if err := t.Store().BusRippers().Delete(t.ripper.UUID); err != nil {
		return err
	}
	if t.temp != nil {
		t.temp.Bus = uuid.Nil
	}
	t.ripper = nil
	return nil
}

// lineUsable reports whether a ripper of the active bus may split li.
func (t *placeBusRipper) lineUsable(li *domain.NetLine) bool {
	return li.Net == uuid.Nil && li.Bus == t.bus.UUID
}

func (t *placeBusRipper) updateAttached(args ToolArgs) (bool, error) {
	switch args.Type {
	case EventClick:
		if args.Button != ButtonPrimary {
			return false, nil
		}
		if args.Target.Type == domain.ObjectJunction {
			return true, t.attachToJunction(args.Target.UUID)
		}
		return true, t.attachToLine(args.Coords)
	case EventKey:
		switch args.Key {
		case KeySpace:
			id, ok := t.Host.Dialogs().SelectBusMember(*t.bus)
			if !ok {
				return true, nil
			}
			idx := -1
			for i, m := range t.members {
				if m.UUID == id {
					idx = i
					break
				}
			}
			if idx < 0 {
				return true, fmt.Errorf("bus member %q not found", id)
			}
			t.current = idx
			if err := t.deleteAttached(); err != nil {
				return true, err
			}
			return true, t.createAttached()
		case KeyE:
			if t.ripper != nil {
				t.ripper.Mirror = !t.ripper.Mirror
			}
		}
	}
	return false, nil
}

func (t *placeBusRipper) attachToJunction(id uuid.UUID) error {
	j, err := t.Store().Junctions(t.Scope()).Get(id)
	if err != nil {
		return err
	}
	if j.Bus != t.bus.UUID {
		t.flash("junction connected to wrong bus")
		return nil
	}
	t.ripper.Junction = j.UUID
	t.progressed = true
	return t.createAttached()
}

func (t *placeBusRipper) attachToLine(at domain.Coordi) error {
	junctions := t.Store().Junctions(t.Scope())
	for _, li := range t.Store().NetLines().All() {
		from, err := junctions.Get(li.From)
		if err != nil {
			return err
		}
		to, err := junctions.Get(li.To)
		if err != nil {
			return err
		}
		if !domain.OnSegment(t.temp.Position, from.Position, to.Position) {
			continue
		}
		if !t.lineUsable(li) {
			t.flash("line connected to wrong bus")
			return nil
		}
		if err := t.splitLine(li, t.temp); err != nil {
			return err
		}
		t.temp.Temp = false
		t.placed = append(t.placed, t.temp)
		t.progressed = true
		if err := t.createJunction(at); err != nil {
			return err
		}
		return t.createAttached()
	}
	t.flash("can't place bus ripper nowhere")
	return nil
}

// splitLine cuts li at j: li keeps its start and ends at j, a new line runs
// from j to the old end.
func (t *placeBusRipper) splitLine(li *domain.NetLine, j *domain.Junction) error {
	tail, err := t.Store().NetLines().Insert(uuid.New())
	if err != nil {
		return err
	}
	tail.From = j.UUID
	tail.To = li.To
	tail.Net = li.Net
	tail.Bus = li.Bus
	li.To = j.UUID
	j.Bus = li.Bus
	return nil
}
