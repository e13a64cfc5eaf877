package core

import (
	"bytes"
	"testing"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

func TestPlaceHoleRepeatsUntilRightClick(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	c.ToolBegin(ToolPlaceHole, beginAt(1, 1), nil, false)
	c.ToolUpdate(click(ButtonPrimary, 1, 1))
	c.ToolUpdate(move(5, 5))
	c.ToolUpdate(click(ButtonPrimary, 5, 5))
	c.ToolUpdate(move(9, 9))
	if resp := c.ToolUpdate(click(ButtonSecondary, 9, 9)); !resp.EndTool {
		t.Fatalf("expected right click to finish")
	}
	holes := c.Store().Holes(domain.ScopeDocument).All()
	if len(holes) != 2 {
		t.Fatalf("expected 2 holes, got %d", len(holes))
	}
	at := map[domain.Coordi]bool{}
	for _, h := range holes {
		if h.Temp {
			t.Fatalf("placed hole still temporary")
		}
		at[h.Placement.Shift] = true
		if !c.Selection().Has(domain.Ref(domain.ObjectHole, h.UUID)) {
			t.Fatalf("placed hole %s not selected", h.UUID)
		}
	}
	if !at[pt(1, 1)] || !at[pt(5, 5)] {
		t.Fatalf("unexpected hole positions %v", at)
	}
	if len(c.History()) != 2 {
		t.Fatalf("expected one history push")
	}
}

func TestPlaceHoleTransient(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	c.ToolBegin(ToolPlaceHole, beginAt(1, 1), nil, true)
	if resp := c.ToolUpdate(click(ButtonPrimary, 3, 3)); !resp.EndTool {
		t.Fatalf("transient placement should end after one hole")
	}
	if n := c.Store().Holes(domain.ScopeDocument).Len(); n != 1 {
		t.Fatalf("expected one hole, got %d", n)
	}
}

func TestPlaceHoleEscapeReverts(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	before := mustMarshal(t, c)
	c.ToolBegin(ToolPlaceHole, beginAt(1, 1), nil, false)
	c.ToolUpdate(click(ButtonPrimary, 1, 1))
	c.ToolUpdate(press(KeyEscape))
	if got := mustMarshal(t, c); !bytes.Equal(got, before) {
		t.Fatalf("escape should discard placed holes")
	}
}

func TestPlaceBoardHoleUsesPadstack(t *testing.T) {
	ps := domain.Padstack{UUID: uuid.New(), Name: "hole-0.8", Type: "hole", Diameter: 800_000, Plated: true}
	other := domain.Padstack{UUID: uuid.New(), Name: "hole-0.3", Type: "hole", Diameter: 300_000}
	c := newTestCore(t, EditorBoard, WithPool(NewMemoryPool([]domain.Padstack{ps, other}, nil)))
	host := &fakeHost{}
	host.answer(ps.UUID)
	c.SetSelection(domain.NewSelection(domain.Ref(domain.ObjectJunction, uuid.New())))
	c.ToolBegin(ToolPlaceBoardHole, ToolArgs{Coords: pt(2, 2), KeepSelection: true}, host, false)
	if len(host.dialogs.padstacks) != 2 || host.dialogs.padstacks[0].Name != "hole-0.3" {
		t.Fatalf("dialog should list padstacks by name, got %+v", host.dialogs.padstacks)
	}
	c.ToolUpdate(click(ButtonPrimary, 2, 2))
	c.ToolUpdate(click(ButtonSecondary, 4, 4))
	holes := c.Store().Holes(domain.ScopeWork).All()
	if len(holes) != 1 {
		t.Fatalf("expected one board hole, got %d", len(holes))
	}
	h := holes[0]
	if h.Padstack != ps.UUID || h.Diameter != ps.Diameter || !h.Plated {
		t.Fatalf("hole does not carry padstack: %+v", h)
	}
	if c.Selection().Len() != 0 {
		t.Fatalf("board hole placement clears the selection")
	}
}

func TestPlaceBoardHoleCancelledDialog(t *testing.T) {
	c := newTestCore(t, EditorBoard)
	host := &fakeHost{}
	host.cancel()
	resp := c.ToolBegin(ToolPlaceBoardHole, beginAt(0, 0), host, false)
	if !resp.EndTool || c.ToolIsActive() {
		t.Fatalf("cancelled padstack dialog should end the tool")
	}
	if len(c.History()) != 1 {
		t.Fatalf("cancelled dialog pushed an entry")
	}
}

func TestPlaceJunction(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	c.ToolBegin(ToolPlaceJunction, beginAt(0, 0), nil, false)
	c.ToolUpdate(move(1, 2))
	c.ToolUpdate(click(ButtonPrimary, 1, 2))
	c.ToolUpdate(move(3, 4))
	c.ToolUpdate(click(ButtonSecondary, 3, 4))
	got := junctionPositions(c, domain.ScopeDocument)
	if len(got) != 1 || got[pt(1, 2)] != 1 {
		t.Fatalf("expected one junction at (1,2), got %v", got)
	}
	if c.Selection().Len() != 1 {
		t.Fatalf("placed junction should be selected")
	}
}

type busFixture struct {
	c      *Core
	host   *fakeHost
	bus    domain.Bus
	d0, d1 uuid.UUID
	line   *domain.NetLine
}

// newBusFixture builds a schematic with bus DATA (members D0, D1) drawn as a
// net line from (0,0) to (100,0).
func newBusFixture(t *testing.T) *busFixture {
	t.Helper()
	c := newTestCore(t, EditorSchematic)
	f := &busFixture{c: c, host: &fakeHost{}, d0: uuid.New(), d1: uuid.New()}
	bus, err := c.Store().Buses().Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert bus: %v", err)
	}
	bus.Name = "DATA"
	bus.Members = map[uuid.UUID]domain.BusMember{
		f.d1: {UUID: f.d1, Name: "D1"},
		f.d0: {UUID: f.d0, Name: "D0"},
	}
	f.bus = *bus
	a := mustJunction(t, c, domain.ScopeDocument, pt(0, 0))
	b := mustJunction(t, c, domain.ScopeDocument, pt(100, 0))
	a.Bus, b.Bus = bus.UUID, bus.UUID
	li, err := c.Store().NetLines().Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert net line: %v", err)
	}
	li.From, li.To, li.Bus = a.UUID, b.UUID, bus.UUID
	f.line = li
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	f.host.answer(bus.UUID)
	return f
}

func (f *busFixture) rippers() []*domain.BusRipper {
	return f.c.Store().BusRippers().All()
}

func TestBusRipperSplitsLine(t *testing.T) {
	f := newBusFixture(t)
	c := f.c
	c.ToolBegin(ToolPlaceBusRipper, beginAt(50, 0), f.host, false)
	if !c.ToolIsActive() {
		t.Fatalf("bus ripper did not begin")
	}
	if rs := f.rippers(); len(rs) != 1 || rs[0].BusMember != f.d0 || !rs[0].Temp {
		t.Fatalf("expected temp ripper for D0, got %+v", rs)
	}
	c.ToolUpdate(click(ButtonPrimary, 50, 0))
	if n := c.Store().NetLines().Len(); n != 2 {
		t.Fatalf("expected line split in two, got %d", n)
	}
	rs := f.rippers()
	if len(rs) != 2 {
		t.Fatalf("expected placed ripper plus preview, got %d", len(rs))
	}
	c.ToolUpdate(click(ButtonSecondary, 60, 10))

	rs = f.rippers()
	if len(rs) != 1 {
		t.Fatalf("expected one ripper after finish, got %d", len(rs))
	}
	ri := rs[0]
	if ri.Temp || ri.BusMember != f.d0 || ri.Bus != f.bus.UUID {
		t.Fatalf("unexpected ripper %+v", ri)
	}
	j, err := c.Store().Junctions(domain.ScopeDocument).Get(ri.Junction)
	if err != nil {
		t.Fatalf("ripper junction: %v", err)
	}
	if j.Position != pt(50, 0) || j.Temp || j.Bus != f.bus.UUID {
		t.Fatalf("unexpected ripper junction %+v", j)
	}
	ends := map[uuid.UUID]int{}
	for _, li := range c.Store().NetLines().All() {
		ends[li.From]++
		ends[li.To]++
	}
	if ends[j.UUID] != 2 {
		t.Fatalf("split junction should join both halves, got %v", ends)
	}
	if c.Store().Junctions(domain.ScopeDocument).Len() != 3 {
		t.Fatalf("preview junction left behind")
	}
	if len(c.History()) != 3 {
		t.Fatalf("expected a history push, got %d", len(c.History()))
	}
}

func TestBusRipperCyclesMembers(t *testing.T) {
	f := newBusFixture(t)
	c := f.c
	c.ToolBegin(ToolPlaceBusRipper, beginAt(20, 0), f.host, false)
	c.ToolUpdate(click(ButtonPrimary, 20, 0))
	c.ToolUpdate(move(40, 0))
	c.ToolUpdate(click(ButtonPrimary, 40, 0))
	c.ToolUpdate(move(60, 0))
	c.ToolUpdate(click(ButtonPrimary, 60, 0))
	c.ToolUpdate(click(ButtonSecondary, 60, 0))
	members := map[domain.Coordi]uuid.UUID{}
	for _, ri := range f.rippers() {
		j, err := c.Store().Junctions(domain.ScopeDocument).Get(ri.Junction)
		if err != nil {
			t.Fatalf("junction: %v", err)
		}
		members[j.Position] = ri.BusMember
	}
	if members[pt(20, 0)] != f.d0 || members[pt(40, 0)] != f.d1 || members[pt(60, 0)] != f.d0 {
		t.Fatalf("members not cycled in name order: %v", members)
	}
	if n := c.Store().NetLines().Len(); n != 4 {
		t.Fatalf("expected 4 line segments, got %d", n)
	}
}

func TestBusRipperFlashes(t *testing.T) {
	f := newBusFixture(t)
	c := f.c
	other, err := c.Store().Buses().Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert bus: %v", err)
	}
	oa := mustJunction(t, c, domain.ScopeDocument, pt(0, 50))
	ob := mustJunction(t, c, domain.ScopeDocument, pt(100, 50))
	oa.Bus, ob.Bus = other.UUID, other.UUID
	oli, err := c.Store().NetLines().Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert net line: %v", err)
	}
	oli.From, oli.To, oli.Bus = oa.UUID, ob.UUID, other.UUID
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	c.ToolBegin(ToolPlaceBusRipper, beginAt(50, 20), f.host, false)
	c.ToolUpdate(click(ButtonPrimary, 50, 20))
	c.ToolUpdate(move(50, 50))
	c.ToolUpdate(click(ButtonPrimary, 50, 50))
	onJunction := click(ButtonPrimary, 0, 50)
	onJunction.Target = domain.Ref(domain.ObjectJunction, oa.UUID)
	c.ToolUpdate(onJunction)

	want := []string{"can't place bus ripper nowhere", "line connected to wrong bus", "junction connected to wrong bus"}
	if len(f.host.flashes) != len(want) {
		t.Fatalf("expected flashes %v, got %v", want, f.host.flashes)
	}
	for i := range want {
		if f.host.flashes[i] != want[i] {
			t.Fatalf("flash %d: want %q, got %q", i, want[i], f.host.flashes[i])
		}
	}
	if !c.ToolIsActive() {
		t.Fatalf("flashes must not end the tool")
	}
}

func TestBusRipperAttachesToBusJunction(t *testing.T) {
	f := newBusFixture(t)
	c := f.c
	end, err := c.Store().Junctions(domain.ScopeDocument).Get(f.line.To)
	if err != nil {
		t.Fatalf("line end: %v", err)
	}
	c.ToolBegin(ToolPlaceBusRipper, beginAt(100, 0), f.host, false)
	args := click(ButtonPrimary, 100, 0)
	args.Target = domain.Ref(domain.ObjectJunction, end.UUID)
	c.ToolUpdate(args)
	c.ToolUpdate(click(ButtonSecondary, 100, 0))
	rs := f.rippers()
	if len(rs) != 1 || rs[0].Junction != end.UUID {
		t.Fatalf("expected ripper on existing junction, got %+v", rs)
	}
}

func TestBusRipperKeys(t *testing.T) {
	f := newBusFixture(t)
	c := f.c
	c.ToolBegin(ToolPlaceBusRipper, beginAt(50, 0), f.host, false)
	f.host.answer(f.d1)
	c.ToolUpdate(press(KeySpace))
	rs := f.rippers()
	if len(rs) != 1 || rs[0].BusMember != f.d1 {
		t.Fatalf("space should switch member to D1, got %+v", rs)
	}
	c.ToolUpdate(press(KeyE))
	if !f.rippers()[0].Mirror {
		t.Fatalf("e should mirror the ripper")
	}
	f.host.cancel()
	c.ToolUpdate(press(KeySpace))
	if f.rippers()[0].BusMember != f.d1 {
		t.Fatalf("cancelled member dialog changed the ripper")
	}
}

func TestBusRipperBeginAborts(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		f := newBusFixture(t)
		f.host.dialogs.answers = nil
		f.host.cancel()
		resp := f.c.ToolBegin(ToolPlaceBusRipper, beginAt(0, 0), f.host, false)
		if !resp.EndTool || f.c.ToolIsActive() {
			t.Fatalf("cancelled bus dialog should end")
		}
	})
	t.Run("no members", func(t *testing.T) {
		f := newBusFixture(t)
		empty, err := f.c.Store().Buses().Insert(uuid.New())
		if err != nil {
			t.Fatalf("insert bus: %v", err)
		}
		f.host.dialogs.answers = nil
		f.host.answer(empty.UUID)
		resp := f.c.ToolBegin(ToolPlaceBusRipper, beginAt(0, 0), f.host, false)
		if !resp.EndTool || f.c.ToolIsActive() {
			t.Fatalf("bus without members should end")
		}
		if f.c.Store().BusRippers().Len() != 0 {
			t.Fatalf("no ripper should be created")
		}
		if f.c.Store().Buses().Has(empty.UUID) {
			t.Fatalf("aborted begin should revert uncommitted changes")
		}
	})
}
