package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/internal/script"
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// maxChain bounds NextTool hand-overs triggered by one statement.
const maxChain = 16

// ErrToolActive is returned for statements that need an idle editor.
var ErrToolActive = errors.New("a tool is active")

// ExpectationError reports a failed `expect` statement.
type ExpectationError struct {
	What string
	Want string
	Got  string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expected %s %s, got %s", e.What, e.Want, e.Got)
}

// StatementError locates a failure in the script.
type StatementError struct {
	Pos  string
	Kind string
	Err  error
}

func (e *StatementError) Error() string { return fmt.Sprintf("%s: %s: %v", e.Pos, e.Kind, e.Err) }

func (e *StatementError) Unwrap() error { return e.Err }

// Report summarises a run.
type Report struct {
	Statements   int
	Expectations int
	Begun        []core.ToolID
	ActiveTool   core.ToolID
	History      int
	Flashes      []string
}

// Runner feeds script statements to a core. It plays the part of the
// editor window: it owns the canvas selection, the cursor and the work
// layer, and follows ToolResponse hand-overs.
type Runner struct {
	core      *core.Core
	host      *Host
	logger    core.Logger
	selection domain.Selection
	cursor    domain.Coordi
	layer     int
	begun     []core.ToolID
}

// NewRunner binds a runner to c. A nil logger discards output.
func NewRunner(c *core.Core, host *Host, logger core.Logger) *Runner {
	if host == nil {
		host = NewHost()
	}
	if logger == nil {
		logger = discard{}
	}
	return &Runner{core: c, host: host, logger: logger, selection: c.Selection()}
}

// Host returns the scripted host.
func (r *Runner) Host() *Host { return r.host }

// Run executes s and stops at the first failing statement. The report
// covers the statements run so far.
func (r *Runner) Run(ctx context.Context, s *script.Script) (rep Report, err error) {
	defer func() { r.fill(&rep) }()
	for _, st := range s.Statements {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		r.logger.Debug("replay statement", "pos", st.Pos.String(), "kind", st.Kind())
		expect, err := r.exec(st)
		if err != nil {
			return rep, &StatementError{Pos: st.Pos.String(), Kind: st.Kind(), Err: err}
		}
		rep.Statements++
		if expect {
			rep.Expectations++
		}
	}
	return rep, nil
}

func (r *Runner) fill(rep *Report) {
	rep.Begun = append([]core.ToolID(nil), r.begun...)
	rep.ActiveTool = r.core.ActiveTool()
	rep.History = len(r.core.History())
	rep.Flashes = r.host.Flashes()
}

func (r *Runner) exec(st *script.Statement) (bool, error) {
	switch {
	case st.Begin != nil:
		return false, r.begin(st.Begin)
	case st.Move != nil:
		r.cursor = st.Move.Coordi()
		return false, r.update(core.ToolArgs{Type: core.EventMove})
	case st.Click != nil:
		return false, r.click(core.EventClick, st.Click)
	case st.Release != nil:
		return false, r.click(core.EventClickRelease, st.Release)
	case st.Key != nil:
		key, err := ParseKey(*st.Key)
		if err != nil {
			return false, err
		}
		return false, r.key(key)
	case st.Layer != nil:
		r.layer = *st.Layer
		return false, r.update(core.ToolArgs{Type: core.EventLayerChange})
	case st.Select != nil:
		return false, r.selectRefs(st.Select)
	case st.Answer != nil:
		return false, r.answer(st.Answer)
	case st.Undo, st.Redo:
		if r.core.ToolIsActive() {
			return false, ErrToolActive
		}
		if st.Undo {
			r.core.Undo()
		} else {
			r.core.Redo()
		}
		r.selection = r.core.Selection()
		return false, nil
	case st.Expect != nil:
		return true, r.expect(st.Expect)
	}
	return false, fmt.Errorf("empty statement")
}

func (r *Runner) begin(b *script.Begin) error {
	id := core.ToolID(b.Tool)
	if !r.core.Registry().Has(id) {
		return fmt.Errorf("unknown tool %q", b.Tool)
	}
	if r.core.ToolIsActive() {
		return ErrToolActive
	}
	if b.At != nil {
		r.cursor = b.At.Coordi()
	}
	args := r.args(core.ToolArgs{Type: core.EventNone, Selection: r.selection, KeepSelection: b.Keep()})
	r.begun = append(r.begun, id)
	resp := r.core.ToolBegin(id, args, r.host, b.Transient())
	if !r.core.ToolIsActive() && !resp.EndTool && resp.NextTool == core.ToolNone {
		r.logger.Info("tool did not begin", "tool", b.Tool)
	}
	return r.handle(resp, 0)
}

// click moves the cursor first when the click happens elsewhere, as a
// pointer would.
func (r *Runner) click(typ core.ToolEventType, c *script.Click) error {
	if at := c.At.Coordi(); at != r.cursor {
		r.cursor = at
		if err := r.update(core.ToolArgs{Type: core.EventMove}); err != nil {
			return err
		}
	}
	args := core.ToolArgs{Type: typ, Button: c.Button}
	if c.Target != nil {
		ref, err := c.Target.Ref()
		if err != nil {
			return err
		}
		args.Target = ref
	}
	return r.update(args)
}

// update forwards an event to the running tool. Without one the event only
// moves the cursor or changes the layer.
func (r *Runner) update(args core.ToolArgs) error {
	if !r.core.ToolIsActive() {
		return nil
	}
	return r.handle(r.core.ToolUpdate(r.args(args)), 0)
}

// key delivers a key press. Escape reaches the tool only when it handles
// Escape itself; otherwise it cancels like a secondary click.
func (r *Runner) key(k core.Key) error {
	if k == core.KeyEscape && r.core.ToolIsActive() && !r.core.ToolHandlesEsc() {
		return r.update(core.ToolArgs{Type: core.EventClick, Button: core.ButtonSecondary})
	}
	return r.update(core.ToolArgs{Type: core.EventKey, Key: k})
}

func (r *Runner) args(a core.ToolArgs) core.ToolArgs {
	a.Coords = r.cursor
	a.WorkLayer = r.layer
	return a
}

func (r *Runner) handle(resp core.ToolResponse, depth int) error {
	if resp.Layer != nil {
		r.layer = *resp.Layer
	}
	if !r.core.ToolIsActive() {
		r.selection = r.core.Selection()
	}
	if resp.NextTool == core.ToolNone {
		return nil
	}
	if depth >= maxChain {
		return fmt.Errorf("tool chain longer than %d", maxChain)
	}
	r.begun = append(r.begun, resp.NextTool)
	next := r.core.ToolBegin(resp.NextTool, r.args(core.ToolArgs{Type: core.EventNone, KeepSelection: true}), r.host, false)
	return r.handle(next, depth+1)
}

func (r *Runner) selectRefs(s *script.Select) error {
	switch {
	case s.None:
		r.selection = domain.NewSelection()
	case s.All:
		r.selection = r.everything()
	default:
		refs := make([]domain.SelectableRef, 0, len(s.Refs))
		for _, t := range s.Refs {
			ref, err := t.Ref()
			if err != nil {
				return err
			}
			refs = append(refs, ref)
		}
		r.selection = domain.NewSelection(refs...)
	}
	if !r.core.ToolIsActive() {
		r.core.SetSelection(r.selection)
	}
	return nil
}

// everything selects every top-level object the editor shows.
func (r *Runner) everything() domain.Selection {
	snap := r.core.Store().ExportState()
	p := snap.Primitives(r.core.Scope())
	sel := domain.NewSelection()
	add := func(t domain.ObjectType, ids []uuid.UUID) {
		if !r.core.HasObjectType(t) {
			return
		}
		for _, id := range ids {
			sel.Add(domain.Ref(t, id))
		}
	}
	add(domain.ObjectJunction, keys(p.Junctions))
	add(domain.ObjectLine, keys(p.Lines))
	add(domain.ObjectArc, keys(p.Arcs))
	add(domain.ObjectText, keys(p.Texts))
	add(domain.ObjectPolygon, keys(p.Polygons))
	add(domain.ObjectHole, keys(p.Holes))
	add(domain.ObjectDimension, keys(p.Dimensions))
	add(domain.ObjectKeepout, keys(p.Keepouts))
	add(domain.ObjectNetLine, keys(snap.Schematic.NetLines))
	add(domain.ObjectBusRipper, keys(snap.Schematic.BusRippers))
	add(domain.ObjectSchematicSymbol, keys(snap.Schematic.Symbols))
	add(domain.ObjectBoardPackage, keys(snap.Board.Packages))
	return sel
}

func keys[T any](m map[uuid.UUID]T) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func (r *Runner) answer(a *script.Answer) error {
	if a.Cancel {
		r.host.Queue(uuid.Nil, false)
		return nil
	}
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	r.host.Queue(id, true)
	return nil
}

func (r *Runner) expect(e *script.Expect) error {
	switch {
	case e.History != nil:
		return check("history length", *e.History, len(r.core.History()))
	case e.Active != nil:
		got := string(r.core.ActiveTool())
		if got == "" {
			got = "none"
		}
		if got != *e.Active {
			return &ExpectationError{What: "active tool", Want: *e.Active, Got: got}
		}
		return nil
	case e.Selected != nil:
		return check("selection size", *e.Selected, r.core.Selection().Len())
	case e.Count != nil:
		t, err := domain.ParseObjectType(e.Count.Type)
		if err != nil {
			return err
		}
		n := r.core.Store().ExportState().Count(r.core.Scope(), t)
		return check(e.Count.Type+" count", e.Count.N, n)
	}
	return fmt.Errorf("empty expectation")
}

func check(what string, want, got int) error {
	if want != got {
		return &ExpectationError{What: what, Want: fmt.Sprint(want), Got: fmt.Sprint(got)}
	}
	return nil
}

// ParseKey maps a key name to a core.Key: escape, esc, space or a single
// character.
func ParseKey(name string) (core.Key, error) {
	switch strings.ToLower(name) {
	case "escape", "esc":
		return core.KeyEscape, nil
	case "space":
		return core.KeySpace, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return core.Key(r), nil
	}
	return core.KeyNone, fmt.Errorf("unknown key %q", name)
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
