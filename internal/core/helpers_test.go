package core

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

type dialogAnswer struct {
	id uuid.UUID
	ok bool
}

type fakeDialogs struct {
	answers   []dialogAnswer
	calls     []string
	padstacks []domain.Padstack
	buses     []domain.Bus
	parts     []domain.Part
	current   uuid.UUID
}

func (d *fakeDialogs) next(name string) (uuid.UUID, bool) {
	d.calls = append(d.calls, name)
	if len(d.answers) == 0 {
		return uuid.Nil, false
	}
	a := d.answers[0]
	d.answers = d.answers[1:]
	return a.id, a.ok
}

func (d *fakeDialogs) SelectHolePadstack(ps []domain.Padstack) (uuid.UUID, bool) {
	d.padstacks = ps
	return d.next("padstack")
}

func (d *fakeDialogs) SelectBus(buses []domain.Bus) (uuid.UUID, bool) {
	d.buses = buses
	return d.next("bus")
}

func (d *fakeDialogs) SelectBusMember(domain.Bus) (uuid.UUID, bool) {
	return d.next("bus_member")
}

func (d *fakeDialogs) SelectPart(parts []domain.Part, current uuid.UUID) (uuid.UUID, bool) {
	d.parts = parts
	d.current = current
	return d.next("part")
}

type fakeAnnotation struct {
	visible bool
	clears  int
	lines   [][2]domain.Coordi
}

func (a *fakeAnnotation) SetVisible(v bool) { a.visible = v }
func (a *fakeAnnotation) Clear()            { a.clears++; a.lines = nil }
func (a *fakeAnnotation) DrawLine(from, to domain.Coordi, _ uint64) {
	a.lines = append(a.lines, [2]domain.Coordi{from, to})
}

type fakeCanvas struct {
	created []*fakeAnnotation
	removed int
}

func (c *fakeCanvas) CreateAnnotation() Annotation {
	a := &fakeAnnotation{}
	c.created = append(c.created, a)
	return a
}

func (c *fakeCanvas) RemoveAnnotation(Annotation) { c.removed++ }

type fakeHost struct {
	tips    []string
	flashes []string
	dialogs fakeDialogs
	canvas  fakeCanvas
}

func (h *fakeHost) SetTip(s string)     { h.tips = append(h.tips, s) }
func (h *fakeHost) Flash(s string)      { h.flashes = append(h.flashes, s) }
func (h *fakeHost) Dialogs() Dialogs    { return &h.dialogs }
func (h *fakeHost) Canvas() Canvas      { return &h.canvas }
func (h *fakeHost) answer(id uuid.UUID) { h.dialogs.answers = append(h.dialogs.answers, dialogAnswer{id: id, ok: true}) }
func (h *fakeHost) cancel()             { h.dialogs.answers = append(h.dialogs.answers, dialogAnswer{}) }

type logRecord struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	records []logRecord
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) add(level, msg string, args []any) {
	l.records = append(l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *captureLogger) find(level, msg string) (logRecord, bool) {
	for _, r := range l.records {
		if r.level == level && r.msg == msg {
			return r, true
		}
	}
	return logRecord{}, false
}

func (r logRecord) attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.args); i += 2 {
		if r.args[i] == key {
			return r.args[i+1], true
		}
	}
	return nil, false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type memorySettings map[string]json.RawMessage

func (m memorySettings) LoadToolSettings(id string) (json.RawMessage, bool) {
	raw, ok := m[id]
	return raw, ok
}

func (m memorySettings) SaveToolSettings(id string, raw json.RawMessage) { m[id] = raw }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// newTestCore returns a core with its initial state recorded as history
// entry zero.
func newTestCore(t *testing.T, kind EditorKind, opts ...Option) *Core {
	t.Helper()
	c := NewCore(kind, opts...)
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("initial rebuild: %v", err)
	}
	return c
}

func pt(x, y int64) domain.Coordi { return domain.Coordi{X: x, Y: y} }

func move(x, y int64) ToolArgs { return ToolArgs{Type: EventMove, Coords: pt(x, y)} }

func click(button int, x, y int64) ToolArgs {
	return ToolArgs{Type: EventClick, Button: button, Coords: pt(x, y)}
}

func press(k Key) ToolArgs { return ToolArgs{Type: EventKey, Key: k} }

func beginAt(x, y int64, refs ...domain.SelectableRef) ToolArgs {
	return ToolArgs{Type: EventNone, Coords: pt(x, y), Selection: domain.NewSelection(refs...)}
}

func mustMarshal(t *testing.T, c *Core) []byte {
	t.Helper()
	data, err := c.Store().Marshal()
	if err != nil {
		t.Fatalf("marshal store: %v", err)
	}
	return data
}

func mustJunction(t *testing.T, c *Core, scope domain.Scope, at domain.Coordi) *domain.Junction {
	t.Helper()
	j, err := c.Store().Junctions(scope).Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert junction: %v", err)
	}
	j.Position = at
	return j
}

func mustLine(t *testing.T, c *Core, scope domain.Scope, from, to uuid.UUID) *domain.Line {
	t.Helper()
	l, err := c.Store().Lines(scope).Insert(uuid.New())
	if err != nil {
		t.Fatalf("insert line: %v", err)
	}
	l.From, l.To = from, to
	return l
}

func junctionPositions(c *Core, scope domain.Scope) map[domain.Coordi]int {
	out := make(map[domain.Coordi]int)
	for _, j := range c.Store().Junctions(scope).All() {
		out[j.Position]++
	}
	return out
}

func (r logRecord) String() string { return fmt.Sprintf("%s %s %v", r.level, r.msg, r.args) }

func newID() uuid.UUID { return uuid.New() }
