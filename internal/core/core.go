// Package core implements the interactive tool engine: tool dispatch, undo
// history, selection handling and the built-in editing tools.
package core

import (
	"encoding/json"
	"fmt"

	"github.com/carrotIndustries/horizon/internal/infra/persistence/memory"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

// EditorKind selects which document an editor edits and therefore which
// entity kinds and scope its tools may use.
type EditorKind string

const (
	EditorSchematic EditorKind = "schematic"
	EditorBoard     EditorKind = "board"
	EditorPackage   EditorKind = "package"
	EditorPadstack  EditorKind = "padstack"
)

// ParseEditorKind resolves a textual editor kind.
func ParseEditorKind(s string) (EditorKind, error) {
	switch k := EditorKind(s); k {
	case EditorSchematic, EditorBoard, EditorPackage, EditorPadstack:
		return k, nil
	}
	return "", fmt.Errorf("unknown editor kind %q", s)
}

var editorObjectTypes = map[EditorKind][]domain.ObjectType{
	EditorSchematic: {
		domain.ObjectJunction, domain.ObjectLine, domain.ObjectArc, domain.ObjectText,
		domain.ObjectBus, domain.ObjectBusRipper, domain.ObjectNetLine,
		domain.ObjectComponent, domain.ObjectSchematicSymbol,
	},
	EditorBoard: {
		domain.ObjectJunction, domain.ObjectLine, domain.ObjectArc, domain.ObjectText,
		domain.ObjectPolygon, domain.ObjectHole, domain.ObjectDimension,
		domain.ObjectKeepout, domain.ObjectBoardPackage,
	},
	EditorPackage: {
		domain.ObjectJunction, domain.ObjectLine, domain.ObjectArc, domain.ObjectText,
		domain.ObjectPolygon, domain.ObjectHole, domain.ObjectDimension, domain.ObjectKeepout,
	},
	EditorPadstack: {
		domain.ObjectPolygon, domain.ObjectHole,
	},
}

// Option customizes a Core.
type Option func(*Core)

// WithLogger routes core logging to logger.
func WithLogger(logger Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(c *Core) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(c *Core) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithRules replaces the default rules engine. A nil engine disables rule
// evaluation.
func WithRules(engine *domain.RulesEngine) Option {
	return func(c *Core) { c.rules = engine }
}

// WithRegistry replaces the built-in tool registry.
func WithRegistry(reg *ToolRegistry) Option {
	return func(c *Core) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithSettings enables tool settings persistence.
func WithSettings(store SettingsStore) Option {
	return func(c *Core) { c.settings = store }
}

// WithPool sets the library pool.
func WithPool(pool Pool) Option {
	return func(c *Core) {
		if pool != nil {
			c.pool = pool
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(c *Core) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// SettingsStore persists tool settings keyed by settings id.
type SettingsStore interface {
	LoadToolSettings(id string) (json.RawMessage, bool)
	SaveToolSettings(id string, raw json.RawMessage)
}

// Core owns one document, its selection and undo history, and at most one
// active tool. It is not safe for concurrent use.
type Core struct {
	kind      EditorKind
	store     *memory.Store
	selection domain.Selection

	tool   Tool
	toolID ToolID

	history             []historyEntry
	cursor              int
	reverted            bool
	propertyTransaction bool
	needsSave           bool

	onRebuilt     []func()
	onToolChanged []func(ToolID)
	onCanUndoRedo []func()
	onNeedsSave   []func(bool)

	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	clock    Clock
	rules    *domain.RulesEngine
	registry *ToolRegistry
	settings SettingsStore
	pool     Pool
}

// NewCore constructs a core editing an empty document of the given kind.
// History starts empty; call Rebuild to record the initial state.
func NewCore(kind EditorKind, opts ...Option) *Core {
	c := &Core{
		kind:      kind,
		store:     memory.NewStore(),
		selection: domain.NewSelection(),
		cursor:    -1,
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
		clock:     systemClock{},
		rules:     DefaultRules(),
		registry:  DefaultRegistry(),
		pool:      NewMemoryPool(nil, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind returns the editor kind.
func (c *Core) Kind() EditorKind { return c.kind }

// Store returns the live document store.
func (c *Core) Store() *memory.Store { return c.store }

// Pool returns the library pool.
func (c *Core) Pool() Pool { return c.pool }

// Registry returns the tool registry.
func (c *Core) Registry() *ToolRegistry { return c.registry }

// Scope is where the editor's tools place primitives: boards edit the work
// scope, every other editor the document scope.
func (c *Core) Scope() domain.Scope {
	if c.kind == EditorBoard {
		return domain.ScopeWork
	}
	return domain.ScopeDocument
}

// HasObjectType reports whether the editor supports entities of type t.
func (c *Core) HasObjectType(t domain.ObjectType) bool {
	for _, it := range editorObjectTypes[c.kind] {
		if it == t {
			return true
		}
	}
	return false
}

// Selection returns the live selection. Mutations through the returned set
// are visible to the core.
func (c *Core) Selection() domain.Selection { return c.selection }

// SetSelection replaces the live selection with a copy of sel.
func (c *Core) SetSelection(sel domain.Selection) { c.selection = sel.Clone() }

// OnRebuilt registers fn to run after every rebuild, undo and redo.
func (c *Core) OnRebuilt(fn func()) { c.onRebuilt = append(c.onRebuilt, fn) }

// OnToolChanged registers fn to run when a tool becomes active or ends.
func (c *Core) OnToolChanged(fn func(ToolID)) { c.onToolChanged = append(c.onToolChanged, fn) }

// OnCanUndoRedo registers fn to run when undo or redo availability may have
// changed.
func (c *Core) OnCanUndoRedo(fn func()) { c.onCanUndoRedo = append(c.onCanUndoRedo, fn) }

// OnNeedsSave registers fn to run when the needs-save flag flips.
func (c *Core) OnNeedsSave(fn func(bool)) { c.onNeedsSave = append(c.onNeedsSave, fn) }

func (c *Core) emitRebuilt() {
	for _, fn := range c.onRebuilt {
		fn()
	}
}

func (c *Core) emitToolChanged(id ToolID) {
	for _, fn := range c.onToolChanged {
		fn(id)
	}
}

func (c *Core) emitCanUndoRedo() {
	for _, fn := range c.onCanUndoRedo {
		fn()
	}
}

// NeedsSave reports whether the document changed since the last save.
func (c *Core) NeedsSave() bool { return c.needsSave }

// SetNeedsSave updates the flag, notifying listeners only on change.
func (c *Core) SetNeedsSave(v bool) {
	if v == c.needsSave {
		return
	}
	c.needsSave = v
	for _, fn := range c.onNeedsSave {
		fn(v)
	}
}
