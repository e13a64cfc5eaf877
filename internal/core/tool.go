package core

import (
	"encoding/json"

	"github.com/carrotIndustries/horizon/internal/infra/persistence/memory"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

// ToolID names a tool in the registry.
type ToolID string

// Built-in tools.
const (
	ToolNone              ToolID = ""
	ToolDrawLineRectangle ToolID = "draw_line_rectangle"
	ToolPlaceHole         ToolID = "place_hole"
	ToolPlaceBoardHole    ToolID = "place_board_hole"
	ToolPlaceJunction     ToolID = "place_junction"
	ToolPlaceBusRipper    ToolID = "place_bus_ripper"
	ToolRotateArbitrary   ToolID = "rotate_arbitrary"
	ToolScale             ToolID = "scale"
	ToolAssignPart        ToolID = "assign_part"
	ToolDelete            ToolID = "delete"
)

// ToolEventType tags the input event carried by ToolArgs.
type ToolEventType int

const (
	EventNone ToolEventType = iota
	EventMove
	EventClick
	EventClickRelease
	EventKey
	EventLayerChange
)

func (t ToolEventType) String() string {
	switch t {
	case EventMove:
		return "move"
	case EventClick:
		return "click"
	case EventClickRelease:
		return "release"
	case EventKey:
		return "key"
	case EventLayerChange:
		return "layer"
	default:
		return "none"
	}
}

// Key is a keyboard key as delivered by the host.
type Key rune

// Keys tools react to.
const (
	KeyNone   Key = 0
	KeyEscape Key = 0x1b
	KeySpace  Key = ' '
	KeyC      Key = 'c'
	KeyE      Key = 'e'
	KeyS      Key = 's'
)

// Mouse buttons.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 3
)

// ToolArgs is one input event. Selection and KeepSelection are only read by
// ToolBegin.
type ToolArgs struct {
	Type          ToolEventType
	Coords        domain.Coordi
	Button        int
	Key           Key
	Target        domain.SelectableRef
	WorkLayer     int
	Selection     domain.Selection
	KeepSelection bool
}

// ToolResponse tells the host what to do after an event.
type ToolResponse struct {
	EndTool  bool
	NextTool ToolID
	Layer    *int
	Fast     bool
}

// End requests the tool to end.
func End() ToolResponse { return ToolResponse{EndTool: true} }

// Next ends the tool and asks the host to begin id.
func Next(id ToolID) ToolResponse { return ToolResponse{EndTool: true, NextTool: id} }

// Fast marks a preview-only update the host may render cheaply.
func Fast() ToolResponse { return ToolResponse{Fast: true} }

// Tool is an interactive editing state machine.
type Tool interface {
	// CanBegin reports whether the tool applies to the live selection and
	// document. It must not mutate anything but the selection.
	CanBegin() bool
	Begin(args ToolArgs) (ToolResponse, error)
	Update(args ToolArgs) (ToolResponse, error)
	IsSpecific() bool
	HandlesEsc() bool
}

// ToolSettings is the persisted configuration of a tool.
type ToolSettings interface {
	Load(raw json.RawMessage) error
	Serialize() (json.RawMessage, error)
}

// SettingsTool is implemented by tools with persisted settings. Tools sharing
// a SettingsID share one settings document.
type SettingsTool interface {
	Settings() ToolSettings
	SettingsID() ToolID
}

// ToolFactory builds a tool bound to base.
type ToolFactory func(base ToolBase) Tool

// ToolBase carries what every tool needs and supplies interface defaults.
type ToolBase struct {
	Core      *Core
	ID        ToolID
	Host      Host
	Transient bool
}

// IsSpecific defaults to true.
func (b ToolBase) IsSpecific() bool { return true }

// HandlesEsc defaults to false: the host turns Escape into a cancel.
func (b ToolBase) HandlesEsc() bool { return false }

// Store is shorthand for the document store.
func (b ToolBase) Store() *memory.Store { return b.Core.Store() }

// Scope is the scope the editor places entities in.
func (b ToolBase) Scope() domain.Scope { return b.Core.Scope() }

func (b ToolBase) tip(text string) {
	if b.Host != nil {
		b.Host.SetTip(text)
	}
}

func (b ToolBase) flash(text string) {
	if b.Host != nil {
		b.Host.Flash(text)
	}
}
