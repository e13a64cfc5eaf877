package core

import (
	"encoding/json"
	"fmt"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// RectangleMode selects how the second click is interpreted.
type RectangleMode string

const (
	RectangleCorner RectangleMode = "corner"
	RectangleCenter RectangleMode = "center"
)

// RectangleSettings is persisted under the draw_line_rectangle settings id.
type RectangleSettings struct {
	Mode RectangleMode `json:"mode"`
}

func (s *RectangleSettings) Load(raw json.RawMessage) error {
	var in RectangleSettings
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("decode rectangle settings: %w", err)
	}
	switch in.Mode {
	case RectangleCorner, RectangleCenter:
		s.Mode = in.Mode
	case "":
	default:
		return fmt.Errorf("unknown rectangle mode %q", in.Mode)
	}
	return nil
}

func (s *RectangleSettings) Serialize() (json.RawMessage, error) {
	return json.Marshal(s)
}

type drawLineRectangle struct {
	ToolBase
	settings  RectangleSettings
	step      int
	firstPos  domain.Coordi
	secondPos domain.Coordi
	junctions [4]*domain.Junction
	lines     [4]*domain.Line
}

func newDrawLineRectangle(base ToolBase) Tool {
	return &drawLineRectangle{ToolBase: base, settings: RectangleSettings{Mode: RectangleCorner}}
}

func (t *drawLineRectangle) Settings() ToolSettings { return &t.settings }

func (t *drawLineRectangle) SettingsID() ToolID { return ToolDrawLineRectangle }

func (t *drawLineRectangle) CanBegin() bool {
	return t.Core.HasObjectType(domain.ObjectLine)
}

func (t *drawLineRectangle) Begin(args ToolArgs) (ToolResponse, error) {
	scope := t.Scope()
	for i := range t.junctions {
		j, err := t.Store().Junctions(scope).Insert(uuid.New())
		if err != nil {
			return ToolResponse{}, err
		}
		j.Temp = true
		t.junctions[i] = j
	}
	for i := range t.lines {
		l, err := t.Store().Lines(scope).Insert(uuid.New())
		if err != nil {
			return ToolResponse{}, err
		}
		l.Layer = args.WorkLayer
		l.From = t.junctions[i].UUID
		l.To = t.junctions[(i+1)%4].UUID
		t.lines[i] = l
	}
	t.firstPos = args.Coords
	t.updateJunctions()
	t.updateTip()
	return ToolResponse{}, nil
}

// updateJunctions lays the four corners out as p0, (p0.x,p1.y), p1,
// (p1.x,p0.y) with p0 the lower-left and p1 the upper-right corner. Before
// the first click every corner follows the cursor.
func (t *drawLineRectangle) updateJunctions() {
	if t.step == 0 {
		for _, j := range t.junctions {
			j.Position = t.firstPos
		}
		return
	}
	p0t, p1t := t.firstPos, t.secondPos
	if t.settings.Mode == RectangleCenter {
		p0t = t.firstPos.Sub(t.secondPos.Sub(t.firstPos))
	}
	p0, p1 := domain.MinCoord(p0t, p1t), domain.MaxCoord(p0t, p1t)
	t.junctions[0].Position = p0
	t.junctions[1].Position = domain.Coordi{X: p0.X, Y: p1.Y}
	t.junctions[2].Position = p1
	t.junctions[3].Position = domain.Coordi{X: p1.X, Y: p0.Y}
}

func (t *drawLineRectangle) updateTip() {
	var action string
	switch {
	case t.settings.Mode == RectangleCenter && t.step == 0:
		action = "place center"
	case t.settings.Mode == RectangleCenter:
		action = "place corner"
	case t.step == 0:
		action = "place first corner"
	default:
		action = "place second corner"
	}
	mode := "corners"
	if t.settings.Mode == RectangleCenter {
		mode = "from center"
	}
	t.tip(fmt.Sprintf("LMB: %s  RMB: cancel  c: switch mode  (%s)", action, mode))
}

func (t *drawLineRectangle) Update(args ToolArgs) (ToolResponse, error) {
	switch args.Type {
	case EventMove:
		if t.step == 0 {
			t.firstPos = args.Coords
		} else {
			t.secondPos = args.Coords
		}
		t.updateJunctions()
	case EventClick:
		switch args.Button {
		case ButtonPrimary:
			if t.step == 0 {
				t.step = 1
				t.secondPos = args.Coords
				t.updateJunctions()
				break
			}
			for _, j := range t.junctions {
				j.Temp = false
			}
			t.Core.Commit()
			return End(), nil
		case ButtonSecondary:
			t.Core.Revert()
			return End(), nil
		}
	case EventKey:
		switch args.Key {
		case KeyC:
			if t.settings.Mode == RectangleCenter {
				t.settings.Mode = RectangleCorner
			} else {
				t.settings.Mode = RectangleCenter
			}
			t.updateJunctions()
		case KeyEscape:
			t.Core.Revert()
			return End(), nil
		}
	case EventLayerChange:
		for _, l := range t.lines {
			l.Layer = args.WorkLayer
		}
	}
	t.updateTip()
	return ToolResponse{}, nil
}
