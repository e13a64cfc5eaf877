package core

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/carrotIndustries/horizon/pkg/domain"
)

// RotateSettings is shared by the rotate and scale tools.
type RotateSettings struct {
	Snap bool `json:"snap"`
}

func (s *RotateSettings) Load(raw json.RawMessage) error {
	if err := json.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("decode rotate settings: %w", err)
	}
	return nil
}

func (s *RotateSettings) Serialize() (json.RawMessage, error) {
	return json.Marshal(s)
}

type rotateState int

const (
	rotateOrigin rotateState = iota
	rotateRef
	rotateRotate
	rotateScale
)

type rotateArbitrary struct {
	ToolBase
	settings   RotateSettings
	state      rotateState
	origin     domain.Coordi
	ref        domain.Coordi
	angle      int
	scale      float64
	placements map[domain.SelectableRef]domain.Placement
	annotation Annotation
}

func newRotateArbitrary(base ToolBase) Tool {
	return &rotateArbitrary{
		ToolBase: base,
		settings: RotateSettings{Snap: true},
		scale:    1,
	}
}

func (t *rotateArbitrary) Settings() ToolSettings { return &t.settings }

func (t *rotateArbitrary) SettingsID() ToolID { return ToolRotateArbitrary }

func (t *rotateArbitrary) scaling() bool { return t.ID == ToolScale }

func (t *rotateArbitrary) CanBegin() bool {
	if t.Core.Kind() == EditorSchematic {
		return false
	}
	sel, err := ExpandSelection(t.Store(), t.Scope(), t.Core.Selection())
	if err != nil {
		return false
	}
	return sel.Len() > 0
}

func (t *rotateArbitrary) Begin(args ToolArgs) (ToolResponse, error) {
	sel, err := ExpandSelection(t.Store(), t.Scope(), t.Core.Selection())
	if err != nil {
		return ToolResponse{}, err
	}
	t.Core.SetSelection(sel)
	t.origin = args.Coords
	t.ref = args.Coords
	if err := t.savePlacements(); err != nil {
		return ToolResponse{}, err
	}
	t.annotation = t.Host.Canvas().CreateAnnotation()
	t.annotation.SetVisible(true)
	t.updateTip()
	return ToolResponse{}, nil
}

// Close removes the annotation.
func (t *rotateArbitrary) Close() error {
	if t.annotation != nil {
		t.Host.Canvas().RemoveAnnotation(t.annotation)
		t.annotation = nil
	}
	return nil
}

func (t *rotateArbitrary) updateTip() {
	switch t.state {
	case rotateOrigin:
		t.tip("LMB: set origin  RMB: cancel")
	case rotateRef:
		t.tip("LMB: set ref  RMB: cancel")
	case rotateRotate:
		snapped := ""
		if t.settings.Snap {
			snapped = " (snapped)"
		}
		deg := float64(t.angle) / domain.AngleFullTurn * 360
		t.tip(fmt.Sprintf("LMB: finish  RMB: cancel  s: toggle snap  Angle: %.2f°%s", deg, snapped))
	case rotateScale:
		t.tip(fmt.Sprintf("LMB: finish  RMB: cancel  Scale: %g", t.scale))
	}
}

func (t *rotateArbitrary) savePlacements() error {
	t.placements = make(map[domain.SelectableRef]domain.Placement)
	scope := t.Scope()
	for _, ref := range t.Core.Selection().Sorted() {
		switch ref.Type {
		case domain.ObjectJunction:
			j, err := t.Store().Junctions(scope).Get(ref.UUID)
			if err != nil {
				return err
			}
			t.placements[ref] = domain.Placement{Shift: j.Position}
		case domain.ObjectPolygonVertex, domain.ObjectPolygonArcCenter:
			v, err := t.vertex(ref)
			if err != nil {
				return err
			}
			pos := v.Position
			if ref.Type == domain.ObjectPolygonArcCenter {
				pos = v.ArcCenter
			}
			t.placements[ref] = domain.Placement{Shift: pos}
		case domain.ObjectText:
			txt, err := t.Store().Texts(scope).Get(ref.UUID)
			if err != nil {
				return err
			}
			t.placements[ref] = txt.Placement
		case domain.ObjectBoardPackage:
			pkg, err := t.Store().BoardPackages().Get(ref.UUID)
			if err != nil {
				return err
			}
			t.placements[ref] = pkg.Placement
		}
	}
	return nil
}

func (t *rotateArbitrary) vertex(ref domain.SelectableRef) (*domain.Vertex, error) {
	poly, err := t.Store().Polygons(t.Scope()).Get(ref.UUID)
	if err != nil {
		return nil, err
	}
	if ref.Vertex < 0 || ref.Vertex >= len(poly.Vertices) {
		return nil, fmt.Errorf("polygon %q has no vertex %d", ref.UUID, ref.Vertex)
	}
	return &poly.Vertices[ref.Vertex], nil
}

// rotatePlacement turns p by angle around origin.
func rotatePlacement(p domain.Placement, origin domain.Coordi, angle int) domain.Placement {
	q := p
	q.Shift = q.Shift.Sub(origin)
	out := domain.NewPlacement(origin, angle)
	out.Accumulate(q)
	return out
}

// scalePlacement moves p away from origin by factor s. Coordinates truncate.
func scalePlacement(p domain.Placement, origin domain.Coordi, s float64) domain.Placement {
	q := p
	d := q.Shift.Sub(origin)
	d.X = int64(float64(d.X) * s)
	d.Y = int64(float64(d.Y) * s)
	q.Shift = d.Add(origin)
	return q
}

// apply recomputes every saved placement through fn.
func (t *rotateArbitrary) apply(fn func(domain.Placement) domain.Placement, mirrorFix int) error {
	scope := t.Scope()
	for ref, saved := range t.placements {
		pl := fn(saved)
		switch ref.Type {
		case domain.ObjectJunction:
			j, err := t.Store().Junctions(scope).Get(ref.UUID)
			if err != nil {
				return err
			}
			j.Position = pl.Shift
		case domain.ObjectPolygonVertex:
			v, err := t.vertex(ref)
			if err != nil {
				return err
			}
			v.Position = pl.Shift
		case domain.ObjectPolygonArcCenter:
			v, err := t.vertex(ref)
			if err != nil {
				return err
			}
			v.ArcCenter = pl.Shift
		case domain.ObjectText:
			txt, err := t.Store().Texts(scope).Get(ref.UUID)
			if err != nil {
				return err
			}
			if pl.Mirror && mirrorFix != 0 {
				pl.IncAngle(mirrorFix)
			}
			txt.Placement = pl
		case domain.ObjectBoardPackage:
			pkg, err := t.Store().BoardPackages().Get(ref.UUID)
			if err != nil {
				return err
			}
			pkg.Placement = pl
		}
	}
	return nil
}

func (t *rotateArbitrary) applyRotation(angle int) error {
	return t.apply(func(p domain.Placement) domain.Placement {
		return rotatePlacement(p, t.origin, angle)
	}, -2*angle)
}

func (t *rotateArbitrary) applyScale(s float64) error {
	return t.apply(func(p domain.Placement) domain.Placement {
		return scalePlacement(p, t.origin, s)
	}, 0)
}

func (t *rotateArbitrary) Update(args ToolArgs) (ToolResponse, error) {
	switch args.Type {
	case EventMove:
		switch t.state {
		case rotateOrigin:
			t.origin = args.Coords
		case rotateRef:
			t.ref = args.Coords
		case rotateScale:
			vr := math.Sqrt(float64(t.ref.Sub(t.origin).MagSq()))
			v := math.Sqrt(float64(args.Coords.Sub(t.origin).MagSq()))
			t.scale = 1
			if vr != 0 {
				t.scale = v / vr
			}
			if err := t.applyScale(t.scale); err != nil {
				return ToolResponse{}, err
			}
		case rotateRotate:
			t.annotation.Clear()
			t.annotation.DrawLine(t.origin, args.Coords, 2)
			t.angle = domain.AngleFromVector(args.Coords.Sub(t.origin))
			if t.settings.Snap {
				t.angle = domain.NormalizeAngle(domain.RoundMultiple(t.angle, domain.AngleSnap))
			}
			if err := t.applyRotation(t.angle); err != nil {
				return ToolResponse{}, err
			}
		}
		t.updateTip()
		return Fast(), nil
	case EventClick:
		if args.Button != ButtonPrimary {
			t.Core.Revert()
			return End(), nil
		}
		switch {
		case t.state == rotateOrigin && t.scaling():
			t.state = rotateRef
			t.ref = args.Coords
		case t.state == rotateOrigin:
			t.state = rotateRotate
		case t.state == rotateRef:
			t.state = rotateScale
		default:
			t.Core.Commit()
			return End(), nil
		}
		t.updateTip()
	case EventKey:
		switch args.Key {
		case KeyS:
			t.settings.Snap = !t.settings.Snap
		case KeyEscape:
			t.Core.Revert()
			return End(), nil
		}
	}
	return ToolResponse{}, nil
}
