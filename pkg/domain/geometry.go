package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Angles are integers in units of 1/65536 of a full turn.
const (
	AngleFullTurn = 65536
	AngleQuarter  = AngleFullTurn / 4
	AngleHalf     = AngleFullTurn / 2
	// AngleSnap is the snapping grid of the rotate tool (45 degrees).
	AngleSnap = AngleFullTurn / 8
)

// Coordi is an integer coordinate in nanometres.
type Coordi struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// Add returns c+o.
func (c Coordi) Add(o Coordi) Coordi { return Coordi{X: c.X + o.X, Y: c.Y + o.Y} }

// Sub returns c-o.
func (c Coordi) Sub(o Coordi) Coordi { return Coordi{X: c.X - o.X, Y: c.Y - o.Y} }

// MagSq returns the squared length of c.
func (c Coordi) MagSq() int64 { return c.X*c.X + c.Y*c.Y }

// Vec converts c to a float vector.
func (c Coordi) Vec() r2.Vec { return r2.Vec{X: float64(c.X), Y: float64(c.Y)} }

// CoordFromVec rounds v to the nearest integer coordinate.
func CoordFromVec(v r2.Vec) Coordi {
	return Coordi{X: int64(math.Round(v.X)), Y: int64(math.Round(v.Y))}
}

// MinCoord returns the component-wise minimum.
func MinCoord(a, b Coordi) Coordi {
	return Coordi{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
}

// MaxCoord returns the component-wise maximum.
func MaxCoord(a, b Coordi) Coordi {
	return Coordi{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
}

// Placement positions an object: mirror about the y axis, rotate, then shift.
type Placement struct {
	Shift  Coordi `json:"shift"`
	Angle  int    `json:"angle"`
	Mirror bool   `json:"mirror,omitempty"`
}

// NewPlacement returns a placement with the angle normalized.
func NewPlacement(shift Coordi, angle int) Placement {
	p := Placement{Shift: shift}
	p.SetAngle(angle)
	return p
}

// NormalizeAngle maps a to [0, AngleFullTurn).
func NormalizeAngle(a int) int {
	a %= AngleFullTurn
	if a < 0 {
		a += AngleFullTurn
	}
	return a
}

// SetAngle stores a normalized angle.
func (p *Placement) SetAngle(a int) { p.Angle = NormalizeAngle(a) }

// IncAngle rotates the placement by d.
func (p *Placement) IncAngle(d int) { p.SetAngle(p.Angle + d) }

// InvertAngle negates the angle.
func (p *Placement) InvertAngle() { p.SetAngle(-p.Angle) }

// Transform maps c from placement-local into parent coordinates.
func (p Placement) Transform(c Coordi) Coordi {
	if p.Mirror {
		c.X = -c.X
	}
	return RotateCoord(c, p.Angle).Add(p.Shift)
}

// Accumulate composes q into p so the result places q's frame inside p's.
func (p *Placement) Accumulate(q Placement) {
	if p.Mirror {
		q.InvertAngle()
	}
	p.Shift = p.Transform(q.Shift)
	p.Mirror = p.Mirror != q.Mirror
	p.IncAngle(q.Angle)
}

// RotateCoord rotates c about the origin. Quarter turns are exact.
func RotateCoord(c Coordi, angle int) Coordi {
	switch NormalizeAngle(angle) {
	case 0:
		return c
	case AngleQuarter:
		return Coordi{X: -c.Y, Y: c.X}
	case AngleHalf:
		return Coordi{X: -c.X, Y: -c.Y}
	case 3 * AngleQuarter:
		return Coordi{X: c.Y, Y: -c.X}
	}
	return CoordFromVec(r2.Rotate(c.Vec(), AngleToRadians(angle), r2.Vec{}))
}

// AngleToRadians converts an integer angle to radians.
func AngleToRadians(a int) float64 {
	return float64(a) / AngleFullTurn * 2 * math.Pi
}

// AngleFromVector returns the direction of v as an integer angle in
// [0, AngleFullTurn).
func AngleFromVector(v Coordi) int {
	rad := math.Atan2(float64(v.Y), float64(v.X))
	a := int(rad / (2 * math.Pi) * AngleFullTurn)
	a += 2 * AngleFullTurn
	return a % AngleFullTurn
}

// RoundMultiple rounds x to the nearest multiple of mul.
func RoundMultiple(x, mul int) int {
	return ((x + mul/2) / mul) * mul
}

// Distance returns the euclidean length of b-a.
func Distance(a, b Coordi) float64 {
	return r2.Norm(r2.Sub(b.Vec(), a.Vec()))
}

// OnSegment reports whether p lies on the segment from a to b.
func OnSegment(p, a, b Coordi) bool {
	d := b.Sub(a)
	v := p.Sub(a)
	if d.X*v.Y-d.Y*v.X != 0 {
		return false
	}
	lo, hi := MinCoord(a, b), MaxCoord(a, b)
	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y
}
