package core

import (
	"context"
	"fmt"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// DefaultRules builds the rules engine evaluated on every history push.
func DefaultRules() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(ReferenceIntegrityRule())
	engine.Register(TempGeometryRule())
	engine.Register(DegenerateLineRule())
	return engine
}

// ReferenceIntegrityRule blocks commits that leave a created or updated
// entity pointing at something that does not exist.
func ReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func (r referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	snap := view.Snapshot()
	missing := func(c domain.Change, kind domain.ObjectType, id uuid.UUID) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s references missing %s %s", c.Type, c.ID, kind, id),
			Type:     c.Type,
			ID:       c.ID,
		})
	}
	junction := func(c domain.Change, id uuid.UUID) {
		if !view.HasJunction(c.Scope, id) {
			missing(c, domain.ObjectJunction, id)
		}
	}
	optionalBus := func(c domain.Change, id uuid.UUID) {
		if id != uuid.Nil && !view.HasBus(id) {
			missing(c, domain.ObjectBus, id)
		}
	}

	for _, c := range changes {
		if c.Action == domain.ActionDelete {
			continue
		}
		prims := snap.Primitives(c.Scope)
		switch c.Type {
		case domain.ObjectLine:
			if l, ok := prims.Lines[c.ID]; ok {
				junction(c, l.From)
				junction(c, l.To)
			}
		case domain.ObjectArc:
			if a, ok := prims.Arcs[c.ID]; ok {
				junction(c, a.From)
				junction(c, a.To)
				junction(c, a.Center)
			}
		case domain.ObjectKeepout:
			if k, ok := prims.Keepouts[c.ID]; ok && !view.HasPolygon(c.Scope, k.Polygon) {
				missing(c, domain.ObjectPolygon, k.Polygon)
			}
		case domain.ObjectJunction:
			if j, ok := prims.Junctions[c.ID]; ok && c.Scope == domain.ScopeDocument {
				optionalBus(c, j.Bus)
			}
		case domain.ObjectNetLine:
			if li, ok := snap.Schematic.NetLines[c.ID]; ok {
				junction(c, li.From)
				junction(c, li.To)
				optionalBus(c, li.Bus)
			}
		case domain.ObjectBusRipper:
			ri, ok := snap.Schematic.BusRippers[c.ID]
			if !ok {
				continue
			}
			junction(c, ri.Junction)
			bus, ok := snap.Schematic.Buses[ri.Bus]
			if !ok {
				missing(c, domain.ObjectBus, ri.Bus)
				continue
			}
			if _, ok := bus.Members[ri.BusMember]; !ok {
				missing(c, "bus member", ri.BusMember)
			}
		case domain.ObjectSchematicSymbol:
			if sym, ok := snap.Schematic.Symbols[c.ID]; ok && !view.HasComponent(sym.Component) {
				missing(c, domain.ObjectComponent, sym.Component)
			}
		case domain.ObjectBoardPackage:
			if pkg, ok := snap.Board.Packages[c.ID]; ok {
				for _, id := range pkg.Texts {
					if !view.HasText(domain.ScopeWork, id) {
						missing(c, domain.ObjectText, id)
					}
				}
			}
		}
	}
	return res, nil
}

// TempGeometryRule warns about preview entities still flagged temporary at
// commit time.
func TempGeometryRule() domain.Rule {
	return tempGeometryRule{}
}

type tempGeometryRule struct{}

func (tempGeometryRule) Name() string { return "temp_geometry" }

func (r tempGeometryRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	snap := view.Snapshot()
	for _, c := range changes {
		if c.Action == domain.ActionDelete {
			continue
		}
		var temp bool
		switch c.Type {
		case domain.ObjectJunction:
			temp = snap.Primitives(c.Scope).Junctions[c.ID].Temp
		case domain.ObjectHole:
			temp = snap.Primitives(c.Scope).Holes[c.ID].Temp
		case domain.ObjectBusRipper:
			temp = snap.Schematic.BusRippers[c.ID].Temp
		}
		if temp {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("%s %s committed while temporary", c.Type, c.ID),
				Type:     c.Type,
				ID:       c.ID,
			})
		}
	}
	return res, nil
}

// DegenerateLineRule notes lines whose two ends are the same junction.
func DegenerateLineRule() domain.Rule {
	return degenerateLineRule{}
}

type degenerateLineRule struct{}

func (degenerateLineRule) Name() string { return "degenerate_line" }

func (r degenerateLineRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	snap := view.Snapshot()
	for _, c := range changes {
		if c.Type != domain.ObjectLine || c.Action == domain.ActionDelete {
			continue
		}
		l, ok := snap.Primitives(c.Scope).Lines[c.ID]
		if !ok || l.From != l.To {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityLog,
			Message:  fmt.Sprintf("line %s starts and ends at junction %s", c.ID, l.From),
			Type:     domain.ObjectLine,
			ID:       c.ID,
		})
	}
	return res, nil
}
