package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "dangling line"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if !strings.Contains(err.Error(), "dangling line") {
		t.Fatalf("expected blocking message in error, got %q", err.Error())
	}
	if (RuleViolationError{}).Error() == "" {
		t.Fatalf("expected error string without violations")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"first"})
	engine.Register(nil)
	engine.Register(staticRule{"second"})
	if names := engine.Rules(); len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Fatalf("unexpected rule names %v", names)
	}
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 || res.Violations[1].Rule != "second" {
		t.Fatalf("expected violations in registration order, got %+v", res.Violations)
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"ok"})
	engine.Register(errorRule{})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err == nil {
		t.Fatalf("expected evaluation error")
	}
	if len(res.Violations) != 0 {
		t.Fatalf("failed evaluation should not return partial results")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, errors.New("boom")
}

type emptyView struct{}

func (emptyView) Snapshot() Snapshot                { return Snapshot{} }
func (emptyView) HasJunction(Scope, uuid.UUID) bool { return false }
func (emptyView) HasText(Scope, uuid.UUID) bool     { return false }
func (emptyView) HasPolygon(Scope, uuid.UUID) bool  { return false }
func (emptyView) HasBus(uuid.UUID) bool             { return false }
func (emptyView) HasComponent(uuid.UUID) bool       { return false }

func TestErrorMessages(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	nf := ErrNotFound{Type: ObjectBusRipper, ID: id}
	if got := nf.Error(); got != `bus ripper "00000000-0000-0000-0000-000000000001" not found` {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (ErrAlreadyExists{ID: id}).Error(); !strings.HasPrefix(got, "object ") {
		t.Fatalf("untyped error should say object, got %q", got)
	}
	ref := ErrReferenced{Type: ObjectJunction, ID: id, ByType: ObjectNetLine, ByID: id}
	if !strings.Contains(ref.Error(), "referenced by net line") {
		t.Fatalf("unexpected message %q", ref.Error())
	}
	var target ErrNotFound
	if !errors.As(error(nf), &target) || target.Type != ObjectBusRipper {
		t.Fatalf("ErrNotFound should be matchable with errors.As")
	}
}

func TestParseObjectType(t *testing.T) {
	for _, ot := range objectTypes {
		got, err := ParseObjectType(string(ot))
		if err != nil || got != ot {
			t.Fatalf("parse %s: %v %v", ot, got, err)
		}
	}
	if _, err := ParseObjectType("via"); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if ScopeWork.String() != "work" || ScopeDocument.String() != "document" {
		t.Fatalf("unexpected scope names")
	}
}

func TestPolygonEdgeVertices(t *testing.T) {
	p := Polygon{Vertices: make([]Vertex, 4)}
	if a, b := p.EdgeVertices(3); a != 3 || b != 0 {
		t.Fatalf("closing edge should wrap, got %d %d", a, b)
	}
	if a, b := p.EdgeVertices(-1); a != 3 || b != 0 {
		t.Fatalf("negative edge should wrap backwards, got %d %d", a, b)
	}
	if a, b := p.EdgeVertices(-6); a != 2 || b != 3 {
		t.Fatalf("edge -6 of 4 should be edge 2, got %d %d", a, b)
	}
	if a, b := (Polygon{}).EdgeVertices(2); a != 0 || b != 0 {
		t.Fatalf("empty polygon edges should be zero")
	}
}
