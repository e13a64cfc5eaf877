package core

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

func TestUndoRedoRestoresExactState(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	initial := mustMarshal(t, c)
	if c.CanUndo() || c.CanRedo() {
		t.Fatalf("fresh core should have nothing to undo or redo")
	}

	host := &fakeHost{}
	c.ToolBegin(ToolDrawLineRectangle, beginAt(0, 0), host, false)
	c.ToolUpdate(click(ButtonPrimary, 0, 0))
	c.ToolUpdate(move(10, 20))
	if resp := c.ToolUpdate(click(ButtonPrimary, 10, 20)); !resp.EndTool {
		t.Fatalf("expected rectangle to end, got %+v", resp)
	}
	after := mustMarshal(t, c)
	if bytes.Equal(initial, after) {
		t.Fatalf("rectangle did not change the document")
	}
	if !c.CanUndo() || c.CanRedo() {
		t.Fatalf("expected undo only, cursor=%d len=%d", c.HistoryCursor(), len(c.History()))
	}

	c.Undo()
	if got := mustMarshal(t, c); !bytes.Equal(got, initial) {
		t.Fatalf("undo did not restore initial state:\n%s\n%s", got, initial)
	}
	if c.CanUndo() || !c.CanRedo() {
		t.Fatalf("expected redo only after undo")
	}
	c.Redo()
	if got := mustMarshal(t, c); !bytes.Equal(got, after) {
		t.Fatalf("redo did not restore state")
	}
	c.Redo()
	if c.HistoryCursor() != 1 {
		t.Fatalf("redo at tip moved cursor to %d", c.HistoryCursor())
	}
}

func TestUndoRedoManyRunsRestoresEveryState(t *testing.T) {
	const runs = 3
	c := newTestCore(t, EditorPackage)
	host := &fakeHost{}
	states := [][]byte{mustMarshal(t, c)}
	for i := int64(0); i < runs; i++ {
		x := i * 100
		c.ToolBegin(ToolDrawLineRectangle, beginAt(x, 0), host, false)
		c.ToolUpdate(click(ButtonPrimary, x, 0))
		c.ToolUpdate(move(x+50, 30))
		if resp := c.ToolUpdate(click(ButtonPrimary, x+50, 30)); !resp.EndTool {
			t.Fatalf("rectangle %d did not end: %+v", i, resp)
		}
		states = append(states, mustMarshal(t, c))
	}
	if len(c.History()) != runs+1 || c.HistoryCursor() != runs {
		t.Fatalf("expected %d entries at cursor %d, got %d at %d", runs+1, runs, len(c.History()), c.HistoryCursor())
	}

	for i := runs - 1; i >= 0; i-- {
		c.Undo()
		if got := mustMarshal(t, c); !bytes.Equal(got, states[i]) {
			t.Fatalf("undo to state %d differs:\n%s\n%s", i, got, states[i])
		}
	}
	if c.CanUndo() {
		t.Fatalf("cursor should rest at the first entry")
	}
	for i := 1; i <= runs; i++ {
		c.Redo()
		if got := mustMarshal(t, c); !bytes.Equal(got, states[i]) {
			t.Fatalf("redo to state %d differs:\n%s\n%s", i, got, states[i])
		}
	}
	if c.CanRedo() || c.HistoryCursor() != runs {
		t.Fatalf("redo should end at the tip, cursor=%d", c.HistoryCursor())
	}
}

func TestUndoOnEmptyHistoryIsNoop(t *testing.T) {
	c := NewCore(EditorPackage)
	c.Undo()
	c.Redo()
	if c.HistoryCursor() != -1 {
		t.Fatalf("expected cursor -1, got %d", c.HistoryCursor())
	}
	if c.CanUndo() || c.CanRedo() {
		t.Fatalf("empty history should not allow undo or redo")
	}
}

func TestRebuildTruncatesRedoTail(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	mustJunction(t, c, domain.ScopeDocument, pt(1, 1))
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	mustJunction(t, c, domain.ScopeDocument, pt(2, 2))
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	c.Undo()
	c.Undo()
	mustJunction(t, c, domain.ScopeDocument, pt(3, 3))
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(c.History()) != 2 || c.CanRedo() {
		t.Fatalf("expected redo tail dropped, history=%d", len(c.History()))
	}
}

func TestRebuildFromUndoDoesNotPush(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	mustJunction(t, c, domain.ScopeDocument, pt(1, 1))
	if _, err := c.Rebuild(true); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(c.History()) != 1 {
		t.Fatalf("rebuild from undo pushed an entry")
	}
}

func TestHistoryEntriesCarryULIDs(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCore(t, EditorPackage, WithClock(fixedClock{t: now}))
	entries := c.History()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if len(entries[0].ID) != 26 || !entries[0].CreatedAt.Equal(now) || entries[0].Size == 0 {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	c.HistoryClear()
	if c.HistoryCursor() != -1 || len(c.History()) != 0 {
		t.Fatalf("history not cleared")
	}
}

func TestRevertSkipsNextPush(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	before := mustMarshal(t, c)
	mustJunction(t, c, domain.ScopeDocument, pt(5, 5))
	c.SetSelection(domain.NewSelection(domain.Ref(domain.ObjectHole, uuid.New())))
	c.Revert()
	if got := mustMarshal(t, c); !bytes.Equal(got, before) {
		t.Fatalf("revert left changes behind")
	}
	if c.Selection().Len() != 0 {
		t.Fatalf("revert should clear the selection")
	}
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(c.History()) != 1 {
		t.Fatalf("rebuild after revert pushed an entry")
	}
	mustJunction(t, c, domain.ScopeDocument, pt(6, 6))
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(c.History()) != 2 {
		t.Fatalf("reverted flag not cleared by rebuild")
	}
}

func TestPropertyTransaction(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	var saves []bool
	c.OnNeedsSave(func(v bool) { saves = append(saves, v) })

	c.SetPropertyBegin()
	if !c.PropertyTransactionActive() {
		t.Fatalf("expected active transaction")
	}
	mustJunction(t, c, domain.ScopeDocument, pt(1, 2))
	if _, err := c.SetPropertyCommit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if c.PropertyTransactionActive() {
		t.Fatalf("transaction still active")
	}
	if len(c.History()) != 2 || !c.NeedsSave() {
		t.Fatalf("commit should push and mark needs-save")
	}
	if len(saves) != 1 || !saves[0] {
		t.Fatalf("expected one needs-save notification, got %v", saves)
	}
}

func TestPropertyTransactionMisuse(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	expectPanic := func(name string, want error, fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok || !errors.Is(err, want) {
				t.Fatalf("%s: expected panic %v, got %v", name, want, r)
			}
		}()
		fn()
	}
	expectPanic("commit without begin", ErrNoTransaction, func() { _, _ = c.SetPropertyCommit() })
	c.SetPropertyBegin()
	expectPanic("nested begin", ErrTransactionInProgress, c.SetPropertyBegin)
}

func TestBlockingRuleRestoresCommittedState(t *testing.T) {
	c := newTestCore(t, EditorPackage)
	before := mustMarshal(t, c)
	mustLine(t, c, domain.ScopeDocument, uuid.New(), uuid.New())
	res, err := c.Rebuild(false)
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation in result")
	}
	if got := mustMarshal(t, c); !bytes.Equal(got, before) {
		t.Fatalf("blocked commit did not restore state")
	}
	if len(c.History()) != 1 {
		t.Fatalf("blocked commit pushed an entry")
	}
}

func TestWithRulesNilDisablesEvaluation(t *testing.T) {
	c := newTestCore(t, EditorPackage, WithRules(nil))
	mustLine(t, c, domain.ScopeDocument, uuid.New(), uuid.New())
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("expected commit without rules, got %v", err)
	}
	if len(c.History()) != 2 {
		t.Fatalf("expected pushed entry")
	}
}

func TestSignals(t *testing.T) {
	c := NewCore(EditorPackage)
	var rebuilt, undoRedo int
	c.OnRebuilt(func() { rebuilt++ })
	c.OnCanUndoRedo(func() { undoRedo++ })
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	mustJunction(t, c, domain.ScopeDocument, pt(0, 0))
	if _, err := c.Rebuild(false); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	c.Undo()
	if rebuilt != 3 || undoRedo != 3 {
		t.Fatalf("expected 3 rebuilt and 3 availability signals, got %d and %d", rebuilt, undoRedo)
	}
	if !c.NeedsSave() {
		t.Fatalf("undo should mark needs-save")
	}
}
