package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrTransactionInProgress is the panic value of a nested SetPropertyBegin.
	ErrTransactionInProgress = errors.New("transaction already in progress")
	// ErrNoTransaction is the panic value of SetPropertyCommit without begin.
	ErrNoTransaction = errors.New("no transaction in progress")
)

type historyEntry struct {
	id        ulid.ULID
	data      []byte
	createdAt time.Time
}

// HistoryEntry describes one recorded document state.
type HistoryEntry struct {
	ID        string
	CreatedAt time.Time
	Size      int
}

// History lists the recorded states, oldest first.
func (c *Core) History() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(c.history))
	for _, e := range c.history {
		out = append(out, HistoryEntry{ID: e.id.String(), CreatedAt: e.createdAt, Size: len(e.data)})
	}
	return out
}

// HistoryCursor returns the index of the live history entry, -1 when empty.
func (c *Core) HistoryCursor() int { return c.cursor }

// CanUndo reports whether Undo would change the document.
func (c *Core) CanUndo() bool { return c.cursor > 0 }

// CanRedo reports whether Redo would change the document.
func (c *Core) CanRedo() bool { return c.cursor+1 < len(c.history) }

// HistoryClear drops every entry.
func (c *Core) HistoryClear() {
	c.history = nil
	c.cursor = -1
	c.emitCanUndoRedo()
}

// Rebuild records the live document as a new history entry, discarding any
// redo entries, unless fromUndo is set or the last tool reverted. Commit
// rules run first; a blocking violation restores the previous entry and is
// returned as domain.RuleViolationError.
func (c *Core) Rebuild(fromUndo bool) (domain.Result, error) {
	var res domain.Result
	err := c.observe(opRebuild, func(ctx context.Context) error {
		var err error
		if !fromUndo && !c.reverted {
			res, err = c.push(ctx)
		}
		c.reverted = false
		c.emitRebuilt()
		c.emitCanUndoRedo()
		return err
	})
	return res, err
}

func (c *Core) push(ctx context.Context) (domain.Result, error) {
	snap := c.store.ExportState()
	var res domain.Result
	if c.rules != nil {
		prev, err := c.committed()
		if err != nil {
			return res, err
		}
		res, err = c.rules.Evaluate(ctx, c.store, domain.DiffSnapshots(prev, snap))
		if err != nil {
			return res, fmt.Errorf("evaluate rules: %w", err)
		}
		for _, v := range res.Violations {
			switch v.Severity {
			case domain.SeverityBlock:
				c.logger.Warn("commit blocked", "rule", v.Rule, "message", v.Message, "type", string(v.Type), "id", v.ID.String())
			case domain.SeverityWarn:
				c.logger.Warn("rule warning", "rule", v.Rule, "message", v.Message, "type", string(v.Type), "id", v.ID.String())
			default:
				c.logger.Debug("rule note", "rule", v.Rule, "message", v.Message)
			}
		}
		if res.HasBlocking() {
			c.store.ImportState(prev)
			return res, domain.RuleViolationError{Result: res}
		}
	}
	data, err := domain.MarshalSnapshot(snap)
	if err != nil {
		return res, err
	}
	c.history = c.history[:c.cursor+1]
	now := c.clock.Now()
	c.history = append(c.history, historyEntry{
		id:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		data:      data,
		createdAt: now,
	})
	c.cursor++
	return res, nil
}

// committed decodes the live history entry, or returns an empty document
// when the history is empty.
func (c *Core) committed() (domain.Snapshot, error) {
	if c.cursor < 0 {
		var empty domain.Snapshot
		empty.Normalize()
		return empty, nil
	}
	return domain.UnmarshalSnapshot(c.history[c.cursor].data)
}

func (c *Core) load(idx int) error {
	snap, err := domain.UnmarshalSnapshot(c.history[idx].data)
	if err != nil {
		return err
	}
	c.store.ImportState(snap)
	return nil
}

// Undo steps back one entry. It is a no-op at the oldest entry.
func (c *Core) Undo() {
	if !c.CanUndo() {
		return
	}
	_ = c.observe(opUndo, func(context.Context) error {
		c.cursor--
		return c.step()
	})
}

// Redo steps forward one entry. It is a no-op at the newest entry.
func (c *Core) Redo() {
	if !c.CanRedo() {
		return
	}
	_ = c.observe(opRedo, func(context.Context) error {
		c.cursor++
		return c.step()
	})
}

func (c *Core) step() error {
	if err := c.load(c.cursor); err != nil {
		c.logger.Error("load history entry", "index", c.cursor, "error", err)
		return err
	}
	c.emitRebuilt()
	c.emitCanUndoRedo()
	c.SetNeedsSave(true)
	return nil
}

// Commit marks the document as changed. The history entry itself is written
// by the Rebuild that follows the end of the tool.
func (c *Core) Commit() {
	c.SetNeedsSave(true)
}

// Revert restores the live history entry, discarding every uncommitted
// change, and clears the selection. The next Rebuild will not record an
// entry.
func (c *Core) Revert() {
	snap, err := c.committed()
	if err != nil {
		c.logger.Error("revert", "error", err)
		snap = domain.Snapshot{}
	}
	c.store.ImportState(snap)
	c.selection = domain.NewSelection()
	c.reverted = true
}

// SetPropertyBegin opens a property transaction. Nesting panics with
// ErrTransactionInProgress.
func (c *Core) SetPropertyBegin() {
	if c.propertyTransaction {
		panic(ErrTransactionInProgress)
	}
	c.propertyTransaction = true
}

// SetPropertyCommit closes the property transaction with the same commit
// semantics as the end of a tool. Without an open transaction it panics
// with ErrNoTransaction.
func (c *Core) SetPropertyCommit() (domain.Result, error) {
	if !c.propertyTransaction {
		panic(ErrNoTransaction)
	}
	c.propertyTransaction = false
	res, err := c.Rebuild(false)
	c.SetNeedsSave(true)
	return res, err
}

// PropertyTransactionActive reports whether SetPropertyBegin is pending.
func (c *Core) PropertyTransactionActive() bool { return c.propertyTransaction }
