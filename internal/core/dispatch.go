package core

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/carrotIndustries/horizon/pkg/domain"
)

// ToolPanicError wraps a value recovered from a panicking tool.
type ToolPanicError struct {
	Value any
	Stack []byte
}

func (e *ToolPanicError) Error() string {
	return fmt.Sprintf("tool panicked: %v", e.Value)
}

// recoverTool runs fn, turning a panic into a *ToolPanicError.
func recoverTool(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ToolPanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// ActiveTool returns the id of the running tool, ToolNone when idle.
func (c *Core) ActiveTool() ToolID { return c.toolID }

// ToolIsActive reports whether a tool is running.
func (c *Core) ToolIsActive() bool { return c.tool != nil }

// ToolHandlesEsc reports whether the running tool wants raw Escape keys.
func (c *Core) ToolHandlesEsc() bool {
	if c.tool == nil {
		return false
	}
	return c.tool.HandlesEsc()
}

// ToolCanBegin probes whether id could begin with sel as the selection. The
// live selection is untouched.
func (c *Core) ToolCanBegin(id ToolID, sel domain.Selection) (canBegin, isSpecific bool) {
	tool, err := c.registry.build(ToolBase{Core: c, ID: id, Host: NopHost{}})
	if err != nil {
		return false, false
	}
	saved := c.selection
	c.selection = sel.Clone()
	defer func() { c.selection = saved }()
	if err := recoverTool(func() error {
		canBegin = tool.CanBegin()
		isSpecific = tool.IsSpecific()
		return nil
	}); err != nil {
		c.logger.Error("tool can-begin failed", "tool", c.registry.Name(id), "error", err)
		return false, false
	}
	return canBegin, isSpecific
}

// ToolBegin starts tool id. Unless args.KeepSelection is set the selection is
// replaced by args.Selection first. A tool that cannot begin yields an empty
// response and nothing becomes active. Failures in the tool are logged, the
// document is restored to the last history entry and an End response is
// returned.
func (c *Core) ToolBegin(id ToolID, args ToolArgs, host Host, transient bool) ToolResponse {
	if c.tool != nil {
		c.logger.Warn("tool begin rejected", "tool", string(id), "active", string(c.toolID))
		return ToolResponse{}
	}
	if host == nil {
		host = NopHost{}
	}
	var resp ToolResponse
	_ = c.observe(opToolBegin, func(context.Context) error {
		if !args.KeepSelection {
			c.selection = args.Selection.Clone()
		}
		tool, err := c.registry.build(ToolBase{Core: c, ID: id, Host: host, Transient: transient})
		if err != nil {
			c.logger.Error("tool begin", "tool", string(id), "error", err)
			return err
		}
		var began bool
		err = recoverTool(func() error {
			c.loadSettings(tool)
			if !tool.CanBegin() {
				return nil
			}
			c.tool, c.toolID = tool, id
			began = true
			c.emitToolChanged(id)
			r, err := tool.Begin(args)
			resp = r
			return err
		})
		if err != nil {
			if !began {
				c.tool = tool
			}
			resp = c.abort(id, err)
			return err
		}
		if !began {
			c.logger.Debug("tool not applicable", "tool", string(id))
			return nil
		}
		c.logger.Debug("tool begin", "tool", string(id), "transient", transient)
		if resp.EndTool {
			c.finish()
		}
		return nil
	})
	return resp
}

// ToolUpdate forwards one event to the running tool. Without a running tool
// it returns an empty response.
func (c *Core) ToolUpdate(args ToolArgs) ToolResponse {
	if c.tool == nil {
		return ToolResponse{}
	}
	var resp ToolResponse
	_ = c.observe(opToolUpdate, func(context.Context) error {
		id := c.toolID
		err := recoverTool(func() error {
			r, err := c.tool.Update(args)
			resp = r
			return err
		})
		if err != nil {
			resp = c.abort(id, err)
			return err
		}
		if resp.EndTool {
			c.finish()
		}
		return nil
	})
	return resp
}

// abort handles a failing tool: log, restore the committed document, drop
// the tool.
func (c *Core) abort(id ToolID, err error) ToolResponse {
	attrs := []any{"tool", c.registry.Name(id), "error", err}
	if pe, ok := err.(*ToolPanicError); ok {
		attrs = append(attrs, "stack", string(pe.Stack))
	}
	c.logger.Error("tool failed", attrs...)
	c.Revert()
	c.release()
	if _, rerr := c.Rebuild(false); rerr != nil {
		c.logger.Error("rebuild after tool failure", "error", rerr)
	}
	return End()
}

// finish ends the running tool normally: persist settings, release, record
// history.
func (c *Core) finish() {
	id := c.toolID
	c.saveSettings(c.tool)
	c.release()
	c.logger.Debug("tool end", "tool", string(id))
	if _, err := c.Rebuild(false); err != nil {
		c.logger.Error("rebuild", "tool", string(id), "error", err)
	}
}

func (c *Core) release() {
	if closer, ok := c.tool.(io.Closer); ok {
		if err := recoverTool(closer.Close); err != nil {
			c.logger.Warn("tool close", "tool", string(c.toolID), "error", err)
		}
	}
	wasActive := c.toolID != ToolNone
	c.tool, c.toolID = nil, ToolNone
	if wasActive {
		c.emitToolChanged(ToolNone)
	}
}

func (c *Core) loadSettings(tool Tool) {
	st, ok := tool.(SettingsTool)
	if !ok || c.settings == nil {
		return
	}
	raw, ok := c.settings.LoadToolSettings(string(st.SettingsID()))
	if !ok {
		return
	}
	if err := st.Settings().Load(raw); err != nil {
		c.logger.Warn("load tool settings", "settings", string(st.SettingsID()), "error", err)
	}
}

func (c *Core) saveSettings(tool Tool) {
	st, ok := tool.(SettingsTool)
	if !ok || c.settings == nil {
		return
	}
	raw, err := st.Settings().Serialize()
	if err != nil {
		c.logger.Warn("save tool settings", "settings", string(st.SettingsID()), "error", err)
		return
	}
	c.settings.SaveToolSettings(string(st.SettingsID()), raw)
}
