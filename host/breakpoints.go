// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"github.com/beevik/cmd"
)

// breakpointKind selects between execution and data breakpoints in the
// commands that manage them.
type breakpointKind bool

const (
	execBreakpoint breakpointKind = false
	dataBreakpoint breakpointKind = true
)

func (k breakpointKind) String() string {
	if k == dataBreakpoint {
		return "data breakpoint"
	}
	return "breakpoint"
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	return h.listBreakpoints(execBreakpoint)
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.addrArg(c, 0)
	if !ok {
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	return h.removeBreakpoint(c, execBreakpoint)
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	return h.enableBreakpoint(c, execBreakpoint, true)
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	return h.enableBreakpoint(c, execBreakpoint, false)
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	return h.listBreakpoints(dataBreakpoint)
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.addrArg(c, 0)
	if !ok {
		return nil
	}

	if len(c.Args) < 2 {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
		return nil
	}

	v, err := h.parseValue(c.Args[1], 8)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.debugger.AddConditionalDataBreakpoint(addr, byte(v))
	h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, v)
	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	return h.removeBreakpoint(c, dataBreakpoint)
}

func (h *Host) cmdDataBreakpointEnable(c cmd.Selection) error {
	return h.enableBreakpoint(c, dataBreakpoint, true)
}

func (h *Host) cmdDataBreakpointDisable(c cmd.Selection) error {
	return h.enableBreakpoint(c, dataBreakpoint, false)
}

func (h *Host) listBreakpoints(kind breakpointKind) error {
	count := 0
	if kind == dataBreakpoint {
		for _, b := range h.debugger.GetDataBreakpoints() {
			line := "  $%04X  " + enabledString(!b.Disabled)
			if b.Conditional {
				h.printf(line+"  value=$%02X\n", b.Address, b.Value)
			} else {
				h.printf(line+"\n", b.Address)
			}
			count++
		}
	} else {
		for _, b := range h.debugger.GetBreakpoints() {
			h.printf("  $%04X  %s\n", b.Address, enabledString(!b.Disabled))
			count++
		}
	}

	if count == 0 {
		h.printf("No %ss set.\n", kind)
	}
	return nil
}

// Return a pointer to the Disabled field of the breakpoint at 'addr', or nil
// if there is none.
func (h *Host) breakpointDisabled(kind breakpointKind, addr uint16) *bool {
	if kind == dataBreakpoint {
		if b := h.debugger.GetDataBreakpoint(addr); b != nil {
			return &b.Disabled
		}
		return nil
	}
	if b := h.debugger.GetBreakpoint(addr); b != nil {
		return &b.Disabled
	}
	return nil
}

func (h *Host) removeBreakpoint(c cmd.Selection, kind breakpointKind) error {
	addr, ok := h.addrArg(c, 0)
	if !ok {
		return nil
	}

	if h.breakpointDisabled(kind, addr) == nil {
		h.printf("No %s was set on $%04X.\n", kind, addr)
		return nil
	}

	if kind == dataBreakpoint {
		h.debugger.RemoveDataBreakpoint(addr)
		h.printf("Data breakpoint at $%04X removed.\n", addr)
	} else {
		h.debugger.RemoveBreakpoint(addr)
		h.printf("Breakpoint at $%04X removed.\n", addr)
	}
	return nil
}

func (h *Host) enableBreakpoint(c cmd.Selection, kind breakpointKind, enable bool) error {
	addr, ok := h.addrArg(c, 0)
	if !ok {
		return nil
	}

	disabled := h.breakpointDisabled(kind, addr)
	if disabled == nil {
		h.printf("No %s was set on $%04X.\n", kind, addr)
		return nil
	}

	*disabled = !enable
	if kind == dataBreakpoint {
		h.printf("Data breakpoint at $%04X %s.\n", addr, enabledString(enable))
	} else {
		h.printf("Breakpoint at $%04X %s.\n", addr, enabledString(enable))
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
