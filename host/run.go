// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"

	"github.com/beevik/r6502/cpu"
)

var (
	// ErrStopped is returned when a breakpoint or a call to Break stops the
	// CPU. A *BreakpointError matches it with errors.Is.
	ErrStopped = errors.New("stopped")

	// ErrInstructionLimit is returned by RunUntilTrap when the instruction
	// limit is reached before the program traps.
	ErrInstructionLimit = errors.New("instruction limit reached")
)

// BreakpointError reports the breakpoint that stopped the CPU. An execution
// breakpoint stops with PC on its address, before that instruction runs. A
// data breakpoint stops after the storing instruction has completed.
type BreakpointError struct {
	Addr uint16 // breakpoint address
	Data bool   // a store to Addr hit a data breakpoint
}

func (e *BreakpointError) Error() string {
	if e.Data {
		return fmt.Sprintf("data breakpoint at $%04X", e.Addr)
	}
	return fmt.Sprintf("breakpoint at $%04X", e.Addr)
}

// Is reports whether target is ErrStopped.
func (e *BreakpointError) Is(target error) bool {
	return target == ErrStopped
}

// breakpointHits receives debugger notifications while an instruction
// executes and holds the first one until the run loop collects it.
type breakpointHits struct {
	hit *BreakpointError
}

func (r *breakpointHits) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	r.record(&BreakpointError{Addr: b.Address})
}

func (r *breakpointHits) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	r.record(&BreakpointError{Addr: b.Address, Data: true})
}

func (r *breakpointHits) record(e *BreakpointError) {
	if r.hit == nil {
		r.hit = e
	}
}

func (r *breakpointHits) take() error {
	if r.hit == nil {
		return nil
	}
	err := r.hit
	r.hit = nil
	return err
}

// Break stops a running CPU before its next instruction. It may be called
// from any goroutine.
func (h *Host) Break() {
	h.interrupted.Store(true)
	if !h.running.Load() {
		h.println()
		h.prompt()
	}
}

// RunUntilTrap runs the CPU until an instruction transfers control to its
// own address, which is how test programs report success or failure. A
// limit of zero runs without an instruction limit. It returns the trap
// address and the number of cycles spent.
func (h *Host) RunUntilTrap(limit int) (pc uint16, cycles uint64, err error) {
	cycles, err = h.execute(limit, h.trapped)
	if err == nil && !h.trapped() {
		err = ErrInstructionLimit
	}
	return h.cpu.Reg.PC, cycles, err
}

// Step the CPU until 'limit' instructions have run (zero for no limit) or
// 'done' reports true after an instruction. A breakpoint, a call to Break
// or a CPU error ends the run early and is returned. The cycles spent are
// returned in every case.
func (h *Host) execute(limit int, done func() bool) (uint64, error) {
	start := h.cpu.Cycles
	h.interrupted.Store(false)
	h.running.Store(true)
	defer h.running.Store(false)

	for i := 0; limit == 0 || i < limit; i++ {
		if h.interrupted.Load() {
			return h.cpu.Cycles - start, ErrStopped
		}
		_, err := h.cpu.Step()
		hit := h.hits.take()
		switch {
		case err != nil:
			return h.cpu.Cycles - start, err
		case done != nil && done():
			return h.cpu.Cycles - start, nil
		case hit != nil:
			return h.cpu.Cycles - start, hit
		}
	}
	return h.cpu.Cycles - start, nil
}

// Execute one instruction, running a subroutine call to completion. The
// call is complete when control returns past the JSR with the stack
// pointer restored, so recursive calls through the same address don't end
// it early.
func (h *Host) stepOver() error {
	inst := h.cpu.GetInstruction(h.cpu.Reg.PC)
	if inst.Name != "JSR" {
		_, err := h.execute(1, nil)
		return err
	}

	ret, sp := h.cpu.Reg.PC+uint16(inst.Length), h.cpu.Reg.SP
	_, err := h.execute(0, func() bool {
		return h.cpu.Reg.PC == ret && h.cpu.Reg.SP == sp
	})
	return err
}

// The last instruction transferred control to itself.
func (h *Host) trapped() bool {
	return h.cpu.Reg.PC == h.cpu.LastPC
}

// Report why a run ended early. A nil error reports nothing.
func (h *Host) reportStop(err error) {
	var berr *BreakpointError
	var uerr *cpu.UnknownOpcodeError
	switch {
	case err == nil:
	case errors.As(err, &berr) && berr.Data:
		h.printf("Data breakpoint hit on address $%04X.\n", berr.Addr)
		if h.cpu.LastPC != h.cpu.Reg.PC {
			h.displayInstruction(h.cpu.LastPC)
		}
		h.displayPC()
	case errors.As(err, &berr):
		h.printf("Breakpoint hit at $%04X.\n", berr.Addr)
		h.displayPC()
	case errors.Is(err, ErrStopped):
		h.printf("Stopped at $%04X.\n", h.cpu.Reg.PC)
	case errors.As(err, &uerr):
		h.printf("Unknown opcode $%02X at $%04X\n", uerr.Opcode, uerr.Addr)
	default:
		h.printf("ERROR: %v.\n", err)
	}
}
