// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a computer system
// with a 6502 CPU, 64K of memory, a built-in debugger, and a Lua scripting
// interface.
//
// Within the host it is possible to load machine code into memory, debug
// and step through machine code, measure the number of CPU cycles elapsed,
// set address and data breakpoints, dump the contents of memory,
// disassemble the contents of memory, and manipulate CPU registers and
// memory.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/r6502/cpu"
	"github.com/beevik/r6502/disasm"
)

var errQuit = errors.New("exiting program")

// A Host represents a fully emulated 6502 system, 64K of memory, a built-in
// debugger, and other useful tools.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *cpu.FlatMemory
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	hits        breakpointHits
	lastCmd     *cmd.Selection
	settings    *settings
	running     atomic.Bool
	interrupted atomic.Bool
}

// New creates a new 6502 host environment.
func New() *Host {
	h := &Host{
		settings: newSettings(),
		output:   bufio.NewWriter(io.Discard),
	}

	h.mem = cpu.NewFlatMemory()
	h.cpu = cpu.NewCPU(h.mem)

	// Breakpoint hits are collected by the run loop after each step.
	h.debugger = cpu.NewDebugger(&h.hits)
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// SetOutput directs the host's messages to w.
func (h *Host) SetOutput(w io.Writer) {
	h.output = bufio.NewWriter(w)
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered. It returns false
// if a quit command was processed.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) bool {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}
	h.displayPC()

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			return true
		}

		// An empty line repeats the previous command.
		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case errors.Is(err, cmd.ErrNotFound):
				h.println("Command not found.")
				continue
			case errors.Is(err, cmd.ErrAmbiguous):
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}

		command, ok := c.Command.Data.(*command)
		if !ok || command.run == nil {
			h.displayCommands(cmdIndex.subtrees[c.Command.Name])
			continue
		}
		h.lastCmd = &c

		if err := command.run(h, c); err != nil {
			h.flush()
			return false
		}
	}
}

// Load copies the raw contents of a binary file into memory at 'addr' and
// moves the program counter there.
func (h *Host) Load(filename string, addr uint16) error {
	n, err := h.mem.LoadFile(addr, filename)
	if err != nil {
		return err
	}
	h.printf("Loaded '%s' to $%04X..$%04X.\n", filepath.Base(filename), addr, int(addr)+n-1)
	h.cpu.SetPC(addr)
	return nil
}

// Reset resets the CPU through the reset vector.
func (h *Host) Reset() {
	h.cpu.Reset()
}

// SetPC moves the program counter to 'addr'.
func (h *Host) SetPC(addr uint16) {
	h.cpu.SetPC(addr)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return strings.TrimSpace(h.input.Text()), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

// Show the instruction at PC along with the registers and cycle count.
func (h *Host) displayPC() {
	if h.interactive {
		h.println(h.traceLine(h.cpu.Reg.PC))
	}
}

func (h *Host) displayInstruction(addr uint16) {
	if h.interactive {
		h.println(h.traceLine(addr))
	}
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	addr := h.settings.NextDisasmAddr
	if addr == 0 {
		addr = h.cpu.Reg.PC
	}
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, ok := h.addrArg(c, 0)
		if !ok {
			return nil
		}
		addr = a
	}

	lines, ok := h.countArg(c, 1, h.settings.DisasmLines)
	if !ok {
		return nil
	}

	for i := 0; i < lines; i++ {
		line, next := h.disassemble(addr)
		h.println(line)
		addr = next
	}

	// Repeating the command continues where this one left off.
	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands(cmdIndex)
		return nil
	}

	s, err := cmds.Lookup(strings.Join(c.Args, " "))
	if err != nil || s.Command == nil {
		h.println("Command not found.")
		return nil
	}

	command, ok := s.Command.Data.(*command)
	if !ok || command.run == nil {
		h.displayCommands(cmdIndex.subtrees[s.Command.Name])
		return nil
	}

	if command.usage != "" {
		h.printf("Usage: %s\n\n", command.usage)
	}
	switch {
	case command.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, command.description))
	case command.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, command.brief))
	}
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, ok := h.addrArg(c, 1)
	if !ok {
		return nil
	}

	if err := h.Load(c.Args[0], addr); err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(c.Args[0]), err)
	}
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	addr := h.settings.NextMemDumpAddr
	if addr == 0 {
		addr = h.cpu.Reg.PC
	}
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, ok := h.addrArg(c, 0)
		if !ok {
			return nil
		}
		addr = a
	}

	n, ok := h.countArg(c, 1, h.settings.MemDumpBytes)
	if !ok {
		return nil
	}

	for _, line := range h.memoryLines(addr, n) {
		h.println(line)
	}

	h.settings.NextMemDumpAddr = addr + uint16(n)
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", n)}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, ok := h.addrArg(c, 0)
	if !ok {
		return nil
	}

	values := make([]byte, 0, len(c.Args)-1)
	for _, s := range c.Args[1:] {
		v, err := h.parseValue(s, 8)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		values = append(values, byte(v))
	}

	h.mem.StoreBytes(addr, values)
	h.printf("Stored %d byte(s) at $%04X.\n", len(values), addr)
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func (h *Host) cmdRegister(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println(h.traceLine(h.cpu.Reg.PC))
		return nil
	case 1:
		h.displayUsage(c)
		return nil
	}

	name := strings.ToLower(c.Args[0])
	v, err := h.parseValue(c.Args[1], 16)
	if err == nil {
		err = h.setRegister(name, v)
	}
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	label := strings.ToUpper(name)
	switch registerSize(name) {
	case 0:
		h.printf("Register %s set to %v.\n", label, v != 0)
	case 1:
		h.printf("Register %s set to $%02X.\n", label, byte(v))
	default:
		h.printf("Register %s set to $%04X.\n", label, uint16(v))
	}
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	h.cpu.Reset()
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	h.printf("CPU reset. PC=$%04X.\n", h.cpu.Reg.PC)
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	count, ok := h.countArg(c, 0, 0)
	if !ok {
		return nil
	}

	var done func() bool
	if h.settings.StopOnTrap {
		done = h.trapped
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)
	cycles, err := h.execute(count, done)
	if err == nil && done != nil && h.trapped() {
		h.printf("Trapped at $%04X.\n", h.cpu.Reg.PC)
	}
	h.reportStop(err)
	h.printf("Ran %d cycles.\n", cycles)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdScript(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.runScript(c.Args[0]); err != nil {
		h.printf("Script '%s' failed: %v\n", filepath.Base(c.Args[0]), err)
	}
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()
		return nil
	case 1:
		h.displayUsage(c)
		return nil
	}

	key, value := c.Args[0], strings.Join(c.Args[1:], " ")

	var v any
	var err error
	switch h.settings.Kind(key) {
	case reflect.Invalid:
		err = fmt.Errorf("setting '%s' not found", key)
	case reflect.Bool:
		v, err = stringToBool(value)
	case reflect.Uint16:
		v, err = h.parseValue(value, 16)
	default:
		v, err = h.parseCount(value)
	}
	if err == nil {
		err = h.settings.Set(key, v)
	}

	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.println("Setting updated.")
	return nil
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	return h.stepCommand(c, func() error {
		_, err := h.execute(1, nil)
		return err
	})
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	return h.stepCommand(c, h.stepOver)
}

// Run 'step' the requested number of times. Only the final
// StepLinesToDisplay instructions are shown.
func (h *Host) stepCommand(c cmd.Selection, step func() error) error {
	count, ok := h.countArg(c, 0, 1)
	if !ok {
		return nil
	}

	hidden := count - h.settings.StepLinesToDisplay
	for i := 0; i < count; i++ {
		if err := step(); err != nil {
			h.reportStop(err)
			break
		}
		switch {
		case i >= hidden:
			h.displayPC()
		case i == hidden-1:
			h.println("...")
		}
	}

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdTrap(c cmd.Selection) error {
	h.printf("Running from $%04X until trap. Press ctrl-C to break.\n", h.cpu.Reg.PC)

	pc, cycles, err := h.RunUntilTrap(0)
	if err == nil {
		h.printf("Trapped at $%04X after %d cycles.\n", pc, cycles)
	}
	h.reportStop(err)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

// Disassemble the instruction at 'addr' as an address, code bytes and
// mnemonic.
func (h *Host) disassemble(addr uint16) (line string, next uint16) {
	text, next := disasm.Disassemble(h.mem, addr)

	var code []string
	for a := addr; a != next; a++ {
		code = append(code, fmt.Sprintf("%02X", h.mem.LoadByte(a)))
	}

	line = fmt.Sprintf("%04X-   %-8s    %s", addr, strings.Join(code, " "), text)
	return line, next
}

// Disassemble the instruction at 'addr' followed by the registers and the
// cycle count.
func (h *Host) traceLine(addr uint16) string {
	line, _ := h.disassemble(addr)
	return fmt.Sprintf("%-35s %s C=%d", line, disasm.GetRegisterString(&h.cpu.Reg), h.cpu.Cycles)
}

// Format 'n' bytes of memory starting at 'addr', eight bytes per row. Rows
// align to 8-byte boundaries unless the whole dump fits in one row. The dump
// stops at the end of memory.
func (h *Host) memoryLines(addr uint16, n int) []string {
	if n <= 0 {
		return nil
	}
	first := int(addr)
	last := min(first+n-1, 0xffff)

	row := first
	if n > 8 {
		row &^= 7
	}

	var lines []string
	for ; row <= last; row += 8 {
		var hex, text strings.Builder
		for a := row; a < row+8; a++ {
			if a < first || a > last {
				hex.WriteString("   ")
				text.WriteByte(' ')
				continue
			}
			v := h.mem.LoadByte(uint16(a))
			fmt.Fprintf(&hex, " %02X", v)
			text.WriteByte(toPrintableChar(v))
		}
		line := fmt.Sprintf("%04X-%s   %s", row, hex.String(), text.String())
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

func (h *Host) displayUsage(c cmd.Selection) {
	if command, ok := c.Command.Data.(*command); ok && command.usage != "" {
		h.printf("Usage: %s\n", command.usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(g *commandGroup) {
	if g == nil {
		return
	}
	h.printf("%s commands:\n", g.title)
	for _, c := range g.commands {
		if c.brief != "" {
			h.printf("    %-15s  %s\n", c.name, c.brief)
		}
	}
}

// Parse the address in argument 'i', reporting a missing or invalid
// argument to the user.
func (h *Host) addrArg(c cmd.Selection, i int) (uint16, bool) {
	if i >= len(c.Args) {
		h.displayUsage(c)
		return 0, false
	}
	v, err := h.parseValue(c.Args[i], 16)
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return uint16(v), true
}

// Parse the optional count in argument 'i', returning 'def' when it is
// absent.
func (h *Host) countArg(c cmd.Selection, i int, def int) (int, bool) {
	if i >= len(c.Args) {
		return def, true
	}
	n, err := h.parseCount(c.Args[i])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return n, true
}

// Parse a count of instructions, lines or bytes.
func (h *Host) parseCount(s string) (int, error) {
	v, err := parseNumber(s, h.settings.HexMode, 31)
	return int(v), err
}

// Parse a number or a register name into a value of at most 'bits' bits.
func (h *Host) parseValue(s string, bits int) (uint64, error) {
	if v, err := h.getRegister(strings.ToLower(s)); err == nil {
		return uint64(v), nil
	}
	return parseNumber(s, h.settings.HexMode, bits)
}
