// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Run a Lua script against the host. The script sees the following global
// functions:
//
//	peek(addr)            read a byte of memory
//	poke(addr, v)         store a byte of memory
//	dump(addr[, n])       format n bytes of memory (default 8) as a dump
//	reg(name)             read a register or status flag
//	setreg(name, v)       assign a register or status flag
//	step([n])             execute n instructions (default 1), returning the
//	                      cycles spent and an error message, if any
//	reset()               reset the CPU
//	cycles()              total cycles elapsed
//	print(...)            write to the host output
func (h *Host) runScript(filename string) error {
	L := lua.NewState()
	defer L.Close()

	for name, fn := range map[string]lua.LGFunction{
		"peek":   h.luaPeek,
		"poke":   h.luaPoke,
		"dump":   h.luaDump,
		"reg":    h.luaReg,
		"setreg": h.luaSetReg,
		"step":   h.luaStep,
		"reset":  h.luaReset,
		"cycles": h.luaCycles,
		"print":  h.luaPrint,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	return L.DoFile(filename)
}

func (h *Host) luaPeek(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	L.Push(lua.LNumber(h.mem.LoadByte(addr)))
	return 1
}

func (h *Host) luaPoke(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	v := byte(L.CheckInt(2))
	h.mem.StoreByte(addr, v)
	return 0
}

func (h *Host) luaDump(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	n := L.OptInt(2, 8)
	L.Push(lua.LString(strings.Join(h.memoryLines(addr, n), "\n")))
	return 1
}

func (h *Host) luaReg(L *lua.LState) int {
	v, err := h.getRegister(strings.ToLower(L.CheckString(1)))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (h *Host) luaSetReg(L *lua.LState) int {
	name := strings.ToLower(L.CheckString(1))
	v := L.CheckInt(2)
	if err := h.setRegister(name, uint64(v)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *Host) luaStep(L *lua.LState) int {
	n := L.OptInt(1, 1)

	var total int
	for i := 0; i < n; i++ {
		c, err := h.cpu.Step()
		total += c
		if err != nil {
			L.Push(lua.LNumber(total))
			L.Push(lua.LString(err.Error()))
			return 2
		}
	}

	L.Push(lua.LNumber(total))
	return 1
}

func (h *Host) luaReset(L *lua.LState) int {
	h.cpu.Reset()
	return 0
}

func (h *Host) luaCycles(L *lua.LState) int {
	L.Push(lua.LNumber(h.cpu.Cycles))
	return 1
}

func (h *Host) luaPrint(L *lua.LState) int {
	args := make([]string, L.GetTop())
	for i := range args {
		args[i] = L.Get(i + 1).String()
	}
	h.println(strings.Join(args, "\t"))
	return 0
}
