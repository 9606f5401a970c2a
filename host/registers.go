// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"

	"github.com/beevik/r6502/cpu"
)

// A register names an 8-bit or 16-bit CPU register or a status flag
// (size 0) that commands and scripts may read and assign.
type register struct {
	size int
	get  func(r *cpu.Registers) uint16
	set  func(r *cpu.Registers, v uint64)
}

func byteRegister(field func(r *cpu.Registers) *byte) register {
	return register{
		size: 1,
		get:  func(r *cpu.Registers) uint16 { return uint16(*field(r)) },
		set:  func(r *cpu.Registers, v uint64) { *field(r) = byte(v) },
	}
}

func flagRegister(field func(r *cpu.Registers) *bool) register {
	return register{
		size: 0,
		get:  func(r *cpu.Registers) uint16 { return uint16(boolToInt(*field(r))) },
		set:  func(r *cpu.Registers, v uint64) { *field(r) = v != 0 },
	}
}

var registers = map[string]register{
	"a":  byteRegister(func(r *cpu.Registers) *byte { return &r.A }),
	"x":  byteRegister(func(r *cpu.Registers) *byte { return &r.X }),
	"y":  byteRegister(func(r *cpu.Registers) *byte { return &r.Y }),
	"sp": byteRegister(func(r *cpu.Registers) *byte { return &r.SP }),
	"pc": {
		size: 2,
		get:  func(r *cpu.Registers) uint16 { return r.PC },
		set:  func(r *cpu.Registers, v uint64) { r.PC = uint16(v) },
	},
	"n": flagRegister(func(r *cpu.Registers) *bool { return &r.Sign }),
	"v": flagRegister(func(r *cpu.Registers) *bool { return &r.Overflow }),
	"d": flagRegister(func(r *cpu.Registers) *bool { return &r.Decimal }),
	"i": flagRegister(func(r *cpu.Registers) *bool { return &r.InterruptDisable }),
	"z": flagRegister(func(r *cpu.Registers) *bool { return &r.Zero }),
	"c": flagRegister(func(r *cpu.Registers) *bool { return &r.Carry }),
}

func init() {
	for alias, name := range map[string]string{
		".":                "pc",
		"sign":             "n",
		"overflow":         "v",
		"decimal":          "d",
		"interruptdisable": "i",
		"zero":             "z",
		"carry":            "c",
	} {
		registers[alias] = registers[name]
	}
}

// Return the size in bytes of the named register, or zero for a flag.
func registerSize(name string) int {
	return registers[name].size
}

// Return the value of a register or status flag by lowercase name.
func (h *Host) getRegister(name string) (uint16, error) {
	reg, ok := registers[name]
	if !ok {
		return 0, fmt.Errorf("register '%s' not found", name)
	}
	return reg.get(&h.cpu.Reg), nil
}

// Assign a register or status flag by lowercase name.
func (h *Host) setRegister(name string, v uint64) error {
	reg, ok := registers[name]
	if !ok {
		return fmt.Errorf("register '%s' not found", name)
	}
	reg.set(&h.cpu.Reg, v)
	return nil
}
