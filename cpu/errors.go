// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"errors"
	"fmt"
)

// ErrUnknownOpcode is matched by every UnknownOpcodeError when tested with
// errors.Is.
var ErrUnknownOpcode = errors.New("unknown opcode")

// UnknownOpcodeError is returned when the CPU fetches a byte that does not
// encode a documented 6502 instruction. The failed fetch changes no CPU
// state and leaves PC pointing at the offending byte. An interrupt taken
// earlier in the same Step stays committed: its stack pushes, the I flag
// and the vectored PC remain, and Step returns its 7 cycles with the error.
type UnknownOpcodeError struct {
	Opcode byte   // the undecodable opcode byte
	Addr   uint16 // address the opcode was fetched from
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode $%02X at $%04X", e.Opcode, e.Addr)
}

// Is reports whether target is ErrUnknownOpcode.
func (e *UnknownOpcodeError) Is(target error) bool {
	return target == ErrUnknownOpcode
}
