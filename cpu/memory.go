// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"io"
	"os"
)

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Implementations must accept every 16-bit address;
// unmapped regions should read back a stable value such as zero.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes starting at the address into the buffer
// 'b'. Reads past $FFFF wrap around to $0000.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	n := copy(b, m.b[addr:])
	for n < len(b) {
		n += copy(b[n:], m.b[:])
	}
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes starting at the requested address.
// Writes past $FFFF wrap around to $0000.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	for len(b) > 0 {
		n := copy(m.b[addr:], b)
		b = b[n:]
		addr = 0
	}
}

// ReadFrom loads a raw memory image from 'r' starting at address 'addr'.
// At most 64K bytes are read. It returns the number of bytes loaded.
func (m *FlatMemory) ReadFrom(addr uint16, r io.Reader) (int, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(len(m.b))))
	if err != nil {
		return 0, err
	}
	m.StoreBytes(addr, data)
	return len(data), nil
}

// LoadFile loads the raw binary contents of the file 'filename' into
// memory starting at address 'addr'.
func (m *FlatMemory) LoadFile(addr uint16, filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	n, err := m.ReadFrom(addr, file)
	if err != nil {
		return n, fmt.Errorf("loading %s: %w", filename, err)
	}
	return n, nil
}

// Return the offset address 'addr' + 'offset'. If the offset
// crossed a page boundary, return 'pageCrossed' as true.
func offsetAddress(addr uint16, offset byte) (newAddr uint16, pageCrossed bool) {
	newAddr = addr + uint16(offset)
	pageCrossed = ((newAddr & 0xff00) != (addr & 0xff00))
	return newAddr, pageCrossed
}

// Offset a zero-page address 'addr' by 'offset'. If the address
// exceeds the zero-page address space, wrap it.
func offsetZeroPage(addr uint16, offset byte) uint16 {
	return uint16(byte(addr) + offset)
}

// Convert a 1- or 2-byte operand into an address.
func operandToAddress(operand []byte) uint16 {
	switch {
	case len(operand) == 1:
		return uint16(operand[0])
	case len(operand) == 2:
		return uint16(operand[0]) | uint16(operand[1])<<8
	}
	return 0
}

// Given a 1-byte stack pointer register, return the stack
// corresponding memory address.
func stackAddress(offset byte) uint16 {
	return uint16(0x100) + uint16(offset)
}

// Load a 16-bit little-endian address from memory at 'addr'.
func loadAddress(m Memory, addr uint16) uint16 {
	return uint16(m.LoadByte(addr)) | uint16(m.LoadByte(addr+1))<<8
}

// Load a 16-bit address without carrying into the high byte of the
// pointer. When the pointer ends in $FF, the high byte of the result comes
// from the start of the same page: $12FF reads $12FF and $1200. This
// mimics the NMOS 6502 for JMP ($xxFF) and for zero-page pointers.
func loadAddressPageWrapped(m Memory, addr uint16) uint16 {
	hi := (addr & 0xff00) | uint16(byte(addr)+1)
	return uint16(m.LoadByte(addr)) | uint16(m.LoadByte(hi))<<8
}
