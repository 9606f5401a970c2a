package disasm_test

import (
	"testing"

	"github.com/beevik/r6502/cpu"
	"github.com/beevik/r6502/disasm"
	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		code []byte
		line string
	}{
		{[]byte{0xa9, 0x5e}, "LDA #$5E"},
		{[]byte{0xea}, "NOP"},
		{[]byte{0xd0, 0x0e}, "BNE $1010"},
		{[]byte{0xd0, 0xfc}, "BNE $0FFE"},
		{[]byte{0xa5, 0x15}, "LDA $15"},
		{[]byte{0xb5, 0x15}, "LDA $15,X"},
		{[]byte{0xb6, 0x15}, "LDX $15,Y"},
		{[]byte{0x8d, 0x00, 0x15}, "STA $1500"},
		{[]byte{0x9d, 0x34, 0x12}, "STA $1234,X"},
		{[]byte{0x99, 0x34, 0x12}, "STA $1234,Y"},
		{[]byte{0x6c, 0xff, 0x02}, "JMP ($02FF)"},
		{[]byte{0xa1, 0x05}, "LDA ($05,X)"},
		{[]byte{0x91, 0x06}, "STA ($06),Y"},
		{[]byte{0x0a}, "ASL A"},
		{[]byte{0x02}, "???"},
	}

	for _, tt := range tests {
		mem := cpu.NewFlatMemory()
		mem.StoreBytes(0x1000, tt.code)

		line, next := disasm.Disassemble(mem, 0x1000)
		assert.Equal(t, tt.line, line)
		assert.Equal(t, 0x1000+uint16(len(tt.code)), next, tt.line)
	}
}

func TestGetRegisterString(t *testing.T) {
	r := cpu.Registers{
		A: 0x12, X: 0x34, Y: 0x56, SP: 0xfd, PC: 0xc000,
		Sign: true, Decimal: true, Carry: true,
	}
	assert.Equal(t, "A=12 X=34 Y=56 PS=[N-D--C] SP=FD PC=C000", disasm.GetRegisterString(&r))
}
