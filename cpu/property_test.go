package cpu_test

import (
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/beevik/r6502/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// mockMemory fails the test on any access that was not set up.
type mockMemory struct {
	mock.Mock
}

func (m *mockMemory) LoadByte(addr uint16) byte {
	args := m.Called(addr)
	return args.Get(0).(byte)
}

func (m *mockMemory) StoreByte(addr uint16, v byte) {
	m.Called(addr, v)
}

// recordingMemory is a flat memory that remembers every address written.
type recordingMemory struct {
	*cpu.FlatMemory
	stores []uint16
}

func (m *recordingMemory) StoreByte(addr uint16, v byte) {
	m.stores = append(m.stores, addr)
	m.FlatMemory.StoreByte(addr, v)
}

func TestUnknownOpcodeHasNoSideEffects(t *testing.T) {
	set := cpu.GetInstructionSet()

	unknown := 0
	for op := 0; op < 256; op++ {
		if set.Lookup(byte(op)).Valid() {
			continue
		}
		unknown++

		m := &mockMemory{}
		m.On("LoadByte", uint16(0x0200)).Return(byte(op))

		c := cpu.NewCPU(m)
		c.SetPC(0x0200)
		c.Reg.A, c.Reg.X, c.Reg.Y = 0x11, 0x22, 0x33
		before := c.Reg

		n, err := c.Step()
		require.Error(t, err)
		assert.Zero(t, n)

		var uerr *cpu.UnknownOpcodeError
		require.True(t, errors.As(err, &uerr))
		assert.Equal(t, byte(op), uerr.Opcode)
		assert.Equal(t, uint16(0x0200), uerr.Addr)
		assert.True(t, errors.Is(err, cpu.ErrUnknownOpcode))

		assert.Equal(t, before, c.Reg)
		assert.Zero(t, c.Cycles)
		m.AssertNumberOfCalls(t, "LoadByte", 1)
		m.AssertNotCalled(t, "StoreByte", mock.Anything, mock.Anything)
	}
	assert.Equal(t, 256-151, unknown)
}

func TestUnknownOpcodeMessage(t *testing.T) {
	err := &cpu.UnknownOpcodeError{Opcode: 0x02, Addr: 0x1002}
	assert.Equal(t, "unknown opcode $02 at $1002", err.Error())
	assert.ErrorIs(t, err, cpu.ErrUnknownOpcode)
}

func TestStackStaysInPageOne(t *testing.T) {
	mem := &recordingMemory{FlatMemory: cpu.NewFlatMemory()}
	mem.StoreBytes(0x1000, []byte{
		0x48,             // PHA
		0x48,             // PHA
		0x20, 0x00, 0x30, // JSR $3000
		0x08, // PHP
		0x00, // BRK
	})
	mem.StoreByte(0x3000, 0x60) // RTS
	mem.StoreBytes(0xfffe, []byte{0x00, 0x40})
	mem.StoreBytes(0x4000, []byte{
		0x68, // PLA
		0x68, // PLA
		0x68, // PLA
		0x68, // PLA
		0x68, // PLA
		0x68, // PLA
		0x68, // PLA
	})
	mem.stores = nil

	c := cpu.NewCPU(mem)
	c.SetPC(0x1000)
	c.Reg.SP = 0x00

	_, err := c.Run(13)
	require.NoError(t, err)

	require.NotEmpty(t, mem.stores)
	for _, addr := range mem.stores {
		assert.GreaterOrEqual(t, addr, uint16(0x0100))
		assert.LessOrEqual(t, addr, uint16(0x01ff))
	}
	assert.Equal(t, uint16(0x0100), mem.stores[0])
	assert.Equal(t, uint16(0x01ff), mem.stores[1])
	assert.Equal(t, byte(0x01), c.Reg.SP)
}

// Flags each instruction may change. Instructions not listed change none.
var flagsAffected = map[string]byte{
	"ADC": cpu.SignBit | cpu.OverflowBit | cpu.ZeroBit | cpu.CarryBit,
	"AND": cpu.SignBit | cpu.ZeroBit,
	"ASL": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"BIT": cpu.SignBit | cpu.OverflowBit | cpu.ZeroBit,
	"BRK": cpu.InterruptDisableBit,
	"CLC": cpu.CarryBit,
	"CLD": cpu.DecimalBit,
	"CLI": cpu.InterruptDisableBit,
	"CLV": cpu.OverflowBit,
	"CMP": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"CPX": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"CPY": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"DEC": cpu.SignBit | cpu.ZeroBit,
	"DEX": cpu.SignBit | cpu.ZeroBit,
	"DEY": cpu.SignBit | cpu.ZeroBit,
	"EOR": cpu.SignBit | cpu.ZeroBit,
	"INC": cpu.SignBit | cpu.ZeroBit,
	"INX": cpu.SignBit | cpu.ZeroBit,
	"INY": cpu.SignBit | cpu.ZeroBit,
	"LDA": cpu.SignBit | cpu.ZeroBit,
	"LDX": cpu.SignBit | cpu.ZeroBit,
	"LDY": cpu.SignBit | cpu.ZeroBit,
	"LSR": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"ORA": cpu.SignBit | cpu.ZeroBit,
	"PLA": cpu.SignBit | cpu.ZeroBit,
	"PLP": 0xff,
	"ROL": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"ROR": cpu.SignBit | cpu.ZeroBit | cpu.CarryBit,
	"RTI": 0xff,
	"SBC": cpu.SignBit | cpu.OverflowBit | cpu.ZeroBit | cpu.CarryBit,
	"SEC": cpu.CarryBit,
	"SED": cpu.DecimalBit,
	"SEI": cpu.InterruptDisableBit,
	"TAX": cpu.SignBit | cpu.ZeroBit,
	"TAY": cpu.SignBit | cpu.ZeroBit,
	"TSX": cpu.SignBit | cpu.ZeroBit,
	"TXA": cpu.SignBit | cpu.ZeroBit,
	"TYA": cpu.SignBit | cpu.ZeroBit,
}

func TestFlagNeutralInstructions(t *testing.T) {
	set := cpu.GetInstructionSet()
	flags := []byte{
		cpu.CarryBit, cpu.ZeroBit, cpu.InterruptDisableBit,
		cpu.DecimalBit, cpu.OverflowBit, cpu.SignBit,
	}

	for op := 0; op < 256; op++ {
		inst := set.Lookup(byte(op))
		if !inst.Valid() {
			continue
		}
		affected := flagsAffected[inst.Name]

		for _, ps := range []byte{0x00, 0xff} {
			for _, operand := range []byte{0x00, 0x80, 0xff} {
				c := loadCPU(t, 0x1000, byte(op), operand, operand)
				c.Reg.RestorePS(ps)
				c.Reg.A, c.Reg.X, c.Reg.Y = 0x80, 0x01, 0xff

				stepCPU(t, c, 1)

				after := c.Reg.SavePS(false)
				for _, f := range flags {
					if affected&f != 0 {
						continue
					}
					assert.Equal(t, ps&f, after&f,
						"%s ($%02X) changed flag $%02X (ps=$%02X operand=$%02X)",
						inst.Name, op, f, ps, operand)
				}
			}
		}
	}
}

// A nested loop that sums into page 3 and then traps on JMP *.
var loopProgram = []byte{
	0xa2, 0x00, // 0400 LDX #$00
	0xa0, 0x00, // 0402 LDY #$00
	0x18,             // 0404 CLC
	0x8a,             // 0405 TXA
	0x79, 0x00, 0x02, // 0406 ADC $0200,Y
	0x99, 0x00, 0x03, // 0409 STA $0300,Y
	0xc8,       // 040C INY
	0xd0, 0xf5, // 040D BNE $0404
	0xe8,       // 040F INX
	0xe0, 0x10, // 0410 CPX #$10
	0xd0, 0xee, // 0412 BNE $0402
	0x4c, 0x14, 0x04, // 0414 JMP $0414
}

const loopProgramCycles = 73860

// Run until the program counter stops moving, returning the total cycle
// count.
func runUntilTrap(c *cpu.CPU, limit int) (uint64, error) {
	var total uint64
	for i := 0; i < limit; i++ {
		n, err := c.Step()
		total += uint64(n)
		if err != nil {
			return total, err
		}
		if c.Reg.PC == c.LastPC {
			return total, nil
		}
	}
	return total, errors.New("no trap reached")
}

func runLoopProgram() (uint64, error) {
	mem := cpu.NewFlatMemory()
	mem.StoreBytes(0x0400, loopProgram)
	for i := 0; i < 256; i++ {
		mem.StoreByte(0x0200+uint16(i), byte(i))
	}
	c := cpu.NewCPU(mem)
	c.SetPC(0x0400)
	return runUntilTrap(c, 1_000_000)
}

func TestDeterministicCycles(t *testing.T) {
	first, err := runLoopProgram()
	require.NoError(t, err)
	assert.Equal(t, uint64(loopProgramCycles), first)

	second, err := runLoopProgram()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIndependentCPUsConcurrently(t *testing.T) {
	const workers = 8
	results := make([]uint64, workers)

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			n, err := runLoopProgram()
			results[i] = n
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, n := range results {
		assert.Equal(t, uint64(loopProgramCycles), n)
	}
}

// TestFunctionalROM runs Klaus Dormann's 6502_functional_test.bin when
// R6502_FUNCTIONAL_ROM names it. The image is loaded at $0000 and started
// at $0400, or at R6502_FUNCTIONAL_PC (hex) when set.
func TestFunctionalROM(t *testing.T) {
	filename := os.Getenv("R6502_FUNCTIONAL_ROM")
	if filename == "" {
		t.Skip("R6502_FUNCTIONAL_ROM not set")
	}

	start := uint16(0x0400)
	if s := os.Getenv("R6502_FUNCTIONAL_PC"); s != "" {
		v, err := strconv.ParseUint(s, 16, 16)
		require.NoError(t, err)
		start = uint16(v)
	}

	run := func() (uint64, uint16) {
		mem := cpu.NewFlatMemory()
		_, err := mem.LoadFile(0x0000, filename)
		require.NoError(t, err)

		c := cpu.NewCPU(mem)
		c.SetPC(start)
		cycles, err := runUntilTrap(c, 200_000_000)
		require.NoError(t, err)
		return cycles, c.Reg.PC
	}

	cycles1, pc1 := run()
	cycles2, pc2 := run()
	t.Logf("trapped at $%04X after %d cycles", pc1, cycles1)
	assert.Equal(t, cycles1, cycles2)
	assert.Equal(t, pc1, pc2)
}
