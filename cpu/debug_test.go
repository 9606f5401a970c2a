package cpu_test

import (
	"testing"

	"github.com/beevik/r6502/cpu"
	"github.com/stretchr/testify/assert"
)

type breakRecorder struct {
	breakpoints     []uint16
	dataBreakpoints []uint16
}

func (r *breakRecorder) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	r.breakpoints = append(r.breakpoints, b.Address)
}

func (r *breakRecorder) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	r.dataBreakpoints = append(r.dataBreakpoints, b.Address)
}

func TestBreakpoint(t *testing.T) {
	c := loadCPU(t, 0x1000, 0xea, 0xea, 0xea, 0xea)
	r := &breakRecorder{}
	d := cpu.NewDebugger(r)
	c.AttachDebugger(d)

	d.AddBreakpoint(0x1002)
	d.AddBreakpoint(0x1003).Disabled = true

	stepCPU(t, c, 1)
	assert.Empty(t, r.breakpoints)

	stepCPU(t, c, 2)
	assert.Equal(t, []uint16{0x1002}, r.breakpoints)

	d.RemoveBreakpoint(0x1002)
	assert.Nil(t, d.GetBreakpoint(0x1002))
	assert.NotNil(t, d.GetBreakpoint(0x1003))
}

func TestDataBreakpoint(t *testing.T) {
	c := loadCPU(t, 0x1000,
		0xa9, 0x01, // LDA #$01
		0x8d, 0x00, 0x20, // STA $2000
		0x8d, 0x01, 0x20, // STA $2001
		0xa9, 0x42, // LDA #$42
		0x8d, 0x01, 0x20, // STA $2001
	)
	r := &breakRecorder{}
	d := cpu.NewDebugger(r)
	c.AttachDebugger(d)

	d.AddDataBreakpoint(0x2000)
	b := d.AddConditionalDataBreakpoint(0x2001, 0x42)
	assert.True(t, b.Conditional)

	stepCPU(t, c, 3)
	assert.Equal(t, []uint16{0x2000}, r.dataBreakpoints)

	stepCPU(t, c, 2)
	assert.Equal(t, []uint16{0x2000, 0x2001}, r.dataBreakpoints)
	expectMem(t, c, 0x2001, 0x42)
}

func TestDetachDebugger(t *testing.T) {
	c := loadCPU(t, 0x1000, 0x8d, 0x00, 0x20, 0xea) // STA $2000; NOP
	r := &breakRecorder{}
	d := cpu.NewDebugger(r)
	c.AttachDebugger(d)
	d.AddBreakpoint(0x1003)
	d.AddDataBreakpoint(0x2000)
	c.DetachDebugger()

	stepCPU(t, c, 2)
	assert.Empty(t, r.breakpoints)
	assert.Empty(t, r.dataBreakpoints)
}

func TestBreakpointsSorted(t *testing.T) {
	d := cpu.NewDebugger(nil)
	for _, addr := range []uint16{0x3000, 0x1000, 0x2000} {
		d.AddBreakpoint(addr)
		d.AddDataBreakpoint(addr + 1)
	}

	var addrs []uint16
	for _, b := range d.GetBreakpoints() {
		addrs = append(addrs, b.Address)
	}
	assert.Equal(t, []uint16{0x1000, 0x2000, 0x3000}, addrs)

	addrs = addrs[:0]
	for _, b := range d.GetDataBreakpoints() {
		addrs = append(addrs, b.Address)
	}
	assert.Equal(t, []uint16{0x1001, 0x2001, 0x3001}, addrs)

	d.RemoveDataBreakpoint(0x2001)
	assert.Nil(t, d.GetDataBreakpoint(0x2001))
	assert.Len(t, d.GetDataBreakpoints(), 2)
}
