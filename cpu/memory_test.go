package cpu_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/r6502/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatMemoryWrap(t *testing.T) {
	m := cpu.NewFlatMemory()
	m.StoreBytes(0xfffe, []byte{1, 2, 3, 4})

	assert.Equal(t, byte(1), m.LoadByte(0xfffe))
	assert.Equal(t, byte(2), m.LoadByte(0xffff))
	assert.Equal(t, byte(3), m.LoadByte(0x0000))
	assert.Equal(t, byte(4), m.LoadByte(0x0001))

	b := make([]byte, 4)
	m.LoadBytes(0xfffe, b)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)
}

func TestFlatMemoryReadFrom(t *testing.T) {
	m := cpu.NewFlatMemory()
	n, err := m.ReadFrom(0x0800, bytes.NewReader([]byte{0xa9, 0x01}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, byte(0xa9), m.LoadByte(0x0800))
	assert.Equal(t, byte(0x01), m.LoadByte(0x0801))
}

func TestFlatMemoryLoadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "prog.bin")
	require.NoError(t, os.WriteFile(filename, []byte{0xea, 0x00}, 0o600))

	m := cpu.NewFlatMemory()
	n, err := m.LoadFile(0xc000, filename)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, byte(0xea), m.LoadByte(0xc000))

	_, err = m.LoadFile(0, filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
