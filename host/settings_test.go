package host

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsKind(t *testing.T) {
	s := newSettings()
	assert.Equal(t, reflect.Bool, s.Kind("hexmode"))
	assert.Equal(t, reflect.Bool, s.Kind("HEX"))
	assert.Equal(t, reflect.Int, s.Kind("disasm"))
	assert.Equal(t, reflect.Uint16, s.Kind("nextmem"))
	assert.Equal(t, reflect.Invalid, s.Kind("bogus"))
}

func TestSettingsSet(t *testing.T) {
	s := newSettings()

	require.NoError(t, s.Set("memdump", 128))
	assert.Equal(t, 128, s.MemDumpBytes)

	require.NoError(t, s.Set("nextdisasm", uint64(0xc000)))
	assert.Equal(t, uint16(0xc000), s.NextDisasmAddr)

	require.NoError(t, s.Set("stopontrap", false))
	assert.False(t, s.StopOnTrap)

	assert.ErrorIs(t, s.Set("hexmode", 1), errSettingType)
	assert.ErrorIs(t, s.Set("steplines", true), errSettingType)
	assert.Error(t, s.Set("bogus", 1))
}

func TestSettingsDisplay(t *testing.T) {
	var buf bytes.Buffer
	s := newSettings()
	s.NextMemDumpAddr = 0x1234
	s.Display(&buf)

	out := buf.String()
	assert.Contains(t, out, "StopOnTrap")
	assert.Contains(t, out, "$1234")
	assert.Contains(t, out, "(default number of lines to disassemble)")
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s       string
		hexMode bool
		bits    int
		v       uint64
		err     bool
	}{
		{"42", false, 16, 42, false},
		{"42", true, 16, 0x42, false},
		{"$ff", false, 8, 0xff, false},
		{"0x1234", false, 16, 0x1234, false},
		{"0X12", true, 16, 0x12, false},
		{"$100", false, 8, 0, true},
		{"ff", false, 16, 0, true},
		{"", false, 16, 0, true},
		{"$", false, 16, 0, true},
	}

	for _, tt := range tests {
		v, err := parseNumber(tt.s, tt.hexMode, tt.bits)
		if tt.err {
			assert.Error(t, err, tt.s)
			continue
		}
		assert.NoError(t, err, tt.s)
		assert.Equal(t, tt.v, v, tt.s)
	}
}

func TestStringToBool(t *testing.T) {
	for _, s := range []string{"1", "true", "ON"} {
		v, err := stringToBool(s)
		assert.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"0", "False", "off"} {
		v, err := stringToBool(s)
		assert.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := stringToBool("maybe")
	assert.Error(t, err)
}

func TestIndentWrap(t *testing.T) {
	s := indentWrap(3, "one two three")
	assert.Equal(t, "   one two three", s)

	long := indentWrap(2, "aaaa bbbb cccc dddd eeee ffff gggg hhhh iiii jjjj kkkk llll mmmm nnnn oooo pppp")
	for _, line := range bytes.Split([]byte(long), []byte("\n")) {
		assert.LessOrEqual(t, len(line), 76)
		assert.True(t, bytes.HasPrefix(line, []byte("  ")))
	}
}
