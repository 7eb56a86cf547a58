package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emblib/usbd/usb"
)

const langEnUS = 0x0409

func TestStringZero(t *testing.T) {
	s0 := usb.NewStringZero(langEnUS, 0x0407)

	assert.True(t, s0.Valid())
	assert.Equal(t, 2, s0.LangIDCount())
	assert.True(t, s0.HasLangID(langEnUS))
	assert.True(t, s0.HasLangID(0x0407))
	assert.False(t, s0.HasLangID(0x040C))
	assert.Equal(t, 6, s0.Size())

	buf := make([]byte, s0.Size())
	n := s0.Send(buf)
	require.Equal(t, 6, n)
	assert.Equal(t, []byte{6, 0x03, 0x09, 0x04, 0x07, 0x04}, buf)
}

func TestStringZeroEmpty(t *testing.T) {
	assert.Panics(t, func() { usb.NewStringZero() })
}

func TestStringRoundTrip(t *testing.T) {
	s := usb.NewString("ACME", langEnUS)

	assert.True(t, s.Valid())
	assert.Equal(t, 4, s.CharacterCount())
	assert.Equal(t, uint16(langEnUS), s.LangID())
	assert.True(t, s.HasLangID(langEnUS))
	assert.False(t, s.HasLangID(0x0407))
	// bLength covers header plus characters, no terminating null.
	assert.Equal(t, 10, s.Size())

	buf := make([]byte, s.Size())
	n := s.Send(buf)
	require.Equal(t, 10, n)
	assert.Equal(t, []byte{10, 0x03, 'A', 0, 'C', 0, 'M', 0, 'E', 0}, buf)
}

func TestStringNonASCII(t *testing.T) {
	// U+00E9 fits one UTF-16 code unit.
	s := usb.NewString("café", langEnUS)
	assert.Equal(t, 4, s.CharacterCount())

	buf := make([]byte, s.Size())
	s.Send(buf)
	assert.Equal(t, []byte{'c', 0, 'a', 0, 'f', 0, 0xE9, 0}, buf[2:])
}

func TestStringGuards(t *testing.T) {
	assert.Panics(t, func() { usb.NewString("", langEnUS) })

	s := usb.NewString("x", langEnUS)
	assert.Panics(t, func() { s.Send(make([]byte, s.Size()-1)) })
}
