package usb

import (
	"encoding/binary"
	"unicode/utf16"
)

// String descriptors are referenced by index from other descriptors,
// never nested inside them. StringZero (index 0) lists the language IDs
// the device supports; every other string carries the language it is
// written in. Both are immutable after construction.

// maxStringDescLen is the largest value bLength can hold.
const maxStringDescLen = 0xFF

// StringZero is string descriptor zero: the device's language ID list.
type StringZero struct {
	langIDs []uint16
}

// NewStringZero constructs string descriptor zero from one or more
// language ID codes (e.g. 0x0409 for en-US). Panics if none are given.
func NewStringZero(langIDs ...uint16) *StringZero {
	assert(len(langIDs) > 0, "string zero needs at least one language id")
	ids := make([]uint16, len(langIDs))
	copy(ids, langIDs)
	s := &StringZero{langIDs: ids}
	assertf(s.Size() <= maxStringDescLen, "string zero with %d languages exceeds bLength", len(ids))
	return s
}

// Valid reports whether the descriptor holds at least one language ID.
func (s *StringZero) Valid() bool {
	return len(s.langIDs) > 0 && s.Size() <= maxStringDescLen
}

// LangIDCount returns the number of language ID codes.
func (s *StringZero) LangIDCount() int { return len(s.langIDs) }

// HasLangID reports whether the given language ID is listed.
func (s *StringZero) HasLangID(langID uint16) bool {
	for _, id := range s.langIDs {
		if id == langID {
			return true
		}
	}
	return false
}

// Size returns the wire size of the descriptor: bLength, type tag, and
// two bytes per language ID.
func (s *StringZero) Size() int { return 2 + 2*len(s.langIDs) }

// Send copies the descriptor's wire bytes into buf, language IDs
// little-endian. Panics if buf is shorter than Size. Returns the number
// of bytes written.
func (s *StringZero) Send(buf []byte) int {
	assert(s.Valid(), "malformed string descriptor zero")
	assertf(len(buf) >= s.Size(), "string zero buffer too small: %d < %d", len(buf), s.Size())
	buf[0] = uint8(s.Size())
	buf[1] = StringDescType
	for i, id := range s.langIDs {
		binary.LittleEndian.PutUint16(buf[2+2*i:], id)
	}
	return s.Size()
}

// String wraps one string descriptor: an immutable UTF-16 character
// sequence plus the language ID it is written in.
type String struct {
	link   link
	units  []uint16
	langID uint16
}

// NewString constructs a string descriptor from a UTF-8 literal,
// re-encoded as UTF-16. Panics if the text is empty or too long for the
// one-byte bLength field.
func NewString(text string, langID uint16) *String {
	assert(text != "", "empty string descriptor")
	s := &String{units: utf16.Encode([]rune(text)), langID: langID}
	assertf(s.Size() <= maxStringDescLen, "string %q exceeds bLength", text)
	return s
}

// Valid reports whether the string holds at least one character and
// fits the descriptor length field.
func (s *String) Valid() bool {
	return len(s.units) > 0 && s.Size() <= maxStringDescLen
}

// CharacterCount returns the number of UTF-16 code units. There is no
// terminating null; bLength covers characters only.
func (s *String) CharacterCount() int { return len(s.units) }

// LangID returns the language this string is written in.
func (s *String) LangID() uint16 { return s.langID }

// HasLangID reports whether the string is written in the given language.
func (s *String) HasLangID(langID uint16) bool { return s.langID == langID }

// Size returns the wire size of the descriptor: bLength, type tag, and
// two bytes per character.
func (s *String) Size() int { return 2 + 2*len(s.units) }

// Send copies the descriptor's wire bytes into buf, characters
// little-endian. Panics if buf is shorter than Size. Returns the number
// of bytes written.
func (s *String) Send(buf []byte) int {
	assert(s.Valid(), "malformed string descriptor")
	assertf(len(buf) >= s.Size(), "string buffer too small: %d < %d", len(buf), s.Size())
	buf[0] = uint8(s.Size())
	buf[1] = StringDescType
	for i, u := range s.units {
		binary.LittleEndian.PutUint16(buf[2+2*i:], u)
	}
	return s.Size()
}
