// Package ztext implements the Z-character text codec: bit-unpacking
// 16-bit words into 5-bit Z-characters, mapping those through the three
// alphabets (with shift/shift-lock and abbreviation handling that differs
// between v1, v2, and v3+), and translating ZSCII to/from Unicode.
package ztext

import "github.com/davetcode/goz/zmemory"

// Alphabets holds the three 26-entry alphabet tables used to map a Z-char
// in [6,31] to a ZSCII code. Index 0 of each table corresponds to Z-char 6
// - for A0/A1 a real character, for A2 a dead slot since z-char 6 there is
// always the 10-bit ZSCII escape instead of a table lookup.
type Alphabets struct {
	A0 [26]uint8
	A1 [26]uint8
	A2 [26]uint8
}

var a0Default = [26]uint8{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]uint8{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}

// a2Default is A2 for v1-v4: index 0 is a dead slot (z-char 6 in alphabet
// 2 is always intercepted as the 10-bit ZSCII escape before this table is
// consulted - see zstring.go), the real 25 characters fill indices 1-25.
var a2Default = [26]uint8{0, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}

// a2V5 is A2 for v5+: same dead slot at index 0 (only ever overwritten
// with the literal-newline escape, never read directly), but the 25
// real characters drop '<' and gain a leading '\n'.
var a2V5 = [26]uint8{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

// DefaultAlphabets returns the standard alphabet set for the given story
// version.
func DefaultAlphabets(version uint8) *Alphabets {
	a2 := a2Default
	if version >= 5 {
		a2 = a2V5
	}
	return &Alphabets{A0: a0Default, A1: a1Default, A2: a2}
}

// LoadAlphabets returns the story's alphabet set: the custom table at the
// header's alphabet-table address (v5+, when non-zero), or the defaults
// otherwise.
func LoadAlphabets(mem *zmemory.Memory) (*Alphabets, error) {
	if mem.Version < 5 || mem.AlphabetTableBase == 0 {
		return DefaultAlphabets(mem.Version), nil
	}

	alphabets := &Alphabets{}
	base := uint32(mem.AlphabetTableBase)
	raw, err := mem.ReadSlice(base, base+78)
	if err != nil {
		return nil, err
	}
	copy(alphabets.A0[:], raw[0:26])
	copy(alphabets.A1[:], raw[26:52])
	copy(alphabets.A2[:], raw[52:78])
	// A2[0] is never read (z-char 6 in alphabet 2 is always the ZSCII
	// escape), whatever byte the story puts there is kept as-is.
	return alphabets, nil
}
