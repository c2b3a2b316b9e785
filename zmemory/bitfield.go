// Package zmemory implements the Z-Machine's segmented address space: the
// dynamic/static/high memory regions, the mutable header with its per-field
// write authorization table, and the three address-encoding schemes.
package zmemory

// Bitfield is a pure value type over a 16-bit word. Bit 0 is the least
// significant bit, bit 15 the most significant; words are big-endian on the
// wire but the bit numbering here is independent of byte order.
type Bitfield uint16

// Get returns the bit at index i (0 = LSB).
func (b Bitfield) Get(i int) bool {
	return b&(1<<uint(i)) != 0
}

// Set returns a copy of b with bit i set to v.
func (b Bitfield) Set(i int, v bool) Bitfield {
	if v {
		return b | (1 << uint(i))
	}
	return b &^ (1 << uint(i))
}

// GetRange returns the bits [lo, hi] (inclusive, lo <= hi) right-aligned in
// the result.
func (b Bitfield) GetRange(lo, hi int) uint16 {
	width := hi - lo + 1
	mask := uint16(1)<<uint(width) - 1
	return (uint16(b) >> uint(lo)) & mask
}

// SetRange returns a copy of b with bits [lo, hi] replaced by the low
// (hi-lo+1) bits of v.
func (b Bitfield) SetRange(lo, hi int, v uint16) Bitfield {
	width := hi - lo + 1
	mask := uint16(1)<<uint(width) - 1
	cleared := uint16(b) &^ (mask << uint(lo))
	return Bitfield(cleared | (v&mask)<<uint(lo))
}
