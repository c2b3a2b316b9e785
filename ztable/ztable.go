// Package ztable implements the Z-Machine's generic table opcodes:
// scan_table's linear search, copy_table's (possibly overlap-safe) block
// move, and print_table's row/column text layout.
package ztable

import (
	"strings"

	"github.com/davetcode/goz/zmemory"
)

// PrintTable renders a width x height block of ASCII text starting at
// baddr, skipping skip bytes between the end of one row and the start of
// the next (used for print_table's optional third/fourth operands).
func PrintTable(mem *zmemory.Memory, baddr uint32, width, height, skip uint16) (string, error) {
	var s strings.Builder
	for row := uint16(0); row < height; row++ {
		if row != 0 {
			s.WriteByte('\n')
		}
		rowStart := baddr + uint32(row)*(uint32(width)+uint32(skip))
		line, err := mem.ReadSlice(rowStart, rowStart+uint32(width))
		if err != nil {
			return "", err
		}
		s.Write(line)
	}
	return s.String(), nil
}

// ScanTable searches length entries of form's field size (low 7 bits;
// bit 7 set means 2-byte fields, clear means 1-byte) starting at baddr
// for test, returning the address of the first match or 0.
func ScanTable(mem *zmemory.Memory, test uint16, baddr uint32, length uint16, form uint16) (uint32, error) {
	fieldSize := form & 0x7F
	wordField := form&0x80 != 0
	if fieldSize == 0 {
		return 0, nil
	}

	ptr := baddr
	for i := uint16(0); i < length; i++ {
		if wordField {
			v, err := mem.ReadWord(ptr)
			if err != nil {
				return 0, err
			}
			if v == test {
				return ptr, nil
			}
		} else {
			v, err := mem.ReadByte(ptr)
			if err != nil {
				return 0, err
			}
			if uint16(v) == test {
				return ptr, nil
			}
		}
		ptr += uint32(fieldSize)
	}
	return 0, nil
}

// CopyTable moves size bytes from first to second. A negative size
// permits overlap-unsafe byte-by-byte copying (the standard's "copy
// forwards, corruption allowed" mode); a non-negative size copies via an
// intermediate buffer so overlapping ranges behave as if first were
// copied atomically. second == 0 zero-fills first instead of copying.
func CopyTable(mem *zmemory.Memory, first, second uint32, size int16) error {
	n := uint32(size)
	if size < 0 {
		n = uint32(-int32(size))
	}

	switch {
	case second == 0:
		for i := uint32(0); i < n; i++ {
			if err := mem.WriteByte(first+i, 0); err != nil {
				return err
			}
		}
	case size >= 0:
		tmp, err := mem.ReadSlice(first, first+n)
		if err != nil {
			return err
		}
		buf := append([]byte(nil), tmp...)
		for i := uint32(0); i < n; i++ {
			if err := mem.WriteByte(second+i, buf[i]); err != nil {
				return err
			}
		}
	default:
		for i := uint32(0); i < n; i++ {
			v, err := mem.ReadByte(first + i)
			if err != nil {
				return err
			}
			if err := mem.WriteByte(second+i, v); err != nil {
				return err
			}
		}
	}
	return nil
}
