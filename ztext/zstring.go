package ztext

import (
	"encoding/binary"
	"fmt"

	"github.com/davetcode/goz/zmemory"
)

// maxAbbreviationDepth bounds abbreviation expansion recursion. The
// standard forbids an abbreviation string from itself referencing an
// abbreviation, so one level of nesting is already an error condition;
// the guard exists so a malformed story can't recurse unboundedly.
const maxAbbreviationDepth = 1

// Decode reads an encoded Z-string starting at addr and returns its
// decoded text plus the address immediately following the string (the
// first byte after the word with the high bit set). abbrTableBase of 0
// disables abbreviation expansion, used when decoding an abbreviation
// string itself.
func Decode(data []byte, addr uint32, version uint8, alphabets *Alphabets, abbrTableBase uint16) (string, uint32, error) {
	return decode(data, addr, version, alphabets, abbrTableBase, 0)
}

// DecodeMemory is the Memory-bound convenience wrapper used by the rest
// of the interpreter.
func DecodeMemory(mem *zmemory.Memory, addr uint32, alphabets *Alphabets) (string, uint32, error) {
	return Decode(mem.Raw(), addr, mem.Version, alphabets, mem.AbbreviationTableBase)
}

func decode(data []byte, addr uint32, version uint8, alphabets *Alphabets, abbrTableBase uint16, depth int) (string, uint32, error) {
	var zchars []uint8
	ptr := addr
	for {
		if int(ptr)+1 >= len(data) {
			return "", ptr, fmt.Errorf("ztext: unterminated string at %#x", addr)
		}
		word := binary.BigEndian.Uint16(data[ptr : ptr+2])
		ptr += 2
		zchars = append(zchars, uint8((word>>10)&0x1F), uint8((word>>5)&0x1F), uint8(word&0x1F))
		if word&0x8000 != 0 {
			break
		}
	}

	var out []rune
	baseAlphabet, currentAlphabet, nextAlphabet := 0, 0, 0

	for i := 0; i < len(zchars); i++ {
		zchr := zchars[i]
		currentAlphabet = nextAlphabet
		nextAlphabet = baseAlphabet

		switch zchr {
		case 0:
			out = append(out, ' ')
			continue
		case 1:
			if version == 1 {
				out = append(out, '\n')
				continue
			}
			if i+1 >= len(zchars) {
				return "", ptr, fmt.Errorf("ztext: truncated abbreviation reference")
			}
			i++
			if err := expandAbbreviation(data, version, alphabets, abbrTableBase, 1, zchars[i], depth, &out); err != nil {
				return "", ptr, err
			}
			continue
		case 2, 3:
			if version >= 3 {
				if i+1 >= len(zchars) {
					return "", ptr, fmt.Errorf("ztext: truncated abbreviation reference")
				}
				i++
				if err := expandAbbreviation(data, version, alphabets, abbrTableBase, zchr, zchars[i], depth, &out); err != nil {
					return "", ptr, err
				}
				continue
			}
			if zchr == 2 {
				nextAlphabet = (baseAlphabet + 1) % 3
			} else {
				nextAlphabet = (baseAlphabet + 2) % 3
			}
			continue
		case 4:
			if version >= 3 {
				nextAlphabet = (baseAlphabet + 1) % 3
			} else {
				baseAlphabet = (baseAlphabet + 1) % 3
				nextAlphabet = baseAlphabet
			}
			continue
		case 5:
			if version >= 3 {
				nextAlphabet = (baseAlphabet + 2) % 3
			} else {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			}
			continue
		}

		if currentAlphabet == 2 && zchr == 6 {
			if i+2 >= len(zchars) {
				return "", ptr, fmt.Errorf("ztext: truncated ZSCII escape")
			}
			zscii := zchars[i+1]<<5 | zchars[i+2]
			i += 2
			r, ok := asciiOrUnicode(zscii)
			if !ok {
				return "", ptr, fmt.Errorf("ztext: unmapped ZSCII escape code %d", zscii)
			}
			out = append(out, r)
			continue
		}

		var table *[26]uint8
		switch currentAlphabet {
		case 0:
			table = &alphabets.A0
		case 1:
			table = &alphabets.A1
		default:
			table = &alphabets.A2
		}
		if zchr < 6 || int(zchr)-6 >= len(table) {
			return "", ptr, fmt.Errorf("ztext: z-char %d out of alphabet range", zchr)
		}
		out = append(out, rune(table[zchr-6]))
	}

	return string(out), ptr, nil
}

func asciiOrUnicode(zscii uint8) (rune, bool) {
	if zscii >= 32 && zscii <= 126 {
		return rune(zscii), true
	}
	r, ok := DefaultUnicodeTranslationTable[zscii]
	return r, ok
}

func expandAbbreviation(data []byte, version uint8, alphabets *Alphabets, abbrTableBase uint16, z, x uint8, depth int, out *[]rune) error {
	if abbrTableBase == 0 {
		return fmt.Errorf("ztext: abbreviation reference inside an abbreviation string")
	}
	if depth >= maxAbbreviationDepth {
		return fmt.Errorf("ztext: abbreviation nesting exceeds depth %d", maxAbbreviationDepth)
	}
	abbrIx := 32*(uint16(z)-1) + uint16(x)
	entryAddr := uint32(abbrTableBase) + 2*uint32(abbrIx)
	if int(entryAddr)+1 >= len(data) {
		return fmt.Errorf("ztext: abbreviation index %d out of range", abbrIx)
	}
	strAddr := 2 * uint32(binary.BigEndian.Uint16(data[entryAddr:entryAddr+2]))
	str, _, err := decode(data, strAddr, version, alphabets, 0, depth+1)
	if err != nil {
		return err
	}
	*out = append(*out, []rune(str)...)
	return nil
}

// Encode packs runes into Z-characters for dictionary lookup/storage,
// padding or truncating to the version's fixed word count (2 words/6
// Z-chars for v1-3, 3 words/9 Z-chars for v4+).
func Encode(runes []rune, version uint8, alphabets *Alphabets) []byte {
	maxZChars := 6
	if version >= 4 {
		maxZChars = 9
	}

	zchars := make([]uint8, 0, maxZChars)
	for _, r := range runes {
		if len(zchars) >= maxZChars {
			break
		}
		zchars = append(zchars, encodeRune(r, version, alphabets)...)
	}
	for len(zchars) < maxZChars {
		zchars = append(zchars, 5)
	}
	zchars = zchars[:maxZChars]

	out := make([]byte, 0, maxZChars/3*2)
	for i := 0; i < maxZChars; i += 3 {
		word := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 >= maxZChars {
			word |= 0x8000
		}
		out = append(out, byte(word>>8), byte(word))
	}
	return out
}

// encodeRune returns the Z-char sequence for a single rune: a bare index
// into A0, a shift code followed by an A1 index, a shift code followed by
// an A2 index, or (for anything outside the three alphabets) the
// alphabet-2 "ZSCII escape" sequence shift, 6, top5, bottom5. The
// single-character shifts are 4 (A1) and 5 (A2) in v3+, and 2 and 3 in
// v1-2, where 4 and 5 are shift locks.
func encodeRune(r rune, version uint8, alphabets *Alphabets) []uint8 {
	shiftA1, shiftA2 := uint8(4), uint8(5)
	if version < 3 {
		shiftA1, shiftA2 = 2, 3
	}
	if r == ' ' {
		return []uint8{0}
	}
	if ix := indexOf(alphabets.A0, r); ix >= 0 {
		return []uint8{uint8(ix + 6)}
	}
	if ix := indexOf(alphabets.A1, r); ix >= 0 {
		return []uint8{shiftA1, uint8(ix + 6)}
	}
	if ix := indexOf(alphabets.A2, r); ix >= 0 {
		return []uint8{shiftA2, uint8(ix + 6)}
	}

	zscii := uint8('?')
	if r >= 32 && r <= 126 {
		zscii = uint8(r)
	} else {
		for code, ur := range DefaultUnicodeTranslationTable {
			if ur == r {
				zscii = code
				break
			}
		}
	}
	return []uint8{shiftA2, 6, zscii >> 5, zscii & 0x1F}
}

func indexOf(table [26]uint8, r rune) int {
	for i, c := range table {
		if rune(c) == r {
			return i
		}
	}
	return -1
}
