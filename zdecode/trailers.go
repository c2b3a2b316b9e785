package zdecode

import "github.com/davetcode/goz/zmemory"

// ReadStoreVariable reads the one-byte store-target variable number that
// follows the operands of any opcode defined to return a value.
func ReadStoreVariable(mem *zmemory.Memory, pc uint32) (uint8, uint32, error) {
	v, err := mem.ReadByte(pc)
	if err != nil {
		return 0, pc, err
	}
	return v, pc + 1, nil
}

// Branch describes a decoded branch-on-condition trailer: whether the
// branch fires when the preceding test was true or false, and the
// offset, which is either a return-value sentinel (0 = "return false", 1
// = "return true") or a signed displacement added to the post-branch PC.
type Branch struct {
	OnTrue       bool
	ReturnsFalse bool
	ReturnsTrue  bool
	Offset       int32
}

// ReadBranch reads a branch trailer: 1 byte if bit 6 of the first byte is
// set (giving a 6-bit unsigned offset), 2 bytes otherwise (a 14-bit
// signed offset, twos-complement across the low 14 bits of the pair).
func ReadBranch(mem *zmemory.Memory, pc uint32) (Branch, uint32, error) {
	b0, err := mem.ReadByte(pc)
	if err != nil {
		return Branch{}, pc, err
	}
	pc++

	br := Branch{OnTrue: b0&0x80 != 0}

	var offset int32
	if b0&0x40 != 0 {
		offset = int32(b0 & 0x3F)
	} else {
		b1, err := mem.ReadByte(pc)
		if err != nil {
			return Branch{}, pc, err
		}
		pc++
		raw := uint16(b0&0x3F)<<8 | uint16(b1)
		if raw&0x2000 != 0 {
			offset = int32(raw) - 0x4000
		} else {
			offset = int32(raw)
		}
	}

	switch offset {
	case 0:
		br.ReturnsFalse = true
	case 1:
		br.ReturnsTrue = true
	default:
		br.Offset = offset
	}

	return br, pc, nil
}

// EncodeBranch returns the branch trailer bytes for sense and offset: the
// 1-byte form (bit 6 set) when offset fits in 6 unsigned bits, the 2-byte
// form (14-bit signed, twos-complement across the low 14 bits of the
// pair) otherwise. offset 0 and 1 are the "return false"/"return true"
// sentinels and always fit the 1-byte form.
func EncodeBranch(sense bool, offset int32) []byte {
	var b0 uint8
	if sense {
		b0 |= 0x80
	}

	if offset >= 0 && offset <= 0x3F {
		b0 |= 0x40 | uint8(offset)
		return []byte{b0}
	}

	raw := uint16(offset) & 0x3FFF
	b0 |= uint8(raw >> 8)
	b1 := uint8(raw)
	return []byte{b0, b1}
}

// TargetPC computes the destination PC of a taken branch that isn't one
// of the return-value sentinels, given the PC immediately following the
// branch trailer (per the standard's "offset is added to PC after
// branch data, minus 2" rule).
func (b Branch) TargetPC(pcAfterBranch uint32) uint32 {
	return uint32(int64(pcAfterBranch) + int64(b.Offset) - 2)
}
