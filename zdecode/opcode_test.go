package zdecode_test

import (
	"encoding/binary"
	"testing"

	"github.com/davetcode/goz/zdecode"
	"github.com/davetcode/goz/zmemory"
)

func storyWithCode(t *testing.T, version uint8, code []byte) *zmemory.Memory {
	t.Helper()
	size := 0x40 + len(code) + 16
	b := make([]byte, size)
	b[0x00] = version
	binary.BigEndian.PutUint16(b[0x0E:0x10], uint16(size))
	copy(b[0x40:], code)
	mem, err := zmemory.Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mem
}

func TestDecodeShortForm1OP(t *testing.T) {
	// 0x8F = short form (10), large constant operand type (00), opcode 15 (not used meaningfully here)
	mem := storyWithCode(t, 3, []byte{0x8F, 0x12, 0x34})
	inst, nextPC, err := zdecode.Decode(mem, 0x40)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Form != zdecode.ShortForm {
		t.Fatalf("expected ShortForm, got %v", inst.Form)
	}
	if inst.Count != zdecode.OP1 {
		t.Fatalf("expected OP1, got %v", inst.Count)
	}
	if len(inst.Operands) != 1 || inst.Operands[0].Raw != 0x1234 {
		t.Fatalf("unexpected operands: %+v", inst.Operands)
	}
	if nextPC != 0x43 {
		t.Fatalf("expected nextPC 0x43, got %#x", nextPC)
	}
}

func TestDecodeLongForm2OP(t *testing.T) {
	// 0x00 = long form, both operands small constant, opcode 0
	mem := storyWithCode(t, 3, []byte{0x00, 0x05, 0x07})
	inst, nextPC, err := zdecode.Decode(mem, 0x40)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Form != zdecode.LongForm {
		t.Fatalf("expected LongForm, got %v", inst.Form)
	}
	if len(inst.Operands) != 2 || inst.Operands[0].Raw != 5 || inst.Operands[1].Raw != 7 {
		t.Fatalf("unexpected operands: %+v", inst.Operands)
	}
	if nextPC != 0x43 {
		t.Fatalf("expected nextPC 0x43, got %#x", nextPC)
	}
}

func TestDecodeVariableFormOperands(t *testing.T) {
	// 0xE0 = variable form (11), bit5=1 => VAR count, opcode 0
	// type byte 0b00_01_11_11 = large, small, omitted, omitted
	mem := storyWithCode(t, 3, []byte{0xE0, 0b00_01_11_11, 0x01, 0x02, 0x03})
	inst, _, err := zdecode.Decode(mem, 0x40)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Count != zdecode.VAR {
		t.Fatalf("expected VAR, got %v", inst.Count)
	}
	if len(inst.Operands) != 2 {
		t.Fatalf("expected 2 operands (rest omitted), got %d: %+v", len(inst.Operands), inst.Operands)
	}
	if inst.Operands[0].Raw != 0x0102 || inst.Operands[1].Raw != 0x03 {
		t.Fatalf("unexpected operand values: %+v", inst.Operands)
	}
}

func TestResolveVariablesAndConstants(t *testing.T) {
	operands := []zdecode.Operand{
		{Type: zdecode.SmallConstant, Raw: 9},
		{Type: zdecode.Variable, Raw: 16},
	}
	reads := map[uint8]uint16{16: 777}
	values, err := zdecode.Resolve(operands, func(v uint8) (uint16, error) {
		return reads[v], nil
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if values[0] != 9 || values[1] != 777 {
		t.Fatalf("unexpected resolved values: %+v", values)
	}
}

func TestReadBranchSingleByteOffset(t *testing.T) {
	mem := storyWithCode(t, 3, []byte{0xC5}) // bit7 set (on true), bit6 set (1 byte), offset 5
	br, nextPC, err := zdecode.ReadBranch(mem, 0x40)
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	if !br.OnTrue || br.Offset != 5 {
		t.Fatalf("unexpected branch: %+v", br)
	}
	if nextPC != 0x41 {
		t.Fatalf("expected nextPC 0x41, got %#x", nextPC)
	}
}

func TestReadBranchReturnSentinels(t *testing.T) {
	mem := storyWithCode(t, 3, []byte{0xC0}) // offset 0 => returns false
	br, _, err := zdecode.ReadBranch(mem, 0x40)
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	if !br.ReturnsFalse {
		t.Fatalf("expected ReturnsFalse, got %+v", br)
	}
}

func TestBranchRoundTripSingleByte(t *testing.T) {
	encoded := zdecode.EncodeBranch(true, 5)
	mem := storyWithCode(t, 3, encoded)
	br, nextPC, err := zdecode.ReadBranch(mem, 0x40)
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	if !br.OnTrue || br.Offset != 5 {
		t.Fatalf("unexpected branch: %+v", br)
	}
	if nextPC != 0x41 {
		t.Fatalf("expected nextPC 0x41, got %#x", nextPC)
	}
}

func TestBranchRoundTripTwoByte(t *testing.T) {
	encoded := zdecode.EncodeBranch(false, -200)
	mem := storyWithCode(t, 3, encoded)
	br, nextPC, err := zdecode.ReadBranch(mem, 0x40)
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	if br.OnTrue || br.Offset != -200 {
		t.Fatalf("unexpected branch: %+v", br)
	}
	if nextPC != 0x42 {
		t.Fatalf("expected nextPC 0x42, got %#x", nextPC)
	}
}
