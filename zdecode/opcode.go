// Package zdecode implements Z-Machine instruction decoding: classifying
// an opcode byte into its form (long/short/variable/extended), reading
// its operands, and the shared trailing-field readers (store variable,
// branch offset) that many opcodes share. It knows nothing about what an
// opcode number *means* — that mapping lives in zcpu's dispatch table.
package zdecode

import (
	"fmt"

	"github.com/davetcode/goz/zmemory"
)

type OperandType uint8

const (
	LargeConstant OperandType = 0b00
	SmallConstant OperandType = 0b01
	Variable      OperandType = 0b10
	Omitted       OperandType = 0b11
)

type Form uint8

const (
	LongForm Form = iota
	ShortForm
	VarForm
	ExtForm
)

type OperandCount uint8

const (
	OP0 OperandCount = iota
	OP1
	OP2
	VAR
)

// Operand is an undecoded operand: its encoding type and raw 16-bit
// payload. A Variable-typed operand's Raw is the variable number (0 =
// stack, 1-15 = local, 16-255 = global), not yet resolved to a value.
type Operand struct {
	Type OperandType
	Raw  uint16
}

// Instruction is the structural decode of one opcode: its form, operand
// count class, opcode number within that class, and operands. The
// address immediately following the operands (where a store byte, branch
// offset, or inline text would begin, if this opcode has one) is
// returned alongside it by Decode.
type Instruction struct {
	Form         Form
	Count        OperandCount
	OpcodeNumber uint8
	Operands     []Operand
	PC           uint32 // address of the opcode byte itself
}

// Decode reads one instruction starting at pc and returns it along with
// the address of the first byte following its operands.
func Decode(mem *zmemory.Memory, pc uint32) (Instruction, uint32, error) {
	startPC := pc
	opcodeByte, err := mem.ReadByte(pc)
	if err != nil {
		return Instruction{}, pc, err
	}
	pc++

	inst := Instruction{PC: startPC}

	if opcodeByte == 0xBE && mem.Version >= 5 {
		extNumber, err := mem.ReadByte(pc)
		if err != nil {
			return Instruction{}, pc, err
		}
		pc++
		inst.Form = ExtForm
		inst.Count = VAR
		inst.OpcodeNumber = extNumber
		return decodeVariableOperands(mem, pc, &inst, false)
	}

	// Top two bits classify the form: 11 = variable, 10 = short,
	// 00/01 = long (bit 6 there is actually operand-type information,
	// not a form discriminator).
	switch opcodeByte >> 6 {
	case 0b11:
		inst.Form = VarForm
		inst.OpcodeNumber = opcodeByte & 0x1F
		if (opcodeByte>>5)&1 == 0 {
			inst.Count = OP2
		} else {
			inst.Count = VAR
		}
		doubleVar := inst.Count == VAR && (inst.OpcodeNumber == 12 || inst.OpcodeNumber == 26)
		return decodeVariableOperands(mem, pc, &inst, doubleVar)

	case 0b10:
		inst.Form = ShortForm
		inst.OpcodeNumber = opcodeByte & 0x0F
		operandType := OperandType((opcodeByte >> 4) & 0b11)
		switch operandType {
		case LargeConstant:
			v, err := mem.ReadWord(pc)
			if err != nil {
				return Instruction{}, pc, err
			}
			pc += 2
			inst.Operands = append(inst.Operands, Operand{Type: operandType, Raw: v})
			inst.Count = OP1
		case SmallConstant, Variable:
			v, err := mem.ReadByte(pc)
			if err != nil {
				return Instruction{}, pc, err
			}
			pc++
			inst.Operands = append(inst.Operands, Operand{Type: operandType, Raw: uint16(v)})
			inst.Count = OP1
		case Omitted:
			inst.Count = OP0
		}
		return inst, pc, nil

	default: // LongForm (opcodeByte>>6 == 0 or 1, i.e. top bit pair 00/01)
		inst.Form = LongForm
		inst.OpcodeNumber = opcodeByte & 0x1F
		inst.Count = OP2

		types := [2]OperandType{SmallConstant, SmallConstant}
		if (opcodeByte>>6)&1 == 1 {
			types[0] = Variable
		}
		if (opcodeByte>>5)&1 == 1 {
			types[1] = Variable
		}
		for _, t := range types {
			v, err := mem.ReadByte(pc)
			if err != nil {
				return Instruction{}, pc, err
			}
			pc++
			inst.Operands = append(inst.Operands, Operand{Type: t, Raw: uint16(v)})
		}
		return inst, pc, nil
	}
}

func decodeVariableOperands(mem *zmemory.Memory, pc uint32, inst *Instruction, doubleTypeByte bool) (Instruction, uint32, error) {
	typeByte, err := mem.ReadByte(pc)
	if err != nil {
		return Instruction{}, pc, err
	}
	pc++

	var typeByte2 uint8
	maxOperands := 4
	if doubleTypeByte {
		typeByte2, err = mem.ReadByte(pc)
		if err != nil {
			return Instruction{}, pc, err
		}
		pc++
		maxOperands = 8
	}

	for i := 0; i < maxOperands; i++ {
		var operandType OperandType
		if i < 4 {
			operandType = OperandType((typeByte >> uint(2*(3-i))) & 0b11)
		} else {
			operandType = OperandType((typeByte2 >> uint(2*(7-i))) & 0b11)
		}
		if operandType == Omitted {
			break
		}

		switch operandType {
		case LargeConstant:
			v, err := mem.ReadWord(pc)
			if err != nil {
				return Instruction{}, pc, err
			}
			pc += 2
			inst.Operands = append(inst.Operands, Operand{Type: operandType, Raw: v})
		case SmallConstant, Variable:
			v, err := mem.ReadByte(pc)
			if err != nil {
				return Instruction{}, pc, err
			}
			pc++
			inst.Operands = append(inst.Operands, Operand{Type: operandType, Raw: uint16(v)})
		default:
			return Instruction{}, pc, fmt.Errorf("zdecode: unexpected operand type %d", operandType)
		}
	}

	return *inst, pc, nil
}
