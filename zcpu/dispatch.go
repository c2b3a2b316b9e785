package zcpu

import (
	"context"
	"fmt"

	"github.com/davetcode/goz/zdecode"
	"github.com/davetcode/goz/zobject"
)

type handlerFunc func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error

type opcodeDef struct {
	name       string
	minVersion uint8
	handler    handlerFunc
}

// class indexes the dispatch table's first dimension: the four operand-
// count forms plus the extended (0xBE-prefixed, v5+) form, which carries
// its own independent opcode numbering.
type class int

const (
	class0OP class = iota
	class1OP
	class2OP
	classVAR
	classEXT
	classCount
)

var dispatchTable [classCount][32]*opcodeDef

func reg(cl class, number uint8, name string, minVersion uint8, fn handlerFunc) {
	dispatchTable[cl][number] = &opcodeDef{name: name, minVersion: minVersion, handler: fn}
}

func (c *CPU) lookup(inst zdecode.Instruction) *opcodeDef {
	cl := class2OP
	switch {
	case inst.Form == zdecode.ExtForm:
		cl = classEXT
	case inst.Count == zdecode.OP0:
		cl = class0OP
	case inst.Count == zdecode.OP1:
		cl = class1OP
	case inst.Count == zdecode.OP2:
		cl = class2OP
	default:
		cl = classVAR
	}
	if int(inst.OpcodeNumber) >= 32 {
		return nil
	}
	return dispatchTable[cl][inst.OpcodeNumber]
}

func init() {
	register0OP()
	register1OP()
	register2OP()
}

func register0OP() {
	reg(class0OP, 0, "rtrue", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.doReturn(1)
	})
	reg(class0OP, 1, "rfalse", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.doReturn(0)
	})
	reg(class0OP, 2, "print", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		text, next, err := zdecodeText(c)
		if err != nil {
			return err
		}
		c.pc = next
		return c.appendText(text)
	})
	reg(class0OP, 3, "print_ret", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		text, next, err := zdecodeText(c)
		if err != nil {
			return err
		}
		c.pc = next
		if err := c.appendText(text + "\n"); err != nil {
			return err
		}
		return c.doReturn(1)
	})
	reg(class0OP, 4, "nop", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return nil
	})
	reg(class0OP, 5, "save", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ok := c.saveGame(ctx)
		if c.Memory.Version <= 3 {
			return c.branch(ok)
		}
		result := uint16(0)
		if ok {
			result = 1
		}
		return c.store(result)
	})
	reg(class0OP, 6, "restore", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ok := c.restoreGame(ctx)
		if c.Memory.Version <= 3 {
			return c.branch(ok)
		}
		result := uint16(0)
		if ok {
			result = 2
		}
		return c.store(result)
	})
	reg(class0OP, 7, "restart", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.restart()
	})
	reg(class0OP, 8, "ret_popped", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		frame, err := c.stack.Top()
		if err != nil {
			return err
		}
		val, err := frame.Pop()
		if err != nil {
			return err
		}
		return c.doReturn(val)
	})
	reg(class0OP, 9, "pop/catch", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		if c.Memory.Version < 5 {
			frame, err := c.stack.Top()
			if err != nil {
				return err
			}
			_, err = frame.Pop()
			return err
		}
		return c.store(uint16(c.stack.Depth() - 1))
	})
	reg(class0OP, 10, "quit", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		c.state = Halted
		return nil
	})
	reg(class0OP, 11, "new_line", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.appendText("\n")
	})
	reg(class0OP, 12, "show_status", 3, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return nil // status line is redrawn on every sread in this implementation
	})
	reg(class0OP, 13, "verify", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.branch(c.Memory.Checksum() == c.Memory.FileChecksum)
	})
	reg(class0OP, 15, "piracy", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.branch(true) // interpreters are asked to be gullible
	})
}

func register1OP() {
	reg(class1OP, 0, "jz", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.branch(v[0] == 0)
	})
	reg(class1OP, 1, "get_sibling", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "get_sibling", err)
		}
		if err := c.store(obj.Sibling); err != nil {
			return err
		}
		return c.branch(obj.Sibling != 0)
	})
	reg(class1OP, 2, "get_child", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "get_child", err)
		}
		if err := c.store(obj.Child); err != nil {
			return err
		}
		return c.branch(obj.Child != 0)
	})
	reg(class1OP, 3, "get_parent", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "get_parent", err)
		}
		return c.store(obj.Parent)
	})
	reg(class1OP, 4, "get_prop_len", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		length, err := zobject.PropertyLength(c.Memory, uint32(v[0]))
		if err != nil {
			return runtimeErr(inst.PC, "get_prop_len", err)
		}
		return c.store(length)
	})
	reg(class1OP, 5, "inc", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		variable := uint8(v[0])
		val, err := c.readVariableIndirect(variable)
		if err != nil {
			return err
		}
		return c.writeVariableIndirect(variable, val+1)
	})
	reg(class1OP, 6, "dec", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		variable := uint8(v[0])
		val, err := c.readVariableIndirect(variable)
		if err != nil {
			return err
		}
		return c.writeVariableIndirect(variable, val-1)
	})
	reg(class1OP, 7, "print_addr", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		text, err := decodeStringAt(c, uint32(v[0]))
		if err != nil {
			return runtimeErr(inst.PC, "print_addr", err)
		}
		return c.appendText(text)
	})
	reg(class1OP, 8, "call_1s", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], nil, false)
	})
	reg(class1OP, 9, "remove_obj", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "remove_obj", err)
		}
		return zobject.Remove(c.Memory, c.Alphabets, obj)
	})
	reg(class1OP, 10, "print_obj", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "print_obj", err)
		}
		return c.appendText(obj.Name)
	})
	reg(class1OP, 11, "ret", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.doReturn(v[0])
	})
	reg(class1OP, 12, "jump", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		offset := int16(v[0])
		c.pc = uint32(int32(c.pc) + int32(offset) - 2)
		return nil
	})
	reg(class1OP, 13, "print_paddr", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		text, err := decodeStringAt(c, c.Memory.PackedAddress(v[0]))
		if err != nil {
			return runtimeErr(inst.PC, "print_paddr", err)
		}
		return c.appendText(text)
	})
	reg(class1OP, 14, "load", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		val, err := c.readVariableIndirect(uint8(v[0]))
		if err != nil {
			return err
		}
		return c.store(val)
	})
	reg(class1OP, 15, "not/call_1n", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		if c.Memory.Version < 5 {
			return c.store(^v[0])
		}
		return c.call(v[0], nil, true)
	})
}

func register2OP() {
	reg(class2OP, 1, "je", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		for _, b := range v[1:] {
			if v[0] == b {
				return c.branch(true)
			}
		}
		return c.branch(false)
	})
	reg(class2OP, 2, "jl", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.branch(int16(v[0]) < int16(v[1]))
	})
	reg(class2OP, 3, "jg", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.branch(int16(v[0]) > int16(v[1]))
	})
	reg(class2OP, 4, "dec_chk", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		variable := uint8(v[0])
		cur, err := c.readVariableIndirect(variable)
		if err != nil {
			return err
		}
		newVal := int16(cur) - 1
		if err := c.writeVariableIndirect(variable, uint16(newVal)); err != nil {
			return err
		}
		return c.branch(newVal < int16(v[1]))
	})
	reg(class2OP, 5, "inc_chk", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		variable := uint8(v[0])
		cur, err := c.readVariableIndirect(variable)
		if err != nil {
			return err
		}
		newVal := int16(cur) + 1
		if err := c.writeVariableIndirect(variable, uint16(newVal)); err != nil {
			return err
		}
		return c.branch(newVal > int16(v[1]))
	})
	reg(class2OP, 6, "jin", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "jin", err)
		}
		return c.branch(obj.Parent == v[1])
	})
	reg(class2OP, 7, "test", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.branch(v[0]&v[1] == v[1])
	})
	reg(class2OP, 8, "or", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.store(v[0] | v[1])
	})
	reg(class2OP, 9, "and", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.store(v[0] & v[1])
	})
	reg(class2OP, 10, "test_attr", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "test_attr", err)
		}
		return c.branch(obj.TestAttribute(v[1]))
	})
	reg(class2OP, 11, "set_attr", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "set_attr", err)
		}
		return obj.SetAttribute(v[1])
	})
	reg(class2OP, 12, "clear_attr", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "clear_attr", err)
		}
		return obj.ClearAttribute(v[1])
	})
	reg(class2OP, 13, "store", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.writeVariableIndirect(uint8(v[0]), v[1])
	})
	reg(class2OP, 14, "insert_obj", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "insert_obj", err)
		}
		dest, err := zobject.Get(c.Memory, v[1], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "insert_obj", err)
		}
		return zobject.Move(c.Memory, c.Alphabets, obj, dest)
	})
	reg(class2OP, 15, "loadw", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		val, err := c.Memory.ReadWord(uint32(v[0]) + 2*uint32(v[1]))
		if err != nil {
			return runtimeErr(inst.PC, "loadw", err)
		}
		return c.store(val)
	})
	reg(class2OP, 16, "loadb", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		val, err := c.Memory.ReadByte(uint32(v[0]) + uint32(v[1]))
		if err != nil {
			return runtimeErr(inst.PC, "loadb", err)
		}
		return c.store(uint16(val))
	})
	reg(class2OP, 17, "get_prop", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "get_prop", err)
		}
		prop, err := obj.Property(uint8(v[1]))
		if err != nil {
			return runtimeErr(inst.PC, "get_prop", err)
		}
		if prop.DataAddress == 0 {
			def, err := zobject.PropertyDefault(c.Memory, uint8(v[1]))
			if err != nil {
				return runtimeErr(inst.PC, "get_prop default", err)
			}
			return c.store(def)
		}
		data, err := prop.Data(c.Memory)
		if err != nil {
			return runtimeErr(inst.PC, "get_prop data", err)
		}
		value := uint16(data[0])
		if len(data) == 2 {
			value = uint16(data[0])<<8 | uint16(data[1])
		} else if len(data) > 2 {
			return runtimeErr(inst.PC, "get_prop", fmt.Errorf("property %d on object %d has length %d", v[1], v[0], len(data)))
		}
		return c.store(value)
	})
	reg(class2OP, 18, "get_prop_addr", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "get_prop_addr", err)
		}
		addr, err := obj.PropertyAddress(uint8(v[1]))
		if err != nil {
			return runtimeErr(inst.PC, "get_prop_addr", err)
		}
		return c.store(uint16(addr))
	})
	reg(class2OP, 19, "get_next_prop", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "get_next_prop", err)
		}
		next, err := obj.NextProperty(uint8(v[1]))
		if err != nil {
			return runtimeErr(inst.PC, "get_next_prop", err)
		}
		return c.store(uint16(next))
	})
	reg(class2OP, 20, "add", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.store(v[0] + v[1])
	})
	reg(class2OP, 21, "sub", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.store(v[0] - v[1])
	})
	reg(class2OP, 22, "mul", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.store(v[0] * v[1])
	})
	reg(class2OP, 23, "div", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		denom := int16(v[1])
		if denom == 0 {
			return runtimeErr(inst.PC, "div", fmt.Errorf("division by zero"))
		}
		return c.store(uint16(int16(v[0]) / denom))
	})
	reg(class2OP, 24, "mod", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		denom := int16(v[1])
		if denom == 0 {
			return runtimeErr(inst.PC, "mod", fmt.Errorf("division by zero"))
		}
		return c.store(uint16(int16(v[0]) % denom))
	})
	reg(class2OP, 25, "call_2s", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], v[1:], false)
	})
	reg(class2OP, 26, "call_2n", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], v[1:], true)
	})
	reg(class2OP, 27, "set_colour", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.setColour(v[0], v[1])
	})
	reg(class2OP, 28, "throw", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.doThrow(int(v[1]), v[0])
	})
}
