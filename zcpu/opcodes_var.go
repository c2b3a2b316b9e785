package zcpu

import (
	"context"
	"time"

	"github.com/davetcode/goz/zboundary"
	"github.com/davetcode/goz/zdecode"
	"github.com/davetcode/goz/zdict"
	"github.com/davetcode/goz/zobject"
	"github.com/davetcode/goz/ztable"
	"github.com/davetcode/goz/ztext"
)

func init() {
	registerVAR()
	registerEXT()
}

func registerVAR() {
	reg(classVAR, 0, "call", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], v[1:], false)
	})
	reg(classVAR, 1, "storew", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.Memory.WriteWord(uint32(v[0])+2*uint32(v[1]), v[2])
	})
	reg(classVAR, 2, "storeb", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.Memory.WriteByte(uint32(v[0])+uint32(v[1]), uint8(v[2]))
	})
	reg(classVAR, 3, "put_prop", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		obj, err := zobject.Get(c.Memory, v[0], c.Alphabets)
		if err != nil {
			return runtimeErr(inst.PC, "put_prop", err)
		}
		return obj.SetProperty(uint8(v[1]), v[2])
	})
	reg(classVAR, 4, "sread/aread", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		parseBuffer := uint16(0)
		if len(v) > 1 {
			parseBuffer = v[1]
		}
		return c.readLine(ctx, v[0], parseBuffer)
	})
	reg(classVAR, 5, "print_char", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.printChar(uint8(v[0]))
	})
	reg(classVAR, 6, "print_num", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.printNumber(int16(v[0]))
	})
	reg(classVAR, 7, "random", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		n := int16(v[0])
		switch {
		case n < 0:
			c.rng.Seed(int64(n))
			return c.store(0)
		case n == 0:
			c.rng.Seed(time.Now().UnixNano())
			return c.store(0)
		default:
			return c.store(uint16(c.rng.Int31n(int32(n))) + 1)
		}
	})
	reg(classVAR, 8, "push", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		frame, err := c.stack.Top()
		if err != nil {
			return err
		}
		frame.Push(v[0])
		return nil
	})
	reg(classVAR, 9, "pull", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		frame, err := c.stack.Top()
		if err != nil {
			return err
		}
		val, err := frame.Pop()
		if err != nil {
			return err
		}
		return c.writeVariableIndirect(uint8(v[0]), val)
	})
	reg(classVAR, 10, "split_window", 3, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		c.screen.UpperWindowHeight = int(v[0])
		if c.Screen != nil {
			c.Screen.SplitWindow(int(v[0]))
		}
		return nil
	})
	reg(classVAR, 11, "set_window", 3, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		c.screen.LowerWindowActive = v[0] == 0
		if c.Screen != nil {
			c.Screen.SetWindow(int(v[0]))
		}
		return nil
	})
	reg(classVAR, 12, "call_vs2", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], v[1:], false)
	})
	reg(classVAR, 13, "erase_window", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		window := int16(v[0])
		if window == -1 {
			c.screen.LowerWindowActive = true
			c.screen.UpperWindowHeight = 0
		}
		if c.Screen != nil {
			c.Screen.EraseWindow(int(window))
		}
		return nil
	})
	reg(classVAR, 14, "erase_line", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		if c.Screen != nil {
			c.Screen.EraseLine()
		}
		return nil
	})
	reg(classVAR, 15, "set_cursor", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		if !c.screen.LowerWindowActive {
			c.screen.UpperWindowCursorY = int(v[0])
			c.screen.UpperWindowCursorX = int(v[1])
		}
		if c.Screen != nil {
			c.Screen.SetCursor(int(v[0]), int(v[1]))
		}
		return nil
	})
	reg(classVAR, 16, "get_cursor", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		if err := c.Memory.WriteWord(uint32(v[0]), uint16(c.screen.UpperWindowCursorY)); err != nil {
			return err
		}
		return c.Memory.WriteWord(uint32(v[0])+2, uint16(c.screen.UpperWindowCursorX))
	})
	reg(classVAR, 17, "set_text_style", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		style := zboundary.TextStyle(v[0])
		if c.screen.LowerWindowActive {
			c.screen.LowerWindowTextStyle = style
		} else {
			c.screen.UpperWindowTextStyle = style
		}
		return nil
	})
	reg(classVAR, 18, "buffer_mode", 3, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		if c.Screen != nil {
			c.Screen.SetBufferMode(v[0] != 0)
		}
		return nil
	})
	reg(classVAR, 19, "output_stream", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.outputStream(int16(v[0]), v)
	})
	reg(classVAR, 20, "input_stream", 3, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		c.streams.CommandScript = v[0] != 0
		return nil
	})
	reg(classVAR, 21, "sound_effect", 3, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.soundEffect(v)
	})
	reg(classVAR, 22, "read_char", 4, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ch, err := c.readChar(ctx)
		if err != nil {
			return err
		}
		return c.store(uint16(ch))
	})
	reg(classVAR, 23, "scan_table", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		form := uint16(0x82)
		if len(v) == 4 {
			form = v[3]
		}
		addr, err := ztable.ScanTable(c.Memory, v[0], uint32(v[1]), v[2], form)
		if err != nil {
			return runtimeErr(inst.PC, "scan_table", err)
		}
		if err := c.store(uint16(addr)); err != nil {
			return err
		}
		return c.branch(addr != 0)
	})
	reg(classVAR, 24, "not", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.store(^v[0])
	})
	reg(classVAR, 25, "call_vn", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], v[1:], true)
	})
	reg(classVAR, 26, "call_vn2", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.call(v[0], v[1:], true)
	})
	reg(classVAR, 27, "tokenise", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		dict := c.Dictionary
		if len(v) > 2 && v[2] != 0 {
			custom, err := zdict.Parse(c.Memory, uint32(v[2]), c.Alphabets)
			if err != nil {
				return runtimeErr(inst.PC, "tokenise custom dictionary", err)
			}
			dict = custom
		}
		return c.tokenise(uint32(v[0]), uint32(v[1]), dict)
	})
	reg(classVAR, 28, "encode_text", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		textBuf, length, from, codedBuf := v[0], v[1], v[2], v[3]
		bytes, err := c.Memory.ReadSlice(uint32(textBuf)+uint32(from), uint32(textBuf)+uint32(from)+uint32(length))
		if err != nil {
			return runtimeErr(inst.PC, "encode_text", err)
		}
		encoded := ztext.Encode([]rune(string(bytes)), c.Memory.Version, c.Alphabets)
		for i, b := range encoded {
			if err := c.Memory.WriteByte(uint32(codedBuf)+uint32(i), b); err != nil {
				return err
			}
		}
		return nil
	})
	reg(classVAR, 29, "copy_table", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return ztable.CopyTable(c.Memory, uint32(v[0]), uint32(v[1]), int16(v[2]))
	})
	reg(classVAR, 30, "print_table", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		height := uint16(1)
		skip := uint16(0)
		if len(v) > 2 {
			height = v[2]
			if len(v) > 3 {
				skip = v[3]
			}
		}
		text, err := ztable.PrintTable(c.Memory, uint32(v[0]), v[1], height, skip)
		if err != nil {
			return runtimeErr(inst.PC, "print_table", err)
		}
		return c.appendText(text)
	})
	reg(classVAR, 31, "check_arg_count", 1, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		frame, err := c.stack.Top()
		if err != nil {
			return err
		}
		return c.branch(v[0] <= uint16(frame.ArgCount))
	})
}

func registerEXT() {
	reg(classEXT, 0x00, "save", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ok := c.saveGame(ctx)
		result := uint16(0)
		if ok {
			result = 1
		}
		return c.store(result)
	})
	reg(classEXT, 0x01, "restore", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ok := c.restoreGame(ctx)
		result := uint16(0)
		if ok {
			result = 2
		}
		return c.store(result)
	})
	reg(classEXT, 0x02, "log_shift", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		num, places := v[0], int16(v[1])
		var result uint16
		if places >= 0 {
			result = num << uint16(places)
		} else {
			result = num >> uint16(-places)
		}
		return c.store(result)
	})
	reg(classEXT, 0x03, "art_shift", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		num, places := int16(v[0]), int16(v[1])
		var result int16
		if places >= 0 {
			result = num << uint16(places)
		} else {
			result = num >> uint16(-places)
		}
		return c.store(uint16(result))
	})
	reg(classEXT, 0x09, "save_undo", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ok := c.saveUndo()
		result := uint16(0)
		if ok {
			result = 1
		}
		return c.store(result)
	})
	reg(classEXT, 0x0a, "restore_undo", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		ok := c.restoreUndo()
		result := uint16(0)
		if ok {
			result = 2
		}
		return c.store(result)
	})
	reg(classEXT, 0x0b, "print_unicode", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		return c.appendText(string(rune(v[0])))
	})
	reg(classEXT, 0x0c, "check_unicode", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		result := uint16(0)
		if v[0] != 0 {
			result = 0b11
		}
		return c.store(result)
	})
	reg(classEXT, 0x0d, "set_true_colour", 5, func(ctx context.Context, c *CPU, inst zdecode.Instruction, v []uint16) error {
		fg, bg := v[0], v[1]
		return c.setTrueColour(fg, bg)
	})
}

func (c *CPU) outputStream(stream int16, v []uint16) error {
	switch stream {
	case 1, -1:
		c.streams.Screen = stream > 0
	case 2, -2:
		c.streams.Transcript = stream > 0
	case 3:
		c.streams.Memory = true
		c.streams.MemoryStack = append(c.streams.MemoryStack, MemoryStream{
			BaseAddress: uint32(v[1]),
			Ptr:         uint32(v[1]) + 2,
		})
	case -3:
		if !c.streams.Memory {
			return nil
		}
		top := c.streams.MemoryStack[len(c.streams.MemoryStack)-1]
		if err := c.Memory.WriteWord(top.BaseAddress, uint16(top.Ptr-top.BaseAddress-2)); err != nil {
			return err
		}
		c.streams.MemoryStack = c.streams.MemoryStack[:len(c.streams.MemoryStack)-1]
		c.streams.Memory = len(c.streams.MemoryStack) > 0
	case 4, -4:
		c.streams.CommandScript = stream > 0
	}
	return nil
}

func (c *CPU) soundEffect(v []uint16) error {
	if c.Audio == nil {
		c.warnOnce("sound_effect_no_audio", "sound_effect called but no Audio boundary is wired up; ignoring")
		return nil
	}
	effect := v[0]
	op := uint16(2)
	if len(v) > 1 {
		op = v[1]
	}
	volume := uint8(8)
	repeats := uint8(0)
	if len(v) > 2 {
		volume = uint8(v[2] & 0xFF)
		repeats = uint8(v[2] >> 8)
	}
	switch op {
	case 2:
		return c.Audio.Play(effect, repeats, volume)
	case 3, 4:
		return c.Audio.Stop(effect)
	default:
		return nil
	}
}

func (c *CPU) printChar(zscii uint8) error {
	if zscii == 0 {
		return nil
	}
	if zscii < 128 {
		return c.appendText(string(rune(zscii)))
	}
	r, ok := ztext.ZsciiToUnicode(c.Memory, zscii)
	if !ok {
		return nil
	}
	return c.appendText(string(r))
}

// tokenise implements the tokenise opcode's text lexing: v1-4 text
// buffers are null-terminated starting at textAddr+1; v5+ buffers carry
// an explicit length byte at textAddr+1 and text starting at textAddr+2.
func (c *CPU) tokenise(textAddr, parseAddr uint32, dict *zdict.Dictionary) error {
	offset := 1
	var text string
	if c.Memory.Version >= 5 {
		offset = 2
		length, err := c.Memory.ReadByte(textAddr + 1)
		if err != nil {
			return err
		}
		bytes, err := c.Memory.ReadSlice(textAddr+2, textAddr+2+uint32(length))
		if err != nil {
			return err
		}
		text = string(bytes)
	} else {
		start := textAddr + 1
		end := start
		for {
			b, err := c.Memory.ReadByte(end)
			if err != nil {
				return err
			}
			if b == 0 {
				break
			}
			end++
		}
		bytes, err := c.Memory.ReadSlice(start, end)
		if err != nil {
			return err
		}
		text = string(bytes)
	}
	_, err := zdict.WriteParseBuffer(c.Memory, parseAddr, text, dict, c.Alphabets, offset)
	return err
}
