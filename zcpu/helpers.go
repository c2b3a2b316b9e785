package zcpu

import (
	"context"

	"github.com/davetcode/goz/zboundary"
	"github.com/davetcode/goz/zstack"
	"github.com/davetcode/goz/ztext"
)

// zdecodeText decodes the inline Z-string immediately following the
// current instruction (print/print_ret's operand-less payload) and
// returns the address just past it.
func zdecodeText(c *CPU) (string, uint32, error) {
	return ztext.DecodeMemory(c.Memory, c.pc, c.Alphabets)
}

func decodeStringAt(c *CPU, addr uint32) (string, error) {
	text, _, err := ztext.DecodeMemory(c.Memory, addr, c.Alphabets)
	return text, err
}

// setColour resolves the two Z-machine colour-number operands against the
// current window's palette and pushes the result to the Screen boundary.
func (c *CPU) setColour(foreground, background uint16) error {
	fg := c.screen.NewZMachineColor(foreground, true)
	bg := c.screen.NewZMachineColor(background, false)

	if c.screen.LowerWindowActive {
		c.screen.LowerWindowForeground = fg
		c.screen.LowerWindowBackground = bg
	} else {
		c.screen.UpperWindowForeground = fg
		c.screen.UpperWindowBackground = bg
	}
	if c.Screen != nil {
		c.Screen.SetColour(fg, bg)
	}
	return nil
}

// trueColour decodes a set_true_colour 15-bit operand: 5 bits per channel,
// red/green/blue packed low-to-high (red in bits 0-4, blue in bits 10-14),
// or the sentinels -1 (current) and -2 (default).
func trueColour(model *zboundary.ScreenModel, raw uint16, isForeground bool) zboundary.Color {
	switch int16(raw) {
	case -1:
		if model.LowerWindowActive {
			if isForeground {
				return model.LowerWindowForeground
			}
			return model.LowerWindowBackground
		}
		if isForeground {
			return model.UpperWindowForeground
		}
		return model.UpperWindowBackground
	case -2:
		return model.NewZMachineColor(1, isForeground)
	default:
		r := int(raw&0x1F) * 255 / 31
		g := int((raw>>5)&0x1F) * 255 / 31
		b := int((raw>>10)&0x1F) * 255 / 31
		return zboundary.NewColor(r, g, b)
	}
}

func (c *CPU) setTrueColour(foreground, background uint16) error {
	fg := trueColour(&c.screen, foreground, true)
	bg := trueColour(&c.screen, background, false)
	if c.screen.LowerWindowActive {
		c.screen.LowerWindowForeground = fg
		c.screen.LowerWindowBackground = bg
	} else {
		c.screen.UpperWindowForeground = fg
		c.screen.UpperWindowBackground = bg
	}
	if c.Screen != nil {
		c.Screen.SetColour(fg, bg)
	}
	return nil
}

// doThrow unwinds the call stack to (and including) the frame that
// executed the matching "catch", then delivers value to that frame's
// caller exactly as a normal return would.
func (c *CPU) doThrow(catchFrame int, value uint16) error {
	target, err := c.stack.FrameAt(catchFrame)
	if err != nil {
		return err
	}
	saved := *target
	if err := c.stack.Throw(catchFrame); err != nil {
		return err
	}
	c.pc = saved.ReturnPC
	if saved.IsProcedure {
		return nil
	}
	return c.store(value)
}

// snapshot captures the state a Quetzal save needs: dynamic memory, the
// full call stack, and the resume PC (the address of the save
// instruction's own store byte / branch trailer, so after a restore the
// restore opcode's result is delivered through that trailer).
func (c *CPU) snapshot() SaveState {
	dyn := append([]byte(nil), c.Memory.Dynamic()...)
	return SaveState{DynamicMemory: dyn, Stack: c.stack.Clone(), PC: c.pc}
}

func (c *CPU) restoreSnapshot(s SaveState) error {
	if err := c.Memory.RestoreDynamic(s.DynamicMemory); err != nil {
		return err
	}
	c.stack = s.Stack
	c.pc = s.PC
	return nil
}

func (c *CPU) saveGame(ctx context.Context) bool {
	if c.Quetzal == nil || c.Filesystem == nil {
		return false
	}
	data, err := c.Quetzal.Encode(c.snapshot())
	if err != nil {
		return false
	}
	c.state = AwaitingFileDialog
	err = c.Filesystem.SaveGame(ctx, data)
	c.state = Running
	return err == nil
}

func (c *CPU) restoreGame(ctx context.Context) bool {
	if c.Quetzal == nil || c.Filesystem == nil {
		return false
	}
	c.state = AwaitingFileDialog
	data, err := c.Filesystem.RestoreGame(ctx)
	c.state = Running
	if err != nil {
		return false
	}
	state, err := c.Quetzal.Decode(data)
	if err != nil {
		return false
	}
	return c.restoreSnapshot(state) == nil
}

// saveUndo/restoreUndo back the save_undo/restore_undo opcodes with an
// in-process stack of SaveState snapshots, at most UndoDepth deep (the
// oldest is dropped first). The snapshots are kept as values and are not
// passed through the Quetzal encoder; undo never touches the filesystem.
// saveUndo still reports failure when no Quetzal codec is configured.
func (c *CPU) saveUndo() bool {
	if c.Quetzal == nil {
		return false
	}
	depth := c.UndoDepth
	if depth <= 0 {
		depth = defaultUndoDepth
	}
	if len(c.undo) >= depth {
		c.undo = c.undo[1:]
	}
	c.undo = append(c.undo, c.snapshot())
	return true
}

func (c *CPU) restoreUndo() bool {
	if len(c.undo) == 0 {
		return false
	}
	state := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	return c.restoreSnapshot(state) == nil
}

func (c *CPU) restart() error {
	if err := c.Memory.RestoreDynamic(append([]byte(nil), c.Memory.PristineDynamic()...)); err != nil {
		return err
	}
	c.stack = zstack.CallStack{}
	c.stack.Push(zstack.Frame{IsProcedure: true})
	c.pc = uint32(c.Memory.InitialPC)
	c.streams = Streams{Screen: true}
	return nil
}
