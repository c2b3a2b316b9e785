// Package zcpu implements the Z-Machine CPU: the fetch-decode-execute
// loop, the variable/stack model, routine call and return, and every
// opcode's semantics. It drives a [zboundary.Screen]/[zboundary.Input]/
// [zboundary.Audio]/[zboundary.Filesystem] directly rather than through a
// channel protocol - the CPU's only notion of "blocked on the player" is
// the State it reports while inside one of those calls.
package zcpu

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/davetcode/goz/internal/zlog"
	"github.com/davetcode/goz/zboundary"
	"github.com/davetcode/goz/zdecode"
	"github.com/davetcode/goz/zdict"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/zobject"
	"github.com/davetcode/goz/zstack"
	"github.com/davetcode/goz/ztext"
)

// State reports what the CPU is doing right now, for a front end that
// wants to show a spinner or a "press any key" prompt without polling.
type State int

const (
	Running State = iota
	AwaitingInput
	AwaitingFileDialog
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case AwaitingInput:
		return "AwaitingInput"
	case AwaitingFileDialog:
		return "AwaitingFileDialog"
	case Halted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// MemoryStream is one nested level of output-stream-3 redirection: text
// is written as raw bytes to baseAddress+2 onward, with the byte count
// backpatched into the size word at baseAddress when the stream closes.
type MemoryStream struct {
	BaseAddress uint32
	Ptr         uint32
}

// Streams tracks which of the four Z-Machine output streams are active,
// per the output_stream opcode (screen, transcript, memory, command
// script). Screen is on by default; the others start off.
type Streams struct {
	Screen        bool
	Transcript    bool
	Memory        bool
	MemoryStack   []MemoryStream
	CommandScript bool
}

// SaveState is the machine state a Quetzal codec serializes to or
// restores from: the dynamic memory region, the call stack, and the
// resume PC. zquetzal.Codec implements [Quetzal] against this shape.
type SaveState struct {
	DynamicMemory []byte
	Stack         zstack.CallStack
	PC            uint32
}

// Quetzal encodes and decodes save-game state. It is satisfied by
// zquetzal.Codec; CPU takes it as an interface so this package doesn't
// depend on the IFF/compression details, and so tests can supply a fake.
type Quetzal interface {
	Encode(state SaveState) ([]byte, error)
	Decode(data []byte) (SaveState, error)
}

// CPU is one running Z-Machine: its memory, call stack, and the
// presentation boundary it drives. All mutation happens through Step.
type CPU struct {
	Memory     *zmemory.Memory
	Alphabets  *ztext.Alphabets
	Dictionary *zdict.Dictionary

	Screen     zboundary.Screen
	Input      zboundary.Input
	Audio      zboundary.Audio
	Filesystem zboundary.Filesystem
	Quetzal    Quetzal

	// Log receives non-fatal opcode warnings (de-duplicated by warnOnce);
	// defaults to zlog.Default() if left nil.
	Log *log.Logger

	stack  zstack.CallStack
	pc     uint32
	state  State
	rng    *rand.Rand
	screen zboundary.ScreenModel

	streams  Streams
	undo     []SaveState
	warnings *zlog.Deduper

	// UndoDepth bounds the save_undo stack; New sets it to
	// defaultUndoDepth, callers may lower or raise it before Run.
	UndoDepth int
}

const defaultUndoDepth = 8

// New constructs a CPU ready to execute from the story's initial PC. seed
// drives the random opcode's PRNG; callers pass a genuinely random seed
// (e.g. time.Now().UnixNano()) outside of tests.
func New(mem *zmemory.Memory, alphabets *ztext.Alphabets, dict *zdict.Dictionary, screen zboundary.Screen, input zboundary.Input, audio zboundary.Audio, fs zboundary.Filesystem, quetzal Quetzal, seed int64) *CPU {
	fg := zboundary.NewColor(255, 255, 255)
	bg := zboundary.NewColor(0, 0, 0)
	model := zboundary.NewScreenModel(mem.Version, fg, bg)

	c := &CPU{
		Memory:     mem,
		Alphabets:  alphabets,
		Dictionary: dict,
		Screen:     screen,
		Input:      input,
		Audio:      audio,
		Filesystem: fs,
		Quetzal:    quetzal,
		pc:         uint32(mem.InitialPC),
		state:      Running,
		rng:        rand.New(rand.NewSource(seed)),
		screen:     model,
		streams:    Streams{Screen: true},
		warnings:   zlog.NewDeduper(),
		UndoDepth:  defaultUndoDepth,
	}
	c.stack.Push(zstack.Frame{IsProcedure: true})
	return c
}

// warnOnce logs a non-fatal warning through Log (or the package default
// if Log is nil), at most once per key for this CPU's lifetime.
func (c *CPU) warnOnce(key, msg string, keyvals ...any) {
	c.warnings.WarnOnce(c.Log, key, msg, keyvals...)
}

// State reports the CPU's current run state.
func (c *CPU) State() State { return c.state }

// PC reports the address of the next instruction to execute.
func (c *CPU) PC() uint32 { return c.pc }

// Halted reports whether a quit instruction has run.
func (c *CPU) Halted() bool { return c.state == Halted }

// Run steps the machine until it halts or ctx is cancelled.
func (c *CPU) Run(ctx context.Context) error {
	for !c.Halted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step decodes and executes exactly one instruction.
func (c *CPU) Step(ctx context.Context) error {
	inst, nextPC, err := zdecode.Decode(c.Memory, c.pc)
	if err != nil {
		return runtimeErr(c.pc, "decoding instruction", err)
	}
	c.pc = nextPC

	values, err := zdecode.Resolve(inst.Operands, c.readVariable)
	if err != nil {
		return runtimeErr(inst.PC, "resolving operands", err)
	}

	def := c.lookup(inst)
	if def == nil {
		return &OpcodeError{Form: formName(inst), OpcodeNumber: inst.OpcodeNumber, PC: inst.PC, Detail: "no handler registered"}
	}
	if c.Memory.Version < def.minVersion {
		return &OpcodeError{Form: formName(inst), OpcodeNumber: inst.OpcodeNumber, PC: inst.PC, Detail: fmt.Sprintf("requires version >= %d", def.minVersion)}
	}

	c.state = Running
	return def.handler(ctx, c, inst, values)
}

func formName(inst zdecode.Instruction) string {
	switch inst.Form {
	case zdecode.ExtForm:
		return "EXT"
	default:
		switch inst.Count {
		case zdecode.OP0:
			return "0OP"
		case zdecode.OP1:
			return "1OP"
		case zdecode.OP2:
			return "2OP"
		default:
			return "VAR"
		}
	}
}

// readVariable resolves variable operand values (direct read: reading the
// stack-pointer variable pops it). Matches zdecode.VariableReader.
func (c *CPU) readVariable(variable uint8) (uint16, error) {
	return c.readVar(variable, false)
}

// readVariableIndirect is used by the seven opcodes the standard defines
// as operating "in place" on the stack pointer (inc, dec, inc_chk,
// dec_chk, load, store, pull): an indirect reference to variable 0 peeks
// rather than pops.
func (c *CPU) readVariableIndirect(variable uint8) (uint16, error) {
	return c.readVar(variable, true)
}

func (c *CPU) readVar(variable uint8, indirect bool) (uint16, error) {
	switch {
	case variable == 0:
		frame, err := c.stack.Top()
		if err != nil {
			return 0, err
		}
		if indirect {
			return frame.Peek()
		}
		return frame.Pop()
	case variable < 16:
		frame, err := c.stack.Top()
		if err != nil {
			return 0, err
		}
		return frame.Local(variable)
	default:
		return c.Memory.Global(variable - 16)
	}
}

func (c *CPU) writeVariable(variable uint8, value uint16) error {
	return c.writeVar(variable, value, false)
}

func (c *CPU) writeVariableIndirect(variable uint8, value uint16) error {
	return c.writeVar(variable, value, true)
}

func (c *CPU) writeVar(variable uint8, value uint16, indirect bool) error {
	switch {
	case variable == 0:
		frame, err := c.stack.Top()
		if err != nil {
			return err
		}
		if indirect {
			if _, err := frame.Pop(); err != nil {
				return err
			}
		}
		frame.Push(value)
		return nil
	case variable < 16:
		frame, err := c.stack.Top()
		if err != nil {
			return err
		}
		return frame.SetLocal(variable, value)
	default:
		return c.Memory.SetGlobal(variable-16, value)
	}
}

// storeVariable reads the one-byte store target that follows an
// opcode's operands and advances the PC past it.
func (c *CPU) storeVariable() (uint8, error) {
	v, next, err := zdecode.ReadStoreVariable(c.Memory, c.pc)
	if err != nil {
		return 0, err
	}
	c.pc = next
	return v, nil
}

// store reads the store-target byte and writes value to it in one call,
// the common case for opcodes that compute a result.
func (c *CPU) store(value uint16) error {
	v, err := c.storeVariable()
	if err != nil {
		return err
	}
	return c.writeVariable(v, value)
}

// branch reads the branch trailer and acts on it given the outcome of the
// condition the opcode just tested.
func (c *CPU) branch(condition bool) error {
	br, next, err := zdecode.ReadBranch(c.Memory, c.pc)
	if err != nil {
		return err
	}
	c.pc = next

	if condition != br.OnTrue {
		return nil
	}
	switch {
	case br.ReturnsFalse:
		return c.doReturn(0)
	case br.ReturnsTrue:
		return c.doReturn(1)
	default:
		c.pc = br.TargetPC(next)
		return nil
	}
}

// call pushes a new frame for routineOperand (a packed address) and the
// remaining values as arguments, per the call family of opcodes.
// discard marks call_vn/call_vn2/call_2n/call_1n style invocations, which
// have no store byte and silently drop the routine's return value.
func (c *CPU) call(routineOperand uint16, args []uint16, discard bool) error {
	routineAddr := c.Memory.PackedAddress(routineOperand)

	if routineAddr == 0 {
		if !discard {
			return c.store(0)
		}
		return nil
	}

	count, err := c.Memory.ReadByte(routineAddr)
	if err != nil {
		return err
	}
	routineAddr++

	locals := make([]uint16, count)
	for i := 0; i < int(count); i++ {
		switch {
		case i < len(args):
			locals[i] = args[i]
		case c.Memory.Version < 5:
			v, err := c.Memory.ReadWord(routineAddr)
			if err != nil {
				return err
			}
			locals[i] = v
		}
		if c.Memory.Version < 5 {
			routineAddr += 2
		}
	}

	c.stack.Push(zstack.Frame{
		ReturnPC:    c.pc,
		Locals:      locals,
		ArgCount:    uint8(len(args)),
		IsProcedure: discard,
	})
	c.pc = routineAddr
	return nil
}

// doReturn pops the active frame and, unless it was a procedure-style
// call (no store byte in the instruction stream), delivers val to the
// caller's store target.
func (c *CPU) doReturn(val uint16) error {
	frame, err := c.stack.Pop()
	if err != nil {
		return err
	}
	c.pc = frame.ReturnPC
	if frame.IsProcedure {
		return nil
	}
	return c.store(val)
}

// appendText writes s to whichever output streams are active, per
// §7.1's stacking rule: while stream 3 (memory) is selected, no other
// stream receives the text even though they remain selected.
func (c *CPU) appendText(s string) error {
	if c.streams.Memory {
		top := &c.streams.MemoryStack[len(c.streams.MemoryStack)-1]
		for i := 0; i < len(s); i++ {
			if err := c.Memory.WriteByte(top.Ptr, s[i]); err != nil {
				return err
			}
			top.Ptr++
		}
		return nil
	}

	if c.streams.Screen && c.Screen != nil {
		window := 0
		if !c.screen.LowerWindowActive {
			window = 1
		}
		style := c.screen.LowerWindowTextStyle
		if window == 1 {
			style = c.screen.UpperWindowTextStyle
		}
		c.Screen.Print(s, style, window)

		if window == 1 {
			lines := strings.Split(s, "\n")
			c.screen.UpperWindowCursorY += len(lines) - 1
			if len(lines) > 1 {
				c.screen.UpperWindowCursorX = len(lines[len(lines)-1]) + 1
			} else {
				c.screen.UpperWindowCursorX += len(lines[0])
			}
		}
	}

	if c.streams.Transcript && c.Filesystem != nil {
		w, err := c.Filesystem.OpenTranscript(context.Background())
		if err != nil {
			return err
		}
		defer w.Close()
		return w.WriteString(s)
	}

	return nil
}

// readLine implements sread/aread: renders the v1-3 status bar, gathers
// terminating characters, blocks for input, writes it lowercased into
// the text buffer, and tokenises it against the active dictionary unless
// the parse buffer address is 0.
func (c *CPU) readLine(ctx context.Context, textBuffer, parseBuffer uint16) error {
	if c.Memory.Version <= 3 {
		locationVar, err := c.Memory.Global(0)
		if err != nil {
			return err
		}
		var placeName string
		if locationVar != 0 {
			obj, err := zobject.Get(c.Memory, locationVar, c.Alphabets)
			if err != nil {
				return err
			}
			placeName = obj.Name
		}
		right := ""
		score, _ := c.Memory.Global(1)
		moves, _ := c.Memory.Global(2)
		if c.Memory.Flags1&0x02 != 0 {
			right = fmt.Sprintf("%02d:%02d", score, moves)
		} else {
			right = fmt.Sprintf("%d/%d", int16(score), moves)
		}
		if c.Screen != nil {
			c.Screen.Status(placeName, right)
		}
	}

	terminators := []uint8{'\n'}
	if c.Memory.Version >= 5 && c.Memory.TerminatingCharTable != 0 {
		addr := uint32(c.Memory.TerminatingCharTable)
		for {
			b, err := c.Memory.ReadByte(addr)
			if err != nil {
				return err
			}
			if b == 0 {
				break
			}
			if b == 255 {
				for t := uint8(129); t <= 154; t++ {
					terminators = append(terminators, t)
				}
				for t := uint8(252); t <= 254; t++ {
					terminators = append(terminators, t)
				}
				break
			}
			if (b >= 129 && b <= 154) || (b >= 252 && b <= 254) {
				terminators = append(terminators, b)
			}
			addr++
		}
	}

	bufferSize, err := c.Memory.ReadByte(uint32(textBuffer))
	if err != nil {
		return err
	}
	dataStart := uint32(textBuffer) + 1
	preload := ""
	if c.Memory.Version >= 5 {
		existing, err := c.Memory.ReadByte(dataStart)
		if err != nil {
			return err
		}
		dataStart++
		existingBytes, err := c.Memory.ReadSlice(dataStart, dataStart+uint32(existing))
		if err != nil {
			return err
		}
		preload = string(existingBytes)
	}

	c.state = AwaitingInput
	text, term, err := c.Input.ReadLine(ctx, int(bufferSize), preload, terminators)
	c.state = Running
	if err != nil {
		return err
	}
	text = strings.ToLower(text)

	n := len(text)
	if n > int(bufferSize) {
		n = int(bufferSize)
	}
	for i := 0; i < n; i++ {
		ch := text[i]
		if !((ch >= 32 && ch <= 126) || (ch >= 155 && ch <= 251)) {
			ch = ' '
		}
		if err := c.Memory.WriteByte(dataStart+uint32(i), ch); err != nil {
			return err
		}
	}

	if c.Memory.Version >= 5 {
		if err := c.Memory.WriteByte(uint32(textBuffer)+1, uint8(n)); err != nil {
			return err
		}
	} else {
		if err := c.Memory.WriteByte(dataStart+uint32(n), 0); err != nil {
			return err
		}
	}

	if parseBuffer != 0 {
		offset := 1
		if c.Memory.Version >= 5 {
			offset = 2
		}
		if _, err := zdict.WriteParseBuffer(c.Memory, uint32(parseBuffer), text[:n], c.Dictionary, c.Alphabets, offset); err != nil {
			return err
		}
	}

	if c.Memory.Version >= 5 {
		termByte := term
		if termByte == 0 {
			termByte = '\n'
		}
		return c.store(uint16(termByte))
	}
	return nil
}

func (c *CPU) readChar(ctx context.Context) (uint8, error) {
	c.state = AwaitingInput
	defer func() { c.state = Running }()
	return c.Input.ReadChar(ctx)
}

func (c *CPU) printNumber(v int16) error {
	return c.appendText(strconv.Itoa(int(v)))
}
