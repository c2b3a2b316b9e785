// Package zquetzal implements the Quetzal 1.4 save-file format: an IFF
// FORM container (IFhd/CMem/Stks, plus the optional metadata chunks) that
// lets a save made by one Z-Machine interpreter load in another. It
// replaces the teacher's ad hoc "GOZM" format, which had no IFF framing,
// no compression, and no interop with anything but itself.
//
// Reference: http://www.ifarchive.org/if-archive/infocom/interpreters/specification/savefile_14.txt
package zquetzal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/davetcode/goz/zcpu"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/zstack"
)

// Codec implements [zcpu.Quetzal] against a specific story's memory
// image - it needs the pristine dynamic memory for CMem's XOR diff, and
// the header's release/serial/checksum to stamp and verify IFhd.
type Codec struct {
	Memory *zmemory.Memory
}

// NewCodec returns a Quetzal codec bound to mem's story image.
func NewCodec(mem *zmemory.Memory) *Codec {
	return &Codec{Memory: mem}
}

// Encode implements [zcpu.Quetzal].
func (c *Codec) Encode(state zcpu.SaveState) ([]byte, error) {
	ifhd, err := c.encodeIFhd(state.PC)
	if err != nil {
		return nil, err
	}
	cmem := compressCMem(c.Memory.PristineDynamic(), state.DynamicMemory)
	stks := encodeStks(state.Stack.Frames())

	chunks := []iffChunk{
		{ID: "IFhd", Data: ifhd},
		{ID: "CMem", Data: cmem},
		{ID: "Stks", Data: stks},
	}
	return writeForm("IFZS", chunks), nil
}

// Decode implements [zcpu.Quetzal].
func (c *Codec) Decode(data []byte) (zcpu.SaveState, error) {
	formType, chunks, err := parseForm(data)
	if err != nil {
		return zcpu.SaveState{}, err
	}
	if formType != "IFZS" {
		return zcpu.SaveState{}, fmt.Errorf("zquetzal: not a Quetzal (IFZS) save file, got %q", formType)
	}

	var state zcpu.SaveState
	var havePC, haveMemory bool
	var sawMemOrStack bool

	for _, ch := range chunks {
		switch ch.ID {
		case "IFhd":
			if sawMemOrStack {
				return zcpu.SaveState{}, fmt.Errorf("zquetzal: IFhd chunk must precede CMem/UMem/Stks")
			}
			pc, err := c.decodeIFhd(ch.Data)
			if err != nil {
				return zcpu.SaveState{}, err
			}
			state.PC = pc
			havePC = true
		case "CMem":
			sawMemOrStack = true
			mem, err := decompressCMem(c.Memory.PristineDynamic(), ch.Data)
			if err != nil {
				return zcpu.SaveState{}, err
			}
			state.DynamicMemory = mem
			haveMemory = true
		case "UMem":
			sawMemOrStack = true
			pristine := c.Memory.PristineDynamic()
			if len(ch.Data) != len(pristine) {
				return zcpu.SaveState{}, fmt.Errorf("zquetzal: UMem length %d does not match dynamic memory size %d", len(ch.Data), len(pristine))
			}
			state.DynamicMemory = append([]byte(nil), ch.Data...)
			haveMemory = true
		case "Stks":
			sawMemOrStack = true
			frames, err := decodeStks(ch.Data)
			if err != nil {
				return zcpu.SaveState{}, err
			}
			var stack zstack.CallStack
			stack.Restore(frames)
			state.Stack = stack
		default:
			// IntD/AUTH/(c) /ANNO and anything unrecognised: the standard
			// says to skip chunks we don't understand.
		}
	}

	if !havePC {
		return zcpu.SaveState{}, fmt.Errorf("zquetzal: save file has no IFhd chunk")
	}
	if !haveMemory {
		return zcpu.SaveState{}, fmt.Errorf("zquetzal: save file has no CMem/UMem chunk")
	}
	return state, nil
}

// encodeIFhd builds the 13-byte IFhd payload: release number, serial
// number, checksum, and the PC to resume at.
func (c *Codec) encodeIFhd(pc uint32) ([]byte, error) {
	serial, err := c.Memory.ReadSlice(0x12, 0x18)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 13)
	binary.BigEndian.PutUint16(data[0:2], c.Memory.ReleaseNumber)
	copy(data[2:8], serial)
	binary.BigEndian.PutUint16(data[8:10], c.Memory.Checksum())
	data[10] = byte(pc >> 16)
	data[11] = byte(pc >> 8)
	data[12] = byte(pc)
	return data, nil
}

// decodeIFhd parses IFhd and verifies it belongs to the running story,
// per savefile_14.txt S5: release, serial and (when present) checksum
// must all match.
func (c *Codec) decodeIFhd(data []byte) (uint32, error) {
	if len(data) != 13 {
		return 0, fmt.Errorf("zquetzal: malformed IFhd chunk (want 13 bytes, got %d)", len(data))
	}

	release := binary.BigEndian.Uint16(data[0:2])
	serial := data[2:8]
	checksum := binary.BigEndian.Uint16(data[8:10])
	pc := uint32(data[10])<<16 | uint32(data[11])<<8 | uint32(data[12])

	if release != c.Memory.ReleaseNumber {
		return 0, fmt.Errorf("zquetzal: save is for release %d, story is release %d", release, c.Memory.ReleaseNumber)
	}
	wantSerial, err := c.Memory.ReadSlice(0x12, 0x18)
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(serial, wantSerial) {
		return 0, fmt.Errorf("zquetzal: save serial %q does not match story serial %q", serial, wantSerial)
	}
	want := c.Memory.Checksum()
	if checksum != 0 && want != 0 && checksum != want {
		return 0, fmt.Errorf("zquetzal: save checksum %#04x does not match story checksum %#04x", checksum, want)
	}
	return pc, nil
}

// compressCMem run-length-encodes the XOR of current against pristine
// dynamic memory: a non-zero diff byte is written literally, a run of
// unchanged (zero-diff) bytes is written as a 0x00 byte followed by one
// byte giving the number of *extra* zero bytes beyond the first (so a
// single run covers 1-256 unchanged bytes).
func compressCMem(pristine, current []byte) []byte {
	var out []byte
	n := len(current)
	for i := 0; i < n; {
		diff := current[i] ^ pristine[i]
		if diff != 0 {
			out = append(out, diff)
			i++
			continue
		}
		run := 0
		for i+run < n && run < 256 && current[i+run]^pristine[i+run] == 0 {
			run++
		}
		out = append(out, 0, byte(run-1))
		i += run
	}
	return out
}

// decompressCMem reverses compressCMem against pristine, reconstructing
// the full dynamic memory image.
func decompressCMem(pristine, data []byte) ([]byte, error) {
	out := append([]byte(nil), pristine...)
	memLen := len(out)
	memCounter := 0

	for i := 0; i < len(data); {
		b := data[i]
		if b != 0 {
			if memCounter >= memLen {
				return nil, fmt.Errorf("zquetzal: CMem chunk decompresses past dynamic memory end")
			}
			out[memCounter] = b ^ pristine[memCounter]
			memCounter++
			i++
			continue
		}
		i++
		if i >= len(data) {
			return nil, fmt.Errorf("zquetzal: CMem chunk truncated after zero-run marker")
		}
		memCounter += 1 + int(data[i])
		i++
		if memCounter > memLen {
			return nil, fmt.Errorf("zquetzal: CMem chunk decompresses past dynamic memory end")
		}
	}
	return out, nil
}

// encodeStks serializes the call stack as a sequence of frame records,
// outermost (the dummy main-routine frame) first, per savefile_14.txt S6.
// Each frame is: 3-byte return PC, 1 flags byte (bits 0-3 local count,
// bit 4 set if the call had no store target), 1 store-variable byte, 1
// argument-count bitmask byte, 2-byte eval-stack size, then the locals
// and eval-stack words themselves.
func encodeStks(frames []zstack.Frame) []byte {
	var buf bytes.Buffer
	for _, f := range frames {
		buf.WriteByte(byte(f.ReturnPC >> 16))
		buf.WriteByte(byte(f.ReturnPC >> 8))
		buf.WriteByte(byte(f.ReturnPC))

		flags := byte(len(f.Locals) & 0x0F)
		if f.IsProcedure {
			flags |= 0x10
		}
		buf.WriteByte(flags)

		varnum := f.Store.Variable
		if f.Store.Discard {
			varnum = 0
		}
		buf.WriteByte(varnum)

		var argflag byte
		if f.ArgCount > 0 {
			argflag = byte(1<<f.ArgCount) - 1
		}
		buf.WriteByte(argflag)

		writeWord(&buf, uint16(len(f.EvalStack)))
		for _, local := range f.Locals {
			writeWord(&buf, local)
		}
		for _, v := range f.EvalStack {
			writeWord(&buf, v)
		}
	}
	return buf.Bytes()
}

func writeWord(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

// decodeStks reverses encodeStks.
func decodeStks(data []byte) ([]zstack.Frame, error) {
	var frames []zstack.Frame
	ptr := 0
	for ptr < len(data) {
		if ptr+8 > len(data) {
			return nil, fmt.Errorf("zquetzal: truncated Stks frame header")
		}
		returnPC := uint32(data[ptr])<<16 | uint32(data[ptr+1])<<8 | uint32(data[ptr+2])
		flags := data[ptr+3]
		varnum := data[ptr+4]
		argflag := data[ptr+5]
		evalSize := int(binary.BigEndian.Uint16(data[ptr+6 : ptr+8]))
		ptr += 8

		numLocals := int(flags & 0x0F)
		if ptr+numLocals*2 > len(data) {
			return nil, fmt.Errorf("zquetzal: Stks frame locals run past end of chunk")
		}
		locals := make([]uint16, numLocals)
		for i := range locals {
			locals[i] = binary.BigEndian.Uint16(data[ptr : ptr+2])
			ptr += 2
		}

		if ptr+evalSize*2 > len(data) {
			return nil, fmt.Errorf("zquetzal: Stks frame evaluation stack runs past end of chunk")
		}
		evalStack := make([]uint16, evalSize)
		for i := range evalStack {
			evalStack[i] = binary.BigEndian.Uint16(data[ptr : ptr+2])
			ptr += 2
		}

		argCount := 0
		for a := argflag; a != 0; a >>= 1 {
			argCount++
		}

		frames = append(frames, zstack.Frame{
			ReturnPC:    returnPC,
			Locals:      locals,
			EvalStack:   evalStack,
			ArgCount:    uint8(argCount),
			Store:       zstack.StoreTarget{Variable: varnum, Discard: flags&0x10 != 0},
			IsProcedure: flags&0x10 != 0,
		})
	}
	return frames, nil
}
