package zquetzal

import (
	"encoding/binary"
	"testing"

	"github.com/davetcode/goz/zcpu"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/zstack"
	"github.com/stretchr/testify/require"
)

func minimalStory(t *testing.T, size int) *zmemory.Memory {
	t.Helper()
	b := make([]byte, size)
	b[0x00] = 3
	binary.BigEndian.PutUint16(b[0x02:0x04], 16) // release number
	copy(b[0x12:0x18], []byte("951024"))         // serial number
	binary.BigEndian.PutUint16(b[0x0E:0x10], 0x80)
	binary.BigEndian.PutUint16(b[0x1A:0x1C], uint16(size))
	mem, err := zmemory.Load(b)
	require.NoError(t, err)
	return mem
}

func TestCompressDecompressCMemRoundTrips(t *testing.T) {
	pristine := make([]byte, 0x80)
	for i := range pristine {
		pristine[i] = byte(i)
	}
	current := append([]byte(nil), pristine...)
	current[0] = 0xFF
	current[10] = 0x01

	compressed := compressCMem(pristine, current)
	restored, err := decompressCMem(pristine, compressed)
	require.NoError(t, err)
	require.Equal(t, current, restored)
}

func TestCompressCMemLongRunOfUnchangedBytes(t *testing.T) {
	pristine := make([]byte, 600)
	current := append([]byte(nil), pristine...)
	current[599] = 0x7E

	compressed := compressCMem(pristine, current)
	restored, err := decompressCMem(pristine, compressed)
	require.NoError(t, err)
	require.Equal(t, current, restored)
}

func TestEncodeDecodeStksRoundTrips(t *testing.T) {
	frames := []zstack.Frame{
		{IsProcedure: true, Locals: []uint16{}, EvalStack: []uint16{}, Store: zstack.StoreTarget{Discard: true}}, // dummy outermost frame
		{
			ReturnPC:  0x4321,
			Locals:    []uint16{1, 2, 3},
			EvalStack: []uint16{9, 8},
			ArgCount:  2,
			Store:     zstack.StoreTarget{Variable: 16},
		},
	}

	encoded := encodeStks(frames)
	decoded, err := decodeStks(encoded)
	require.NoError(t, err)
	require.Equal(t, frames, decoded)
}

func TestCodecEncodeDecodeRoundTripsSaveState(t *testing.T) {
	mem := minimalStory(t, 0x80)
	codec := NewCodec(mem)

	dyn := append([]byte(nil), mem.Dynamic()...)
	dyn[5] = 0x42

	var stack zstack.CallStack
	stack.Push(zstack.Frame{IsProcedure: true})
	stack.Push(zstack.Frame{ReturnPC: 0x50, Locals: []uint16{7}, ArgCount: 1, Store: zstack.StoreTarget{Variable: 2}})

	state := zcpu.SaveState{DynamicMemory: dyn, Stack: stack, PC: 0x60}

	data, err := codec.Encode(state)
	require.NoError(t, err)
	require.Equal(t, "FORM", string(data[0:4]))
	require.Equal(t, "IFZS", string(data[8:12]))

	restored, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, dyn, restored.DynamicMemory)
	require.Equal(t, uint32(0x60), restored.PC)
	require.Len(t, restored.Stack.Frames(), 2)
}

func TestCodecDecodeRejectsMismatchedRelease(t *testing.T) {
	mem := minimalStory(t, 0x80)
	codec := NewCodec(mem)

	state := zcpu.SaveState{DynamicMemory: append([]byte(nil), mem.Dynamic()...)}
	data, err := codec.Encode(state)
	require.NoError(t, err)

	other := minimalStory(t, 0x80)
	other.ReleaseNumber = 99
	otherCodec := NewCodec(other)

	_, err = otherCodec.Decode(data)
	require.Error(t, err)
}
