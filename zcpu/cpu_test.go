package zcpu

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/davetcode/goz/zboundary"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/ztext"
)

// minimalStory builds a self-contained v3 story image big enough to hold
// a global variable table and whatever instruction bytes a test writes
// into the tail of the image, with static memory collapsed to nothing so
// every byte is writable.
func minimalStory(t *testing.T, size int) *zmemory.Memory {
	t.Helper()
	b := make([]byte, size)
	b[0x00] = 3
	binary.BigEndian.PutUint16(b[0x0C:0x0E], 0x40) // global variable table
	binary.BigEndian.PutUint16(b[0x0E:0x10], uint16(size))
	mem, err := zmemory.Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mem
}

type fakeScreen struct {
	printed []string
}

func (s *fakeScreen) Print(text string, style zboundary.TextStyle, window int) { s.printed = append(s.printed, text) }
func (s *fakeScreen) EraseWindow(window int)                                  {}
func (s *fakeScreen) EraseLine()                                              {}
func (s *fakeScreen) SplitWindow(lines int)                                   {}
func (s *fakeScreen) SetWindow(window int)                                    {}
func (s *fakeScreen) SetCursor(line, column int)                              {}
func (s *fakeScreen) SetColour(foreground, background zboundary.Color)        {}
func (s *fakeScreen) SetFont(font zboundary.Font) zboundary.Font              { return font }
func (s *fakeScreen) SetBufferMode(buffered bool)                             {}
func (s *fakeScreen) Status(location string, right string)                    {}
func (s *fakeScreen) WindowSize() (int, int)                                  { return 80, 24 }

type fakeInput struct {
	line string
	char uint8
}

func (i *fakeInput) ReadLine(ctx context.Context, maxLength int, preload string, term []uint8) (string, uint8, error) {
	return i.line, 0, nil
}
func (i *fakeInput) ReadChar(ctx context.Context) (uint8, error) { return i.char, nil }

type fakeFilesystem struct {
	saved []byte
}

func (f *fakeFilesystem) SaveGame(ctx context.Context, data []byte) error {
	f.saved = data
	return nil
}
func (f *fakeFilesystem) RestoreGame(ctx context.Context) ([]byte, error) { return f.saved, nil }
func (f *fakeFilesystem) OpenTranscript(ctx context.Context) (zboundary.Writer, error) {
	return nil, nil
}
func (f *fakeFilesystem) OpenInputScript(ctx context.Context) (zboundary.Reader, error) {
	return nil, nil
}

// fakeQuetzal hands the filesystem an opaque token instead of a real
// Quetzal-encoded byte stream, and keeps the actual SaveState (stack and
// all) behind it, so these tests exercise the CPU's snapshot/restore
// plumbing independent of the Quetzal wire format.
type fakeQuetzal struct{}

var fakeQuetzalStore = map[byte]SaveState{}

func (fakeQuetzal) Encode(s SaveState) ([]byte, error) {
	token := byte(len(fakeQuetzalStore))
	fakeQuetzalStore[token] = s
	return []byte{token}, nil
}

func (fakeQuetzal) Decode(data []byte) (SaveState, error) {
	return fakeQuetzalStore[data[0]], nil
}

func newTestCPU(t *testing.T, mem *zmemory.Memory) (*CPU, *fakeScreen) {
	t.Helper()
	alphabets := ztext.DefaultAlphabets(mem.Version)
	screen := &fakeScreen{}
	c := New(mem, alphabets, nil, screen, &fakeInput{}, nil, &fakeFilesystem{}, fakeQuetzal{}, 1)
	return c, screen
}

func TestAddAndStoreThenQuit(t *testing.T) {
	mem := minimalStory(t, 0x140)
	const m = 0x100
	mem.Header.InitialPC = m
	b := mem.Raw()

	b[m+0] = 0x14 // long form, 2OP add, both small constants
	b[m+1] = 3
	b[m+2] = 4
	b[m+3] = 16 // store to global 0
	b[m+4] = 0xBA // short form 0OP quit

	c, _ := newTestCPU(t, mem)
	ctx := context.Background()

	if err := c.Step(ctx); err != nil {
		t.Fatalf("add step: %v", err)
	}
	v, err := mem.Global(0)
	if err != nil || v != 7 {
		t.Fatalf("global 0 = %d, %v; want 7", v, err)
	}

	if err := c.Step(ctx); err != nil {
		t.Fatalf("quit step: %v", err)
	}
	if !c.Halted() {
		t.Fatal("expected CPU halted after quit")
	}
}

func TestCallPassesArgAndReturnsValue(t *testing.T) {
	mem := minimalStory(t, 0x140)
	const r = 0x100 // routine: double(local1)
	const m = 0x110 // main: call r(5), store global0, quit
	mem.Header.InitialPC = m
	b := mem.Raw()

	b[r+0] = 1 // 1 local
	b[r+1], b[r+2] = 0, 0
	b[r+3] = 0x56 // long form mul, operand1 variable, operand2 small constant
	b[r+4] = 1    // local 1
	b[r+5] = 2
	b[r+6] = 0    // store to stack
	b[r+7] = 0xB8 // ret_popped

	b[m+0] = 0xE0 // VAR call
	b[m+1] = 0x1F // large-constant, small-constant, omitted, omitted
	binary.BigEndian.PutUint16(b[m+2:m+4], uint16(r/2))
	b[m+4] = 5
	b[m+5] = 16 // store to global 0
	b[m+6] = 0xBA // quit

	c, _ := newTestCPU(t, mem)
	ctx := context.Background()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	v, err := mem.Global(0)
	if err != nil || v != 10 {
		t.Fatalf("global 0 = %d, %v; want 10", v, err)
	}
	if !c.Halted() {
		t.Fatal("expected halted")
	}
}

func TestBranchTargetSkipsTrap(t *testing.T) {
	mem := minimalStory(t, 0x140)
	const m = 0x100
	mem.Header.InitialPC = m
	b := mem.Raw()

	b[m+0] = 0x90 // short form 1OP jz, small constant operand
	b[m+1] = 0    // operand = 0, jz condition true
	b[m+2] = 0xC3 // branch: on-true, 1-byte form, literal offset 3 -> targets m+4
	b[m+3] = 0xBA // trap: quit (must be skipped)
	b[m+4] = 0xB4 // nop
	b[m+5] = 0xBA // real quit

	c, _ := newTestCPU(t, mem)
	ctx := context.Background()

	if err := c.Step(ctx); err != nil {
		t.Fatalf("jz step: %v", err)
	}
	if c.PC() != m+4 {
		t.Fatalf("pc after branch = %#x; want %#x", c.PC(), m+4)
	}
	if c.Halted() {
		t.Fatal("trap quit was executed; branch target arithmetic is wrong")
	}

	if err := c.Step(ctx); err != nil {
		t.Fatalf("nop step: %v", err)
	}
	if err := c.Step(ctx); err != nil {
		t.Fatalf("quit step: %v", err)
	}
	if !c.Halted() {
		t.Fatal("expected halted after real quit")
	}
}

func TestPushPullRoundTrips(t *testing.T) {
	mem := minimalStory(t, 0x140)
	const m = 0x100
	mem.Header.InitialPC = m
	b := mem.Raw()

	// push #42
	b[m+0] = 0xE8 // VAR push (opcode 8)
	b[m+1] = 0x7F // one small-constant operand, rest omitted
	b[m+2] = 42
	// pull -> global 0
	b[m+3] = 0xE9 // VAR pull (opcode 9)
	b[m+4] = 0x7F
	b[m+5] = 16 // variable number operand: global 0 (raw operand value, small constant)
	b[m+6] = 0xBA

	c, _ := newTestCPU(t, mem)
	ctx := context.Background()

	if err := c.Step(ctx); err != nil {
		t.Fatalf("push step: %v", err)
	}
	if err := c.Step(ctx); err != nil {
		t.Fatalf("pull step: %v", err)
	}
	v, err := mem.Global(0)
	if err != nil || v != 42 {
		t.Fatalf("global 0 = %d, %v; want 42", v, err)
	}
}

func TestSaveRestoreRoundTripsDynamicMemory(t *testing.T) {
	mem := minimalStory(t, 0x140)
	c, _ := newTestCPU(t, mem)
	ctx := context.Background()

	if err := mem.SetGlobal(0, 111); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if !c.saveGame(ctx) {
		t.Fatal("saveGame failed")
	}

	if err := mem.SetGlobal(0, 222); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if !c.restoreGame(ctx) {
		t.Fatal("restoreGame failed")
	}

	v, err := mem.Global(0)
	if err != nil || v != 111 {
		t.Fatalf("global 0 = %d, %v; want 111 after restore", v, err)
	}
}

func TestSaveUndoRestoreUndo(t *testing.T) {
	mem := minimalStory(t, 0x140)
	c, _ := newTestCPU(t, mem)

	if err := mem.SetGlobal(1, 5); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if !c.saveUndo() {
		t.Fatal("saveUndo failed")
	}
	if err := mem.SetGlobal(1, 99); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if !c.restoreUndo() {
		t.Fatal("restoreUndo failed")
	}
	v, err := mem.Global(1)
	if err != nil || v != 5 {
		t.Fatalf("global 1 = %d, %v; want 5 after restore_undo", v, err)
	}
	if c.restoreUndo() {
		t.Fatal("expected restoreUndo to fail with empty undo stack")
	}
}
