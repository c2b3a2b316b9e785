// Package ztui is the bubbletea terminal front end: it implements every
// zboundary interface against a running zcpu.CPU, grounded on the
// teacher's main.go (runStoryModel, keyToZChar, createStatusLine) but with
// the channel protocol confined to the one place it's still needed -
// bridging the CPU's own goroutine into bubbletea's Update loop.
package ztui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/davetcode/goz/zcpu"
	"github.com/davetcode/goz/zdict"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/zquetzal"
	"github.com/davetcode/goz/ztext"
)

// declareCapabilities tells the story what this interpreter can do, via
// the header bytes the Z-Machine standard reserves for that purpose.
// lipgloss gives ztui bold/italic/reverse/colour on any terminal that
// supports them, so those bits are declared unconditionally rather than
// probed.
func declareCapabilities(mem *zmemory.Memory, width, height int) {
	if mem.Version <= 3 {
		mem.InterpreterSetHeader(0x01, mem.Flags1|0x10|0x20) //nolint:errcheck // screen splitting + variable-pitch default
	} else {
		mem.InterpreterSetHeader(0x01, mem.Flags1|0x01|0x04|0x08|0x10) //nolint:errcheck // colour, bold, italic, fixed-space
		mem.InterpreterSetHeader(0x1E, 6)                              //nolint:errcheck // interpreter number: "IBM PC"
		mem.InterpreterSetHeader(0x1F, 'G')                            //nolint:errcheck // interpreter version
		if width > 0 && height > 0 {
			mem.InterpreterSetHeader(0x20, uint8(min(height, 255))) //nolint:errcheck
			mem.InterpreterSetHeader(0x21, uint8(min(width, 255)))  //nolint:errcheck
		}
	}
	mem.InterpreterSetHeader(0x32, 0) //nolint:errcheck
	mem.InterpreterSetHeader(0x33, 1) //nolint:errcheck // standard revision 1.0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// UndoDepth bounds the save_undo stack of every CPU NewApplicationModel
// creates; 0 leaves the CPU's own default in place. Set from a CLI flag
// before launching the bubbletea program.
var UndoDepth int

// NewApplicationModel loads storyBytes and returns the bubbletea model
// that runs it, matching zstory.CreateApplicationModel so it can be
// passed straight to zstory.NewUIModel, or used directly for a --rom flag.
func NewApplicationModel(storyBytes []byte, storyName string) tea.Model {
	mem, err := zmemory.Load(storyBytes)
	if err != nil {
		return errorModel{err: fmt.Errorf("loading story: %w", err)}
	}

	declareCapabilities(mem, 80, 24)

	alphabets, err := ztext.LoadAlphabets(mem)
	if err != nil {
		return errorModel{err: fmt.Errorf("loading alphabets: %w", err)}
	}

	dict, err := zdict.Parse(mem, uint32(mem.DictionaryBase), alphabets)
	if err != nil {
		return errorModel{err: fmt.Errorf("parsing dictionary: %w", err)}
	}

	boundary := NewBoundary()
	fs := NewFilesystem(storyName)
	codec := zquetzal.NewCodec(mem)

	cpu := zcpu.New(mem, alphabets, dict, boundary, boundary, Audio{}, fs, codec, time.Now().UnixNano())
	if UndoDepth > 0 {
		cpu.UndoDepth = UndoDepth
	}

	return NewModel(cpu, boundary, storyName)
}

// errorModel is returned when a story fails to load, so the failure shows
// up in the terminal instead of a panic before bubbletea has a model.
type errorModel struct{ err error }

func (m errorModel) Init() tea.Cmd { return nil }
func (m errorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, tea.Quit
	}
	return m, nil
}
func (m errorModel) View() string {
	return fmt.Sprintf("Failed to load story: %v\n\nPress any key to quit.\n", m.err)
}
