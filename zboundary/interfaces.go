package zboundary

import "context"

// Screen is the output boundary: everything the CPU can do to the
// player-visible display. An implementation owns its own redraw/flush
// policy; the CPU only describes what changed.
type Screen interface {
	// Print writes text to the currently selected window at the current
	// cursor/style position.
	Print(text string, style TextStyle, window int)
	// EraseWindow clears window (-1 = both windows and unsplits, per the
	// erase_window opcode's special cases).
	EraseWindow(window int)
	// EraseLine clears from the cursor to the end of the current line in
	// the upper window.
	EraseLine()
	// SplitWindow sets the upper window's height in lines (0 unsplits).
	SplitWindow(lines int)
	// SetWindow selects the active output window (0 = lower, 1 = upper).
	SetWindow(window int)
	// SetCursor moves the upper window's cursor (1-based line/column).
	SetCursor(line, column int)
	// SetColour sets the foreground/background colour of the active window.
	SetColour(foreground, background Color)
	// SetFont requests a font change, returning the previously active font.
	SetFont(font Font) Font
	// SetBufferMode toggles word-wrapping/buffering in the lower window.
	SetBufferMode(buffered bool)
	// Status renders the v1-3 status bar (location name, score/moves or
	// time, depending on the story's status-line flag).
	Status(location string, right string)
	// WindowSize returns the screen's current dimensions in characters.
	WindowSize() (width, height int)
}

// Input is the input boundary: reading a line of text or a single
// character from the player.
type Input interface {
	// ReadLine blocks until the player submits a line (or a terminating
	// character if term is non-empty), returning the text and the
	// terminator character used (0 for a plain Enter).
	ReadLine(ctx context.Context, maxLength int, preload string, term []uint8) (string, uint8, error)
	// ReadChar blocks for a single keystroke, returning its ZSCII code.
	ReadChar(ctx context.Context) (uint8, error)
}

// Audio is the sound-effect boundary (v3 Blorb-bundled "bleep"s and the
// v5 sound_effect opcode's sampled-effect numbers).
type Audio interface {
	// Play starts effect number, looping repeats times (0 = default,
	// which is "once" for most effects), at volume 1-8.
	Play(effect uint16, repeats uint8, volume uint8) error
	// Stop silences whatever effect is currently playing.
	Stop(effect uint16) error
}

// Filesystem is the persistence boundary: where save/restore/script/
// transcript data lives. A CLI front end backs this with the OS
// filesystem; a browser-hosted one could back it with anything else.
type Filesystem interface {
	// SaveGame writes data (a Quetzal-encoded save) to a destination the
	// implementation chooses, prompting the player if it needs a name.
	SaveGame(ctx context.Context, data []byte) error
	// RestoreGame returns previously saved Quetzal data, or an error if
	// the player cancels or nothing is available.
	RestoreGame(ctx context.Context) ([]byte, error)
	// OpenTranscript opens (or creates) the output-stream-2 transcript
	// destination for appending.
	OpenTranscript(ctx context.Context) (Writer, error)
	// OpenInputScript opens a previously recorded command script for
	// output-stream-4-style replay via read_script equivalents.
	OpenInputScript(ctx context.Context) (Reader, error)
}

// Writer and Reader are the minimal stream interfaces Filesystem hands
// back, avoiding a direct io dependency in this boundary's method set so
// non-file backings (in-memory buffers, browser storage) fit naturally.
type Writer interface {
	WriteString(s string) error
	Close() error
}

type Reader interface {
	ReadByte() (uint8, bool)
	Close() error
}
