package ztui

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/davetcode/goz/zboundary"
)

// Boundary implements zboundary.Screen/Input/Audio directly against a
// CPU's own goroutine, translating every call into a message on events -
// an unbuffered channel read by the bubbletea Update loop via waitForEvent.
// This is the one place the channel-based protocol the teacher used
// end-to-end survives: everywhere else zboundary is a plain interface the
// CPU calls directly.
type Boundary struct {
	events chan any

	sizeMu        sync.Mutex
	width, height int

	fontMu sync.Mutex
	font   zboundary.Font
}

// NewBoundary returns a Boundary with its event channel ready to read.
func NewBoundary() *Boundary {
	return &Boundary{
		events: make(chan any),
		font:   zboundary.FontNormal,
	}
}

type printMsg struct {
	Text   string
	Style  zboundary.TextStyle
	Window int
}

type eraseWindowMsg int

type eraseLineMsg struct{}

type splitWindowMsg int

type setWindowMsg int

type setCursorMsg struct{ Line, Column int }

type setColourMsg struct{ Foreground, Background zboundary.Color }

type setBufferModeMsg bool

type statusMsg struct{ Location, Right string }

func (b *Boundary) Print(text string, style zboundary.TextStyle, window int) {
	b.events <- printMsg{Text: text, Style: style, Window: window}
}

func (b *Boundary) EraseWindow(window int) {
	b.events <- eraseWindowMsg(window)
}

func (b *Boundary) EraseLine() {
	b.events <- eraseLineMsg{}
}

func (b *Boundary) SplitWindow(lines int) {
	b.events <- splitWindowMsg(lines)
}

func (b *Boundary) SetWindow(window int) {
	b.events <- setWindowMsg(window)
}

func (b *Boundary) SetCursor(line, column int) {
	b.events <- setCursorMsg{Line: line, Column: column}
}

func (b *Boundary) SetColour(foreground, background zboundary.Color) {
	b.events <- setColourMsg{Foreground: foreground, Background: background}
}

func (b *Boundary) SetFont(font zboundary.Font) zboundary.Font {
	b.fontMu.Lock()
	defer b.fontMu.Unlock()
	prev := b.font
	b.font = font
	return prev
}

func (b *Boundary) SetBufferMode(buffered bool) {
	b.events <- setBufferModeMsg(buffered)
}

func (b *Boundary) Status(location string, right string) {
	b.events <- statusMsg{Location: location, Right: right}
}

// setSize is called by the model on every tea.WindowSizeMsg; WindowSize
// reads it back without going through events, since it's a plain query
// with no screen state to mutate.
func (b *Boundary) setSize(width, height int) {
	b.sizeMu.Lock()
	b.width, b.height = width, height
	b.sizeMu.Unlock()
}

func (b *Boundary) WindowSize() (int, int) {
	b.sizeMu.Lock()
	defer b.sizeMu.Unlock()
	return b.width, b.height
}

type lineResult struct {
	Text string
	Term uint8
}

type inputRequestMsg struct {
	MaxLength int
	Preload   string
	Term      []uint8
	Response  chan lineResult
}

type charRequestMsg struct {
	Response chan uint8
}

func (b *Boundary) ReadLine(ctx context.Context, maxLength int, preload string, term []uint8) (string, uint8, error) {
	resp := make(chan lineResult, 1)
	select {
	case b.events <- inputRequestMsg{MaxLength: maxLength, Preload: preload, Term: term, Response: resp}:
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.Text, r.Term, nil
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

func (b *Boundary) ReadChar(ctx context.Context) (uint8, error) {
	resp := make(chan uint8, 1)
	select {
	case b.events <- charRequestMsg{Response: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Audio plays the v3 "bleep" sound effects directly (a terminal bell),
// matching the teacher's main.go switch: effects 1 and 2 beep, everything
// else (true Blorb-sampled effects) is silently unsupported.
type Audio struct{}

func (Audio) Play(effect uint16, repeats uint8, volume uint8) error {
	switch effect {
	case 1, 2:
		fmt.Fprint(os.Stderr, "\a")
	}
	return nil
}

func (Audio) Stop(effect uint16) error { return nil }
