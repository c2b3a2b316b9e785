package zgametest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/davetcode/goz/zboundary"
)

var errHeadless = errors.New("not available in headless mode")

// headlessScreen records printed text without rendering anything, so a
// batch run across a whole story corpus doesn't need a terminal.
type headlessScreen struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (s *headlessScreen) Print(text string, style zboundary.TextStyle, window int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.WriteString(text)
}

func (s *headlessScreen) EraseWindow(window int)                           {}
func (s *headlessScreen) EraseLine()                                       {}
func (s *headlessScreen) SplitWindow(lines int)                            {}
func (s *headlessScreen) SetWindow(window int)                             {}
func (s *headlessScreen) SetCursor(line, column int)                       {}
func (s *headlessScreen) SetColour(foreground, background zboundary.Color) {}
func (s *headlessScreen) SetFont(font zboundary.Font) zboundary.Font       { return font }
func (s *headlessScreen) SetBufferMode(buffered bool)                      {}
func (s *headlessScreen) Status(location string, right string)            {}
func (s *headlessScreen) WindowSize() (int, int)                          { return 80, 24 }

func (s *headlessScreen) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Split(s.buf.String(), "\n")
}

// headlessInput answers the first read request with "quit", which is
// enough to reach and capture a story's title screen without a real
// player; any further read blocks until the run's timeout fires.
type headlessInput struct {
	calls int
}

func (i *headlessInput) ReadLine(ctx context.Context, maxLength int, preload string, term []uint8) (string, uint8, error) {
	i.calls++
	if i.calls > 1 {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	return "quit", 0, nil
}

func (i *headlessInput) ReadChar(ctx context.Context) (uint8, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

type headlessAudio struct{}

func (headlessAudio) Play(effect uint16, repeats uint8, volume uint8) error { return nil }
func (headlessAudio) Stop(effect uint16) error                             { return nil }

type headlessFilesystem struct{}

func (headlessFilesystem) SaveGame(ctx context.Context, data []byte) error { return nil }
func (headlessFilesystem) RestoreGame(ctx context.Context) ([]byte, error) {
	return nil, errHeadless
}
func (headlessFilesystem) OpenTranscript(ctx context.Context) (zboundary.Writer, error) {
	return nil, errHeadless
}
func (headlessFilesystem) OpenInputScript(ctx context.Context) (zboundary.Reader, error) {
	return nil, errHeadless
}
