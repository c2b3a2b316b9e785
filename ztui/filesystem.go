package ztui

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"github.com/davetcode/goz/zboundary"
)

// Filesystem backs zboundary.Filesystem with the OS filesystem: save/
// restore go to a single filename derived from the story's name (the
// teacher's same "prompt not implemented yet" simplification - see
// defaultSaveFilename in the original main.go), and transcript/script
// files live alongside it.
type Filesystem struct {
	SaveFilename       string
	TranscriptFilename string
	ScriptFilename     string
}

// NewFilesystem derives save/transcript/script filenames from a story
// name, e.g. "zork1.z3" -> "zork1.sav"/"zork1.transcript"/"zork1.script".
func NewFilesystem(storyName string) *Filesystem {
	base := filepath.Base(storyName)
	ext := filepath.Ext(base)
	if len(ext) >= 2 && (ext[1] == 'z' || ext[1] == 'Z') {
		base = base[:len(base)-len(ext)]
	}
	if base == "" {
		base = "game"
	}
	return &Filesystem{
		SaveFilename:       base + ".sav",
		TranscriptFilename: base + ".transcript",
		ScriptFilename:     base + ".script",
	}
}

func (f *Filesystem) SaveGame(ctx context.Context, data []byte) error {
	return os.WriteFile(f.SaveFilename, data, 0644)
}

func (f *Filesystem) RestoreGame(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.SaveFilename)
}

type fileWriter struct{ f *os.File }

func (w fileWriter) WriteString(s string) error {
	_, err := w.f.WriteString(s)
	return err
}

func (w fileWriter) Close() error { return w.f.Close() }

func (f *Filesystem) OpenTranscript(ctx context.Context) (zboundary.Writer, error) {
	fh, err := os.OpenFile(f.TranscriptFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return fileWriter{f: fh}, nil
}

type fileReader struct {
	f *os.File
	r *bufio.Reader
}

func (r fileReader) ReadByte() (uint8, bool) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

func (r fileReader) Close() error { return r.f.Close() }

func (f *Filesystem) OpenInputScript(ctx context.Context) (zboundary.Reader, error) {
	fh, err := os.Open(f.ScriptFilename)
	if err != nil {
		return nil, err
	}
	return fileReader{f: fh, r: bufio.NewReader(fh)}, nil
}
