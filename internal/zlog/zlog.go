// Package zlog provides the interpreter's structured logger: a thin
// wrapper around charmbracelet/log (the same family as the rest of the
// terminal-facing stack) used for non-fatal warnings - a colorized,
// leveled logger in place of a bare `fmt.Fprintf(os.Stderr, ...)`.
package zlog

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// New returns a logger prefixed "goz", writing to w.
func New(w *os.File) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Prefix:          "goz",
	})
}

var std = New(os.Stderr)

// Default returns the package-level logger used when a caller has no
// more specific one (e.g. before a front end has installed its own).
func Default() *log.Logger { return std }

// Deduper logs a given key's warning at most once, so a long-running
// story can't flood the log with the same repeated complaint (a
// misbehaving sound_effect call, a routine that keeps underflowing its
// stack, and so on).
type Deduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]bool)}
}

// WarnOnce logs msg via logger at Warn level the first time key is seen,
// and silently does nothing on every subsequent call with the same key.
func (d *Deduper) WarnOnce(logger *log.Logger, key, msg string, keyvals ...any) {
	d.mu.Lock()
	already := d.seen[key]
	d.seen[key] = true
	d.mu.Unlock()

	if already {
		return
	}
	if logger == nil {
		logger = std
	}
	logger.Warn(msg, keyvals...)
}
