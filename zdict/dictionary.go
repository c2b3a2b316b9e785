// Package zdict implements the Z-Machine dictionary: the story's sorted
// word table and the input lexer that splits a typed command into
// tokens, encodes each against the dictionary's word length, and resolves
// it to a dictionary entry address (or 0 for an unrecognised word).
package zdict

import (
	"bytes"
	"sort"

	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/ztext"
)

// Header is the dictionary's fixed preamble: word separators and the
// per-entry layout.
type Header struct {
	Separators  []uint8
	EntryLength uint8
	EntryCount  int16
}

// Entry is one word in the dictionary table.
type Entry struct {
	Address     uint16
	EncodedWord []byte
	Word        string
	Data        []byte
}

// Dictionary is the parsed word table for a story, plus the default
// dictionary's own base address (custom dictionaries supplied by the
// "tokenise" opcode carry their own base and are parsed fresh each time).
type Dictionary struct {
	Header  Header
	Entries []Entry
	Base    uint32
}

func encodedWordLength(version uint8) int {
	if version > 3 {
		return 6
	}
	return 4
}

// Parse decodes the dictionary table starting at base.
func Parse(mem *zmemory.Memory, base uint32, alphabets *ztext.Alphabets) (*Dictionary, error) {
	n, err := mem.ReadByte(base)
	if err != nil {
		return nil, err
	}
	seps, err := mem.ReadSlice(base+1, base+1+uint32(n))
	if err != nil {
		return nil, err
	}
	entryLen, err := mem.ReadByte(base + 1 + uint32(n))
	if err != nil {
		return nil, err
	}
	countWord, err := mem.ReadWord(base + 2 + uint32(n))
	if err != nil {
		return nil, err
	}
	count := int16(countWord)

	header := Header{
		Separators:  append([]byte(nil), seps...),
		EntryLength: entryLen,
		EntryCount:  count,
	}

	abs := count
	if abs < 0 {
		abs = -abs // negative count means "entries not sorted", same layout
	}

	wordLen := encodedWordLength(mem.Version)
	entryPtr := base + 4 + uint32(n)
	entries := make([]Entry, 0, abs)

	for i := 0; i < int(abs); i++ {
		encoded, err := mem.ReadSlice(entryPtr, entryPtr+uint32(wordLen))
		if err != nil {
			return nil, err
		}
		word, _, err := ztext.DecodeMemory(mem, entryPtr, alphabets)
		if err != nil {
			return nil, err
		}
		data, err := mem.ReadSlice(entryPtr+uint32(wordLen), entryPtr+uint32(entryLen))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Address:     uint16(entryPtr),
			EncodedWord: append([]byte(nil), encoded...),
			Word:        word,
			Data:        append([]byte(nil), data...),
		})
		entryPtr += uint32(entryLen)
	}

	return &Dictionary{Header: header, Entries: entries, Base: base}, nil
}

// Find returns the dictionary address of the entry whose encoded word
// matches encoded, or 0 if not found. Entries are binary-searched when
// the header declares the table sorted (EntryCount >= 0), matching the
// standard's "dictionary must be sorted unless count is negative" rule.
func (d *Dictionary) Find(encoded []byte) uint16 {
	if d.Header.EntryCount >= 0 {
		i := sort.Search(len(d.Entries), func(i int) bool {
			return bytes.Compare(d.Entries[i].EncodedWord, encoded) >= 0
		})
		if i < len(d.Entries) && bytes.Equal(d.Entries[i].EncodedWord, encoded) {
			return d.Entries[i].Address
		}
		return 0
	}
	for _, e := range d.Entries {
		if bytes.Equal(e.EncodedWord, encoded) {
			return e.Address
		}
	}
	return 0
}

// IsSeparator reports whether r is one of the dictionary's declared word
// separators.
func (h Header) IsSeparator(r rune) bool {
	for _, s := range h.Separators {
		if rune(s) == r {
			return true
		}
	}
	return false
}
