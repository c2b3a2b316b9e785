package zdict_test

import (
	"encoding/binary"
	"testing"

	"github.com/davetcode/goz/zdict"
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/ztext"
)

// buildV3Dictionary builds a minimal dictionary table with separators
// ",." and two sorted 4-byte-word/6-byte-entry words: "north" and "south".
func buildV3Dictionary(t *testing.T) (*zmemory.Memory, uint32) {
	t.Helper()
	alphabets := ztext.DefaultAlphabets(3)

	const dictBase = 0x40
	seps := []byte{',', '.'}
	const entryLen = 6 // 4-byte encoded word + 2 bytes unused data

	north := ztext.Encode([]rune("north"), 3, alphabets)
	south := ztext.Encode([]rune("south"), 3, alphabets)

	entryStart := dictBase + 4 + len(seps)
	size := entryStart + 2*entryLen + 16
	b := make([]byte, size)
	b[0x00] = 3
	binary.BigEndian.PutUint16(b[0x0E:0x10], uint16(size))

	b[dictBase] = byte(len(seps))
	copy(b[dictBase+1:], seps)
	b[dictBase+1+len(seps)] = entryLen
	binary.BigEndian.PutUint16(b[dictBase+2+len(seps):], 2)

	// "north" < "south" lexically in encoded form (both start with
	// different letters; north's first z-char index is lower).
	copy(b[entryStart:], north)
	copy(b[entryStart+entryLen:], south)

	mem, err := zmemory.Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mem, uint32(dictBase)
}

func TestParseAndFind(t *testing.T) {
	mem, base := buildV3Dictionary(t)
	alphabets := ztext.DefaultAlphabets(mem.Version)

	dict, err := zdict.Parse(mem, base, alphabets)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(dict.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(dict.Entries))
	}

	encoded := ztext.Encode([]rune("north"), mem.Version, alphabets)
	addr := dict.Find(encoded)
	if addr == 0 {
		t.Fatal("expected to find 'north' in dictionary")
	}

	missing := ztext.Encode([]rune("xyzzy"), mem.Version, alphabets)
	if got := dict.Find(missing); got != 0 {
		t.Fatalf("expected 'xyzzy' not found, got address %#x", got)
	}
}

func TestTokenizeSplitsOnSeparatorsAndSpaces(t *testing.T) {
	header := zdict.Header{Separators: []uint8{','}}
	tokens := zdict.Tokenize("go north, then south", header)

	want := []string{"go", "north", ",", "then", "south"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Text != w {
			t.Fatalf("token %d: expected %q got %q", i, w, tokens[i].Text)
		}
	}
}
