package ztext

import (
	"bytes"
	"testing"
)

var v1Alphabets = DefaultAlphabets(1)
var v3Alphabets = DefaultAlphabets(3)

var zstringDecodingTests = []struct {
	name      string
	in        []uint8
	addr      uint32
	out       string
	bytesRead uint32
	version   uint8
	alphabets *Alphabets
}{
	{
		name:      "all three alphabets",
		in:        []uint8{11, 45, 42, 234, 1, 216, 0, 192, 98, 70, 70, 32, 72, 206, 68, 244, 116, 13, 42, 234, 142, 37, 11, 45, 42, 234, 1, 216},
		out:       "There is a small mailbox here.",
		bytesRead: 22,
		version:   1,
		alphabets: v1Alphabets,
	},
	{
		name:      "zscii escape",
		in:        []uint8{12, 193, 248, 165},
		out:       ">",
		bytesRead: 4,
		version:   1,
		alphabets: v1Alphabets,
	},
}

func TestDecode(t *testing.T) {
	for _, tt := range zstringDecodingTests {
		t.Run(tt.name, func(t *testing.T) {
			str, nextAddr, err := Decode(tt.in, tt.addr, tt.version, tt.alphabets, 0)
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if tt.out != str {
				t.Fatalf("zstr read incorrectly expected=%q actual=%q", tt.out, str)
			}
			if tt.bytesRead != nextAddr {
				t.Fatalf("read incorrect number of bytes expected=%d actual=%d", tt.bytesRead, nextAddr)
			}
		})
	}
}

func TestEncodeZscii(t *testing.T) {
	zstr := Encode([]rune(">"), 1, v1Alphabets)
	want := []uint8{12, 193, 248, 165}
	if !bytes.Equal(want, zstr) {
		t.Fatalf("zstr encoded incorrectly expected=%v actual=%v", want, zstr)
	}
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	// v3 dictionary words hold 6 z-chars, so the seventh letter is cut.
	encoded := Encode([]rune("mailbox"), 3, v3Alphabets)
	str, _, err := Decode(encoded, 0, 3, v3Alphabets, 0)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if str != "mailbo" {
		t.Fatalf("round trip mismatch: got %q", str)
	}
}

func TestEncodeRoundTripsAlphabet2Punctuation(t *testing.T) {
	// "<()" costs exactly 6 z-chars (shift+index per symbol) at v3's 2-word
	// budget, so it round trips whole. Covers the table's last two entries
	// ('(' at A2[24], ')' at A2[25]) plus '<' (A2[21]), the three symbols
	// the shape bug corrupted or dropped.
	punctuation := "<()"
	encoded := Encode([]rune(punctuation), 3, v3Alphabets)
	str, _, err := Decode(encoded, 0, 3, v3Alphabets, 0)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if str != punctuation {
		t.Fatalf("A2 punctuation round trip mismatch: got %q, want %q", str, punctuation)
	}
}

// TestDecodeAlphabet2LastSlot pins the exact bug from the shape mismatch:
// z-char 31 (table index 25, the A2 table's last entry) must decode to
// ')', not an unset zero byte. Raw bytes encode z-chars [5, 31, 5] (shift
// to A2, ')', trailing pad shift) in a single last-word.
func TestDecodeAlphabet2LastSlot(t *testing.T) {
	str, _, err := Decode([]uint8{0x97, 0xE5}, 0, 3, v3Alphabets, 0)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if str != ")" {
		t.Fatalf("z-char 31 decoded to %q, want \")\"", str)
	}
}

func TestDefaultAlphabetsA2Layout(t *testing.T) {
	// Index 0 is the dead slot behind the z-char 6 ZSCII escape; index 25
	// (z-char 31) must hold the table's last real character, not a
	// shifted-back neighbor or an unset zero byte.
	v3 := DefaultAlphabets(3)
	if v3.A2[25] != ')' {
		t.Fatalf("v3 A2[25] = %q, want ')'", rune(v3.A2[25]))
	}
	if v3.A2[21] != '<' {
		t.Fatalf("v3 A2[21] = %q, want '<'", rune(v3.A2[21]))
	}

	v5 := DefaultAlphabets(5)
	if v5.A2[1] != '\n' {
		t.Fatalf("v5 A2[1] = %q, want '\\n'", rune(v5.A2[1]))
	}
	if v5.A2[25] != ')' {
		t.Fatalf("v5 A2[25] = %q, want ')'", rune(v5.A2[25]))
	}
}

func TestDecodeUnterminatedStringErrors(t *testing.T) {
	if _, _, err := Decode([]uint8{0, 0}, 0, 1, v1Alphabets, 0); err != nil {
		return
	}
	t.Fatal("expected a string with no terminating word to return an error")
}

func TestAbbreviationInsideAbbreviationErrors(t *testing.T) {
	// abbrTableBase of 0 signals "already inside an abbreviation string";
	// a Z-char 1 there must fail rather than recurse.
	data := []uint8{0x84, 0x05} // z-chars 1 (abbrev ref), 0 (its index), 5; last-word flag set
	if _, _, err := Decode(data, 0, 3, v3Alphabets, 0); err == nil {
		t.Fatal("expected abbreviation-inside-abbreviation to error")
	}
}
