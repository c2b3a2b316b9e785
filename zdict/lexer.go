package zdict

import (
	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/ztext"
)

// Token is one word (or separator) lexed out of a typed command, with its
// position in the original input text.
type Token struct {
	Text        string
	StartColumn int // 1-based, matches the parse-buffer "position" byte
}

// Tokenize splits text into words and declared dictionary separators,
// treating runs of spaces as boundaries that are themselves discarded
// (per the standard, space is always a separator but never itself a
// token).
func Tokenize(text string, header Header) []Token {
	var tokens []Token
	runes := []rune(text)
	var current []rune
	currentStart := 0

	flush := func(end int) {
		if len(current) == 0 {
			return
		}
		tokens = append(tokens, Token{Text: string(current), StartColumn: currentStart + 1})
		current = nil
	}

	for i, r := range runes {
		switch {
		case r == ' ':
			flush(i)
		case header.IsSeparator(r):
			flush(i)
			tokens = append(tokens, Token{Text: string(r), StartColumn: i + 1})
		default:
			if len(current) == 0 {
				currentStart = i
			}
			current = append(current, r)
		}
	}
	flush(len(runes))

	return tokens
}

// WriteParseBuffer lexes text against dict, encodes and resolves each
// token, and writes the standard 4-byte-per-word parse table into
// parseBufferAddr: dictionary address (word, 0 if unrecognised), word
// length (byte), and start column in the text buffer (byte). The parse
// buffer's own capacity byte at parseBufferAddr is respected: tokens
// beyond that count are dropped, per sread's defined truncation
// behaviour.
func WriteParseBuffer(mem *zmemory.Memory, parseBufferAddr uint32, text string, dict *Dictionary, alphabets *ztext.Alphabets, textBufferOffset int) (int, error) {
	maxWords, err := mem.ReadByte(parseBufferAddr)
	if err != nil {
		return 0, err
	}

	tokens := Tokenize(text, dict.Header)
	n := len(tokens)
	if n > int(maxWords) {
		n = int(maxWords)
	}

	if err := mem.WriteByte(parseBufferAddr+1, uint8(n)); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		tok := tokens[i]
		encoded := ztext.Encode([]rune(tok.Text), mem.Version, alphabets)
		dictAddr := dict.Find(encoded)

		entryAddr := parseBufferAddr + 2 + uint32(i)*4
		if err := mem.WriteWord(entryAddr, dictAddr); err != nil {
			return 0, err
		}
		if err := mem.WriteByte(entryAddr+2, uint8(len(tok.Text))); err != nil {
			return 0, err
		}
		if err := mem.WriteByte(entryAddr+3, uint8(tok.StartColumn+textBufferOffset)); err != nil {
			return 0, err
		}
	}

	return n, nil
}
