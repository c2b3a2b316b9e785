package zquetzal

import (
	"encoding/binary"
	"fmt"
)

// iffChunk is one chunk of a generic IFF FORM container: a 4-character
// ID and its payload.
type iffChunk struct {
	ID   string
	Data []byte
}

// writeForm packs chunks into an IFF FORM container of the given type
// ("IFZS" for Quetzal), padding each chunk's data to an even length as
// the IFF standard requires.
func writeForm(formType string, chunks []iffChunk) []byte {
	var body []byte
	body = append(body, []byte(formType)...)
	for _, c := range chunks {
		body = append(body, writeChunk(c)...)
	}

	out := make([]byte, 0, 8+len(body))
	out = append(out, []byte("FORM")...)
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	out = append(out, length[:]...)
	out = append(out, body...)
	return out
}

func writeChunk(c iffChunk) []byte {
	out := make([]byte, 0, 8+len(c.Data)+1)
	out = append(out, []byte(padID(c.ID))...)
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(c.Data)))
	out = append(out, length[:]...)
	out = append(out, c.Data...)
	if len(c.Data)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

func padID(id string) string {
	for len(id) < 4 {
		id += " "
	}
	return id
}

// parseForm unpacks an IFF FORM container, returning its type ("IFZS"
// for Quetzal) and the chunks nested inside it. Unknown chunk IDs are
// returned like any other; the standard says to skip what you don't
// recognise, so the caller decides what to ignore.
func parseForm(data []byte) (string, []iffChunk, error) {
	if len(data) < 12 || string(data[0:4]) != "FORM" {
		return "", nil, fmt.Errorf("zquetzal: not an IFF FORM file")
	}
	formLen := binary.BigEndian.Uint32(data[4:8])
	if int(formLen)+8 > len(data) {
		return "", nil, fmt.Errorf("zquetzal: FORM length %d exceeds file size %d", formLen, len(data))
	}
	formType := string(data[8:12])
	body := data[12 : 8+formLen]

	var chunks []iffChunk
	ptr := 0
	for ptr+8 <= len(body) {
		id := string(body[ptr : ptr+4])
		size := binary.BigEndian.Uint32(body[ptr+4 : ptr+8])
		ptr += 8
		if ptr+int(size) > len(body) {
			return "", nil, fmt.Errorf("zquetzal: chunk %q length %d runs past end of FORM", id, size)
		}
		chunks = append(chunks, iffChunk{ID: id, Data: body[ptr : ptr+int(size)]})
		ptr += int(size)
		if size%2 != 0 {
			ptr++
		}
	}
	return formType, chunks, nil
}
