package zmemory

import (
	"encoding/binary"
	"fmt"
)

// Fault is the taxonomy of memory-level errors: out-of-bounds access,
// a write to static memory, or an unauthorized header write.
type Fault struct {
	Kind    string
	Address uint32
	Detail  string
}

func (e *Fault) Error() string {
	return fmt.Sprintf("memory fault (%s) at %#x: %s", e.Kind, e.Address, e.Detail)
}

func outOfBounds(addr uint32, detail string) error {
	return &Fault{Kind: "OutOfBounds", Address: addr, Detail: detail}
}

func illegalWrite(addr uint32, detail string) error {
	return &Fault{Kind: "IllegalWrite", Address: addr, Detail: detail}
}

// Header holds the decoded fixed-layout fields of the story file header,
// mirroring zcore.Core's field list but grouped under the Memory that
// owns the byte storage it was parsed from.
type Header struct {
	Version                uint8
	Flags1                 uint8
	ReleaseNumber          uint16
	HighMemBase            uint16
	InitialPC              uint16
	DictionaryBase         uint16
	ObjectTableBase        uint16
	GlobalVariableBase     uint16
	StaticMemoryBase       uint16
	AbbreviationTableBase  uint16
	FileLengthField        uint16
	FileChecksum           uint16
	InterpreterNumber      uint8
	InterpreterVersion     uint8
	ScreenHeightLines      uint8
	ScreenWidthChars       uint8
	ScreenWidthUnits       uint16
	ScreenHeightUnits      uint16
	FontHeight             uint8
	FontWidth              uint8
	RoutinesOffset         uint16
	StringOffset           uint16
	DefaultBackgroundColor uint8
	DefaultForegroundColor uint8
	TerminatingCharTable   uint16
	OutputStream3Width     uint16
	StandardRevision       uint16
	AlphabetTableBase      uint16
	HeaderExtBase          uint16
}

// Memory owns the story image: an immutable pristine copy and a working
// copy the CPU mutates. It enforces the dynamic/static/high region
// permissions and the header write authorization table.
type Memory struct {
	pristine []byte
	bytes    []byte

	Header

	staticStart uint32
	highStart   uint32
	totalLength uint32
}

// Load parses a story file image into a Memory with a frozen pristine
// copy and an identical working copy. Bytes 0x00-0x3F are interpreted as
// the header per the Z-Machine standard; everything else is left as-is.
func Load(storyBytes []byte) (*Memory, error) {
	if len(storyBytes) < 64 {
		return nil, fmt.Errorf("story file too short: %d bytes", len(storyBytes))
	}

	version := storyBytes[0x00]
	if version < 1 || version > 5 {
		return nil, fmt.Errorf("unsupported Z-Machine version %d (only v1-5 implemented)", version)
	}

	pristine := make([]byte, len(storyBytes))
	copy(pristine, storyBytes)
	working := make([]byte, len(storyBytes))
	copy(working, storyBytes)

	m := &Memory{
		pristine: pristine,
		bytes:    working,
	}
	m.parseHeader()

	dynamicLen := uint32(m.StaticMemoryBase)
	staticLen := uint32(min(0x10000, len(storyBytes))) - dynamicLen
	if dynamicLen+staticLen > 65534 {
		return nil, fmt.Errorf("dynamic+static memory %d exceeds 65534 byte limit", dynamicLen+staticLen)
	}

	m.staticStart = dynamicLen
	m.highStart = uint32(m.HighMemBase)
	m.totalLength = uint32(len(storyBytes))

	return m, nil
}

func (m *Memory) parseHeader() {
	b := m.bytes
	m.Version = b[0x00]
	m.Flags1 = b[0x01]
	m.ReleaseNumber = binary.BigEndian.Uint16(b[0x02:0x04])
	m.HighMemBase = binary.BigEndian.Uint16(b[0x04:0x06])
	m.InitialPC = binary.BigEndian.Uint16(b[0x06:0x08])
	m.DictionaryBase = binary.BigEndian.Uint16(b[0x08:0x0A])
	m.ObjectTableBase = binary.BigEndian.Uint16(b[0x0A:0x0C])
	m.GlobalVariableBase = binary.BigEndian.Uint16(b[0x0C:0x0E])
	m.StaticMemoryBase = binary.BigEndian.Uint16(b[0x0E:0x10])
	m.AbbreviationTableBase = binary.BigEndian.Uint16(b[0x18:0x1A])
	m.FileLengthField = binary.BigEndian.Uint16(b[0x1A:0x1C])
	m.FileChecksum = binary.BigEndian.Uint16(b[0x1C:0x1E])
	m.InterpreterNumber = b[0x1E]
	m.InterpreterVersion = b[0x1F]
	m.ScreenHeightLines = b[0x20]
	m.ScreenWidthChars = b[0x21]
	m.ScreenWidthUnits = binary.BigEndian.Uint16(b[0x22:0x24])
	m.ScreenHeightUnits = binary.BigEndian.Uint16(b[0x24:0x26])
	m.FontHeight = b[0x26]
	m.FontWidth = b[0x27]
	m.RoutinesOffset = binary.BigEndian.Uint16(b[0x28:0x2A])
	m.StringOffset = binary.BigEndian.Uint16(b[0x2A:0x2C])
	m.DefaultBackgroundColor = b[0x2C]
	m.DefaultForegroundColor = b[0x2D]
	m.TerminatingCharTable = binary.BigEndian.Uint16(b[0x2E:0x30])
	m.OutputStream3Width = binary.BigEndian.Uint16(b[0x30:0x32])
	m.StandardRevision = binary.BigEndian.Uint16(b[0x32:0x34])
	m.AlphabetTableBase = binary.BigEndian.Uint16(b[0x34:0x36])
	m.HeaderExtBase = binary.BigEndian.Uint16(b[0x36:0x38])
}

// FileLength returns the story's declared file length in bytes, scaling
// the header's stored length field by the version-dependent divisor.
func (m *Memory) FileLength() uint32 {
	var divisor uint32
	switch {
	case m.Version <= 3:
		divisor = 2
	case m.Version <= 5:
		divisor = 4
	default:
		divisor = 8
	}
	return uint32(m.FileLengthField) * divisor
}

// Length returns the actual in-memory image length.
func (m *Memory) Length() uint32 { return m.totalLength }

func (m *Memory) inDynamic(addr uint32) bool { return addr < m.staticStart }

func (m *Memory) inStatic(addr uint32) bool {
	return addr >= m.staticStart && addr < uint32(min(0x10000, int(m.totalLength)))
}

// ReadByte reads one byte from any region; reads are always permitted if
// in bounds.
func (m *Memory) ReadByte(addr uint32) (uint8, error) {
	if addr >= m.totalLength {
		return 0, outOfBounds(addr, "read past end of story image")
	}
	return m.bytes[addr], nil
}

// ReadWord reads a big-endian 16-bit word.
func (m *Memory) ReadWord(addr uint32) (uint16, error) {
	if addr+1 >= m.totalLength {
		return 0, outOfBounds(addr, "word read past end of story image")
	}
	return binary.BigEndian.Uint16(m.bytes[addr : addr+2]), nil
}

// ReadSlice returns a read-only view of bytes [start, end).
func (m *Memory) ReadSlice(start, end uint32) ([]byte, error) {
	if end > m.totalLength || start > end {
		return nil, outOfBounds(start, "slice read past end of story image")
	}
	return m.bytes[start:end], nil
}

// WriteByte writes one byte. Writes to static or out-of-range addresses
// fault; writes into the header's first 64 bytes must go through
// InterpreterSetHeader/GameSetHeader instead and always fault here.
func (m *Memory) WriteByte(addr uint32, v uint8) error {
	if addr < 64 {
		return illegalWrite(addr, "direct header byte write; use InterpreterSetHeader/GameSetHeader")
	}
	if addr >= m.totalLength {
		return outOfBounds(addr, "write past end of story image")
	}
	if m.inStatic(addr) {
		return illegalWrite(addr, "write to static memory")
	}
	m.bytes[addr] = v
	return nil
}

// WriteWord writes a big-endian 16-bit word. A word write that straddles
// or lies within [0,64) is rejected the same way WriteByte rejects direct
// header writes: it must decompose into two authorized header writes.
func (m *Memory) WriteWord(addr uint32, v uint16) error {
	if addr < 64 || addr+1 < 64 {
		return illegalWrite(addr, "direct header word write; use InterpreterSetHeader/GameSetHeader for each byte")
	}
	if addr+1 >= m.totalLength {
		return outOfBounds(addr, "word write past end of story image")
	}
	if m.inStatic(addr) || m.inStatic(addr+1) {
		return illegalWrite(addr, "write to static memory")
	}
	binary.BigEndian.PutUint16(m.bytes[addr:addr+2], v)
	return nil
}

// InterpreterSetHeader and GameSetHeader write a single header byte,
// consulting the authorization table. byteOffset must be in [0,64).
func (m *Memory) InterpreterSetHeader(byteOffset uint8, v uint8) error {
	entry := headerAuthTable[byteOffset]
	if entry == nil || !entry.interpWrite || m.Version < entry.minVersion {
		return illegalWrite(uint32(byteOffset), "interpreter not authorized to write this header byte")
	}
	m.bytes[byteOffset] = v
	m.parseHeader()
	return nil
}

func (m *Memory) GameSetHeader(byteOffset uint8, v uint8) error {
	entry := headerAuthTable[byteOffset]
	if entry == nil || !entry.gameWrite || m.Version < entry.minVersion {
		return illegalWrite(uint32(byteOffset), "game not authorized to write this header byte")
	}
	m.bytes[byteOffset] = v
	m.parseHeader()
	return nil
}

// Global reads global variable i (0-based index into the 240-entry
// global variable table, i.e. Z-Machine variable numbers 16..255).
func (m *Memory) Global(i uint8) (uint16, error) {
	return m.ReadWord(uint32(m.GlobalVariableBase) + 2*uint32(i))
}

func (m *Memory) SetGlobal(i uint8, v uint16) error {
	return m.WriteWord(uint32(m.GlobalVariableBase)+2*uint32(i), v)
}

// Checksum sums bytes [0x40, length) mod 0x10000, per spec §4.1 and the
// "VERIFY" opcode's defined behaviour.
func (m *Memory) Checksum() uint16 {
	var sum uint16
	length := m.FileLength()
	if length == 0 || length > m.totalLength {
		length = m.totalLength
	}
	for i := uint32(0x40); i < length; i++ {
		sum += uint16(m.bytes[i])
	}
	return sum
}

// WordAddress decodes a word address (used for abbreviation table
// entries): 2*a.
func WordAddress(a uint16) uint32 { return 2 * uint32(a) }

// PackedAddress decodes a packed address per the story's version: 2*a for
// v1-3, 4*a for v4-5. Routines and strings use the same multiplier here;
// the v6-8 routine/string offsets are not applied (only v1-5 loads).
func (m *Memory) PackedAddress(a uint16) uint32 {
	if m.Version < 4 {
		return 2 * uint32(a)
	}
	return 4 * uint32(a)
}

// Pristine returns the immutable byte image as loaded, for Quetzal diffing.
func (m *Memory) Pristine() []byte { return m.pristine }

// Dynamic returns the current (possibly mutated) dynamic memory region.
func (m *Memory) Dynamic() []byte { return m.bytes[:m.staticStart] }

// PristineDynamic returns the pristine dynamic memory region.
func (m *Memory) PristineDynamic() []byte { return m.pristine[:m.staticStart] }

// RestoreDynamic overwrites the working dynamic region wholesale, used by
// Quetzal restore.
func (m *Memory) RestoreDynamic(data []byte) error {
	if len(data) != int(m.staticStart) {
		return fmt.Errorf("dynamic memory size mismatch: got %d want %d", len(data), m.staticStart)
	}
	copy(m.bytes[:m.staticStart], data)
	m.parseHeader()
	return nil
}

// Raw exposes the full working byte buffer for packages that need direct
// slice access for scanning (object tree walks, string decode, dictionary
// lookup). Callers must not retain or mutate the slice; all writes must go
// through WriteByte/WriteWord/InterpreterSetHeader/GameSetHeader so region
// and authorization checks stay enforced.
func (m *Memory) Raw() []byte { return m.bytes }

// StaticStart and HighStart expose the region boundaries for callers that
// need to reason about address classification directly (e.g. the
// decoder's packed-address validation).
func (m *Memory) StaticStart() uint32 { return m.staticStart }
func (m *Memory) HighStart() uint32   { return m.highStart }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
