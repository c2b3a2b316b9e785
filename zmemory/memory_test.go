package zmemory

import "testing"

func minimalStory(version uint8) []byte {
	b := make([]byte, 0x40+64)
	b[0x00] = version
	// static memory base right after header region for this fixture
	b[0x0E] = 0x00
	b[0x0F] = 0x40
	b[0x04] = 0x00
	b[0x05] = 0x40 // high mem base
	return b
}

func TestLoadRejectsShortImage(t *testing.T) {
	_, err := Load([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for short image")
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	b := minimalStory(7)
	_, err := Load(b)
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestReadWriteByteDynamic(t *testing.T) {
	m, err := Load(minimalStory(3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.WriteByte(0x50, 0xAB); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	v, err := m.ReadByte(0x50)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if v != 0xAB {
		t.Fatalf("got %#x want 0xAB", v)
	}
}

func TestWriteStaticMemoryFails(t *testing.T) {
	b := minimalStory(3)
	b[0x0E] = 0x00
	b[0x0F] = 0x40 // static starts right at end of header fixture
	m, err := Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.WriteByte(uint32(m.StaticMemoryBase), 1); err == nil {
		t.Fatal("expected IllegalWrite for static memory write")
	}
}

func TestDirectHeaderWriteAlwaysFails(t *testing.T) {
	m, err := Load(minimalStory(3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.WriteByte(0x10, 1); err == nil {
		t.Fatal("expected direct header byte write to fail")
	}
}

func TestInterpreterSetHeaderRespectsAuthTable(t *testing.T) {
	m, err := Load(minimalStory(3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// 0x20 (screen height) requires minVersion 4; story is v3.
	if err := m.InterpreterSetHeader(0x20, 25); err == nil {
		t.Fatal("expected version-gated header write to fail for v3 story")
	}
	// Flags2 low byte is always interpreter writable.
	if err := m.InterpreterSetHeader(0x10, 1); err != nil {
		t.Fatalf("InterpreterSetHeader: %v", err)
	}
}

func TestGameSetHeaderRejectsReadOnlyField(t *testing.T) {
	m, err := Load(minimalStory(3))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.GameSetHeader(0x02, 1); err == nil {
		t.Fatal("expected game write to release number to fail")
	}
}

func TestGlobalReadWrite(t *testing.T) {
	b := minimalStory(3)
	b[0x0C] = 0x00
	b[0x0D] = 0x50 // global variable table base
	m, err := Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.SetGlobal(3, 0x1234); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	v, err := m.Global(3)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("got %#x want 0x1234", v)
	}
}

func TestPackedAddressVersionDependent(t *testing.T) {
	m3, _ := Load(minimalStory(3))
	if got := m3.PackedAddress(0x10); got != 0x20 {
		t.Fatalf("v3 packed address: got %#x want 0x20", got)
	}
	m5, _ := Load(minimalStory(5))
	if got := m5.PackedAddress(0x10); got != 0x40 {
		t.Fatalf("v5 packed address: got %#x want 0x40", got)
	}
}

func TestBitfieldGetSetRange(t *testing.T) {
	var b Bitfield
	b = b.Set(0, true)
	if !b.Get(0) {
		t.Fatal("expected bit 0 set")
	}
	b = b.SetRange(4, 7, 0xF)
	if b.GetRange(4, 7) != 0xF {
		t.Fatalf("got %#x want 0xF", b.GetRange(4, 7))
	}
}
