package zobject_test

import (
	"encoding/binary"
	"testing"

	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/zobject"
	"github.com/davetcode/goz/ztext"
)

// buildV3Story constructs a minimal, self-contained v3 story image with a
// 31-entry property-defaults table, two objects (1 = parent, 2 = child),
// and a trivial (empty-name) property list for each, so object-tree tests
// don't depend on an external game file.
func buildV3Story(t *testing.T) *zmemory.Memory {
	t.Helper()

	const objectTableBase = 0x40
	const defaultsSize = 31 * 2
	const obj1Base = objectTableBase + defaultsSize
	const obj2Base = obj1Base + 9
	const propTableBase = obj2Base + 9 // where property lists start

	size := propTableBase + 16
	b := make([]byte, size)
	b[0x00] = 3
	binary.BigEndian.PutUint16(b[0x0A:0x0C], uint16(objectTableBase))
	binary.BigEndian.PutUint16(b[0x0E:0x10], uint16(size)) // static mem base = end, all dynamic

	// Object 1: parent of object 2, no siblings.
	binary.BigEndian.PutUint16(b[obj1Base+7:obj1Base+9], uint16(propTableBase))
	b[propTableBase] = 0 // zero-length name
	b[propTableBase+1] = 0

	// Object 2: child of object 1.
	b[obj2Base+4] = 1 // parent = 1
	binary.BigEndian.PutUint16(b[obj2Base+7:obj2Base+9], uint16(propTableBase+2))
	b[propTableBase+2] = 0
	b[propTableBase+3] = 0

	b[obj1Base+6] = 2 // child = object 2

	mem, err := zmemory.Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mem
}

func TestGetZerothObjectErrors(t *testing.T) {
	mem := buildV3Story(t)
	alphabets := ztext.DefaultAlphabets(mem.Version)
	if _, err := zobject.Get(mem, 0, alphabets); err == nil {
		t.Fatal("expected error retrieving object 0")
	}
}

func TestObjectTreeLinks(t *testing.T) {
	mem := buildV3Story(t)
	alphabets := ztext.DefaultAlphabets(mem.Version)

	parent, err := zobject.Get(mem, 1, alphabets)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if parent.Child != 2 {
		t.Fatalf("expected child 2, got %d", parent.Child)
	}

	child, err := zobject.Get(mem, 2, alphabets)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if child.Parent != 1 {
		t.Fatalf("expected parent 1, got %d", child.Parent)
	}
}

func TestRemoveObjectUnlinksFromParent(t *testing.T) {
	mem := buildV3Story(t)
	alphabets := ztext.DefaultAlphabets(mem.Version)

	child, err := zobject.Get(mem, 2, alphabets)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if err := zobject.Remove(mem, alphabets, child); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	parent, err := zobject.Get(mem, 1, alphabets)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if parent.Child != 0 {
		t.Fatalf("expected parent to have no child after remove, got %d", parent.Child)
	}

	child, err = zobject.Get(mem, 2, alphabets)
	if err != nil {
		t.Fatalf("Get(2) after remove: %v", err)
	}
	if child.Parent != 0 {
		t.Fatalf("expected removed object to have no parent, got %d", child.Parent)
	}
}

func TestAttributeSetClear(t *testing.T) {
	mem := buildV3Story(t)
	alphabets := ztext.DefaultAlphabets(mem.Version)

	obj, err := zobject.Get(mem, 1, alphabets)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if obj.TestAttribute(5) {
		t.Fatal("attribute 5 should start clear")
	}
	if err := obj.SetAttribute(5); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if !obj.TestAttribute(5) {
		t.Fatal("attribute 5 should be set")
	}

	reloaded, err := zobject.Get(mem, 1, alphabets)
	if err != nil {
		t.Fatalf("Get(1) reload: %v", err)
	}
	if !reloaded.TestAttribute(5) {
		t.Fatal("attribute 5 should persist after reload")
	}

	if err := obj.ClearAttribute(5); err != nil {
		t.Fatalf("ClearAttribute: %v", err)
	}
	if obj.TestAttribute(5) {
		t.Fatal("attribute 5 should be clear")
	}
}
