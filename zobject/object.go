// Package zobject implements the Z-Machine object tree: the fixed-layout
// object table (31-entry property defaults in v1-3, 63-entry in v4+),
// per-object attribute flags, parent/sibling/child links, and the
// variable-length property list each object owns.
package zobject

import (
	"encoding/binary"
	"fmt"

	"github.com/davetcode/goz/zmemory"
	"github.com/davetcode/goz/ztext"
)

// Object is a decoded view onto one entry in the object table. Mutating
// methods write straight back through mem, so a stale Object (one read
// before a sibling was unlinked elsewhere) should be re-fetched with Get
// before further use.
type Object struct {
	mem *zmemory.Memory

	BaseAddress     uint32
	Id              uint16
	Name            string
	Attributes      uint64 // top 32 bits used in v1-3, top 48 in v4+
	Parent          uint16
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

func defaultsTableSize(version uint8) uint16 {
	if version >= 4 {
		return 63
	}
	return 31
}

func entrySize(version uint8) uint32 {
	if version >= 4 {
		return 14
	}
	return 9
}

// objectBase returns the address of object id's entry in the table.
func objectBase(mem *zmemory.Memory, id uint16) uint32 {
	tableStart := uint32(mem.ObjectTableBase) + uint32(defaultsTableSize(mem.Version))*2
	return tableStart + uint32(id-1)*entrySize(mem.Version)
}

// PropertyDefault returns the global default value for propertyId (used
// when an object's own property list doesn't define it).
func PropertyDefault(mem *zmemory.Memory, propertyId uint8) (uint16, error) {
	addr := uint32(mem.ObjectTableBase) + 2*uint32(propertyId-1)
	return mem.ReadWord(addr)
}

// Get decodes object id from the object table.
func Get(mem *zmemory.Memory, id uint16, alphabets *ztext.Alphabets) (*Object, error) {
	if id == 0 {
		return nil, fmt.Errorf("zobject: object 0 does not exist")
	}

	base := objectBase(mem, id)
	o := &Object{mem: mem, Id: id, BaseAddress: base}

	if mem.Version >= 4 {
		attrHigh, err := mem.ReadSlice(base, base+4)
		if err != nil {
			return nil, err
		}
		attrLow, err := mem.ReadSlice(base+4, base+6)
		if err != nil {
			return nil, err
		}
		o.Attributes = uint64(binary.BigEndian.Uint32(attrHigh))<<32 | uint64(binary.BigEndian.Uint16(attrLow))<<16
		parent, err := mem.ReadWord(base + 6)
		if err != nil {
			return nil, err
		}
		sibling, err := mem.ReadWord(base + 8)
		if err != nil {
			return nil, err
		}
		child, err := mem.ReadWord(base + 10)
		if err != nil {
			return nil, err
		}
		propPtr, err := mem.ReadWord(base + 12)
		if err != nil {
			return nil, err
		}
		o.Parent, o.Sibling, o.Child, o.PropertyPointer = parent, sibling, child, propPtr
	} else {
		attrBytes, err := mem.ReadSlice(base, base+4)
		if err != nil {
			return nil, err
		}
		o.Attributes = uint64(binary.BigEndian.Uint32(attrBytes)) << 32
		parent, err := mem.ReadByte(base + 4)
		if err != nil {
			return nil, err
		}
		sibling, err := mem.ReadByte(base + 5)
		if err != nil {
			return nil, err
		}
		child, err := mem.ReadByte(base + 6)
		if err != nil {
			return nil, err
		}
		propPtr, err := mem.ReadWord(base + 7)
		if err != nil {
			return nil, err
		}
		o.Parent, o.Sibling, o.Child, o.PropertyPointer = uint16(parent), uint16(sibling), uint16(child), propPtr
	}

	nameLen, err := mem.ReadByte(uint32(o.PropertyPointer))
	if err != nil {
		return nil, err
	}
	if nameLen > 0 {
		name, _, err := ztext.DecodeMemory(mem, uint32(o.PropertyPointer)+1, alphabets)
		if err != nil {
			return nil, fmt.Errorf("zobject: decoding name of object %d: %w", id, err)
		}
		o.Name = name
	}

	return o, nil
}

// TestAttribute reports whether attribute (0-31 in v1-3, 0-47 in v4+) is
// set. Attribute 0 is the most significant bit of the attribute field.
func (o *Object) TestAttribute(attribute uint16) bool {
	mask := uint64(1) << (63 - attribute)
	return o.Attributes&mask == mask
}

func (o *Object) setAttributeBit(attribute uint16, value bool) error {
	mask := uint64(1) << (63 - attribute)
	if value {
		o.Attributes |= mask
	} else {
		o.Attributes &^= mask
	}

	if err := writeUint32(o.mem, o.BaseAddress, uint32(o.Attributes>>32)); err != nil {
		return err
	}
	if o.mem.Version >= 4 {
		return writeUint16(o.mem, o.BaseAddress+4, uint16(o.Attributes>>16))
	}
	return nil
}

// SetAttribute sets attribute to 1.
func (o *Object) SetAttribute(attribute uint16) error { return o.setAttributeBit(attribute, true) }

// ClearAttribute sets attribute to 0.
func (o *Object) ClearAttribute(attribute uint16) error { return o.setAttributeBit(attribute, false) }

func (o *Object) setLinkField(fieldV4Offset uint32, fieldV3Offset uint32, v uint16) error {
	if o.mem.Version >= 4 {
		return writeUint16(o.mem, o.BaseAddress+fieldV4Offset, v)
	}
	return o.mem.WriteByte(o.BaseAddress+fieldV3Offset, uint8(v))
}

func (o *Object) setParentRaw(v uint16) error {
	o.Parent = v
	return o.setLinkField(6, 4, v)
}

func (o *Object) setSiblingRaw(v uint16) error {
	o.Sibling = v
	return o.setLinkField(8, 5, v)
}

func (o *Object) setChildRaw(v uint16) error {
	o.Child = v
	return o.setLinkField(10, 6, v)
}

// Remove detaches o from its parent's child chain, per the remove_obj
// opcode. A no-op if o is already an orphan.
func Remove(mem *zmemory.Memory, alphabets *ztext.Alphabets, o *Object) error {
	if o.Parent == 0 {
		return nil
	}
	parent, err := Get(mem, o.Parent, alphabets)
	if err != nil {
		return err
	}

	if parent.Child == o.Id {
		if err := parent.setChildRaw(o.Sibling); err != nil {
			return err
		}
	} else {
		sibling, err := Get(mem, parent.Child, alphabets)
		if err != nil {
			return err
		}
		for sibling.Sibling != o.Id {
			if sibling.Sibling == 0 {
				return fmt.Errorf("zobject: object %d not found in parent %d's child chain", o.Id, parent.Id)
			}
			sibling, err = Get(mem, sibling.Sibling, alphabets)
			if err != nil {
				return err
			}
		}
		if err := sibling.setSiblingRaw(o.Sibling); err != nil {
			return err
		}
	}

	if err := o.setParentRaw(0); err != nil {
		return err
	}
	return o.setSiblingRaw(0)
}

// Move detaches o from its current parent (if any) and inserts it as the
// first child of dest, per the insert_obj opcode.
func Move(mem *zmemory.Memory, alphabets *ztext.Alphabets, o *Object, dest *Object) error {
	if err := Remove(mem, alphabets, o); err != nil {
		return err
	}
	if err := o.setSiblingRaw(dest.Child); err != nil {
		return err
	}
	if err := dest.setChildRaw(o.Id); err != nil {
		return err
	}
	return o.setParentRaw(dest.Id)
}

func writeUint16(mem *zmemory.Memory, addr uint32, v uint16) error {
	return mem.WriteWord(addr, v)
}

func writeUint32(mem *zmemory.Memory, addr uint32, v uint32) error {
	if err := mem.WriteWord(addr, uint16(v>>16)); err != nil {
		return err
	}
	return mem.WriteWord(addr+2, uint16(v))
}
