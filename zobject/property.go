package zobject

import (
	"fmt"

	"github.com/davetcode/goz/zmemory"
)

// Property is a decoded view onto one entry in an object's property list.
type Property struct {
	Id                   uint8
	Length               uint8
	Address              uint32
	DataAddress          uint32
	PropertyHeaderLength uint8
}

func (o *Object) propertyListStart() (uint32, error) {
	nameLen, err := o.mem.ReadByte(uint32(o.PropertyPointer))
	if err != nil {
		return 0, err
	}
	return uint32(o.PropertyPointer) + 1 + uint32(nameLen)*2, nil
}

func decodePropertyHeader(mem *zmemory.Memory, addr uint32, version uint8) (Property, error) {
	sizeByte, err := mem.ReadByte(addr)
	if err != nil {
		return Property{}, err
	}

	var id, length, headerLen uint8
	if version >= 4 {
		if sizeByte&0x80 != 0 {
			lenByte, err := mem.ReadByte(addr + 1)
			if err != nil {
				return Property{}, err
			}
			length = lenByte & 0x3F
			if length == 0 {
				length = 64
			}
			id = sizeByte & 0x3F
			headerLen = 2
		} else {
			length = ((sizeByte >> 6) & 1) + 1
			id = sizeByte & 0x3F
			headerLen = 1
		}
	} else {
		length = (sizeByte >> 5) + 1
		id = sizeByte & 0x1F
		headerLen = 1
	}

	dataAddr := addr + uint32(headerLen)
	return Property{
		Id:                   id,
		Length:               length,
		Address:              addr,
		DataAddress:          dataAddr,
		PropertyHeaderLength: headerLen,
	}, nil
}

// Data returns the raw bytes of p.
func (p Property) Data(mem *zmemory.Memory) ([]byte, error) {
	return mem.ReadSlice(p.DataAddress, p.DataAddress+uint32(p.Length))
}

// Property looks up propertyId on o. If the object doesn't define it, the
// returned Property has DataAddress 0 and Length 0; callers should fall
// back to PropertyDefault in that case, per the standard's get_prop
// semantics.
func (o *Object) Property(propertyId uint8) (Property, error) {
	addr, err := o.propertyListStart()
	if err != nil {
		return Property{}, err
	}

	for {
		sizeByte, err := o.mem.ReadByte(addr)
		if err != nil {
			return Property{}, err
		}
		if sizeByte == 0 {
			break
		}

		prop, err := decodePropertyHeader(o.mem, addr, o.mem.Version)
		if err != nil {
			return Property{}, err
		}
		if prop.Id == propertyId {
			return prop, nil
		}
		addr = prop.DataAddress + uint32(prop.Length)
	}

	return Property{}, nil
}

// SetProperty overwrites the value of a 1- or 2-byte property already
// present on o. Setting a property that isn't 1 or 2 bytes, or that
// doesn't exist on o, is an error (the standard requires the game only
// call this on properties of those lengths).
func (o *Object) SetProperty(propertyId uint8, value uint16) error {
	prop, err := o.Property(propertyId)
	if err != nil {
		return err
	}
	if prop.DataAddress == 0 {
		return fmt.Errorf("zobject: object %d has no property %d to set", o.Id, propertyId)
	}

	switch prop.Length {
	case 1:
		return o.mem.WriteByte(prop.DataAddress, uint8(value))
	case 2:
		return o.mem.WriteWord(prop.DataAddress, value)
	default:
		return fmt.Errorf("zobject: property %d on object %d has length %d, can't put_prop", propertyId, o.Id, prop.Length)
	}
}

// PropertyAddress returns the byte address of propertyId's data on o, or
// 0 if o doesn't define it (get_prop_addr semantics).
func (o *Object) PropertyAddress(propertyId uint8) (uint32, error) {
	prop, err := o.Property(propertyId)
	if err != nil {
		return 0, err
	}
	return prop.DataAddress, nil
}

// PropertyLength returns the length, in bytes, of the property whose data
// starts at dataAddr (get_prop_len semantics); 0 if dataAddr is 0.
func PropertyLength(mem *zmemory.Memory, dataAddr uint32) (uint16, error) {
	if dataAddr == 0 {
		return 0, nil
	}
	prevByte, err := mem.ReadByte(dataAddr - 1)
	if err != nil {
		return 0, err
	}
	if mem.Version <= 3 {
		return uint16(prevByte>>5) + 1, nil
	}
	if prevByte&0x80 != 0 {
		length := prevByte & 0x3F
		if length == 0 {
			return 64, nil
		}
		return uint16(length), nil
	}
	return uint16((prevByte>>6)&1) + 1, nil
}

// NextProperty returns the id of the property following propertyId on o,
// or 0 if propertyId was the last one. propertyId of 0 returns the first
// property's id (0 if o has none), per get_next_prop semantics.
func (o *Object) NextProperty(propertyId uint8) (uint8, error) {
	if propertyId == 0 {
		addr, err := o.propertyListStart()
		if err != nil {
			return 0, err
		}
		sizeByte, err := o.mem.ReadByte(addr)
		if err != nil {
			return 0, err
		}
		if sizeByte == 0 {
			return 0, nil
		}
		prop, err := decodePropertyHeader(o.mem, addr, o.mem.Version)
		if err != nil {
			return 0, err
		}
		return prop.Id, nil
	}

	prop, err := o.Property(propertyId)
	if err != nil {
		return 0, err
	}
	if prop.DataAddress == 0 {
		return 0, fmt.Errorf("zobject: get_next_prop called with property %d not present on object %d", propertyId, o.Id)
	}

	nextAddr := prop.DataAddress + uint32(prop.Length)
	sizeByte, err := o.mem.ReadByte(nextAddr)
	if err != nil {
		return 0, err
	}
	if sizeByte == 0 {
		return 0, nil
	}
	next, err := decodePropertyHeader(o.mem, nextAddr, o.mem.Version)
	if err != nil {
		return 0, err
	}
	return next.Id, nil
}
