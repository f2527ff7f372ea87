// Package tlv encodes the tagged fields of the rules section.
//
// Each field is `u16 id | u8 type | u16 len | value`, big-endian. Readers keep
// fields they do not recognize so a newer writer's rules survive a round trip.
package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const HeaderLen = 5

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrValueTooLarge    = errors.New("tlv: value too large")
)

// Type IDs.
const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func U8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

func U16(id uint16, v uint16) Field {
	return Field{ID: id, Type: TypeU16, Value: binary.BigEndian.AppendUint16(nil, v)}
}

func U32(id uint16, v uint32) Field {
	return Field{ID: id, Type: TypeU32, Value: binary.BigEndian.AppendUint32(nil, v)}
}

func Bool(id uint16, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

// AppendField appends the encoding of f to dst.
func AppendField(dst []byte, f Field) ([]byte, error) {
	if len(f.Value) > math.MaxUint16 {
		return dst, fmt.Errorf("%w: field %d has %d bytes", ErrValueTooLarge, f.ID, len(f.Value))
	}
	dst = binary.BigEndian.AppendUint16(dst, f.ID)
	dst = append(dst, f.Type)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(f.Value)))
	return append(dst, f.Value...), nil
}

// AppendFields appends every field in order.
func AppendFields(dst []byte, fields []Field) ([]byte, error) {
	var err error
	for _, f := range fields {
		if dst, err = AppendField(dst, f); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := int(binary.BigEndian.Uint16(payload[i+3 : i+5]))
		i += HeaderLen
		if len(payload)-i < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+l])
		i += l
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("tlv: field %d type mismatch: got %d want %d", f.ID, f.Type, expected)
	}
	return nil
}

// Uint returns the value of an unsigned or bool field widened to uint32.
func (f Field) Uint() (uint32, error) {
	want := map[uint8]int{TypeU8: 1, TypeBool: 1, TypeU16: 2, TypeU32: 4}
	n, ok := want[f.Type]
	if !ok {
		return 0, fmt.Errorf("tlv: field %d type %d is not numeric", f.ID, f.Type)
	}
	if len(f.Value) != n {
		return 0, fmt.Errorf("tlv: field %d invalid length %d for type %d", f.ID, len(f.Value), f.Type)
	}
	switch n {
	case 1:
		return uint32(f.Value[0]), nil
	case 2:
		return uint32(binary.BigEndian.Uint16(f.Value)), nil
	default:
		return binary.BigEndian.Uint32(f.Value), nil
	}
}
