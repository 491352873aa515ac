package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// decoder walks a protobuf-encoded byte slice field by field. It is not
// safe for concurrent use; each Unmarshal call owns its own decoder.
type decoder struct {
	b []byte
}

// next returns the next field's number, wire type, and raw value bytes
// (already consumed from the stream). At end of input it returns field
// number 0 and a nil value with a nil error.
func (d *decoder) next() (num protowire.Number, typ protowire.Type, val []byte, err error) {
	if len(d.b) == 0 {
		return 0, 0, nil, nil
	}
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		return 0, 0, nil, fmt.Errorf("wire: invalid tag: %w", protowire.ParseError(n))
	}
	d.b = d.b[n:]

	switch typ {
	case protowire.VarintType:
		_, n := protowire.ConsumeVarint(d.b)
		if n < 0 {
			return 0, 0, nil, fmt.Errorf("wire: invalid varint: %w", protowire.ParseError(n))
		}
		val = d.b[:n]
	case protowire.Fixed32Type:
		_, n := protowire.ConsumeFixed32(d.b)
		if n < 0 {
			return 0, 0, nil, fmt.Errorf("wire: invalid fixed32: %w", protowire.ParseError(n))
		}
		val = d.b[:n]
	case protowire.Fixed64Type:
		_, n := protowire.ConsumeFixed64(d.b)
		if n < 0 {
			return 0, 0, nil, fmt.Errorf("wire: invalid fixed64: %w", protowire.ParseError(n))
		}
		val = d.b[:n]
	case protowire.BytesType:
		_, n := protowire.ConsumeBytes(d.b)
		if n < 0 {
			return 0, 0, nil, fmt.Errorf("wire: invalid bytes: %w", protowire.ParseError(n))
		}
		val = d.b[:n]
	default:
		n := protowire.ConsumeFieldValue(num, typ, d.b)
		if n < 0 {
			return 0, 0, nil, fmt.Errorf("wire: invalid field %d: %w", num, protowire.ParseError(n))
		}
		val = d.b[:n]
	}
	d.b = d.b[len(val):]
	return num, typ, val, nil
}

func decodeVarint(val []byte) uint64 {
	v, _ := protowire.ConsumeVarint(val)
	return v
}

func decodeUint32(val []byte) uint32 {
	return uint32(decodeVarint(val))
}

func decodeBool(val []byte) bool {
	return decodeVarint(val) != 0
}

func decodeFixed32(val []byte) uint32 {
	v, _ := protowire.ConsumeFixed32(val)
	return v
}

func decodeFloat32(val []byte) float32 {
	return math.Float32frombits(decodeFixed32(val))
}

func decodeBytes(val []byte) []byte {
	v, _ := protowire.ConsumeBytes(val)
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func decodeString(val []byte) string {
	return string(decodeBytes(val))
}

// -- append helpers --

func appendUint32Field(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	var i uint64
	if v {
		i = 1
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, i)
}

func appendFloat32Field(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessageField(b []byte, num protowire.Number, sub []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}

// -- Vec3 --

func marshalVec3(v Vec3) []byte {
	var b []byte
	b = appendFloat32Field(b, 1, v.X)
	b = appendFloat32Field(b, 2, v.Y)
	b = appendFloat32Field(b, 3, v.Z)
	return b
}

func unmarshalVec3(data []byte) (Vec3, error) {
	var v Vec3
	d := decoder{b: data}
	for {
		num, typ, val, err := d.next()
		if err != nil {
			return v, err
		}
		if val == nil && num == 0 {
			break
		}
		if typ != protowire.Fixed32Type {
			continue
		}
		switch num {
		case 1:
			v.X = decodeFloat32(val)
		case 2:
			v.Y = decodeFloat32(val)
		case 3:
			v.Z = decodeFloat32(val)
		}
	}
	return v, nil
}
