package orm

import (
	"encoding/binary"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/errors"
)

// Encoder writes model fields in protobuf wire format. Fields must be
// written in ascending tag order. Zero values are skipped, the decoder
// leaves them at their zero value.
type Encoder struct {
	buf *proto.Buffer
	err error
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: proto.NewBuffer(nil)}
}

func (e *Encoder) key(tag uint64, wire int) {
	if e.err == nil {
		e.err = e.buf.EncodeVarint(tag<<3 | uint64(wire))
	}
}

// Bytes writes a length delimited field.
func (e *Encoder) Bytes(tag uint64, b []byte) *Encoder {
	if len(b) == 0 {
		return e
	}
	e.key(tag, proto.WireBytes)
	if e.err == nil {
		e.err = e.buf.EncodeRawBytes(b)
	}
	return e
}

// RepeatedBytes writes one length delimited field per element. Empty
// elements are kept so the decoded list has the same length.
func (e *Encoder) RepeatedBytes(tag uint64, list [][]byte) *Encoder {
	for _, b := range list {
		e.key(tag, proto.WireBytes)
		if e.err == nil {
			e.err = e.buf.EncodeRawBytes(b)
		}
	}
	return e
}

// Fixed64 writes an 8 byte little endian field.
func (e *Encoder) Fixed64(tag uint64, v uint64) *Encoder {
	if v == 0 {
		return e
	}
	e.key(tag, proto.WireFixed64)
	if e.err == nil {
		e.err = e.buf.EncodeFixed64(v)
	}
	return e
}

// Varint writes a varint field.
func (e *Encoder) Varint(tag uint64, v uint64) *Encoder {
	if v == 0 {
		return e
	}
	e.key(tag, proto.WireVarint)
	if e.err == nil {
		e.err = e.buf.EncodeVarint(v)
	}
	return e
}

// Result returns the serialized fields.
func (e *Encoder) Result() ([]byte, error) {
	if e.err != nil {
		return nil, errors.Wrap(errors.ErrModel, e.err.Error())
	}
	return e.buf.Bytes(), nil
}

// Field is a single decoded protobuf field.
type Field struct {
	Tag   uint64
	Wire  int
	Value uint64
	Bytes []byte
}

// Wire types of the fields the codec writes.
const (
	WireVarint  = proto.WireVarint
	WireFixed64 = proto.WireFixed64
	WireBytes   = proto.WireBytes
)

// Schema maps a field tag to the wire type it is encoded with.
type Schema map[uint64]int

// Decode splits raw into fields. Unknown wire types are rejected, so is a
// field whose tag is listed in schema but arrives with another wire type.
// Tags missing from schema are returned unchecked.
func Decode(raw []byte, schema Schema) ([]Field, error) {
	var fields []Field
	for len(raw) > 0 {
		key, n := proto.DecodeVarint(raw)
		if n == 0 {
			return nil, errors.Wrap(errors.ErrModel, "invalid field key")
		}
		raw = raw[n:]
		f := Field{Tag: key >> 3, Wire: int(key & 7)}
		if want, ok := schema[f.Tag]; ok && want != f.Wire {
			return nil, errors.Wrapf(errors.ErrModel, "field %d: wire type %d, want %d", f.Tag, f.Wire, want)
		}

		switch f.Wire {
		case proto.WireVarint:
			v, n := proto.DecodeVarint(raw)
			if n == 0 {
				return nil, errors.Wrapf(errors.ErrModel, "field %d: invalid varint", f.Tag)
			}
			f.Value = v
			raw = raw[n:]
		case proto.WireFixed64:
			if len(raw) < 8 {
				return nil, errors.Wrapf(errors.ErrModel, "field %d: short fixed64", f.Tag)
			}
			f.Value = binary.LittleEndian.Uint64(raw)
			raw = raw[8:]
		case proto.WireBytes:
			size, n := proto.DecodeVarint(raw)
			if n == 0 || uint64(len(raw)-n) < size {
				return nil, errors.Wrapf(errors.ErrModel, "field %d: invalid length", f.Tag)
			}
			raw = raw[n:]
			f.Bytes = append([]byte(nil), raw[:size]...)
			raw = raw[size:]
		default:
			return nil, errors.Wrapf(errors.ErrModel, "field %d: unsupported wire type %d", f.Tag, f.Wire)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
