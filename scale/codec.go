// Package scale implements the SCALE (Simple Concatenated Aggregate Little-
// Endian) binary codec used by Substrate chains. It provides both a
// concrete low-level Encoder/Decoder for the primitive shapes (fixed-width
// ints, Compact<u*>, bool, byte vectors, strings, fixed arrays, sequences,
// tuples, structs, enums, Option<T>) and, in value.go/registry.go, a
// runtime type-id driven dynamic representation for values whose shape is
// only known via the chain's runtime metadata.
package scale

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
)

// Encoder appends SCALE-encoded values to an internal byte buffer.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns a ready-to-use Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoded output.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Write appends raw bytes verbatim (used to concatenate pre-encoded
// fields, e.g. runtime API call parameters).
func (e *Encoder) Write(b []byte) { e.buf.Write(b) }

// EncodeBool writes a single-byte boolean (0x00/0x01).
func (e *Encoder) EncodeBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

// EncodeUint8/16/32/64 write fixed-width unsigned integers, little-endian.
func (e *Encoder) EncodeUint8(v uint8)   { e.buf.WriteByte(v) }
func (e *Encoder) EncodeUint16(v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); e.buf.Write(b[:]) }
func (e *Encoder) EncodeUint32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); e.buf.Write(b[:]) }
func (e *Encoder) EncodeUint64(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); e.buf.Write(b[:]) }

// EncodeInt8/16/32/64 write fixed-width signed integers as their two's
// complement bit pattern, little-endian.
func (e *Encoder) EncodeInt8(v int8)   { e.EncodeUint8(uint8(v)) }
func (e *Encoder) EncodeInt16(v int16) { e.EncodeUint16(uint16(v)) }
func (e *Encoder) EncodeInt32(v int32) { e.EncodeUint32(uint32(v)) }
func (e *Encoder) EncodeInt64(v int64) { e.EncodeUint64(uint64(v)) }

// EncodeUint128 writes an unsigned 128-bit integer as 16 little-endian
// bytes, used for balances and other wide chain types.
func (e *Encoder) EncodeUint128(v *big.Int) {
	buf := make([]byte, 16)
	b := v.Bytes() // big-endian, no leading zeros
	for i := 0; i < len(b) && i < 16; i++ {
		buf[i] = b[len(b)-1-i]
	}
	e.buf.Write(buf)
}

// EncodeCompact writes a Compact<u*> variable-length integer per the SCALE
// spec: values 0..63 in 1 byte (mode 0), 0..2^14-1 in 2 bytes (mode 1),
// 0..2^30-1 in 4 bytes (mode 2), otherwise a big-integer mode encoding the
// minimal byte length followed by the little-endian value (mode 3).
func (e *Encoder) EncodeCompact(v uint64) {
	switch {
	case v < 1<<6:
		e.buf.WriteByte(byte(v << 2))
	case v < 1<<14:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v<<2)|1)
		e.buf.Write(b[:])
	case v < 1<<30:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v<<2)|2)
		e.buf.Write(b[:])
	default:
		raw := make([]byte, 8)
		binary.LittleEndian.PutUint64(raw, v)
		for len(raw) > 1 && raw[len(raw)-1] == 0 {
			raw = raw[:len(raw)-1]
		}
		e.buf.WriteByte(byte((len(raw)-4)<<2 | 3))
		e.buf.Write(raw)
	}
}

// EncodeBytes writes a compact-length-prefixed byte vector (Vec<u8>).
func (e *Encoder) EncodeBytes(b []byte) {
	e.EncodeCompact(uint64(len(b)))
	e.buf.Write(b)
}

// EncodeString writes a compact-length-prefixed UTF-8 string.
func (e *Encoder) EncodeString(s string) { e.EncodeBytes([]byte(s)) }

// EncodeFixed writes exactly len(b) raw bytes with no length prefix, for
// fixed-size arrays ([32]byte hashes, addresses, etc).
func (e *Encoder) EncodeFixed(b []byte) { e.buf.Write(b) }

// EncodeOptionSome and EncodeOptionNone write the 1/0 discriminant for
// Option<T>; after EncodeOptionSome the caller encodes the payload, after
// EncodeOptionNone nothing follows.
func (e *Encoder) EncodeOptionSome() { e.buf.WriteByte(1) }
func (e *Encoder) EncodeOptionNone() { e.buf.WriteByte(0) }

// Decoder reads SCALE-encoded values sequentially from a byte slice.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder wraps data for sequential decoding starting at offset 0.
func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

// Pos returns the current read offset.
func (d *Decoder) Pos() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.data) {
		return nil, fmt.Errorf("scale: need %d bytes at offset %d, have %d", n, d.pos, len(d.data)-d.pos)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) DecodeBool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid bool byte 0x%02x", b[0])
	}
}

func (d *Decoder) DecodeUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) DecodeUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) DecodeUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) DecodeUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) DecodeInt8() (int8, error)   { v, err := d.DecodeUint8(); return int8(v), err }
func (d *Decoder) DecodeInt16() (int16, error) { v, err := d.DecodeUint16(); return int16(v), err }
func (d *Decoder) DecodeInt32() (int32, error) { v, err := d.DecodeUint32(); return int32(v), err }
func (d *Decoder) DecodeInt64() (int64, error) { v, err := d.DecodeUint64(); return int64(v), err }

func (d *Decoder) DecodeUint128() (*big.Int, error) {
	b, err := d.take(16)
	if err != nil {
		return nil, err
	}
	le := make([]byte, 16)
	for i, c := range b {
		le[15-i] = c
	}
	return new(big.Int).SetBytes(le), nil
}

// DecodeCompact reads a Compact<u*> integer, inverse of EncodeCompact.
func (d *Decoder) DecodeCompact() (uint64, error) {
	first, err := d.take(1)
	if err != nil {
		return 0, err
	}
	mode := first[0] & 0b11
	switch mode {
	case 0:
		return uint64(first[0] >> 2), nil
	case 1:
		b, err := d.take(1)
		if err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint16([]byte{first[0], b[0]})
		return uint64(v >> 2), nil
	case 2:
		rest, err := d.take(3)
		if err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint32([]byte{first[0], rest[0], rest[1], rest[2]})
		return uint64(v >> 2), nil
	default:
		n := int(first[0]>>2) + 4
		raw, err := d.take(n)
		if err != nil {
			return 0, err
		}
		buf := make([]byte, 8)
		copy(buf, raw)
		return binary.LittleEndian.Uint64(buf), nil
	}
}

// DecodeBytes reads a compact-length-prefixed byte vector.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	n, err := d.DecodeCompact()
	if err != nil {
		return nil, err
	}
	return d.take(int(n))
}

// DecodeString reads a compact-length-prefixed UTF-8 string.
func (d *Decoder) DecodeString() (string, error) {
	b, err := d.DecodeBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeFixed reads exactly n raw bytes with no length prefix.
func (d *Decoder) DecodeFixed(n int) ([]byte, error) { return d.take(n) }

// DecodeOptionDiscriminant reads the Option<T> 0/1 tag; the caller decodes
// the payload itself when it is true.
func (d *Decoder) DecodeOptionDiscriminant() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid Option discriminant 0x%02x", b[0])
	}
}
