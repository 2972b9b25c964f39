package scale

import (
	"fmt"
	"math/big"
)

// Value is a dynamic, type-erased representation of a decoded SCALE value.
// Exactly one set of fields is meaningful, selected by Kind. A dynamic,
// runtime-type-table-driven representation is needed (rather than static
// Go structs per type) because the chain's types can change across a
// runtime upgrade.
type Value struct {
	Kind Kind

	Bool bool
	Int  *big.Int // all primitive numeric kinds
	Str  string
	Bytes []byte

	Seq []Value // Sequence/Array/Tuple elements

	FieldOrder []string // Composite: field names in declaration order
	Fields     map[string]Value

	VariantIndex uint8
	VariantName  string
	hasVariant   bool

	Some  *Value // Option: nil means None
}

// AsUint64 returns the value's integer payload as a uint64, for primitive
// unsigned/compact kinds. It is a convenience for the common case where the
// caller knows the value fits.
func (v Value) AsUint64() (uint64, error) {
	if v.Int == nil {
		return 0, fmt.Errorf("scale: value has no integer payload")
	}
	return v.Int.Uint64(), nil
}

// Encode serializes v according to the type named by id in reg.
func Encode(reg *Registry, id TypeID, v Value) ([]byte, error) {
	e := NewEncoder()
	if err := encodeInto(e, reg, id, v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func encodeInto(e *Encoder, reg *Registry, id TypeID, v Value) error {
	def, err := reg.MustLookup(id)
	if err != nil {
		return err
	}
	switch def.Kind {
	case KindPrimitive:
		return encodePrimitive(e, def.Primitive, v)
	case KindCompact:
		if v.Int == nil {
			return fmt.Errorf("scale: compact value missing integer payload")
		}
		e.EncodeCompact(v.Int.Uint64())
		return nil
	case KindOption:
		if v.Some == nil {
			e.EncodeOptionNone()
			return nil
		}
		e.EncodeOptionSome()
		return encodeInto(e, reg, def.Elem, *v.Some)
	case KindSequence:
		e.EncodeCompact(uint64(len(v.Seq)))
		for _, elem := range v.Seq {
			if err := encodeInto(e, reg, def.Elem, elem); err != nil {
				return err
			}
		}
		return nil
	case KindArray:
		if len(v.Seq) != def.ArrayLen {
			return fmt.Errorf("scale: array expects %d elements, got %d", def.ArrayLen, len(v.Seq))
		}
		for _, elem := range v.Seq {
			if err := encodeInto(e, reg, def.Elem, elem); err != nil {
				return err
			}
		}
		return nil
	case KindTuple:
		if len(v.Seq) != len(def.Tuple) {
			return fmt.Errorf("scale: tuple expects %d members, got %d", len(def.Tuple), len(v.Seq))
		}
		for i, elem := range v.Seq {
			if err := encodeInto(e, reg, def.Tuple[i], elem); err != nil {
				return err
			}
		}
		return nil
	case KindComposite:
		for _, f := range def.Fields {
			fv, ok := v.Fields[f.Name]
			if !ok {
				return fmt.Errorf("scale: composite %q missing field %q", def.Name, f.Name)
			}
			if err := encodeInto(e, reg, f.Type, fv); err != nil {
				return err
			}
		}
		return nil
	case KindBitSequence:
		bitLen := uint64(len(v.Bytes)) * 8
		e.EncodeCompact(bitLen)
		e.Write(v.Bytes)
		return nil
	case KindVariant:
		variant, ok := findVariantByName(def.Variants, v.VariantName)
		if !ok {
			return fmt.Errorf("scale: variant %q has no arm %q", def.Name, v.VariantName)
		}
		e.EncodeUint8(variant.Index)
		for _, f := range variant.Fields {
			fv, ok := v.Fields[f.Name]
			if !ok {
				return fmt.Errorf("scale: variant arm %q missing field %q", variant.Name, f.Name)
			}
			if err := encodeInto(e, reg, f.Type, fv); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("scale: unknown kind %d", def.Kind)
	}
}

func encodePrimitive(e *Encoder, p PrimitiveKind, v Value) error {
	switch p {
	case PrimBool:
		e.EncodeBool(v.Bool)
	case PrimU8:
		e.EncodeUint8(uint8(mustInt(v)))
	case PrimU16:
		e.EncodeUint16(uint16(mustInt(v)))
	case PrimU32:
		e.EncodeUint32(uint32(mustInt(v)))
	case PrimU64:
		e.EncodeUint64(mustInt(v))
	case PrimU128:
		if v.Int == nil {
			return fmt.Errorf("scale: u128 missing integer payload")
		}
		e.EncodeUint128(v.Int)
	case PrimI8:
		e.EncodeInt8(int8(mustInt(v)))
	case PrimI16:
		e.EncodeInt16(int16(mustInt(v)))
	case PrimI32:
		e.EncodeInt32(int32(mustInt(v)))
	case PrimI64:
		e.EncodeInt64(int64(mustInt(v)))
	case PrimI128:
		if v.Int == nil {
			return fmt.Errorf("scale: i128 missing integer payload")
		}
		e.EncodeUint128(v.Int)
	case PrimStr:
		e.EncodeString(v.Str)
	case PrimBytes:
		e.EncodeBytes(v.Bytes)
	default:
		return fmt.Errorf("scale: unknown primitive kind %d", p)
	}
	return nil
}

func mustInt(v Value) uint64 {
	if v.Int == nil {
		return 0
	}
	return v.Int.Uint64()
}

func findVariantByName(vs []Variant, name string) (Variant, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

func findVariantByIndex(vs []Variant, idx uint8) (Variant, bool) {
	for _, v := range vs {
		if v.Index == idx {
			return v, true
		}
	}
	return Variant{}, false
}

// Decode deserializes a value of type id from data, returning the decoded
// Value and the number of bytes consumed.
func Decode(reg *Registry, id TypeID, data []byte) (Value, int, error) {
	d := NewDecoder(data)
	v, err := decodeFrom(d, reg, id)
	if err != nil {
		return Value{}, 0, err
	}
	return v, d.Pos(), nil
}

func decodeFrom(d *Decoder, reg *Registry, id TypeID) (Value, error) {
	def, err := reg.MustLookup(id)
	if err != nil {
		return Value{}, err
	}
	switch def.Kind {
	case KindPrimitive:
		return decodePrimitive(d, def.Primitive)
	case KindCompact:
		n, err := d.DecodeCompact()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindCompact, Int: new(big.Int).SetUint64(n)}, nil
	case KindOption:
		some, err := d.DecodeOptionDiscriminant()
		if err != nil {
			return Value{}, err
		}
		if !some {
			return Value{Kind: KindOption, Some: nil}, nil
		}
		inner, err := decodeFrom(d, reg, def.Elem)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindOption, Some: &inner}, nil
	case KindSequence:
		n, err := d.DecodeCompact()
		if err != nil {
			return Value{}, err
		}
		seq := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			elem, err := decodeFrom(d, reg, def.Elem)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, elem)
		}
		return Value{Kind: KindSequence, Seq: seq}, nil
	case KindArray:
		seq := make([]Value, 0, def.ArrayLen)
		for i := 0; i < def.ArrayLen; i++ {
			elem, err := decodeFrom(d, reg, def.Elem)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, elem)
		}
		return Value{Kind: KindArray, Seq: seq}, nil
	case KindTuple:
		seq := make([]Value, 0, len(def.Tuple))
		for _, member := range def.Tuple {
			elem, err := decodeFrom(d, reg, member)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, elem)
		}
		return Value{Kind: KindTuple, Seq: seq}, nil
	case KindComposite:
		fields := make(map[string]Value, len(def.Fields))
		order := make([]string, 0, len(def.Fields))
		for _, f := range def.Fields {
			fv, err := decodeFrom(d, reg, f.Type)
			if err != nil {
				return Value{}, err
			}
			fields[f.Name] = fv
			order = append(order, f.Name)
		}
		return Value{Kind: KindComposite, Fields: fields, FieldOrder: order}, nil
	case KindBitSequence:
		bitLen, err := d.DecodeCompact()
		if err != nil {
			return Value{}, err
		}
		byteLen := int((bitLen + 7) / 8)
		b, err := d.DecodeFixed(byteLen)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBitSequence, Bytes: b}, nil
	case KindVariant:
		idx, err := d.DecodeUint8()
		if err != nil {
			return Value{}, err
		}
		variant, ok := findVariantByIndex(def.Variants, idx)
		if !ok {
			return Value{}, fmt.Errorf("scale: %q has no variant at discriminant %d", def.Name, idx)
		}
		fields := make(map[string]Value, len(variant.Fields))
		for _, f := range variant.Fields {
			fv, err := decodeFrom(d, reg, f.Type)
			if err != nil {
				return Value{}, err
			}
			fields[f.Name] = fv
		}
		return Value{Kind: KindVariant, VariantIndex: idx, VariantName: variant.Name, Fields: fields, hasVariant: true}, nil
	default:
		return Value{}, fmt.Errorf("scale: unknown kind %d", def.Kind)
	}
}

func decodePrimitive(d *Decoder, p PrimitiveKind) (Value, error) {
	switch p {
	case PrimBool:
		b, err := d.DecodeBool()
		return Value{Kind: KindPrimitive, Bool: b}, err
	case PrimU8:
		v, err := d.DecodeUint8()
		return Value{Kind: KindPrimitive, Int: big.NewInt(int64(v))}, err
	case PrimU16:
		v, err := d.DecodeUint16()
		return Value{Kind: KindPrimitive, Int: big.NewInt(int64(v))}, err
	case PrimU32:
		v, err := d.DecodeUint32()
		return Value{Kind: KindPrimitive, Int: big.NewInt(int64(v))}, err
	case PrimU64:
		v, err := d.DecodeUint64()
		return Value{Kind: KindPrimitive, Int: new(big.Int).SetUint64(v)}, err
	case PrimU128:
		v, err := d.DecodeUint128()
		return Value{Kind: KindPrimitive, Int: v}, err
	case PrimI8:
		v, err := d.DecodeInt8()
		return Value{Kind: KindPrimitive, Int: big.NewInt(int64(v))}, err
	case PrimI16:
		v, err := d.DecodeInt16()
		return Value{Kind: KindPrimitive, Int: big.NewInt(int64(v))}, err
	case PrimI32:
		v, err := d.DecodeInt32()
		return Value{Kind: KindPrimitive, Int: big.NewInt(int64(v))}, err
	case PrimI64:
		v, err := d.DecodeInt64()
		return Value{Kind: KindPrimitive, Int: big.NewInt(v)}, err
	case PrimI128:
		v, err := d.DecodeUint128()
		return Value{Kind: KindPrimitive, Int: v}, err
	case PrimStr:
		s, err := d.DecodeString()
		return Value{Kind: KindPrimitive, Str: s}, err
	case PrimBytes:
		b, err := d.DecodeBytes()
		return Value{Kind: KindPrimitive, Bytes: b}, err
	default:
		return Value{}, fmt.Errorf("scale: unknown primitive kind %d", p)
	}
}
