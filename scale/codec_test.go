package scale

import (
	"bytes"
	"math/big"
	"testing"
)

func TestCompactRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 63, 64, 16383, 16384, 1 << 29, 1 << 30, 1<<32 - 1, 1 << 40}
	for _, c := range cases {
		e := NewEncoder()
		e.EncodeCompact(c)
		d := NewDecoder(e.Bytes())
		got, err := d.DecodeCompact()
		if err != nil {
			t.Fatalf("decode %d: %v", c, err)
		}
		if got != c {
			t.Fatalf("compact round-trip mismatch: want %d got %d", c, got)
		}
		if d.Remaining() != 0 {
			t.Fatalf("compact %d left %d unread bytes", c, d.Remaining())
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	payloads := [][]byte{{}, {1}, bytes.Repeat([]byte{0xAB}, 1000)}
	for _, p := range payloads {
		e := NewEncoder()
		e.EncodeBytes(p)
		d := NewDecoder(e.Bytes())
		got, err := d.DecodeBytes()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(got, p) {
			t.Fatalf("bytes round-trip mismatch")
		}
	}
}

func TestUint128RoundTrip(t *testing.T) {
	v := new(big.Int)
	v.SetString("340282366920938463463374607431768211455", 10) // max u128
	e := NewEncoder()
	e.EncodeUint128(v)
	d := NewDecoder(e.Bytes())
	got, err := d.DecodeUint128()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Cmp(v) != 0 {
		t.Fatalf("u128 round-trip mismatch: want %s got %s", v, got)
	}
}

func TestBoolAndOption(t *testing.T) {
	e := NewEncoder()
	e.EncodeBool(true)
	e.EncodeOptionNone()
	e.EncodeOptionSome()
	e.EncodeUint32(42)

	d := NewDecoder(e.Bytes())
	b, err := d.DecodeBool()
	if err != nil || !b {
		t.Fatalf("bool decode: %v %v", b, err)
	}
	some, err := d.DecodeOptionDiscriminant()
	if err != nil || some {
		t.Fatalf("expected None, got some=%v err=%v", some, err)
	}
	some, err = d.DecodeOptionDiscriminant()
	if err != nil || !some {
		t.Fatalf("expected Some, got some=%v err=%v", some, err)
	}
	v, err := d.DecodeUint32()
	if err != nil || v != 42 {
		t.Fatalf("option payload mismatch: %v %v", v, err)
	}
}

func TestValueRoundTripComposite(t *testing.T) {
	reg := NewRegistry()
	const (
		idU64 TypeID = iota
		idStr
		idStruct
	)
	reg.Register(idU64, TypeDef{Kind: KindPrimitive, Primitive: PrimU64})
	reg.Register(idStr, TypeDef{Kind: KindPrimitive, Primitive: PrimStr})
	reg.Register(idStruct, TypeDef{
		Kind: KindComposite,
		Name: "Demo",
		Fields: []Field{
			{Name: "amount", Type: idU64},
			{Name: "label", Type: idStr},
		},
	})

	in := Value{
		Kind: KindComposite,
		Fields: map[string]Value{
			"amount": {Kind: KindPrimitive, Int: big.NewInt(1_500_000_000)},
			"label":  {Kind: KindPrimitive, Str: "hello"},
		},
	}
	encoded, err := Encode(reg, idStruct, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, n, err := Decode(reg, idStruct, encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("decode consumed %d of %d bytes", n, len(encoded))
	}
	if out.Fields["amount"].Int.Int64() != 1_500_000_000 {
		t.Fatalf("amount mismatch: %v", out.Fields["amount"].Int)
	}
	if out.Fields["label"].Str != "hello" {
		t.Fatalf("label mismatch: %v", out.Fields["label"].Str)
	}
}

func TestValueRoundTripVariant(t *testing.T) {
	reg := NewRegistry()
	const (
		idU8 TypeID = iota
		idVariant
	)
	reg.Register(idU8, TypeDef{Kind: KindPrimitive, Primitive: PrimU8})
	reg.Register(idVariant, TypeDef{
		Kind: KindVariant,
		Name: "DispatchError",
		Variants: []Variant{
			{Index: 0, Name: "Other"},
			{Index: 3, Name: "Module", Fields: []Field{{Name: "error", Type: idU8}}},
		},
	})

	in := Value{Kind: KindVariant, VariantName: "Module", Fields: map[string]Value{
		"error": {Kind: KindPrimitive, Int: big.NewInt(7)},
	}}
	encoded, err := Encode(reg, idVariant, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded[0] != 3 {
		t.Fatalf("expected discriminant 3, got %d", encoded[0])
	}
	out, _, err := Decode(reg, idVariant, encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.VariantName != "Module" || out.Fields["error"].Int.Int64() != 7 {
		t.Fatalf("variant round-trip mismatch: %+v", out)
	}
}

func TestU64F64Float(t *testing.T) {
	f := U64F64{Int: 2, Frac: 1 << 63} // 2.5
	got := f.Float64()
	if got < 2.49999 || got > 2.50001 {
		t.Fatalf("expected ~2.5, got %v", got)
	}
}
