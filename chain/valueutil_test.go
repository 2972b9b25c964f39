package chain

import (
	"bytes"
	"testing"

	"github.com/opentensor/subtensor-go/scale"
)

func TestUintValue(t *testing.T) {
	v := UintValue(42)
	if v.Kind != scale.KindPrimitive {
		t.Fatalf("Kind = %v, want KindPrimitive", v.Kind)
	}
	if v.Int == nil || v.Int.Uint64() != 42 {
		t.Fatalf("Int = %v, want 42", v.Int)
	}
}

func TestBytesToValueArrayType(t *testing.T) {
	reg := scale.NewRegistry()
	const accountID scale.TypeID = 1
	reg.Register(accountID, scale.TypeDef{Kind: scale.KindArray, Elem: 0, ArrayLen: 32})

	raw := bytes.Repeat([]byte{0x07}, 32)
	v, err := BytesToValue(reg, accountID, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != scale.KindArray {
		t.Fatalf("Kind = %v, want KindArray", v.Kind)
	}
	if len(v.Seq) != 32 {
		t.Fatalf("Seq length = %d, want 32", len(v.Seq))
	}
	for _, elem := range v.Seq {
		if elem.Int == nil || elem.Int.Uint64() != 0x07 {
			t.Fatalf("Seq element = %v, want 7", elem.Int)
		}
	}
}

func TestBytesToValueCompositeOverArrayShapesAccountId32(t *testing.T) {
	reg := scale.NewRegistry()
	const arrayType scale.TypeID = 10
	const accountID32 scale.TypeID = 11
	reg.Register(arrayType, scale.TypeDef{Kind: scale.KindArray, ArrayLen: 32})
	reg.Register(accountID32, scale.TypeDef{
		Kind:   scale.KindComposite,
		Name:   "AccountId32",
		Fields: []scale.Field{{Name: "_0", Type: arrayType}},
	})

	raw := bytes.Repeat([]byte{0x09}, 32)
	v, err := BytesToValue(reg, accountID32, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != scale.KindComposite {
		t.Fatalf("Kind = %v, want KindComposite", v.Kind)
	}
	inner, ok := v.Fields["_0"]
	if !ok {
		t.Fatal("expected a \"_0\" field wrapping the inner array")
	}
	if inner.Kind != scale.KindArray || len(inner.Seq) != 32 {
		t.Fatalf("inner field = %+v, want a 32-element KindArray", inner)
	}
	if inner.Seq[0].Int == nil || inner.Seq[0].Int.Uint64() != 0x09 {
		t.Fatalf("inner.Seq[0] = %v, want 9", inner.Seq[0].Int)
	}
}

func TestBytesToValueMultiFieldCompositeFallsBackToBytes(t *testing.T) {
	reg := scale.NewRegistry()
	const multiField scale.TypeID = 20
	reg.Register(multiField, scale.TypeDef{
		Kind:   scale.KindComposite,
		Fields: []scale.Field{{Name: "a", Type: 1}, {Name: "b", Type: 2}},
	})

	raw := []byte{1, 2, 3}
	v, err := BytesToValue(reg, multiField, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != scale.KindPrimitive || !bytes.Equal(v.Bytes, raw) {
		t.Fatalf("v = %+v, want a raw-bytes fallback", v)
	}
}

func TestBytesToValueDefaultsToRawBytes(t *testing.T) {
	reg := scale.NewRegistry()
	const vecU8 scale.TypeID = 2
	reg.Register(vecU8, scale.TypeDef{Kind: scale.KindPrimitive, Primitive: scale.PrimBytes})

	raw := []byte{1, 2, 3, 4}
	v, err := BytesToValue(reg, vecU8, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != scale.KindPrimitive {
		t.Fatalf("Kind = %v, want KindPrimitive", v.Kind)
	}
	if !bytes.Equal(v.Bytes, raw) {
		t.Fatalf("Bytes = %v, want %v", v.Bytes, raw)
	}
}

func TestBytesToValueUnknownTypeFallsBackToBytes(t *testing.T) {
	reg := scale.NewRegistry()
	raw := []byte{9, 9, 9}
	v, err := BytesToValue(reg, scale.TypeID(999), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(v.Bytes, raw) {
		t.Fatalf("Bytes = %v, want %v", v.Bytes, raw)
	}
}
