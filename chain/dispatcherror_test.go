package chain

import (
	"math/big"
	"testing"

	"github.com/opentensor/subtensor-go/scale"
)

func uintValue(n uint64) scale.Value {
	return scale.Value{Kind: scale.KindPrimitive, Int: new(big.Int).SetUint64(n)}
}

func TestApplyExtrinsicIndexExtractsIndex(t *testing.T) {
	phase := scale.Value{
		Kind:        scale.KindVariant,
		VariantName: "ApplyExtrinsic",
		Fields:      map[string]scale.Value{"_0": uintValue(3)},
	}
	idx, ok := applyExtrinsicIndex(phase)
	if !ok {
		t.Fatal("expected ok=true for an ApplyExtrinsic phase")
	}
	if idx != 3 {
		t.Fatalf("idx = %d, want 3", idx)
	}
}

func TestApplyExtrinsicIndexRejectsOtherPhases(t *testing.T) {
	phase := scale.Value{Kind: scale.KindVariant, VariantName: "Finalization"}
	if _, ok := applyExtrinsicIndex(phase); ok {
		t.Fatal("expected ok=false for a non-ApplyExtrinsic phase")
	}
}

func TestInnerEventVariantUnwrapsTupleField(t *testing.T) {
	inner := scale.Value{Kind: scale.KindVariant, VariantName: "ExtrinsicFailed"}
	palletEvent := scale.Value{
		Kind:   scale.KindVariant,
		Fields: map[string]scale.Value{"_0": inner},
	}
	got, ok := innerEventVariant(palletEvent)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if got.VariantName != "ExtrinsicFailed" {
		t.Fatalf("VariantName = %q, want ExtrinsicFailed", got.VariantName)
	}
}

func TestFirstVariantFieldPrefersKnownNames(t *testing.T) {
	v := scale.Value{Fields: map[string]scale.Value{
		"unrelated":      uintValue(1),
		"dispatch_error": uintValue(2),
	}}
	got, ok := firstVariantField(v)
	if !ok {
		t.Fatal("expected ok=true")
	}
	n, _ := got.AsUint64()
	if n != 2 {
		t.Fatalf("picked field value = %d, want 2 (dispatch_error)", n)
	}
}

func TestFirstVariantFieldFallsBackToAnyField(t *testing.T) {
	v := scale.Value{Fields: map[string]scale.Value{"whatever": uintValue(9)}}
	got, ok := firstVariantField(v)
	if !ok {
		t.Fatal("expected ok=true")
	}
	n, _ := got.AsUint64()
	if n != 9 {
		t.Fatalf("picked field value = %d, want 9", n)
	}
}

func TestFirstVariantFieldNoFields(t *testing.T) {
	if _, ok := firstVariantField(scale.Value{}); ok {
		t.Fatal("expected ok=false for a value with no fields")
	}
}

func TestModuleErrorIndicesFromBytes(t *testing.T) {
	v := scale.Value{
		Kind: scale.KindComposite,
		Fields: map[string]scale.Value{
			"index": uintValue(5),
			"error": {Kind: scale.KindPrimitive, Bytes: []byte{2, 0, 0, 0}},
		},
	}
	pallet, errIdx, ok := moduleErrorIndices(v)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pallet != 5 || errIdx != 2 {
		t.Fatalf("got pallet=%d errIdx=%d, want 5, 2", pallet, errIdx)
	}
}

func TestModuleErrorIndicesFromSeq(t *testing.T) {
	v := scale.Value{
		Kind: scale.KindComposite,
		Fields: map[string]scale.Value{
			"index": uintValue(7),
			"error": {Kind: scale.KindSequence, Seq: []scale.Value{uintValue(1), uintValue(0), uintValue(0), uintValue(0)}},
		},
	}
	pallet, errIdx, ok := moduleErrorIndices(v)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pallet != 7 || errIdx != 1 {
		t.Fatalf("got pallet=%d errIdx=%d, want 7, 1", pallet, errIdx)
	}
}

func TestModuleErrorIndicesMissingFields(t *testing.T) {
	if _, _, ok := moduleErrorIndices(scale.Value{Kind: scale.KindComposite}); ok {
		t.Fatal("expected ok=false when index/error fields are absent")
	}
}

func TestResolveDispatchErrorNonModuleVariant(t *testing.T) {
	v := scale.Value{Kind: scale.KindVariant, VariantName: "BadOrigin"}
	got, err := resolveDispatchError(nil, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "BadOrigin" {
		t.Fatalf("Name = %q, want BadOrigin", got.Name)
	}
}

func TestResolveDispatchErrorNonVariantIsUnknown(t *testing.T) {
	got, err := resolveDispatchError(nil, scale.Value{Kind: scale.KindPrimitive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Unknown" {
		t.Fatalf("Name = %q, want Unknown", got.Name)
	}
}
