package metadata

import (
	"testing"

	"github.com/opentensor/subtensor-go/scale"
)

// buildFixtureBlob hand-encodes a minimal V14 metadata blob: one pallet
// ("Balances") with a plain storage entry, one call ("transfer") and one
// constant, exercising every branch of decodeRawPallet/decodeTypeDef this
// client needs.
func buildFixtureBlob(t *testing.T) []byte {
	t.Helper()
	e := scale.NewEncoder()
	e.Write([]byte("meta"))
	e.EncodeUint8(14)

	// --- types: Vec<PortableType> (2 entries) ---
	e.EncodeCompact(2)

	// type id 0: Primitive(U64), no path/params/docs
	e.EncodeCompact(0)
	e.EncodeCompact(0) // path len 0
	e.EncodeCompact(0) // params len 0
	e.EncodeUint8(5)   // TypeDef tag 5 = Primitive
	e.EncodeUint8(6)   // Primitive tag 6 = U64
	e.EncodeCompact(0) // docs len 0

	// type id 1: Variant("Call") with one arm "transfer(value: u64)" @ index 7
	e.EncodeCompact(1)
	e.EncodeCompact(1)
	e.EncodeString("Call")
	e.EncodeCompact(0) // params len 0
	e.EncodeUint8(1)   // TypeDef tag 1 = Variant
	e.EncodeCompact(1) // 1 variant
	e.EncodeString("transfer")
	e.EncodeCompact(1) // 1 field
	e.EncodeOptionSome()
	e.EncodeString("value")
	e.EncodeCompact(0) // field type id 0 (u64)
	e.EncodeOptionNone() // typeName
	e.EncodeCompact(0)   // field docs len 0
	e.EncodeUint8(7)     // variant index 7
	e.EncodeCompact(0)   // variant docs len 0
	e.EncodeCompact(0)   // type docs len 0

	// --- pallets: Vec<PalletMetadata> (1 entry) ---
	e.EncodeCompact(1)
	e.EncodeString("Balances")
	// storage: Some{prefix, entries: Vec<StorageEntryMetadata> (1)}
	e.EncodeOptionSome()
	e.EncodeString("Balances")
	e.EncodeCompact(1)
	e.EncodeString("TotalIssuance")
	e.EncodeUint8(1) // modifier 1 = Default
	e.EncodeUint8(0) // StorageEntryType tag 0 = Plain
	e.EncodeCompact(0) // value type id 0
	totalIssuanceDefault := scale.NewEncoder()
	totalIssuanceDefault.EncodeUint64(0)
	e.EncodeBytes(totalIssuanceDefault.Bytes())
	e.EncodeCompact(0) // entry docs len 0

	// calls: Some{ty: 1}
	e.EncodeOptionSome()
	e.EncodeCompact(1)
	// event: None
	e.EncodeOptionNone()
	// constants: Vec (1)
	e.EncodeCompact(1)
	e.EncodeString("ExistentialDeposit")
	e.EncodeCompact(0) // ty = u64
	constVal := scale.NewEncoder()
	constVal.EncodeUint64(500)
	e.EncodeBytes(constVal.Bytes())
	e.EncodeCompact(0) // docs
	// error: None
	e.EncodeOptionNone()
	// pallet index
	e.EncodeUint8(2)

	// --- extrinsic metadata ---
	e.EncodeCompact(0) // ty
	e.EncodeUint8(4)   // version
	e.EncodeCompact(0) // signed_extensions len 0

	// --- runtime type id ---
	e.EncodeCompact(0)

	return e.Bytes()
}

func TestDecodeFixtureMetadata(t *testing.T) {
	blob := buildFixtureBlob(t)
	md, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	pallet, ok := md.Pallet("Balances")
	if !ok {
		t.Fatal("expected Balances pallet")
	}
	if pallet.Index != 2 {
		t.Fatalf("pallet index: want 2 got %d", pallet.Index)
	}

	entry, ok := pallet.Storage["TotalIssuance"]
	if !ok {
		t.Fatal("expected TotalIssuance storage entry")
	}
	if entry.Modifier != ModifierDefault {
		t.Fatalf("expected Default modifier")
	}
	if len(entry.Keys) != 0 {
		t.Fatalf("expected plain (keyless) entry, got %d keys", len(entry.Keys))
	}

	call, ok := pallet.Calls["transfer"]
	if !ok {
		t.Fatal("expected transfer call")
	}
	if call.Index != 7 {
		t.Fatalf("call index: want 7 got %d", call.Index)
	}
	if len(call.Args) != 1 || call.Args[0].Name != "value" {
		t.Fatalf("unexpected call args: %+v", call.Args)
	}

	c, ok := md.Constant("Balances", "ExistentialDeposit")
	if !ok {
		t.Fatal("expected ExistentialDeposit constant")
	}
	d := scale.NewDecoder(c.Value)
	v, err := d.DecodeUint64()
	if err != nil || v != 500 {
		t.Fatalf("constant value: want 500 got %d (err=%v)", v, err)
	}
}
