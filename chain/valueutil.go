package chain

import (
	"math/big"

	"github.com/opentensor/subtensor-go/scale"
)

// UintValue wraps v as a primitive scale.Value, suitable for any fixed-width
// or compact unsigned integer field regardless of its declared bit width
// (the registry's own TypeDef picks the concrete encoding at scale.Encode
// time).
func UintValue(v uint64) scale.Value {
	return scale.Value{Kind: scale.KindPrimitive, Int: new(big.Int).SetUint64(v)}
}

// BytesToValue shapes raw bytes into the scale.Value form the registry's
// declared type for id expects: a fixed byte array ([T; N], e.g. AccountId32
// or an H256 hash) as a Seq of u8 elements; a single-field Composite
// wrapping such an array (the shape V14 metadata gives AccountId32 itself,
// as a one-tuple newtype struct around [u8; 32]) the same way, recursively;
// or a byte vector (Vec<u8>, folded to PrimBytes by the metadata registry
// builder) as Bytes directly.
func BytesToValue(reg *scale.Registry, id scale.TypeID, b []byte) (scale.Value, error) {
	def, ok := reg.Lookup(id)
	if !ok {
		return scale.Value{Kind: scale.KindPrimitive, Bytes: b}, nil
	}
	switch def.Kind {
	case scale.KindArray:
		seq := make([]scale.Value, len(b))
		for i, byt := range b {
			seq[i] = UintValue(uint64(byt))
		}
		return scale.Value{Kind: scale.KindArray, Seq: seq}, nil
	case scale.KindComposite:
		if len(def.Fields) == 1 {
			f := def.Fields[0]
			inner, err := BytesToValue(reg, f.Type, b)
			if err != nil {
				return scale.Value{}, err
			}
			return scale.Value{
				Kind:       scale.KindComposite,
				FieldOrder: []string{f.Name},
				Fields:     map[string]scale.Value{f.Name: inner},
			}, nil
		}
		return scale.Value{Kind: scale.KindPrimitive, Bytes: b}, nil
	default:
		return scale.Value{Kind: scale.KindPrimitive, Bytes: b}, nil
	}
}

// AccountKeyValue shapes a 32-byte account id as a storage-map key of the
// given keyType (the entry's declared key type) so both fixed-array
// (AccountId32) and byte-vector encodings are handled uniformly.
func (e *Engine) AccountKeyValue(reg *scale.Registry, keyType scale.TypeID, account [32]byte) (scale.Value, error) {
	return BytesToValue(reg, keyType, account[:])
}
