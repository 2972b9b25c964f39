package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/opentensor/subtensor-go/scale"
)

// metadataMagic is the fixed 4-byte prefix ("meta") every
// state_getMetadata response begins with, before the version-tagged
// RuntimeMetadata enum.
const metadataMagic uint32 = 0x6174656d

// Decode parses a raw SCALE-encoded `state_getMetadata` payload (already
// hex-decoded by the caller) into an indexed Metadata. Only the V14+
// metadata shape is supported.
func Decode(raw []byte) (*Metadata, error) {
	d := scale.NewDecoder(raw)

	magicBytes, err := d.DecodeFixed(4)
	if err != nil {
		return nil, fmt.Errorf("metadata: read magic: %w", err)
	}
	if binary.LittleEndian.Uint32(magicBytes) != metadataMagic {
		return nil, fmt.Errorf("metadata: bad magic number")
	}

	version, err := d.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("metadata: read version: %w", err)
	}
	if version < 14 {
		return nil, fmt.Errorf("metadata: unsupported runtime metadata version V%d (need V14+)", version)
	}

	types, err := decodePortableTypes(d)
	if err != nil {
		return nil, fmt.Errorf("metadata: types: %w", err)
	}
	reg := buildRegistry(types)

	rawPallets, err := decodeRawPallets(d)
	if err != nil {
		return nil, fmt.Errorf("metadata: pallets: %w", err)
	}

	if _, err := decodeExtrinsicMetadata(d); err != nil {
		return nil, fmt.Errorf("metadata: extrinsic: %w", err)
	}
	if _, err := d.DecodeCompact(); err != nil { // runtime type id, unused downstream
		return nil, fmt.Errorf("metadata: runtime type id: %w", err)
	}

	pallets := make(map[string]Pallet, len(rawPallets))
	for _, rp := range rawPallets {
		p := Pallet{
			Index:     rp.index,
			Name:      rp.name,
			Storage:   map[string]StorageEntry{},
			Calls:     map[string]CallEntry{},
			CallsByIx: map[uint8]CallEntry{},
			Errors:    map[uint8]ErrorEntry{},
			Constants: map[string]ConstantEntry{},
		}
		if rp.storage != nil {
			for _, se := range rp.storage.entries {
				// A multi-key map declares one Tuple key type; give each key
				// part the tuple member type it is encoded with.
				if len(se.Keys) > 1 {
					if def, ok := reg.Lookup(se.Keys[0].Type); ok && def.Kind == scale.KindTuple && len(def.Tuple) == len(se.Keys) {
						for i := range se.Keys {
							se.Keys[i].Type = def.Tuple[i]
						}
					}
				}
				p.Storage[se.Name] = se
			}
		}
		if rp.callsType != nil {
			calls, err := variantsOf(reg, *rp.callsType)
			if err != nil {
				return nil, fmt.Errorf("metadata: pallet %s calls: %w", rp.name, err)
			}
			for _, v := range calls {
				ce := CallEntry{Index: v.Index, Name: v.Name, Docs: nil}
				for _, f := range v.Fields {
					ce.Args = append(ce.Args, CallArg{Name: f.Name, Type: f.Type})
				}
				p.Calls[v.Name] = ce
				p.CallsByIx[v.Index] = ce
			}
		}
		if rp.errorType != nil {
			errVariants, err := variantsOf(reg, *rp.errorType)
			if err != nil {
				return nil, fmt.Errorf("metadata: pallet %s errors: %w", rp.name, err)
			}
			for _, v := range errVariants {
				p.Errors[v.Index] = ErrorEntry{Index: v.Index, Name: v.Name}
			}
		}
		for _, c := range rp.constants {
			p.Constants[c.Name] = c
		}
		pallets[p.Name] = p
	}

	return &Metadata{
		Registry:    reg,
		Pallets:     pallets,
		palletsByIx: indexPallets(mapValues(pallets)),
	}, nil
}

func mapValues(m map[string]Pallet) []Pallet {
	out := make([]Pallet, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	return out
}

// variantsOf resolves a type-id that is expected to be a KindVariant and
// returns its arms, used for the pallet Call/Error types which metadata
// describes indirectly via the type registry rather than inline.
func variantsOf(reg *scale.Registry, id scale.TypeID) ([]scale.Variant, error) {
	def, ok := reg.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("type id %d not found", id)
	}
	if def.Kind != scale.KindVariant {
		return nil, fmt.Errorf("type id %d is not a variant (kind=%d)", id, def.Kind)
	}
	return def.Variants, nil
}
