package metadata

import (
	"fmt"

	"github.com/opentensor/subtensor-go/scale"
)

// This file decodes the frame-metadata V14 wire shape directly against a
// *scale.Decoder (not via scale.Value/Registry -- metadata's own layout is
// fixed, only the types it describes vary). Each decode* helper consumes
// exactly the bytes of one field and advances the shared decoder.

func decodeCompactLen(d *scale.Decoder) (int, error) {
	n, err := d.DecodeCompact()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func decodeStringVec(d *scale.Decoder) ([]string, error) {
	n, err := decodeCompactLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := d.DecodeString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func decodeOptionString(d *scale.Decoder) (string, error) {
	some, err := d.DecodeOptionDiscriminant()
	if err != nil || !some {
		return "", err
	}
	return d.DecodeString()
}

// --- Portable type registry -------------------------------------------------

type rawField struct {
	name string
	ty   scale.TypeID
}

type rawVariant struct {
	name   string
	fields []rawField
	index  uint8
}

type rawTypeDef struct {
	kind      scale.Kind
	primitive scale.PrimitiveKind
	elem      scale.TypeID
	arrayLen  int
	tuple     []scale.TypeID
	fields    []rawField
	variants  []rawVariant
}

type rawPortableType struct {
	id   scale.TypeID
	path []string
	def  rawTypeDef
}

func decodePortableTypes(d *scale.Decoder) ([]rawPortableType, error) {
	n, err := decodeCompactLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]rawPortableType, n)
	for i := range out {
		pt, err := decodePortableType(d)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = pt
	}
	return out, nil
}

func decodePortableType(d *scale.Decoder) (rawPortableType, error) {
	id, err := d.DecodeCompact()
	if err != nil {
		return rawPortableType{}, err
	}
	path, err := decodeStringVec(d)
	if err != nil {
		return rawPortableType{}, err
	}
	// params: Vec<TypeParameter{name: str, ty: Option<compact type id>}>
	paramCount, err := decodeCompactLen(d)
	if err != nil {
		return rawPortableType{}, err
	}
	for i := 0; i < paramCount; i++ {
		if _, err := d.DecodeString(); err != nil {
			return rawPortableType{}, err
		}
		some, err := d.DecodeOptionDiscriminant()
		if err != nil {
			return rawPortableType{}, err
		}
		if some {
			if _, err := d.DecodeCompact(); err != nil {
				return rawPortableType{}, err
			}
		}
	}

	def, err := decodeTypeDef(d)
	if err != nil {
		return rawPortableType{}, err
	}
	if _, err := decodeStringVec(d); err != nil { // docs
		return rawPortableType{}, err
	}

	return rawPortableType{id: scale.TypeID(id), path: path, def: def}, nil
}

func decodeTypeDef(d *scale.Decoder) (rawTypeDef, error) {
	tag, err := d.DecodeUint8()
	if err != nil {
		return rawTypeDef{}, err
	}
	switch tag {
	case 0: // Composite
		fields, err := decodeFields(d)
		return rawTypeDef{kind: scale.KindComposite, fields: fields}, err
	case 1: // Variant
		variants, err := decodeVariants(d)
		return rawTypeDef{kind: scale.KindVariant, variants: variants}, err
	case 2: // Sequence
		elem, err := d.DecodeCompact()
		return rawTypeDef{kind: scale.KindSequence, elem: scale.TypeID(elem)}, err
	case 3: // Array
		length, err := d.DecodeUint32()
		if err != nil {
			return rawTypeDef{}, err
		}
		elem, err := d.DecodeCompact()
		return rawTypeDef{kind: scale.KindArray, arrayLen: int(length), elem: scale.TypeID(elem)}, err
	case 4: // Tuple
		n, err := decodeCompactLen(d)
		if err != nil {
			return rawTypeDef{}, err
		}
		tup := make([]scale.TypeID, n)
		for i := range tup {
			id, err := d.DecodeCompact()
			if err != nil {
				return rawTypeDef{}, err
			}
			tup[i] = scale.TypeID(id)
		}
		return rawTypeDef{kind: scale.KindTuple, tuple: tup}, nil
	case 5: // Primitive
		p, err := d.DecodeUint8()
		if err != nil {
			return rawTypeDef{}, err
		}
		return rawTypeDef{kind: scale.KindPrimitive, primitive: primitiveFromTag(p)}, nil
	case 6: // Compact
		elem, err := d.DecodeCompact()
		return rawTypeDef{kind: scale.KindCompact, elem: scale.TypeID(elem)}, err
	case 7: // BitSequence: bit_store_type, bit_order_type -- both discarded
		if _, err := d.DecodeCompact(); err != nil {
			return rawTypeDef{}, err
		}
		if _, err := d.DecodeCompact(); err != nil {
			return rawTypeDef{}, err
		}
		return rawTypeDef{kind: scale.KindBitSequence}, nil
	default:
		return rawTypeDef{}, fmt.Errorf("unknown TypeDef tag %d", tag)
	}
}

func primitiveFromTag(tag uint8) scale.PrimitiveKind {
	switch tag {
	case 0:
		return scale.PrimBool
	case 1, 2: // Char, Str collapse to Str (Char has no Go analog we need)
		return scale.PrimStr
	case 3:
		return scale.PrimU8
	case 4:
		return scale.PrimU16
	case 5:
		return scale.PrimU32
	case 6:
		return scale.PrimU64
	case 7:
		return scale.PrimU128
	case 9:
		return scale.PrimI8
	case 10:
		return scale.PrimI16
	case 11:
		return scale.PrimI32
	case 12:
		return scale.PrimI64
	case 13:
		return scale.PrimI128
	default:
		return scale.PrimU8 // U256/I256 and any future tag: best-effort, rarely used by this chain
	}
}

func decodeFields(d *scale.Decoder) ([]rawField, error) {
	n, err := decodeCompactLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]rawField, n)
	for i := range out {
		name, err := decodeOptionString(d)
		if err != nil {
			return nil, err
		}
		ty, err := d.DecodeCompact()
		if err != nil {
			return nil, err
		}
		if _, err := decodeOptionString(d); err != nil { // typeName
			return nil, err
		}
		if _, err := decodeStringVec(d); err != nil { // docs
			return nil, err
		}
		out[i] = rawField{name: name, ty: scale.TypeID(ty)}
	}
	return out, nil
}

func decodeVariants(d *scale.Decoder) ([]rawVariant, error) {
	n, err := decodeCompactLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]rawVariant, n)
	for i := range out {
		name, err := d.DecodeString()
		if err != nil {
			return nil, err
		}
		fields, err := decodeFields(d)
		if err != nil {
			return nil, err
		}
		index, err := d.DecodeUint8()
		if err != nil {
			return nil, err
		}
		if _, err := decodeStringVec(d); err != nil { // docs
			return nil, err
		}
		out[i] = rawVariant{name: name, fields: fields, index: index}
	}
	return out, nil
}

// buildRegistry turns the flat portable-type list into a scale.Registry,
// resolving each rawTypeDef into scale.TypeDef. Composite fields whose name
// was None (tuple-structs) are given positional placeholder names so the
// dynamic Value system can still address them.
func buildRegistry(types []rawPortableType) *scale.Registry {
	reg := scale.NewRegistry()
	for _, t := range types {
		def := scale.TypeDef{
			Kind:      t.def.kind,
			Primitive: t.def.primitive,
			Elem:      t.def.elem,
			ArrayLen:  t.def.arrayLen,
			Tuple:     t.def.tuple,
			Name:      typeName(t.path),
		}
		for i, f := range t.def.fields {
			name := f.name
			if name == "" {
				name = fmt.Sprintf("_%d", i)
			}
			def.Fields = append(def.Fields, scale.Field{Name: name, Type: f.ty})
		}
		for _, v := range t.def.variants {
			variant := scale.Variant{Index: v.index, Name: v.name}
			for i, f := range v.fields {
				name := f.name
				if name == "" {
					name = fmt.Sprintf("_%d", i)
				}
				variant.Fields = append(variant.Fields, scale.Field{Name: name, Type: f.ty})
			}
			def.Variants = append(def.Variants, variant)
		}
		// Vec<u8> is ubiquitous enough (storage defaults, call args) to get
		// the fast Bytes primitive path instead of a decoded Value sequence.
		if def.Kind == scale.KindSequence {
			if elemDef, ok := reg.Lookup(def.Elem); ok && elemDef.Kind == scale.KindPrimitive && elemDef.Primitive == scale.PrimU8 {
				def = scale.TypeDef{Kind: scale.KindPrimitive, Primitive: scale.PrimBytes, Name: def.Name}
			}
		}
		reg.Register(t.id, def)
	}
	return reg
}

func typeName(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// --- Pallets -----------------------------------------------------------------

type rawStorage struct {
	prefix  string
	entries []StorageEntry
}

type rawPallet struct {
	name      string
	index     uint8
	storage   *rawStorage
	callsType *scale.TypeID
	errorType *scale.TypeID
	constants []ConstantEntry
}

func decodeRawPallets(d *scale.Decoder) ([]rawPallet, error) {
	n, err := decodeCompactLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]rawPallet, n)
	for i := range out {
		p, err := decodeRawPallet(d)
		if err != nil {
			return nil, fmt.Errorf("pallet %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func decodeRawPallet(d *scale.Decoder) (rawPallet, error) {
	name, err := d.DecodeString()
	if err != nil {
		return rawPallet{}, err
	}

	var p rawPallet
	p.name = name

	// storage: Option<PalletStorageMetadata{prefix, entries}>
	some, err := d.DecodeOptionDiscriminant()
	if err != nil {
		return rawPallet{}, err
	}
	if some {
		prefix, err := d.DecodeString()
		if err != nil {
			return rawPallet{}, err
		}
		entries, err := decodeStorageEntries(d)
		if err != nil {
			return rawPallet{}, err
		}
		p.storage = &rawStorage{prefix: prefix, entries: entries}
	}

	// calls: Option<PalletCallMetadata{ty}>
	if ty, ok, err := decodeOptionTypeID(d); err != nil {
		return rawPallet{}, err
	} else if ok {
		p.callsType = &ty
	}

	// event: Option<PalletEventMetadata{ty}>
	if _, _, err := decodeOptionTypeID(d); err != nil {
		return rawPallet{}, err
	}

	// constants: Vec<PalletConstantMetadata{name, ty, value, docs}>
	n, err := decodeCompactLen(d)
	if err != nil {
		return rawPallet{}, err
	}
	p.constants = make([]ConstantEntry, n)
	for i := range p.constants {
		cname, err := d.DecodeString()
		if err != nil {
			return rawPallet{}, err
		}
		cty, err := d.DecodeCompact()
		if err != nil {
			return rawPallet{}, err
		}
		cval, err := d.DecodeBytes()
		if err != nil {
			return rawPallet{}, err
		}
		if _, err := decodeStringVec(d); err != nil {
			return rawPallet{}, err
		}
		p.constants[i] = ConstantEntry{Name: cname, Type: scale.TypeID(cty), Value: cval}
	}

	// error: Option<PalletErrorMetadata{ty}>
	if ty, ok, err := decodeOptionTypeID(d); err != nil {
		return rawPallet{}, err
	} else if ok {
		p.errorType = &ty
	}

	index, err := d.DecodeUint8()
	if err != nil {
		return rawPallet{}, err
	}
	p.index = index

	return p, nil
}

func decodeOptionTypeID(d *scale.Decoder) (scale.TypeID, bool, error) {
	some, err := d.DecodeOptionDiscriminant()
	if err != nil || !some {
		return 0, false, err
	}
	ty, err := d.DecodeCompact()
	if err != nil {
		return 0, false, err
	}
	return scale.TypeID(ty), true, nil
}

func decodeStorageEntries(d *scale.Decoder) ([]StorageEntry, error) {
	n, err := decodeCompactLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]StorageEntry, n)
	for i := range out {
		e, err := decodeStorageEntry(d)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func decodeStorageEntry(d *scale.Decoder) (StorageEntry, error) {
	name, err := d.DecodeString()
	if err != nil {
		return StorageEntry{}, err
	}
	modTag, err := d.DecodeUint8()
	if err != nil {
		return StorageEntry{}, err
	}
	modifier := ModifierOptional
	if modTag == 1 {
		modifier = ModifierDefault
	}

	tyTag, err := d.DecodeUint8()
	if err != nil {
		return StorageEntry{}, err
	}
	var keys []StorageKeyPart
	var valueType scale.TypeID
	switch tyTag {
	case 0: // Plain(type)
		id, err := d.DecodeCompact()
		if err != nil {
			return StorageEntry{}, err
		}
		valueType = scale.TypeID(id)
	case 1: // Map{hashers, key, value}
		hn, err := decodeCompactLen(d)
		if err != nil {
			return StorageEntry{}, err
		}
		hashers := make([]Hasher, hn)
		for i := range hashers {
			h, err := d.DecodeUint8()
			if err != nil {
				return StorageEntry{}, err
			}
			hashers[i] = hasherFromTag(h)
		}
		keyType, err := d.DecodeCompact()
		if err != nil {
			return StorageEntry{}, err
		}
		valTy, err := d.DecodeCompact()
		if err != nil {
			return StorageEntry{}, err
		}
		// A multi-key map's `key` type-id is itself a Tuple of the N key
		// types when hashers has more than one entry; single-key maps
		// reference the key type directly. Here every StorageKeyPart gets
		// the declared key type id; Decode then replaces a multi-key map's
		// part types with the tuple's member types from the registry.
		for _, h := range hashers {
			keys = append(keys, StorageKeyPart{Hasher: h, Type: scale.TypeID(keyType)})
		}
		valueType = scale.TypeID(valTy)
	default:
		return StorageEntry{}, fmt.Errorf("storage entry %q: unknown StorageEntryType tag %d", name, tyTag)
	}

	def, err := d.DecodeBytes()
	if err != nil {
		return StorageEntry{}, err
	}
	if _, err := decodeStringVec(d); err != nil { // docs
		return StorageEntry{}, err
	}

	return StorageEntry{
		Name:     name,
		Modifier: modifier,
		Keys:     keys,
		Value:    valueType,
		Default:  def,
	}, nil
}

func hasherFromTag(tag uint8) Hasher {
	switch tag {
	case 0:
		return HasherBlake2_128
	case 1:
		return HasherBlake2_256
	case 2:
		return HasherBlake2_128Concat
	case 3:
		return HasherTwox128
	case 4:
		return HasherTwox256
	case 5:
		return HasherTwox64Concat
	case 6:
		return HasherIdentity
	default:
		return HasherIdentity
	}
}

// --- Extrinsic metadata -------------------------------------------------

type rawExtrinsicMetadata struct {
	version uint8
}

func decodeExtrinsicMetadata(d *scale.Decoder) (rawExtrinsicMetadata, error) {
	if _, err := d.DecodeCompact(); err != nil { // ty
		return rawExtrinsicMetadata{}, err
	}
	version, err := d.DecodeUint8()
	if err != nil {
		return rawExtrinsicMetadata{}, err
	}
	n, err := decodeCompactLen(d)
	if err != nil {
		return rawExtrinsicMetadata{}, err
	}
	for i := 0; i < n; i++ {
		if _, err := d.DecodeString(); err != nil { // identifier
			return rawExtrinsicMetadata{}, err
		}
		if _, err := d.DecodeCompact(); err != nil { // ty
			return rawExtrinsicMetadata{}, err
		}
		if _, err := d.DecodeCompact(); err != nil { // additional_signed
			return rawExtrinsicMetadata{}, err
		}
	}
	return rawExtrinsicMetadata{version: version}, nil
}
