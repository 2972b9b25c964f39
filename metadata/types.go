// Package metadata fetches and decodes a node's runtime metadata and
// exposes the pallet/call/storage/constant descriptors the storage and
// extrinsic layers need to compose requests by name instead of by raw
// index.
//
// Metadata's own on-wire shape is fixed across runtime versions (only the
// *types it describes* vary), so it is decoded with the scale package's
// primitive Encoder/Decoder directly rather than through the dynamic Value
// machinery -- the dynamic path is reserved for the types metadata itself
// describes (storage values, call arguments, runtime API results).
package metadata

import "github.com/opentensor/subtensor-go/scale"

// StorageModifier says whether a missing storage value falls back to a
// declared default or is reported as absent.
type StorageModifier int

const (
	ModifierOptional StorageModifier = iota
	ModifierDefault
)

// Hasher is one of the seven hashing schemes a storage map key can use.
type Hasher int

const (
	HasherIdentity Hasher = iota
	HasherBlake2_128
	HasherBlake2_128Concat
	HasherBlake2_256
	HasherTwox64Concat
	HasherTwox128
	HasherTwox256
)

// String returns the canonical metadata string for h, used only
// in diagnostics.
func (h Hasher) String() string {
	switch h {
	case HasherIdentity:
		return "Identity"
	case HasherBlake2_128:
		return "Blake2_128"
	case HasherBlake2_128Concat:
		return "Blake2_128Concat"
	case HasherBlake2_256:
		return "Blake2_256"
	case HasherTwox64Concat:
		return "Twox64Concat"
	case HasherTwox128:
		return "Twox128"
	case HasherTwox256:
		return "Twox256"
	default:
		return "Unknown"
	}
}

// IsConcat reports whether the hasher preserves the plaintext key suffix,
// which is required to decode query_map keys.
func (h Hasher) IsConcat() bool {
	return h == HasherBlake2_128Concat || h == HasherTwox64Concat
}

// StorageKeyPart is one hashed component of a map key: an N-key map has N
// parts, a plain (non-map) value has none.
type StorageKeyPart struct {
	Hasher Hasher
	Type   scale.TypeID
}

// StorageEntry describes one entry in a pallet's storage.
type StorageEntry struct {
	Name     string
	Modifier StorageModifier
	Keys     []StorageKeyPart // empty for a plain (non-map) value
	Value    scale.TypeID
	Default  []byte // raw SCALE-encoded default, used when Modifier==Default
	Docs     []string
}

// CallArg is one named, typed parameter of a pallet call.
type CallArg struct {
	Name string
	Type scale.TypeID
}

// CallEntry describes one callable extrinsic within a pallet, addressed by
// its variant index.
type CallEntry struct {
	Index uint8
	Name  string
	Args  []CallArg
	Docs  []string
}

// ErrorEntry describes one arm of a pallet's DispatchError-producing error
// enum.
type ErrorEntry struct {
	Index uint8
	Name  string
	Docs  []string
}

// ConstantEntry is a compile-time-fixed value embedded directly in
// metadata; reading one never touches the network.
type ConstantEntry struct {
	Name  string
	Type  scale.TypeID
	Value []byte
}

// Pallet groups one runtime module's storage, calls, events and errors.
type Pallet struct {
	Index     uint8
	Name      string
	Storage   map[string]StorageEntry
	Calls     map[string]CallEntry   // by name
	CallsByIx map[uint8]CallEntry    // by variant index
	Errors    map[uint8]ErrorEntry
	Constants map[string]ConstantEntry
}

// Metadata is the fully decoded, indexed form of a runtime's metadata
// blob.
type Metadata struct {
	SpecVersion uint32
	TxVersion   uint32
	Registry    *scale.Registry
	Pallets     map[string]Pallet
	palletsByIx map[uint8]Pallet
}

// Pallet looks a pallet descriptor up by name.
func (m *Metadata) Pallet(name string) (Pallet, bool) {
	p, ok := m.Pallets[name]
	return p, ok
}

// PalletByIndex looks a pallet descriptor up by its runtime index, used
// when decoding a dispatched call/event back to its name.
func (m *Metadata) PalletByIndex(idx uint8) (Pallet, bool) {
	p, ok := m.palletsByIx[idx]
	return p, ok
}

// StorageEntry resolves a (pallet, item) storage descriptor.
func (m *Metadata) StorageEntry(pallet, item string) (Pallet, StorageEntry, bool) {
	p, ok := m.Pallets[pallet]
	if !ok {
		return Pallet{}, StorageEntry{}, false
	}
	e, ok := p.Storage[item]
	return p, e, ok
}

// Call resolves a (pallet, call) descriptor, returning the pallet's runtime
// index alongside it so the caller can build a Call{pallet_index,
// call_index}.
func (m *Metadata) Call(pallet, call string) (Pallet, CallEntry, bool) {
	p, ok := m.Pallets[pallet]
	if !ok {
		return Pallet{}, CallEntry{}, false
	}
	c, ok := p.Calls[call]
	return p, c, ok
}

// Constant resolves a (pallet, name) constant descriptor.
func (m *Metadata) Constant(pallet, name string) (ConstantEntry, bool) {
	p, ok := m.Pallets[pallet]
	if !ok {
		return ConstantEntry{}, false
	}
	c, ok := p.Constants[name]
	return c, ok
}

func indexPallets(pallets []Pallet) map[uint8]Pallet {
	out := make(map[uint8]Pallet, len(pallets))
	for _, p := range pallets {
		out[p.Index] = p
	}
	return out
}
