package scale

import "fmt"

// TypeID is a u32 index into the chain's global type table: a map from
// type-id to structural type description.
type TypeID uint32

// Kind discriminates the structural shape a TypeDef describes.
type Kind int

const (
	KindPrimitive Kind = iota
	KindCompact
	KindSequence // Vec<T>, compact-length-prefixed
	KindArray    // [T; N], fixed length, no prefix
	KindTuple
	KindComposite // struct, ordered named fields
	KindVariant   // enum: 1-byte discriminant + variant payload
	KindOption
	KindBitSequence // compact bit-length prefix + ceil(len/8) bytes; surfaced as raw bytes
)

// PrimitiveKind enumerates the fixed-width/primitive leaf types.
type PrimitiveKind int

const (
	PrimBool PrimitiveKind = iota
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimStr
	PrimBytes // Vec<u8> rendered as raw bytes rather than a decoded sequence
)

// Field is one named member of a Composite or one Variant's payload field.
type Field struct {
	Name string
	Type TypeID
}

// Variant is one arm of an enum, keyed by its 1-byte discriminant.
type Variant struct {
	Index  uint8
	Name   string
	Fields []Field
}

// TypeDef structurally describes one registered type-id.
type TypeDef struct {
	Kind      Kind
	Primitive PrimitiveKind
	Elem      TypeID // Sequence/Array/Option/Compact element type
	ArrayLen  int    // Array only
	Tuple     []TypeID
	Fields    []Field   // Composite only
	Variants  []Variant // Variant only
	Name      string    // human-readable, for error messages/custom types
}

// Registry maps type-ids to their structural definition. It is built once
// per connection session from decoded runtime metadata plus any
// statically-supplied custom type registry, and is
// immutable after construction except across a reconnect-triggered
// refresh.
type Registry struct {
	types map[TypeID]TypeDef
	// named indexes well-known types (e.g. "Compact<Balance>",
	// "AccountId32") so callers can resolve by name when the metadata
	// type-id isn't known ahead of time, as the static custom type
	// registry does.
	named map[string]TypeID
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[TypeID]TypeDef), named: make(map[string]TypeID)}
}

// Register inserts or overwrites the definition for id.
func (r *Registry) Register(id TypeID, def TypeDef) {
	r.types[id] = def
	if def.Name != "" {
		r.named[def.Name] = id
	}
}

// Lookup resolves a type-id to its definition.
func (r *Registry) Lookup(id TypeID) (TypeDef, bool) {
	def, ok := r.types[id]
	return def, ok
}

// LookupByName resolves a well-known type by its registered name.
func (r *Registry) LookupByName(name string) (TypeID, TypeDef, bool) {
	id, ok := r.named[name]
	if !ok {
		return 0, TypeDef{}, false
	}
	def := r.types[id]
	return id, def, true
}

// MustLookup is Lookup but returns an error instead of a boolean, for call
// sites that cannot proceed without the definition.
func (r *Registry) MustLookup(id TypeID) (TypeDef, error) {
	def, ok := r.Lookup(id)
	if !ok {
		return TypeDef{}, fmt.Errorf("scale: unknown type id %d", id)
	}
	return def, nil
}

// Merge copies every entry of other into r, overwriting on collision. Used
// to layer a static custom type registry on top of the chain-supplied metadata types.
func (r *Registry) Merge(other *Registry) {
	for id, def := range other.types {
		r.Register(id, def)
	}
}
