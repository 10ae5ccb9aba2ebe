package bilrost

import (
	"fmt"
	"reflect"

	"github.com/bilrost-rs/bilrost-go/internal/wire"
)

// Accessor reaches into a message's reflect.Value to get or set one
// field. StructField covers the common case of a plain struct field;
// OneofVariant covers a field that lives behind an interface-typed oneof
// wrapper.
type Accessor interface {
	// Get returns the field's current value, or the zero Value if this
	// accessor represents a oneof variant that is not currently active.
	Get(msg reflect.Value) reflect.Value
	// Set stores v into the field (wrapping it for a oneof variant).
	Set(msg reflect.Value, v reflect.Value)
	// Decode hands fn an addressable scratch value of the field's payload
	// type to populate; on success, the value is committed into msg (for a
	// StructField, fn mutates the field directly). For PointerField and
	// OneofVariant a decode failure from fn leaves msg unmodified; for a
	// StructField the field may be left partially written.
	Decode(msg reflect.Value, fn func(dst reflect.Value) error) error
}

// StructField accesses the struct field at index i directly.
func StructField(index int) Accessor { return structFieldAccessor{index} }

type structFieldAccessor struct{ index int }

func (a structFieldAccessor) Get(msg reflect.Value) reflect.Value { return msg.Field(a.index) }
func (a structFieldAccessor) Set(msg reflect.Value, v reflect.Value) { msg.Field(a.index).Set(v) }
func (a structFieldAccessor) Decode(msg reflect.Value, fn func(reflect.Value) error) error {
	return fn(msg.Field(a.index))
}

// PointerField accesses the struct field at index i through a pointer
// indirection: Get reports absence as the invalid reflect.Value when the
// pointer is nil, and Set allocates a fresh pointer to hold v. This is how
// Optional<E> fields and singular nested-message fields represent
// presence independent of the value's own emptiness.
func PointerField(index int) Accessor { return pointerFieldAccessor{index} }

type pointerFieldAccessor struct{ index int }

func (a pointerFieldAccessor) Get(msg reflect.Value) reflect.Value {
	p := msg.Field(a.index)
	if p.IsNil() {
		return reflect.Value{}
	}
	return p.Elem()
}

func (a pointerFieldAccessor) Set(msg reflect.Value, v reflect.Value) {
	p := msg.Field(a.index)
	np := reflect.New(p.Type().Elem())
	np.Elem().Set(v)
	p.Set(np)
}

func (a pointerFieldAccessor) Decode(msg reflect.Value, fn func(reflect.Value) error) error {
	p := msg.Field(a.index)
	tmp := reflect.New(p.Type().Elem()).Elem()
	if err := fn(tmp); err != nil {
		return err
	}
	p.Set(tmp.Addr())
	return nil
}

// OneofVariant accesses one variant of an interface-typed oneof field at
// struct index i. unwrap reports whether the interface currently holds
// this variant and, if so, its payload; wrap builds the interface value
// holding v. newValue produces a fresh, addressable zero value of the
// variant's payload type for decode to populate.
func OneofVariant(index int, newValue func() reflect.Value, wrap func(v reflect.Value) reflect.Value, unwrap func(iface reflect.Value) (reflect.Value, bool)) Accessor {
	return oneofVariantAccessor{index, newValue, wrap, unwrap}
}

type oneofVariantAccessor struct {
	index    int
	newValue func() reflect.Value
	wrap     func(reflect.Value) reflect.Value
	unwrap   func(reflect.Value) (reflect.Value, bool)
}

func (a oneofVariantAccessor) Get(msg reflect.Value) reflect.Value {
	iface := msg.Field(a.index)
	if iface.IsNil() {
		return reflect.Value{}
	}
	v, ok := a.unwrap(iface)
	if !ok {
		return reflect.Value{}
	}
	return v
}

func (a oneofVariantAccessor) Set(msg reflect.Value, v reflect.Value) {
	msg.Field(a.index).Set(a.wrap(v))
}

func (a oneofVariantAccessor) Decode(msg reflect.Value, fn func(reflect.Value) error) error {
	tmp := a.newValue()
	if err := fn(tmp); err != nil {
		return err
	}
	msg.Field(a.index).Set(a.wrap(tmp))
	return nil
}

// Kind classifies how a field's value maps onto the wire beyond its leaf
// Encoding: singular, optional, one of the repeated forms, a set, a map,
// or a member of a oneof group.
type Kind uint8

const (
	Singular Kind = iota
	Optional
	Unpacked
	Packed
	Set
	Map
	OneofMember
)

// FieldEntry is one row of a message's schema field table (spec §3): a
// tag, its encoding strategy, and how to reach the Go value it governs.
type FieldEntry struct {
	Tag      uint32
	Kind     Kind
	Accessor Accessor

	// Elem is the leaf encoding for Singular/Optional/Unpacked/Packed/Set
	// fields, and the element encoding for Packed collections' items.
	Elem Encoding

	// Key/Val are set for Kind == Map; Elem is unused.
	Key Encoding
	Val Encoding

	// Message, when set, decodes/encodes a nested message instead of a
	// leaf value (Elem/Key/Val are nil in this case). A singular field's
	// accessor may hold the nested struct itself or a pointer to it; the
	// elements of an Unpacked/Packed/Set slice are pointers to it. This
	// schema is used as given; the nested type's own BilrostSchema method,
	// if any, is not consulted.
	Message *Schema

	// OneofGroup identifies the oneof this field belongs to when Kind ==
	// OneofMember; fields sharing a group (group 0 included) are mutually
	// exclusive.
	OneofGroup int

	// Less orders set items / map keys for distinguished-mode canonical
	// ordering, required whenever the natural ordering spec §4.7 defines
	// doesn't apply to Elem/Key (enums, nested messages). a and b are
	// values of the collection's element (or map key) type.
	Less func(a, b reflect.Value) bool
}

// admissibleWireTypes returns the set of on-wire types decode will accept
// for this field's key. Packed collections of a non-LEN element type
// admit both forms (see the packed/unpacked interchange rule, §4.5).
func (f *FieldEntry) admissibleWireTypes() map[wire.Type]bool {
	switch f.Kind {
	case Packed, Unpacked:
		set := map[wire.Type]bool{wire.Len: true}
		if lt := f.leafWireType(); lt != wire.Len {
			set[lt] = true
		}
		return set
	case Map:
		return map[wire.Type]bool{wire.Len: true}
	default:
		return map[wire.Type]bool{f.leafWireType(): true}
	}
}

func (f *FieldEntry) leafWireType() wire.Type {
	if f.Message != nil {
		return wire.Len
	}
	return f.Elem.WireType()
}

// Schema is the ordered, tag-validated field table a message type exposes
// for the engine to consume opaquely.
type Schema struct {
	Fields []FieldEntry
	byTag  map[uint32]int
}

// NewSchema validates that fields are strictly ascending and distinct by
// tag, and builds the fast lookup table decode uses.
func NewSchema(fields ...FieldEntry) *Schema {
	byTag := make(map[uint32]int, len(fields))
	var lastTag uint32
	for i, f := range fields {
		if i > 0 && f.Tag <= lastTag {
			panic(fmt.Sprintf("bilrost: schema fields must have strictly ascending tags; tag %d follows %d", f.Tag, lastTag))
		}
		if _, dup := byTag[f.Tag]; dup {
			panic(fmt.Sprintf("bilrost: duplicate schema tag %d", f.Tag))
		}
		byTag[f.Tag] = i
		lastTag = f.Tag
		if (f.Kind == Set || f.Kind == Map) && f.Less == nil {
			enc := f.Elem
			if f.Kind == Map {
				enc = f.Key
			}
			if f.Message != nil || !naturallyOrderable(enc) {
				panic(fmt.Sprintf("bilrost: tag %d needs an explicit Less comparator for distinguished-mode ordering", f.Tag))
			}
		}
	}
	return &Schema{Fields: fields, byTag: byTag}
}

// naturallyOrderable reports whether enc's values have the natural
// ordering spec §4.7 defines without help from the schema (booleans,
// integers, text/byte strings). Floats, enums, and nested messages are
// not naturally orderable and require an explicit FieldEntry.Less.
func naturallyOrderable(enc Encoding) bool {
	switch enc.(type) {
	case uintEncoding, intEncoding, boolEncoding, fixed32Encoding, fixed64Encoding,
		textEncoding, bytesEncoding, byteArrayEncoding:
		return true
	default:
		return false
	}
}

func (s *Schema) lookup(tag uint32) (*FieldEntry, bool) {
	i, ok := s.byTag[tag]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// orderBy returns the comparator to use for this field's set items / map
// keys: the schema-supplied one if present, otherwise the natural
// ordering for the element's Go kind.
func (f *FieldEntry) orderBy() func(a, b reflect.Value) bool {
	if f.Less != nil {
		return f.Less
	}
	return naturalLess
}

func naturalLess(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Bool:
		return !a.Bool() && b.Bool()
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return a.Int() < b.Int()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return a.Uint() < b.Uint()
	case reflect.String:
		return a.String() < b.String()
	case reflect.Slice, reflect.Array:
		return lessBytes(a, b)
	default:
		panic("bilrost: no natural ordering for " + a.Kind().String())
	}
}

func lessBytes(a, b reflect.Value) bool {
	la, lb := a.Len(), b.Len()
	n := la
	if lb < n {
		n = lb
	}
	for i := 0; i < n; i++ {
		av, bv := a.Index(i).Uint(), b.Index(i).Uint()
		if av != bv {
			return av < bv
		}
	}
	return la < lb
}

// Message is implemented by generated or hand-written message types so
// the engine can find their field table.
type Message interface {
	BilrostSchema() *Schema
}
