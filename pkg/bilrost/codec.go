package bilrost

import (
	"reflect"

	"github.com/bilrost-rs/bilrost-go/internal/varint"
	"github.com/bilrost-rs/bilrost-go/internal/wire"
)

// encodeMessage writes msg's fields to out in ascending tag order,
// skipping absent or empty values per spec §4.6.
func encodeMessage(out *wire.Output, msg reflect.Value, schema *Schema) {
	var lastTag uint32
	for i := range schema.Fields {
		f := &schema.Fields[i]
		if !fieldPresent(f, msg) {
			continue
		}
		lastTag = encodeField(out, msg, f, lastTag)
	}
}

// measureMessage returns the encoded length of msg under schema, for
// sizing a nested message's LEN length prefix before writing it.
func measureMessage(msg reflect.Value, schema *Schema) int {
	m := wire.NewMeasuringOutput()
	encodeMessage(m, msg, schema)
	return m.Len()
}

// fieldPresent reports whether f has anything to write for msg: a oneof
// variant or optional value must be active; a singular scalar must be
// non-empty; a collection must be non-empty.
func fieldPresent(f *FieldEntry, msg reflect.Value) bool {
	switch f.Kind {
	case Singular:
		if f.Message != nil {
			return f.Accessor.Get(msg).IsValid()
		}
		return !f.Elem.IsEmpty(f.Accessor.Get(msg))
	case Optional, OneofMember:
		return f.Accessor.Get(msg).IsValid()
	case Unpacked, Packed, Set:
		return f.Accessor.Get(msg).Len() > 0
	case Map:
		v := f.Accessor.Get(msg)
		return !v.IsNil() && v.Len() > 0
	default:
		return false
	}
}

func encodeField(out *wire.Output, msg reflect.Value, f *FieldEntry, lastTag uint32) uint32 {
	switch f.Kind {
	case Singular, Optional, OneofMember:
		v := f.Accessor.Get(msg)
		return encodeItem(out, f, v, lastTag)
	case Unpacked:
		items := f.Accessor.Get(msg)
		for i := 0; i < items.Len(); i++ {
			lastTag = encodeItem(out, f, items.Index(i), lastTag)
		}
		return lastTag
	case Packed:
		return encodePacked(out, f, f.Accessor.Get(msg), lastTag)
	case Set:
		items := sortedCopy(f.Accessor.Get(msg), f)
		for i := 0; i < items.Len(); i++ {
			lastTag = encodeItem(out, f, items.Index(i), lastTag)
		}
		return lastTag
	case Map:
		return encodeMap(out, f, f.Accessor.Get(msg), lastTag)
	}
	return lastTag
}

// encodeItem writes one naked value (a leaf, or a length-framed nested
// message) under f's key, returning the updated last-tag.
func encodeItem(out *wire.Output, f *FieldEntry, v reflect.Value, lastTag uint32) uint32 {
	if lastTag == f.Tag {
		// A further item of the same unpacked/set field: tag delta 0.
		out.WriteVarint(uint64(f.leafWireType()))
	} else {
		lastTag = out.WriteKey(lastTag, f.Tag, f.leafWireType())
	}
	if f.Message != nil {
		msg := v
		if msg.Kind() == reflect.Ptr {
			msg = msg.Elem()
		}
		n := measureMessage(msg, f.Message)
		out.WriteVarint(uint64(n))
		encodeMessage(out, msg, f.Message)
		return lastTag
	}
	f.Elem.Encode(out, v)
	return lastTag
}

// encodePacked writes items as a single LEN blob of back-to-back naked
// encodings, the representation Packed fields use on the wire.
func encodePacked(out *wire.Output, f *FieldEntry, items reflect.Value, lastTag uint32) uint32 {
	lastTag = out.WriteKey(lastTag, f.Tag, wire.Len)
	n := 0
	for i := 0; i < items.Len(); i++ {
		n += itemSize(f, items.Index(i))
	}
	out.WriteVarint(uint64(n))
	for i := 0; i < items.Len(); i++ {
		encodeNaked(out, f, items.Index(i))
	}
	return lastTag
}

// encodeNaked writes v's naked encoding with no key, for use inside a
// packed blob or a map's key/value stream.
func encodeNaked(out *wire.Output, f *FieldEntry, v reflect.Value) {
	if f.Message != nil {
		msg := v
		if msg.Kind() == reflect.Ptr {
			msg = msg.Elem()
		}
		n := measureMessage(msg, f.Message)
		out.WriteVarint(uint64(n))
		encodeMessage(out, msg, f.Message)
		return
	}
	f.Elem.Encode(out, v)
}

func itemSize(f *FieldEntry, v reflect.Value) int {
	if f.Message != nil {
		msg := v
		if msg.Kind() == reflect.Ptr {
			msg = msg.Elem()
		}
		n := measureMessage(msg, f.Message)
		return varint.Size(uint64(n)) + n
	}
	return f.Elem.Size(v)
}

func encodeMap(out *wire.Output, f *FieldEntry, m reflect.Value, lastTag uint32) uint32 {
	lastTag = out.WriteKey(lastTag, f.Tag, wire.Len)
	keys := sortedMapKeys(m, f)
	n := 0
	for _, k := range keys {
		n += f.Key.Size(k) + f.Val.Size(m.MapIndex(k))
	}
	out.WriteVarint(uint64(n))
	for _, k := range keys {
		f.Key.Encode(out, k)
		f.Val.Encode(out, m.MapIndex(k))
	}
	return lastTag
}

// sortedCopy returns a copy of items ordered by f's comparator, the order
// Set fields always encode in regardless of decode mode.
func sortedCopy(items reflect.Value, f *FieldEntry) reflect.Value {
	n := items.Len()
	out := reflect.MakeSlice(items.Type(), n, n)
	reflect.Copy(out, items)
	less := f.orderBy()
	for i := 1; i < n; i++ {
		for j := i; j > 0 && less(out.Index(j), out.Index(j-1)); j-- {
			tmp := reflect.New(out.Type().Elem()).Elem()
			tmp.Set(out.Index(j))
			out.Index(j).Set(out.Index(j - 1))
			out.Index(j - 1).Set(tmp)
		}
	}
	return out
}

func sortedMapKeys(m reflect.Value, f *FieldEntry) []reflect.Value {
	keys := m.MapKeys()
	less := f.orderBy()
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && less(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// fieldRuntimeState tracks, across the on-wire occurrences of one schema
// field within a single decodeMessage call, what decode needs to detect
// repeats, packed/unpacked conflicts and set ordering.
type fieldRuntimeState struct {
	seenSingular bool
	seenPacked   bool
	seenUnpacked bool
	lastItem     reflect.Value
}

// decodeMessage reads fields from in into msg until exhausted, dispatching
// each to its schema entry and joining per-field canonicity into the
// message's overall verdict. Unknown tags are skipped and downgrade to
// HasExtensions.
func decodeMessage(in *wire.Input, msg reflect.Value, schema *Schema, mode Mode, opts Options, depth int) (Canonicity, error) {
	if opts.RecursionLimit > 0 && depth > opts.RecursionLimit {
		return Canonical, ErrRecursionLimit
	}
	canon := Canonical
	var lastTag uint32
	states := make([]fieldRuntimeState, len(schema.Fields))
	oneofTag := make(map[int]uint32)

	for in.Remaining() > 0 {
		tag, wt, err := in.ReadKey(lastTag)
		if err != nil {
			return canon, mapVarintErr(err)
		}
		lastTag = tag

		idx, ok := schema.byTag[tag]
		if !ok {
			if err := skipValue(in, wt); err != nil {
				return canon, err
			}
			canon = canon.Join(HasExtensions)
			continue
		}
		f := &schema.Fields[idx]
		if !f.admissibleWireTypes()[wt] {
			return canon, withFieldPath(ErrUnexpectedWireType, tag, opts.DetailedErrors)
		}

		if f.Kind == OneofMember {
			if prevTag, seen := oneofTag[f.OneofGroup]; seen && prevTag != f.Tag {
				return canon, withFieldPath(ErrOneofConflict, tag, opts.DetailedErrors)
			}
			oneofTag[f.OneofGroup] = f.Tag
		}

		c, err := decodeField(in, msg, f, wt, mode, opts, depth, &states[idx])
		if err != nil {
			return canon, withFieldPath(err, tag, opts.DetailedErrors)
		}
		canon = canon.Join(c)
	}
	return canon, nil
}

func decodeField(in *wire.Input, msg reflect.Value, f *FieldEntry, wt wire.Type, mode Mode, opts Options, depth int, st *fieldRuntimeState) (Canonicity, error) {
	switch f.Kind {
	case Singular, Optional, OneofMember:
		if st.seenSingular {
			return Canonical, ErrUnexpectedRepeat
		}
		st.seenSingular = true
		return decodeSingularLike(in, msg, f, mode, opts, depth)
	case Unpacked, Packed:
		return decodeRepeatedField(in, msg, f, wt, mode, opts, depth, st)
	case Set:
		return decodeSetField(in, msg, f, mode, opts, depth, st)
	case Map:
		if st.seenSingular {
			return Canonical, ErrUnexpectedRepeat
		}
		st.seenSingular = true
		return decodeMapField(in, msg, f, mode, opts, depth)
	}
	return Canonical, nil
}

// decodeItem reads one naked value — a leaf, or a length-framed nested
// message — into dst.
func decodeItem(in *wire.Input, f *FieldEntry, dst reflect.Value, mode Mode, opts Options, depth int) (Canonicity, error) {
	if f.Message != nil {
		n, err := in.ReadVarint()
		if err != nil {
			return Canonical, mapVarintErr(err)
		}
		if n > uint64(in.Remaining()) {
			return Canonical, ErrTruncated
		}
		sub, err := in.Sub(int(n))
		if err != nil {
			return Canonical, mapVarintErr(err)
		}
		return decodeMessage(sub, dst, f.Message, mode, opts, depth+1)
	}
	return Canonical, f.Elem.Decode(in, dst)
}

func decodeSingularLike(in *wire.Input, msg reflect.Value, f *FieldEntry, mode Mode, opts Options, depth int) (Canonicity, error) {
	var occ Canonicity
	err := f.Accessor.Decode(msg, func(dst reflect.Value) error {
		c, err := decodeItem(in, f, dst, mode, opts, depth)
		if err != nil {
			return err
		}
		occ = c
		if f.Kind == Singular && f.Message == nil && mode == Distinguished && f.Elem.IsEmpty(dst) {
			occ = occ.Join(NotCanonical)
		}
		return nil
	})
	return occ, err
}

// newItemTarget returns a fresh, addressable scratch value for decoding
// one element of a repeated/set field: the pointed-to struct for a nested
// message element, or a plain zero value for a leaf element.
func newItemTarget(f *FieldEntry, elemType reflect.Type) reflect.Value {
	if f.Message != nil {
		return reflect.New(elemType.Elem()).Elem()
	}
	return reflect.New(elemType).Elem()
}

func asSliceItem(f *FieldEntry, dst reflect.Value) reflect.Value {
	if f.Message != nil {
		return dst.Addr()
	}
	return dst
}

// decodeRepeatedField decodes one on-wire occurrence of an Unpacked or
// Packed field. The occurrence's actual wire-type, not the schema's
// declared Kind, determines whether it is a single item or a packed
// blob; mixing the two forms within one message is a conflict.
func decodeRepeatedField(in *wire.Input, msg reflect.Value, f *FieldEntry, wt wire.Type, mode Mode, opts Options, depth int, st *fieldRuntimeState) (Canonicity, error) {
	canon := Canonical
	packed := wt == wire.Len && f.leafWireType() != wire.Len

	if packed {
		if st.seenUnpacked {
			return canon, ErrConflictingRepresentation
		}
		st.seenPacked = true
		if f.Kind != Packed {
			canon = canon.Join(NotCanonical)
		}
		n, err := in.ReadVarint()
		if err != nil {
			return canon, mapVarintErr(err)
		}
		if n > uint64(in.Remaining()) {
			return canon, ErrTruncated
		}
		sub, err := in.Sub(int(n))
		if err != nil {
			return canon, mapVarintErr(err)
		}
		slice := f.Accessor.Get(msg)
		elemType := slice.Type().Elem()
		for sub.Remaining() > 0 {
			dst := newItemTarget(f, elemType)
			if err := f.Elem.Decode(sub, dst); err != nil {
				return canon, err
			}
			slice = reflect.Append(slice, asSliceItem(f, dst))
		}
		f.Accessor.Set(msg, slice)
		return canon, nil
	}

	if st.seenPacked {
		return canon, ErrConflictingRepresentation
	}
	st.seenUnpacked = true
	if f.Kind != Unpacked {
		canon = canon.Join(NotCanonical)
	}
	slice := f.Accessor.Get(msg)
	elemType := slice.Type().Elem()
	dst := newItemTarget(f, elemType)
	c, err := decodeItem(in, f, dst, mode, opts, depth)
	if err != nil {
		return canon, err
	}
	canon = canon.Join(c)
	slice = reflect.Append(slice, asSliceItem(f, dst))
	f.Accessor.Set(msg, slice)
	return canon, nil
}

// decodeSetField decodes one item of a Set field: always unpacked on the
// wire. Duplicates are always an error; out-of-order arrival only
// downgrades canonicity, and only in distinguished mode.
func decodeSetField(in *wire.Input, msg reflect.Value, f *FieldEntry, mode Mode, opts Options, depth int, st *fieldRuntimeState) (Canonicity, error) {
	canon := Canonical
	slice := f.Accessor.Get(msg)
	elemType := slice.Type().Elem()
	dst := newItemTarget(f, elemType)
	c, err := decodeItem(in, f, dst, mode, opts, depth)
	if err != nil {
		return canon, err
	}
	canon = canon.Join(c)
	item := asSliceItem(f, dst)

	less := f.orderBy()
	for i := 0; i < slice.Len(); i++ {
		existing := slice.Index(i)
		if !less(existing, item) && !less(item, existing) {
			return canon, ErrDuplicate
		}
	}
	if mode == Distinguished && st.lastItem.IsValid() && !less(st.lastItem, item) {
		canon = canon.Join(NotCanonical)
	}
	st.lastItem = item

	slice = reflect.Append(slice, item)
	f.Accessor.Set(msg, slice)
	return canon, nil
}

// decodeMapField decodes the single LEN occurrence of a Map field: a
// back-to-back stream of naked key, naked value pairs.
func decodeMapField(in *wire.Input, msg reflect.Value, f *FieldEntry, mode Mode, opts Options, depth int) (Canonicity, error) {
	canon := Canonical
	n, err := in.ReadVarint()
	if err != nil {
		return canon, mapVarintErr(err)
	}
	if n > uint64(in.Remaining()) {
		return canon, ErrTruncated
	}
	sub, err := in.Sub(int(n))
	if err != nil {
		return canon, mapVarintErr(err)
	}

	m := f.Accessor.Get(msg)
	mapType := m.Type()
	if m.IsNil() {
		m = reflect.MakeMap(mapType)
	}
	keyType, valType := mapType.Key(), mapType.Elem()
	less := f.orderBy()
	var lastKey reflect.Value

	for sub.Remaining() > 0 {
		kdst := reflect.New(keyType).Elem()
		if err := f.Key.Decode(sub, kdst); err != nil {
			return canon, err
		}
		vdst := reflect.New(valType).Elem()
		if err := f.Val.Decode(sub, vdst); err != nil {
			return canon, err
		}
		if m.MapIndex(kdst).IsValid() {
			return canon, ErrDuplicate
		}
		if mode == Distinguished && lastKey.IsValid() && !less(lastKey, kdst) {
			canon = canon.Join(NotCanonical)
		}
		lastKey = kdst
		m.SetMapIndex(kdst, vdst)
	}
	f.Accessor.Set(msg, m)
	return canon, nil
}

// skipValue consumes one unrecognized field's value without interpreting
// it, so decoding can continue past an unknown tag; the skipped bytes are
// not retained.
func skipValue(in *wire.Input, wt wire.Type) error {
	switch wt {
	case wire.Varint:
		_, err := in.ReadVarint()
		return mapVarintErr(err)
	case wire.Fixed32:
		_, err := in.Consume(wire.SizeFixed32)
		return mapVarintErr(err)
	case wire.Fixed64:
		_, err := in.Consume(wire.SizeFixed64)
		return mapVarintErr(err)
	case wire.Len:
		n, err := in.ReadVarint()
		if err != nil {
			return mapVarintErr(err)
		}
		if n > uint64(in.Remaining()) {
			return ErrTruncated
		}
		_, err = in.Consume(int(n))
		return mapVarintErr(err)
	default:
		return ErrUnexpectedWireType
	}
}
