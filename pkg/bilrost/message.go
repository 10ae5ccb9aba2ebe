package bilrost

import (
	"reflect"

	"github.com/bilrost-rs/bilrost-go/internal/wire"
)

// Marshal encodes m into its canonical binary form. Encoding always
// produces the unique canonical encoding for m's value; there is no
// encode-side mode, unlike decode.
func Marshal(m Message) ([]byte, error) {
	return MarshalAppend(nil, m)
}

// MarshalAppend appends m's encoding to buf, returning the extended
// slice. Passing a buffer with spare capacity avoids an allocation.
func MarshalAppend(buf []byte, m Message) ([]byte, error) {
	out := wire.NewOutput(buf)
	encodeMessage(out, reflect.ValueOf(m).Elem(), m.BilrostSchema())
	return out.Bytes(), nil
}

// EncodedLen returns the number of bytes Marshal(m) would produce,
// without allocating the output buffer.
func EncodedLen(m Message) int {
	return measureMessage(reflect.ValueOf(m).Elem(), m.BilrostSchema())
}

// Unmarshal decodes data into m using DefaultOptions and expedient mode.
// m's fields are populated incrementally; on error, already-written
// fields are left in whatever partial state decoding reached. Use
// Replace for the reset-on-error behavior.
func Unmarshal(data []byte, m Message) (Canonicity, error) {
	return UnmarshalWithOptions(data, m, Expedient, DefaultOptions)
}

// UnmarshalWithOptions decodes data into m under the given mode and
// options, reporting the input's canonicity relative to m's decoded
// value. ErrTrailingData is returned if data is not fully consumed.
func UnmarshalWithOptions(data []byte, m Message, mode Mode, opts Options) (Canonicity, error) {
	in := wire.NewInput(data)
	canon, err := decodeMessage(in, reflect.ValueOf(m).Elem(), m.BilrostSchema(), mode, opts, 0)
	if err != nil {
		return canon, err
	}
	if in.Remaining() > 0 {
		return canon, ErrTrailingData
	}
	return canon, nil
}

// Replace decodes input into target, first resetting target to its zero
// value so a failed or partial decode never leaves a mix of old and new
// field values. If decoding fails, target is reset to zero again before
// returning, so a caller never observes a partially-decoded target.
func Replace(target Message, input []byte, mode Mode, opts Options) (Canonicity, error) {
	rv := reflect.ValueOf(target).Elem()
	rv.Set(reflect.Zero(rv.Type()))
	canon, err := UnmarshalWithOptions(input, target, mode, opts)
	if err != nil {
		rv.Set(reflect.Zero(rv.Type()))
		return canon, err
	}
	return canon, nil
}

// MarshalLengthPrefixed encodes m preceded by its length as a bijective
// varint, the framing length-delimited streams use between messages.
func MarshalLengthPrefixed(buf []byte, m Message) ([]byte, error) {
	n := EncodedLen(m)
	out := wire.NewOutput(buf)
	out.WriteVarint(uint64(n))
	encodeMessage(out, reflect.ValueOf(m).Elem(), m.BilrostSchema())
	return out.Bytes(), nil
}

// UnmarshalLengthPrefixed reads one varint-length-prefixed message from
// the front of data, decoding it into m, and returns the unconsumed
// remainder.
func UnmarshalLengthPrefixed(data []byte, m Message, mode Mode, opts Options) (Canonicity, []byte, error) {
	in := wire.NewInput(data)
	n, err := in.ReadVarint()
	if err != nil {
		return Canonical, nil, mapVarintErr(err)
	}
	if n > uint64(in.Remaining()) {
		return Canonical, nil, ErrTruncated
	}
	sub, err := in.Sub(int(n))
	if err != nil {
		return Canonical, nil, mapVarintErr(err)
	}
	canon, err := decodeMessage(sub, reflect.ValueOf(m).Elem(), m.BilrostSchema(), mode, opts, 0)
	if err != nil {
		return canon, nil, err
	}
	if sub.Remaining() > 0 {
		return canon, nil, ErrTrailingData
	}
	return canon, in.Rest(), nil
}
