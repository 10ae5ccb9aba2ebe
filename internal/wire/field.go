package wire

import "github.com/bilrost-rs/bilrost-go/internal/varint"

// AppendKey writes the field key for (tag, wt) given the last tag emitted
// in this message (0 if none yet), and returns the new last-tag value.
//
// Per the framing contract, tag must be strictly greater than lastTag;
// violating that is a caller bug; an encoder driven by a validated schema
// can never trigger it; callers writing by hand (tests, tooling) must
// check it themselves.
func AppendKey(buf []byte, lastTag, tag uint32, wt Type) ([]byte, uint32) {
	if tag <= lastTag {
		panic("wire: field tags must be strictly ascending")
	}
	delta := uint64(tag) - uint64(lastTag)
	key := delta*4 + uint64(wt)
	return varint.Append(buf, key), tag
}

// WriteKey writes the field key for (tag, wt) to the sink (counting only,
// if the sink is in measuring mode) and returns the new last-tag value.
func (o *Output) WriteKey(lastTag, tag uint32, wt Type) uint32 {
	if o.measure {
		o.counted += KeySize(lastTag, tag, wt)
		return tag
	}
	o.buf, _ = AppendKey(o.buf, lastTag, tag, wt)
	return tag
}

// KeySize returns the number of bytes AppendKey would emit.
func KeySize(lastTag, tag uint32, wt Type) int {
	delta := uint64(tag) - uint64(lastTag)
	return varint.Size(delta*4 + uint64(wt))
}

// ReadKey decodes and consumes one field key from the front of the
// unconsumed input.
func (in *Input) ReadKey(lastTag uint32) (tag uint32, wt Type, err error) {
	tag, wt, n, err := DecodeKey(in.Rest(), lastTag)
	if err != nil {
		return 0, 0, err
	}
	in.pos += n
	return tag, wt, nil
}

// DecodeKey reads one field key from the front of data, returning the
// field's absolute tag (which is also the new last-tag), its wire-type,
// and the number of bytes consumed.
func DecodeKey(data []byte, lastTag uint32) (tag uint32, wt Type, consumed int, err error) {
	k, n, err := varint.Decode(data)
	if err != nil {
		return 0, 0, 0, err
	}
	delta := k / 4
	newTag := uint64(lastTag) + delta
	if newTag > MaxTag {
		return 0, 0, 0, ErrInvalidTag
	}
	return uint32(newTag), Type(k % 4), n, nil
}
