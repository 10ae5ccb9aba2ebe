package wire

import (
	"errors"

	"github.com/bilrost-rs/bilrost-go/internal/varint"
)

// ErrTruncated is returned by Input when a read runs past the end of the
// buffer.
var ErrTruncated = errors.New("wire: truncated input")

// Output is an append sink. In measuring mode it counts bytes without
// retaining them, so a length prefix can be sized before the payload is
// written (see the message codec engine's two-pass length framing).
type Output struct {
	buf     []byte
	measure bool
	counted int
}

// NewOutput wraps buf (which may be nil) as a writing sink.
func NewOutput(buf []byte) *Output {
	return &Output{buf: buf}
}

// NewMeasuringOutput returns a sink that only counts bytes written to it.
func NewMeasuringOutput() *Output {
	return &Output{measure: true}
}

// Measuring reports whether this sink counts rather than writes.
func (o *Output) Measuring() bool { return o.measure }

// WriteByte appends a single byte.
func (o *Output) WriteByte(b byte) error {
	if o.measure {
		o.counted++
		return nil
	}
	o.buf = append(o.buf, b)
	return nil
}

// Write appends p in full.
func (o *Output) Write(p []byte) (int, error) {
	if o.measure {
		o.counted += len(p)
		return len(p), nil
	}
	o.buf = append(o.buf, p...)
	return len(p), nil
}

// Len returns the number of bytes written (or counted, in measuring mode).
func (o *Output) Len() int {
	if o.measure {
		return o.counted
	}
	return len(o.buf)
}

// Bytes returns the accumulated buffer. It is invalid to call on a
// measuring sink.
func (o *Output) Bytes() []byte { return o.buf }

// WriteVarint appends n's bijective varint encoding.
func (o *Output) WriteVarint(n uint64) {
	if o.measure {
		o.counted += varint.Size(n)
		return
	}
	o.buf = varint.Append(o.buf, n)
}

// WriteFixed32 appends v little-endian.
func (o *Output) WriteFixed32(v uint32) {
	if o.measure {
		o.counted += SizeFixed32
		return
	}
	o.buf = PutFixed32(o.buf, v)
}

// WriteFixed64 appends v little-endian.
func (o *Output) WriteFixed64(v uint64) {
	if o.measure {
		o.counted += SizeFixed64
		return
	}
	o.buf = PutFixed64(o.buf, v)
}

// Input is a consumable, non-seekable view over a borrowed byte slice.
type Input struct {
	data []byte
	pos  int
}

// NewInput wraps data for sequential consumption.
func NewInput(data []byte) *Input {
	return &Input{data: data}
}

// Remaining returns the number of unconsumed bytes.
func (in *Input) Remaining() int { return len(in.data) - in.pos }

// Pos returns the current read offset.
func (in *Input) Pos() int { return in.pos }

// Rest returns the unconsumed remainder without advancing the cursor.
func (in *Input) Rest() []byte { return in.data[in.pos:] }

// PeekByte returns the next byte without consuming it.
func (in *Input) PeekByte() (byte, bool) {
	if in.pos >= len(in.data) {
		return 0, false
	}
	return in.data[in.pos], true
}

// Consume returns the next n bytes and advances the cursor past them. It
// fails with ErrTruncated if fewer than n bytes remain.
func (in *Input) Consume(n int) ([]byte, error) {
	if n < 0 || n > in.Remaining() {
		return nil, ErrTruncated
	}
	b := in.data[in.pos : in.pos+n]
	in.pos += n
	return b, nil
}

// Sub carves out a bounded Input over the next n bytes, advancing past
// them, for recursive decoding of a LEN-framed payload.
func (in *Input) Sub(n int) (*Input, error) {
	b, err := in.Consume(n)
	if err != nil {
		return nil, err
	}
	return NewInput(b), nil
}

// ReadVarint decodes one varint from the front of the unconsumed input.
func (in *Input) ReadVarint() (uint64, error) {
	n, consumed, err := varint.Decode(in.Rest())
	if err != nil {
		return 0, err
	}
	in.pos += consumed
	return n, nil
}

// ReadFixed32 reads 4 little-endian bytes.
func (in *Input) ReadFixed32() (uint32, error) {
	b, err := in.Consume(SizeFixed32)
	if err != nil {
		return 0, err
	}
	return GetFixed32(b), nil
}

// ReadFixed64 reads 8 little-endian bytes.
func (in *Input) ReadFixed64() (uint64, error) {
	b, err := in.Consume(SizeFixed64)
	if err != nil {
		return 0, err
	}
	return GetFixed64(b), nil
}
