package bilrost

import (
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/bilrost-rs/bilrost-go/internal/varint"
	"github.com/bilrost-rs/bilrost-go/internal/wire"
)

// Encoding is a leaf (naked) value codec per spec §4.4: no field key, no
// framing, no canonicity judgment — that belongs to the field codec and
// the message engine built on top of it. dst is always addressable and of
// the Go type the schema declared for the field.
type Encoding interface {
	WireType() wire.Type
	IsEmpty(v reflect.Value) bool
	Size(v reflect.Value) int
	Encode(out *wire.Output, v reflect.Value)
	Decode(in *wire.Input, dst reflect.Value) error
}

func mapVarintErr(err error) error {
	switch err {
	case varint.ErrTruncated, wire.ErrTruncated:
		return ErrTruncated
	case varint.ErrOverflow:
		return ErrVarintOverflow
	case wire.ErrInvalidTag:
		return ErrInvalidTag
	default:
		return err
	}
}

// Uint encodes an unsigned integer of any width <= 64 as VARINT.
var Uint Encoding = uintEncoding{}

type uintEncoding struct{}

func (uintEncoding) WireType() wire.Type        { return wire.Varint }
func (uintEncoding) IsEmpty(v reflect.Value) bool { return v.Uint() == 0 }
func (uintEncoding) Size(v reflect.Value) int   { return varint.Size(v.Uint()) }
func (uintEncoding) Encode(out *wire.Output, v reflect.Value) { out.WriteVarint(v.Uint()) }
func (uintEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	if dst.OverflowUint(n) {
		return ErrInvalidValue
	}
	dst.SetUint(n)
	return nil
}

// Int encodes a signed integer of any width <= 64 as zig-zag VARINT:
// (n << 1) ^ (n >> 63).
var Int Encoding = intEncoding{}

type intEncoding struct{}

func zigzagEncode(n int64) uint64 { return uint64((n << 1) ^ (n >> 63)) }
func zigzagDecode(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }

func (intEncoding) WireType() wire.Type        { return wire.Varint }
func (intEncoding) IsEmpty(v reflect.Value) bool { return v.Int() == 0 }
func (intEncoding) Size(v reflect.Value) int   { return varint.Size(zigzagEncode(v.Int())) }
func (intEncoding) Encode(out *wire.Output, v reflect.Value) { out.WriteVarint(zigzagEncode(v.Int())) }
func (intEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	u, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	n := zigzagDecode(u)
	if dst.OverflowInt(n) {
		return ErrInvalidValue
	}
	dst.SetInt(n)
	return nil
}

// Bool encodes a boolean as VARINT 0/1; any other varint value is rejected.
var Bool Encoding = boolEncoding{}

type boolEncoding struct{}

func (boolEncoding) WireType() wire.Type        { return wire.Varint }
func (boolEncoding) IsEmpty(v reflect.Value) bool { return !v.Bool() }
func (boolEncoding) Size(v reflect.Value) int {
	if v.Bool() {
		return 1
	}
	return 1
}
func (boolEncoding) Encode(out *wire.Output, v reflect.Value) {
	if v.Bool() {
		out.WriteVarint(1)
	} else {
		out.WriteVarint(0)
	}
}
func (boolEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	if n > 1 {
		return ErrInvalidValue
	}
	dst.SetBool(n == 1)
	return nil
}

// Fixed32 encodes a 32-bit integer (signed or unsigned) as little-endian
// two's complement, wire-type FIX32.
var Fixed32 Encoding = fixed32Encoding{}

type fixed32Encoding struct{}

func (fixed32Encoding) WireType() wire.Type { return wire.Fixed32 }
func (fixed32Encoding) IsEmpty(v reflect.Value) bool {
	return fixedUint(v) == 0
}
func (fixed32Encoding) Size(reflect.Value) int { return wire.SizeFixed32 }
func (fixed32Encoding) Encode(out *wire.Output, v reflect.Value) {
	out.WriteFixed32(uint32(fixedUint(v)))
}
func (fixed32Encoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadFixed32()
	if err != nil {
		return mapVarintErr(err)
	}
	return setFixed(dst, uint64(n), int64(int32(n)))
}

// Fixed64 encodes a 64-bit integer (signed or unsigned) as little-endian
// two's complement, wire-type FIX64.
var Fixed64 Encoding = fixed64Encoding{}

type fixed64Encoding struct{}

func (fixed64Encoding) WireType() wire.Type { return wire.Fixed64 }
func (fixed64Encoding) IsEmpty(v reflect.Value) bool {
	return fixedUint(v) == 0
}
func (fixed64Encoding) Size(reflect.Value) int { return wire.SizeFixed64 }
func (fixed64Encoding) Encode(out *wire.Output, v reflect.Value) {
	out.WriteFixed64(fixedUint(v))
}
func (fixed64Encoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadFixed64()
	if err != nil {
		return mapVarintErr(err)
	}
	return setFixed(dst, n, int64(n))
}

func fixedUint(v reflect.Value) uint64 {
	if v.Kind() == reflect.Int32 || v.Kind() == reflect.Int64 {
		return uint64(v.Int())
	}
	return v.Uint()
}

func setFixed(dst reflect.Value, u uint64, s int64) error {
	switch dst.Kind() {
	case reflect.Uint32, reflect.Uint64:
		if dst.OverflowUint(u) {
			return ErrInvalidValue
		}
		dst.SetUint(u)
	case reflect.Int32, reflect.Int64:
		if dst.OverflowInt(s) {
			return ErrInvalidValue
		}
		dst.SetInt(s)
	default:
		return ErrInvalidValue
	}
	return nil
}

// Float32 encodes a float32 as little-endian IEEE-754 binary32,
// bit-preserving (NaN payloads and the sign of zero are never
// canonicalized).
var Float32 Encoding = float32Encoding{}

type float32Encoding struct{}

func (float32Encoding) WireType() wire.Type { return wire.Fixed32 }
func (float32Encoding) IsEmpty(v reflect.Value) bool {
	f := float32(v.Float())
	return f == 0 && !isNegZero32(f)
}
func (float32Encoding) Size(reflect.Value) int { return wire.SizeFixed32 }
func (float32Encoding) Encode(out *wire.Output, v reflect.Value) {
	out.WriteFixed32(math.Float32bits(float32(v.Float())))
}
func (float32Encoding) Decode(in *wire.Input, dst reflect.Value) error {
	b, err := in.Consume(wire.SizeFixed32)
	if err != nil {
		return mapVarintErr(err)
	}
	dst.SetFloat(float64(wire.GetFloat32(b)))
	return nil
}

// Float64 encodes a float64 as little-endian IEEE-754 binary64,
// bit-preserving.
var Float64 Encoding = float64Encoding{}

type float64Encoding struct{}

func (float64Encoding) WireType() wire.Type { return wire.Fixed64 }
func (float64Encoding) IsEmpty(v reflect.Value) bool {
	f := v.Float()
	return f == 0 && !isNegZero64(f)
}
func (float64Encoding) Size(reflect.Value) int { return wire.SizeFixed64 }
func (float64Encoding) Encode(out *wire.Output, v reflect.Value) {
	out.WriteFixed64(math.Float64bits(v.Float()))
}
func (float64Encoding) Decode(in *wire.Input, dst reflect.Value) error {
	b, err := in.Consume(wire.SizeFixed64)
	if err != nil {
		return mapVarintErr(err)
	}
	dst.SetFloat(wire.GetFloat64(b))
	return nil
}

func isNegZero32(f float32) bool { return f == 0 && (1/f) < 0 }
func isNegZero64(f float64) bool { return f == 0 && (1/f) < 0 }

// Text encodes a Go string as LEN: varint length + UTF-8 bytes. Decode
// rejects invalid UTF-8 (including surrogates and overlong sequences,
// which utf8.Valid already catches) with ErrInvalidValue. Encode writes
// the string's bytes unchecked — Encoding.Encode has no error return — so
// a string built from invalid UTF-8 encodes as-is but fails to decode.
var Text Encoding = textEncoding{}

type textEncoding struct{}

func (textEncoding) WireType() wire.Type        { return wire.Len }
func (textEncoding) IsEmpty(v reflect.Value) bool { return v.Len() == 0 }
func (textEncoding) Size(v reflect.Value) int {
	n := v.Len()
	return varint.Size(uint64(n)) + n
}
func (textEncoding) Encode(out *wire.Output, v reflect.Value) {
	s := v.String()
	out.WriteVarint(uint64(len(s)))
	out.Write([]byte(s))
}
func (textEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	if n > uint64(in.Remaining()) {
		return ErrTruncated
	}
	b, err := in.Consume(int(n))
	if err != nil {
		return mapVarintErr(err)
	}
	if !utf8.Valid(b) {
		return ErrInvalidValue
	}
	dst.SetString(string(b))
	return nil
}

// Bytes encodes a []byte as LEN: varint length + raw bytes.
var Bytes Encoding = bytesEncoding{}

type bytesEncoding struct{}

func (bytesEncoding) WireType() wire.Type        { return wire.Len }
func (bytesEncoding) IsEmpty(v reflect.Value) bool { return v.Len() == 0 }
func (bytesEncoding) Size(v reflect.Value) int {
	n := v.Len()
	return varint.Size(uint64(n)) + n
}
func (bytesEncoding) Encode(out *wire.Output, v reflect.Value) {
	b := v.Bytes()
	out.WriteVarint(uint64(len(b)))
	out.Write(b)
}
func (bytesEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	if n > uint64(in.Remaining()) {
		return ErrTruncated
	}
	b, err := in.Consume(int(n))
	if err != nil {
		return mapVarintErr(err)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	dst.SetBytes(cp)
	return nil
}

// ByteArray encodes a fixed-size [N]byte array as LEN with length exactly
// N; any other on-wire length is rejected.
func ByteArray(n int) Encoding { return byteArrayEncoding{n} }

type byteArrayEncoding struct{ n int }

func (e byteArrayEncoding) WireType() wire.Type { return wire.Len }
func (e byteArrayEncoding) IsEmpty(v reflect.Value) bool {
	for i := 0; i < v.Len(); i++ {
		if v.Index(i).Uint() != 0 {
			return false
		}
	}
	return true
}
func (e byteArrayEncoding) Size(reflect.Value) int { return varint.Size(uint64(e.n)) + e.n }
func (e byteArrayEncoding) Encode(out *wire.Output, v reflect.Value) {
	out.WriteVarint(uint64(e.n))
	if out.Measuring() {
		out.Write(make([]byte, e.n))
		return
	}
	buf := make([]byte, e.n)
	reflect.Copy(reflect.ValueOf(buf), v)
	out.Write(buf)
}
func (e byteArrayEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	n, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	if int(n) != e.n {
		return ErrInvalidValue
	}
	b, err := in.Consume(e.n)
	if err != nil {
		return mapVarintErr(err)
	}
	reflect.Copy(dst, reflect.ValueOf(b))
	return nil
}

// Enum encodes a Go enum-like integer type as u32 VARINT via user-supplied
// conversion functions; into maps a Go value to its wire representation,
// from maps it back and reports whether the wire value is a known variant.
// The empty value is whichever Go value into maps to wire value 0.
func Enum(into func(v int64) (uint32, bool), from func(uint32) (int64, bool)) Encoding {
	return enumEncoding{into, from}
}

type enumEncoding struct {
	into func(int64) (uint32, bool)
	from func(uint32) (int64, bool)
}

func (e enumEncoding) WireType() wire.Type { return wire.Varint }
func (e enumEncoding) IsEmpty(v reflect.Value) bool {
	n, ok := e.into(v.Int())
	return ok && n == 0
}
func (e enumEncoding) Size(v reflect.Value) int {
	n, _ := e.into(v.Int())
	return varint.Size(uint64(n))
}
func (e enumEncoding) Encode(out *wire.Output, v reflect.Value) {
	n, _ := e.into(v.Int())
	out.WriteVarint(uint64(n))
}
func (e enumEncoding) Decode(in *wire.Input, dst reflect.Value) error {
	u, err := in.ReadVarint()
	if err != nil {
		return mapVarintErr(err)
	}
	if u > 0xffffffff {
		return ErrInvalidValue
	}
	n, ok := e.from(uint32(u))
	if !ok {
		return ErrInvalidValue
	}
	if dst.OverflowInt(n) {
		return ErrInvalidValue
	}
	dst.SetInt(n)
	return nil
}
