package bilrost

import (
	"math"
	"reflect"
	"testing"

	"github.com/bilrost-rs/bilrost-go/internal/wire"
)

func roundTrip(t *testing.T, enc Encoding, v reflect.Value) reflect.Value {
	t.Helper()
	out := wire.NewOutput(nil)
	enc.Encode(out, v)
	if got := enc.Size(v); got != len(out.Bytes()) {
		t.Fatalf("Size = %d, want %d", got, len(out.Bytes()))
	}
	dst := reflect.New(v.Type()).Elem()
	in := wire.NewInput(out.Bytes())
	if err := enc.Decode(in, dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Remaining() != 0 {
		t.Fatalf("Decode left %d bytes unconsumed", in.Remaining())
	}
	return dst
}

func TestUintRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 16383, math.MaxUint32, math.MaxUint64} {
		got := roundTrip(t, Uint, reflect.ValueOf(n))
		if got.Uint() != n {
			t.Fatalf("Uint round trip of %d = %d", n, got.Uint())
		}
	}
}

func TestUintIsEmpty(t *testing.T) {
	if !Uint.IsEmpty(reflect.ValueOf(uint64(0))) {
		t.Fatal("0 should be empty")
	}
	if Uint.IsEmpty(reflect.ValueOf(uint64(1))) {
		t.Fatal("1 should not be empty")
	}
}

func TestIntZigzagKnownValues(t *testing.T) {
	cases := []struct {
		n    int64
		want uint64
	}{
		{0, 0},
		{1, 2},
		{-1, 1},
		{2, 4},
		{-2, 3},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, c := range cases {
		if got := zigzagEncode(c.n); got != c.want {
			t.Fatalf("zigzagEncode(%d) = %d, want %d", c.n, got, c.want)
		}
		if got := zigzagDecode(c.want); got != c.n {
			t.Fatalf("zigzagDecode(%d) = %d, want %d", c.want, got, c.n)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 1600999999, -1600999999, math.MaxInt64, math.MinInt64} {
		got := roundTrip(t, Int, reflect.ValueOf(n))
		if got.Int() != n {
			t.Fatalf("Int round trip of %d = %d", n, got.Int())
		}
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, b := range []bool{true, false} {
		got := roundTrip(t, Bool, reflect.ValueOf(b))
		if got.Bool() != b {
			t.Fatalf("Bool round trip of %v = %v", b, got.Bool())
		}
	}
}

func TestBoolRejectsNonBooleanVarint(t *testing.T) {
	out := wire.NewOutput(nil)
	out.WriteVarint(2)
	var dst bool
	err := Bool.Decode(wire.NewInput(out.Bytes()), reflect.ValueOf(&dst).Elem())
	if err != ErrInvalidValue {
		t.Fatalf("err = %v, want ErrInvalidValue", err)
	}
}

func TestFixed32RoundTripSignedAndUnsigned(t *testing.T) {
	gotU := roundTrip(t, Fixed32, reflect.ValueOf(uint32(0xdeadbeef)))
	if gotU.Uint() != 0xdeadbeef {
		t.Fatalf("Fixed32 uint32 round trip = %#x", gotU.Uint())
	}
	gotI := roundTrip(t, Fixed32, reflect.ValueOf(int32(-12345)))
	if gotI.Int() != -12345 {
		t.Fatalf("Fixed32 int32 round trip = %d", gotI.Int())
	}
}

func TestFixed64RoundTripSignedAndUnsigned(t *testing.T) {
	gotU := roundTrip(t, Fixed64, reflect.ValueOf(uint64(0xdeadbeefcafef00d)))
	if gotU.Uint() != 0xdeadbeefcafef00d {
		t.Fatalf("Fixed64 uint64 round trip = %#x", gotU.Uint())
	}
	gotI := roundTrip(t, Fixed64, reflect.ValueOf(int64(-123456789012345)))
	if gotI.Int() != -123456789012345 {
		t.Fatalf("Fixed64 int64 round trip = %d", gotI.Int())
	}
}

func TestFloat32BitPreserving(t *testing.T) {
	values := []float32{0, 3.14, -1.5, float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, f := range values {
		got := roundTrip(t, Float32, reflect.ValueOf(f))
		if math.Float32bits(float32(got.Float())) != math.Float32bits(f) {
			t.Fatalf("Float32 round trip of %v changed bit pattern", f)
		}
	}

	nan := math.Float32frombits(0x7fc00001)
	got := roundTrip(t, Float32, reflect.ValueOf(nan))
	if math.Float32bits(float32(got.Float())) != math.Float32bits(nan) {
		t.Fatal("Float32 did not preserve a non-canonical NaN payload")
	}

	negZero := math.Float32frombits(0x80000000)
	if !Float32.IsEmpty(reflect.ValueOf(float32(0))) {
		t.Fatal("positive zero should be empty")
	}
	if Float32.IsEmpty(reflect.ValueOf(negZero)) {
		t.Fatal("negative zero should not be empty: it is not bit-identical to the default")
	}
}

func TestFloat64BitPreserving(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000001)
	got := roundTrip(t, Float64, reflect.ValueOf(nan))
	if math.Float64bits(got.Float()) != math.Float64bits(nan) {
		t.Fatal("Float64 did not preserve a non-canonical NaN payload")
	}

	negZero := math.Float64frombits(0x8000000000000000)
	if !Float64.IsEmpty(reflect.ValueOf(0.0)) {
		t.Fatal("positive zero should be empty")
	}
	if Float64.IsEmpty(reflect.ValueOf(negZero)) {
		t.Fatal("negative zero should not be empty")
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "é中\U0001f600"} {
		got := roundTrip(t, Text, reflect.ValueOf(s))
		if got.String() != s {
			t.Fatalf("Text round trip of %q = %q", s, got.String())
		}
	}
}

func TestTextRejectsInvalidUTF8(t *testing.T) {
	out := wire.NewOutput(nil)
	bad := []byte{0xff, 0xfe}
	out.WriteVarint(uint64(len(bad)))
	out.Write(bad)
	var dst string
	err := Text.Decode(wire.NewInput(out.Bytes()), reflect.ValueOf(&dst).Elem())
	if err != ErrInvalidValue {
		t.Fatalf("err = %v, want ErrInvalidValue", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	b := []byte{1, 2, 3, 0, 255}
	got := roundTrip(t, Bytes, reflect.ValueOf(b))
	if !reflect.DeepEqual(got.Bytes(), b) {
		t.Fatalf("Bytes round trip = %v, want %v", got.Bytes(), b)
	}
}

func TestByteArrayRoundTrip(t *testing.T) {
	enc := ByteArray(4)
	var arr [4]byte
	arr[0], arr[1], arr[2], arr[3] = 0xde, 0xad, 0xbe, 0xef
	got := roundTrip(t, enc, reflect.ValueOf(arr))
	if got.Interface().([4]byte) != arr {
		t.Fatalf("ByteArray round trip = %v, want %v", got.Interface(), arr)
	}
}

func TestByteArrayRejectsWrongLength(t *testing.T) {
	enc := ByteArray(4)
	out := wire.NewOutput(nil)
	out.WriteVarint(3)
	out.Write([]byte{1, 2, 3})
	var dst [4]byte
	err := enc.Decode(wire.NewInput(out.Bytes()), reflect.ValueOf(&dst).Elem())
	if err != ErrInvalidValue {
		t.Fatalf("err = %v, want ErrInvalidValue", err)
	}
}

type trafficLight int32

const (
	lightRed trafficLight = iota
	lightYellow
	lightGreen
)

var trafficLightEncoding = Enum(
	func(v int64) (uint32, bool) {
		switch trafficLight(v) {
		case lightRed:
			return 0, true
		case lightYellow:
			return 1, true
		case lightGreen:
			return 2, true
		default:
			return 0, false
		}
	},
	func(w uint32) (int64, bool) {
		switch w {
		case 0:
			return int64(lightRed), true
		case 1:
			return int64(lightYellow), true
		case 2:
			return int64(lightGreen), true
		default:
			return 0, false
		}
	},
)

func TestEnumRoundTrip(t *testing.T) {
	for _, v := range []trafficLight{lightRed, lightYellow, lightGreen} {
		got := roundTrip(t, trafficLightEncoding, reflect.ValueOf(v))
		if trafficLight(got.Int()) != v {
			t.Fatalf("Enum round trip of %v = %v", v, got.Interface())
		}
	}
}

func TestEnumIsEmptyIsTheZeroVariant(t *testing.T) {
	if !trafficLightEncoding.IsEmpty(reflect.ValueOf(lightRed)) {
		t.Fatal("the variant mapping to wire value 0 should be empty")
	}
	if trafficLightEncoding.IsEmpty(reflect.ValueOf(lightYellow)) {
		t.Fatal("a non-zero variant should not be empty")
	}
}

func TestEnumRejectsUnknownWireValue(t *testing.T) {
	out := wire.NewOutput(nil)
	out.WriteVarint(99)
	var dst trafficLight
	err := trafficLightEncoding.Decode(wire.NewInput(out.Bytes()), reflect.ValueOf(&dst).Elem())
	if err != ErrInvalidValue {
		t.Fatalf("err = %v, want ErrInvalidValue", err)
	}
}
