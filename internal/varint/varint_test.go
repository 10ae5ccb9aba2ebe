package varint

import (
	"bytes"
	"math"
	"testing"
)

var cases = []struct {
	name string
	n    uint64
	want []byte
}{
	{"zero", 0, []byte{0x00}},
	{"one", 1, []byte{0x01}},
	{"max_1_byte", 127, []byte{0x7f}},
	{"min_2_byte", 128, []byte{0x80, 0x00}},
	{"129", 129, []byte{0x81, 0x00}},
	{"255", 255, []byte{0xff, 0x00}},
	{"256", 256, []byte{0x80, 0x01}},
	{"boundary_16511", 16511, []byte{0xff, 0x7f}},
	{"boundary_16512", 16512, []byte{0x80, 0x80, 0x00}},
	{"max_uint64", math.MaxUint64, []byte{0xff, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe}},
}

func TestAppend(t *testing.T) {
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Append(nil, tc.n)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Append(%d) = % x, want % x", tc.n, got, tc.want)
			}
			if got, want := Size(tc.n), len(tc.want); got != want {
				t.Errorf("Size(%d) = %d, want %d", tc.n, got, want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, consumed, err := Decode(tc.want)
			if err != nil {
				t.Fatalf("Decode(% x) error: %v", tc.want, err)
			}
			if n != tc.n {
				t.Errorf("Decode(% x) = %d, want %d", tc.want, n, tc.n)
			}
			if consumed != len(tc.want) {
				t.Errorf("Decode(% x) consumed %d bytes, want %d", tc.want, consumed, len(tc.want))
			}
		})
	}
}

func TestDecodeOverflow(t *testing.T) {
	// Same as the max_uint64 vector but with the ninth byte pushed one past
	// the 64-bit domain.
	in := []byte{0xff, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xff}
	if _, _, err := Decode(in); err != ErrOverflow {
		t.Fatalf("Decode(% x) error = %v, want ErrOverflow", in, err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	for _, in := range [][]byte{
		{},
		{0x80},
		{0xff, 0xfe, 0xfe},
	} {
		if _, _, err := Decode(in); err != ErrTruncated {
			t.Errorf("Decode(% x) error = %v, want ErrTruncated", in, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 127, 128, 16383, 16511, 16512, 1 << 32, math.MaxUint64, math.MaxUint64 - 1}
	for _, n := range values {
		enc := Append(nil, n)
		got, consumed, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Append(%d)) error: %v", n, err)
		}
		if got != n || consumed != len(enc) {
			t.Errorf("round trip for %d: got %d (consumed %d), encoding % x", n, got, consumed, enc)
		}
	}
}

// Every byte sequence that decodes successfully must re-encode to that same
// sequence: the bijection holds in both directions.
func TestEncodingIsCanonicalForDecodedValue(t *testing.T) {
	seqs := [][]byte{
		{0x00}, {0x7f}, {0x80, 0x00}, {0xff, 0x7f}, {0x80, 0x80, 0x00},
		{0xff, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe, 0xfe},
	}
	for _, seq := range seqs {
		n, consumed, err := Decode(seq)
		if err != nil {
			t.Fatalf("Decode(% x) error: %v", seq, err)
		}
		if consumed != len(seq) {
			t.Fatalf("Decode(% x) consumed %d of %d bytes", seq, consumed, len(seq))
		}
		if re := Append(nil, n); !bytes.Equal(re, seq) {
			t.Errorf("Append(Decode(% x)) = % x, want % x", seq, re, seq)
		}
	}
}
