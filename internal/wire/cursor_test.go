package wire

import "testing"

func TestOutputMeasuringMatchesWriting(t *testing.T) {
	payload := []byte("public/foo.txt")
	m := NewMeasuringOutput()
	m.WriteByte(0x05)
	m.Write(payload)
	w := NewOutput(nil)
	w.WriteByte(0x05)
	w.Write(payload)
	if m.Len() != w.Len() {
		t.Fatalf("measured %d, wrote %d", m.Len(), w.Len())
	}
	if len(m.Bytes()) != 0 {
		t.Fatalf("measuring sink retained bytes: %v", m.Bytes())
	}
}

func TestInputConsume(t *testing.T) {
	in := NewInput([]byte{1, 2, 3, 4, 5})
	b, err := in.Consume(2)
	if err != nil || len(b) != 2 || b[0] != 1 || b[1] != 2 {
		t.Fatalf("Consume(2) = %v, %v", b, err)
	}
	if in.Remaining() != 3 {
		t.Fatalf("Remaining() = %d, want 3", in.Remaining())
	}
	if _, err := in.Consume(10); err != ErrTruncated {
		t.Fatalf("Consume(10) err = %v, want ErrTruncated", err)
	}
}

func TestInputSub(t *testing.T) {
	in := NewInput([]byte{1, 2, 3, 4, 5})
	sub, err := in.Sub(3)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Remaining() != 3 {
		t.Fatalf("sub.Remaining() = %d, want 3", sub.Remaining())
	}
	if in.Remaining() != 2 {
		t.Fatalf("parent Remaining() = %d, want 2", in.Remaining())
	}
}
