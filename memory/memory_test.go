package memory

import "testing"

func TestReadWriteU8(t *testing.T) {
	m := New(16)
	if err := m.WriteU8(5, 0xAB); err != nil {
		t.Fatalf("WriteU8: %v", err)
	}
	v, err := m.ReadU8(5)
	if err != nil {
		t.Fatalf("ReadU8: %v", err)
	}
	if v != 0xAB {
		t.Errorf("ReadU8(5) = %#x, want 0xAB", v)
	}
}

func TestReadWriteU16RoundTrip(t *testing.T) {
	m := New(16)
	for _, v := range []uint16{0, 1, 0xFFFF, 0x1234} {
		if err := m.WriteU16(2, v); err != nil {
			t.Fatalf("WriteU16(%#x): %v", v, err)
		}
		got, err := m.ReadU16(2)
		if err != nil {
			t.Fatalf("ReadU16: %v", err)
		}
		if got != v {
			t.Errorf("round trip %#x -> %#x", v, got)
		}
	}
}

func TestReadWriteU32RoundTrip(t *testing.T) {
	m := New(16)
	for _, v := range []uint32{0, 1, 0xFFFFFFFF, 0xDEADBEEF} {
		if err := m.WriteU32(0, v); err != nil {
			t.Fatalf("WriteU32(%#x): %v", v, err)
		}
		got, err := m.ReadU32(0)
		if err != nil {
			t.Fatalf("ReadU32: %v", err)
		}
		if got != v {
			t.Errorf("round trip %#x -> %#x", v, got)
		}
	}
}

func TestU32LittleEndianByteOrder(t *testing.T) {
	m := New(8)
	if err := m.WriteU32(0, 0x0450159E); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	want := []byte{0x9E, 0x15, 0x50, 0x04}
	for i, w := range want {
		got, err := m.ReadU8(uint32(i))
		if err != nil {
			t.Fatalf("ReadU8: %v", err)
		}
		if got != w {
			t.Errorf("byte %d = %#x, want %#x", i, got, w)
		}
	}
}

func TestReadOutOfBounds(t *testing.T) {
	m := New(4)
	if _, err := m.ReadU8(4); err == nil {
		t.Fatal("expected MemOutOfBounds for ReadU8(size)")
	}
}

func TestWriteOutOfBounds(t *testing.T) {
	m := New(4)
	if err := m.WriteU8(4, 0); err == nil {
		t.Fatal("expected MemOutOfBounds for WriteU8(size)")
	}
}

func TestLoadBytes(t *testing.T) {
	m := New(8)
	src := []byte{1, 2, 3, 4}
	if err := m.LoadBytes(2, src); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	for i, want := range src {
		got, err := m.ReadU8(uint32(2 + i))
		if err != nil {
			t.Fatalf("ReadU8: %v", err)
		}
		if got != want {
			t.Errorf("byte %d = %d, want %d", i, got, want)
		}
	}
}

func TestCopyOverlapping(t *testing.T) {
	m := New(8)
	_ = m.LoadBytes(0, []byte{1, 2, 3, 4})
	if err := m.Copy(0, 1, 3); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	// Forward iteration: each destination byte reads the byte written
	// one step earlier, so the first byte propagates.
	want := []byte{1, 1, 1, 1}
	for i, w := range want {
		got, _ := m.ReadU8(uint32(i))
		if got != w {
			t.Errorf("byte %d = %d, want %d", i, got, w)
		}
	}
}
