package binfmt

import (
	"bytes"
	"testing"
)

// TestHeaderByteLayout matches spec.md §8 scenario 1.
func TestHeaderByteLayout(t *testing.T) {
	h := NewHeader(0xDEADBEEF, 1)
	want := []byte{
		0xB0, 0x0B, 0x1E, 0x55,
		0xEF, 0xBE, 0xAD, 0xDE,
		0x00, 0x01, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00,
	}
	if got := h.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() = % X, want % X", got, want)
	}
}

// TestFullTinyBinary matches spec.md §8 scenario 2: a header plus one
// text segment carrying the assembled bytes of `mov r1, #69`.
func TestFullTinyBinary(t *testing.T) {
	bin := Binary{
		Header: NewHeader(0xDEADBEEF, 1),
		Segments: []SegmentHeader{
			{Size: 4, Kind: Text, Offset: 24},
		},
		Payload: []byte{0x9E, 0x15, 0x50, 0x04},
	}
	want := []byte{
		0xB0, 0x0B, 0x1E, 0x55, 0xEF, 0xBE, 0xAD, 0xDE, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x01, 0x00, 0x18, 0x00, 0x00, 0x00,
		0x9E, 0x15, 0x50, 0x04,
	}
	if got := bin.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() = % X, want % X", got, want)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	bin := Binary{
		Header: NewHeader(0x1000, 2),
		Segments: []SegmentHeader{
			{Size: 4, Kind: Text, Offset: 32},
			{Size: 8, Kind: Data, Offset: 36},
		},
		Payload: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
	encoded := bin.Encode()
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Header != bin.Header {
		t.Errorf("Header = %+v, want %+v", decoded.Header, bin.Header)
	}
	if len(decoded.Segments) != len(bin.Segments) {
		t.Fatalf("Segments length = %d, want %d", len(decoded.Segments), len(bin.Segments))
	}
	for i := range bin.Segments {
		if decoded.Segments[i] != bin.Segments[i] {
			t.Errorf("Segments[%d] = %+v, want %+v", i, decoded.Segments[i], bin.Segments[i])
		}
	}
	if !bytes.Equal(decoded.Payload, bin.Payload) {
		t.Errorf("Payload = % X, want % X", decoded.Payload, bin.Payload)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	if _, err := DecodeHeader(buf); err == nil {
		t.Fatal("expected error for zeroed (wrong) magic")
	}
}

func TestDecodeEmptyBinWithSections(t *testing.T) {
	h := NewHeader(0, 1)
	seg := SegmentHeader{Size: 4, Kind: Text, Offset: 24}
	buf := append(h.Encode(), seg.Encode()...)
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected EmptyBin error for section_count > 0 with no payload")
	}
}
