// Package binfmt implements ESIUX's binary container: a fixed 16-byte
// header, a table of 8-byte segment headers, and a raw payload blob,
// grounded on the teacher's little-endian struct (de)serialization idiom
// (vm/memory.go's WriteWordUnsafe / ReadWord byte-at-a-time composition)
// generalized into a whole-file codec.
package binfmt

import (
	"encoding/binary"
	"fmt"

	"github.com/esiux/esiux/esiuxerr"
)

// Magic is the fixed 4-byte file signature, written little-endian as the
// byte sequence B0 0B 1E 55 (spec.md §6).
const Magic uint32 = 0x551E0BB0

const (
	HeaderSize        = 16
	SegmentHeaderSize = 8
)

// SectionKind names one of the five segment kinds a SegmentHeader can
// carry.
type SectionKind uint16

const (
	Data SectionKind = iota
	Text
	Rodata
	Bss
	Comment
)

func (k SectionKind) String() string {
	switch k {
	case Data:
		return "data"
	case Text:
		return "text"
	case Rodata:
		return "rodata"
	case Bss:
		return "bss"
	case Comment:
		return "comment"
	default:
		return "unknown"
	}
}

// Version is the three-component version stamped into the header.
type Version struct {
	Major     uint8
	Minor     uint8
	Increment uint8
}

// DefaultVersion is 0.1.0, the header default per spec.md §4.E.
var DefaultVersion = Version{Major: 0, Minor: 1, Increment: 0}

// Header is the 16-byte file header: magic, entry point, version, and
// section count, with 4 bytes of zero padding.
type Header struct {
	Entry        uint32
	Version      Version
	SectionCount uint8
}

// NewHeader builds a Header with DefaultVersion.
func NewHeader(entry uint32, sectionCount uint8) Header {
	return Header{Entry: entry, Version: DefaultVersion, SectionCount: sectionCount}
}

// Encode writes the 16-byte header: magic, entry, major, minor,
// increment, section_count, then 4 zero bytes, all little-endian.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Entry)
	buf[8] = h.Version.Major
	buf[9] = h.Version.Minor
	buf[10] = h.Version.Increment
	buf[11] = h.SectionCount
	// buf[12:16] already zero.
	return buf
}

// DecodeHeader reads a 16-byte header and asserts the magic; a mismatch
// is fatal (Invalid).
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, esiuxerr.Invalid("header", "16 bytes", "short buffer")
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return Header{}, esiuxerr.Invalid("header.magic", "0x551e0bb0", formatHex(magic))
	}
	return Header{
		Entry: binary.LittleEndian.Uint32(buf[4:8]),
		Version: Version{
			Major:     buf[8],
			Minor:     buf[9],
			Increment: buf[10],
		},
		SectionCount: buf[11],
	}, nil
}

// SegmentHeader is an 8-byte entry in the section table: size, kind,
// and an absolute file offset.
type SegmentHeader struct {
	Size   uint16
	Kind   SectionKind
	Offset uint32
}

// Encode writes the 8-byte segment header: size, kind, offset, all
// little-endian.
func (s SegmentHeader) Encode() []byte {
	buf := make([]byte, SegmentHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], s.Size)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(s.Kind))
	binary.LittleEndian.PutUint32(buf[4:8], s.Offset)
	return buf
}

// DecodeSegmentHeader reads an 8-byte segment header.
func DecodeSegmentHeader(buf []byte) (SegmentHeader, error) {
	if len(buf) < SegmentHeaderSize {
		return SegmentHeader{}, esiuxerr.Invalid("segment header", "8 bytes", "short buffer")
	}
	return SegmentHeader{
		Size:   binary.LittleEndian.Uint16(buf[0:2]),
		Kind:   SectionKind(binary.LittleEndian.Uint16(buf[2:4])),
		Offset: binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

// Binary is a full ESIUX image: header, ordered segment table, and the
// concatenated raw payload.
type Binary struct {
	Header   Header
	Segments []SegmentHeader
	Payload  []byte
}

// Encode serializes header, then each segment header in order, then the
// raw payload — the literal inverse of Decode.
func (b Binary) Encode() []byte {
	out := make([]byte, 0, HeaderSize+len(b.Segments)*SegmentHeaderSize+len(b.Payload))
	out = append(out, b.Header.Encode()...)
	for _, seg := range b.Segments {
		out = append(out, seg.Encode()...)
	}
	out = append(out, b.Payload...)
	return out
}

// Decode reads a header, section_count segment headers, then treats the
// remainder as the payload. An empty payload is only legal when
// section_count == 0; otherwise it is EmptyBin.
func Decode(buf []byte) (Binary, error) {
	header, err := DecodeHeader(buf)
	if err != nil {
		return Binary{}, err
	}

	segStart := HeaderSize
	segments := make([]SegmentHeader, 0, header.SectionCount)
	var totalSize uint32
	for i := 0; i < int(header.SectionCount); i++ {
		off := segStart + i*SegmentHeaderSize
		if off+SegmentHeaderSize > len(buf) {
			return Binary{}, esiuxerr.Invalid("segment table", "section_count segment headers", "truncated buffer")
		}
		seg, err := DecodeSegmentHeader(buf[off : off+SegmentHeaderSize])
		if err != nil {
			return Binary{}, err
		}
		segments = append(segments, seg)
		totalSize += uint32(seg.Size)
	}

	payloadStart := segStart + int(header.SectionCount)*SegmentHeaderSize
	var payload []byte
	if payloadStart < len(buf) {
		payload = buf[payloadStart:]
	}

	if len(payload) == 0 && header.SectionCount != 0 {
		return Binary{}, esiuxerr.New(esiuxerr.KindEmptyBin, "binary declares sections but carries no payload")
	}
	if uint32(len(payload)) != totalSize {
		return Binary{}, esiuxerr.Invalid("payload length", formatHex(totalSize), formatHex(uint32(len(payload))))
	}

	return Binary{Header: header, Segments: segments, Payload: payload}, nil
}

func formatHex(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
