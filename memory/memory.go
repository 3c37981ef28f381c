// Package memory implements ESIUX's byte-addressable linear memory with
// little-endian 16/32-bit accessors, grounded on the teacher's
// vm/memory.go segment-backed memory but collapsed to the single flat
// region spec.md §3/§4.F describes (ESIUX has no segment permission
// model — that's vm/memory.go's multi-segment Addressable behavior,
// which is explicitly out of scope per spec.md's Non-goals on memory
// protection).
package memory

import "github.com/esiux/esiux/esiuxerr"

// Memory is a fixed-size, zero-initialized byte array.
type Memory struct {
	bytes []byte
}

// New allocates size zeroed bytes.
func New(size uint32) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the addressable range.
func (m *Memory) Size() uint32 { return uint32(len(m.bytes)) }

// ReadU8 reads a single byte, failing with MemOutOfBounds when
// addr >= size.
func (m *Memory) ReadU8(addr uint32) (uint8, error) {
	if addr >= uint32(len(m.bytes)) {
		return 0, esiuxerr.MemOutOfBounds(addr)
	}
	return m.bytes[addr], nil
}

// WriteU8 writes a single byte, failing with MemOutOfBounds when
// addr >= size.
func (m *Memory) WriteU8(addr uint32, v uint8) error {
	if addr >= uint32(len(m.bytes)) {
		return esiuxerr.MemOutOfBounds(addr)
	}
	m.bytes[addr] = v
	return nil
}

// ReadU16 reads a little-endian 16-bit value, decomposed into two
// ReadU8 calls so an out-of-bounds failure on either byte propagates.
func (m *Memory) ReadU16(addr uint32) (uint16, error) {
	lo, err := m.ReadU8(addr)
	if err != nil {
		return 0, err
	}
	hi, err := m.ReadU8(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// WriteU16 writes a little-endian 16-bit value, decomposed into two
// WriteU8 calls.
func (m *Memory) WriteU16(addr uint32, v uint16) error {
	if err := m.WriteU8(addr, uint8(v)); err != nil {
		return err
	}
	return m.WriteU8(addr+1, uint8(v>>8))
}

// ReadU32 reads a little-endian 32-bit value, decomposed into four
// ReadU8 calls.
func (m *Memory) ReadU32(addr uint32) (uint32, error) {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		b, err := m.ReadU8(addr + i)
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

// WriteU32 writes a little-endian 32-bit value, decomposed into four
// WriteU8 calls.
func (m *Memory) WriteU32(addr uint32, v uint32) error {
	for i := uint32(0); i < 4; i++ {
		if err := m.WriteU8(addr+i, uint8(v>>(8*i))); err != nil {
			return err
		}
	}
	return nil
}

// Copy performs a byte-granular copy of n bytes from "from" to "to",
// iterating low-to-high; overlapping regions follow forward-iteration
// semantics (a later destination byte may observe an earlier write),
// per spec.md §4.F.
func (m *Memory) Copy(from, to, n uint32) error {
	for i := uint32(0); i < n; i++ {
		b, err := m.ReadU8(from + i)
		if err != nil {
			return err
		}
		if err := m.WriteU8(to+i, b); err != nil {
			return err
		}
	}
	return nil
}

// LoadBytes writes src starting at base, byte-by-byte, propagating the
// first out-of-bounds failure (used by the VM's program loader).
func (m *Memory) LoadBytes(base uint32, src []byte) error {
	for i, b := range src {
		if err := m.WriteU8(base+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}
