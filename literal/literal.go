// Package literal implements ESIUX's bounded-width integer literals, L12
// and L20, used respectively for DPI immediates/LSI offsets and BRI branch
// offsets. Both carry a raw unsigned value plus a signed view that
// sign-extends the top bit of their width.
package literal

import (
	"strconv"
	"strings"

	"github.com/esiux/esiux/esiuxerr"
)

// L12 is a bounded integer in [0, 4096) with a 12-bit signed view (bit 11
// is the sign bit).
type L12 struct {
	value uint16
}

const (
	l12Width = 12
	l12Max   = 1 << l12Width // 4096
	l12Sign  = 1 << (l12Width - 1)
)

// NewL12Unsigned constructs an L12 from a nonnegative value, failing with
// Overflow12 when v >= 4096.
func NewL12Unsigned(v uint16) (L12, error) {
	if v >= l12Max {
		return L12{}, esiuxerr.Overflow12(v)
	}
	return L12{value: v}, nil
}

// NewL12Signed converts a signed value into its 12-bit two's-complement
// representation.
func NewL12Signed(v int16) L12 {
	return L12{value: uint16(v) & (l12Max - 1)}
}

// Value returns the raw unsigned 12-bit value.
func (l L12) Value() uint16 { return l.value }

// AsSigned sign-extends bit 11 and returns the signed interpretation.
func (l L12) AsSigned() int16 {
	if l.value&l12Sign != 0 {
		return int16(l.value) - l12Max
	}
	return int16(l.value)
}

// ParseL12 parses a numeric literal (bases 0x/0b/decimal), trying the
// unsigned constructor first and falling back to the signed one.
func ParseL12(s string) (L12, error) {
	v, err := parseBase(s, l12Width)
	if err != nil {
		return L12{}, err
	}
	if v >= 0 && v < l12Max {
		return NewL12Unsigned(uint16(v))
	}
	if v < 0 || v >= l12Max {
		// Value is outside unsigned range but may still be a valid signed
		// literal (e.g. a negative immediate written as -1).
		if v >= -((l12Max) / 2) && v < l12Max/2 {
			return NewL12Signed(int16(v)), nil
		}
		return L12{}, esiuxerr.Overflow12(uint16(v))
	}
	return L12{}, esiuxerr.Overflow12(uint16(v))
}

// L20 is a bounded integer in [0, 1<<20) with a 20-bit signed view (bit 19
// is the sign bit), used for BRI branch offsets.
type L20 struct {
	value uint32
}

const (
	l20Width = 20
	l20Max   = 1 << l20Width
	l20Sign  = 1 << (l20Width - 1)
)

// NewL20Unsigned constructs an L20 from a nonnegative value, failing with
// Overflow20 when v >= 1<<20.
func NewL20Unsigned(v uint32) (L20, error) {
	if v >= l20Max {
		return L20{}, esiuxerr.Overflow20(v)
	}
	return L20{value: v}, nil
}

// NewL20Signed converts a signed value into its 20-bit two's-complement
// representation.
func NewL20Signed(v int32) L20 {
	return L20{value: uint32(v) & (l20Max - 1)}
}

// Value returns the raw unsigned 20-bit value.
func (l L20) Value() uint32 { return l.value }

// AsSigned sign-extends bit 19 and returns the signed interpretation.
func (l L20) AsSigned() int32 {
	if l.value&l20Sign != 0 {
		return int32(l.value) - l20Max
	}
	return int32(l.value)
}

// ParseL20 parses a numeric literal (bases 0x/0b/decimal), trying the
// unsigned constructor first and falling back to the signed one.
func ParseL20(s string) (L20, error) {
	v, err := parseBase(s, l20Width)
	if err != nil {
		return L20{}, err
	}
	if u, uerr := NewL20Unsigned(uint32(v)); uerr == nil {
		return u, nil
	}
	if v >= -(l20Max/2) && v < l20Max/2 {
		return NewL20Signed(int32(v)), nil
	}
	return L20{}, esiuxerr.Overflow20(uint32(v))
}

// parseBase interprets s as base-16 when prefixed "0x", base-2 when
// prefixed "0b", else base-10, returning a 64-bit signed value so the
// caller can range-check it for either the unsigned or signed view.
func parseBase(s string, width int) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		base = 2
		s = s[2:]
	}

	bitSize := width + 8 // generous headroom for the sign-check callers do
	v, err := strconv.ParseInt(s, base, bitSize)
	if err != nil {
		// Retry unsigned: a value just past the signed parse range is
		// handed on to the caller's range check instead of failing here.
		uv, uerr := strconv.ParseUint(s, base, bitSize+1)
		if uerr != nil {
			return 0, esiuxerr.Wrap(esiuxerr.KindParseInt, "invalid numeric literal "+s, err)
		}
		v = int64(uv)
	}
	if neg {
		v = -v
	}
	return v, nil
}
