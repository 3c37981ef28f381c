package isa

import (
	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/literal"
	"github.com/esiux/esiux/register"
)

// Bit positions, per spec.md §4.D's layout diagram (bit 0 = LSB).
const (
	condShift      = 0
	classShift     = 4
	dpiImmShift    = 7
	lsiIndexShift  = 8
	lsiNegShift    = 9
	lsiWBShift     = 10
	opNibbleShift  = 8
	rdShift        = 12
	rnShift        = 16
	regOperandSh   = 20
	l12Shift       = 20
	l20Shift       = 12
	interruptShift = 12

	mask4  = 0xF
	mask8  = 0xFF
	mask12 = 0xFFF
)

// Decode reads a 32-bit instruction word and returns its typed
// Instruction, dispatching on the 3-bit class at bits 6..4.
func Decode(word uint32) (Instruction, error) {
	cond := condition.Condition((word >> condShift) & mask4)
	class := Class((word >> classShift) & 0x7)

	switch class {
	case ClassDPI:
		return decodeDPI(word, cond)
	case ClassLSI:
		return decodeLSI(word, cond)
	case ClassBRI:
		return decodeBRI(word, cond)
	case ClassSCI:
		return decodeSCI(word, cond)
	default:
		return nil, esiuxerr.Decode(word)
	}
}

func decodeDPI(word uint32, cond condition.Condition) (Instruction, error) {
	nibble := uint8((word >> opNibbleShift) & mask4)
	opcode, err := dpiOpcodeFromNumber(uint8(ClassDPI)<<4 | nibble)
	if err != nil {
		return nil, err
	}

	rd, err := register.TryFromU8(uint8((word >> rdShift) & mask4))
	if err != nil {
		return nil, err
	}
	rn, err := register.TryFromU8(uint8((word >> rnShift) & mask4))
	if err != nil {
		return nil, err
	}

	var operand Operand
	if (word>>dpiImmShift)&1 != 0 {
		l12, err := literal.NewL12Unsigned(uint16((word >> l12Shift) & mask12))
		if err != nil {
			return nil, err
		}
		operand = NewImmediateOperand(l12)
	} else {
		r, err := register.TryFromU8(uint8((word >> regOperandSh) & mask4))
		if err != nil {
			return nil, err
		}
		operand = NewRegisterOperand(r)
	}

	return DPI{Cond: cond, Opcode: opcode, Rd: rd, Rn: rn, Operand: operand}, nil
}

func decodeLSI(word uint32, cond condition.Condition) (Instruction, error) {
	discr := (word >> 11) & 1
	opcode := lsiOpcodeFromDiscriminator(discr)

	rd, err := register.TryFromU8(uint8((word >> rdShift) & mask4))
	if err != nil {
		return nil, err
	}
	rn, err := register.TryFromU8(uint8((word >> rnShift) & mask4))
	if err != nil {
		return nil, err
	}
	offset, err := literal.NewL12Unsigned(uint16((word >> l12Shift) & mask12))
	if err != nil {
		return nil, err
	}

	return LSI{
		Cond:      cond,
		LoadStore: opcode,
		Index:     (word>>lsiIndexShift)&1 != 0,
		Negative:  (word>>lsiNegShift)&1 != 0,
		WriteBack: (word>>lsiWBShift)&1 != 0,
		Rd:        rd,
		Rn:        rn,
		Offset:    offset,
	}, nil
}

func decodeBRI(word uint32, cond condition.Condition) (Instruction, error) {
	nibble := uint8((word >> opNibbleShift) & mask4)
	opcode, err := briOpcodeFromNumber(uint8(ClassBRI)<<4 | nibble)
	if err != nil {
		return nil, err
	}
	offset, err := literal.NewL20Unsigned((word >> l20Shift) & 0xFFFFF)
	if err != nil {
		return nil, err
	}
	return BRI{Cond: cond, Opcode: opcode, Offset: offset}, nil
}

func decodeSCI(word uint32, cond condition.Condition) (Instruction, error) {
	nibble := uint8((word >> opNibbleShift) & mask4)
	opcode, err := sciOpcodeFromNumber(uint8(ClassSCI)<<4 | nibble)
	if err != nil {
		return nil, err
	}
	key := uint8((word >> interruptShift) & mask8)
	return SCI{Cond: cond, Opcode: opcode, InterruptKey: key}, nil
}

// Encode is the literal inverse of Decode: Decode(Encode(i)) == i for
// every valid Instruction. Encode(Decode(w)) keeps every field Decode
// reads; bits no field covers (e.g. bits 24..31 of a register-operand
// DPI word) come back as zero, so re-encoding a decoded word is a fixed
// point but need not equal w.
func Encode(instr Instruction) (uint32, error) {
	switch v := instr.(type) {
	case DPI:
		return encodeDPI(v), nil
	case LSI:
		return encodeLSI(v), nil
	case BRI:
		return encodeBRI(v), nil
	case SCI:
		return encodeSCI(v), nil
	default:
		return 0, esiuxerr.New(esiuxerr.KindInvalid, "unknown instruction variant")
	}
}

func encodeDPI(d DPI) uint32 {
	nibble := uint32(d.Opcode) & mask4
	word := uint32(d.Cond)&mask4<<condShift |
		uint32(ClassDPI)<<classShift |
		nibble<<opNibbleShift |
		uint32(d.Rn)&mask4<<rnShift |
		uint32(d.Rd)&mask4<<rdShift

	if r, ok := d.Operand.Register(); ok {
		word |= uint32(r) & mask4 << regOperandSh
	} else if imm, ok := d.Operand.Immediate(); ok {
		word |= 1 << dpiImmShift
		word |= uint32(imm.Value()) & mask12 << l12Shift
	}
	return word
}

func encodeLSI(l LSI) uint32 {
	word := uint32(l.Cond)&mask4<<condShift |
		uint32(ClassLSI)<<classShift |
		l.LoadStore.Discriminator()<<11 |
		uint32(l.Rn)&mask4<<rnShift |
		uint32(l.Rd)&mask4<<rdShift |
		uint32(l.Offset.Value())&mask12<<l12Shift
	if l.Index {
		word |= 1 << lsiIndexShift
	}
	if l.Negative {
		word |= 1 << lsiNegShift
	}
	if l.WriteBack {
		word |= 1 << lsiWBShift
	}
	return word
}

func encodeBRI(b BRI) uint32 {
	nibble := uint32(b.Opcode) & mask4
	return uint32(b.Cond)&mask4<<condShift |
		uint32(ClassBRI)<<classShift |
		nibble<<opNibbleShift |
		uint32(b.Offset.Value())&0xFFFFF<<l20Shift
}

func encodeSCI(s SCI) uint32 {
	nibble := uint32(s.Opcode) & mask4
	return uint32(s.Cond)&mask4<<condShift |
		uint32(ClassSCI)<<classShift |
		nibble<<opNibbleShift |
		uint32(s.InterruptKey)&mask8<<interruptShift
}
