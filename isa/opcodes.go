package isa

import (
	"strings"

	"github.com/esiux/esiux/esiuxerr"
)

// Class is the 3-bit instruction class carried in bits 6..4 of every
// instruction word.
type Class uint8

const (
	ClassDPI Class = 0b001
	ClassLSI Class = 0b011
	ClassBRI Class = 0b101
	ClassSCI Class = 0b111
)

func (c Class) String() string {
	switch c {
	case ClassDPI:
		return "DPI"
	case ClassLSI:
		return "LSI"
	case ClassBRI:
		return "BRI"
	case ClassSCI:
		return "SCI"
	default:
		return "??"
	}
}

// DPIOpcode names one of the ten data-processing opcodes. Numeric codes
// are class<<4 | low-nibble, per spec.md §3's "Opcode number encoding".
// Cmp (0x1A) is this rewrite's resolution of the Open Question in
// spec.md §9 (see SPEC_FULL.md 4.O): it shares the DPI shape but never
// writes rd.
type DPIOpcode uint8

const (
	OpAdd DPIOpcode = 0x11
	OpSub DPIOpcode = 0x12
	OpMul DPIOpcode = 0x13
	OpDiv DPIOpcode = 0x14
	OpMov DPIOpcode = 0x15
	OpAnd DPIOpcode = 0x16
	OpOrr DPIOpcode = 0x17
	OpLsl DPIOpcode = 0x18
	OpLsr DPIOpcode = 0x19
	OpCmp DPIOpcode = 0x1A
)

type dpiEntry struct {
	mnemonic string
	hasRn    bool // false for Mov and Cmp, which take no rn source operand
}

var dpiTable = map[DPIOpcode]dpiEntry{
	OpAdd: {"add", true},
	OpSub: {"sub", true},
	OpMul: {"mul", true},
	OpDiv: {"div", true},
	OpMov: {"mov", false},
	OpAnd: {"and", true},
	OpOrr: {"orr", true},
	OpLsl: {"lsl", true},
	OpLsr: {"lsr", true},
	OpCmp: {"cmp", false},
}

var dpiByMnemonic map[string]DPIOpcode

func init() {
	dpiByMnemonic = make(map[string]DPIOpcode, len(dpiTable))
	for op, e := range dpiTable {
		dpiByMnemonic[e.mnemonic] = op
	}
}

func (op DPIOpcode) String() string {
	if e, ok := dpiTable[op]; ok {
		return e.mnemonic
	}
	return "??"
}

// HasSourceRegister reports whether the opcode reads an rn operand; Mov
// and Cmp take only {rd-or-none, operand}, per spec.md §3.
func (op DPIOpcode) HasSourceRegister() bool {
	e, ok := dpiTable[op]
	return ok && e.hasRn
}

// ParseDPIOpcode resolves a mnemonic stem (without condition suffix) to a
// DPIOpcode.
func ParseDPIOpcode(mnemonic string) (DPIOpcode, bool) {
	op, ok := dpiByMnemonic[strings.ToLower(mnemonic)]
	return op, ok
}

func dpiOpcodeFromNumber(n uint8) (DPIOpcode, error) {
	op := DPIOpcode(n)
	if _, ok := dpiTable[op]; !ok {
		return 0, esiuxerr.Decode(uint32(n))
	}
	return op, nil
}

// LSIOpcode names Ldr or Str; numeric code is class<<4 | discriminator
// bit, per spec.md §3.
type LSIOpcode uint8

const (
	OpLdr LSIOpcode = 0x30
	OpStr LSIOpcode = 0x31
)

var lsiMnemonics = map[LSIOpcode]string{OpLdr: "ldr", OpStr: "str"}
var lsiByMnemonic = map[string]LSIOpcode{"ldr": OpLdr, "str": OpStr}

func (op LSIOpcode) String() string {
	if m, ok := lsiMnemonics[op]; ok {
		return m
	}
	return "??"
}

// Discriminator returns the 1-bit field (bit 11) distinguishing Ldr (0)
// from Str (1).
func (op LSIOpcode) Discriminator() uint32 {
	if op == OpStr {
		return 1
	}
	return 0
}

func ParseLSIOpcode(mnemonic string) (LSIOpcode, bool) {
	op, ok := lsiByMnemonic[strings.ToLower(mnemonic)]
	return op, ok
}

func lsiOpcodeFromDiscriminator(bit uint32) LSIOpcode {
	if bit != 0 {
		return OpStr
	}
	return OpLdr
}

// BRIOpcode names a branch opcode. ESIUX has exactly one: Branch, 0x51.
type BRIOpcode uint8

const OpBranch BRIOpcode = 0x51

func (op BRIOpcode) String() string {
	if op == OpBranch {
		return "b"
	}
	return "??"
}

func ParseBRIOpcode(mnemonic string) (BRIOpcode, bool) {
	if strings.EqualFold(mnemonic, "b") {
		return OpBranch, true
	}
	return 0, false
}

func briOpcodeFromNumber(n uint8) (BRIOpcode, error) {
	if BRIOpcode(n) != OpBranch {
		return 0, esiuxerr.Decode(uint32(n))
	}
	return OpBranch, nil
}

// SCIOpcode names a supervisor-call opcode. ESIUX has exactly one: Svc,
// 0x71.
type SCIOpcode uint8

const OpSvc SCIOpcode = 0x71

func (op SCIOpcode) String() string {
	if op == OpSvc {
		return "svc"
	}
	return "??"
}

func ParseSCIOpcode(mnemonic string) (SCIOpcode, bool) {
	if strings.EqualFold(mnemonic, "svc") {
		return OpSvc, true
	}
	return 0, false
}

func sciOpcodeFromNumber(n uint8) (SCIOpcode, error) {
	if SCIOpcode(n) != OpSvc {
		return 0, esiuxerr.Decode(uint32(n))
	}
	return OpSvc, nil
}

// MnemonicClass reports which instruction class a bare mnemonic stem
// (the part before any '.' condition suffix) belongs to, used by the
// scanner (asm.Scanner) to pick an operand grammar before full opcode
// resolution.
func MnemonicClass(mnemonic string) (Class, bool) {
	m := strings.ToLower(mnemonic)
	if _, ok := dpiByMnemonic[m]; ok {
		return ClassDPI, true
	}
	if _, ok := lsiByMnemonic[m]; ok {
		return ClassLSI, true
	}
	if strings.EqualFold(mnemonic, "b") {
		return ClassBRI, true
	}
	if strings.EqualFold(mnemonic, "svc") {
		return ClassSCI, true
	}
	return 0, false
}
