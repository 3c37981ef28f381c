package isa

import (
	"fmt"

	"github.com/esiux/esiux/literal"
	"github.com/esiux/esiux/register"
)

// OperandKind discriminates Operand's two variants.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandImmediate
)

// Operand is the tagged union carried by every DPI instruction's third
// field: either a register or a bounded 12-bit immediate.
type Operand struct {
	kind OperandKind
	reg  register.Register
	imm  literal.L12
}

// NewRegisterOperand wraps r as a register operand.
func NewRegisterOperand(r register.Register) Operand {
	return Operand{kind: OperandRegister, reg: r}
}

// NewImmediateOperand wraps l as an immediate operand.
func NewImmediateOperand(l literal.L12) Operand {
	return Operand{kind: OperandImmediate, imm: l}
}

// Kind reports which variant is held.
func (o Operand) Kind() OperandKind { return o.kind }

// Register returns the held register and true, or the zero register and
// false if this operand is an immediate.
func (o Operand) Register() (register.Register, bool) {
	return o.reg, o.kind == OperandRegister
}

// Immediate returns the held literal and true, or the zero literal and
// false if this operand is a register.
func (o Operand) Immediate() (literal.L12, bool) {
	return o.imm, o.kind == OperandImmediate
}

// IsImmediate reports whether this operand is the Immediate variant; DPI's
// imm_flag invariant (spec.md §3) is exactly this predicate.
func (o Operand) IsImmediate() bool { return o.kind == OperandImmediate }

func (o Operand) String() string {
	switch o.kind {
	case OperandRegister:
		return o.reg.String()
	case OperandImmediate:
		return fmt.Sprintf("#%d", o.imm.Value())
	default:
		return "?"
	}
}
