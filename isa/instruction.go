// Package isa implements ESIUX's instruction taxonomy and bit-exact
// 32-bit codec: four structural families (DPI, LSI, BRI, SCI) keyed by
// the 3-bit instruction class at bits 6..4, grounded on the teacher's
// class-dispatch decode table (vm/executor.go's switch on decoded class)
// generalized from ARM's full instruction set down to ESIUX's four.
package isa

import (
	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/literal"
	"github.com/esiux/esiux/register"
)

// Instruction is the sum type of the four structural families. Decode
// never returns anything but a DPI, LSI, BRI, or SCI value.
type Instruction interface {
	isInstruction()
	Class() Class
	Condition() condition.Condition
}

// DPI is a data-processing instruction: {cond, imm_flag, opcode, rd, rn,
// operand}, per spec.md §3.
type DPI struct {
	Cond    condition.Condition
	Opcode  DPIOpcode
	Rd      register.Register
	Rn      register.Register
	Operand Operand
}

func (DPI) isInstruction()                   {}
func (d DPI) Class() Class                   { return ClassDPI }
func (d DPI) Condition() condition.Condition { return d.Cond }
func (d DPI) ImmFlag() bool                  { return d.Operand.IsImmediate() }

// LSI is a load/store instruction: {cond, index, negative, write_back,
// load_store, rd, rn, offset}, per spec.md §3.
type LSI struct {
	Cond      condition.Condition
	LoadStore LSIOpcode
	Index     bool
	Negative  bool
	WriteBack bool
	Rd        register.Register
	Rn        register.Register
	Offset    literal.L12
}

func (LSI) isInstruction()                   {}
func (l LSI) Class() Class                   { return ClassLSI }
func (l LSI) Condition() condition.Condition { return l.Cond }

// BRI is a branch instruction: {cond, opcode, offset}, per spec.md §3.
type BRI struct {
	Cond   condition.Condition
	Opcode BRIOpcode
	Offset literal.L20
}

func (BRI) isInstruction()                   {}
func (b BRI) Class() Class                   { return ClassBRI }
func (b BRI) Condition() condition.Condition { return b.Cond }

// SCI is a supervisor-call instruction: {cond, opcode, interrupt_key},
// per spec.md §3.
type SCI struct {
	Cond         condition.Condition
	Opcode       SCIOpcode
	InterruptKey uint8
}

func (SCI) isInstruction()                   {}
func (s SCI) Class() Class                   { return ClassSCI }
func (s SCI) Condition() condition.Condition { return s.Cond }
