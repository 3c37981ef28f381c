package vm

import (
	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/isa"
)

// execDPI dispatches a data-processing instruction, per spec.md §4.J's
// Mov/Add rules generalized to every opcode per SPEC_FULL.md 4.Q, with
// flag updates per SPEC_FULL.md 4.P.
func (v *VM) execDPI(i isa.DPI) error {
	rn := v.Registers[i.Rn]
	operand := v.operandValue(i.Operand)

	switch i.Opcode {
	case isa.OpMov:
		v.Registers[i.Rd] = operand

	case isa.OpAdd:
		result := rn + operand
		v.Registers[i.Rd] = result
		v.Flags.SetAddFlags(rn, operand, result)

	case isa.OpSub:
		result := rn - operand
		v.Registers[i.Rd] = result
		v.Flags.SetSubFlags(rn, operand, result)

	case isa.OpMul:
		result := rn * operand
		v.Registers[i.Rd] = result
		v.Flags.SetNZ(result)

	case isa.OpDiv:
		if operand == 0 {
			return esiuxerr.New(esiuxerr.KindDivideByZero, "division by zero")
		}
		result := rn / operand
		v.Registers[i.Rd] = result
		v.Flags.SetNZ(result)

	case isa.OpAnd:
		result := rn & operand
		v.Registers[i.Rd] = result
		v.Flags.SetNZ(result)

	case isa.OpOrr:
		result := rn | operand
		v.Registers[i.Rd] = result
		v.Flags.SetNZ(result)

	case isa.OpLsl:
		result := rn << (operand & 0x1F)
		v.Registers[i.Rd] = result
		v.Flags.SetNZ(result)

	case isa.OpLsr:
		result := rn >> (operand & 0x1F)
		v.Registers[i.Rd] = result
		v.Flags.SetNZ(result)

	case isa.OpCmp:
		result := rn - operand
		v.Flags.SetSubFlags(rn, operand, result)

	default:
		return esiuxerr.New(esiuxerr.KindInvalid, "unknown dpi opcode")
	}

	return nil
}
