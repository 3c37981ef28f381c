package vm

import (
	"github.com/esiux/esiux/isa"
	"github.com/esiux/esiux/register"
)

// execBRI implements ESIUX's sole branch opcode: an absolute jump to the
// assembled target address, grounded on the teacher's ExecuteBranch
// (vm/branch.go) but narrowed to ESIUX's single unconditional-shape
// Branch opcode — the condition check already gated dispatch in Step —
// and an absolute rather than PC-relative offset, per the assembler's
// literal-label encoding (SPEC_FULL.md 4.Q).
func (v *VM) execBRI(i isa.BRI) error {
	v.Registers[register.PC] = uint32(i.Offset.Value())
	return nil
}
