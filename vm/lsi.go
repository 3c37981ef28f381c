package vm

import (
	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/isa"
)

// execLSI dispatches a load/store instruction (SPEC_FULL.md 4.Q), address
// = rn (± offset per Index/Negative/WriteBack), grounded on the teacher's
// pre/post-indexed addressing split in vm/inst_memory.go.
func (v *VM) execLSI(i isa.LSI) error {
	base := v.Registers[i.Rn]
	offset := uint32(i.Offset.Value())
	if i.Negative {
		offset = ^offset + 1 // two's-complement negation
	}

	effective := base
	if i.Index {
		effective = base + offset
	}

	switch i.LoadStore {
	case isa.OpLdr:
		word, err := v.Memory.ReadU32(effective)
		if err != nil {
			return err
		}
		v.Registers[i.Rd] = word

	case isa.OpStr:
		if err := v.Memory.WriteU32(effective, v.Registers[i.Rd]); err != nil {
			return err
		}

	default:
		return esiuxerr.New(esiuxerr.KindInvalid, "unknown lsi opcode")
	}

	if i.WriteBack || !i.Index { // post-indexed forms always write back
		if i.Index {
			v.Registers[i.Rn] = effective
		} else {
			v.Registers[i.Rn] = base + offset
		}
	}

	return nil
}
