package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/isa"
	"github.com/esiux/esiux/register"
)

// execSCI dispatches a supervisor call to its installed handler, per
// spec.md §4.J: an unbound interrupt_key fails with TryFrom.
func (v *VM) execSCI(i isa.SCI) error {
	handler, ok := v.Interrupts[i.InterruptKey]
	if !ok {
		return esiuxerr.TryFrom("interrupt vector", i.InterruptKey)
	}
	return handler(v, v.Registers[register.R0])
}

// HaltVector is the standard interrupt key that stops execution
// (SPEC_FULL.md §6's `vm` CLI, grounded on the teacher's halt syscall).
const HaltVector uint8 = 0xf0

// PrintVector is the standard interrupt key that writes R0 as a decimal
// integer to the VM's output stream, followed by a newline.
const PrintVector uint8 = 0xe0

// InstallStandardInterrupts binds HaltVector and PrintVector to out,
// the configuration every `vm` CLI invocation uses by default.
func (v *VM) InstallStandardInterrupts(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	v.Install(HaltVector, func(v *VM, args uint32) error {
		v.Halted = true
		return nil
	})
	v.Install(PrintVector, func(v *VM, args uint32) error {
		_, err := fmt.Fprintf(out, "%d\n", int32(args))
		return err
	})
}
