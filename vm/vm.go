// Package vm implements the ESIUX fetch-decode-execute core: a flat
// 16-register file, the CPSR flags, byte-addressable memory, and an
// installable interrupt table, grounded on the teacher's CPU/Memory/VM
// split (vm/cpu.go, vm/memory.go, vm/executor.go) but narrowed from
// ARM2's full instruction set and segmented memory model down to
// ESIUX's four instruction families and one linear address space
// (spec.md §4.J).
package vm

import (
	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/isa"
	"github.com/esiux/esiux/memory"
	"github.com/esiux/esiux/register"
)

// InterruptHandler is invoked when a Svc instruction's interrupt_key
// matches a registered vector. It receives exclusive mutable access to
// the VM for the duration of the call (spec.md §5).
type InterruptHandler func(v *VM, args uint32) error

// VM owns the full machine state: registers, flags, memory, and the
// installed interrupt vector table (spec.md §4.J).
type VM struct {
	Registers [16]uint32
	Flags     condition.CPSR
	Memory    *memory.Memory

	Interrupts map[uint8]InterruptHandler

	Halted bool
	Cycles uint64

	// MaxCycles bounds a Run call; zero means unbounded. Grounded on the
	// teacher's VM.MaxCycles runaway-program guard (vm/executor.go).
	MaxCycles uint64
}

// New allocates a VM with the given linear memory size and no interrupt
// handlers installed.
func New(memSize uint32) *VM {
	return &VM{
		Memory:     memory.New(memSize),
		Interrupts: make(map[uint8]InterruptHandler),
	}
}

// Reset zeroes every register and flag, reallocates memory at its
// current size, and clears halted/cycles, per spec.md §4.J's reset().
func (v *VM) Reset() {
	v.Registers = [16]uint32{}
	v.Flags = condition.CPSR{}
	v.Memory = memory.New(v.Memory.Size())
	v.Halted = false
	v.Cycles = 0
}

// Register reads the current value of r.
func (v *VM) Register(r register.Register) uint32 {
	return v.Registers[r]
}

// SetRegister atomically applies f to register r's current value and
// stores the result, per spec.md §4.J's register(r, f).
func (v *VM) SetRegister(r register.Register, f func(uint32) uint32) {
	v.Registers[r] = f(v.Registers[r])
}

// LoadProgram writes bytes starting at base, per spec.md §4.J's
// load_program.
func (v *VM) LoadProgram(bytes []byte, base uint32) error {
	return v.Memory.LoadBytes(base, bytes)
}

// Install registers handler under the given interrupt vector, replacing
// any handler previously bound to it.
func (v *VM) Install(vector uint8, handler InterruptHandler) {
	v.Interrupts[vector] = handler
}

// Run steps the VM until it halts, MaxCycles is reached (if nonzero), or
// a step returns an error.
func (v *VM) Run() error {
	for !v.Halted {
		if v.MaxCycles != 0 && v.Cycles >= v.MaxCycles {
			return esiuxerr.New(esiuxerr.KindInvalid, "cycle limit exceeded")
		}
		if err := v.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is a read-only view of VM state for introspection (debugger
// REPL/TUI front ends), per SPEC_FULL.md 4.M: it never hands out anything
// the caller could use to mutate the VM, so the execution loop stays the
// sole owner of VM state (spec.md §5).
type Snapshot struct {
	Registers [16]uint32
	Flags     condition.CPSR
	Halted    bool
	Cycles    uint64
}

// Snapshot captures the current register file, flags, and run state.
func (v *VM) Snapshot() Snapshot {
	return Snapshot{Registers: v.Registers, Flags: v.Flags, Halted: v.Halted, Cycles: v.Cycles}
}

// Step performs one fetch-decode-execute cycle, per spec.md §4.J:
// read PC, advance it by 4, decode the word at the old PC, skip on a
// failed condition check, then dispatch by instruction variant.
func (v *VM) Step() error {
	pc := v.Registers[register.PC]
	word, err := v.Memory.ReadU32(pc)
	if err != nil {
		return err
	}
	v.Registers[register.PC] = pc + 4

	instr, err := isa.Decode(word)
	if err != nil {
		return err
	}
	v.Cycles++

	if !v.Flags.Check(instr.Condition()) {
		return nil
	}

	switch i := instr.(type) {
	case isa.DPI:
		return v.execDPI(i)
	case isa.LSI:
		return v.execLSI(i)
	case isa.BRI:
		return v.execBRI(i)
	case isa.SCI:
		return v.execSCI(i)
	default:
		return esiuxerr.New(esiuxerr.KindInvalid, "undecodable instruction variant")
	}
}

// operandValue resolves a DPI operand to its 32-bit value: an immediate
// sign-extends through its signed view, per spec.md §4.J's Mov rule
// generalized to every DPI opcode (SPEC_FULL.md 4.Q).
func (v *VM) operandValue(op isa.Operand) uint32 {
	if r, ok := op.Register(); ok {
		return v.Registers[r]
	}
	imm, _ := op.Immediate()
	return uint32(imm.AsSigned())
}
