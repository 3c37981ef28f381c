package vm

import (
	"bytes"
	"testing"

	"github.com/esiux/esiux/asm"
	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/isa"
	"github.com/esiux/esiux/literal"
	"github.com/esiux/esiux/register"
)

func mustL12(t *testing.T, v int16) literal.L12 {
	t.Helper()
	return literal.NewL12Signed(v)
}

func step(t *testing.T, v *VM, instr isa.Instruction) {
	t.Helper()
	word, err := isa.Encode(instr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := v.Memory.WriteU32(v.Registers[register.PC], word); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := v.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
}

func TestDPIMovSetsRegister(t *testing.T) {
	v := New(64)
	l := mustL12(t, 69)
	step(t, v, isa.DPI{Cond: condition.AL, Opcode: isa.OpMov, Rd: register.R1, Operand: isa.NewImmediateOperand(l)})
	if v.Register(register.R1) != 69 {
		t.Errorf("R1 = %d, want 69", v.Register(register.R1))
	}
}

func TestDPIAddUpdatesFlags(t *testing.T) {
	v := New(64)
	v.Registers[register.R0] = 0x7FFFFFFF
	l := mustL12(t, 1)
	step(t, v, isa.DPI{Cond: condition.AL, Opcode: isa.OpAdd, Rd: register.R2, Rn: register.R0, Operand: isa.NewImmediateOperand(l)})
	if !v.Flags.V {
		t.Error("expected overflow flag set")
	}
	if v.Register(register.R2) != 0x80000000 {
		t.Errorf("R2 = %#x, want 0x80000000", v.Register(register.R2))
	}
}

func TestDPICmpDoesNotWriteRd(t *testing.T) {
	v := New(64)
	v.Registers[register.R3] = 5
	v.Registers[register.R0] = 0xAA // Rd of the Cmp below
	l := mustL12(t, 5)
	step(t, v, isa.DPI{Cond: condition.AL, Opcode: isa.OpCmp, Rn: register.R3, Operand: isa.NewImmediateOperand(l)})
	if !v.Flags.Z {
		t.Error("expected zero flag set for equal compare")
	}
	if v.Register(register.R0) != 0xAA {
		t.Errorf("R0 = %#x, want 0xAA (Cmp must not write Rd)", v.Register(register.R0))
	}
}

func TestDPIDivByZero(t *testing.T) {
	v := New(64)
	l := mustL12(t, 0)
	word, err := isa.Encode(isa.DPI{Cond: condition.AL, Opcode: isa.OpDiv, Rd: register.R0, Rn: register.R1, Operand: isa.NewImmediateOperand(l)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = v.Memory.WriteU32(0, word)
	if err := v.Step(); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestDPIConditionSkip(t *testing.T) {
	v := New(64)
	// EQ with Z clear must not execute, leaving R0 at its reset value.
	l := mustL12(t, 1)
	step(t, v, isa.DPI{Cond: condition.EQ, Opcode: isa.OpMov, Rd: register.R0, Operand: isa.NewImmediateOperand(l)})
	if v.Register(register.R0) != 0 {
		t.Errorf("R0 = %d, want 0 (instruction should have been skipped)", v.Register(register.R0))
	}
}

func TestLSIStoreThenLoad(t *testing.T) {
	v := New(64)
	v.Registers[register.R0] = 0xCAFEBABE
	v.Registers[register.R1] = 32
	off := mustL12(t, 0)

	step(t, v, isa.LSI{Cond: condition.AL, LoadStore: isa.OpStr, Index: true, Rd: register.R0, Rn: register.R1, Offset: off})
	step(t, v, isa.LSI{Cond: condition.AL, LoadStore: isa.OpLdr, Index: true, Rd: register.R2, Rn: register.R1, Offset: off})

	if v.Register(register.R2) != 0xCAFEBABE {
		t.Errorf("R2 = %#x, want 0xCAFEBABE", v.Register(register.R2))
	}
}

func TestLSIPreIndexedWriteBack(t *testing.T) {
	v := New(64)
	v.Registers[register.R1] = 16
	off := mustL12(t, 4)
	step(t, v, isa.LSI{Cond: condition.AL, LoadStore: isa.OpStr, Index: true, WriteBack: true, Rd: register.R0, Rn: register.R1, Offset: off})
	if v.Register(register.R1) != 20 {
		t.Errorf("R1 = %d, want 20 (write-back)", v.Register(register.R1))
	}
}

func TestLSIPostIndexedAlwaysWritesBack(t *testing.T) {
	v := New(64)
	v.Registers[register.R1] = 16
	off := mustL12(t, 4)
	step(t, v, isa.LSI{Cond: condition.AL, LoadStore: isa.OpStr, Index: false, WriteBack: true, Rd: register.R0, Rn: register.R1, Offset: off})
	if v.Register(register.R1) != 20 {
		t.Errorf("R1 = %d, want 20", v.Register(register.R1))
	}
}

func TestLSINegativeOffset(t *testing.T) {
	v := New(64)
	v.Registers[register.R1] = 20
	v.Registers[register.R0] = 7
	off := mustL12(t, 4)
	step(t, v, isa.LSI{Cond: condition.AL, LoadStore: isa.OpStr, Index: true, Negative: true, Rd: register.R0, Rn: register.R1, Offset: off})
	got, err := v.Memory.ReadU32(16)
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if got != 7 {
		t.Errorf("Memory[16] = %d, want 7", got)
	}
}

func TestBRIAbsoluteJump(t *testing.T) {
	v := New(64)
	off, err := literal.NewL20Unsigned(32)
	if err != nil {
		t.Fatalf("NewL20Unsigned: %v", err)
	}
	step(t, v, isa.BRI{Cond: condition.AL, Opcode: isa.OpBranch, Offset: off})
	if v.Register(register.PC) != 32 {
		t.Errorf("PC = %d, want 32", v.Register(register.PC))
	}
}

func TestSCIUnboundVectorErrors(t *testing.T) {
	v := New(64)
	word, err := isa.Encode(isa.SCI{Cond: condition.AL, Opcode: isa.OpSvc, InterruptKey: 0x42})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = v.Memory.WriteU32(0, word)
	if err := v.Step(); err == nil {
		t.Fatal("expected error for unbound interrupt vector")
	}
}

func TestSCIHaltStopsRun(t *testing.T) {
	v := New(64)
	v.InstallStandardInterrupts(nil)
	word, err := isa.Encode(isa.SCI{Cond: condition.AL, Opcode: isa.OpSvc, InterruptKey: HaltVector})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = v.Memory.WriteU32(0, word)
	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !v.Halted {
		t.Error("expected VM halted")
	}
}

func TestSCIPrintWritesDecimal(t *testing.T) {
	var out bytes.Buffer
	v := New(64)
	v.InstallStandardInterrupts(&out)
	v.Registers[register.R0] = 42
	word, err := isa.Encode(isa.SCI{Cond: condition.AL, Opcode: isa.OpSvc, InterruptKey: PrintVector})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = v.Memory.WriteU32(0, word)
	if err := v.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
}

func TestRunRespectsMaxCycles(t *testing.T) {
	v := New(64)
	v.MaxCycles = 1
	l := mustL12(t, 1)
	word, err := isa.Encode(isa.DPI{Cond: condition.AL, Opcode: isa.OpMov, Rd: register.R0, Operand: isa.NewImmediateOperand(l)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_ = v.Memory.WriteU32(0, word)
	_ = v.Memory.WriteU32(4, word)
	if err := v.Run(); err == nil {
		t.Fatal("expected cycle-limit error since the program never halts")
	}
}

// TestEndToEndParseAndRun matches spec.md §8 scenario 4: assembling and
// running "mov r1,#3; mov r2,#5; add r0,r1,r2; svc #0xf0" leaves R0=8.
func TestEndToEndParseAndRun(t *testing.T) {
	src := "mov r1, #3\nmov r2, #5\nadd r0, r1, r2\nsvc #0xf0\n"
	stmts, err := asm.NewScanner(src).ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	pre := asm.NewPreprocessor()
	out, err := pre.Process(stmts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	bin, err := asm.Emit(pre, out)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	machine := New(256)
	machine.InstallStandardInterrupts(nil)
	if err := machine.LoadProgram(bin.Payload, 0); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if err := machine.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v := machine.Register(register.R0); v != 8 {
		t.Errorf("R0 = %d, want 8", v)
	}
	if v := machine.Register(register.R1); v != 3 {
		t.Errorf("R1 = %d, want 3", v)
	}
	if v := machine.Register(register.R2); v != 5 {
		t.Errorf("R2 = %d, want 5", v)
	}
	if !machine.Halted {
		t.Error("expected machine halted after svc #0xf0")
	}
}
