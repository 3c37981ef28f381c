package isa

import (
	"testing"

	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/literal"
	"github.com/esiux/esiux/register"
)

func TestDecodeEncodeRoundTripDPI(t *testing.T) {
	l12, _ := literal.NewL12Unsigned(69)
	cases := []DPI{
		{Cond: condition.AL, Opcode: OpMov, Rd: register.R1, Operand: NewImmediateOperand(l12)},
		{Cond: condition.EQ, Opcode: OpAdd, Rd: register.R2, Rn: register.R0, Operand: NewRegisterOperand(register.R1)},
		{Cond: condition.AL, Opcode: OpCmp, Rn: register.R3, Operand: NewRegisterOperand(register.R4)},
	}
	for _, want := range cases {
		word, err := Encode(want)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", want, err)
		}
		got, err := Decode(word)
		if err != nil {
			t.Fatalf("Decode(0x%08x): %v", word, err)
		}
		if got != Instruction(want) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestDecodeEncodeRoundTripLSI(t *testing.T) {
	off, _ := literal.NewL12Unsigned(4)
	want := LSI{Cond: condition.AL, LoadStore: OpLdr, Index: true, Rd: register.R0, Rn: register.R1, Offset: off}
	word, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != Instruction(want) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeEncodeRoundTripBRI(t *testing.T) {
	off, _ := literal.NewL20Unsigned(8)
	want := BRI{Cond: condition.AL, Opcode: OpBranch, Offset: off}
	word, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != Instruction(want) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeEncodeRoundTripSCI(t *testing.T) {
	want := SCI{Cond: condition.AL, Opcode: OpSvc, InterruptKey: 0xf0}
	word, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != Instruction(want) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

// TestDecodeAddScenario matches spec.md §8 scenario 3: the word
// 0b0000_0000_0001_0000_0010_0001_0001_1110 decodes to
// Add(DPI{cond=AL, opcode=Add, rd=R2, rn=R0, operand=Register(R1)}).
func TestDecodeAddScenario(t *testing.T) {
	word := uint32(0b0000_0000_0001_0000_0010_0001_0001_1110)
	instr, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dpi, ok := instr.(DPI)
	if !ok {
		t.Fatalf("Decode returned %T, want DPI", instr)
	}
	want := DPI{Cond: condition.AL, Opcode: OpAdd, Rd: register.R2, Rn: register.R0, Operand: NewRegisterOperand(register.R1)}
	if dpi != want {
		t.Errorf("Decode(0x%08x) = %+v, want %+v", word, dpi, want)
	}
}

// TestDecodeMovScenario matches spec.md §8 scenario 2's instruction word
// for `mov r1, #69`: 0x0450159E.
func TestDecodeMovScenario(t *testing.T) {
	word := uint32(0x0450159E)
	instr, err := Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dpi, ok := instr.(DPI)
	if !ok {
		t.Fatalf("Decode returned %T, want DPI", instr)
	}
	if dpi.Opcode != OpMov || dpi.Rd != register.R1 {
		t.Fatalf("Decode(0x%08x) = %+v, want Mov r1, #69", word, dpi)
	}
	imm, ok := dpi.Operand.Immediate()
	if !ok || imm.Value() != 69 {
		t.Errorf("operand = %+v, want immediate 69", dpi.Operand)
	}
}

func TestDecodeUnknownClass(t *testing.T) {
	// Class bits 6..4 = 0b000, not one of DPI/LSI/BRI/SCI.
	if _, err := Decode(0x00000000); err == nil {
		t.Fatal("expected Decode error for unrecognized class")
	}
}

func TestHasSourceRegister(t *testing.T) {
	if OpMov.HasSourceRegister() {
		t.Error("Mov should not report a source register")
	}
	if OpCmp.HasSourceRegister() {
		t.Error("Cmp should not report a source register")
	}
	if !OpAdd.HasSourceRegister() {
		t.Error("Add should report a source register")
	}
}
