package asm

import (
	"testing"

	"github.com/esiux/esiux/binfmt"
	"github.com/esiux/esiux/isa"
)

// assemble runs the full scan -> preprocess -> emit pipeline, the same
// sequence cmd/asm/main.go drives.
func assemble(t *testing.T, src string) binfmt.Binary {
	t.Helper()
	stmts, err := NewScanner(src).ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	pre := NewPreprocessor()
	out, err := pre.Process(stmts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	bin, err := Emit(pre, out)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	return bin
}

func TestEmitSingleMovProducesTextSegment(t *testing.T) {
	bin := assemble(t, "mov r1, #69\n")
	if len(bin.Segments) != 1 || bin.Segments[0].Kind != binfmt.Text {
		t.Fatalf("Segments = %+v, want one Text segment", bin.Segments)
	}
	if len(bin.Payload) != 4 {
		t.Fatalf("Payload length = %d, want 4", len(bin.Payload))
	}
	word := uint32(bin.Payload[0]) | uint32(bin.Payload[1])<<8 | uint32(bin.Payload[2])<<16 | uint32(bin.Payload[3])<<24
	instr, err := isa.Decode(word)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dpi, ok := instr.(isa.DPI)
	if !ok || dpi.Opcode != isa.OpMov {
		t.Fatalf("decoded %+v, want Mov", instr)
	}
}

// TestEmitScenarioParseAndRun matches spec.md §8 scenario 4: four
// instructions assemble to a binary whose four 4-byte words decode back
// to the expected DPI/SCI sequence.
func TestEmitScenarioParseAndRun(t *testing.T) {
	src := "mov r1, #3\nmov r2, #5\nadd r0, r1, r2\nsvc #0xf0\n"
	bin := assemble(t, src)
	if len(bin.Payload) != 16 {
		t.Fatalf("Payload length = %d, want 16", len(bin.Payload))
	}
	for i := 0; i < 4; i++ {
		base := i * 4
		word := uint32(bin.Payload[base]) | uint32(bin.Payload[base+1])<<8 |
			uint32(bin.Payload[base+2])<<16 | uint32(bin.Payload[base+3])<<24
		instr, err := isa.Decode(word)
		if err != nil {
			t.Fatalf("Decode word %d: %v", i, err)
		}
		if _, isSCI := instr.(isa.SCI); isSCI != (i == 3) {
			t.Errorf("word %d decoded to %T, want DPI for words 0-2 and SCI for word 3", i, instr)
		}
	}
}

func TestEmitMultiSectionOrdering(t *testing.T) {
	src := ".section data\nmov r0, #1\n.section text\nmov r1, #2\n"
	bin := assemble(t, src)
	if len(bin.Segments) != 2 {
		t.Fatalf("Segments = %+v, want 2", bin.Segments)
	}
	if bin.Segments[0].Kind != binfmt.Data || bin.Segments[1].Kind != binfmt.Text {
		t.Errorf("Segments = %+v, want [Data, Text] order", bin.Segments)
	}
}

func TestEmitEntrySetFromGlobal(t *testing.T) {
	src := ".global start\nmov r0, #1\nstart:\nmov r1, #2\n"
	bin := assemble(t, src)
	if bin.Header.Entry != 4 {
		t.Errorf("Entry = %d, want 4", bin.Header.Entry)
	}
}

func TestEmitWithDefaultEntryFallsBackWithoutGlobal(t *testing.T) {
	stmts, err := NewScanner("mov r0, #1\n").ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	pre := NewPreprocessor()
	out, err := pre.Process(stmts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	bin, err := EmitWithDefaultEntry(pre, out, 0x100)
	if err != nil {
		t.Fatalf("EmitWithDefaultEntry: %v", err)
	}
	if bin.Header.Entry != 0x100 {
		t.Errorf("Entry = %#x, want 0x100", bin.Header.Entry)
	}
}

func TestEmitWithDefaultEntryIgnoredWhenGlobalSet(t *testing.T) {
	stmts, err := NewScanner(".global start\nmov r0, #1\nstart:\nmov r1, #2\n").ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	pre := NewPreprocessor()
	out, err := pre.Process(stmts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	bin, err := EmitWithDefaultEntry(pre, out, 0x100)
	if err != nil {
		t.Fatalf("EmitWithDefaultEntry: %v", err)
	}
	if bin.Header.Entry != 4 {
		t.Errorf("Entry = %d, want 4 (from .global label, not the default)", bin.Header.Entry)
	}
}

func TestEmitDecodeRoundTrip(t *testing.T) {
	bin := assemble(t, "mov r1, #3\nmov r2, #5\nadd r0, r1, r2\nsvc #0xf0\n")
	encoded := bin.Encode()
	decoded, err := binfmt.Decode(encoded)
	if err != nil {
		t.Fatalf("binfmt.Decode: %v", err)
	}
	if len(decoded.Payload) != len(bin.Payload) {
		t.Fatalf("round-tripped payload length = %d, want %d", len(decoded.Payload), len(bin.Payload))
	}
}
