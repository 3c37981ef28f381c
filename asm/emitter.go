package asm

import (
	"encoding/binary"

	"github.com/esiux/esiux/binfmt"
	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/isa"
	"github.com/esiux/esiux/literal"
	"github.com/esiux/esiux/register"
)

// segmentOrder is the fixed emission order for non-empty section buffers,
// per SPEC_FULL.md 4.N; it keeps the container byte-for-byte deterministic
// regardless of the order sections were switched into during assembly.
var segmentOrder = []binfmt.SectionKind{
	binfmt.Data, binfmt.Text, binfmt.Rodata, binfmt.Bss, binfmt.Comment,
}

// Emit lowers a preprocessed statement stream through the isa codec into
// a binfmt.Binary, routing each instruction's encoded bytes into the
// section buffer it was scanned under (spec.md §4.I, SPEC_FULL.md 4.N).
// The entry point defaults to 0 when the source sets no `.global` label;
// callers that want a configured fallback (SPEC_FULL.md 4.L's
// Execution.DefaultEntry) use EmitWithDefaultEntry instead.
func Emit(pre *Preprocessor, stmts []Statement) (binfmt.Binary, error) {
	return EmitWithDefaultEntry(pre, stmts, 0)
}

// EmitWithDefaultEntry is Emit, but falls back to defaultEntry instead of 0
// when the source defines no `.global` label or the label is undefined —
// the landing spot for a loaded config.Config's Execution.DefaultEntry
// (SPEC_FULL.md 4.L), so a project-wide default entry point survives a
// source file that forgets `.global`.
func EmitWithDefaultEntry(pre *Preprocessor, stmts []Statement, defaultEntry uint32) (binfmt.Binary, error) {
	buffers := make(map[binfmt.SectionKind][]byte, len(segmentOrder))

	for _, stmt := range stmts {
		instr, ok, err := resolveInstruction(stmt)
		if err != nil {
			return binfmt.Binary{}, err
		}
		if !ok {
			continue
		}
		word, err := isa.Encode(instr)
		if err != nil {
			return binfmt.Binary{}, err
		}
		var wordBuf [4]byte
		binary.LittleEndian.PutUint32(wordBuf[:], word)
		buffers[stmt.Section] = append(buffers[stmt.Section], wordBuf[:]...)
	}

	entry := defaultEntry
	if pre.Entry != "" {
		if pc, ok := pre.Labels[pre.Entry]; ok {
			entry = pc
		}
	}

	var segments []binfmt.SegmentHeader
	var payload []byte
	offset := uint32(0) // filled in once the header size is known, below

	for _, kind := range segmentOrder {
		buf := buffers[kind]
		if len(buf) == 0 {
			continue
		}
		segments = append(segments, binfmt.SegmentHeader{Size: uint16(len(buf)), Kind: kind})
		payload = append(payload, buf...)
	}

	headerAndTable := binfmt.HeaderSize + len(segments)*binfmt.SegmentHeaderSize
	offset = uint32(headerAndTable)
	for i := range segments {
		segments[i].Offset = offset
		offset += uint32(segments[i].Size)
	}

	header := binfmt.NewHeader(entry, uint8(len(segments)))
	return binfmt.Binary{Header: header, Segments: segments, Payload: payload}, nil
}

// resolveInstruction lowers one statement into its isa.Instruction. The
// bool result is false for non-instruction statements (labels, comments,
// directives, substitutions, EOF), which contribute no bytes.
func resolveInstruction(stmt Statement) (isa.Instruction, bool, error) {
	switch stmt.Kind {
	case KindDPI:
		instr, err := resolveDPI(stmt)
		return instr, true, err
	case KindLSI:
		instr, err := resolveLSI(stmt)
		return instr, true, err
	case KindBRI:
		instr, err := resolveBRI(stmt)
		return instr, true, err
	case KindSCI:
		instr, err := resolveSCI(stmt)
		return instr, true, err
	default:
		return nil, false, nil
	}
}

func instructionCondition(instrTok Token) condition.Condition {
	stem, _, suffix := splitMnemonic(instrTok.Lexeme)
	return condition.Parse(stem, suffix)
}

func resolveDPI(stmt Statement) (isa.Instruction, error) {
	stem, _, _ := splitMnemonic(stmt.Instruction.Lexeme)
	opcode, ok := isa.ParseDPIOpcode(stem)
	if !ok {
		return nil, esiuxerr.FromStrError("dpi opcode", stem)
	}
	cond := instructionCondition(stmt.Instruction)

	rd, err := register.Parse(stmt.Op1.Lexeme)
	if err != nil {
		return nil, err
	}

	var rn register.Register
	var operandTok Token
	if opcode.HasSourceRegister() {
		rn, err = register.Parse(stmt.Op2.Lexeme)
		if err != nil {
			return nil, err
		}
		operandTok = stmt.Op3
	} else {
		rn = register.R0
		operandTok = stmt.Op2
	}

	operand, err := resolveOperand(operandTok)
	if err != nil {
		return nil, err
	}

	return isa.DPI{Cond: cond, Opcode: opcode, Rd: rd, Rn: rn, Operand: operand}, nil
}

// resolveOperand distinguishes a register lexeme from a bounded-12-bit
// immediate lexeme: the assembler's grammar reserves register mnemonics
// (r0..r15, sp, lr, pc, rzr), so a successful register parse always wins.
func resolveOperand(tok Token) (isa.Operand, error) {
	if r, err := register.Parse(tok.Lexeme); err == nil {
		return isa.NewRegisterOperand(r), nil
	}
	l, err := literal.ParseL12(tok.Lexeme)
	if err != nil {
		return isa.Operand{}, err
	}
	return isa.NewImmediateOperand(l), nil
}

func resolveLSI(stmt Statement) (isa.Instruction, error) {
	stem, _, _ := splitMnemonic(stmt.Instruction.Lexeme)
	opcode, ok := isa.ParseLSIOpcode(stem)
	if !ok {
		return nil, esiuxerr.FromStrError("lsi opcode", stem)
	}
	cond := instructionCondition(stmt.Instruction)

	rd, err := register.Parse(stmt.Op1.Lexeme)
	if err != nil {
		return nil, err
	}
	rn, err := register.Parse(stmt.Op2.Lexeme)
	if err != nil {
		return nil, err
	}
	offset, err := literal.ParseL12(stmt.Op3.Lexeme)
	if err != nil {
		return nil, err
	}

	return isa.LSI{
		Cond:      cond,
		LoadStore: opcode,
		Index:     stmt.OBracket,
		Negative:  stmt.Negative,
		WriteBack: stmt.WriteBack,
		Rd:        rd,
		Rn:        rn,
		Offset:    offset,
	}, nil
}

func resolveBRI(stmt Statement) (isa.Instruction, error) {
	stem, _, _ := splitMnemonic(stmt.Instruction.Lexeme)
	opcode, ok := isa.ParseBRIOpcode(stem)
	if !ok {
		return nil, esiuxerr.FromStrError("bri opcode", stem)
	}
	cond := instructionCondition(stmt.Instruction)

	var offset literal.L20
	var err error
	if stmt.Label.PC != nil {
		offset, err = literal.NewL20Unsigned(*stmt.Label.PC)
	} else {
		offset, err = literal.ParseL20(stmt.Label.Lexeme)
	}
	if err != nil {
		return nil, err
	}

	return isa.BRI{Cond: cond, Opcode: opcode, Offset: offset}, nil
}

func resolveSCI(stmt Statement) (isa.Instruction, error) {
	opcode, ok := isa.ParseSCIOpcode("svc")
	if !ok {
		return nil, esiuxerr.New(esiuxerr.KindInvalid, "svc opcode table missing its only entry")
	}
	cond := condition.Parse("svc", "")

	l, err := literal.ParseL12(stmt.Vector.Lexeme)
	if err != nil {
		return nil, err
	}
	if l.Value() > 0xFF {
		return nil, esiuxerr.TryFrom("interrupt key", l.Value())
	}

	return isa.SCI{Cond: cond, Opcode: opcode, InterruptKey: uint8(l.Value())}, nil
}
