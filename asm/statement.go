package asm

import "github.com/esiux/esiux/binfmt"

// Kind discriminates Statement's variants, mirroring the scanner output
// grammar of spec.md §3.
type Kind int

const (
	KindDPI Kind = iota
	KindLSI
	KindBRI
	KindSCI
	KindDirective
	KindSubstitution
	KindLabel
	KindComment
	KindEOF
)

func (k Kind) String() string {
	switch k {
	case KindDPI:
		return "DPI"
	case KindLSI:
		return "LSI"
	case KindBRI:
		return "BRI"
	case KindSCI:
		return "SCI"
	case KindDirective:
		return "Directive"
	case KindSubstitution:
		return "Substitution"
	case KindLabel:
		return "Label"
	case KindComment:
		return "Comment"
	case KindEOF:
		return "Eof"
	default:
		return "Unknown"
	}
}

// Statement is the scanner's unified output node (spec.md §3). Only the
// fields relevant to Kind are populated.
type Statement struct {
	Kind Kind

	// DPI{instruction, op1, op2, op3?}: Op1 is always rd. For opcodes with
	// a source register (everything but Mov/Cmp), Op2 is rn and Op3 is the
	// operand; otherwise Op2 is the operand and Op3 is unused.
	Instruction Token
	Op1         Token
	Op2         Token
	Op3         Token
	HasOp3      bool

	// LSI{instruction, op1, obracket, op2, cbracket, op3}: Op1 is rd, Op2
	// is rn, Op3 is the offset immediate. OBracket records whether the
	// offset appeared inside the brackets (pre-indexed) or after them
	// (post-indexed); CBracket records the closing bracket and is set on
	// both forms. WriteBack records a trailing '!' and is always set on
	// the post-indexed form.
	OBracket  bool
	CBracket  bool
	WriteBack bool
	Negative  bool

	// BRI{instruction, label}
	Label Token

	// SCI{instruction, vector}
	Vector Token

	// Directive{name, params, body, marker?, pc}
	Name   Token
	Params []Token
	Body   []Statement
	Marker string

	// Substitution{name, values}
	Values []Token

	// Label{name} reuses Name above.
	// Comment{name} reuses Name above for the comment text.

	PC uint32

	// Section is the segment the preprocessor's ".section" directive
	// routes this statement into (SPEC_FULL.md 4.N); populated only on
	// instruction statements.
	Section binfmt.SectionKind
}
