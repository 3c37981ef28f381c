// Package asm implements ESIUX's scanner, preprocessor, and emitter — the
// two-pass assembler pipeline of spec.md §2: source text is tokenized into
// typed statements (Scanner), labels and macros are resolved into a flat
// statement stream (Preprocessor), and the resolved stream is lowered
// through the isa codec into bytes (Emitter). Grounded throughout on the
// teacher's parser/lexer.go cursor-based tokenizer and parser/preprocessor.go
// pass structure, generalized from full ARM syntax down to ESIUX's DPI/
// LSI/BRI/SCI grammar.
package asm

// Token is a source-position-tagged lexeme. PC is populated only on label
// and instruction tokens, for later fixup by the preprocessor (spec.md §3).
type Token struct {
	Lexeme string
	Offset int
	Line   int
	PC     *uint32
}

func (t Token) String() string { return t.Lexeme }

// withPC returns a copy of t carrying a snapshot of pc.
func withPC(t Token, pc uint32) Token {
	v := pc
	t.PC = &v
	return t
}
