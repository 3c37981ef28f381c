package asm

import (
	"strings"

	"github.com/esiux/esiux/binfmt"
	"github.com/esiux/esiux/esiuxerr"
)

// macroKind discriminates the two value shapes a registered Macro can
// hold: a tagged sum type rather than a dynamic-dispatch union.
type macroKind int

const (
	macroBuiltin macroKind = iota
	macroSubstitution
)

// Macro is one entry in the preprocessor's macro table: either a built-in
// directive handler or a user-defined substitution body.
type Macro struct {
	Kind     macroKind
	Builtin  func(*Preprocessor, Statement) ([]Statement, error)
	Params   []string
	Body     []Statement
	PCDelta  uint32
}

// Preprocessor resolves labels and macros and tracks the program counter,
// emitting a flat statement stream (spec.md §4.H). It owns all its maps
// and statement streams exclusively; Scanners only ever produce
// statements for it to consume.
type Preprocessor struct {
	Labels    map[string]uint32
	Variables map[string]string
	Macros    map[string]Macro
	Entry     string

	pc      uint32
	section binfmt.SectionKind
}

// NewPreprocessor constructs a Preprocessor with the fixed set of
// built-in directives registered (spec.md §4.H).
func NewPreprocessor() *Preprocessor {
	p := &Preprocessor{
		Labels:    make(map[string]uint32),
		Variables: make(map[string]string),
		Macros:    make(map[string]Macro),
		section:   binfmt.Text,
	}
	p.Macros["global"] = Macro{Kind: macroBuiltin, Builtin: (*Preprocessor).handleGlobal}
	p.Macros["section"] = Macro{Kind: macroBuiltin, Builtin: (*Preprocessor).handleSection}
	return p
}

// Process runs the main pass over stmts, then a second sweep resolving
// BRI label references, per spec.md §4.H.
func (p *Preprocessor) Process(stmts []Statement) ([]Statement, error) {
	var out []Statement

	for _, stmt := range stmts {
		switch stmt.Kind {
		case KindDPI, KindLSI, KindBRI, KindSCI:
			stmt.PC = p.pc
			stmt.Instruction = withPC(stmt.Instruction, p.pc)
			stmt.Section = p.section
			p.pc += 4
			out = append(out, stmt)

		case KindLabel:
			p.Labels[stmt.Name.Lexeme] = p.pc
			stmt.Name = withPC(stmt.Name, p.pc)
			out = append(out, stmt)

		case KindComment:
			out = append(out, stmt)

		case KindDirective:
			if stmt.Marker == "macro" {
				if err := p.defineMacro(stmt); err != nil {
					return nil, err
				}
				out = append(out, stmt)
				continue
			}
			name := strings.ToLower(stmt.Name.Lexeme)
			macro, ok := p.Macros[name]
			if !ok || macro.Kind != macroBuiltin {
				return nil, esiuxerr.UnknownDirective(stmt.Name.Lexeme, stmt.Name.Line)
			}
			expanded, err := macro.Builtin(p, stmt)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)

		case KindSubstitution:
			expanded, err := p.expandSubstitution(stmt)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)

		case KindEOF:
			out = append(out, stmt)
		}
	}

	if err := p.resolveLabels(out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveLabels rewrites every BRI statement whose label is symbolic to
// carry its resolved byte offset, per spec.md §3's invariant.
func (p *Preprocessor) resolveLabels(stmts []Statement) error {
	for i := range stmts {
		if stmts[i].Kind != KindBRI {
			continue
		}
		lexeme := stmts[i].Label.Lexeme
		if isNumericLiteral(lexeme) {
			continue
		}
		pc, ok := p.Labels[lexeme]
		if !ok {
			return esiuxerr.FromStrError("label "+lexeme, lexeme)
		}
		stmts[i].Label = withPC(stmts[i].Label, pc)
	}
	return nil
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if ch >= '0' && ch <= '9' {
			continue
		}
		if i == 0 && ch == '-' {
			continue
		}
		return false
	}
	return true
}

// handleGlobal implements the built-in `.global name` directive: it
// records the eventual header's entry symbol and passes through
// unchanged, per spec.md §4.H.
func (p *Preprocessor) handleGlobal(stmt Statement) ([]Statement, error) {
	if len(stmt.Params) == 0 {
		return nil, esiuxerr.NotEnoughParts("global", 1)
	}
	p.Entry = stmt.Params[0].Lexeme
	return []Statement{stmt}, nil
}

// handleSection implements `.section name`, switching the current
// emission target among Data/Text/Rodata/Bss/Comment (SPEC_FULL.md 4.N).
func (p *Preprocessor) handleSection(stmt Statement) ([]Statement, error) {
	if len(stmt.Params) == 0 {
		return nil, esiuxerr.NotEnoughParts("section", 1)
	}
	kind, ok := sectionFromName(stmt.Params[0].Lexeme)
	if !ok {
		return nil, esiuxerr.At(esiuxerr.KindInvalid, "unknown section "+stmt.Params[0].Lexeme, stmt.Name.Line, stmt.Name.Offset)
	}
	p.section = kind
	return []Statement{stmt}, nil
}

func sectionFromName(name string) (binfmt.SectionKind, bool) {
	switch strings.ToLower(name) {
	case "data":
		return binfmt.Data, true
	case "text":
		return binfmt.Text, true
	case "rodata":
		return binfmt.Rodata, true
	case "bss":
		return binfmt.Bss, true
	case "comment":
		return binfmt.Comment, true
	default:
		return 0, false
	}
}

// defineMacro registers a `.macro name params… body .endm` directive as a
// Substitution macro, per spec.md §4.H.
func (p *Preprocessor) defineMacro(stmt Statement) error {
	if len(stmt.Params) == 0 {
		return esiuxerr.New(esiuxerr.KindDefineMacro, "macro directive requires a name")
	}
	name := stmt.Params[0].Lexeme
	formal := make([]string, 0, len(stmt.Params)-1)
	for _, t := range stmt.Params[1:] {
		formal = append(formal, t.Lexeme)
	}
	p.Macros[name] = Macro{
		Kind:    macroSubstitution,
		Params:  formal,
		Body:    stmt.Body,
		PCDelta: stmt.PC,
	}
	return nil
}

// expandSubstitution replaces every operand in the macro body whose
// lexeme matches a declared parameter with the caller's corresponding
// argument, then re-emits the body with PCs assigned against the outer
// program counter, per spec.md §4.H.
func (p *Preprocessor) expandSubstitution(stmt Statement) ([]Statement, error) {
	macro, ok := p.Macros[stmt.Name.Lexeme]
	if !ok {
		return nil, esiuxerr.UnknownSubstitution(stmt.Name.Lexeme, stmt.Name.Line)
	}
	if macro.Kind != macroSubstitution {
		return nil, esiuxerr.UnknownSubstitution(stmt.Name.Lexeme, stmt.Name.Line)
	}
	if len(stmt.Values) != len(macro.Params) {
		return nil, esiuxerr.InvalidMacroMatch(stmt.Name.Lexeme)
	}

	args := make(map[string]Token, len(macro.Params))
	for i, name := range macro.Params {
		args[name] = stmt.Values[i]
	}

	out := make([]Statement, 0, len(macro.Body))
	for _, bodyStmt := range macro.Body {
		expanded := substituteParams(bodyStmt, args)
		switch expanded.Kind {
		case KindDPI, KindLSI, KindBRI, KindSCI:
			expanded.PC = p.pc
			expanded.Instruction = withPC(expanded.Instruction, p.pc)
			expanded.Section = p.section
			p.pc += 4
		case KindLabel:
			p.Labels[expanded.Name.Lexeme] = p.pc
			expanded.Name = withPC(expanded.Name, p.pc)
		}
		out = append(out, expanded)
	}
	return out, nil
}

// substituteParams replaces any token whose lexeme starts with '\' and
// names a declared macro parameter with the caller's argument token.
func substituteParams(stmt Statement, args map[string]Token) Statement {
	repl := func(t Token) Token {
		if strings.HasPrefix(t.Lexeme, "\\") {
			if a, ok := args[t.Lexeme[1:]]; ok {
				return Token{Lexeme: a.Lexeme, Offset: t.Offset, Line: t.Line}
			}
		}
		return t
	}
	switch stmt.Kind {
	case KindDPI:
		stmt.Op1 = repl(stmt.Op1)
		stmt.Op2 = repl(stmt.Op2)
		if stmt.HasOp3 {
			stmt.Op3 = repl(stmt.Op3)
		}
	case KindLSI:
		stmt.Op1 = repl(stmt.Op1)
		stmt.Op2 = repl(stmt.Op2)
		if stmt.HasOp3 {
			stmt.Op3 = repl(stmt.Op3)
		}
	case KindBRI:
		stmt.Label = repl(stmt.Label)
	case KindSCI:
		stmt.Vector = repl(stmt.Vector)
	}
	return stmt
}
