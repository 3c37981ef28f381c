package asm

import (
	"strings"

	"github.com/esiux/esiux/condition"
	"github.com/esiux/esiux/esiuxerr"
	"github.com/esiux/esiux/isa"
)

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isLineSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') || ch == '.' || ch == '_'
}

// Scanner is a stateful cursor over assembly source, grounded on the
// teacher's Lexer (parser/lexer.go) but producing typed Statements
// directly (spec.md §4.G) rather than a flat token stream, since ESIUX's
// grammar is narrow enough that tokenizing and instruction-shape parsing
// are a single pass.
type Scanner struct {
	src  string
	pos  int
	line int
	pc   uint32

	// macroDelta caches each macro's body byte length so later
	// substitutions can advance the outer PC without re-scanning the body.
	macroDelta map[string]uint32

	// inMacroBody marks a scanner created for a macro's nested body. It
	// does not gate parameter references: readOperandToken accepts a
	// leading '\' whether or not it is set.
	inMacroBody bool
}

// NewScanner creates a scanner over src starting at PC 0.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, line: 1, macroDelta: make(map[string]uint32)}
}

// ScanAll consumes the entire source, returning one Statement per
// construct, terminated by a KindEOF statement.
func (s *Scanner) ScanAll() ([]Statement, error) {
	var out []Statement
	for {
		stmt, err := s.parseOne()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
		if stmt.Kind == KindEOF {
			return out, nil
		}
	}
}

func (s *Scanner) atEOF() bool { return s.pos >= len(s.src) }

func (s *Scanner) peek() byte {
	if s.atEOF() {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peekAt(off int) byte {
	i := s.pos + off
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *Scanner) advance() byte {
	ch := s.src[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
	}
	return ch
}

// skipSpacesAndNewlines skips all whitespace, used between statements.
func (s *Scanner) skipSpacesAndNewlines() {
	for !s.atEOF() && isWhitespace(s.peek()) {
		s.advance()
	}
}

// skipLineSpaces skips only spaces/tabs, used within a single statement
// so newlines terminate operand lists.
func (s *Scanner) skipLineSpaces() {
	for !s.atEOF() && isLineSpace(s.peek()) {
		s.advance()
	}
}

func (s *Scanner) atEOL() bool {
	return s.atEOF() || s.peek() == '\n' || s.peek() == '\r' || s.peek() == ';'
}

func (s *Scanner) readWord() string {
	start := s.pos
	for !s.atEOF() && isWordChar(s.peek()) {
		s.advance()
	}
	return s.src[start:s.pos]
}

func (s *Scanner) makeToken(lexeme string, offset, line int) Token {
	return Token{Lexeme: lexeme, Offset: offset, Line: line}
}

// parseOne dispatches on the first non-whitespace byte, per spec.md §4.G's
// top-level parse() grammar.
func (s *Scanner) parseOne() (Statement, error) {
	s.skipSpacesAndNewlines()
	if s.atEOF() {
		return Statement{Kind: KindEOF, PC: s.pc}, nil
	}

	switch {
	case s.peek() == ';':
		return s.parseComment(), nil
	case s.peek() == '.':
		return s.parseDirective()
	case isWordChar(s.peek()):
		return s.parseWordStatement()
	default:
		ch := s.advance()
		return Statement{}, esiuxerr.UnknownSymbol(ch, s.line, s.pos)
	}
}

func (s *Scanner) parseComment() Statement {
	offset, line := s.pos, s.line
	start := s.pos
	for !s.atEOF() && s.peek() != '\n' {
		s.advance()
	}
	text := s.src[start:s.pos]
	return Statement{Kind: KindComment, Name: s.makeToken(text, offset, line), PC: s.pc}
}

// parseWordStatement reads a word and classifies it as an instruction,
// label, or substitution per spec.md §4.G.
func (s *Scanner) parseWordStatement() (Statement, error) {
	offset, line := s.pos, s.line
	word := s.readWord()
	stem, setFlags, suffix := splitMnemonic(word)

	if _, ok := isa.MnemonicClass(stem); ok {
		return s.parseInstruction(word, stem, setFlags, suffix, offset, line)
	}

	if strings.HasPrefix(word, "_") || s.nextNonSpaceIsColon() {
		return s.parseLabel(word, offset, line)
	}

	return s.parseSubstitution(word, offset, line)
}

func (s *Scanner) nextNonSpaceIsColon() bool {
	i := 0
	for {
		ch := s.peekAt(i)
		if ch == ' ' || ch == '\t' {
			i++
			continue
		}
		return ch == ':'
	}
}

// splitMnemonic separates a scanned word into its mnemonic stem, an
// optional DPI flags-update marker ('s', e.g. "adds"), and a trailing
// condition suffix, written either dot-separated (add.eq, adds.eq) or
// bare (addeq, addseq), per SPEC_FULL.md 4.P's grounding of spec.md §9's
// condition-suffix design note. mnemonicBases is tried longest-match-free
// since no base is a prefix of another. A word whose remainder after the
// base (and any 's') is neither empty nor a condition mnemonic is not an
// instruction: it comes back whole, e.g. "bump" -> ("bump", false, "").
func splitMnemonic(word string) (stem string, setFlags bool, suffix string) {
	lower := strings.ToLower(word)
	for _, base := range mnemonicBases {
		if !strings.HasPrefix(lower, base) {
			continue
		}
		rest := word[len(base):]
		restLower := lower[len(base):]
		if strings.HasPrefix(restLower, "s") {
			if class, ok := isa.MnemonicClass(base); ok && class == isa.ClassDPI {
				setFlags = true
				rest = rest[1:]
				restLower = restLower[1:]
			}
		}
		rest = strings.TrimPrefix(rest, ".")
		if rest != "" && condition.Parse("", rest).String() != strings.ToLower(rest) {
			continue
		}
		_ = restLower
		return base, setFlags, rest
	}
	return word, false, ""
}

// mnemonicBases lists every canonical mnemonic recognized before any
// flags/condition suffix; none is a prefix of another, so a simple
// first-match scan is unambiguous.
var mnemonicBases = []string{
	"add", "sub", "mul", "div", "mov", "and", "orr", "lsl", "lsr", "cmp",
	"ldr", "str", "svc", "b",
}

func (s *Scanner) parseLabel(word string, offset, line int) (Statement, error) {
	s.skipLineSpaces()
	if s.atEOF() || s.peek() != ':' {
		return Statement{}, esiuxerr.At(esiuxerr.KindUnknownToken, "expected ':' after label "+word, line, s.pos)
	}
	s.advance() // consume ':'
	tok := withPC(s.makeToken(word, offset, line), s.pc)
	return Statement{Kind: KindLabel, Name: tok, PC: s.pc}, nil
}

func (s *Scanner) parseSubstitution(word string, offset, line int) (Statement, error) {
	name := s.makeToken(word, offset, line)
	var values []Token
	s.skipLineSpaces()
	for !s.atEOL() {
		tok, err := s.readOperandToken()
		if err != nil {
			return Statement{}, err
		}
		values = append(values, tok)
		s.skipLineSpaces()
		if !s.atEOF() && s.peek() == ',' {
			s.advance()
			s.skipLineSpaces()
		}
	}
	if delta, ok := s.macroDelta[word]; ok {
		s.pc += delta
	}
	return Statement{Kind: KindSubstitution, Name: name, Values: values}, nil
}

// readOperandToken reads one operand lexeme: a register/label word, a
// '#'-prefixed immediate, or a '\'-prefixed macro parameter reference
// (accepted in any context, not only inside a macro body).
func (s *Scanner) readOperandToken() (Token, error) {
	offset, line := s.pos, s.line
	switch {
	case s.peek() == '#':
		s.advance()
		start := s.pos
		if !s.atEOF() && s.peek() == '-' {
			s.advance()
		}
		for !s.atEOF() && isWordChar(s.peek()) {
			s.advance()
		}
		return s.makeToken(s.src[start:s.pos], offset, line), nil
	case s.peek() == '\\':
		s.advance()
		start := s.pos
		for !s.atEOF() && isWordChar(s.peek()) {
			s.advance()
		}
		return s.makeToken("\\"+s.src[start:s.pos], offset, line), nil
	case isWordChar(s.peek()):
		return s.makeToken(s.readWord(), offset, line), nil
	default:
		ch := s.advance()
		return Token{}, esiuxerr.UnknownSymbol(ch, line, s.pos)
	}
}

// parseInstruction resolves mnemonic to an isa Class and drives the
// matching operand grammar, per spec.md §4.G. setFlags is already spent:
// splitMnemonic needed it to separate an 's' marker from a trailing
// condition suffix (e.g. "addseq"), but the DPI word layout has no bit to
// carry it, so the VM always updates flags per SPEC_FULL.md 4.P and
// nothing downstream of this call reads it.
func (s *Scanner) parseInstruction(word, stem string, setFlags bool, suffix string, offset, line int) (Statement, error) {
	class, _ := isa.MnemonicClass(stem)
	instrTok := withPC(s.makeToken(word, offset, line), s.pc)
	_, _ = setFlags, suffix // condition resolution happens later, against the full word, in the emitter

	var stmt Statement
	var err error
	switch class {
	case isa.ClassDPI:
		stmt, err = s.parseDPIOperands(stem, instrTok)
	case isa.ClassLSI:
		stmt, err = s.parseLSIOperands(instrTok)
	case isa.ClassBRI:
		stmt, err = s.parseBRIOperands(instrTok)
	case isa.ClassSCI:
		stmt, err = s.parseSCIOperands(instrTok)
	}
	if err != nil {
		return Statement{}, err
	}
	s.pc += 4
	return stmt, nil
}

func (s *Scanner) expectComma(mnemonic string, min int) error {
	s.skipLineSpaces()
	if s.atEOF() || s.peek() != ',' {
		return esiuxerr.NotEnoughParts(mnemonic, min)
	}
	s.advance()
	s.skipLineSpaces()
	return nil
}

func (s *Scanner) parseDPIOperands(stem string, instrTok Token) (Statement, error) {
	op, _ := isa.ParseDPIOpcode(stem)

	s.skipLineSpaces()
	rd, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}

	if !op.HasSourceRegister() {
		if err := s.expectComma(stem, 2); err != nil {
			return Statement{}, err
		}
		operand, err := s.readOperandToken()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: KindDPI, Instruction: instrTok, Op1: rd, Op2: operand}, nil
	}

	if err := s.expectComma(stem, 3); err != nil {
		return Statement{}, err
	}
	rn, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}
	if err := s.expectComma(stem, 3); err != nil {
		return Statement{}, err
	}
	operand, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindDPI, Instruction: instrTok, Op1: rd, Op2: rn, Op3: operand, HasOp3: true}, nil
}

// parseLSIOperands parses `rd, [rn, #off]`, `rd, [rn, #off]!`, or
// `rd, [rn], #off`.
func (s *Scanner) parseLSIOperands(instrTok Token) (Statement, error) {
	s.skipLineSpaces()
	rd, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}
	if err := s.expectComma("ldr/str", 2); err != nil {
		return Statement{}, err
	}
	s.skipLineSpaces()
	if s.atEOF() || s.peek() != '[' {
		return Statement{}, esiuxerr.At(esiuxerr.KindUnknownToken, "expected '[' in load/store operand", s.line, s.pos)
	}
	s.advance() // consume '['

	s.skipLineSpaces()
	rn, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}

	stmt := Statement{Kind: KindLSI, Instruction: instrTok, Op1: rd, Op2: rn}

	s.skipLineSpaces()
	if !s.atEOF() && s.peek() == ',' {
		// Pre-indexed form: rd, [rn, #off] (optionally "]!").
		s.advance()
		s.skipLineSpaces()
		neg := false
		if !s.atEOF() && s.peek() == '-' {
			neg = true
			s.advance()
		}
		off, err := s.readOperandToken()
		if err != nil {
			return Statement{}, err
		}
		if strings.HasPrefix(off.Lexeme, "-") { // "#-4" form
			neg = true
			off.Lexeme = off.Lexeme[1:]
		}
		stmt.Op3 = off
		stmt.HasOp3 = true
		stmt.OBracket = true
		stmt.Negative = neg
		s.skipLineSpaces()
		if s.atEOF() || s.peek() != ']' {
			return Statement{}, esiuxerr.At(esiuxerr.KindUnknownToken, "expected ']'", s.line, s.pos)
		}
		s.advance()
		stmt.CBracket = true
		if !s.atEOF() && s.peek() == '!' {
			s.advance()
			stmt.WriteBack = true
		}
		return stmt, nil
	}

	// Post-indexed form: rd, [rn], #off.
	if s.atEOF() || s.peek() != ']' {
		return Statement{}, esiuxerr.At(esiuxerr.KindUnknownToken, "expected ']'", s.line, s.pos)
	}
	s.advance()
	stmt.CBracket = true
	if err := s.expectComma("ldr/str", 3); err != nil {
		return Statement{}, err
	}
	neg := false
	if !s.atEOF() && s.peek() == '-' {
		neg = true
		s.advance()
	}
	off, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}
	if strings.HasPrefix(off.Lexeme, "-") { // "#-4" form
		neg = true
		off.Lexeme = off.Lexeme[1:]
	}
	stmt.Op3 = off
	stmt.HasOp3 = true
	stmt.Negative = neg
	stmt.WriteBack = true // post-indexed addressing always writes back
	return stmt, nil
}

func (s *Scanner) parseBRIOperands(instrTok Token) (Statement, error) {
	s.skipLineSpaces()
	label, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindBRI, Instruction: instrTok, Label: label}, nil
}

func (s *Scanner) parseSCIOperands(instrTok Token) (Statement, error) {
	s.skipLineSpaces()
	if s.atEOF() || s.peek() != '#' {
		return Statement{}, esiuxerr.NotEnoughParts("svc", 1)
	}
	vec, err := s.readOperandToken()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindSCI, Instruction: instrTok, Vector: vec}, nil
}

// parseDirective consumes ".name" and its parameters, recursing into a
// nested macro-body scan for `.macro`/`.endm` pairs, per spec.md §4.G.
func (s *Scanner) parseDirective() (Statement, error) {
	offset, line := s.pos, s.line
	s.advance() // consume '.'
	name := s.readWord()
	nameTok := s.makeToken(name, offset, line)

	if strings.EqualFold(name, "endm") {
		return Statement{Kind: KindDirective, Name: nameTok, Marker: "endm"}, nil
	}

	if strings.EqualFold(name, "macro") {
		return s.parseMacroDirective(nameTok)
	}

	var params []Token
	s.skipLineSpaces()
	for !s.atEOL() {
		tok, err := s.readOperandToken()
		if err != nil {
			return Statement{}, err
		}
		params = append(params, tok)
		s.skipLineSpaces()
	}
	return Statement{Kind: KindDirective, Name: nameTok, Params: params}, nil
}

func (s *Scanner) parseMacroDirective(nameTok Token) (Statement, error) {
	var params []Token
	s.skipLineSpaces()
	for !s.atEOL() {
		tok, err := s.readOperandToken()
		if err != nil {
			return Statement{}, err
		}
		params = append(params, tok)
		s.skipLineSpaces()
	}
	if params == nil {
		return Statement{}, esiuxerr.New(esiuxerr.KindDefineMacro, "macro directive requires a name")
	}
	macroName := params[0].Lexeme
	formalParams := params[1:]

	// Scan the body with its own zero-based PC counter so definition-time
	// scanning never perturbs the outer program counter; the outer PC
	// advances by the body's delta only where the macro is invoked.
	body := &Scanner{src: s.src, pos: s.pos, line: s.line, macroDelta: s.macroDelta, inMacroBody: true}
	var bodyStmts []Statement
	for {
		stmt, err := body.parseOne()
		if err != nil {
			return Statement{}, err
		}
		if stmt.Kind == KindEOF {
			return Statement{}, esiuxerr.New(esiuxerr.KindDefineMacro, "unterminated .macro "+macroName)
		}
		if stmt.Kind == KindDirective && stmt.Marker == "endm" {
			break
		}
		bodyStmts = append(bodyStmts, stmt)
	}
	s.pos = body.pos
	s.line = body.line

	s.macroDelta[macroName] = body.pc
	return Statement{
		Kind:   KindDirective,
		Name:   nameTok,
		Params: append([]Token{params[0]}, formalParams...),
		Body:   bodyStmts,
		Marker: "macro",
		PC:     body.pc,
	}, nil
}

// MacroDelta returns the cached byte length of a previously-scanned
// macro's body, or false if name names no known macro.
func (s *Scanner) MacroDelta(name string) (uint32, bool) {
	v, ok := s.macroDelta[name]
	return v, ok
}
