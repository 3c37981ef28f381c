// Package register enumerates ESIUX's 16-entry register file and its
// textual aliases, grounded on the teacher's register-code table pattern
// (vm/cpu.go's R0..R12/SP/LR constants) but expressed as a closed enum with
// a mnemonic table instead of bare integer constants, since ESIUX's
// register set is parsed from assembly text and must round-trip through
// Display.
package register

import (
	"strings"

	"github.com/esiux/esiux/esiuxerr"
)

// Register names one of the 16 general-purpose registers R0..R15.
type Register uint8

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13 // SP
	R14 // LR
	R15 // PC
)

const (
	SP = R13
	LR = R14
	PC = R15
)

// entry describes one register's canonical lexeme and recognized aliases.
type entry struct {
	canonical string
	aliases   []string
}

var table = map[Register]entry{
	R0:  {"r0", []string{"R0", "RZR", "rzr"}},
	R1:  {"r1", []string{"R1"}},
	R2:  {"r2", []string{"R2"}},
	R3:  {"r3", []string{"R3"}},
	R4:  {"r4", []string{"R4"}},
	R5:  {"r5", []string{"R5"}},
	R6:  {"r6", []string{"R6"}},
	R7:  {"r7", []string{"R7"}},
	R8:  {"r8", []string{"R8"}},
	R9:  {"r9", []string{"R9"}},
	R10: {"r10", []string{"R10"}},
	R11: {"r11", []string{"R11"}},
	R12: {"r12", []string{"R12"}},
	R13: {"sp", []string{"R13", "SP"}},
	R14: {"lr", []string{"R14", "LR"}},
	R15: {"pc", []string{"R15", "PC"}},
}

var byLexeme map[string]Register

func init() {
	byLexeme = make(map[string]Register, 16*3)
	for r, e := range table {
		byLexeme[e.canonical] = r
		byLexeme[strings.ToLower(e.canonical)] = r
		for _, a := range e.aliases {
			byLexeme[strings.ToLower(a)] = r
		}
	}
}

// String returns the canonical lower-case lexeme.
func (r Register) String() string {
	if e, ok := table[r]; ok {
		return e.canonical
	}
	return "r?"
}

// Parse resolves a register lexeme case-insensitively against the
// declared alias set.
func Parse(s string) (Register, error) {
	r, ok := byLexeme[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, esiuxerr.FromStrError("register", s)
	}
	return r, nil
}

// TryFromU8 rejects nibbles that do not name one of R0..R15.
func TryFromU8(v uint8) (Register, error) {
	if v > 15 {
		return 0, esiuxerr.TryFrom("register", v)
	}
	return Register(v), nil
}
