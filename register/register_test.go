package register

import "testing"

func TestParseAliases(t *testing.T) {
	cases := map[string]Register{
		"r0":  R0,
		"R0":  R0,
		"rzr": R0,
		"sp":  SP,
		"SP":  SP,
		"r13": SP,
		"lr":  LR,
		"pc":  PC,
		"R15": PC,
	}
	for lexeme, want := range cases {
		got, err := Parse(lexeme)
		if err != nil {
			t.Fatalf("Parse(%q): %v", lexeme, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %v, want %v", lexeme, got, want)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("r99"); err == nil {
		t.Fatal("expected error for unknown register lexeme")
	}
}

func TestTryFromU8(t *testing.T) {
	for v := uint8(0); v <= 15; v++ {
		r, err := TryFromU8(v)
		if err != nil {
			t.Fatalf("TryFromU8(%d): %v", v, err)
		}
		if uint8(r) != v {
			t.Errorf("TryFromU8(%d) = %v", v, r)
		}
	}
}

func TestTryFromU8OutOfRange(t *testing.T) {
	if _, err := TryFromU8(17); err == nil {
		t.Fatal("expected TryFrom error for register 17")
	}
}

func TestStringRoundTrip(t *testing.T) {
	for r := R0; r <= R15; r++ {
		lexeme := r.String()
		got, err := Parse(lexeme)
		if err != nil {
			t.Fatalf("Parse(%q): %v", lexeme, err)
		}
		if got != r {
			t.Errorf("round trip %v -> %q -> %v", r, lexeme, got)
		}
	}
}
