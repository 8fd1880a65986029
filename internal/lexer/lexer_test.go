package lexer

import (
	"testing"

	"github.com/plc-lang/plc/internal/token"
)

func TestLexTokens(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		kinds   []token.Kind
		literals []string
	}{
		{"ident", "abc", []token.Kind{token.Identifier}, []string{"abc"}},
		{"ident_with_dash_digit", "ab-1_c", []token.Kind{token.Identifier}, []string{"ab-1_c"}},
		{"keyword_as_identifier", "LET", []token.Kind{token.Identifier}, []string{"LET"}},
		{"integer", "123", []token.Kind{token.Integer}, []string{"123"}},
		{"negative_integer", "-123", []token.Kind{token.Integer}, []string{"-123"}},
		{"positive_integer", "+123", []token.Kind{token.Integer}, []string{"+123"}},
		{"decimal", "1.5", []token.Kind{token.Decimal}, []string{"1.5"}},
		{"dot_without_digit_not_decimal", "1.", []token.Kind{token.Integer, token.Operator}, []string{"1", "."}},
		{"character", `'a'`, []token.Kind{token.Character}, []string{`'a'`}},
		{"character_escape", `'\n'`, []token.Kind{token.Character}, []string{`'\n'`}},
		{"string", `"hi"`, []token.Kind{token.String}, []string{`"hi"`}},
		{"string_escape", `"a\tb"`, []token.Kind{token.String}, []string{`"a\tb"`}},
		{"string_empty", `""`, []token.Kind{token.String}, []string{`""`}},
		{"lt", "<", []token.Kind{token.Operator}, []string{"<"}},
		{"le", "<=", []token.Kind{token.Operator}, []string{"<="}},
		{"eq", "==", []token.Kind{token.Operator}, []string{"=="}},
		{"assign", "=", []token.Kind{token.Operator}, []string{"="}},
		{"neq", "!=", []token.Kind{token.Operator}, []string{"!="}},
		{"single_char_op", "+", []token.Kind{token.Operator}, []string{"+"}},
		{"paren", "()", []token.Kind{token.Operator, token.Operator}, []string{"(", ")"}},
		{"whitespace_skipped", "  a   b  ", []token.Kind{token.Identifier, token.Identifier}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.src)
			if err != nil {
				t.Fatalf("Lex(%q): unexpected error: %v", tt.src, err)
			}
			if len(toks) != len(tt.kinds) {
				t.Fatalf("Lex(%q): got %d tokens, want %d (%v)", tt.src, len(toks), len(tt.kinds), toks)
			}
			for i, tok := range toks {
				if tok.Kind != tt.kinds[i] {
					t.Errorf("token %d: kind = %v, want %v", i, tok.Kind, tt.kinds[i])
				}
				if tok.Literal != tt.literals[i] {
					t.Errorf("token %d: literal = %q, want %q", i, tok.Literal, tt.literals[i])
				}
			}
		})
	}
}

func TestLexTokenIndices(t *testing.T) {
	toks, err := Lex("ab cd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2", len(toks))
	}
	if toks[0].Index != 0 {
		t.Errorf("first token index = %d, want 0", toks[0].Index)
	}
	if toks[1].Index != 3 {
		t.Errorf("second token index = %d, want 3", toks[1].Index)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated_string", `"abc`},
		{"unterminated_char", `'a`},
		{"empty_char", `''`},
		{"invalid_escape", `"\x"`},
		{"newline_in_string", "\"abc\ndef\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Lex(tt.src); err == nil {
				t.Fatalf("Lex(%q): expected error, got none", tt.src)
			}
		})
	}
}

func TestLexMonotonicIndices(t *testing.T) {
	toks, err := Lex(`LET x = 1 + 2; DEF main() DO RETURN 0; END`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Index < toks[i-1].Index {
			t.Fatalf("token indices not monotonically non-decreasing at %d: %d < %d", i, toks[i].Index, toks[i-1].Index)
		}
	}
}
