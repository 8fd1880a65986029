package interp

import (
	"strings"
	"testing"

	"github.com/plc-lang/plc/internal/analyzer"
	"github.com/plc-lang/plc/internal/lexer"
	"github.com/plc-lang/plc/internal/parser"
)

// recorder is a Printer that captures every printed line instead of
// writing to a real stream, so tests can assert on stdout without I/O.
type recorder struct {
	lines []string
}

func (r *recorder) Println(s string) { r.lines = append(r.lines, s) }

func run(t *testing.T, src string) (int, *recorder, error) {
	t.Helper()
	toks, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): unexpected error: %v", src, err)
	}
	source, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", src, err)
	}
	if err := analyzer.Analyze(source); err != nil {
		t.Fatalf("Analyze(%q): unexpected error: %v", src, err)
	}
	rec := &recorder{}
	interp, err := New(source, rec)
	if err != nil {
		return 0, rec, err
	}
	code, err := interp.Run()
	return code, rec, err
}

// spec.md §8 scenario 1.
func TestScenarioReturnZero(t *testing.T) {
	code, _, err := run(t, "DEF main() DO RETURN 0; END")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Fatalf("got exit code %d, want 0", code)
	}
}

// spec.md §8 scenario 2.
func TestScenarioFieldMutationAndPrint(t *testing.T) {
	_, rec, err := run(t, `
		LET x = 1;
		DEF main() DO
			x = x + 2;
			print(x);
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.lines) != 1 || rec.lines[0] != "3" {
		t.Fatalf("got printed lines %v, want [\"3\"]", rec.lines)
	}
}

// spec.md §8 scenario 3.
func TestScenarioIfElse(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			IF TRUE DO
				print("t");
			ELSE
				print("f");
			END
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.lines) != 1 || rec.lines[0] != "t" {
		t.Fatalf("got printed lines %v, want [\"t\"]", rec.lines)
	}
}

// spec.md §8 scenario 4.
func TestScenarioForLoopOverRange(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			LET s = "";
			FOR i IN range(0, 3) DO
				s = s + ".";
			END
			print(s);
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.lines) != 1 || rec.lines[0] != "..." {
		t.Fatalf("got printed lines %v, want [\"...\"]", rec.lines)
	}
}

// spec.md §8 scenario 5.
func TestScenarioDivideByZero(t *testing.T) {
	_, _, err := run(t, `DEF main() DO print(1 / 0); RETURN 0; END`)
	if err == nil {
		t.Fatalf("expected a runtime divide-by-zero error")
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestDecimalDivisionExactQuotient(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			print(1.0 / 4.0);
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.lines) != 1 || rec.lines[0] != "0.25" {
		t.Fatalf("got %v, want [\"0.25\"]", rec.lines)
	}
}

func TestMethodParametersBindPositionally(t *testing.T) {
	// Regression for the open question in spec.md §9: parameters must pair
	// with arguments positionally, not every-argument-to-every-parameter.
	_, rec, err := run(t, `
		DEF sub(a: Integer, b: Integer): Integer DO
			RETURN a - b;
		END
		DEF main() DO
			print(sub(10, 3));
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.lines) != 1 || rec.lines[0] != "7" {
		t.Fatalf("got %v, want [\"7\"]", rec.lines)
	}
}

func TestWhileLoop(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			LET i = 0;
			WHILE i < 3 DO
				print(i);
				i = i + 1;
			END
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"0", "1", "2"}
	if len(rec.lines) != len(want) {
		t.Fatalf("got %v, want %v", rec.lines, want)
	}
	for i := range want {
		if rec.lines[i] != want[i] {
			t.Fatalf("got %v, want %v", rec.lines, want)
		}
	}
}

func TestReturnUnwindsFromNestedBlocks(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			WHILE TRUE DO
				IF TRUE DO
					RETURN 5;
				END
			END
			print("unreachable");
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.lines) != 0 {
		t.Fatalf("expected RETURN to unwind past the print, got %v", rec.lines)
	}
}

func TestEqualityStructural(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			print(1 == 1);
			print("ab" == "ab");
			print(1.5 == 1.5);
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"true", "true", "true"}
	for i := range want {
		if rec.lines[i] != want[i] {
			t.Fatalf("got %v, want %v", rec.lines, want)
		}
	}
}

func TestSizeBuiltin(t *testing.T) {
	_, rec, err := run(t, `
		DEF main() DO
			print(size("hello"));
			print(size(range(0, 5)));
			RETURN 0;
		END
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"5", "5"}
	for i := range want {
		if rec.lines[i] != want[i] {
			t.Fatalf("got %v, want %v", rec.lines, want)
		}
	}
}
