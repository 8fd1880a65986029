package parser

import (
	"math/big"
	"testing"

	"github.com/plc-lang/plc/internal/ast"
	"github.com/plc-lang/plc/internal/lexer"
)

func mustParse(t *testing.T, src string) *ast.Source {
	t.Helper()
	toks, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): unexpected error: %v", src, err)
	}
	source, err := Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", src, err)
	}
	return source
}

func soleMethodExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	source := mustParse(t, src)
	if len(source.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(source.Methods))
	}
	body := source.Methods[0].Body
	if len(body) != 1 {
		t.Fatalf("got %d statements, want 1", len(body))
	}
	stmt, ok := body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ExprStmt", body[0])
	}
	return stmt.Expr
}

func wrapExpr(expr string) string {
	return "DEF main() DO " + expr + "; END"
}

func TestBinaryPrecedence(t *testing.T) {
	// '*' must bind tighter than '+': 1 + 2 * 3 parses as 1 + (2 * 3).
	expr := soleMethodExpr(t, wrapExpr("f(1 + 2 * 3)"))
	call, ok := expr.(*ast.Function)
	if !ok || len(call.Args) != 1 {
		t.Fatalf("expected a one-arg call, got %T", expr)
	}
	add, ok := call.Args[0].(*ast.Binary)
	if !ok || add.Op != ast.Add {
		t.Fatalf("expected top-level '+', got %#v", call.Args[0])
	}
	mul, ok := add.Right.(*ast.Binary)
	if !ok || mul.Op != ast.Mul {
		t.Fatalf("expected '*' nested on the right of '+', got %#v", add.Right)
	}
}

func TestBinaryLeftAssociative(t *testing.T) {
	// 1 - 2 - 3 parses as (1 - 2) - 3, not 1 - (2 - 3).
	expr := soleMethodExpr(t, wrapExpr("f(1 - 2 - 3)"))
	call := expr.(*ast.Function)
	top, ok := call.Args[0].(*ast.Binary)
	if !ok || top.Op != ast.Sub {
		t.Fatalf("expected top-level '-', got %#v", call.Args[0])
	}
	if _, ok := top.Left.(*ast.Binary); !ok {
		t.Fatalf("expected the left operand of the top '-' to itself be a Binary, got %#v", top.Left)
	}
	lit, ok := top.Right.(*ast.Literal)
	if !ok {
		t.Fatalf("expected the right operand of the top '-' to be a Literal, got %#v", top.Right)
	}
	if n, ok := lit.Value.(*big.Int); !ok || n.String() != "3" {
		t.Fatalf("expected the right operand of the top '-' to be literal 3, got %#v", lit.Value)
	}
}

func TestLogicalBelowEquality(t *testing.T) {
	// 1 < 2 AND 3 < 4 parses as (1 < 2) AND (3 < 4): AND sits above equality.
	expr := soleMethodExpr(t, wrapExpr("f(1 < 2 AND 3 < 4)"))
	call := expr.(*ast.Function)
	top, ok := call.Args[0].(*ast.Binary)
	if !ok || top.Op != ast.And {
		t.Fatalf("expected top-level AND, got %#v", call.Args[0])
	}
	left, ok := top.Left.(*ast.Binary)
	if !ok || left.Op != ast.Lt {
		t.Fatalf("expected left operand of AND to be '<', got %#v", top.Left)
	}
	right, ok := top.Right.(*ast.Binary)
	if !ok || right.Op != ast.Lt {
		t.Fatalf("expected right operand of AND to be '<', got %#v", top.Right)
	}
}

func TestChainedAccessAndCall(t *testing.T) {
	// a.b.c(1) parses as a call on the chained receiver a.b, named c.
	expr := soleMethodExpr(t, wrapExpr("f(a.b.c(1))"))
	call := expr.(*ast.Function)
	outer, ok := call.Args[0].(*ast.Function)
	if !ok {
		t.Fatalf("expected the argument to be a call, got %#v", call.Args[0])
	}
	if outer.Name != "c" || len(outer.Args) != 1 {
		t.Fatalf("unexpected outer call shape: %#v", outer)
	}
	middle, ok := outer.Receiver.(*ast.Access)
	if !ok || middle.Name != "b" {
		t.Fatalf("expected receiver to be an Access named b, got %#v", outer.Receiver)
	}
	inner, ok := middle.Receiver.(*ast.Access)
	if !ok || inner.Name != "a" {
		t.Fatalf("expected receiver's receiver to be an Access named a, got %#v", middle.Receiver)
	}
}

func TestPrimaryIdentifierVsCall(t *testing.T) {
	access := soleMethodExpr(t, wrapExpr("f(x)")).(*ast.Function).Args[0]
	if _, ok := access.(*ast.Access); !ok {
		t.Fatalf("bare identifier should parse as Access, got %T", access)
	}

	call := soleMethodExpr(t, wrapExpr("x()"))
	if fn, ok := call.(*ast.Function); !ok || fn.Name != "x" || len(fn.Args) != 0 {
		t.Fatalf("identifier followed by () should parse as a zero-arg call, got %#v", call)
	}
}

func TestGroupRequiresExpr(t *testing.T) {
	expr := soleMethodExpr(t, wrapExpr("f((1 + 2))"))
	call := expr.(*ast.Function)
	group, ok := call.Args[0].(*ast.Group)
	if !ok {
		t.Fatalf("expected a Group, got %T", call.Args[0])
	}
	if _, ok := group.Inner.(*ast.Binary); !ok {
		t.Fatalf("expected the Group's inner expression to be a Binary, got %T", group.Inner)
	}
}

func TestDeclarationWithTypeAndValue(t *testing.T) {
	source := mustParse(t, "LET x: Integer = 1;\nDEF main() DO RETURN 0; END")
	if len(source.Fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(source.Fields))
	}
	f := source.Fields[0]
	if f.Name != "x" || f.TypeName != "Integer" || f.Value == nil {
		t.Fatalf("unexpected field shape: %#v", f)
	}
}

func TestDeclarationTypeOnly(t *testing.T) {
	source := mustParse(t, "LET x: Integer;\nDEF main() DO RETURN 0; END")
	f := source.Fields[0]
	if f.Name != "x" || f.TypeName != "Integer" || f.Value != nil {
		t.Fatalf("unexpected field shape: %#v", f)
	}
}

func TestMethodSignature(t *testing.T) {
	source := mustParse(t, "DEF add(x: Integer, y: Integer): Integer DO RETURN x + y; END")
	if len(source.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(source.Methods))
	}
	m := source.Methods[0]
	if m.Name != "add" || m.ReturnTypeName != "Integer" {
		t.Fatalf("unexpected method shape: %#v", m)
	}
	if len(m.Params) != 2 || m.Params[0] != "x" || m.Params[1] != "y" {
		t.Fatalf("unexpected params: %#v", m.Params)
	}
	if len(m.ParamTypeNames) != 2 || m.ParamTypeNames[0] != "Integer" || m.ParamTypeNames[1] != "Integer" {
		t.Fatalf("unexpected param types: %#v", m.ParamTypeNames)
	}
}

func TestIfElse(t *testing.T) {
	source := mustParse(t, `DEF main() DO
		IF TRUE DO
			RETURN 1;
		ELSE
			RETURN 2;
		END
	END`)
	m := source.Methods[0]
	ifStmt, ok := m.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected an If statement, got %T", m.Body[0])
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("unexpected If shape: %#v", ifStmt)
	}
}

func TestForLoop(t *testing.T) {
	source := mustParse(t, `DEF main() DO
		FOR i IN range(1, 10) DO
			print(i);
		END
	END`)
	forStmt, ok := source.Methods[0].Body[0].(*ast.For)
	if !ok {
		t.Fatalf("expected a For statement, got %T", source.Methods[0].Body[0])
	}
	if forStmt.Name != "i" {
		t.Fatalf("unexpected For variable name: %q", forStmt.Name)
	}
}

func TestAssignmentStatement(t *testing.T) {
	source := mustParse(t, `DEF main() DO
		LET x = 1;
		x = 2;
	END`)
	assign, ok := source.Methods[0].Body[1].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected an Assignment statement, got %T", source.Methods[0].Body[1])
	}
	if _, ok := assign.Receiver.(*ast.Access); !ok {
		t.Fatalf("expected assignment receiver to be an Access, got %T", assign.Receiver)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing_semicolon", "DEF main() DO RETURN 0 END"},
		{"missing_end", "DEF main() DO RETURN 0;"},
		{"unexpected_token", "DEF main() DO RETURN ; END"},
		{"field_after_method", "DEF main() DO RETURN 0; END\nLET x = 1;"},
		{"keyword_as_variable_name", "DEF main() DO LET END = 1; RETURN 0; END"},
		{"keyword_as_param_name", "DEF main(FOR: Integer) DO RETURN 0; END"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := lexer.Lex(tt.src)
			if err != nil {
				t.Fatalf("Lex(%q): unexpected error: %v", tt.src, err)
			}
			if _, err := Parse(toks); err == nil {
				t.Fatalf("Parse(%q): expected error, got none", tt.src)
			}
		})
	}
}
