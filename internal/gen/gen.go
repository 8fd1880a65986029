// Package gen implements the target-language emitter of spec.md §4.5: it
// walks an analyzed *ast.Source and writes equivalent Java-family source
// text to an abstract sink. It never touches a file itself — the caller
// (cmd/plc) owns the sink's lifetime, per spec.md §5.
package gen

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/plc-lang/plc/internal/ast"
)

// className is the wrapping class every Source generates into, per
// spec.md §4.5.
const className = "Main"

// Generate renders source as Java-family source text and writes it to w.
// source must already have been through analyzer.Analyze: the generator
// only reads resolved types and bound symbols, it never re-derives them.
func Generate(source *ast.Source, w io.Writer) error {
	g := &generator{}
	g.genSource(source)
	_, err := io.WriteString(w, g.buf.String())
	return err
}

type generator struct {
	buf    strings.Builder
	indent int
}

// line writes one fully-indented, non-blank-trailing line. Blank lines
// (used to separate fields/methods) go through blank() instead, so they
// never pick up indentation whitespace.
func (g *generator) line(format string, args ...interface{}) {
	g.buf.WriteString(strings.Repeat("    ", g.indent))
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

func (g *generator) blank() {
	g.buf.WriteByte('\n')
}

func (g *generator) openBlock(format string, args ...interface{}) {
	g.line(format+" {", args...)
	g.indent++
}

func (g *generator) closeBlock() {
	g.indent--
	g.line("}")
}

// genSource emits the wrapping `Main` class: fields, the static entry
// point, then every user method, per spec.md §4.5.
func (g *generator) genSource(source *ast.Source) {
	g.openBlock("public class %s", className)

	for _, field := range source.Fields {
		g.genFieldLike(field.Var.Type, field.Name, field.Value)
	}
	if len(source.Fields) > 0 {
		g.blank()
	}

	g.openBlock("public static void main(String[] args)")
	g.line("System.exit(new %s().main());", className)
	g.closeBlock()

	for _, method := range source.Methods {
		g.blank()
		g.genMethod(method)
	}

	g.closeBlock()
}

// genFieldLike renders the shared shape of Field and Declaration (spec.md
// §4.5): `<jvm-type> <name>( = <init>)?;`.
func (g *generator) genFieldLike(typ *ast.Type, name string, value ast.Expr) {
	if value == nil {
		g.line("%s %s;", typ.JvmName, name)
		return
	}
	g.line("%s %s = %s;", typ.JvmName, name, g.expr(value))
}

func (g *generator) genMethod(method *ast.Method) {
	params := make([]string, len(method.Params))
	for i, name := range method.Params {
		params[i] = fmt.Sprintf("%s %s", method.Func.ParamTypes[i].JvmName, name)
	}
	g.openBlock("%s %s(%s)", method.Func.ReturnType.JvmName, method.Name, strings.Join(params, ", "))
	g.genStmts(method.Body)
	g.closeBlock()
}

func (g *generator) genStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		g.genStmt(stmt)
	}
}

func (g *generator) genStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		g.line("%s;", g.expr(s.Expr))
	case *ast.Declaration:
		g.genFieldLike(s.Var.Type, s.Name, s.Value)
	case *ast.Assignment:
		g.line("%s = %s;", g.expr(s.Receiver), g.expr(s.Value))
	case *ast.If:
		g.genIf(s)
	case *ast.For:
		g.genFor(s)
	case *ast.While:
		g.genWhile(s)
	case *ast.Return:
		g.line("return %s;", g.expr(s.Value))
	default:
		g.line("/* unsupported statement %T */", stmt)
	}
}

func (g *generator) genIf(s *ast.If) {
	g.openBlock("if (%s)", g.expr(s.Condition))
	g.genStmts(s.Then)
	if s.Else != nil {
		g.indent--
		g.openBlock("} else")
		g.genStmts(s.Else)
	}
	g.closeBlock()
}

// genFor emits `for (int NAME : EXPR)`, per spec.md §4.5: the loop
// variable is always Integer (spec.md §4.3 binds it as such).
func (g *generator) genFor(s *ast.For) {
	g.openBlock("for (%s %s : %s)", ast.Integer.JvmName, s.Name, g.expr(s.Iterable))
	g.genStmts(s.Body)
	g.closeBlock()
}

func (g *generator) genWhile(s *ast.While) {
	g.openBlock("while (%s)", g.expr(s.Condition))
	g.genStmts(s.Body)
	g.closeBlock()
}

// expr renders expr as inline target text. Unlike statements, expressions
// never need their own indentation: they're always embedded in a line a
// statement already wrote.
func (g *generator) expr(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalText(e.Value)
	case *ast.Group:
		return "(" + g.expr(e.Inner) + ")"
	case *ast.Binary:
		return fmt.Sprintf("%s %s %s", g.expr(e.Left), binaryOpText(e.Op), g.expr(e.Right))
	case *ast.Access:
		return g.accessChain(e)
	case *ast.Function:
		return g.callChain(e)
	default:
		return fmt.Sprintf("/* unsupported expression %T */", expr)
	}
}

// binaryOpText maps a BinaryOp to its target-language spelling: identical
// to the source spelling except AND/OR, which become && / || (spec.md
// §4.5).
func binaryOpText(op ast.BinaryOp) string {
	switch op {
	case ast.And:
		return "&&"
	case ast.Or:
		return "||"
	default:
		return op.String()
	}
}

// accessChain renders a dotted chain using the bound symbol's jvmName
// (spec.md §4.5), not its source name.
func (g *generator) accessChain(access *ast.Access) string {
	if access.Receiver == nil {
		return access.Var.JvmName
	}
	return g.expr(access.Receiver) + "." + access.Var.JvmName
}

func (g *generator) callChain(fn *ast.Function) string {
	args := make([]string, len(fn.Args))
	for i, arg := range fn.Args {
		args[i] = g.expr(arg)
	}
	joined := strings.Join(args, ", ")

	if fn.Receiver == nil {
		return fmt.Sprintf("%s(%s)", fn.Func.JvmName, joined)
	}
	return fmt.Sprintf("%s.%s(%s)", g.expr(fn.Receiver), fn.Func.JvmName, joined)
}

// literalText renders a literal value by host formatting, per spec.md
// §4.5: numeric literals verbatim, character/string literals quoted,
// everything else via Go's own formatting of the host value (nil/bool
// have no other sensible target spelling than their Java keywords).
func literalText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case *big.Int:
		return v.String()
	case *apd.Decimal:
		return v.Text('f')
	case rune:
		return strconv.QuoteRune(v)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
