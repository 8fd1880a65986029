// Package analyzer performs the name-resolution and type-checking pass of
// spec.md §4.3: it walks a *ast.Source produced by the parser, binds every
// Access/Function node to the symbol it resolves to, and rejects anything
// that violates the language's (lightweight, call-boundary) type rules.
package analyzer

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/plc-lang/plc/internal/ast"
	"github.com/plc-lang/plc/internal/common"
)

// Analyze resolves names and checks types in source, mutating its nodes in
// place (binding Var/Func pointers and Expr.Type() slots) and returning the
// first violation encountered. It fails fast, like the parser: spec.md §7
// excludes recovery past the first error.
func Analyze(source *ast.Source) error {
	a := &analyzer{global: ast.NewScope(nil)}
	a.scope = a.global
	registerBuiltins(a.global)
	return a.analyzeSource(source)
}

type analyzer struct {
	global     *ast.Scope
	scope      *ast.Scope
	returnType *ast.Type // the enclosing method's declared return type
}

// pushScope opens a child scope and returns a closure that restores the
// prior scope; callers use it as `defer a.pushScope()()`.
func (a *analyzer) pushScope() func() {
	prev := a.scope
	a.scope = ast.NewScope(prev)
	return func() { a.scope = prev }
}

func (a *analyzer) errorf(pos int, format string, args ...interface{}) error {
	return common.NewAnalysisError(pos, format, args...)
}

func (a *analyzer) resolveType(pos int, name string) (*ast.Type, error) {
	typ, ok := ast.LookupType(name)
	if !ok {
		return nil, a.errorf(pos, "undefined type %q", name)
	}
	return typ, nil
}

func (a *analyzer) analyzeSource(source *ast.Source) error {
	// Pass 1: field declarations and method signatures, so forward
	// references (a method calling one declared later) resolve.
	for _, field := range source.Fields {
		if err := a.analyzeField(field); err != nil {
			return err
		}
	}
	for _, method := range source.Methods {
		if err := a.bindMethodSignature(method); err != nil {
			return err
		}
	}
	if err := a.requireMain(source); err != nil {
		return err
	}

	// Pass 2: method bodies, once every signature is visible.
	for _, method := range source.Methods {
		if err := a.analyzeMethodBody(method); err != nil {
			return err
		}
	}
	return nil
}

// requireMain enforces spec.md §4.3's entry-point rule: a zero-argument
// `main` returning Integer must exist. There is no single offending token,
// so the error carries no index.
func (a *analyzer) requireMain(source *ast.Source) error {
	main := a.global.LookupFunction("main", 0)
	if main == nil {
		return common.NewAnalysisErrorNoIndex("missing a zero-argument main function")
	}
	if main.ReturnType != ast.Integer {
		return common.NewAnalysisErrorNoIndex("main must return Integer, not %s", main.ReturnType)
	}
	return nil
}

func (a *analyzer) bindMethodSignature(method *ast.Method) error {
	paramTypes := make([]*ast.Type, len(method.ParamTypeNames))
	for i, name := range method.ParamTypeNames {
		typ, err := a.resolveType(method.Pos(), name)
		if err != nil {
			return err
		}
		paramTypes[i] = typ
	}

	// An unannotated return type defaults to Nil, except for the
	// zero-argument entry point: every worked example in spec.md §8 writes
	// `DEF main() DO ... END` with no return-type annotation at all, yet
	// requireMain below demands main return Integer. Resolving that
	// requires main's unannotated return type to default to Integer
	// instead of Nil (documented as an Open Question resolution in
	// DESIGN.md).
	returnType := ast.Nil
	if method.Name == "main" && len(paramTypes) == 0 {
		returnType = ast.Integer
	}
	if method.ReturnTypeName != "" {
		typ, err := a.resolveType(method.Pos(), method.ReturnTypeName)
		if err != nil {
			return err
		}
		returnType = typ
	}

	if a.global.LookupFunction(method.Name, len(paramTypes)) != nil {
		return a.errorf(method.Pos(), "method %q is already defined with %d parameter(s)", method.Name, len(paramTypes))
	}

	fn := ast.NewFunc(method.Name, paramTypes, returnType)
	method.Func = fn
	a.global.DefineFunction(fn)
	return nil
}

func (a *analyzer) analyzeMethodBody(method *ast.Method) error {
	defer a.pushScope()()
	for i, name := range method.Params {
		a.scope.DefineVariable(ast.NewVariable(name, method.Func.ParamTypes[i]))
	}

	prevReturn := a.returnType
	a.returnType = method.Func.ReturnType
	defer func() { a.returnType = prevReturn }()

	return a.analyzeStmts(method.Body)
}

func (a *analyzer) analyzeField(field *ast.Field) error {
	typ, value, err := a.analyzeDeclarationBody(field.Pos(), field.TypeName, field.Value)
	if err != nil {
		return err
	}
	field.Value = value
	v := ast.NewVariable(field.Name, typ)
	field.Var = v
	a.scope.DefineVariable(v)
	return nil
}

// analyzeDeclarationBody implements the shared shape of Field and
// Declaration (spec.md §4.3): at least one of a type name or an
// initializer must be present, and if both are present the initializer's
// type must be assignable to the declared type.
func (a *analyzer) analyzeDeclarationBody(pos int, typeName string, value ast.Expr) (*ast.Type, ast.Expr, error) {
	if typeName == "" && value == nil {
		return nil, nil, a.errorf(pos, "declaration requires a type, an initializer, or both")
	}

	var declared *ast.Type
	if typeName != "" {
		var err error
		declared, err = a.resolveType(pos, typeName)
		if err != nil {
			return nil, nil, err
		}
	}

	if value == nil {
		return declared, nil, nil
	}

	if err := a.analyzeExpr(value); err != nil {
		return nil, nil, err
	}
	if declared == nil {
		return value.Type(), value, nil
	}
	if !ast.RequireAssignable(declared, value.Type()) {
		return nil, nil, a.errorf(value.Pos(), "cannot assign %s to %s", value.Type(), declared)
	}
	return declared, value, nil
}

func (a *analyzer) analyzeStmts(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := a.analyzeStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) analyzeStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		return a.analyzeExprStmt(s)
	case *ast.Declaration:
		return a.analyzeLocalDeclaration(s)
	case *ast.Assignment:
		return a.analyzeAssignment(s)
	case *ast.If:
		return a.analyzeIf(s)
	case *ast.For:
		return a.analyzeFor(s)
	case *ast.While:
		return a.analyzeWhile(s)
	case *ast.Return:
		return a.analyzeReturn(s)
	default:
		return a.errorf(stmt.Pos(), "unsupported statement %T", stmt)
	}
}

// analyzeExprStmt enforces that a bare expression statement is a call:
// spec.md §3 restricts Ast.Stmt.Expression to a Function, the only
// expression evaluated purely for its side effect.
func (a *analyzer) analyzeExprStmt(stmt *ast.ExprStmt) error {
	if _, ok := stmt.Expr.(*ast.Function); !ok {
		return a.errorf(stmt.Expr.Pos(), "expression statement must be a function call")
	}
	return a.analyzeExpr(stmt.Expr)
}

func (a *analyzer) analyzeLocalDeclaration(decl *ast.Declaration) error {
	typ, value, err := a.analyzeDeclarationBody(decl.Pos(), decl.TypeName, decl.Value)
	if err != nil {
		return err
	}
	decl.Value = value
	v := ast.NewVariable(decl.Name, typ)
	decl.Var = v
	a.scope.DefineVariable(v)
	return nil
}

// analyzeAssignment enforces that the target is an Access (spec.md §3: the
// grammar's bare `expr '=' expr` only makes sense when the left side names
// a storage slot).
func (a *analyzer) analyzeAssignment(stmt *ast.Assignment) error {
	access, ok := stmt.Receiver.(*ast.Access)
	if !ok {
		return a.errorf(stmt.Receiver.Pos(), "assignment target must be a variable or field")
	}
	if err := a.analyzeExpr(access); err != nil {
		return err
	}
	if err := a.analyzeExpr(stmt.Value); err != nil {
		return err
	}
	if !ast.RequireAssignable(access.Type(), stmt.Value.Type()) {
		return a.errorf(stmt.Value.Pos(), "cannot assign %s to %s", stmt.Value.Type(), access.Type())
	}
	return nil
}

func (a *analyzer) requireBoolean(expr ast.Expr) error {
	if err := a.analyzeExpr(expr); err != nil {
		return err
	}
	if expr.Type() != ast.Boolean {
		return a.errorf(expr.Pos(), "expected Boolean, found %s", expr.Type())
	}
	return nil
}

func (a *analyzer) analyzeIf(stmt *ast.If) error {
	if err := a.requireBoolean(stmt.Condition); err != nil {
		return err
	}
	if len(stmt.Then) == 0 {
		return a.errorf(stmt.Pos(), "if statement requires a non-empty then-branch")
	}
	if err := func() error {
		defer a.pushScope()()
		return a.analyzeStmts(stmt.Then)
	}(); err != nil {
		return err
	}
	if stmt.Else != nil {
		defer a.pushScope()()
		return a.analyzeStmts(stmt.Else)
	}
	return nil
}

func (a *analyzer) analyzeFor(stmt *ast.For) error {
	if err := a.analyzeExpr(stmt.Iterable); err != nil {
		return err
	}
	if stmt.Iterable.Type() != ast.IntegerIterable {
		return a.errorf(stmt.Iterable.Pos(), "expected IntegerIterable, found %s", stmt.Iterable.Type())
	}
	if len(stmt.Body) == 0 {
		return a.errorf(stmt.Pos(), "for statement requires a non-empty body")
	}
	defer a.pushScope()()
	a.scope.DefineVariable(ast.NewVariable(stmt.Name, ast.Integer))
	return a.analyzeStmts(stmt.Body)
}

func (a *analyzer) analyzeWhile(stmt *ast.While) error {
	if err := a.requireBoolean(stmt.Condition); err != nil {
		return err
	}
	defer a.pushScope()()
	return a.analyzeStmts(stmt.Body)
}

func (a *analyzer) analyzeReturn(stmt *ast.Return) error {
	if err := a.analyzeExpr(stmt.Value); err != nil {
		return err
	}
	if a.returnType == nil {
		return a.errorf(stmt.Pos(), "return statement outside of a method")
	}
	if !ast.RequireAssignable(a.returnType, stmt.Value.Type()) {
		return a.errorf(stmt.Value.Pos(), "cannot return %s from a method declared to return %s", stmt.Value.Type(), a.returnType)
	}
	return nil
}

func (a *analyzer) analyzeExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.Literal:
		return a.analyzeLiteral(e)
	case *ast.Group:
		return a.analyzeGroup(e)
	case *ast.Binary:
		return a.analyzeBinary(e)
	case *ast.Access:
		return a.analyzeAccess(e)
	case *ast.Function:
		return a.analyzeFunction(e)
	default:
		return a.errorf(expr.Pos(), "unsupported expression %T", expr)
	}
}

func (a *analyzer) analyzeLiteral(lit *ast.Literal) error {
	switch v := lit.Value.(type) {
	case nil:
		lit.SetType(ast.Nil)
	case bool:
		lit.SetType(ast.Boolean)
	case *big.Int:
		if v.Cmp(big.NewInt(-1<<31)) < 0 || v.Cmp(big.NewInt(1<<31-1)) > 0 {
			return a.errorf(lit.Pos(), "integer literal %s is outside the 32-bit signed range", v)
		}
		lit.SetType(ast.Integer)
	case *apd.Decimal:
		if _, err := v.Float64(); err != nil {
			return a.errorf(lit.Pos(), "decimal literal %s is outside the range of a double", v)
		}
		lit.SetType(ast.Decimal)
	case rune:
		lit.SetType(ast.Character)
	case string:
		lit.SetType(ast.String)
	default:
		return a.errorf(lit.Pos(), "literal has unrecognized runtime representation %T", v)
	}
	return nil
}

// analyzeGroup enforces spec.md §4.3's restriction that a parenthesized
// expression's inner expression must itself be a Binary.
func (a *analyzer) analyzeGroup(group *ast.Group) error {
	if _, ok := group.Inner.(*ast.Binary); !ok {
		return a.errorf(group.Pos(), "parenthesized expression must be a binary expression")
	}
	if err := a.analyzeExpr(group.Inner); err != nil {
		return err
	}
	group.SetType(group.Inner.Type())
	return nil
}

func (a *analyzer) analyzeBinary(bin *ast.Binary) error {
	if err := a.analyzeExpr(bin.Left); err != nil {
		return err
	}
	if err := a.analyzeExpr(bin.Right); err != nil {
		return err
	}

	switch bin.Op {
	case ast.And, ast.Or:
		if bin.Left.Type() != ast.Boolean {
			return a.errorf(bin.Left.Pos(), "expected Boolean, found %s", bin.Left.Type())
		}
		if bin.Right.Type() != ast.Boolean {
			return a.errorf(bin.Right.Pos(), "expected Boolean, found %s", bin.Right.Type())
		}
		bin.SetType(ast.Boolean)

	case ast.Lt, ast.Le, ast.Gt, ast.Ge, ast.Eq, ast.Ne:
		if !ast.RequireAssignable(ast.Comparable, bin.Left.Type()) {
			return a.errorf(bin.Left.Pos(), "type %s is not comparable", bin.Left.Type())
		}
		if !ast.RequireAssignable(ast.Comparable, bin.Right.Type()) {
			return a.errorf(bin.Right.Pos(), "type %s is not comparable", bin.Right.Type())
		}
		if bin.Left.Type() != bin.Right.Type() {
			return a.errorf(bin.Pos(), "cannot compare %s with %s", bin.Left.Type(), bin.Right.Type())
		}
		bin.SetType(ast.Boolean)

	case ast.Add:
		if bin.Left.Type() == ast.String || bin.Right.Type() == ast.String {
			bin.SetType(ast.String)
			return nil
		}
		fallthrough
	case ast.Sub, ast.Mul, ast.Div:
		if bin.Left.Type() != bin.Right.Type() || (bin.Left.Type() != ast.Integer && bin.Left.Type() != ast.Decimal) {
			return a.errorf(bin.Pos(), "operator %s requires two Integer or two Decimal operands, found %s and %s", bin.Op, bin.Left.Type(), bin.Right.Type())
		}
		bin.SetType(bin.Left.Type())

	default:
		return a.errorf(bin.Pos(), "unsupported operator %s", bin.Op)
	}
	return nil
}

func (a *analyzer) analyzeAccess(access *ast.Access) error {
	if access.Receiver == nil {
		v := a.scope.LookupVariable(access.Name)
		if v == nil {
			return a.errorf(access.Pos(), "undefined variable %q", access.Name)
		}
		access.Var = v
		access.SetType(v.Type)
		return nil
	}

	if err := a.analyzeExpr(access.Receiver); err != nil {
		return err
	}
	return a.errorf(access.Pos(), "type %s has no field %q", access.Receiver.Type(), access.Name)
}

func (a *analyzer) analyzeFunction(fn *ast.Function) error {
	if fn.Receiver != nil {
		if err := a.analyzeExpr(fn.Receiver); err != nil {
			return err
		}
		method := fn.Receiver.Type().Method(fn.Name, len(fn.Args))
		if method == nil {
			return a.errorf(fn.Pos(), "type %s has no method %q with %d argument(s)", fn.Receiver.Type(), fn.Name, len(fn.Args))
		}
		return a.bindCall(fn, method)
	}

	f := a.scope.LookupFunction(fn.Name, len(fn.Args))
	if f == nil {
		return a.errorf(fn.Pos(), "undefined function %q with %d argument(s)", fn.Name, len(fn.Args))
	}
	return a.bindCall(fn, f)
}

func (a *analyzer) bindCall(fn *ast.Function, f *ast.Func) error {
	for i, arg := range fn.Args {
		if err := a.analyzeExpr(arg); err != nil {
			return err
		}
		if !ast.RequireAssignable(f.ParamTypes[i], arg.Type()) {
			return a.errorf(arg.Pos(), "cannot pass %s as parameter %d (expected %s)", arg.Type(), i+1, f.ParamTypes[i])
		}
	}
	fn.Func = f
	fn.SetType(f.ReturnType)
	return nil
}
