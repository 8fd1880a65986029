// Package interp implements the tree-walking evaluator of spec.md §4.4:
// it executes an analyzed *ast.Source directly, without lowering to any
// intermediate form.
package interp

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/plc-lang/plc/internal/ast"
	"github.com/plc-lang/plc/internal/common"
)

// IntegerIterable is the runtime representation bound to ast.IntegerIterable,
// produced by the `range` builtin and consumed by `for`.
type IntegerIterable []*big.Int

// Interp holds the process-wide state needed to run one analyzed program:
// the global scope (fields and every method's dispatch table) that every
// method invocation's fresh scope chains onto.
type Interp struct {
	global *ast.Scope
	stdout Printer
}

// Printer is the sink `print` writes to; cmd/plc wires this to os.Stdout.
type Printer interface {
	Println(s string)
}

// New binds source's fields and methods into a fresh global scope, ready
// to Run. source must already have been through analyzer.Analyze.
func New(source *ast.Source, stdout Printer) (*Interp, error) {
	i := &Interp{global: ast.NewScope(nil), stdout: stdout}
	registerBuiltins(i)

	for _, field := range source.Fields {
		value, err := i.evalOptional(i.global, field.Value)
		if err != nil {
			return nil, err
		}
		i.global.DefineVariable(&ast.Variable{Name: field.Name, Value: value})
	}
	for _, method := range source.Methods {
		i.bindMethod(method)
	}
	return i, nil
}

// bindMethod attaches a callable Implementation to the *ast.Func the
// analyzer already installed in the global scope, closing over the
// method's body and the interpreter's global scope — its definition
// scope, never the caller's (spec.md §4.4).
func (i *Interp) bindMethod(method *ast.Method) {
	i.global.DefineFunction(method.Func)
	method.Func.Implementation = func(args []interface{}) (interface{}, error) {
		scope := ast.NewScope(i.global)
		for idx, name := range method.Params {
			scope.DefineVariable(&ast.Variable{Name: name, Value: args[idx]})
		}
		fl, err := i.execBlock(scope, method.Body)
		if err != nil {
			return nil, err
		}
		if fl.returning {
			return fl.value, nil
		}
		return nil, nil
	}
}

// Run invokes the zero-argument main and returns its result as an exit
// code, per spec.md §4.3's entry-point rule (main always returns Integer).
func (i *Interp) Run() (int, error) {
	main := i.global.LookupFunction("main", 0)
	if main == nil {
		return 0, common.NewRuntimeError("no main function bound")
	}
	result, err := main.Implementation(nil)
	if err != nil {
		return 0, err
	}
	n, ok := result.(*big.Int)
	if !ok {
		return 0, common.NewRuntimeError("main did not return an Integer")
	}
	return int(n.Int64()), nil
}

func (i *Interp) evalOptional(scope *ast.Scope, expr ast.Expr) (interface{}, error) {
	if expr == nil {
		return nil, nil
	}
	return i.evalExpr(scope, expr)
}

// flow threads a non-local RETURN back up through nested statement
// execution without resorting to panic/recover: each block-executing
// method checks returning and stops early rather than keep walking
// sibling statements.
type flow struct {
	returning bool
	value     interface{}
}

func (i *Interp) execBlock(scope *ast.Scope, stmts []ast.Stmt) (flow, error) {
	for _, stmt := range stmts {
		fl, err := i.execStmt(scope, stmt)
		if err != nil {
			return flow{}, err
		}
		if fl.returning {
			return fl, nil
		}
	}
	return flow{}, nil
}

func (i *Interp) execStmt(scope *ast.Scope, stmt ast.Stmt) (flow, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(scope, s.Expr)
		return flow{}, err
	case *ast.Declaration:
		value, err := i.evalOptional(scope, s.Value)
		if err != nil {
			return flow{}, err
		}
		scope.DefineVariable(&ast.Variable{Name: s.Name, Value: value})
		return flow{}, nil
	case *ast.Assignment:
		return flow{}, i.execAssignment(scope, s)
	case *ast.If:
		return i.execIf(scope, s)
	case *ast.For:
		return i.execFor(scope, s)
	case *ast.While:
		return i.execWhile(scope, s)
	case *ast.Return:
		value, err := i.evalExpr(scope, s.Value)
		if err != nil {
			return flow{}, err
		}
		return flow{returning: true, value: value}, nil
	default:
		return flow{}, common.NewRuntimeError("unsupported statement %T", stmt)
	}
}

func (i *Interp) execAssignment(scope *ast.Scope, stmt *ast.Assignment) error {
	access, ok := stmt.Receiver.(*ast.Access)
	if !ok || access.Receiver != nil {
		return common.NewRuntimeError("assignment target must be a variable or field")
	}
	value, err := i.evalExpr(scope, stmt.Value)
	if err != nil {
		return err
	}
	v := scope.LookupVariable(access.Name)
	if v == nil {
		return common.NewRuntimeError("undefined variable %q", access.Name)
	}
	v.Value = value
	return nil
}

func (i *Interp) execIf(scope *ast.Scope, stmt *ast.If) (flow, error) {
	cond, err := i.evalExpr(scope, stmt.Condition)
	if err != nil {
		return flow{}, err
	}
	if truthy(cond) {
		return i.execBlock(ast.NewScope(scope), stmt.Then)
	}
	if stmt.Else != nil {
		return i.execBlock(ast.NewScope(scope), stmt.Else)
	}
	return flow{}, nil
}

func (i *Interp) execFor(scope *ast.Scope, stmt *ast.For) (flow, error) {
	iterable, err := i.evalExpr(scope, stmt.Iterable)
	if err != nil {
		return flow{}, err
	}
	elems, ok := iterable.(IntegerIterable)
	if !ok {
		return flow{}, common.NewRuntimeError("for loop requires an IntegerIterable")
	}
	for _, elem := range elems {
		loopScope := ast.NewScope(scope)
		loopScope.DefineVariable(&ast.Variable{Name: stmt.Name, Value: elem})
		fl, err := i.execBlock(loopScope, stmt.Body)
		if err != nil {
			return flow{}, err
		}
		if fl.returning {
			return fl, nil
		}
	}
	return flow{}, nil
}

func (i *Interp) execWhile(scope *ast.Scope, stmt *ast.While) (flow, error) {
	for {
		cond, err := i.evalExpr(scope, stmt.Condition)
		if err != nil {
			return flow{}, err
		}
		if !truthy(cond) {
			return flow{}, nil
		}
		fl, err := i.execBlock(ast.NewScope(scope), stmt.Body)
		if err != nil {
			return flow{}, err
		}
		if fl.returning {
			return fl, nil
		}
	}
}

func truthy(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func (i *Interp) evalExpr(scope *ast.Scope, expr ast.Expr) (interface{}, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil
	case *ast.Group:
		return i.evalExpr(scope, e.Inner)
	case *ast.Binary:
		return i.evalBinary(scope, e)
	case *ast.Access:
		return i.evalAccess(scope, e)
	case *ast.Function:
		return i.evalFunction(scope, e)
	default:
		return nil, common.NewRuntimeError("unsupported expression %T", expr)
	}
}

func (i *Interp) evalAccess(scope *ast.Scope, access *ast.Access) (interface{}, error) {
	if access.Receiver != nil {
		return nil, common.NewRuntimeError("field access is not supported")
	}
	v := scope.LookupVariable(access.Name)
	if v == nil {
		return nil, common.NewRuntimeError("undefined variable %q", access.Name)
	}
	return v.Value, nil
}

func (i *Interp) evalFunction(scope *ast.Scope, fn *ast.Function) (interface{}, error) {
	if fn.Receiver != nil {
		return nil, common.NewRuntimeError("method calls on a receiver are not supported")
	}
	args := make([]interface{}, len(fn.Args))
	for idx, arg := range fn.Args {
		v, err := i.evalExpr(scope, arg)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	f := scope.LookupFunction(fn.Name, len(args))
	if f == nil {
		return nil, common.NewRuntimeError("undefined function %q with %d argument(s)", fn.Name, len(args))
	}
	return f.Implementation(args)
}

// decimalContext is used for every Decimal arithmetic operation. Division
// rounds half to even (banker's rounding), per spec.md §4.4. Addition,
// subtraction and multiplication share the same context, so a result with
// more than 34 significant digits is rounded half to even as well.
var decimalContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfEven
	return ctx
}()

func (i *Interp) evalBinary(scope *ast.Scope, bin *ast.Binary) (interface{}, error) {
	left, err := i.evalExpr(scope, bin.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(scope, bin.Right)
	if err != nil {
		return nil, err
	}

	switch bin.Op {
	case ast.And:
		// Both operands are evaluated regardless of the left's value: the
		// language this is ported from does not short-circuit AND or OR.
		return truthy(left) && truthy(right), nil
	case ast.Or:
		return truthy(left) || truthy(right), nil
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return compareBinary(bin.Op, left, right)
	case ast.Eq:
		return valuesEqual(left, right), nil
	case ast.Ne:
		return !valuesEqual(left, right), nil
	case ast.Add:
		if ls, ok := left.(string); ok {
			return ls + formatValue(right), nil
		}
		if rs, ok := right.(string); ok {
			return formatValue(left) + rs, nil
		}
		return numericBinary(bin.Op, left, right)
	case ast.Sub, ast.Mul, ast.Div:
		return numericBinary(bin.Op, left, right)
	default:
		return nil, common.NewRuntimeError("unsupported operator %s", bin.Op)
	}
}

func compareBinary(op ast.BinaryOp, left, right interface{}) (interface{}, error) {
	cmp, err := compareValues(left, right)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.Lt:
		return cmp < 0, nil
	case ast.Le:
		return cmp <= 0, nil
	case ast.Gt:
		return cmp > 0, nil
	case ast.Ge:
		return cmp >= 0, nil
	}
	return nil, common.NewRuntimeError("unsupported comparison operator %s", op)
}

func compareValues(left, right interface{}) (int, error) {
	switch l := left.(type) {
	case *big.Int:
		r, ok := right.(*big.Int)
		if !ok {
			return 0, common.NewRuntimeError("cannot compare Integer with %T", right)
		}
		return l.Cmp(r), nil
	case *apd.Decimal:
		r, ok := right.(*apd.Decimal)
		if !ok {
			return 0, common.NewRuntimeError("cannot compare Decimal with %T", right)
		}
		return l.Cmp(r), nil
	case rune:
		r, ok := right.(rune)
		if !ok {
			return 0, common.NewRuntimeError("cannot compare Character with %T", right)
		}
		return int(l) - int(r), nil
	case string:
		r, ok := right.(string)
		if !ok {
			return 0, common.NewRuntimeError("cannot compare String with %T", right)
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, common.NewRuntimeError("type %T is not comparable", left)
	}
}

func valuesEqual(left, right interface{}) bool {
	switch l := left.(type) {
	case nil:
		return right == nil
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	case *big.Int:
		r, ok := right.(*big.Int)
		return ok && l.Cmp(r) == 0
	case *apd.Decimal:
		r, ok := right.(*apd.Decimal)
		return ok && l.Cmp(r) == 0
	case rune:
		r, ok := right.(rune)
		return ok && l == r
	case string:
		r, ok := right.(string)
		return ok && l == r
	default:
		return false
	}
}

func numericBinary(op ast.BinaryOp, left, right interface{}) (interface{}, error) {
	switch l := left.(type) {
	case *big.Int:
		r, ok := right.(*big.Int)
		if !ok {
			return nil, common.NewRuntimeError("operator %s requires two Integer operands", op)
		}
		return integerBinary(op, l, r)
	case *apd.Decimal:
		r, ok := right.(*apd.Decimal)
		if !ok {
			return nil, common.NewRuntimeError("operator %s requires two Decimal operands", op)
		}
		return decimalBinary(op, l, r)
	default:
		return nil, common.NewRuntimeError("operator %s cannot be applied to %T", op, left)
	}
}

func integerBinary(op ast.BinaryOp, l, r *big.Int) (interface{}, error) {
	result := new(big.Int)
	switch op {
	case ast.Add:
		return result.Add(l, r), nil
	case ast.Sub:
		return result.Sub(l, r), nil
	case ast.Mul:
		return result.Mul(l, r), nil
	case ast.Div:
		if r.Sign() == 0 {
			return nil, common.NewRuntimeError("division by zero")
		}
		return result.Quo(l, r), nil
	default:
		return nil, common.NewRuntimeError("unsupported Integer operator %s", op)
	}
}

func decimalBinary(op ast.BinaryOp, l, r *apd.Decimal) (interface{}, error) {
	result := new(apd.Decimal)
	var err error
	switch op {
	case ast.Add:
		_, err = decimalContext.Add(result, l, r)
	case ast.Sub:
		_, err = decimalContext.Sub(result, l, r)
	case ast.Mul:
		_, err = decimalContext.Mul(result, l, r)
	case ast.Div:
		if r.IsZero() {
			return nil, common.NewRuntimeError("division by zero")
		}
		_, err = decimalContext.Quo(result, l, r)
	default:
		return nil, common.NewRuntimeError("unsupported Decimal operator %s", op)
	}
	if err != nil {
		return nil, common.NewRuntimeError("%s", err)
	}
	return result, nil
}
