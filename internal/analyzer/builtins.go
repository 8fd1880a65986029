package analyzer

import "github.com/plc-lang/plc/internal/ast"

// registerBuiltins installs the ambient function set every program sees
// without declaring it, per SPEC_FULL.md §6.3: `print`, grounded directly
// on the original's single built-in, plus `range` and `size`. print and
// size accept Any and enforce their real argument shape at call time
// (interp/builtins.go), the same call-boundary style the original's own
// PlcObject-based builtins use.
//
// Each carries a JvmName the generator emits verbatim (spec.md §4.5):
// print maps straight onto System.out.println, the way the original
// implementation's own Analyzer wires it (`defineFunction("print",
// "System.out.println", ...)`); range and size, which the original never
// named, map onto a small generated-code runtime support class.
func registerBuiltins(global *ast.Scope) {
	print := ast.NewFunc("print", []*ast.Type{ast.Any}, ast.Nil)
	print.JvmName = "System.out.println"
	global.DefineFunction(print)

	rangeFn := ast.NewFunc("range", []*ast.Type{ast.Integer, ast.Integer}, ast.IntegerIterable)
	rangeFn.JvmName = "PlcRuntime.range"
	global.DefineFunction(rangeFn)

	size := ast.NewFunc("size", []*ast.Type{ast.Any}, ast.Integer)
	size.JvmName = "PlcRuntime.size"
	global.DefineFunction(size)
}
