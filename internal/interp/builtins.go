package interp

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/plc-lang/plc/internal/ast"
	"github.com/plc-lang/plc/internal/common"
)

// registerBuiltins installs print/range/size, the host functions the
// analyzer's builtins.go declared signatures for, into the interpreter's
// global scope. print and size are typed Any at the call boundary and
// enforce their real argument shape here, at the point where the dynamic
// value is actually in hand.
func registerBuiltins(i *Interp) {
	print := ast.NewFunc("print", []*ast.Type{ast.Any}, ast.Nil)
	i.global.DefineFunction(print)
	print.Implementation = func(args []interface{}) (interface{}, error) {
		i.stdout.Println(formatValue(args[0]))
		return nil, nil
	}

	rangeFn := ast.NewFunc("range", []*ast.Type{ast.Integer, ast.Integer}, ast.IntegerIterable)
	i.global.DefineFunction(rangeFn)
	rangeFn.Implementation = func(args []interface{}) (interface{}, error) {
		from, ok := args[0].(*big.Int)
		if !ok {
			return nil, common.NewRuntimeError("range requires two Integer arguments")
		}
		to, ok := args[1].(*big.Int)
		if !ok {
			return nil, common.NewRuntimeError("range requires two Integer arguments")
		}
		var elems IntegerIterable
		for n := new(big.Int).Set(from); n.Cmp(to) < 0; n.Add(n, big.NewInt(1)) {
			elems = append(elems, new(big.Int).Set(n))
		}
		return elems, nil
	}

	size := ast.NewFunc("size", []*ast.Type{ast.Any}, ast.Integer)
	i.global.DefineFunction(size)
	size.Implementation = func(args []interface{}) (interface{}, error) {
		switch v := args[0].(type) {
		case string:
			return big.NewInt(int64(len([]rune(v)))), nil
		case IntegerIterable:
			return big.NewInt(int64(len(v))), nil
		default:
			return nil, common.NewRuntimeError("size requires a String or an IntegerIterable, got %T", v)
		}
	}
}

// formatValue renders a runtime value the way `print` and string
// concatenation present it, mirroring the original implementation's own
// choice to hand the raw host value straight to println and let Java's
// Object.toString() do the formatting: nil/booleans lowercase, decimals
// and integers verbatim, characters and strings unquoted.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case *big.Int:
		return x.String()
	case *apd.Decimal:
		return x.Text('f')
	case rune:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
