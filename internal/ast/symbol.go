package ast

// Variable is a named, typed storage slot (spec.md §3): a local, a field,
// or a method parameter. Value is only meaningful to the interpreter; the
// analyzer never reads it.
type Variable struct {
	Name    string
	JvmName string
	Type    *Type
	Value   interface{}
}

func NewVariable(name string, typ *Type) *Variable {
	return &Variable{Name: name, JvmName: name, Type: typ}
}

// Func is a free function or method symbol (spec.md §3). Implementation
// is nil for methods bound by the analyzer (which only needs signatures);
// the interpreter attaches a callable Implementation when it binds the
// method body, and attaches a host Implementation directly for builtins
// like print.
type Func struct {
	Name        string
	JvmName     string
	ParamTypes  []*Type
	ReturnType  *Type
	Implementation func(args []interface{}) (interface{}, error)
}

func NewFunc(name string, paramTypes []*Type, returnType *Type) *Func {
	return &Func{Name: name, JvmName: name, ParamTypes: paramTypes, ReturnType: returnType}
}
