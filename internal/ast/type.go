package ast

// Type is a named, process-wide value representing one of the built-in
// types (spec.md §3). Comparable and Any participate in assignability
// per spec.md §4.3; a Type may expose a method table for receiver-based
// Access/Function nodes, though none of the built-ins in this language
// define any (there are no user-defined classes, spec.md §1 Non-goals).
type Type struct {
	Name    string
	JvmName string
	methods map[methodKey]*Func
}

type methodKey struct {
	name  string
	arity int
}

func newType(name, jvmName string) *Type {
	return &Type{Name: name, JvmName: jvmName, methods: make(map[methodKey]*Func)}
}

func (t *Type) String() string { return t.Name }

// Method looks up a method by name and argument count on t.
func (t *Type) Method(name string, arity int) *Func {
	if t == nil {
		return nil
	}
	return t.methods[methodKey{name, arity}]
}

// The built-in types, per spec.md §3. JvmName names the target-language
// primitive the generator declares fields, parameters, and returns as.
// Integer and Decimal target Java's fixed-width int/double rather than
// BigInteger/BigDecimal: the generator's arithmetic stays on Java's own
// operators (+, -, *, /, <, ==) instead of BigInteger/BigDecimal method
// calls, which keeps the transpiled output readable at the cost of capping
// generated-program arithmetic at machine width — the interpreter alone
// keeps full arbitrary precision (spec.md §4.4, SPEC_FULL.md §4.6).
var (
	Any              = newType("Any", "Object")
	Nil              = newType("Nil", "Void")
	Boolean          = newType("Boolean", "boolean")
	Integer          = newType("Integer", "int")
	Decimal          = newType("Decimal", "double")
	Character        = newType("Character", "char")
	String           = newType("String", "String")
	Comparable       = newType("Comparable", "Comparable")
	IntegerIterable  = newType("IntegerIterable", "Iterable<Integer>")
)

// comparableSet is the set of types §9 says Comparable is "clearly
// intended" to restrict to, resolving the open question documented in
// spec.md §9 and DESIGN.md: requireAssignable(Comparable, t) only
// succeeds for these, not for every type in the universe.
var comparableSet = map[*Type]bool{
	Integer:   true,
	Decimal:   true,
	Character: true,
	String:    true,
}

// IsComparable reports whether t is one of the types allowed to
// participate in relational/equality comparisons.
func IsComparable(t *Type) bool {
	return comparableSet[t]
}

// RequireAssignable implements spec.md §4.3's requireAssignable:
// succeeds iff target == actual, target == Any, or target == Comparable
// and actual is one of the restricted comparable types.
func RequireAssignable(target, actual *Type) bool {
	if target == actual {
		return true
	}
	if target == Any {
		return true
	}
	if target == Comparable {
		return IsComparable(actual)
	}
	return false
}

// builtinTypes is consulted by the parser/analyzer to resolve a type-name
// token's literal text to a *Type.
var builtinTypes = map[string]*Type{
	"Any":             Any,
	"Nil":             Nil,
	"Boolean":         Boolean,
	"Integer":         Integer,
	"Decimal":         Decimal,
	"Character":       Character,
	"String":          String,
	"Comparable":      Comparable,
	"IntegerIterable": IntegerIterable,
}

// LookupType resolves a type name; ok is false for an unknown name.
func LookupType(name string) (*Type, bool) {
	t, ok := builtinTypes[name]
	return t, ok
}
