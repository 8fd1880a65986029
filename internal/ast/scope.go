package ast

import "fmt"

// Scope is a node in a tree of symbol tables with one optional parent
// (spec.md §3). Lookups walk to the root; definitions always install into
// the current scope, so a child scope hides any parent entry of the same
// name without error.
type Scope struct {
	Parent    *Scope
	Variables map[string]*Variable
	Functions map[funcKey]*Func
}

type funcKey struct {
	name  string
	arity int
}

// NewScope creates a scope nested in parent. parent may be nil for the
// root (builtin) scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		Parent:    parent,
		Variables: make(map[string]*Variable),
		Functions: make(map[funcKey]*Func),
	}
}

// DefineVariable installs name in s, shadowing (not erroring on) any
// parent definition of the same name.
func (s *Scope) DefineVariable(v *Variable) {
	s.Variables[v.Name] = v
}

// LookupVariable walks the scope chain from s to the root.
func (s *Scope) LookupVariable(name string) *Variable {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Variables[name]; ok {
			return v
		}
	}
	return nil
}

// DefineFunction installs fn under (name, arity), shadowing any parent
// definition with the same key.
func (s *Scope) DefineFunction(fn *Func) {
	s.Functions[funcKey{fn.Name, len(fn.ParamTypes)}] = fn
}

// LookupFunction walks the scope chain looking for a function with the
// given name and arity.
func (s *Scope) LookupFunction(name string, arity int) *Func {
	key := funcKey{name, arity}
	for cur := s; cur != nil; cur = cur.Parent {
		if fn, ok := cur.Functions[key]; ok {
			return fn
		}
	}
	return nil
}

func (s *Scope) String() string {
	return fmt.Sprintf("scope(%d vars, %d funcs)", len(s.Variables), len(s.Functions))
}
